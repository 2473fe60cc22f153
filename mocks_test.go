package padlock_test

import (
	"context"
	"sync"
	"time"

	padlock "github.com/goliatone/go-padlock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

// MockUserStore implements padlock.UserStore
type MockUserStore struct {
	mock.Mock
}

func (m *MockUserStore) FindByToken(ctx context.Context, token string) (*padlock.User, error) {
	args := m.Called(ctx, token)
	user, _ := args.Get(0).(*padlock.User)
	return user, args.Error(1)
}

func (m *MockUserStore) FindByEmail(ctx context.Context, email string, refine ...padlock.Refinement) (*padlock.User, error) {
	args := m.Called(ctx, email, refine)
	user, _ := args.Get(0).(*padlock.User)
	return user, args.Error(1)
}

func (m *MockUserStore) FindByTokenWhereNotActivated(ctx context.Context, token string) (*padlock.User, error) {
	args := m.Called(ctx, token)
	user, _ := args.Get(0).(*padlock.User)
	return user, args.Error(1)
}

func (m *MockUserStore) Save(ctx context.Context, user *padlock.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

// fakeSession is an in-memory padlock.SessionStore that counts calls.
type fakeSession struct {
	id     string
	values map[string]string

	gets, puts, removes, regens int

	getErr   error
	regenErr error
}

func newFakeSession() *fakeSession {
	return &fakeSession{id: "sid-0", values: map[string]string{}}
}

func (s *fakeSession) Get(_ context.Context, key string) (string, bool, error) {
	s.gets++
	if s.getErr != nil {
		return "", false, s.getErr
	}
	v, ok := s.values[key]
	return v, ok, nil
}

func (s *fakeSession) Put(_ context.Context, key, value string) error {
	s.puts++
	s.values[key] = value
	return nil
}

func (s *fakeSession) Remove(_ context.Context, key string) error {
	s.removes++
	delete(s.values, key)
	return nil
}

func (s *fakeSession) RegenerateID(_ context.Context) error {
	if s.regenErr != nil {
		return s.regenErr
	}
	s.regens++
	s.id = uuid.NewString()
	return nil
}

type setCookie struct {
	value string
	ttl   time.Duration
	opts  padlock.CookieOptions
}

// fakeCookies keeps the cookies that arrived with the request apart from
// the ones written to the response, like a real jar does.
type fakeCookies struct {
	request map[string]string
	set     map[string]setCookie
	deleted []string
	reads   int
}

func newFakeCookies() *fakeCookies {
	return &fakeCookies{request: map[string]string{}, set: map[string]setCookie{}}
}

// nextRequest returns the jar a browser would present on its next request.
func (c *fakeCookies) nextRequest() *fakeCookies {
	next := newFakeCookies()
	for k, v := range c.request {
		next.request[k] = v
	}
	for _, k := range c.deleted {
		delete(next.request, k)
	}
	for k, v := range c.set {
		next.request[k] = v.value
	}
	return next
}

func (c *fakeCookies) SignedCookie(key string) (string, bool) {
	c.reads++
	v, ok := c.request[key]
	return v, ok
}

func (c *fakeCookies) SetSignedCookie(key, value string, ttl time.Duration, opts padlock.CookieOptions) error {
	c.set[key] = setCookie{value: value, ttl: ttl, opts: opts}
	return nil
}

func (c *fakeCookies) DeleteCookie(key string, _ padlock.CookieOptions) {
	delete(c.set, key)
	c.deleted = append(c.deleted, key)
}

// userTable is a stateful padlock.UserStore.
type userTable struct {
	mu    sync.Mutex
	users map[uuid.UUID]*padlock.User

	tokenLookups int
	saves        int
}

func newUserTable(users ...*padlock.User) *userTable {
	t := &userTable{users: map[uuid.UUID]*padlock.User{}}
	for _, u := range users {
		t.users[u.ID] = u
	}
	return t
}

func (t *userTable) find(match func(*padlock.User) bool) (*padlock.User, error) {
	for _, u := range t.users {
		if match(u) {
			cp := *u
			return &cp, nil
		}
	}
	return nil, padlock.ErrUserNotFound
}

func (t *userTable) FindByToken(_ context.Context, token string) (*padlock.User, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.tokenLookups++
	return t.find(func(u *padlock.User) bool { return token != "" && u.Token == token })
}

func (t *userTable) FindByEmail(_ context.Context, email string, refine ...padlock.Refinement) (*padlock.User, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	q := &recordingQuery{}
	for _, r := range refine {
		r(q)
	}

	return t.find(func(u *padlock.User) bool {
		return u.Email == email && q.matches(u)
	})
}

func (t *userTable) FindByTokenWhereNotActivated(_ context.Context, token string) (*padlock.User, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.find(func(u *padlock.User) bool { return token != "" && u.Token == token && !u.Activated })
}

func (t *userTable) Save(_ context.Context, user *padlock.User) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.saves++
	cp := *user
	t.users[user.ID] = &cp
	return nil
}

func (t *userTable) get(id uuid.UUID) *padlock.User {
	t.mu.Lock()
	defer t.mu.Unlock()
	cp := *t.users[id]
	return &cp
}

// recordingQuery supports the "banned" column only.
type recordingQuery struct {
	banned *bool
}

func (q *recordingQuery) Where(column string, value any) padlock.Query {
	if column == "banned" {
		if b, ok := value.(bool); ok {
			q.banned = &b
		}
	}
	return q
}

func (q *recordingQuery) matches(u *padlock.User) bool {
	return q.banned == nil || *q.banned == u.Banned
}
