package web_test

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	padlock "github.com/goliatone/go-padlock"
	"github.com/goliatone/go-padlock/session"
	"github.com/goliatone/go-padlock/web"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

type memoryUsers struct {
	mu    sync.Mutex
	users []*padlock.User
}

func (m *memoryUsers) find(match func(*padlock.User) bool) (*padlock.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if match(u) {
			cp := *u
			return &cp, nil
		}
	}
	return nil, padlock.ErrUserNotFound
}

func (m *memoryUsers) FindByToken(_ context.Context, token string) (*padlock.User, error) {
	return m.find(func(u *padlock.User) bool { return token != "" && u.Token == token })
}

func (m *memoryUsers) FindByEmail(_ context.Context, email string, _ ...padlock.Refinement) (*padlock.User, error) {
	return m.find(func(u *padlock.User) bool { return u.Email == email })
}

func (m *memoryUsers) FindByTokenWhereNotActivated(_ context.Context, token string) (*padlock.User, error) {
	return m.find(func(u *padlock.User) bool { return u.Token == token && !u.Activated })
}

func (m *memoryUsers) Save(_ context.Context, user *padlock.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, u := range m.users {
		if u.ID == user.ID {
			cp := *user
			m.users[i] = &cp
			return nil
		}
	}
	return padlock.ErrUserNotFound
}

type fixture struct {
	handler  http.Handler
	sessions *session.Manager
	backend  *session.MemoryBackend
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	passwords := padlock.BcryptVerifier{Cost: bcrypt.MinCost}
	alice := &padlock.User{ID: uuid.New(), Email: "alice@example.com", Token: "tok-alice", Activated: true}
	require.NoError(t, alice.SetPassword(passwords, "secret"))

	backend := session.NewMemoryBackend()
	sessions := session.NewManager(backend)

	mw := web.Middleware(web.Config{
		Sessions:  sessions,
		Users:     &memoryUsers{users: []*padlock.User{alice}},
		Signer:    padlock.NewJWTCookieSigner([]byte("test-signing-key"), "padlock-test"),
		Passwords: passwords,
	})

	mux := http.NewServeMux()
	mux.HandleFunc("/login", func(w http.ResponseWriter, r *http.Request) {
		guard, _ := web.GuardFromRequest(r)
		opts := []padlock.LoginOption{}
		if r.URL.Query().Get("remember") == "1" {
			opts = append(opts, padlock.WithRemember())
		}
		status, err := guard.Login(r.Context(), r.URL.Query().Get("email"), r.URL.Query().Get("password"), opts...)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		if !status.OK() {
			http.Error(w, status.String(), http.StatusUnauthorized)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	})
	mux.HandleFunc("/logout", func(w http.ResponseWriter, r *http.Request) {
		guard, _ := web.GuardFromRequest(r)
		if err := guard.Logout(r.Context()); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	})
	mux.HandleFunc("/logout-then-check", func(w http.ResponseWriter, r *http.Request) {
		guard, _ := web.GuardFromRequest(r)
		if err := guard.Logout(r.Context()); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		user, err := guard.Check(r.Context())
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		if user == nil {
			_, _ = w.Write([]byte("anonymous"))
			return
		}
		_, _ = w.Write([]byte(user.Email))
	})
	mux.Handle("/me", web.RequireUser(nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, _ := padlock.UserFromContext(r.Context())
		_, _ = w.Write([]byte(user.Email))
	})))

	return &fixture{handler: mw(mux), sessions: sessions, backend: backend}
}

func (f *fixture) do(t *testing.T, target string, cookies ...*http.Cookie) *http.Response {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, target, nil)
	for _, c := range cookies {
		req.AddCookie(c)
	}
	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)
	return rec.Result()
}

func cookieNamed(res *http.Response, name string) *http.Cookie {
	for _, c := range res.Cookies() {
		if c.Name == name {
			return c
		}
	}
	return nil
}

func readBody(t *testing.T, res *http.Response) string {
	t.Helper()
	body, err := io.ReadAll(res.Body)
	require.NoError(t, err)
	return string(body)
}

func TestMiddlewareGuestIsRejected(t *testing.T) {
	f := newFixture(t)

	res := f.do(t, "/me")
	assert.Equal(t, http.StatusUnauthorized, res.StatusCode)
	assert.Nil(t, cookieNamed(res, session.DefaultCookieName))
	assert.Equal(t, 0, f.backend.Len())
}

func TestMiddlewareLoginThenSessionCookie(t *testing.T) {
	f := newFixture(t)

	res := f.do(t, "/login?email=alice@example.com&password=secret")
	require.Equal(t, http.StatusNoContent, res.StatusCode)

	sid := cookieNamed(res, session.DefaultCookieName)
	require.NotNil(t, sid)
	assert.True(t, sid.HttpOnly)
	assert.Nil(t, cookieNamed(res, padlock.DefaultAuthKey))

	res = f.do(t, "/me", sid)
	assert.Equal(t, http.StatusOK, res.StatusCode)
	assert.Equal(t, "alice@example.com", readBody(t, res))
}

func TestMiddlewareWrongPassword(t *testing.T) {
	f := newFixture(t)

	res := f.do(t, "/login?email=alice@example.com&password=nope")
	assert.Equal(t, http.StatusUnauthorized, res.StatusCode)
	assert.Nil(t, cookieNamed(res, session.DefaultCookieName))
}

func TestMiddlewareLoginRotatesSession(t *testing.T) {
	f := newFixture(t)

	ctx := context.Background()
	pre, err := f.sessions.Start(ctx, "")
	require.NoError(t, err)
	require.NoError(t, pre.Put(ctx, "theme", "dark"))
	require.NoError(t, f.sessions.Commit(ctx, pre))

	res := f.do(t, "/login?email=alice@example.com&password=secret", &http.Cookie{Name: session.DefaultCookieName, Value: pre.ID()})
	require.Equal(t, http.StatusNoContent, res.StatusCode)

	sid := cookieNamed(res, session.DefaultCookieName)
	require.NotNil(t, sid)
	assert.NotEqual(t, pre.ID(), sid.Value)

	old, err := f.backend.Load(ctx, pre.ID())
	require.NoError(t, err)
	assert.Nil(t, old)

	rotated, err := f.backend.Load(ctx, sid.Value)
	require.NoError(t, err)
	assert.Equal(t, "dark", rotated["theme"])
	assert.Equal(t, "tok-alice", rotated[padlock.DefaultAuthKey])
}

func TestMiddlewareRememberCookiePromotion(t *testing.T) {
	f := newFixture(t)

	res := f.do(t, "/login?email=alice@example.com&password=secret&remember=1")
	require.Equal(t, http.StatusNoContent, res.StatusCode)

	remember := cookieNamed(res, padlock.DefaultAuthKey)
	require.NotNil(t, remember)
	assert.NotEqual(t, "tok-alice", remember.Value)

	res = f.do(t, "/me", remember)
	assert.Equal(t, http.StatusOK, res.StatusCode)

	promoted := cookieNamed(res, session.DefaultCookieName)
	require.NotNil(t, promoted)

	values, err := f.backend.Load(context.Background(), promoted.Value)
	require.NoError(t, err)
	assert.Equal(t, "tok-alice", values[padlock.DefaultAuthKey])
}

func TestMiddlewareTamperedRememberCookie(t *testing.T) {
	f := newFixture(t)

	res := f.do(t, "/me", &http.Cookie{Name: padlock.DefaultAuthKey, Value: "tok-alice"})
	assert.Equal(t, http.StatusUnauthorized, res.StatusCode)
}

func TestMiddlewareLogout(t *testing.T) {
	f := newFixture(t)

	res := f.do(t, "/login?email=alice@example.com&password=secret&remember=1")
	sid := cookieNamed(res, session.DefaultCookieName)
	require.NotNil(t, sid)

	res = f.do(t, "/logout", sid)
	require.Equal(t, http.StatusNoContent, res.StatusCode)

	deleted := cookieNamed(res, padlock.DefaultAuthKey)
	require.NotNil(t, deleted)
	assert.Equal(t, -1, deleted.MaxAge)

	next := cookieNamed(res, session.DefaultCookieName)
	require.NotNil(t, next)
	assert.NotEqual(t, sid.Value, next.Value)

	res = f.do(t, "/me", next)
	assert.Equal(t, http.StatusUnauthorized, res.StatusCode)

	res = f.do(t, "/me", sid)
	assert.Equal(t, http.StatusUnauthorized, res.StatusCode)
}

func TestMiddlewareLogoutIgnoresRequestRememberCookie(t *testing.T) {
	f := newFixture(t)

	res := f.do(t, "/login?email=alice@example.com&password=secret&remember=1")
	remember := cookieNamed(res, padlock.DefaultAuthKey)
	require.NotNil(t, remember)

	res = f.do(t, "/logout-then-check", remember)
	require.Equal(t, http.StatusOK, res.StatusCode)
	assert.Equal(t, "anonymous", readBody(t, res))

	deleted := cookieNamed(res, padlock.DefaultAuthKey)
	require.NotNil(t, deleted)
	assert.Equal(t, -1, deleted.MaxAge)

	if sid := cookieNamed(res, session.DefaultCookieName); sid != nil {
		values, err := f.backend.Load(context.Background(), sid.Value)
		require.NoError(t, err)
		assert.NotContains(t, values, padlock.DefaultAuthKey)
	}
}

func TestMiddlewareFilterSkipsGuard(t *testing.T) {
	mw := web.Middleware(web.Config{
		Filter:   func(r *http.Request) bool { return r.URL.Path == "/health" },
		Sessions: session.NewManager(session.NewMemoryBackend()),
		Users:    &memoryUsers{},
		Signer:   padlock.NewJWTCookieSigner([]byte("k"), ""),
	})

	var found bool
	h := mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, found = web.GuardFromRequest(r)
	}))

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.False(t, found)

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/other", nil))
	assert.True(t, found)
}

func TestMiddlewarePanicsWithoutDependencies(t *testing.T) {
	assert.Panics(t, func() {
		web.Middleware(web.Config{})
	})
}
