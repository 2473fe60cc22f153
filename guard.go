package padlock

import (
	"context"
	"time"

	goerrors "github.com/goliatone/go-errors"
)

// Dependencies are the collaborators a Guard orchestrates.
type Dependencies struct {
	Session   SessionStore
	Cookies   CookieJar
	Users     UserStore
	Passwords PasswordVerifier
	Tokens    TokenGenerator
}

func (d Dependencies) validate() error {
	missing := []string{}
	if d.Session == nil {
		missing = append(missing, "session")
	}
	if d.Cookies == nil {
		missing = append(missing, "cookies")
	}
	if d.Users == nil {
		missing = append(missing, "users")
	}

	if len(missing) > 0 {
		return goerrors.New("guard dependencies missing", goerrors.CategoryValidation).
			WithTextCode("MISSING_DEPENDENCIES").
			WithMetadata(map[string]any{"missing": missing})
	}
	return nil
}

// Guard answers who is logged in for a single request lifetime and
// performs login, logout and activation transitions.
//
// A Guard is not safe for concurrent use. Create one per request, or
// call Reset before handing a pooled instance to the next request.
type Guard struct {
	session   SessionStore
	cookies   CookieJar
	users     UserStore
	passwords PasswordVerifier
	tokens    TokenGenerator

	config       Config
	logger       Logger
	activitySink ActivitySink
	now          func() time.Time

	checked bool
	user    *User
}

// NewGuard returns a guard in the unchecked state.
func NewGuard(deps Dependencies, opts ...Option) (*Guard, error) {
	if err := deps.validate(); err != nil {
		return nil, err
	}

	g := &Guard{
		session:      deps.Session,
		cookies:      deps.Cookies,
		users:        deps.Users,
		passwords:    deps.Passwords,
		tokens:       deps.Tokens,
		config:       DefaultConfig(),
		logger:       defLogger{},
		activitySink: noopActivitySink{},
		now:          time.Now,
	}

	if g.passwords == nil {
		g.passwords = NewBcryptVerifier()
	}

	if g.tokens == nil {
		g.tokens = DefaultTokenGenerator{}
	}

	for _, opt := range opts {
		if opt != nil {
			opt(g)
		}
	}

	if err := g.config.Validate(); err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryValidation, "invalid guard configuration")
	}

	return g, nil
}

// SetAuthKey sets the auth key. It fails once a login check happened.
func (g *Guard) SetAuthKey(key string) error {
	if err := g.ensureUnchecked("auth_key"); err != nil {
		return err
	}

	cfg := g.config
	cfg.AuthKey = key
	return g.applyConfig(cfg)
}

// SetUserStore binds the store user records are resolved from. It fails
// once a login check happened.
func (g *Guard) SetUserStore(users UserStore) error {
	if err := g.ensureUnchecked("user_store"); err != nil {
		return err
	}
	g.users = users
	return nil
}

// SetCookieOptions sets the remember me cookie attributes. It fails once
// a login check happened.
func (g *Guard) SetCookieOptions(opts CookieOptions) error {
	if err := g.ensureUnchecked("cookie_options"); err != nil {
		return err
	}

	cfg := g.config
	cfg.CookieOptions = opts
	return g.applyConfig(cfg)
}

func (g *Guard) applyConfig(cfg Config) error {
	if err := cfg.Validate(); err != nil {
		return goerrors.Wrap(err, goerrors.CategoryValidation, "invalid guard configuration")
	}
	g.config = cfg
	return nil
}

// Config returns a copy of the active configuration.
func (g *Guard) Config() Config {
	return g.config
}

// Checked reports whether the login check already ran.
func (g *Guard) Checked() bool {
	return g.checked
}

// Reset returns the guard to the unchecked state so a pooled instance can
// serve another request. Collaborators are kept.
func (g *Guard) Reset() {
	g.checked = false
	g.user = nil
}

func (g *Guard) ensureUnchecked(setting string) error {
	if g.checked {
		g.logger.Error("unable to alter %s after login check", setting)
		return ErrConfigurationLocked
	}
	return nil
}

// Check resolves the logged in user for this request. A nil user means
// the request is anonymous. The result is memoized: later calls do not
// touch the session, cookies or user store.
func (g *Guard) Check(ctx context.Context) (*User, error) {
	if g.checked {
		return g.user, nil
	}

	key := g.config.AuthKey

	token, found, err := g.session.Get(ctx, key)
	if err != nil {
		return nil, err
	}

	if !found {
		if token, found = g.cookies.SignedCookie(key); found {
			if err := g.session.Put(ctx, key, token); err != nil {
				return nil, err
			}
			g.emit(ctx, ActivityEvent{EventType: ActivityEventCookiePromoted})
		}
	}

	if found {
		user, err := g.users.FindByToken(ctx, token)
		if err != nil && !IsUserNotFound(err) {
			return nil, err
		}

		if reason := rejectReason(user, err); reason != "" {
			g.logger.Info("login check rejected stored credentials: %s", reason)
			g.emit(ctx, ActivityEvent{
				EventType: ActivityEventCheckRejected,
				UserID:    userID(user),
				Metadata:  map[string]any{"reason": reason},
			})

			if err := g.Logout(ctx); err != nil {
				return nil, err
			}
		} else {
			g.user = user
		}
	}

	g.checked = true

	return g.user, nil
}

func rejectReason(user *User, err error) string {
	switch {
	case err != nil || user == nil:
		return "unknown token"
	case user.IsBanned():
		return "banned"
	case !user.IsActivated():
		return "not activated"
	default:
		return ""
	}
}

// User returns the logged in user or nil.
func (g *Guard) User(ctx context.Context) (*User, error) {
	return g.Check(ctx)
}

// IsLoggedIn reports whether a valid user is associated with the request.
func (g *Guard) IsLoggedIn(ctx context.Context) (bool, error) {
	user, err := g.Check(ctx)
	if err != nil {
		return false, err
	}
	return user != nil, nil
}

// IsGuest is the negation of IsLoggedIn.
func (g *Guard) IsGuest(ctx context.Context) (bool, error) {
	loggedIn, err := g.IsLoggedIn(ctx)
	if err != nil {
		return false, err
	}
	return !loggedIn, nil
}

// Authenticate verifies credentials without touching the session or the
// current user; only Login makes an authenticated user current. Expected
// outcomes are reported through LoginStatus, errors are reserved for
// invalid arguments and collaborator failures.
func (g *Guard) Authenticate(ctx context.Context, email, password string, force bool, refine ...Refinement) (LoginStatus, error) {
	_, status, err := g.authenticate(ctx, email, password, force, refine...)
	if err != nil {
		return 0, err
	}
	return status, nil
}

func (g *Guard) authenticate(ctx context.Context, email, password string, force bool, refine ...Refinement) (*User, LoginStatus, error) {
	for _, r := range refine {
		if r == nil {
			return nil, 0, ErrInvalidRefinement
		}
	}

	user, err := g.users.FindByEmail(ctx, email, refine...)
	if err != nil {
		if IsUserNotFound(err) {
			return nil, LoginIncorrect, nil
		}
		return nil, 0, err
	}

	if user == nil {
		return nil, LoginIncorrect, nil
	}

	if !force && !user.ValidatePassword(g.passwords, password) {
		return nil, LoginIncorrect, nil
	}

	if !user.IsActivated() {
		return user, LoginActivating, nil
	}

	if user.IsBanned() {
		return user, LoginBanned, nil
	}

	return user, LoginSuccess, nil
}

// LoginOption customizes a login attempt.
type LoginOption func(*loginOptions)

type loginOptions struct {
	remember bool
	force    bool
	refine   []Refinement
}

// WithRemember sets a remember me cookie on success.
func WithRemember() LoginOption {
	return func(o *loginOptions) {
		o.remember = true
	}
}

// WithForce skips the password check.
func WithForce() LoginOption {
	return func(o *loginOptions) {
		o.force = true
	}
}

// WithRefinement adds constraints to the user lookup.
func WithRefinement(r Refinement) LoginOption {
	return func(o *loginOptions) {
		o.refine = append(o.refine, r)
	}
}

// Login authenticates the user and stores the token in the session,
// rotating the session identifier first. With WithRemember the token is
// also written to a signed cookie valid for RememberCookieTTL.
//
// Failed attempts return the status from Authenticate and have no side
// effects.
func (g *Guard) Login(ctx context.Context, email, password string, opts ...LoginOption) (LoginStatus, error) {
	options := &loginOptions{}
	for _, opt := range opts {
		if opt != nil {
			opt(options)
		}
	}

	user, status, err := g.authenticate(ctx, email, password, options.force, options.refine...)
	if err != nil {
		g.logger.Error("login authenticate error: %v", err)
		return 0, err
	}

	if !status.OK() {
		g.logger.Info("login rejected: %s", status)
		g.emit(ctx, ActivityEvent{
			EventType: ActivityEventLoginFailure,
			UserID:    userID(user),
			Status:    status,
			Forced:    options.force,
		})
		return status, nil
	}

	key := g.config.AuthKey

	if err := g.session.RegenerateID(ctx); err != nil {
		return 0, err
	}

	if err := g.session.Put(ctx, key, user.GetToken()); err != nil {
		return 0, err
	}

	if options.remember {
		if err := g.cookies.SetSignedCookie(key, user.GetToken(), RememberCookieTTL, g.config.CookieOptions); err != nil {
			return 0, err
		}
	}

	g.user = user
	g.checked = true

	g.emit(ctx, ActivityEvent{
		EventType: ActivityEventLoginSuccess,
		UserID:    userID(user),
		Status:    status,
		Forced:    options.force,
		Remember:  options.remember,
	})

	return status, nil
}

// ForceLogin logs a user in without checking the password, e.g. for
// administrative impersonation.
func (g *Guard) ForceLogin(ctx context.Context, identifier string, remember bool) (bool, error) {
	opts := []LoginOption{WithForce()}
	if remember {
		opts = append(opts, WithRemember())
	}

	status, err := g.Login(ctx, identifier, "", opts...)
	if err != nil {
		return false, err
	}
	return status.OK(), nil
}

// Logout rotates the session identifier, removes the token from the
// session and cookie storage and forgets the current user. The guard stays
// checked as anonymous, so a remember cookie still present on the request
// is not promoted again. It is safe to call when nobody is logged in.
func (g *Guard) Logout(ctx context.Context) error {
	key := g.config.AuthKey

	if err := g.session.RegenerateID(ctx); err != nil {
		return err
	}

	if err := g.session.Remove(ctx, key); err != nil {
		return err
	}

	g.cookies.DeleteCookie(key, g.config.CookieOptions)

	previous := g.user
	g.user = nil
	g.checked = true

	if previous != nil {
		g.emit(ctx, ActivityEvent{
			EventType: ActivityEventLogout,
			UserID:    userID(previous),
		})
	}

	return nil
}

// ActivateUser activates the not yet activated user holding token and
// rotates the token so it cannot be replayed. Unknown tokens and already
// activated users return false.
func (g *Guard) ActivateUser(ctx context.Context, token string) (bool, error) {
	user, err := g.users.FindByTokenWhereNotActivated(ctx, token)
	if err != nil {
		if IsUserNotFound(err) {
			return false, nil
		}
		return false, err
	}

	if user == nil {
		return false, nil
	}

	user.Activate()

	if err := user.GenerateToken(g.tokens); err != nil {
		return false, err
	}

	if err := g.users.Save(ctx, user); err != nil {
		return false, err
	}

	g.emit(ctx, ActivityEvent{
		EventType: ActivityEventUserActivated,
		UserID:    userID(user),
	})

	return true, nil
}

func (g *Guard) emit(ctx context.Context, event ActivityEvent) {
	if event.OccurredAt.IsZero() {
		event.OccurredAt = g.now()
	}

	if event.Metadata == nil {
		event.Metadata = map[string]any{}
	}

	sink := normalizeActivitySink(g.activitySink)
	if err := sink.Record(ctx, event); err != nil {
		g.logger.Warn("activity sink record error: %v", err)
	}
}

func userID(user *User) string {
	if user == nil {
		return ""
	}
	return user.ID.String()
}
