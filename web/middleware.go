package web

import (
	"net/http"
	"sync"

	goerrors "github.com/goliatone/go-errors"
	padlock "github.com/goliatone/go-padlock"
	"github.com/goliatone/go-padlock/session"
)

// Config configures Middleware.
type Config struct {
	// Filter skips the middleware when it returns true.
	Filter   func(*http.Request) bool
	Sessions *session.Manager
	Users    padlock.UserStore
	Signer   padlock.CookieSigner

	// Passwords and Tokens default to the guard defaults when nil.
	Passwords padlock.PasswordVerifier
	Tokens    padlock.TokenGenerator

	GuardOptions []padlock.Option
	Logger       padlock.Logger
	ErrorHandler func(w http.ResponseWriter, r *http.Request, err error)
}

func (cfg Config) validate() error {
	missing := []string{}
	if cfg.Sessions == nil {
		missing = append(missing, "sessions")
	}
	if cfg.Users == nil {
		missing = append(missing, "users")
	}
	if cfg.Signer == nil {
		missing = append(missing, "signer")
	}

	if len(missing) > 0 {
		return goerrors.New("web middleware misconfigured", goerrors.CategoryValidation).
			WithTextCode("MISSING_DEPENDENCIES").
			WithMetadata(map[string]any{"missing": missing})
	}
	return nil
}

func defaultErrorHandler(w http.ResponseWriter, _ *http.Request, _ error) {
	http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
}

// Middleware attaches a request scoped padlock.Guard to every request. The
// session is committed, and its cookie written, right before the first
// byte of the response.
//
// It panics when cfg lacks the session manager, user store or signer.
func Middleware(cfg Config) func(http.Handler) http.Handler {
	if err := cfg.validate(); err != nil {
		panic(err)
	}

	if cfg.Logger == nil {
		cfg.Logger = padlock.NewSlogLogger(nil)
	}

	if cfg.ErrorHandler == nil {
		cfg.ErrorHandler = defaultErrorHandler
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if cfg.Filter != nil && cfg.Filter(r) {
				next.ServeHTTP(w, r)
				return
			}

			ctx := r.Context()

			incomingID := ""
			if c, err := r.Cookie(cfg.Sessions.CookieName()); err == nil {
				incomingID = c.Value
			}

			sess, err := cfg.Sessions.Start(ctx, incomingID)
			if err != nil {
				cfg.Logger.Error("session start failed: %v", err)
				cfg.ErrorHandler(w, r, err)
				return
			}

			cw := &commitWriter{
				ResponseWriter: w,
				commit: func() error {
					return commitSession(r, w, cfg.Sessions, sess, incomingID)
				},
				logger: cfg.Logger,
			}

			opts := append([]padlock.Option{padlock.WithLogger(cfg.Logger)}, cfg.GuardOptions...)
			guard, err := padlock.NewGuard(padlock.Dependencies{
				Session:   sess,
				Cookies:   NewCookieJar(cw, r, cfg.Signer),
				Users:     cfg.Users,
				Passwords: cfg.Passwords,
				Tokens:    cfg.Tokens,
			}, opts...)
			if err != nil {
				cfg.Logger.Error("guard setup failed: %v", err)
				cfg.ErrorHandler(w, r, err)
				return
			}

			next.ServeHTTP(cw, r.WithContext(padlock.WithGuard(ctx, guard)))

			if err := cw.flushCommit(); err != nil && !cw.wrote {
				cfg.ErrorHandler(w, r, err)
			}
		})
	}
}

func commitSession(r *http.Request, w http.ResponseWriter, m *session.Manager, sess *session.Session, incomingID string) error {
	if err := m.Commit(r.Context(), sess); err != nil {
		return err
	}

	id := sess.ID()
	if id == incomingID || !sess.Persisted() {
		return nil
	}

	c := httpCookie(m.CookieName(), id, m.CookieOptions())
	c.MaxAge = int(m.TTL().Seconds())
	c.HttpOnly = true
	http.SetCookie(w, c)
	return nil
}

// commitWriter runs commit exactly once, before headers are sent.
type commitWriter struct {
	http.ResponseWriter
	commit func() error
	logger padlock.Logger

	once  sync.Once
	err   error
	wrote bool
}

func (cw *commitWriter) flushCommit() error {
	cw.once.Do(func() {
		cw.err = cw.commit()
		if cw.err != nil {
			cw.logger.Error("session commit failed: %v", cw.err)
		}
	})
	return cw.err
}

func (cw *commitWriter) WriteHeader(status int) {
	_ = cw.flushCommit()
	cw.wrote = true
	cw.ResponseWriter.WriteHeader(status)
}

func (cw *commitWriter) Write(b []byte) (int, error) {
	if !cw.wrote {
		cw.WriteHeader(http.StatusOK)
	}
	return cw.ResponseWriter.Write(b)
}

func (cw *commitWriter) Unwrap() http.ResponseWriter {
	return cw.ResponseWriter
}
