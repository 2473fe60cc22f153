package app

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	padlock "github.com/goliatone/go-padlock"
	"github.com/goliatone/go-padlock/activitymap"
	"github.com/goliatone/go-padlock/metrics"
	"github.com/goliatone/go-padlock/repository"
	"github.com/goliatone/go-padlock/session"
	"github.com/goliatone/go-padlock/web"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"
)

// App holds the wired dependencies of the padlockd service.
type App struct {
	config Config
	logger *slog.Logger

	db        *bun.DB
	redis     *redis.Client
	users     *repository.Users
	sessions  *session.Manager
	passwords padlock.PasswordVerifier
	registry  *prometheus.Registry
	router    chi.Router
}

// Option customizes App construction.
type Option func(*App)

// WithPasswordVerifier overrides the bcrypt verifier.
func WithPasswordVerifier(v padlock.PasswordVerifier) Option {
	return func(a *App) {
		if v != nil {
			a.passwords = v
		}
	}
}

// New opens the database, applies migrations and mounts the routes.
func New(ctx context.Context, cfg Config, logger *slog.Logger, opts ...Option) (*App, error) {
	if logger == nil {
		logger = slog.Default()
	}

	a := &App{
		config:    cfg,
		logger:    logger,
		passwords: padlock.NewBcryptVerifier(),
		registry:  prometheus.NewRegistry(),
	}

	for _, opt := range opts {
		if opt != nil {
			opt(a)
		}
	}

	if err := a.withPersistence(ctx); err != nil {
		return nil, err
	}

	if err := a.withSessions(ctx); err != nil {
		_ = a.Close()
		return nil, err
	}

	a.routes()

	return a, nil
}

func (a *App) withPersistence(ctx context.Context) error {
	sqldb, err := sql.Open(sqliteshim.ShimName, a.config.Database.DSN)
	if err != nil {
		return err
	}
	sqldb.SetMaxOpenConns(1)

	a.db = bun.NewDB(sqldb, sqlitedialect.New())

	group, err := repository.Migrate(ctx, a.db)
	if err != nil {
		_ = a.db.Close()
		return err
	}

	if group != nil && !group.IsZero() {
		a.logger.Info("migrations applied", "group", group.String())
	}

	a.users = repository.NewUsers(a.db)
	return nil
}

func (a *App) withSessions(ctx context.Context) error {
	cfg := a.config.Session

	var backend session.Backend
	switch cfg.Backend {
	case SessionBackendRedis:
		a.redis = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := a.redis.Ping(ctx).Err(); err != nil {
			return err
		}
		backend = session.NewRedisBackend(a.redis, cfg.Redis.Prefix)
	default:
		backend = session.NewMemoryBackend()
	}

	cookie := a.config.Auth.Guard.CookieOptions
	a.sessions = session.NewManager(backend,
		session.WithCookieName(cfg.CookieName),
		session.WithTTL(cfg.TTL),
		session.WithCookieOptions(cookie),
		session.WithLogger(padlock.NewSlogLogger(a.logger)),
	)

	a.logger.Info("session backend ready", "backend", cfg.Backend)
	return nil
}

func (a *App) routes() {
	guardLogger := padlock.NewSlogLogger(a.logger)

	activity := padlock.MultiActivitySink{
		activitymap.SlogSink(a.logger.With("component", "audit")),
		metrics.NewSink(a.registry),
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Handle("/metrics", metrics.Handler(a.registry))

	r.Group(func(r chi.Router) {
		r.Use(web.Middleware(web.Config{
			Sessions:  a.sessions,
			Users:     a.users,
			Signer:    padlock.NewJWTCookieSigner([]byte(a.config.Auth.SigningKey), a.config.Auth.Issuer),
			Passwords: a.passwords,
			Logger:    guardLogger,
			GuardOptions: []padlock.Option{
				padlock.WithConfig(a.config.Auth.Guard),
				padlock.WithActivitySink(activity),
			},
		}))

		r.Post("/register", a.register)
		r.Post("/login", a.login)
		r.Post("/logout", a.logout)
		r.Get("/activate", a.activate)

		r.With(web.RequireUser(nil)).Get("/me", a.me)
	})

	a.router = r
}

// Handler returns the root HTTP handler.
func (a *App) Handler() http.Handler {
	return a.router
}

// Run serves HTTP until ctx is cancelled.
func (a *App) Run(ctx context.Context) error {
	server := &http.Server{
		Addr:              a.config.Server.Addr,
		Handler:           a.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		a.logger.Info("http server starting", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errc <- err
		}
		close(errc)
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	timeout := a.config.Server.ShutdownTimeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	a.logger.Info("shutting down http server")
	return server.Shutdown(shutdownCtx)
}

// Close releases the database and redis connections.
func (a *App) Close() error {
	var errs []error
	if a.redis != nil {
		errs = append(errs, a.redis.Close())
	}
	if a.db != nil {
		errs = append(errs, a.db.Close())
	}
	return errors.Join(errs...)
}
