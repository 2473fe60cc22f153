package padlock

import (
	"regexp"
	"time"

	validation "github.com/go-ozzo/ozzo-validation"
)

// DefaultAuthKey is the session and cookie key holding the bearer token.
const DefaultAuthKey = "padlock_auth_key"

// RememberCookieTTL is the lifetime of a remember me cookie.
const RememberCookieTTL = 365 * 24 * time.Hour

var cookiePathPattern = regexp.MustCompile(`^/`)

// CookieOptions are the attributes used to set and delete the auth cookie.
// Deleting a cookie requires the same path and domain used to set it.
type CookieOptions struct {
	Path     string `koanf:"path" json:"path"`
	Domain   string `koanf:"domain" json:"domain"`
	Secure   bool   `koanf:"secure" json:"secure"`
	HTTPOnly bool   `koanf:"http_only" json:"http_only"`
	SameSite string `koanf:"same_site" json:"same_site"`
}

// DefaultCookieOptions returns path "/", no domain, not secure, not http only.
func DefaultCookieOptions() CookieOptions {
	return CookieOptions{
		Path: "/",
	}
}

func (o CookieOptions) Validate() error {
	return validation.ValidateStruct(&o,
		validation.Field(&o.Path, validation.Required, validation.Match(cookiePathPattern)),
		validation.Field(&o.SameSite, validation.In("", "Lax", "Strict", "None")),
	)
}

// Config holds guard options that are fixed before the first login check.
type Config struct {
	AuthKey       string        `koanf:"auth_key" json:"auth_key"`
	CookieOptions CookieOptions `koanf:"cookie" json:"cookie"`
}

// DefaultConfig returns the default guard configuration.
func DefaultConfig() Config {
	return Config{
		AuthKey:       DefaultAuthKey,
		CookieOptions: DefaultCookieOptions(),
	}
}

func (c Config) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.AuthKey, validation.Required),
		validation.Field(&c.CookieOptions),
	)
}

// Option customizes guard construction.
type Option func(*Guard)

// WithAuthKey sets the key used in both session and cookie storage.
func WithAuthKey(key string) Option {
	return func(g *Guard) {
		if key != "" {
			g.config.AuthKey = key
		}
	}
}

// WithCookieOptions sets the attributes of the remember me cookie.
func WithCookieOptions(opts CookieOptions) Option {
	return func(g *Guard) {
		g.config.CookieOptions = opts
	}
}

// WithConfig replaces the whole guard configuration.
func WithConfig(cfg Config) Option {
	return func(g *Guard) {
		g.config = cfg
	}
}

// WithLogger overrides the logger.
func WithLogger(logger Logger) Option {
	return func(g *Guard) {
		if logger != nil {
			g.logger = logger
		}
	}
}

// WithActivitySink sets the ActivitySink used to publish auth events.
func WithActivitySink(sink ActivitySink) Option {
	return func(g *Guard) {
		g.activitySink = normalizeActivitySink(sink)
	}
}

// WithClock injects a custom clock (useful for tests).
func WithClock(clock func() time.Time) Option {
	return func(g *Guard) {
		if clock != nil {
			g.now = clock
		}
	}
}
