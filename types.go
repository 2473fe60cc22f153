package padlock

import (
	"context"
	"fmt"
	"time"
)

type Logger interface {
	Debug(format string, args ...any)
	Info(format string, args ...any)
	Warn(format string, args ...any)
	Error(format string, args ...any)
}

// SessionStore is the per request key/value store backing a Guard.
// Implementations own the session identifier and must rotate it
// atomically on RegenerateID.
type SessionStore interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Put(ctx context.Context, key, value string) error
	Remove(ctx context.Context, key string) error
	RegenerateID(ctx context.Context) error
}

// CookieReader returns the verified value of a signed cookie. A missing
// cookie or one that fails verification is reported as absent.
type CookieReader interface {
	SignedCookie(key string) (string, bool)
}

// CookieWriter sets and removes signed cookies on the response.
type CookieWriter interface {
	SetSignedCookie(key, value string, ttl time.Duration, opts CookieOptions) error
	DeleteCookie(key string, opts CookieOptions)
}

// CookieJar is the client side store used for remember me logins.
type CookieJar interface {
	CookieReader
	CookieWriter
}

// CookieSigner makes cookie values tamper evident.
type CookieSigner interface {
	Sign(name, value string, ttl time.Duration) (string, error)
	Verify(name, signed string) (string, error)
}

// UserStore resolves user records. Lookups that match nothing return
// ErrUserNotFound.
type UserStore interface {
	FindByToken(ctx context.Context, token string) (*User, error)
	FindByEmail(ctx context.Context, email string, refine ...Refinement) (*User, error)
	FindByTokenWhereNotActivated(ctx context.Context, token string) (*User, error)
	Save(ctx context.Context, user *User) error
}

// PasswordVerifier hashes and verifies passwords.
type PasswordVerifier interface {
	Hash(password string) (string, error)
	Verify(password, hash string) bool
}

// TokenGenerator produces unguessable opaque tokens. The seed is mixed
// into the token but never required to be secret.
type TokenGenerator interface {
	NewToken(seed string) (string, error)
}

// Query is the in-progress user lookup handed to a Refinement.
type Query interface {
	Where(column string, value any) Query
}

// Refinement narrows a user lookup, e.g. to scope it to a tenant. It may
// return the query it was given or mutate it in place and return nil.
type Refinement func(q Query) Query

type defLogger struct{}

func (d defLogger) Error(format string, args ...any) {
	fmt.Printf("[ERR] PADLOCK "+newline(format), args...)
}

func (d defLogger) Warn(format string, args ...any) {
	fmt.Printf("[WRN] PADLOCK "+newline(format), args...)
}

func (d defLogger) Info(format string, args ...any) {
	fmt.Printf("[INF] PADLOCK "+newline(format), args...)
}

func (d defLogger) Debug(format string, args ...any) {
	fmt.Printf("[DBG] PADLOCK "+newline(format), args...)
}

func newline(s string) string {
	if len(s) > 0 && s[len(s)-1] != '\n' {
		s += "\n"
	}
	return s
}
