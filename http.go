package padlock

import (
	"time"

	"github.com/goliatone/go-router"
)

// cookieContext is the part of router.Context the jar needs.
type cookieContext interface {
	Cookies(key string, defaultValue ...string) string
	Cookie(cookie *router.Cookie)
}

var _ CookieJar = &RouterCookieJar{}

// RouterCookieJar reads and writes signed cookies through a go-router
// context.
type RouterCookieJar struct {
	ctx    cookieContext
	signer CookieSigner
	now    func() time.Time
}

// NewRouterCookieJar binds a jar to the request context c.
func NewRouterCookieJar(c router.Context, signer CookieSigner) *RouterCookieJar {
	return newRouterCookieJar(c, signer)
}

func newRouterCookieJar(c cookieContext, signer CookieSigner) *RouterCookieJar {
	return &RouterCookieJar{
		ctx:    c,
		signer: signer,
		now:    time.Now,
	}
}

func (j *RouterCookieJar) SignedCookie(key string) (string, bool) {
	raw := j.ctx.Cookies(key)
	if raw == "" {
		return "", false
	}

	value, err := j.signer.Verify(key, raw)
	if err != nil {
		return "", false
	}
	return value, true
}

func (j *RouterCookieJar) SetSignedCookie(key, value string, ttl time.Duration, opts CookieOptions) error {
	signed, err := j.signer.Sign(key, value, ttl)
	if err != nil {
		return err
	}

	cookie := routerCookie(key, signed, opts)
	if ttl > 0 {
		cookie.Expires = j.now().Add(ttl)
	}

	j.ctx.Cookie(cookie)
	return nil
}

func (j *RouterCookieJar) DeleteCookie(key string, opts CookieOptions) {
	cookie := routerCookie(key, "", opts)
	cookie.Expires = j.now().Add(-time.Hour * (24 * 365))
	j.ctx.Cookie(cookie)
}

func routerCookie(name, value string, opts CookieOptions) *router.Cookie {
	return &router.Cookie{
		Name:     name,
		Value:    value,
		Path:     opts.Path,
		Domain:   opts.Domain,
		HTTPOnly: opts.HTTPOnly,
		Secure:   opts.Secure,
		SameSite: opts.SameSite,
	}
}
