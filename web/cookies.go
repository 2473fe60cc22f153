package web

import (
	"net/http"
	"time"

	padlock "github.com/goliatone/go-padlock"
)

var _ padlock.CookieJar = (*CookieJar)(nil)

// CookieJar reads signed cookies from a request and writes them to the
// response.
type CookieJar struct {
	r      *http.Request
	w      http.ResponseWriter
	signer padlock.CookieSigner
	now    func() time.Time
}

// NewCookieJar binds a jar to one request/response pair.
func NewCookieJar(w http.ResponseWriter, r *http.Request, signer padlock.CookieSigner) *CookieJar {
	return &CookieJar{r: r, w: w, signer: signer, now: time.Now}
}

// SignedCookie returns the verified value of cookie key. Missing and
// tampered cookies are both reported as absent.
func (j *CookieJar) SignedCookie(key string) (string, bool) {
	c, err := j.r.Cookie(key)
	if err != nil || c.Value == "" {
		return "", false
	}

	value, err := j.signer.Verify(key, c.Value)
	if err != nil {
		return "", false
	}
	return value, true
}

func (j *CookieJar) SetSignedCookie(key, value string, ttl time.Duration, opts padlock.CookieOptions) error {
	signed, err := j.signer.Sign(key, value, ttl)
	if err != nil {
		return err
	}

	c := httpCookie(key, signed, opts)
	if ttl > 0 {
		c.Expires = j.now().Add(ttl)
		c.MaxAge = int(ttl.Seconds())
	}

	http.SetCookie(j.w, c)
	return nil
}

func (j *CookieJar) DeleteCookie(key string, opts padlock.CookieOptions) {
	c := httpCookie(key, "", opts)
	c.Expires = time.Unix(0, 0)
	c.MaxAge = -1
	http.SetCookie(j.w, c)
}

func httpCookie(name, value string, opts padlock.CookieOptions) *http.Cookie {
	return &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     opts.Path,
		Domain:   opts.Domain,
		Secure:   opts.Secure,
		HttpOnly: opts.HTTPOnly,
		SameSite: sameSite(opts.SameSite),
	}
}

func sameSite(v string) http.SameSite {
	switch v {
	case "Lax":
		return http.SameSiteLaxMode
	case "Strict":
		return http.SameSiteStrictMode
	case "None":
		return http.SameSiteNoneMode
	default:
		return http.SameSiteDefaultMode
	}
}
