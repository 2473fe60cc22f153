package padlock

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	goerrors "github.com/goliatone/go-errors"
)

var _ CookieSigner = &JWTCookieSigner{}

type cookieClaims struct {
	jwt.RegisteredClaims
	Value string `json:"val"`
}

// JWTCookieSigner signs cookie values as HS256 JWTs bound to the cookie
// name, so a value signed for one cookie is rejected under another.
type JWTCookieSigner struct {
	key    []byte
	issuer string
	now    func() time.Time
}

// NewJWTCookieSigner creates a new signer with the given HMAC key.
func NewJWTCookieSigner(key []byte, issuer string) *JWTCookieSigner {
	return &JWTCookieSigner{
		key:    key,
		issuer: issuer,
		now:    time.Now,
	}
}

// WithClock injects a custom clock (useful for tests).
func (s *JWTCookieSigner) WithClock(now func() time.Time) *JWTCookieSigner {
	if now != nil {
		s.now = now
	}
	return s
}

func (s *JWTCookieSigner) Sign(name, value string, ttl time.Duration) (string, error) {
	now := s.now()
	claims := &cookieClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:   s.issuer,
			Subject:  name,
			IssuedAt: jwt.NewNumericDate(now),
		},
		Value: value,
	}

	if ttl > 0 {
		claims.ExpiresAt = jwt.NewNumericDate(now.Add(ttl))
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.key)
	if err != nil {
		return "", goerrors.Wrap(err, goerrors.CategoryInternal, "failed to sign cookie")
	}
	return signed, nil
}

func (s *JWTCookieSigner) Verify(name, signed string) (string, error) {
	parserOptions := []jwt.ParserOption{
		jwt.WithSubject(name),
		jwt.WithTimeFunc(s.now),
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
	}
	if s.issuer != "" {
		parserOptions = append(parserOptions, jwt.WithIssuer(s.issuer))
	}

	token, err := jwt.ParseWithClaims(signed, &cookieClaims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return s.key, nil
	}, parserOptions...)
	if err != nil {
		return "", ErrInvalidCookie
	}

	claims, ok := token.Claims.(*cookieClaims)
	if !ok || !token.Valid || claims.Value == "" {
		return "", ErrInvalidCookie
	}

	return claims.Value, nil
}
