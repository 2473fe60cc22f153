package web

import (
	"net/http"

	padlock "github.com/goliatone/go-padlock"
)

// GuardFromRequest returns the guard attached by Middleware.
func GuardFromRequest(r *http.Request) (*padlock.Guard, bool) {
	return padlock.GuardFromContext(r.Context())
}

// RequireUser only lets logged in users through. Guests are handed to
// onGuest, or answered with 401 when onGuest is nil. The resolved user is
// available through padlock.UserFromContext.
func RequireUser(onGuest http.Handler) func(http.Handler) http.Handler {
	if onGuest == nil {
		onGuest = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
		})
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			guard, ok := GuardFromRequest(r)
			if !ok {
				http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
				return
			}

			user, err := guard.Check(r.Context())
			if err != nil {
				http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
				return
			}

			if user == nil {
				onGuest.ServeHTTP(w, r)
				return
			}

			next.ServeHTTP(w, r.WithContext(padlock.WithUser(r.Context(), user)))
		})
	}
}
