package app

import (
	"encoding/json"
	"net/http"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	padlock "github.com/goliatone/go-padlock"
	"github.com/goliatone/go-padlock/web"
	"github.com/google/uuid"
)

// RegisterPayload is the registration form payload.
type RegisterPayload struct {
	Email    string
	Password string
}

func (p RegisterPayload) Validate() error {
	return validation.ValidateStruct(&p,
		validation.Field(&p.Email, validation.Required, validation.Length(6, 100), is.Email),
		validation.Field(&p.Password, validation.Required, validation.Length(8, 100)),
	)
}

// LoginPayload is the login form payload.
type LoginPayload struct {
	Email    string
	Password string
	Remember bool
}

func (p LoginPayload) Validate() error {
	return validation.ValidateStruct(&p,
		validation.Field(&p.Email, validation.Required),
		validation.Field(&p.Password, validation.Required),
	)
}

func (a *App) register(w http.ResponseWriter, r *http.Request) {
	payload := RegisterPayload{
		Email:    strings.TrimSpace(r.FormValue("email")),
		Password: r.FormValue("password"),
	}

	if err := payload.Validate(); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": err.Error()})
		return
	}

	ctx := r.Context()

	if _, err := a.users.FindByEmail(ctx, payload.Email); err == nil {
		writeJSON(w, http.StatusConflict, map[string]any{"error": "email already registered"})
		return
	} else if !padlock.IsUserNotFound(err) {
		a.serverError(w, "register lookup", err)
		return
	}

	user := &padlock.User{ID: uuid.New(), Email: payload.Email}
	if err := user.SetPassword(a.passwords, payload.Password); err != nil {
		a.serverError(w, "register hash password", err)
		return
	}

	if err := user.GenerateToken(padlock.DefaultTokenGenerator{}); err != nil {
		a.serverError(w, "register token", err)
		return
	}

	if _, err := a.users.Create(ctx, user); err != nil {
		a.serverError(w, "register create", err)
		return
	}

	a.logger.Info("user registered", "user_id", user.ID.String())

	// the activation token would normally travel by email
	writeJSON(w, http.StatusCreated, map[string]any{
		"id":               user.ID,
		"activation_token": user.Token,
	})
}

func (a *App) login(w http.ResponseWriter, r *http.Request) {
	payload := LoginPayload{
		Email:    strings.TrimSpace(r.FormValue("email")),
		Password: r.FormValue("password"),
		Remember: r.FormValue("remember") == "1" || r.FormValue("remember") == "true",
	}

	if err := payload.Validate(); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": err.Error()})
		return
	}

	guard, ok := web.GuardFromRequest(r)
	if !ok {
		a.serverError(w, "login", errMissingGuard)
		return
	}

	opts := []padlock.LoginOption{}
	if payload.Remember {
		opts = append(opts, padlock.WithRemember())
	}

	status, err := guard.Login(r.Context(), payload.Email, payload.Password, opts...)
	if err != nil {
		a.serverError(w, "login", err)
		return
	}

	code := http.StatusOK
	switch status {
	case padlock.LoginIncorrect:
		code = http.StatusUnauthorized
	case padlock.LoginBanned, padlock.LoginActivating:
		code = http.StatusForbidden
	}

	writeJSON(w, code, map[string]any{
		"status": status.String(),
		"code":   int(status),
	})
}

func (a *App) logout(w http.ResponseWriter, r *http.Request) {
	guard, ok := web.GuardFromRequest(r)
	if !ok {
		a.serverError(w, "logout", errMissingGuard)
		return
	}

	if err := guard.Logout(r.Context()); err != nil {
		a.serverError(w, "logout", err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (a *App) activate(w http.ResponseWriter, r *http.Request) {
	guard, ok := web.GuardFromRequest(r)
	if !ok {
		a.serverError(w, "activate", errMissingGuard)
		return
	}

	activated, err := guard.ActivateUser(r.Context(), r.URL.Query().Get("token"))
	if err != nil {
		a.serverError(w, "activate", err)
		return
	}

	if !activated {
		writeJSON(w, http.StatusNotFound, map[string]any{"activated": false})
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"activated": true})
}

func (a *App) me(w http.ResponseWriter, r *http.Request) {
	user, _ := padlock.UserFromContext(r.Context())
	writeJSON(w, http.StatusOK, user)
}

func (a *App) serverError(w http.ResponseWriter, op string, err error) {
	a.logger.Error(op+" failed", "error", err)
	writeJSON(w, http.StatusInternalServerError, map[string]any{"error": http.StatusText(http.StatusInternalServerError)})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
