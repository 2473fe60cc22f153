package padlock

import (
	goerrors "github.com/goliatone/go-errors"
)

const (
	textCodeConfigurationLocked = "CONFIGURATION_LOCKED"
	textCodeInvalidRefinement   = "INVALID_REFINEMENT"
	textCodeUserNotPersisted    = "USER_NOT_PERSISTED"
	textCodeUserNotFound        = "USER_NOT_FOUND"
	textCodeInvalidCookie       = "INVALID_COOKIE"
	textCodeEmptyPassword       = "EMPTY_PASSWORD"
)

// ErrConfigurationLocked is returned when a guard is reconfigured after
// it already performed a login check.
var ErrConfigurationLocked = goerrors.New("guard configuration is locked after login check", goerrors.CategoryOperation).
	WithTextCode(textCodeConfigurationLocked).
	WithCode(goerrors.CodeConflict)

// ErrInvalidRefinement is returned when a nil query refinement is supplied.
var ErrInvalidRefinement = goerrors.New("query refinement is not valid", goerrors.CategoryValidation).
	WithTextCode(textCodeInvalidRefinement).
	WithCode(goerrors.CodeBadRequest)

// ErrUserNotPersisted is returned when generating a token for a user that
// has not been stored yet.
var ErrUserNotPersisted = goerrors.New("tokens can only be generated for persisted users", goerrors.CategoryValidation).
	WithTextCode(textCodeUserNotPersisted).
	WithCode(goerrors.CodeBadRequest)

// ErrUserNotFound is returned by user stores when no record matches.
var ErrUserNotFound = goerrors.New("user not found", goerrors.CategoryNotFound).
	WithTextCode(textCodeUserNotFound).
	WithCode(goerrors.CodeNotFound)

// ErrInvalidCookie is returned by signers for tampered or expired values.
var ErrInvalidCookie = goerrors.New("invalid signed cookie", goerrors.CategoryAuth).
	WithTextCode(textCodeInvalidCookie).
	WithCode(goerrors.CodeUnauthorized)

// ErrNoEmptyString is returned when hashing an empty password.
var ErrNoEmptyString = goerrors.New("password must not be empty", goerrors.CategoryValidation).
	WithTextCode(textCodeEmptyPassword).
	WithCode(goerrors.CodeBadRequest)

// IsUserNotFound reports whether err signals a store miss.
func IsUserNotFound(err error) bool {
	if err == nil {
		return false
	}
	if goerrors.Is(err, ErrUserNotFound) {
		return true
	}

	var richErr *goerrors.Error
	if goerrors.As(err, &richErr) {
		return richErr.TextCode == textCodeUserNotFound
	}
	return false
}
