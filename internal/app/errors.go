package app

import goerrors "github.com/goliatone/go-errors"

var errMissingGuard = goerrors.New("request guard missing", goerrors.CategoryInternal).
	WithTextCode("GUARD_MISSING")
