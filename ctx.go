package padlock

import (
	"context"
)

var guardCtxKey = &contextKey{"guard"}
var userCtxKey = &contextKey{"user"}

type contextKey struct {
	name string
}

// WithGuard sets the request Guard in the given context
func WithGuard(ctx context.Context, guard *Guard) context.Context {
	return context.WithValue(ctx, guardCtxKey, guard)
}

// GuardFromContext finds the request Guard in the context.
func GuardFromContext(ctx context.Context) (*Guard, bool) {
	raw, ok := ctx.Value(guardCtxKey).(*Guard)
	return raw, ok && raw != nil
}

// WithUser sets the User in the given context
func WithUser(ctx context.Context, user *User) context.Context {
	return context.WithValue(ctx, userCtxKey, user)
}

// UserFromContext finds the user from the context.
func UserFromContext(ctx context.Context) (*User, bool) {
	raw, ok := ctx.Value(userCtxKey).(*User)
	return raw, ok && raw != nil
}
