package auth

import (
	"context"
)

// contextKey is a private type for context keys so values set here cannot
// collide with other packages.
type contextKey string

const userContextKey contextKey = "auth_user"

// NewContextWithUser returns a child context carrying the resolved user. The
// role gate resolves the Auth-Key token once per request and stores the user
// here so handlers never repeat the lookup.
func NewContextWithUser(ctx context.Context, u *User) context.Context {
	return context.WithValue(ctx, userContextKey, u)
}

// UserFromContext extracts the resolved user from the request context. The
// second return value is false when no gate ran for this request.
func UserFromContext(ctx context.Context) (*User, bool) {
	u, ok := ctx.Value(userContextKey).(*User)
	return u, ok
}
