// Package auth carries the caller identity through request contexts.
// Identity is asserted by the fronting proxy; this service does not
// authenticate users itself.
package auth

import "context"

type contextKey struct{}

// WithUserID returns a copy of ctx carrying userID.
func WithUserID(ctx context.Context, userID int64) context.Context {
	return context.WithValue(ctx, contextKey{}, userID)
}

// UserIDFrom reports the caller's user id and whether one was set.
func UserIDFrom(ctx context.Context) (int64, bool) {
	id, ok := ctx.Value(contextKey{}).(int64)
	return id, ok && id > 0
}

// UserID returns the caller's user id, or 0 when absent.
func UserID(ctx context.Context) int64 {
	id, _ := UserIDFrom(ctx)
	return id
}
