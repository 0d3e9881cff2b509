package middleware

import "context"

// ContextKey is the type of the request context keys set by this package.
type ContextKey string

// UserIDCtxKey holds the authenticated user id.
const UserIDCtxKey = ContextKey("user_id")

// UserIDFromContext returns the id stored by JWTAuth, or "" for anonymous
// requests.
func UserIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(UserIDCtxKey).(string)
	return id
}
