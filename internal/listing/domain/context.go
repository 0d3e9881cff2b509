package domain

import "context"

type ownerEmailKey struct{}

// WithOwnerEmail attaches the authenticated owner's e-mail address so
// notifications can reach the owner without a user lookup.
func WithOwnerEmail(ctx context.Context, email string) context.Context {
	if email == "" {
		return ctx
	}
	return context.WithValue(ctx, ownerEmailKey{}, email)
}

func OwnerEmailFromContext(ctx context.Context) (string, bool) {
	email, ok := ctx.Value(ownerEmailKey{}).(string)
	return email, ok && email != ""
}
