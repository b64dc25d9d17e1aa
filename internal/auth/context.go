package auth

import (
	"context"

	"courtbook/internal/model"
)

type contextKey struct{}

type AuthContext struct {
	User model.AppUser
}

func WithAuth(ctx context.Context, ac AuthContext) context.Context {
	return context.WithValue(ctx, contextKey{}, ac)
}

func FromContext(ctx context.Context) (AuthContext, bool) {
	ac, ok := ctx.Value(contextKey{}).(AuthContext)
	return ac, ok
}

// User returns the authenticated user, or nil when the request carries none.
func User(ctx context.Context) *model.AppUser {
	ac, ok := FromContext(ctx)
	if !ok {
		return nil
	}
	return &ac.User
}

func UserID(ctx context.Context) string {
	ac, ok := FromContext(ctx)
	if !ok {
		return ""
	}
	return ac.User.ID
}

func IsAdmin(ctx context.Context) bool {
	ac, ok := FromContext(ctx)
	if !ok {
		return false
	}
	return ac.User.IsAdmin()
}
