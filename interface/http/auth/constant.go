package auth

import (
	"context"
	"net/http"
)

const UserIdentityContextKey = "AuthenticatedUserIdentity"

type AuthenticationProvider interface {
	AuthenticationMiddleware(next http.Handler) http.Handler
	AuthenticationRouter() http.Handler
	AuthenticationType() any
}

type AuthenticatorType struct {
	Type string `json:"type"`
}

// UserIdentity returns the identity an authentication middleware placed on the context.
func UserIdentity(ctx context.Context) (string, bool) {
	identity, ok := ctx.Value(UserIdentityContextKey).(string)
	return identity, ok && len(identity) > 0
}

func WithUserIdentity(r *http.Request, identity string) *http.Request {
	return r.WithContext(context.WithValue(r.Context(), UserIdentityContextKey, identity))
}
