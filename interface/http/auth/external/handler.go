package external

import (
	"github.com/gorilla/mux"
	"github.com/shimmeringbee/somfycul/interface/http/auth"
	"net/http"
)

var _ auth.AuthenticationProvider = (*Authenticator)(nil)

// Authenticator trusts a user header set by a reverse proxy in front of the interface.
type Authenticator struct {
	UserHeader string
}

const DefaultUserHeader = "X-Forwarded-User"

func (a Authenticator) header() string {
	if len(a.UserHeader) == 0 {
		return DefaultUserHeader
	}

	return a.UserHeader
}

func (a Authenticator) AuthenticationMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user := r.Header.Get(a.header())
		if len(user) == 0 {
			http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
			return
		}

		next.ServeHTTP(w, auth.WithUserIdentity(r, user))
	})
}

func (a Authenticator) AuthenticationRouter() http.Handler {
	return mux.NewRouter()
}

func (a Authenticator) AuthenticationType() any {
	return auth.AuthenticatorType{
		Type: "external",
	}
}
