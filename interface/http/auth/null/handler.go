package null

import (
	"github.com/gorilla/mux"
	"github.com/shimmeringbee/somfycul/interface/http/auth"
	"net/http"
)

var _ auth.AuthenticationProvider = (*Authenticator)(nil)

const Identity = "NullAuthentication"

// Authenticator lets every request through under a fixed identity.
type Authenticator struct{}

func (a Authenticator) AuthenticationMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		next.ServeHTTP(w, auth.WithUserIdentity(r, Identity))
	})
}

func (a Authenticator) AuthenticationRouter() http.Handler {
	return mux.NewRouter()
}

func (a Authenticator) AuthenticationType() any {
	return auth.AuthenticatorType{
		Type: "none",
	}
}
