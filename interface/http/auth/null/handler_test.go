package null

import (
	"github.com/shimmeringbee/somfycul/interface/http/auth"
	"github.com/stretchr/testify/assert"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestAuthenticator_AuthenticationMiddleware(t *testing.T) {
	t.Run("every request is given the null identity", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)

		handler := Authenticator{}.AuthenticationMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			identity, ok := auth.UserIdentity(r.Context())
			assert.True(t, ok)
			assert.Equal(t, Identity, identity)
			w.WriteHeader(http.StatusOK)
		}))

		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusOK, rr.Code)
	})

	t.Run("reports its type as none", func(t *testing.T) {
		assert.Equal(t, auth.AuthenticatorType{Type: "none"}, Authenticator{}.AuthenticationType())
	})
}
