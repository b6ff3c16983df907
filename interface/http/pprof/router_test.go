package pprof

import (
	"github.com/shimmeringbee/somfycul/interface/http/auth/null"
	"github.com/stretchr/testify/assert"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestConstructRouter(t *testing.T) {
	t.Run("serves the profile index", func(t *testing.T) {
		rr := httptest.NewRecorder()
		ConstructRouter(null.Authenticator{}).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))

		assert.Equal(t, http.StatusOK, rr.Code)
		assert.Contains(t, rr.Body.String(), "goroutine")
	})

	t.Run("serves a named profile", func(t *testing.T) {
		rr := httptest.NewRecorder()
		ConstructRouter(null.Authenticator{}).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/goroutine?debug=1", nil))

		assert.Equal(t, http.StatusOK, rr.Code)
		assert.Contains(t, rr.Body.String(), "goroutine profile")
	})
}
