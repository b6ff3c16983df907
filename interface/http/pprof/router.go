package pprof

import (
	"github.com/gorilla/mux"
	"github.com/shimmeringbee/somfycul/interface/http/auth"
	"net/http"
	"net/http/pprof"
	"strings"
)

// ConstructRouter serves the runtime profiles behind the authentication provider, it expects to be
// mounted with its prefix stripped.
func ConstructRouter(ap auth.AuthenticationProvider) http.Handler {
	r := mux.NewRouter()

	r.PathPrefix("/cmdline").HandlerFunc(pprof.Cmdline)
	r.PathPrefix("/profile").HandlerFunc(pprof.Profile)
	r.PathPrefix("/symbol").HandlerFunc(pprof.Symbol)
	r.PathPrefix("/trace").HandlerFunc(pprof.Trace)
	r.PathPrefix("/").HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		name := strings.TrimPrefix(req.URL.Path, "/")

		if len(name) == 0 {
			pprof.Index(w, req)
			return
		}

		pprof.Handler(name).ServeHTTP(w, req)
	})

	return ap.AuthenticationMiddleware(r)
}
