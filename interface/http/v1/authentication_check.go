package v1

import (
	"encoding/json"
	"github.com/shimmeringbee/somfycul/interface/http/auth"
	"net/http"
)

type AuthenticationCheckPayload struct {
	Authenticated bool   `json:"authenticated"`
	Identity      string `json:"identity,omitempty"`
}

func authenticationCheck(w http.ResponseWriter, r *http.Request) {
	identity, authenticated := auth.UserIdentity(r.Context())

	writeJSON(w, http.StatusOK, AuthenticationCheckPayload{
		Authenticated: authenticated,
		Identity:      identity,
	})
}

func authenticationType(ap auth.AuthenticationProvider) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, ap.AuthenticationType())
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write(data)
}
