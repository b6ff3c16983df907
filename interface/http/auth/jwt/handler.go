package jwt

import (
	"crypto/ecdsa"
	"encoding/json"
	"errors"
	"fmt"
	"github.com/golang-jwt/jwt"
	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/shimmeringbee/somfycul/interface/http/auth"
	"golang.org/x/crypto/bcrypt"
	"net/http"
	"strings"
	"time"
)

var clock = time.Now

var _ auth.AuthenticationProvider = (*Authenticator)(nil)

// Authenticator issues ES256 bearer tokens to configured users and verifies them on every request.
type Authenticator struct {
	SystemIdentifier string
	TTL              time.Duration

	KeyIdentifier string
	PrivateKey    *ecdsa.PrivateKey

	// Users maps a user name to a bcrypt hash of their password.
	Users map[string]string
}

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type LoginResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
}

func (a Authenticator) AuthenticationRouter() http.Handler {
	r := mux.NewRouter()
	r.HandleFunc("/auth/login", a.login).Methods(http.MethodPost)
	return r
}

func (a Authenticator) login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	hash, found := a.Users[req.Username]
	if !found || bcrypt.CompareHashAndPassword([]byte(hash), []byte(req.Password)) != nil {
		http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
		return
	}

	token, expiresAt, err := a.sign(req.Username)
	if err != nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	data, err := json.Marshal(LoginResponse{Token: token, ExpiresAt: expiresAt})
	if err != nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}

func (a Authenticator) challenge(w http.ResponseWriter, status int, detail string) {
	value := fmt.Sprintf("Bearer realm=\"%s\"", a.SystemIdentifier)
	if len(detail) > 0 {
		value = fmt.Sprintf("%s, %s", value, detail)
	}

	w.Header().Set("WWW-Authenticate", value)
	http.Error(w, http.StatusText(status), status)
}

func (a Authenticator) AuthenticationMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Values("Authorization")
		if len(header) != 1 {
			a.challenge(w, http.StatusUnauthorized, "")
			return
		}

		parts := strings.SplitN(header[0], " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" {
			a.challenge(w, http.StatusBadRequest, "error=\"invalid_request\"")
			return
		}

		uid, err := a.Verify(parts[1])
		if err != nil {
			a.challenge(w, http.StatusUnauthorized, "error=\"invalid_token\"")
			return
		}

		next.ServeHTTP(w, auth.WithUserIdentity(r, uid))
	})
}

func (a Authenticator) AuthenticationType() any {
	return auth.AuthenticatorType{
		Type: "jwt",
	}
}

func (a Authenticator) Sign(uid string) (string, error) {
	token, _, err := a.sign(uid)
	return token, err
}

func (a Authenticator) sign(uid string) (string, time.Time, error) {
	iss := clock()
	exp := iss.Add(a.TTL)

	claims := jwt.StandardClaims{
		Id: uuid.New().String(),

		Issuer:  a.SystemIdentifier,
		Subject: uid,

		IssuedAt:  iss.Unix(),
		ExpiresAt: exp.Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodES256, claims)
	token.Header["kid"] = a.KeyIdentifier

	signed, err := token.SignedString(a.PrivateKey)
	return signed, exp, err
}

func (a Authenticator) Verify(jwtString string) (string, error) {
	token, err := jwt.ParseWithClaims(jwtString, &jwt.StandardClaims{}, a.keyLookup)
	if err != nil {
		return "", fmt.Errorf("failed to parse and verify signature in token: %w", err)
	}

	claims := token.Claims.(*jwt.StandardClaims)
	if !claims.VerifyIssuer(a.SystemIdentifier, true) {
		return "", fmt.Errorf("token was not issued by this system")
	}

	return claims.Subject, nil
}

func (a Authenticator) keyLookup(token *jwt.Token) (any, error) {
	if token.Header["alg"] != jwt.SigningMethodES256.Alg() {
		return nil, errors.New("unacceptable algorithm in token")
	}

	if kid, found := token.Header["kid"]; found && kid == a.KeyIdentifier {
		return a.PrivateKey.Public(), nil
	}

	return nil, errors.New("no public key found for token")
}
