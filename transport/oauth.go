package transport

import (
	"crypto/rand"
	"encoding/json"
	"fmt"
	"html/template"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	// tokenTTL is the lifetime of issued access tokens.
	tokenTTL = time.Hour

	// codeTTL is the lifetime of authorization codes.
	codeTTL = 10 * time.Minute
)

// OAuthIssuer implements a minimal authorization-code flow for the
// streamable HTTP binding: GET /oauth/authorize renders a consent page
// that redirects back with a one-time code, and POST /oauth/token
// exchanges that code for a signed bearer token.
//
// Tokens are HS256 JWTs signed with a random per-process key, so they
// are valid only against the server instance that issued them.
type OAuthIssuer struct {
	key []byte

	mu    sync.Mutex
	codes map[string]authCode
}

// authCode is a pending authorization grant.
type authCode struct {
	clientID string
	expires  time.Time
}

// NewOAuthIssuer creates an issuer with a fresh signing key.
func NewOAuthIssuer() (*OAuthIssuer, error) {
	key := make([]byte, 32)
	if _, err := rand.Read(key); err != nil {
		return nil, fmt.Errorf("failed to generate signing key: %w", err)
	}
	return &OAuthIssuer{
		key:   key,
		codes: make(map[string]authCode),
	}, nil
}

var consentPage = template.Must(template.New("consent").Parse(`<!DOCTYPE html>
<html>
<head><title>Authorize {{.ClientID}}</title></head>
<body>
<h1>Authorization Request</h1>
<p>Client <strong>{{.ClientID}}</strong> is requesting access.</p>
<p>State: <code>{{.State}}</code></p>
<p><a href="{{.ApproveURL}}">Approve</a></p>
</body>
</html>
`))

// HandleAuthorize renders the consent page. The approve link redirects
// to the client's redirect_uri carrying a one-time code and the echoed
// state parameter.
func (o *OAuthIssuer) HandleAuthorize(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	q := r.URL.Query()
	clientID := q.Get("client_id")
	redirectURI := q.Get("redirect_uri")
	state := q.Get("state")

	if clientID == "" || redirectURI == "" {
		oauthError(w, http.StatusBadRequest, "invalid_request", "client_id and redirect_uri are required")
		return
	}
	target, err := url.Parse(redirectURI)
	if err != nil {
		oauthError(w, http.StatusBadRequest, "invalid_request", "redirect_uri is not a valid URL")
		return
	}

	code := uuid.NewString()
	o.mu.Lock()
	o.codes[code] = authCode{clientID: clientID, expires: time.Now().Add(codeTTL)}
	o.mu.Unlock()

	approve := target.Query()
	approve.Set("code", code)
	if state != "" {
		approve.Set("state", state)
	}
	target.RawQuery = approve.Encode()

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_ = consentPage.Execute(w, struct {
		ClientID   string
		State      string
		ApproveURL string
	}{
		ClientID:   clientID,
		State:      state,
		ApproveURL: target.String(),
	})
}

// HandleToken exchanges an authorization code for a bearer token. Only
// the authorization_code grant is supported.
func (o *OAuthIssuer) HandleToken(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if err := r.ParseForm(); err != nil {
		oauthError(w, http.StatusBadRequest, "invalid_request", "malformed form body")
		return
	}

	if grant := r.PostFormValue("grant_type"); grant != "authorization_code" {
		oauthError(w, http.StatusBadRequest, "unsupported_grant_type",
			fmt.Sprintf("grant type %q is not supported", grant))
		return
	}

	code := r.PostFormValue("code")
	o.mu.Lock()
	grant, ok := o.codes[code]
	delete(o.codes, code)
	o.mu.Unlock()

	if !ok || time.Now().After(grant.expires) {
		oauthError(w, http.StatusBadRequest, "invalid_grant", "authorization code is unknown or expired")
		return
	}

	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   grant.clientID,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(tokenTTL)),
		ID:        uuid.NewString(),
	})
	signed, err := token.SignedString(o.key)
	if err != nil {
		oauthError(w, http.StatusInternalServerError, "server_error", "failed to sign token")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"access_token": signed,
		"token_type":   "Bearer",
		"expires_in":   int(tokenTTL.Seconds()),
	})
}

// Verify checks a bearer token and returns the client it was issued to.
func (o *OAuthIssuer) Verify(tokenString string) (string, error) {
	token, err := jwt.ParseWithClaims(tokenString, &jwt.RegisteredClaims{},
		func(*jwt.Token) (any, error) { return o.key, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return "", err
	}
	claims := token.Claims.(*jwt.RegisteredClaims)
	return claims.Subject, nil
}

// oauthError writes an RFC 6749 style error document.
func oauthError(w http.ResponseWriter, status int, code, description string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{
		"error":             code,
		"error_description": description,
	})
}
