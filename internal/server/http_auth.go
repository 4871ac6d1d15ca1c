package server

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

var (
	// ErrSessionTokenMissing indicates no session token was configured.
	ErrSessionTokenMissing = errors.New("session token is not configured")
	// ErrBearerTokenMissing indicates the Authorization header did not contain a bearer token.
	ErrBearerTokenMissing = errors.New("missing or malformed Authorization bearer token")
	// ErrBearerTokenInvalid indicates the presented bearer token did not match the configured session token.
	ErrBearerTokenInvalid = errors.New("invalid bearer token for session")
)

// SessionPrincipal carries caller identity for audit records.
type SessionPrincipal struct {
	Subject string
}

// SessionAuthenticator authenticates HTTP tool calls.
type SessionAuthenticator interface {
	AuthenticateHTTP(r *http.Request) (SessionPrincipal, error)
}

// TokenSessionAuthenticator validates incoming bearer tokens against a
// single configured session token. Access control is entirely the access
// level's job; the token only answers who is calling.
type TokenSessionAuthenticator struct {
	token     string
	principal SessionPrincipal
}

// NewTokenSessionAuthenticator creates a session authenticator. If the token
// looks like a JWT its subject claim becomes the principal subject; opaque
// tokens get a fixed subject.
func NewTokenSessionAuthenticator(token string) *TokenSessionAuthenticator {
	trimmed := strings.TrimSpace(token)
	return &TokenSessionAuthenticator{
		token:     trimmed,
		principal: deriveSessionPrincipal(trimmed),
	}
}

// AuthenticateHTTP validates the Authorization bearer token.
func (a *TokenSessionAuthenticator) AuthenticateHTTP(r *http.Request) (SessionPrincipal, error) {
	if strings.TrimSpace(a.token) == "" {
		return SessionPrincipal{}, fmt.Errorf("%w; set PGGATE_TOKEN", ErrSessionTokenMissing)
	}
	presented := parseBearerToken(r.Header.Get("Authorization"))
	if presented == "" {
		return SessionPrincipal{}, ErrBearerTokenMissing
	}
	if presented != a.token {
		return SessionPrincipal{}, ErrBearerTokenInvalid
	}
	return a.principal, nil
}

func deriveSessionPrincipal(token string) SessionPrincipal {
	subject := "mcp-session"
	if parsed, ok := parseJWTSubject(token); ok && parsed != "" {
		subject = parsed
	}
	return SessionPrincipal{Subject: subject}
}

func parseBearerToken(header string) string {
	parts := strings.SplitN(strings.TrimSpace(header), " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

// parseJWTSubject extracts the sub claim from a JWT-shaped token without
// verifying the signature. The token already matched the configured secret;
// the claim is informational only.
func parseJWTSubject(token string) (string, bool) {
	parts := strings.Split(strings.TrimSpace(token), ".")
	if len(parts) != 3 {
		return "", false
	}

	payloadRaw, err := base64.RawURLEncoding.DecodeString(parts[1])
	if err != nil {
		return "", false
	}

	var payload map[string]any
	if err := json.Unmarshal(payloadRaw, &payload); err != nil {
		return "", false
	}

	subject, _ := payload["sub"].(string)
	return strings.TrimSpace(subject), true
}
