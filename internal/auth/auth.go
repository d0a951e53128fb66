package auth

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"
)

var (
	ErrInvalidToken = errors.New("invalid token")
	ErrTokenExpired = errors.New("token expired")
)

// TokenTTL bounds how long a viewer token stays valid.
const TokenTTL = 30 * 24 * time.Hour

type Claims struct {
	Username  string `json:"username"`
	SessionID string `json:"sessionId"`
}

type contextKey string

const ClaimsKey contextKey = "claims"

// tokenPayload is the JSON payload embedded in a local auth token.
type tokenPayload struct {
	Sub string `json:"sub"`
	Sid string `json:"sid"`
	Exp int64  `json:"exp"`
}

// GenerateToken creates an HMAC-signed token for an open session.
// Format: local.<base64url(json-payload)>.<base64url(hmac-sha256)>
func GenerateToken(c Claims, secret string, now time.Time) (string, error) {
	payload := tokenPayload{
		Sub: c.Username,
		Sid: c.SessionID,
		Exp: now.Add(TokenTTL).Unix(),
	}

	payloadBytes, err := json.Marshal(payload)
	if err != nil {
		return "", err
	}

	payloadB64 := base64.RawURLEncoding.EncodeToString(payloadBytes)
	return "local." + payloadB64 + "." + sign(payloadB64, secret), nil
}

func sign(payloadB64, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(payloadB64))
	return base64.RawURLEncoding.EncodeToString(mac.Sum(nil))
}

// ValidateToken verifies and decodes a local auth token.
func ValidateToken(token, secret string, now time.Time) (*Claims, error) {
	parts := strings.SplitN(token, ".", 3)
	if len(parts) != 3 || parts[0] != "local" {
		return nil, fmt.Errorf("%w: bad format", ErrInvalidToken)
	}

	payloadB64 := parts[1]
	if !hmac.Equal([]byte(parts[2]), []byte(sign(payloadB64, secret))) {
		return nil, fmt.Errorf("%w: bad signature", ErrInvalidToken)
	}

	payloadBytes, err := base64.RawURLEncoding.DecodeString(payloadB64)
	if err != nil {
		return nil, fmt.Errorf("%w: bad payload", ErrInvalidToken)
	}

	var payload tokenPayload
	if err := json.Unmarshal(payloadBytes, &payload); err != nil {
		return nil, fmt.Errorf("%w: bad payload", ErrInvalidToken)
	}

	if now.Unix() > payload.Exp {
		return nil, ErrTokenExpired
	}

	return &Claims{Username: payload.Sub, SessionID: payload.Sid}, nil
}

// SessionChecker reports whether a session id is still live.
type SessionChecker interface {
	Alive(sessionID string) bool
}

// Middleware verifies the Authorization header and stores the claims in the
// request context. Paths starting with /api/auth/ bypass authentication.
func Middleware(secret string, sessions SessionChecker) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			// Skip auth for public auth endpoints
			if strings.HasPrefix(r.URL.Path, "/api/auth/") {
				next.ServeHTTP(w, r)
				return
			}

			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				writeError(w, http.StatusUnauthorized, "missing authorization header")
				return
			}

			token := strings.TrimPrefix(authHeader, "Bearer ")
			if token == authHeader {
				writeError(w, http.StatusUnauthorized, "invalid authorization format, use Bearer token")
				return
			}

			claims, err := ValidateToken(token, secret, time.Now())
			if err != nil {
				writeError(w, http.StatusUnauthorized, "unauthorized: "+err.Error())
				return
			}
			if !sessions.Alive(claims.SessionID) {
				writeError(w, http.StatusUnauthorized, "session ended")
				return
			}

			next.ServeHTTP(w, r.WithContext(WithClaims(r.Context(), claims)))
		})
	}
}

// GetClaims extracts the authenticated claims from the request context.
func GetClaims(ctx context.Context) *Claims {
	c, _ := ctx.Value(ClaimsKey).(*Claims)
	return c
}

// WithClaims returns a context carrying c.
func WithClaims(ctx context.Context, c *Claims) context.Context {
	return context.WithValue(ctx, ClaimsKey, c)
}

func writeError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}
