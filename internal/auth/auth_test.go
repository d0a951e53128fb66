package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

const secret = "test-signing-secret"

func TestTokenRoundTrip(t *testing.T) {
	now := time.Now()
	tok, err := GenerateToken(Claims{Username: "ADMIN", SessionID: "s1"}, secret, now)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(tok, "local."))

	c, err := ValidateToken(tok, secret, now)
	require.NoError(t, err)
	assert.Equal(t, &Claims{Username: "ADMIN", SessionID: "s1"}, c)
}

func TestTokenRejections(t *testing.T) {
	now := time.Now()
	tok, err := GenerateToken(Claims{Username: "ADMIN", SessionID: "s1"}, secret, now)
	require.NoError(t, err)

	_, err = ValidateToken(tok, "other-secret", now)
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = ValidateToken("garbage", secret, now)
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = ValidateToken(tok, secret, now.Add(TokenTTL+time.Minute))
	assert.ErrorIs(t, err, ErrTokenExpired)
}

func newGate(t *testing.T, cfg GateConfig) *Gate {
	t.Helper()
	g, err := NewGate(cfg)
	require.NoError(t, err)
	return g
}

func TestGateViewer(t *testing.T) {
	g := newGate(t, GateConfig{ViewerSecret: "view", OperatorSecret: "op"})
	ctx := context.Background()

	assert.NoError(t, g.CheckViewer(ctx, "view"))
	assert.ErrorIs(t, g.CheckViewer(ctx, "op"), ErrInvalidSecret)
	assert.ErrorIs(t, g.CheckViewer(ctx, ""), ErrInvalidSecret)
}

func TestGateOperatorIsIndependent(t *testing.T) {
	g := newGate(t, GateConfig{ViewerSecret: "view", OperatorSecret: "op"})
	assert.NoError(t, g.CheckOperator("op"))
	assert.ErrorIs(t, g.CheckOperator("view"), ErrInvalidSecret)
}

func TestGatePrehashedSecret(t *testing.T) {
	h, err := bcrypt.GenerateFromPassword([]byte("op"), bcrypt.MinCost)
	require.NoError(t, err)
	g := newGate(t, GateConfig{ViewerSecret: "view", OperatorSecret: "ignored", OperatorSecretHash: string(h)})
	assert.NoError(t, g.CheckOperator("op"))
	assert.ErrorIs(t, g.CheckOperator("ignored"), ErrInvalidSecret)

	_, err = NewGate(GateConfig{ViewerSecret: "v", OperatorSecretHash: "not-a-hash"})
	assert.Error(t, err)
}

func TestGateRequiresSecrets(t *testing.T) {
	_, err := NewGate(GateConfig{OperatorSecret: "op"})
	assert.Error(t, err)
	_, err = NewGate(GateConfig{ViewerSecret: "v"})
	assert.Error(t, err)
}

func TestGateDevModeSkipsViewer(t *testing.T) {
	g := newGate(t, GateConfig{OperatorSecret: "op", DevMode: true})
	assert.NoError(t, g.CheckViewer(context.Background(), "anything"))
	assert.ErrorIs(t, g.CheckOperator("anything"), ErrInvalidSecret)
}

func TestGateDelayHonoursCancellation(t *testing.T) {
	g := newGate(t, GateConfig{ViewerSecret: "view", OperatorSecret: "op", VerifyDelay: time.Hour})
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, g.CheckViewer(ctx, "view"), context.DeadlineExceeded)
}

func TestGateDelayApplies(t *testing.T) {
	g := newGate(t, GateConfig{ViewerSecret: "view", OperatorSecret: "op", VerifyDelay: 30 * time.Millisecond})
	start := time.Now()
	assert.ErrorIs(t, g.CheckViewer(context.Background(), "wrong"), ErrInvalidSecret)
	assert.GreaterOrEqual(t, time.Since(start), 30*time.Millisecond)
}

type aliveSet map[string]bool

func (a aliveSet) Alive(id string) bool { return a[id] }

func TestMiddleware(t *testing.T) {
	now := time.Now()
	live, err := GenerateToken(Claims{Username: "ADMIN", SessionID: "live"}, secret, now)
	require.NoError(t, err)
	ended, err := GenerateToken(Claims{Username: "ADMIN", SessionID: "gone"}, secret, now)
	require.NoError(t, err)

	var seen *Claims
	h := Middleware(secret, aliveSet{"live": true})(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = GetClaims(r.Context())
		w.WriteHeader(http.StatusNoContent)
	}))

	tests := []struct {
		name   string
		path   string
		header string
		want   int
	}{
		{"public auth path", "/api/auth/login", "", http.StatusNoContent},
		{"missing header", "/api/me", "", http.StatusUnauthorized},
		{"not bearer", "/api/me", live, http.StatusUnauthorized},
		{"bad token", "/api/me", "Bearer local.x.y", http.StatusUnauthorized},
		{"ended session", "/api/me", "Bearer " + ended, http.StatusUnauthorized},
		{"valid", "/api/me", "Bearer " + live, http.StatusNoContent},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			seen = nil
			req := httptest.NewRequest(http.MethodGet, tt.path, nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)
			assert.Equal(t, tt.want, rec.Code)
		})
	}
	require.NotNil(t, seen)
	assert.Equal(t, "live", seen.SessionID)
}
