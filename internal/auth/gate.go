package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/crypto/bcrypt"
)

var ErrInvalidSecret = errors.New("invalid secret")

// Tier is a capability level granted by the gate.
type Tier string

const (
	TierViewer   Tier = "viewer"
	TierOperator Tier = "operator"
)

// GateConfig carries the two secrets. A plain secret is hashed at
// construction; a pre-computed bcrypt hash wins over the plain value.
type GateConfig struct {
	ViewerSecret       string
	ViewerSecretHash   string
	OperatorSecret     string
	OperatorSecretHash string

	// VerifyDelay is imposed on every viewer check to mimic a remote call.
	VerifyDelay time.Duration
	// DevMode lets any viewer secret through. The operator tier is still checked.
	DevMode bool
}

// Gate checks submitted secrets against the viewer and operator tiers.
type Gate struct {
	viewer   []byte
	operator []byte
	delay    time.Duration
	devMode  bool
}

func NewGate(cfg GateConfig) (*Gate, error) {
	viewer, err := resolveHash(TierViewer, cfg.ViewerSecret, cfg.ViewerSecretHash)
	if err != nil && !cfg.DevMode {
		return nil, err
	}
	operator, err := resolveHash(TierOperator, cfg.OperatorSecret, cfg.OperatorSecretHash)
	if err != nil {
		return nil, err
	}
	return &Gate{viewer: viewer, operator: operator, delay: cfg.VerifyDelay, devMode: cfg.DevMode}, nil
}

func resolveHash(tier Tier, plain, hash string) ([]byte, error) {
	if hash != "" {
		if _, err := bcrypt.Cost([]byte(hash)); err != nil {
			return nil, fmt.Errorf("%s secret hash: %w", tier, err)
		}
		return []byte(hash), nil
	}
	if plain == "" {
		return nil, fmt.Errorf("%s secret is not configured", tier)
	}
	h, err := bcrypt.GenerateFromPassword([]byte(plain), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hashing %s secret: %w", tier, err)
	}
	return h, nil
}

// CheckViewer verifies the login secret after the configured delay. It
// returns ctx.Err() if the caller goes away while waiting.
func (g *Gate) CheckViewer(ctx context.Context, secret string) error {
	if g.delay > 0 {
		t := time.NewTimer(g.delay)
		defer t.Stop()
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-t.C:
		}
	}
	if g.devMode {
		return nil
	}
	return compare(g.viewer, secret)
}

// CheckOperator verifies the admin console secret.
func (g *Gate) CheckOperator(secret string) error {
	return compare(g.operator, secret)
}

func compare(hash []byte, secret string) error {
	if len(hash) == 0 || secret == "" {
		return ErrInvalidSecret
	}
	if err := bcrypt.CompareHashAndPassword(hash, []byte(secret)); err != nil {
		return ErrInvalidSecret
	}
	return nil
}
