package service

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/symbohub-api/pkg/config"
	appErrors "github.com/noah-isme/symbohub-api/pkg/errors"
)

type loginAttemptStore interface {
	Failures(ctx context.Context, scope, identifier string) (int64, error)
	RecordFailure(ctx context.Context, scope, identifier string, window time.Duration) (int64, error)
	Reset(ctx context.Context, scope, identifier string) error
}

// LoginGuard throttles repeated failed logins per role and identifier. Store
// errors are logged and never block a login.
type LoginGuard struct {
	store       loginAttemptStore
	maxAttempts int64
	window      time.Duration
	logger      *zap.Logger
}

// NewLoginGuard constructs a LoginGuard. A non-positive MaxAttempts disables throttling.
func NewLoginGuard(store loginAttemptStore, cfg config.LoginGuardConfig, logger *zap.Logger) *LoginGuard {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Window <= 0 {
		cfg.Window = 15 * time.Minute
	}
	return &LoginGuard{store: store, maxAttempts: int64(cfg.MaxAttempts), window: cfg.Window, logger: logger}
}

func (g *LoginGuard) enabled() bool {
	return g != nil && g.store != nil && g.maxAttempts > 0
}

// Check fails with TooManyAttempts once the identifier is locked out.
func (g *LoginGuard) Check(ctx context.Context, scope, identifier string) error {
	if !g.enabled() {
		return nil
	}
	failures, err := g.store.Failures(ctx, scope, guardKey(identifier))
	if err != nil {
		g.logger.Warn("login guard lookup failed", zap.String("scope", scope), zap.Error(err))
		return nil
	}
	if failures >= g.maxAttempts {
		return appErrors.ErrTooManyAttempts
	}
	return nil
}

// Fail records a failed attempt.
func (g *LoginGuard) Fail(ctx context.Context, scope, identifier string) {
	if !g.enabled() {
		return
	}
	if _, err := g.store.RecordFailure(ctx, scope, guardKey(identifier), g.window); err != nil {
		g.logger.Warn("login guard record failed", zap.String("scope", scope), zap.Error(err))
	}
}

// Succeed clears the failure counter.
func (g *LoginGuard) Succeed(ctx context.Context, scope, identifier string) {
	if !g.enabled() {
		return
	}
	if err := g.store.Reset(ctx, scope, guardKey(identifier)); err != nil {
		g.logger.Warn("login guard reset failed", zap.String("scope", scope), zap.Error(err))
	}
}

func guardKey(identifier string) string {
	return strings.ToLower(strings.TrimSpace(identifier))
}
