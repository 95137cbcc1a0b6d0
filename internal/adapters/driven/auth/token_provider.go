// Package auth supplies access tokens for the index endpoint: either a
// fixed pre-issued token or a cached bearer token refreshed through an
// injected callback before it expires.
package auth

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/custodia-labs/edgar-core/internal/core/domain"
	"github.com/custodia-labs/edgar-core/internal/core/ports/driven"
)

// expirySkew is subtracted from a token's lifetime so a token is refreshed
// before it actually lapses mid-batch.
const expirySkew = 2 * time.Minute

// Verify interface compliance
var (
	_ driven.TokenProvider = (*StaticTokenProvider)(nil)
	_ driven.TokenProvider = (*BearerTokenProvider)(nil)
)

// StaticTokenProvider returns a fixed token, for pre-issued credentials.
type StaticTokenProvider struct {
	token string
}

// NewStaticTokenProvider wraps a pre-issued token.
func NewStaticTokenProvider(token string) (*StaticTokenProvider, error) {
	if token == "" {
		return nil, fmt.Errorf("auth: empty token: %w", domain.ErrTokenInvalid)
	}
	return &StaticTokenProvider{token: token}, nil
}

func (p *StaticTokenProvider) GetAccessToken(ctx context.Context) (string, error) {
	return p.token, nil
}

// RefreshFunc acquires a fresh bearer token. How the token is obtained is
// outside this module; the callback wraps whatever credential flow the
// deployment uses.
type RefreshFunc func(ctx context.Context) (string, error)

// BearerTokenProvider caches a bearer token and refreshes it through the
// callback shortly before the token's exp claim. Opaque tokens without a
// readable expiry are refreshed on every call.
type BearerTokenProvider struct {
	refresh RefreshFunc
	logger  *slog.Logger

	mu      sync.Mutex
	token   string
	expires time.Time
}

// NewBearerTokenProvider wraps a refresh callback.
func NewBearerTokenProvider(refresh RefreshFunc, logger *slog.Logger) (*BearerTokenProvider, error) {
	if refresh == nil {
		return nil, fmt.Errorf("auth: refresh callback is required: %w", domain.ErrInvalidInput)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &BearerTokenProvider{
		refresh: refresh,
		logger:  logger.With("adapter", "auth"),
	}, nil
}

// GetAccessToken returns the cached token while it is still fresh and
// otherwise invokes the refresh callback.
func (p *BearerTokenProvider) GetAccessToken(ctx context.Context) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.token != "" && time.Now().Before(p.expires) {
		return p.token, nil
	}

	token, err := p.refresh(ctx)
	if err != nil {
		return "", fmt.Errorf("refreshing token: %w", err)
	}
	if token == "" {
		return "", fmt.Errorf("refresh returned empty token: %w", domain.ErrTokenInvalid)
	}

	expires := time.Now()
	if exp, ok := jwtExpiry(token); ok {
		if !exp.After(time.Now()) {
			return "", fmt.Errorf("refreshed token expired at %s: %w", exp, domain.ErrTokenExpired)
		}
		expires = exp.Add(-expirySkew)
	}

	p.token = token
	p.expires = expires
	p.logger.Debug("access token refreshed", "expires", expires)
	return token, nil
}

// jwtExpiry extracts the exp claim without verifying the signature. The
// token is only inspected for refresh scheduling, never trusted.
func jwtExpiry(token string) (time.Time, bool) {
	parsed, _, err := jwt.NewParser().ParseUnverified(token, jwt.MapClaims{})
	if err != nil {
		return time.Time{}, false
	}
	exp, err := parsed.Claims.GetExpirationTime()
	if err != nil || exp == nil {
		return time.Time{}, false
	}
	return exp.Time, true
}
