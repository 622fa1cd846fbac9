package guard

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Authorization is the tri-state outcome of gating one navigation.
type Authorization int

const (
	Unknown Authorization = iota
	Authorized
	Unauthorized
)

func (a Authorization) String() string {
	switch a {
	case Authorized:
		return "authorized"
	case Unauthorized:
		return "unauthorized"
	default:
		return "unknown"
	}
}

// Tokens is the slice of the session store the guard needs.
type Tokens interface {
	AccessToken() string
	RefreshToken() string
	SetAccessToken(access string) error
}

// Refresher mints a new access token from a refresh token. The API client
// satisfies it.
type Refresher interface {
	RefreshAccess(ctx context.Context, refresh string) (string, error)
}

// Decision is terminal for one navigation. From preserves the originally
// requested location so login can bounce back afterwards.
type Decision struct {
	Authorization Authorization
	From          string
}

// Guard gates entry to protected views. Per navigation it resolves
// unknown -> authorized/unauthorized with at most one refresh attempt and
// never re-triggers itself once resolved.
type Guard struct {
	tokens    Tokens
	refresher Refresher
	logger    *slog.Logger
	now       func() time.Time
}

func New(tokens Tokens, refresher Refresher, logger *slog.Logger) *Guard {
	return &Guard{
		tokens:    tokens,
		refresher: refresher,
		logger:    logger,
		now:       time.Now,
	}
}

// Authorize resolves the gate for a navigation to the view named by from.
func (g *Guard) Authorize(ctx context.Context, from string) Decision {
	deny := Decision{Authorization: Unauthorized, From: from}

	access := g.tokens.AccessToken()
	if access == "" {
		return deny
	}

	expiry, err := tokenExpiry(access)
	if err != nil {
		// An undecodable token gets no refresh attempt.
		g.logger.Warn("access token is not decodable", "error", err)
		return deny
	}

	if expiry.After(g.now()) {
		return Decision{Authorization: Authorized, From: from}
	}

	// Expired: exactly one refresh attempt, no retry loop.
	access, err = g.refresher.RefreshAccess(ctx, g.tokens.RefreshToken())
	if err != nil {
		g.logger.Info("token refresh failed", "error", err)
		return deny
	}
	if err := g.tokens.SetAccessToken(access); err != nil {
		g.logger.Error("failed to store refreshed token", "error", err)
		return deny
	}
	return Decision{Authorization: Authorized, From: from}
}

// tokenExpiry decodes the exp claim locally. The client holds no signing
// secret, so the signature is deliberately not verified; possession of a
// forged token only gets you to a server-side 401.
func tokenExpiry(raw string) (time.Time, error) {
	claims := jwt.RegisteredClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(raw, &claims); err != nil {
		return time.Time{}, err
	}
	if claims.ExpiresAt == nil {
		return time.Time{}, errors.New("token has no expiry claim")
	}
	return claims.ExpiresAt.Time, nil
}
