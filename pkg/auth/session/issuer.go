package session

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/gymhub-backend/pkg/auth"
	"github.com/angelmondragon/gymhub-backend/pkg/config"
	"github.com/angelmondragon/gymhub-backend/pkg/enums"
)

type registrar interface {
	Register(ctx context.Context, accessID string, accountID uuid.UUID) error
}

// Issued is a freshly minted, registered access token.
type Issued struct {
	AccessToken string
	AccessID    string
	ExpiresAt   time.Time
}

// Issuer mints access tokens and registers them so middleware accepts them.
type Issuer struct {
	registry registrar
	jwtCfg   config.JWTConfig
	now      func() time.Time
}

// NewIssuer wires the session registry with the JWT settings.
func NewIssuer(registry registrar, jwtCfg config.JWTConfig) (*Issuer, error) {
	if registry == nil {
		return nil, fmt.Errorf("session registry is required")
	}
	return &Issuer{registry: registry, jwtCfg: jwtCfg, now: time.Now}, nil
}

// Issue mints a token for the account and records its session.
func (i *Issuer) Issue(ctx context.Context, accountID uuid.UUID, role enums.AccountRole, memberID *string) (*Issued, error) {
	now := i.now().UTC()
	accessID := NewAccessID()
	token, err := auth.MintAccessToken(i.jwtCfg, now, auth.AccessTokenPayload{
		AccountID: accountID,
		Role:      role,
		MemberID:  memberID,
		JTI:       accessID,
	})
	if err != nil {
		return nil, err
	}
	if err := i.registry.Register(ctx, accessID, accountID); err != nil {
		return nil, fmt.Errorf("register session: %w", err)
	}
	return &Issued{
		AccessToken: token,
		AccessID:    accessID,
		ExpiresAt:   now.Add(i.jwtCfg.AccessTTL()),
	}, nil
}
