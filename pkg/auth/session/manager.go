package session

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/angelmondragon/gymhub-backend/pkg/config"
)

var errMissingAccessID = errors.New("access id is required")

// Store is the Redis surface sessions live in.
type Store interface {
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Get(ctx context.Context, key string) (string, error)
	Del(ctx context.Context, keys ...string) error
	AccessSessionKey(accessID string) string
}

// AccessSessionChecker is what the auth middleware needs to honour logout.
type AccessSessionChecker interface {
	HasSession(ctx context.Context, accessID string) (bool, error)
}

// Manager records one Redis entry per issued access token, keyed by its jti
// and holding the owning account id. Deleting the entry revokes the token.
type Manager struct {
	store Store
	ttl   time.Duration
}

// NewManager keeps sessions for as long as the access tokens they back.
func NewManager(store Store, cfg config.JWTConfig) (*Manager, error) {
	if store == nil {
		return nil, errors.New("session store is required")
	}
	ttl := cfg.AccessTTL()
	if ttl <= 0 {
		return nil, errors.New("session ttl must be positive")
	}
	return &Manager{store: store, ttl: ttl}, nil
}

// NewAccessID mints the identifier used as both jti and session key.
func NewAccessID() string {
	return uuid.NewString()
}

func (m *Manager) Register(ctx context.Context, accessID string, accountID uuid.UUID) error {
	accessID = strings.TrimSpace(accessID)
	if accessID == "" {
		return errMissingAccessID
	}
	if accountID == uuid.Nil {
		return errors.New("account id is required")
	}
	return m.store.Set(ctx, m.store.AccessSessionKey(accessID), accountID.String(), m.ttl)
}

func (m *Manager) Revoke(ctx context.Context, accessID string) error {
	accessID = strings.TrimSpace(accessID)
	if accessID == "" {
		return errMissingAccessID
	}
	return m.store.Del(ctx, m.store.AccessSessionKey(accessID))
}

func (m *Manager) HasSession(ctx context.Context, accessID string) (bool, error) {
	accessID = strings.TrimSpace(accessID)
	if accessID == "" {
		return false, errMissingAccessID
	}
	_, err := m.store.Get(ctx, m.store.AccessSessionKey(accessID))
	switch {
	case errors.Is(err, redis.Nil):
		return false, nil
	case err != nil:
		return false, err
	}
	return true, nil
}
