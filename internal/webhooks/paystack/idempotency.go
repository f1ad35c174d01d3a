package paystackwebhook

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// dedupStore is the part of the Redis client the guard needs.
type dedupStore interface {
	SetNX(ctx context.Context, key string, value any, ttl time.Duration) (bool, error)
	Del(ctx context.Context, keys ...string) error
	IdempotencyKey(scope, id string) string
}

// IdempotencyGuard marks deliveries as seen in Redis so gateway retries of a
// handled event are acknowledged without re-running the handler.
type IdempotencyGuard struct {
	store dedupStore
	ttl   time.Duration
	scope string
}

func NewIdempotencyGuard(store dedupStore, ttl time.Duration, scope string) (*IdempotencyGuard, error) {
	if store == nil {
		return nil, errors.New("idempotency store is required")
	}
	if ttl < 0 {
		return nil, errors.New("ttl must be non-negative")
	}
	if scope == "" {
		return nil, errors.New("scope is required")
	}
	return &IdempotencyGuard{store: store, ttl: ttl, scope: scope}, nil
}

// CheckAndMark reports whether key was already marked, marking it otherwise.
func (g *IdempotencyGuard) CheckAndMark(ctx context.Context, key string) (bool, error) {
	if key == "" {
		return false, errors.New("dedup key is required")
	}
	set, err := g.store.SetNX(ctx, g.store.IdempotencyKey(g.scope, key), "1", g.ttl)
	if err != nil {
		return false, fmt.Errorf("set idempotency key: %w", err)
	}
	return !set, nil
}

// Release forgets key so the gateway's next retry is processed.
func (g *IdempotencyGuard) Release(ctx context.Context, key string) error {
	if key == "" {
		return errors.New("dedup key is required")
	}
	return g.store.Del(ctx, g.store.IdempotencyKey(g.scope, key))
}
