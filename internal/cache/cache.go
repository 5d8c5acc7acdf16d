// Package cache stores computed report payloads so repeated dashboard
// queries skip the aggregation work.
package cache

import (
	"context"
	"crypto/sha1"
	"encoding/json"
	"fmt"
	"net/url"
	"time"

	"github.com/rs/zerolog/log"
)

const (
	ScopeRankings = "rankings"
	ScopeReports  = "reports"
)

type Store interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	DeleteScope(ctx context.Context, scope string) error
}

// Key builds a stable key for scope from params. url.Values.Encode sorts by
// key so parameter order does not matter.
func Key(scope string, params url.Values) string {
	sum := sha1.Sum([]byte(params.Encode()))
	return fmt.Sprintf("%s:%x", scope, sum[:])
}

// GetOrCompute returns the cached value for key or computes and stores it.
// Cache failures are logged and fall through to compute. A nil store always
// computes.
func GetOrCompute[T any](ctx context.Context, store Store, key string, ttl time.Duration, compute func() (T, error)) (T, bool, error) {
	logger := log.Ctx(ctx)

	if store != nil {
		raw, ok, err := store.Get(ctx, key)
		switch {
		case err != nil:
			logger.Warn().Err(err).Str("cache_key", key).Msg("Cache read failed")
		case ok:
			var cached T
			if err := json.Unmarshal(raw, &cached); err == nil {
				return cached, true, nil
			}
			logger.Warn().Str("cache_key", key).Msg("Discarding undecodable cache entry")
		}
	}

	value, err := compute()
	if err != nil {
		return value, false, err
	}

	if store != nil {
		payload, err := json.Marshal(value)
		if err != nil {
			logger.Warn().Err(err).Str("cache_key", key).Msg("Cache encode failed")
			return value, false, nil
		}
		if err := store.Set(ctx, key, payload, ttl); err != nil {
			logger.Warn().Err(err).Str("cache_key", key).Msg("Cache write failed")
		}
	}
	return value, false, nil
}

// Invalidate drops every entry in the given scopes, logging failures.
func Invalidate(ctx context.Context, store Store, scopes ...string) {
	if store == nil {
		return
	}
	for _, scope := range scopes {
		if err := store.DeleteScope(ctx, scope); err != nil {
			log.Ctx(ctx).Warn().Err(err).Str("cache_scope", scope).Msg("Cache invalidation failed")
		}
	}
}
