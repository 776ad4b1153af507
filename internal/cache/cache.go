// Package cache keeps the active offer listing in Redis.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"notes-portal/internal/config"
	"notes-portal/internal/model"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

const (
	generationKey = "offers:active:generation"
	listingPrefix = "offers:active:v"
)

// NewClient creates a Redis client and verifies connectivity.
func NewClient(ctx context.Context, cfg config.RedisConfig, logger zerolog.Logger) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}

	logger.Info().Str("addr", cfg.Addr).Int("db", cfg.DB).Msg("redis client connected")
	return rdb, nil
}

// entry is one cached listing together with the instant it was computed at.
type entry struct {
	ComputedAt time.Time     `json:"computedAt"`
	Offers     []model.Offer `json:"offers"`
}

// ActiveOffers caches ListActive results under a generation-stamped key.
// Every write bumps the generation, so a listing computed before a write
// is never served after it. Cache failures degrade to the loader.
type ActiveOffers struct {
	client *redis.Client
	ttl    time.Duration
	logger zerolog.Logger
}

// NewActiveOffers creates the listing cache. Entries expire after ttl.
func NewActiveOffers(client *redis.Client, ttl time.Duration, logger zerolog.Logger) *ActiveOffers {
	return &ActiveOffers{
		client: client,
		ttl:    ttl,
		logger: logger.With().Str("component", "listing_cache").Logger(),
	}
}

// Load returns the active listing as of asOf, from cache when a listing
// computed within ttl before asOf is available, otherwise from load. Cached
// offers are filtered again at asOf so an offer that expired since the
// entry was written is never returned.
func (c *ActiveOffers) Load(
	ctx context.Context,
	asOf time.Time,
	load func(ctx context.Context, asOf time.Time) ([]model.Offer, error),
) ([]model.Offer, error) {
	gen, err := c.generation(ctx)
	if err != nil {
		c.logger.Warn().Err(err).Msg("listing cache unavailable")
		return load(ctx, asOf)
	}
	key := listingKey(gen)

	if cached, ok := c.get(ctx, key); ok && c.covers(cached, asOf) {
		c.logger.Debug().Int64("generation", gen).Msg("listing cache hit")
		return filterListed(cached.Offers, asOf), nil
	}

	offers, err := load(ctx, asOf)
	if err != nil {
		return nil, err
	}

	c.set(ctx, key, entry{ComputedAt: asOf, Offers: offers})
	return offers, nil
}

// Invalidate moves the cache to a new generation.
func (c *ActiveOffers) Invalidate(ctx context.Context) error {
	gen, err := c.client.Incr(ctx, generationKey).Result()
	if err != nil {
		c.logger.Error().Err(err).Msg("failed to invalidate listing cache")
		return fmt.Errorf("failed to invalidate listing cache: %w", err)
	}
	c.logger.Debug().Int64("generation", gen).Msg("listing cache invalidated")
	return nil
}

func (c *ActiveOffers) generation(ctx context.Context) (int64, error) {
	gen, err := c.client.Get(ctx, generationKey).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	return gen, err
}

func (c *ActiveOffers) get(ctx context.Context, key string) (*entry, bool) {
	data, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.logger.Warn().Err(err).Str("key", key).Msg("failed to read listing cache")
		}
		return nil, false
	}

	var e entry
	if err := json.Unmarshal(data, &e); err != nil {
		c.logger.Warn().Err(err).Str("key", key).Msg("discarding unreadable listing cache entry")
		return nil, false
	}
	return &e, true
}

func (c *ActiveOffers) set(ctx context.Context, key string, e entry) {
	data, err := json.Marshal(e)
	if err != nil {
		c.logger.Warn().Err(err).Msg("failed to encode listing cache entry")
		return
	}
	// SetNX keeps the earliest computation for a generation.
	if err := c.client.SetNX(ctx, key, data, c.ttl).Err(); err != nil {
		c.logger.Warn().Err(err).Str("key", key).Msg("failed to write listing cache")
	}
}

// covers reports whether e may answer a listing at asOf. An offer starting
// after e was computed is at most ttl late.
func (c *ActiveOffers) covers(e *entry, asOf time.Time) bool {
	return !asOf.Before(e.ComputedAt) && asOf.Sub(e.ComputedAt) < c.ttl
}

func listingKey(gen int64) string {
	return fmt.Sprintf("%s%d", listingPrefix, gen)
}

func filterListed(offers []model.Offer, asOf time.Time) []model.Offer {
	out := make([]model.Offer, 0, len(offers))
	for i := range offers {
		if offers[i].IsListed(asOf) {
			out = append(out, offers[i])
		}
	}
	return out
}
