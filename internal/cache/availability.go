// Package cache provides a redis-backed cache of per-property approved
// stays, used by the advisory availability endpoint. The authoritative
// create/approve path always reads the database inside its transaction, so
// the cache is best-effort: any failure falls back to the store.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"bungalow/internal/availability"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// AvailabilityCache caches the approved-stay set per property.
type AvailabilityCache struct {
	client *redis.Client
	ttl    time.Duration
	logger zerolog.Logger
}

func New(client *redis.Client, ttl time.Duration, logger zerolog.Logger) *AvailabilityCache {
	return &AvailabilityCache{
		client: client,
		ttl:    ttl,
		logger: logger.With().Str("component", "cache").Logger(),
	}
}

func key(propertyID int64) string {
	return fmt.Sprintf("availability:property:%d", propertyID)
}

// Get returns the cached approved stays for a property, or ok=false on miss
// or error.
func (c *AvailabilityCache) Get(ctx context.Context, propertyID int64) ([]availability.ApprovedStay, bool) {
	data, err := c.client.Get(ctx, key(propertyID)).Bytes()
	if err == redis.Nil {
		return nil, false
	}
	if err != nil {
		c.logger.Warn().Err(err).Int64("property_id", propertyID).Msg("cache read failed")
		return nil, false
	}

	var stays []availability.ApprovedStay
	if err := json.Unmarshal(data, &stays); err != nil {
		c.logger.Warn().Err(err).Int64("property_id", propertyID).Msg("cache entry corrupt")
		return nil, false
	}
	return stays, true
}

// Set stores the approved stays for a property.
func (c *AvailabilityCache) Set(ctx context.Context, propertyID int64, stays []availability.ApprovedStay) {
	data, err := json.Marshal(stays)
	if err != nil {
		return
	}
	if err := c.client.Set(ctx, key(propertyID), data, c.ttl).Err(); err != nil {
		c.logger.Warn().Err(err).Int64("property_id", propertyID).Msg("cache write failed")
	}
}

// Invalidate drops the cached entry for a property. Called after every
// approval, since only approvals change the availability projection.
func (c *AvailabilityCache) Invalidate(ctx context.Context, propertyID int64) {
	if err := c.client.Del(ctx, key(propertyID)).Err(); err != nil {
		c.logger.Warn().Err(err).Int64("property_id", propertyID).Msg("cache invalidation failed")
	}
}
