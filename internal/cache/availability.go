package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/clinova/clinic-scheduling/internal/clinic"
)

// AvailabilityCache keeps availability search results in Redis for a short
// TTL. It is a read-path optimization only: the store stays authoritative,
// and any write that touches a doctor's calendar invalidates the affected
// keys.
type AvailabilityCache struct {
	client *redis.Client
	ttl    time.Duration
	log    zerolog.Logger
}

func NewAvailabilityCache(client *redis.Client, ttl time.Duration, log zerolog.Logger) *AvailabilityCache {
	return &AvailabilityCache{
		client: client,
		ttl:    ttl,
		log:    log,
	}
}

func key(specializationID int64, date time.Time) string {
	return fmt.Sprintf("avail:%d:%s", specializationID, date.Format(clinic.DayFormat))
}

func (c *AvailabilityCache) Get(ctx context.Context, specializationID int64, date time.Time) ([]clinic.DoctorAvailability, bool) {
	raw, err := c.client.Get(ctx, key(specializationID, date)).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.log.Warn().Err(err).Msg("availability cache read failed")
		}
		return nil, false
	}

	var results []clinic.DoctorAvailability
	if err := json.Unmarshal(raw, &results); err != nil {
		c.log.Warn().Err(err).Msg("availability cache entry corrupt, dropping")
		_ = c.client.Del(ctx, key(specializationID, date)).Err()
		return nil, false
	}
	return results, true
}

func (c *AvailabilityCache) Set(ctx context.Context, specializationID int64, date time.Time, results []clinic.DoctorAvailability) {
	raw, err := json.Marshal(results)
	if err != nil {
		c.log.Warn().Err(err).Msg("marshal availability results")
		return
	}
	if err := c.client.Set(ctx, key(specializationID, date), raw, c.ttl).Err(); err != nil {
		c.log.Warn().Err(err).Msg("availability cache write failed")
	}
}

func (c *AvailabilityCache) Invalidate(ctx context.Context, specializationID int64, date time.Time) {
	if err := c.client.Del(ctx, key(specializationID, date)).Err(); err != nil {
		c.log.Warn().Err(err).Msg("availability cache invalidation failed")
	}
}

// InvalidateSpecialization drops every cached day for one specialization.
// Used when a doctor's blacklist flag flips, which must take effect in
// search results immediately rather than after TTL expiry.
func (c *AvailabilityCache) InvalidateSpecialization(ctx context.Context, specializationID int64) {
	pattern := fmt.Sprintf("avail:%d:*", specializationID)
	iter := c.client.Scan(ctx, 0, pattern, 0).Iterator()
	for iter.Next(ctx) {
		if err := c.client.Del(ctx, iter.Val()).Err(); err != nil {
			c.log.Warn().Err(err).Str("key", iter.Val()).Msg("availability cache invalidation failed")
		}
	}
	if err := iter.Err(); err != nil {
		c.log.Warn().Err(err).Msg("availability cache scan failed")
	}
}
