package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/piteam/pi_api/internal/models"
)

// Verified subscriptions are immutable once assigned, so a short TTL is only
// needed to bound memory, not for correctness.
const subscriberTTL = 10 * time.Minute

// SubscriberCache caches verified subscription lookups by email or
// subscriber number.
type SubscriberCache struct {
	redis *RedisClient
}

// NewSubscriberCache creates a new SubscriberCache.
func NewSubscriberCache(redis *RedisClient) *SubscriberCache {
	return &SubscriberCache{redis: redis}
}

func emailKey(email string) string   { return fmt.Sprintf("subscriber:email:%s", email) }
func numberKey(number string) string { return fmt.Sprintf("subscriber:number:%s", number) }

// Get returns the cached subscription for an email or subscriber number, or
// nil on miss. Cache errors are logged and treated as misses.
func (c *SubscriberCache) Get(ctx context.Context, email, subscriberNumber string) *models.Subscription {
	key := emailKey(email)
	if subscriberNumber != "" {
		key = numberKey(subscriberNumber)
	}

	raw, err := c.redis.Get(ctx, key)
	if err != nil {
		return nil
	}

	var sub models.Subscription
	if err := json.Unmarshal([]byte(raw), &sub); err != nil {
		log.Warn().Err(err).Str("key", key).Msg("corrupt subscriber cache entry")
		_ = c.redis.Delete(ctx, key)
		return nil
	}
	return &sub
}

// Set caches a verified subscription under both its email and subscriber
// number keys. Failures are logged and ignored.
func (c *SubscriberCache) Set(ctx context.Context, sub *models.Subscription) {
	if sub == nil || sub.Status != models.StatusVerified {
		return
	}

	raw, err := json.Marshal(sub)
	if err != nil {
		log.Warn().Err(err).Msg("failed to marshal subscription for cache")
		return
	}

	if err := c.redis.Set(ctx, emailKey(sub.Email), string(raw), subscriberTTL); err != nil {
		log.Warn().Err(err).Msg("failed to cache subscriber by email")
	}
	if sub.SubscriberNumber != nil {
		if err := c.redis.Set(ctx, numberKey(*sub.SubscriberNumber), string(raw), subscriberTTL); err != nil {
			log.Warn().Err(err).Msg("failed to cache subscriber by number")
		}
	}
}
