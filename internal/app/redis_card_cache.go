/**
 * @description
 * Read-through Redis cache for card projections. Cached entries expire after
 * a configurable TTL and are invalidated on every status or balance mutation,
 * so readers never see a card state older than the TTL. The cache is
 * strictly optional: with no Redis client configured every method is a no-op
 * and reads fall through to the database.
 */

package app

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/vaultpay/card-service/internal/domain"
)

// RedisCardCache caches masked card projections in Redis with a TTL.
type RedisCardCache struct {
	client redis.UniversalClient
	prefix string
	ttl    time.Duration
}

// NewRedisCardCache creates a card cache. A nil client disables caching.
func NewRedisCardCache(client redis.UniversalClient, prefix string, ttl time.Duration) *RedisCardCache {
	trimmedPrefix := strings.TrimSpace(prefix)
	if trimmedPrefix == "" {
		trimmedPrefix = "cardsvc:cards"
	}
	trimmedPrefix = strings.TrimSuffix(trimmedPrefix, ":")

	if ttl <= 0 {
		ttl = 5 * time.Minute
	}

	return &RedisCardCache{client: client, prefix: trimmedPrefix, ttl: ttl}
}

func (c *RedisCardCache) key(cardID uuid.UUID) string {
	return fmt.Sprintf("%s:%s", c.prefix, cardID)
}

// Get returns the cached card, if present. Cache errors degrade to a miss.
func (c *RedisCardCache) Get(ctx context.Context, cardID uuid.UUID) (*domain.Card, bool) {
	if c == nil || c.client == nil {
		return nil, false
	}

	raw, err := c.client.Get(ctx, c.key(cardID)).Bytes()
	if err != nil {
		if err != redis.Nil {
			log.Printf("level=warn component=card_cache msg=\"cache read failed\" card_id=%s err=%v", cardID, err)
		}
		return nil, false
	}

	var card domain.Card
	if err := json.Unmarshal(raw, &card); err != nil {
		log.Printf("level=warn component=card_cache msg=\"cache entry corrupt; dropping\" card_id=%s err=%v", cardID, err)
		c.client.Del(ctx, c.key(cardID))
		return nil, false
	}
	return &card, true
}

// Set stores a card projection under the configured TTL.
func (c *RedisCardCache) Set(ctx context.Context, card *domain.Card) {
	if c == nil || c.client == nil || card == nil {
		return
	}

	raw, err := json.Marshal(card)
	if err != nil {
		log.Printf("level=warn component=card_cache msg=\"cache marshal failed\" card_id=%s err=%v", card.ID, err)
		return
	}
	if err := c.client.Set(ctx, c.key(card.ID), raw, c.ttl).Err(); err != nil {
		log.Printf("level=warn component=card_cache msg=\"cache write failed\" card_id=%s err=%v", card.ID, err)
	}
}

// Invalidate drops a card from the cache after a mutation.
func (c *RedisCardCache) Invalidate(ctx context.Context, cardID uuid.UUID) {
	if c == nil || c.client == nil {
		return
	}
	if err := c.client.Del(ctx, c.key(cardID)).Err(); err != nil {
		log.Printf("level=warn component=card_cache msg=\"cache invalidate failed\" card_id=%s err=%v", cardID, err)
	}
}
