/**
 * @description
 * This file contains the core application service for the card-service. The
 * `Service` struct orchestrates card lifecycle operations, funds transfers,
 * and block requests, coordinating between the database repository, the
 * Redis card cache, and the RabbitMQ event producer.
 *
 * Key features:
 * - Builds the immutable card-operation dispatch table once at construction.
 * - Publishes card-lifecycle and transfer events for asynchronous consumers.
 * - Keeps the card cache coherent by invalidating on every mutation.
 *
 * @dependencies
 * - internal/domain, internal/store: For domain models and data access.
 * - pkg/rabbitmq: For event publication.
 */

package app

import (
	"context"
	"log"
	"time"

	"github.com/vaultpay/card-service/internal/domain"
	"github.com/vaultpay/card-service/internal/store"
	"github.com/vaultpay/card-service/pkg/rabbitmq"
)

const cardEventExchange = "card.events"

// Options carries the tunables the service needs beyond its collaborators.
type Options struct {
	// CardExpiryYears is the default expiration horizon for newly issued cards.
	CardExpiryYears int
	// JWTSecret signs and verifies login tokens.
	JWTSecret []byte
	// TokenTTL bounds the lifetime of issued login tokens.
	TokenTTL time.Duration
}

// Service provides the core business logic for card management.
type Service struct {
	repo          store.Repository
	eventProducer rabbitmq.Publisher
	cardCache     *RedisCardCache
	operations    map[domain.CardOperation]operationHandler

	cardExpiryYears int
	jwtSecret       []byte
	tokenTTL        time.Duration
}

// NewService creates a new card service instance. The operation dispatch
// table is built here, once, and never mutated afterwards.
func NewService(repo store.Repository, producer rabbitmq.Publisher, cache *RedisCardCache, opts Options) *Service {
	if opts.CardExpiryYears <= 0 {
		opts.CardExpiryYears = 5
	}
	if opts.TokenTTL <= 0 {
		opts.TokenTTL = time.Hour
	}

	s := &Service{
		repo:            repo,
		eventProducer:   producer,
		cardCache:       cache,
		cardExpiryYears: opts.CardExpiryYears,
		jwtSecret:       opts.JWTSecret,
		tokenTTL:        opts.TokenTTL,
	}
	s.operations = buildOperationTable()
	return s
}

// publishEvent sends an event to the card exchange. Event delivery is
// best-effort: a broker failure is logged and never fails the operation.
func (s *Service) publishEvent(ctx context.Context, routingKey string, body interface{}) {
	if s.eventProducer == nil {
		return
	}
	if err := s.eventProducer.Publish(ctx, cardEventExchange, routingKey, body); err != nil {
		log.Printf("level=warn component=card_service msg=\"event publish failed\" routing_key=%s err=%v", routingKey, err)
	}
}
