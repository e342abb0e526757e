/**
 * @description
 * This is the main entry point for the card-service. It is responsible for
 * initializing all components of the service, including configuration, database
 * connection, the card-number encryptor, the message broker producer, the Redis
 * card cache, the repository, the core application service, and the HTTP
 * server. It wires everything together and starts the service.
 *
 * @dependencies
 * - log, net/http: Standard Go libraries for logging and HTTP server functionality.
 * - github.com/go-chi/chi/v5: For HTTP routing.
 * - github.com/jackc/pgx/v5: PostgreSQL driver.
 * - internal/api, internal/app, internal/config, internal/store: Internal packages for the service.
 * - pkg/rabbitmq: Client for RabbitMQ.
 */

package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/vaultpay/card-service/internal/api"
	"github.com/vaultpay/card-service/internal/app"
	"github.com/vaultpay/card-service/internal/config"
	"github.com/vaultpay/card-service/internal/store"
	"github.com/vaultpay/card-service/pkg/rabbitmq"
)

func main() {
	// Load application configuration from environment variables.
	cfg, err := config.LoadConfig(".")
	if err != nil {
		log.Fatalf("level=fatal component=bootstrap msg=\"config load failed\" err=%v", err)
	}
	if strings.TrimSpace(cfg.JWTSecret) == "" {
		log.Fatalf("level=fatal component=bootstrap msg=\"jwt secret must be configured\" env=JWT_SECRET")
	}

	encryptionKey, err := cfg.DecodeCardEncryptionKey()
	if err != nil {
		log.Fatalf("level=fatal component=bootstrap msg=\"card encryption key decode failed\" err=%v", err)
	}
	cardEncryptor, err := store.NewCardEncryptor(encryptionKey)
	if err != nil {
		log.Fatalf("level=fatal component=bootstrap msg=\"card encryptor init failed\" err=%v", err)
	}

	log.Printf("level=info component=bootstrap msg=\"starting card-service\" port=%s", cfg.ServerPort)

	// Establish a connection pool to the PostgreSQL database.
	poolConfig, err := pgxpool.ParseConfig(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("level=fatal component=bootstrap msg=\"database url parse failed\" err=%v", err)
	}

	// Configure connection pool for high-traffic scenarios.
	poolConfig.MaxConns = 100
	poolConfig.MinConns = 20
	poolConfig.MaxConnLifetime = 30 * time.Minute
	poolConfig.MaxConnIdleTime = 5 * time.Minute

	// Disable prepared statement caching to prevent conflicts
	poolConfig.ConnConfig.DefaultQueryExecMode = pgx.QueryExecModeSimpleProtocol

	dbpool, err := pgxpool.NewWithConfig(context.Background(), poolConfig)
	if err != nil {
		log.Fatalf("level=fatal component=bootstrap msg=\"database connection failed\" err=%v", err)
	}
	defer dbpool.Close()
	log.Println("level=info component=bootstrap msg=\"database connected\"")

	// Initialize the RabbitMQ producer to publish card lifecycle events.
	// This service only needs to publish, so we use a producer.
	var producer rabbitmq.Publisher
	eventProducer, err := rabbitmq.NewEventProducer(cfg.RabbitMQURL)
	if err != nil {
		log.Printf("level=warn component=bootstrap msg=\"rabbitmq producer unavailable; using fallback\" err=%v", err)
		producer = &rabbitmq.EventProducerFallback{}
	} else {
		defer eventProducer.Close()
		producer = eventProducer
		log.Println("level=info component=bootstrap msg=\"rabbitmq producer connected\"")
	}

	// Initialize the optional Redis card cache. A missing or unreachable Redis
	// disables caching but does not prevent the service from booting.
	var redisClient *redis.Client
	if strings.TrimSpace(cfg.RedisURL) == "" {
		log.Println("level=warn component=bootstrap msg=\"redis url missing; card cache disabled\" env=REDIS_URL")
	} else {
		redisOptions, parseErr := redis.ParseURL(cfg.RedisURL)
		if parseErr != nil {
			log.Printf("level=warn component=bootstrap msg=\"redis url parse failed; card cache disabled\" err=%v", parseErr)
		} else {
			redisClient = redis.NewClient(redisOptions)
			pingCtx, cancelPing := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancelPing()
			if pingErr := redisClient.Ping(pingCtx).Err(); pingErr != nil {
				log.Printf("level=warn component=bootstrap msg=\"redis ping failed; card cache disabled\" err=%v", pingErr)
				redisClient.Close()
				redisClient = nil
			} else {
				defer redisClient.Close()
				log.Println("level=info component=bootstrap msg=\"redis connected\"")
			}
		}
	}
	var cardCache *app.RedisCardCache
	if redisClient != nil {
		cardCache = app.NewRedisCardCache(
			redisClient,
			cfg.CardCachePrefix,
			time.Duration(cfg.CardCacheTTLSeconds)*time.Second,
		)
	}

	// Initialize the data access layer (repository).
	repository := store.NewPostgresRepository(dbpool, cardEncryptor)

	// Initialize the core application service with its dependencies.
	cardService := app.NewService(repository, producer, cardCache, app.Options{
		CardExpiryYears: cfg.CardExpiryYears,
		JWTSecret:       []byte(cfg.JWTSecret),
		TokenTTL:        time.Duration(cfg.TokenTTLMinutes) * time.Minute,
	})

	// Seed the bootstrap administrator account when one is configured.
	seedCtx, cancelSeed := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancelSeed()
	if err := cardService.EnsureAdminUser(seedCtx, cfg.AdminUsername, cfg.AdminPassword); err != nil {
		log.Fatalf("level=fatal component=bootstrap msg=\"admin seed failed\" err=%v", err)
	}

	// Initialize the API handlers.
	cardHandlers := api.NewCardHandlers(cardService)

	// Set up the HTTP router and define the API routes.
	router := chi.NewRouter()
	router.Mount("/", api.CardRoutes(cardHandlers, []byte(cfg.JWTSecret)))

	// Start the HTTP server.
	serverAddr := fmt.Sprintf(":%s", cfg.ServerPort)
	log.Printf("level=info component=http msg=\"server listening\" addr=%s", serverAddr)

	server := &http.Server{
		Addr:    serverAddr,
		Handler: router,
	}

	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("level=fatal component=http msg=\"server stopped unexpectedly\" err=%v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop
	log.Println("level=info component=http msg=\"shutdown started\"")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Printf("level=error component=http msg=\"shutdown failed\" err=%v", err)
	}

	log.Println("level=info component=http msg=\"shutdown complete\"")
}
