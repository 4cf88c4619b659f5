/**
 * @description
 * This is the main entry point for the monetization-service. It is
 * responsible for initializing all components of the service: configuration,
 * the database connection pool, the platform API client, Redis, the message
 * broker, the orchestrator service, and the HTTP server. It wires everything
 * together and starts the service.
 *
 * @dependencies
 * - log, net/http: Standard Go libraries for logging and HTTP server functionality.
 * - github.com/jackc/pgx/v5: PostgreSQL driver.
 * - github.com/redis/go-redis/v9: Redis client.
 * - internal/api, internal/app, internal/config, internal/store: Internal packages.
 * - pkg/platformapi, pkg/rabbitmq: External service clients.
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

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/my-edutu/monetization-service/internal/api"
	"github.com/my-edutu/monetization-service/internal/app"
	"github.com/my-edutu/monetization-service/internal/config"
	"github.com/my-edutu/monetization-service/internal/store"
	"github.com/my-edutu/monetization-service/pkg/platformapi"
	"github.com/my-edutu/monetization-service/pkg/rabbitmq"
)

func main() {
	// Load application configuration from environment variables.
	cfg, err := config.LoadConfig(".")
	if err != nil {
		log.Fatalf("level=fatal component=bootstrap msg=\"config load failed\" err=%v", err)
	}
	if strings.TrimSpace(cfg.PlatformAPIBaseURL) == "" {
		log.Fatalf("level=fatal component=bootstrap msg=\"platform api base url must be configured\" env=PLATFORM_API_BASE_URL")
	}
	if strings.TrimSpace(cfg.JWTSecret) == "" {
		log.Fatalf("level=fatal component=bootstrap msg=\"jwt secret must be configured\" env=JWT_SECRET")
	}

	log.Printf("level=info component=bootstrap msg=\"starting monetization-service\" port=%s", cfg.ServerPort)

	// Establish a connection pool to the PostgreSQL database.
	poolConfig, err := pgxpool.ParseConfig(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("level=fatal component=bootstrap msg=\"database url parse failed\" err=%v", err)
	}
	poolConfig.MaxConns = 20
	poolConfig.MaxConnLifetime = 30 * time.Minute
	poolConfig.MaxConnIdleTime = 5 * time.Minute

	dbpool, err := pgxpool.NewWithConfig(context.Background(), poolConfig)
	if err != nil {
		log.Fatalf("level=fatal component=bootstrap msg=\"database connection failed\" err=%v", err)
	}
	defer dbpool.Close()
	repository := store.NewPostgresRepository(dbpool)
	log.Println("level=info component=bootstrap msg=\"database connected\"")

	// Initialize the RabbitMQ producer to publish events. Losing the broker
	// degrades to the no-op fallback; it never blocks user operations.
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

	// Initialize the client for the upstream platform API.
	platformClient := platformapi.NewClient(cfg.PlatformAPIBaseURL)

	// Connect Redis for withdrawal idempotency records and resolve
	// throttling. Both features degrade when Redis is unavailable.
	var redisClient *redis.Client
	if cfg.RedisURL == "" {
		log.Println("level=warn component=bootstrap msg=\"redis url missing; idempotency records and throttling disabled\" env=REDIS_URL")
	} else {
		redisOptions, parseErr := redis.ParseURL(cfg.RedisURL)
		if parseErr != nil {
			log.Printf("level=warn component=bootstrap msg=\"redis url parse failed; continuing without redis\" err=%v", parseErr)
		} else {
			redisClient = redis.NewClient(redisOptions)
			pingCtx, cancelPing := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancelPing()
			if pingErr := redisClient.Ping(pingCtx).Err(); pingErr != nil {
				log.Printf("level=warn component=bootstrap msg=\"redis ping failed; continuing without redis\" err=%v", pingErr)
				redisClient.Close()
				redisClient = nil
			} else {
				defer redisClient.Close()
				log.Println("level=info component=bootstrap msg=\"redis connected\"")
			}
		}
	}

	// Initialize the core orchestrator service with its dependencies.
	var idempotency app.IdempotencyStore
	if redisClient != nil {
		idempotency = app.NewRedisIdempotencyStore(redisClient, cfg.RedisKeyPrefix+":withdrawal_idem")
	}
	service := app.NewService(platformClient, repository, producer, idempotency)
	service.SetIdempotencyTTL(time.Duration(cfg.WithdrawalIdemTTLMinutes) * time.Minute)
	if redisClient != nil && cfg.ResolveRateLimitPerMinute > 0 {
		service.SetResolveRateLimiter(
			app.NewRedisResolveRateLimiter(redisClient, cfg.RedisKeyPrefix+":rate_limit"),
			cfg.ResolveRateLimitPerMinute,
		)
	}

	// Sweep abandoned in-memory withdrawal sessions on a schedule.
	janitor := app.NewSessionJanitor(service, cfg.SessionSweepSchedule, time.Duration(cfg.SessionMaxIdleMinutes)*time.Minute)
	janitor.Start()
	defer janitor.Stop()

	// Initialize the API handlers and router.
	handlers := api.NewHandlers(service)
	router := api.Routes(handlers, cfg.JWTSecret)

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
