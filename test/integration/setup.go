package integration

import (
	"context"
	"fmt"
	"net/http"
	"testing"
	"time"

	"notes-portal/internal/auth"
	"notes-portal/internal/cache"
	"notes-portal/internal/clock"
	"notes-portal/internal/config"
	"notes-portal/internal/database"
	"notes-portal/internal/handler"
	"notes-portal/internal/ledger"
	"notes-portal/internal/repository"
	"notes-portal/internal/router"
	"notes-portal/internal/service"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	tcredis "github.com/testcontainers/testcontainers-go/modules/redis"
	"github.com/testcontainers/testcontainers-go/wait"
)

const (
	testAPIKey        = "test-api-key"
	testAdminUser     = "admin"
	testAdminPassword = "admin-pass"
)

// TestDB represents a test database instance.
type TestDB struct {
	Container *postgres.PostgresContainer
	Pool      *pgxpool.Pool
	Config    config.DatabaseConfig
}

// SetupTestDB creates a PostgreSQL test container, a connection pool and
// the offer schema.
func SetupTestDB(t *testing.T) *TestDB {
	t.Helper()

	ctx := context.Background()

	// Create PostgreSQL container
	postgresContainer, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("testdb"),
		postgres.WithUsername("testuser"),
		postgres.WithPassword("testpass"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second)),
	)
	if err != nil {
		t.Fatalf("failed to start postgres container: %v", err)
	}

	host, err := postgresContainer.Host(ctx)
	if err != nil {
		t.Fatalf("failed to get container host: %v", err)
	}
	port, err := postgresContainer.MappedPort(ctx, "5432/tcp")
	if err != nil {
		t.Fatalf("failed to get container port: %v", err)
	}

	dbConfig := config.DatabaseConfig{
		Host:            host,
		Port:            port.Int(),
		User:            "testuser",
		Password:        "testpass",
		Database:        "testdb",
		MaxConnections:  10,
		MinConnections:  2,
		MaxConnLifetime: 300,
	}

	logger := zerolog.Nop()
	pool, err := database.NewPool(ctx, dbConfig, logger)
	if err != nil {
		t.Fatalf("failed to create connection pool: %v", err)
	}

	if err := database.Migrate(ctx, pool, logger); err != nil {
		t.Fatalf("failed to create schema: %v", err)
	}

	t.Cleanup(func() {
		pool.Close()
		if err := postgresContainer.Terminate(ctx); err != nil {
			t.Logf("failed to terminate container: %v", err)
		}
	})

	return &TestDB{
		Container: postgresContainer,
		Pool:      pool,
		Config:    dbConfig,
	}
}

// SetupTestRedis creates a Redis test container and a connected client.
func SetupTestRedis(t *testing.T) *redis.Client {
	t.Helper()

	ctx := context.Background()

	redisContainer, err := tcredis.Run(ctx, "redis:7-alpine")
	if err != nil {
		t.Fatalf("failed to start redis container: %v", err)
	}

	addr, err := redisContainer.Endpoint(ctx, "")
	if err != nil {
		t.Fatalf("failed to get redis endpoint: %v", err)
	}

	client, err := cache.NewClient(ctx, config.RedisConfig{Addr: addr}, zerolog.Nop())
	if err != nil {
		t.Fatalf("failed to connect to redis: %v", err)
	}

	t.Cleanup(func() {
		_ = client.Close()
		if err := redisContainer.Terminate(ctx); err != nil {
			t.Logf("failed to terminate container: %v", err)
		}
	})

	return client
}

// TestApp is the fully wired offer API running against test containers.
type TestApp struct {
	Handler http.Handler
	Service service.OfferService
	Clock   *clock.Fixed
}

// NewTestApp wires the offer API the way cmd/api does. rdb may be nil to
// run without the listing cache.
func NewTestApp(t *testing.T, testDB *TestDB, rdb *redis.Client, now time.Time) *TestApp {
	t.Helper()

	logger := zerolog.Nop()
	clk := clock.NewFixed(now)

	offerRepo := repository.NewOfferRepository(testDB.Pool, logger)

	var listing service.ListingCache
	if rdb != nil {
		listing = cache.NewActiveOffers(rdb, time.Minute, logger)
	}

	offerService := service.NewOfferService(offerRepo, ledger.New(offerRepo, clk, logger), listing, clk, logger)

	hash, err := auth.HashPassword(testAdminPassword)
	if err != nil {
		t.Fatalf("failed to hash admin password: %v", err)
	}
	tokens := auth.NewJWTService("integration-secret", time.Hour, clk)
	authenticator := auth.NewAuthenticator(testAdminUser, hash, tokens, logger)

	mux := router.New(
		handler.NewOfferHandler(offerService, logger),
		handler.NewAuthHandler(authenticator, logger),
		tokens,
		testAPIKey,
		logger,
	)

	return &TestApp{Handler: mux, Service: offerService, Clock: clk}
}

// CleanupDB removes all offers and their usage rows.
func CleanupDB(t *testing.T, pool *pgxpool.Pool) {
	t.Helper()

	ctx := context.Background()

	tables := []string{"offer_user_usage", "offer_codes", "offers"}
	for _, table := range tables {
		_, err := pool.Exec(ctx, fmt.Sprintf("DELETE FROM %s", table))
		if err != nil {
			t.Logf("failed to clean table %s: %v", table, err)
		}
	}
}
