package main

import (
	"context"
	"fmt"
	"time"

	"codeberg.org/studyai/server/internal/accounts"
	"codeberg.org/studyai/server/internal/config"
	"codeberg.org/studyai/server/internal/logger"
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
)

// creates and configures a new server instance with all dependencies
func NewServer(cfg *config.Config) (*Server, error) {
	ctx := context.Background()

	store, redisClient, err := openAccountStore(ctx, cfg)
	if err != nil {
		return nil, err
	}

	services, err := InitializeServices(cfg, store, redisClient)
	if err != nil {
		closeStore(store, redisClient)
		return nil, fmt.Errorf("failed to initialize services: %w", err)
	}

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(RecoveryMiddleware())

	server := &Server{
		config:   cfg,
		store:    store,
		redis:    redisClient,
		services: services,
		router:   router,
	}

	RegisterRoutes(router, server)

	return server, nil
}

// releases the store and any shared redis connection
func (s *Server) Close() {
	closeStore(s.store, s.redis)
}

func closeStore(store accounts.Store, redisClient *redis.Client) {
	store.Close() //nolint:errcheck,gosec // best-effort cleanup

	// the redis store closes its own client
	if _, ok := store.(*accounts.RedisStore); !ok && redisClient != nil {
		redisClient.Close() //nolint:errcheck,gosec // best-effort cleanup
	}
}

// selects the account store backend; the returned redis client, if any,
// is shared with the request limiter
func openAccountStore(ctx context.Context, cfg *config.Config) (accounts.Store, *redis.Client, error) {
	switch cfg.AccountStore {
	case config.StoreRedis:
		store, err := accounts.NewRedisStoreFromURL(cfg.RedisURL)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to initialize redis account store: %w", err)
		}

		logger.Info("account store ready", "backend", config.StoreRedis)
		return store, store.Client(), nil

	case config.StorePostgres:
		pool, err := newPool(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, nil, err
		}

		var admin *pgxpool.Pool
		if cfg.AdminDatabaseURL != "" {
			admin, err = newPool(ctx, cfg.AdminDatabaseURL)
			if err != nil {
				pool.Close()
				return nil, nil, fmt.Errorf("admin pool: %w", err)
			}
		}

		store := accounts.NewPostgresStore(pool, admin)

		if cfg.AutoMigrate {
			if err := store.EnsureSchema(ctx); err != nil {
				store.Close() //nolint:errcheck,gosec // best-effort cleanup on init failure
				return nil, nil, err
			}
		}

		redisClient, err := optionalRedis(cfg.RedisURL)
		if err != nil {
			store.Close() //nolint:errcheck,gosec // best-effort cleanup on init failure
			return nil, nil, err
		}

		logger.Info("account store ready", "backend", config.StorePostgres, "admin_pool", admin != nil)
		return store, redisClient, nil

	default:
		redisClient, err := optionalRedis(cfg.RedisURL)
		if err != nil {
			return nil, nil, err
		}

		logger.Warn("using in-memory account store, usage resets on restart")
		return accounts.NewMemoryStore(), redisClient, nil
	}
}

func newPool(ctx context.Context, connString string) (*pgxpool.Pool, error) {
	poolConfig, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, fmt.Errorf("failed to parse database config: %w", err)
	}

	// hosted poolers allow few connections, so keep our pool small
	poolConfig.MaxConns = 5
	poolConfig.MinConns = 1
	poolConfig.MaxConnLifetime = 30 * time.Minute
	poolConfig.MaxConnIdleTime = 5 * time.Minute
	poolConfig.HealthCheckPeriod = 1 * time.Minute

	// pgBouncer in transaction mode doesn't support prepared statements
	poolConfig.ConnConfig.DefaultQueryExecMode = pgx.QueryExecModeSimpleProtocol

	db, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create database pool: %w", err)
	}

	if err := db.Ping(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return db, nil
}

// connects to redis when a URL is configured; nil otherwise
func optionalRedis(redisURL string) (*redis.Client, error) {
	if redisURL == "" {
		return nil, nil
	}

	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis url: %w", err)
	}

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close() //nolint:errcheck,gosec // best-effort cleanup
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return client, nil
}
