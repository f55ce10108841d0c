package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"codeberg.org/studyai/server/internal/accounts"
	"codeberg.org/studyai/server/internal/auth"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
)

func main() {
	userID := flag.String("user", "", "user id to sign for (random when empty)")
	email := flag.String("email", "test@studyai.dev", "email claim")
	ttl := flag.Duration("ttl", 24*time.Hour, "token lifetime")
	premium := flag.Bool("premium", false, "mark the account premium (redis store only)")
	flag.Parse()

	// load environment
	if err := godotenv.Load(); err != nil {
		log.Printf("Warning: .env file not found")
	}

	if *userID == "" {
		*userID = uuid.New().String()
	}

	ctx := context.Background()
	policy := accounts.NewPolicy(0)

	// seed the account so the first request is not the one creating it
	if dsn := os.Getenv("DATABASE_URL"); dsn != "" {
		pool, err := pgxpool.New(ctx, dsn)
		if err != nil {
			log.Fatalf("Failed to connect to database: %v", err)
		}

		store := accounts.NewPostgresStore(pool, nil)
		if err := store.Create(ctx, policy.NewAccount(*userID)); err != nil {
			log.Fatalf("Failed to create test account: %v", err)
		}
		store.Close() //nolint:errcheck,gosec // best-effort cleanup

		fmt.Printf("✅ Test account ready in postgres (ID: %s)\n", *userID)
	}

	if redisURL := os.Getenv("REDIS_URL"); redisURL != "" {
		store, err := accounts.NewRedisStoreFromURL(redisURL)
		if err != nil {
			log.Fatalf("Failed to connect to redis: %v", err)
		}

		if err := store.Create(ctx, policy.NewAccount(*userID)); err != nil {
			log.Fatalf("Failed to create test account: %v", err)
		}

		if *premium {
			if err := store.SetPremium(ctx, *userID, true); err != nil {
				log.Fatalf("Failed to mark account premium: %v", err)
			}
		}
		store.Close() //nolint:errcheck,gosec // best-effort cleanup

		fmt.Printf("✅ Test account ready in redis (ID: %s, premium: %t)\n", *userID, *premium)
	}

	// generate JWT token
	token, err := auth.GenerateJWT(os.Getenv("JWT_SECRET"), *userID, *email, *ttl)
	if err != nil {
		log.Fatalf("Failed to generate JWT: %v", err)
	}

	fmt.Printf("\n🔑 Test JWT Token:\n%s\n\n", token)
	fmt.Printf("Export this token for the TUI:\nexport STUDYAI_TOKEN=\"%s\"\n", token)
}
