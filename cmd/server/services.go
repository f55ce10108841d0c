package main

import (
	"fmt"

	"codeberg.org/studyai/server/internal/accounts"
	"codeberg.org/studyai/server/internal/auth"
	"codeberg.org/studyai/server/internal/config"
	"codeberg.org/studyai/server/internal/gateway"
	"codeberg.org/studyai/server/internal/llm"
	"codeberg.org/studyai/server/internal/logger"
	"codeberg.org/studyai/server/internal/study"
	"github.com/redis/go-redis/v9"
)

// creates and configures all service clients
func InitializeServices(cfg *config.Config, store accounts.Store, redisClient *redis.Client) (*Services, error) {
	verifier, err := newVerifier(cfg)
	if err != nil {
		return nil, err
	}

	catalog, err := study.DefaultCatalog()
	if err != nil {
		return nil, fmt.Errorf("failed to load prompt catalog: %w", err)
	}

	llmClient := llm.NewClient(llm.Config{
		APIKey:            cfg.UpstreamAPIKey,
		BaseURL:           cfg.UpstreamBaseURL,
		Timeout:           cfg.UpstreamTimeout,
		StreamTimeout:     cfg.StreamTimeout,
		RequestsPerSecond: cfg.UpstreamRPS,
		Burst:             cfg.UpstreamBurst,
	})

	gw := gateway.New(store, llmClient, catalog, accounts.NewPolicy(cfg.DailyLimit), gateway.Settings{
		FreeModel:        cfg.FreeModel,
		PremiumModel:     cfg.PremiumModel,
		FreeMaxTokens:    cfg.FreeMaxTokens,
		PremiumMaxTokens: cfg.PremiumMaxTokens,
	})

	limiter, err := RateLimitMiddleware(cfg.RateLimit, redisClient)
	if err != nil {
		return nil, fmt.Errorf("failed to create rate limiter: %w", err)
	}

	logger.Info("services initialized",
		"auth_mode", cfg.AuthMode,
		"free_model", cfg.FreeModel,
		"premium_model", cfg.PremiumModel,
		"daily_limit", cfg.DailyLimit,
		"rate_limit", cfg.RateLimit,
	)

	return &Services{
		Gateway:  gw,
		LLM:      llmClient,
		Verifier: verifier,
		Limiter:  limiter,
	}, nil
}

func newVerifier(cfg *config.Config) (auth.Verifier, error) {
	switch cfg.AuthMode {
	case config.AuthGoTrue:
		return auth.NewGoTrueVerifier(cfg.IdentityURL, cfg.IdentityAnonKey), nil
	default:
		if cfg.JWTPublicKey != "" {
			return auth.NewPublicKeyVerifier(cfg.JWTPublicKey)
		}

		return auth.NewHMACVerifier(cfg.JWTSecret)
	}
}
