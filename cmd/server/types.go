package main

import (
	"codeberg.org/studyai/server/internal/accounts"
	"codeberg.org/studyai/server/internal/auth"
	"codeberg.org/studyai/server/internal/config"
	"codeberg.org/studyai/server/internal/gateway"
	"codeberg.org/studyai/server/internal/llm"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

// holds all dependencies and state for the API server
type Server struct {
	config   *config.Config
	store    accounts.Store
	redis    *redis.Client // nil when REDIS_URL is unset
	services *Services
	router   *gin.Engine
}

// holds the gateway core and the clients it talks through
type Services struct {
	Gateway  *gateway.Gateway
	LLM      *llm.Client
	Verifier auth.Verifier
	Limiter  gin.HandlerFunc
}
