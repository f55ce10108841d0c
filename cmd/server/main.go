package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"codeberg.org/studyai/server/internal/config"
	"codeberg.org/studyai/server/internal/logger"
)

// @title StudyAI API
// @version 1.0
// @description Request gateway for the StudyAI study assistant
// @description
// @description Features:
// @description - Explanations, summaries and flashcards streamed as server-sent events
// @description - Structured five-question quizzes
// @description - Daily free allowance with unlimited premium accounts

// @contact.name API Support
// @contact.url https://codeberg.org/studyai/server

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description JWT token for authenticated requests. Format: Bearer {token}

func main() {
	// load configuration from environment
	cfg, err := config.LoadEnvironmentVariables()
	if err != nil {
		logger.FatalErr(err, "failed to load configuration")
	}

	logger.Configure(cfg.Environment, cfg.LogLevel)
	logger.Info("starting studyai server", "environment", cfg.Environment)

	// create server with all dependencies
	srv, err := NewServer(cfg)
	if err != nil {
		logger.FatalErr(err, "failed to create server")
	}

	// no WriteTimeout: streamed answers can outlive any fixed bound,
	// the upstream stream timeout caps them instead
	httpServer := &http.Server{
		Addr:              fmt.Sprintf(":%s", cfg.Port),
		Handler:           srv.router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	// start server in goroutine
	go func() {
		logger.Info("server listening", "port", cfg.Port)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.FatalErr(err, "server failed to start")
		}
	}()

	// wait for interrupt signal for graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server")

	// graceful shutdown lets in-flight streams finish
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(ctx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
	}

	srv.Close()

	logger.Info("server stopped")
}
