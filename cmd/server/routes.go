package main

import (
	"codeberg.org/studyai/server/api/rest/account"
	"codeberg.org/studyai/server/api/rest/health"
	"codeberg.org/studyai/server/api/rest/study"
	"github.com/gin-gonic/gin"
)

// sets up all API routes and middleware
func RegisterRoutes(router *gin.Engine, server *Server) {
	router.Use(CORSMiddleware())
	router.Use(RequestIDMiddleware())
	router.Use(RequestLogger())

	router.GET("/health", health.Handler)

	v1 := router.Group("/api/v1")

	{
		v1.GET("/ping", health.PingHandler)

		study.RegisterRoutes(v1, server.services.Gateway, server.services.Verifier, server.services.Limiter)
		account.RegisterRoutes(v1, server.services.Gateway, server.services.Verifier, server.config.CheckoutURL)
	}
}
