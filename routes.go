// Copyright (C) 2025 Veracity AI (oss@veracity.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package veracity

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"golang.org/x/time/rate"
)

// RouterConfig controls router construction.
type RouterConfig struct {
	// RateLimitRPS is the sustained request rate. Zero disables the
	// limiter.
	RateLimitRPS float64

	// RateLimitBurst is the limiter burst size.
	RateLimitBurst int

	// Metrics serves GET /metrics when non-nil.
	Metrics http.Handler
}

// NewRouter builds the service router.
//
// Description:
//
//	Assembles the Gin engine with recovery, tracing, and rate-limit
//	middleware, and registers all routes.
//
// Endpoints:
//
//	POST /v1/veracity/validate - Run the validation pipeline
//	GET  /v1/veracity/traces/:id - Fetch a recorded run trace
//	GET  /v1/veracity/stats - Pipeline shape summary
//	GET  /health - Liveness check
//	GET  /ready - Readiness check
//	GET  /metrics - Prometheus metrics (when configured)
func NewRouter(handlers *Handlers, cfg RouterConfig) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(otelgin.Middleware("veracity"))
	if cfg.RateLimitRPS > 0 {
		router.Use(rateLimitMiddleware(rate.Limit(cfg.RateLimitRPS), cfg.RateLimitBurst))
	}

	RegisterRoutes(router.Group("/v1"), handlers)

	router.GET("/health", handlers.HandleHealth)
	router.GET("/ready", handlers.HandleReady)
	if cfg.Metrics != nil {
		router.GET("/metrics", gin.WrapH(cfg.Metrics))
	}
	return router
}

// RegisterRoutes registers the /v1/veracity/* endpoints on the group.
func RegisterRoutes(rg *gin.RouterGroup, handlers *Handlers) {
	veracity := rg.Group("/veracity")
	{
		veracity.POST("/validate", handlers.HandleValidate)
		veracity.GET("/traces/:id", handlers.HandleGetTrace)
		veracity.GET("/stats", handlers.HandleStats)
	}
}

// rateLimitMiddleware applies a process-wide token bucket. Requests
// over the limit get a 429 immediately rather than queueing.
func rateLimitMiddleware(limit rate.Limit, burst int) gin.HandlerFunc {
	if burst < 1 {
		burst = 1
	}
	limiter := rate.NewLimiter(limit, burst)
	return func(c *gin.Context) {
		if !limiter.Allow() {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, ErrorResponse{
				Error: "rate limit exceeded",
				Code:  "RATE_LIMITED",
			})
			return
		}
		c.Next()
	}
}
