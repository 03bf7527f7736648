// Package router builds the gin engine and mounts every module's routes.
package router

import (
	"errors"
	"net/http"
	"time"

	apphttp "github.com/mattosconsultor/humano-saude/internal/http"
	"github.com/mattosconsultor/humano-saude/internal/http/middleware"
	"github.com/mattosconsultor/humano-saude/platform/db"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/time/rate"
)

// Shared token bucket over all clients; burst sized for extraction batches.
const (
	requestsPerSecond rate.Limit = 100
	requestBurst                 = 200
)

// New assembles the HTTP engine: recovery, request ID, logging, metrics,
// rate limiting, CORS, the health and metrics endpoints, and every module
// under /api/v1.
func New(app *apphttp.App) *gin.Engine {
	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(middleware.RequestID())
	engine.Use(middleware.RequestLogger(app.Logger))
	engine.Use(middleware.Prometheus(app.Metrics))
	engine.Use(middleware.RateLimit(requestsPerSecond, requestBurst))
	engine.Use(corsMiddleware(app))

	engine.GET("/api/health", healthHandler(app))
	engine.GET("/metrics", gin.WrapH(promhttp.Handler()))

	ctx := &apphttp.RouterContext{
		Engine: engine,
		V1:     engine.Group("/api/v1"),
	}

	for _, module := range app.Modules {
		module.RegisterRoutes(ctx)
		app.Logger.Info("registered module routes", "module", module.Name())
	}

	return engine
}

func corsMiddleware(app *apphttp.App) gin.HandlerFunc {
	cfg := cors.Config{
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", "X-Request-ID"},
		ExposeHeaders:    []string{"X-Request-ID"},
		AllowCredentials: app.Config.GetCORSAllowCreds(),
		MaxAge:           12 * time.Hour,
	}
	if app.Config.GetCORSAllowAll() {
		cfg.AllowAllOrigins = true
		cfg.AllowCredentials = false
	} else {
		cfg.AllowOrigins = app.Config.GetCORSOrigins()
	}
	return cors.New(cfg)
}

// healthHandler reports liveness always and the store's state separately, so
// a deployment without a database still answers 200 in degraded mode.
func healthHandler(app *apphttp.App) gin.HandlerFunc {
	return func(c *gin.Context) {
		database := "connected"
		if err := app.Health.Ping(c.Request.Context()); err != nil {
			if errors.Is(err, db.ErrNotConfigured) {
				database = "not_configured"
			} else {
				database = "unavailable"
			}
		}
		c.JSON(http.StatusOK, gin.H{
			"status":   "ok",
			"database": database,
		})
	}
}
