package main

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sourcegraph/conc/pool"

	"bookshelf-backend/internal/shared/middleware"
	"bookshelf-backend/internal/shared/response"
	"bookshelf-backend/pkg/container"
)

func SetupRouter(c *container.Container) *gin.Engine {
	router := gin.New()

	// Global middlewares
	router.Use(
		middleware.Recovery(),
		middleware.RequestID(),
		middleware.Logger(),
		middleware.CORS(c.Config.App.ClientURL),
		middleware.BodyLimit(c.Config.App.BodyLimit),
	)

	// Health check, không cần auth
	router.GET("/health", healthCheckHandler)
	router.GET("/ready", readinessHandler(c.HealthChecks()))

	// /auth/google, /auth/google/callback, /auth/logout
	c.AuthHandler.RegisterRoutes(router)

	// ========================================
	// API ROUTES (session required)
	// ========================================
	api := router.Group("/api")
	api.Use(middleware.RequireSession(c.Sessions, c.Config.Session.CookieName))
	{
		c.UserHandler.RegisterRoutes(api)
		c.BookHandler.RegisterRoutes(api)
		c.CatalogHandler.RegisterRoutes(api)
	}

	return router
}

// ========================================
// HEALTH
// ========================================

func healthCheckHandler(c *gin.Context) {
	response.OK(c)
}

// readinessHandler ping song song mọi dependency (store, cache)
// 200 khi tất cả trả lời, ngược lại 503 not_ready
func readinessHandler(checks map[string]container.HealthCheck) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		var mu sync.Mutex
		services := make(map[string]string, len(checks))

		p := pool.New().WithContext(ctx)
		for name, check := range checks {
			p.Go(func(ctx context.Context) error {
				status := "ok"
				err := check(ctx)
				if err != nil {
					status = err.Error()
				}
				mu.Lock()
				services[name] = status
				mu.Unlock()
				return err
			})
		}

		if err := p.Wait(); err != nil {
			response.ErrorWithDetails(c, http.StatusServiceUnavailable, response.CodeNotReady, "Service not ready", services)
			return
		}

		c.JSON(http.StatusOK, gin.H{"ok": true, "services": services})
	}
}
