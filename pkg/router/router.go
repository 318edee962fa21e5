// Package router assembles the gin engine: middleware stack, API routes and
// the board session websocket.
package router

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"github.com/andreaspandu8619/mastercreator/internal/api"
	"github.com/andreaspandu8619/mastercreator/internal/ws"
	"github.com/andreaspandu8619/mastercreator/pkg/config"
	"github.com/andreaspandu8619/mastercreator/pkg/di"
	"github.com/andreaspandu8619/mastercreator/pkg/errors"
	"github.com/andreaspandu8619/mastercreator/pkg/logger"
	"github.com/andreaspandu8619/mastercreator/pkg/middleware"
)

// Track server start time for uptime reporting
var startTime = time.Now()

// Router is the main router for the application
type Router struct {
	Engine    *gin.Engine
	Container *di.Container
	Logger    *logger.Logger
	Config    *config.Config
}

// New creates a new router over the given container
func New(container *di.Container) *Router {
	logger.SetGlobal(container.Logger)
	cfg := config.Get()

	if cfg.Server.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	engine := gin.New()

	// Logger middleware first, so every request gets a scoped logger
	engine.Use(middleware.RequestIDMiddleware())
	engine.Use(logger.Middleware(container.Logger))
	engine.Use(errors.ErrorHandler())
	engine.Use(errors.RecoveryWithLogger())

	return &Router{
		Engine:    engine,
		Container: container,
		Logger:    container.Logger,
		Config:    cfg,
	}
}

// SetupRoutes registers all application routes
func (r *Router) SetupRoutes() {
	r.Engine.Use(corsMiddleware())

	charHandler := api.NewCharacterHandler(
		r.Container.Library,
		r.Container.Stories,
		r.Container.Generator,
		r.Container.Renderer,
		r.Config.Features.MaxImportBytes,
	)
	storyHandler := api.NewStoryHandler(r.Container.Stories, r.Container.Library, r.Container.Renderer)
	boardHandler := ws.NewHandler(r.Container.Stories, r.Logger)

	// Generation calls proxy to a paid upstream; they get a stricter
	// limiter than the rest of the API.
	generationLimiter := middleware.NewRateLimiter(r.Logger, middleware.RateLimiterOptions{
		Limit:          rate.Limit(r.Config.Security.RateLimit),
		Burst:          r.Config.Security.RateLimitBurst,
		ExpiryDuration: time.Hour,
		KeyFunc:        func(c *gin.Context) string { return c.ClientIP() },
	})

	apiRoutes := r.Engine.Group("/api")
	{
		apiRoutes.GET("/health", r.healthHandler())

		characters := apiRoutes.Group("/characters")
		{
			characters.GET("", charHandler.List)
			characters.POST("", charHandler.Save)
			characters.POST("/import", charHandler.Import)
			characters.GET("/export", charHandler.ExportAll)
			characters.POST("/generate", generationLimiter.Middleware(), charHandler.GenerateDraft)
			characters.GET("/:id", charHandler.Get)
			characters.PUT("/:id", charHandler.Update)
			characters.DELETE("/:id", charHandler.Delete)
			characters.GET("/:id/export", charHandler.Export)
			characters.POST("/:id/intros", charHandler.AddIntro)
			characters.POST("/:id/intros/select", charHandler.SelectIntro)
			characters.POST("/:id/intros/advance", charHandler.AdvanceIntro)
			characters.POST("/:id/generate", generationLimiter.Middleware(), charHandler.Generate)
		}

		stories := apiRoutes.Group("/stories")
		{
			stories.GET("", storyHandler.List)
			stories.POST("", storyHandler.Save)
			stories.GET("/export", storyHandler.ExportAll)
			stories.GET("/:id", storyHandler.Get)
			stories.PUT("/:id", storyHandler.Update)
			stories.DELETE("/:id", storyHandler.Delete)
			stories.GET("/:id/export", storyHandler.Export)
			stories.POST("/:id/cast", storyHandler.AddCast)
			stories.DELETE("/:id/cast/:characterId", storyHandler.RemoveCast)
			stories.PUT("/:id/board/:characterId", storyHandler.PlaceNode)
			stories.DELETE("/:id/board/:characterId", storyHandler.DetachCharacter)
			stories.POST("/:id/relationships", storyHandler.AddRelationship)
			stories.PUT("/:id/relationships/:relId", storyHandler.UpdateRelationship)
			stories.DELETE("/:id/relationships/:relId", storyHandler.DeleteRelationship)
		}
	}

	// Board session websocket
	r.Engine.GET("/ws/stories/:id/board", boardHandler.Serve)
}

// healthHandler reports component status plus the degraded-mode banner state
// the client shows.
func (r *Router) healthHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		status := http.StatusOK
		if !r.Container.Health.IsSystemHealthy() {
			status = http.StatusServiceUnavailable
		}

		banner := ""
		if r.Container.Degraded {
			banner = "storage is unavailable, changes will not survive a restart"
		} else if note := r.Container.Library.StorageNote(); note != "" {
			banner = note
		} else if note := r.Container.Stories.StorageNote(); note != "" {
			banner = note
		}

		c.JSON(status, gin.H{
			"status":     statusWord(status),
			"degraded":   r.Container.Degraded,
			"banner":     banner,
			"components": r.Container.Health.GetStatus(),
			"uptime":     time.Since(startTime).Round(time.Second).String(),
			"time":       time.Now().Format(time.RFC3339),
		})
	}
}

func statusWord(status int) string {
	if status == http.StatusOK {
		return "ok"
	}
	return "unavailable"
}

// corsMiddleware allows the local editor frontend, including the headers a
// websocket upgrade needs.
func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		origin := c.Request.Header.Get("Origin")
		if origin == "" {
			origin = "*"
		}
		c.Writer.Header().Set("Access-Control-Allow-Origin", origin)
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept, Accept-Encoding, Origin, Upgrade, Connection, Cache-Control")
		c.Writer.Header().Set("Access-Control-Expose-Headers", "Upgrade, Connection")
		c.Writer.Header().Set("Access-Control-Max-Age", "86400")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	}
}
