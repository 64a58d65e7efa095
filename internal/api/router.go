package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/salzundsand/server/internal/config"
	apperrors "github.com/salzundsand/server/internal/errors"
	"github.com/salzundsand/server/internal/middleware"
	"github.com/salzundsand/server/internal/repository"
	"github.com/salzundsand/server/internal/service"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Router assembles the HTTP surface.
type Router struct {
	engine         *gin.Engine
	db             *gorm.DB
	services       *service.Services
	authHandler    *AuthHandler
	gameHandler    *GameHandler
	worldHandler   *WorldHandler
	authMiddleware *middleware.AuthMiddleware
	limiters       *middleware.RateLimiters
	log            *zap.Logger
}

// NewRouter wires handlers, middleware, and routes.
func NewRouter(db *gorm.DB, cfg *config.Config, services *service.Services, log *zap.Logger) *Router {
	if cfg.Server.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(middleware.RequestID())
	engine.Use(middleware.Logger())

	r := &Router{
		engine:         engine,
		db:             db,
		services:       services,
		authHandler:    NewAuthHandler(services.Auth),
		gameHandler:    NewGameHandler(services.Engine, repository.NewWorldRepository(db)),
		worldHandler:   NewWorldHandler(services.World),
		authMiddleware: middleware.NewAuthMiddleware(service.JWTManagerFromConfig(cfg)),
		limiters:       middleware.NewRateLimiters(cfg.Security.RateLimit),
		log:            log,
	}

	r.setupRoutes(cfg.Security.RateLimit.Enabled)

	return r
}

// Engine exposes the underlying gin engine for the HTTP server.
func (r *Router) Engine() *gin.Engine {
	return r.engine
}

func (r *Router) setupRoutes(rateLimits bool) {
	r.engine.GET("/health", r.healthCheck)

	registerSwaggerRoutes(r.engine)

	v1 := r.engine.Group("/api/v1")
	if rateLimits {
		v1.Use(r.limiters.General.Middleware())
	}
	{
		auth := v1.Group("/auth")
		{
			credentials := auth.Group("")
			if rateLimits {
				credentials.Use(r.limiters.Login.Middleware())
			}
			credentials.POST("/register", r.authHandler.Register)
			credentials.POST("/login", r.authHandler.Login)

			auth.POST("/refresh", r.authHandler.Refresh)

			authed := auth.Group("")
			authed.Use(r.authMiddleware.RequireAuth())
			{
				authed.POST("/logout", r.authHandler.Logout)
				authed.GET("/me", r.authHandler.Me)
			}
		}

		worlds := v1.Group("/worlds")
		{
			worlds.GET("", r.worldHandler.List)
			worlds.GET("/:id", r.worldHandler.Get)
		}

		gameGroup := v1.Group("/game")
		gameGroup.Use(r.authMiddleware.RequireAuth())
		{
			gameGroup.GET("/data", r.gameHandler.Data)
			gameGroup.POST("/join", r.gameHandler.Join)

			action := gameGroup.Group("")
			if rateLimits {
				action.Use(r.limiters.Strict.Middleware())
			}
			action.POST("/action", r.gameHandler.Action)
		}

		admin := v1.Group("/admin")
		admin.Use(r.authMiddleware.RequireRole("admin"))
		if rateLimits {
			admin.Use(r.limiters.Strict.Middleware())
		}
		{
			admin.GET("/worlds", r.worldHandler.ListAll)
			admin.POST("/worlds", r.worldHandler.Create)
			admin.PUT("/worlds/:id", r.worldHandler.Update)
			admin.DELETE("/worlds/:id", r.worldHandler.Delete)
		}
	}

	r.engine.NoRoute(func(c *gin.Context) {
		respondError(c, apperrors.New(apperrors.ErrNotFound, "no such endpoint"))
	})
}

// healthCheck reports process and database health.
func (r *Router) healthCheck(c *gin.Context) {
	status := http.StatusOK
	dbState := "up"

	sqlDB, err := r.db.DB()
	if err != nil || sqlDB.Ping() != nil {
		status = http.StatusServiceUnavailable
		dbState = "down"
	}

	c.JSON(status, gin.H{
		"status":    dbState,
		"timestamp": time.Now().Unix(),
	})
}
