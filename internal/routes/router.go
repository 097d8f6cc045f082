package routes

import (
	"lab-checkout/internal/config"
	"lab-checkout/internal/delivery/http/handler"
	"lab-checkout/internal/events"
	"lab-checkout/internal/logger"
	"lab-checkout/internal/middleware"
	"lab-checkout/internal/usecase/backup"
	"lab-checkout/internal/usecase/device"
	"lab-checkout/internal/usecase/user"

	"github.com/gin-gonic/gin"
)

// Dependencies are the services and shared components the routes serve.
type Dependencies struct {
	Users    *user.Service
	Resolver *user.Resolver
	Manager  *user.Manager
	Devices  *device.Service
	Backup   *backup.Service
	Hub      *events.Hub

	HealthChecks   map[string]handler.HealthCheck
	GeneralLimiter *middleware.RateLimiter
	AuthLimiter    *middleware.RateLimiter
}

func SetupRoutes(cfg *config.Config, deps *Dependencies) *gin.Engine {
	if cfg.Server.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	// Add middleware in order: recovery, request ID, logging, security headers, CORS, request size limit, general rate limit, identity
	router.Use(gin.Recovery())
	router.Use(middleware.RequestIDMiddleware())
	router.Use(middleware.LoggingMiddleware())
	router.Use(middleware.SecurityHeadersMiddleware())
	router.Use(middleware.CORSMiddleware(&cfg.CORS))
	router.Use(middleware.RequestSizeLimitMiddleware(middleware.DefaultMaxRequestSize))
	router.Use(deps.GeneralLimiter.Middleware())
	router.Use(middleware.IdentityMiddleware(deps.Users, deps.Resolver, cfg.Session.CookieName))

	homeHandler := handler.NewHomeHandler(deps.HealthChecks)
	router.GET("/health", homeHandler.Health)

	authHandler := handler.NewAuthHandler(deps.Users, cfg.Session)
	userHandler := handler.NewUserHandler(deps.Users, deps.Manager)
	computerHandler := handler.NewComputerHandler(deps.Devices)
	backupHandler := handler.NewBackupHandler(deps.Backup)
	eventsHandler := handler.NewEventsHandler(deps.Hub)

	v1 := router.Group("/api/v1")
	{
		homeHandler.RegisterRoutes(v1)

		credentials := v1.Group("")
		credentials.Use(deps.AuthLimiter.Middleware())
		{
			authHandler.RegisterRoutes(credentials)
		}
		authHandler.RegisterSessionRoutes(v1)

		userHandler.RegisterRoutes(v1)
		computerHandler.RegisterRoutes(v1)
		backupHandler.RegisterRoutes(v1)
		eventsHandler.RegisterRoutes(v1)
	}

	logger.Info("All routes initialized")
	return router
}
