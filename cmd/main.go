package main

import (
	"context"
	"errors"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"lab-checkout/internal/config"
	"lab-checkout/internal/delivery/http/handler"
	"lab-checkout/internal/domain/user"
	"lab-checkout/internal/events"
	"lab-checkout/internal/infrastructure/database"
	"lab-checkout/internal/infrastructure/mail"
	"lab-checkout/internal/infrastructure/session"
	"lab-checkout/internal/logger"
	"lab-checkout/internal/middleware"
	"lab-checkout/internal/routes"
	"lab-checkout/internal/usecase/backup"
	"lab-checkout/internal/usecase/device"
	userUsecase "lab-checkout/internal/usecase/user"
	"lab-checkout/pkg/mqtt"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const (
	tokenCleanupInterval = time.Hour
	limiterCleanup       = 10 * time.Minute
	mqttConnectTimeout   = 10 * time.Second
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		os.Stderr.WriteString("Failed to load configuration: " + err.Error() + "\n")
		os.Exit(1)
	}

	env := cfg.Server.Environment
	if env == "" {
		env = "development"
	}
	if err := logger.Init(env); err != nil {
		os.Stderr.WriteString("Failed to initialize logger: " + err.Error() + "\n")
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("Starting application",
		zap.String("environment", env),
		zap.String("storage_driver", cfg.Database.Driver),
	)

	if err := cfg.Validate(); err != nil {
		logger.Fatal("Configuration is incomplete", zap.Error(err))
	}

	repos, err := database.Open(cfg)
	if err != nil {
		logger.Fatal("Failed to open storage", zap.Error(err))
	}
	defer func() {
		if err := repos.Close(); err != nil {
			logger.Error("Failed to close storage", zap.Error(err))
		}
	}()

	healthChecks := map[string]handler.HealthCheck{"database": repos.Health}

	var sessions user.SessionStore = repos.Sessions
	if sessions == nil {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer rdb.Close()

		store := session.NewRedisStore(rdb)
		pingCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		err := store.Ping(pingCtx)
		cancel()
		if err != nil {
			logger.Fatal("Failed to connect to redis", zap.String("addr", cfg.Redis.Addr), zap.Error(err))
		}
		sessions = store
		healthChecks["redis"] = store.Ping
	}

	var mailer userUsecase.Mailer = mail.LogMailer{}
	if cfg.SMTP.Host != "" {
		mailer = mail.NewSMTPMailer(cfg.SMTP)
	} else {
		logger.Warn("SMTP_HOST is not set; password reset links are written to the log")
	}

	hub := events.NewHub(cfg.CORS.AllowedOrigins)
	publishers := events.Multi{hub}

	if cfg.MQTT.Broker != "" {
		client := mqtt.NewClient(&mqtt.Config{
			Broker:               cfg.MQTT.Broker,
			ClientID:             cfg.MQTT.ClientID,
			Username:             cfg.MQTT.Username,
			Password:             cfg.MQTT.Password,
			CleanSession:         true,
			KeepAlive:            30 * time.Second,
			ConnectTimeout:       mqttConnectTimeout,
			AutoReconnect:        true,
			MaxReconnectInterval: time.Minute,
			Logger:               logger.Logger,
		})
		connectCtx, cancel := context.WithTimeout(context.Background(), mqttConnectTimeout)
		err := client.Connect(connectCtx)
		cancel()
		if err != nil {
			// The broker is optional; events still reach the websocket hub.
			logger.Warn("MQTT broker unavailable, continuing without it", zap.Error(err))
		} else {
			defer client.Disconnect()
			publishers = append(publishers, events.NewMQTTPublisher(client, cfg.MQTT.TopicPrefix))
		}
	}

	userService := userUsecase.NewService(repos.Users, repos.ResetTokens, sessions, mailer, cfg)
	deps := &routes.Dependencies{
		Users:    userService,
		Resolver: userUsecase.NewResolver(repos.Users),
		Manager:  userUsecase.NewManager(repos.Users, repos.Devices, publishers),
		Devices: device.NewService(
			repos.Devices, repos.Logins, repos.History, repos.Users, publishers,
			cfg.Reservation.MaxReserveDays, cfg.Reservation.RenderedTerms(),
		),
		Backup:         backup.NewService(repos.Devices, repos.Logins, repos.History, repos.Users),
		Hub:            hub,
		HealthChecks:   healthChecks,
		GeneralLimiter: middleware.NewRateLimiter("general", cfg.RateLimit.GeneralRPS, cfg.RateLimit.GeneralBurst),
		AuthLimiter:    middleware.NewRateLimiter("auth", cfg.RateLimit.AuthRPS, cfg.RateLimit.AuthBurst),
	}

	bgCtx, bgCancel := context.WithCancel(context.Background())
	defer bgCancel()
	go userService.StartTokenCleanupJob(bgCtx, tokenCleanupInterval)
	go deps.GeneralLimiter.Cleanup(bgCtx, limiterCleanup)
	go deps.AuthLimiter.Cleanup(bgCtx, limiterCleanup)

	router := routes.SetupRoutes(cfg, deps)

	host := cfg.Server.Host
	if host == "" {
		host = "0.0.0.0"
	}
	port := cfg.Server.Port
	if port == "" {
		port = "8080"
	}
	addr := net.JoinHostPort(host, port)

	server := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("Server starting",
			zap.String("address", addr),
		)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("Shutdown Server ...")

	bgCancel()
	hub.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Error("Failed to shutdown server", zap.Error(err))
	}

	log.Println("Server exited properly")
}
