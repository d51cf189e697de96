// cmd/server/main.go

package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	goredis "github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"twofactor-service/internal/config"
	"twofactor-service/internal/domain"
	"twofactor-service/internal/handler"
	"twofactor-service/internal/mailer"
	"twofactor-service/internal/metrics"
	"twofactor-service/internal/middleware"
	memorystore "twofactor-service/internal/repository/memory"
	redisstore "twofactor-service/internal/repository/redis"
	"twofactor-service/internal/service"
	"twofactor-service/pkg/logger"
	"twofactor-service/pkg/otp"
)

var log *logrus.Logger

func main() {
	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		logrus.Fatal("Failed to load config: ", err)
	}

	// Initialize logger
	logger.InitLogger(&logger.Config{
		Mode:         cfg.Server.Mode,
		ReportCaller: cfg.Server.Mode != "release",
		JSONFormat:   cfg.Server.Mode == "release",
	})
	log = logger.GetLogger()
	log.Info("Starting two-factor challenge service...")

	// Set Gin mode
	gin.SetMode(cfg.Server.Mode)

	// Initialize dependencies
	store := initStore(cfg)
	channel := initMailer(cfg)
	generator := otp.NewGenerator(cfg.OTP.CodeLength)

	challengeService := service.NewChallengeService(generator, store, channel, service.Options{
		Validity:        cfg.Validity(),
		DeliveryTimeout: cfg.DeliveryTimeout(),
		MaxAttempts:     cfg.MaxAttempts(),
	})

	m := metrics.NewMetrics(log)
	challengeHandler := handler.NewChallengeHandler(challengeService, log, m)
	healthHandler := handler.NewHealthHandler(store, cfg.Server.Mode)

	// Initialize router
	router := gin.New()
	router.Use(gin.Recovery())

	mw := middleware.NewMiddleware(cfg)
	router.Use(mw.Logger())
	router.Use(mw.Security())
	router.Use(mw.RateLimit())
	router.Use(mw.Metrics())

	// Start cleanup goroutine for rate limiter
	mw.CleanupLimiters()

	// Register routes
	v1 := router.Group("/v1")
	{
		v1.POST("/challenge", challengeHandler.IssueChallenge)
		v1.POST("/challenge/verify", challengeHandler.VerifyChallenge)
		v1.POST("/notifications", challengeHandler.Notify)
	}
	router.GET("/health", healthHandler.Check)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// Create server
	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.Timeout.Read) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.Timeout.Write) * time.Second,
		IdleTimeout:  time.Duration(cfg.Server.Timeout.Idle) * time.Second,
	}

	// Start server in a goroutine
	go func() {
		log.Info("Server starting on ", server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Failed to start server: ", err)
		}
	}()

	// Log metrics once a minute
	go func() {
		ticker := time.NewTicker(time.Minute)
		defer ticker.Stop()
		for range ticker.C {
			m.LogMetrics()
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down server...")

	// Shutdown with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Fatal("Server forced to shutdown: ", err)
	}

	log.Info("Server exited successfully")
}

func initStore(cfg *config.Config) domain.ChallengeStore {
	if cfg.Store.Backend == "memory" {
		log.Warn("Using in-memory challenge store; records do not survive a restart")
		return memorystore.NewStore(cfg.Grace())
	}

	rdb := goredis.NewClient(&goredis.Options{
		Addr:        fmt.Sprintf("%s:%s", cfg.Redis.Host, cfg.Redis.Port),
		Password:    cfg.Redis.Password,
		DB:          cfg.Redis.DB,
		DialTimeout: time.Duration(cfg.Redis.Timeout) * time.Second,
	})

	// Test connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		log.Error("Failed to connect to Redis: ", err)
	} else {
		log.Info("Successfully connected to Redis")
	}

	return redisstore.NewStore(rdb, cfg.Redis.KeyPrefix, cfg.Grace())
}

func initMailer(cfg *config.Config) domain.DeliveryChannel {
	m, err := mailer.NewMailer(mailer.Config{
		Host:           cfg.SMTP.Host,
		Port:           cfg.SMTP.Port,
		UseImplicitTLS: cfg.SMTP.UseImplicitTLS,
		AuthUser:       cfg.SMTP.AuthUser,
		AuthSecret:     cfg.SMTP.AuthSecret,
		From:           cfg.SMTP.From,
	})
	if err != nil {
		log.Fatal("Failed to configure SMTP transport: ", err)
	}
	return m
}
