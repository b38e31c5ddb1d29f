package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/khiva-labs/hotelier/internal/config"
	"github.com/khiva-labs/hotelier/internal/di"
	"github.com/khiva-labs/hotelier/internal/metrics"
	"github.com/khiva-labs/hotelier/internal/middleware"
	"github.com/khiva-labs/hotelier/pkg/database"
	"github.com/khiva-labs/hotelier/pkg/kafka"
	"github.com/khiva-labs/hotelier/pkg/logger"
	pkgredis "github.com/khiva-labs/hotelier/pkg/redis"
	"github.com/khiva-labs/hotelier/pkg/telemetry"
)

func main() {
	runtime.GOMAXPROCS(runtime.NumCPU())

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	if err := logger.Init(&logger.Config{
		Level:       logLevel(cfg),
		ServiceName: cfg.App.Name,
		Development: cfg.IsDevelopment(),
	}); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	appLog := logger.Get()
	appLog.Info(fmt.Sprintf("Starting %s...", cfg.App.Name))

	ctx := context.Background()

	if cfg.OTel.Enabled {
		tel, err := telemetry.Init(ctx, &telemetry.Config{
			Enabled:       true,
			ServiceName:   cfg.OTel.ServiceName,
			CollectorAddr: cfg.OTel.CollectorAddr,
			SampleRatio:   cfg.OTel.SampleRatio,
		})
		if err != nil {
			appLog.Warn(fmt.Sprintf("Telemetry init failed: %v", err))
		} else {
			defer func() {
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				_ = tel.Shutdown(shutdownCtx)
			}()
		}
	}

	var db *database.PostgresDB
	db, err = database.NewPostgres(ctx, &database.PostgresConfig{
		Host:            cfg.Database.Host,
		Port:            cfg.Database.Port,
		User:            cfg.Database.User,
		Password:        cfg.Database.Password,
		Database:        cfg.Database.DBName,
		SSLMode:         cfg.Database.SSLMode,
		MaxConns:        50,
		MinConns:        10,
		MaxConnLifetime: 30 * time.Minute,
		MaxConnIdleTime: 5 * time.Minute,
		ConnectTimeout:  5 * time.Second,
		MaxRetries:      3,
		RetryInterval:   time.Second,
		EnableTracing:   cfg.OTel.Enabled,
	})
	if err != nil {
		appLog.Warn(fmt.Sprintf("Database connection failed: %v", err))
		db = nil
	} else {
		defer db.Close()
		appLog.Info("Database connected")
	}

	var redisClient *pkgredis.Client
	if cfg.Redis.Enabled {
		redisClient, err = pkgredis.NewClient(ctx, &pkgredis.Config{
			Host:     cfg.Redis.Host,
			Port:     cfg.Redis.Port,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err != nil {
			appLog.Warn(fmt.Sprintf("Redis connection failed: %v", err))
			redisClient = nil
		} else {
			defer redisClient.Close()
			appLog.Info("Redis connected")
		}
	}

	var producer *kafka.Producer
	if cfg.Kafka.Enabled {
		producer, err = kafka.NewProducer(ctx, &kafka.ProducerConfig{
			Brokers:  cfg.Kafka.Brokers,
			ClientID: cfg.Kafka.ClientID,
		})
		if err != nil {
			appLog.Warn(fmt.Sprintf("Kafka connection failed: %v", err))
			producer = nil
		} else {
			defer producer.Close()
			appLog.Info("Kafka producer connected")
		}
	}

	m, err := metrics.New()
	if err != nil {
		appLog.Warn(fmt.Sprintf("Metrics init failed: %v", err))
	}

	container := di.NewContainer(&di.ContainerConfig{
		Config:        cfg,
		DB:            db,
		Redis:         redisClient,
		KafkaProducer: producer,
		Metrics:       m,
	})

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	if cfg.OTel.Enabled {
		router.Use(telemetry.TracingMiddleware())
	}

	container.HealthHandler.RegisterRoutes(router)

	// Gateway webhooks authenticate with gateway credentials, not JWT.
	container.PaymeHandler.RegisterRoutes(router.Group("", m.Middleware("payme")))
	container.ClickHandler.RegisterRoutes(router.Group("", m.Middleware("click")))

	api := router.Group("/api/v1", middleware.JWTAuth(cfg.JWT.Secret, cfg.JWT.Issuer))
	container.PaymentHandler.RegisterRoutes(api)

	srv := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:           router,
		ReadTimeout:       cfg.Server.ReadTimeout,
		WriteTimeout:      cfg.Server.WriteTimeout,
		IdleTimeout:       cfg.Server.IdleTimeout,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		appLog.Info(fmt.Sprintf("HTTP server listening on %s", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			appLog.Fatal(fmt.Sprintf("HTTP server failed: %v", err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	appLog.Info("Shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		appLog.Error(fmt.Sprintf("Forced shutdown: %v", err))
	}
	appLog.Info("Server stopped")
}

func logLevel(cfg *config.Config) string {
	if cfg.App.Debug {
		return "debug"
	}
	return "info"
}
