// Package main is the entry point for the API server.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/eventosumss/api/internal/api"
	"github.com/eventosumss/api/internal/auth"
	"github.com/eventosumss/api/internal/config"
	"github.com/eventosumss/api/internal/db"
	"github.com/eventosumss/api/internal/event"
	"github.com/eventosumss/api/internal/favorite"
	"github.com/eventosumss/api/internal/health"
	"github.com/eventosumss/api/internal/middleware"
	"github.com/eventosumss/api/internal/topic"
	"github.com/eventosumss/api/internal/tracing"
	"github.com/eventosumss/api/internal/upload"
	"github.com/eventosumss/api/internal/user"
)

const serviceName = "eventos-api"

func main() {
	configPath := flag.String("config", "", "path to optional YAML config file")
	help := flag.Bool("help", false, "display help message")
	flag.Parse()

	if *help {
		fmt.Println("Eventos UMSS API Server")
		fmt.Println()
		fmt.Println("Usage: api [options]")
		fmt.Println()
		fmt.Println("Options:")
		flag.PrintDefaults()
		os.Exit(0)
	}

	cfg, errs := config.Load(*configPath)
	if len(errs) > 0 {
		for _, err := range errs {
			fmt.Fprintln(os.Stderr, "config error:", err)
		}
		os.Exit(1)
	}

	logger := middleware.NewLogger(cfg.Env)
	slog.SetDefault(logger)
	logger.Info("configuration loaded", "summary", cfg.LogSummary())

	ctx := context.Background()

	conn, err := db.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Error("database connection failed", "error", err)
		os.Exit(1)
	}
	defer conn.Close()

	// Tracing is enabled only when an exporter is configured.
	traceProvider, err := tracing.NewProvider(tracing.Config{
		ServiceName:  serviceName,
		Enabled:      cfg.TracingExporter != "",
		Environment:  cfg.Env,
		ExporterType: cfg.TracingExporter,
		OTLPEndpoint: cfg.TracingEndpoint,
		SamplingRate: cfg.TracingSample,
		InsecureMode: cfg.Env != "production",
	})
	if err != nil {
		logger.Error("tracing setup failed", "error", err)
		os.Exit(1)
	}

	var tokens *auth.TokenService
	if cfg.JWTPreviousSecret != "" {
		tokens = auth.NewTokenServiceWithRotation(cfg.JWTSecret, cfg.JWTPreviousSecret)
	} else {
		tokens = auth.NewTokenService(cfg.JWTSecret)
	}

	metrics := middleware.NewMetrics()
	registry := prometheus.NewRegistry()
	if err := metrics.Register(registry); err != nil {
		logger.Error("metrics registration failed", "error", err)
		os.Exit(1)
	}

	checkers := map[string]health.Checker{
		"database": health.NewDBChecker(conn),
	}

	// Redis backs the rate limiter when configured; otherwise limits
	// are per-instance in memory.
	var rateLimitStore middleware.RateLimitStore
	if cfg.RedisAddr != "" {
		redisClient := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
		})
		defer redisClient.Close()

		redisStore := middleware.NewRedisRateLimitStore(redisClient, logger)
		redisStore.OnError(metrics.ObserveRedisError)
		rateLimitStore = redisStore
		checkers["redis"] = health.NewRedisChecker(redisClient)
	} else {
		memStore := middleware.NewInMemoryRateLimitStore()
		rateLimitStore = memStore
		go func() {
			for range time.Tick(5 * time.Minute) {
				memStore.Cleanup()
			}
		}()
	}

	var uploads *upload.Service
	if cfg.UploadsEnabled() {
		uploads, err = upload.NewService(upload.ServiceConfig{
			BucketName:      cfg.R2BucketName,
			AccessKeyID:     cfg.R2AccessKeyID,
			SecretAccessKey: cfg.R2SecretAccessKey,
			Endpoint:        cfg.R2Endpoint,
			PublicBaseURL:   cfg.R2PublicBaseURL,
			MaxSizeMB:       cfg.R2MaxUploadSizeMB,
		})
		if err != nil {
			logger.Error("upload service setup failed", "error", err)
			os.Exit(1)
		}
	} else {
		logger.Warn("object storage not configured, image uploads disabled")
	}

	events := event.NewPostgresRepository(conn, logger)
	locations := event.NewPostgresLocationRepository(conn)
	users := user.NewPostgresRepository(conn, logger)
	favorites := favorite.NewPostgresRepository(conn, logger)
	topics := topic.NewPostgresRepository(conn)

	var uploadHandlers *api.UploadHandlers
	if uploads != nil {
		uploadHandlers = api.NewUploadHandlers(uploads, logger)
	}

	router := api.NewRouter(api.RouterConfig{
		Events:         api.NewEventHandlers(events, locations, uploads, logger),
		Favorites:      api.NewFavoriteHandlers(favorites, logger),
		Auth:           api.NewAuthHandlers(users, topics, tokens, logger),
		Topics:         api.NewTopicHandlers(topics, logger),
		Uploads:        uploadHandlers,
		Health:         api.NewHealthHandlers(checkers, logger),
		Tokens:         tokens,
		RateLimitStore: rateLimitStore,
		GlobalLimit:    middleware.DefaultGlobalLimit(),
		AuthLimit:      middleware.DefaultAuthLimit(),
		MetricsHandler: promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		Logger:         logger,
	})

	// Metrics wraps outside Logging so the logging wrapper is the
	// innermost response writer and handler contexts reach it.
	corsConfig := middleware.DefaultCORSConfig(cfg.CORSOriginList())
	handler := middleware.RequestID(
		middleware.Tracing(serviceName)(
			middleware.HTTPMetrics(metrics)(
				middleware.Logging(logger)(
					middleware.CORS(corsConfig)(router),
				),
			),
		),
	)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("starting server", "port", cfg.Port, "env", cfg.Env)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	if err := traceProvider.Shutdown(shutdownCtx); err != nil {
		logger.Error("tracer shutdown failed", "error", err)
	}

	logger.Info("server stopped")
}
