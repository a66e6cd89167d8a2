package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/jackc/pgx/v5/pgxpool"

	httpAdapter "github.com/lorrc/sla-sentinel/internal/adapters/primary/http"
	mw "github.com/lorrc/sla-sentinel/internal/adapters/primary/http/middleware"
	kafkaConsumer "github.com/lorrc/sla-sentinel/internal/adapters/primary/kafka"
	"github.com/lorrc/sla-sentinel/internal/adapters/primary/validation"
	"github.com/lorrc/sla-sentinel/internal/adapters/primary/websocket"
	kafkaPublisher "github.com/lorrc/sla-sentinel/internal/adapters/secondary/kafka"
	"github.com/lorrc/sla-sentinel/internal/adapters/secondary/postgres"
	"github.com/lorrc/sla-sentinel/internal/adapters/secondary/predictor"
	"github.com/lorrc/sla-sentinel/internal/auth"
	"github.com/lorrc/sla-sentinel/internal/config"
	"github.com/lorrc/sla-sentinel/internal/core/ports"
	"github.com/lorrc/sla-sentinel/internal/core/services"
	"github.com/lorrc/sla-sentinel/internal/infrastructure/logging"
	"github.com/lorrc/sla-sentinel/internal/scheduler"
)

func main() {
	// 1. Load Configuration
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	// 2. Initialize Structured Logger
	logger := logging.NewLogger(logging.Config{
		Level:       cfg.Logging.Level,
		Format:      cfg.Logging.Format,
		Output:      os.Stdout,
		ServiceName: cfg.App.Name,
		Environment: cfg.App.Environment,
	})

	logger.Info("starting engine",
		"version", cfg.App.Version,
		"environment", cfg.App.Environment,
	)

	// 3. Initialize Database Pool
	ctx := context.Background()
	poolConfig, err := pgxpool.ParseConfig(cfg.Database.URL)
	if err != nil {
		logger.Error("failed to parse database URL", "error", err)
		os.Exit(1)
	}

	poolConfig.MaxConns = int32(cfg.Database.MaxOpenConns)
	poolConfig.MinConns = int32(cfg.Database.MaxIdleConns)
	poolConfig.MaxConnLifetime = cfg.Database.ConnMaxLifetime
	poolConfig.MaxConnIdleTime = cfg.Database.ConnMaxIdleTime

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	if err := pool.Ping(ctx); err != nil {
		logger.Error("database ping failed", "error", err)
		os.Exit(1)
	}
	logger.Info("database connection established")

	// 4. Initialize Security & Real-time Components
	tokenManager := auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)
	hub := websocket.NewHub(logger)
	go hub.Run()

	// 5. Dependency Injection (Wiring the Hexagon)

	// Repositories (Secondary Adapters)
	ticketRepo := postgres.NewTicketRepository(pool)
	riskStateRepo := postgres.NewRiskStateRepository(pool)

	// Secondary predictor: optional, heuristic fallback covers its absence.
	var secondaryPredictor ports.Predictor
	if cfg.Predictor.URL != "" {
		secondaryPredictor = predictor.NewHTTPPredictor(cfg.Predictor.URL, cfg.Predictor.Timeout)
		logger.Info("secondary predictor configured", "url", cfg.Predictor.URL)
	} else {
		logger.Info("no secondary predictor configured, heuristic fallback only")
	}

	// Output events fan out to the message bus and the live stream.
	sinks := []ports.EventPublisher{hub}
	var busPublisher *kafkaPublisher.Publisher
	if cfg.Kafka.Enabled() {
		busPublisher = kafkaPublisher.NewPublisher(cfg.Kafka.Brokers, cfg.Kafka.OutputTopic, logger)
		defer busPublisher.Close()
		sinks = append(sinks, busPublisher)
	}
	publisher := services.NewFanoutPublisher(sinks...)

	// Services (Core)
	dispatcher := services.NewActionDispatcher(publisher, logger)
	impactValidator := services.NewLogImpactValidator(logger)
	evaluationService := services.NewEvaluationService(
		ticketRepo,
		riskStateRepo,
		secondaryPredictor,
		publisher,
		dispatcher,
		impactValidator,
		services.EvaluationConfig{
			Thresholds:       cfg.SLA.Thresholds,
			PredictorTimeout: cfg.Predictor.Timeout,
		},
		logger,
	)
	adjustmentService := services.NewAdjustmentService(riskStateRepo, publisher, logger)
	queryService := services.NewRiskQueryService(riskStateRepo)
	retentionService := services.NewRetentionService(
		riskStateRepo,
		ticketRepo,
		time.Duration(cfg.SLA.RetentionDays)*24*time.Hour,
		logger,
	)

	// Handlers (Primary Adapters)
	validator := validation.NewValidator()
	errorHandler := httpAdapter.NewErrorHandler(logger)
	riskHandler := httpAdapter.NewRiskHandler(evaluationService, adjustmentService, queryService, validator, errorHandler, logger)
	wsHandler := httpAdapter.NewWebSocketHandler(hub, tokenManager, cfg, logger)
	healthHandler := httpAdapter.NewHealthHandler(pool, cfg.App.Version)

	// 6. Background Jobs
	jobs, err := scheduler.New(scheduler.Config{
		SweepSchedule:     cfg.Scheduler.SweepSchedule,
		RetentionSchedule: cfg.Scheduler.RetentionSchedule,
	}, evaluationService, retentionService, logger)
	if err != nil {
		logger.Error("failed to create scheduler", "error", err)
		os.Exit(1)
	}
	jobs.Start()

	// 7. Inbound Event Stream
	consumerCtx, stopConsumer := context.WithCancel(ctx)
	defer stopConsumer()
	consumerDone := make(chan struct{})
	if cfg.Kafka.Enabled() {
		consumer := kafkaConsumer.NewConsumer(kafkaConsumer.ConsumerConfig{
			Brokers: cfg.Kafka.Brokers,
			Topic:   cfg.Kafka.TicketTopic,
			GroupID: cfg.Kafka.ConsumerGroup,
			Workers: cfg.Kafka.Workers,
		}, evaluationService, validator, logger)

		go func() {
			defer close(consumerDone)
			if err := consumer.Run(consumerCtx); err != nil {
				logger.Error("ticket consumer stopped with error", "error", err)
			}
		}()
	} else {
		close(consumerDone)
	}

	// 8. Setup Router
	r := chi.NewRouter()

	// Global middleware
	r.Use(mw.RequestID)
	r.Use(mw.RequestLogger(logger))
	r.Use(mw.RecoveryLogger(logger))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.WebSocket.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	if cfg.RateLimit.Enabled {
		rateLimiter := mw.NewRateLimiter(mw.RateLimiterConfig{
			RequestsPerSecond: cfg.RateLimit.RequestsPerSecond,
			BurstSize:         cfg.RateLimit.BurstSize,
			CleanupInterval:   time.Minute,
			TTL:               3 * time.Minute,
		})
		r.Use(rateLimiter.Middleware)
	}

	// Health check endpoints (outside /api/v1 for standard probe paths)
	r.Get("/health", healthHandler.HandleHealth)
	r.Get("/health/live", healthHandler.HandleLiveness)
	r.Get("/health/ready", healthHandler.HandleReadiness)

	// API routes
	r.Route("/api/v1", func(r chi.Router) {
		// WebSocket route (Authentication is handled inside the handler)
		r.Get("/ws", wsHandler.ServeHTTP)

		// Protected REST routes
		r.Group(func(r chi.Router) {
			r.Use(mw.JWTMiddleware(tokenManager))
			r.Route("/tickets", riskHandler.RegisterRoutes)
		})
	})

	// 9. Start Server with Graceful Shutdown
	srv := &http.Server{
		Addr:         cfg.Server.Port,
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		logger.Info("server starting", "port", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	logger.Info("shutdown signal received", "signal", sig.String())

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	// Stop intake first so in-flight evaluations can finish.
	stopConsumer()
	select {
	case <-consumerDone:
	case <-shutdownCtx.Done():
		logger.Warn("ticket consumer did not stop in time")
	}

	if err := jobs.Stop(shutdownCtx); err != nil {
		logger.Warn("scheduler shutdown incomplete", "error", err)
	}

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown error", "error", err)
		os.Exit(1)
	}

	logger.Info("engine shutdown complete")
}
