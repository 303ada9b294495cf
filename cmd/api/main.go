package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/webfolio/webfolio-api/config"
	"github.com/webfolio/webfolio-api/internal/database/postgres"
	"github.com/webfolio/webfolio-api/internal/handlers"
	"github.com/webfolio/webfolio-api/internal/kvstore"
	"github.com/webfolio/webfolio-api/internal/middleware"
	"github.com/webfolio/webfolio-api/internal/ratelimit"
	"github.com/webfolio/webfolio-api/internal/services"
	"github.com/webfolio/webfolio-api/pkg/db"
	"github.com/webfolio/webfolio-api/pkg/httpclient"
	"github.com/webfolio/webfolio-api/pkg/logger"
	"github.com/webfolio/webfolio-api/pkg/mailer"
	"github.com/webfolio/webfolio-api/pkg/metrics"
	"github.com/webfolio/webfolio-api/pkg/profiling"
	"github.com/webfolio/webfolio-api/pkg/retry"
	"github.com/webfolio/webfolio-api/pkg/tracing"
	"github.com/webfolio/webfolio-api/pkg/turnstile"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.uber.org/zap"
)

// newStore selects the counter store backend: Redis when an address is
// configured (shared across replicas), in-process memory otherwise.
func newStore(cfg *config.Config) (kvstore.Store, func(), error) {
	if cfg.Redis.Addr == "" {
		logger.Info("Using in-memory counter store (REDIS_ADDR not set)")
		return kvstore.NewMemoryStore(), func() {}, nil
	}

	store := kvstore.NewRedisStore(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
	err := retry.Do(context.Background(), retry.StartupConfig(), "redis ping", func() error {
		return store.Ping(context.Background())
	})
	if err != nil {
		_ = store.Close()
		return nil, nil, fmt.Errorf("redis unreachable at %s: %w", cfg.Redis.Addr, err)
	}

	logger.Info("Using Redis counter store", zap.String("addr", cfg.Redis.Addr))
	closeFn := func() {
		if closeErr := store.Close(); closeErr != nil {
			logger.Error("Failed to close Redis connection", zap.Error(closeErr))
		}
	}
	return store, closeFn, nil
}

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	err = logger.Initialize(logger.Config{
		Level:       cfg.Logging.Level,
		LogDir:      cfg.Logging.Dir,
		Environment: cfg.Server.AppEnv,
		ServiceName: cfg.Observability.ServiceName,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("Starting Webfolio API",
		zap.String("version", cfg.Observability.ServiceVersion),
		zap.String("environment", cfg.Server.AppEnv),
	)

	// Initialize distributed tracing
	tracerShutdown, err := tracing.InitTracer(
		cfg.Observability.ServiceName,
		cfg.Observability.ServiceNamespace,
		cfg.Observability.ServiceVersion,
		cfg.Observability.ServiceInstanceID,
		cfg.Server.AppEnv,
		cfg.Observability.CollectorEndpoint,
	)
	if err != nil {
		logger.Fatal("Failed to initialize tracer", zap.Error(err))
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if shutdownErr := tracerShutdown(ctx); shutdownErr != nil {
			logger.Error("Failed to shutdown tracer", zap.Error(shutdownErr))
		}
	}()

	// Initialize continuous profiling (no-op unless enabled)
	profilerStop, err := profiling.InitProfiler(
		cfg.Profiling,
		cfg.Observability.ServiceName,
		cfg.Observability.ServiceNamespace,
		cfg.Observability.ServiceVersion,
		cfg.Observability.ServiceInstanceID,
		cfg.Server.AppEnv,
	)
	if err != nil {
		logger.Error("Failed to initialize profiler", zap.Error(err))
	} else {
		defer profilerStop()
	}

	// Initialize metrics
	metrics.Init()
	metrics.RecordInfrastructureMetrics()

	// Counter store backs both the rate limiter and the CSRF token service
	store, closeStore, err := newStore(cfg)
	if err != nil {
		logger.Fatal("Failed to initialize counter store", zap.Error(err))
	}
	defer closeStore()

	// Submission archive is optional: without DATABASE_URL accepted
	// submissions are delivered but not persisted
	var archive services.SubmissionArchive
	if cfg.Database.URL != "" {
		pool, poolErr := db.NewPool(context.Background(), db.PoolConfig{
			URL:      cfg.Database.URL,
			MaxConns: cfg.Database.MaxConns,
			MinConns: cfg.Database.MinConns,
		})
		if poolErr != nil {
			logger.Fatal("Failed to initialize database connection pool", zap.Error(poolErr))
		}
		defer pool.Close()
		archive = postgres.NewSubmissionRepository(pool)
	} else {
		logger.Warn("Submission archive disabled: DATABASE_URL not configured")
	}

	// Initialize HTTP client for external API calls
	httpClient := httpclient.NewStandardClient()

	// Initialize services
	botVerifier := turnstile.NewVerifier(cfg.Turnstile.SecretKey, cfg.Turnstile.ScoreThreshold, httpClient)
	if botVerifier.Bypassed() {
		logger.Warn("Bot verification is BYPASSED (TURNSTILE_SCORE_THRESHOLD=0) - do not run like this in production")
	}
	sender := mailer.NewClient(cfg.Email.ResendAPIKey, cfg.Email.Enabled, httpClient)
	if !sender.Enabled() {
		logger.Warn("Email delivery is DISABLED - submissions will receive mock delivery ids")
	}
	csrfService := services.NewCsrfService(store, cfg.Csrf.TokenTTL)
	limiter := ratelimit.New(store, cfg.RateLimit.FailOpen)
	contactService := services.NewContactService(cfg, csrfService, botVerifier, limiter, archive, sender)

	// Register request validators before the router binds any payloads
	if err := handlers.RegisterValidators(cfg.Contact.MessageMinLength); err != nil {
		logger.Fatal("Failed to register validators", zap.Error(err))
	}

	// Initialize handlers
	contactHandler := handlers.NewContactHandler(contactService)
	csrfHandler := handlers.NewCsrfHandler(csrfService)
	configHandler := handlers.NewConfigHandler(cfg)
	healthHandler := handlers.NewHealthHandler(func() bool {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		return store.Ping(ctx) == nil
	})

	// Set up Gin router
	gin.SetMode(cfg.Server.GinMode)
	router := gin.New()

	// Global middleware
	router.Use(gin.Recovery())
	router.Use(otelgin.Middleware(cfg.Observability.ServiceName))
	router.Use(middleware.ObservabilityMiddleware())
	router.Use(middleware.SecurityHeadersMiddleware())

	// CORS configuration - only allow specific origins
	allowedOrigins := cfg.Server.AllowedOrigins
	if cfg.IsDevelopment() {
		allowedOrigins = append(allowedOrigins, "http://localhost:3000", "http://127.0.0.1:3000")
	}

	router.Use(cors.New(cors.Config{
		AllowOrigins:     allowedOrigins,
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "X-CSRF-Token", "traceparent", "tracestate"},
		ExposeHeaders:    []string{"Content-Length", "Retry-After"},
		AllowCredentials: false,
		MaxAge:           12 * time.Hour,
	}))

	// Edge rate limiters shed floods before the quota pipeline runs;
	// the per-IP and global submission quotas live in the service layer
	generalRateLimiter := middleware.NewRateLimiter(100, 200) // 100 req/sec, burst of 200
	contactRateLimiter := middleware.NewRateLimiter(5, 10)    // 5 req/sec, burst of 10

	// API routes
	api := router.Group("/api")
	api.GET("/healthcheck", generalRateLimiter.Middleware(), healthHandler.Healthcheck)
	api.GET("/metrics", generalRateLimiter.Middleware(), gin.WrapH(promhttp.HandlerFor(metrics.Registry, promhttp.HandlerOpts{})))
	api.GET("/config-check", generalRateLimiter.Middleware(), configHandler.ConfigCheck)
	api.GET("/csrf-token", contactRateLimiter.Middleware(), csrfHandler.IssueToken)
	api.POST("/contact", contactRateLimiter.Middleware(), middleware.BodySizeLimitMiddleware(100*1024), contactHandler.SubmitContact)

	// Create HTTP server
	srv := &http.Server{
		Addr:              "0.0.0.0:" + cfg.Server.Port,
		Handler:           router,
		ReadHeaderTimeout: 15 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
		MaxHeaderBytes:    1 << 20,
	}

	// Start server in a goroutine
	go func() {
		logger.Info("Server started", zap.String("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Server failed to start", zap.Error(err))
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Fatal("Server forced to shutdown", zap.Error(err))
	}

	logger.Info("Server exited")
}
