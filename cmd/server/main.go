package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/tonemirror/tonemirror/internal"
	"github.com/tonemirror/tonemirror/internal/billing"
	"github.com/tonemirror/tonemirror/internal/handler"
	"github.com/tonemirror/tonemirror/internal/metrics"
	"github.com/tonemirror/tonemirror/internal/middleware"
	"github.com/tonemirror/tonemirror/internal/nlp"
	"github.com/tonemirror/tonemirror/internal/nlp/huggingface"
	"github.com/tonemirror/tonemirror/internal/repository"
	"github.com/tonemirror/tonemirror/internal/service"
	"github.com/tonemirror/tonemirror/internal/storage"
)

func run() error {
	ctx := context.Background()

	// Load configuration
	cfg, err := internal.NewConfig()
	if err != nil {
		return fmt.Errorf("config initialization failed: %w", err)
	}

	// Configure logger
	logger := internal.NewLogger(os.Stdout, cfg.Env, cfg.LogLevel)

	// Initialize database connection
	db, err := sql.Open("pgx", cfg.DatabaseUrl)
	if err != nil {
		return fmt.Errorf("database connection failed: %w", err)
	}
	defer db.Close()

	if err := db.PingContext(ctx); err != nil {
		return fmt.Errorf("database ping failed: %w", err)
	}

	// Run migrations
	if err := internal.RunMigrations(db); err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}
	logger.Info("Database ready")

	// Initialize repository
	repo := repository.New(db)

	// Initialize object storage for analysis exports
	store, err := newStorage(cfg, logger)
	if err != nil {
		return fmt.Errorf("storage initialization failed: %w", err)
	}

	// Initialize the NLP provider. Without an API key the server runs in
	// demo mode and serves canned payloads.
	var provider nlp.Provider
	if cfg.HuggingFaceAPIKey != "" {
		hf, err := huggingface.New(huggingface.Config{
			Token:          cfg.HuggingFaceAPIKey,
			SentimentModel: cfg.SentimentModel,
			IntentModel:    cfg.IntentModel,
			RequestTimeout: cfg.InferenceTimeout,
		}, logger)
		if err != nil {
			return fmt.Errorf("nlp provider initialization failed: %w", err)
		}
		provider = hf
		logger.Info("NLP provider ready", "provider", hf.Name())
	} else {
		logger.Warn("HUGGINGFACE_API_KEY not set, serving demo payloads")
	}

	// Initialize billing. Nil when Stripe is not configured; the billing
	// endpoints then report that instead of failing startup.
	var billingService billing.Service
	if cfg.StripeSecretKey != "" {
		billingService = billing.NewStripeService(cfg.StripeSecretKey, cfg.StripeWebhookSecret, billing.PriceConfig{
			ProMonthlyPriceID: cfg.StripeProMonthlyPriceID,
			ProYearlyPriceID:  cfg.StripeProYearlyPriceID,
			EnterprisePriceID: cfg.StripeEnterprisePriceID,
		})
		logger.Info("Billing ready")
	} else {
		logger.Warn("STRIPE_SECRET_KEY not set, billing is disabled")
	}

	// Initialize services
	userService := service.NewUserService(repo, logger)
	usageService := service.NewUsageService(repo, logger)
	apiKeyService := service.NewAPIKeyService(repo, logger)
	analysisService := service.NewAnalysisService(provider, usageService, logger)
	exportService := service.NewExportService(repo, store, usageService, logger)

	// Initialize middleware
	isSecure := cfg.Env != "development"
	authMw := middleware.NewAuthMiddleware(userService, apiKeyService, logger)
	loggingMw := middleware.NewRequestLoggingMiddleware(logger)
	securityMw := middleware.NewSecurityHeadersMiddleware(isSecure)
	metricsAuthMw := middleware.NewMetricsAuthMiddleware(cfg.MetricsUsername, cfg.MetricsPassword)

	// Initialize handlers
	analyzeHandler := handler.NewAnalyzeHandler(analysisService, logger)
	authHandler := handler.NewAuthHandler(userService, logger, isSecure)
	usageHandler := handler.NewUsageHandler(usageService, logger)
	historyHandler := handler.NewHistoryHandler(usageService, exportService, logger)
	apiKeyHandler := handler.NewAPIKeyHandler(apiKeyService, logger)
	billingHandler := handler.NewBillingHandler(billingService, usageService, logger)
	webhookHandler := handler.NewWebhookHandler(billingService, usageService, logger)

	// ==========================================================================
	// Create router and register routes
	// ==========================================================================

	mux := http.NewServeMux()

	// Health check
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	// Metrics (basic auth)
	mux.Handle("GET /metrics", metricsAuthMw.Handler(promhttp.Handler()))

	// Local storage serves export files directly in development.
	if _, ok := store.(*storage.LocalStorage); ok {
		fileFS := http.FileServer(http.Dir(cfg.LocalStoragePath))
		mux.Handle("GET /files/", http.StripPrefix("/files/", fileFS))
	}

	// WithUser runs globally in the outer stack, so protected routes only
	// need the guard.
	requireUser := authMw.RequireUser

	analyzeHandler.RegisterRoutes(mux)
	authHandler.RegisterRoutes(mux, requireUser)
	usageHandler.RegisterRoutes(mux, requireUser)
	historyHandler.RegisterRoutes(mux, requireUser)
	apiKeyHandler.RegisterRoutes(mux, requireUser)
	billingHandler.RegisterRoutes(mux, requireUser)
	webhookHandler.RegisterRoutes(mux)

	// Outer middleware: user resolution is optional on public routes, so
	// WithUser wraps everything and RequireUser guards per route.
	stack := middleware.Stack(
		securityMw.Handler,
		loggingMw.Handler,
		metrics.Middleware,
		authMw.WithUser,
	)

	// ==========================================================================
	// Start server
	// ==========================================================================

	server := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Port),
		Handler: stack(mux),
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		logger.Info("Server started", "address", server.Addr, "env", cfg.Env)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("Server failed", "error", err)
		}
	}()

	// Expired sessions are cleaned up periodically while the server runs.
	cleanupCtx, cancelCleanup := context.WithCancel(ctx)
	defer cancelCleanup()
	go sessionCleanupLoop(cleanupCtx, userService, logger)

	<-sigChan
	logger.Info("Shutdown signal received, initiating graceful shutdown...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server shutdown error", "error", err)
	}

	logger.Info("Graceful shutdown complete")
	return nil
}

// newStorage builds the configured storage backend.
func newStorage(cfg *internal.Config, logger *slog.Logger) (storage.Storage, error) {
	switch cfg.StorageProvider {
	case "r2":
		return storage.NewR2Storage(storage.R2Config{
			AccountID:       cfg.R2AccountID,
			AccessKeyID:     cfg.R2AccessKeyID,
			SecretAccessKey: cfg.R2SecretAccessKey,
			BucketName:      cfg.R2BucketName,
			PublicURL:       cfg.R2PublicURL,
		}, logger)
	default:
		return storage.NewLocalStorage(storage.LocalConfig{
			BasePath: cfg.LocalStoragePath,
			BaseURL:  cfg.LocalStorageURL,
		}, logger)
	}
}

// sessionCleanupLoop deletes expired sessions hourly.
func sessionCleanupLoop(ctx context.Context, users service.UserService, logger *slog.Logger) {
	ticker := time.NewTicker(1 * time.Hour)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := users.DeleteExpiredSessions(ctx); err != nil {
				logger.Warn("session cleanup failed", "error", err)
			}
		}
	}
}

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}
