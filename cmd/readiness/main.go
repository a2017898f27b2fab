package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/kanlogic/readiness-engine-go/internal/catalog"
	"github.com/kanlogic/readiness-engine-go/internal/config"
	"github.com/kanlogic/readiness-engine-go/internal/domain"
	"github.com/kanlogic/readiness-engine-go/internal/handler"
	"github.com/kanlogic/readiness-engine-go/internal/infra/cache"
	"github.com/kanlogic/readiness-engine-go/internal/infra/gemini"
	"github.com/kanlogic/readiness-engine-go/internal/infra/meta"
	"github.com/kanlogic/readiness-engine-go/internal/infra/n8n"
	"github.com/kanlogic/readiness-engine-go/internal/infra/observability"
	"github.com/kanlogic/readiness-engine-go/internal/infra/resilience"
	"github.com/kanlogic/readiness-engine-go/internal/infra/secrets"
	"github.com/kanlogic/readiness-engine-go/internal/infra/sqlite"
	"github.com/kanlogic/readiness-engine-go/internal/port"
	"github.com/kanlogic/readiness-engine-go/internal/service"
)

func main() {
	// --- Load .env file (for local development) ---
	_ = config.LoadDotEnv(".env")

	// --- Config ---
	cfg := config.Load()

	// --- Logger ---
	logger := observability.NewLogger(cfg.LogLevel)
	defer logger.Sync()

	logger.Info("configuration loaded",
		zap.Int("port", cfg.Port),
		zap.String("log_level", cfg.LogLevel),
		zap.String("db_path", cfg.DBPath),
		zap.Bool("gemini_configured", cfg.GeminiAPIKey != ""),
		zap.Bool("encryption_configured", cfg.DataEncryptionKey != ""),
		zap.Bool("n8n_configured", cfg.N8NWebhookURL != ""),
		zap.Duration("http_timeout", cfg.HTTPTimeout),
		zap.Duration("cache_ttl", cfg.CacheTTL),
		zap.Int("max_retries", cfg.MaxRetries),
	)

	// --- Tracing ---
	shutdown, err := observability.InitTracer(cfg.OTLPEndpoint, "readiness-engine")
	if err != nil {
		logger.Fatal("failed to init tracer", zap.Error(err))
	}
	defer shutdown(context.Background())

	// --- Metrics ---
	metrics := observability.NewMetrics()

	// --- Storage ---
	store, err := sqlite.Open(cfg.DBPath, logger)
	if err != nil {
		logger.Fatal("failed to open database", zap.Error(err))
	}
	defer store.Close()

	// --- Secrets at rest ---
	secretBox, err := secrets.New(cfg.DataEncryptionKey)
	if err != nil {
		logger.Fatal("invalid data encryption key", zap.Error(err))
	}
	if !secretBox.Configured() {
		logger.Warn("encryption key not set, credential storage disabled")
	}

	// --- Cache ---
	leadCache := cache.New[*domain.Lead](cfg.CacheTTL)
	defer leadCache.Close()

	// --- Resilience ---
	resilienceCfg := resilience.Config{
		MaxRetries:     cfg.MaxRetries,
		InitialBackoff: cfg.InitialBackoff,
		MaxConcurrency: cfg.MaxConcurrency,
	}
	cb := resilience.NewCircuitBreaker("external-apis")

	// --- Clients ---
	httpClient := &http.Client{Timeout: cfg.HTTPTimeout}

	var narrator port.Narrator
	if cfg.GeminiAPIKey != "" {
		geminiClient, err := gemini.NewClient(context.Background(), cfg.GeminiAPIKey, cfg.GeminiModel, cb, resilienceCfg)
		if err != nil {
			logger.Fatal("failed to create gemini client", zap.Error(err))
		}
		narrator = geminiClient
		logger.Info("narrative generation enabled", zap.String("model", cfg.GeminiModel))
	} else {
		logger.Info("narrative generation disabled, using template summaries")
	}

	n8nClient := n8n.NewClient(httpClient, cfg.N8NWebhookURL, cfg.N8NAPIURL, cfg.N8NAPIKey, cb, resilienceCfg)
	metaValidator := meta.NewValidator(httpClient, "")

	// --- Services ---
	cat := catalog.New()
	narrativeSvc := service.NewNarrativeService(narrator, cfg.GeminiTimeout, metrics, logger)
	diagnosisSvc := service.NewDiagnosisService(cat, narrativeSvc, store, metrics, logger)
	projectSvc := service.NewProjectService(store, secretBox, n8nClient, metaValidator, cat, metrics, logger)
	portalSvc := service.NewPortalService(store, leadCache, cfg.JWTSecret, cfg.JWTAccessTTL, metrics, logger)
	paymentLinks := service.NewPaymentLinks(cfg.PaymentURLCard, cfg.PaymentURLTransfer, cfg.PaymentURLDefault)

	// --- Router ---
	router := handler.NewRouter(handler.Services{
		Diagnosis: diagnosisSvc,
		Projects:  projectSvc,
		Portal:    portalSvc,
		Payments:  paymentLinks,
		Health:    store,
	}, metrics, logger)

	// --- Server ---
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// --- Graceful shutdown ---
	go func() {
		logger.Info("server starting", zap.Int("port", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("server shutting down...")
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Fatal("server forced shutdown", zap.Error(err))
	}

	logger.Info("server stopped")
}
