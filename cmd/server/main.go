package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	httpapi "bookborrow-funnel/internal/api/http"
	"bookborrow-funnel/internal/config"
	"bookborrow-funnel/internal/jobs"
	"bookborrow-funnel/internal/logger"
	"bookborrow-funnel/internal/payment"
	"bookborrow-funnel/internal/repository/rest"
	"bookborrow-funnel/internal/scheduler"
	"bookborrow-funnel/internal/security"
	"bookborrow-funnel/internal/service"
	"bookborrow-funnel/internal/storage"
)

func main() {
	// Parse command-line flags
	configPath := flag.String("config", "config/config.dev.yaml", "Path to configuration file")
	flag.Parse()

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize logger
	logger.Initialize(cfg.Log.Level, cfg.Log.Format)
	logger.Info("Starting bookborrow funnel...", "log_level", cfg.Log.Level, "log_format", cfg.Log.Format)
	logger.Info("Server configuration", "address", cfg.GetServerAddress())
	logger.Info("Backend configuration", "base_url", cfg.Backend.BaseURL, "timeout", cfg.BackendTimeout())
	logger.Info("Hint store configuration", "type", cfg.Hints.Type, "ttl", cfg.HintTTL())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Initialize hint store
	hintStore, closeStore, err := storage.Open(ctx, cfg)
	if err != nil {
		logger.Error("Failed to open hint store", "error", err, "type", cfg.Hints.Type)
		log.Fatalf("Failed to open hint store: %v", err)
	}
	defer closeStore()

	// Initialize remote repositories
	backendHTTP := &http.Client{
		Timeout:   cfg.BackendTimeout(),
		Transport: otelhttp.NewTransport(http.DefaultTransport),
	}
	backend := rest.NewClient(cfg.Backend.BaseURL, backendHTTP, rest.BreakerSettings{
		MaxConsecutiveFailures: cfg.Backend.Breaker.MaxConsecutiveFailures,
		OpenTimeout:            time.Duration(cfg.Backend.Breaker.OpenTimeoutSeconds) * time.Second,
		HalfOpenMaxRequests:    cfg.Backend.Breaker.HalfOpenMaxRequests,
	})
	cartRepo := rest.NewCartRepository(backend)
	catalogRepo := rest.NewCatalogRepository(backend)

	// Initialize payment provider
	stripeHTTP := &http.Client{
		Timeout:   cfg.BackendTimeout(),
		Transport: otelhttp.NewTransport(http.DefaultTransport),
	}
	provider := payment.NewStripeProvider(cfg.Stripe.PublishableKey, cfg.Stripe.APIBaseURL, stripeHTTP)

	// Initialize services
	registry := service.NewCartRegistry(cartRepo, catalogRepo, cfg.Refresh.MaxConcurrentLookups)
	hints := service.NewHintBridge(hintStore, cfg.HintTTL())
	reconciler := service.NewPaymentReconciler(hints, provider)

	// Initialize HTTP handlers
	tokenManager := security.NewTokenManager(cfg.JWT.Secret)
	router := httpapi.NewRouter(
		httpapi.NewAuthMiddleware(tokenManager),
		httpapi.NewCartHandler(registry, catalogRepo),
		httpapi.NewCheckoutHandler(hints, reconciler, cfg.Server.OrdersURL, cfg.Server.CheckoutURL),
	)

	// Expired hints are swept in-process; the memory store is not reachable
	// from the cronjob binary. Idle carts only exist here.
	cronScheduler, err := scheduler.NewScheduler(jobs.NewJobRunner(hintStore, registry, cfg))
	if err != nil {
		log.Fatalf("Failed to initialize scheduler: %v", err)
	}
	cronScheduler.Start()
	defer cronScheduler.Stop()

	srv := &http.Server{
		Addr:              cfg.GetServerAddress(),
		Handler:           httpapi.Instrument(router),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("HTTP server listening", "address", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("HTTP server error", "error", err)
			stop()
		}
	}()

	<-ctx.Done()

	// Graceful shutdown
	logger.Info("Shutting down HTTP server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP server shutdown failed", "error", err)
	}
	logger.Info("Server stopped. Goodbye!")
}
