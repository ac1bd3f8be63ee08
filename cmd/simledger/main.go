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

	"github.com/efreitasn/simledger/internal/config"
	"github.com/efreitasn/simledger/internal/handler"
	"github.com/efreitasn/simledger/internal/persist"
	"github.com/efreitasn/simledger/internal/quote"
	"github.com/efreitasn/simledger/internal/service"
	"github.com/efreitasn/simledger/internal/store"
	"github.com/efreitasn/simledger/internal/stream"
)

func main() {
	healthcheck := flag.Bool("healthcheck", false, "Run health check against running server")
	flag.Parse()

	// Handle -healthcheck flag: HTTP GET to localhost:PORT/healthz, exit 0/1.
	if *healthcheck {
		port := os.Getenv("PORT")
		if port == "" {
			port = "8080"
		}
		resp, err := http.Get(fmt.Sprintf("http://localhost:%s/healthz", port))
		if err != nil || resp.StatusCode != http.StatusOK {
			os.Exit(1)
		}
		os.Exit(0)
	}

	// Load configuration.
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Set up slog logger with configured level.
	var logLevel slog.Level
	switch cfg.LogLevel {
	case "debug":
		logLevel = slog.LevelDebug
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	}))
	slog.SetDefault(logger)

	// Instantiate stores.
	accountStore := store.NewAccountStore()
	webhookStore := store.NewWebhookStore()
	stateStore, err := store.OpenStateStore(cfg.StatePath)
	if err != nil {
		logger.Error("failed to open state store", slog.String("path", cfg.StatePath), slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer stateStore.Close()

	// Quote provider.
	provider := newProvider(cfg)
	quotes := quote.NewCached(provider, cfg.QuoteCacheTTL)
	names := quote.NewNames(provider)
	logger.Info("quote provider ready", slog.String("provider", cfg.QuoteProvider))

	// Event fan-out.
	hub := stream.NewHub(logger)

	// Services (webhook first, it dispatches for the others).
	webhookSvc := service.NewWebhookService(webhookStore, accountStore, cfg.WebhookTimeout, logger)
	accountSvc := service.NewAccountService(accountStore, webhookStore, hub, webhookSvc, cfg.DefaultInitialCapital, logger)
	tradeSvc := service.NewTradeService(accountStore, quotes, names, hub, webhookSvc, cfg.QuoteTimeout, logger)

	// Restore persisted accounts, creating the first simulation on a fresh
	// state file.
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	flusher := persist.NewFlusher(cfg.FlushInterval, accountStore, stateStore, logger)
	restored, err := flusher.Load(ctx)
	if err != nil {
		logger.Error("failed to load state", slog.String("error", err.Error()))
		os.Exit(1)
	}
	acct, created, err := accountSvc.Bootstrap()
	if err != nil {
		logger.Error("failed to bootstrap accounts", slog.String("error", err.Error()))
		os.Exit(1)
	}
	if created {
		if err := flusher.Flush(ctx); err != nil {
			logger.Error("failed to flush state", slog.String("error", err.Error()))
		}
	}
	logger.Info("accounts ready",
		slog.Bool("restored", restored),
		slog.Int("accounts", accountStore.Len()),
		slog.String("active_account_id", acct.ID),
	)

	// Start periodic flushing.
	flusher.Start(ctx)

	// Router.
	router := handler.NewRouter(accountSvc, tradeSvc, webhookSvc, hub, logger)

	// Configure HTTP server.
	addr := fmt.Sprintf(":%d", cfg.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}

	// Start HTTP server in a goroutine.
	go func() {
		logger.Info("server starting", slog.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", slog.String("error", err.Error()))
			os.Exit(1)
		}
	}()

	// Wait for SIGINT/SIGTERM.
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigCh
	logger.Info("shutdown signal received", slog.String("signal", sig.String()))

	// Graceful shutdown: stop HTTP server, stop the flusher, write the final state.
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown error", slog.String("error", err.Error()))
	}
	cancel()

	if err := flusher.Flush(shutdownCtx); err != nil {
		logger.Error("final flush failed", slog.String("error", err.Error()))
	}

	logger.Info("server stopped")
}

// newProvider builds the quote provider selected by QUOTE_PROVIDER.
func newProvider(cfg *config.Config) quote.Provider {
	switch cfg.QuoteProvider {
	case config.ProviderAlpaca:
		return quote.NewAlpaca(cfg.Alpaca)
	case config.ProviderPolygon:
		return quote.NewPolygon(cfg.PolygonAPIKey, cfg.QuoteTimeout)
	default:
		return quote.NewStatic(cfg.StaticQuotes)
	}
}
