package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/pricelock/usdescrow/internal/config"
	"github.com/pricelock/usdescrow/internal/domain"
	"github.com/pricelock/usdescrow/internal/engine"
	"github.com/pricelock/usdescrow/internal/handler"
	"github.com/pricelock/usdescrow/internal/ledger"
	"github.com/pricelock/usdescrow/internal/oracle"
	"github.com/pricelock/usdescrow/internal/service"
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
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Set up the zerolog logger with the configured level.
	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}
	logger := zerolog.New(os.Stdout).Level(level).With().Timestamp().Logger()

	assets := domain.AssetPair{
		Collateral:       domain.Asset{Symbol: cfg.CollateralSymbol, Decimals: uint8(cfg.CollateralDecimals)},
		CollateralNative: domain.Asset{Symbol: cfg.CollateralNativeSymbol, Decimals: uint8(cfg.CollateralDecimals)},
		Stable:           domain.Asset{Symbol: cfg.StableSymbol, Decimals: uint8(cfg.StableDecimals)},
	}

	// Ledger and oracle collaborators.
	led := ledger.NewInMemory(cfg.CollateralNativeSymbol, cfg.CollateralSymbol)
	adapter := oracle.NewAdapter(cfg.MaxPriceAge)
	feedA := buildFeed(cfg.FeedAEndpoint, cfg.FeedAPIKey, cfg.FeedTimeout, logger, "feed_a")
	feedB := buildFeed(cfg.FeedBEndpoint, cfg.FeedAPIKey, cfg.FeedTimeout, logger, "feed_b")

	// Engine and refund sweeper.
	eng := engine.New(engine.NewRegistry(), engine.Config{
		Oracle:        adapter,
		FeedA:         feedA,
		FeedB:         feedB,
		Ledger:        led,
		Assets:        assets,
		EscrowAccount: domain.Party(cfg.EscrowAccount),
		Logger:        logger,
	})
	sweeper := engine.NewRefundSweeper(cfg.RefundSweepInterval, eng, logger)
	eng.SetDeadlineTracker(sweeper)

	// Router.
	dealSvc := service.NewDealService(eng)
	router := handler.NewRouter(dealSvc, logger)

	// Start the sweeper with a cancellable context.
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	sweeper.Start(ctx)

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
		logger.Info().Str("addr", addr).Msg("server starting")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error().Err(err).Msg("server error")
			os.Exit(1)
		}
	}()

	// Wait for SIGINT/SIGTERM.
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigCh
	logger.Info().Str("signal", sig.String()).Msg("shutdown signal received")

	// Graceful shutdown: stop HTTP server, cancel context (stops sweeper).
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("server shutdown error")
	}
	cancel()

	logger.Info().Msg("server stopped")
}

// buildFeed returns an HTTP-backed feed when an endpoint is configured,
// or a static feed primed at startup for local development.
func buildFeed(endpoint, apiKey string, timeout time.Duration, logger zerolog.Logger, name string) oracle.Feed {
	if endpoint != "" {
		return oracle.NewHTTPFeed(&http.Client{Timeout: timeout}, endpoint, apiKey)
	}
	logger.Warn().Str("feed", name).Msg("no endpoint configured, using static feed")
	return oracle.NewStaticFeed()
}
