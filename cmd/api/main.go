package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"notes-portal/internal/auth"
	"notes-portal/internal/cache"
	"notes-portal/internal/clock"
	"notes-portal/internal/config"
	"notes-portal/internal/handler"
	"notes-portal/internal/ledger"
	"notes-portal/internal/repository"
	"notes-portal/internal/router"
	"notes-portal/internal/service"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	// Initialize logger
	logger := config.NewLogger(cfg.Logger)
	logger.Info().Str("store", cfg.Store.Driver).Msg("starting notes-portal offer API server")

	// Create context for application lifecycle
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize the offer store
	offerRepo, closeStore, err := repository.Open(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeStore()

	clk := clock.System()

	// The listing cache is optional; without it listings go to the store
	var listing service.ListingCache
	if cfg.Redis.Enabled {
		rdb, err := cache.NewClient(ctx, cfg.Redis, logger)
		if err != nil {
			return fmt.Errorf("failed to initialize redis: %w", err)
		}
		defer rdb.Close()
		listing = cache.NewActiveOffers(rdb, cfg.Redis.TTL, logger)
	} else {
		logger.Info().Msg("listing cache disabled")
	}

	// Initialize services
	offerLedger := ledger.New(offerRepo, clk, logger)
	offerService := service.NewOfferService(offerRepo, offerLedger, listing, clk, logger)

	tokens := auth.NewJWTService(cfg.Auth.JWTSecret, cfg.Auth.JWTExpiry, clk)
	authenticator := auth.NewAuthenticator(cfg.Auth.AdminUsername, cfg.Auth.AdminPasswordHash, tokens, logger)

	// Initialize HTTP handlers
	offerHandler := handler.NewOfferHandler(offerService, logger)
	authHandler := handler.NewAuthHandler(authenticator, logger)

	// Initialize router
	mux := router.New(offerHandler, authHandler, tokens, cfg.Auth.APIKey, logger)

	// Create HTTP server
	server := &http.Server{
		Addr:         cfg.Server.Address(),
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Channel to listen for errors from the server
	serverErrors := make(chan error, 1)

	// Start HTTP server in a goroutine
	go func() {
		logger.Info().
			Str("address", cfg.Server.Address()).
			Msg("HTTP server started")
		serverErrors <- server.ListenAndServe()
	}()

	// Channel to listen for interrupt signals
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	// Block until we receive a signal or an error
	select {
	case err := <-serverErrors:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("server error: %w", err)

	case sig := <-shutdown:
		logger.Info().
			Str("signal", sig.String()).
			Msg("shutdown signal received, starting graceful shutdown")

		// Create a context with timeout for shutdown
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer shutdownCancel()

		// Attempt graceful shutdown
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error().Err(err).Msg("failed to shutdown server gracefully")
			// Force close
			if closeErr := server.Close(); closeErr != nil {
				logger.Error().Err(closeErr).Msg("failed to close server")
			}
			return fmt.Errorf("server shutdown failed: %w", err)
		}

		logger.Info().Msg("server shutdown completed")
	}

	return nil
}
