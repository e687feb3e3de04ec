package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/RogerDevCode/ecommerce-floresya-sub002/internal/config"
	"github.com/RogerDevCode/ecommerce-floresya-sub002/internal/database"
	"github.com/RogerDevCode/ecommerce-floresya-sub002/internal/exchange"
	"github.com/RogerDevCode/ecommerce-floresya-sub002/internal/handler"
	"github.com/RogerDevCode/ecommerce-floresya-sub002/internal/repository"
	"github.com/RogerDevCode/ecommerce-floresya-sub002/internal/router"
	"github.com/RogerDevCode/ecommerce-floresya-sub002/internal/service"
	"github.com/RogerDevCode/ecommerce-floresya-sub002/internal/storage"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// Local development reads a .env file; deployments set real variables.
	_ = godotenv.Load()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	// Initialize logger
	logger := config.NewLogger(cfg.Logger)
	logger.Info().Msg("starting floresya API server")

	// Create context for application lifecycle
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize database connection pool
	pool, err := database.NewPool(ctx, cfg.Database, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer pool.Close()

	// Apply pending schema migrations
	if err := database.Migrate(ctx, pool, logger); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}

	// Initialize the object store for image renditions
	var store storage.ObjectStore
	switch cfg.Storage.Backend {
	case storage.BackendS3:
		store, err = storage.NewS3Store(ctx, cfg.Storage.Bucket, cfg.Storage.Region, logger)
	case storage.BackendLocal:
		store, err = storage.NewFileStore(cfg.Storage.LocalDir, cfg.Storage.BaseURL, logger)
	default:
		err = fmt.Errorf("unknown storage backend %q", cfg.Storage.Backend)
	}
	if err != nil {
		return fmt.Errorf("failed to initialize object store: %w", err)
	}

	// Initialize the exchange rate provider
	rates, err := exchange.NewStaticProvider(cfg.Exchange.RateVES)
	if err != nil {
		return fmt.Errorf("failed to initialize exchange rate provider: %w", err)
	}

	// Initialize repositories
	productRepo := repository.NewProductRepository(pool, logger)
	orderRepo := repository.NewOrderRepository(pool, logger)
	imageRepo := repository.NewImageRepository(pool, logger)

	// Initialize services
	productService := service.NewProductService(productRepo, rates, logger)
	orderService := service.NewOrderService(orderRepo, productRepo, rates, logger)
	carouselService := service.NewCarouselService(productRepo, logger)
	imageService := service.NewImageService(imageRepo, productRepo, store, logger)

	// Initialize HTTP handlers
	productHandler := handler.NewProductHandler(productService, logger)
	orderHandler := handler.NewOrderHandler(orderService, logger)
	carouselHandler := handler.NewCarouselHandler(carouselService, logger)
	imageHandler := handler.NewImageHandler(imageService, cfg.Upload.MaxBytes, logger)

	// Initialize router
	mux := router.New(productHandler, orderHandler, carouselHandler, imageHandler, cfg.Auth.APIKey, logger)

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
		return fmt.Errorf("server error: %w", err)

	case sig := <-shutdown:
		logger.Info().
			Str("signal", sig.String()).
			Msg("shutdown signal received, starting graceful shutdown")

		// Create a context with timeout for shutdown
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
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
