package main

import (
	"context"
	"fmt"
	"os"

	"notes-portal/internal/cache"
	"notes-portal/internal/clock"
	"notes-portal/internal/config"
	"notes-portal/internal/importer"
	"notes-portal/internal/ledger"
	"notes-portal/internal/repository"
	"notes-portal/internal/service"
)

// The importer creates offers from gzipped JSON-lines files. Paths come
// from the command line, or IMPORT_FILES when none are given.
func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	logger := config.NewLogger(cfg.Logger)

	paths := cfg.Import.Files
	if len(args) > 0 {
		paths = args
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Import.Timeout)
	defer cancel()

	offerRepo, closeStore, err := repository.Open(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeStore()

	// Creates through the service bump the listing cache generation so the
	// API stops serving listings computed before the import
	var listing service.ListingCache
	if cfg.Redis.Enabled {
		rdb, err := cache.NewClient(ctx, cfg.Redis, logger)
		if err != nil {
			return fmt.Errorf("failed to initialize redis: %w", err)
		}
		defer rdb.Close()
		listing = cache.NewActiveOffers(rdb, cfg.Redis.TTL, logger)
	}

	clk := clock.System()
	offerService := service.NewOfferService(offerRepo, ledger.New(offerRepo, clk, logger), listing, clk, logger)

	// Initialize offer file loader
	fileLoader := importer.NewFileLoader(logger)
	var s3Loader importer.Loader
	if cfg.S3.Enabled {
		s3Loader, err = importer.NewS3Loader(ctx, cfg.S3.Bucket, cfg.S3.Region, logger)
		if err != nil {
			return fmt.Errorf("failed to initialize S3 loader: %w", err)
		}
	}
	loader := importer.NewFallbackLoader(s3Loader, fileLoader, cfg.S3.Prefix, logger)

	summary, err := importer.New(loader, offerService, logger).Run(ctx, paths)
	if err != nil {
		return err
	}

	fmt.Printf("Imported %d offers from %d files (%d duplicates, %d invalid, %d malformed lines)\n",
		summary.Created, summary.Files, summary.Duplicates, summary.Invalid, summary.Malformed)
	return nil
}
