//go:build ignore

package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"notes-portal/internal/config"
	"notes-portal/internal/repository"
)

// Connects to the configured offer store, applies the schema or indexes
// and prints the number of offers that are listed right now.
func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Unable to load configuration: %v\n", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	repo, closeStore, err := repository.Open(ctx, cfg, config.NewLogger(cfg.Logger))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Unable to open %s store: %v\n", cfg.Store.Driver, err)
		os.Exit(1)
	}
	defer closeStore()

	offers, err := repo.FindActive(ctx, time.Now().UTC())
	if err != nil {
		fmt.Fprintf(os.Stderr, "Query failed: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Successfully connected to %s store: %d active offers\n", cfg.Store.Driver, len(offers))
}
