// Package importer bulk-loads offer definitions from gzipped JSON-lines
// files, read from local disk or S3.
package importer

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"notes-portal/internal/model"

	"github.com/rs/zerolog"
)

// Batch is the decoded content of one offer definition file.
type Batch struct {
	Source    string
	Requests  []model.OfferRequest
	Malformed int
}

// Loader defines the interface for loading offer definition files.
type Loader interface {
	// Load reads a gzipped JSON-lines file, one OfferRequest per line.
	Load(ctx context.Context, path string) (*Batch, error)
}

// Creator creates a single offer.
type Creator interface {
	Create(ctx context.Context, req *model.OfferRequest) (*model.Offer, error)
}

// Summary reports the outcome of an import run.
type Summary struct {
	Files      int
	Created    int
	Duplicates int
	Invalid    int
	Malformed  int
}

// Importer loads offer files and creates their offers.
type Importer struct {
	loader  Loader
	creator Creator
	logger  zerolog.Logger
}

// New creates an importer.
func New(loader Loader, creator Creator, logger zerolog.Logger) *Importer {
	return &Importer{
		loader:  loader,
		creator: creator,
		logger:  logger.With().Str("component", "offer-importer").Logger(),
	}
}

// Run loads all files concurrently, then creates their offers in file and
// line order. Offers whose codes are already taken or that fail validation
// are logged and skipped; any other error stops the run.
func (im *Importer) Run(ctx context.Context, paths []string) (Summary, error) {
	batches, err := im.loadAll(ctx, paths)
	if err != nil {
		return Summary{}, err
	}

	summary := Summary{Files: len(batches)}
	for _, batch := range batches {
		summary.Malformed += batch.Malformed

		for i := range batch.Requests {
			req := &batch.Requests[i]

			offer, err := im.creator.Create(ctx, req)
			if err == nil {
				summary.Created++
				im.logger.Debug().
					Str("source", batch.Source).
					Str("offer_id", offer.ID.String()).
					Msg("offer imported")
				continue
			}

			var (
				conflictErr   *model.ConflictError
				validationErr *model.ValidationError
			)
			switch {
			case errors.As(err, &conflictErr):
				summary.Duplicates++
				im.logger.Warn().
					Str("source", batch.Source).
					Int("index", i).
					Str("field", conflictErr.Field).
					Str("code", conflictErr.Value).
					Msg("skipping offer with duplicate code")
			case errors.As(err, &validationErr):
				summary.Invalid++
				im.logger.Warn().
					Str("source", batch.Source).
					Int("index", i).
					Err(err).
					Msg("skipping invalid offer")
			default:
				im.logger.Error().Err(err).Str("source", batch.Source).Int("index", i).Msg("import aborted")
				return summary, fmt.Errorf("failed to import offer %d from %s: %w", i, batch.Source, err)
			}
		}
	}

	im.logger.Info().
		Int("files", summary.Files).
		Int("created", summary.Created).
		Int("duplicates", summary.Duplicates).
		Int("invalid", summary.Invalid).
		Int("malformed", summary.Malformed).
		Msg("offer import finished")

	return summary, nil
}

// loadAll loads every file concurrently and returns the batches in the
// order of paths.
func (im *Importer) loadAll(ctx context.Context, paths []string) ([]*Batch, error) {
	type loadResult struct {
		index int
		batch *Batch
		err   error
	}

	resultChan := make(chan loadResult, len(paths))
	var wg sync.WaitGroup

	for i, path := range paths {
		wg.Add(1)
		go func(index int, path string) {
			defer wg.Done()

			batch, err := im.loader.Load(ctx, path)
			resultChan <- loadResult{index: index, batch: batch, err: err}
		}(i, path)
	}

	wg.Wait()
	close(resultChan)

	// Collect results in order
	results := make([]loadResult, len(paths))
	for result := range resultChan {
		results[result.index] = result
	}

	batches := make([]*Batch, 0, len(paths))
	for i, result := range results {
		if result.err != nil {
			im.logger.Error().Err(result.err).Str("file", paths[i]).Msg("failed to load offer file")
			return nil, fmt.Errorf("failed to load offer file %s: %w", paths[i], result.err)
		}
		im.logger.Info().
			Str("file", paths[i]).
			Int("offers", len(result.batch.Requests)).
			Int("malformed", result.batch.Malformed).
			Msg("offer file loaded")
		batches = append(batches, result.batch)
	}

	return batches, nil
}
