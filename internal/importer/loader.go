package importer

import (
	"context"
	"fmt"
	"os"

	"github.com/rs/zerolog"
)

// fileLoader implements Loader for reading gzipped offer files from disk.
type fileLoader struct {
	logger zerolog.Logger
}

// NewFileLoader creates a new file-based offer loader.
func NewFileLoader(logger zerolog.Logger) Loader {
	return &fileLoader{
		logger: logger.With().Str("component", "offer-loader").Logger(),
	}
}

// Load reads a gzipped offer file from the local file system.
func (l *fileLoader) Load(ctx context.Context, filePath string) (*Batch, error) {
	l.logger.Info().Str("file", filePath).Msg("loading offer file")

	file, err := os.Open(filePath)
	if err != nil {
		l.logger.Error().Err(err).Str("file", filePath).Msg("failed to open offer file")
		return nil, fmt.Errorf("failed to open offer file %s: %w", filePath, err)
	}
	defer file.Close()

	batch, err := decodeBatch(ctx, file, filePath, l.logger)
	if err != nil {
		l.logger.Error().Err(err).Str("file", filePath).Msg("failed to read offer file")
		return nil, err
	}

	l.logger.Info().
		Str("file", filePath).
		Int("offers_loaded", len(batch.Requests)).
		Msg("offer file loaded successfully")

	return batch, nil
}
