package importer

import (
	"bufio"
	"compress/gzip"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"notes-portal/internal/model"

	"github.com/rs/zerolog"
)

// decodeBatch reads gzipped JSON lines from r. Blank lines are ignored;
// lines that are not valid JSON are counted and skipped.
func decodeBatch(ctx context.Context, r io.Reader, source string, logger zerolog.Logger) (*Batch, error) {
	gzipReader, err := gzip.NewReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to create gzip reader for %s: %w", source, err)
	}
	defer gzipReader.Close()

	batch := &Batch{Source: source}

	// Offer definitions are small; 1 MiB per line is generous
	scanner := bufio.NewScanner(gzipReader)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)

	lineNo := 0
	for scanner.Scan() {
		lineNo++
		if lineNo%1_000 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}

		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		var req model.OfferRequest
		if err := json.Unmarshal([]byte(line), &req); err != nil {
			batch.Malformed++
			logger.Warn().
				Err(err).
				Str("source", source).
				Int("line", lineNo).
				Msg("skipping malformed offer line")
			continue
		}
		batch.Requests = append(batch.Requests, req)
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading offer file %s: %w", source, err)
	}

	return batch, nil
}
