package scraper

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/sodiqardianto/edlink-scrap/common/storage"
)

// Exporter writes run results as timestamped JSON artifacts. When a storage
// service is configured the artifact is also uploaded.
type Exporter struct {
	outputDir string
	storage   storage.StorageService
	bucket    string
}

// NewExporter creates an exporter. storageService and bucket are optional;
// leave them zero to keep artifacts local only.
func NewExporter(outputDir string, storageService storage.StorageService, bucket string) *Exporter {
	return &Exporter{
		outputDir: outputDir,
		storage:   storageService,
		bucket:    bucket,
	}
}

// Export writes the result to <outputDir>/edlink-scrape-<timestamp>.json and
// returns the local path. Upload failures are logged, not returned; the local
// artifact is the source of truth.
func (e *Exporter) Export(ctx context.Context, result RunResult) (string, error) {
	if err := os.MkdirAll(e.outputDir, 0o755); err != nil {
		return "", fmt.Errorf("creating output directory: %w", err)
	}

	payload, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encoding result: %w", err)
	}

	name := fmt.Sprintf("edlink-scrape-%s.json", exportTimestamp(time.Now()))
	path := filepath.Join(e.outputDir, name)
	if err := os.WriteFile(path, payload, 0o644); err != nil {
		return "", fmt.Errorf("writing result file: %w", err)
	}
	log.Info().Str("path", path).Msg("Run result exported")

	if e.storage != nil && e.bucket != "" {
		if _, err := e.storage.StreamUpload(ctx, e.bucket, name, bytes.NewReader(payload), "application/json"); err != nil {
			log.Error().Err(err).Str("bucket", e.bucket).Str("object", name).Msg("Failed to upload run artifact")
		} else {
			log.Info().Str("bucket", e.bucket).Str("object", name).Msg("Run artifact uploaded")
		}
	}

	return path, nil
}

// exportTimestamp renders an RFC 3339 timestamp safe for filenames.
func exportTimestamp(t time.Time) string {
	stamp := t.UTC().Format(time.RFC3339)
	stamp = strings.ReplaceAll(stamp, ":", "-")
	return strings.ReplaceAll(stamp, ".", "-")
}
