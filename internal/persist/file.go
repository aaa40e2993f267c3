// Package persist implements the persistence sinks that receive whole
// order-book snapshots from the store: a local JSON file sink and a fan-out
// over several sinks.
package persist

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/albionflip/flipperd/internal/domain"
)

// FileSink writes each book snapshot as a pretty-printed JSON array under
// the data directory (offers.json, requests.json). Writes go through a temp
// file and rename so a concurrent reader never sees a torn snapshot.
type FileSink struct {
	dir    string
	logger *slog.Logger
}

// NewFileSink creates a FileSink rooted at dir. The directory is created on
// first flush.
func NewFileSink(dir string, logger *slog.Logger) *FileSink {
	return &FileSink{
		dir:    dir,
		logger: logger.With(slog.String("component", "file_sink")),
	}
}

// Flush writes the snapshot for one book, replacing any previous file.
func (s *FileSink) Flush(ctx context.Context, kind domain.BookKind, orders []domain.Order) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("persist: create data dir: %w", err)
	}

	data, err := json.MarshalIndent(orders, "", "  ")
	if err != nil {
		return fmt.Errorf("persist: encode %s snapshot: %w", kind, err)
	}

	path := s.Path(kind)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("persist: write %s snapshot: %w", kind, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("persist: replace %s snapshot: %w", kind, err)
	}

	s.logger.Debug("snapshot written",
		slog.String("book", string(kind)),
		slog.Int("orders", len(orders)),
		slog.String("path", path),
	)
	return nil
}

// Path returns the snapshot file path for one book.
func (s *FileSink) Path(kind domain.BookKind) string {
	return filepath.Join(s.dir, string(kind)+".json")
}

// Compile-time interface check.
var _ domain.BookSink = (*FileSink)(nil)
