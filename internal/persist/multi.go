package persist

import (
	"context"
	"errors"

	"github.com/albionflip/flipperd/internal/domain"
)

// MultiSink fans one flush out to several sinks. Every sink is attempted
// even when an earlier one fails; the joined error carries each failure.
type MultiSink []domain.BookSink

// Flush forwards the snapshot to every sink.
func (m MultiSink) Flush(ctx context.Context, kind domain.BookKind, orders []domain.Order) error {
	var errs []error
	for _, sink := range m {
		if err := sink.Flush(ctx, kind, orders); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Compile-time interface check.
var _ domain.BookSink = (MultiSink)(nil)
