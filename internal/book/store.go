// Package book implements the in-memory order book store: two keyed
// collections (offers and requests) with upsert and read-snapshot semantics,
// and a per-book new-order counter that triggers snapshot flushes to the
// configured persistence sink.
package book

import (
	"context"
	"log/slog"
	"sync"

	"github.com/albionflip/flipperd/internal/domain"
)

// DefaultFlushThreshold is the number of newly inserted orders per book that
// triggers a snapshot flush when no threshold is configured.
const DefaultFlushThreshold = 50

// Store is the single point of mutation for both order books. The ingestion
// goroutine is the sole writer; arbitrary goroutines may take snapshots
// concurrently and never observe a partially updated record.
type Store struct {
	mu            sync.RWMutex
	orders        map[domain.BookKind]map[string]domain.Order
	insertOrder   map[domain.BookKind][]string
	newSinceFlush map[domain.BookKind]int

	threshold int
	sink      domain.BookSink // may be nil
	logger    *slog.Logger
}

// NewStore creates an empty store. sink may be nil, in which case threshold
// flushes are skipped. Flush failures are logged and never interrupt the
// caller.
func NewStore(threshold int, sink domain.BookSink, logger *slog.Logger) *Store {
	if threshold < 1 {
		threshold = DefaultFlushThreshold
	}
	return &Store{
		orders: map[domain.BookKind]map[string]domain.Order{
			domain.BookOffers:   {},
			domain.BookRequests: {},
		},
		insertOrder: map[domain.BookKind][]string{
			domain.BookOffers:   nil,
			domain.BookRequests: nil,
		},
		newSinceFlush: map[domain.BookKind]int{},
		threshold:     threshold,
		sink:          sink,
		logger:        logger.With(slog.String("component", "book_store")),
	}
}

// Upsert inserts the order into the selected book, or replaces the stored
// record in place when the id already exists. It reports whether a new
// record was inserted. Every threshold-th insertion flushes a full snapshot
// of the book to the sink and resets the counter.
func (s *Store) Upsert(ctx context.Context, kind domain.BookKind, order domain.Order) bool {
	if !kind.Valid() {
		s.logger.Warn("upsert into unknown book dropped", slog.String("kind", string(kind)))
		return false
	}

	s.mu.Lock()
	book := s.orders[kind]
	_, exists := book[order.ID]
	book[order.ID] = order

	var flushSnap []domain.Order
	if !exists {
		s.insertOrder[kind] = append(s.insertOrder[kind], order.ID)
		s.newSinceFlush[kind]++
		if s.newSinceFlush[kind] >= s.threshold {
			s.newSinceFlush[kind] = 0
			if s.sink != nil {
				flushSnap = s.snapshotLocked(kind)
			}
		}
	}
	s.mu.Unlock()

	if flushSnap != nil {
		s.flush(ctx, kind, flushSnap)
	}
	return !exists
}

// Snapshot returns a consistent copy of one book in insertion order. The
// returned slice is owned by the caller.
func (s *Store) Snapshot(kind domain.BookKind) []domain.Order {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshotLocked(kind)
}

// Count returns the number of live orders in one book.
func (s *Store) Count(kind domain.BookKind) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.orders[kind])
}

// Flush pushes a full snapshot of one book to the sink on demand.
func (s *Store) Flush(ctx context.Context, kind domain.BookKind) error {
	if !kind.Valid() {
		return domain.ErrUnknownBook
	}
	if s.sink == nil {
		return nil
	}
	return s.sink.Flush(ctx, kind, s.Snapshot(kind))
}

func (s *Store) snapshotLocked(kind domain.BookKind) []domain.Order {
	book := s.orders[kind]
	snap := make([]domain.Order, 0, len(book))
	for _, id := range s.insertOrder[kind] {
		snap = append(snap, book[id])
	}
	return snap
}

func (s *Store) flush(ctx context.Context, kind domain.BookKind, snap []domain.Order) {
	if err := s.sink.Flush(ctx, kind, snap); err != nil {
		s.logger.Error("book flush failed",
			slog.String("book", string(kind)),
			slog.Int("orders", len(snap)),
			slog.String("error", err.Error()),
		)
		return
	}
	s.logger.Debug("book flushed",
		slog.String("book", string(kind)),
		slog.Int("orders", len(snap)),
	)
}
