package sniffer

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/albionflip/flipperd/internal/book"
	"github.com/albionflip/flipperd/internal/domain"
)

// Sniffer ties the process reader, line parser, and normalizer together and
// feeds canonical orders into the book store. One ingestion goroutine owns
// the parser context and performs all store writes; status queries only read
// a snapshot of that context under the mutex.
type Sniffer struct {
	reader *ProcessReader
	parser *Parser
	books  *book.Store
	items  domain.ItemLookup
	logger *slog.Logger

	mu      sync.Mutex
	pctx    Context
	running bool
	drained chan struct{} // closed when the ingest loop returns
}

// New creates a Sniffer. Nothing runs until Start.
func New(reader *ProcessReader, parser *Parser, books *book.Store, items domain.ItemLookup, logger *slog.Logger) *Sniffer {
	return &Sniffer{
		reader: reader,
		parser: parser,
		books:  books,
		items:  items,
		logger: logger.With(slog.String("component", "sniffer")),
		pctx:   NewContext(),
	}
}

// Start launches the capture process and the ingestion goroutine. It is
// idempotent; a second call while running is a no-op. The parser context is
// reset on each (re)start.
func (s *Sniffer) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return nil
	}
	if err := s.reader.Start(); err != nil {
		return err
	}

	s.pctx = NewContext()
	s.running = true
	s.drained = make(chan struct{})

	lines := s.reader.Lines()
	drained := s.drained
	go s.ingest(lines, drained)

	return nil
}

// Stop halts ingestion and terminates the capture process within the
// reader's bounded timeout. It is idempotent.
func (s *Sniffer) Stop() error {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return nil
	}
	drained := s.drained
	s.mu.Unlock()

	s.reader.Stop()
	<-drained
	return nil
}

// Status returns a consistent snapshot of the ingestion state for the
// presentation layer.
func (s *Sniffer) Status() domain.Status {
	s.mu.Lock()
	pctx := s.pctx
	running := s.running && s.reader.Running()
	s.mu.Unlock()

	return domain.Status{
		Connected:    pctx.Connected,
		Player:       pctx.PlayerName,
		Location:     pctx.LocationName,
		OfferCount:   s.books.Count(domain.BookOffers),
		RequestCount: s.books.Count(domain.BookRequests),
		Running:      running,
	}
}

// ingest drains the reader's line channel until it closes. Parse and
// validation failures only skip the offending record; the loop survives
// indefinite malformed input.
func (s *Sniffer) ingest(lines <-chan string, drained chan<- struct{}) {
	defer func() {
		s.mu.Lock()
		s.running = false
		s.mu.Unlock()
		close(drained)
		s.logger.Info("ingestion stopped")
	}()

	s.logger.Info("ingestion started")
	for line := range lines {
		s.handleLine(line)
	}
}

func (s *Sniffer) handleLine(line string) {
	s.mu.Lock()
	pctx := s.pctx
	s.mu.Unlock()

	pctx, frags := s.parser.ProcessLine(pctx, line)

	s.mu.Lock()
	s.pctx = pctx
	s.mu.Unlock()

	now := time.Now().UTC()
	for _, frag := range frags {
		order, ok := Normalize(frag.Fields, frag.LocationID, s.items, now)
		if !ok {
			s.logger.Debug("dropping fragment with missing required fields")
			continue
		}
		inserted := s.books.Upsert(context.Background(), frag.Book, order)
		action := "updated"
		if inserted {
			action = "added"
		}
		s.logger.Debug("order "+action,
			slog.String("book", string(frag.Book)),
			slog.String("order_id", order.ID),
			slog.String("item", order.ItemName),
			slog.Int("quality", order.QualityLevel),
		)
	}
}
