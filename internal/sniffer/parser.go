// Package sniffer ingests the text stream of the albiondata-client capture
// process: it owns the subprocess, scans each output line for operation
// markers and player/location updates, extracts the embedded JSON market
// fragments, and normalizes them into canonical orders for the book store.
package sniffer

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"regexp"
	"strconv"
	"strings"

	"github.com/albionflip/flipperd/internal/domain"
)

// OperationMode tracks which auction operation the capture client is
// currently streaming. Fragments seen while the mode is unknown cannot be
// classified into either book and are dropped.
type OperationMode int

const (
	ModeUnknown OperationMode = iota
	ModeOffers
	ModeRequests
)

// String returns the mode name for logging.
func (m OperationMode) String() string {
	switch m {
	case ModeOffers:
		return "offers"
	case ModeRequests:
		return "requests"
	default:
		return "unknown"
	}
}

// Book maps the mode to the order book it feeds.
func (m OperationMode) Book() (domain.BookKind, bool) {
	switch m {
	case ModeOffers:
		return domain.BookOffers, true
	case ModeRequests:
		return domain.BookRequests, true
	default:
		return "", false
	}
}

// Context is the session-scoped parser state. It is passed into and returned
// from each ProcessLine call instead of living as mutable fields on the
// parser, so readers of the state never race the ingestion goroutine. It is
// reset only on an explicit ingestion restart.
type Context struct {
	Mode         OperationMode
	LocationID   int // domain.UnknownLocation until observed
	LocationName string
	PlayerName   string
	Connected    bool
}

// NewContext returns the initial parser state for a fresh ingestion session.
func NewContext() Context {
	return Context{Mode: ModeUnknown, LocationID: domain.UnknownLocation}
}

// Fragment is one structured market fragment extracted from a line, tagged
// with a snapshot of the parser context at extraction time. Multiple
// fragments on one line carry identical context.
type Fragment struct {
	Fields     map[string]any
	Book       domain.BookKind
	LocationID int
}

var (
	playerRe   = regexp.MustCompile(`Updating player to (.+)\.`)
	locationRe = regexp.MustCompile(`Updating player location to (\d+)\.`)
	fragmentRe = regexp.MustCompile(`\{.*?\}`)
)

// Markers emitted by the capture client when it switches auction operations.
const (
	offersMarker   = "opAuctionGetOffers"
	offersOpCode   = "[75]"
	requestsMarker = "opAuctionGetRequests"
	requestsOpCode = "[76]"
)

// Parser is the stateful line scanner. It holds only collaborators; all
// mutable state travels through Context.
type Parser struct {
	worlds domain.LocationLookup
	logger *slog.Logger
}

// NewParser creates a Parser that resolves location ids through worlds.
func NewParser(worlds domain.LocationLookup, logger *slog.Logger) *Parser {
	return &Parser{
		worlds: worlds,
		logger: logger.With(slog.String("component", "parser")),
	}
}

// ProcessLine scans a single line of capture output. It returns the updated
// context and every classifiable fragment found on the line. Fragments seen
// while the operation mode is still unknown are dropped.
func (p *Parser) ProcessLine(ctx Context, line string) (Context, []Fragment) {
	// Operation markers switch the mode; it persists until the next marker.
	switch {
	case strings.Contains(line, offersMarker) || strings.Contains(line, offersOpCode):
		if ctx.Mode != ModeOffers {
			p.logger.Debug("switched operation mode", slog.String("mode", "offers"))
		}
		ctx.Mode = ModeOffers
	case strings.Contains(line, requestsMarker) || strings.Contains(line, requestsOpCode):
		if ctx.Mode != ModeRequests {
			p.logger.Debug("switched operation mode", slog.String("mode", "requests"))
		}
		ctx.Mode = ModeRequests
	}

	if m := playerRe.FindStringSubmatch(line); m != nil {
		name := m[1]
		if ctx.PlayerName != name {
			ctx.PlayerName = name
			if !ctx.Connected {
				ctx.Connected = true
				p.logger.Info("player connection established", slog.String("player", name))
			}
		}
	}

	if m := locationRe.FindStringSubmatch(line); m != nil {
		id, err := strconv.Atoi(m[1])
		if err == nil && id != ctx.LocationID {
			ctx.LocationID = id
			ctx.LocationName = p.locationName(id)
			ctx.Connected = true
			p.logger.Info("player location changed",
				slog.Int("location_id", id),
				slog.String("location", ctx.LocationName),
			)
		}
	}

	// Fragment extraction is independent of marker handling: every line is
	// scanned for all brace-delimited fragments.
	matches := fragmentRe.FindAllString(line, -1)
	if len(matches) == 0 {
		return ctx, nil
	}

	book, ok := ctx.Mode.Book()
	if !ok {
		p.logger.Debug("dropping fragments before first operation marker",
			slog.Int("count", len(matches)),
		)
		return ctx, nil
	}

	var frags []Fragment
	for _, raw := range matches {
		fields, err := decodeFragment(raw)
		if err != nil {
			continue
		}
		frags = append(frags, Fragment{
			Fields:     fields,
			Book:       book,
			LocationID: ctx.LocationID,
		})
	}
	return ctx, frags
}

// decodeFragment parses one brace-delimited candidate as JSON. Numbers are
// kept as json.Number so large silver amounts survive without float rounding.
func decodeFragment(raw string) (map[string]any, error) {
	dec := json.NewDecoder(strings.NewReader(raw))
	dec.UseNumber()

	var fields map[string]any
	if err := dec.Decode(&fields); err != nil {
		return nil, err
	}
	return fields, nil
}

func (p *Parser) locationName(id int) string {
	if p.worlds != nil {
		if name, ok := p.worlds.LocationName(id); ok {
			return name
		}
	}
	return fmt.Sprintf("Unknown Location (%d)", id)
}
