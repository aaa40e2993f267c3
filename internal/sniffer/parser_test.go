package sniffer_test

import (
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/albionflip/flipperd/internal/domain"
	"github.com/albionflip/flipperd/internal/sniffer"
)

// fakeWorlds resolves a fixed set of location ids.
type fakeWorlds map[int]string

func (f fakeWorlds) LocationName(id int) (string, bool) {
	name, ok := f[id]
	return name, ok
}

func newTestParser() *sniffer.Parser {
	return sniffer.NewParser(fakeWorlds{3005: "Caerleon", 1002: "Bridgewatch"}, slog.Default())
}

func TestParser_MarkerSwitchesMode(t *testing.T) {
	// Arrange
	p := newTestParser()
	ctx := sniffer.NewContext()

	// Act - offers marker, then a fragment on a later line
	ctx, frags := p.ProcessLine(ctx, "[DEBUG] operation opAuctionGetOffers received")
	require.Empty(t, frags)

	ctx, frags = p.ProcessLine(ctx, `payload {"Id": 1, "ItemTypeId": "T4_BAG"}`)

	// Assert
	require.Len(t, frags, 1)
	assert.Equal(t, domain.BookOffers, frags[0].Book)
}

func TestParser_OpCodeMarkerSwitchesMode(t *testing.T) {
	// Arrange
	p := newTestParser()
	ctx := sniffer.NewContext()

	// Act - numeric op code marker for requests
	ctx, _ = p.ProcessLine(ctx, "[DEBUG] got operation [76]")
	ctx, frags := p.ProcessLine(ctx, `{"Id": 2}`)

	// Assert
	require.Len(t, frags, 1)
	assert.Equal(t, domain.BookRequests, frags[0].Book)
	assert.Equal(t, sniffer.ModeRequests, ctx.Mode)
}

func TestParser_ModePersistsAcrossLines(t *testing.T) {
	// Arrange
	p := newTestParser()
	ctx := sniffer.NewContext()
	ctx, _ = p.ProcessLine(ctx, "opAuctionGetOffers")

	// Act - several unrelated lines, then fragments
	ctx, _ = p.ProcessLine(ctx, "some unrelated debug output")
	ctx, frags := p.ProcessLine(ctx, `{"Id": 7}`)

	// Assert - still classified as offers
	require.Len(t, frags, 1)
	assert.Equal(t, domain.BookOffers, frags[0].Book)
}

func TestParser_DropsFragmentsBeforeFirstMarker(t *testing.T) {
	// Arrange
	p := newTestParser()
	ctx := sniffer.NewContext()

	// Act
	ctx, frags := p.ProcessLine(ctx, `{"Id": 1, "ItemTypeId": "T4_BAG"}`)

	// Assert
	assert.Empty(t, frags)
	assert.Equal(t, sniffer.ModeUnknown, ctx.Mode)
}

func TestParser_MarkerAndFragmentOnSameLine(t *testing.T) {
	// Arrange
	p := newTestParser()
	ctx := sniffer.NewContext()

	// Act - the marker takes effect before fragments on the same line are
	// classified
	_, frags := p.ProcessLine(ctx, `opAuctionGetRequests {"Id": 9}`)

	// Assert
	require.Len(t, frags, 1)
	assert.Equal(t, domain.BookRequests, frags[0].Book)
}

func TestParser_MultipleFragmentsShareContext(t *testing.T) {
	// Arrange
	p := newTestParser()
	ctx := sniffer.NewContext()
	ctx, _ = p.ProcessLine(ctx, "opAuctionGetOffers")
	ctx, _ = p.ProcessLine(ctx, "Updating player location to 3005.")

	// Act
	_, frags := p.ProcessLine(ctx, `{"Id": 1} {"Id": 2} {"Id": 3}`)

	// Assert
	require.Len(t, frags, 3)
	for _, f := range frags {
		assert.Equal(t, domain.BookOffers, f.Book)
		assert.Equal(t, 3005, f.LocationID)
	}
}

func TestParser_InvalidJSONFragmentsSkipped(t *testing.T) {
	// Arrange
	p := newTestParser()
	ctx := sniffer.NewContext()
	ctx, _ = p.ProcessLine(ctx, "opAuctionGetOffers")

	// Act - first candidate is not valid JSON
	_, frags := p.ProcessLine(ctx, `{not json} {"Id": 4}`)

	// Assert
	require.Len(t, frags, 1)
	assert.Equal(t, json.Number("4"), frags[0].Fields["Id"])
}

func TestParser_PlayerUpdateEstablishesConnection(t *testing.T) {
	// Arrange
	p := newTestParser()
	ctx := sniffer.NewContext()
	require.False(t, ctx.Connected)

	// Act
	ctx, _ = p.ProcessLine(ctx, "Updating player to Gandalf.")

	// Assert
	assert.True(t, ctx.Connected)
	assert.Equal(t, "Gandalf", ctx.PlayerName)
}

func TestParser_LocationUpdateResolvesName(t *testing.T) {
	// Arrange
	p := newTestParser()
	ctx := sniffer.NewContext()

	// Act
	ctx, _ = p.ProcessLine(ctx, "Updating player location to 3005.")

	// Assert
	assert.True(t, ctx.Connected)
	assert.Equal(t, 3005, ctx.LocationID)
	assert.Equal(t, "Caerleon", ctx.LocationName)
}

func TestParser_UnknownLocationGetsFallbackName(t *testing.T) {
	// Arrange
	p := newTestParser()
	ctx := sniffer.NewContext()

	// Act
	ctx, _ = p.ProcessLine(ctx, "Updating player location to 9999.")

	// Assert
	assert.Equal(t, 9999, ctx.LocationID)
	assert.Equal(t, "Unknown Location (9999)", ctx.LocationName)
}

func TestParser_FragmentsCarryLocationBeforeFirstUpdate(t *testing.T) {
	// Arrange
	p := newTestParser()
	ctx := sniffer.NewContext()
	ctx, _ = p.ProcessLine(ctx, "opAuctionGetOffers")

	// Act - no location update seen yet
	_, frags := p.ProcessLine(ctx, `{"Id": 1}`)

	// Assert
	require.Len(t, frags, 1)
	assert.Equal(t, domain.UnknownLocation, frags[0].LocationID)
}
