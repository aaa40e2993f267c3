package sniffer_test

import (
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/albionflip/flipperd/internal/book"
	"github.com/albionflip/flipperd/internal/domain"
	"github.com/albionflip/flipperd/internal/sniffer"
)

// fakeCaptureScript emits a realistic capture session and then idles so the
// process stays alive until stopped.
const fakeCaptureScript = `echo "Updating player to Gandalf."
echo "Updating player location to 3005."
echo "operation opAuctionGetOffers"
echo '{"Id": 1, "ItemTypeId": "T4_BAG", "UnitPriceSilver": 1000, "Amount": 5}'
echo "operation opAuctionGetRequests"
echo '{"Id": 2, "ItemTypeId": "T4_BAG", "UnitPriceSilver": 3000, "Amount": 2}'
sleep 30
`

func newTestSniffer(t *testing.T, execPath string) (*sniffer.Sniffer, *book.Store) {
	t.Helper()
	logger := slog.Default()
	reader := sniffer.NewProcessReader(sniffer.ReaderConfig{
		ExecutablePath: execPath,
		ReadBackoff:    10 * time.Millisecond,
		StopTimeout:    2 * time.Second,
	}, logger)
	parser := sniffer.NewParser(fakeWorlds{3005: "Caerleon"}, logger)
	books := book.NewStore(50, nil, logger)
	return sniffer.New(reader, parser, books, testItems, logger), books
}

func TestSniffer_IngestsCaptureSession(t *testing.T) {
	// Arrange
	s, books := newTestSniffer(t, writeScript(t, fakeCaptureScript))

	// Act
	require.NoError(t, s.Start())
	defer s.Stop()

	// Assert - both orders land in their books
	require.Eventually(t, func() bool {
		return books.Count(domain.BookOffers) == 1 && books.Count(domain.BookRequests) == 1
	}, 3*time.Second, 20*time.Millisecond)

	offers := books.Snapshot(domain.BookOffers)
	require.Len(t, offers, 1)
	assert.Equal(t, "1", offers[0].ID)
	assert.Equal(t, "Adept's Bag", offers[0].ItemName)
	assert.Equal(t, 3005, offers[0].LocationID)

	requests := books.Snapshot(domain.BookRequests)
	require.Len(t, requests, 1)
	assert.Equal(t, int64(3000), requests[0].UnitPriceSilver)

	status := s.Status()
	assert.True(t, status.Connected)
	assert.Equal(t, "Gandalf", status.Player)
	assert.Equal(t, "Caerleon", status.Location)
	assert.True(t, status.Running)
	assert.Equal(t, 1, status.OfferCount)
	assert.Equal(t, 1, status.RequestCount)
}

func TestSniffer_StopIsIdempotent(t *testing.T) {
	// Arrange
	s, _ := newTestSniffer(t, writeScript(t, fakeCaptureScript))
	require.NoError(t, s.Start())

	// Act
	require.NoError(t, s.Stop())
	require.NoError(t, s.Stop())

	// Assert
	assert.False(t, s.Status().Running)
}

func TestSniffer_StartFailsWithoutExecutable(t *testing.T) {
	// Arrange
	s, _ := newTestSniffer(t, filepath.Join(t.TempDir(), "missing"))

	// Act
	err := s.Start()

	// Assert - error surfaces, sniffer stays stopped
	require.Error(t, err)
	assert.False(t, s.Status().Running)
	assert.NoError(t, s.Stop())
}

func TestSniffer_RestartResetsParserContext(t *testing.T) {
	// Arrange - first run establishes a session
	path := writeScript(t, fakeCaptureScript)
	s, _ := newTestSniffer(t, path)
	require.NoError(t, s.Start())
	require.Eventually(t, func() bool { return s.Status().Connected }, 3*time.Second, 20*time.Millisecond)
	require.NoError(t, s.Stop())

	// Act - restart and check the fresh context before any line arrives
	require.NoError(t, s.Start())
	defer s.Stop()

	// Assert - connection state is rebuilt from the new session's lines
	require.Eventually(t, func() bool {
		st := s.Status()
		return st.Connected && st.Player == "Gandalf"
	}, 3*time.Second, 20*time.Millisecond)
}
