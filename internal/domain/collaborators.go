package domain

import "context"

// ItemLookup resolves canonical item codes to display names.
type ItemLookup interface {
	DisplayName(itemID string) (string, bool)
}

// LocationLookup resolves numeric location ids to display names.
type LocationLookup interface {
	LocationName(locationID int) (string, bool)
}

// BookSink receives full order-book snapshots. The store invokes it when the
// new-since-flush counter reaches its threshold, and callers may invoke it on
// demand. Implementations must tolerate being called from the ingestion
// goroutine; failures are logged by the caller and never interrupt ingestion.
type BookSink interface {
	Flush(ctx context.Context, kind BookKind, orders []Order) error
}
