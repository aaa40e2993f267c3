// Package domain defines the core market types shared across the flipper:
// orders, order-book kinds, arbitrage opportunities, and the collaborator
// interfaces (lookups and persistence sinks) implemented by other packages.
package domain

import "time"

// BookKind selects one of the two live order books.
type BookKind string

const (
	BookOffers   BookKind = "offers"   // sell orders
	BookRequests BookKind = "requests" // buy orders
)

// Valid reports whether k names a known book.
func (k BookKind) Valid() bool {
	return k == BookOffers || k == BookRequests
}

// Quality tier bounds. Tiers outside this range are clamped during
// normalization, never rejected.
const (
	QualityMin = 1
	QualityMax = 5
)

// UnknownLocation is the sentinel location id used when no player location
// has been observed yet.
const UnknownLocation = -1

var qualityNames = map[int]string{
	1: "Normal",
	2: "Good",
	3: "Outstanding",
	4: "Excellent",
	5: "Masterpiece",
}

// QualityName returns the display name for a quality tier, or "Unknown" for
// values outside [QualityMin, QualityMax].
func QualityName(level int) string {
	if name, ok := qualityNames[level]; ok {
		return name
	}
	return "Unknown"
}

// Order is a single canonical market order reconstructed from a captured
// fragment. IDs are unique within a book; re-ingesting an id replaces the
// stored record.
type Order struct {
	ID              string    `json:"id"`
	ItemID          string    `json:"item_id"`
	ItemName        string    `json:"item_name"`
	Enchant         int       `json:"enchant"`
	QualityLevel    int       `json:"quality_level"`
	Amount          int64     `json:"amount"`
	UnitPriceSilver int64     `json:"unit_price_silver"`
	LocationID      int       `json:"location_id"`
	Timestamp       time.Time `json:"timestamp"`
}

// MatchKey identifies the item variant an order trades. Offers and requests
// with equal keys are candidates for arbitrage matching.
type MatchKey struct {
	ItemID       string
	Enchant      int
	QualityLevel int
}

// Key returns the order's match key.
func (o Order) Key() MatchKey {
	return MatchKey{ItemID: o.ItemID, Enchant: o.Enchant, QualityLevel: o.QualityLevel}
}
