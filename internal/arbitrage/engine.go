// Package arbitrage computes cross-location flip opportunities from the two
// live order books: buy from a sell offer in one location, fill a buy
// request in another, and keep the spread.
package arbitrage

import (
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/albionflip/flipperd/internal/book"
	"github.com/albionflip/flipperd/internal/domain"
)

// Engine evaluates the books against caller-supplied thresholds. It only
// reads store snapshots and holds no state of its own, so concurrent
// computations need no synchronization.
type Engine struct {
	books  *book.Store
	worlds domain.LocationLookup
	logger *slog.Logger
}

// NewEngine creates an Engine over the given store.
func NewEngine(books *book.Store, worlds domain.LocationLookup, logger *slog.Logger) *Engine {
	return &Engine{
		books:  books,
		worlds: worlds,
		logger: logger.With(slog.String("component", "arb_engine")),
	}
}

// Opportunities snapshots both books and returns every profitable pair under
// the given thresholds, most profitable first.
func (e *Engine) Opportunities(minProfit int64, minROI float64) []domain.Opportunity {
	offers := e.books.Snapshot(domain.BookOffers)
	requests := e.books.Snapshot(domain.BookRequests)

	opps := Compute(offers, requests, minProfit, minROI, e.worlds)
	e.logger.Debug("arbitrage computed",
		slog.Int("offers", len(offers)),
		slog.Int("requests", len(requests)),
		slog.Int("opportunities", len(opps)),
		slog.Int64("min_profit", minProfit),
		slog.Float64("min_roi", minROI),
	)
	return opps
}

// Compute cross-joins offers against requests sharing the same item variant
// in a different location. A pair is admitted when the per-unit profit
// strictly exceeds minProfit and the ROI meets minROI; zero-priced offers
// are excluded outright since their ROI is undefined. Requests are indexed
// by match key so the join is linear in practice, without changing the
// observable offers-outer/requests-inner enumeration order. The result is
// sorted by total profit descending; the stable sort preserves enumeration
// order among ties.
func Compute(offers, requests []domain.Order, minProfit int64, minROI float64, worlds domain.LocationLookup) []domain.Opportunity {
	byKey := make(map[domain.MatchKey][]domain.Order, len(requests))
	for _, req := range requests {
		key := req.Key()
		byKey[key] = append(byKey[key], req)
	}

	now := time.Now().UTC()
	var opps []domain.Opportunity
	for _, offer := range offers {
		for _, req := range byKey[offer.Key()] {
			if req.LocationID == offer.LocationID {
				continue
			}
			profit := req.UnitPriceSilver - offer.UnitPriceSilver
			if profit <= minProfit {
				continue
			}
			if offer.UnitPriceSilver == 0 {
				// ROI undefined for free offers.
				continue
			}
			roi := float64(profit) / float64(offer.UnitPriceSilver) * 100
			if roi < minROI {
				continue
			}

			qty := min(offer.Amount, req.Amount)
			opps = append(opps, domain.Opportunity{
				ID:            uuid.NewString(),
				ItemID:        offer.ItemID,
				ItemName:      offer.ItemName,
				Enchant:       offer.Enchant,
				QualityLevel:  offer.QualityLevel,
				QualityName:   domain.QualityName(offer.QualityLevel),
				BuyLocation:   locationName(worlds, offer.LocationID),
				SellLocation:  locationName(worlds, req.LocationID),
				BuyPrice:      offer.UnitPriceSilver,
				SellPrice:     req.UnitPriceSilver,
				ProfitPerUnit: profit,
				ROIPercent:    roi,
				MaxQuantity:   qty,
				TotalProfit:   profit * qty,
				OfferID:       offer.ID,
				RequestID:     req.ID,
				DetectedAt:    now,
			})
		}
	}

	sort.SliceStable(opps, func(i, j int) bool {
		return opps[i].TotalProfit > opps[j].TotalProfit
	})
	return opps
}

func locationName(worlds domain.LocationLookup, id int) string {
	if worlds != nil {
		if name, ok := worlds.LocationName(id); ok {
			return name
		}
	}
	return fmt.Sprintf("Location %d", id)
}
