// Package notify pushes arbitrage alerts to chat channels. Alerts are
// dispatched to all registered senders (Telegram, Discord) and deduplicated
// so a persistent opportunity does not spam operators on every scan.
package notify

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/albionflip/flipperd/internal/domain"
)

// Sender is the interface that each alert channel must implement.
type Sender interface {
	// Send delivers a preformatted alert text.
	Send(ctx context.Context, text string) error
	// Name returns a human-readable identifier for the sender (e.g. "telegram").
	Name() string
}

// Alerter dispatches opportunity alerts to one or more Senders. Each
// opportunity route (item, quality, buy and sell location) is alerted at most
// once per cooldown window.
type Alerter struct {
	senders  []Sender
	cooldown time.Duration
	seen     map[string]time.Time
	logger   *slog.Logger
}

// NewAlerter creates an Alerter delivering to the given senders. A zero
// cooldown disables deduplication.
func NewAlerter(senders []Sender, cooldown time.Duration, logger *slog.Logger) *Alerter {
	return &Alerter{
		senders:  senders,
		cooldown: cooldown,
		seen:     make(map[string]time.Time),
		logger:   logger.With(slog.String("component", "alerter")),
	}
}

// Alert sends one message covering every opportunity not already alerted
// within the cooldown window. Opportunities should arrive most profitable
// first; the order is preserved in the message.
func (a *Alerter) Alert(ctx context.Context, opps []domain.Opportunity) error {
	if len(a.senders) == 0 || len(opps) == 0 {
		return nil
	}

	now := time.Now()
	var lines []string
	for _, opp := range opps {
		sig := signature(opp)
		if last, ok := a.seen[sig]; ok && a.cooldown > 0 && now.Sub(last) < a.cooldown {
			continue
		}
		a.seen[sig] = now
		lines = append(lines, formatOpportunity(opp))
	}
	if len(lines) == 0 {
		return nil
	}

	// Drop stale signatures so the map does not grow without bound.
	for sig, last := range a.seen {
		if a.cooldown > 0 && now.Sub(last) > 2*a.cooldown {
			delete(a.seen, sig)
		}
	}

	text := fmt.Sprintf("Flip opportunities (%d new):\n%s", len(lines), strings.Join(lines, "\n"))
	return a.dispatch(ctx, text)
}

// signature identifies an opportunity route independently of the underlying
// order ids, so refreshed orders for the same flip do not re-alert.
func signature(opp domain.Opportunity) string {
	return fmt.Sprintf("%s|%d|%d|%s|%s",
		opp.ItemID, opp.Enchant, opp.QualityLevel, opp.BuyLocation, opp.SellLocation)
}

// formatOpportunity renders one opportunity as a single alert line.
func formatOpportunity(opp domain.Opportunity) string {
	return fmt.Sprintf("%s (%s): buy %d @ %s, sell %d @ %s, +%d silver (%.1f%% ROI, x%d = %d total)",
		opp.ItemName, opp.QualityName,
		opp.BuyPrice, opp.BuyLocation,
		opp.SellPrice, opp.SellLocation,
		opp.ProfitPerUnit, opp.ROIPercent,
		opp.MaxQuantity, opp.TotalProfit,
	)
}

// dispatch iterates over all senders. Errors from individual senders are
// collected and returned as a combined error; a single sender failure does
// not prevent delivery to the remaining senders.
func (a *Alerter) dispatch(ctx context.Context, text string) error {
	var errs []string
	for _, s := range a.senders {
		if err := s.Send(ctx, text); err != nil {
			a.logger.ErrorContext(ctx, "sender failed",
				slog.String("sender", s.Name()),
				slog.String("error", err.Error()),
			)
			errs = append(errs, fmt.Sprintf("%s: %v", s.Name(), err))
		} else {
			a.logger.DebugContext(ctx, "alert sent",
				slog.String("sender", s.Name()),
			)
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("notify: %d sender(s) failed: %s", len(errs), strings.Join(errs, "; "))
	}
	return nil
}
