package notify_test

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/albionflip/flipperd/internal/domain"
	"github.com/albionflip/flipperd/internal/notify"
)

// fakeSender records every text it is asked to deliver.
type fakeSender struct {
	name  string
	texts []string
	err   error
}

func (f *fakeSender) Send(ctx context.Context, text string) error {
	f.texts = append(f.texts, text)
	return f.err
}

func (f *fakeSender) Name() string { return f.name }

func opp(itemID string, buyLoc, sellLoc string) domain.Opportunity {
	return domain.Opportunity{
		ItemID:        itemID,
		ItemName:      itemID,
		QualityLevel:  1,
		QualityName:   "Normal",
		BuyLocation:   buyLoc,
		SellLocation:  sellLoc,
		BuyPrice:      1000,
		SellPrice:     3000,
		ProfitPerUnit: 2000,
		ROIPercent:    200,
		MaxQuantity:   5,
		TotalProfit:   10000,
	}
}

func TestAlerter_SendsToAllChannels(t *testing.T) {
	// Arrange
	tg := &fakeSender{name: "telegram"}
	dc := &fakeSender{name: "discord"}
	a := notify.NewAlerter([]notify.Sender{tg, dc}, time.Minute, slog.Default())

	// Act
	err := a.Alert(context.Background(), []domain.Opportunity{opp("T4_BAG", "Caerleon", "Bridgewatch")})

	// Assert
	require.NoError(t, err)
	require.Len(t, tg.texts, 1)
	require.Len(t, dc.texts, 1)
	assert.Contains(t, tg.texts[0], "T4_BAG")
	assert.Contains(t, tg.texts[0], "Caerleon")
}

func TestAlerter_CooldownSuppressesRepeats(t *testing.T) {
	// Arrange
	s := &fakeSender{name: "telegram"}
	a := notify.NewAlerter([]notify.Sender{s}, time.Hour, slog.Default())
	ctx := context.Background()
	same := []domain.Opportunity{opp("T4_BAG", "Caerleon", "Bridgewatch")}

	// Act - the same route twice within the cooldown window
	require.NoError(t, a.Alert(ctx, same))
	require.NoError(t, a.Alert(ctx, same))

	// Assert
	assert.Len(t, s.texts, 1)
}

func TestAlerter_NewRouteAlertsDuringCooldown(t *testing.T) {
	// Arrange
	s := &fakeSender{name: "telegram"}
	a := notify.NewAlerter([]notify.Sender{s}, time.Hour, slog.Default())
	ctx := context.Background()

	require.NoError(t, a.Alert(ctx, []domain.Opportunity{opp("T4_BAG", "Caerleon", "Bridgewatch")}))

	// Act - a different item on the same scan cadence
	require.NoError(t, a.Alert(ctx, []domain.Opportunity{
		opp("T4_BAG", "Caerleon", "Bridgewatch"),
		opp("T5_SWORD", "Caerleon", "Bridgewatch"),
	}))

	// Assert - second message covers only the new route
	require.Len(t, s.texts, 2)
	assert.NotContains(t, s.texts[1], "T4_BAG")
	assert.Contains(t, s.texts[1], "T5_SWORD")
}

func TestAlerter_ZeroCooldownDisablesDedup(t *testing.T) {
	// Arrange
	s := &fakeSender{name: "telegram"}
	a := notify.NewAlerter([]notify.Sender{s}, 0, slog.Default())
	ctx := context.Background()
	same := []domain.Opportunity{opp("T4_BAG", "Caerleon", "Bridgewatch")}

	// Act
	require.NoError(t, a.Alert(ctx, same))
	require.NoError(t, a.Alert(ctx, same))

	// Assert
	assert.Len(t, s.texts, 2)
}

func TestAlerter_SenderFailureDoesNotBlockOthers(t *testing.T) {
	// Arrange
	broken := &fakeSender{name: "telegram", err: errors.New("chat not found")}
	ok := &fakeSender{name: "discord"}
	a := notify.NewAlerter([]notify.Sender{broken, ok}, time.Minute, slog.Default())

	// Act
	err := a.Alert(context.Background(), []domain.Opportunity{opp("T4_BAG", "Caerleon", "Bridgewatch")})

	// Assert
	assert.ErrorContains(t, err, "telegram")
	assert.Len(t, ok.texts, 1)
}

func TestAlerter_NoOpportunitiesNoMessage(t *testing.T) {
	// Arrange
	s := &fakeSender{name: "telegram"}
	a := notify.NewAlerter([]notify.Sender{s}, time.Minute, slog.Default())

	// Act
	err := a.Alert(context.Background(), nil)

	// Assert
	require.NoError(t, err)
	assert.Empty(t, s.texts)
}
