package sniffer

import (
	"encoding/json"
	"strconv"
	"strings"
	"time"

	"github.com/albionflip/flipperd/internal/domain"
)

// Fragment field names as emitted by the capture client.
const (
	fieldID       = "Id"
	fieldItemType = "ItemTypeId"
	fieldPrice    = "UnitPriceSilver"
	fieldAmount   = "Amount"
	fieldQuality  = "QualityLevel"
	fieldEnchant  = "EnchantmentLevel"
)

// Normalize converts a raw fragment field map plus its location context into
// a canonical Order. It reports ok=false when any required field (id,
// item-type code, unit price, amount) is missing or unparseable; the caller
// drops such fragments without surfacing an error.
//
// Quality defaults to 1 and is clamped to [1,5]. An "@N" suffix on the
// item-type code carries the enchant tier; an invalid suffix leaves the raw
// code intact at enchant 0. The explicit enchant field is consulted only
// when no tier came from the suffix.
func Normalize(fields map[string]any, locationID int, items domain.ItemLookup, now time.Time) (domain.Order, bool) {
	id, ok := fieldString(fields, fieldID)
	if !ok {
		return domain.Order{}, false
	}
	rawItem, ok := fieldString(fields, fieldItemType)
	if !ok {
		return domain.Order{}, false
	}
	price, ok := fieldInt64(fields, fieldPrice)
	if !ok {
		return domain.Order{}, false
	}
	amount, ok := fieldInt64(fields, fieldAmount)
	if !ok {
		return domain.Order{}, false
	}
	quality := 1
	if q, ok := fieldInt64(fields, fieldQuality); ok {
		quality = int(q)
	}
	if quality < domain.QualityMin {
		quality = domain.QualityMin
	} else if quality > domain.QualityMax {
		quality = domain.QualityMax
	}

	itemID := rawItem
	enchant := 0
	if base, suffix, found := strings.Cut(rawItem, "@"); found {
		if n, err := strconv.Atoi(suffix); err == nil && n >= 0 {
			enchant = n
			itemID = base
		}
	}
	if enchant == 0 {
		if n, ok := fieldInt64(fields, fieldEnchant); ok && n > 0 {
			enchant = int(n)
		}
	}

	name := itemID
	if items != nil {
		if display, ok := items.DisplayName(itemID); ok {
			name = display
		}
	}

	return domain.Order{
		ID:              id,
		ItemID:          itemID,
		ItemName:        name,
		Enchant:         enchant,
		QualityLevel:    quality,
		Amount:          amount,
		UnitPriceSilver: price,
		LocationID:      locationID,
		Timestamp:       now,
	}, true
}

// fieldString coerces a fragment field to a string. Numeric ids are kept as
// their decimal representation.
func fieldString(fields map[string]any, key string) (string, bool) {
	switch v := fields[key].(type) {
	case string:
		return v, v != ""
	case json.Number:
		return v.String(), true
	default:
		return "", false
	}
}

// fieldInt64 coerces a fragment field to an int64. String and fractional
// encodings seen in the wild are accepted; anything else fails.
func fieldInt64(fields map[string]any, key string) (int64, bool) {
	switch v := fields[key].(type) {
	case json.Number:
		if n, err := v.Int64(); err == nil {
			return n, true
		}
		if f, err := v.Float64(); err == nil {
			return int64(f), true
		}
		return 0, false
	case string:
		if n, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64); err == nil {
			return n, true
		}
		return 0, false
	default:
		return 0, false
	}
}
