package domain

import "time"

// Opportunity is a profitable offer/request pair across two distinct
// locations for the same item variant. Opportunities are derived on demand
// and never stored.
type Opportunity struct {
	ID            string    `json:"id"`
	ItemID        string    `json:"item_id"`
	ItemName      string    `json:"item_name"`
	Enchant       int       `json:"enchant"`
	QualityLevel  int       `json:"quality_level"`
	QualityName   string    `json:"quality_name"`
	BuyLocation   string    `json:"buy_location"`
	SellLocation  string    `json:"sell_location"`
	BuyPrice      int64     `json:"buy_price"`
	SellPrice     int64     `json:"sell_price"`
	ProfitPerUnit int64     `json:"profit_per_unit"`
	ROIPercent    float64   `json:"roi_percentage"`
	MaxQuantity   int64     `json:"max_quantity"`
	TotalProfit   int64     `json:"total_profit"`
	OfferID       string    `json:"offer_id"`
	RequestID     string    `json:"request_id"`
	DetectedAt    time.Time `json:"detected_at"`
}
