package domain

// Status is the live ingestion status consumed by the presentation layer.
type Status struct {
	Connected    bool   `json:"connection_established"`
	Player       string `json:"current_player"`
	Location     string `json:"current_location"`
	OfferCount   int    `json:"offers_count"`
	RequestCount int    `json:"requests_count"`
	Running      bool   `json:"sniffer_running"`
}
