package handler

import (
	"net/http"

	"github.com/albionflip/flipperd/internal/domain"
)

// OpportunityService defines the computation the arbitrage handler requires.
type OpportunityService interface {
	Opportunities(minProfit int64, minROI float64) []domain.Opportunity
}

// ArbHandler serves arbitrage opportunities filtered by caller-supplied
// thresholds, falling back to the configured defaults.
type ArbHandler struct {
	svc              OpportunityService
	defaultMinProfit int64
	defaultMinROI    float64
}

// NewArbHandler creates an ArbHandler with the given default thresholds.
func NewArbHandler(svc OpportunityService, defaultMinProfit int64, defaultMinROI float64) *ArbHandler {
	return &ArbHandler{
		svc:              svc,
		defaultMinProfit: defaultMinProfit,
		defaultMinROI:    defaultMinROI,
	}
}

// listArbResponse wraps the opportunity list response.
type listArbResponse struct {
	MinProfit     int64                `json:"min_profit"`
	MinROI        float64              `json:"min_roi"`
	Opportunities []domain.Opportunity `json:"opportunities"`
}

// ListOpportunities returns the current opportunities, most profitable
// first.
// GET /api/arbitrage?min_profit=1000&min_roi=10
func (h *ArbHandler) ListOpportunities(w http.ResponseWriter, r *http.Request) {
	minProfit := queryInt64(r, "min_profit", h.defaultMinProfit)
	minROI := queryFloat(r, "min_roi", h.defaultMinROI)

	opps := h.svc.Opportunities(minProfit, minROI)
	if opps == nil {
		opps = []domain.Opportunity{}
	}

	writeJSON(w, http.StatusOK, listArbResponse{
		MinProfit:     minProfit,
		MinROI:        minROI,
		Opportunities: opps,
	})
}
