package models

import (
	"github.com/lethphd/bayarea-urbansim/internal/model"
	"github.com/lethphd/bayarea-urbansim/internal/sim"
)

// ErrorDetail is the error payload shape shared by all endpoints.
type ErrorDetail struct {
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
}

type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// SimulateResponse returns the run ledger plus final market state.
type SimulateResponse struct {
	RunID    string `json:"run_id,omitempty"`
	Scenario string `json:"scenario"`

	Ledger     []sim.LedgerRow          `json:"ledger"`
	Events     []model.DevelopmentEvent `json:"events"`
	Submarkets []*model.Submarket       `json:"submarkets"`
}

// Ranking is one row of feasibility ranking output.
type Ranking struct {
	Rank         int     `json:"rank"`
	ParcelID     int64   `json:"parcel_id"`
	Jurisdiction string  `json:"jurisdiction"`
	Form         string  `json:"form"`
	Units        int     `json:"units"`
	Sqft         float64 `json:"sqft"`
	Cost         float64 `json:"cost"`
	Profit       float64 `json:"profit"`
	Score        float64 `json:"score"`
}

type RankResponse struct {
	Scenario string    `json:"scenario"`
	Rankings []Ranking `json:"rankings"`
}

// ScenariosResponse lists the scenario identifiers the loaded configuration
// mentions anywhere.
type ScenariosResponse struct {
	Default   string   `json:"default"`
	Scenarios []string `json:"scenarios"`
}
