package sim

import (
	"github.com/lethphd/bayarea-urbansim/internal/equilibrate"
	"github.com/lethphd/bayarea-urbansim/internal/feasibility"
	"github.com/lethphd/bayarea-urbansim/internal/model"
)

// LedgerRow is one year of aggregate output.
// This is the primary artifact for "what happened" in a simulation year.
type LedgerRow struct {
	Year int

	Evaluated int // parcels with any enumerable candidate
	Feasible  int // parcels with a profitable best form
	Built     int // accepted development events

	Units           int
	AffordableUnits int
	NonResSqft      float64

	SubsidySpent     float64
	SubsidizedEvents int

	MeanPrice float64
	MeanRent  float64

	PriceIterations int
	PriceStatus     equilibrate.Status
	RentIterations  int
	RentStatus      equilibrate.Status
}

// YearResult is the full output of one annual cycle.
type YearResult struct {
	Row         LedgerRow
	Events      []model.DevelopmentEvent
	PriceResult equilibrate.Result
	RentResult  equilibrate.Result
}

// Result is the output of a multi-year run.
type Result struct {
	Scenario   string
	Ledger     []LedgerRow
	Events     []model.DevelopmentEvent
	Submarkets []*model.Submarket
}

func summarize(year int, provisional, ranked []feasibility.ScoredParcel, events []model.DevelopmentEvent, subsidies map[int64]float64, priceRes, rentRes equilibrate.Result, submarkets map[int]*model.Submarket) LedgerRow {
	row := LedgerRow{
		Year:      year,
		Evaluated: len(provisional),
		Feasible:  len(ranked),
		Built:     len(events),

		PriceIterations: priceRes.Iterations,
		PriceStatus:     priceRes.Status,
		RentIterations:  rentRes.Iterations,
		RentStatus:      rentRes.Status,
	}
	for _, ev := range events {
		row.Units += ev.Units
		row.AffordableUnits += ev.AffordableUnits
		if !ev.Form.Residential() {
			row.NonResSqft += ev.Sqft
		}
		if ev.Subsidized() {
			row.SubsidizedEvents++
		}
	}
	// Account outflow, whether or not the funded project cleared selection.
	for _, amt := range subsidies {
		row.SubsidySpent += amt
	}

	if n := len(submarkets); n > 0 {
		for _, s := range submarkets {
			row.MeanPrice += s.PricePerSqft
			row.MeanRent += s.RentPerSqft
		}
		row.MeanPrice /= float64(n)
		row.MeanRent /= float64(n)
	}
	return row
}
