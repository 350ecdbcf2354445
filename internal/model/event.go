package model

// DevelopmentEvent records one accepted development.
// This is the primary artifact for "what got built" in a simulation year.
type DevelopmentEvent struct {
	Year     int
	ParcelID int64

	Jurisdiction string
	Zone         int

	Form         Form
	BuildingType string

	Sqft            float64
	Units           int
	AffordableUnits int

	Cost    float64
	Revenue float64
	Subsidy float64 // $ disbursed from policy accounts, 0 for market-rate
	Score   float64 // profitability score at acceptance time
}

// Subsidized reports whether the event drew on a policy account.
func (ev DevelopmentEvent) Subsidized() bool {
	return ev.Subsidy > 0
}
