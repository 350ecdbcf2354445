package models

// SimulateRequest launches a simulation run. Paths are resolved against the
// server's data directory; Scenario falls back to the configured default
// when empty.
type SimulateRequest struct {
	Scenario  string `json:"scenario"`
	StartYear int    `json:"start_year" binding:"required"`
	Years     int    `json:"years" binding:"required,min=1"`

	ParcelsFile    string `json:"parcels_file" binding:"required"`
	SubmarketsFile string `json:"submarkets_file" binding:"required"`

	// Persist stores the run in the server's database and returns a run id.
	Persist bool `json:"persist"`
}

// RankRequest asks for a one-shot feasibility ranking without running the
// full pipeline.
type RankRequest struct {
	Scenario       string `form:"scenario" json:"scenario"`
	ParcelsFile    string `form:"parcels_file" json:"parcels_file" binding:"required"`
	SubmarketsFile string `form:"submarkets_file" json:"submarkets_file" binding:"required"`
	Limit          int    `form:"limit" json:"limit"`
}
