package model

// Submarket is a geographic zone with its own price and rent level.
// Units:
// - PricePerSqft: $/sqft sale price (residential)
// - RentPerSqft: $/sqft/year asking rent (non-residential)
// - ResSupply, ResDemand: dwelling units
// - NonResSupply, NonResDemand: job-equivalents
type Submarket struct {
	Zone int

	PricePerSqft float64
	RentPerSqft  float64

	ResSupply float64
	ResDemand float64

	NonResSupply float64
	NonResDemand float64
}
