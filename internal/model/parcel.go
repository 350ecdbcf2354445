package model

// Parcel is one unit of land with its zoning envelope, existing building,
// and geographic policy tags.
// Units:
// - SizeSqft, BuildingSqft: square feet
// - MaxFAR: floor-area ratio (built sqft / lot sqft)
// - MaxDUA: dwelling units per acre
// - MaxHeight: feet
type Parcel struct {
	ID            int64
	Jurisdiction  string
	County        string
	Superdistrict int
	Zone          int // submarket the parcel prices against

	SizeSqft  float64
	MaxFAR    float64
	MaxDUA    float64
	MaxHeight float64

	// Existing building, zero-valued when the parcel is vacant.
	BuildingType     string
	BuildingAge      int
	BuildingSqft     float64
	ResidentialUnits int

	// Geographic policy tags.
	PDAID             string // empty = not in a priority development area
	TPPID             int    // 0 = not in a transit priority project area
	VMTResCategory    string // very-high .. low
	VMTNonResCategory string

	// Developability flags.
	NoDev       bool // flagged non-developable in the base data
	ManualNoDev bool // hand-flagged non-developable
	SBExempt    bool // exempt from discretionary review
}

// Acres returns the lot size in acres.
func (p *Parcel) Acres() float64 {
	return p.SizeSqft / 43560.0
}

// BuiltDensity is the existing floor-area ratio, used by the land value tax
// step function.
func (p *Parcel) BuiltDensity() float64 {
	if p.SizeSqft <= 0 {
		return 0
	}
	return p.BuildingSqft / p.SizeSqft
}

// ApplyEvent replaces the parcel's building-level fields with the outcome of
// an accepted development event. This is the only mutation parcels undergo
// after loading.
func (p *Parcel) ApplyEvent(ev DevelopmentEvent) {
	p.BuildingType = ev.BuildingType
	p.BuildingAge = 0
	p.BuildingSqft = ev.Sqft
	p.ResidentialUnits = ev.Units
}
