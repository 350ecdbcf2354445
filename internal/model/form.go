package model

// Form is a candidate building archetype a parcel could be redeveloped into.
type Form string

const (
	FormResidential Form = "residential"
	FormOffice      Form = "office"
	FormRetail      Form = "retail"
	FormIndustrial  Form = "industrial"
	FormMixed       Form = "mixed"
)

// GeneralType buckets forms for development-limit accounting.
type GeneralType string

const (
	TypeResidential GeneralType = "Residential"
	TypeOffice      GeneralType = "Office"
	TypeRetail      GeneralType = "Retail"
	TypeIndustrial  GeneralType = "Industrial"
)

// GeneralType maps a form to its limit bucket. Mixed counts as residential
// because its unit count dominates the program.
func (f Form) GeneralType() GeneralType {
	switch f {
	case FormOffice:
		return TypeOffice
	case FormRetail:
		return TypeRetail
	case FormIndustrial:
		return TypeIndustrial
	default:
		return TypeResidential
	}
}

// Residential reports whether the form carries dwelling units.
func (f Form) Residential() bool {
	return f == FormResidential || f == FormMixed
}

// FormCandidate is a hypothetical development outcome for one parcel. It is
// created transiently during feasibility evaluation and never persisted.
type FormCandidate struct {
	Form         Form
	BuildingType string

	FAR  float64 // density tier the candidate builds at
	Sqft float64 // total built square feet

	Units           int // dwelling units, 0 for non-residential forms
	AffordableUnits int // inclusionary units included in Units

	Cost    float64 // $ construction cost
	Revenue float64 // $ expected sale/capitalized revenue
}
