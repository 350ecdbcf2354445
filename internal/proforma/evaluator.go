// Package proforma computes development cost, revenue and profitability for
// one parcel and one candidate building form. Evaluation is a pure function
// of its inputs; all market state arrives as arguments.
package proforma

import (
	"math"

	"github.com/lethphd/bayarea-urbansim/internal/config"
	"github.com/lethphd/bayarea-urbansim/internal/model"
	"github.com/lethphd/bayarea-urbansim/internal/policy"
)

// Evaluator holds the read-only tables shared by all evaluations.
type Evaluator struct {
	Proforma    config.ProformaConfig
	Feasibility config.FeasibilityConfig

	// CostShifters scale cost by county; PriceShifters scale revenue by PDA.
	CostShifters  map[string]float64
	PriceShifters map[string]float64
}

// Candidate describes the geometry of a hypothetical building, produced by
// form enumeration. The evaluator fills in its economics.
type Candidate struct {
	Form   model.Form
	FAR    float64
	Height float64 // feet
	Sqft   float64
	Units  int
}

// Result is a feasible pro forma outcome.
type Result struct {
	Candidate model.FormCandidate

	Profit       float64 // $ after taxes and subsidy
	Margin       float64 // profit / cost
	ReturnOnCost float64 // annualized yield on cost
	Score        float64 // weighted margin/return score, ranking key
}

// Prices is the submarket price snapshot an evaluation reads.
// PricePerSqft is a sale price; RentPerSqft is annual.
type Prices struct {
	PricePerSqft float64
	RentPerSqft  float64
}

// Evaluate runs the pro forma for one parcel and candidate under the active
// rules. subsidy is the policy-account offset already resolved for this
// parcel ($, 0 for none). The second return is false when the candidate is
// infeasible; that is a normal outcome, not an error. The Result is still
// populated for infeasible candidates so callers can size subsidy gaps.
func (e *Evaluator) Evaluate(parcel model.Parcel, cand Candidate, prices Prices, rules *policy.ActiveRules, subsidy float64) (Result, bool) {
	cost := e.constructionCost(parcel, cand)
	if cost <= 0 {
		return Result{}, false
	}

	affordable := 0
	if cand.Form.Residential() {
		rate := rules.InclusionaryRate(parcel.Jurisdiction)
		affordable = int(math.Round(rate * float64(cand.Units)))
	}
	revenue := e.revenue(parcel, cand, prices, affordable)

	profit := revenue - cost

	// Land value tax: a step-function share of positive profit, keyed by
	// existing built density.
	if rules.LandValueTax != nil && profit > 0 {
		profit -= profit * rules.LandValueTax.Rate(parcel.BuiltDensity())
	}

	profit += subsidy

	margin := profit / cost
	roc := revenue * e.Proforma.CapRate / cost

	w := e.Proforma.ProfitWeight
	score := w*margin + (1-w)*(roc-e.Proforma.CapRate)

	for _, adj := range rules.Adjustments {
		score = adj.Apply(score, parcel)
	}

	res := Result{
		Candidate: model.FormCandidate{
			Form:            cand.Form,
			BuildingType:    BuildingTypeFor(cand.Form),
			FAR:             cand.FAR,
			Sqft:            cand.Sqft,
			Units:           cand.Units,
			AffordableUnits: affordable,
			Cost:            cost,
			Revenue:         revenue,
		},
		Profit:       profit,
		Margin:       margin,
		ReturnOnCost: roc,
		Score:        score,
	}
	// Subsidies are sized to close the gap exactly, so a subsidized project
	// that breaks even is buildable.
	ok := score > 0 || (subsidy > 0 && profit >= 0)
	return res, ok
}

func (e *Evaluator) constructionCost(parcel model.Parcel, cand Candidate) float64 {
	base, ok := e.Proforma.CostPerSqft[string(cand.Form)]
	if !ok {
		return 0
	}
	cost := cand.Sqft * base * e.heightPremium(cand.Height)
	if shift, ok := e.CostShifters[parcel.County]; ok {
		cost *= shift
	}
	return cost
}

func (e *Evaluator) heightPremium(height float64) float64 {
	for _, tier := range e.Proforma.HeightPremiums {
		if height <= tier.MaxHeight {
			return tier.Factor
		}
	}
	if n := len(e.Proforma.HeightPremiums); n > 0 {
		return e.Proforma.HeightPremiums[n-1].Factor
	}
	return 1.0
}

func (e *Evaluator) revenue(parcel model.Parcel, cand Candidate, prices Prices, affordable int) float64 {
	var rev float64
	if cand.Form.Residential() {
		perUnitSqft := cand.Sqft
		if cand.Units > 0 {
			perUnitSqft = cand.Sqft / float64(cand.Units)
		}
		market := float64(cand.Units - affordable)
		rev = market * perUnitSqft * prices.PricePerSqft
		// Affordable units fetch the AMI-adjusted price.
		rev += float64(affordable) * perUnitSqft * prices.PricePerSqft * e.Proforma.AMIPriceFactor
	} else {
		// Non-residential revenue is capitalized rent.
		if e.Proforma.CapRate > 0 {
			rev = cand.Sqft * prices.RentPerSqft / e.Proforma.CapRate
		}
	}
	if shift, ok := e.PriceShifters[parcel.PDAID]; ok && parcel.PDAID != "" {
		rev *= shift
	}
	return rev
}

// BuildingTypeFor maps a form to the building type it produces.
func BuildingTypeFor(form model.Form) string {
	switch form {
	case model.FormResidential:
		return "HM" // multi-family
	case model.FormOffice:
		return "OF"
	case model.FormRetail:
		return "RS"
	case model.FormIndustrial:
		return "IL"
	case model.FormMixed:
		return "MR"
	default:
		return string(form)
	}
}
