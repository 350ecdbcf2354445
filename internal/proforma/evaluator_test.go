package proforma

import (
	"math"
	"testing"

	"github.com/lethphd/bayarea-urbansim/internal/config"
	"github.com/lethphd/bayarea-urbansim/internal/model"
	"github.com/lethphd/bayarea-urbansim/internal/policy"
)

const tol = 1e-9

func approx(a, b float64) bool {
	return math.Abs(a-b) < tol
}

// testEvaluator has no height premiums or shifters: cost is sqft * base.
func testEvaluator() *Evaluator {
	return &Evaluator{
		Proforma: config.ProformaConfig{
			CapRate:      0.05,
			ProfitWeight: 1.0, // score == profit margin
			CostPerSqft: map[string]float64{
				"residential": 100,
				"office":      100,
			},
			AMIPriceFactor: 0.4,
			AveSqftPerUnit: 1000,
		},
	}
}

func resCandidate() Candidate {
	return Candidate{Form: model.FormResidential, Sqft: 10000, Units: 10, FAR: 1}
}

func TestEvaluateResidential(t *testing.T) {
	e := testEvaluator()
	rules := &policy.ActiveRules{}

	// cost = 10000 * 100 = 1M; revenue = 10 units * 1000 sqft * $200 = 2M.
	res, ok := e.Evaluate(model.Parcel{SizeSqft: 10000}, resCandidate(),
		Prices{PricePerSqft: 200}, rules, 0)
	if !ok {
		t.Fatal("profitable candidate should be feasible")
	}
	if !approx(res.Candidate.Cost, 1_000_000) {
		t.Errorf("cost = %v, want 1M", res.Candidate.Cost)
	}
	if !approx(res.Candidate.Revenue, 2_000_000) {
		t.Errorf("revenue = %v, want 2M", res.Candidate.Revenue)
	}
	if !approx(res.Profit, 1_000_000) {
		t.Errorf("profit = %v, want 1M", res.Profit)
	}
	if !approx(res.Margin, 1.0) || !approx(res.Score, 1.0) {
		t.Errorf("margin = %v score = %v, want both 1.0 at profit_weight 1", res.Margin, res.Score)
	}
}

func TestEvaluateNonResidentialCapitalizesRent(t *testing.T) {
	e := testEvaluator()
	cand := Candidate{Form: model.FormOffice, Sqft: 10000, FAR: 1}

	// revenue = 10000 sqft * $6/yr / 0.05 cap rate = 1.2M; cost = 1M.
	res, ok := e.Evaluate(model.Parcel{SizeSqft: 10000}, cand,
		Prices{RentPerSqft: 6}, &policy.ActiveRules{}, 0)
	if !ok {
		t.Fatal("candidate should be feasible")
	}
	if !approx(res.Candidate.Revenue, 1_200_000) {
		t.Errorf("revenue = %v, want 1.2M", res.Candidate.Revenue)
	}
	if !approx(res.Profit, 200_000) {
		t.Errorf("profit = %v, want 200k", res.Profit)
	}
}

func TestEvaluateInfeasibleStillPopulated(t *testing.T) {
	e := testEvaluator()

	// revenue = 10 * 1000 * $90 = 900k < 1M cost.
	res, ok := e.Evaluate(model.Parcel{SizeSqft: 10000}, resCandidate(),
		Prices{PricePerSqft: 90}, &policy.ActiveRules{}, 0)
	if ok {
		t.Fatal("money-losing candidate should be infeasible")
	}
	if !approx(res.Profit, -100_000) {
		t.Errorf("profit = %v, want -100k (needed for subsidy gap sizing)", res.Profit)
	}
}

func TestEvaluateSubsidyFlipsFeasibility(t *testing.T) {
	e := testEvaluator()
	parcel := model.Parcel{SizeSqft: 10000}
	prices := Prices{PricePerSqft: 90} // 100k short

	if _, ok := e.Evaluate(parcel, resCandidate(), prices, &policy.ActiveRules{}, 0); ok {
		t.Fatal("unsubsidized candidate should be infeasible")
	}
	res, ok := e.Evaluate(parcel, resCandidate(), prices, &policy.ActiveRules{}, 150_000)
	if !ok {
		t.Fatal("subsidy covering the gap should make the candidate feasible")
	}
	if !approx(res.Profit, 50_000) {
		t.Errorf("profit = %v, want 50k after subsidy", res.Profit)
	}

	// Grants are sized to the gap exactly; break-even with a subsidy builds.
	if _, ok := e.Evaluate(parcel, resCandidate(), prices, &policy.ActiveRules{}, 100_000); !ok {
		t.Error("exact-gap subsidy should make the candidate buildable")
	}
}

// A profitability shift policy moves the score by exactly its shift for
// matching parcels and leaves everyone else alone.
func TestEvaluateAdjustmentShift(t *testing.T) {
	e := testEvaluator()
	pred, err := policy.CompilePredicate("TPPID() > 0")
	if err != nil {
		t.Fatal(err)
	}
	rules := &policy.ActiveRules{
		Adjustments: []policy.Adjustment{{Name: "ceqa", Pred: pred, Shift: 0.01}},
	}

	// revenue = 10 * 1000 * $103 = 1.03M vs 1M cost: margin 3%.
	prices := Prices{PricePerSqft: 103}
	inTPP := model.Parcel{SizeSqft: 10000, TPPID: 7}
	outside := model.Parcel{SizeSqft: 10000}

	resIn, _ := e.Evaluate(inTPP, resCandidate(), prices, rules, 0)
	resOut, _ := e.Evaluate(outside, resCandidate(), prices, rules, 0)

	if !approx(resOut.Score, 0.03) {
		t.Errorf("non-TPP score = %v, want 0.03", resOut.Score)
	}
	if !approx(resIn.Score, 0.04) {
		t.Errorf("TPP score = %v, want 0.04 (3%% margin + 1 point shift)", resIn.Score)
	}
}

func TestEvaluateLandValueTax(t *testing.T) {
	e := testEvaluator()
	rules := &policy.ActiveRules{
		LandValueTax: &policy.LandValueTax{
			Breaks: []float64{0, 1},
			Rates:  []float64{0.10, 0},
		},
	}

	// Built density 0.5 lands in the 10% band.
	parcel := model.Parcel{SizeSqft: 10000, BuildingSqft: 5000, BuildingAge: 50}
	res, ok := e.Evaluate(parcel, resCandidate(), Prices{PricePerSqft: 200}, rules, 0)
	if !ok {
		t.Fatal("candidate should remain feasible")
	}
	if !approx(res.Profit, 900_000) {
		t.Errorf("profit = %v, want 900k after 10%% land value tax", res.Profit)
	}

	// The tax never applies to losses.
	lossRes, _ := e.Evaluate(parcel, resCandidate(), Prices{PricePerSqft: 90}, rules, 0)
	if !approx(lossRes.Profit, -100_000) {
		t.Errorf("loss = %v, want untaxed -100k", lossRes.Profit)
	}
}

func TestEvaluateInclusionaryDiscountsAffordableUnits(t *testing.T) {
	e := testEvaluator()
	rules := &policy.ActiveRules{Inclusionary: map[string]float64{"Oakland": 0.2}}
	parcel := model.Parcel{SizeSqft: 10000, Jurisdiction: "Oakland"}

	res, _ := e.Evaluate(parcel, resCandidate(), Prices{PricePerSqft: 200}, rules, 0)

	if res.Candidate.AffordableUnits != 2 {
		t.Fatalf("affordable units = %d, want 2 of 10", res.Candidate.AffordableUnits)
	}
	// 8 market units at $200/sqft plus 2 affordable at 40% of market.
	want := 8*1000*200.0 + 2*1000*200.0*0.4
	if !approx(res.Candidate.Revenue, want) {
		t.Errorf("revenue = %v, want %v", res.Candidate.Revenue, want)
	}
}

func TestEvaluateHeightPremiumAndShifters(t *testing.T) {
	e := testEvaluator()
	e.Proforma.HeightPremiums = []config.HeightPremium{
		{MaxHeight: 35, Factor: 1.0},
		{MaxHeight: 85, Factor: 1.2},
	}
	e.CostShifters = map[string]float64{"San Francisco County": 1.5}
	e.PriceShifters = map[string]float64{"sf-01": 1.1}

	parcel := model.Parcel{SizeSqft: 10000, County: "San Francisco County", PDAID: "sf-01"}
	cand := resCandidate()
	cand.Height = 60 // second premium tier

	res, _ := e.Evaluate(parcel, cand, Prices{PricePerSqft: 200}, &policy.ActiveRules{}, 0)

	if !approx(res.Candidate.Cost, 10000*100*1.2*1.5) {
		t.Errorf("cost = %v, want premium and county shifter applied", res.Candidate.Cost)
	}
	if !approx(res.Candidate.Revenue, 2_000_000*1.1) {
		t.Errorf("revenue = %v, want PDA shifter applied", res.Candidate.Revenue)
	}
}

func TestEvaluateUnknownFormInfeasible(t *testing.T) {
	e := testEvaluator()
	cand := Candidate{Form: model.FormRetail, Sqft: 5000} // no cost entry
	if _, ok := e.Evaluate(model.Parcel{SizeSqft: 10000}, cand, Prices{RentPerSqft: 30}, &policy.ActiveRules{}, 0); ok {
		t.Fatal("form without a cost table entry should be infeasible")
	}
}

func TestBuildingTypeFor(t *testing.T) {
	cases := map[model.Form]string{
		model.FormResidential: "HM",
		model.FormOffice:      "OF",
		model.FormRetail:      "RS",
		model.FormIndustrial:  "IL",
		model.FormMixed:       "MR",
	}
	for form, want := range cases {
		if got := BuildingTypeFor(form); got != want {
			t.Errorf("BuildingTypeFor(%s) = %q, want %q", form, got, want)
		}
	}
}
