package feasibility

import (
	"testing"

	"github.com/lethphd/bayarea-urbansim/internal/config"
	"github.com/lethphd/bayarea-urbansim/internal/model"
	"github.com/lethphd/bayarea-urbansim/internal/policy"
	"github.com/lethphd/bayarea-urbansim/internal/proforma"
)

func testEngine() *Engine {
	return &Engine{
		Eval: &proforma.Evaluator{
			Proforma: config.ProformaConfig{
				CapRate:      0.05,
				ProfitWeight: 1.0,
				CostPerSqft: map[string]float64{
					"residential": 100,
					"office":      100,
					"retail":      100,
					"industrial":  100,
				},
				AMIPriceFactor: 0.4,
				AveSqftPerUnit: 1000,
			},
			Feasibility: config.FeasibilityConfig{
				MinRetentionAge: 20,
				MinParcelSize:   3000,
			},
		},
		AveSqftPerUnit: 1000,
	}
}

// acreParcel is one acre of vacant residential land: 20 units max, no FAR or
// height limit.
func acreParcel(id int64, zone int) *model.Parcel {
	return &model.Parcel{
		ID: id, Jurisdiction: "Oakland", Zone: zone,
		SizeSqft: 43560, MaxDUA: 20,
	}
}

func submarkets(price float64, zones ...int) map[int]*model.Submarket {
	out := map[int]*model.Submarket{}
	for _, z := range zones {
		out[z] = &model.Submarket{Zone: z, PricePerSqft: price, RentPerSqft: 30}
	}
	return out
}

func TestCandidatesEnumeration(t *testing.T) {
	e := testEngine()
	p := model.Parcel{ID: 1, SizeSqft: 43560, MaxDUA: 20, MaxFAR: 2}

	cands := e.Candidates(p)

	res, nonRes := 0, 0
	for _, c := range cands {
		if c.Form.Residential() {
			res++
			if c.Units < 1 {
				t.Errorf("residential candidate with %d units", c.Units)
			}
		} else {
			nonRes++
		}
	}
	// 4 density tiers for residential, 4 for each of 3 non-residential forms.
	if res != 4 {
		t.Errorf("residential candidates = %d, want 4", res)
	}
	if nonRes != 12 {
		t.Errorf("non-residential candidates = %d, want 12", nonRes)
	}
}

func TestCandidatesDenyMaxDensityTier(t *testing.T) {
	e := testEngine()
	e.DenyMaxDensityTier = true
	p := model.Parcel{ID: 1, SizeSqft: 43560, MaxDUA: 20}

	maxUnits := 0
	for _, c := range e.Candidates(p) {
		if c.Units > maxUnits {
			maxUnits = c.Units
		}
	}
	// Top tier (20 units) dropped; 0.75 tier remains.
	if maxUnits != 15 {
		t.Errorf("max units = %d, want 15 with the top tier denied", maxUnits)
	}
}

func TestCandidatesHonorHeightLimit(t *testing.T) {
	e := testEngine()
	p := model.Parcel{ID: 1, SizeSqft: 10000, MaxFAR: 10, MaxHeight: 40}

	for _, c := range e.Candidates(p) {
		if c.Height > 40 {
			t.Errorf("candidate height %v exceeds the 40ft limit", c.Height)
		}
	}
}

func TestRankDescendingByScore(t *testing.T) {
	e := testEngine()
	parcels := []*model.Parcel{acreParcel(1, 1), acreParcel(2, 2)}
	subs := submarkets(150, 1)
	subs[2] = &model.Submarket{Zone: 2, PricePerSqft: 300} // zone 2 pays better

	ranked := e.Rank(parcels, subs, &policy.ActiveRules{}, nil, nil)

	if len(ranked) != 2 {
		t.Fatalf("ranked %d parcels, want 2", len(ranked))
	}
	if ranked[0].Parcel.ID != 2 {
		t.Errorf("top parcel = %d, want the high-price zone parcel 2", ranked[0].Parcel.ID)
	}
	if ranked[0].Result.Score < ranked[1].Result.Score {
		t.Error("ranking should be descending by score")
	}
}

func TestRankTieBreaksByParcelID(t *testing.T) {
	e := testEngine()
	parcels := []*model.Parcel{acreParcel(9, 1), acreParcel(3, 1), acreParcel(5, 1)}

	ranked := e.Rank(parcels, submarkets(200, 1), &policy.ActiveRules{}, nil, nil)

	if len(ranked) != 3 {
		t.Fatalf("ranked %d parcels, want 3", len(ranked))
	}
	want := []int64{3, 5, 9}
	for i, id := range want {
		if ranked[i].Parcel.ID != id {
			t.Errorf("rank %d = parcel %d, want %d", i, ranked[i].Parcel.ID, id)
		}
	}
}

func TestRankDeterministic(t *testing.T) {
	e := testEngine()
	var parcels []*model.Parcel
	for i := int64(1); i <= 50; i++ {
		parcels = append(parcels, acreParcel(i, int(i%5)+1))
	}
	subs := submarkets(200, 1, 2, 3, 4, 5)

	a := e.Rank(parcels, subs, &policy.ActiveRules{}, nil, nil)
	b := e.Rank(parcels, subs, &policy.ActiveRules{}, nil, nil)

	if len(a) != len(b) {
		t.Fatalf("run lengths differ: %d vs %d", len(a), len(b))
	}
	for i := range a {
		if a[i].Parcel.ID != b[i].Parcel.ID || a[i].Result.Score != b[i].Result.Score {
			t.Fatalf("rank %d differs between runs: parcel %d/%v vs %d/%v",
				i, a[i].Parcel.ID, a[i].Result.Score, b[i].Parcel.ID, b[i].Result.Score)
		}
	}
}

func TestRankExcludesStaticAndUnpriced(t *testing.T) {
	e := testEngine()
	parcels := []*model.Parcel{acreParcel(1, 1), acreParcel(2, 1), acreParcel(3, 99)}
	static := map[int64]bool{2: true}

	ranked := e.Rank(parcels, submarkets(200, 1), &policy.ActiveRules{}, nil, static)

	if len(ranked) != 1 || ranked[0].Parcel.ID != 1 {
		t.Fatalf("ranked = %v, want only parcel 1 (2 static, 3 has no submarket)", ids(ranked))
	}
}

func TestRankDropsInfeasible(t *testing.T) {
	e := testEngine()
	parcels := []*model.Parcel{acreParcel(1, 1)}

	// $50/sqft revenue against $100/sqft cost: nothing pencils.
	ranked := e.Rank(parcels, submarkets(50, 1), &policy.ActiveRules{}, nil, nil)
	if len(ranked) != 0 {
		t.Fatalf("ranked %d parcels, want 0", len(ranked))
	}
}

func TestRankAllKeepsInfeasible(t *testing.T) {
	e := testEngine()
	parcels := []*model.Parcel{acreParcel(1, 1)}

	ranked := e.RankAll(parcels, submarkets(50, 1), &policy.ActiveRules{}, nil)

	if len(ranked) != 1 {
		t.Fatalf("provisional ranking kept %d parcels, want 1", len(ranked))
	}
	if ranked[0].Feasible {
		t.Error("money-losing candidate should be marked infeasible")
	}
	if ranked[0].Result.Profit >= 0 {
		t.Errorf("profit = %v, want negative (sizes the subsidy gap)", ranked[0].Result.Profit)
	}
}

func TestRankSubsidyChangesOutcome(t *testing.T) {
	e := testEngine()
	parcels := []*model.Parcel{acreParcel(1, 1)}
	subs := submarkets(95, 1) // each tier loses 5% of cost

	if got := e.Rank(parcels, subs, &policy.ActiveRules{}, nil, nil); len(got) != 0 {
		t.Fatal("unsubsidized parcel should not rank")
	}

	// The cheapest tier (5 units, 500k cost) loses 25k; a larger subsidy
	// flips it feasible.
	subsidies := map[int64]float64{1: 30_000}
	got := e.Rank(parcels, subs, &policy.ActiveRules{}, subsidies, nil)
	if len(got) != 1 {
		t.Fatal("subsidized parcel should rank")
	}
}

func ids(ranked []ScoredParcel) []int64 {
	out := make([]int64, len(ranked))
	for i, sp := range ranked {
		out[i] = sp.Parcel.ID
	}
	return out
}
