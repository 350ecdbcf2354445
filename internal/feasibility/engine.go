// Package feasibility scores parcels against their allowed building forms
// and ranks them by profitability. Evaluation is embarrassingly parallel
// across parcels: shared inputs are read-only and each worker writes only
// its own slots.
package feasibility

import (
	"runtime"
	"sort"
	"sync"

	"github.com/lethphd/bayarea-urbansim/internal/model"
	"github.com/lethphd/bayarea-urbansim/internal/policy"
	"github.com/lethphd/bayarea-urbansim/internal/proforma"
)

// ScoredParcel pairs a parcel with its best pro forma outcome.
type ScoredParcel struct {
	Parcel model.Parcel
	Result proforma.Result
	// Feasible is false for rankings produced with keepInfeasible, where
	// money-losing candidates are retained for subsidy sizing.
	Feasible bool
}

// Engine enumerates allowed forms per parcel and ranks the results.
type Engine struct {
	Eval *proforma.Evaluator

	// DensityTiers are the fractions of the zoned maximum enumerated per
	// form, ascending.
	DensityTiers []float64
	// DenyMaxDensityTier drops the single most intensive tier even though
	// zoning nominally permits it.
	DenyMaxDensityTier bool

	AveSqftPerUnit float64
	MinUnitSize    float64

	// Workers bounds the evaluation pool; <= 0 means GOMAXPROCS.
	Workers int
}

var defaultTiers = []float64{0.25, 0.5, 0.75, 1.0}

// Rank produces the descending profitability ranking of feasible parcels.
// Static parcels, filtered parcels and parcels with no feasible form are
// dropped, not errors.
func (e *Engine) Rank(parcels []*model.Parcel, submarkets map[int]*model.Submarket, rules *policy.ActiveRules, subsidies map[int64]float64, static map[int64]bool) []ScoredParcel {
	return e.rank(parcels, submarkets, rules, subsidies, static, false)
}

// RankAll is the provisional pass: it retains the best candidate per parcel
// even when unprofitable, so the accounts engine can size subsidy gaps and
// order disbursement.
func (e *Engine) RankAll(parcels []*model.Parcel, submarkets map[int]*model.Submarket, rules *policy.ActiveRules, static map[int64]bool) []ScoredParcel {
	return e.rank(parcels, submarkets, rules, nil, static, true)
}

func (e *Engine) rank(parcels []*model.Parcel, submarkets map[int]*model.Submarket, rules *policy.ActiveRules, subsidies map[int64]float64, static map[int64]bool, keepInfeasible bool) []ScoredParcel {
	results := make([]*ScoredParcel, len(parcels))

	workers := e.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	jobs := make(chan int)
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				p := parcels[i]
				if static[p.ID] {
					continue
				}
				if !e.Eval.Eligible(*p, rules) {
					continue
				}
				sub := submarkets[p.Zone]
				if sub == nil {
					continue
				}
				prices := proforma.Prices{PricePerSqft: sub.PricePerSqft, RentPerSqft: sub.RentPerSqft}
				if sp, ok := e.best(*p, prices, rules, subsidies[p.ID], keepInfeasible); ok {
					results[i] = &sp
				}
			}
		}()
	}
	for i := range parcels {
		jobs <- i
	}
	close(jobs)
	wg.Wait()

	out := make([]ScoredParcel, 0, len(parcels))
	for _, r := range results {
		if r != nil {
			out = append(out, *r)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Result.Score != out[j].Result.Score {
			return out[i].Result.Score > out[j].Result.Score
		}
		if out[i].Result.Candidate.Cost != out[j].Result.Candidate.Cost {
			return out[i].Result.Candidate.Cost < out[j].Result.Candidate.Cost
		}
		return out[i].Parcel.ID < out[j].Parcel.ID
	})
	return out
}

// best evaluates every allowed candidate and keeps the highest-scoring one.
// Ties break toward lower construction cost for determinism.
func (e *Engine) best(p model.Parcel, prices proforma.Prices, rules *policy.ActiveRules, subsidy float64, keepInfeasible bool) (ScoredParcel, bool) {
	var bestRes proforma.Result
	bestFeasible := false
	found := false

	for _, cand := range e.Candidates(p) {
		res, feasible := e.Eval.Evaluate(p, cand, prices, rules, subsidy)
		if res.Candidate.Sqft == 0 {
			continue
		}
		if !feasible && !keepInfeasible {
			continue
		}
		if !found ||
			res.Score > bestRes.Score ||
			(res.Score == bestRes.Score && res.Candidate.Cost < bestRes.Candidate.Cost) {
			bestRes = res
			bestFeasible = feasible
			found = true
		}
	}
	if !found {
		return ScoredParcel{}, false
	}
	return ScoredParcel{Parcel: p, Result: bestRes, Feasible: bestFeasible}, true
}

// Candidates enumerates the building forms and density tiers the parcel's
// zoning allows.
func (e *Engine) Candidates(p model.Parcel) []proforma.Candidate {
	tiers := e.DensityTiers
	if len(tiers) == 0 {
		tiers = defaultTiers
	}
	if e.DenyMaxDensityTier && len(tiers) > 1 {
		tiers = tiers[:len(tiers)-1]
	}

	unitSqft := e.AveSqftPerUnit
	if unitSqft < e.MinUnitSize {
		unitSqft = e.MinUnitSize
	}
	if unitSqft <= 0 {
		unitSqft = 1000
	}

	var out []proforma.Candidate

	// Residential allowed when the zone carries a dwelling-unit density.
	if p.MaxDUA > 0 {
		maxUnits := p.MaxDUA * p.Acres()
		for _, tier := range tiers {
			units := int(tier * maxUnits)
			if units < 1 {
				continue
			}
			sqft := float64(units) * unitSqft
			if p.MaxFAR > 0 && sqft > p.MaxFAR*p.SizeSqft {
				continue
			}
			cand := proforma.Candidate{
				Form:   model.FormResidential,
				FAR:    sqft / p.SizeSqft,
				Height: heightFor(sqft, p.SizeSqft),
				Sqft:   sqft,
				Units:  units,
			}
			if p.MaxHeight > 0 && cand.Height > p.MaxHeight {
				continue
			}
			out = append(out, cand)
		}
	}

	// Non-residential forms allowed when the zone carries an FAR.
	if p.MaxFAR > 0 {
		for _, form := range []model.Form{model.FormOffice, model.FormRetail, model.FormIndustrial} {
			for _, tier := range tiers {
				sqft := tier * p.MaxFAR * p.SizeSqft
				if sqft < 1000 {
					continue
				}
				cand := proforma.Candidate{
					Form:   form,
					FAR:    tier * p.MaxFAR,
					Height: heightFor(sqft, p.SizeSqft),
					Sqft:   sqft,
				}
				if p.MaxHeight > 0 && cand.Height > p.MaxHeight {
					continue
				}
				out = append(out, cand)
			}
		}
	}
	return out
}

// heightFor approximates building height assuming full lot coverage at 12ft
// per story.
func heightFor(sqft, lotSqft float64) float64 {
	if lotSqft <= 0 {
		return 0
	}
	stories := sqft / lotSqft
	if stories < 1 {
		stories = 1
	}
	return stories * 12
}
