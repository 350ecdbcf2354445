// Package equilibrate adjusts submarket prices until modeled supply clears
// against demand, within a bounded number of rounds. It is a fixed-point
// approximation, not a convergence-tested solver: the iteration cap is the
// only give-up rule.
package equilibrate

import (
	"fmt"
	"log/slog"
	"math"

	"github.com/lethphd/bayarea-urbansim/internal/config"
	"github.com/lethphd/bayarea-urbansim/internal/model"
)

// Status is the terminal state of one equilibration call.
type Status string

const (
	Converged            Status = "converged"
	MaxIterationsReached Status = "max_iterations_reached"
)

// Field selects which submarket columns the invocation adjusts. Price and
// rent are independently configured invocations of the same algorithm over
// their own supply/demand pair.
type Field struct {
	Name string

	Get func(*model.Submarket) float64
	Set func(*model.Submarket, float64)

	Supply    func(*model.Submarket) float64
	Demand    func(*model.Submarket) float64
	SetDemand func(*model.Submarket, float64)
}

func PriceField() Field {
	return Field{
		Name:      "price",
		Get:       func(s *model.Submarket) float64 { return s.PricePerSqft },
		Set:       func(s *model.Submarket, v float64) { s.PricePerSqft = v },
		Supply:    func(s *model.Submarket) float64 { return s.ResSupply },
		Demand:    func(s *model.Submarket) float64 { return s.ResDemand },
		SetDemand: func(s *model.Submarket, v float64) { s.ResDemand = v },
	}
}

func RentField() Field {
	return Field{
		Name:      "rent",
		Get:       func(s *model.Submarket) float64 { return s.RentPerSqft },
		Set:       func(s *model.Submarket, v float64) { s.RentPerSqft = v },
		Supply:    func(s *model.Submarket) float64 { return s.NonResSupply },
		Demand:    func(s *model.Submarket) float64 { return s.NonResDemand },
		SetDemand: func(s *model.Submarket, v float64) { s.NonResDemand = v },
	}
}

// Result summarizes one equilibration call for diagnostics.
type Result struct {
	Field      string
	Iterations int
	Status     Status
}

// Solver runs one configured price-adjustment column. It keeps the final
// per-zone multiplier between calls so warm-started runs resume from the
// prior year's operating point.
type Solver struct {
	Field Field
	Cfg   config.EquilibrationConfig

	mult     func(float64) float64
	lastMult map[int]float64
}

// NewSolver validates the configuration; an unknown multiplier function is a
// configuration error.
func NewSolver(field Field, cfg config.EquilibrationConfig) (*Solver, error) {
	mult, err := multiplierFunc(cfg.MultiplierFunc)
	if err != nil {
		return nil, err
	}
	return &Solver{
		Field:    field,
		Cfg:      cfg,
		mult:     mult,
		lastMult: map[int]float64{},
	}, nil
}

// Run iterates price adjustment over the submarkets. Demand is elastic: it
// is recomputed from the updated price every iteration, so the loop models
// the demand response rather than scaling toward a fixed target. The loop
// never exceeds Cfg.Iterations even when supply and demand remain
// unbalanced.
func (sv *Solver) Run(submarkets []*model.Submarket) Result {
	cfg := sv.Cfg

	type state struct {
		s          *model.Submarket
		basePrice  float64
		baseDemand float64
		demand     float64
	}
	states := make([]state, 0, len(submarkets))
	for _, s := range submarkets {
		if sv.Field.Get(s) <= 0 || sv.Field.Supply(s) <= 0 {
			continue
		}
		st := state{
			s:          s,
			basePrice:  sv.Field.Get(s),
			baseDemand: sv.Field.Demand(s),
			demand:     sv.Field.Demand(s),
		}
		if cfg.WarmStart {
			// Resume from the prior call's operating point.
			if m, ok := sv.lastMult[s.Zone]; ok && m > 0 {
				price := clipFinal(st.basePrice*clip(m, cfg.ClipChangeLow, cfg.ClipChangeHigh), cfg)
				sv.Field.Set(s, price)
				st.demand = st.baseDemand * math.Pow(price/st.basePrice, -cfg.Elasticity)
			}
		}
		states = append(states, st)
	}

	const tol = 1e-9
	res := Result{Field: sv.Field.Name, Status: MaxIterationsReached}

	for it := 0; it < cfg.Iterations; it++ {
		res.Iterations = it + 1
		moved := false
		for i := range states {
			st := &states[i]
			ratio := st.demand / sv.Field.Supply(st.s)
			m := clip(sv.mult(ratio), cfg.ClipChangeLow, cfg.ClipChangeHigh)
			if math.Abs(m-1) > tol {
				moved = true
			}
			price := sv.Field.Get(st.s) * m
			sv.Field.Set(st.s, price)
			// Elastic demand response to the new price.
			st.demand = st.baseDemand * math.Pow(price/st.basePrice, -cfg.Elasticity)
			sv.Field.SetDemand(st.s, st.demand)
			sv.lastMult[st.s.Zone] = m
		}
		if !moved {
			res.Status = Converged
			break
		}
	}

	for i := range states {
		st := &states[i]
		sv.Field.Set(st.s, clipFinal(sv.Field.Get(st.s), cfg))
	}

	if res.Status == MaxIterationsReached {
		slog.Warn("equilibration hit iteration bound without stabilizing",
			"field", sv.Field.Name,
			"iterations", res.Iterations,
			"submarkets", len(states),
		)
	}
	return res
}

// multiplierFunc maps a config name to a supply/demand-ratio response.
// All variants are the identity at ratio 1.
func multiplierFunc(name string) (func(float64) float64, error) {
	switch name {
	case "ratio":
		return func(r float64) float64 { return r }, nil
	case "sqrt_ratio":
		return func(r float64) float64 { return math.Sqrt(r) }, nil
	case "log_ratio":
		return func(r float64) float64 {
			if r <= 0 {
				return 1
			}
			return 1 + math.Log(r)
		}, nil
	default:
		return nil, fmt.Errorf("unknown multiplier_func %q", name)
	}
}

func clipFinal(price float64, cfg config.EquilibrationConfig) float64 {
	if cfg.ClipFinalLow != nil && price < *cfg.ClipFinalLow {
		price = *cfg.ClipFinalLow
	}
	if cfg.ClipFinalHigh != nil && price > *cfg.ClipFinalHigh {
		price = *cfg.ClipFinalHigh
	}
	return price
}

func clip(v, low, high float64) float64 {
	if v < low {
		return low
	}
	if v > high {
		return high
	}
	return v
}
