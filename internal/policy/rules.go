package policy

import (
	"fmt"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"

	"github.com/lethphd/bayarea-urbansim/internal/model"
)

// Predicate is a compiled boolean expression over parcel attributes.
type Predicate struct {
	src     string
	program *vm.Program
}

// CompilePredicate compiles a boolean expression against the parcel schema.
// An empty source compiles to a nil predicate, which matches everything.
func CompilePredicate(src string) (*Predicate, error) {
	if src == "" {
		return nil, nil
	}
	prog, err := expr.Compile(src, expr.Env(ParcelEnv{}), expr.AsBool())
	if err != nil {
		return nil, fmt.Errorf("compile predicate %q: %w", src, err)
	}
	return &Predicate{src: src, program: prog}, nil
}

// Match evaluates the predicate for one parcel. A nil predicate matches.
func (p *Predicate) Match(parcel model.Parcel) bool {
	if p == nil {
		return true
	}
	out, err := vm.Run(p.program, ParcelEnv{Parcel: parcel})
	if err != nil {
		return false
	}
	b, ok := out.(bool)
	return ok && b
}

func (p *Predicate) String() string {
	if p == nil {
		return "<all>"
	}
	return p.src
}

// Formula is a compiled numeric expression over parcel attributes, used by
// the property-tax sending rule.
type Formula struct {
	src     string
	program *vm.Program
}

func CompileFormula(src string) (*Formula, error) {
	if src == "" {
		return nil, nil
	}
	prog, err := expr.Compile(src, expr.Env(ParcelEnv{}), expr.AsFloat64())
	if err != nil {
		return nil, fmt.Errorf("compile formula %q: %w", src, err)
	}
	return &Formula{src: src, program: prog}, nil
}

// Eval evaluates the formula for one parcel. A nil formula yields 0.
func (f *Formula) Eval(parcel model.Parcel) float64 {
	if f == nil {
		return 0
	}
	out, err := vm.Run(f.program, ParcelEnv{Parcel: parcel})
	if err != nil {
		return 0
	}
	v, ok := out.(float64)
	if !ok {
		return 0
	}
	return v
}

// Adjustment is an active profitability-adjustment rule: when Pred matches a
// parcel, Shift is added to the profitability score and, when non-zero,
// Multiplier scales it.
type Adjustment struct {
	Name       string
	Pred       *Predicate
	Shift      float64
	Multiplier float64
}

// Apply folds the adjustment into a score.
func (a Adjustment) Apply(score float64, parcel model.Parcel) float64 {
	if !a.Pred.Match(parcel) {
		return score
	}
	score += a.Shift
	if a.Multiplier != 0 {
		score *= a.Multiplier
	}
	return score
}

// LandValueTax is the built-density step function: Rates[i] applies on
// [Breaks[i], Breaks[i+1]); density above the highest break takes the lowest
// rate.
type LandValueTax struct {
	Breaks []float64
	Rates  []float64
}

// Rate returns the profit deduction fraction for a built density.
func (t *LandValueTax) Rate(density float64) float64 {
	if t == nil || len(t.Breaks) == 0 {
		return 0
	}
	if density >= t.Breaks[len(t.Breaks)-1] {
		low := t.Rates[0]
		for _, r := range t.Rates[1:] {
			if r < low {
				low = r
			}
		}
		return low
	}
	for i := len(t.Breaks) - 1; i >= 0; i-- {
		if density >= t.Breaks[i] {
			return t.Rates[i]
		}
	}
	return t.Rates[0]
}

// AccountRule is an active lump-sum subsidy account definition.
type AccountRule struct {
	Name         string
	AnnualAmount float64 // $ topped up at each year start

	Sending   *Predicate // nil = no fee collection
	Receiving *Predicate // nil = all parcels eligible

	SubsidizeAffordable bool
}

// VMTRule is the active VMT fee/subsidy configuration. Each transfer
// direction is only live when the scenario was listed for it.
type VMTRule struct {
	ResForRes bool
	ComForRes bool
	ComForCom bool

	ResFeePerUnit    map[string]float64 // by residential density category
	ComForResPerSqft map[string]float64
	ComForComPerSqft map[string]float64

	Receiving           *Predicate
	SubsidizeAffordable bool
}

// Active reports whether any transfer direction collects fees.
func (v *VMTRule) Active() bool {
	return v != nil && (v.ResForRes || v.ComForRes || v.ComForCom)
}

// PropertyTaxRule taxes sending buildings by a formula and accumulates the
// proceeds by subaccount.
type PropertyTaxRule struct {
	Sending       *Predicate
	Tax           *Formula
	SubaccountDef *Formula // numeric subaccount key, e.g. Superdistrict()
	Receiving     *Predicate
}

// ActiveRules is the resolved rule set for one scenario. Rules whose
// applicability set does not include the scenario are simply absent, so
// downstream components never re-check scenario membership.
type ActiveRules struct {
	Scenario string

	Adjustments  []Adjustment
	LandValueTax *LandValueTax
	Accounts     []AccountRule
	VMT          *VMTRule
	PropertyTax  *PropertyTaxRule

	// Inclusionary maps jurisdiction to its mandated affordable fraction.
	Inclusionary map[string]float64

	// ParcelFilter is the global feasibility filter expression, if any.
	ParcelFilter *Predicate
}

// InclusionaryRate returns the affordable fraction for a jurisdiction.
func (r *ActiveRules) InclusionaryRate(jurisdiction string) float64 {
	return r.Inclusionary[jurisdiction]
}
