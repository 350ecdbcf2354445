// Package policy resolves scenario-conditional policy configuration into an
// active rule set. Applicability is checked once here; rules not enabled for
// the scenario never reach downstream components.
package policy

import (
	"fmt"
	"log/slog"
)

// Settings is the subset of configuration the registry consumes. It mirrors
// the acct_settings group plus the bits of other groups that carry
// scenario-conditional rules.
type Settings struct {
	LumpSumAccounts []LumpSumAccountSettings
	Adjustments     []AdjustmentSettings
	LandValueTax    LandValueTaxSettings
	VMT             VMTSettings
	PropertyTax     *PropertyTaxSettings

	// Inclusionary maps jurisdiction to rate for the scenario being
	// resolved (already scenario-selected by the caller).
	Inclusionary map[string]float64

	ParcelFilter string
}

type LumpSumAccountSettings struct {
	Name                string
	TotalAmount         float64
	EnableInScenarios   []string
	SendingFilter       string
	ReceivingFilter     string
	SubsidizeAffordable bool
}

type AdjustmentSettings struct {
	Name              string
	EnableInScenarios []string
	Filter            string
	Shift             float64
	Multiplier        float64
}

type LandValueTaxSettings struct {
	EnableInScenarios []string
	Breaks            []float64
	Rates             []float64
}

type VMTSettings struct {
	ResForResScenarios []string
	ComForResScenarios []string
	ComForComScenarios []string

	ResFeePerUnit    map[string]float64
	ComForResPerSqft map[string]float64
	ComForComPerSqft map[string]float64

	ReceivingFilter     string
	SubsidizeAffordable bool
}

type PropertyTaxSettings struct {
	EnableInScenarios []string
	SendingFilter     string
	Tax               string
	SubaccountDef     string
	ReceivingFilter   string
}

// Resolve compiles the settings into the active rule set for a scenario.
// Compilation errors are configuration errors: they abort the run.
func Resolve(s Settings, scenario string) (*ActiveRules, error) {
	rules := &ActiveRules{
		Scenario:     scenario,
		Inclusionary: s.Inclusionary,
	}

	var err error
	if rules.ParcelFilter, err = CompilePredicate(s.ParcelFilter); err != nil {
		return nil, fmt.Errorf("feasibility parcel_filter: %w", err)
	}

	for _, a := range s.Adjustments {
		if !enabled(a.EnableInScenarios, scenario) {
			continue
		}
		pred, err := CompilePredicate(a.Filter)
		if err != nil {
			return nil, fmt.Errorf("adjustment %q: %w", a.Name, err)
		}
		rules.Adjustments = append(rules.Adjustments, Adjustment{
			Name:       a.Name,
			Pred:       pred,
			Shift:      a.Shift,
			Multiplier: a.Multiplier,
		})
	}

	if enabled(s.LandValueTax.EnableInScenarios, scenario) && len(s.LandValueTax.Breaks) > 0 {
		rules.LandValueTax = &LandValueTax{
			Breaks: s.LandValueTax.Breaks,
			Rates:  s.LandValueTax.Rates,
		}
	}

	for _, a := range s.LumpSumAccounts {
		if !enabled(a.EnableInScenarios, scenario) {
			continue
		}
		sending, err := CompilePredicate(a.SendingFilter)
		if err != nil {
			return nil, fmt.Errorf("account %q sending filter: %w", a.Name, err)
		}
		receiving, err := CompilePredicate(a.ReceivingFilter)
		if err != nil {
			return nil, fmt.Errorf("account %q receiving filter: %w", a.Name, err)
		}
		rules.Accounts = append(rules.Accounts, AccountRule{
			Name:                a.Name,
			AnnualAmount:        a.TotalAmount,
			Sending:             sending,
			Receiving:           receiving,
			SubsidizeAffordable: a.SubsidizeAffordable,
		})
	}

	vmt := &VMTRule{
		ResForRes:        enabled(s.VMT.ResForResScenarios, scenario),
		ComForRes:        enabled(s.VMT.ComForResScenarios, scenario),
		ComForCom:        enabled(s.VMT.ComForComScenarios, scenario),
		ResFeePerUnit:    s.VMT.ResFeePerUnit,
		ComForResPerSqft: s.VMT.ComForResPerSqft,
		ComForComPerSqft: s.VMT.ComForComPerSqft,

		SubsidizeAffordable: s.VMT.SubsidizeAffordable,
	}
	if vmt.Active() {
		if vmt.Receiving, err = CompilePredicate(s.VMT.ReceivingFilter); err != nil {
			return nil, fmt.Errorf("vmt receiving filter: %w", err)
		}
		rules.VMT = vmt
	}

	if pt := s.PropertyTax; pt != nil && enabled(pt.EnableInScenarios, scenario) {
		rule := &PropertyTaxRule{}
		if rule.Sending, err = CompilePredicate(pt.SendingFilter); err != nil {
			return nil, fmt.Errorf("property tax sending filter: %w", err)
		}
		if rule.Tax, err = CompileFormula(pt.Tax); err != nil {
			return nil, fmt.Errorf("property tax formula: %w", err)
		}
		if rule.SubaccountDef, err = CompileFormula(pt.SubaccountDef); err != nil {
			return nil, fmt.Errorf("property tax subaccount def: %w", err)
		}
		if rule.Receiving, err = CompilePredicate(pt.ReceivingFilter); err != nil {
			return nil, fmt.Errorf("property tax receiving filter: %w", err)
		}
		rules.PropertyTax = rule
	}

	slog.Info("policy rules resolved",
		"scenario", scenario,
		"adjustments", len(rules.Adjustments),
		"accounts", len(rules.Accounts),
		"lvt", rules.LandValueTax != nil,
		"vmt", rules.VMT != nil,
		"inclusionaryJuris", len(rules.Inclusionary),
	)
	return rules, nil
}

// enabled reports scenario membership in an applicability set.
func enabled(scenarios []string, scenario string) bool {
	for _, s := range scenarios {
		if s == scenario {
			return true
		}
	}
	return false
}
