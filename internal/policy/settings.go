package policy

import (
	"github.com/lethphd/bayarea-urbansim/internal/config"
)

// SettingsFromConfig projects the configuration surface into registry
// settings for one scenario. Inclusionary rates are scenario-selected here
// so the resolved rule set is self-contained.
func SettingsFromConfig(c *config.Config, scenario string) Settings {
	s := Settings{
		ParcelFilter: c.Feasibility.ParcelFilter,
		Inclusionary: map[string]float64{},
	}

	for _, entry := range c.InclusionaryHousingSettings[scenario] {
		for _, juris := range entry.Jurisdictions {
			s.Inclusionary[juris] = entry.Amount
		}
	}

	for _, a := range c.AcctSettings.LumpSumAccounts {
		s.LumpSumAccounts = append(s.LumpSumAccounts, LumpSumAccountSettings{
			Name:                a.Name,
			TotalAmount:         a.TotalAmount,
			EnableInScenarios:   a.EnableInScenarios,
			SendingFilter:       a.SendingBuildingsFilter,
			ReceivingFilter:     a.ReceivingBuildingsFilter,
			SubsidizeAffordable: a.SubsidizeAffordable,
		})
	}

	for _, a := range c.AcctSettings.ProfitAdjustmentPolicies {
		s.Adjustments = append(s.Adjustments, AdjustmentSettings{
			Name:              a.Name,
			EnableInScenarios: a.EnableInScenarios,
			Filter:            a.Filter,
			Shift:             a.Shift,
			Multiplier:        a.Multiplier,
		})
	}

	lvt := c.AcctSettings.LandValueTaxSettings
	s.LandValueTax = LandValueTaxSettings{
		EnableInScenarios: lvt.EnableInScenarios,
		Breaks:            lvt.Bins.Breaks,
		Rates:             lvt.Bins.Rates,
	}

	vmt := c.AcctSettings.VMTSettings
	s.VMT = VMTSettings{
		ResForResScenarios:  vmt.ResForResScenarios,
		ComForResScenarios:  vmt.ComForResScenarios,
		ComForComScenarios:  vmt.ComForComScenarios,
		ResFeePerUnit:       vmt.ResFeeAmounts,
		ComForResPerSqft:    vmt.ComForResFeeAmounts,
		ComForComPerSqft:    vmt.ComForComFeeAmounts,
		ReceivingFilter:     vmt.ReceivingBuildingsFilter,
		SubsidizeAffordable: vmt.SubsidizeAffordable,
	}

	if pt := c.AcctSettings.PropertyTaxSettings; pt != nil {
		s.PropertyTax = &PropertyTaxSettings{
			EnableInScenarios: pt.EnableInScenarios,
			SendingFilter:     pt.SendingBuildingsFilter,
			Tax:               pt.Tax,
			SubaccountDef:     pt.SubaccountDef,
			ReceivingFilter:   pt.ReceivingBuildingsFilter,
		}
	}

	return s
}
