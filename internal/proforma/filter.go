package proforma

import (
	"github.com/lethphd/bayarea-urbansim/internal/model"
	"github.com/lethphd/bayarea-urbansim/internal/policy"
)

// Eligible applies the global development filter. Parcels failing any check
// never enter pro forma evaluation.
func (e *Evaluator) Eligible(parcel model.Parcel, rules *policy.ActiveRules) bool {
	if parcel.NoDev || parcel.ManualNoDev || parcel.SBExempt {
		return false
	}
	// Buildings younger than the retention age are not torn down.
	if parcel.BuildingSqft > 0 && parcel.BuildingAge < e.Feasibility.MinRetentionAge {
		return false
	}
	// Single-family lots are only redeveloped above the minimum parcel size.
	if parcel.ResidentialUnits == 1 && parcel.SizeSqft <= e.Feasibility.MinParcelSize {
		return false
	}
	for _, bt := range e.Feasibility.ExcludedBuildingTypes {
		if parcel.BuildingType == bt {
			return false
		}
	}
	return rules.ParcelFilter.Match(parcel)
}
