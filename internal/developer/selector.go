// Package developer turns the profitability ranking into the year's accepted
// development events, honoring per-jurisdiction development limits, the
// non-residential type split, and static parcel exclusions.
package developer

import (
	"log/slog"

	"github.com/lethphd/bayarea-urbansim/internal/feasibility"
	"github.com/lethphd/bayarea-urbansim/internal/model"
)

// Selector walks a ranked parcel sequence against residual quotas.
// Residential quotas are units/year; non-residential quotas are jobs/year.
type Selector struct {
	// Limits is the scenario-resolved jurisdiction -> general type -> cap
	// map. A missing cell means uncapped.
	Limits map[string]map[string]float64

	// TypeSplits apportions non-residential sqft across general types
	// before quota checks. Empty means the candidate's own type takes all.
	TypeSplits map[string]float64

	SqftPerJob float64

	Static map[int64]bool

	remaining map[string]map[string]float64
}

// Select accepts ranked parcels in order, skipping any whose quota cell is
// exhausted; a skip never halts the pass, since a lower-ranked parcel in a
// different jurisdiction or type may still fit. subsidies carries the
// resolved per-parcel amounts for the event record.
func (s *Selector) Select(ranked []feasibility.ScoredParcel, subsidies map[int64]float64, year int) []model.DevelopmentEvent {
	s.resetQuotas()

	var events []model.DevelopmentEvent
	skipped := 0
	for _, sp := range ranked {
		if !sp.Feasible {
			continue
		}
		if s.Static[sp.Parcel.ID] {
			continue
		}
		cand := sp.Result.Candidate
		if !s.consume(sp.Parcel.Jurisdiction, cand) {
			skipped++
			continue
		}
		events = append(events, model.DevelopmentEvent{
			Year:            year,
			ParcelID:        sp.Parcel.ID,
			Jurisdiction:    sp.Parcel.Jurisdiction,
			Zone:            sp.Parcel.Zone,
			Form:            cand.Form,
			BuildingType:    cand.BuildingType,
			Sqft:            cand.Sqft,
			Units:           cand.Units,
			AffordableUnits: cand.AffordableUnits,
			Cost:            cand.Cost,
			Revenue:         cand.Revenue,
			Subsidy:         subsidies[sp.Parcel.ID],
			Score:           sp.Result.Score,
		})
	}
	if skipped > 0 {
		slog.Info("development limits exhausted for some parcels",
			"year", year, "accepted", len(events), "skipped", skipped)
	}
	return events
}

func (s *Selector) resetQuotas() {
	s.remaining = map[string]map[string]float64{}
	for juris, byType := range s.Limits {
		s.remaining[juris] = map[string]float64{}
		for typ, cap := range byType {
			s.remaining[juris][typ] = cap
		}
	}
}

// consume checks the candidate against residual quotas and decrements them
// when it fits. Non-residential sqft is split across types first; the
// candidate is accepted only when every portion fits its cell.
func (s *Selector) consume(juris string, cand model.FormCandidate) bool {
	if cand.Form.Residential() {
		need := float64(cand.Units)
		if !s.fits(juris, string(model.TypeResidential), need) {
			return false
		}
		s.take(juris, string(model.TypeResidential), need)
		return true
	}

	jobs := cand.Sqft / s.SqftPerJob
	splits := s.TypeSplits
	if len(splits) == 0 {
		splits = map[string]float64{string(cand.Form.GeneralType()): 1}
	}
	for typ, frac := range splits {
		if !s.fits(juris, typ, jobs*frac) {
			return false
		}
	}
	for typ, frac := range splits {
		s.take(juris, typ, jobs*frac)
	}
	return true
}

func (s *Selector) fits(juris, typ string, need float64) bool {
	byType, ok := s.remaining[juris]
	if !ok {
		return true // no limits configured for this jurisdiction
	}
	cap, ok := byType[typ]
	if !ok {
		return true
	}
	return need <= cap
}

func (s *Selector) take(juris, typ string, need float64) {
	if byType, ok := s.remaining[juris]; ok {
		if _, ok := byType[typ]; ok {
			byType[typ] -= need
		}
	}
}
