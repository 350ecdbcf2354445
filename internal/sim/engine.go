// Package sim wires the policy registry, accounts engine, feasibility
// engine, development selector and equilibration solvers into the annual
// simulation cycle.
package sim

import (
	"fmt"
	"log/slog"
	"sort"

	"github.com/lethphd/bayarea-urbansim/internal/accounts"
	"github.com/lethphd/bayarea-urbansim/internal/config"
	"github.com/lethphd/bayarea-urbansim/internal/developer"
	"github.com/lethphd/bayarea-urbansim/internal/equilibrate"
	"github.com/lethphd/bayarea-urbansim/internal/feasibility"
	"github.com/lethphd/bayarea-urbansim/internal/model"
	"github.com/lethphd/bayarea-urbansim/internal/policy"
	"github.com/lethphd/bayarea-urbansim/internal/proforma"
)

// Engine owns all mutable simulation state for one run. Within a year each
// subsystem has exclusive ownership of the state it mutates; handoff between
// steps is by value.
type Engine struct {
	Cfg      *config.Config
	Scenario string

	rules    *policy.ActiveRules
	accts    *accounts.Engine
	feas     *feasibility.Engine
	selector *developer.Selector

	priceSolver *equilibrate.Solver
	rentSolver  *equilibrate.Solver

	parcels     []*model.Parcel
	parcelIndex map[int64]*model.Parcel
	submarkets  map[int]*model.Submarket
	static      map[int64]bool

	// lastEvents feeds VMT fee collection at the next year start.
	lastEvents []model.DevelopmentEvent
}

// New resolves policies for the scenario and assembles the pipeline. Any
// error here is a configuration error: the run never starts.
func New(cfg *config.Config, scenario string, parcels []*model.Parcel, submarkets []*model.Submarket) (*Engine, error) {
	if scenario == "" {
		scenario = cfg.DefaultScenario
	}
	rules, err := policy.Resolve(policy.SettingsFromConfig(cfg, scenario), scenario)
	if err != nil {
		return nil, fmt.Errorf("resolve policies for scenario %q: %w", scenario, err)
	}

	priceSolver, err := equilibrate.NewSolver(equilibrate.PriceField(), cfg.PriceEquilibration)
	if err != nil {
		return nil, fmt.Errorf("price_equilibration: %w", err)
	}
	rentSolver, err := equilibrate.NewSolver(equilibrate.RentField(), cfg.RentEquilibration)
	if err != nil {
		return nil, fmt.Errorf("rent_equilibration: %w", err)
	}

	e := &Engine{
		Cfg:      cfg,
		Scenario: scenario,
		rules:    rules,
		accts:    accounts.New(rules),
		feas: &feasibility.Engine{
			Eval: &proforma.Evaluator{
				Proforma:      cfg.Proforma,
				Feasibility:   cfg.Feasibility,
				CostShifters:  cfg.CostShifters,
				PriceShifters: cfg.PriceShifters,
			},
			DenyMaxDensityTier: cfg.Feasibility.DenyMaxDensityTier,
			AveSqftPerUnit:     cfg.Proforma.AveSqftPerUnit,
			MinUnitSize:        cfg.ResidentialDeveloper.MinUnitSize,
		},
		selector: &developer.Selector{
			Limits:     cfg.ResolveLimits(scenario),
			TypeSplits: cfg.NonResidentialDeveloper.TypeSplits,
			SqftPerJob: cfg.NonResidentialDeveloper.SqftPerJob,
			Static:     cfg.StaticParcelSet(),
		},
		priceSolver: priceSolver,
		rentSolver:  rentSolver,
		parcels:     parcels,
		parcelIndex: map[int64]*model.Parcel{},
		submarkets:  map[int]*model.Submarket{},
		static:      cfg.StaticParcelSet(),
	}
	for _, p := range parcels {
		e.parcelIndex[p.ID] = p
	}
	for _, s := range submarkets {
		e.submarkets[s.Zone] = s
	}
	return e, nil
}

// Accounts exposes the accounts engine for inspection after a run.
func (e *Engine) Accounts() *accounts.Engine { return e.accts }

// Rules exposes the resolved rule set.
func (e *Engine) Rules() *policy.ActiveRules { return e.rules }

// RunYear executes one annual cycle: policy accounts, two-pass feasibility,
// selection under limits, parcel mutation, and price/rent equilibration.
func (e *Engine) RunYear(year int) YearResult {
	// Accounts first: top-ups, property taxes, then VMT fees from the
	// prior year's market-rate development.
	e.accts.StartYear(year, e.parcels)
	e.accts.CollectVMTFees(year, e.lastEvents, e.parcelIndex)

	// Two-pass feasibility. The provisional pass is unsubsidized and keeps
	// money-losing candidates; it decides disbursement order. The final
	// pass folds resolved subsidies back into profitability.
	provisional := e.feas.RankAll(e.parcels, e.submarkets, e.rules, e.static)
	subsidies := e.accts.ResolveSubsidies(provisional, year)
	ranked := e.feas.Rank(e.parcels, e.submarkets, e.rules, subsidies, e.static)

	events := e.selector.Select(ranked, subsidies, year)

	// Accepted events replace parcel building state and add to modeled
	// supply.
	for _, ev := range events {
		if p := e.parcelIndex[ev.ParcelID]; p != nil {
			p.ApplyEvent(ev)
		}
		if s := e.submarkets[ev.Zone]; s != nil {
			if ev.Form.Residential() {
				s.ResSupply += float64(ev.Units)
			} else {
				s.NonResSupply += ev.Sqft / e.Cfg.NonResidentialDeveloper.SqftPerJob
			}
		}
	}

	subs := make([]*model.Submarket, 0, len(e.submarkets))
	for _, s := range e.submarkets {
		subs = append(subs, s)
	}
	priceRes := e.priceSolver.Run(subs)
	rentRes := e.rentSolver.Run(subs)

	e.lastEvents = events

	row := summarize(year, provisional, ranked, events, subsidies, priceRes, rentRes, e.submarkets)
	slog.Info("year complete",
		"year", year,
		"scenario", e.Scenario,
		"evaluated", row.Evaluated,
		"feasible", row.Feasible,
		"built", row.Built,
		"units", row.Units,
		"subsidy", row.SubsidySpent,
	)
	return YearResult{Row: row, Events: events, PriceResult: priceRes, RentResult: rentRes}
}

// Run simulates consecutive years starting at startYear.
func (e *Engine) Run(startYear, years int) (*Result, error) {
	if years <= 0 {
		return nil, fmt.Errorf("years must be > 0")
	}
	res := &Result{Scenario: e.Scenario}
	for y := startYear; y < startYear+years; y++ {
		yr := e.RunYear(y)
		res.Ledger = append(res.Ledger, yr.Row)
		res.Events = append(res.Events, yr.Events...)
	}
	res.Submarkets = make([]*model.Submarket, 0, len(e.submarkets))
	for _, s := range e.submarkets {
		res.Submarkets = append(res.Submarkets, s)
	}
	sort.Slice(res.Submarkets, func(i, j int) bool {
		return res.Submarkets[i].Zone < res.Submarkets[j].Zone
	})
	return res, nil
}
