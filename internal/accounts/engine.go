package accounts

import (
	"fmt"
	"log/slog"
	"sort"

	"github.com/lethphd/bayarea-urbansim/internal/feasibility"
	"github.com/lethphd/bayarea-urbansim/internal/model"
	"github.com/lethphd/bayarea-urbansim/internal/policy"
)

// Account names for the fee-funded pools.
const (
	VMTAccountName     = "vmt_fee_acct"
	PropTaxAccountName = "prop_tax_acct"
)

// VMT subaccounts split fee income by the beneficiary side of the transfer.
const (
	VMTResSubaccount = "res"
	VMTComSubaccount = "com"
)

// Engine owns all policy accounts for the duration of a run and resolves
// per-parcel subsidies each year.
type Engine struct {
	rules    *policy.ActiveRules
	accounts map[string]*Account
}

func New(rules *policy.ActiveRules) *Engine {
	e := &Engine{rules: rules, accounts: map[string]*Account{}}
	for _, acct := range rules.Accounts {
		e.accounts[acct.Name] = NewAccount(acct.Name)
	}
	if rules.VMT.Active() {
		e.accounts[VMTAccountName] = NewAccount(VMTAccountName)
	}
	if rules.PropertyTax != nil {
		e.accounts[PropTaxAccountName] = NewAccount(PropTaxAccountName)
	}
	return e
}

// Account returns a managed account by name, or nil.
func (e *Engine) Account(name string) *Account {
	return e.accounts[name]
}

// Accounts returns the managed accounts in deterministic order.
func (e *Engine) Accounts() []*Account {
	names := make([]string, 0, len(e.accounts))
	for n := range e.accounts {
		names = append(names, n)
	}
	sort.Strings(names)
	out := make([]*Account, 0, len(names))
	for _, n := range names {
		out = append(out, e.accounts[n])
	}
	return out
}

// StartYear replenishes lump-sum accounts with their annual allotment and
// collects property taxes from sending buildings.
func (e *Engine) StartYear(year int, parcels []*model.Parcel) {
	for _, rule := range e.rules.Accounts {
		e.accounts[rule.Name].Deposit(RegionalSubaccount, rule.AnnualAmount, year,
			"annual lump sum allotment")
	}

	pt := e.rules.PropertyTax
	if pt == nil {
		return
	}
	acct := e.accounts[PropTaxAccountName]
	bysub := map[string]float64{}
	for _, p := range parcels {
		if p.BuildingSqft <= 0 || !pt.Sending.Match(*p) {
			continue
		}
		tax := pt.Tax.Eval(*p)
		if tax <= 0 {
			continue
		}
		bysub[e.propTaxSubaccount(*p)] += tax
	}
	for sub, amt := range bysub {
		acct.Deposit(sub, amt, year, "property tax collection")
	}
}

// CollectVMTFees charges the prior cycle's market-rate developments per the
// active transfer directions. Fees are keyed by the parcel's density
// category; res fees are per unit, commercial fees per sqft.
func (e *Engine) CollectVMTFees(year int, events []model.DevelopmentEvent, parcels map[int64]*model.Parcel) {
	vmt := e.rules.VMT
	if !vmt.Active() {
		return
	}
	acct := e.accounts[VMTAccountName]

	resFees, comFees := 0.0, 0.0
	for _, ev := range events {
		if ev.Subsidized() {
			continue
		}
		p := parcels[ev.ParcelID]
		if p == nil {
			continue
		}
		if ev.Form.Residential() {
			if vmt.ResForRes {
				resFees += vmt.ResFeePerUnit[p.VMTResCategory] * float64(ev.Units)
			}
			continue
		}
		if vmt.ComForRes {
			resFees += vmt.ComForResPerSqft[p.VMTNonResCategory] * ev.Sqft
		}
		if vmt.ComForCom {
			comFees += vmt.ComForComPerSqft[p.VMTNonResCategory] * ev.Sqft
		}
	}
	acct.Deposit(VMTResSubaccount, resFees, year, "VMT development fees (residential pool)")
	acct.Deposit(VMTComSubaccount, comFees, year, "VMT development fees (commercial pool)")
	if resFees > 0 || comFees > 0 {
		slog.Info("vmt fees collected", "year", year, "res", resFees, "com", comFees)
	}
}

// ResolveSubsidies allocates funds to receiving parcels in provisional
// ranking order: the most viable money-losing projects are funded first,
// each up to its profit gap, until every pool is exhausted. Returns the
// per-parcel subsidy fold-in for the final feasibility pass.
func (e *Engine) ResolveSubsidies(provisional []feasibility.ScoredParcel, year int) map[int64]float64 {
	subsidies := map[int64]float64{}

	for _, rule := range e.rules.Accounts {
		e.disburseLumpSum(rule, provisional, year, subsidies)
	}
	if e.rules.VMT.Active() {
		e.disburseVMT(provisional, year, subsidies)
	}
	if e.rules.PropertyTax != nil {
		e.disbursePropTax(provisional, year, subsidies)
	}
	return subsidies
}

func (e *Engine) disburseLumpSum(rule policy.AccountRule, ranked []feasibility.ScoredParcel, year int, subsidies map[int64]float64) {
	acct := e.accounts[rule.Name]
	for _, sp := range ranked {
		if acct.Balance(RegionalSubaccount) <= 0 {
			return
		}
		gap := subsidyGap(sp, subsidies)
		if gap <= 0 {
			continue
		}
		if !rule.Receiving.Match(sp.Parcel) {
			continue
		}
		if rule.SubsidizeAffordable && sp.Result.Candidate.AffordableUnits == 0 {
			continue
		}
		granted := acct.Withdraw(RegionalSubaccount, gap, year,
			fmt.Sprintf("subsidy for parcel %d", sp.Parcel.ID))
		subsidies[sp.Parcel.ID] += granted
	}
}

func (e *Engine) disburseVMT(ranked []feasibility.ScoredParcel, year int, subsidies map[int64]float64) {
	vmt := e.rules.VMT
	acct := e.accounts[VMTAccountName]
	for _, sp := range ranked {
		sub := VMTComSubaccount
		if sp.Result.Candidate.Form.Residential() {
			sub = VMTResSubaccount
		}
		if acct.Balance(sub) <= 0 {
			continue
		}
		gap := subsidyGap(sp, subsidies)
		if gap <= 0 {
			continue
		}
		if !vmt.Receiving.Match(sp.Parcel) {
			continue
		}
		if vmt.SubsidizeAffordable && sp.Result.Candidate.AffordableUnits == 0 {
			continue
		}
		granted := acct.Withdraw(sub, gap, year,
			fmt.Sprintf("VMT subsidy for parcel %d", sp.Parcel.ID))
		subsidies[sp.Parcel.ID] += granted
	}
}

func (e *Engine) disbursePropTax(ranked []feasibility.ScoredParcel, year int, subsidies map[int64]float64) {
	pt := e.rules.PropertyTax
	acct := e.accounts[PropTaxAccountName]
	for _, sp := range ranked {
		gap := subsidyGap(sp, subsidies)
		if gap <= 0 {
			continue
		}
		if !pt.Receiving.Match(sp.Parcel) {
			continue
		}
		// Subsidy is limited to funds collected in the parcel's own
		// subaccount, usually its jurisdiction.
		sub := e.propTaxSubaccount(sp.Parcel)
		if acct.Balance(sub) <= 0 {
			continue
		}
		granted := acct.Withdraw(sub, gap, year,
			fmt.Sprintf("property tax subsidy for parcel %d", sp.Parcel.ID))
		subsidies[sp.Parcel.ID] += granted
	}
}

func (e *Engine) propTaxSubaccount(p model.Parcel) string {
	pt := e.rules.PropertyTax
	if pt == nil || pt.SubaccountDef == nil {
		return RegionalSubaccount
	}
	return fmt.Sprintf("%g", pt.SubaccountDef.Eval(p))
}

// subsidyGap is the remaining shortfall after subsidies already granted this
// year. Profitable parcels need nothing.
func subsidyGap(sp feasibility.ScoredParcel, subsidies map[int64]float64) float64 {
	gap := -sp.Result.Profit - subsidies[sp.Parcel.ID]
	if gap < 0 {
		return 0
	}
	return gap
}
