// Package accounts manages policy subsidy accounts: fee collection from
// sending parcels, balances by subaccount, and capped disbursement to
// receiving parcels.
package accounts

import (
	"log/slog"
)

// RegionalSubaccount is used by accounts that do not subdivide their funds.
const RegionalSubaccount = "regional"

// Transaction is one ledger entry on an account. Deposits are positive,
// disbursements negative.
type Transaction struct {
	Amount      float64
	Subaccount  string
	Year        int
	Description string
}

// Account is a pool of funds with per-subaccount balances. Balances only
// decrease through Withdraw and only increase through Deposit.
type Account struct {
	Name string

	balances     map[string]float64
	Transactions []Transaction
}

func NewAccount(name string) *Account {
	return &Account{Name: name, balances: map[string]float64{}}
}

func (a *Account) Deposit(subaccount string, amount float64, year int, description string) {
	if amount <= 0 {
		return
	}
	a.balances[subaccount] += amount
	a.Transactions = append(a.Transactions, Transaction{
		Amount:      amount,
		Subaccount:  subaccount,
		Year:        year,
		Description: description,
	})
}

// Withdraw disburses up to amount from a subaccount and returns what was
// actually disbursed. Overdraw clamps to the remaining balance; it is logged
// but never fatal.
func (a *Account) Withdraw(subaccount string, amount float64, year int, description string) float64 {
	if amount <= 0 {
		return 0
	}
	avail := a.balances[subaccount]
	if avail <= 0 {
		return 0
	}
	if amount > avail {
		slog.Warn("account overdraw clamped",
			"account", a.Name,
			"subaccount", subaccount,
			"requested", amount,
			"available", avail,
		)
		amount = avail
	}
	a.balances[subaccount] -= amount
	a.Transactions = append(a.Transactions, Transaction{
		Amount:      -amount,
		Subaccount:  subaccount,
		Year:        year,
		Description: description,
	})
	return amount
}

// Balance returns the remaining funds in one subaccount.
func (a *Account) Balance(subaccount string) float64 {
	return a.balances[subaccount]
}

// TotalBalance sums all subaccounts.
func (a *Account) TotalBalance() float64 {
	total := 0.0
	for _, b := range a.balances {
		total += b
	}
	return total
}

// Subaccounts lists subaccounts with a non-zero balance.
func (a *Account) Subaccounts() []string {
	out := make([]string, 0, len(a.balances))
	for sub, b := range a.balances {
		if b != 0 {
			out = append(out, sub)
		}
	}
	return out
}
