package accounts

import "testing"

func TestAccountDepositWithdraw(t *testing.T) {
	a := NewAccount("fund")
	a.Deposit(RegionalSubaccount, 1000, 2025, "allotment")

	got := a.Withdraw(RegionalSubaccount, 400, 2025, "grant")
	if got != 400 {
		t.Errorf("Withdraw = %v, want 400", got)
	}
	if a.Balance(RegionalSubaccount) != 600 {
		t.Errorf("balance = %v, want 600", a.Balance(RegionalSubaccount))
	}
	if len(a.Transactions) != 2 {
		t.Errorf("transactions = %d, want 2", len(a.Transactions))
	}
}

// Overdraw clamps to the remaining balance; an account can never go negative.
func TestAccountWithdrawClampsOverdraw(t *testing.T) {
	a := NewAccount("fund")
	a.Deposit(RegionalSubaccount, 300, 2025, "allotment")

	got := a.Withdraw(RegionalSubaccount, 1000, 2025, "grant")
	if got != 300 {
		t.Errorf("Withdraw = %v, want clamped 300", got)
	}
	if a.Balance(RegionalSubaccount) != 0 {
		t.Errorf("balance = %v, want 0", a.Balance(RegionalSubaccount))
	}

	if got := a.Withdraw(RegionalSubaccount, 100, 2025, "grant"); got != 0 {
		t.Errorf("Withdraw from empty account = %v, want 0", got)
	}
}

func TestAccountIgnoresNonPositiveAmounts(t *testing.T) {
	a := NewAccount("fund")
	a.Deposit(RegionalSubaccount, 0, 2025, "noop")
	a.Deposit(RegionalSubaccount, -50, 2025, "noop")
	if a.TotalBalance() != 0 || len(a.Transactions) != 0 {
		t.Error("non-positive deposits should be ignored")
	}
	if got := a.Withdraw(RegionalSubaccount, -10, 2025, "noop"); got != 0 {
		t.Errorf("negative withdraw = %v, want 0", got)
	}
}

func TestAccountSubaccountsAreIndependent(t *testing.T) {
	a := NewAccount("vmt_fee_acct")
	a.Deposit("res", 500, 2025, "fees")
	a.Deposit("com", 200, 2025, "fees")

	if got := a.Withdraw("res", 600, 2025, "grant"); got != 500 {
		t.Errorf("res withdraw = %v, want 500 (com pool untouched)", got)
	}
	if a.Balance("com") != 200 {
		t.Errorf("com balance = %v, want 200", a.Balance("com"))
	}
	if a.TotalBalance() != 200 {
		t.Errorf("total = %v, want 200", a.TotalBalance())
	}
}
