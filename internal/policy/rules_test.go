package policy

import (
	"testing"

	"github.com/lethphd/bayarea-urbansim/internal/model"
)

func TestCompilePredicateEmptyMatchesAll(t *testing.T) {
	pred, err := CompilePredicate("")
	if err != nil {
		t.Fatalf("CompilePredicate: %v", err)
	}
	if pred != nil {
		t.Fatal("empty source should compile to nil")
	}
	if !pred.Match(model.Parcel{}) {
		t.Error("nil predicate should match everything")
	}
}

func TestPredicateMatch(t *testing.T) {
	pred, err := CompilePredicate(`InPDA() and Juris() == "San Francisco"`)
	if err != nil {
		t.Fatalf("CompilePredicate: %v", err)
	}

	in := model.Parcel{Jurisdiction: "San Francisco", PDAID: "sf-01"}
	out := model.Parcel{Jurisdiction: "San Francisco"}
	elsewhere := model.Parcel{Jurisdiction: "Oakland", PDAID: "oak-07"}

	if !pred.Match(in) {
		t.Error("SF PDA parcel should match")
	}
	if pred.Match(out) {
		t.Error("non-PDA parcel should not match")
	}
	if pred.Match(elsewhere) {
		t.Error("Oakland parcel should not match")
	}
}

func TestCompilePredicateRejectsBadExpression(t *testing.T) {
	if _, err := CompilePredicate("Juris() +"); err == nil {
		t.Fatal("expected compile error")
	}
	// Non-boolean result is a compile-time error under AsBool.
	if _, err := CompilePredicate("ParcelSize()"); err == nil {
		t.Fatal("expected type error for numeric predicate")
	}
}

func TestFormulaEval(t *testing.T) {
	f, err := CompileFormula("BuildingSqft() * 0.5")
	if err != nil {
		t.Fatalf("CompileFormula: %v", err)
	}
	got := f.Eval(model.Parcel{BuildingSqft: 10000})
	if got != 5000 {
		t.Errorf("Eval = %v, want 5000", got)
	}

	var nilF *Formula
	if nilF.Eval(model.Parcel{}) != 0 {
		t.Error("nil formula should evaluate to 0")
	}
}

func TestAdjustmentApply(t *testing.T) {
	pred, err := CompilePredicate("TPPID() > 0")
	if err != nil {
		t.Fatalf("CompilePredicate: %v", err)
	}

	adj := Adjustment{Name: "ceqa", Pred: pred, Shift: 0.01}
	inTPP := model.Parcel{TPPID: 3}
	outside := model.Parcel{}

	if got := adj.Apply(0.03, inTPP); got != 0.04 {
		t.Errorf("shifted score = %v, want 0.04", got)
	}
	if got := adj.Apply(0.03, outside); got != 0.03 {
		t.Errorf("unmatched parcel score = %v, want unchanged 0.03", got)
	}

	scaled := Adjustment{Pred: pred, Shift: 0.01, Multiplier: 2}
	if got := scaled.Apply(0.03, inTPP); got != 0.08 {
		t.Errorf("shift-then-scale score = %v, want 0.08", got)
	}
}

func TestLandValueTaxRate(t *testing.T) {
	lvt := &LandValueTax{
		Breaks: []float64{0.0, 0.5, 1.0, 2.0},
		Rates:  []float64{0.02, 0.01, 0.005, 0.0},
	}

	cases := []struct {
		density float64
		want    float64
	}{
		{0.0, 0.02},
		{0.49, 0.02},
		{0.5, 0.01},
		{0.99, 0.01},
		{1.5, 0.005},
		{2.0, 0.0},  // at the top break: lowest rate
		{10.0, 0.0}, // above the top break: lowest rate
	}
	for _, c := range cases {
		if got := lvt.Rate(c.density); got != c.want {
			t.Errorf("Rate(%v) = %v, want %v", c.density, got, c.want)
		}
	}

	var nilLVT *LandValueTax
	if nilLVT.Rate(1.0) != 0 {
		t.Error("nil step function should tax nothing")
	}
}

func TestVMTRuleActive(t *testing.T) {
	var nilRule *VMTRule
	if nilRule.Active() {
		t.Error("nil rule should be inactive")
	}
	if (&VMTRule{}).Active() {
		t.Error("rule with no directions should be inactive")
	}
	if !(&VMTRule{ComForCom: true}).Active() {
		t.Error("rule with one direction should be active")
	}
}
