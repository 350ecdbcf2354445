package sim

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"

	"github.com/lethphd/bayarea-urbansim/internal/model"
)

func readCSV(t *testing.T, path string) [][]string {
	t.Helper()
	f, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	rows, err := csv.NewReader(f).ReadAll()
	if err != nil {
		t.Fatal(err)
	}
	return rows
}

func TestWriteEventsCSV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "events.csv")
	events := []model.DevelopmentEvent{
		{
			Year: 2025, ParcelID: 42, Jurisdiction: "Oakland", Zone: 3,
			Form: model.FormResidential, BuildingType: "HM",
			Sqft: 5000, Units: 5, AffordableUnits: 1,
			Cost: 500000, Revenue: 650000, Subsidy: 0, Score: 0.3,
		},
		{
			Year: 2025, ParcelID: 7, Jurisdiction: "San Francisco", Zone: 1,
			Form: model.FormOffice, BuildingType: "OF", Sqft: 20000,
			Cost: 2000000, Revenue: 2400000, Score: 0.2,
		},
	}

	if err := WriteEventsCSV(path, events); err != nil {
		t.Fatalf("WriteEventsCSV: %v", err)
	}

	rows := readCSV(t, path)
	if len(rows) != 3 {
		t.Fatalf("rows = %d, want header + 2", len(rows))
	}
	if rows[0][0] != "year" || rows[0][1] != "parcel_id" {
		t.Errorf("unexpected header %v", rows[0])
	}
	if rows[1][1] != "42" || rows[1][4] != "residential" || rows[1][7] != "5" {
		t.Errorf("unexpected event row %v", rows[1])
	}
}

func TestWriteSubmarketsCSVUsesConfiguredColumns(t *testing.T) {
	path := filepath.Join(t.TempDir(), "submarkets.csv")
	subs := []*model.Submarket{
		{Zone: 1, PricePerSqft: 210.5, RentPerSqft: 31.25, ResSupply: 110, ResDemand: 100},
	}

	if err := WriteSubmarketsCSV(path, subs, "residential_price", "non_residential_rent"); err != nil {
		t.Fatalf("WriteSubmarketsCSV: %v", err)
	}

	rows := readCSV(t, path)
	if rows[0][1] != "residential_price" || rows[0][2] != "non_residential_rent" {
		t.Errorf("price/rent columns = %v, want the configured names", rows[0][1:3])
	}
	if rows[1][1] != "210.50" {
		t.Errorf("price cell = %q, want 210.50", rows[1][1])
	}
}

func TestWriteLedgerCSV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ledger.csv")
	ledger := []LedgerRow{
		{Year: 2025, Evaluated: 10, Feasible: 4, Built: 3, Units: 40, SubsidySpent: 50000},
		{Year: 2026, Evaluated: 8, Feasible: 2, Built: 1, Units: 12},
	}

	if err := WriteLedgerCSV(path, ledger); err != nil {
		t.Fatalf("WriteLedgerCSV: %v", err)
	}

	rows := readCSV(t, path)
	if len(rows) != 3 {
		t.Fatalf("rows = %d, want header + 2", len(rows))
	}
	if rows[1][0] != "2025" || rows[1][3] != "3" {
		t.Errorf("unexpected ledger row %v", rows[1])
	}
	if rows[1][7] != "50000.00" {
		t.Errorf("subsidy cell = %q, want 50000.00", rows[1][7])
	}
}
