package sim

import (
	"encoding/csv"
	"os"
	"strconv"

	"github.com/lethphd/bayarea-urbansim/internal/model"
)

// WriteEventsCSV writes accepted development events, one row per event.
func WriteEventsCSV(path string, events []model.DevelopmentEvent) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	defer w.Flush()

	header := []string{
		"year",
		"parcel_id",
		"jurisdiction",
		"zone",
		"form",
		"building_type",
		"sqft",
		"units",
		"affordable_units",
		"cost",
		"revenue",
		"subsidy",
		"score",
	}
	if err := w.Write(header); err != nil {
		return err
	}

	for _, ev := range events {
		row := []string{
			strconv.Itoa(ev.Year),
			strconv.FormatInt(ev.ParcelID, 10),
			ev.Jurisdiction,
			strconv.Itoa(ev.Zone),
			string(ev.Form),
			ev.BuildingType,
			fmtFloat(ev.Sqft),
			strconv.Itoa(ev.Units),
			strconv.Itoa(ev.AffordableUnits),
			fmtFloat(ev.Cost),
			fmtFloat(ev.Revenue),
			fmtFloat(ev.Subsidy),
			fmtFloat(ev.Score),
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}
	return w.Error()
}

// WriteSubmarketsCSV writes the final price/rent table, one row per zone.
// Column names for the price/rent fields come from the equilibration
// configs so downstream consumers see their configured schema.
func WriteSubmarketsCSV(path string, submarkets []*model.Submarket, priceCol, rentCol string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	defer w.Flush()

	header := []string{
		"zone",
		priceCol,
		rentCol,
		"res_supply",
		"res_demand",
		"nonres_supply",
		"nonres_demand",
	}
	if err := w.Write(header); err != nil {
		return err
	}
	for _, s := range submarkets {
		row := []string{
			strconv.Itoa(s.Zone),
			fmtFloat(s.PricePerSqft),
			fmtFloat(s.RentPerSqft),
			fmtFloat(s.ResSupply),
			fmtFloat(s.ResDemand),
			fmtFloat(s.NonResSupply),
			fmtFloat(s.NonResDemand),
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}
	return w.Error()
}

// WriteLedgerCSV writes the per-year summary rows.
func WriteLedgerCSV(path string, ledger []LedgerRow) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	defer w.Flush()

	header := []string{
		"year",
		"evaluated",
		"feasible",
		"built",
		"units",
		"affordable_units",
		"nonres_sqft",
		"subsidy_spent",
		"subsidized_events",
		"mean_price",
		"mean_rent",
		"price_iterations",
		"price_status",
		"rent_iterations",
		"rent_status",
	}
	if err := w.Write(header); err != nil {
		return err
	}
	for _, r := range ledger {
		row := []string{
			strconv.Itoa(r.Year),
			strconv.Itoa(r.Evaluated),
			strconv.Itoa(r.Feasible),
			strconv.Itoa(r.Built),
			strconv.Itoa(r.Units),
			strconv.Itoa(r.AffordableUnits),
			fmtFloat(r.NonResSqft),
			fmtFloat(r.SubsidySpent),
			strconv.Itoa(r.SubsidizedEvents),
			fmtFloat(r.MeanPrice),
			fmtFloat(r.MeanRent),
			strconv.Itoa(r.PriceIterations),
			string(r.PriceStatus),
			strconv.Itoa(r.RentIterations),
			string(r.RentStatus),
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}
	return w.Error()
}

func fmtFloat(x float64) string {
	return strconv.FormatFloat(x, 'f', 2, 64)
}
