package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/lethphd/bayarea-urbansim/internal/config"
	"github.com/lethphd/bayarea-urbansim/internal/data"
	"github.com/lethphd/bayarea-urbansim/internal/feasibility"
	"github.com/lethphd/bayarea-urbansim/internal/model"
	"github.com/lethphd/bayarea-urbansim/internal/persistence"
	"github.com/lethphd/bayarea-urbansim/internal/policy"
	"github.com/lethphd/bayarea-urbansim/internal/proforma"
	"github.com/lethphd/bayarea-urbansim/internal/sim"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	switch os.Args[1] {
	case "simulate":
		cmdSimulate(os.Args[2:])
	case "rank":
		cmdRank(os.Args[2:])
	case "scenarios":
		cmdScenarios(os.Args[2:])
	default:
		usage()
		os.Exit(2)
	}
}

func usage() {
	fmt.Println("usage:")
	fmt.Println("  cli simulate --config configs/settings.yaml --parcels data/parcels.json --submarkets data/submarkets.json --start 2010 --years 30 --out results")
	fmt.Println("  cli rank --config configs/settings.yaml --parcels data/parcels.json --submarkets data/submarkets.json")
	fmt.Println("  cli scenarios --config configs/settings.yaml")
	fmt.Println("")
	fmt.Println("notes:")
	fmt.Println("  - simulate writes events.csv, submarkets.csv and ledger.csv under --out")
	fmt.Println("  - rank prints the unsubsidized feasibility ranking for one year")
}

func cmdSimulate(args []string) {
	fs := flag.NewFlagSet("simulate", flag.ExitOnError)
	cfgPath := fs.String("config", "", "Path to YAML settings")
	parcelsPath := fs.String("parcels", "", "Path to parcels JSON")
	subsPath := fs.String("submarkets", "", "Path to submarkets JSON")
	scenario := fs.String("scenario", "", "Scenario id (default from config)")
	start := fs.Int("start", 2010, "First simulated year")
	years := fs.Int("years", 1, "Number of years to simulate")
	outDir := fs.String("out", "results", "Output directory")
	dbPath := fs.String("db", "", "Optional: SQLite path to persist the run")
	_ = fs.Parse(args)

	cfg, parcels, subs := loadInputs(*cfgPath, *parcelsPath, *subsPath)

	engine, err := sim.New(cfg, *scenario, parcels, subs)
	if err != nil {
		fatal(err)
	}
	res, err := engine.Run(*start, *years)
	if err != nil {
		fatal(err)
	}

	if err := os.MkdirAll(*outDir, 0o755); err != nil {
		fatal(err)
	}
	if err := sim.WriteEventsCSV(filepath.Join(*outDir, "events.csv"), res.Events); err != nil {
		fatal(err)
	}
	if err := sim.WriteSubmarketsCSV(filepath.Join(*outDir, "submarkets.csv"), res.Submarkets,
		cfg.PriceEquilibration.PriceCol, cfg.RentEquilibration.PriceCol); err != nil {
		fatal(err)
	}
	if err := sim.WriteLedgerCSV(filepath.Join(*outDir, "ledger.csv"), res.Ledger); err != nil {
		fatal(err)
	}

	if *dbPath != "" {
		db, err := persistence.Open(*dbPath)
		if err != nil {
			fatal(err)
		}
		defer db.Close()
		runID, err := db.SaveRun(res, *start, *years)
		if err != nil {
			fatal(err)
		}
		fmt.Printf("Run persisted as %s\n", runID)
	}

	totalUnits, totalSubsidy := 0, 0.0
	for _, row := range res.Ledger {
		totalUnits += row.Units
		totalSubsidy += row.SubsidySpent
	}
	fmt.Printf("Scenario %s: %d events, %d units, $%.0f subsidy over %d years\n",
		res.Scenario, len(res.Events), totalUnits, totalSubsidy, *years)
	fmt.Printf("Wrote results to %s\n", *outDir)
}

func cmdRank(args []string) {
	fs := flag.NewFlagSet("rank", flag.ExitOnError)
	cfgPath := fs.String("config", "", "Path to YAML settings")
	parcelsPath := fs.String("parcels", "", "Path to parcels JSON")
	subsPath := fs.String("submarkets", "", "Path to submarkets JSON")
	scenario := fs.String("scenario", "", "Scenario id (default from config)")
	n := fs.Int("n", 20, "Show top N parcels")
	_ = fs.Parse(args)

	cfg, parcels, subs := loadInputs(*cfgPath, *parcelsPath, *subsPath)
	scen := *scenario
	if scen == "" {
		scen = cfg.DefaultScenario
	}

	rules, err := policy.Resolve(policy.SettingsFromConfig(cfg, scen), scen)
	if err != nil {
		fatal(err)
	}
	byZone := map[int]*model.Submarket{}
	for _, s := range subs {
		byZone[s.Zone] = s
	}
	engine := &feasibility.Engine{
		Eval: &proforma.Evaluator{
			Proforma:      cfg.Proforma,
			Feasibility:   cfg.Feasibility,
			CostShifters:  cfg.CostShifters,
			PriceShifters: cfg.PriceShifters,
		},
		DenyMaxDensityTier: cfg.Feasibility.DenyMaxDensityTier,
		AveSqftPerUnit:     cfg.Proforma.AveSqftPerUnit,
		MinUnitSize:        cfg.ResidentialDeveloper.MinUnitSize,
	}
	ranked := engine.Rank(parcels, byZone, rules, nil, cfg.StaticParcelSet())
	if *n < len(ranked) {
		ranked = ranked[:*n]
	}

	fmt.Printf("%-4s %-10s %-18s %-12s %-7s %-12s %-12s %-8s\n",
		"rank", "parcel", "jurisdiction", "form", "units", "cost$", "profit$", "score")
	for i, sp := range ranked {
		fmt.Printf("%-4d %-10d %-18s %-12s %-7d %-12.0f %-12.0f %-8.4f\n",
			i+1,
			sp.Parcel.ID,
			sp.Parcel.Jurisdiction,
			sp.Result.Candidate.Form,
			sp.Result.Candidate.Units,
			sp.Result.Candidate.Cost,
			sp.Result.Profit,
			sp.Result.Score,
		)
	}
}

func cmdScenarios(args []string) {
	fs := flag.NewFlagSet("scenarios", flag.ExitOnError)
	cfgPath := fs.String("config", "", "Path to YAML settings")
	_ = fs.Parse(args)

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		fatal(err)
	}
	fmt.Printf("default: %s\n", cfg.DefaultScenario)
	for _, s := range cfg.Scenarios() {
		fmt.Println(s)
	}
}

func loadInputs(cfgPath, parcelsPath, subsPath string) (*config.Config, []*model.Parcel, []*model.Submarket) {
	if cfgPath == "" || parcelsPath == "" || subsPath == "" {
		fmt.Println("--config, --parcels and --submarkets are required")
		os.Exit(2)
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		fatal(err)
	}
	parcels, err := data.LoadParcels(parcelsPath)
	if err != nil {
		fatal(err)
	}
	subs, err := data.LoadSubmarkets(subsPath)
	if err != nil {
		fatal(err)
	}
	return cfg, parcels, subs
}

func fatal(err error) {
	fmt.Fprintln(os.Stderr, "error:", err)
	os.Exit(1)
}
