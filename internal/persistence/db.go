// Package persistence provides SQLite-based storage of simulation runs.
package persistence

import (
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/lethphd/bayarea-urbansim/internal/model"
	"github.com/lethphd/bayarea-urbansim/internal/sim"
)

// DB wraps a SQLite connection for run output storage.
type DB struct {
	conn *sqlx.DB
}

// Open opens or creates a SQLite database at the given path.
func Open(path string) (*DB, error) {
	conn, err := sqlx.Open("sqlite", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	db := &DB{conn: conn}
	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return db, nil
}

// Close closes the database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

func (db *DB) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS runs (
		id TEXT PRIMARY KEY,
		scenario TEXT NOT NULL,
		start_year INTEGER NOT NULL,
		years INTEGER NOT NULL,
		created_at TEXT NOT NULL DEFAULT (datetime('now'))
	);

	CREATE TABLE IF NOT EXISTS development_events (
		run_id TEXT NOT NULL REFERENCES runs(id),
		year INTEGER NOT NULL,
		parcel_id INTEGER NOT NULL,
		jurisdiction TEXT NOT NULL,
		zone INTEGER NOT NULL,
		form TEXT NOT NULL,
		building_type TEXT NOT NULL,
		sqft REAL NOT NULL,
		units INTEGER NOT NULL,
		affordable_units INTEGER NOT NULL,
		cost REAL NOT NULL,
		revenue REAL NOT NULL,
		subsidy REAL NOT NULL,
		score REAL NOT NULL
	);

	CREATE TABLE IF NOT EXISTS submarket_prices (
		run_id TEXT NOT NULL REFERENCES runs(id),
		zone INTEGER NOT NULL,
		price_per_sqft REAL NOT NULL,
		rent_per_sqft REAL NOT NULL,
		res_supply REAL NOT NULL,
		res_demand REAL NOT NULL,
		nonres_supply REAL NOT NULL,
		nonres_demand REAL NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_events_run ON development_events(run_id, year);
	CREATE INDEX IF NOT EXISTS idx_prices_run ON submarket_prices(run_id);
	`
	_, err := db.conn.Exec(schema)
	return err
}

// SaveRun stores a completed run and returns its id.
func (db *DB) SaveRun(res *sim.Result, startYear, years int) (string, error) {
	runID := uuid.NewString()

	tx, err := db.conn.Beginx()
	if err != nil {
		return "", err
	}
	defer tx.Rollback()

	if _, err := tx.Exec(
		`INSERT INTO runs (id, scenario, start_year, years) VALUES (?, ?, ?, ?)`,
		runID, res.Scenario, startYear, years,
	); err != nil {
		return "", fmt.Errorf("insert run: %w", err)
	}

	for _, ev := range res.Events {
		if _, err := tx.Exec(
			`INSERT INTO development_events
			(run_id, year, parcel_id, jurisdiction, zone, form, building_type,
			 sqft, units, affordable_units, cost, revenue, subsidy, score)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			runID, ev.Year, ev.ParcelID, ev.Jurisdiction, ev.Zone, ev.Form,
			ev.BuildingType, ev.Sqft, ev.Units, ev.AffordableUnits,
			ev.Cost, ev.Revenue, ev.Subsidy, ev.Score,
		); err != nil {
			return "", fmt.Errorf("insert event parcel %d: %w", ev.ParcelID, err)
		}
	}

	for _, s := range res.Submarkets {
		if _, err := tx.Exec(
			`INSERT INTO submarket_prices
			(run_id, zone, price_per_sqft, rent_per_sqft,
			 res_supply, res_demand, nonres_supply, nonres_demand)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			runID, s.Zone, s.PricePerSqft, s.RentPerSqft,
			s.ResSupply, s.ResDemand, s.NonResSupply, s.NonResDemand,
		); err != nil {
			return "", fmt.Errorf("insert submarket %d: %w", s.Zone, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return "", err
	}
	slog.Info("run saved", "run", runID, "events", len(res.Events), "submarkets", len(res.Submarkets))
	return runID, nil
}

// EventRow mirrors a development_events row for queries.
type EventRow struct {
	RunID           string  `db:"run_id"`
	Year            int     `db:"year"`
	ParcelID        int64   `db:"parcel_id"`
	Jurisdiction    string  `db:"jurisdiction"`
	Zone            int     `db:"zone"`
	Form            string  `db:"form"`
	BuildingType    string  `db:"building_type"`
	Sqft            float64 `db:"sqft"`
	Units           int     `db:"units"`
	AffordableUnits int     `db:"affordable_units"`
	Cost            float64 `db:"cost"`
	Revenue         float64 `db:"revenue"`
	Subsidy         float64 `db:"subsidy"`
	Score           float64 `db:"score"`
}

// Events returns all development events for a run in year order.
func (db *DB) Events(runID string) ([]EventRow, error) {
	var rows []EventRow
	err := db.conn.Select(&rows,
		`SELECT * FROM development_events WHERE run_id = ? ORDER BY year, parcel_id`, runID)
	return rows, err
}

// Submarkets returns the final submarket table for a run.
func (db *DB) Submarkets(runID string) ([]*model.Submarket, error) {
	var rows []struct {
		Zone         int     `db:"zone"`
		PricePerSqft float64 `db:"price_per_sqft"`
		RentPerSqft  float64 `db:"rent_per_sqft"`
		ResSupply    float64 `db:"res_supply"`
		ResDemand    float64 `db:"res_demand"`
		NonResSupply float64 `db:"nonres_supply"`
		NonResDemand float64 `db:"nonres_demand"`
	}
	err := db.conn.Select(&rows,
		`SELECT zone, price_per_sqft, rent_per_sqft, res_supply, res_demand,
		        nonres_supply, nonres_demand
		 FROM submarket_prices WHERE run_id = ? ORDER BY zone`, runID)
	if err != nil {
		return nil, err
	}
	out := make([]*model.Submarket, 0, len(rows))
	for _, r := range rows {
		out = append(out, &model.Submarket{
			Zone:         r.Zone,
			PricePerSqft: r.PricePerSqft,
			RentPerSqft:  r.RentPerSqft,
			ResSupply:    r.ResSupply,
			ResDemand:    r.ResDemand,
			NonResSupply: r.NonResSupply,
			NonResDemand: r.NonResDemand,
		})
	}
	return out, nil
}
