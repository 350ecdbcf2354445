// Package data loads the base-year input tables handed over by the ETL
// pipeline. Tables are plain JSON arrays; this module does no cleaning.
package data

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/lethphd/bayarea-urbansim/internal/model"
)

// LoadParcels reads a parcels table from a JSON file.
func LoadParcels(path string) ([]*model.Parcel, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var parcels []*model.Parcel
	if err := json.Unmarshal(raw, &parcels); err != nil {
		return nil, fmt.Errorf("parse parcels %s: %w", path, err)
	}
	return parcels, nil
}

// LoadSubmarkets reads a submarkets table from a JSON file.
func LoadSubmarkets(path string) ([]*model.Submarket, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var subs []*model.Submarket
	if err := json.Unmarshal(raw, &subs); err != nil {
		return nil, fmt.Errorf("parse submarkets %s: %w", path, err)
	}
	return subs, nil
}
