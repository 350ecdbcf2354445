package policy

import (
	"github.com/lethphd/bayarea-urbansim/internal/model"
)

// ParcelEnv wraps one parcel and exposes the attribute schema callable from
// policy expressions. Filters, adjustment formulas and tax expressions are
// all evaluated against this fixed schema, keeping the expression space
// auditable.
type ParcelEnv struct {
	Parcel model.Parcel
}

func (e ParcelEnv) PDA() string    { return e.Parcel.PDAID }
func (e ParcelEnv) InPDA() bool    { return e.Parcel.PDAID != "" }
func (e ParcelEnv) TPPID() int     { return e.Parcel.TPPID }
func (e ParcelEnv) Juris() string  { return e.Parcel.Jurisdiction }
func (e ParcelEnv) County() string { return e.Parcel.County }
func (e ParcelEnv) Zone() int      { return e.Parcel.Zone }

func (e ParcelEnv) Superdistrict() int    { return e.Parcel.Superdistrict }
func (e ParcelEnv) ParcelSize() float64   { return e.Parcel.SizeSqft }
func (e ParcelEnv) Units() int            { return e.Parcel.ResidentialUnits }
func (e ParcelEnv) BuildingSqft() float64 { return e.Parcel.BuildingSqft }
func (e ParcelEnv) BuildingType() string  { return e.Parcel.BuildingType }
func (e ParcelEnv) BuildingAge() int      { return e.Parcel.BuildingAge }
func (e ParcelEnv) BuiltDensity() float64 { return e.Parcel.BuiltDensity() }

func (e ParcelEnv) VMTResCategory() string    { return e.Parcel.VMTResCategory }
func (e ParcelEnv) VMTNonResCategory() string { return e.Parcel.VMTNonResCategory }
