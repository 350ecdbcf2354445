package config

import (
	"errors"
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"
)

// Config is the on-disk configuration shape (YAML). Unknown keys are
// ignored; missing optional keys take the defaults applied in Load.
type Config struct {
	DefaultScenario string `yaml:"default_scenario"`

	Feasibility             FeasibilityConfig   `yaml:"feasibility"`
	Proforma                ProformaConfig      `yaml:"proforma"`
	ResidentialDeveloper    DeveloperConfig     `yaml:"residential_developer"`
	NonResidentialDeveloper DeveloperConfig     `yaml:"non_residential_developer"`
	PriceEquilibration      EquilibrationConfig `yaml:"price_equilibration"`
	RentEquilibration       EquilibrationConfig `yaml:"rent_equilibration"`
	AcctSettings            AcctSettings        `yaml:"acct_settings"`

	// DevelopmentLimits maps scenario -> jurisdiction -> general type -> cap.
	// Residential caps are units/year, non-residential caps are jobs/year.
	// The "default" scenario applies unless the active scenario overrides
	// the jurisdiction+type cell.
	DevelopmentLimits map[string]map[string]map[string]float64 `yaml:"development_limits"`

	StaticParcels []int64 `yaml:"static_parcels"`

	// InclusionaryHousingSettings maps scenario -> rate entries.
	InclusionaryHousingSettings map[string][]InclusionaryRate `yaml:"inclusionary_housing_settings"`

	// CostShifters scale construction cost by county.
	CostShifters map[string]float64 `yaml:"cost_shifters"`
	// PriceShifters scale revenue by PDA id.
	PriceShifters map[string]float64 `yaml:"pda_price_shifters"`
}

// FeasibilityConfig controls parcel eligibility and form enumeration.
type FeasibilityConfig struct {
	// ParcelFilter is an optional expression over parcel attributes; parcels
	// failing it are excluded before any pro forma work.
	ParcelFilter string `yaml:"parcel_filter"`
	// PassThroughColumns are carried onto feasibility output unchanged.
	PassThroughColumns []string `yaml:"pass_through_columns"`
	// DenyMaxDensityTier forbids building a zone's single most intensive
	// density point even though zoning nominally permits it.
	DenyMaxDensityTier bool `yaml:"deny_max_density_tier"`

	MinRetentionAge       int      `yaml:"min_retention_age"`
	MinParcelSize         float64  `yaml:"min_parcel_size"`
	ExcludedBuildingTypes []string `yaml:"excluded_building_types"`
}

// ProformaConfig parameterizes the pro forma computation.
type ProformaConfig struct {
	CapRate float64 `yaml:"cap_rate"`
	// ProfitWeight combines profit margin and return-on-cost into one
	// score: w*margin + (1-w)*(roc - cap_rate).
	ProfitWeight float64 `yaml:"profit_weight"`

	// CostPerSqft is base construction cost by form ($/sqft).
	CostPerSqft map[string]float64 `yaml:"cost_per_sqft"`
	// HeightPremiums scale cost for taller construction; tiers are checked
	// in order and the first MaxHeight >= candidate height wins.
	HeightPremiums []HeightPremium `yaml:"height_premiums"`

	// AMIPriceFactor is the fraction of market price an affordable unit
	// fetches (area-median-income adjusted).
	AMIPriceFactor float64 `yaml:"ami_price_factor"`

	AveSqftPerUnit float64 `yaml:"ave_sqft_per_unit"`
}

type HeightPremium struct {
	MaxHeight float64 `yaml:"max_height"`
	Factor    float64 `yaml:"factor"`
}

// DeveloperConfig parameterizes unit/job sizing and non-residential splits.
type DeveloperConfig struct {
	TargetVacancy float64 `yaml:"target_vacancy"`
	MinUnitSize   float64 `yaml:"min_unit_size"`
	SqftPerJob    float64 `yaml:"sqft_per_job"`
	// TypeSplits apportions non-residential sqft across general types,
	// e.g. {Office: 0.5, Retail: 0.3, Industrial: 0.2}.
	TypeSplits map[string]float64 `yaml:"type_splits"`
}

// EquilibrationConfig drives one price-adjustment invocation. Price and rent
// use separate instances.
type EquilibrationConfig struct {
	PriceCol string `yaml:"price_col"`

	MultiplierFunc string  `yaml:"multiplier_func"` // ratio | sqrt_ratio | log_ratio
	Elasticity     float64 `yaml:"elasticity"`
	Iterations     int     `yaml:"iterations"`
	WarmStart      bool    `yaml:"warm_start"`

	ClipChangeLow  float64 `yaml:"clip_change_low"`
	ClipChangeHigh float64 `yaml:"clip_change_high"`

	// Nil means "no clipping" on the final price.
	ClipFinalLow  *float64 `yaml:"clip_final_price_low"`
	ClipFinalHigh *float64 `yaml:"clip_final_price_high"`
}

// AcctSettings is the policy/accounts configuration group.
type AcctSettings struct {
	LumpSumAccounts          []LumpSumAccountConfig   `yaml:"lump_sum_accounts"`
	ProfitAdjustmentPolicies []ProfitAdjustmentConfig `yaml:"profitability_adjustment_policies"`
	LandValueTaxSettings     LandValueTaxConfig       `yaml:"land_value_tax_settings"`
	VMTSettings              VMTConfig                `yaml:"vmt_settings"`
	PropertyTaxSettings      *PropertyTaxConfig       `yaml:"property_tax_settings"`
}

type LumpSumAccountConfig struct {
	Name              string   `yaml:"name"`
	TotalAmount       float64  `yaml:"total_amount"` // $ per year
	EnableInScenarios []string `yaml:"enable_in_scenarios"`

	SendingBuildingsFilter   string `yaml:"sending_buildings_filter"`
	ReceivingBuildingsFilter string `yaml:"receiving_buildings_filter"`

	SubsidizeAffordable bool `yaml:"subsidize_affordable"`
}

type ProfitAdjustmentConfig struct {
	Name              string   `yaml:"name"`
	EnableInScenarios []string `yaml:"enable_in_scenarios"`
	Filter            string   `yaml:"filter"`
	// Shift is added to the profitability score when Filter matches;
	// Multiplier (when non-zero) scales the score instead.
	Shift      float64 `yaml:"shift"`
	Multiplier float64 `yaml:"multiplier"`
}

type LandValueTaxConfig struct {
	EnableInScenarios []string `yaml:"enable_in_scenarios"`
	Bins              LVTBins  `yaml:"bins"`
}

// LVTBins is the density step function. Breaks are ascending built-density
// breakpoints; Rates[i] applies on [Breaks[i], Breaks[i+1]). Density above
// the highest break takes the lowest rate.
type LVTBins struct {
	Breaks []float64 `yaml:"breaks"`
	Rates  []float64 `yaml:"rates"`
}

// VMTConfig holds the VMT fee tables, keyed by density category
// (very-high .. low). A transfer direction only collects or disburses when
// the active scenario is listed for it.
type VMTConfig struct {
	ResForResScenarios []string `yaml:"res_for_res_scenarios"`
	ComForResScenarios []string `yaml:"com_for_res_scenarios"`
	ComForComScenarios []string `yaml:"com_for_com_scenarios"`

	ResFeeAmounts       map[string]float64 `yaml:"res_for_res_fee_amounts"`  // $/unit
	ComForResFeeAmounts map[string]float64 `yaml:"com_for_res_fee_amounts"` // $/sqft
	ComForComFeeAmounts map[string]float64 `yaml:"com_for_com_fee_amounts"` // $/sqft

	ReceivingBuildingsFilter string `yaml:"receiving_buildings_filter"`
	SubsidizeAffordable      bool   `yaml:"subsidize_affordable"`
}

type PropertyTaxConfig struct {
	EnableInScenarios      []string `yaml:"enable_in_scenarios"`
	SendingBuildingsFilter string   `yaml:"sending_buildings_filter"`
	// Tax is an expression over parcel attributes yielding $ per building.
	Tax                      string `yaml:"sending_buildings_tax"`
	SubaccountDef            string `yaml:"sending_buildings_subaccount_def"`
	ReceivingBuildingsFilter string `yaml:"receiving_buildings_filter"`
}

type InclusionaryRate struct {
	Amount        float64  `yaml:"amount"` // affordable fraction, 0..1
	Jurisdictions []string `yaml:"values"`
}

// Load reads, defaults and validates a config file.
func Load(path string) (*Config, error) {
	c, err := LoadUnchecked(path)
	if err != nil {
		return nil, err
	}
	c.ApplyDefaults()
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// LoadUnchecked loads config without defaulting or validation. Useful for
// debugging/printing partial configs.
func LoadUnchecked(path string) (*Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var c Config
	if err := yaml.Unmarshal(raw, &c); err != nil {
		return nil, err
	}
	return &c, nil
}

// ApplyDefaults fills missing optional keys with their documented defaults.
func (c *Config) ApplyDefaults() {
	if c.DefaultScenario == "" {
		c.DefaultScenario = "default"
	}
	if c.Proforma.CapRate == 0 {
		c.Proforma.CapRate = 0.05
	}
	if c.Proforma.ProfitWeight == 0 {
		c.Proforma.ProfitWeight = 0.5
	}
	if c.Proforma.AMIPriceFactor == 0 {
		c.Proforma.AMIPriceFactor = 0.4
	}
	if c.Proforma.AveSqftPerUnit == 0 {
		c.Proforma.AveSqftPerUnit = 1000
	}
	if c.Feasibility.MinRetentionAge == 0 {
		c.Feasibility.MinRetentionAge = 20
	}
	if c.Feasibility.MinParcelSize == 0 {
		c.Feasibility.MinParcelSize = 3000
	}
	if c.ResidentialDeveloper.SqftPerJob == 0 {
		c.ResidentialDeveloper.SqftPerJob = 400
	}
	if c.NonResidentialDeveloper.SqftPerJob == 0 {
		c.NonResidentialDeveloper.SqftPerJob = 400
	}
	defaultEquilibration(&c.PriceEquilibration, "residential_price")
	defaultEquilibration(&c.RentEquilibration, "non_residential_rent")
}

func defaultEquilibration(e *EquilibrationConfig, col string) {
	if e.PriceCol == "" {
		e.PriceCol = col
	}
	if e.MultiplierFunc == "" {
		e.MultiplierFunc = "ratio"
	}
	if e.Iterations == 0 {
		e.Iterations = 5
	}
	if e.Elasticity == 0 {
		e.Elasticity = 1.0
	}
	if e.ClipChangeLow == 0 && e.ClipChangeHigh == 0 {
		e.ClipChangeLow = 0.75
		e.ClipChangeHigh = 1.25
	}
}

// Validate checks the config is runnable. A failure here aborts the run
// before any simulation starts.
func (c *Config) Validate() error {
	if c == nil {
		return errors.New("config is nil")
	}
	if len(c.Proforma.CostPerSqft) == 0 {
		return errors.New("proforma.cost_per_sqft is required")
	}
	if c.Proforma.ProfitWeight < 0 || c.Proforma.ProfitWeight > 1 {
		return errors.New("proforma.profit_weight must be in [0, 1]")
	}
	for _, e := range []struct {
		name string
		cfg  EquilibrationConfig
	}{
		{"price_equilibration", c.PriceEquilibration},
		{"rent_equilibration", c.RentEquilibration},
	} {
		if e.cfg.Iterations <= 0 {
			return fmt.Errorf("%s.iterations must be > 0", e.name)
		}
		if e.cfg.ClipChangeLow > e.cfg.ClipChangeHigh {
			return fmt.Errorf("%s: clip_change_low > clip_change_high", e.name)
		}
	}
	lvt := c.AcctSettings.LandValueTaxSettings.Bins
	if len(lvt.Breaks) > 0 && len(lvt.Rates) != len(lvt.Breaks) {
		return fmt.Errorf("land_value_tax_settings.bins: got %d rates for %d breaks",
			len(lvt.Rates), len(lvt.Breaks))
	}
	for _, a := range c.AcctSettings.LumpSumAccounts {
		if a.Name == "" {
			return errors.New("lump_sum_accounts: name is required")
		}
		if a.TotalAmount <= 0 {
			return fmt.Errorf("lump_sum_accounts %q: total_amount must be > 0", a.Name)
		}
	}
	for scen, byJuris := range c.DevelopmentLimits {
		for juris, byType := range byJuris {
			for typ, cap := range byType {
				if cap < 0 {
					return fmt.Errorf("development_limits[%s][%s][%s] is negative", scen, juris, typ)
				}
			}
		}
	}
	if splits := c.NonResidentialDeveloper.TypeSplits; len(splits) > 0 {
		total := 0.0
		for _, f := range splits {
			total += f
		}
		if total < 0.999 || total > 1.001 {
			return fmt.Errorf("non_residential_developer.type_splits must sum to 1, got %.3f", total)
		}
	}
	return nil
}

// ResolveLimits flattens development limits for a scenario: the default map
// overlaid by the scenario's own entries. An override entry replaces the
// jurisdiction+type cell wholesale.
func (c *Config) ResolveLimits(scenario string) map[string]map[string]float64 {
	out := map[string]map[string]float64{}
	for juris, byType := range c.DevelopmentLimits["default"] {
		out[juris] = map[string]float64{}
		for typ, cap := range byType {
			out[juris][typ] = cap
		}
	}
	for juris, byType := range c.DevelopmentLimits[scenario] {
		if out[juris] == nil {
			out[juris] = map[string]float64{}
		}
		for typ, cap := range byType {
			out[juris][typ] = cap
		}
	}
	return out
}

// InclusionaryRateFor returns the affordable-unit fraction mandated for a
// jurisdiction under a scenario, or 0 when none applies.
func (c *Config) InclusionaryRateFor(scenario, jurisdiction string) float64 {
	for _, entry := range c.InclusionaryHousingSettings[scenario] {
		for _, j := range entry.Jurisdictions {
			if j == jurisdiction {
				return entry.Amount
			}
		}
	}
	return 0
}

// Scenarios lists every scenario identifier mentioned anywhere in the
// configuration, sorted, excluding "default".
func (c *Config) Scenarios() []string {
	seen := map[string]bool{}
	add := func(ids []string) {
		for _, id := range ids {
			seen[id] = true
		}
	}
	for scen := range c.DevelopmentLimits {
		seen[scen] = true
	}
	for scen := range c.InclusionaryHousingSettings {
		seen[scen] = true
	}
	for _, a := range c.AcctSettings.LumpSumAccounts {
		add(a.EnableInScenarios)
	}
	for _, a := range c.AcctSettings.ProfitAdjustmentPolicies {
		add(a.EnableInScenarios)
	}
	add(c.AcctSettings.LandValueTaxSettings.EnableInScenarios)
	add(c.AcctSettings.VMTSettings.ResForResScenarios)
	add(c.AcctSettings.VMTSettings.ComForResScenarios)
	add(c.AcctSettings.VMTSettings.ComForComScenarios)
	if pt := c.AcctSettings.PropertyTaxSettings; pt != nil {
		add(pt.EnableInScenarios)
	}
	delete(seen, "default")

	out := make([]string, 0, len(seen))
	for id := range seen {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

// StaticParcelSet returns the permanently excluded parcel ids as a set.
func (c *Config) StaticParcelSet() map[int64]bool {
	set := make(map[int64]bool, len(c.StaticParcels))
	for _, id := range c.StaticParcels {
		set[id] = true
	}
	return set
}
