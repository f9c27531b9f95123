// Package config provides configuration loading and access for the simulation.
package config

import (
	_ "embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

//go:embed defaults.yaml
var defaultsYAML []byte

// Config holds all simulation configuration parameters.
type Config struct {
	Grid      GridConfig      `yaml:"grid"`
	Agents    AgentsConfig    `yaml:"agents"`
	Transfer  TransferConfig  `yaml:"transfer"`
	Run       RunConfig       `yaml:"run"`
	Telemetry TelemetryConfig `yaml:"telemetry"`

	// Derived values computed after loading
	Derived DerivedConfig `yaml:"-"`
}

// GridConfig holds grid dimensions and the initial energy layout.
type GridConfig struct {
	Width          int     `yaml:"width"`
	Height         int     `yaml:"height"`
	EnergyBudget   float64 `yaml:"energy_budget"`   // Total cell energy distributed at init
	StaticFraction float64 `yaml:"static_fraction"` // Share of the budget seeded as static (rest dynamic)
	Layout         string  `yaml:"layout"`          // "uniform" or "noise"
	NoiseScale     float64 `yaml:"noise_scale"`     // Noise frequency when layout is "noise"
	NoiseOctaves   int     `yaml:"noise_octaves"`
}

// AgentsConfig holds agent seeding parameters.
type AgentsConfig struct {
	Count               int     `yaml:"count"`                 // Requested population; seeding may skip slots
	InitialStaticStore  float64 `yaml:"initial_static_store"`  // Drawn from the seed cell's static pool
	InitialDynamicStore float64 `yaml:"initial_dynamic_store"` // Drawn from dynamic, shortfall covered by static
	InitialWasteStore   float64 `yaml:"initial_waste_store"`   // Created at the agent, not drawn from the cell
	MaxDynamicStore     float64 `yaml:"max_dynamic_store"`
	NeededEnergy        float64 `yaml:"needed_energy"` // Target harvest per step
}

// TransferConfig holds the per-step transfer protocol parameters.
// Movement cost, the emit split, and overflow waste are named fields
// rather than constants so they can be tuned and tested.
type TransferConfig struct {
	RateStaticGather          float64 `yaml:"rate_static_gather"`
	RateDynamicGather         float64 `yaml:"rate_dynamic_gather"`
	PercentWasteGenerated     float64 `yaml:"percent_waste_generated"` // Fraction of harvest created as agent waste
	DynamicVsStaticPreference float64 `yaml:"dynamic_vs_static_preference"`
	WasteImpactRate           float64 `yaml:"waste_impact_rate"` // Stored for external readers; unused by the transfer math
	DeathRecycleRatio         float64 `yaml:"death_recycle_ratio"`
	MoveCost                  float64 `yaml:"move_cost"`
	EmitFraction              float64 `yaml:"emit_fraction"`
	EmitWasteFraction         float64 `yaml:"emit_waste_fraction"`
	OverflowWasteFraction     float64 `yaml:"overflow_waste_fraction"`
}

// RunConfig holds run-length and seeding parameters.
type RunConfig struct {
	Ticks int   `yaml:"ticks"`
	Seed  int64 `yaml:"seed"` // 0 = derive from wall clock at the driver
}

// TelemetryConfig holds telemetry parameters.
type TelemetryConfig struct {
	StatsWindow         int    `yaml:"stats_window"` // Flush cadence in ticks
	DetectorHistorySize int    `yaml:"detector_history_size"`
	PerfWindow          int    `yaml:"perf_window"`
	OutputDir           string `yaml:"output_dir"` // Empty disables file output
	Trace               bool   `yaml:"trace"`      // Per-tick compressed JSONL trace
}

// DerivedConfig holds computed values derived from the loaded config.
type DerivedConfig struct {
	Cells       int     // Width * Height
	CellStatic  float64 // Per-cell static energy under the uniform layout
	CellDynamic float64 // Per-cell dynamic energy under the uniform layout
}

// global holds the loaded configuration.
var global *Config

// Init loads configuration from the given path, or uses embedded defaults if path is empty.
// Must be called before Cfg().
func Init(path string) error {
	cfg, err := Load(path)
	if err != nil {
		return err
	}
	global = cfg
	return nil
}

// MustInit is like Init but panics on error.
func MustInit(path string) {
	if err := Init(path); err != nil {
		panic(fmt.Sprintf("config: failed to initialize: %v", err))
	}
}

// Cfg returns the global configuration. Panics if Init was not called.
func Cfg() *Config {
	if global == nil {
		panic("config: Cfg() called before Init()")
	}
	return global
}

// Load loads configuration from a YAML file, merging with embedded defaults.
// If path is empty, only embedded defaults are used.
func Load(path string) (*Config, error) {
	// Start with embedded defaults
	cfg := &Config{}
	if err := yaml.Unmarshal(defaultsYAML, cfg); err != nil {
		return nil, fmt.Errorf("parsing embedded defaults: %w", err)
	}

	// Load user config if provided
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		// Unmarshal into same struct - only overwrites fields present in file
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	// Compute derived values
	cfg.computeDerived()

	return cfg, nil
}

// Validate rejects configurations that would produce negative or NaN state
// later. Called by Load so a bad config fails at startup, not mid-run.
func (c *Config) Validate() error {
	if c.Grid.Width <= 0 {
		return fmt.Errorf("grid.width must be > 0, got %d", c.Grid.Width)
	}
	if c.Grid.Height <= 0 {
		return fmt.Errorf("grid.height must be > 0, got %d", c.Grid.Height)
	}
	if c.Grid.EnergyBudget < 0 {
		return fmt.Errorf("grid.energy_budget must be >= 0, got %g", c.Grid.EnergyBudget)
	}
	if err := checkFraction("grid.static_fraction", c.Grid.StaticFraction); err != nil {
		return err
	}
	switch c.Grid.Layout {
	case "uniform":
	case "noise":
		if c.Grid.NoiseScale <= 0 {
			return fmt.Errorf("grid.noise_scale must be > 0 for the noise layout, got %g", c.Grid.NoiseScale)
		}
		if c.Grid.NoiseOctaves < 1 {
			return fmt.Errorf("grid.noise_octaves must be >= 1, got %d", c.Grid.NoiseOctaves)
		}
	default:
		return fmt.Errorf("grid.layout must be %q or %q, got %q", "uniform", "noise", c.Grid.Layout)
	}

	if c.Agents.Count < 0 {
		return fmt.Errorf("agents.count must be >= 0, got %d", c.Agents.Count)
	}
	if c.Agents.InitialStaticStore < 0 {
		return fmt.Errorf("agents.initial_static_store must be >= 0, got %g", c.Agents.InitialStaticStore)
	}
	if c.Agents.InitialDynamicStore < 0 {
		return fmt.Errorf("agents.initial_dynamic_store must be >= 0, got %g", c.Agents.InitialDynamicStore)
	}
	if c.Agents.InitialWasteStore < 0 {
		return fmt.Errorf("agents.initial_waste_store must be >= 0, got %g", c.Agents.InitialWasteStore)
	}
	if c.Agents.MaxDynamicStore <= 0 {
		return fmt.Errorf("agents.max_dynamic_store must be > 0, got %g", c.Agents.MaxDynamicStore)
	}
	if c.Agents.InitialDynamicStore > c.Agents.MaxDynamicStore {
		return fmt.Errorf("agents.initial_dynamic_store must be <= agents.max_dynamic_store (%g), got %g",
			c.Agents.MaxDynamicStore, c.Agents.InitialDynamicStore)
	}
	if c.Agents.NeededEnergy <= 0 {
		return fmt.Errorf("agents.needed_energy must be > 0, got %g", c.Agents.NeededEnergy)
	}

	if c.Transfer.RateStaticGather < 0 {
		return fmt.Errorf("transfer.rate_static_gather must be >= 0, got %g", c.Transfer.RateStaticGather)
	}
	if c.Transfer.RateDynamicGather < 0 {
		return fmt.Errorf("transfer.rate_dynamic_gather must be >= 0, got %g", c.Transfer.RateDynamicGather)
	}
	if c.Transfer.WasteImpactRate < 0 {
		return fmt.Errorf("transfer.waste_impact_rate must be >= 0, got %g", c.Transfer.WasteImpactRate)
	}
	if c.Transfer.MoveCost < 0 {
		return fmt.Errorf("transfer.move_cost must be >= 0, got %g", c.Transfer.MoveCost)
	}
	fractions := []struct {
		name string
		v    float64
	}{
		{"transfer.percent_waste_generated", c.Transfer.PercentWasteGenerated},
		{"transfer.dynamic_vs_static_preference", c.Transfer.DynamicVsStaticPreference},
		{"transfer.death_recycle_ratio", c.Transfer.DeathRecycleRatio},
		{"transfer.emit_fraction", c.Transfer.EmitFraction},
		{"transfer.emit_waste_fraction", c.Transfer.EmitWasteFraction},
		{"transfer.overflow_waste_fraction", c.Transfer.OverflowWasteFraction},
	}
	for _, f := range fractions {
		if err := checkFraction(f.name, f.v); err != nil {
			return err
		}
	}

	if c.Run.Ticks < 0 {
		return fmt.Errorf("run.ticks must be >= 0, got %d", c.Run.Ticks)
	}
	if c.Telemetry.StatsWindow <= 0 {
		return fmt.Errorf("telemetry.stats_window must be > 0, got %d", c.Telemetry.StatsWindow)
	}

	return nil
}

func checkFraction(name string, v float64) error {
	if v < 0 || v > 1 {
		return fmt.Errorf("%s must be in [0,1], got %g", name, v)
	}
	return nil
}

// computeDerived calculates values derived from loaded config.
func (c *Config) computeDerived() {
	cells := c.Grid.Width * c.Grid.Height
	c.Derived.Cells = cells
	c.Derived.CellStatic = c.Grid.EnergyBudget * c.Grid.StaticFraction / float64(cells)
	c.Derived.CellDynamic = c.Grid.EnergyBudget * (1 - c.Grid.StaticFraction) / float64(cells)
}

// WriteYAML writes the configuration to a YAML file.
func (c *Config) WriteYAML(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	return nil
}
