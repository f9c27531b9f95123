// Package main provides CMA-ES calibration for simulation parameters.
package main

import (
	"fmt"

	"github.com/verdantlab/midden/config"
)

// ParamSpec defines a single calibratable parameter.
type ParamSpec struct {
	Name    string  // Human-readable name
	Path    string  // Config path for logging
	Min     float64 // Lower bound
	Max     float64 // Upper bound
	Default float64 // Default value
}

// ParamVector holds the set of all calibratable parameters.
type ParamVector struct {
	Specs []ParamSpec
}

// NewParamVector creates the standard set of calibratable parameters.
// Initial agent stores are locked at their configured values so the
// search tunes flow rates, not starting endowments.
func NewParamVector() *ParamVector {
	return &ParamVector{
		Specs: []ParamSpec{
			// Transfer rates
			{Name: "rate_static_gather", Path: "transfer.rate_static_gather", Min: 0.1, Max: 2.0, Default: 1.0},
			{Name: "rate_dynamic_gather", Path: "transfer.rate_dynamic_gather", Min: 0.1, Max: 2.0, Default: 1.0},
			{Name: "percent_waste_generated", Path: "transfer.percent_waste_generated", Min: 0.0, Max: 0.2, Default: 0.05},
			{Name: "dynamic_vs_static_preference", Path: "transfer.dynamic_vs_static_preference", Min: 0.0, Max: 1.0, Default: 0.5},
			{Name: "death_recycle_ratio", Path: "transfer.death_recycle_ratio", Min: 0.0, Max: 1.0, Default: 0.5},
			{Name: "move_cost", Path: "transfer.move_cost", Min: 0.1, Max: 2.0, Default: 1.0},
			{Name: "emit_fraction", Path: "transfer.emit_fraction", Min: 0.0, Max: 0.5, Default: 0.1},
			{Name: "emit_waste_fraction", Path: "transfer.emit_waste_fraction", Min: 0.0, Max: 0.5, Default: 0.1},
			{Name: "overflow_waste_fraction", Path: "transfer.overflow_waste_fraction", Min: 0.0, Max: 0.5, Default: 0.1},
			// Agents
			{Name: "needed_energy", Path: "agents.needed_energy", Min: 1.0, Max: 30.0, Default: 10.0},
			{Name: "max_dynamic_store", Path: "agents.max_dynamic_store", Min: 20.0, Max: 300.0, Default: 100.0},
			{Name: "agent_count", Path: "agents.count", Min: 50, Max: 500, Default: 200},
		},
	}
}

// Dim returns the number of parameters.
func (pv *ParamVector) Dim() int {
	return len(pv.Specs)
}

// FloorMin raises the lower search bound of the named parameter so the
// search cannot propose values below min, nudging the default up if the
// tightened range excludes it. Returns an error when min reaches the
// upper bound: Normalize maps values over Max-Min, so a collapsed range
// has no searchable width.
func (pv *ParamVector) FloorMin(path string, min float64) error {
	for i := range pv.Specs {
		if pv.Specs[i].Path != path {
			continue
		}
		if min >= pv.Specs[i].Max {
			return fmt.Errorf("%s search floor %g leaves no range below ceiling %g", path, min, pv.Specs[i].Max)
		}
		if pv.Specs[i].Min < min {
			pv.Specs[i].Min = min
		}
		if pv.Specs[i].Default < pv.Specs[i].Min {
			pv.Specs[i].Default = pv.Specs[i].Min
		}
		return nil
	}
	return nil
}

// DefaultVector returns the default parameter values as a slice.
func (pv *ParamVector) DefaultVector() []float64 {
	v := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		v[i] = spec.Default
	}
	return v
}

// Normalize converts raw parameter values to [0,1] range.
func (pv *ParamVector) Normalize(raw []float64) []float64 {
	normalized := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		normalized[i] = (raw[i] - spec.Min) / (spec.Max - spec.Min)
	}
	return normalized
}

// Denormalize converts [0,1] values back to raw parameter values.
func (pv *ParamVector) Denormalize(normalized []float64) []float64 {
	raw := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		raw[i] = spec.Min + normalized[i]*(spec.Max-spec.Min)
	}
	return raw
}

// Clamp ensures all values are within bounds.
func (pv *ParamVector) Clamp(v []float64) []float64 {
	clamped := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		val := v[i]
		if val < spec.Min {
			val = spec.Min
		}
		if val > spec.Max {
			val = spec.Max
		}
		clamped[i] = val
	}
	return clamped
}

// ApplyToConfig applies parameter values to a Config struct.
func (pv *ParamVector) ApplyToConfig(cfg *config.Config, values []float64) {
	// Clamp values to ensure they're within bounds
	clamped := pv.Clamp(values)

	// Apply each parameter to the config
	// Order must match Specs order
	i := 0

	// Transfer rates
	cfg.Transfer.RateStaticGather = clamped[i]; i++
	cfg.Transfer.RateDynamicGather = clamped[i]; i++
	cfg.Transfer.PercentWasteGenerated = clamped[i]; i++
	cfg.Transfer.DynamicVsStaticPreference = clamped[i]; i++
	cfg.Transfer.DeathRecycleRatio = clamped[i]; i++
	cfg.Transfer.MoveCost = clamped[i]; i++
	cfg.Transfer.EmitFraction = clamped[i]; i++
	cfg.Transfer.EmitWasteFraction = clamped[i]; i++
	cfg.Transfer.OverflowWasteFraction = clamped[i]; i++

	// Agents (initial stores locked)
	cfg.Agents.NeededEnergy = clamped[i]; i++
	cfg.Agents.MaxDynamicStore = clamped[i]; i++
	cfg.Agents.Count = int(clamped[i])
}

// ExtractFromConfig extracts current parameter values from a Config struct.
func (pv *ParamVector) ExtractFromConfig(cfg *config.Config) []float64 {
	return []float64{
		cfg.Transfer.RateStaticGather,
		cfg.Transfer.RateDynamicGather,
		cfg.Transfer.PercentWasteGenerated,
		cfg.Transfer.DynamicVsStaticPreference,
		cfg.Transfer.DeathRecycleRatio,
		cfg.Transfer.MoveCost,
		cfg.Transfer.EmitFraction,
		cfg.Transfer.EmitWasteFraction,
		cfg.Transfer.OverflowWasteFraction,
		cfg.Agents.NeededEnergy,
		cfg.Agents.MaxDynamicStore,
		float64(cfg.Agents.Count),
	}
}
