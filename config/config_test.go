package config

import (
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load(\"\") failed: %v", err)
	}

	if cfg.Grid.Width <= 0 || cfg.Grid.Height <= 0 {
		t.Errorf("defaults missing grid dimensions: %dx%d", cfg.Grid.Width, cfg.Grid.Height)
	}
	if cfg.Agents.NeededEnergy <= 0 {
		t.Errorf("defaults missing agents.needed_energy: %g", cfg.Agents.NeededEnergy)
	}

	wantCells := cfg.Grid.Width * cfg.Grid.Height
	if cfg.Derived.Cells != wantCells {
		t.Errorf("Derived.Cells = %d, want %d", cfg.Derived.Cells, wantCells)
	}
	wantStatic := cfg.Grid.EnergyBudget * cfg.Grid.StaticFraction / float64(wantCells)
	if math.Abs(cfg.Derived.CellStatic-wantStatic) > 1e-9 {
		t.Errorf("Derived.CellStatic = %g, want %g", cfg.Derived.CellStatic, wantStatic)
	}
	wantDynamic := cfg.Grid.EnergyBudget*(1-cfg.Grid.StaticFraction)/float64(wantCells)
	if math.Abs(cfg.Derived.CellDynamic-wantDynamic) > 1e-9 {
		t.Errorf("Derived.CellDynamic = %g, want %g", cfg.Derived.CellDynamic, wantDynamic)
	}
}

func TestLoadMergesUserFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "override.yaml")
	override := "grid:\n  width: 7\ntransfer:\n  move_cost: 0.0\n"
	if err := os.WriteFile(path, []byte(override), 0644); err != nil {
		t.Fatalf("writing override: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load(%q) failed: %v", path, err)
	}

	if cfg.Grid.Width != 7 {
		t.Errorf("Grid.Width = %d, want 7 (overridden)", cfg.Grid.Width)
	}
	if cfg.Transfer.MoveCost != 0 {
		t.Errorf("Transfer.MoveCost = %g, want 0 (overridden)", cfg.Transfer.MoveCost)
	}
	// Fields absent from the file keep their defaults.
	if cfg.Grid.Height <= 0 {
		t.Errorf("Grid.Height = %d, want default > 0", cfg.Grid.Height)
	}
	if cfg.Transfer.EmitFraction != 0.1 {
		t.Errorf("Transfer.EmitFraction = %g, want default 0.1", cfg.Transfer.EmitFraction)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Error("Load of missing file succeeded, want error")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{"valid defaults", func(c *Config) {}, ""},
		{"negative width", func(c *Config) { c.Grid.Width = -3 }, "grid.width"},
		{"zero height", func(c *Config) { c.Grid.Height = 0 }, "grid.height"},
		{"static fraction above one", func(c *Config) { c.Grid.StaticFraction = 1.5 }, "grid.static_fraction"},
		{"unknown layout", func(c *Config) { c.Grid.Layout = "radial" }, "grid.layout"},
		{"noise layout needs scale", func(c *Config) { c.Grid.Layout = "noise"; c.Grid.NoiseScale = 0 }, "grid.noise_scale"},
		{"negative agent count", func(c *Config) { c.Agents.Count = -1 }, "agents.count"},
		{"zero needed energy", func(c *Config) { c.Agents.NeededEnergy = 0 }, "agents.needed_energy"},
		{"zero max dynamic store", func(c *Config) { c.Agents.MaxDynamicStore = 0 }, "agents.max_dynamic_store"},
		{"initial dynamic store above cap", func(c *Config) {
			c.Agents.InitialDynamicStore = 150
			c.Agents.MaxDynamicStore = 100
		}, "agents.initial_dynamic_store"},
		{"initial dynamic store at cap", func(c *Config) {
			c.Agents.InitialDynamicStore = 100
			c.Agents.MaxDynamicStore = 100
		}, ""},
		{"negative static gather rate", func(c *Config) { c.Transfer.RateStaticGather = -0.5 }, "transfer.rate_static_gather"},
		{"negative move cost", func(c *Config) { c.Transfer.MoveCost = -1 }, "transfer.move_cost"},
		{"preference above one", func(c *Config) { c.Transfer.DynamicVsStaticPreference = 2 }, "transfer.dynamic_vs_static_preference"},
		{"negative recycle ratio", func(c *Config) { c.Transfer.DeathRecycleRatio = -0.1 }, "transfer.death_recycle_ratio"},
		{"negative ticks", func(c *Config) { c.Run.Ticks = -10 }, "run.ticks"},
		{"zero stats window", func(c *Config) { c.Telemetry.StatsWindow = 0 }, "telemetry.stats_window"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := Load("")
			if err != nil {
				t.Fatalf("Load(\"\") failed: %v", err)
			}
			tt.mutate(cfg)

			err = cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("Validate() = %v, want nil", err)
				}
				return
			}
			if err == nil {
				t.Fatalf("Validate() = nil, want error containing %q", tt.wantErr)
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Validate() = %q, want error containing %q", err.Error(), tt.wantErr)
			}
		})
	}
}

func TestWriteYAMLRoundTrip(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load(\"\") failed: %v", err)
	}
	cfg.Grid.Width = 33

	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := cfg.WriteYAML(path); err != nil {
		t.Fatalf("WriteYAML failed: %v", err)
	}

	back, err := Load(path)
	if err != nil {
		t.Fatalf("Load of written config failed: %v", err)
	}
	if back.Grid.Width != 33 {
		t.Errorf("round-tripped Grid.Width = %d, want 33", back.Grid.Width)
	}
}
