package main

import (
	"testing"

	"github.com/verdantlab/midden/config"
)

func TestFloorMinTightensCapSearch(t *testing.T) {
	tests := []struct {
		name        string
		floor       float64
		wantErr     bool
		wantMin     float64
		wantDefault float64
	}{
		{"below existing floor keeps range", 5, false, 20, 100},
		{"inside range raises floor", 50, false, 50, 100},
		{"above default drags default up", 150, false, 150, 150},
		{"at ceiling fails", 300, true, 0, 0},
		{"above ceiling fails", 400, true, 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pv := NewParamVector()
			err := pv.FloorMin("agents.max_dynamic_store", tt.floor)
			if tt.wantErr {
				if err == nil {
					t.Fatal("FloorMin = nil, want error for a floor above the ceiling")
				}
				return
			}
			if err != nil {
				t.Fatalf("FloorMin = %v, want nil", err)
			}

			var spec ParamSpec
			for _, s := range pv.Specs {
				if s.Path == "agents.max_dynamic_store" {
					spec = s
				}
			}
			if spec.Min != tt.wantMin {
				t.Errorf("Min = %g, want %g", spec.Min, tt.wantMin)
			}
			if spec.Default != tt.wantDefault {
				t.Errorf("Default = %g, want %g", spec.Default, tt.wantDefault)
			}
		})
	}
}

func TestApplyToConfigKeepsInitialWithinCap(t *testing.T) {
	cfg, err := config.Load("")
	if err != nil {
		t.Fatalf("Load(\"\") failed: %v", err)
	}
	cfg.Agents.InitialDynamicStore = 50

	pv := NewParamVector()
	if err := pv.FloorMin("agents.max_dynamic_store", cfg.Agents.InitialDynamicStore); err != nil {
		t.Fatalf("FloorMin = %v, want nil", err)
	}

	// A candidate proposing a cap below the locked initial store is
	// clamped up to the tightened floor.
	values := pv.DefaultVector()
	for i, spec := range pv.Specs {
		if spec.Path == "agents.max_dynamic_store" {
			values[i] = 20
		}
	}
	pv.ApplyToConfig(cfg, values)

	if cfg.Agents.MaxDynamicStore < cfg.Agents.InitialDynamicStore {
		t.Errorf("MaxDynamicStore = %g, below locked initial %g",
			cfg.Agents.MaxDynamicStore, cfg.Agents.InitialDynamicStore)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("applied candidate failed validation: %v", err)
	}
}
