package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/verdantlab/midden/config"
	"github.com/verdantlab/midden/telemetry"
)

// resetConfig reloads embedded defaults so each test starts from a known
// parameter set before overriding the fields it cares about.
func resetConfig(t *testing.T) *config.Config {
	t.Helper()
	config.MustInit("")
	return config.Cfg()
}

func TestRunWritesArtifacts(t *testing.T) {
	cfg := resetConfig(t)
	cfg.Grid.Width = 6
	cfg.Grid.Height = 6
	cfg.Grid.EnergyBudget = 36000 // 500 static, 500 dynamic per cell
	cfg.Grid.StaticFraction = 0.5
	cfg.Agents.Count = 5
	cfg.Agents.InitialStaticStore = 50
	cfg.Agents.InitialDynamicStore = 10
	cfg.Agents.InitialWasteStore = 0
	// No waste sources, so nobody dies and every tick executes.
	cfg.Transfer.MoveCost = 0
	cfg.Transfer.PercentWasteGenerated = 0
	cfg.Transfer.EmitWasteFraction = 0
	cfg.Transfer.OverflowWasteFraction = 0
	cfg.Telemetry.StatsWindow = 10

	dir := t.TempDir()
	if err := run(cfg, 42, 30, dir, true, true); err != nil {
		t.Fatalf("run failed: %v", err)
	}

	for _, name := range []string{
		"run.json", "config.yaml", "telemetry.csv", "perf.csv",
		"events.csv", "longevity.json",
	} {
		if _, err := os.Stat(filepath.Join(dir, name)); err != nil {
			t.Errorf("missing artifact %s: %v", name, err)
		}
	}

	// The trace must decode in full: records sit in the writer's buffer
	// until Close flushes the stream, so a truncated or undecodable file
	// means run returned without closing it.
	recs, err := telemetry.ReadTrace(filepath.Join(dir, "trace.jsonl.zst"))
	if err != nil {
		t.Fatalf("reading trace: %v", err)
	}
	if len(recs) != 30 {
		t.Fatalf("trace has %d records, want 30", len(recs))
	}
	for i, rec := range recs {
		if rec.Tick != int64(i+1) {
			t.Fatalf("record %d Tick = %d, want %d", i, rec.Tick, i+1)
		}
	}
	if last := recs[len(recs)-1]; last.Live != 5 {
		t.Errorf("final record Live = %d, want 5", last.Live)
	}
}

func TestRunRejectsUnusableOutputDir(t *testing.T) {
	cfg := resetConfig(t)
	cfg.Grid.Width = 4
	cfg.Grid.Height = 4
	cfg.Agents.Count = 1

	// A plain file where the output directory should go.
	path := filepath.Join(t.TempDir(), "occupied")
	if err := os.WriteFile(path, []byte("x"), 0644); err != nil {
		t.Fatalf("writing placeholder: %v", err)
	}

	if err := run(cfg, 1, 1, path, false, true); err == nil {
		t.Error("run with a file in place of the output dir succeeded, want error")
	}
}
