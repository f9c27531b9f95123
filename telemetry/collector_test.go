package telemetry

import (
	"math"
	"testing"

	"github.com/verdantlab/midden/systems"
)

func TestCollectorFlushAndReset(t *testing.T) {
	c := NewCollector(100)

	c.RecordMove(systems.MoveReport{Moved: true, CostDynamic: 0.7, CostStatic: 0.3})
	c.RecordMove(systems.MoveReport{Moved: true, CostDynamic: 1.0})
	c.RecordGather(systems.GatherReport{
		FromStatic:       5,
		FromDynamic:      5,
		WasteCreated:     0.5,
		OverflowReturned: 2,
		OverflowWaste:    0.2,
	})
	c.RecordEmit(systems.EmitReport{Output: 1.0, ToDynamic: 0.9, ToWaste: 0.1})
	c.RecordDeath(systems.DeathReport{Died: true, Holdings: 10, ToDynamic: 5, ToWaste: 5}, 40)
	c.RecordDeath(systems.DeathReport{Died: false}, 99) // survivors are not counted

	ledger := EnergyLedger{
		FieldStatic:        100,
		FieldDynamic:       50,
		FieldWaste:         10,
		AgentTotal:         40,
		InitialTotal:       199,
		WasteCreatedAccum:  0.7,
		MoveDestroyedAccum: 2,
	}

	stats := c.Flush(100, 3, []float64{10, 20, 30}, []float64{5, -1, 2}, ledger)

	if stats.WindowStartTick != 0 || stats.WindowEndTick != 100 {
		t.Errorf("window = [%d, %d], want [0, 100]", stats.WindowStartTick, stats.WindowEndTick)
	}
	if stats.LiveCount != 3 {
		t.Errorf("live = %d, want 3", stats.LiveCount)
	}
	if stats.Moves != 2 || stats.Gathers != 1 || stats.Emits != 1 {
		t.Errorf("events = %d/%d/%d, want 2/1/1", stats.Moves, stats.Gathers, stats.Emits)
	}
	if stats.Deaths != 1 {
		t.Errorf("deaths = %d, want 1", stats.Deaths)
	}
	if math.Abs(stats.MoveDestroyed-2.0) > 1e-9 {
		t.Errorf("move_destroyed = %v, want 2.0", stats.MoveDestroyed)
	}
	if math.Abs(stats.HarvestStatic-5) > 1e-9 || math.Abs(stats.HarvestDynamic-5) > 1e-9 {
		t.Errorf("harvest = %v/%v, want 5/5", stats.HarvestStatic, stats.HarvestDynamic)
	}
	// Gather waste plus overflow waste
	if math.Abs(stats.WasteCreated-0.7) > 1e-9 {
		t.Errorf("waste_created = %v, want 0.7", stats.WasteCreated)
	}
	if math.Abs(stats.OverflowReturned-2) > 1e-9 {
		t.Errorf("overflow_returned = %v, want 2", stats.OverflowReturned)
	}
	if math.Abs(stats.Emitted-1.0) > 1e-9 || math.Abs(stats.EmitToWaste-0.1) > 1e-9 {
		t.Errorf("emitted = %v/%v, want 1.0/0.1", stats.Emitted, stats.EmitToWaste)
	}
	if math.Abs(stats.DeathToDynamic-5) > 1e-9 || math.Abs(stats.DeathToWaste-5) > 1e-9 {
		t.Errorf("death recycle = %v/%v, want 5/5", stats.DeathToDynamic, stats.DeathToWaste)
	}
	if math.Abs(stats.DeathAgeMean-40) > 1e-9 {
		t.Errorf("death_age_mean = %v, want 40", stats.DeathAgeMean)
	}
	if math.Abs(stats.StoreMean-20) > 1e-9 {
		t.Errorf("store_mean = %v, want 20", stats.StoreMean)
	}
	if math.Abs(stats.MarginMean-2) > 1e-9 {
		t.Errorf("margin_mean = %v, want 2", stats.MarginMean)
	}
	if math.Abs(stats.TotalEnergy-200) > 1e-9 {
		t.Errorf("total_energy = %v, want 200", stats.TotalEnergy)
	}
	// 200 observed vs 199 + 0.7 - 2 expected
	if math.Abs(stats.ConservationDrift-2.3) > 1e-9 {
		t.Errorf("conservation_drift = %v, want 2.3", stats.ConservationDrift)
	}

	// Flush resets all counters and advances the window
	second := c.Flush(200, 3, nil, nil, ledger)
	if second.WindowStartTick != 100 {
		t.Errorf("second window start = %d, want 100", second.WindowStartTick)
	}
	if second.Moves != 0 || second.Deaths != 0 {
		t.Errorf("counters not reset: moves=%d deaths=%d", second.Moves, second.Deaths)
	}
	if second.WasteCreated != 0 || second.MoveDestroyed != 0 || second.DeathAgeMean != 0 {
		t.Error("amount accumulators not reset")
	}
}

func TestCollectorShouldFlush(t *testing.T) {
	c := NewCollector(100)

	if c.ShouldFlush(99) {
		t.Error("should not flush before the window ends")
	}
	if !c.ShouldFlush(100) {
		t.Error("should flush at the window boundary")
	}

	c.Flush(100, 0, nil, nil, EnergyLedger{})

	if c.ShouldFlush(199) {
		t.Error("should not flush mid-window after a flush")
	}
	if !c.ShouldFlush(200) {
		t.Error("should flush at the next boundary")
	}
}

func TestCollectorMinimumWindow(t *testing.T) {
	c := NewCollector(0)
	if c.WindowTicks() != 1 {
		t.Errorf("window ticks = %d, want 1", c.WindowTicks())
	}
}

func TestEnergyLedgerDrift(t *testing.T) {
	tests := []struct {
		name   string
		ledger EnergyLedger
		want   float64
	}{
		{
			name: "conserving run",
			ledger: EnergyLedger{
				FieldStatic: 80, FieldDynamic: 15, FieldWaste: 5, AgentTotal: 3,
				InitialTotal: 100, WasteCreatedAccum: 5, MoveDestroyedAccum: 2,
			},
			want: 0,
		},
		{
			name: "unaccounted creation",
			ledger: EnergyLedger{
				FieldStatic: 80, FieldDynamic: 20, FieldWaste: 5, AgentTotal: 0,
				InitialTotal: 100, WasteCreatedAccum: 0, MoveDestroyedAccum: 0,
			},
			want: 5,
		},
		{
			name: "unaccounted loss",
			ledger: EnergyLedger{
				FieldStatic: 90, FieldDynamic: 0, FieldWaste: 0, AgentTotal: 0,
				InitialTotal: 100, WasteCreatedAccum: 0, MoveDestroyedAccum: 0,
			},
			want: -10,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.ledger.Drift(); math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("Drift() = %v, want %v", got, tt.want)
			}
		})
	}
}
