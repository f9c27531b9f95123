package telemetry

import (
	"log/slog"
	"sort"

	"gonum.org/v1/gonum/stat"
)

// WindowStats holds aggregated statistics for a stats window.
type WindowStats struct {
	WindowStartTick int64 `csv:"-"`
	WindowEndTick   int64 `csv:"window_end"`

	// Population at window end
	LiveCount int `csv:"live"`

	// Events during window
	Moves   int `csv:"moves"`
	Gathers int `csv:"gathers"`
	Emits   int `csv:"emits"`
	Deaths  int `csv:"deaths"`

	// Transfer totals during window
	HarvestStatic    float64 `csv:"harvest_static"`
	HarvestDynamic   float64 `csv:"harvest_dynamic"`
	WasteCreated     float64 `csv:"waste_created"`
	OverflowReturned float64 `csv:"overflow_returned"`
	MoveDestroyed    float64 `csv:"move_destroyed"`
	Emitted          float64 `csv:"emitted"`
	EmitToWaste      float64 `csv:"emit_to_waste"`
	DeathToDynamic   float64 `csv:"death_to_dynamic"`
	DeathToWaste     float64 `csv:"death_to_waste"`
	DeathAgeMean     float64 `csv:"death_age_mean"`

	// Holdings distribution (sampled at window end)
	StoreMean float64 `csv:"store_mean"`
	StoreP10  float64 `csv:"store_p10"`
	StoreP50  float64 `csv:"store_p50"`
	StoreP90  float64 `csv:"store_p90"`

	// Waste margin distribution: static store minus waste store.
	// An agent with a negative margin dies at its next death check.
	MarginMean float64 `csv:"margin_mean"`
	MarginP10  float64 `csv:"margin_p10"`
	MarginP50  float64 `csv:"margin_p50"`
	MarginP90  float64 `csv:"margin_p90"`

	// Energy pools (for conservation validation)
	FieldStatic        float64 `csv:"field_static"`
	FieldDynamic       float64 `csv:"field_dynamic"`
	FieldWaste         float64 `csv:"field_waste"`
	AgentTotal         float64 `csv:"agent_total"`
	TotalEnergy        float64 `csv:"total_energy"`
	WasteCreatedAccum  float64 `csv:"waste_created_accum"`
	MoveDestroyedAccum float64 `csv:"move_destroyed_accum"`
	ConservationDrift  float64 `csv:"conservation_drift"`
}

// ComputeStoreStats calculates mean and percentiles from per-agent values.
// Values are copied and sorted; an empty slice yields zeros.
func ComputeStoreStats(values []float64) (mean, p10, p50, p90 float64) {
	n := len(values)
	if n == 0 {
		return 0, 0, 0, 0
	}

	sorted := make([]float64, n)
	copy(sorted, values)
	sort.Float64s(sorted)

	mean = stat.Mean(sorted, nil)
	p10 = stat.Quantile(0.10, stat.LinInterp, sorted, nil)
	p50 = stat.Quantile(0.50, stat.LinInterp, sorted, nil)
	p90 = stat.Quantile(0.90, stat.LinInterp, sorted, nil)

	return mean, p10, p50, p90
}

// LogValue implements slog.LogValuer for structured logging.
func (s WindowStats) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Int64("window_start", s.WindowStartTick),
		slog.Int64("window_end", s.WindowEndTick),
		slog.Int("live", s.LiveCount),
		slog.Int("moves", s.Moves),
		slog.Int("gathers", s.Gathers),
		slog.Int("emits", s.Emits),
		slog.Int("deaths", s.Deaths),
		slog.Float64("harvest_static", s.HarvestStatic),
		slog.Float64("harvest_dynamic", s.HarvestDynamic),
		slog.Float64("waste_created", s.WasteCreated),
		slog.Float64("overflow_returned", s.OverflowReturned),
		slog.Float64("move_destroyed", s.MoveDestroyed),
		slog.Float64("emitted", s.Emitted),
		slog.Float64("emit_to_waste", s.EmitToWaste),
		slog.Float64("death_to_dynamic", s.DeathToDynamic),
		slog.Float64("death_to_waste", s.DeathToWaste),
		slog.Float64("death_age_mean", s.DeathAgeMean),
		slog.Float64("store_mean", s.StoreMean),
		slog.Float64("store_p10", s.StoreP10),
		slog.Float64("store_p50", s.StoreP50),
		slog.Float64("store_p90", s.StoreP90),
		slog.Float64("margin_mean", s.MarginMean),
		slog.Float64("margin_p10", s.MarginP10),
		slog.Float64("margin_p50", s.MarginP50),
		slog.Float64("margin_p90", s.MarginP90),
		slog.Float64("field_static", s.FieldStatic),
		slog.Float64("field_dynamic", s.FieldDynamic),
		slog.Float64("field_waste", s.FieldWaste),
		slog.Float64("agent_total", s.AgentTotal),
		slog.Float64("total_energy", s.TotalEnergy),
		slog.Float64("waste_created_accum", s.WasteCreatedAccum),
		slog.Float64("move_destroyed_accum", s.MoveDestroyedAccum),
		slog.Float64("conservation_drift", s.ConservationDrift),
	)
}

// LogStats logs the window stats using slog.
func (s WindowStats) LogStats() {
	slog.Info("stats",
		"window_end", s.WindowEndTick,
		"live", s.LiveCount,
		"deaths", s.Deaths,
		"harvest_static", s.HarvestStatic,
		"harvest_dynamic", s.HarvestDynamic,
		"waste_created", s.WasteCreated,
		"overflow_returned", s.OverflowReturned,
		"move_destroyed", s.MoveDestroyed,
		"emitted", s.Emitted,
		"death_age_mean", s.DeathAgeMean,
		"store_mean", s.StoreMean,
		"store_p10", s.StoreP10,
		"store_p50", s.StoreP50,
		"store_p90", s.StoreP90,
		"margin_mean", s.MarginMean,
		"margin_p10", s.MarginP10,
		"field_static", s.FieldStatic,
		"field_dynamic", s.FieldDynamic,
		"field_waste", s.FieldWaste,
		"agent_total", s.AgentTotal,
		"total_energy", s.TotalEnergy,
		"conservation_drift", s.ConservationDrift,
	)
}
