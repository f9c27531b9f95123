package telemetry

import "github.com/verdantlab/midden/systems"

// Collector accumulates transfer events within stats windows and
// produces WindowStats.
type Collector struct {
	windowTicks int64

	// Current window tracking
	windowStartTick int64

	// Event counters for current window
	moves   int
	gathers int
	emits   int
	deaths  int

	// Transfer totals for current window
	harvestStatic    float64
	harvestDynamic   float64
	wasteCreated     float64
	overflowReturned float64
	moveDestroyed    float64
	emitted          float64
	emitToWaste      float64
	deathToDynamic   float64
	deathToWaste     float64
	deathAgeSum      float64
}

// NewCollector creates a stats collector that flushes every windowTicks ticks.
func NewCollector(windowTicks int64) *Collector {
	if windowTicks < 1 {
		windowTicks = 1
	}
	return &Collector{windowTicks: windowTicks}
}

// RecordMove records a completed move step.
func (c *Collector) RecordMove(r systems.MoveReport) {
	c.moves++
	c.moveDestroyed += r.Destroyed()
}

// RecordGather records a completed gather step.
func (c *Collector) RecordGather(r systems.GatherReport) {
	c.gathers++
	c.harvestStatic += r.FromStatic
	c.harvestDynamic += r.FromDynamic
	c.wasteCreated += r.Created()
	c.overflowReturned += r.OverflowReturned
}

// RecordEmit records a completed emit step.
func (c *Collector) RecordEmit(r systems.EmitReport) {
	c.emits++
	c.emitted += r.Output
	c.emitToWaste += r.ToWaste
}

// RecordDeath records a death and the dead agent's age in ticks.
func (c *Collector) RecordDeath(r systems.DeathReport, age int64) {
	if !r.Died {
		return
	}
	c.deaths++
	c.deathToDynamic += r.ToDynamic
	c.deathToWaste += r.ToWaste
	c.deathAgeSum += float64(age)
}

// ShouldFlush returns true if enough ticks have passed to flush the window.
func (c *Collector) ShouldFlush(currentTick int64) bool {
	return currentTick-c.windowStartTick >= c.windowTicks
}

// EnergyLedger holds pool totals and cumulative ledger terms for
// conservation tracking.
type EnergyLedger struct {
	FieldStatic  float64 // grid static pool total
	FieldDynamic float64 // grid dynamic pool total
	FieldWaste   float64 // grid waste pool total
	AgentTotal   float64 // holdings of all living agents

	InitialTotal       float64 // system total right after seeding
	WasteCreatedAccum  float64 // cumulative waste created by gathering
	MoveDestroyedAccum float64 // cumulative energy destroyed by movement
}

// Total returns the energy currently in the system.
func (l EnergyLedger) Total() float64 {
	return l.FieldStatic + l.FieldDynamic + l.FieldWaste + l.AgentTotal
}

// Expected returns the total implied by the ledger identity: the
// initial total plus created waste minus movement losses.
func (l EnergyLedger) Expected() float64 {
	return l.InitialTotal + l.WasteCreatedAccum - l.MoveDestroyedAccum
}

// Drift returns Total minus Expected. Zero up to float error when the
// transfer rules conserve.
func (l EnergyLedger) Drift() float64 {
	return l.Total() - l.Expected()
}

// Flush produces a WindowStats and resets counters for the next window.
// The caller must provide:
// - currentTick: the current simulation tick
// - liveCount: current living agent count
// - storeTotals: per-agent holdings for percentile calculation
// - wasteMargins: per-agent static minus waste store values
// - ledger: energy pool totals for conservation tracking
func (c *Collector) Flush(
	currentTick int64,
	liveCount int,
	storeTotals, wasteMargins []float64,
	ledger EnergyLedger,
) WindowStats {
	var deathAgeMean float64
	if c.deaths > 0 {
		deathAgeMean = c.deathAgeSum / float64(c.deaths)
	}

	storeMean, storeP10, storeP50, storeP90 := ComputeStoreStats(storeTotals)
	marginMean, marginP10, marginP50, marginP90 := ComputeStoreStats(wasteMargins)

	stats := WindowStats{
		WindowStartTick: c.windowStartTick,
		WindowEndTick:   currentTick,

		LiveCount: liveCount,

		Moves:   c.moves,
		Gathers: c.gathers,
		Emits:   c.emits,
		Deaths:  c.deaths,

		HarvestStatic:    c.harvestStatic,
		HarvestDynamic:   c.harvestDynamic,
		WasteCreated:     c.wasteCreated,
		OverflowReturned: c.overflowReturned,
		MoveDestroyed:    c.moveDestroyed,
		Emitted:          c.emitted,
		EmitToWaste:      c.emitToWaste,
		DeathToDynamic:   c.deathToDynamic,
		DeathToWaste:     c.deathToWaste,
		DeathAgeMean:     deathAgeMean,

		StoreMean: storeMean,
		StoreP10:  storeP10,
		StoreP50:  storeP50,
		StoreP90:  storeP90,

		MarginMean: marginMean,
		MarginP10:  marginP10,
		MarginP50:  marginP50,
		MarginP90:  marginP90,

		FieldStatic:        ledger.FieldStatic,
		FieldDynamic:       ledger.FieldDynamic,
		FieldWaste:         ledger.FieldWaste,
		AgentTotal:         ledger.AgentTotal,
		TotalEnergy:        ledger.Total(),
		WasteCreatedAccum:  ledger.WasteCreatedAccum,
		MoveDestroyedAccum: ledger.MoveDestroyedAccum,
		ConservationDrift:  ledger.Drift(),
	}

	// Reset for next window
	c.windowStartTick = currentTick
	c.moves = 0
	c.gathers = 0
	c.emits = 0
	c.deaths = 0
	c.harvestStatic = 0
	c.harvestDynamic = 0
	c.wasteCreated = 0
	c.overflowReturned = 0
	c.moveDestroyed = 0
	c.emitted = 0
	c.emitToWaste = 0
	c.deathToDynamic = 0
	c.deathToWaste = 0
	c.deathAgeSum = 0

	return stats
}

// WindowTicks returns the number of ticks per stats window.
func (c *Collector) WindowTicks() int64 {
	return c.windowTicks
}
