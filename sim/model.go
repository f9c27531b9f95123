// Package sim wires the grid, agents, and transfer rules into a
// deterministic tick-driven model.
package sim

import (
	"math/rand"

	"github.com/mlange-42/ark/ecs"

	"github.com/verdantlab/midden/components"
	"github.com/verdantlab/midden/config"
	"github.com/verdantlab/midden/systems"
	"github.com/verdantlab/midden/telemetry"
)

// UpdateHook runs once per tick after the per-agent protocol. Hooks are
// a model-wide extension point; none are registered by default.
type UpdateHook func(m *Model)

// Model holds the complete simulation state.
type Model struct {
	world *ecs.World
	rng   *rand.Rand
	seed  int64

	agentMapper *ecs.Map3[
		components.Position,
		components.Stores,
		components.Traits,
	]
	agentFilter *ecs.Filter3[
		components.Position,
		components.Stores,
		components.Traits,
	]

	// Individual component mappers for lookups
	posMap    *ecs.Map1[components.Position]
	storesMap *ecs.Map1[components.Stores]
	traitsMap *ecs.Map1[components.Traits]

	// Cell pools
	field *systems.Field

	// State
	tick       int64
	nextID     uint32
	liveCount  int
	deadCount  int
	tickDeaths int

	// Conservation ledger accumulators
	initialTotal  float64
	wasteCreated  float64 // gather waste plus overflow waste, cumulative
	moveDestroyed float64 // movement costs, cumulative

	hooks []UpdateHook

	// Telemetry
	collector *telemetry.Collector
	lifetimes *telemetry.LifetimeTracker
	board     *telemetry.LongevityBoard
	perf      *telemetry.PerfCollector

	// Scratch buffer reused across ticks
	order []ecs.Entity
}

// New creates a model from the active configuration, seeds the grid and
// the initial population, and captures the ledger baseline.
func New(seed int64) *Model {
	cfg := config.Cfg()
	world := ecs.NewWorld()

	m := &Model{
		world: world,
		rng:   rand.New(rand.NewSource(seed)),
		seed:  seed,
		agentMapper: ecs.NewMap3[
			components.Position,
			components.Stores,
			components.Traits,
		](world),
		agentFilter: ecs.NewFilter3[
			components.Position,
			components.Stores,
			components.Traits,
		](world),
		posMap:    ecs.NewMap1[components.Position](world),
		storesMap: ecs.NewMap1[components.Stores](world),
		traitsMap: ecs.NewMap1[components.Traits](world),
		collector: telemetry.NewCollector(int64(cfg.Telemetry.StatsWindow)),
		lifetimes: telemetry.NewLifetimeTracker(),
		board:     telemetry.NewLongevityBoard(10),
		perf:      telemetry.NewPerfCollector(cfg.Telemetry.PerfWindow),
	}

	m.field = systems.NewField(cfg.Grid.Width, cfg.Grid.Height)
	switch cfg.Grid.Layout {
	case "noise":
		m.field.SeedNoise(cfg.Grid.EnergyBudget, cfg.Grid.StaticFraction,
			cfg.Grid.NoiseScale, cfg.Grid.NoiseOctaves, seed)
	default:
		m.field.SeedUniform(cfg.Grid.EnergyBudget, cfg.Grid.StaticFraction)
	}

	m.seedAgents()

	// Baseline after seeding: initial waste stores are created, not drawn.
	m.initialTotal = m.TotalEnergy()

	return m
}

// AddHook registers a model-wide per-tick hook.
func (m *Model) AddHook(h UpdateHook) {
	m.hooks = append(m.hooks, h)
}

// Tick returns the number of completed ticks.
func (m *Model) Tick() int64 {
	return m.tick
}

// Seed returns the seed the model was created with.
func (m *Model) Seed() int64 {
	return m.seed
}

// Field returns the cell pools for external inspection.
func (m *Model) Field() *systems.Field {
	return m.field
}

// LiveAgentCount returns the number of living agents.
func (m *Model) LiveAgentCount() int {
	return m.liveCount
}

// DeadCount returns the number of agents removed so far.
func (m *Model) DeadCount() int {
	return m.deadCount
}

// Board returns the longevity board for the run summary.
func (m *Model) Board() *telemetry.LongevityBoard {
	return m.board
}

// Perf returns the performance collector.
func (m *Model) Perf() *telemetry.PerfCollector {
	return m.perf
}

// AgentHoldings returns the summed stores of all living agents.
func (m *Model) AgentHoldings() float64 {
	var total float64
	query := m.agentFilter.Query()
	for query.Next() {
		_, st, _ := query.Get()
		if st.Alive {
			total += st.Total()
		}
	}
	return total
}

// TotalWaste returns waste held in cells and living agents combined.
func (m *Model) TotalWaste() float64 {
	total := m.field.TotalWaste()
	query := m.agentFilter.Query()
	for query.Next() {
		_, st, _ := query.Get()
		if st.Alive {
			total += st.Waste
		}
	}
	return total
}

// TotalEnergy returns all energy in the system: cell pools plus agent
// holdings. The conservation identity ties its change per tick to waste
// created minus movement losses.
func (m *Model) TotalEnergy() float64 {
	return m.field.TotalEnergy() + m.AgentHoldings()
}

// Ledger snapshots the energy pools and cumulative ledger terms.
func (m *Model) Ledger() telemetry.EnergyLedger {
	return telemetry.EnergyLedger{
		FieldStatic:        m.field.TotalStatic(),
		FieldDynamic:       m.field.TotalDynamic(),
		FieldWaste:         m.field.TotalWaste(),
		AgentTotal:         m.AgentHoldings(),
		InitialTotal:       m.initialTotal,
		WasteCreatedAccum:  m.wasteCreated,
		MoveDestroyedAccum: m.moveDestroyed,
	}
}

// ShouldFlush reports whether the current stats window is complete.
func (m *Model) ShouldFlush() bool {
	return m.collector.ShouldFlush(m.tick)
}

// FlushWindow aggregates the completed stats window and resets it.
func (m *Model) FlushWindow() telemetry.WindowStats {
	totals, margins := m.storeSamples()
	return m.collector.Flush(m.tick, m.liveCount, totals, margins, m.Ledger())
}

// storeSamples collects per-agent holdings and waste margins.
func (m *Model) storeSamples() (totals, margins []float64) {
	totals = make([]float64, 0, m.liveCount)
	margins = make([]float64, 0, m.liveCount)

	query := m.agentFilter.Query()
	for query.Next() {
		_, st, _ := query.Get()
		if !st.Alive {
			continue
		}
		totals = append(totals, st.Total())
		margins = append(margins, st.Static-st.Waste)
	}
	return totals, margins
}

// Trace builds the per-tick trace record for the completed tick.
func (m *Model) Trace() telemetry.TickTrace {
	return telemetry.TickTrace{
		Tick:          m.tick,
		Live:          m.liveCount,
		Deaths:        m.tickDeaths,
		FieldStatic:   m.field.TotalStatic(),
		FieldDynamic:  m.field.TotalDynamic(),
		FieldWaste:    m.field.TotalWaste(),
		AgentTotal:    m.AgentHoldings(),
		WasteCreated:  m.wasteCreated,
		MoveDestroyed: m.moveDestroyed,
	}
}

// Snapshot captures the full simulation state for offline inspection.
func (m *Model) Snapshot(event *telemetry.Event) *telemetry.Snapshot {
	w, h := m.field.GridSize()
	snap := &telemetry.Snapshot{
		Version:    telemetry.SnapshotVersion,
		Seed:       m.seed,
		GridWidth:  w,
		GridHeight: h,
		Tick:       m.tick,
		Static:     append([]float64(nil), m.field.Static...),
		Dynamic:    append([]float64(nil), m.field.Dynamic...),
		Waste:      append([]float64(nil), m.field.Waste...),
		Event:      event,
	}

	query := m.agentFilter.Query()
	for query.Next() {
		pos, st, tr := query.Get()
		if !st.Alive {
			continue
		}
		var birth int64
		if life := m.lifetimes.Get(tr.ID); life != nil {
			birth = life.BirthTick
		}
		snap.Agents = append(snap.Agents, telemetry.AgentState{
			ID:           tr.ID,
			X:            pos.X,
			Y:            pos.Y,
			StaticStore:  st.Static,
			DynamicStore: st.Dynamic,
			WasteStore:   st.Waste,
			BirthTick:    birth,
		})
	}

	return snap
}
