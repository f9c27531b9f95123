package sim

import (
	"log/slog"
	"math"

	"github.com/mlange-42/ark/ecs"

	"github.com/verdantlab/midden/components"
	"github.com/verdantlab/midden/config"
	"github.com/verdantlab/midden/systems"
)

// seedAgents places the initial population. Each slot draws a uniformly
// random candidate cell, then probes row-major with wrap until it finds
// a cell whose pools can cover the requested initial stores. A slot is
// skipped only when no cell in the grid is viable.
func (m *Model) seedAgents() {
	cfg := config.Cfg()
	w, _ := m.field.GridSize()
	cells := len(m.field.Static)

	seeded := 0
	for slot := 0; slot < cfg.Agents.Count; slot++ {
		start := m.rng.Intn(cells)
		placed := false
		for probe := 0; probe < cells; probe++ {
			idx := (start + probe) % cells
			if m.trySeedAt(idx%w, idx/w) {
				placed = true
				seeded++
				break
			}
		}
		if !placed {
			slog.Warn("agent slot skipped, no viable cell",
				"slot", slot,
				"required_static", cfg.Agents.InitialStaticStore,
				"required_dynamic", cfg.Agents.InitialDynamicStore,
			)
		}
	}

	if seeded < cfg.Agents.Count {
		slog.Info("population seeded with skips",
			"requested", cfg.Agents.Count,
			"seeded", seeded,
		)
	}
}

// trySeedAt seeds one agent at (x, y) if the cell can fund it. The
// dynamic draw is capped by the cell's dynamic pool with the shortfall
// charged to static. The initial waste store is created at the agent
// and drawn from nothing.
func (m *Model) trySeedAt(x, y int) bool {
	cfg := config.Cfg()

	cellDynamic := m.field.Amount(systems.PoolDynamic, x, y)
	cellStatic := m.field.Amount(systems.PoolStatic, x, y)

	fromDynamic := math.Min(cellDynamic, cfg.Agents.InitialDynamicStore)
	fromStatic := cfg.Agents.InitialStaticStore + (cfg.Agents.InitialDynamicStore - fromDynamic)
	if cellStatic < fromStatic {
		return false
	}

	m.field.Adjust(systems.PoolDynamic, x, y, -fromDynamic)
	m.field.Adjust(systems.PoolStatic, x, y, -fromStatic)

	m.spawnAgent(x, y,
		cfg.Agents.InitialStaticStore,
		cfg.Agents.InitialDynamicStore,
		cfg.Agents.InitialWasteStore,
	)
	return true
}

// spawnAgent creates a live agent entity at (x, y) with the given stores.
func (m *Model) spawnAgent(x, y int, staticStore, dynamicStore, wasteStore float64) ecs.Entity {
	cfg := config.Cfg()

	id := m.nextID
	m.nextID++

	pos := components.Position{X: x, Y: y}
	st := components.Stores{
		Static:  staticStore,
		Dynamic: dynamicStore,
		Waste:   wasteStore,
		Alive:   true,
	}
	tr := components.Traits{
		ID:              id,
		MaxDynamicStore: cfg.Agents.MaxDynamicStore,
		NeededEnergy:    cfg.Agents.NeededEnergy,
	}

	entity := m.agentMapper.NewEntity(&pos, &st, &tr)
	m.liveCount++
	m.lifetimes.Register(id, m.tick)

	return entity
}

// cleanupDead removes agents marked dead this tick. Collection happens
// before any removal; the world must not change during a query.
func (m *Model) cleanupDead() {
	type deadAgent struct {
		entity ecs.Entity
		id     uint32
	}
	var dead []deadAgent

	query := m.agentFilter.Query()
	for query.Next() {
		_, st, tr := query.Get()
		if !st.Alive {
			dead = append(dead, deadAgent{entity: query.Entity(), id: tr.ID})
		}
	}

	for _, d := range dead {
		m.agentMapper.Remove(d.entity)
		if life := m.lifetimes.Remove(d.id); life != nil {
			m.board.Consider(d.id, m.tick, life)
		}
		m.liveCount--
		m.deadCount++
	}
	m.tickDeaths = len(dead)
}
