package sim

import (
	"github.com/verdantlab/midden/systems"
	"github.com/verdantlab/midden/telemetry"
)

// Step advances the simulation by one tick. Living agents run the full
// move, gather, emit, death protocol one agent at a time in a freshly
// randomized order; agents that die are removed before the hooks run
// and take no further part in the run.
func (m *Model) Step() {
	m.perf.StartTick()

	m.perf.StartPhase(telemetry.PhaseOrder)
	m.order = m.order[:0]
	query := m.agentFilter.Query()
	for query.Next() {
		_, st, _ := query.Get()
		if st.Alive {
			m.order = append(m.order, query.Entity())
		}
	}
	m.rng.Shuffle(len(m.order), func(i, j int) {
		m.order[i], m.order[j] = m.order[j], m.order[i]
	})

	for _, e := range m.order {
		pos := m.posMap.Get(e)
		st := m.storesMap.Get(e)
		tr := m.traitsMap.Get(e)
		if pos == nil || st == nil || tr == nil || !st.Alive {
			continue
		}

		m.perf.StartPhase(telemetry.PhaseMove)
		mv := systems.Move(pos, st, m.field, m.rng)
		m.moveDestroyed += mv.Destroyed()
		m.collector.RecordMove(mv)
		m.lifetimes.RecordMove(tr.ID)

		m.perf.StartPhase(telemetry.PhaseGather)
		g := systems.Gather(pos, st, tr, m.field)
		m.wasteCreated += g.Created()
		m.collector.RecordGather(g)
		m.lifetimes.RecordHarvest(tr.ID, g.Harvest())

		m.perf.StartPhase(telemetry.PhaseEmit)
		em := systems.Emit(pos, st, m.field)
		m.collector.RecordEmit(em)
		m.lifetimes.RecordEmit(tr.ID, em.Output)

		m.perf.StartPhase(telemetry.PhaseDeath)
		d := systems.CheckDeath(pos, st, m.field)
		if d.Died {
			m.collector.RecordDeath(d, m.lifetimes.Age(tr.ID, m.tick))
		} else {
			m.lifetimes.UpdateHoldings(tr.ID, st.Total())
		}
	}

	m.perf.StartPhase(telemetry.PhaseCleanup)
	m.cleanupDead()

	m.perf.StartPhase(telemetry.PhaseHooks)
	for _, hook := range m.hooks {
		hook(m)
	}

	m.tick++
	m.perf.EndTick()
}

// Run advances the model the given number of ticks, stopping early on
// extinction. Returns the number of ticks actually executed.
func (m *Model) Run(ticks int) int {
	for t := 0; t < ticks; t++ {
		if m.liveCount == 0 {
			return t
		}
		m.Step()
	}
	return ticks
}
