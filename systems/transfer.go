package systems

import (
	"math/rand"

	"github.com/verdantlab/midden/components"
	"github.com/verdantlab/midden/config"
)

// The four per-agent phases below run once each per tick, in order: Move,
// Gather, Emit, CheckDeath. Each returns a report of the amounts it moved,
// created, or destroyed so the caller can keep an exact energy ledger.

// MoveReport accounts for one movement phase.
type MoveReport struct {
	FromX, FromY int
	ToX, ToY     int
	Moved        bool
	CostDynamic  float64 // cost paid from the dynamic store
	CostStatic   float64 // shortfall paid from the static store
}

// Destroyed returns the energy this move removed from the system.
// Movement cost is deducted without a matching deposit anywhere; it is the
// model's single energy sink.
func (r *MoveReport) Destroyed() float64 {
	return r.CostDynamic + r.CostStatic
}

// GatherReport accounts for one gather phase.
type GatherReport struct {
	FromStatic       float64 // withdrawn from the cell's static pool
	FromDynamic      float64 // withdrawn from the cell's dynamic pool
	WasteCreated     float64 // created at the agent's waste store
	OverflowReturned float64 // dynamic excess returned to the cell
	OverflowWaste    float64 // created at the cell's waste pool
}

// Harvest returns the total amount gathered from the cell.
func (r *GatherReport) Harvest() float64 {
	return r.FromStatic + r.FromDynamic
}

// Created returns the waste energy this gather created from nothing.
func (r *GatherReport) Created() float64 {
	return r.WasteCreated + r.OverflowWaste
}

// EmitReport accounts for one emission phase.
type EmitReport struct {
	Output    float64 // removed from the agent's dynamic store
	ToDynamic float64 // share deposited to the cell's dynamic pool
	ToWaste   float64 // share deposited to the cell's waste pool
}

// DeathReport accounts for one death check.
type DeathReport struct {
	Died      bool
	Holdings  float64 // sum of all three stores at death
	ToDynamic float64 // recycled into the cell's dynamic pool
	ToWaste   float64 // recycled into the cell's waste pool
}

// Move relocates the agent to a uniformly random Moore neighbor of its cell
// and charges the movement cost: dynamic store first, any shortfall from the
// static store floored at zero. The deducted energy is not returned to the
// environment.
func Move(pos *components.Position, st *components.Stores, f *Field, rng *rand.Rand) MoveReport {
	rep := MoveReport{FromX: pos.X, FromY: pos.Y, ToX: pos.X, ToY: pos.Y}
	if !st.Alive {
		return rep
	}

	neighbors := f.Neighbors(pos.X, pos.Y)
	if len(neighbors) == 0 {
		// Degenerate grid with no cell to move to; nothing happens.
		return rep
	}
	dest := neighbors[rng.Intn(len(neighbors))]
	pos.X, pos.Y = dest[0], dest[1]
	rep.ToX, rep.ToY = dest[0], dest[1]
	rep.Moved = true

	cost := config.Cfg().Transfer.MoveCost
	if st.Dynamic >= cost {
		st.Dynamic -= cost
		rep.CostDynamic = cost
		return rep
	}

	rep.CostDynamic = st.Dynamic
	shortfall := cost - st.Dynamic
	st.Dynamic = 0
	if shortfall > st.Static {
		rep.CostStatic = st.Static
		st.Static = 0
	} else {
		rep.CostStatic = shortfall
		st.Static -= shortfall
	}
	return rep
}

// Gather harvests from the agent's current cell into its dynamic store.
// Desired amounts per pool are the per-step need split by preference and
// scaled by the per-pool gather rate, each capped by what the cell holds.
// A fraction of the harvest is created as agent waste (not drawn from the
// cell), and dynamic overflow above the capacity cap returns in full to the
// cell with an extra created waste share on top.
func Gather(pos *components.Position, st *components.Stores, tr *components.Traits, f *Field) GatherReport {
	var rep GatherReport
	if !st.Alive {
		return rep
	}
	cfg := config.Cfg()

	pref := cfg.Transfer.DynamicVsStaticPreference
	wantDynamic := tr.NeededEnergy * pref * cfg.Transfer.RateDynamicGather
	wantStatic := tr.NeededEnergy * (1 - pref) * cfg.Transfer.RateStaticGather

	takeDynamic := wantDynamic
	if avail := f.Amount(PoolDynamic, pos.X, pos.Y); takeDynamic > avail {
		takeDynamic = avail
	}
	takeStatic := wantStatic
	if avail := f.Amount(PoolStatic, pos.X, pos.Y); takeStatic > avail {
		takeStatic = avail
	}

	f.Adjust(PoolDynamic, pos.X, pos.Y, -takeDynamic)
	f.Adjust(PoolStatic, pos.X, pos.Y, -takeStatic)
	rep.FromDynamic = takeDynamic
	rep.FromStatic = takeStatic

	harvest := takeDynamic + takeStatic
	st.Dynamic += harvest

	rep.WasteCreated = harvest * cfg.Transfer.PercentWasteGenerated
	st.Waste += rep.WasteCreated

	if st.Dynamic > tr.MaxDynamicStore {
		excess := st.Dynamic - tr.MaxDynamicStore
		st.Dynamic = tr.MaxDynamicStore

		// Excess returns in full; the waste share is created on top of it.
		f.Adjust(PoolDynamic, pos.X, pos.Y, excess)
		overflowWaste := excess * cfg.Transfer.OverflowWasteFraction
		f.Adjust(PoolWaste, pos.X, pos.Y, overflowWaste)

		rep.OverflowReturned = excess
		rep.OverflowWaste = overflowWaste
	}
	return rep
}

// Emit returns a fraction of the agent's dynamic store to its current cell,
// split between the cell's dynamic pool and its waste pool. The split is a
// pure transfer of the output amount; emission creates no energy.
func Emit(pos *components.Position, st *components.Stores, f *Field) EmitReport {
	var rep EmitReport
	if !st.Alive {
		return rep
	}
	cfg := config.Cfg()

	out := st.Dynamic * cfg.Transfer.EmitFraction
	if out > st.Dynamic {
		out = st.Dynamic
	}
	if out <= 0 {
		return rep
	}
	st.Dynamic -= out

	toWaste := out * cfg.Transfer.EmitWasteFraction
	toDynamic := out - toWaste
	f.Adjust(PoolDynamic, pos.X, pos.Y, toDynamic)
	f.Adjust(PoolWaste, pos.X, pos.Y, toWaste)

	rep.Output = out
	rep.ToDynamic = toDynamic
	rep.ToWaste = toWaste
	return rep
}

// CheckDeath applies the mortality rule: once accumulated waste strictly
// exceeds the static reserve the agent dies, and its total holdings are
// recycled into its cell split by the death recycle ratio. The stores are
// zeroed and the agent is marked dead for deferred removal.
func CheckDeath(pos *components.Position, st *components.Stores, f *Field) DeathReport {
	var rep DeathReport
	if !st.Alive || st.Waste <= st.Static {
		return rep
	}

	r := config.Cfg().Transfer.DeathRecycleRatio
	total := st.Total()

	rep.Died = true
	rep.Holdings = total
	rep.ToDynamic = total * r
	rep.ToWaste = total - rep.ToDynamic

	f.Adjust(PoolDynamic, pos.X, pos.Y, rep.ToDynamic)
	f.Adjust(PoolWaste, pos.X, pos.Y, rep.ToWaste)

	st.Static = 0
	st.Dynamic = 0
	st.Waste = 0
	st.Alive = false
	return rep
}
