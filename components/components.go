// Package components defines ECS components for the simulation.
package components

// Position is an agent's cell coordinates on the periodic grid.
type Position struct {
	X, Y int
}

// Stores tracks an agent's three energy-like reserves.
// Static only ever decreases (movement shortfall), Dynamic is clamped to
// [0, Traits.MaxDynamicStore], Waste only grows. No store goes negative.
type Stores struct {
	Static  float64
	Dynamic float64
	Waste   float64
	Alive   bool
}

// Total returns the sum of all three stores.
func (s *Stores) Total() float64 {
	return s.Static + s.Dynamic + s.Waste
}

// Traits bundles an agent's identity and fixed parameters.
type Traits struct {
	ID              uint32
	MaxDynamicStore float64 // Dynamic store capacity; overflow returns to the cell
	NeededEnergy    float64 // Target harvest per step
}
