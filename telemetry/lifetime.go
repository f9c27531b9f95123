package telemetry

// AgentLife tracks per-agent statistics over its lifetime.
type AgentLife struct {
	BirthTick int64

	Moves   int
	Gathers int

	// Energy
	TotalHarvested float64
	TotalEmitted   float64
	PeakHoldings   float64
}

// LifetimeTracker manages per-agent lifetime statistics.
type LifetimeTracker struct {
	stats map[uint32]*AgentLife
}

// NewLifetimeTracker creates a new lifetime tracker.
func NewLifetimeTracker() *LifetimeTracker {
	return &LifetimeTracker{
		stats: make(map[uint32]*AgentLife),
	}
}

// Register creates lifetime stats for a newly seeded agent.
func (lt *LifetimeTracker) Register(agentID uint32, birthTick int64) {
	lt.stats[agentID] = &AgentLife{BirthTick: birthTick}
}

// Get returns the lifetime stats for an agent, or nil if not found.
func (lt *LifetimeTracker) Get(agentID uint32) *AgentLife {
	return lt.stats[agentID]
}

// Remove removes an agent's stats and returns them.
func (lt *LifetimeTracker) Remove(agentID uint32) *AgentLife {
	stats := lt.stats[agentID]
	delete(lt.stats, agentID)
	return stats
}

// RecordMove increments the move count.
func (lt *LifetimeTracker) RecordMove(agentID uint32) {
	if s := lt.stats[agentID]; s != nil {
		s.Moves++
	}
}

// RecordHarvest adds a gather's harvest to the cumulative total.
func (lt *LifetimeTracker) RecordHarvest(agentID uint32, amount float64) {
	if s := lt.stats[agentID]; s != nil {
		s.Gathers++
		s.TotalHarvested += amount
	}
}

// RecordEmit adds emitted output to the cumulative total.
func (lt *LifetimeTracker) RecordEmit(agentID uint32, amount float64) {
	if s := lt.stats[agentID]; s != nil {
		s.TotalEmitted += amount
	}
}

// UpdateHoldings tracks peak holdings.
func (lt *LifetimeTracker) UpdateHoldings(agentID uint32, holdings float64) {
	if s := lt.stats[agentID]; s != nil {
		if holdings > s.PeakHoldings {
			s.PeakHoldings = holdings
		}
	}
}

// Age returns the agent's age in ticks at currentTick, or 0 if unknown.
func (lt *LifetimeTracker) Age(agentID uint32, currentTick int64) int64 {
	s := lt.stats[agentID]
	if s == nil {
		return 0
	}
	return currentTick - s.BirthTick
}

// All returns all tracked stats (for snapshots).
func (lt *LifetimeTracker) All() map[uint32]*AgentLife {
	return lt.stats
}

// Count returns the number of tracked agents.
func (lt *LifetimeTracker) Count() int {
	return len(lt.stats)
}
