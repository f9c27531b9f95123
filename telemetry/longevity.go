package telemetry

import (
	"encoding/json"
	"sort"
)

// LongevityEntry records one dead agent's lifetime for the run summary.
type LongevityEntry struct {
	AgentID        uint32  `json:"agent_id"`
	BirthTick      int64   `json:"birth_tick"`
	DeathTick      int64   `json:"death_tick"`
	Age            int64   `json:"age"`
	Moves          int     `json:"moves"`
	Gathers        int     `json:"gathers"`
	TotalHarvested float64 `json:"total_harvested"`
	TotalEmitted   float64 `json:"total_emitted"`
	PeakHoldings   float64 `json:"peak_holdings"`
}

// LongevityBoard keeps the longest-lived dead agents, sorted by age
// descending with peak holdings as tiebreaker.
type LongevityBoard struct {
	entries []LongevityEntry
	maxSize int
}

// NewLongevityBoard creates a board with the given capacity.
func NewLongevityBoard(maxSize int) *LongevityBoard {
	if maxSize < 1 {
		maxSize = 10
	}
	return &LongevityBoard{
		entries: make([]LongevityEntry, 0, maxSize),
		maxSize: maxSize,
	}
}

// Consider evaluates a dead agent for board entry.
// Returns true if the agent was added.
func (b *LongevityBoard) Consider(agentID uint32, deathTick int64, life *AgentLife) bool {
	if life == nil {
		return false
	}

	entry := LongevityEntry{
		AgentID:        agentID,
		BirthTick:      life.BirthTick,
		DeathTick:      deathTick,
		Age:            deathTick - life.BirthTick,
		Moves:          life.Moves,
		Gathers:        life.Gathers,
		TotalHarvested: life.TotalHarvested,
		TotalEmitted:   life.TotalEmitted,
		PeakHoldings:   life.PeakHoldings,
	}

	// Find insertion point (sorted descending by age, then peak holdings)
	idx := sort.Search(len(b.entries), func(i int) bool {
		e := b.entries[i]
		if e.Age != entry.Age {
			return e.Age < entry.Age
		}
		return e.PeakHoldings < entry.PeakHoldings
	})

	// If the board is full and the entry would fall off the end, skip it
	if len(b.entries) >= b.maxSize && idx >= b.maxSize {
		return false
	}

	// Insert at position
	b.entries = append(b.entries, LongevityEntry{})
	copy(b.entries[idx+1:], b.entries[idx:])
	b.entries[idx] = entry

	// Trim if over capacity
	if len(b.entries) > b.maxSize {
		b.entries = b.entries[:b.maxSize]
	}

	return true
}

// Size returns the number of entries on the board.
func (b *LongevityBoard) Size() int {
	return len(b.entries)
}

// Top returns the longest-lived entry, or nil if the board is empty.
func (b *LongevityBoard) Top() *LongevityEntry {
	if len(b.entries) == 0 {
		return nil
	}
	return &b.entries[0]
}

// Entries returns the board contents in rank order.
func (b *LongevityBoard) Entries() []LongevityEntry {
	return b.entries
}

// MarshalJSON serializes the board to JSON.
func (b *LongevityBoard) MarshalJSON() ([]byte, error) {
	return json.MarshalIndent(b.entries, "", "  ")
}
