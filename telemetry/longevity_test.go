package telemetry

import "testing"

func TestLongevityBoardOrdering(t *testing.T) {
	b := NewLongevityBoard(3)

	b.Consider(1, 100, &AgentLife{BirthTick: 0, PeakHoldings: 10})  // age 100
	b.Consider(2, 500, &AgentLife{BirthTick: 0, PeakHoldings: 20})  // age 500
	b.Consider(3, 300, &AgentLife{BirthTick: 50, PeakHoldings: 30}) // age 250

	if b.Size() != 3 {
		t.Fatalf("size = %d, want 3", b.Size())
	}

	entries := b.Entries()
	wantOrder := []uint32{2, 3, 1}
	for i, id := range wantOrder {
		if entries[i].AgentID != id {
			t.Errorf("rank %d = agent %d, want %d", i, entries[i].AgentID, id)
		}
	}

	if top := b.Top(); top == nil || top.Age != 500 {
		t.Errorf("top = %+v, want age 500", top)
	}
}

func TestLongevityBoardCapacity(t *testing.T) {
	b := NewLongevityBoard(2)

	if !b.Consider(1, 100, &AgentLife{}) {
		t.Error("first entry should be accepted")
	}
	if !b.Consider(2, 300, &AgentLife{}) {
		t.Error("second entry should be accepted")
	}

	// Shorter-lived than everything on a full board: rejected
	if b.Consider(3, 50, &AgentLife{}) {
		t.Error("entry below a full board should be rejected")
	}

	// Longer-lived: accepted, displacing the shortest
	if !b.Consider(4, 200, &AgentLife{BirthTick: 0}) {
		t.Error("entry beating the board floor should be accepted")
	}

	if b.Size() != 2 {
		t.Fatalf("size = %d, want 2", b.Size())
	}
	entries := b.Entries()
	if entries[0].AgentID != 2 || entries[1].AgentID != 4 {
		t.Errorf("board = [%d, %d], want [2, 4]", entries[0].AgentID, entries[1].AgentID)
	}
}

func TestLongevityBoardTiebreak(t *testing.T) {
	b := NewLongevityBoard(3)

	b.Consider(1, 100, &AgentLife{PeakHoldings: 5})
	b.Consider(2, 100, &AgentLife{PeakHoldings: 50})

	entries := b.Entries()
	if entries[0].AgentID != 2 {
		t.Errorf("equal ages should rank by peak holdings, got agent %d first", entries[0].AgentID)
	}
}

func TestLongevityBoardNilLife(t *testing.T) {
	b := NewLongevityBoard(3)

	if b.Consider(1, 100, nil) {
		t.Error("nil lifetime stats should be rejected")
	}
	if b.Size() != 0 {
		t.Errorf("size = %d, want 0", b.Size())
	}
}

func TestLifetimeTracker(t *testing.T) {
	lt := NewLifetimeTracker()

	lt.Register(7, 100)
	lt.RecordMove(7)
	lt.RecordHarvest(7, 10)
	lt.RecordHarvest(7, 5)
	lt.RecordEmit(7, 2)
	lt.UpdateHoldings(7, 60)
	lt.UpdateHoldings(7, 55) // below peak, ignored

	s := lt.Get(7)
	if s == nil {
		t.Fatal("expected stats for registered agent")
	}
	if s.Moves != 1 || s.Gathers != 2 {
		t.Errorf("moves/gathers = %d/%d, want 1/2", s.Moves, s.Gathers)
	}
	if s.TotalHarvested != 15 || s.TotalEmitted != 2 {
		t.Errorf("harvested/emitted = %v/%v, want 15/2", s.TotalHarvested, s.TotalEmitted)
	}
	if s.PeakHoldings != 60 {
		t.Errorf("peak = %v, want 60", s.PeakHoldings)
	}
	if age := lt.Age(7, 250); age != 150 {
		t.Errorf("age = %d, want 150", age)
	}

	// Updates to unknown agents are ignored
	lt.RecordHarvest(99, 10)
	if lt.Count() != 1 {
		t.Errorf("count = %d, want 1", lt.Count())
	}

	removed := lt.Remove(7)
	if removed == nil || removed.TotalHarvested != 15 {
		t.Errorf("removed = %+v, want harvested 15", removed)
	}
	if lt.Count() != 0 {
		t.Errorf("count after remove = %d, want 0", lt.Count())
	}
}
