package telemetry

import (
	"os"
	"path/filepath"
	"testing"
)

func TestSnapshotSaveLoad(t *testing.T) {
	tmpDir := t.TempDir()

	snapshot := &Snapshot{
		Version:    SnapshotVersion,
		Seed:       42,
		GridWidth:  3,
		GridHeight: 2,
		Tick:       1000,
		Static:     []float64{10, 0, 5, 2, 8, 1},
		Dynamic:    []float64{1, 2, 3, 4, 5, 6},
		Waste:      []float64{0, 0, 0.5, 0, 1.5, 0},
		Agents: []AgentState{
			{
				ID:           1,
				X:            2,
				Y:            1,
				StaticStore:  50,
				DynamicStore: 10,
				WasteStore:   0.25,
				BirthTick:    0,
			},
		},
		Event: &Event{
			Type:        EventDieOff,
			Tick:        1000,
			Description: "Test event",
		},
	}

	// Save the snapshot
	path, err := SaveSnapshot(snapshot, tmpDir)
	if err != nil {
		t.Fatalf("SaveSnapshot failed: %v", err)
	}

	// Verify file exists
	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Errorf("Snapshot file not created at %s", path)
	}

	// Load the snapshot
	loaded, err := LoadSnapshot(path)
	if err != nil {
		t.Fatalf("LoadSnapshot failed: %v", err)
	}

	// Verify loaded data matches original
	if loaded.Version != snapshot.Version {
		t.Errorf("Version mismatch: got %d, want %d", loaded.Version, snapshot.Version)
	}
	if loaded.Seed != snapshot.Seed {
		t.Errorf("Seed mismatch: got %d, want %d", loaded.Seed, snapshot.Seed)
	}
	if loaded.Tick != snapshot.Tick {
		t.Errorf("Tick mismatch: got %d, want %d", loaded.Tick, snapshot.Tick)
	}
	if len(loaded.Static) != len(snapshot.Static) {
		t.Fatalf("Static length mismatch: got %d, want %d", len(loaded.Static), len(snapshot.Static))
	}
	for i := range snapshot.Static {
		if loaded.Static[i] != snapshot.Static[i] {
			t.Errorf("Static[%d] mismatch: got %v, want %v", i, loaded.Static[i], snapshot.Static[i])
		}
	}
	if len(loaded.Agents) != 1 {
		t.Fatalf("Agents count mismatch: got %d, want 1", len(loaded.Agents))
	}
	if loaded.Agents[0].DynamicStore != 10 {
		t.Errorf("DynamicStore mismatch: got %v, want 10", loaded.Agents[0].DynamicStore)
	}
	if loaded.Event == nil {
		t.Error("Event not loaded")
	} else if loaded.Event.Type != snapshot.Event.Type {
		t.Errorf("Event type mismatch: got %s, want %s", loaded.Event.Type, snapshot.Event.Type)
	}
}

func TestSnapshotFilename(t *testing.T) {
	tmpDir := t.TempDir()

	// Test with event
	snapshot := &Snapshot{
		Version: SnapshotVersion,
		Tick:    5000,
		Event: &Event{
			Type: EventWasteDominance,
			Tick: 5000,
		},
	}

	path, err := SaveSnapshot(snapshot, tmpDir)
	if err != nil {
		t.Fatalf("SaveSnapshot failed: %v", err)
	}

	expected := filepath.Join(tmpDir, "snapshot_5000_waste_dominance.json")
	if path != expected {
		t.Errorf("Path mismatch: got %s, want %s", path, expected)
	}

	// Test without event
	snapshotNoEvent := &Snapshot{
		Version: SnapshotVersion,
		Tick:    3000,
	}

	path, err = SaveSnapshot(snapshotNoEvent, tmpDir)
	if err != nil {
		t.Fatalf("SaveSnapshot failed: %v", err)
	}

	expected = filepath.Join(tmpDir, "snapshot_3000.json")
	if path != expected {
		t.Errorf("Path mismatch: got %s, want %s", path, expected)
	}
}
