package telemetry

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// SnapshotVersion is incremented when the format changes.
const SnapshotVersion = 1

// Snapshot holds the complete simulation state for offline inspection.
type Snapshot struct {
	Version int   `json:"version"`
	Seed    int64 `json:"seed"`

	GridWidth  int `json:"grid_width"`
	GridHeight int `json:"grid_height"`

	Tick int64 `json:"tick"`

	// Grid pools, row-major
	Static  []float64 `json:"static"`
	Dynamic []float64 `json:"dynamic"`
	Waste   []float64 `json:"waste"`

	Agents []AgentState `json:"agents"`

	Event *Event `json:"event,omitempty"`
}

// AgentState holds one agent's complete state.
type AgentState struct {
	ID uint32 `json:"id"`

	X int `json:"x"`
	Y int `json:"y"`

	StaticStore  float64 `json:"static_store"`
	DynamicStore float64 `json:"dynamic_store"`
	WasteStore   float64 `json:"waste_store"`

	BirthTick int64 `json:"birth_tick"`
}

// SaveSnapshot writes a snapshot to disk.
// Returns the filepath where it was saved.
func SaveSnapshot(snapshot *Snapshot, dir string) (string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("create snapshot dir: %w", err)
	}

	// Build filename
	name := fmt.Sprintf("snapshot_%d", snapshot.Tick)
	if snapshot.Event != nil {
		// Sanitize event type for filename
		sanitized := strings.ReplaceAll(string(snapshot.Event.Type), " ", "_")
		name = fmt.Sprintf("snapshot_%d_%s", snapshot.Tick, sanitized)
	}
	name += ".json"

	path := filepath.Join(dir, name)

	data, err := json.MarshalIndent(snapshot, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal snapshot: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("write snapshot: %w", err)
	}

	return path, nil
}

// LoadSnapshot reads a snapshot from disk.
func LoadSnapshot(path string) (*Snapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read snapshot: %w", err)
	}

	var snapshot Snapshot
	if err := json.Unmarshal(data, &snapshot); err != nil {
		return nil, fmt.Errorf("unmarshal snapshot: %w", err)
	}

	return &snapshot, nil
}
