// Package telemetry provides run health tracking, event detection,
// tick traces, and snapshots.
package telemetry

import "log/slog"

// EventType identifies the type of detected event.
type EventType string

const (
	EventExtinction       EventType = "extinction"
	EventDieOff           EventType = "die_off"
	EventWasteDominance   EventType = "waste_dominance"
	EventStaticDepletion  EventType = "static_depletion"
	EventStablePopulation EventType = "stable_population"
)

// Event represents an automatically detected run event.
type Event struct {
	Type        EventType `csv:"type"`
	Tick        int64     `csv:"tick"`
	Description string    `csv:"description"`
}

// LogEvent logs the event using slog.
func (e Event) LogEvent() {
	slog.Info("event",
		"type", string(e.Type),
		"tick", e.Tick,
		"description", e.Description,
	)
}
