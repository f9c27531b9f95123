package telemetry

import "fmt"

// EventDetector detects notable moments in the run from window stats.
type EventDetector struct {
	// Rolling history (circular buffer)
	history     []WindowStats
	historySize int
	historyIdx  int
	historyFull bool

	// State tracking
	baselineStatic float64 // grid static total at first check
	baselineSet    bool
	peakLive       int // peak live count seen so far
	stableWindows  int // consecutive windows with stable population

	// Latches for one-shot events
	extinct        bool
	wasteDominant  bool
	staticDepleted bool
}

// NewEventDetector creates a detector with the given history size.
func NewEventDetector(historySize int) *EventDetector {
	if historySize < 5 {
		historySize = 5 // minimum for stable population detection
	}
	return &EventDetector{
		history:     make([]WindowStats, historySize),
		historySize: historySize,
	}
}

// Check analyzes the latest stats and returns any triggered events.
func (d *EventDetector) Check(stats WindowStats) []Event {
	if !d.baselineSet {
		d.baselineStatic = stats.FieldStatic
		d.baselineSet = true
	}

	var events []Event

	// Extinction needs no history.
	if e := d.checkExtinction(stats); e != nil {
		events = append(events, *e)
	}

	if d.historyFull || d.historyIdx > 0 {
		// Die-off: live count dropped >30% from recent peak
		if e := d.checkDieOff(stats); e != nil {
			events = append(events, *e)
		}

		// Waste dominance: grid waste exceeds remaining grid energy
		if e := d.checkWasteDominance(stats); e != nil {
			events = append(events, *e)
		}

		// Static depletion: grid static below 1% of its initial total
		if e := d.checkStaticDepletion(stats); e != nil {
			events = append(events, *e)
		}

		// Stable population: low variance over 5+ windows
		if e := d.checkStablePopulation(stats); e != nil {
			events = append(events, *e)
		}
	}

	// Update history
	d.addToHistory(stats)

	// Track population peak
	if stats.LiveCount > d.peakLive {
		d.peakLive = stats.LiveCount
	}

	return events
}

func (d *EventDetector) addToHistory(stats WindowStats) {
	d.history[d.historyIdx] = stats
	d.historyIdx = (d.historyIdx + 1) % d.historySize
	if d.historyIdx == 0 {
		d.historyFull = true
	}
}

// getHistory returns recorded windows in chronological order, oldest first.
func (d *EventDetector) getHistory() []WindowStats {
	if !d.historyFull {
		return d.history[:d.historyIdx]
	}
	out := make([]WindowStats, 0, d.historySize)
	out = append(out, d.history[d.historyIdx:]...)
	out = append(out, d.history[:d.historyIdx]...)
	return out
}

func (d *EventDetector) checkExtinction(stats WindowStats) *Event {
	if d.extinct || stats.LiveCount > 0 {
		return nil
	}
	d.extinct = true

	return &Event{
		Type:        EventExtinction,
		Tick:        stats.WindowEndTick,
		Description: fmt.Sprintf("All agents dead, %d deaths in final window", stats.Deaths),
	}
}

func (d *EventDetector) checkDieOff(stats WindowStats) *Event {
	if d.peakLive == 0 {
		return nil
	}

	dropPercent := 1.0 - float64(stats.LiveCount)/float64(d.peakLive)
	if dropPercent > 0.30 && stats.LiveCount < d.peakLive-10 {
		// Reset peak after trigger
		oldPeak := d.peakLive
		d.peakLive = stats.LiveCount

		return &Event{
			Type:        EventDieOff,
			Tick:        stats.WindowEndTick,
			Description: fmt.Sprintf("Population fell %.0f%% from peak %d to %d", dropPercent*100, oldPeak, stats.LiveCount),
		}
	}

	return nil
}

func (d *EventDetector) checkWasteDominance(stats WindowStats) *Event {
	remaining := stats.FieldStatic + stats.FieldDynamic
	if stats.FieldWaste <= remaining {
		// Re-arm once the grid recovers.
		d.wasteDominant = false
		return nil
	}

	if d.wasteDominant {
		return nil
	}
	d.wasteDominant = true

	return &Event{
		Type:        EventWasteDominance,
		Tick:        stats.WindowEndTick,
		Description: fmt.Sprintf("Grid waste %.1f exceeds remaining grid energy %.1f", stats.FieldWaste, remaining),
	}
}

func (d *EventDetector) checkStaticDepletion(stats WindowStats) *Event {
	if d.staticDepleted || d.baselineStatic <= 0 {
		return nil
	}

	if stats.FieldStatic < 0.01*d.baselineStatic {
		d.staticDepleted = true

		return &Event{
			Type:        EventStaticDepletion,
			Tick:        stats.WindowEndTick,
			Description: fmt.Sprintf("Grid static %.1f below 1%% of initial %.1f", stats.FieldStatic, d.baselineStatic),
		}
	}

	return nil
}

func (d *EventDetector) checkStablePopulation(stats WindowStats) *Event {
	// Need a population worth calling stable
	if stats.LiveCount < 10 {
		d.stableWindows = 0
		return nil
	}

	history := d.getHistory()
	if len(history) < 4 {
		return nil
	}

	// Check variance in recent windows
	var sum float64
	for _, h := range history[len(history)-4:] {
		sum += float64(h.LiveCount)
	}
	mean := sum / 4

	var variance float64
	for _, h := range history[len(history)-4:] {
		diff := float64(h.LiveCount) - mean
		variance += diff * diff
	}
	variance /= 4

	// Low variance: coefficient of variation < 20%
	cv := 0.0
	if mean > 0 {
		cv = variance / (mean * mean)
	}

	if cv < 0.04 { // CV^2 < 0.04 means CV < 0.2
		d.stableWindows++
	} else {
		d.stableWindows = 0
	}

	if d.stableWindows == 5 { // trigger exactly once at 5 windows
		return &Event{
			Type:        EventStablePopulation,
			Tick:        stats.WindowEndTick,
			Description: fmt.Sprintf("Population stable at %d agents over 5+ windows", stats.LiveCount),
		}
	}

	return nil
}
