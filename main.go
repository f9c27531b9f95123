package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/verdantlab/midden/config"
	"github.com/verdantlab/midden/sim"
	"github.com/verdantlab/midden/telemetry"
)

func main() {
	configPath := flag.String("config", "", "Path to config.yaml (empty = use defaults)")
	ticks := flag.Int("ticks", 0, "Number of ticks to run (0 = use config)")
	seed := flag.Int64("seed", 0, "RNG seed (0 = config seed, then time-based)")
	outDir := flag.String("out", "", "Output directory for CSV logs and run artifacts (empty = use config)")
	trace := flag.Bool("trace", false, "Write a compressed per-tick trace")
	quiet := flag.Bool("quiet", false, "Suppress periodic stats logging")

	flag.Parse()

	// Initialize config before anything else
	if err := config.Init(*configPath); err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	cfg := config.Cfg()

	// Structured JSON logs to stdout
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	rngSeed := *seed
	if rngSeed == 0 {
		rngSeed = cfg.Run.Seed
	}
	if rngSeed == 0 {
		rngSeed = time.Now().UnixNano()
	}

	runTicks := *ticks
	if runTicks == 0 {
		runTicks = cfg.Run.Ticks
	}

	outputDir := *outDir
	if outputDir == "" {
		outputDir = cfg.Telemetry.OutputDir
	}

	if err := run(cfg, rngSeed, runTicks, outputDir, *trace || cfg.Telemetry.Trace, *quiet); err != nil {
		slog.Error("run failed", "error", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, seed int64, ticks int, outputDir string, trace, quiet bool) (err error) {
	om, err := telemetry.NewOutputManager(outputDir)
	if err != nil {
		return fmt.Errorf("opening output dir: %w", err)
	}
	defer func() {
		if cerr := om.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("closing outputs: %w", cerr)
		}
	}()
	if om != nil {
		if err := om.WriteConfig(cfg); err != nil {
			return fmt.Errorf("writing config snapshot: %w", err)
		}
		if err := om.WriteRunInfo(telemetry.NewRunInfo(seed, ticks)); err != nil {
			return fmt.Errorf("writing run info: %w", err)
		}
	}

	var tw *telemetry.TraceWriter
	if trace {
		tracePath := "trace.jsonl.zst"
		if outputDir != "" {
			tracePath = filepath.Join(outputDir, "trace.jsonl.zst")
		}
		tw, err = telemetry.NewTraceWriter(tracePath)
		if err != nil {
			return fmt.Errorf("opening trace: %w", err)
		}
	}
	defer func() {
		if cerr := tw.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("closing trace: %w", cerr)
		}
	}()

	model := sim.New(seed)
	detector := telemetry.NewEventDetector(cfg.Telemetry.DetectorHistorySize)

	slog.Info("starting run",
		"seed", seed,
		"ticks", ticks,
		"grid", fmt.Sprintf("%dx%d", cfg.Grid.Width, cfg.Grid.Height),
		"layout", cfg.Grid.Layout,
		"agents", model.LiveAgentCount(),
		"total_energy", model.TotalEnergy(),
	)

	start := time.Now()
	var lastFlush int64

	for t := 0; t < ticks; t++ {
		model.Step()

		if tw != nil {
			if err := tw.Write(model.Trace()); err != nil {
				return fmt.Errorf("writing trace: %w", err)
			}
		}

		if model.ShouldFlush() {
			if err := flushWindow(model, detector, om, quiet); err != nil {
				return err
			}
			lastFlush = model.Tick()
		}

		if model.LiveAgentCount() == 0 {
			slog.Info("population extinct", "tick", model.Tick())
			break
		}
	}

	// Flush the trailing partial window so the detector sees the final state.
	if model.Tick() > lastFlush {
		if err := flushWindow(model, detector, om, quiet); err != nil {
			return err
		}
	}

	elapsed := time.Since(start)
	slog.Info("run complete",
		"ticks", model.Tick(),
		"elapsed", elapsed.Round(time.Millisecond).String(),
		"live", model.LiveAgentCount(),
		"dead", model.DeadCount(),
		"total_energy", model.TotalEnergy(),
		"total_waste", model.TotalWaste(),
	)

	if om != nil {
		if err := om.WriteLongevity(model.Board()); err != nil {
			return fmt.Errorf("writing longevity board: %w", err)
		}
	}
	return nil
}

// flushWindow drains the completed stats window into logs, CSV output,
// and the event detector. Detected events are logged, recorded, and get
// a full state snapshot alongside the CSVs.
func flushWindow(m *sim.Model, detector *telemetry.EventDetector, om *telemetry.OutputManager, quiet bool) error {
	stats := m.FlushWindow()
	if !quiet {
		stats.LogStats()
	}
	if om != nil {
		if err := om.WriteTelemetry(stats); err != nil {
			return fmt.Errorf("writing telemetry: %w", err)
		}
		if err := om.WritePerf(m.Perf().Stats(), stats.WindowEndTick); err != nil {
			return fmt.Errorf("writing perf stats: %w", err)
		}
	}

	for _, ev := range detector.Check(stats) {
		ev.LogEvent()
		if om == nil {
			continue
		}
		if err := om.WriteEvent(ev); err != nil {
			return fmt.Errorf("writing event: %w", err)
		}
		if _, err := telemetry.SaveSnapshot(m.Snapshot(&ev), om.Dir()); err != nil {
			slog.Warn("snapshot failed", "event", ev.Type, "error", err)
		}
	}
	return nil
}
