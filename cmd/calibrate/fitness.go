package main

import (
	"math"
	"sync"

	"github.com/verdantlab/midden/config"
	"github.com/verdantlab/midden/sim"
	"github.com/verdantlab/midden/telemetry"
)

// FitnessEvaluator runs headless simulations and computes fitness.
type FitnessEvaluator struct {
	params     *ParamVector
	maxTicks   int64
	seeds      []int64
	baseConfig *config.Config

	// Best run tracking
	mu          sync.Mutex
	bestFitness float64
	bestBoard   *telemetry.LongevityBoard
	lastQuality float64 // quality from most recent Evaluate call
}

// NewFitnessEvaluator creates a new evaluator.
func NewFitnessEvaluator(params *ParamVector, maxTicks int64, seeds []int64, baseCfg *config.Config) *FitnessEvaluator {
	return &FitnessEvaluator{
		params:      params,
		maxTicks:    maxTicks,
		seeds:       seeds,
		baseConfig:  baseCfg,
		bestFitness: math.Inf(1),
	}
}

// BestBoard returns the longevity board from the best evaluation.
func (fe *FitnessEvaluator) BestBoard() *telemetry.LongevityBoard {
	fe.mu.Lock()
	defer fe.mu.Unlock()
	return fe.bestBoard
}

// LastQuality returns the quality score from the most recent evaluation.
func (fe *FitnessEvaluator) LastQuality() float64 {
	fe.mu.Lock()
	defer fe.mu.Unlock()
	return fe.lastQuality
}

// Minimum viable population: if the live count stays below this for
// extinctionGraceTicks consecutive ticks, the run counts as functionally
// extinct even though stragglers remain.
const (
	minViablePop         = 3
	extinctionGraceTicks = 50
	warmupTicks          = 10 // let seeding settle before checking
)

// runResult holds the results from a single simulation run.
type runResult struct {
	survivalTicks int64 // ticks before functional extinction (or maxTicks if survived)
	windowStats   []telemetry.WindowStats
	board         *telemetry.LongevityBoard
}

// seedResult holds the result from one seed evaluation.
type seedResult struct {
	fitness float64
	quality float64
	board   *telemetry.LongevityBoard
}

// Evaluate computes fitness for a parameter vector (lower = better).
// Fitness is negative survival ticks: longer survival = lower (better)
// fitness. The parameter vector is installed in the process-global config
// once per call, starting from a fresh copy of the base config; all seeds
// then read it concurrently without writing.
func (fe *FitnessEvaluator) Evaluate(x []float64) float64 {
	*config.Cfg() = *fe.baseConfig
	fe.params.ApplyToConfig(config.Cfg(), x)

	// Run all seeds in parallel
	results := make([]seedResult, len(fe.seeds))
	var wg sync.WaitGroup

	for i, seed := range fe.seeds {
		wg.Add(1)
		go func(idx int, s int64) {
			defer wg.Done()
			result := fe.runSimulation(s)
			results[idx] = seedResult{
				fitness: fe.computeFitness(result),
				quality: fe.computeQuality(result.windowStats),
				board:   result.board,
			}
		}(i, seed)
	}
	wg.Wait()

	// Aggregate results
	var totalFitness, totalQuality float64
	bestSeedFitness := math.Inf(1)
	var bestSeedBoard *telemetry.LongevityBoard

	for _, r := range results {
		totalFitness += r.fitness
		totalQuality += r.quality
		if r.fitness < bestSeedFitness {
			bestSeedFitness = r.fitness
			bestSeedBoard = r.board
		}
	}

	n := float64(len(fe.seeds))
	avgFitness := totalFitness / n

	// Update best tracking
	fe.mu.Lock()
	if avgFitness < fe.bestFitness {
		fe.bestFitness = avgFitness
		fe.bestBoard = bestSeedBoard
	}
	fe.lastQuality = totalQuality / n
	fe.mu.Unlock()

	return avgFitness
}

// runSimulation executes a single headless run until functional
// extinction or maxTicks, whichever comes first.
func (fe *FitnessEvaluator) runSimulation(seed int64) *runResult {
	m := sim.New(seed)
	result := &runResult{}

	var belowTicks int64
	for m.Tick() < fe.maxTicks {
		m.Step()

		if m.ShouldFlush() {
			result.windowStats = append(result.windowStats, m.FlushWindow())
		}

		live := m.LiveAgentCount()
		if live == 0 {
			break
		}
		if m.Tick() < warmupTicks {
			continue
		}

		if live < minViablePop {
			belowTicks++
		} else {
			belowTicks = 0
		}
		if belowTicks >= extinctionGraceTicks {
			break
		}
	}

	result.survivalTicks = m.Tick()
	result.board = m.Board()
	return result
}

// computeFitness calculates the scalar fitness (lower = better).
// Formula: -(survivalTicks × (1.0 + 0.2 × quality))
// Survival dominates; quality adds up to 20% bonus to differentiate
// configs with similar survival.
func (fe *FitnessEvaluator) computeFitness(r *runResult) float64 {
	survival := float64(r.survivalTicks)
	quality := fe.computeQuality(r.windowStats)
	return -(survival * (1.0 + 0.2*quality))
}

// Quality component weights.
const (
	qualityWeightSurvivors = 0.40
	qualityWeightStability = 0.30
	qualityWeightMargin    = 0.30

	qualityWarmupWindows = 2 // skip first N windows (warmup)
	qualityMinPop        = 3 // exclude windows below this live count
)

// computeQuality computes run quality in [0, 1] from window stats:
// how much of the population persists, how steady the live count is,
// and how much static headroom agents keep over their waste stores.
func (fe *FitnessEvaluator) computeQuality(windows []telemetry.WindowStats) float64 {
	if len(windows) <= qualityWarmupWindows {
		return 0
	}

	// Read the applied config: agent_count is itself calibrated, so the
	// base value would be the wrong denominator.
	cfg := config.Cfg()
	seeded := float64(cfg.Agents.Count)
	initialStatic := cfg.Agents.InitialStaticStore
	if seeded <= 0 || initialStatic <= 0 {
		return 0
	}

	valid := windows[qualityWarmupWindows:]

	var survivorSum, marginSum float64
	var count int
	liveCounts := make([]float64, 0, len(valid))

	for _, w := range valid {
		if w.LiveCount < qualityMinPop {
			continue
		}

		liveCounts = append(liveCounts, float64(w.LiveCount))

		// 1. Survivor share
		survivorSum += clamp01(float64(w.LiveCount) / seeded)

		// 3. Waste margin health: median static headroom relative to the
		// starting reserve; agents near death drag this toward zero.
		marginSum += clamp01(w.MarginP50 / initialStatic)

		count++
	}

	// No valid windows means zero quality
	if count == 0 {
		return 0
	}

	survivorScore := survivorSum / float64(count)
	marginScore := marginSum / float64(count)

	// 2. Population stability (CV across all valid windows)
	stabilityScore := 0.0
	if len(liveCounts) >= 2 {
		c := cv(liveCounts)
		stabilityScore = math.Exp(-(c * c))
	}

	quality := qualityWeightSurvivors*survivorScore +
		qualityWeightStability*stabilityScore +
		qualityWeightMargin*marginScore

	return clamp01(quality)
}

// cv computes the coefficient of variation (std/mean) for a slice of values.
func cv(values []float64) float64 {
	n := float64(len(values))
	if n == 0 {
		return 0
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	mean := sum / n
	if mean == 0 {
		return 0
	}
	var sqDiff float64
	for _, v := range values {
		d := v - mean
		sqDiff += d * d
	}
	return math.Sqrt(sqDiff/n) / mean
}

// clamp01 clamps x to [0, 1].
func clamp01(x float64) float64 {
	if x < 0 {
		return 0
	}
	if x > 1 {
		return 1
	}
	return x
}
