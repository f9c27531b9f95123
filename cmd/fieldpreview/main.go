// Field layout preview tool - renders the seeded energy pools to a PNG
// heatmap so layout parameters can be tuned without running a simulation.
//
// Usage: go run ./cmd/fieldpreview -config sim.yaml -seed 42 -out field.png
package main

import (
	"flag"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"log"
	"os"

	"github.com/verdantlab/midden/config"
	"github.com/verdantlab/midden/systems"
)

func main() {
	configPath := flag.String("config", "", "Path to config.yaml (empty = use defaults)")
	seed := flag.Int64("seed", 42, "Seed for the noise layout")
	outPath := flag.String("out", "field.png", "Output PNG path")
	pool := flag.String("pool", "energy", "Pool to render: static, dynamic, waste, or energy")
	flag.Parse()

	if err := config.Init(*configPath); err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	cfg := config.Cfg()

	f := systems.NewField(cfg.Grid.Width, cfg.Grid.Height)
	switch cfg.Grid.Layout {
	case "noise":
		f.SeedNoise(cfg.Grid.EnergyBudget, cfg.Grid.StaticFraction,
			cfg.Grid.NoiseScale, cfg.Grid.NoiseOctaves, *seed)
	default:
		f.SeedUniform(cfg.Grid.EnergyBudget, cfg.Grid.StaticFraction)
	}

	values, err := poolValues(f, *pool)
	if err != nil {
		log.Fatal(err)
	}

	img := renderHeatmap(values, cfg.Grid.Width, cfg.Grid.Height)

	out, err := os.Create(*outPath)
	if err != nil {
		log.Fatalf("failed to create %s: %v", *outPath, err)
	}
	defer out.Close()
	if err := png.Encode(out, img); err != nil {
		log.Fatalf("failed to encode PNG: %v", err)
	}

	fmt.Printf("layout=%s grid=%dx%d seed=%d pool=%s\n",
		cfg.Grid.Layout, cfg.Grid.Width, cfg.Grid.Height, *seed, *pool)
	fmt.Printf("static=%.1f dynamic=%.1f total=%.1f -> %s\n",
		f.TotalStatic(), f.TotalDynamic(), f.TotalEnergy(), *outPath)
}

// poolValues selects the per-cell series to render.
func poolValues(f *systems.Field, pool string) ([]float64, error) {
	switch pool {
	case "static":
		return f.Static, nil
	case "dynamic":
		return f.Dynamic, nil
	case "waste":
		return f.Waste, nil
	case "energy":
		sum := make([]float64, len(f.Static))
		for i := range sum {
			sum[i] = f.Static[i] + f.Dynamic[i]
		}
		return sum, nil
	default:
		return nil, fmt.Errorf("unknown pool %q (want static, dynamic, waste, or energy)", pool)
	}
}

// renderHeatmap maps cell values onto a dark-to-warm ramp, scaled to the
// maximum cell so uniform layouts render as a flat mid tone.
func renderHeatmap(values []float64, w, h int) *image.RGBA {
	var max float64
	for _, v := range values {
		if v > max {
			max = v
		}
	}

	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			t := 0.0
			if max > 0 {
				t = values[y*w+x] / max
			}
			img.SetRGBA(x, y, rampColor(t))
		}
	}
	return img
}

// rampColor maps t in [0,1] to black -> purple -> orange -> near white.
func rampColor(t float64) color.RGBA {
	if t < 0 {
		t = 0
	}
	if t > 1 {
		t = 1
	}
	r := uint8(255 * t)
	g := uint8(255 * t * t)
	b := uint8(255 * (0.6*t + 0.4*t*(1-t)))
	return color.RGBA{R: r, G: g, B: b, A: 255}
}
