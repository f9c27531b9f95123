package systems

import (
	opensimplex "github.com/ojrac/opensimplex-go"
	"gonum.org/v1/gonum/floats"
)

// Pool identifies one of the three per-cell resource pools.
type Pool uint8

const (
	PoolStatic  Pool = iota // depletion-only energy
	PoolDynamic             // replenishable energy
	PoolWaste               // grow-only byproduct
)

// Field is a toroidal width×height grid holding three per-cell pools.
// Coordinates wrap in both axes; all arithmetic is plain and deterministic.
// The field does not clamp: callers keep cells non-negative by only ever
// withdrawing what Amount reports available.
type Field struct {
	W, H int

	Static  []float64
	Dynamic []float64
	Waste   []float64
}

// NewField creates a field with all pools zeroed.
func NewField(w, h int) *Field {
	return &Field{
		W: w, H: h,
		Static:  make([]float64, w*h),
		Dynamic: make([]float64, w*h),
		Waste:   make([]float64, w*h),
	}
}

// SeedUniform distributes budget evenly across all cells, staticFraction of
// each cell's share into the static pool and the rest into dynamic.
func (f *Field) SeedUniform(budget, staticFraction float64) {
	cells := float64(f.W * f.H)
	perStatic := budget * staticFraction / cells
	perDynamic := budget * (1 - staticFraction) / cells
	for i := range f.Static {
		f.Static[i] = perStatic
		f.Dynamic[i] = perDynamic
		f.Waste[i] = 0
	}
}

// SeedNoise distributes budget with simplex-noise weighting so energy pools
// form patches instead of a flat sheet. Cell shares are normalized so the
// grid totals match SeedUniform exactly for the same budget.
func (f *Field) SeedNoise(budget, staticFraction, scale float64, octaves int, seed int64) {
	noise := opensimplex.NewNormalized(seed)

	weights := make([]float64, f.W*f.H)
	for y := 0; y < f.H; y++ {
		for x := 0; x < f.W; x++ {
			weights[y*f.W+x] = octaveNoise(noise, float64(x)*scale, float64(y)*scale, octaves)
		}
	}

	wsum := floats.Sum(weights)
	if wsum <= 0 {
		// Degenerate noise (all zeros); fall back to the flat layout.
		f.SeedUniform(budget, staticFraction)
		return
	}

	for i, w := range weights {
		share := budget * w / wsum
		f.Static[i] = share * staticFraction
		f.Dynamic[i] = share * (1 - staticFraction)
		f.Waste[i] = 0
	}
}

// octaveNoise sums falling-amplitude octaves of normalized simplex noise.
func octaveNoise(n opensimplex.Noise, x, y float64, octaves int) float64 {
	var sum, norm float64
	amp := 1.0
	freq := 1.0
	for o := 0; o < octaves; o++ {
		sum += n.Eval2(x*freq, y*freq) * amp
		norm += amp
		amp *= 0.5
		freq *= 2
	}
	return sum / norm
}

// Wrap maps coordinates onto the periodic grid.
func (f *Field) Wrap(x, y int) (int, int) {
	return modInt(x, f.W), modInt(y, f.H)
}

func (f *Field) idx(x, y int) int {
	return modInt(y, f.H)*f.W + modInt(x, f.W)
}

func (f *Field) pool(p Pool) []float64 {
	switch p {
	case PoolStatic:
		return f.Static
	case PoolDynamic:
		return f.Dynamic
	default:
		return f.Waste
	}
}

// Amount returns the pool value at (x, y), wrapping coordinates.
func (f *Field) Amount(p Pool, x, y int) float64 {
	return f.pool(p)[f.idx(x, y)]
}

// Adjust adds delta (possibly negative) to the pool at (x, y). Keeping the
// result non-negative is the caller's contract.
func (f *Field) Adjust(p Pool, x, y int, delta float64) {
	f.pool(p)[f.idx(x, y)] += delta
}

// Neighbors returns the Moore neighborhood of (x, y) with periodic wrap.
// The cell itself is excluded and wrapped duplicates are removed, so grids
// narrower than 3 cells return fewer than 8 neighbors.
func (f *Field) Neighbors(x, y int) [][2]int {
	x, y = f.Wrap(x, y)
	out := make([][2]int, 0, 8)
	for dy := -1; dy <= 1; dy++ {
		for dx := -1; dx <= 1; dx++ {
			if dx == 0 && dy == 0 {
				continue
			}
			nx, ny := f.Wrap(x+dx, y+dy)
			if nx == x && ny == y {
				continue
			}
			dup := false
			for _, c := range out {
				if c[0] == nx && c[1] == ny {
					dup = true
					break
				}
			}
			if !dup {
				out = append(out, [2]int{nx, ny})
			}
		}
	}
	return out
}

// TotalStatic returns the sum of the static pool over all cells.
func (f *Field) TotalStatic() float64 { return floats.Sum(f.Static) }

// TotalDynamic returns the sum of the dynamic pool over all cells.
func (f *Field) TotalDynamic() float64 { return floats.Sum(f.Dynamic) }

// TotalWaste returns the sum of the waste pool over all cells.
func (f *Field) TotalWaste() float64 { return floats.Sum(f.Waste) }

// TotalEnergy returns the sum of all three pools over all cells.
func (f *Field) TotalEnergy() float64 {
	return f.TotalStatic() + f.TotalDynamic() + f.TotalWaste()
}

// GridSize returns the grid dimensions.
func (f *Field) GridSize() (int, int) {
	return f.W, f.H
}

// modInt is a positive modulo for toroidal coordinate arithmetic.
func modInt(a, m int) int {
	r := a % m
	if r < 0 {
		r += m
	}
	return r
}
