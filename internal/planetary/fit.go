package planetary

import (
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// FitResult summarises how a set of (x, y) position pairs departs from the
// identity, both as an affine map y ≈ A + B·x and as a uniform offset y ≈ x + Delta.
type FitResult struct {
	A         float64 `json:"a"`
	B         float64 `json:"b"`
	Delta     float64 `json:"delta"`
	MSEAffine float64 `json:"mse_affine"`
	MSEOffset float64 `json:"mse_offset"`
	N         int     `json:"n"`
}

// IdentityFit is the result reported for an empty sample.
func IdentityFit() FitResult {
	return FitResult{B: 1}
}

// Fit runs ordinary least squares for both models. When every x is the same
// the slope is undefined and the affine model collapses to the offset model.
func Fit(xs, ys []float64) FitResult {
	n := len(xs)
	if n == 0 || n != len(ys) {
		return IdentityFit()
	}

	diffs := make([]float64, n)
	floats.SubTo(diffs, ys, xs)
	delta := stat.Mean(diffs, nil)

	a, b := delta, 1.0
	sumX := floats.Sum(xs)
	denom := float64(n)*floats.Dot(xs, xs) - sumX*sumX
	if denom > 1e-12*float64(n*n) {
		a, b = stat.LinearRegression(xs, ys, nil, false)
	}

	var sseAffine, sseOffset float64
	for i := range xs {
		ra := ys[i] - (a + b*xs[i])
		ro := diffs[i] - delta
		sseAffine += ra * ra
		sseOffset += ro * ro
	}

	return FitResult{
		A:         a,
		B:         b,
		Delta:     delta,
		MSEAffine: sseAffine / float64(n),
		MSEOffset: sseOffset / float64(n),
		N:         n,
	}
}
