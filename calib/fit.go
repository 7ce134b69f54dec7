package calib

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

// Isotonic computes the least-squares monotone non-decreasing fit to y
// using the pool-adjacent-violators algorithm with equal weights.  The
// input is not modified.
func Isotonic(y []float64) []float64 {
	n := len(y)
	out := make([]float64, n)
	if n == 0 {
		return out
	}
	// each block holds the mean of a pooled run of samples
	means := make([]float64, 0, n)
	counts := make([]int, 0, n)
	for _, v := range y {
		means = append(means, v)
		counts = append(counts, 1)
		// pool while the tail violates monotonicity
		for len(means) > 1 && means[len(means)-1] < means[len(means)-2] {
			m2, c2 := means[len(means)-1], counts[len(means)-1]
			m1, c1 := means[len(means)-2], counts[len(means)-2]
			merged := (m1*float64(c1) + m2*float64(c2)) / float64(c1+c2)
			means = means[:len(means)-1]
			counts = counts[:len(counts)-1]
			means[len(means)-1] = merged
			counts[len(counts)-1] = c1 + c2
		}
	}
	i := 0
	for b, m := range means {
		for k := 0; k < counts[b]; k++ {
			out[i] = m
			i++
		}
	}
	return out
}

// maxAbsDeviation is the largest |a[i]-b[i]|.
func maxAbsDeviation(a, b []float64) float64 {
	var m float64
	for i := range a {
		if d := math.Abs(a[i] - b[i]); d > m {
			m = d
		}
	}
	return m
}

// PolyFit fits y = sum_j coef[j] * x^j by least squares and returns the
// coefficients together with their variances from the residual scatter.
// Used for calibration-curve diagnostics, not for the lookup table itself.
func PolyFit(x, y []float64, degree int) (coef, variance []float64, err error) {
	n := len(x)
	p := degree + 1
	if n != len(y) {
		return nil, nil, fmt.Errorf("%w: %d x values, %d y values", ErrInvalidSweep, n, len(y))
	}
	if degree < 0 || n <= p {
		return nil, nil, fmt.Errorf("%w: degree %d needs more than %d samples", ErrInvalidSweep, degree, p)
	}

	X := mat.NewDense(n, p, nil)
	for i := 0; i < n; i++ {
		v := 1.0
		for j := 0; j < p; j++ {
			X.Set(i, j, v)
			v *= x[i]
		}
	}
	yv := mat.NewVecDense(n, append([]float64(nil), y...))

	var qr mat.QR
	qr.Factorize(X)
	var sol mat.VecDense
	if err := qr.SolveVecTo(&sol, false, yv); err != nil {
		return nil, nil, fmt.Errorf("calib: polynomial fit: %w", err)
	}

	coef = make([]float64, p)
	for j := 0; j < p; j++ {
		coef[j] = sol.AtVec(j)
	}

	// residual variance scaled through (X^T X)^-1 gives the parameter
	// variances, as in an ordinary least squares covariance estimate
	var resid mat.VecDense
	resid.MulVec(X, &sol)
	ss := 0.0
	for i := 0; i < n; i++ {
		d := y[i] - resid.AtVec(i)
		ss += d * d
	}
	sigma2 := ss / float64(n-p)

	var xtx, inv mat.Dense
	xtx.Mul(X.T(), X)
	if err := inv.Inverse(&xtx); err != nil {
		return nil, nil, fmt.Errorf("calib: polynomial fit covariance: %w", err)
	}
	variance = make([]float64, p)
	for j := 0; j < p; j++ {
		variance[j] = sigma2 * inv.At(j, j)
	}
	return coef, variance, nil
}

// PolyEval evaluates a PolyFit polynomial at x by Horner's rule.
func PolyEval(coef []float64, x float64) float64 {
	v := 0.0
	for j := len(coef) - 1; j >= 0; j-- {
		v = v*x + coef[j]
	}
	return v
}
