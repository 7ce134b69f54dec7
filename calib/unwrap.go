package calib

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
)

// Unwrap resolves 2pi ambiguities in a phase sweep measured modulo 2pi.
// The sweep order is known to step the drive monotonically, so any jump
// larger than pi between neighbors is taken as a wrap and corrected.
// The result is rebased so the first sample is zero.
func Unwrap(phase []float64) []float64 {
	out := make([]float64, len(phase))
	if len(phase) == 0 {
		return out
	}
	offset := 0.0
	out[0] = 0
	for i := 1; i < len(phase); i++ {
		d := phase[i] - phase[i-1]
		switch {
		case d > math.Pi:
			offset -= 2 * math.Pi
		case d < -math.Pi:
			offset += 2 * math.Pi
		}
		out[i] = phase[i] + offset - phase[0]
	}
	return out
}

// PhaseFromIntensity converts a crossed-polarizer transmission sweep to
// unwrapped phase.  With polarizers at 45 degrees to the modulation axis
// the transmitted intensity is I = cos^2(phi/2), so phi is recovered by
// inverting the cosine and tracking which branch the sweep is on via the
// local slope.  Assumes the intensity maximum comes before the minimum,
// which holds for a drive sweep starting at zero retardance.
//
// ignored drops that many samples on each side of the global minimum,
// where residual intensity makes the branch decision unreliable.
//
// Returns the (possibly truncated) grey levels and their phases, rebased
// to start at zero.
func PhaseFromIntensity(grey, intensity []float64, ignored int) ([]float64, []float64, error) {
	n := len(grey)
	if n != len(intensity) {
		return nil, nil, fmt.Errorf("%w: %d grey levels, %d intensities", ErrInvalidSweep, n, len(intensity))
	}
	if n < 4 {
		return nil, nil, fmt.Errorf("%w: %d samples, need at least 4", ErrInvalidSweep, n)
	}
	x := append([]float64(nil), grey...)
	y := append([]float64(nil), intensity...)
	if max := floats.Max(y); max > 1 {
		floats.Scale(1/max, y)
	}

	// sign of the local slope; the last sample inherits its neighbor's,
	// since the branch cannot change without an extremum between them
	slopes := make([]float64, n)
	for i := 0; i < n-1; i++ {
		slopes[i] = sign(y[i+1] - y[i])
	}
	slopes[n-1] = slopes[n-2]

	// restrict to one cos^2 period: the first point past the start that
	// crosses the starting intensity with the starting slope ends it
	dist := make([]float64, n)
	for i := range y {
		dist[i] = sign(y[i] - y[0])
	}
	end := n
	for i := 1; i < n-1; i++ {
		if sign(dist[i+1]-dist[i]) == slopes[0] {
			end = i
			break
		}
	}
	x, y, slopes = x[:end], y[:end], slopes[:end]

	// drop samples around the minimum where residual light dominates
	if ignored > 0 {
		minIdx := floats.MinIdx(y)
		lo := minIdx - ignored
		hi := minIdx + ignored + 1
		if lo < 0 {
			lo = 0
		}
		if hi > len(y) {
			hi = len(y)
		}
		x = append(x[:lo:lo], x[hi:]...)
		y = append(y[:lo:lo], y[hi:]...)
		slopes = append(slopes[:lo:lo], slopes[hi:]...)
	}
	if len(y) < 4 {
		return nil, nil, fmt.Errorf("%w: %d samples left after trimming", ErrInvalidSweep, len(y))
	}

	// invert the cos^2; the rising branch is reflected about pi
	phases := make([]float64, len(y))
	for i, v := range y {
		phases[i] = math.Acos(math.Sqrt(clamp01(v)))
		if slopes[i] > 0 {
			phases[i] = math.Pi - phases[i]
		}
	}

	// samples before the zero crossing belong to the previous period
	zeroIdx := 0
	for i, p := range phases {
		if math.Abs(p) < math.Abs(phases[zeroIdx]) {
			zeroIdx = i
		}
	}
	for i := 0; i < zeroIdx; i++ {
		phases[i] -= math.Pi
	}

	// rebase and convert retardance to modulation phase
	base := phases[0]
	for i := range phases {
		phases[i] = (phases[i] - base) * 2
	}
	return x, phases, nil
}

func sign(v float64) float64 {
	switch {
	case v > 0:
		return 1
	case v < 0:
		return -1
	default:
		return 0
	}
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
