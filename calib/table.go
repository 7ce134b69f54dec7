package calib

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/interp"

	"github.com/opticslab/goslm/pattern"
	"github.com/opticslab/goslm/slm"
)

// A Table maps quantized target phase to device grey level.  Built once
// per calibration session and immutable afterward; recalibration replaces
// the table wholesale.
type Table struct {
	// Grey[k] is the grey level for target phase k * 2pi / Resolution.
	Grey []uint16

	// WavelengthNM records the calibration wavelength.
	WavelengthNM float64
}

// Resolution is the number of quantized phase bins.
func (t *Table) Resolution() int {
	return len(t.Grey)
}

// PhaseStep is the width of one quantized phase bin in radians.
func (t *Table) PhaseStep() float64 {
	return pattern.Tau / float64(len(t.Grey))
}

// GreyFor looks up the grey level for a phase value, wrapping it into
// [0, 2pi) first.  ErrLookupMismatch if the wrapped phase somehow falls
// outside the table domain; the table invariants make that unreachable,
// but composition checks it anyway.
func (t *Table) GreyFor(phase float64) (uint16, error) {
	k := int(math.Round(pattern.Wrap(phase) / t.PhaseStep()))
	if k == len(t.Grey) { // rounding up from the last bin wraps to zero phase
		k = 0
	}
	if k < 0 || k >= len(t.Grey) {
		return 0, fmt.Errorf("%w: phase %v", ErrLookupMismatch, phase)
	}
	return t.Grey[k], nil
}

// Frame composes a device frame by applying the table to every pixel of a
// phase pattern.  Pure and deterministic: the same pattern and table
// always produce identical frames.
func (t *Table) Frame(p *pattern.Pattern) (slm.Frame, error) {
	f := slm.NewFrame(p.Width, p.Height)
	for i, phi := range p.Phase {
		g, err := t.GreyFor(phi)
		if err != nil {
			return slm.Frame{}, err
		}
		f.Grey[i] = g
	}
	return f, nil
}

// Build runs the calibration pipeline: response conversion, monotone fit,
// inversion.  On any failure the partial table is discarded and only the
// error returned.
func Build(samples []Sample, cfg Config) (*Table, error) {
	cfg = cfg.withDefaults()
	if err := validate(samples); err != nil {
		return nil, err
	}

	greys := make([]float64, len(samples))
	resp := make([]float64, len(samples))
	for i, s := range samples {
		greys[i] = float64(s.Grey)
		resp[i] = s.Response
	}

	var phase []float64
	var err error
	switch cfg.Kind {
	case KindIntensity:
		greys, phase, err = PhaseFromIntensity(greys, resp, cfg.IgnoredSamples)
		if err != nil {
			return nil, err
		}
	case KindPhase:
		phase = Unwrap(resp)
	default:
		return nil, fmt.Errorf("%w: unknown response kind %q", ErrInvalidSweep, cfg.Kind)
	}

	// enforce monotonicity rather than assuming it
	fitted := Isotonic(phase)
	if dev := maxAbsDeviation(phase, fitted); dev > cfg.NoiseTolerance {
		return nil, fmt.Errorf("%w: sweep deviates %.3f rad from monotone, tolerance %.3f",
			ErrCalibrationFailed, dev, cfg.NoiseTolerance)
	}
	base := fitted[0]
	for i := range fitted {
		fitted[i] -= base
	}
	span := fitted[len(fitted)-1]
	if span <= 0 {
		return nil, fmt.Errorf("%w: sweep has no phase range", ErrCalibrationFailed)
	}

	// the largest quantized target is 2pi * (N-1)/N; anything less than
	// that leaves uncovered bins
	step := pattern.Tau / float64(cfg.Resolution)
	if span < pattern.Tau-step {
		return nil, fmt.Errorf("%w: fitted curve spans %.3f rad of the %.3f rad domain",
			ErrIncompleteCalibration, span, pattern.Tau)
	}

	// collapse plateaus from the isotonic fit so phase is strictly
	// increasing, averaging the grey levels in each pooled run
	var xs, ys []float64
	for i := 0; i < len(fitted); {
		j := i
		sum := 0.0
		for j < len(fitted) && fitted[j] == fitted[i] {
			sum += greys[j]
			j++
		}
		xs = append(xs, fitted[i])
		ys = append(ys, sum/float64(j-i))
		i = j
	}
	if len(xs) < 2 {
		return nil, fmt.Errorf("%w: fitted curve is flat", ErrCalibrationFailed)
	}

	var pl interp.PiecewiseLinear
	if err := pl.Fit(xs, ys); err != nil {
		return nil, fmt.Errorf("calib: inversion interpolant: %w", err)
	}

	t := &Table{Grey: make([]uint16, cfg.Resolution), WavelengthNM: cfg.WavelengthNM}
	for k := 0; k < cfg.Resolution; k++ {
		target := float64(k) * step
		if target > xs[len(xs)-1] { // guard rounding at the covered edge
			target = xs[len(xs)-1]
		}
		g := math.Round(pl.Predict(target))
		if g < 0 {
			g = 0
		}
		if g > slm.MaxGrey {
			g = slm.MaxGrey
		}
		t.Grey[k] = uint16(g)
	}
	return t, nil
}
