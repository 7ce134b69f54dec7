/*Package calib turns calibration sweeps into grey-level lookup tables.

An SLM's phase response to its grey-level drive is nonlinear and drifts
with wavelength.  A calibration sweep steps the panel through its grey
range while measuring an optical observable; this package converts the
measured response to unwrapped phase, fits a monotone curve through the
(grey, phase) samples, inverts it, and produces a lookup table mapping
quantized target phase to grey level.  Applying the table to a phase
pattern yields a device frame corrected for the panel's response.

Two observables are supported.  A crossed-polarizer transmission sweep
gives intensity I = cos^2(phi/2), inverted and unwrapped here; an
interferometric sweep gives phase directly, modulo 2pi.
*/
package calib

import (
	"errors"
	"fmt"
	"strings"

	"github.com/opticslab/goslm/slm"
)

// Error kinds surfaced by the calibration pipeline.  Partial results are
// never returned alongside them.
var (
	// ErrInvalidSweep means the input samples are unusable regardless of
	// noise: out of order, out of grey range, or too few.
	ErrInvalidSweep = errors.New("calib: invalid sweep")

	// ErrCalibrationFailed means the sweep is non-monotonic beyond the
	// configured noise tolerance.
	ErrCalibrationFailed = errors.New("calib: calibration failed")

	// ErrIncompleteCalibration means the fitted curve does not cover the
	// full [0, 2pi) phase domain.
	ErrIncompleteCalibration = errors.New("calib: incomplete calibration")

	// ErrLookupMismatch means a phase value fell outside the table's
	// covered domain during frame composition.
	ErrLookupMismatch = errors.New("calib: phase outside lookup table domain")
)

// Response kinds for Config.Kind.
const (
	KindPhase     = "phase"
	KindIntensity = "intensity"
)

// A Sample is one point of a calibration sweep: the grey level that was
// displayed and the measured optical response.
type Sample struct {
	Grey     int     `json:"grey"`
	Response float64 `json:"response"`
}

// Config parameterizes table construction.
type Config struct {
	// WavelengthNM is the wavelength the sweep was measured at; recorded
	// in the table for bookkeeping, not used numerically.
	WavelengthNM float64 `json:"wavelength_nm" yaml:"WavelengthNM"`

	// NoiseTolerance is the largest deviation (radians) of the raw sweep
	// from its monotone fit before the sweep is rejected.  Zero means the
	// default of 0.2 rad.
	NoiseTolerance float64 `json:"noise_tolerance" yaml:"NoiseTolerance"`

	// Kind is the measured response kind, KindPhase or KindIntensity.
	// Empty means KindPhase.
	Kind string `json:"kind" yaml:"Kind"`

	// Resolution is the number of quantized phase bins in the table.
	// Zero means 1024, matching the panel's 10-bit grey depth.
	Resolution int `json:"resolution" yaml:"Resolution"`

	// IgnoredSamples drops this many samples on each side of the
	// intensity minimum, where residual light corrupts the inversion.
	// Only used for KindIntensity.
	IgnoredSamples int `json:"ignored_samples" yaml:"IgnoredSamples"`
}

const (
	defaultNoiseTolerance = 0.2
	defaultResolution     = 1024
)

func (c Config) withDefaults() Config {
	if c.NoiseTolerance == 0 {
		c.NoiseTolerance = defaultNoiseTolerance
	}
	if c.Resolution == 0 {
		c.Resolution = defaultResolution
	}
	if c.Kind == "" {
		c.Kind = KindPhase
	}
	c.Kind = strings.ToLower(c.Kind)
	return c
}

// validate rejects sweeps no amount of fitting can save.
func validate(samples []Sample) error {
	if len(samples) < 4 {
		return fmt.Errorf("%w: %d samples, need at least 4", ErrInvalidSweep, len(samples))
	}
	prev := -1
	for i, s := range samples {
		if s.Grey < 0 || s.Grey > slm.MaxGrey {
			return fmt.Errorf("%w: grey %d at index %d outside [0, %d]", ErrInvalidSweep, s.Grey, i, slm.MaxGrey)
		}
		if s.Grey <= prev {
			return fmt.Errorf("%w: grey levels must be strictly increasing (index %d)", ErrInvalidSweep, i)
		}
		prev = s.Grey
	}
	return nil
}
