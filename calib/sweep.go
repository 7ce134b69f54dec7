package calib

import (
	"fmt"
	"math"
	"time"

	"github.com/opticslab/goslm/slm"
)

// A Meter measures the optical observable during a sweep: integrated
// intensity for crossed-polarizer sweeps, fringe phase for
// interferometric ones.  Package spectro provides one.
type Meter interface {
	Measure() (float64, error)
}

// SweepConfig parameterizes a calibration sweep run.
type SweepConfig struct {
	// Steps is how many grey levels to visit, spread evenly over the
	// full range.  Zero means 30.
	Steps int

	// Settle is how long to wait after each display update before
	// measuring, covering liquid crystal response time.  Zero means 50ms.
	Settle time.Duration

	// Progress, if non-nil, is called after each sample with the number
	// taken and the total.
	Progress func(done, total int)
}

// RunSweep steps the panel through its grey range and measures the
// response at each level, returning the samples in sweep order.  The
// device is left displaying the last grey level; callers wanting a safe
// idle state should zero it afterwards.  Errors from the device or meter
// abort the sweep immediately with no partial result.
func RunSweep(ctl slm.Controller, meter Meter, cfg SweepConfig) ([]Sample, error) {
	if cfg.Steps == 0 {
		cfg.Steps = 30
	}
	if cfg.Steps < 4 {
		return nil, fmt.Errorf("%w: %d steps, need at least 4", ErrInvalidSweep, cfg.Steps)
	}
	if cfg.Settle == 0 {
		cfg.Settle = 50 * time.Millisecond
	}

	display := func(grey uint16) error {
		if us, ok := ctl.(slm.UniformSetter); ok {
			return us.SetUniform(grey)
		}
		w, h, err := ctl.Dimensions()
		if err != nil {
			return err
		}
		f := slm.NewFrame(w, h)
		for i := range f.Grey {
			f.Grey[i] = grey
		}
		return ctl.SendFrame(f)
	}

	// let the panel reach the starting state before the timed loop
	if err := display(0); err != nil {
		return nil, err
	}
	time.Sleep(1 * time.Second)

	samples := make([]Sample, 0, cfg.Steps)
	for i := 0; i < cfg.Steps; i++ {
		grey := int(math.Round(float64(i) * slm.MaxGrey / float64(cfg.Steps-1)))
		if err := display(uint16(grey)); err != nil {
			return nil, err
		}
		time.Sleep(cfg.Settle)
		v, err := meter.Measure()
		if err != nil {
			return nil, fmt.Errorf("sweep at grey %d: %w", grey, err)
		}
		samples = append(samples, Sample{Grey: grey, Response: v})
		if cfg.Progress != nil {
			cfg.Progress(i+1, cfg.Steps)
		}
	}
	return samples, nil
}
