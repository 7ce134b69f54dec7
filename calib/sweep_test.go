package calib_test

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/opticslab/goslm/calib"
	"github.com/opticslab/goslm/slm"
)

type meterFunc func() (float64, error)

func (m meterFunc) Measure() (float64, error) { return m() }

func TestRunSweepVisitsFullRange(t *testing.T) {
	sim := slm.NewSim(16, 8)
	require.NoError(t, sim.Open())

	var measured []uint16
	meter := meterFunc(func() (float64, error) {
		f, ok := sim.LastFrame()
		require.True(t, ok)
		measured = append(measured, f.Grey[0])
		return float64(f.Grey[0]), nil
	})

	var progress []int
	samples, err := calib.RunSweep(sim, meter, calib.SweepConfig{
		Steps:    5,
		Settle:   time.Millisecond,
		Progress: func(done, total int) { progress = append(progress, done) },
	})
	require.NoError(t, err)
	require.Len(t, samples, 5)
	require.Equal(t, 0, samples[0].Grey)
	require.Equal(t, slm.MaxGrey, samples[4].Grey)
	for i := 1; i < len(samples); i++ {
		require.Greater(t, samples[i].Grey, samples[i-1].Grey)
	}
	// the meter reads back exactly what was displayed
	for i, s := range samples {
		require.Equal(t, float64(measured[i]), s.Response)
	}
	require.Equal(t, []int{1, 2, 3, 4, 5}, progress)
	// initial zeroing plus one display per step
	require.Equal(t, 6, sim.Sends())
}

func TestRunSweepAbortsOnMeterError(t *testing.T) {
	sim := slm.NewSim(16, 8)
	require.NoError(t, sim.Open())
	boom := errors.New("no light")
	meter := meterFunc(func() (float64, error) { return 0, boom })
	samples, err := calib.RunSweep(sim, meter, calib.SweepConfig{Steps: 5, Settle: time.Millisecond})
	require.ErrorIs(t, err, boom)
	require.Nil(t, samples)
}

func TestRunSweepAbortsOnDeviceError(t *testing.T) {
	sim := slm.NewSim(16, 8)
	require.NoError(t, sim.Open())
	sim.FailSend = slm.ErrDeviceIO
	meter := meterFunc(func() (float64, error) { return 0, nil })
	_, err := calib.RunSweep(sim, meter, calib.SweepConfig{Steps: 5, Settle: time.Millisecond})
	require.ErrorIs(t, err, slm.ErrDeviceIO)
}

func TestRunSweepRejectsTooFewSteps(t *testing.T) {
	sim := slm.NewSim(16, 8)
	require.NoError(t, sim.Open())
	meter := meterFunc(func() (float64, error) { return 0, nil })
	_, err := calib.RunSweep(sim, meter, calib.SweepConfig{Steps: 2})
	require.ErrorIs(t, err, calib.ErrInvalidSweep)
}
