package calib_test

import (
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"

	"github.com/opticslab/goslm/calib"
	"github.com/opticslab/goslm/pattern"
	"github.com/opticslab/goslm/slm"
)

// linearSweep fakes an ideal panel whose phase is proportional to grey.
func linearSweep(n int) []calib.Sample {
	samples := make([]calib.Sample, n)
	for i := 0; i < n; i++ {
		grey := int(math.Round(float64(i) * slm.MaxGrey / float64(n-1)))
		samples[i] = calib.Sample{Grey: grey, Response: float64(grey) / slm.MaxGrey * pattern.Tau}
	}
	return samples
}

// circDist is the distance between two phases on the circle.
func circDist(a, b float64) float64 {
	d := math.Abs(pattern.Wrap(a) - pattern.Wrap(b))
	if d > math.Pi {
		d = pattern.Tau - d
	}
	return d
}

func TestBuildRoundTrip(t *testing.T) {
	table, err := calib.Build(linearSweep(64), calib.Config{Kind: calib.KindPhase})
	require.NoError(t, err)
	require.Equal(t, 1024, table.Resolution())

	step := table.PhaseStep()
	for _, phi := range []float64{0, 0.1, 1, math.Pi, 5.5, pattern.Tau - 0.001, -1.2} {
		g, err := table.GreyFor(phi)
		require.NoError(t, err)
		recon := float64(g) / slm.MaxGrey * pattern.Tau
		require.LessOrEqualf(t, circDist(recon, phi), step+1e-9,
			"phase %v mapped to grey %d, reconstructs to %v", phi, g, recon)
	}
}

func TestBuildRejectsNonMonotonic(t *testing.T) {
	samples := []calib.Sample{
		{Grey: 0, Response: 0},
		{Grey: 200, Response: 1},
		{Grey: 400, Response: 0.2},
		{Grey: 600, Response: 2},
		{Grey: 800, Response: 4},
		{Grey: 1023, Response: 6.2},
	}
	_, err := calib.Build(samples, calib.Config{Kind: calib.KindPhase})
	require.ErrorIs(t, err, calib.ErrCalibrationFailed)
}

func TestBuildToleratesSmallNoise(t *testing.T) {
	samples := linearSweep(64)
	samples[10].Response -= 0.15
	samples[30].Response += 0.15
	_, err := calib.Build(samples, calib.Config{Kind: calib.KindPhase})
	require.NoError(t, err)
}

func TestBuildRejectsShortSpan(t *testing.T) {
	n := 32
	samples := make([]calib.Sample, n)
	for i := range samples {
		grey := int(math.Round(float64(i) * slm.MaxGrey / float64(n-1)))
		samples[i] = calib.Sample{Grey: grey, Response: float64(grey) / slm.MaxGrey * math.Pi}
	}
	_, err := calib.Build(samples, calib.Config{Kind: calib.KindPhase})
	require.ErrorIs(t, err, calib.ErrIncompleteCalibration)
}

func TestBuildRejectsBadSamples(t *testing.T) {
	cases := map[string][]calib.Sample{
		"too few": {{Grey: 0}, {Grey: 1}, {Grey: 2}},
		"out of range": {
			{Grey: 0}, {Grey: 1}, {Grey: 2}, {Grey: 2000}},
		"not increasing": {
			{Grey: 0}, {Grey: 100}, {Grey: 100}, {Grey: 200}},
	}
	for name, samples := range cases {
		_, err := calib.Build(samples, calib.Config{})
		require.ErrorIsf(t, err, calib.ErrInvalidSweep, "case %s", name)
	}
}

func TestBuildUnknownKind(t *testing.T) {
	_, err := calib.Build(linearSweep(16), calib.Config{Kind: "voltage"})
	require.ErrorIs(t, err, calib.ErrInvalidSweep)
}

func TestBuildIntensity(t *testing.T) {
	// cos^2 transmission of a panel spanning 1.99 * pi of phase, sampled
	// densely enough to include the point of extinction
	n := 200
	samples := make([]calib.Sample, n)
	for i := 0; i < n; i++ {
		phi := float64(i) * math.Pi / 100
		c := math.Cos(phi / 2)
		samples[i] = calib.Sample{
			Grey:     int(math.Round(float64(i) * slm.MaxGrey / float64(n-1))),
			Response: c * c,
		}
	}
	table, err := calib.Build(samples, calib.Config{Kind: calib.KindIntensity, Resolution: 64})
	require.NoError(t, err)
	require.Equal(t, 64, table.Resolution())

	prev := uint16(0)
	for k, g := range table.Grey {
		require.LessOrEqualf(t, prev, g, "table must be non-decreasing at bin %d", k)
		prev = g
	}
	// extinction happened at half the sweep, so pi should land near the
	// middle grey level
	g, err := table.GreyFor(math.Pi)
	require.NoError(t, err)
	require.InDelta(t, 514, float64(g), 3)
}

func TestPhaseFromIntensityRecoversRamp(t *testing.T) {
	n := 32
	grey := make([]float64, n)
	intensity := make([]float64, n)
	phi := make([]float64, n)
	for i := 0; i < n; i++ {
		phi[i] = float64(i) * math.Pi / 16
		c := math.Cos(phi[i] / 2)
		grey[i] = float64(i)
		intensity[i] = c * c
	}
	outGrey, outPhase, err := calib.PhaseFromIntensity(grey, intensity, 0)
	require.NoError(t, err)
	require.Len(t, outPhase, n)
	require.Equal(t, grey, outGrey)
	for i := range outPhase {
		require.InDeltaf(t, phi[i], outPhase[i], 1e-9, "sample %d", i)
	}
}

func TestUnwrapRamp(t *testing.T) {
	n := 20
	wrapped := make([]float64, n)
	for i := 0; i < n; i++ {
		wrapped[i] = pattern.Wrap(float64(i) * 0.5)
	}
	out := calib.Unwrap(wrapped)
	for i := range out {
		require.InDeltaf(t, float64(i)*0.5, out[i], 1e-9, "sample %d", i)
	}
}

func TestIsotonicPools(t *testing.T) {
	got := calib.Isotonic([]float64{1, 3, 2, 4})
	want := []float64{1, 2.5, 2.5, 4}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("isotonic fit mismatch (-want +got):\n%s", diff)
	}
}

func TestIsotonicPreservesMonotone(t *testing.T) {
	in := []float64{0, 1, 2, 3}
	got := calib.Isotonic(in)
	if diff := cmp.Diff(in, got); diff != "" {
		t.Errorf("monotone input should be unchanged (-want +got):\n%s", diff)
	}
}

func TestPolyFitQuadratic(t *testing.T) {
	n := 10
	x := make([]float64, n)
	y := make([]float64, n)
	for i := 0; i < n; i++ {
		x[i] = float64(i)
		y[i] = 2 + 3*x[i] + 0.5*x[i]*x[i]
	}
	coef, variance, err := calib.PolyFit(x, y, 2)
	require.NoError(t, err)
	require.InDelta(t, 2, coef[0], 1e-8)
	require.InDelta(t, 3, coef[1], 1e-8)
	require.InDelta(t, 0.5, coef[2], 1e-8)
	for j, v := range variance {
		require.InDeltaf(t, 0, v, 1e-8, "coefficient %d variance", j)
	}
	require.InDelta(t, 2+3*2+0.5*4, calib.PolyEval(coef, 2), 1e-8)
}

func TestFrameComposition(t *testing.T) {
	table, err := calib.Build(linearSweep(64), calib.Config{Kind: calib.KindPhase})
	require.NoError(t, err)

	p, err := pattern.Blazed(pattern.Grid{Width: 32, Height: 16}, 7.3, 0.4)
	require.NoError(t, err)

	f1, err := table.Frame(p)
	require.NoError(t, err)
	f2, err := table.Frame(p)
	require.NoError(t, err)
	if diff := cmp.Diff(f1, f2); diff != "" {
		t.Errorf("composition must be deterministic (-first +second):\n%s", diff)
	}
	require.Equal(t, 32, f1.Width)
	require.Equal(t, 16, f1.Height)
	for i, g := range f1.Grey {
		require.LessOrEqualf(t, g, uint16(slm.MaxGrey), "pixel %d", i)
	}
}

func TestGreyForWrapsAtTau(t *testing.T) {
	table, err := calib.Build(linearSweep(64), calib.Config{Kind: calib.KindPhase})
	require.NoError(t, err)
	g, err := table.GreyFor(pattern.Tau - 1e-12)
	require.NoError(t, err)
	require.Equal(t, table.Grey[0], g)
}
