package pattern_test

import (
	"errors"
	"fmt"
	"math"
	"testing"

	"github.com/opticslab/goslm/pattern"
)

func ExampleUniform() {
	p, _ := pattern.Uniform(pattern.Grid{Width: 2, Height: 1}, math.Pi)
	fmt.Printf("%.4f %.4f\n", p.At(0, 0), p.At(1, 0))
	// Output: 3.1416 3.1416
}

func ExampleWrap() {
	fmt.Printf("%.4f\n", pattern.Wrap(-math.Pi))
	// Output: 3.1416
}

func TestBlazedPeriodicity(t *testing.T) {
	var (
		g      = pattern.Grid{Width: 16, Height: 4}
		period = 8.
	)
	p, err := pattern.Blazed(g, period, 0)
	if err != nil {
		t.Fatal(err)
	}
	for y := 0; y < g.Height; y++ {
		for x := 0; x < g.Width-int(period); x++ {
			a := p.At(x, y)
			b := p.At(x+int(period), y)
			if math.Abs(a-b) > 1e-9 {
				t.Errorf("expected period-%v repetition at (%d,%d), got %f vs %f", period, x, y, a, b)
			}
		}
	}
}

func TestBlazedRampSlope(t *testing.T) {
	g := pattern.Grid{Width: 8, Height: 1}
	p, err := pattern.Blazed(g, 8, 0)
	if err != nil {
		t.Fatal(err)
	}
	for x := 0; x < 8; x++ {
		expected := pattern.Tau / 8 * float64(x)
		if math.Abs(p.At(x, 0)-expected) > 1e-9 {
			t.Errorf("expected phase %f at x=%d, got %f", expected, x, p.At(x, 0))
		}
	}
}

func TestBlazedOrientationSwapsAxes(t *testing.T) {
	g := pattern.Grid{Width: 8, Height: 8}
	horiz, err := pattern.Blazed(g, 4, 0)
	if err != nil {
		t.Fatal(err)
	}
	vert, err := pattern.Blazed(g, 4, math.Pi/2)
	if err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 8; i++ {
		for j := 0; j < 8; j++ {
			if math.Abs(horiz.At(i, j)-vert.At(j, i)) > 1e-9 {
				t.Errorf("expected transpose symmetry at (%d,%d)", i, j)
			}
		}
	}
}

func TestLensClosedForm(t *testing.T) {
	var (
		g      = pattern.Grid{Width: 8, Height: 8}
		lambda = 633e-9
		f      = 0.5
	)
	p, err := pattern.Lens(g, lambda, f, 4, 4)
	if err != nil {
		t.Fatal(err)
	}
	for y := 0; y < g.Height; y++ {
		for x := 0; x < g.Width; x++ {
			dx := (float64(x) - 4) * pattern.PixelPitch
			dy := (float64(y) - 4) * pattern.PixelPitch
			expected := pattern.Wrap(math.Pi / (lambda * f) * (dx*dx + dy*dy))
			if math.Abs(p.At(x, y)-expected) > 1e-9 {
				t.Errorf("expected %f at (%d,%d), got %f", expected, x, y, p.At(x, y))
			}
		}
	}
}

func TestLensCenterIsZero(t *testing.T) {
	p, err := pattern.Lens(pattern.Grid{Width: 9, Height: 9}, 633e-9, 1, 4, 4)
	if err != nil {
		t.Fatal(err)
	}
	if p.At(4, 4) != 0 {
		t.Errorf("expected zero phase at lens center, got %f", p.At(4, 4))
	}
}

func TestCompositeIsWrappedSum(t *testing.T) {
	g := pattern.Grid{Width: 4, Height: 4}
	a, err := pattern.Uniform(g, 3*math.Pi/2)
	if err != nil {
		t.Fatal(err)
	}
	b, err := pattern.Uniform(g, math.Pi)
	if err != nil {
		t.Fatal(err)
	}
	c, err := pattern.Composite(a, b)
	if err != nil {
		t.Fatal(err)
	}
	expected := pattern.Wrap(3*math.Pi/2 + math.Pi)
	for i, v := range c.Phase {
		if math.Abs(v-expected) > 1e-9 {
			t.Errorf("expected wrapped sum %f at %d, got %f", expected, i, v)
		}
	}
}

func TestCompositeRejectsGridMismatch(t *testing.T) {
	a, _ := pattern.Uniform(pattern.Grid{Width: 4, Height: 4}, 0)
	b, _ := pattern.Uniform(pattern.Grid{Width: 8, Height: 4}, 0)
	_, err := pattern.Composite(a, b)
	if !errors.Is(err, pattern.ErrInvalidParameter) {
		t.Errorf("expected ErrInvalidParameter for mismatched grids, got %v", err)
	}
}

func TestBinaryDutyCycle(t *testing.T) {
	g := pattern.Grid{Width: 8, Height: 1}
	p, err := pattern.Binary(g, 4, 0.5, math.Pi, true)
	if err != nil {
		t.Fatal(err)
	}
	expected := []float64{math.Pi, math.Pi, 0, 0, math.Pi, math.Pi, 0, 0}
	for x, want := range expected {
		if math.Abs(p.At(x, 0)-want) > 1e-9 {
			t.Errorf("expected %f at x=%d, got %f", want, x, p.At(x, 0))
		}
	}
}

func TestSlitStripe(t *testing.T) {
	g := pattern.Grid{Width: 8, Height: 2}
	p, err := pattern.Slit(g, true, 2, 0, math.Pi, 0)
	if err != nil {
		t.Fatal(err)
	}
	for x := 0; x < 8; x++ {
		want := 0.
		if x == 3 || x == 4 {
			want = math.Pi
		}
		if math.Abs(p.At(x, 0)-want) > 1e-9 {
			t.Errorf("expected %f at x=%d, got %f", want, x, p.At(x, 0))
		}
	}
}

func TestDoubleSlitHasTwoOpenings(t *testing.T) {
	g := pattern.Grid{Width: 16, Height: 1}
	p, err := pattern.DoubleSlit(g, true, 2, 0, 8, math.Pi, 0)
	if err != nil {
		t.Fatal(err)
	}
	open := 0
	for x := 0; x < 16; x++ {
		if p.At(x, 0) != 0 {
			open++
		}
	}
	if open != 4 {
		t.Errorf("expected 4 open pixels across both slits, got %d", open)
	}
}

func TestPinholeContainsCenter(t *testing.T) {
	g := pattern.Grid{Width: 9, Height: 9}
	p, err := pattern.Pinhole(g, 2, 0, 0, math.Pi, 0)
	if err != nil {
		t.Fatal(err)
	}
	if p.At(4, 4) != math.Pi {
		t.Errorf("expected open phase at pinhole center, got %f", p.At(4, 4))
	}
	if p.At(0, 0) != 0 {
		t.Errorf("expected wall phase at corner, got %f", p.At(0, 0))
	}
}

func TestInvalidParameters(t *testing.T) {
	g := pattern.Grid{Width: 8, Height: 8}
	cases := []struct {
		name string
		err  error
	}{
		{"zero grid", func() error { _, err := pattern.Uniform(pattern.Grid{}, 0); return err }()},
		{"short period", func() error { _, err := pattern.Blazed(g, 1, 0); return err }()},
		{"zero focal length", func() error { _, err := pattern.Lens(g, 633e-9, 0, 0, 0); return err }()},
		{"negative wavelength", func() error { _, err := pattern.Lens(g, -1, 1, 0, 0); return err }()},
		{"bad duty", func() error { _, err := pattern.Binary(g, 4, 1.5, 0, true); return err }()},
		{"zero slit width", func() error { _, err := pattern.Slit(g, true, 0, 0, 0, 0); return err }()},
		{"zero radius", func() error { _, err := pattern.Pinhole(g, 0, 0, 0, 0, 0); return err }()},
	}
	for _, tc := range cases {
		if !errors.Is(tc.err, pattern.ErrInvalidParameter) {
			t.Errorf("%s: expected ErrInvalidParameter, got %v", tc.name, tc.err)
		}
	}
}

func TestRangeInvariant(t *testing.T) {
	g := pattern.Grid{Width: 32, Height: 32}
	ps := []*pattern.Pattern{}
	for _, mk := range []func() (*pattern.Pattern, error){
		func() (*pattern.Pattern, error) { return pattern.Uniform(g, -7.5) },
		func() (*pattern.Pattern, error) { return pattern.Blazed(g, 3.3, 1.1) },
		func() (*pattern.Pattern, error) { return pattern.Lens(g, 633e-9, -0.25, 16, 16) },
	} {
		p, err := mk()
		if err != nil {
			t.Fatal(err)
		}
		ps = append(ps, p)
	}
	sum, err := pattern.Composite(ps...)
	if err != nil {
		t.Fatal(err)
	}
	ps = append(ps, sum)
	for i, p := range ps {
		for j, v := range p.Phase {
			if v < 0 || v >= pattern.Tau {
				t.Fatalf("pattern %d pixel %d out of [0, tau): %f", i, j, v)
			}
		}
	}
}

func TestFromConfigDispatch(t *testing.T) {
	p, err := pattern.FromConfig(pattern.Config{
		Kind:       "composite",
		GridWidth:  8,
		GridHeight: 8,
		Parts: []pattern.Config{
			{Kind: "grating", Period: 4},
			{Kind: "lens", Wavelength: 633e-9, FocalLength: 0.5},
		},
	})
	if err != nil {
		t.Fatal(err)
	}
	if p.Width != 8 || p.Height != 8 {
		t.Errorf("expected parts to inherit the 8x8 grid, got %dx%d", p.Width, p.Height)
	}
}

func TestFromConfigUnknownKind(t *testing.T) {
	_, err := pattern.FromConfig(pattern.Config{Kind: "axicon", GridWidth: 8, GridHeight: 8})
	if !errors.Is(err, pattern.ErrInvalidParameter) {
		t.Errorf("expected ErrInvalidParameter for unknown kind, got %v", err)
	}
}
