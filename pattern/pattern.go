/*Package pattern synthesizes 2D phase maps for spatial light modulators.

All constructors are pure functions of their parameters; outputs are phase
values in radians wrapped to [0, 2pi) over a fixed pixel grid.  Grey-level
conversion is not done here; see package calib for the lookup table that
corrects for the device's nonlinear response.
*/
package pattern

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
)

// ErrInvalidParameter is returned when a pattern configuration cannot
// produce meaningful output (zero period, non-positive focal length...).
// Degenerate output is never produced silently.
var ErrInvalidParameter = errors.New("pattern: invalid parameter")

// Tau is one full phase cycle.
const Tau = 2 * math.Pi

// PixelPitch is the physical size of one SLM pixel in meters (SLM-200).
const PixelPitch = 8e-6

// A Grid is the pixel dimensions of the target panel.
type Grid struct {
	Width  int
	Height int
}

func (g Grid) check() error {
	if g.Width <= 0 || g.Height <= 0 {
		return fmt.Errorf("%w: grid %dx%d", ErrInvalidParameter, g.Width, g.Height)
	}
	return nil
}

// A Pattern is an immutable phase map over a pixel grid.  Phase is
// row-major with len Width*Height, each value in [0, Tau).  Consumers must
// not mutate Phase; constructors always allocate fresh storage.
type Pattern struct {
	Width  int
	Height int
	Phase  []float64
}

// At returns the phase at pixel (x, y).
func (p *Pattern) At(x, y int) float64 {
	return p.Phase[y*p.Width+x]
}

// Wrap reduces a phase value into the canonical [0, Tau) range.
func Wrap(phi float64) float64 {
	phi = math.Mod(phi, Tau)
	if phi < 0 {
		phi += Tau
	}
	if phi >= Tau { // Mod can land exactly on Tau through rounding
		phi -= Tau
	}
	return phi
}

func blank(g Grid) *Pattern {
	return &Pattern{Width: g.Width, Height: g.Height, Phase: make([]float64, g.Width*g.Height)}
}

// Uniform fills the grid with a single wrapped phase value.
func Uniform(g Grid, phase float64) (*Pattern, error) {
	if err := g.check(); err != nil {
		return nil, err
	}
	p := blank(g)
	v := Wrap(phase)
	for i := range p.Phase {
		p.Phase[i] = v
	}
	return p, nil
}

// Blazed produces a linear (blazed) grating:
//
//	phase(x, y) = (Tau/period) * (x*cos(theta) + y*sin(theta)) mod Tau
//
// period is in pixels along the grating axis and must be at least 2 so the
// ramp is resolvable; theta is the grating orientation in radians.
func Blazed(g Grid, period, theta float64) (*Pattern, error) {
	if err := g.check(); err != nil {
		return nil, err
	}
	if period < 2 {
		return nil, fmt.Errorf("%w: grating period %v px, must be >= 2", ErrInvalidParameter, period)
	}
	p := blank(g)
	k := Tau / period
	c, s := math.Cos(theta), math.Sin(theta)
	for y := 0; y < g.Height; y++ {
		for x := 0; x < g.Width; x++ {
			p.Phase[y*g.Width+x] = Wrap(k * (float64(x)*c + float64(y)*s))
		}
	}
	return p, nil
}

// Binary produces a square-wave grating alternating between 0 and
// contrast with the given duty cycle.  horizontal selects stripes that
// vary along x rather than y.
func Binary(g Grid, period int, duty, contrast float64, horizontal bool) (*Pattern, error) {
	if err := g.check(); err != nil {
		return nil, err
	}
	if period < 2 {
		return nil, fmt.Errorf("%w: binary grating period %d px, must be >= 2", ErrInvalidParameter, period)
	}
	if duty <= 0 || duty >= 1 {
		return nil, fmt.Errorf("%w: duty cycle %v, must be in (0, 1)", ErrInvalidParameter, duty)
	}
	p := blank(g)
	v := Wrap(contrast)
	on := float64(period) * duty
	for y := 0; y < g.Height; y++ {
		for x := 0; x < g.Width; x++ {
			idx := x
			if !horizontal {
				idx = y
			}
			if float64(idx%period) < on {
				p.Phase[y*g.Width+x] = v
			}
		}
	}
	return p, nil
}

// Lens produces a Fresnel lens phase profile:
//
//	phase(x, y) = pi/(lambda*f) * ((x-cx)^2 + (y-cy)^2) mod Tau
//
// lambda (wavelength) and f (focal length) are in meters; pixel
// coordinates are converted to meters with PixelPitch.  cx, cy are the
// lens center in pixels.  A negative f gives a diverging lens; f == 0 is
// rejected.
func Lens(g Grid, lambda, f, cx, cy float64) (*Pattern, error) {
	if err := g.check(); err != nil {
		return nil, err
	}
	if lambda <= 0 {
		return nil, fmt.Errorf("%w: wavelength %v m", ErrInvalidParameter, lambda)
	}
	if f == 0 {
		return nil, fmt.Errorf("%w: zero focal length", ErrInvalidParameter)
	}
	p := blank(g)
	k := math.Pi / (lambda * f)
	for y := 0; y < g.Height; y++ {
		dy := (float64(y) - cy) * PixelPitch
		for x := 0; x < g.Width; x++ {
			dx := (float64(x) - cx) * PixelPitch
			p.Phase[y*g.Width+x] = Wrap(k * (dx*dx + dy*dy))
		}
	}
	return p, nil
}

// Slit draws a single slit: openPhase inside a stripe of the given width
// (pixels), wallPhase outside.  offset shifts the stripe center from the
// grid center; vertical selects a stripe running along y.
func Slit(g Grid, vertical bool, width, offset, openPhase, wallPhase float64) (*Pattern, error) {
	return slits(g, vertical, width, openPhase, wallPhase, []float64{offset})
}

// DoubleSlit draws two slits separated center-to-center by separation
// pixels, centered about offset.
func DoubleSlit(g Grid, vertical bool, width, offset, separation, openPhase, wallPhase float64) (*Pattern, error) {
	if separation <= 0 {
		return nil, fmt.Errorf("%w: slit separation %v px", ErrInvalidParameter, separation)
	}
	return slits(g, vertical, width, openPhase, wallPhase, []float64{offset - separation/2, offset + separation/2})
}

func slits(g Grid, vertical bool, width, openPhase, wallPhase float64, offsets []float64) (*Pattern, error) {
	if err := g.check(); err != nil {
		return nil, err
	}
	if width <= 0 {
		return nil, fmt.Errorf("%w: slit width %v px", ErrInvalidParameter, width)
	}
	p, err := Uniform(g, wallPhase)
	if err != nil {
		return nil, err
	}
	open := Wrap(openPhase)
	length := g.Width
	if !vertical {
		length = g.Height
	}
	for _, offset := range offsets {
		center := float64(length)/2 + offset
		start := clampInt(int(math.Round(center-width/2)), 0, length)
		end := clampInt(int(math.Round(center+width/2)), 0, length)
		for y := 0; y < g.Height; y++ {
			for x := 0; x < g.Width; x++ {
				idx := x
				if !vertical {
					idx = y
				}
				if idx >= start && idx < end {
					p.Phase[y*g.Width+x] = open
				}
			}
		}
	}
	return p, nil
}

// Pinhole draws a circular aperture of the given radius (pixels) centered
// at (ox, oy) from the grid center: openPhase inside, wallPhase outside.
func Pinhole(g Grid, radius, ox, oy, openPhase, wallPhase float64) (*Pattern, error) {
	if err := g.check(); err != nil {
		return nil, err
	}
	if radius <= 0 {
		return nil, fmt.Errorf("%w: pinhole radius %v px", ErrInvalidParameter, radius)
	}
	p, err := Uniform(g, wallPhase)
	if err != nil {
		return nil, err
	}
	open := Wrap(openPhase)
	cx := float64(g.Width)/2 + ox
	cy := float64(g.Height)/2 + oy
	r2 := radius * radius
	for y := 0; y < g.Height; y++ {
		dy := float64(y) - cy
		for x := 0; x < g.Width; x++ {
			dx := float64(x) - cx
			if dx*dx+dy*dy < r2 {
				p.Phase[y*g.Width+x] = open
			}
		}
	}
	return p, nil
}

// Composite is the wrapped pointwise sum of the given patterns.  All
// inputs must share one grid.
func Composite(ps ...*Pattern) (*Pattern, error) {
	if len(ps) == 0 {
		return nil, fmt.Errorf("%w: composite of zero patterns", ErrInvalidParameter)
	}
	g := Grid{Width: ps[0].Width, Height: ps[0].Height}
	out := blank(g)
	for _, p := range ps {
		if p.Width != g.Width || p.Height != g.Height {
			return nil, fmt.Errorf("%w: composite grid mismatch %dx%d vs %dx%d",
				ErrInvalidParameter, p.Width, p.Height, g.Width, g.Height)
		}
		floats.Add(out.Phase, p.Phase)
	}
	for i, v := range out.Phase {
		out.Phase[i] = Wrap(v)
	}
	return out, nil
}

// Product multiplies patterns pointwise after normalizing each to [0, 1],
// then rescales to [0, Tau).  Useful for masking one pattern with another.
func Product(ps ...*Pattern) (*Pattern, error) {
	if len(ps) == 0 {
		return nil, fmt.Errorf("%w: product of zero patterns", ErrInvalidParameter)
	}
	g := Grid{Width: ps[0].Width, Height: ps[0].Height}
	out := blank(g)
	for i := range out.Phase {
		out.Phase[i] = 1
	}
	for _, p := range ps {
		if p.Width != g.Width || p.Height != g.Height {
			return nil, fmt.Errorf("%w: product grid mismatch %dx%d vs %dx%d",
				ErrInvalidParameter, p.Width, p.Height, g.Width, g.Height)
		}
		for i, v := range p.Phase {
			out.Phase[i] *= v / Tau
		}
	}
	for i, v := range out.Phase {
		out.Phase[i] = Wrap(v * Tau)
	}
	return out, nil
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
