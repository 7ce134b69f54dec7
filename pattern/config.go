package pattern

import (
	"fmt"
	"strings"
)

// Config is the serializable description of a pattern, the form accepted
// over HTTP and in YAML files.  Fields are interpreted per Kind; unused
// fields are ignored.
type Config struct {
	// Kind is one of uniform, grating, binary, lens, slit, doubleslit,
	// pinhole, composite, product (case-insensitive).
	Kind string `json:"kind" yaml:"Kind"`

	GridWidth  int `json:"grid_width" yaml:"GridWidth"`
	GridHeight int `json:"grid_height" yaml:"GridHeight"`

	// Phase is the uniform fill value, or the slit/pinhole open phase.
	Phase float64 `json:"phase,omitempty" yaml:"Phase,omitempty"`

	// grating parameters
	Period      float64 `json:"period,omitempty" yaml:"Period,omitempty"`
	Orientation float64 `json:"orientation,omitempty" yaml:"Orientation,omitempty"`
	Duty        float64 `json:"duty,omitempty" yaml:"Duty,omitempty"`
	Contrast    float64 `json:"contrast,omitempty" yaml:"Contrast,omitempty"`
	Horizontal  bool    `json:"horizontal,omitempty" yaml:"Horizontal,omitempty"`

	// lens parameters, meters
	Wavelength  float64 `json:"wavelength,omitempty" yaml:"Wavelength,omitempty"`
	FocalLength float64 `json:"focal_length,omitempty" yaml:"FocalLength,omitempty"`
	CenterX     float64 `json:"center_x,omitempty" yaml:"CenterX,omitempty"`
	CenterY     float64 `json:"center_y,omitempty" yaml:"CenterY,omitempty"`

	// slit and pinhole parameters, pixels
	Vertical   bool    `json:"vertical,omitempty" yaml:"Vertical,omitempty"`
	Width      float64 `json:"width,omitempty" yaml:"Width,omitempty"`
	Offset     float64 `json:"offset,omitempty" yaml:"Offset,omitempty"`
	Separation float64 `json:"separation,omitempty" yaml:"Separation,omitempty"`
	Radius     float64 `json:"radius,omitempty" yaml:"Radius,omitempty"`
	WallPhase  float64 `json:"wall_phase,omitempty" yaml:"WallPhase,omitempty"`

	// Parts are the constituents of a composite or product pattern; each
	// part inherits the outer grid if its own is zero.
	Parts []Config `json:"parts,omitempty" yaml:"Parts,omitempty"`
}

// FromConfig dispatches a Config to the matching constructor.
func FromConfig(c Config) (*Pattern, error) {
	g := Grid{Width: c.GridWidth, Height: c.GridHeight}
	switch strings.ToLower(c.Kind) {
	case "uniform":
		return Uniform(g, c.Phase)
	case "grating", "blazed":
		return Blazed(g, c.Period, c.Orientation)
	case "binary":
		return Binary(g, int(c.Period), c.Duty, c.Contrast, c.Horizontal)
	case "lens":
		return Lens(g, c.Wavelength, c.FocalLength, c.CenterX, c.CenterY)
	case "slit":
		return Slit(g, c.Vertical, c.Width, c.Offset, c.Phase, c.WallPhase)
	case "doubleslit":
		return DoubleSlit(g, c.Vertical, c.Width, c.Offset, c.Separation, c.Phase, c.WallPhase)
	case "pinhole":
		return Pinhole(g, c.Radius, c.CenterX, c.CenterY, c.Phase, c.WallPhase)
	case "composite", "product":
		if len(c.Parts) == 0 {
			return nil, fmt.Errorf("%w: %s with no parts", ErrInvalidParameter, c.Kind)
		}
		parts := make([]*Pattern, len(c.Parts))
		for i, pc := range c.Parts {
			if pc.GridWidth == 0 && pc.GridHeight == 0 {
				pc.GridWidth, pc.GridHeight = c.GridWidth, c.GridHeight
			}
			p, err := FromConfig(pc)
			if err != nil {
				return nil, err
			}
			parts[i] = p
		}
		if strings.ToLower(c.Kind) == "product" {
			return Product(parts...)
		}
		return Composite(parts...)
	default:
		return nil, fmt.Errorf("%w: unknown pattern kind %q", ErrInvalidParameter, c.Kind)
	}
}
