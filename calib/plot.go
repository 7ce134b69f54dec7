package calib

import (
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
)

// SavePlot renders the measured sweep and its monotone fit to an image
// file (format from the extension: .svg, .png, .pdf).  greys and measured
// are the converted (grey, phase) samples; fitted is the isotonic curve
// over the same grey levels.  A quick visual check that a calibration is
// sane before it goes into service.
func SavePlot(greys, measured, fitted []float64, path string) error {
	p := plot.New()
	p.Title.Text = "SLM phase response"
	p.X.Label.Text = "grey level"
	p.Y.Label.Text = "phase (rad)"

	pts := make(plotter.XYs, len(greys))
	for i := range greys {
		pts[i] = plotter.XY{X: greys[i], Y: measured[i]}
	}
	scatter, err := plotter.NewScatter(pts)
	if err != nil {
		return err
	}
	scatter.GlyphStyle.Radius = vg.Points(1.5)
	p.Add(scatter)
	p.Legend.Add("measured", scatter)

	fitPts := make(plotter.XYs, len(greys))
	for i := range greys {
		fitPts[i] = plotter.XY{X: greys[i], Y: fitted[i]}
	}
	line, err := plotter.NewLine(fitPts)
	if err != nil {
		return err
	}
	p.Add(line)
	p.Legend.Add("monotone fit", line)

	return p.Save(6*vg.Inch, 4*vg.Inch, path)
}
