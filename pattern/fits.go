package pattern

import (
	"io"

	"github.com/astrogo/fitsio"
)

// WriteFits streams a pattern to w as a 64-bit float FITS image, the
// interchange format the rest of the lab tooling reads.  Phase values are
// written as-is, in radians.
func WriteFits(w io.Writer, p *Pattern, metadata []fitsio.Card) error {
	fits, err := fitsio.Create(w)
	if err != nil {
		return err
	}
	defer fits.Close()
	im := fitsio.NewImage(-64, []int{p.Width, p.Height})
	defer im.Close()
	metadata = append(metadata, fitsio.Card{Name: "BUNIT", Value: "rad", Comment: "phase, wrapped to [0, 2pi)"})
	err = im.Header().Append(metadata...)
	if err != nil {
		return err
	}
	err = im.Write(p.Phase)
	if err != nil {
		return err
	}
	return fits.Write(im)
}
