/*Package slm provides control of Santec SLM-200 spatial light modulators.

The device has two faces: a display interface that receives grey-level
frames, and a USB control interface for persistent settings (target
wavelength and maximum phase).  Both are reached through the vendor's
SLMFunc DLL; the cgo binding lives in hardware_windows.go and is only
compiled on windows.  Sim provides an in-memory stand-in with the same
behavior for tests and mock servers.

Grey levels are 10-bit: 0 maps to zero phase and 1023 to the configured
maximum phase (2pi at the calibrated wavelength).
*/
package slm

import "fmt"

// MaxGrey is the largest drive value the panel accepts (10-bit DAC).
const MaxGrey = 1023

// RefreshHz is the panel refresh rate.  Pushing frames faster than this
// accomplishes nothing and is blocked by the hardware rate limiter.
const RefreshHz = 120

// display flags from the vendor API
const (
	FlagColorGray  = 0x00000008
	FlagColor10Bit = 0x00000100
	FlagRate120    = 0x20000000
)

// A Frame is a grey-level buffer ready to be pushed to the panel.
// Data is row-major, len == Width*Height, each value in [0, MaxGrey].
type Frame struct {
	Width  int
	Height int
	Grey   []uint16
}

// NewFrame allocates a zeroed frame of the given dimensions.
func NewFrame(width, height int) Frame {
	return Frame{Width: width, Height: height, Grey: make([]uint16, width*height)}
}

// Validate checks the frame's internal consistency and value range.
func (f Frame) Validate() error {
	if f.Width <= 0 || f.Height <= 0 {
		return fmt.Errorf("%w: frame dimensions %dx%d", ErrInvalidFrame, f.Width, f.Height)
	}
	if len(f.Grey) != f.Width*f.Height {
		return fmt.Errorf("%w: buffer holds %d values, want %d", ErrInvalidFrame, len(f.Grey), f.Width*f.Height)
	}
	for i, g := range f.Grey {
		if g > MaxGrey {
			return fmt.Errorf("%w: value %d at index %d exceeds %d", ErrInvalidFrame, g, i, MaxGrey)
		}
	}
	return nil
}

// A Controller is the capability surface the numeric core needs from an
// SLM.  Hardware satisfies it against the vendor DLL; Sim satisfies it in
// memory.  Implementations are safe for use from multiple goroutines.
type Controller interface {
	// Open establishes the connection to the display and control
	// interfaces.  ErrDeviceNotFound if the device is absent.
	Open() error

	// Dimensions reports the panel size in pixels.
	Dimensions() (width, height int, err error)

	// SendFrame pushes a frame to the panel and blocks until the device
	// acknowledges or the deadline passes (ErrDeviceTimeout).  No retry.
	SendFrame(f Frame) error

	// Close releases the device.  Safe to call more than once.
	Close() error
}

// WavelengthSetter is satisfied by controllers that can reprogram the
// panel's target wavelength (nm) and maximum phase (units of 0.01 pi).
// The hardware takes tens of seconds to apply this.
type WavelengthSetter interface {
	SetWavelength(nm, phaseHundredths int, persist bool) error
	Wavelength() (nm, phaseHundredths int, err error)
}
