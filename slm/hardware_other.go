//go:build !windows

package slm

import (
	"fmt"
	"time"
)

// The vendor runtime only ships for windows.  This stub keeps the rest of
// the module compiling elsewhere; use Sim for development off the bench.

// Hardware drives a physical SLM-200 through the vendor DLL.  On this
// platform every operation fails; the runtime is windows only.
type Hardware struct {
	DisplayNumber int
	SLMNumber     int
	SendTimeout   time.Duration
}

var errNoRuntime = fmt.Errorf("%w: vendor runtime is windows only", ErrDeviceNotFound)

// NewHardware returns a handle for the given display and control indices.
func NewHardware(display, slmNumber int) *Hardware {
	return &Hardware{DisplayNumber: display, SLMNumber: slmNumber, SendTimeout: 5 * time.Second}
}

// Open always fails on this platform.
func (h *Hardware) Open() error { return errNoRuntime }

// Dimensions always fails on this platform.
func (h *Hardware) Dimensions() (int, int, error) { return 0, 0, errNoRuntime }

// SendFrame always fails on this platform.
func (h *Hardware) SendFrame(f Frame) error { return errNoRuntime }

// SetUniform always fails on this platform.
func (h *Hardware) SetUniform(grey uint16) error { return errNoRuntime }

// DisplayFile always fails on this platform.
func (h *Hardware) DisplayFile(path string, csv bool) error { return errNoRuntime }

// SetWavelength always fails on this platform.
func (h *Hardware) SetWavelength(nm, phaseHundredths int, persist bool) error {
	return errNoRuntime
}

// Wavelength always fails on this platform.
func (h *Hardware) Wavelength() (int, int, error) { return 0, 0, errNoRuntime }

// Close always succeeds on this platform.
func (h *Hardware) Close() error { return nil }
