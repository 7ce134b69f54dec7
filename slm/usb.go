package slm

import (
	"fmt"

	"github.com/google/gousb"
)

// The SLM-200 control channel enumerates as an FTDI FT232H bridge.
const (
	ftdiVID   = 0x0403
	ft232hPID = 0x6014
)

// DetectUSB probes the USB bus for the device's FTDI control interface and
// returns its serial number.  ErrDeviceNotFound when no bridge is present;
// useful to fail fast before Open spends time in the vendor DLL.
func DetectUSB() (string, error) {
	ctx := gousb.NewContext()
	defer ctx.Close()
	dev, err := ctx.OpenDeviceWithVIDPID(gousb.ID(ftdiVID), gousb.ID(ft232hPID))
	if err != nil {
		return "", fmt.Errorf("%w: usb probe: %v", ErrDeviceNotFound, err)
	}
	if dev == nil {
		return "", fmt.Errorf("%w: no FTDI bridge on the bus", ErrDeviceNotFound)
	}
	defer dev.Close()
	sn, err := dev.SerialNumber()
	if err != nil {
		// present but not identifiable; still a detection
		return "", nil
	}
	return sn, nil
}
