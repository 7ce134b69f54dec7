/*Package spectro talks to the fiber spectrometer used as the measurement
arm of calibration sweeps.  The instrument speaks a line-oriented ASCII
protocol over RS232 or a terminal server port:

	*IDN?           -> identification string
	READ?           -> integrated intensity at the monitor wavelength
	SPEC?           -> full spectrum, comma separated counts
	WAVE <nm>       -> set the monitor wavelength
	WAVE?           -> query the monitor wavelength
	ITIME <usec>    -> set the integration time

Replies are carriage return terminated.
*/
package spectro

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/opticslab/goslm/comm"
)

// Spectrometer has a meter at a fixed wavelength.  It satisfies the
// calibration sweep's Meter interface through Measure.
type Spectrometer struct {
	*comm.RemoteDevice
}

// NewSpectrometer returns a new Spectrometer.  serial toggles between a
// serial port name and a host:port TCP address.
func NewSpectrometer(addr string, serial bool) *Spectrometer {
	return &Spectrometer{RemoteDevice: comm.NewRemoteDevice(addr, serial, 115200)}
}

// queryFloat sends a command and parses the reply as a float.
func (s *Spectrometer) queryFloat(cmd string) (float64, error) {
	resp, err := s.SendRecv([]byte(cmd))
	if err != nil {
		return 0, err
	}
	str := strings.TrimSpace(string(resp))
	f, err := strconv.ParseFloat(str, 64)
	if err != nil {
		return 0, fmt.Errorf("spectro: reply to %q was %q, not a number", cmd, str)
	}
	return f, nil
}

// ID returns the identification string of the instrument.
func (s *Spectrometer) ID() (string, error) {
	resp, err := s.SendRecv([]byte("*IDN?"))
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(resp)), nil
}

// Measure reads the integrated intensity at the monitor wavelength.
func (s *Spectrometer) Measure() (float64, error) {
	return s.queryFloat("READ?")
}

// Spectrum reads the full detector spectrum as raw counts per pixel.
func (s *Spectrometer) Spectrum() ([]float64, error) {
	resp, err := s.SendRecv([]byte("SPEC?"))
	if err != nil {
		return nil, err
	}
	fields := strings.Split(strings.TrimSpace(string(resp)), ",")
	out := make([]float64, len(fields))
	for i, f := range fields {
		v, err := strconv.ParseFloat(strings.TrimSpace(f), 64)
		if err != nil {
			return nil, fmt.Errorf("spectro: bad spectrum value %q at pixel %d", f, i)
		}
		out[i] = v
	}
	return out, nil
}

// SetMonitorWavelength sets the wavelength, in nanometers, the meter
// integrates around.
func (s *Spectrometer) SetMonitorWavelength(nm float64) error {
	_, err := s.SendRecv([]byte(fmt.Sprintf("WAVE %g", nm)))
	return err
}

// MonitorWavelength returns the monitor wavelength in nanometers.
func (s *Spectrometer) MonitorWavelength() (float64, error) {
	return s.queryFloat("WAVE?")
}

// SetIntegrationTime sets the detector integration time in microseconds.
func (s *Spectrometer) SetIntegrationTime(usec int) error {
	_, err := s.SendRecv([]byte(fmt.Sprintf("ITIME %d", usec)))
	return err
}
