package slm

import "sync"

// Sim is an in-memory Controller used in tests and by mock servers.  It
// mimics the hardware's checks (dimension match, grey range, open state)
// and can inject boundary errors.
type Sim struct {
	// FailOpen, FailSend and FailClose, when non-nil, are returned by the
	// corresponding call instead of performing it.
	FailOpen  error
	FailSend  error
	FailClose error

	mu     sync.Mutex
	width  int
	height int
	open   bool
	frame  Frame
	sends  int

	wavelengthNM    int
	phaseHundredths int
	persisted       bool
}

// NewSim returns a simulated panel of the given size.  1920x1200 is the
// real SLM-200 grid.
func NewSim(width, height int) *Sim {
	return &Sim{width: width, height: height, wavelengthNM: 635, phaseHundredths: 200}
}

// Open marks the simulated device open.
func (s *Sim) Open() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.FailOpen != nil {
		return s.FailOpen
	}
	s.open = true
	return nil
}

// Dimensions reports the simulated panel size.
func (s *Sim) Dimensions() (int, int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.open {
		return 0, 0, ErrDeviceNotFound
	}
	return s.width, s.height, nil
}

// SendFrame validates and stores the frame as the panel contents.
func (s *Sim) SendFrame(f Frame) error {
	if err := f.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.open {
		return ErrDeviceNotFound
	}
	if s.FailSend != nil {
		return s.FailSend
	}
	if f.Width != s.width || f.Height != s.height {
		return ErrInvalidFrame
	}
	buf := make([]uint16, len(f.Grey))
	copy(buf, f.Grey)
	s.frame = Frame{Width: f.Width, Height: f.Height, Grey: buf}
	s.sends++
	return nil
}

// SetUniform floods the simulated panel with one grey level.
func (s *Sim) SetUniform(grey uint16) error {
	if grey > MaxGrey {
		return ErrInvalidFrame
	}
	s.mu.Lock()
	w, h := s.width, s.height
	s.mu.Unlock()
	f := NewFrame(w, h)
	for i := range f.Grey {
		f.Grey[i] = grey
	}
	return s.SendFrame(f)
}

// LastFrame returns a copy of the most recently sent frame and whether one
// has been sent at all.
func (s *Sim) LastFrame() (Frame, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.sends == 0 {
		return Frame{}, false
	}
	buf := make([]uint16, len(s.frame.Grey))
	copy(buf, s.frame.Grey)
	return Frame{Width: s.frame.Width, Height: s.frame.Height, Grey: buf}, true
}

// Sends reports how many frames have been accepted.
func (s *Sim) Sends() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sends
}

// SetWavelength records the wavelength/phase setting.
func (s *Sim) SetWavelength(nm, phaseHundredths int, persist bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.open {
		return ErrDeviceNotFound
	}
	s.wavelengthNM = nm
	s.phaseHundredths = phaseHundredths
	s.persisted = persist
	return nil
}

// Wavelength reads back the recorded wavelength/phase setting.
func (s *Sim) Wavelength() (int, int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.open {
		return 0, 0, ErrDeviceNotFound
	}
	return s.wavelengthNM, s.phaseHundredths, nil
}

// Close marks the simulated device closed.
func (s *Sim) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.FailClose != nil {
		return s.FailClose
	}
	s.open = false
	return nil
}
