package slm

/*
#cgo CFLAGS: -I"C:/Program Files/Santec/SLM-200/include"
#cgo LDFLAGS: -L"C:/Program Files/Santec/SLM-200/lib" -lSLMFunc
#include <stdlib.h>
#include <SLMFunc.h>
*/
import "C"

import (
	"context"
	"sync"
	"time"

	wchar "github.com/lordadamson/cgo.wchar"
	"golang.org/x/time/rate"
)

// Hardware drives a physical SLM-200 through the vendor DLL.  The zero
// value is not usable; get one from NewHardware.
type Hardware struct {
	// DisplayNumber is the windows display the panel enumerates as (1..).
	DisplayNumber int

	// SLMNumber is the USB control channel index (1-8).
	SLMNumber int

	// SendTimeout bounds how long SendFrame waits for the panel to leave
	// the busy state.  No retry is performed on expiry.
	SendTimeout time.Duration

	mu      sync.Mutex
	limiter *rate.Limiter
	width   int
	height  int
	open    bool
}

// NewHardware returns a handle for the given display and control indices.
// Open must be called before anything else.
func NewHardware(display, slmNumber int) *Hardware {
	return &Hardware{
		DisplayNumber: display,
		SLMNumber:     slmNumber,
		SendTimeout:   5 * time.Second,
		limiter:       rate.NewLimiter(rate.Limit(RefreshHz), 1),
	}
}

// Open connects the display and USB control interfaces and caches the
// panel dimensions.
func (h *Hardware) Open() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if err := statusToErr(int(C.SLM_Disp_Open(C.uint32_t(h.DisplayNumber)))); err != nil {
		return err
	}
	if err := statusToErr(int(C.SLM_Ctrl_Open(C.uint32_t(h.SLMNumber)))); err != nil {
		C.SLM_Disp_Close(C.uint32_t(h.DisplayNumber))
		return err
	}
	var w, hh C.uint16_t
	err := statusToErr(int(C.SLM_Disp_Info(C.uint32_t(h.DisplayNumber), &w, &hh)))
	if err != nil {
		C.SLM_Ctrl_Close(C.uint32_t(h.SLMNumber))
		C.SLM_Disp_Close(C.uint32_t(h.DisplayNumber))
		return err
	}
	h.width = int(w)
	h.height = int(hh)
	h.open = true
	return nil
}

// Dimensions reports the panel size in pixels.
func (h *Hardware) Dimensions() (int, int, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if !h.open {
		return 0, 0, ErrDeviceNotFound
	}
	return h.width, h.height, nil
}

// waitReady polls the control interface until the panel reports ready or
// the deadline passes.
func (h *Hardware) waitReady(deadline time.Time) error {
	for {
		err := statusToErr(int(C.SLM_Ctrl_ReadSU(C.uint32_t(h.SLMNumber))))
		if err == nil {
			return nil
		}
		if s, ok := err.(Status); !ok || s.Code != codeBusy {
			return err
		}
		if time.Now().After(deadline) {
			return statusToErr(codeFTTimeout)
		}
		time.Sleep(5 * time.Millisecond)
	}
}

// SendFrame pushes a frame to the panel.  The call blocks until the device
// acknowledges; if it stays busy past SendTimeout, ErrDeviceTimeout is
// returned and the frame state on the panel is undefined.
func (h *Hardware) SendFrame(f Frame) error {
	if err := f.Validate(); err != nil {
		return err
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	if !h.open {
		return ErrDeviceNotFound
	}
	if f.Width != h.width || f.Height != h.height {
		return ErrInvalidFrame
	}
	// the panel ignores pushes faster than its refresh
	h.limiter.Wait(context.Background())
	deadline := time.Now().Add(h.SendTimeout)
	if err := h.waitReady(deadline); err != nil {
		return err
	}
	err := statusToErr(int(C.SLM_Disp_Data(
		C.uint32_t(h.DisplayNumber),
		C.uint16_t(f.Width), C.uint16_t(f.Height),
		C.uint32_t(FlagColorGray),
		(*C.uint16_t)(&f.Grey[0]))))
	if err != nil {
		return err
	}
	return h.waitReady(deadline)
}

// SetUniform floods the whole panel with a single grey level without
// building a frame buffer.
func (h *Hardware) SetUniform(grey uint16) error {
	if grey > MaxGrey {
		return ErrInvalidFrame
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	if !h.open {
		return ErrDeviceNotFound
	}
	h.limiter.Wait(context.Background())
	return statusToErr(int(C.SLM_Disp_GrayScale(
		C.uint32_t(h.DisplayNumber), C.uint32_t(FlagColorGray), C.uint16_t(grey))))
}

// DisplayFile shows a BMP or CSV file through the vendor's own loader.
// The vendor API takes these names as wide strings.
func (h *Hardware) DisplayFile(path string, csv bool) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if !h.open {
		return ErrDeviceNotFound
	}
	ws, err := wchar.FromGoString(path)
	if err != nil {
		return err
	}
	ptr := (*C.wchar_t)(ws.Pointer())
	if csv {
		return statusToErr(int(C.SLM_Disp_ReadCSV(C.uint32_t(h.DisplayNumber), C.uint32_t(FlagColorGray), ptr)))
	}
	return statusToErr(int(C.SLM_Disp_ReadBMP(C.uint32_t(h.DisplayNumber), C.uint32_t(FlagColorGray), ptr)))
}

// SetWavelength reprograms the panel's target wavelength (nm) and maximum
// phase in hundredths of pi (200 == 2.00pi).  persist writes the setting
// to nonvolatile memory.  The hardware takes 30-40 seconds to apply this.
func (h *Hardware) SetWavelength(nm, phaseHundredths int, persist bool) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if !h.open {
		return ErrDeviceNotFound
	}
	err := statusToErr(int(C.SLM_Ctrl_WriteWL(
		C.uint32_t(h.SLMNumber), C.uint32_t(nm), C.uint32_t(phaseHundredths))))
	if err != nil {
		return err
	}
	if persist {
		return statusToErr(int(C.SLM_Ctrl_WriteAW(C.uint32_t(h.SLMNumber))))
	}
	return nil
}

// Wavelength reads back the programmed wavelength and maximum phase.
func (h *Hardware) Wavelength() (int, int, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if !h.open {
		return 0, 0, ErrDeviceNotFound
	}
	var nm, phase C.uint32_t
	err := statusToErr(int(C.SLM_Ctrl_ReadWL(C.uint32_t(h.SLMNumber), &nm, &phase)))
	return int(nm), int(phase), err
}

// Close releases both interfaces.  Errors from the display close are
// reported; the control channel is closed regardless.
func (h *Hardware) Close() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if !h.open {
		return nil
	}
	h.open = false
	C.SLM_Ctrl_Close(C.uint32_t(h.SLMNumber))
	return statusToErr(int(C.SLM_Disp_Close(C.uint32_t(h.DisplayNumber))))
}
