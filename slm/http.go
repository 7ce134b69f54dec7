package slm

import (
	"encoding/json"
	"net/http"

	"github.com/opticslab/goslm/server"
)

// UniformSetter is satisfied by controllers that can flood the panel with
// a single grey level without a full frame upload.
type UniformSetter interface {
	SetUniform(grey uint16) error
}

// HTTPWrapper wraps a Controller in an HTTP control interface.
type HTTPWrapper struct {
	Ctl Controller

	RouteTable server.RouteTable
}

// jsonFrame decodes frame uploads.  JSON is an inefficient encoding for
// a megapixel buffer but offers simplicity when speed is not paramount.
type jsonFrame struct {
	Width  int      `json:"width"`
	Height int      `json:"height"`
	Grey   []uint16 `json:"grey"`
}

type jsonDims struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

type jsonWavelength struct {
	Nm      int  `json:"nm"`
	Phase   int  `json:"phase"`
	Persist bool `json:"persist"`
}

// NewHTTPWrapper builds the route table for a controller.  Routes that
// need optional capabilities (uniform fill, wavelength programming) are
// only present when the controller provides them.
func NewHTTPWrapper(ctl Controller) HTTPWrapper {
	h := HTTPWrapper{Ctl: ctl}
	rt := server.RouteTable{
		{Method: http.MethodGet, Path: "/info"}:   h.Info,
		{Method: http.MethodPost, Path: "/frame"}: h.Frame,
		{Method: http.MethodPost, Path: "/zero"}:  h.Zero,
	}
	if _, ok := ctl.(UniformSetter); ok {
		rt[server.MethodPath{Method: http.MethodPost, Path: "/grayscale"}] = h.Grayscale
	}
	if _, ok := ctl.(WavelengthSetter); ok {
		rt[server.MethodPath{Method: http.MethodGet, Path: "/wavelength"}] = h.GetWavelength
		rt[server.MethodPath{Method: http.MethodPost, Path: "/wavelength"}] = h.SetWavelength
	}
	h.RouteTable = rt
	return h
}

// RT satisfies server.HTTPer
func (h HTTPWrapper) RT() server.RouteTable {
	return h.RouteTable
}

// Info returns the panel dimensions as JSON
func (h HTTPWrapper) Info(w http.ResponseWriter, r *http.Request) {
	width, height, err := h.Ctl.Dimensions()
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	server.EncodeJSON(w, jsonDims{Width: width, Height: height})
}

// Frame uploads a full grey-level frame to the panel
func (h HTTPWrapper) Frame(w http.ResponseWriter, r *http.Request) {
	jf := jsonFrame{}
	err := json.NewDecoder(r.Body).Decode(&jf)
	defer r.Body.Close()
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	f := Frame{Width: jf.Width, Height: jf.Height, Grey: jf.Grey}
	if err := h.Ctl.SendFrame(f); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusOK)
}

// Zero floods the panel with grey level zero, a safe idle condition
func (h HTTPWrapper) Zero(w http.ResponseWriter, r *http.Request) {
	var err error
	if us, ok := h.Ctl.(UniformSetter); ok {
		err = us.SetUniform(0)
	} else {
		width, height, derr := h.Ctl.Dimensions()
		if derr != nil {
			http.Error(w, derr.Error(), http.StatusInternalServerError)
			return
		}
		err = h.Ctl.SendFrame(NewFrame(width, height))
	}
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusOK)
}

// Grayscale floods the panel with a single grey level, JSON {'int': value}
func (h HTTPWrapper) Grayscale(w http.ResponseWriter, r *http.Request) {
	server.SetInt(func(i int) error {
		if i < 0 || i > MaxGrey {
			return ErrInvalidFrame
		}
		return h.Ctl.(UniformSetter).SetUniform(uint16(i))
	})(w, r)
}

// GetWavelength returns the programmed wavelength and maximum phase
func (h HTTPWrapper) GetWavelength(w http.ResponseWriter, r *http.Request) {
	nm, phase, err := h.Ctl.(WavelengthSetter).Wavelength()
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	server.EncodeJSON(w, jsonWavelength{Nm: nm, Phase: phase})
}

// SetWavelength reprograms the wavelength and maximum phase.  This is a
// slow operation on real hardware.
func (h HTTPWrapper) SetWavelength(w http.ResponseWriter, r *http.Request) {
	jw := jsonWavelength{}
	err := json.NewDecoder(r.Body).Decode(&jw)
	defer r.Body.Close()
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if err := h.Ctl.(WavelengthSetter).SetWavelength(jw.Nm, jw.Phase, jw.Persist); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusOK)
}
