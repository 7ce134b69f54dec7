package spectro

import (
	"net/http"

	"github.com/opticslab/goslm/server"
)

// HTTPWrapper exposes a Spectrometer over HTTP.
type HTTPWrapper struct {
	S *Spectrometer

	RouteTable server.RouteTable
}

// NewHTTPWrapper returns an HTTP wrapper around a Spectrometer with the
// route table populated.
func NewHTTPWrapper(s *Spectrometer) HTTPWrapper {
	w := HTTPWrapper{S: s}
	w.RouteTable = server.RouteTable{
		{Method: http.MethodGet, Path: "/id"}:                server.GetString(s.ID),
		{Method: http.MethodGet, Path: "/meas"}:              server.GetFloat(s.Measure),
		{Method: http.MethodGet, Path: "/spectrum"}:          w.Spectrum,
		{Method: http.MethodGet, Path: "/wavelength"}:        server.GetFloat(s.MonitorWavelength),
		{Method: http.MethodPost, Path: "/wavelength"}:       server.SetFloat(s.SetMonitorWavelength),
		{Method: http.MethodPost, Path: "/integration-time"}: server.SetInt(s.SetIntegrationTime),
	}
	return w
}

// RT satisfies server.HTTPer
func (h HTTPWrapper) RT() server.RouteTable {
	return h.RouteTable
}

// Spectrum serves the full detector spectrum as a JSON array.
func (h HTTPWrapper) Spectrum(w http.ResponseWriter, r *http.Request) {
	spec, err := h.S.Spectrum()
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	server.EncodeJSON(w, spec)
}
