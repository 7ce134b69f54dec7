package slm_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi"

	"github.com/opticslab/goslm/server"
	"github.com/opticslab/goslm/slm"
)

func newTestServer(t *testing.T) (*slm.Sim, *httptest.Server) {
	t.Helper()
	sim := slm.NewSim(4, 2)
	if err := sim.Open(); err != nil {
		t.Fatal(err)
	}
	r := chi.NewRouter()
	server.Bind(r, slm.NewHTTPWrapper(sim))
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return sim, srv
}

func TestHTTPInfo(t *testing.T) {
	_, srv := newTestServer(t)
	resp, err := http.Get(srv.URL + "/info")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	var dims struct {
		Width  int `json:"width"`
		Height int `json:"height"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&dims); err != nil {
		t.Fatal(err)
	}
	if dims.Width != 4 || dims.Height != 2 {
		t.Errorf("expected 4x2, got %dx%d", dims.Width, dims.Height)
	}
}

func TestHTTPFrameUpload(t *testing.T) {
	sim, srv := newTestServer(t)
	body, _ := json.Marshal(map[string]interface{}{
		"width":  4,
		"height": 2,
		"grey":   []uint16{0, 1, 2, 3, 4, 5, 6, 7},
	})
	resp, err := http.Post(srv.URL+"/frame", "application/json", bytes.NewReader(body))
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	f, ok := sim.LastFrame()
	if !ok || f.Grey[7] != 7 {
		t.Errorf("frame did not reach the controller: %v %v", ok, f.Grey)
	}
}

func TestHTTPFrameRejectsBadDimensions(t *testing.T) {
	_, srv := newTestServer(t)
	body, _ := json.Marshal(map[string]interface{}{
		"width":  9,
		"height": 9,
		"grey":   []uint16{0},
	})
	resp, err := http.Post(srv.URL+"/frame", "application/json", bytes.NewReader(body))
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode == http.StatusOK {
		t.Error("expected an error status for a malformed frame")
	}
}

func TestHTTPGrayscaleAndZero(t *testing.T) {
	sim, srv := newTestServer(t)
	body, _ := json.Marshal(server.IntT{Int: 700})
	resp, err := http.Post(srv.URL+"/grayscale", "application/json", bytes.NewReader(body))
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	f, _ := sim.LastFrame()
	if f.Grey[0] != 700 {
		t.Errorf("expected uniform 700, got %d", f.Grey[0])
	}

	resp, err = http.Post(srv.URL+"/zero", "application/json", nil)
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	f, _ = sim.LastFrame()
	if f.Grey[0] != 0 {
		t.Errorf("expected zeroed panel, got %d", f.Grey[0])
	}
}

func TestHTTPGrayscaleRejectsOutOfRange(t *testing.T) {
	_, srv := newTestServer(t)
	body, _ := json.Marshal(server.IntT{Int: 2000})
	resp, err := http.Post(srv.URL+"/grayscale", "application/json", bytes.NewReader(body))
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode == http.StatusOK {
		t.Error("expected an error status for grey > 1023")
	}
}

func TestHTTPWavelength(t *testing.T) {
	_, srv := newTestServer(t)
	body, _ := json.Marshal(map[string]interface{}{"nm": 785, "phase": 220})
	resp, err := http.Post(srv.URL+"/wavelength", "application/json", bytes.NewReader(body))
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	resp, err = http.Get(srv.URL + "/wavelength")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	var wl struct {
		Nm    int `json:"nm"`
		Phase int `json:"phase"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&wl); err != nil {
		t.Fatal(err)
	}
	if wl.Nm != 785 || wl.Phase != 220 {
		t.Errorf("expected 785/220, got %d/%d", wl.Nm, wl.Phase)
	}
}

func TestHTTPListOfRoutes(t *testing.T) {
	_, srv := newTestServer(t)
	resp, err := http.Get(srv.URL + "/list-of-routes")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	var routes []string
	if err := json.NewDecoder(resp.Body).Decode(&routes); err != nil {
		t.Fatal(err)
	}
	if len(routes) == 0 {
		t.Error("expected a non-empty route list")
	}
}
