package main

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"os"

	"github.com/astrogo/fitsio"
	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"

	"github.com/opticslab/goslm/calib"
	"github.com/opticslab/goslm/pattern"
	"github.com/opticslab/goslm/server"
	"github.com/opticslab/goslm/slm"
	"github.com/opticslab/goslm/spectro"
)

// SLMSetup holds the constructor arguments for the panel.
type SLMSetup struct {
	// DisplayNumber is the display index the panel enumerates as (1..).
	DisplayNumber int `yaml:"DisplayNumber"`

	// SLMNumber is the USB control channel index (1-8).
	SLMNumber int `yaml:"SLMNumber"`

	// Endpoint is the URL stem the panel routes are served under.
	Endpoint string `yaml:"Endpoint"`
}

// SpectroSetup holds the constructor arguments for the spectrometer.
// An empty Addr disables it.
type SpectroSetup struct {
	// Addr is the network or filesystem address of the instrument,
	// e.g. 192.168.100.123:2006 for a terminal server port, or
	// /dev/ttyUSB0 for a serial cable.
	Addr string `yaml:"Addr"`

	// Serial determines if the connection is serial/RS232 (true) or TCP
	Serial bool `yaml:"Serial"`

	Endpoint string `yaml:"Endpoint"`
}

// Config holds the initialization parameters for the server.
type Config struct {
	// Addr is the address to listen at
	Addr string `yaml:"Addr"`

	// Mock swaps the panel for an in-memory simulator
	Mock bool `yaml:"Mock"`

	// LUTFile, if nonempty, is a persisted calibration loaded at startup
	LUTFile string `yaml:"LUTFile"`

	SLM SLMSetup `yaml:"SLM"`

	Spectrometer SpectroSetup `yaml:"Spectrometer"`
}

// displayRequest is the JSON body for the pattern display endpoint.
type displayRequest struct {
	Pattern pattern.Config `json:"pattern"`
}

// BuildMux assembles the HTTP surface: the panel and calibration routes,
// the spectrometer if configured, and the pattern display endpoint that
// ties them together.  The returned Controller is open.
func BuildMux(c Config) (chi.Router, slm.Controller, error) {
	var ctl slm.Controller
	if c.Mock {
		ctl = slm.NewSim(1920, 1200)
	} else {
		ctl = slm.NewHardware(c.SLM.DisplayNumber, c.SLM.SLMNumber)
	}
	if err := ctl.Open(); err != nil {
		return nil, nil, err
	}

	store := &calib.Store{}
	if c.LUTFile != "" {
		f, err := os.Open(c.LUTFile)
		if err != nil {
			ctl.Close()
			return nil, nil, err
		}
		t, err := calib.Load(f)
		f.Close()
		if err != nil {
			ctl.Close()
			return nil, nil, err
		}
		store.Replace(t)
		log.Printf("loaded calibration from %s (%d entries, %g nm)", c.LUTFile, t.Resolution(), t.WavelengthNM)
	}

	root := chi.NewRouter()
	root.Use(middleware.Logger)
	supergraph := map[string][]string{}

	mount := func(stem string, h server.HTTPer) {
		stem = sanitizeStem(stem)
		supergraph[stem] = h.RT().Endpoints()
		r := chi.NewRouter()
		server.Bind(r, h)
		root.Mount(stem, r)
	}

	mount(c.SLM.Endpoint, slm.NewHTTPWrapper(ctl))
	mount("calib", calib.NewHTTPWrapper(store))
	if c.Spectrometer.Addr != "" {
		s := spectro.NewSpectrometer(c.Spectrometer.Addr, c.Spectrometer.Serial)
		if err := s.Open(); err != nil {
			ctl.Close()
			return nil, nil, err
		}
		mount(c.Spectrometer.Endpoint, spectro.NewHTTPWrapper(s))
	}

	// pattern display is the cross-cutting route: generate phase, map it
	// through the active calibration, push the frame
	root.Post("/display", func(w http.ResponseWriter, r *http.Request) {
		req := displayRequest{}
		err := json.NewDecoder(r.Body).Decode(&req)
		defer r.Body.Close()
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		t := store.Table()
		if t == nil {
			http.Error(w, "no calibration loaded", http.StatusConflict)
			return
		}
		if req.Pattern.GridWidth == 0 && req.Pattern.GridHeight == 0 {
			width, height, err := ctl.Dimensions()
			if err != nil {
				http.Error(w, err.Error(), http.StatusInternalServerError)
				return
			}
			req.Pattern.GridWidth, req.Pattern.GridHeight = width, height
		}
		p, err := pattern.FromConfig(req.Pattern)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		f, err := t.Frame(p)
		if err != nil {
			if errors.Is(err, calib.ErrLookupMismatch) {
				http.Error(w, err.Error(), http.StatusUnprocessableEntity)
				return
			}
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		if err := ctl.SendFrame(f); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusOK)
	})

	// preview renders the phase map as FITS without touching the panel,
	// for checking a pattern config before displaying it
	root.Post("/preview", func(w http.ResponseWriter, r *http.Request) {
		req := displayRequest{}
		err := json.NewDecoder(r.Body).Decode(&req)
		defer r.Body.Close()
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		if req.Pattern.GridWidth == 0 && req.Pattern.GridHeight == 0 {
			width, height, err := ctl.Dimensions()
			if err != nil {
				http.Error(w, err.Error(), http.StatusInternalServerError)
				return
			}
			req.Pattern.GridWidth, req.Pattern.GridHeight = width, height
		}
		p, err := pattern.FromConfig(req.Pattern)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		w.Header().Set("Content-Type", "image/fits")
		meta := []fitsio.Card{{Name: "PATKIND", Value: req.Pattern.Kind, Comment: "pattern kind"}}
		if err := pattern.WriteFits(w, p, meta); err != nil {
			log.Printf("fits preview: %v", err)
		}
	})

	root.Get("/endpoints", func(w http.ResponseWriter, r *http.Request) {
		server.EncodeJSON(w, supergraph)
	})
	return root, ctl, nil
}

// sanitizeStem turns "slm" or "slm/" into "/slm", the form Mount wants.
func sanitizeStem(s string) string {
	if s == "" {
		s = "/"
	}
	if s[0] != '/' {
		s = "/" + s
	}
	if len(s) > 1 && s[len(s)-1] == '/' {
		s = s[:len(s)-1]
	}
	return s
}
