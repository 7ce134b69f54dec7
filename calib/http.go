package calib

import (
	"encoding/json"
	"net/http"
	"sync"

	"github.com/opticslab/goslm/server"
)

// Store holds the active lookup table for a calibration session.  The
// table is replaced wholesale on recalibration; readers always see either
// the old table or the new one, never a partial state.
type Store struct {
	mu    sync.RWMutex
	table *Table
}

// Table returns the active table, or nil before any calibration.
func (s *Store) Table() *Table {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.table
}

// Replace installs a new table.
func (s *Store) Replace(t *Table) {
	s.mu.Lock()
	s.table = t
	s.mu.Unlock()
}

// HTTPWrapper exposes calibration over HTTP: upload a sweep to build a
// table, download or upload the persisted table, query status.
type HTTPWrapper struct {
	Store *Store

	RouteTable server.RouteTable
}

// sweepRequest is the JSON body for a calibration build.
type sweepRequest struct {
	Samples []Sample `json:"samples"`
	Config  Config   `json:"config"`
}

// NewHTTPWrapper builds the calibration route table.
func NewHTTPWrapper(store *Store) HTTPWrapper {
	h := HTTPWrapper{Store: store}
	h.RouteTable = server.RouteTable{
		{Method: http.MethodPost, Path: "/sweep"}: h.BuildFromSweep,
		{Method: http.MethodGet, Path: "/lut"}:    h.GetTable,
		{Method: http.MethodPost, Path: "/lut"}:   h.PutTable,
		{Method: http.MethodGet, Path: "/ready"}:  h.Ready,
	}
	return h
}

// RT satisfies server.HTTPer
func (h HTTPWrapper) RT() server.RouteTable {
	return h.RouteTable
}

// BuildFromSweep ingests sweep samples, builds a table, and installs it.
// Calibration errors come back as 422 so clients can distinguish a bad
// sweep from a broken server.
func (h HTTPWrapper) BuildFromSweep(w http.ResponseWriter, r *http.Request) {
	req := sweepRequest{}
	err := json.NewDecoder(r.Body).Decode(&req)
	defer r.Body.Close()
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	t, err := Build(req.Samples, req.Config)
	if err != nil {
		http.Error(w, err.Error(), http.StatusUnprocessableEntity)
		return
	}
	h.Store.Replace(t)
	w.WriteHeader(http.StatusOK)
}

// GetTable serves the active table in the persisted CSV form.
func (h HTTPWrapper) GetTable(w http.ResponseWriter, r *http.Request) {
	t := h.Store.Table()
	if t == nil {
		http.Error(w, "no calibration loaded", http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", "text/csv")
	if err := Save(w, t); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

// PutTable installs a previously persisted table, checksum verified.
func (h HTTPWrapper) PutTable(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()
	t, err := Load(r.Body)
	if err != nil {
		http.Error(w, err.Error(), http.StatusUnprocessableEntity)
		return
	}
	h.Store.Replace(t)
	w.WriteHeader(http.StatusOK)
}

// Ready reports whether a calibration is loaded, JSON {'bool': value}
func (h HTTPWrapper) Ready(w http.ResponseWriter, r *http.Request) {
	server.GetBool(func() (bool, error) {
		return h.Store.Table() != nil, nil
	})(w, r)
}
