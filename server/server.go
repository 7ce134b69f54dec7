// Package server contains the route table plumbing and typed JSON payload
// helpers shared by the HTTP wrappers in this module.
package server

import (
	"encoding/json"
	"net/http"
	"sort"

	"github.com/go-chi/chi"
)

// MethodPath keys a route table entry by HTTP verb and path.
type MethodPath struct {
	Method string
	Path   string
}

// RouteTable maps method+path to handlers.
type RouteTable map[MethodPath]http.HandlerFunc

// Endpoints lists the routes in the table, sorted for stable output.
func (rt RouteTable) Endpoints() []string {
	routes := make([]string, 0, len(rt))
	for k := range rt {
		routes = append(routes, k.Method+" "+k.Path)
	}
	sort.Strings(routes)
	return routes
}

// An HTTPer exposes its functionality as a route table.
type HTTPer interface {
	RT() RouteTable
}

// Bind mounts an HTTPer's routes on a chi router, plus a list-of-routes
// endpoint that returns the bound routes as a JSON array.
func Bind(r chi.Router, h HTTPer) {
	rt := h.RT()
	for mp, handler := range rt {
		r.Method(mp.Method, mp.Path, handler)
	}
	r.Get("/list-of-routes", func(w http.ResponseWriter, req *http.Request) {
		EncodeJSON(w, rt.Endpoints())
	})
}

// EncodeJSON writes v to w as JSON with the appropriate header.  Encoding
// errors surface as a 500 to the client.
func EncodeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

// FloatT is a struct with a single float field, used for JSON IO
type FloatT struct {
	F64 float64 `json:"f64"`
}

// IntT is a struct with a single int field, used for JSON IO
type IntT struct {
	Int int `json:"int"`
}

// StrT is a struct with a single string field, used for JSON IO
type StrT struct {
	Str string `json:"str"`
}

// BoolT is a struct with a single bool field, used for JSON IO
type BoolT struct {
	Bool bool `json:"bool"`
}

// GetFloat calls a float-getting function and returns the response as
// json {'f64': value}
func GetFloat(fcn func() (float64, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		f, err := fcn()
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		EncodeJSON(w, FloatT{F64: f})
	}
}

// SetFloat parses a JSON input of {'f64': value} and calls fcn with it
func SetFloat(fcn func(float64) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		f := FloatT{}
		err := json.NewDecoder(r.Body).Decode(&f)
		defer r.Body.Close()
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		if err := fcn(f.F64); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusOK)
	}
}

// GetInt calls an int-getting function and returns the response as
// json {'int': value}
func GetInt(fcn func() (int, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		i, err := fcn()
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		EncodeJSON(w, IntT{Int: i})
	}
}

// SetInt parses a JSON input of {'int': value} and calls fcn with it
func SetInt(fcn func(int) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		i := IntT{}
		err := json.NewDecoder(r.Body).Decode(&i)
		defer r.Body.Close()
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		if err := fcn(i.Int); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusOK)
	}
}

// GetString calls a string-getting function and returns the response as
// json {'str': value}
func GetString(fcn func() (string, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s, err := fcn()
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		EncodeJSON(w, StrT{Str: s})
	}
}

// GetBool calls a bool-getting function and returns the response as
// json {'bool': value}
func GetBool(fcn func() (bool, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		b, err := fcn()
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		EncodeJSON(w, BoolT{Bool: b})
	}
}
