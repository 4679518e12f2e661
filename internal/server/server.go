// Package server exposes the operator API the web front end calls. It is
// a thin layer: every route maps directly onto one engine operation or a
// state snapshot, and action routes answer with a bare "OK" body.
package server

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/physlab/atomrig/internal/atom"
	"github.com/physlab/atomrig/internal/engine"
	"github.com/physlab/atomrig/internal/metrics"
	"github.com/physlab/atomrig/internal/state"
)

type Server struct {
	engine *engine.Engine
	store  *state.Store
	log    *slog.Logger
	mux    *http.ServeMux
}

func New(eng *engine.Engine, st *state.Store, col *metrics.Collector, log *slog.Logger) *Server {
	s := &Server{
		engine: eng,
		store:  st,
		log:    log,
		mux:    http.NewServeMux(),
	}

	s.mux.HandleFunc("GET /get_data", s.handleGetData)
	s.mux.HandleFunc("GET /elements", s.handleElements)
	s.mux.HandleFunc("GET /set_mode/{mode}", s.handleSetMode)
	s.mux.HandleFunc("GET /mode2/set_type/{kind}", s.handleSetMode2Type)
	s.mux.HandleFunc("GET /mode2/set_base/{elem}", s.handleSetMode2Base)
	s.mux.HandleFunc("GET /mode2/sim/{color}", s.handleSimColor)
	s.mux.HandleFunc("GET /mode1/load/{elem}", s.handleLoadElement)
	s.mux.HandleFunc("GET /mode6/set_halflife/{val}", s.handleSetHalfLife)
	s.mux.HandleFunc("GET /mode6/start", s.handleStartDecay)
	s.mux.Handle("GET /metrics", col.Handler())

	return s
}

func (s *Server) Handler() http.Handler {
	return s.mux
}

func ok(w http.ResponseWriter) {
	w.Write([]byte("OK"))
}

func (s *Server) handleGetData(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(s.store.Snapshot()); err != nil {
		s.log.Warn("encode state failed", "error", err)
	}
}

func (s *Server) handleElements(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(atom.Names)
}

func (s *Server) handleSetMode(w http.ResponseWriter, r *http.Request) {
	m, err := strconv.Atoi(r.PathValue("mode"))
	if err != nil {
		http.Error(w, "bad mode", http.StatusBadRequest)
		return
	}
	s.engine.SetMode(m)
	ok(w)
}

func (s *Server) handleSetMode2Type(w http.ResponseWriter, r *http.Request) {
	s.engine.SetMode2Kind(r.PathValue("kind") == "demo")
	ok(w)
}

func (s *Server) handleSetMode2Base(w http.ResponseWriter, r *http.Request) {
	s.engine.SetMode2Base(r.PathValue("elem"))
	ok(w)
}

func (s *Server) handleSimColor(w http.ResponseWriter, r *http.Request) {
	s.engine.SimulateColor(r.PathValue("color"))
	ok(w)
}

func (s *Server) handleLoadElement(w http.ResponseWriter, r *http.Request) {
	s.engine.LoadElement(r.PathValue("elem"))
	ok(w)
}

func (s *Server) handleSetHalfLife(w http.ResponseWriter, r *http.Request) {
	v, err := strconv.Atoi(r.PathValue("val"))
	if err != nil {
		http.Error(w, "bad halflife", http.StatusBadRequest)
		return
	}
	s.engine.SetHalfLife(v)
	ok(w)
}

func (s *Server) handleStartDecay(w http.ResponseWriter, r *http.Request) {
	s.engine.StartDecay()
	ok(w)
}
