package api

import (
	"database/sql"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/thatsimonsguy/ihp-controller/db"
)

// Server is a read-only view of recorded units and mode decisions.
type Server struct {
	db *sql.DB
}

type UnitsResponse struct {
	Units []db.UnitSummary `json:"units"`
}

type DecisionsResponse struct {
	Unit      string            `json:"unit"`
	Decisions []db.ModeDecision `json:"decisions"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}

func NewServer(database *sql.DB) *Server {
	return &Server{db: database}
}

// Handler returns the routed API with CORS headers.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/units", s.handleUnits)
	mux.HandleFunc("/units/", s.handleUnitOperations)

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		mux.ServeHTTP(w, r)
	})
}

func (s *Server) Start(addr string) error {
	log.Info().Str("address", addr).Msg("Starting decision API server")
	return http.ListenAndServe(addr, s.Handler())
}

func (s *Server) handleUnits(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}
	units, err := db.GetUnitSummaries(s.db)
	if err != nil {
		log.Error().Err(err).Msg("Failed to get units")
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, UnitsResponse{Units: units})
}

func (s *Server) handleUnitOperations(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/units/")
	parts := strings.Split(path, "/")

	if parts[0] == "" {
		s.writeError(w, http.StatusNotFound, "Unit name required")
		return
	}
	if r.Method != http.MethodGet {
		s.writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	unit := parts[0]
	switch {
	case len(parts) == 1:
		s.getUnit(w, unit)
	case len(parts) == 2 && parts[1] == "decisions":
		s.getDecisions(w, r, unit)
	default:
		s.writeError(w, http.StatusNotFound, "Invalid path")
	}
}

func (s *Server) getUnit(w http.ResponseWriter, unit string) {
	units, err := db.GetUnitSummaries(s.db)
	if err != nil {
		log.Error().Err(err).Str("unit", unit).Msg("Failed to get unit")
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	for _, u := range units {
		if u.Name == unit {
			s.writeJSON(w, http.StatusOK, u)
			return
		}
	}
	s.writeError(w, http.StatusNotFound, "Unit not found")
}

func (s *Server) getDecisions(w http.ResponseWriter, r *http.Request, unit string) {
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			s.writeError(w, http.StatusBadRequest, "Invalid limit")
			return
		}
		limit = n
	}

	exists, err := db.UnitExists(s.db, unit)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if !exists {
		s.writeError(w, http.StatusNotFound, "Unit not found")
		return
	}

	decisions, err := db.GetModeDecisions(s.db, unit, limit)
	if err != nil {
		log.Error().Err(err).Str("unit", unit).Msg("Failed to get decisions")
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, DecisionsResponse{Unit: unit, Decisions: decisions})
}

func (s *Server) writeJSON(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Error().Err(err).Msg("Failed to encode response")
	}
}

func (s *Server) writeError(w http.ResponseWriter, statusCode int, message string) {
	s.writeJSON(w, statusCode, ErrorResponse{Error: message})
}
