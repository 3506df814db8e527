// Package server exposes computed accessibility results over HTTP for
// the visualization frontend. The engine is pure, so everything is
// computed before the server starts and served from memory.
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/civita/urbanaccess/internal/access"
	"github.com/civita/urbanaccess/internal/export"
	"github.com/civita/urbanaccess/internal/geo"
)

// SurfacePoint is one grid sample of a service's value surface.
type SurfacePoint struct {
	Lat   float64 `json:"lat"`
	Lon   float64 `json:"lon"`
	Value float64 `json:"value"`
}

// Results holds everything the API serves.
type Results struct {
	Menu      []export.MenuItem
	Records   map[access.ServiceArea][]export.Record
	Surfaces  map[access.ServiceType]*access.Surface
	Positions []geo.Position
}

// Server serves precomputed accessibility results.
type Server struct {
	results Results
	router  chi.Router
}

// New builds the read API over a completed computation.
func New(results Results) *Server {
	s := &Server{results: results}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodOptions},
	}))

	r.Get("/healthz", s.handleHealth)
	r.Get("/api/menu", s.handleMenu)
	r.Get("/api/zones/{service}", s.handleZones)
	r.Get("/api/surface/{service}/{group}", s.handleSurface)

	s.router = r
	return s
}

// Handler returns the HTTP handler for tests and embedding.
func (s *Server) Handler() http.Handler { return s.router }

// ListenAndServe runs the server until ctx is cancelled.
func (s *Server) ListenAndServe(ctx context.Context, port int) error {
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		zap.L().Info("server: shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
	}()

	zap.L().Info("server: listening", zap.Int("port", port))
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return eris.Wrap(err, "server: listen")
	}
	return nil
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleMenu(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.results.Menu)
}

func (s *Server) handleZones(w http.ResponseWriter, r *http.Request) {
	st, err := access.ParseServiceType(chi.URLParam(r, "service"))
	if err != nil {
		writeError(w, http.StatusNotFound, "unknown service")
		return
	}
	records, ok := s.results.Records[st.Area()]
	if !ok {
		writeError(w, http.StatusNotFound, "no results for service")
		return
	}
	writeJSON(w, http.StatusOK, records)
}

func (s *Server) handleSurface(w http.ResponseWriter, r *http.Request) {
	st, err := access.ParseServiceType(chi.URLParam(r, "service"))
	if err != nil {
		writeError(w, http.StatusNotFound, "unknown service")
		return
	}
	g, err := access.ParseAgeGroup(chi.URLParam(r, "group"))
	if err != nil {
		writeError(w, http.StatusNotFound, "unknown age group")
		return
	}

	surface, ok := s.results.Surfaces[st]
	if !ok {
		writeError(w, http.StatusNotFound, "no surface for service")
		return
	}
	values, ok := surface.Values[g]
	if !ok {
		writeError(w, http.StatusNotFound, "service does not cover age group")
		return
	}

	points := make([]SurfacePoint, len(values))
	for i, v := range values {
		points[i] = SurfacePoint{
			Lat:   s.results.Positions[i].Lat,
			Lon:   s.results.Positions[i].Lon,
			Value: v,
		}
	}
	writeJSON(w, http.StatusOK, points)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		zap.L().Error("server: encode response", zap.Error(err))
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
