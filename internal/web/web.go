package web

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"labcal/internal/booking"
	"labcal/internal/config"
	appLog "labcal/internal/log"
	"labcal/internal/registry"
)

// maxBodyBytes bounds request bodies, import files included.
const maxBodyBytes = 8 << 20

// Server exposes the booking engine as a JSON API.
type Server struct {
	cfg  *config.Config
	svc  *booking.Service
	repo *booking.Repository
	reg  *registry.Registry
	mux  *http.ServeMux

	// now is replaced in tests.
	now func() time.Time
}

// NewServer constructs a new Server.
func NewServer(cfg *config.Config, svc *booking.Service, reg *registry.Registry) *Server {
	s := &Server{
		cfg:  cfg,
		svc:  svc,
		repo: svc.Repository(),
		reg:  reg,
		mux:  http.NewServeMux(),
		now:  time.Now,
	}
	s.registerRoutes()
	return s
}

// Handler returns the underlying http.Handler for this server.
func (s *Server) Handler() http.Handler {
	h := http.Handler(s.mux)
	if s.basicAuthEnabled() {
		appLog.Info("HTTP basic auth enabled", "listen", "http://"+s.cfg.Listen)
		return s.basicAuthMiddleware(h)
	}
	return h
}

// basicAuthEnabled reports whether HTTP Basic Auth is configured.
func (s *Server) basicAuthEnabled() bool {
	if s.cfg == nil || s.cfg.BasicAuth == nil {
		return false
	}
	// Empty credentials mean auth is off.
	return s.cfg.BasicAuth.Username != "" && s.cfg.BasicAuth.Password != ""
}

// basicAuthMiddleware wraps all handlers except /health with HTTP Basic Auth.
func (s *Server) basicAuthMiddleware(next http.Handler) http.Handler {
	username := s.cfg.BasicAuth.Username
	password := s.cfg.BasicAuth.Password

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/health" {
			next.ServeHTTP(w, r)
			return
		}

		u, p, ok := r.BasicAuth()
		if !ok || !secureCompare(u, username) || !secureCompare(p, password) {
			w.Header().Set("WWW-Authenticate", `Basic realm="labcal", charset="UTF-8"`)
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// secureCompare compares two strings in constant time.
func secureCompare(a, b string) bool {
	if len(a) != len(b) {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}

// Serve runs the HTTP server on cfg.Listen until ctx is cancelled, then
// shuts it down gracefully.
func (s *Server) Serve(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Listen,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		appLog.Info("starting HTTP server", "listen", "http://"+s.cfg.Listen)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	appLog.Info("HTTP server stopped")
	return nil
}

func (s *Server) registerRoutes() {
	s.mux.HandleFunc("GET /health", s.handleHealth)

	s.mux.HandleFunc("GET /api/bookings", s.handleListBookings)
	s.mux.HandleFunc("POST /api/bookings", s.handleCreateBooking)
	s.mux.HandleFunc("POST /api/bookings/series", s.handleCreateSeries)
	s.mux.HandleFunc("GET /api/bookings/{id}", s.handleGetBooking)
	s.mux.HandleFunc("PUT /api/bookings/{id}", s.handleUpdateBooking)
	s.mux.HandleFunc("DELETE /api/bookings/{id}", s.handleDeleteBooking)
	s.mux.HandleFunc("PUT /api/bookings/{id}/materials", s.handleUpdateMaterials)

	for _, kind := range []registry.Kind{registry.Professors, registry.Subjects} {
		base := "/api/" + string(kind)
		s.mux.HandleFunc("GET "+base, s.handleListRegistry(kind))
		s.mux.HandleFunc("POST "+base, s.handleAddRegistry(kind))
		s.mux.HandleFunc("DELETE "+base+"/{name}", s.handleRemoveRegistry(kind))
	}
	s.mux.HandleFunc("POST /api/config/reset", s.handleResetRegistry)

	s.mux.HandleFunc("GET /api/export", s.handleExport)
	s.mux.HandleFunc("POST /api/import", s.handleImport)
	s.mux.HandleFunc("GET /api/calendar.ics", s.handleCalendar)

	s.mux.HandleFunc("GET /api/slots", s.handleSlots)
	s.mux.HandleFunc("GET /api/materials/catalog", s.handleCatalog)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body: "+err.Error())
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		appLog.Error("failed to write JSON response", err)
	}
}

type errResp struct {
	Error string `json:"error"`
	Kind  string `json:"kind,omitempty"`
	Field string `json:"field,omitempty"`
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errResp{Error: msg})
}

// writeBookingError maps service errors onto HTTP statuses.
func writeBookingError(w http.ResponseWriter, err error) {
	var ve *booking.ValidationError
	switch {
	case errors.As(err, &ve):
		status := http.StatusUnprocessableEntity
		if ve.Kind == booking.KindConflict {
			status = http.StatusConflict
		}
		writeJSON(w, status, errResp{Error: ve.Message, Kind: string(ve.Kind), Field: ve.Field})
	case errors.Is(err, booking.ErrNotFound):
		writeError(w, http.StatusNotFound, "booking not found")
	default:
		appLog.Error("booking operation failed", err)
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}
