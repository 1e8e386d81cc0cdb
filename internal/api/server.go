// Package api exposes the booking service over a JSON HTTP API.
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"bungalow/internal/export"
	"bungalow/internal/service"

	"github.com/rs/zerolog"
)

// HTTPServer serves the booking REST API.
type HTTPServer struct {
	bookings *service.BookingService
	catalog  *service.CatalogService
	reporter *export.Reporter
	apiKey   string
	logger   zerolog.Logger
	server   *http.Server
}

func NewHTTPServer(port int, apiKey string, bookings *service.BookingService,
	catalog *service.CatalogService, reporter *export.Reporter, logger zerolog.Logger,
) *HTTPServer {
	s := &HTTPServer{
		bookings: bookings,
		catalog:  catalog,
		reporter: reporter,
		apiKey:   apiKey,
		logger:   logger.With().Str("component", "api").Logger(),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/api/properties", s.handleProperties)
	mux.HandleFunc("/api/properties/", s.handlePropertySubroutes)
	mux.HandleFunc("/api/availability", s.handleAvailability)
	mux.HandleFunc("/api/bookings", s.handleBookings)
	mux.HandleFunc("/api/bookings/", s.handleBookingSubroutes)
	mux.HandleFunc("/api/reports/bookings.xlsx", s.handleBookingsReport)

	s.server = &http.Server{
		Addr:         fmt.Sprintf(":%d", port),
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
	}
	return s
}

// Handler returns the underlying handler, used by tests.
func (s *HTTPServer) Handler() http.Handler {
	return s.server.Handler
}

// Start serves until ctx is cancelled, then shuts down gracefully.
func (s *HTTPServer) Start(ctx context.Context) error {
	go func() {
		<-ctx.Done()
		ctxShutdown, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.server.Shutdown(ctxShutdown)
	}()

	s.logger.Info().Str("addr", s.server.Addr).Msg("API server started")
	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// requireAdmin enforces the static admin API key. Returns false after writing
// the error response.
func (s *HTTPServer) requireAdmin(w http.ResponseWriter, r *http.Request) bool {
	key := r.Header.Get("X-Api-Key")
	if s.apiKey == "" || key != s.apiKey {
		writeError(w, http.StatusUnauthorized, "invalid or missing API key")
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

func decodeJSON(r *http.Request, dst any) error {
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	return decoder.Decode(dst)
}
