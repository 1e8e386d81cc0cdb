package api

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"bungalow/internal/database"
	"bungalow/internal/metrics"
	"bungalow/internal/models"
	"bungalow/internal/service"
)

// handleProperties serves GET /api/properties (public listing) and
// POST /api/properties (admin create/update).
func (s *HTTPServer) handleProperties(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		s.listProperties(w, r)
	case http.MethodPost:
		s.saveProperty(w, r)
	default:
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

// handlePropertySubroutes serves /api/properties/{id} and
// /api/properties/{id}/deactivate.
func (s *HTTPServer) handlePropertySubroutes(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/api/properties/")
	parts := strings.Split(rest, "/")

	id, err := strconv.ParseInt(parts[0], 10, 64)
	if err != nil || id < 1 {
		writeError(w, http.StatusBadRequest, "invalid property id")
		return
	}

	switch {
	case len(parts) == 1:
		if r.Method != http.MethodGet {
			writeError(w, http.StatusMethodNotAllowed, "method not allowed")
			return
		}
		s.getProperty(w, r, id)
	case len(parts) == 2 && parts[1] == "deactivate":
		if r.Method != http.MethodPost {
			writeError(w, http.StatusMethodNotAllowed, "method not allowed")
			return
		}
		s.deactivateProperty(w, r, id)
	default:
		writeError(w, http.StatusNotFound, "not found")
	}
}

func (s *HTTPServer) listProperties(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("properties_list")

	includeInactive := r.URL.Query().Get("include_inactive") == "true"
	if includeInactive && !s.requireAdmin(w, r) {
		return
	}

	properties, err := s.catalog.List(r.Context(), includeInactive)
	if err != nil {
		s.logger.Error().Err(err).Msg("list properties failed")
		writeError(w, http.StatusInternalServerError, "failed to list properties")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"properties": properties})
}

func (s *HTTPServer) getProperty(w http.ResponseWriter, r *http.Request, id int64) {
	metrics.IncHTTP("properties_get")

	property, err := s.catalog.Get(r.Context(), id)
	if errors.Is(err, database.ErrNotFound) {
		writeError(w, http.StatusNotFound, "property not found")
		return
	}
	if err != nil {
		s.logger.Error().Err(err).Int64("property_id", id).Msg("get property failed")
		writeError(w, http.StatusInternalServerError, "failed to load property")
		return
	}
	writeJSON(w, http.StatusOK, property)
}

func (s *HTTPServer) saveProperty(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("properties_save")
	if !s.requireAdmin(w, r) {
		return
	}

	var property models.Property
	if err := decodeJSON(r, &property); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body: "+err.Error())
		return
	}

	isNew := property.ID == 0
	saved, err := s.catalog.Save(r.Context(), &property)
	if errors.Is(err, service.ErrInvalidInput) {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if errors.Is(err, database.ErrNotFound) {
		writeError(w, http.StatusNotFound, "property not found")
		return
	}
	if err != nil {
		s.logger.Error().Err(err).Msg("save property failed")
		writeError(w, http.StatusInternalServerError, "failed to save property")
		return
	}

	status := http.StatusOK
	if isNew {
		status = http.StatusCreated
	}
	writeJSON(w, status, saved)
}

func (s *HTTPServer) deactivateProperty(w http.ResponseWriter, r *http.Request, id int64) {
	metrics.IncHTTP("properties_deactivate")
	if !s.requireAdmin(w, r) {
		return
	}

	err := s.catalog.Deactivate(r.Context(), id)
	if errors.Is(err, database.ErrNotFound) {
		writeError(w, http.StatusNotFound, "property not found")
		return
	}
	if err != nil {
		s.logger.Error().Err(err).Int64("property_id", id).Msg("deactivate property failed")
		writeError(w, http.StatusInternalServerError, "failed to deactivate property")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"id": id, "is_active": false})
}
