package api

import (
	"net/http"
	"time"

	"bungalow/internal/availability"
	"bungalow/internal/metrics"
)

// maxAvailabilityDays bounds the calendar window a single query may cover.
const maxAvailabilityDays = 90

type availabilityRequest struct {
	PropertyID int64  `json:"property_id"`
	FromDate   string `json:"from_date"`
	ToDate     string `json:"to_date"`
}

type availabilityDay struct {
	Date      string `json:"date"`
	Available bool   `json:"available"`
	// Reason is set when the day is blocked or restricted.
	Reason string `json:"reason,omitempty"`
	// CheckInAfter is the earliest permitted check-in time on a cutoff day.
	CheckInAfter string `json:"check_in_after,omitempty"`
}

// handleAvailability serves POST /api/availability: an advisory per-day
// calendar built from the approved stays of a property. Accepting a request
// still re-validates inside the booking transaction, so this view going stale
// is harmless.
func (s *HTTPServer) handleAvailability(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	metrics.IncHTTP("availability")

	var req availabilityRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body: "+err.Error())
		return
	}
	if req.PropertyID < 1 {
		writeError(w, http.StatusBadRequest, "property_id is required")
		return
	}

	from, err := time.Parse(availability.DateLayout, req.FromDate)
	if err != nil {
		writeError(w, http.StatusBadRequest, "from_date must be YYYY-MM-DD")
		return
	}
	to, err := time.Parse(availability.DateLayout, req.ToDate)
	if err != nil {
		writeError(w, http.StatusBadRequest, "to_date must be YYYY-MM-DD")
		return
	}
	if to.Before(from) {
		writeError(w, http.StatusBadRequest, "to_date must not precede from_date")
		return
	}
	if int(to.Sub(from).Hours()/24) >= maxAvailabilityDays {
		writeError(w, http.StatusBadRequest, "date range may cover at most 90 days")
		return
	}

	idx, err := s.bookings.AvailabilityIndex(r.Context(), req.PropertyID)
	if err != nil {
		s.logger.Error().Err(err).Int64("property_id", req.PropertyID).Msg("availability index failed")
		writeError(w, http.StatusInternalServerError, "failed to compute availability")
		return
	}

	var days []availabilityDay
	for d := from; !d.After(to); d = d.AddDate(0, 0, 1) {
		date := d.Format(availability.DateLayout)
		day := availabilityDay{Date: date, Available: true}
		if idx.DayBlocked(date) {
			day.Available = false
			day.Reason = "occupied by an approved booking"
		} else if cutoff, ok := idx.CutoffFor(date); ok {
			day.Reason = "check-out in progress"
			day.CheckInAfter = cutoff
		}
		days = append(days, day)
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"property_id": req.PropertyID,
		"days":        days,
	})
}
