package api

import (
	"fmt"
	"net/http"
	"time"

	"bungalow/internal/metrics"
)

// handleBookingsReport serves GET /api/reports/bookings.xlsx: an admin Excel
// export of booking groups, one sheet per property, optionally bounded by
// check-in date.
func (s *HTTPServer) handleBookingsReport(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	metrics.IncHTTP("reports_bookings")
	if !s.requireAdmin(w, r) {
		return
	}

	fromDate := r.URL.Query().Get("from_date")
	toDate := r.URL.Query().Get("to_date")

	filename := fmt.Sprintf("bookings_%s.xlsx", time.Now().UTC().Format("20060102_150405"))
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))

	if err := s.reporter.Write(r.Context(), w, fromDate, toDate); err != nil {
		// Headers are already out; all we can do is log and drop the stream.
		s.logger.Error().Err(err).Msg("bookings report failed")
	}
}
