package api

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"bungalow/internal/availability"
	"bungalow/internal/database"
	"bungalow/internal/metrics"
	"bungalow/internal/models"
	"bungalow/internal/service"
)

type createBookingRequest struct {
	RequesterID  int64                  `json:"requester_id"`
	PropertyID   int64                  `json:"property_id"`
	CheckInDate  string                 `json:"check_in_date"`
	CheckOutDate string                 `json:"check_out_date"`
	CheckInTime  string                 `json:"check_in_time"`
	Purpose      string                 `json:"purpose"`
	Selections   []roomSelectionRequest `json:"selections"`
}

type roomSelectionRequest struct {
	RoomTypeID int64 `json:"room_type_id"`
	Units      int   `json:"units"`
	Guests     int   `json:"guests"`
}

type decideRequest struct {
	ActorID int64  `json:"actor_id"`
	Reason  string `json:"reason,omitempty"`
}

type paymentRequest struct {
	Amount  int64  `json:"amount"`
	Method  string `json:"method"`
	FileRef string `json:"file_ref"`
}

// handleBookings serves POST /api/bookings (submit a request) and
// GET /api/bookings (admin listing).
func (s *HTTPServer) handleBookings(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		s.createBooking(w, r)
	case http.MethodGet:
		s.listBookings(w, r)
	default:
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

// handleBookingSubroutes serves /api/bookings/{groupID} and its
// /approve, /reject and /payment actions.
func (s *HTTPServer) handleBookingSubroutes(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/api/bookings/")
	parts := strings.Split(rest, "/")
	groupID := parts[0]
	if groupID == "" {
		writeError(w, http.StatusBadRequest, "booking group id is required")
		return
	}

	switch {
	case len(parts) == 1:
		if r.Method != http.MethodGet {
			writeError(w, http.StatusMethodNotAllowed, "method not allowed")
			return
		}
		s.getBooking(w, r, groupID)
	case len(parts) == 2 && r.Method == http.MethodPost:
		switch parts[1] {
		case "approve":
			s.decideBooking(w, r, groupID, models.StatusApproved)
		case "reject":
			s.decideBooking(w, r, groupID, models.StatusRejected)
		case "payment":
			s.attachPayment(w, r, groupID)
		default:
			writeError(w, http.StatusNotFound, "not found")
		}
	default:
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

func (s *HTTPServer) createBooking(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("bookings_create")

	var req createBookingRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body: "+err.Error())
		return
	}
	if req.PropertyID < 1 {
		writeError(w, http.StatusBadRequest, "property_id is required")
		return
	}

	selections := make([]availability.RoomSelection, 0, len(req.Selections))
	for _, sel := range req.Selections {
		selections = append(selections, availability.RoomSelection{
			RoomTypeID: sel.RoomTypeID,
			Units:      sel.Units,
			Guests:     sel.Guests,
		})
	}

	result, err := s.bookings.Create(r.Context(), service.CreateRequest{
		RequesterID:  req.RequesterID,
		PropertyID:   req.PropertyID,
		CheckInDate:  req.CheckInDate,
		CheckOutDate: req.CheckOutDate,
		CheckInTime:  req.CheckInTime,
		Purpose:      req.Purpose,
		Selections:   selections,
	})
	var verr *availability.ValidationError
	if errors.As(err, &verr) {
		writeJSON(w, http.StatusUnprocessableEntity, map[string]any{
			"rejected": true,
			"code":     verr.Code,
			"reason":   verr.Reason,
		})
		return
	}
	if err != nil {
		s.logger.Error().Err(err).Int64("property_id", req.PropertyID).Msg("create booking failed")
		writeError(w, http.StatusInternalServerError, "failed to create booking")
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{
		"booking_group_id": result.Group.GroupID,
		"status":           result.Group.Status,
		"nights":           result.Quote.Nights,
		"total_guests":     result.Quote.TotalGuests,
		"total_price":      result.Quote.TotalPrice,
	})
}

func (s *HTTPServer) listBookings(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("bookings_list")
	if !s.requireAdmin(w, r) {
		return
	}

	filter := database.BookingFilter{
		Status:   models.BookingStatus(r.URL.Query().Get("status")),
		FromDate: r.URL.Query().Get("from_date"),
		ToDate:   r.URL.Query().Get("to_date"),
	}
	if raw := r.URL.Query().Get("property_id"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid property_id")
			return
		}
		filter.PropertyID = id
	}

	groups, err := s.bookings.List(r.Context(), filter)
	if err != nil {
		s.logger.Error().Err(err).Msg("list bookings failed")
		writeError(w, http.StatusInternalServerError, "failed to list bookings")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"bookings": groups})
}

func (s *HTTPServer) getBooking(w http.ResponseWriter, r *http.Request, groupID string) {
	metrics.IncHTTP("bookings_get")

	group, proof, err := s.bookings.Group(r.Context(), groupID)
	if errors.Is(err, database.ErrNotFound) {
		writeError(w, http.StatusNotFound, "booking group not found")
		return
	}
	if err != nil {
		s.logger.Error().Err(err).Str("group_id", groupID).Msg("get booking failed")
		writeError(w, http.StatusInternalServerError, "failed to load booking")
		return
	}

	payload := map[string]any{"booking": group}
	if proof != nil {
		payload["payment_proof"] = proof
	}
	writeJSON(w, http.StatusOK, payload)
}

func (s *HTTPServer) decideBooking(w http.ResponseWriter, r *http.Request, groupID string, status models.BookingStatus) {
	endpoint := "bookings_approve"
	if status == models.StatusRejected {
		endpoint = "bookings_reject"
	}
	metrics.IncHTTP(endpoint)
	if !s.requireAdmin(w, r) {
		return
	}

	var req decideRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body: "+err.Error())
		return
	}

	var group *models.BookingGroup
	var err error
	if status == models.StatusApproved {
		group, err = s.bookings.Approve(r.Context(), groupID, req.ActorID)
	} else {
		group, err = s.bookings.Reject(r.Context(), groupID, req.ActorID, req.Reason)
	}

	var verr *availability.ValidationError
	switch {
	case errors.Is(err, database.ErrNotFound):
		writeError(w, http.StatusNotFound, "booking group not found")
	case errors.Is(err, service.ErrInvalidTransition):
		writeError(w, http.StatusConflict, "booking has already been decided")
	case errors.Is(err, service.ErrEmptyReason):
		writeError(w, http.StatusBadRequest, "rejection requires a reason")
	case errors.As(err, &verr):
		// A conflicting group was approved first.
		writeJSON(w, http.StatusConflict, map[string]any{
			"rejected": true,
			"code":     verr.Code,
			"reason":   verr.Reason,
		})
	case errors.Is(err, database.ErrConflict):
		writeError(w, http.StatusConflict, "booking group changed concurrently, retry")
	case err != nil:
		s.logger.Error().Err(err).Str("group_id", groupID).Msg("decide booking failed")
		writeError(w, http.StatusInternalServerError, "failed to decide booking")
	default:
		writeJSON(w, http.StatusOK, map[string]any{"booking": group})
	}
}

func (s *HTTPServer) attachPayment(w http.ResponseWriter, r *http.Request, groupID string) {
	metrics.IncHTTP("bookings_payment")

	var req paymentRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body: "+err.Error())
		return
	}
	if req.FileRef == "" {
		writeError(w, http.StatusBadRequest, "file_ref is required")
		return
	}

	proof, err := s.bookings.AttachPaymentProof(r.Context(), groupID, req.Amount, req.Method, req.FileRef)
	if errors.Is(err, database.ErrNotFound) {
		writeError(w, http.StatusNotFound, "booking group not found")
		return
	}
	if err != nil {
		s.logger.Error().Err(err).Str("group_id", groupID).Msg("attach payment proof failed")
		writeError(w, http.StatusInternalServerError, "failed to attach payment proof")
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"payment_proof": proof})
}
