package availability

import "fmt"

// Validation error codes. CodeCapacityExceeded exists for messaging only;
// callers handle every code the same way.
const (
	CodeMissingField     = "missing_field"
	CodeInvalidDates     = "invalid_dates"
	CodeBeforeCutoff     = "before_cutoff"
	CodeOverlap          = "overlap"
	CodeCapacityExceeded = "capacity_exceeded"
	CodeInvalidSelection = "invalid_selection"
	CodeInvalidPrice     = "invalid_price"
)

// ValidationError describes why a candidate request was rejected. The reason
// is user-correctable and surfaced verbatim to the requester.
type ValidationError struct {
	Code   string
	Reason string
}

func (e *ValidationError) Error() string {
	return e.Reason
}

func rejectf(code, format string, args ...any) *ValidationError {
	return &ValidationError{Code: code, Reason: fmt.Sprintf(format, args...)}
}

// RoomTypeInfo is the room-type capacity data the validator needs.
type RoomTypeInfo struct {
	ID            int64
	Name          string
	TotalUnits    int
	MaxOccupants  int
	PricePerGuest int64 // per guest per night
	Active        bool
}

// RoomSelection is one requested room type within a candidate request.
type RoomSelection struct {
	RoomTypeID int64
	Units      int
	Guests     int
}

// Request is a candidate booking request as submitted by a client. The
// check-in time is mandatory at submission; no default applies here.
type Request struct {
	CheckInDate  string
	CheckOutDate string
	CheckInTime  string
	Selections   []RoomSelection
}

// Quote is the priced outcome of a successful validation.
type Quote struct {
	Nights      int
	TotalGuests int
	TotalPrice  int64
}

// Validate decides whether a candidate request can be accepted against the
// availability index and the property's room types. It is a pure function:
// identical inputs always yield identical results. Checks run in a fixed
// order and the first failure wins, so rejection reasons are deterministic.
func Validate(req Request, idx *Index, roomTypes map[int64]RoomTypeInfo) (Quote, *ValidationError) {
	// 1. Required fields.
	if req.CheckInDate == "" {
		return Quote{}, rejectf(CodeMissingField, "check-in date is required")
	}
	if req.CheckOutDate == "" {
		return Quote{}, rejectf(CodeMissingField, "check-out date is required")
	}
	if req.CheckInTime == "" {
		return Quote{}, rejectf(CodeMissingField, "check-in time is required")
	}

	// 2. Date ordering. A stay must cover at least one night.
	stay, err := NewStayInterval(req.CheckInDate, req.CheckOutDate, req.CheckInTime)
	if err != nil {
		return Quote{}, rejectf(CodeInvalidDates, "%s", err.Error())
	}
	nights := stay.Nights()
	if nights == 0 {
		return Quote{}, rejectf(CodeInvalidDates, "check-out date must be after check-in date")
	}

	// 3. Checkout cutoff: an earlier guest checks out on the candidate's
	// check-in day and has not vacated before the requested time.
	if cutoff, ok := idx.CutoffFor(req.CheckInDate); ok && req.CheckInTime < cutoff {
		return Quote{}, rejectf(CodeBeforeCutoff,
			"check-in on %s is not permitted before %s", req.CheckInDate, cutoff)
	}

	// 4. Full-range overlap against every approved stay.
	for _, approved := range idx.Stays() {
		if stay.Overlaps(approved) {
			return Quote{}, rejectf(CodeOverlap, "requested stay overlaps an approved booking")
		}
	}

	// 5. Room and guest capacity.
	if len(req.Selections) == 0 {
		return Quote{}, rejectf(CodeInvalidSelection, "at least one room type must be selected")
	}
	totalGuests := 0
	var totalPrice int64
	for _, sel := range req.Selections {
		rt, ok := roomTypes[sel.RoomTypeID]
		if !ok || !rt.Active {
			return Quote{}, rejectf(CodeInvalidSelection, "unknown room type %d", sel.RoomTypeID)
		}
		if sel.Units < 1 {
			return Quote{}, rejectf(CodeInvalidSelection, "%s: at least one unit is required", rt.Name)
		}
		if sel.Units > rt.TotalUnits {
			return Quote{}, rejectf(CodeCapacityExceeded,
				"%s: requested %d units, only %d exist", rt.Name, sel.Units, rt.TotalUnits)
		}
		if sel.Guests < 0 {
			return Quote{}, rejectf(CodeInvalidSelection, "%s: guest count cannot be negative", rt.Name)
		}
		if maxGuests := sel.Units * rt.MaxOccupants; sel.Guests > maxGuests {
			return Quote{}, rejectf(CodeCapacityExceeded,
				"%s: %d guests exceed capacity of %d", rt.Name, sel.Guests, maxGuests)
		}
		totalGuests += sel.Guests
		totalPrice += int64(sel.Guests) * rt.PricePerGuest
	}
	if totalGuests == 0 {
		return Quote{}, rejectf(CodeInvalidSelection, "at least one guest is required")
	}

	// 6. Price sanity.
	totalPrice *= int64(nights)
	if totalPrice <= 0 {
		return Quote{}, rejectf(CodeInvalidPrice, "computed total price must be positive")
	}

	return Quote{Nights: nights, TotalGuests: totalGuests, TotalPrice: totalPrice}, nil
}

// CheckConflict runs only the interval checks (checkout cutoff and full-range
// overlap) of a stay against the index. Used when re-validating an existing
// pending group at approval time: its capacity and price were fixed at create
// time, but the approved set may have changed since.
func CheckConflict(checkInDate, checkOutDate, checkInTime string, idx *Index) *ValidationError {
	stay, err := NewStayInterval(checkInDate, checkOutDate, checkInTime)
	if err != nil {
		return rejectf(CodeInvalidDates, "%s", err.Error())
	}
	if cutoff, ok := idx.CutoffFor(checkInDate); ok && checkInTime < cutoff {
		return rejectf(CodeBeforeCutoff,
			"check-in on %s is not permitted before %s", checkInDate, cutoff)
	}
	for _, approved := range idx.Stays() {
		if stay.Overlaps(approved) {
			return rejectf(CodeOverlap, "requested stay overlaps an approved booking")
		}
	}
	return nil
}
