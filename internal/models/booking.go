package models

import "time"

// BookingStatus is the lifecycle state of a booking group.
type BookingStatus string

const (
	StatusPending  BookingStatus = "pending"
	StatusApproved BookingStatus = "approved"
	StatusRejected BookingStatus = "rejected"
)

// IsTerminal reports whether the status permits no further transitions.
func (s BookingStatus) IsTerminal() bool {
	return s == StatusApproved || s == StatusRejected
}

// Booking is one persisted row of a booking group: one selected room type
// within a submission. All rows of a group share the group id, dates, time,
// purpose and status.
type Booking struct {
	ID           int64         `json:"id"`
	GroupID      string        `json:"group_id"`
	RequesterID  int64         `json:"requester_id"`
	PropertyID   int64         `json:"property_id"`
	RoomTypeID   int64         `json:"room_type_id"`
	CheckInDate  string        `json:"check_in_date"`  // YYYY-MM-DD
	CheckOutDate string        `json:"check_out_date"` // YYYY-MM-DD
	CheckInTime  string        `json:"check_in_time"`  // HH:MM
	Units        int           `json:"units"`
	Guests       int           `json:"guests"`
	Purpose      string        `json:"purpose,omitempty"`
	Status       BookingStatus `json:"status"`
	RejectReason string        `json:"reject_reason,omitempty"`
	DecidedBy    *int64        `json:"decided_by,omitempty"`
	DecidedAt    *time.Time    `json:"decided_at,omitempty"`
	CreatedAt    time.Time     `json:"created_at"`
	UpdatedAt    time.Time     `json:"updated_at"`
	Version      int64         `json:"version"`
}

// BookingGroup is the logical reservation created by one submission,
// assembled from its rows.
type BookingGroup struct {
	GroupID      string        `json:"group_id"`
	RequesterID  int64         `json:"requester_id"`
	PropertyID   int64         `json:"property_id"`
	CheckInDate  string        `json:"check_in_date"`
	CheckOutDate string        `json:"check_out_date"`
	CheckInTime  string        `json:"check_in_time"`
	Purpose      string        `json:"purpose,omitempty"`
	Status       BookingStatus `json:"status"`
	RejectReason string        `json:"reject_reason,omitempty"`
	DecidedBy    *int64        `json:"decided_by,omitempty"`
	DecidedAt    *time.Time    `json:"decided_at,omitempty"`
	CreatedAt    time.Time     `json:"created_at"`
	Rows         []Booking     `json:"rows"`
}

// TotalGuests sums guests over all rows of the group.
func (g *BookingGroup) TotalGuests() int {
	total := 0
	for _, row := range g.Rows {
		total += row.Guests
	}
	return total
}
