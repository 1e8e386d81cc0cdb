package models

import "time"

// Property is a bookable circuit bungalow site containing room types.
// Properties are soft-deactivated, never deleted, so historical bookings
// keep their references.
type Property struct {
	ID        int64      `json:"id"`
	Name      string     `json:"name"`
	City      string     `json:"city"`
	Street    string     `json:"street"`
	IsActive  bool       `json:"is_active"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
	RoomTypes []RoomType `json:"room_types,omitempty"`
}

// RoomType is a category of interchangeable units within a property.
type RoomType struct {
	ID            int64     `json:"id"`
	PropertyID    int64     `json:"property_id"`
	Name          string    `json:"name"`
	TotalUnits    int       `json:"total_units"`
	MaxOccupants  int       `json:"max_occupants"`
	PricePerGuest int64     `json:"price_per_guest"` // per guest per night
	Description   string    `json:"description,omitempty"`
	IsActive      bool      `json:"is_active"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}
