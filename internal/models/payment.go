package models

import "time"

// PaymentProof is an uploaded payment slip attached to a booking group. The
// file itself lives in an external store; FileRef is an opaque reference.
// The newest proof per group is the authoritative one.
type PaymentProof struct {
	ID         string    `json:"id"`
	GroupID    string    `json:"group_id"`
	Amount     int64     `json:"amount"`
	Method     string    `json:"method"`
	FileRef    string    `json:"file_ref"`
	UploadedAt time.Time `json:"uploaded_at"`
}

// AuditEntry records an admin action over a booking group.
type AuditEntry struct {
	ID        int64     `json:"id"`
	GroupID   string    `json:"group_id"`
	ActorID   int64     `json:"actor_id"`
	Action    string    `json:"action"`
	Detail    string    `json:"detail,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}
