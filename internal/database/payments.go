package database

import (
	"context"
	"database/sql"
	"fmt"

	"bungalow/internal/models"
)

// InsertPaymentProof stores an uploaded payment slip reference.
func (db *DB) InsertPaymentProof(ctx context.Context, proof *models.PaymentProof) error {
	_, err := db.ExecContext(ctx,
		`INSERT INTO payment_proofs (id, group_id, amount, method, file_ref, uploaded_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		proof.ID, proof.GroupID, proof.Amount, proof.Method, proof.FileRef, proof.UploadedAt)
	if err != nil {
		return fmt.Errorf("insert payment proof: %w", err)
	}
	return nil
}

// LatestPaymentProof returns the newest proof for a group, the one treated
// as authoritative. ErrNotFound if none was uploaded.
func (db *DB) LatestPaymentProof(ctx context.Context, groupID string) (*models.PaymentProof, error) {
	var p models.PaymentProof
	err := db.QueryRowContext(ctx,
		`SELECT id, group_id, amount, method, file_ref, uploaded_at
		FROM payment_proofs WHERE group_id = ?
		ORDER BY uploaded_at DESC, id DESC LIMIT 1`,
		groupID,
	).Scan(&p.ID, &p.GroupID, &p.Amount, &p.Method, &p.FileRef, &p.UploadedAt)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get payment proof: %w", err)
	}
	return &p, nil
}

// PaymentProofs returns all proofs uploaded for a group, newest first.
func (db *DB) PaymentProofs(ctx context.Context, groupID string) ([]models.PaymentProof, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT id, group_id, amount, method, file_ref, uploaded_at
		FROM payment_proofs WHERE group_id = ?
		ORDER BY uploaded_at DESC, id DESC`,
		groupID)
	if err != nil {
		return nil, fmt.Errorf("list payment proofs: %w", err)
	}
	defer rows.Close()

	var proofs []models.PaymentProof
	for rows.Next() {
		var p models.PaymentProof
		if err := rows.Scan(&p.ID, &p.GroupID, &p.Amount, &p.Method, &p.FileRef, &p.UploadedAt); err != nil {
			return nil, fmt.Errorf("scan payment proof: %w", err)
		}
		proofs = append(proofs, p)
	}
	return proofs, rows.Err()
}
