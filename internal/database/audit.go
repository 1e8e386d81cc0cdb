package database

import (
	"context"
	"fmt"

	"bungalow/internal/models"
)

// AppendAudit records an admin action over a booking group.
func (db *DB) AppendAudit(ctx context.Context, entry *models.AuditEntry) error {
	res, err := db.ExecContext(ctx,
		`INSERT INTO audit_log (group_id, actor_id, action, detail, created_at)
		VALUES (?, ?, ?, ?, ?)`,
		entry.GroupID, entry.ActorID, entry.Action, entry.Detail, entry.CreatedAt)
	if err != nil {
		return fmt.Errorf("append audit entry: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	entry.ID = id
	return nil
}

// AuditEntries returns the audit trail of one group, oldest first.
func (db *DB) AuditEntries(ctx context.Context, groupID string) ([]models.AuditEntry, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT id, group_id, actor_id, action, detail, created_at
		FROM audit_log WHERE group_id = ? ORDER BY id`,
		groupID)
	if err != nil {
		return nil, fmt.Errorf("list audit entries: %w", err)
	}
	defer rows.Close()

	var entries []models.AuditEntry
	for rows.Next() {
		var e models.AuditEntry
		if err := rows.Scan(&e.ID, &e.GroupID, &e.ActorID, &e.Action, &e.Detail, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan audit entry: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
