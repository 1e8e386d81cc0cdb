package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"bungalow/internal/models"
)

// ListProperties returns properties with their room types. Inactive
// properties and room types are included only when includeInactive is set.
func (db *DB) ListProperties(ctx context.Context, includeInactive bool) ([]models.Property, error) {
	query := `SELECT id, name, city, street, is_active, created_at, updated_at FROM properties`
	if !includeInactive {
		query += ` WHERE is_active = 1`
	}
	query += ` ORDER BY name, id`

	rows, err := db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list properties: %w", err)
	}
	defer rows.Close()

	var properties []models.Property
	for rows.Next() {
		var p models.Property
		if err := rows.Scan(&p.ID, &p.Name, &p.City, &p.Street, &p.IsActive, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan property: %w", err)
		}
		properties = append(properties, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range properties {
		roomTypes, err := db.RoomTypes(ctx, properties[i].ID, !includeInactive)
		if err != nil {
			return nil, err
		}
		properties[i].RoomTypes = roomTypes
	}
	return properties, nil
}

// GetProperty returns one property with all its room types, active or not.
func (db *DB) GetProperty(ctx context.Context, id int64) (*models.Property, error) {
	var p models.Property
	err := db.QueryRowContext(ctx,
		`SELECT id, name, city, street, is_active, created_at, updated_at FROM properties WHERE id = ?`,
		id,
	).Scan(&p.ID, &p.Name, &p.City, &p.Street, &p.IsActive, &p.CreatedAt, &p.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get property %d: %w", id, err)
	}

	roomTypes, err := db.RoomTypes(ctx, id, false)
	if err != nil {
		return nil, err
	}
	p.RoomTypes = roomTypes
	return &p, nil
}

// RoomTypes returns the room types of a property.
func (db *DB) RoomTypes(ctx context.Context, propertyID int64, activeOnly bool) ([]models.RoomType, error) {
	query := `SELECT id, property_id, name, total_units, max_occupants, price_per_guest, description, is_active, created_at, updated_at
		FROM room_types WHERE property_id = ?`
	if activeOnly {
		query += ` AND is_active = 1`
	}
	query += ` ORDER BY name, id`

	rows, err := db.QueryContext(ctx, query, propertyID)
	if err != nil {
		return nil, fmt.Errorf("list room types: %w", err)
	}
	defer rows.Close()

	var roomTypes []models.RoomType
	for rows.Next() {
		var rt models.RoomType
		if err := rows.Scan(&rt.ID, &rt.PropertyID, &rt.Name, &rt.TotalUnits, &rt.MaxOccupants,
			&rt.PricePerGuest, &rt.Description, &rt.IsActive, &rt.CreatedAt, &rt.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan room type: %w", err)
		}
		roomTypes = append(roomTypes, rt)
	}
	return roomTypes, rows.Err()
}

// SaveProperty inserts or updates a property together with its room types in
// one transaction. Room types follow replace-on-save semantics: existing
// types absent from the submitted set are deactivated, the rest are upserted.
// Deactivation keeps the row so historical bookings stay referable.
func (db *DB) SaveProperty(ctx context.Context, p *models.Property) error {
	now := time.Now().UTC()
	return db.withTx(ctx, func(tx *sql.Tx) error {
		if p.ID == 0 {
			res, err := tx.ExecContext(ctx,
				`INSERT INTO properties (name, city, street, is_active, created_at, updated_at) VALUES (?, ?, ?, 1, ?, ?)`,
				p.Name, p.City, p.Street, now, now)
			if err != nil {
				return fmt.Errorf("insert property: %w", err)
			}
			id, err := res.LastInsertId()
			if err != nil {
				return err
			}
			p.ID = id
		} else {
			res, err := tx.ExecContext(ctx,
				`UPDATE properties SET name = ?, city = ?, street = ?, updated_at = ? WHERE id = ?`,
				p.Name, p.City, p.Street, now, p.ID)
			if err != nil {
				return fmt.Errorf("update property: %w", err)
			}
			affected, err := res.RowsAffected()
			if err != nil {
				return err
			}
			if affected == 0 {
				return ErrNotFound
			}
		}

		submitted := make(map[int64]bool)
		for i := range p.RoomTypes {
			rt := &p.RoomTypes[i]
			rt.PropertyID = p.ID
			if rt.ID == 0 {
				res, err := tx.ExecContext(ctx,
					`INSERT INTO room_types (property_id, name, total_units, max_occupants, price_per_guest, description, is_active, created_at, updated_at)
					VALUES (?, ?, ?, ?, ?, ?, 1, ?, ?)`,
					rt.PropertyID, rt.Name, rt.TotalUnits, rt.MaxOccupants, rt.PricePerGuest, rt.Description, now, now)
				if err != nil {
					return fmt.Errorf("insert room type %q: %w", rt.Name, err)
				}
				id, err := res.LastInsertId()
				if err != nil {
					return err
				}
				rt.ID = id
			} else {
				_, err := tx.ExecContext(ctx,
					`UPDATE room_types SET name = ?, total_units = ?, max_occupants = ?, price_per_guest = ?, description = ?, is_active = 1, updated_at = ?
					WHERE id = ? AND property_id = ?`,
					rt.Name, rt.TotalUnits, rt.MaxOccupants, rt.PricePerGuest, rt.Description, now, rt.ID, p.ID)
				if err != nil {
					return fmt.Errorf("update room type %d: %w", rt.ID, err)
				}
			}
			submitted[rt.ID] = true
		}

		rows, err := tx.QueryContext(ctx, `SELECT id FROM room_types WHERE property_id = ? AND is_active = 1`, p.ID)
		if err != nil {
			return fmt.Errorf("list existing room types: %w", err)
		}
		var toDeactivate []int64
		for rows.Next() {
			var id int64
			if err := rows.Scan(&id); err != nil {
				rows.Close()
				return err
			}
			if !submitted[id] {
				toDeactivate = append(toDeactivate, id)
			}
		}
		rows.Close()
		if err := rows.Err(); err != nil {
			return err
		}

		for _, id := range toDeactivate {
			if _, err := tx.ExecContext(ctx,
				`UPDATE room_types SET is_active = 0, updated_at = ? WHERE id = ?`, now, id); err != nil {
				return fmt.Errorf("deactivate room type %d: %w", id, err)
			}
		}
		return nil
	})
}

// DeactivateProperty soft-deletes a property.
func (db *DB) DeactivateProperty(ctx context.Context, id int64) error {
	res, err := db.ExecContext(ctx,
		`UPDATE properties SET is_active = 0, updated_at = ? WHERE id = ?`, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("deactivate property %d: %w", id, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}
