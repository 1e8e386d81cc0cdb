package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"bungalow/internal/availability"
	"bungalow/internal/models"
)

// GroupCheck re-validates a candidate against the approved stays read inside
// the same transaction that writes the rows. It closes the time-of-check to
// time-of-use gap: the decision and the write share one isolation scope.
type GroupCheck func(approved []availability.ApprovedStay) error

// BookingFilter narrows ListGroups results.
type BookingFilter struct {
	PropertyID int64
	Status     models.BookingStatus
	FromDate   string // YYYY-MM-DD, matched against check_in_date
	ToDate     string
}

func approvedStaysTx(ctx context.Context, tx *sql.Tx, propertyID int64) ([]availability.ApprovedStay, error) {
	rows, err := tx.QueryContext(ctx,
		`SELECT group_id, check_in_date, check_out_date, check_in_time
		FROM bookings WHERE property_id = ? AND status = ?
		GROUP BY group_id`,
		propertyID, models.StatusApproved)
	if err != nil {
		return nil, fmt.Errorf("load approved stays: %w", err)
	}
	defer rows.Close()

	var stays []availability.ApprovedStay
	for rows.Next() {
		var s availability.ApprovedStay
		if err := rows.Scan(&s.GroupID, &s.CheckInDate, &s.CheckOutDate, &s.CheckInTime); err != nil {
			return nil, fmt.Errorf("scan approved stay: %w", err)
		}
		stays = append(stays, s)
	}
	return stays, rows.Err()
}

// ApprovedStays returns one entry per approved booking group of a property.
func (db *DB) ApprovedStays(ctx context.Context, propertyID int64) ([]availability.ApprovedStay, error) {
	var stays []availability.ApprovedStay
	err := db.withTx(ctx, func(tx *sql.Tx) error {
		var err error
		stays, err = approvedStaysTx(ctx, tx, propertyID)
		return err
	})
	return stays, err
}

// CreateGroup atomically inserts all rows of a booking group. The check
// callback runs first, against the approved set as of this transaction; if it
// fails, nothing is written. A partially inserted group is never visible.
func (db *DB) CreateGroup(ctx context.Context, bookings []models.Booking, check GroupCheck) error {
	if len(bookings) == 0 {
		return fmt.Errorf("empty booking group")
	}
	return db.withTx(ctx, func(tx *sql.Tx) error {
		if check != nil {
			approved, err := approvedStaysTx(ctx, tx, bookings[0].PropertyID)
			if err != nil {
				return err
			}
			if err := check(approved); err != nil {
				return err
			}
		}

		for i := range bookings {
			b := &bookings[i]
			res, err := tx.ExecContext(ctx,
				`INSERT INTO bookings (group_id, requester_id, property_id, room_type_id,
					check_in_date, check_out_date, check_in_time, units, guests, purpose,
					status, created_at, updated_at, version)
				VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, 1)`,
				b.GroupID, b.RequesterID, b.PropertyID, b.RoomTypeID,
				b.CheckInDate, b.CheckOutDate, b.CheckInTime, b.Units, b.Guests, b.Purpose,
				b.Status, b.CreatedAt, b.UpdatedAt)
			if err != nil {
				return fmt.Errorf("insert booking row for room type %d: %w", b.RoomTypeID, err)
			}
			id, err := res.LastInsertId()
			if err != nil {
				return err
			}
			b.ID = id
		}
		return nil
	})
}

// DecideGroup transitions every row of a pending group to the given terminal
// status, atomically. For approvals the check callback re-validates the group
// against the approved set inside the transaction (the pending group itself
// is not part of that set). Returns ErrNotFound if the group does not exist,
// ErrNotPending if it was already decided, and ErrConflict if the update did
// not reach every row.
func (db *DB) DecideGroup(ctx context.Context, groupID string, status models.BookingStatus,
	actorID int64, reason string, decidedAt time.Time, check GroupCheck,
) error {
	return db.withTx(ctx, func(tx *sql.Tx) error {
		var total, pending int
		var propertyID int64
		err := tx.QueryRowContext(ctx,
			`SELECT COUNT(*), COALESCE(SUM(status = ?), 0), COALESCE(MAX(property_id), 0) FROM bookings WHERE group_id = ?`,
			models.StatusPending, groupID,
		).Scan(&total, &pending, &propertyID)
		if err != nil {
			return fmt.Errorf("inspect group %s: %w", groupID, err)
		}
		if total == 0 {
			return ErrNotFound
		}
		if pending != total {
			return ErrNotPending
		}

		if check != nil {
			approved, err := approvedStaysTx(ctx, tx, propertyID)
			if err != nil {
				return err
			}
			if err := check(approved); err != nil {
				return err
			}
		}

		res, err := tx.ExecContext(ctx,
			`UPDATE bookings SET status = ?, reject_reason = ?, decided_by = ?, decided_at = ?,
				updated_at = ?, version = version + 1
			WHERE group_id = ? AND status = ?`,
			status, reason, actorID, decidedAt, decidedAt, groupID, models.StatusPending)
		if err != nil {
			return fmt.Errorf("update group %s: %w", groupID, err)
		}
		affected, err := res.RowsAffected()
		if err != nil {
			return err
		}
		if int(affected) != total {
			// Another transaction got between the inspect and the update.
			return ErrConflict
		}
		return nil
	})
}

// GetGroup assembles a booking group from its rows.
func (db *DB) GetGroup(ctx context.Context, groupID string) (*models.BookingGroup, error) {
	rows, err := db.QueryContext(ctx, bookingSelect+` WHERE group_id = ? ORDER BY id`, groupID)
	if err != nil {
		return nil, fmt.Errorf("get group %s: %w", groupID, err)
	}
	defer rows.Close()

	bookings, err := scanBookings(rows)
	if err != nil {
		return nil, err
	}
	if len(bookings) == 0 {
		return nil, ErrNotFound
	}
	return groupFromRows(bookings), nil
}

// ListGroups returns booking groups matching the filter, newest first.
func (db *DB) ListGroups(ctx context.Context, f BookingFilter) ([]models.BookingGroup, error) {
	query := bookingSelect + ` WHERE 1 = 1`
	var args []any
	if f.PropertyID != 0 {
		query += ` AND property_id = ?`
		args = append(args, f.PropertyID)
	}
	if f.Status != "" {
		query += ` AND status = ?`
		args = append(args, f.Status)
	}
	if f.FromDate != "" {
		query += ` AND check_in_date >= ?`
		args = append(args, f.FromDate)
	}
	if f.ToDate != "" {
		query += ` AND check_in_date <= ?`
		args = append(args, f.ToDate)
	}
	query += ` ORDER BY created_at DESC, group_id, id`

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list bookings: %w", err)
	}
	defer rows.Close()

	bookings, err := scanBookings(rows)
	if err != nil {
		return nil, err
	}

	var groups []models.BookingGroup
	byID := make(map[string]int)
	for _, b := range bookings {
		if i, ok := byID[b.GroupID]; ok {
			groups[i].Rows = append(groups[i].Rows, b)
			continue
		}
		byID[b.GroupID] = len(groups)
		groups = append(groups, *groupFromRows([]models.Booking{b}))
	}
	return groups, nil
}

const bookingSelect = `SELECT id, group_id, requester_id, property_id, room_type_id,
	check_in_date, check_out_date, check_in_time, units, guests, purpose,
	status, reject_reason, decided_by, decided_at, created_at, updated_at, version
	FROM bookings`

func scanBookings(rows *sql.Rows) ([]models.Booking, error) {
	var bookings []models.Booking
	for rows.Next() {
		var b models.Booking
		var decidedBy sql.NullInt64
		var decidedAt sql.NullTime
		if err := rows.Scan(&b.ID, &b.GroupID, &b.RequesterID, &b.PropertyID, &b.RoomTypeID,
			&b.CheckInDate, &b.CheckOutDate, &b.CheckInTime, &b.Units, &b.Guests, &b.Purpose,
			&b.Status, &b.RejectReason, &decidedBy, &decidedAt, &b.CreatedAt, &b.UpdatedAt, &b.Version); err != nil {
			return nil, fmt.Errorf("scan booking: %w", err)
		}
		if decidedBy.Valid {
			b.DecidedBy = &decidedBy.Int64
		}
		if decidedAt.Valid {
			t := decidedAt.Time
			b.DecidedAt = &t
		}
		bookings = append(bookings, b)
	}
	return bookings, rows.Err()
}

func groupFromRows(bookings []models.Booking) *models.BookingGroup {
	first := bookings[0]
	return &models.BookingGroup{
		GroupID:      first.GroupID,
		RequesterID:  first.RequesterID,
		PropertyID:   first.PropertyID,
		CheckInDate:  first.CheckInDate,
		CheckOutDate: first.CheckOutDate,
		CheckInTime:  first.CheckInTime,
		Purpose:      first.Purpose,
		Status:       first.Status,
		RejectReason: first.RejectReason,
		DecidedBy:    first.DecidedBy,
		DecidedAt:    first.DecidedAt,
		CreatedAt:    first.CreatedAt,
		Rows:         bookings,
	}
}
