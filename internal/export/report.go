// Package export builds Excel workbooks of booking activity for admins.
package export

import (
	"context"
	"fmt"
	"io"
	"strings"

	"bungalow/internal/database"
	"bungalow/internal/models"

	"github.com/rs/zerolog"
	"github.com/xuri/excelize/v2"
)

// Store is the read surface the reporter needs.
type Store interface {
	ListProperties(ctx context.Context, includeInactive bool) ([]models.Property, error)
	ListGroups(ctx context.Context, f database.BookingFilter) ([]models.BookingGroup, error)
}

// Reporter renders booking workbooks, one sheet per property.
type Reporter struct {
	store  Store
	logger zerolog.Logger
}

func NewReporter(store Store, logger zerolog.Logger) *Reporter {
	return &Reporter{
		store:  store,
		logger: logger.With().Str("component", "export").Logger(),
	}
}

var bookingColumns = []string{
	"Group ID", "Status", "Check-in", "Check-out", "Check-in time",
	"Rooms", "Guests", "Purpose", "Requester", "Decided by", "Reject reason", "Created",
}

// Write renders the bookings workbook for the given check-in date range
// (either bound may be empty) into w.
func (r *Reporter) Write(ctx context.Context, w io.Writer, fromDate, toDate string) error {
	f, err := r.workbook(ctx, fromDate, toDate)
	if err != nil {
		return err
	}
	defer f.Close()
	return f.Write(w)
}

func (r *Reporter) workbook(ctx context.Context, fromDate, toDate string) (*excelize.File, error) {
	properties, err := r.store.ListProperties(ctx, true)
	if err != nil {
		return nil, fmt.Errorf("list properties: %w", err)
	}

	f := excelize.NewFile()
	headerStyle, _ := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})

	first := true
	for _, property := range properties {
		groups, err := r.store.ListGroups(ctx, database.BookingFilter{
			PropertyID: property.ID,
			FromDate:   fromDate,
			ToDate:     toDate,
		})
		if err != nil {
			f.Close()
			return nil, fmt.Errorf("list bookings for property %d: %w", property.ID, err)
		}

		sheet := sheetName(property.Name)
		if first {
			// Rename the default sheet instead of leaving an empty Sheet1.
			f.SetSheetName("Sheet1", sheet)
			first = false
		} else {
			if _, err := f.NewSheet(sheet); err != nil {
				f.Close()
				return nil, fmt.Errorf("create sheet %s: %w", sheet, err)
			}
		}

		if err := writeRow(f, sheet, 1, toAny(bookingColumns)); err != nil {
			f.Close()
			return nil, err
		}
		endCell, _ := excelize.CoordinatesToCellName(len(bookingColumns), 1)
		_ = f.SetCellStyle(sheet, "A1", endCell, headerStyle)

		for i, group := range groups {
			if err := writeRow(f, sheet, i+2, groupRowValues(&group)); err != nil {
				f.Close()
				return nil, err
			}
		}
	}

	if first {
		// No properties at all; keep a readable empty workbook.
		f.SetSheetName("Sheet1", "Bookings")
		_ = writeRow(f, "Bookings", 1, toAny(bookingColumns))
	}

	r.logger.Debug().Str("from", fromDate).Str("to", toDate).Msg("bookings workbook built")
	return f, nil
}

func writeRow(f *excelize.File, sheet string, row int, values []any) error {
	for i, val := range values {
		cell, err := excelize.CoordinatesToCellName(i+1, row)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(sheet, cell, val); err != nil {
			return err
		}
	}
	return nil
}

func groupRowValues(group *models.BookingGroup) []any {
	var rooms []string
	units := 0
	for _, row := range group.Rows {
		rooms = append(rooms, fmt.Sprintf("type %d ×%d", row.RoomTypeID, row.Units))
		units += row.Units
	}

	decidedBy := ""
	if group.DecidedBy != nil {
		decidedBy = fmt.Sprintf("%d", *group.DecidedBy)
	}

	return []any{
		group.GroupID,
		string(group.Status),
		group.CheckInDate,
		group.CheckOutDate,
		group.CheckInTime,
		strings.Join(rooms, ", "),
		group.TotalGuests(),
		group.Purpose,
		group.RequesterID,
		decidedBy,
		group.RejectReason,
		group.CreatedAt.Format("2006-01-02 15:04"),
	}
}

func toAny(values []string) []any {
	out := make([]any, len(values))
	for i, v := range values {
		out[i] = v
	}
	return out
}

// sheetName truncates to the 31-char Excel sheet name limit.
func sheetName(name string) string {
	if len(name) > 31 {
		return name[:31]
	}
	return name
}
