package export

import (
	"bytes"
	"context"
	"io"
	"testing"
	"time"

	"bungalow/internal/database"
	"bungalow/internal/models"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

type fakeStore struct {
	properties []models.Property
	groups     map[int64][]models.BookingGroup
}

func (f *fakeStore) ListProperties(context.Context, bool) ([]models.Property, error) {
	return f.properties, nil
}

func (f *fakeStore) ListGroups(_ context.Context, filter database.BookingFilter) ([]models.BookingGroup, error) {
	return f.groups[filter.PropertyID], nil
}

func TestReporterWrite(t *testing.T) {
	decidedBy := int64(9)
	store := &fakeStore{
		properties: []models.Property{
			{ID: 1, Name: "Khao Yai Circuit House"},
			{ID: 2, Name: "Sepang Lodge"},
		},
		groups: map[int64][]models.BookingGroup{
			1: {
				{
					GroupID:      "g1",
					RequesterID:  7,
					Status:       models.StatusApproved,
					CheckInDate:  "2026-03-10",
					CheckOutDate: "2026-03-12",
					CheckInTime:  "10:00",
					Purpose:      "race weekend",
					DecidedBy:    &decidedBy,
					CreatedAt:    time.Date(2026, 3, 1, 8, 30, 0, 0, time.UTC),
					Rows: []models.Booking{
						{RoomTypeID: 1, Units: 1, Guests: 2},
						{RoomTypeID: 2, Units: 2, Guests: 2},
					},
				},
			},
		},
	}

	var buf bytes.Buffer
	reporter := NewReporter(store, zerolog.New(io.Discard))
	require.NoError(t, reporter.Write(context.Background(), &buf, "", ""))

	f, err := excelize.OpenReader(bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)
	defer f.Close()

	assert.ElementsMatch(t, []string{"Khao Yai Circuit House", "Sepang Lodge"}, f.GetSheetList())

	rows, err := f.GetRows("Khao Yai Circuit House")
	require.NoError(t, err)
	require.Len(t, rows, 2)

	assert.Equal(t, "Group ID", rows[0][0])
	assert.Equal(t, "g1", rows[1][0])
	assert.Equal(t, "approved", rows[1][1])
	assert.Equal(t, "type 1 ×1, type 2 ×2", rows[1][5])
	assert.Equal(t, "4", rows[1][6])
	assert.Equal(t, "9", rows[1][9])
	assert.Equal(t, "2026-03-01 08:30", rows[1][11])

	// A property with no bookings still gets a sheet with just the header.
	rows, err = f.GetRows("Sepang Lodge")
	require.NoError(t, err)
	assert.Len(t, rows, 1)
}

func TestReporterWrite_NoProperties(t *testing.T) {
	var buf bytes.Buffer
	reporter := NewReporter(&fakeStore{}, zerolog.New(io.Discard))
	require.NoError(t, reporter.Write(context.Background(), &buf, "", ""))

	f, err := excelize.OpenReader(bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{"Bookings"}, f.GetSheetList())
}

func TestSheetName(t *testing.T) {
	assert.Equal(t, "Short", sheetName("Short"))
	long := "An Exceptionally Long Property Name That Overflows"
	assert.Len(t, sheetName(long), 31)
}
