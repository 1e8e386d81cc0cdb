package availability

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testRoomTypes() map[int64]RoomTypeInfo {
	return map[int64]RoomTypeInfo{
		1: {ID: 1, Name: "Family Room", TotalUnits: 2, MaxOccupants: 4, PricePerGuest: 1000, Active: true},
		2: {ID: 2, Name: "Single Room", TotalUnits: 5, MaxOccupants: 1, PricePerGuest: 500, Active: true},
		3: {ID: 3, Name: "Old Wing", TotalUnits: 3, MaxOccupants: 2, PricePerGuest: 300, Active: false},
	}
}

func emptyIndex(t *testing.T) *Index {
	t.Helper()
	idx, err := BuildIndex(nil)
	require.NoError(t, err)
	return idx
}

func TestValidate_CheckOrdering(t *testing.T) {
	// Index with one approved stay 2024-06-10 -> 2024-06-12 at 10:00.
	idx, err := BuildIndex([]ApprovedStay{
		{GroupID: "g1", CheckInDate: "2024-06-10", CheckOutDate: "2024-06-12", CheckInTime: "10:00"},
	})
	require.NoError(t, err)

	tests := []struct {
		name     string
		req      Request
		wantCode string
	}{
		{
			name:     "missing check-in date",
			req:      Request{CheckOutDate: "2024-06-14", CheckInTime: "10:00"},
			wantCode: CodeMissingField,
		},
		{
			name:     "missing check-out date",
			req:      Request{CheckInDate: "2024-06-12", CheckInTime: "10:00"},
			wantCode: CodeMissingField,
		},
		{
			name:     "missing check-in time has no default at submission",
			req:      Request{CheckInDate: "2024-06-12", CheckOutDate: "2024-06-14"},
			wantCode: CodeMissingField,
		},
		{
			name: "checkout before check-in",
			req: Request{
				CheckInDate: "2024-06-14", CheckOutDate: "2024-06-12", CheckInTime: "10:00",
				Selections: []RoomSelection{{RoomTypeID: 1, Units: 1, Guests: 2}},
			},
			wantCode: CodeInvalidDates,
		},
		{
			name: "zero nights",
			req: Request{
				CheckInDate: "2024-06-14", CheckOutDate: "2024-06-14", CheckInTime: "10:00",
				Selections: []RoomSelection{{RoomTypeID: 1, Units: 1, Guests: 2}},
			},
			wantCode: CodeInvalidDates,
		},
		{
			name: "check-in before checkout cutoff",
			req: Request{
				CheckInDate: "2024-06-12", CheckOutDate: "2024-06-14", CheckInTime: "09:00",
				Selections: []RoomSelection{{RoomTypeID: 1, Units: 1, Guests: 2}},
			},
			wantCode: CodeBeforeCutoff,
		},
		{
			name: "overlaps approved stay",
			req: Request{
				CheckInDate: "2024-06-11", CheckOutDate: "2024-06-13", CheckInTime: "10:00",
				Selections: []RoomSelection{{RoomTypeID: 1, Units: 1, Guests: 2}},
			},
			wantCode: CodeOverlap,
		},
		{
			name: "cutoff wins over capacity: ordering is deterministic",
			req: Request{
				CheckInDate: "2024-06-12", CheckOutDate: "2024-06-14", CheckInTime: "09:00",
				Selections: []RoomSelection{{RoomTypeID: 1, Units: 99, Guests: 999}},
			},
			wantCode: CodeBeforeCutoff,
		},
		{
			name: "no room selections",
			req: Request{
				CheckInDate: "2024-06-20", CheckOutDate: "2024-06-22", CheckInTime: "10:00",
			},
			wantCode: CodeInvalidSelection,
		},
		{
			name: "unknown room type",
			req: Request{
				CheckInDate: "2024-06-20", CheckOutDate: "2024-06-22", CheckInTime: "10:00",
				Selections: []RoomSelection{{RoomTypeID: 42, Units: 1, Guests: 1}},
			},
			wantCode: CodeInvalidSelection,
		},
		{
			name: "deactivated room type",
			req: Request{
				CheckInDate: "2024-06-20", CheckOutDate: "2024-06-22", CheckInTime: "10:00",
				Selections: []RoomSelection{{RoomTypeID: 3, Units: 1, Guests: 1}},
			},
			wantCode: CodeInvalidSelection,
		},
		{
			name: "more units than exist",
			req: Request{
				CheckInDate: "2024-06-20", CheckOutDate: "2024-06-22", CheckInTime: "10:00",
				Selections: []RoomSelection{{RoomTypeID: 1, Units: 3, Guests: 2}},
			},
			wantCode: CodeCapacityExceeded,
		},
		{
			name: "guests exceed unit capacity",
			req: Request{
				CheckInDate: "2024-06-20", CheckOutDate: "2024-06-22", CheckInTime: "10:00",
				Selections: []RoomSelection{{RoomTypeID: 1, Units: 1, Guests: 5}},
			},
			wantCode: CodeCapacityExceeded,
		},
		{
			name: "zero guests in total",
			req: Request{
				CheckInDate: "2024-06-20", CheckOutDate: "2024-06-22", CheckInTime: "10:00",
				Selections: []RoomSelection{{RoomTypeID: 1, Units: 1, Guests: 0}},
			},
			wantCode: CodeInvalidSelection,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, verr := Validate(tt.req, idx, testRoomTypes())
			require.NotNil(t, verr)
			assert.Equal(t, tt.wantCode, verr.Code, "reason: %s", verr.Reason)
		})
	}
}

func TestValidate_CutoffBoundary(t *testing.T) {
	idx, err := BuildIndex([]ApprovedStay{
		{GroupID: "g1", CheckInDate: "2024-05-01", CheckOutDate: "2024-05-04", CheckInTime: "11:00"},
	})
	require.NoError(t, err)

	req := Request{
		CheckInDate: "2024-05-04", CheckOutDate: "2024-05-06", CheckInTime: "10:30",
		Selections: []RoomSelection{{RoomTypeID: 1, Units: 1, Guests: 2}},
	}
	_, verr := Validate(req, idx, testRoomTypes())
	require.NotNil(t, verr)
	assert.Equal(t, CodeBeforeCutoff, verr.Code)

	// Arriving exactly at the cutoff is allowed.
	req.CheckInTime = "11:00"
	quote, verr := Validate(req, idx, testRoomTypes())
	require.Nil(t, verr)
	assert.Equal(t, 2, quote.Nights)
}

func TestValidate_EndToEndScenario(t *testing.T) {
	// Property with Family Room (2 units, max 4, 1000/guest/night) and an
	// approved stay 2024-06-10 -> 2024-06-12 at 10:00.
	idx, err := BuildIndex([]ApprovedStay{
		{GroupID: "g1", CheckInDate: "2024-06-10", CheckOutDate: "2024-06-12", CheckInTime: "10:00"},
	})
	require.NoError(t, err)

	req := Request{
		CheckInDate: "2024-06-12", CheckOutDate: "2024-06-14", CheckInTime: "09:00",
		Selections: []RoomSelection{{RoomTypeID: 1, Units: 1, Guests: 2}},
	}
	_, verr := Validate(req, idx, testRoomTypes())
	require.NotNil(t, verr)
	assert.Equal(t, CodeBeforeCutoff, verr.Code)

	req.CheckInTime = "10:00"
	quote, verr := Validate(req, idx, testRoomTypes())
	require.Nil(t, verr)
	assert.Equal(t, 2, quote.Nights)
	assert.Equal(t, 2, quote.TotalGuests)
	assert.Equal(t, int64(4000), quote.TotalPrice)
}

func TestValidate_MultiRoomQuote(t *testing.T) {
	req := Request{
		CheckInDate: "2024-06-20", CheckOutDate: "2024-06-23", CheckInTime: "10:00",
		Selections: []RoomSelection{
			{RoomTypeID: 1, Units: 2, Guests: 6},
			{RoomTypeID: 2, Units: 3, Guests: 3},
		},
	}
	quote, verr := Validate(req, emptyIndex(t), testRoomTypes())
	require.Nil(t, verr)
	assert.Equal(t, 3, quote.Nights)
	assert.Equal(t, 9, quote.TotalGuests)
	// (6*1000 + 3*500) * 3 nights
	assert.Equal(t, int64(22500), quote.TotalPrice)
}

func TestValidate_Idempotent(t *testing.T) {
	idx, err := BuildIndex([]ApprovedStay{
		{GroupID: "g1", CheckInDate: "2024-06-10", CheckOutDate: "2024-06-12", CheckInTime: "10:00"},
	})
	require.NoError(t, err)

	req := Request{
		CheckInDate: "2024-06-12", CheckOutDate: "2024-06-14", CheckInTime: "10:00",
		Selections: []RoomSelection{{RoomTypeID: 1, Units: 1, Guests: 2}},
	}
	first, verr1 := Validate(req, idx, testRoomTypes())
	second, verr2 := Validate(req, idx, testRoomTypes())
	assert.Nil(t, verr1)
	assert.Nil(t, verr2)
	assert.Equal(t, first, second)
}
