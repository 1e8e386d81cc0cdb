package service

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"bungalow/internal/availability"
	"bungalow/internal/database"
	"bungalow/internal/events"
	"bungalow/internal/models"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockStore struct {
	mock.Mock
	// approved backs the GroupCheck callback the way the real store feeds it
	// from the transaction's view of the approved set.
	approved []availability.ApprovedStay
	created  []models.Booking
}

func (m *mockStore) CreateGroup(ctx context.Context, bookings []models.Booking, check database.GroupCheck) error {
	args := m.Called(ctx, bookings, check)
	if args.Error(0) != nil {
		return args.Error(0)
	}
	if check != nil {
		if err := check(m.approved); err != nil {
			return err
		}
	}
	m.created = bookings
	return nil
}

func (m *mockStore) DecideGroup(ctx context.Context, groupID string, status models.BookingStatus,
	actorID int64, reason string, decidedAt time.Time, check database.GroupCheck,
) error {
	args := m.Called(ctx, groupID, status, actorID, reason, decidedAt, check)
	if args.Error(0) != nil {
		return args.Error(0)
	}
	if check != nil {
		return check(m.approved)
	}
	return nil
}

func (m *mockStore) GetGroup(ctx context.Context, groupID string) (*models.BookingGroup, error) {
	args := m.Called(ctx, groupID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.BookingGroup), args.Error(1)
}

func (m *mockStore) ListGroups(ctx context.Context, f database.BookingFilter) ([]models.BookingGroup, error) {
	args := m.Called(ctx, f)
	return args.Get(0).([]models.BookingGroup), args.Error(1)
}

func (m *mockStore) ApprovedStays(ctx context.Context, propertyID int64) ([]availability.ApprovedStay, error) {
	args := m.Called(ctx, propertyID)
	return args.Get(0).([]availability.ApprovedStay), args.Error(1)
}

func (m *mockStore) RoomTypes(ctx context.Context, propertyID int64, activeOnly bool) ([]models.RoomType, error) {
	args := m.Called(ctx, propertyID, activeOnly)
	return args.Get(0).([]models.RoomType), args.Error(1)
}

func (m *mockStore) InsertPaymentProof(ctx context.Context, proof *models.PaymentProof) error {
	return m.Called(ctx, proof).Error(0)
}

func (m *mockStore) LatestPaymentProof(ctx context.Context, groupID string) (*models.PaymentProof, error) {
	args := m.Called(ctx, groupID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.PaymentProof), args.Error(1)
}

func (m *mockStore) AppendAudit(ctx context.Context, entry *models.AuditEntry) error {
	return m.Called(ctx, entry).Error(0)
}

type mockCache struct {
	mock.Mock
}

func (m *mockCache) Get(ctx context.Context, propertyID int64) ([]availability.ApprovedStay, bool) {
	args := m.Called(ctx, propertyID)
	if args.Get(0) == nil {
		return nil, args.Bool(1)
	}
	return args.Get(0).([]availability.ApprovedStay), args.Bool(1)
}

func (m *mockCache) Set(ctx context.Context, propertyID int64, stays []availability.ApprovedStay) {
	m.Called(ctx, propertyID, stays)
}

func (m *mockCache) Invalidate(ctx context.Context, propertyID int64) {
	m.Called(ctx, propertyID)
}

func testLogger() zerolog.Logger {
	return zerolog.New(io.Discard)
}

func familyRoomTypes() []models.RoomType {
	return []models.RoomType{
		{ID: 1, PropertyID: 7, Name: "Family Room", TotalUnits: 2, MaxOccupants: 4, PricePerGuest: 1000, IsActive: true},
	}
}

func pendingGroup() *models.BookingGroup {
	return &models.BookingGroup{
		GroupID:      "group-1",
		PropertyID:   7,
		CheckInDate:  "2024-06-12",
		CheckOutDate: "2024-06-14",
		CheckInTime:  "10:00",
		Status:       models.StatusPending,
		Rows: []models.Booking{
			{GroupID: "group-1", PropertyID: 7, RoomTypeID: 1, Units: 1, Guests: 2, Status: models.StatusPending},
		},
	}
}

func newTestService(store *mockStore, cache StayCache, bus Publisher) *BookingService {
	svc := NewBookingService(store, cache, bus, testLogger())
	svc.now = func() time.Time { return time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC) }
	svc.newID = func() string { return "group-1" }
	return svc
}

func TestBookingService_Create(t *testing.T) {
	ctx := context.Background()

	t.Run("accepted", func(t *testing.T) {
		store := new(mockStore)
		bus := events.NewBus()
		var published []events.Event
		bus.Subscribe(events.TypeBookingCreated, func(e events.Event) { published = append(published, e) })

		svc := newTestService(store, nil, bus)

		store.On("RoomTypes", ctx, int64(7), true).Return(familyRoomTypes(), nil).Once()
		store.On("CreateGroup", ctx, mock.Anything, mock.Anything).Return(nil).Once()
		store.On("GetGroup", ctx, "group-1").Return(pendingGroup(), nil).Once()

		result, err := svc.Create(ctx, CreateRequest{
			RequesterID:  42,
			PropertyID:   7,
			CheckInDate:  "2024-06-12",
			CheckOutDate: "2024-06-14",
			CheckInTime:  "10:00",
			Purpose:      "field inspection",
			Selections:   []availability.RoomSelection{{RoomTypeID: 1, Units: 1, Guests: 2}},
		})
		require.NoError(t, err)
		assert.Equal(t, 2, result.Quote.Nights)
		assert.Equal(t, int64(4000), result.Quote.TotalPrice)

		require.Len(t, store.created, 1)
		assert.Equal(t, "group-1", store.created[0].GroupID)
		assert.Equal(t, models.StatusPending, store.created[0].Status)

		require.Len(t, published, 1)
		assert.Equal(t, "group-1", published[0].GroupID)
		store.AssertExpectations(t)
	})

	t.Run("rejected by create-time validation", func(t *testing.T) {
		store := new(mockStore)
		// The transaction sees an approved stay that overlaps the candidate.
		store.approved = []availability.ApprovedStay{
			{GroupID: "other", CheckInDate: "2024-06-11", CheckOutDate: "2024-06-13", CheckInTime: "10:00"},
		}
		svc := newTestService(store, nil, nil)

		store.On("RoomTypes", ctx, int64(7), true).Return(familyRoomTypes(), nil).Once()
		store.On("CreateGroup", ctx, mock.Anything, mock.Anything).Return(nil).Once()

		_, err := svc.Create(ctx, CreateRequest{
			RequesterID:  42,
			PropertyID:   7,
			CheckInDate:  "2024-06-12",
			CheckOutDate: "2024-06-14",
			CheckInTime:  "10:00",
			Selections:   []availability.RoomSelection{{RoomTypeID: 1, Units: 1, Guests: 2}},
		})
		require.Error(t, err)

		var verr *availability.ValidationError
		require.ErrorAs(t, err, &verr)
		assert.Equal(t, availability.CodeOverlap, verr.Code)
		assert.Nil(t, store.created, "no rows may be written on rejection")
		store.AssertNotCalled(t, "GetGroup", mock.Anything, mock.Anything)
	})
}

func TestBookingService_Approve(t *testing.T) {
	ctx := context.Background()

	t.Run("success invalidates cache and audits", func(t *testing.T) {
		store := new(mockStore)
		cache := new(mockCache)
		bus := events.NewBus()
		var published []events.Event
		bus.Subscribe(events.TypeBookingApproved, func(e events.Event) { published = append(published, e) })

		svc := newTestService(store, cache, bus)
		group := pendingGroup()
		approved := pendingGroup()
		approved.Status = models.StatusApproved

		store.On("GetGroup", ctx, "group-1").Return(group, nil).Once()
		store.On("DecideGroup", ctx, "group-1", models.StatusApproved, int64(9), "", mock.Anything, mock.Anything).Return(nil).Once()
		store.On("AppendAudit", ctx, mock.Anything).Return(nil).Once()
		cache.On("Invalidate", ctx, int64(7)).Once()
		store.On("GetGroup", ctx, "group-1").Return(approved, nil).Once()

		got, err := svc.Approve(ctx, "group-1", 9)
		require.NoError(t, err)
		assert.Equal(t, models.StatusApproved, got.Status)
		require.Len(t, published, 1)
		assert.Equal(t, int64(9), published[0].ActorID)
		store.AssertExpectations(t)
		cache.AssertExpectations(t)
	})

	t.Run("already decided", func(t *testing.T) {
		store := new(mockStore)
		svc := newTestService(store, nil, nil)

		group := pendingGroup()
		group.Status = models.StatusRejected
		store.On("GetGroup", ctx, "group-1").Return(group, nil).Once()

		_, err := svc.Approve(ctx, "group-1", 9)
		assert.ErrorIs(t, err, ErrInvalidTransition)
		store.AssertNotCalled(t, "DecideGroup", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("lost race to concurrent decision", func(t *testing.T) {
		store := new(mockStore)
		svc := newTestService(store, nil, nil)

		store.On("GetGroup", ctx, "group-1").Return(pendingGroup(), nil).Once()
		store.On("DecideGroup", ctx, "group-1", models.StatusApproved, int64(9), "", mock.Anything, mock.Anything).
			Return(database.ErrNotPending).Once()

		_, err := svc.Approve(ctx, "group-1", 9)
		assert.ErrorIs(t, err, ErrInvalidTransition)
	})

	t.Run("conflicting group approved first", func(t *testing.T) {
		store := new(mockStore)
		store.approved = []availability.ApprovedStay{
			{GroupID: "winner", CheckInDate: "2024-06-12", CheckOutDate: "2024-06-15", CheckInTime: "10:00"},
		}
		svc := newTestService(store, nil, nil)

		store.On("GetGroup", ctx, "group-1").Return(pendingGroup(), nil).Once()
		store.On("DecideGroup", ctx, "group-1", models.StatusApproved, int64(9), "", mock.Anything, mock.Anything).Return(nil).Once()

		_, err := svc.Approve(ctx, "group-1", 9)
		var verr *availability.ValidationError
		require.ErrorAs(t, err, &verr)
		assert.Equal(t, availability.CodeOverlap, verr.Code)
	})
}

func TestBookingService_Reject(t *testing.T) {
	ctx := context.Background()

	t.Run("requires a reason", func(t *testing.T) {
		store := new(mockStore)
		svc := newTestService(store, nil, nil)

		_, err := svc.Reject(ctx, "group-1", 9, "")
		assert.ErrorIs(t, err, ErrEmptyReason)
		store.AssertNotCalled(t, "GetGroup", mock.Anything, mock.Anything)
	})

	t.Run("success", func(t *testing.T) {
		store := new(mockStore)
		cache := new(mockCache)
		svc := newTestService(store, cache, nil)

		group := pendingGroup()
		rejected := pendingGroup()
		rejected.Status = models.StatusRejected
		rejected.RejectReason = "dates no longer offered"

		store.On("GetGroup", ctx, "group-1").Return(group, nil).Once()
		store.On("DecideGroup", ctx, "group-1", models.StatusRejected, int64(9), "dates no longer offered", mock.Anything, mock.Anything).Return(nil).Once()
		store.On("AppendAudit", ctx, mock.Anything).Return(nil).Once()
		store.On("GetGroup", ctx, "group-1").Return(rejected, nil).Once()

		got, err := svc.Reject(ctx, "group-1", 9, "dates no longer offered")
		require.NoError(t, err)
		assert.Equal(t, models.StatusRejected, got.Status)
		// Rejections do not change the availability projection.
		cache.AssertNotCalled(t, "Invalidate", mock.Anything, mock.Anything)
	})
}

func TestBookingService_AttachPaymentProof(t *testing.T) {
	ctx := context.Background()

	t.Run("allowed on a rejected group", func(t *testing.T) {
		store := new(mockStore)
		svc := newTestService(store, nil, nil)

		group := pendingGroup()
		group.Status = models.StatusRejected
		store.On("GetGroup", ctx, "group-1").Return(group, nil).Once()
		store.On("InsertPaymentProof", ctx, mock.Anything).Return(nil).Once()

		proof, err := svc.AttachPaymentProof(ctx, "group-1", 4000, "bank_transfer", "slips/abc.jpg")
		require.NoError(t, err)
		assert.Equal(t, "group-1", proof.GroupID)
		assert.Equal(t, int64(4000), proof.Amount)
	})

	t.Run("file reference required", func(t *testing.T) {
		store := new(mockStore)
		svc := newTestService(store, nil, nil)

		_, err := svc.AttachPaymentProof(ctx, "group-1", 4000, "bank_transfer", "")
		assert.Error(t, err)
	})

	t.Run("unknown group", func(t *testing.T) {
		store := new(mockStore)
		svc := newTestService(store, nil, nil)

		store.On("GetGroup", ctx, "missing").Return(nil, database.ErrNotFound).Once()
		_, err := svc.AttachPaymentProof(ctx, "missing", 4000, "cash", "slips/abc.jpg")
		assert.ErrorIs(t, err, database.ErrNotFound)
	})
}

func TestBookingService_AvailabilityIndex(t *testing.T) {
	ctx := context.Background()
	stays := []availability.ApprovedStay{
		{GroupID: "g1", CheckInDate: "2024-06-10", CheckOutDate: "2024-06-12", CheckInTime: "10:00"},
	}

	t.Run("cache hit skips store", func(t *testing.T) {
		store := new(mockStore)
		cache := new(mockCache)
		svc := newTestService(store, cache, nil)

		cache.On("Get", ctx, int64(7)).Return(stays, true).Once()

		idx, err := svc.AvailabilityIndex(ctx, 7)
		require.NoError(t, err)
		assert.True(t, idx.DayBlocked("2024-06-10"))
		store.AssertNotCalled(t, "ApprovedStays", mock.Anything, mock.Anything)
	})

	t.Run("cache miss loads store and fills cache", func(t *testing.T) {
		store := new(mockStore)
		cache := new(mockCache)
		svc := newTestService(store, cache, nil)

		cache.On("Get", ctx, int64(7)).Return(nil, false).Once()
		store.On("ApprovedStays", ctx, int64(7)).Return(stays, nil).Once()
		cache.On("Set", ctx, int64(7), stays).Once()

		idx, err := svc.AvailabilityIndex(ctx, 7)
		require.NoError(t, err)
		assert.True(t, idx.DayBlocked("2024-06-11"))
		cache.AssertExpectations(t)
	})

	t.Run("store failure propagates", func(t *testing.T) {
		store := new(mockStore)
		svc := newTestService(store, nil, nil)

		store.On("ApprovedStays", ctx, int64(7)).Return([]availability.ApprovedStay(nil), errors.New("db down")).Once()
		_, err := svc.AvailabilityIndex(ctx, 7)
		assert.Error(t, err)
	})
}
