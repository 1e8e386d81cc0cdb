// Package service implements the booking lifecycle and property catalog
// operations on top of the storage layer.
package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"bungalow/internal/availability"
	"bungalow/internal/database"
	"bungalow/internal/events"
	"bungalow/internal/metrics"
	"bungalow/internal/models"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

var (
	// ErrInvalidTransition is returned when approve/reject targets a group
	// that has already been decided.
	ErrInvalidTransition = errors.New("booking has already been decided")
	// ErrEmptyReason is returned when a rejection carries no reason.
	ErrEmptyReason = errors.New("rejection requires a reason")
)

// Store is the persistence surface the booking service needs.
type Store interface {
	CreateGroup(ctx context.Context, bookings []models.Booking, check database.GroupCheck) error
	DecideGroup(ctx context.Context, groupID string, status models.BookingStatus,
		actorID int64, reason string, decidedAt time.Time, check database.GroupCheck) error
	GetGroup(ctx context.Context, groupID string) (*models.BookingGroup, error)
	ListGroups(ctx context.Context, f database.BookingFilter) ([]models.BookingGroup, error)
	ApprovedStays(ctx context.Context, propertyID int64) ([]availability.ApprovedStay, error)
	RoomTypes(ctx context.Context, propertyID int64, activeOnly bool) ([]models.RoomType, error)
	InsertPaymentProof(ctx context.Context, proof *models.PaymentProof) error
	LatestPaymentProof(ctx context.Context, groupID string) (*models.PaymentProof, error)
	AppendAudit(ctx context.Context, entry *models.AuditEntry) error
}

// StayCache caches approved stays per property for the advisory path.
type StayCache interface {
	Get(ctx context.Context, propertyID int64) ([]availability.ApprovedStay, bool)
	Set(ctx context.Context, propertyID int64, stays []availability.ApprovedStay)
	Invalidate(ctx context.Context, propertyID int64)
}

// Publisher emits domain events.
type Publisher interface {
	Publish(event events.Event)
}

// BookingService governs the booking group lifecycle.
type BookingService struct {
	store  Store
	cache  StayCache // optional
	bus    Publisher // optional
	logger zerolog.Logger
	now    func() time.Time
	newID  func() string
}

func NewBookingService(store Store, cache StayCache, bus Publisher, logger zerolog.Logger) *BookingService {
	return &BookingService{
		store:  store,
		cache:  cache,
		bus:    bus,
		logger: logger.With().Str("component", "booking").Logger(),
		now:    time.Now,
		newID:  uuid.NewString,
	}
}

// CreateRequest is a candidate booking submission.
type CreateRequest struct {
	RequesterID  int64
	PropertyID   int64
	CheckInDate  string
	CheckOutDate string
	CheckInTime  string
	Purpose      string
	Selections   []availability.RoomSelection
}

// CreateResult is the accepted outcome of Create.
type CreateResult struct {
	Group *models.BookingGroup
	Quote availability.Quote
}

// Create validates the candidate request and persists its rows in Pending
// state, one row per room selection, all sharing a fresh group id. Validation
// runs inside the same transaction that writes the rows, against the approved
// set as of that transaction, so a stale client-side check can never slip a
// conflicting stay in. On a validation failure nothing is written and the
// returned error is an *availability.ValidationError.
func (s *BookingService) Create(ctx context.Context, req CreateRequest) (*CreateResult, error) {
	roomTypes, err := s.roomTypeInfo(ctx, req.PropertyID, true)
	if err != nil {
		return nil, err
	}

	candidate := availability.Request{
		CheckInDate:  req.CheckInDate,
		CheckOutDate: req.CheckOutDate,
		CheckInTime:  req.CheckInTime,
		Selections:   req.Selections,
	}

	now := s.now().UTC()
	groupID := s.newID()
	rows := make([]models.Booking, 0, len(req.Selections))
	for _, sel := range req.Selections {
		rows = append(rows, models.Booking{
			GroupID:      groupID,
			RequesterID:  req.RequesterID,
			PropertyID:   req.PropertyID,
			RoomTypeID:   sel.RoomTypeID,
			CheckInDate:  req.CheckInDate,
			CheckOutDate: req.CheckOutDate,
			CheckInTime:  req.CheckInTime,
			Units:        sel.Units,
			Guests:       sel.Guests,
			Purpose:      req.Purpose,
			Status:       models.StatusPending,
			CreatedAt:    now,
			UpdatedAt:    now,
			Version:      1,
		})
	}

	var quote availability.Quote
	err = s.store.CreateGroup(ctx, rows, func(approved []availability.ApprovedStay) error {
		idx, err := availability.BuildIndex(approved)
		if err != nil {
			return err
		}
		q, verr := availability.Validate(candidate, idx, roomTypes)
		if verr != nil {
			return verr
		}
		quote = q
		return nil
	})
	if err != nil {
		var verr *availability.ValidationError
		if errors.As(err, &verr) {
			metrics.IncValidationRejected(verr.Code)
			s.logger.Info().
				Str("code", verr.Code).
				Int64("property_id", req.PropertyID).
				Msg("booking request rejected")
		}
		return nil, err
	}

	metrics.IncBookingCreated(string(models.StatusPending))
	s.publish(events.Event{
		Type:       events.TypeBookingCreated,
		GroupID:    groupID,
		PropertyID: req.PropertyID,
		ActorID:    req.RequesterID,
	})
	s.logger.Info().
		Str("group_id", groupID).
		Int64("property_id", req.PropertyID).
		Int("rooms", len(rows)).
		Msg("booking group created")

	group, err := s.store.GetGroup(ctx, groupID)
	if err != nil {
		return nil, err
	}
	return &CreateResult{Group: group, Quote: quote}, nil
}

// Approve transitions a pending group to Approved. The group's stay is
// re-validated against the currently approved set inside the same transaction
// that flips the rows: if a conflicting group was approved first, this one
// fails with an *availability.ValidationError (first approved wins).
func (s *BookingService) Approve(ctx context.Context, groupID string, actorID int64) (*models.BookingGroup, error) {
	group, err := s.store.GetGroup(ctx, groupID)
	if err != nil {
		return nil, err
	}
	if group.Status.IsTerminal() {
		return nil, ErrInvalidTransition
	}

	decidedAt := s.now().UTC()
	err = s.store.DecideGroup(ctx, groupID, models.StatusApproved, actorID, "", decidedAt,
		func(approved []availability.ApprovedStay) error {
			idx, err := availability.BuildIndex(approved)
			if err != nil {
				return err
			}
			if verr := availability.CheckConflict(group.CheckInDate, group.CheckOutDate, group.CheckInTime, idx); verr != nil {
				return verr
			}
			return nil
		})
	if err != nil {
		if errors.Is(err, database.ErrNotPending) {
			return nil, ErrInvalidTransition
		}
		return nil, err
	}

	s.afterDecision(ctx, group, actorID, "approve", "")
	return s.store.GetGroup(ctx, groupID)
}

// Reject transitions a pending group to Rejected with a mandatory reason.
func (s *BookingService) Reject(ctx context.Context, groupID string, actorID int64, reason string) (*models.BookingGroup, error) {
	if reason == "" {
		return nil, ErrEmptyReason
	}

	group, err := s.store.GetGroup(ctx, groupID)
	if err != nil {
		return nil, err
	}
	if group.Status.IsTerminal() {
		return nil, ErrInvalidTransition
	}

	decidedAt := s.now().UTC()
	if err := s.store.DecideGroup(ctx, groupID, models.StatusRejected, actorID, reason, decidedAt, nil); err != nil {
		if errors.Is(err, database.ErrNotPending) {
			return nil, ErrInvalidTransition
		}
		return nil, err
	}

	s.afterDecision(ctx, group, actorID, "reject", reason)
	return s.store.GetGroup(ctx, groupID)
}

// AttachPaymentProof records a payment slip for a group. Allowed at any
// status and never changes the booking status: a group may be rejected after
// proof was uploaded, or approved before any proof exists.
func (s *BookingService) AttachPaymentProof(ctx context.Context, groupID string, amount int64, method, fileRef string) (*models.PaymentProof, error) {
	if fileRef == "" {
		return nil, fmt.Errorf("file reference is required")
	}

	group, err := s.store.GetGroup(ctx, groupID)
	if err != nil {
		return nil, err
	}

	proof := &models.PaymentProof{
		ID:         s.newID(),
		GroupID:    group.GroupID,
		Amount:     amount,
		Method:     method,
		FileRef:    fileRef,
		UploadedAt: s.now().UTC(),
	}
	if err := s.store.InsertPaymentProof(ctx, proof); err != nil {
		return nil, err
	}

	metrics.IncPaymentProof()
	s.publish(events.Event{
		Type:       events.TypePaymentAttached,
		GroupID:    group.GroupID,
		PropertyID: group.PropertyID,
	})
	s.logger.Info().Str("group_id", group.GroupID).Str("proof_id", proof.ID).Msg("payment proof attached")
	return proof, nil
}

// Group returns a booking group with its latest payment proof status.
func (s *BookingService) Group(ctx context.Context, groupID string) (*models.BookingGroup, *models.PaymentProof, error) {
	group, err := s.store.GetGroup(ctx, groupID)
	if err != nil {
		return nil, nil, err
	}
	proof, err := s.store.LatestPaymentProof(ctx, groupID)
	if errors.Is(err, database.ErrNotFound) {
		return group, nil, nil
	}
	if err != nil {
		return nil, nil, err
	}
	return group, proof, nil
}

// List returns booking groups matching the filter.
func (s *BookingService) List(ctx context.Context, f database.BookingFilter) ([]models.BookingGroup, error) {
	return s.store.ListGroups(ctx, f)
}

// AvailabilityIndex builds the advisory availability index for a property,
// served from cache when possible. Clients use it for immediate feedback;
// Create remains the authority.
func (s *BookingService) AvailabilityIndex(ctx context.Context, propertyID int64) (*availability.Index, error) {
	if s.cache != nil {
		if stays, ok := s.cache.Get(ctx, propertyID); ok {
			return availability.BuildIndex(stays)
		}
	}

	stays, err := s.store.ApprovedStays(ctx, propertyID)
	if err != nil {
		return nil, err
	}
	if s.cache != nil {
		s.cache.Set(ctx, propertyID, stays)
	}
	return availability.BuildIndex(stays)
}

func (s *BookingService) roomTypeInfo(ctx context.Context, propertyID int64, activeOnly bool) (map[int64]availability.RoomTypeInfo, error) {
	roomTypes, err := s.store.RoomTypes(ctx, propertyID, activeOnly)
	if err != nil {
		return nil, err
	}
	info := make(map[int64]availability.RoomTypeInfo, len(roomTypes))
	for _, rt := range roomTypes {
		info[rt.ID] = availability.RoomTypeInfo{
			ID:            rt.ID,
			Name:          rt.Name,
			TotalUnits:    rt.TotalUnits,
			MaxOccupants:  rt.MaxOccupants,
			PricePerGuest: rt.PricePerGuest,
			Active:        rt.IsActive,
		}
	}
	return info, nil
}

func (s *BookingService) afterDecision(ctx context.Context, group *models.BookingGroup, actorID int64, action, reason string) {
	metrics.IncAdminDecision(action)

	if err := s.store.AppendAudit(ctx, &models.AuditEntry{
		GroupID:   group.GroupID,
		ActorID:   actorID,
		Action:    action,
		Detail:    reason,
		CreatedAt: s.now().UTC(),
	}); err != nil {
		s.logger.Error().Err(err).Str("group_id", group.GroupID).Msg("audit append failed")
	}

	eventType := events.TypeBookingApproved
	if action == "reject" {
		eventType = events.TypeBookingRejected
	} else if s.cache != nil {
		// Only approvals change the availability projection.
		s.cache.Invalidate(ctx, group.PropertyID)
	}

	s.publish(events.Event{
		Type:       eventType,
		GroupID:    group.GroupID,
		PropertyID: group.PropertyID,
		ActorID:    actorID,
		Detail:     reason,
	})
	s.logger.Info().
		Str("group_id", group.GroupID).
		Str("action", action).
		Int64("actor_id", actorID).
		Msg("booking group decided")
}

func (s *BookingService) publish(event events.Event) {
	if s.bus != nil {
		s.bus.Publish(event)
	}
}
