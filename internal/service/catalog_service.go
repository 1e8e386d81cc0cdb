package service

import (
	"context"
	"errors"
	"fmt"

	"bungalow/internal/models"

	"github.com/rs/zerolog"
)

// ErrInvalidInput marks admin-correctable catalog validation failures.
var ErrInvalidInput = errors.New("invalid input")

// CatalogStore is the persistence surface for property management.
type CatalogStore interface {
	ListProperties(ctx context.Context, includeInactive bool) ([]models.Property, error)
	GetProperty(ctx context.Context, id int64) (*models.Property, error)
	SaveProperty(ctx context.Context, p *models.Property) error
	DeactivateProperty(ctx context.Context, id int64) error
}

// CatalogService manages the property and room-type inventory.
type CatalogService struct {
	store  CatalogStore
	logger zerolog.Logger
}

func NewCatalogService(store CatalogStore, logger zerolog.Logger) *CatalogService {
	return &CatalogService{
		store:  store,
		logger: logger.With().Str("component", "catalog").Logger(),
	}
}

// List returns properties with their room types.
func (s *CatalogService) List(ctx context.Context, includeInactive bool) ([]models.Property, error) {
	return s.store.ListProperties(ctx, includeInactive)
}

// Get returns one property with all its room types.
func (s *CatalogService) Get(ctx context.Context, id int64) (*models.Property, error) {
	return s.store.GetProperty(ctx, id)
}

// Save validates and persists a property with its room types. Room types
// missing from the submitted set are deactivated, never deleted.
func (s *CatalogService) Save(ctx context.Context, p *models.Property) (*models.Property, error) {
	if p.Name == "" {
		return nil, fmt.Errorf("%w: property name is required", ErrInvalidInput)
	}
	for _, rt := range p.RoomTypes {
		if rt.Name == "" {
			return nil, fmt.Errorf("%w: room type name is required", ErrInvalidInput)
		}
		if rt.TotalUnits < 1 {
			return nil, fmt.Errorf("%w: room type %q: total units must be at least 1", ErrInvalidInput, rt.Name)
		}
		if rt.MaxOccupants < 1 {
			return nil, fmt.Errorf("%w: room type %q: max occupants must be at least 1", ErrInvalidInput, rt.Name)
		}
		if rt.PricePerGuest < 0 {
			return nil, fmt.Errorf("%w: room type %q: price cannot be negative", ErrInvalidInput, rt.Name)
		}
	}

	if err := s.store.SaveProperty(ctx, p); err != nil {
		return nil, err
	}
	s.logger.Info().Int64("property_id", p.ID).Int("room_types", len(p.RoomTypes)).Msg("property saved")
	return s.store.GetProperty(ctx, p.ID)
}

// Deactivate soft-deletes a property, preserving booking history.
func (s *CatalogService) Deactivate(ctx context.Context, id int64) error {
	if err := s.store.DeactivateProperty(ctx, id); err != nil {
		return err
	}
	s.logger.Info().Int64("property_id", id).Msg("property deactivated")
	return nil
}
