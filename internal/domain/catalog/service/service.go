package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/rustam/servhub/internal/domain/catalog/dao"
	"github.com/rustam/servhub/internal/domain/catalog/entity"
)

const (
	maxTitleLength       = 150
	maxDescriptionLength = 2000
	defaultListingLimit  = 20
	maxListingLimit      = 50
)

// CategoryRepository provides access to category storage
type CategoryRepository interface {
	List(ctx context.Context) ([]entity.Category, error)
	GetByID(ctx context.Context, id uuid.UUID) (*entity.Category, error)
}

// ServiceRepository provides access to listing storage
type ServiceRepository interface {
	Insert(ctx context.Context, svc *entity.Service) error
	GetByID(ctx context.Context, id uuid.UUID) (*entity.Service, error)
	List(ctx context.Context, f dao.ServiceFilter) ([]entity.Service, error)
	Update(ctx context.Context, id, ownerID uuid.UUID, upd entity.ServiceUpdate) (*entity.Service, error)
	Delete(ctx context.Context, id, ownerID uuid.UUID) (bool, error)
	CountByOwner(ctx context.Context, ownerID uuid.UUID) (int, error)
}

// ProviderMarker flips the provider flag on a profile once it owns listings
type ProviderMarker interface {
	SetProvider(ctx context.Context, userID uuid.UUID, isProvider bool) error
}

// CatalogService implements marketplace catalog business logic
type CatalogService struct {
	categories CategoryRepository
	services   ServiceRepository
	profiles   ProviderMarker
}

// NewCatalogService creates a new catalog service
func NewCatalogService(categories CategoryRepository, services ServiceRepository, profiles ProviderMarker) *CatalogService {
	return &CatalogService{
		categories: categories,
		services:   services,
		profiles:   profiles,
	}
}

// Categories returns all service categories
func (s *CatalogService) Categories(ctx context.Context) ([]entity.Category, error) {
	return s.categories.List(ctx)
}

// CreateListingInput carries a new listing request
type CreateListingInput struct {
	OwnerID     uuid.UUID
	CategoryID  uuid.UUID
	Title       string
	Description string
	Price       float64
	PriceType   entity.PriceType
	Location    string
	Images      []string
}

// CreateListing publishes a new service listing. The owner's profile is
// marked as a provider on its first listing.
func (s *CatalogService) CreateListing(ctx context.Context, in CreateListingInput) (*entity.Service, error) {
	in.Title = strings.TrimSpace(in.Title)
	if in.Title == "" {
		return nil, fmt.Errorf("%w: title is required", entity.ErrInvalidListing)
	}
	if len(in.Title) > maxTitleLength {
		return nil, fmt.Errorf("%w: title exceeds %d characters", entity.ErrInvalidListing, maxTitleLength)
	}
	if len(in.Description) > maxDescriptionLength {
		return nil, fmt.Errorf("%w: description exceeds %d characters", entity.ErrInvalidListing, maxDescriptionLength)
	}
	if in.Price < 0 {
		return nil, fmt.Errorf("%w: price cannot be negative", entity.ErrInvalidListing)
	}
	if in.PriceType == "" {
		in.PriceType = entity.PriceTypeFixed
	}
	if !entity.ValidPriceType(in.PriceType) {
		return nil, fmt.Errorf("%w: unknown price type %q", entity.ErrInvalidListing, in.PriceType)
	}

	category, err := s.categories.GetByID(ctx, in.CategoryID)
	if err != nil {
		return nil, fmt.Errorf("checking category: %w", err)
	}
	if category == nil {
		return nil, entity.ErrCategoryNotFound
	}

	if in.Images == nil {
		in.Images = []string{}
	}

	svc := &entity.Service{
		ID:           uuid.New(),
		UserID:       in.OwnerID,
		CategoryID:   in.CategoryID,
		Title:        in.Title,
		Description:  in.Description,
		Price:        in.Price,
		PriceType:    in.PriceType,
		Location:     in.Location,
		Images:       in.Images,
		Availability: true,
	}
	if err := s.services.Insert(ctx, svc); err != nil {
		return nil, fmt.Errorf("creating listing: %w", err)
	}

	if err := s.profiles.SetProvider(ctx, in.OwnerID, true); err != nil {
		return nil, fmt.Errorf("marking provider: %w", err)
	}

	return svc, nil
}

// GetListing retrieves one listing
func (s *CatalogService) GetListing(ctx context.Context, id uuid.UUID) (*entity.Service, error) {
	svc, err := s.services.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("getting listing: %w", err)
	}
	if svc == nil {
		return nil, entity.ErrServiceNotFound
	}

	return svc, nil
}

// SearchListingsInput narrows a catalog search
type SearchListingsInput struct {
	CategoryID uuid.UUID
	UserID     uuid.UUID
	Query      string
	Limit      int
	Offset     int
}

// SearchListings returns available listings matching the filter
func (s *CatalogService) SearchListings(ctx context.Context, in SearchListingsInput) ([]entity.Service, error) {
	if in.Limit <= 0 {
		in.Limit = defaultListingLimit
	}
	if in.Limit > maxListingLimit {
		in.Limit = maxListingLimit
	}
	if in.Offset < 0 {
		in.Offset = 0
	}

	return s.services.List(ctx, dao.ServiceFilter{
		CategoryID: in.CategoryID,
		UserID:     in.UserID,
		Query:      strings.TrimSpace(in.Query),
		Limit:      in.Limit,
		Offset:     in.Offset,
	})
}

// UpdateListing applies a partial edit to the caller's own listing
func (s *CatalogService) UpdateListing(ctx context.Context, id, callerID uuid.UUID, upd entity.ServiceUpdate) (*entity.Service, error) {
	if upd.Title != nil {
		trimmed := strings.TrimSpace(*upd.Title)
		if trimmed == "" {
			return nil, fmt.Errorf("%w: title is required", entity.ErrInvalidListing)
		}
		upd.Title = &trimmed
	}
	if upd.Price != nil && *upd.Price < 0 {
		return nil, fmt.Errorf("%w: price cannot be negative", entity.ErrInvalidListing)
	}
	if upd.PriceType != nil && !entity.ValidPriceType(*upd.PriceType) {
		return nil, fmt.Errorf("%w: unknown price type %q", entity.ErrInvalidListing, *upd.PriceType)
	}

	svc, err := s.services.Update(ctx, id, callerID, upd)
	if err != nil {
		return nil, fmt.Errorf("updating listing: %w", err)
	}
	if svc == nil {
		return nil, entity.ErrServiceNotFound
	}

	return svc, nil
}

// DeleteListing removes the caller's own listing. When the owner's last
// listing goes away the provider flag is cleared again.
func (s *CatalogService) DeleteListing(ctx context.Context, id, callerID uuid.UUID) error {
	deleted, err := s.services.Delete(ctx, id, callerID)
	if err != nil {
		return fmt.Errorf("deleting listing: %w", err)
	}
	if !deleted {
		return entity.ErrServiceNotFound
	}

	remaining, err := s.services.CountByOwner(ctx, callerID)
	if err != nil {
		return fmt.Errorf("counting listings: %w", err)
	}
	if remaining == 0 {
		if err := s.profiles.SetProvider(ctx, callerID, false); err != nil {
			return fmt.Errorf("clearing provider flag: %w", err)
		}
	}

	return nil
}
