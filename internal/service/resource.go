package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"parkease-backend/internal/domain"
	"parkease-backend/internal/geo"
	"parkease-backend/internal/logger"
	"parkease-backend/internal/repository"
)

type resourceService struct {
	resourceRepo    repository.ResourceRepository
	reservationRepo repository.ReservationRepository
}

func NewResourceService(resourceRepo repository.ResourceRepository, reservationRepo repository.ReservationRepository) ResourceService {
	return &resourceService{
		resourceRepo:    resourceRepo,
		reservationRepo: reservationRepo,
	}
}

// CreateResource applies the creation rules of the caller's role. Operators
// list commercial lots: the kind defaults to private and can never be
// residential. Residential owners always list residential spaces of at most
// MaxResidentialSpots spots. Drivers cannot list anything.
func (s *resourceService) CreateResource(ctx context.Context, caller domain.Identity, draft domain.ResourceDraft) (*domain.Resource, error) {
	logger.EnterMethod("resourceService.CreateResource", "ownerID", caller.UserID, "role", caller.Role)

	if caller.UserID == "" {
		return nil, domain.ErrUnauthenticated
	}

	kind := draft.Kind
	switch caller.Role {
	case domain.RoleOperator:
		if kind == "" || kind == domain.ResourceKindResidential {
			kind = domain.ResourceKindPrivate
		}
	case domain.RoleResidential:
		kind = domain.ResourceKindResidential
	default:
		logger.ExitMethodWithError("resourceService.CreateResource", domain.ErrForbidden, "ownerID", caller.UserID)
		return nil, fmt.Errorf("%w: role %q cannot list parking", domain.ErrForbidden, caller.Role)
	}
	if _, err := domain.ParseResourceKind(string(kind)); err != nil {
		return nil, err
	}

	if err := validateListing(kind, draft.Location.Point, draft.TotalSpots, draft.PricePerHourCents, draft.OperatingHours); err != nil {
		logger.ExitMethodWithError("resourceService.CreateResource", err, "ownerID", caller.UserID)
		return nil, err
	}

	res := &domain.Resource{
		Name:              draft.Name,
		Kind:              kind,
		OwnerID:           caller.UserID,
		Location:          draft.Location,
		TotalSpots:        draft.TotalSpots,
		AvailableSpots:    draft.TotalSpots,
		PricePerHourCents: draft.PricePerHourCents,
		Features:          draft.Features,
		VehicleTypes:      draft.VehicleTypes,
		OperatingHours:    draft.OperatingHours,
		State:             domain.LifecycleActive,
	}
	if err := s.resourceRepo.Create(ctx, res); err != nil {
		logger.ExitMethodWithError("resourceService.CreateResource", err, "ownerID", caller.UserID)
		return nil, err
	}

	logger.ExitMethod("resourceService.CreateResource", "resourceID", res.ID, "kind", res.Kind)
	return res, nil
}

func (s *resourceService) GetResource(ctx context.Context, id string) (*domain.Resource, error) {
	return s.resourceRepo.GetByID(ctx, id)
}

func (s *resourceService) UpdateResource(ctx context.Context, caller domain.Identity, id string, patch domain.ResourcePatch) (*domain.Resource, error) {
	logger.EnterMethod("resourceService.UpdateResource", "resourceID", id, "callerID", caller.UserID)

	res, err := s.ownedResource(ctx, caller, id)
	if err != nil {
		logger.ExitMethodWithError("resourceService.UpdateResource", err, "resourceID", id)
		return nil, err
	}

	if patch.Kind != nil && *patch.Kind != res.Kind {
		return nil, fmt.Errorf("%w: kind cannot be changed after creation", domain.ErrValidation)
	}
	point := res.Location.Point
	if patch.Location != nil {
		point = patch.Location.Point
	}
	total := res.TotalSpots
	if patch.TotalSpots != nil {
		total = *patch.TotalSpots
	}
	price := res.PricePerHourCents
	if patch.PricePerHourCents != nil {
		price = *patch.PricePerHourCents
	}
	hours := res.OperatingHours
	if patch.OperatingHours != nil {
		hours = *patch.OperatingHours
	}
	if err := validateListing(res.Kind, point, total, price, hours); err != nil {
		return nil, err
	}
	if patch.State != nil {
		if _, err := domain.ParseLifecycleState(string(*patch.State)); err != nil {
			return nil, err
		}
	}

	updated, err := s.resourceRepo.Update(ctx, id, patch)
	if err != nil {
		logger.ExitMethodWithError("resourceService.UpdateResource", err, "resourceID", id)
		return nil, err
	}
	logger.ExitMethod("resourceService.UpdateResource", "resourceID", id)
	return updated, nil
}

// DeleteResource removes the resource and every reservation against it.
func (s *resourceService) DeleteResource(ctx context.Context, caller domain.Identity, id string) error {
	if _, err := s.ownedResource(ctx, caller, id); err != nil {
		return err
	}
	if err := s.resourceRepo.Delete(ctx, id); err != nil {
		return err
	}
	logger.Info("Parking resource deleted", "resourceID", id, "ownerID", caller.UserID)
	return nil
}

func (s *resourceService) SetAvailableSpots(ctx context.Context, caller domain.Identity, id string, spots int) (*domain.Resource, error) {
	res, err := s.ownedResource(ctx, caller, id)
	if err != nil {
		return nil, err
	}
	if spots < 0 || spots > res.TotalSpots {
		return nil, fmt.Errorf("%w: available spots must be between 0 and %d", domain.ErrValidation, res.TotalSpots)
	}
	return s.resourceRepo.SetAvailableSpots(ctx, id, spots)
}

func (s *resourceService) FindNear(ctx context.Context, query domain.ProximityQuery) ([]domain.Resource, error) {
	var area *geo.SearchArea
	if query.Center != nil {
		radius := query.RadiusKm
		if radius == 0 {
			radius = domain.DefaultSearchRadiusKm
		}
		var err error
		if area, err = geo.NewSearchArea(*query.Center, radius); err != nil {
			return nil, err
		}
	}
	return s.resourceRepo.FindWithin(ctx, area, query.Filter)
}

func (s *resourceService) ListMyResources(ctx context.Context, caller domain.Identity) ([]domain.Resource, error) {
	if caller.UserID == "" {
		return nil, domain.ErrUnauthenticated
	}
	return s.resourceRepo.ListByOwner(ctx, caller.UserID)
}

// OwnerAnalytics counts every booking against the caller's resources and
// sums revenue over completed ones.
func (s *resourceService) OwnerAnalytics(ctx context.Context, caller domain.Identity) (*domain.OwnerAnalytics, error) {
	if !caller.IsOwner() {
		return nil, fmt.Errorf("%w: analytics are available to parking owners only", domain.ErrForbidden)
	}
	resources, err := s.resourceRepo.ListByOwner(ctx, caller.UserID)
	if err != nil {
		return nil, err
	}
	reservations, err := s.reservationRepo.ListByOwner(ctx, caller.UserID, "")
	if err != nil {
		return nil, err
	}

	stats := &domain.OwnerAnalytics{
		TotalResources: len(resources),
		TotalBookings:  len(reservations),
	}
	perResource := make(map[string]int, len(resources))
	for _, rsv := range reservations {
		perResource[rsv.ResourceID]++
		if rsv.Status == domain.ReservationStatusCompleted {
			stats.TotalRevenueCents += rsv.TotalPriceCents
		}
	}
	for _, res := range resources {
		n := perResource[res.ID]
		if n > 0 && (stats.MostBooked == nil || n > stats.MostBooked.Bookings) {
			stats.MostBooked = &domain.ResourceUsage{ResourceID: res.ID, Name: res.Name, Bookings: n}
		}
	}
	return stats, nil
}

func (s *resourceService) ownedResource(ctx context.Context, caller domain.Identity, id string) (*domain.Resource, error) {
	if caller.UserID == "" {
		return nil, domain.ErrUnauthenticated
	}
	res, err := s.resourceRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if res.OwnerID != caller.UserID {
		return nil, fmt.Errorf("%w: only the owner can modify this parking", domain.ErrForbidden)
	}
	return res, nil
}

func validateListing(kind domain.ResourceKind, point domain.Point, totalSpots int, priceCents int64, hours domain.OperatingHours) error {
	if err := point.Validate(); err != nil {
		return err
	}
	if totalSpots < 1 {
		return fmt.Errorf("%w: total spots must be at least 1", domain.ErrValidation)
	}
	if kind == domain.ResourceKindResidential && totalSpots > domain.MaxResidentialSpots {
		return fmt.Errorf("%w: residential parking can have at most %d spots", domain.ErrValidation, domain.MaxResidentialSpots)
	}
	if priceCents <= 0 {
		return fmt.Errorf("%w: price per hour must be positive", domain.ErrValidation)
	}
	return errors.Join(checkClock("open", hours.Open), checkClock("close", hours.Close))
}

func checkClock(field, value string) error {
	if value == "" {
		return nil
	}
	if _, err := time.Parse("15:04", value); err != nil {
		return fmt.Errorf("%w: %s time must be HH:MM", domain.ErrValidation, field)
	}
	return nil
}
