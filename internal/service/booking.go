package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"parkease-backend/internal/domain"
	"parkease-backend/internal/logger"
	"parkease-backend/internal/repository"
	"parkease-backend/internal/utils"
)

// maxTransitionAttempts bounds the re-reads after a lost compare-and-set.
const maxTransitionAttempts = 5

type bookingService struct {
	resourceRepo    repository.ResourceRepository
	reservationRepo repository.ReservationRepository
	dispatcher      ApprovalDispatcher
}

func NewBookingService(
	resourceRepo repository.ResourceRepository,
	reservationRepo repository.ReservationRepository,
	dispatcher ApprovalDispatcher,
) BookingService {
	return &bookingService{
		resourceRepo:    resourceRepo,
		reservationRepo: reservationRepo,
		dispatcher:      dispatcher,
	}
}

// CreateReservation records a pending request. It does not touch the
// resource's availability: a spot is consumed only when the owner approves,
// so pending requests never block other drivers. The availability check
// here is an early rejection, not a guarantee.
func (s *bookingService) CreateReservation(ctx context.Context, caller domain.Identity, req domain.ReservationRequest) (*domain.Reservation, error) {
	logger.EnterMethod("bookingService.CreateReservation", "subjectID", caller.UserID, "resourceID", req.ResourceID)

	if caller.UserID == "" {
		return nil, domain.ErrUnauthenticated
	}

	res, err := s.resourceRepo.GetByID(ctx, req.ResourceID)
	if err != nil {
		logger.ExitMethodWithError("bookingService.CreateReservation", err, "resourceID", req.ResourceID)
		return nil, err
	}
	if res.State != domain.LifecycleActive {
		return nil, fmt.Errorf("%w: state is %s", domain.ErrResourceInactive, res.State)
	}
	if res.AvailableSpots <= 0 {
		logger.ExitMethod("bookingService.CreateReservation", "resourceID", res.ID, "outcome", "no availability")
		return nil, domain.ErrNoAvailability
	}

	hours, total, err := utils.ReservationCost(req.StartTime, req.EndTime, res.PricePerHourCents)
	if err != nil {
		return nil, err
	}

	vehicle := req.Vehicle
	if vehicle.PlateNumber == "" {
		vehicle.PlateNumber = domain.UnknownPlateNumber
	}
	if vehicle.VehicleType == "" {
		vehicle.VehicleType = domain.DefaultVehicleType
	}
	if !res.AcceptsVehicle(vehicle.VehicleType) {
		return nil, fmt.Errorf("%w: parking does not accept %s", domain.ErrValidation, vehicle.VehicleType)
	}

	rsv := &domain.Reservation{
		SubjectID:       caller.UserID,
		ResourceID:      res.ID,
		StartTime:       req.StartTime.UTC(),
		EndTime:         req.EndTime.UTC(),
		DurationHours:   hours,
		TotalPriceCents: total,
		Vehicle:         vehicle,
		Status:          domain.ReservationStatusPending,
	}
	if err := s.reservationRepo.Create(ctx, rsv); err != nil {
		logger.ExitMethodWithError("bookingService.CreateReservation", err, "resourceID", res.ID)
		return nil, err
	}

	logger.ExitMethod("bookingService.CreateReservation", "reservationID", rsv.ID, "totalPriceCents", rsv.TotalPriceCents)
	return rsv, nil
}

func (s *bookingService) SetStatus(ctx context.Context, caller domain.Identity, id string, status domain.ReservationStatus, comment *string) (*domain.Reservation, error) {
	logger.EnterMethod("bookingService.SetStatus", "reservationID", id, "status", status, "callerID", caller.UserID)

	if caller.UserID == "" {
		return nil, domain.ErrUnauthenticated
	}

	rsv, err := s.reservationRepo.GetByID(ctx, id)
	if err != nil {
		logger.ExitMethodWithError("bookingService.SetStatus", err, "reservationID", id)
		return nil, err
	}
	res, err := s.resourceRepo.GetByID(ctx, rsv.ResourceID)
	if err != nil {
		return nil, err
	}
	isOwner := res.OwnerID == caller.UserID
	isSubject := rsv.SubjectID == caller.UserID
	if !isOwner && !isSubject {
		return nil, fmt.Errorf("%w: not a party to this reservation", domain.ErrForbidden)
	}

	target, err := parseTargetStatus(status)
	if err != nil {
		return nil, err
	}
	switch domain.RequiredActor(target) {
	case domain.ActorOwner:
		if !isOwner {
			return nil, fmt.Errorf("%w: only the parking owner can set status %s", domain.ErrForbidden, target)
		}
	case domain.ActorSubject:
		if !isSubject {
			return nil, fmt.Errorf("%w: only the driver can cancel this reservation", domain.ErrForbidden)
		}
	}

	updated, err := s.transition(ctx, rsv, target, comment)
	if err != nil {
		logger.ExitMethod("bookingService.SetStatus", "reservationID", id, "error", err)
		return nil, err
	}
	logger.ExitMethod("bookingService.SetStatus", "reservationID", id, "status", updated.Status)
	return updated, nil
}

func (s *bookingService) Cancel(ctx context.Context, caller domain.Identity, id string) (*domain.Reservation, error) {
	return s.SetStatus(ctx, caller, id, domain.ReservationStatusCancelled, nil)
}

func (s *bookingService) GetReservation(ctx context.Context, caller domain.Identity, id string) (*domain.Reservation, error) {
	if caller.UserID == "" {
		return nil, domain.ErrUnauthenticated
	}
	rsv, err := s.reservationRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if rsv.SubjectID == caller.UserID {
		return rsv, nil
	}
	res, err := s.resourceRepo.GetByID(ctx, rsv.ResourceID)
	if err != nil {
		return nil, err
	}
	if res.OwnerID != caller.UserID {
		return nil, fmt.Errorf("%w: not a party to this reservation", domain.ErrForbidden)
	}
	return rsv, nil
}

func (s *bookingService) ListMine(ctx context.Context, caller domain.Identity, status domain.ReservationStatus) ([]domain.Reservation, error) {
	if caller.UserID == "" {
		return nil, domain.ErrUnauthenticated
	}
	if status != "" {
		if _, err := domain.ParseReservationStatus(string(status)); err != nil {
			return nil, err
		}
	}
	return s.reservationRepo.ListBySubject(ctx, caller.UserID, status)
}

func (s *bookingService) ListForOwner(ctx context.Context, caller domain.Identity, status domain.ReservationStatus) ([]domain.Reservation, error) {
	if caller.UserID == "" {
		return nil, domain.ErrUnauthenticated
	}
	if !caller.IsOwner() {
		return nil, fmt.Errorf("%w: bookings by parking are available to owners only", domain.ErrForbidden)
	}
	if status != "" {
		if _, err := domain.ParseReservationStatus(string(status)); err != nil {
			return nil, err
		}
	}
	return s.reservationRepo.ListByOwner(ctx, caller.UserID, status)
}

func (s *bookingService) CompleteElapsed(ctx context.Context, cutoff time.Time, limit int) (int, error) {
	logger.EnterMethod("bookingService.CompleteElapsed", "cutoff", cutoff, "limit", limit)

	due, err := s.reservationRepo.ListEndedBefore(ctx, cutoff,
		[]domain.ReservationStatus{domain.ReservationStatusApproved, domain.ReservationStatusActive}, limit)
	if err != nil {
		logger.ExitMethodWithError("bookingService.CompleteElapsed", err)
		return 0, err
	}

	completed := 0
	for i := range due {
		if ctx.Err() != nil {
			return completed, ctx.Err()
		}
		if _, err := s.transition(ctx, &due[i], domain.ReservationStatusCompleted, nil); err != nil {
			logger.Warn("Failed to complete elapsed reservation", "reservationID", due[i].ID, "error", err)
			continue
		}
		completed++
	}

	logger.ExitMethod("bookingService.CompleteElapsed", "due", len(due), "completed", completed)
	return completed, nil
}

// transition drives rsv to target. A lost compare-and-set re-reads the
// reservation and re-plans, so a duplicate request that lost the race ends
// as the idempotent no-op.
func (s *bookingService) transition(ctx context.Context, rsv *domain.Reservation, target domain.ReservationStatus, comment *string) (*domain.Reservation, error) {
	for attempt := 0; attempt < maxTransitionAttempts; attempt++ {
		if rsv.Status == target {
			return rsv, nil
		}
		_, delta, err := domain.PlanTransition(rsv.Status, target)
		if err != nil {
			return nil, err
		}

		updated, res, err := s.reservationRepo.ApplyTransition(ctx, domain.Transition{
			ReservationID: rsv.ID,
			ResourceID:    rsv.ResourceID,
			From:          rsv.Status,
			To:            target,
			Comment:       comment,
			SpotDelta:     delta,
		})
		if errors.Is(err, domain.ErrStaleStatus) {
			if rsv, err = s.reservationRepo.GetByID(ctx, rsv.ID); err != nil {
				return nil, err
			}
			continue
		}
		if err != nil {
			return nil, err
		}

		if target == domain.ReservationStatusApproved && s.dispatcher != nil {
			s.dispatcher.DispatchApproval(ctx, *updated, *res)
		}
		return updated, nil
	}
	return nil, fmt.Errorf("%w: gave up after %d attempts", domain.ErrStaleStatus, maxTransitionAttempts)
}

// parseTargetStatus accepts the statuses a caller may request. Pending is
// only ever the initial status.
func parseTargetStatus(status domain.ReservationStatus) (domain.ReservationStatus, error) {
	target, err := domain.ParseReservationStatus(string(status))
	if err != nil {
		return "", err
	}
	if target == domain.ReservationStatusPending {
		return "", fmt.Errorf("%w: %s cannot be requested", domain.ErrInvalidStatus, target)
	}
	return target, nil
}
