package service

import (
	"context"
	"time"

	"parkease-backend/internal/domain"
)

type ResourceService interface {
	CreateResource(ctx context.Context, caller domain.Identity, draft domain.ResourceDraft) (*domain.Resource, error)
	GetResource(ctx context.Context, id string) (*domain.Resource, error)
	UpdateResource(ctx context.Context, caller domain.Identity, id string, patch domain.ResourcePatch) (*domain.Resource, error)
	DeleteResource(ctx context.Context, caller domain.Identity, id string) error
	SetAvailableSpots(ctx context.Context, caller domain.Identity, id string, spots int) (*domain.Resource, error)
	FindNear(ctx context.Context, query domain.ProximityQuery) ([]domain.Resource, error)
	ListMyResources(ctx context.Context, caller domain.Identity) ([]domain.Resource, error)
	OwnerAnalytics(ctx context.Context, caller domain.Identity) (*domain.OwnerAnalytics, error)
}

type BookingService interface {
	CreateReservation(ctx context.Context, caller domain.Identity, req domain.ReservationRequest) (*domain.Reservation, error)
	SetStatus(ctx context.Context, caller domain.Identity, id string, status domain.ReservationStatus, comment *string) (*domain.Reservation, error)
	Cancel(ctx context.Context, caller domain.Identity, id string) (*domain.Reservation, error)
	GetReservation(ctx context.Context, caller domain.Identity, id string) (*domain.Reservation, error)
	ListMine(ctx context.Context, caller domain.Identity, status domain.ReservationStatus) ([]domain.Reservation, error)
	ListForOwner(ctx context.Context, caller domain.Identity, status domain.ReservationStatus) ([]domain.Reservation, error)
	// CompleteElapsed moves approved and active reservations whose window
	// ended before cutoff to completed. It returns how many it moved.
	CompleteElapsed(ctx context.Context, cutoff time.Time, limit int) (int, error)
}

// ApprovalDispatcher schedules the approval notice for a reservation. It
// must not block the caller.
type ApprovalDispatcher interface {
	DispatchApproval(ctx context.Context, reservation domain.Reservation, resource domain.Resource)
}

type NotificationService interface {
	ApprovalDispatcher
	// Deliver sends the approval notice now and marks the reservation
	// notified on success.
	Deliver(ctx context.Context, reservation domain.Reservation, resource domain.Resource) error
	// RetryPending re-sends notices for approved reservations still marked
	// unnotified. It returns how many were delivered.
	RetryPending(ctx context.Context, limit int) (int, error)
	// Wait blocks until every dispatched notice has finished.
	Wait()
}

// BookingNotifier is one delivery channel for booking notices.
type BookingNotifier interface {
	NotifyBookingApproved(ctx context.Context, contact domain.Contact, reservation domain.Reservation, resource domain.Resource) error
}
