package repository

import (
	"context"
	"time"

	"parkease-backend/internal/domain"
	"parkease-backend/internal/geo"
)

type ResourceRepository interface {
	Create(ctx context.Context, resource *domain.Resource) error
	GetByID(ctx context.Context, id string) (*domain.Resource, error)
	// Update applies patch atomically. A TotalSpots change shifts
	// AvailableSpots by the same delta, clamped to [0, new total].
	Update(ctx context.Context, id string, patch domain.ResourcePatch) (*domain.Resource, error)
	// Delete removes the resource together with its reservations.
	Delete(ctx context.Context, id string) error
	ListByOwner(ctx context.Context, ownerID string) ([]domain.Resource, error)
	// FindWithin returns the resources inside area matching filter, nearest
	// first. A nil area lists every matching resource by creation time.
	FindWithin(ctx context.Context, area *geo.SearchArea, filter domain.ResourceFilter) ([]domain.Resource, error)
	SetAvailableSpots(ctx context.Context, id string, spots int) (*domain.Resource, error)
}

type ReservationRepository interface {
	Create(ctx context.Context, reservation *domain.Reservation) error
	GetByID(ctx context.Context, id string) (*domain.Reservation, error)
	// ListBySubject and ListByOwner return newest first. An empty status
	// lists every status.
	ListBySubject(ctx context.Context, subjectID string, status domain.ReservationStatus) ([]domain.Reservation, error)
	ListByOwner(ctx context.Context, ownerID string, status domain.ReservationStatus) ([]domain.Reservation, error)
	// ApplyTransition moves a reservation from t.From to t.To and applies
	// t.SpotDelta to its resource as one atomic unit. See domain.Transition.
	ApplyTransition(ctx context.Context, t domain.Transition) (*domain.Reservation, *domain.Resource, error)
	MarkNotified(ctx context.Context, id string) error
	// ListUnnotified returns approved or active reservations whose approval
	// notice has not been delivered and that were last updated before
	// updatedBefore, oldest first.
	ListUnnotified(ctx context.Context, updatedBefore time.Time, limit int) ([]domain.Reservation, error)
	// ListEndedBefore returns reservations in one of statuses whose window
	// ended before cutoff, oldest first.
	ListEndedBefore(ctx context.Context, cutoff time.Time, statuses []domain.ReservationStatus, limit int) ([]domain.Reservation, error)
}

// ContactRepository reads the user directory owned by the identity service.
type ContactRepository interface {
	GetContact(ctx context.Context, userID string) (*domain.Contact, error)
	UpsertContact(ctx context.Context, contact *domain.Contact) error
}

// Store is the full persistence surface the services depend on.
type Store interface {
	ResourceRepository() ResourceRepository
	ReservationRepository() ReservationRepository
	ContactRepository() ContactRepository
	Ping(ctx context.Context) error
	Close() error
}
