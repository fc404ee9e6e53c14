// Package memory is an in-process Store for development and tests. It
// keeps the same atomicity contract as the postgres store: every
// transition is applied under one lock.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"parkease-backend/internal/domain"
	"parkease-backend/internal/geo"
	"parkease-backend/internal/repository"
)

type resourceEntry struct {
	seq      int64
	resource domain.Resource
}

type reservationEntry struct {
	seq         int64
	reservation domain.Reservation
}

type Store struct {
	mu           sync.Mutex
	seq          int64
	now          func() time.Time
	resources    map[string]*resourceEntry
	reservations map[string]*reservationEntry
	contacts     map[string]domain.Contact
}

var _ repository.Store = (*Store)(nil)

func NewStore() *Store {
	return &Store{
		now:          time.Now,
		resources:    make(map[string]*resourceEntry),
		reservations: make(map[string]*reservationEntry),
		contacts:     make(map[string]domain.Contact),
	}
}

// WithClock replaces the timestamp source.
func (s *Store) WithClock(now func() time.Time) *Store {
	s.now = now
	return s
}

func (s *Store) ResourceRepository() repository.ResourceRepository {
	return &resourceRepository{s: s}
}

func (s *Store) ReservationRepository() repository.ReservationRepository {
	return &reservationRepository{s: s}
}

func (s *Store) ContactRepository() repository.ContactRepository {
	return &contactRepository{s: s}
}

func (s *Store) Ping(ctx context.Context) error { return ctx.Err() }

func (s *Store) Close() error { return nil }

func (s *Store) nextSeq() int64 {
	s.seq++
	return s.seq
}

func cloneResource(r domain.Resource) *domain.Resource {
	r.Features = append([]domain.Feature(nil), r.Features...)
	r.VehicleTypes = append([]domain.VehicleType(nil), r.VehicleTypes...)
	return &r
}

func cloneReservation(r domain.Reservation) *domain.Reservation {
	return &r
}

type resourceRepository struct {
	s *Store
}

func (r *resourceRepository) Create(ctx context.Context, resource *domain.Resource) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if resource.ID == "" {
		resource.ID = uuid.NewString()
	}
	if _, exists := r.s.resources[resource.ID]; exists {
		return fmt.Errorf("%w: resource %s already exists", domain.ErrValidation, resource.ID)
	}
	now := r.s.now().UTC()
	resource.CreatedOn = now
	resource.UpdatedOn = now
	r.s.resources[resource.ID] = &resourceEntry{seq: r.s.nextSeq(), resource: *cloneResource(*resource)}
	return nil
}

func (r *resourceRepository) GetByID(ctx context.Context, id string) (*domain.Resource, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	e, ok := r.s.resources[id]
	if !ok {
		return nil, domain.ErrResourceNotFound
	}
	return cloneResource(e.resource), nil
}

func (r *resourceRepository) Update(ctx context.Context, id string, patch domain.ResourcePatch) (*domain.Resource, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	e, ok := r.s.resources[id]
	if !ok {
		return nil, domain.ErrResourceNotFound
	}
	res := &e.resource
	if patch.Name != nil {
		res.Name = *patch.Name
	}
	if patch.Kind != nil {
		res.Kind = *patch.Kind
	}
	if patch.Location != nil {
		res.Location = *patch.Location
	}
	if patch.TotalSpots != nil {
		newTotal := *patch.TotalSpots
		res.AvailableSpots = clamp(res.AvailableSpots+newTotal-res.TotalSpots, 0, newTotal)
		res.TotalSpots = newTotal
	}
	if patch.PricePerHourCents != nil {
		res.PricePerHourCents = *patch.PricePerHourCents
	}
	if patch.Features != nil {
		res.Features = append([]domain.Feature(nil), patch.Features...)
	}
	if patch.VehicleTypes != nil {
		res.VehicleTypes = append([]domain.VehicleType(nil), patch.VehicleTypes...)
	}
	if patch.OperatingHours != nil {
		res.OperatingHours = *patch.OperatingHours
	}
	if patch.State != nil {
		res.State = *patch.State
	}
	res.UpdatedOn = r.s.now().UTC()
	return cloneResource(*res), nil
}

func (r *resourceRepository) Delete(ctx context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.resources[id]; !ok {
		return domain.ErrResourceNotFound
	}
	delete(r.s.resources, id)
	for rid, e := range r.s.reservations {
		if e.reservation.ResourceID == id {
			delete(r.s.reservations, rid)
		}
	}
	return nil
}

func (r *resourceRepository) ListByOwner(ctx context.Context, ownerID string) ([]domain.Resource, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	return r.s.sortedResources(func(res *domain.Resource) bool { return res.OwnerID == ownerID }), nil
}

func (r *resourceRepository) FindWithin(ctx context.Context, area *geo.SearchArea, filter domain.ResourceFilter) ([]domain.Resource, error) {
	r.s.mu.Lock()
	all := r.s.sortedResources(nil)
	r.s.mu.Unlock()

	return geo.Select(area, all, filter), nil
}

func (r *resourceRepository) SetAvailableSpots(ctx context.Context, id string, spots int) (*domain.Resource, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	e, ok := r.s.resources[id]
	if !ok {
		return nil, domain.ErrResourceNotFound
	}
	if spots < 0 || spots > e.resource.TotalSpots {
		return nil, fmt.Errorf("%w: available spots must be between 0 and %d", domain.ErrValidation, e.resource.TotalSpots)
	}
	e.resource.AvailableSpots = spots
	e.resource.UpdatedOn = r.s.now().UTC()
	return cloneResource(e.resource), nil
}

// sortedResources must be called with mu held.
func (s *Store) sortedResources(keep func(*domain.Resource) bool) []domain.Resource {
	entries := make([]*resourceEntry, 0, len(s.resources))
	for _, e := range s.resources {
		if keep == nil || keep(&e.resource) {
			entries = append(entries, e)
		}
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].seq < entries[j].seq })
	out := make([]domain.Resource, 0, len(entries))
	for _, e := range entries {
		out = append(out, *cloneResource(e.resource))
	}
	return out
}

type reservationRepository struct {
	s *Store
}

func (r *reservationRepository) Create(ctx context.Context, reservation *domain.Reservation) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.resources[reservation.ResourceID]; !ok {
		return domain.ErrResourceNotFound
	}
	if reservation.ID == "" {
		reservation.ID = uuid.NewString()
	}
	now := r.s.now().UTC()
	reservation.CreatedOn = now
	reservation.UpdatedOn = now
	r.s.reservations[reservation.ID] = &reservationEntry{seq: r.s.nextSeq(), reservation: *reservation}
	return nil
}

func (r *reservationRepository) GetByID(ctx context.Context, id string) (*domain.Reservation, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	e, ok := r.s.reservations[id]
	if !ok {
		return nil, domain.ErrReservationNotFound
	}
	return cloneReservation(e.reservation), nil
}

func (r *reservationRepository) ListBySubject(ctx context.Context, subjectID string, status domain.ReservationStatus) ([]domain.Reservation, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	return r.s.selectReservations(false, 0, func(res *domain.Reservation) bool {
		return res.SubjectID == subjectID && (status == "" || res.Status == status)
	}), nil
}

func (r *reservationRepository) ListByOwner(ctx context.Context, ownerID string, status domain.ReservationStatus) ([]domain.Reservation, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	return r.s.selectReservations(false, 0, func(res *domain.Reservation) bool {
		owned := r.s.resources[res.ResourceID]
		return owned != nil && owned.resource.OwnerID == ownerID && (status == "" || res.Status == status)
	}), nil
}

func (r *reservationRepository) ApplyTransition(ctx context.Context, t domain.Transition) (*domain.Reservation, *domain.Resource, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	e, ok := r.s.reservations[t.ReservationID]
	if !ok {
		return nil, nil, domain.ErrReservationNotFound
	}
	if e.reservation.Status != t.From {
		return nil, nil, domain.ErrStaleStatus
	}
	re, ok := r.s.resources[t.ResourceID]
	if !ok {
		return nil, nil, domain.ErrResourceNotFound
	}
	if t.SpotDelta < 0 && re.resource.AvailableSpots+t.SpotDelta < 0 {
		return nil, nil, domain.ErrNoAvailability
	}

	now := r.s.now().UTC()
	if t.SpotDelta != 0 {
		re.resource.AvailableSpots = clamp(re.resource.AvailableSpots+t.SpotDelta, 0, re.resource.TotalSpots)
		re.resource.UpdatedOn = now
	}
	e.reservation.Status = t.To
	if t.Comment != nil {
		e.reservation.Comment = *t.Comment
	}
	e.reservation.UpdatedOn = now
	return cloneReservation(e.reservation), cloneResource(re.resource), nil
}

func (r *reservationRepository) MarkNotified(ctx context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	e, ok := r.s.reservations[id]
	if !ok {
		return domain.ErrReservationNotFound
	}
	e.reservation.Notified = true
	return nil
}

func (r *reservationRepository) ListUnnotified(ctx context.Context, updatedBefore time.Time, limit int) ([]domain.Reservation, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	return r.s.selectReservations(true, limit, func(res *domain.Reservation) bool {
		approved := res.Status == domain.ReservationStatusApproved || res.Status == domain.ReservationStatusActive
		return approved && !res.Notified && res.UpdatedOn.Before(updatedBefore)
	}), nil
}

func (r *reservationRepository) ListEndedBefore(ctx context.Context, cutoff time.Time, statuses []domain.ReservationStatus, limit int) ([]domain.Reservation, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	return r.s.selectReservations(true, limit, func(res *domain.Reservation) bool {
		if !res.EndTime.Before(cutoff) {
			return false
		}
		for _, st := range statuses {
			if res.Status == st {
				return true
			}
		}
		return false
	}), nil
}

// selectReservations must be called with mu held. A limit of zero or less
// means no limit.
func (s *Store) selectReservations(oldestFirst bool, limit int, keep func(*domain.Reservation) bool) []domain.Reservation {
	entries := make([]*reservationEntry, 0)
	for _, e := range s.reservations {
		if keep(&e.reservation) {
			entries = append(entries, e)
		}
	}
	sort.Slice(entries, func(i, j int) bool {
		if oldestFirst {
			return entries[i].seq < entries[j].seq
		}
		return entries[i].seq > entries[j].seq
	})
	if limit > 0 && len(entries) > limit {
		entries = entries[:limit]
	}
	out := make([]domain.Reservation, 0, len(entries))
	for _, e := range entries {
		out = append(out, e.reservation)
	}
	return out
}

type contactRepository struct {
	s *Store
}

func (r *contactRepository) GetContact(ctx context.Context, userID string) (*domain.Contact, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	c, ok := r.s.contacts[userID]
	if !ok {
		return nil, domain.ErrContactNotFound
	}
	return &c, nil
}

func (r *contactRepository) UpsertContact(ctx context.Context, contact *domain.Contact) error {
	if contact.UserID == "" {
		return fmt.Errorf("%w: contact user id is required", domain.ErrValidation)
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	r.s.contacts[contact.UserID] = *contact
	return nil
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
