package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"parkease-backend/internal/domain"
	"parkease-backend/internal/logger"
	"parkease-backend/internal/repository"
)

// DefaultDispatchTimeout bounds one delivery attempt started by
// DispatchApproval.
const DefaultDispatchTimeout = 30 * time.Second

type notificationService struct {
	resourceRepo    repository.ResourceRepository
	reservationRepo repository.ReservationRepository
	contactRepo     repository.ContactRepository
	notifier        BookingNotifier
	timeout         time.Duration
	inflight        sync.WaitGroup
}

func NewNotificationService(
	resourceRepo repository.ResourceRepository,
	reservationRepo repository.ReservationRepository,
	contactRepo repository.ContactRepository,
	notifier BookingNotifier,
	timeout time.Duration,
) NotificationService {
	if timeout <= 0 {
		timeout = DefaultDispatchTimeout
	}
	return &notificationService{
		resourceRepo:    resourceRepo,
		reservationRepo: reservationRepo,
		contactRepo:     contactRepo,
		notifier:        notifier,
		timeout:         timeout,
	}
}

// DispatchApproval delivers on a background goroutine detached from the
// request's cancellation. Failures are logged and leave the reservation
// unnotified for RetryPending.
func (s *notificationService) DispatchApproval(ctx context.Context, rsv domain.Reservation, res domain.Resource) {
	s.inflight.Add(1)
	go func() {
		defer s.inflight.Done()

		dctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.timeout)
		defer cancel()

		if err := s.Deliver(dctx, rsv, res); err != nil {
			logger.Warn("Approval notification failed", "reservationID", rsv.ID, "subjectID", rsv.SubjectID, "error", err)
		}
	}()
}

func (s *notificationService) Deliver(ctx context.Context, rsv domain.Reservation, res domain.Resource) error {
	contact, err := s.contactRepo.GetContact(ctx, rsv.SubjectID)
	if errors.Is(err, domain.ErrNotFound) {
		contact = &domain.Contact{UserID: rsv.SubjectID}
	} else if err != nil {
		return err
	}

	if err := s.notifier.NotifyBookingApproved(ctx, *contact, rsv, res); err != nil {
		return err
	}
	if err := s.reservationRepo.MarkNotified(ctx, rsv.ID); err != nil {
		return err
	}
	logger.Info("Approval notification delivered", "reservationID", rsv.ID, "subjectID", rsv.SubjectID)
	return nil
}

func (s *notificationService) RetryPending(ctx context.Context, limit int) (int, error) {
	logger.EnterMethod("notificationService.RetryPending", "limit", limit)

	// Reservations touched within the dispatch timeout may still have a
	// DispatchApproval delivery in flight.
	pending, err := s.reservationRepo.ListUnnotified(ctx, time.Now().Add(-s.timeout), limit)
	if err != nil {
		logger.ExitMethodWithError("notificationService.RetryPending", err)
		return 0, err
	}

	delivered := 0
	for _, rsv := range pending {
		if ctx.Err() != nil {
			return delivered, ctx.Err()
		}
		res, err := s.resourceRepo.GetByID(ctx, rsv.ResourceID)
		if err != nil {
			logger.Warn("Skipping notification retry", "reservationID", rsv.ID, "error", err)
			continue
		}
		if err := s.Deliver(ctx, rsv, *res); err != nil {
			logger.Warn("Notification retry failed", "reservationID", rsv.ID, "error", err)
			continue
		}
		delivered++
	}

	logger.ExitMethod("notificationService.RetryPending", "pending", len(pending), "delivered", delivered)
	return delivered, nil
}

func (s *notificationService) Wait() {
	s.inflight.Wait()
}
