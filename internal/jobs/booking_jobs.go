package jobs

import (
	"context"

	"parkease-backend/internal/logger"
)

// RetryNotifications re-sends approval notices that were not delivered
// when the reservation was approved.
func (jr *JobRunner) RetryNotifications() error {
	return jr.runWithRecovery("RetryNotifications", func(ctx context.Context) error {
		delivered, err := jr.services.Notification.RetryPending(ctx, jr.config.Jobs.BatchSize)
		if err != nil {
			return err
		}
		logger.Info("Retried approval notifications", "delivered", delivered)
		return nil
	})
}

// CompleteElapsedReservations closes approved and active reservations whose
// window ended more than the configured grace period ago, returning their
// spots to the pool.
func (jr *JobRunner) CompleteElapsedReservations() error {
	return jr.runWithRecovery("CompleteElapsedReservations", func(ctx context.Context) error {
		cutoff := jr.now().Add(-jr.config.Jobs.CompletionGrace())
		completed, err := jr.services.Booking.CompleteElapsed(ctx, cutoff, jr.config.Jobs.BatchSize)
		if err != nil {
			return err
		}
		logger.Info("Completed elapsed reservations", "count", completed, "cutoff", cutoff)
		return nil
	})
}
