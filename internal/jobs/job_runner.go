package jobs

import (
	"context"
	"fmt"
	"time"

	"parkease-backend/internal/config"
	"parkease-backend/internal/logger"
	"parkease-backend/internal/service"
)

// jobTimeout bounds a single job run.
const jobTimeout = 10 * time.Minute

// JobRunner coordinates all scheduled jobs
type JobRunner struct {
	services *Services
	config   *config.Config
	now      func() time.Time
}

// Services holds all service dependencies needed by jobs
type Services struct {
	Booking      service.BookingService
	Notification service.NotificationService
}

// NewJobRunner creates a new job runner with all dependencies
func NewJobRunner(services *Services, cfg *config.Config) *JobRunner {
	return &JobRunner{
		services: services,
		config:   cfg,
		now:      time.Now,
	}
}

// WithClock replaces the wall clock used to compute cutoffs.
func (jr *JobRunner) WithClock(now func() time.Time) *JobRunner {
	jr.now = now
	return jr
}

func (jr *JobRunner) Config() *config.Config {
	return jr.config
}

// runWithRecovery wraps job execution with panic recovery and a deadline.
// It returns the job's error, or an error describing the panic.
func (jr *JobRunner) runWithRecovery(jobName string, jobFunc func(ctx context.Context) error) (err error) {
	log := logger.WithJob(jobName)
	defer func() {
		if r := recover(); r != nil {
			log.Error("Job panicked", "panic", r)
			err = fmt.Errorf("job %s panicked: %v", jobName, r)
		}
	}()

	ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
	defer cancel()

	start := jr.now()
	log.Info("Starting job")
	if err = jobFunc(ctx); err != nil {
		log.Error("Job failed", "error", err)
		return err
	}
	log.Info("Job completed", "duration_ms", jr.now().Sub(start).Milliseconds())
	return nil
}

// RunAll runs every job once (for manual execution)
func (jr *JobRunner) RunAll() error {
	if err := jr.CompleteElapsedReservations(); err != nil {
		return err
	}
	return jr.RetryNotifications()
}
