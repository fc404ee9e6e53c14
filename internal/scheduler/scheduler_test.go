package scheduler

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"parkease-backend/internal/config"
	"parkease-backend/internal/jobs"
)

func runnerWith(scheduler config.SchedulerConfig) *jobs.JobRunner {
	return jobs.NewJobRunner(&jobs.Services{}, &config.Config{Scheduler: scheduler})
}

func TestNewScheduler(t *testing.T) {
	s, err := NewScheduler(runnerWith(config.SchedulerConfig{
		RetryNotifications:   "0 */5 * * * *",
		CompleteReservations: "30 */15 * * * *",
	}))
	require.NoError(t, err)
	assert.True(t, s.IsRunning())
	assert.Len(t, s.Entries(), 2)

	s.Start()
	for _, e := range s.Entries() {
		assert.False(t, e.Next.IsZero())
	}
	s.Stop()
}

func TestNewScheduler_InvalidSpec(t *testing.T) {
	_, err := NewScheduler(runnerWith(config.SchedulerConfig{
		RetryNotifications:   "every five minutes",
		CompleteReservations: "0 */15 * * * *",
	}))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "RetryNotifications")
}
