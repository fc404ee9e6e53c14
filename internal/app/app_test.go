package app

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"parkease-backend/internal/config"
	"parkease-backend/internal/domain"
	"parkease-backend/internal/repository"
	"parkease-backend/internal/repository/memory"
	"parkease-backend/internal/repository/postgres"
	"parkease-backend/internal/service"
)

// Both stores are usable wherever OpenStore's result is.
var (
	_ repository.Store = (*memory.Store)(nil)
	_ repository.Store = (*postgres.Store)(nil)
)

func memoryConfig(t *testing.T, channels ...string) *config.Config {
	t.Helper()
	cfg, err := config.Parse([]byte(`
server:
  http_port: 8080
database:
  driver: memory
auth:
  provider: static
`))
	require.NoError(t, err)
	if len(channels) > 0 {
		cfg.Notification.Channels = channels
	}
	return cfg
}

func TestOpenStore_Memory(t *testing.T) {
	store, err := OpenStore(context.Background(), memoryConfig(t))
	require.NoError(t, err)
	assert.IsType(t, &memory.Store{}, store)
	assert.NoError(t, store.Ping(context.Background()))
	assert.NoError(t, store.Close())
}

func TestNewNotifier(t *testing.T) {
	ctx := context.Background()

	n, err := NewNotifier(ctx, memoryConfig(t))
	require.NoError(t, err)
	assert.IsType(t, &service.LogNotifier{}, n)

	cfg := memoryConfig(t, config.ChannelLog, config.ChannelEmail)
	cfg.Notification.SendGrid.APIKey = "SG.test"
	cfg.Notification.SendGrid.FromEmail = "noreply@parkease.test"
	n, err = NewNotifier(ctx, cfg)
	require.NoError(t, err)
	assert.IsType(t, &service.MultiNotifier{}, n)

	_, err = NewNotifier(ctx, memoryConfig(t, "carrier-pigeon"))
	assert.Error(t, err)
}

func TestNewServices(t *testing.T) {
	ctx := context.Background()
	cfg := memoryConfig(t)
	store, err := OpenStore(ctx, cfg)
	require.NoError(t, err)
	svc := NewServices(store, service.NewLogNotifier(), cfg)
	t.Cleanup(svc.Notifications.Wait)

	owner := domain.Identity{UserID: "op", Role: domain.RoleOperator}
	lot, err := svc.Resources.CreateResource(ctx, owner, domain.ResourceDraft{
		Name:              "Depot",
		Location:          domain.Location{Point: domain.Point{Latitude: 1, Longitude: 1}, Address: "Dock road"},
		TotalSpots:        1,
		PricePerHourCents: 100,
	})
	require.NoError(t, err)

	start := time.Date(2026, 1, 1, 8, 0, 0, 0, time.UTC)
	rsv, err := svc.Bookings.CreateReservation(ctx, domain.Identity{UserID: "d", Role: domain.RoleDriver}, domain.ReservationRequest{
		ResourceID: lot.ID, StartTime: start, EndTime: start.Add(time.Hour),
	})
	require.NoError(t, err)
	_, err = svc.Bookings.SetStatus(ctx, owner, rsv.ID, domain.ReservationStatusApproved, nil)
	require.NoError(t, err)

	svc.Notifications.Wait()
	got, err := store.ReservationRepository().GetByID(ctx, rsv.ID)
	require.NoError(t, err)
	assert.True(t, got.Notified)
}

func TestClassifyError(t *testing.T) {
	assert.Equal(t, slog.LevelWarn, classifyError(domain.ErrForbidden))
	assert.Equal(t, slog.LevelError, classifyError(assert.AnError))
}
