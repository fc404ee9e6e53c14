package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"parkease-backend/internal/domain"
	"parkease-backend/internal/repository/memory"
)

var homeowner = domain.Identity{UserID: "home-1", Role: domain.RoleResidential}

func newResourceService() (ResourceService, *memory.Store) {
	store := memory.NewStore()
	return NewResourceService(store.ResourceRepository(), store.ReservationRepository()), store
}

func draft(kind domain.ResourceKind, spots int) domain.ResourceDraft {
	return domain.ResourceDraft{
		Name:              "Spot",
		Kind:              kind,
		Location:          domain.Location{Point: domain.Point{Longitude: 77.6, Latitude: 12.9}},
		TotalSpots:        spots,
		PricePerHourCents: 300,
	}
}

// TestResourceService_CreateResource checks the creation rules per role.
func TestResourceService_CreateResource(t *testing.T) {
	ctx := context.Background()
	svc, _ := newResourceService()

	tests := []struct {
		name     string
		caller   domain.Identity
		kind     domain.ResourceKind
		spots    int
		expected domain.ResourceKind
	}{
		{"operator default", operator, "", 50, domain.ResourceKindPrivate},
		{"operator government", operator, domain.ResourceKindGovernment, 50, domain.ResourceKindGovernment},
		{"operator cannot list residential", operator, domain.ResourceKindResidential, 50, domain.ResourceKindPrivate},
		{"residential forced", homeowner, domain.ResourceKindPrivate, 2, domain.ResourceKindResidential},
		{"residential at cap", homeowner, "", 3, domain.ResourceKindResidential},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := svc.CreateResource(ctx, tt.caller, draft(tt.kind, tt.spots))
			require.NoError(t, err)
			assert.Equal(t, tt.expected, res.Kind)
			assert.Equal(t, tt.spots, res.AvailableSpots)
			assert.Equal(t, tt.caller.UserID, res.OwnerID)
			assert.Equal(t, domain.LifecycleActive, res.State)
		})
	}

	t.Run("residential over cap", func(t *testing.T) {
		_, err := svc.CreateResource(ctx, homeowner, draft(domain.ResourceKindPrivate, 5))
		assert.ErrorIs(t, err, domain.ErrValidation)
	})

	t.Run("driver forbidden", func(t *testing.T) {
		_, err := svc.CreateResource(ctx, driver, draft("", 1))
		assert.ErrorIs(t, err, domain.ErrForbidden)
	})

	t.Run("invalid listing", func(t *testing.T) {
		d := draft("", 0)
		_, err := svc.CreateResource(ctx, operator, d)
		assert.ErrorIs(t, err, domain.ErrValidation)

		d = draft("", 1)
		d.PricePerHourCents = 0
		_, err = svc.CreateResource(ctx, operator, d)
		assert.ErrorIs(t, err, domain.ErrValidation)

		d = draft("", 1)
		d.OperatingHours = domain.OperatingHours{Open: "8am"}
		_, err = svc.CreateResource(ctx, operator, d)
		assert.ErrorIs(t, err, domain.ErrValidation)
	})
}

func TestResourceService_UpdateResource(t *testing.T) {
	ctx := context.Background()
	svc, _ := newResourceService()
	res, err := svc.CreateResource(ctx, operator, draft("", 10))
	require.NoError(t, err)
	_, err = svc.SetAvailableSpots(ctx, operator, res.ID, 4)
	require.NoError(t, err)

	t.Run("total change shifts availability", func(t *testing.T) {
		total := 7
		got, err := svc.UpdateResource(ctx, operator, res.ID, domain.ResourcePatch{TotalSpots: &total})
		require.NoError(t, err)
		assert.Equal(t, 7, got.TotalSpots)
		assert.Equal(t, 1, got.AvailableSpots)
	})

	t.Run("kind is immutable", func(t *testing.T) {
		kind := domain.ResourceKindGovernment
		_, err := svc.UpdateResource(ctx, operator, res.ID, domain.ResourcePatch{Kind: &kind})
		assert.ErrorIs(t, err, domain.ErrValidation)
	})

	t.Run("same kind is accepted", func(t *testing.T) {
		kind := domain.ResourceKindPrivate
		name := "Renamed"
		got, err := svc.UpdateResource(ctx, operator, res.ID, domain.ResourcePatch{Kind: &kind, Name: &name})
		require.NoError(t, err)
		assert.Equal(t, "Renamed", got.Name)
	})

	t.Run("not owner", func(t *testing.T) {
		name := "Mine now"
		_, err := svc.UpdateResource(ctx, homeowner, res.ID, domain.ResourcePatch{Name: &name})
		assert.ErrorIs(t, err, domain.ErrForbidden)
	})

	t.Run("residential cap on update", func(t *testing.T) {
		home, err := svc.CreateResource(ctx, homeowner, draft("", 2))
		require.NoError(t, err)
		total := 4
		_, err = svc.UpdateResource(ctx, homeowner, home.ID, domain.ResourcePatch{TotalSpots: &total})
		assert.ErrorIs(t, err, domain.ErrValidation)
	})

	t.Run("missing", func(t *testing.T) {
		_, err := svc.UpdateResource(ctx, operator, "missing", domain.ResourcePatch{})
		assert.ErrorIs(t, err, domain.ErrResourceNotFound)
	})
}

func TestResourceService_SetAvailableSpots(t *testing.T) {
	ctx := context.Background()
	svc, _ := newResourceService()
	res, err := svc.CreateResource(ctx, operator, draft("", 3))
	require.NoError(t, err)

	_, err = svc.SetAvailableSpots(ctx, operator, res.ID, 4)
	assert.ErrorIs(t, err, domain.ErrValidation)
	_, err = svc.SetAvailableSpots(ctx, driver, res.ID, 1)
	assert.ErrorIs(t, err, domain.ErrForbidden)

	got, err := svc.SetAvailableSpots(ctx, operator, res.ID, 0)
	require.NoError(t, err)
	assert.Equal(t, 0, got.AvailableSpots)
}

func TestResourceService_DeleteResource(t *testing.T) {
	ctx := context.Background()
	svc, store := newResourceService()
	res, err := svc.CreateResource(ctx, operator, draft("", 3))
	require.NoError(t, err)

	assert.ErrorIs(t, svc.DeleteResource(ctx, driver, res.ID), domain.ErrForbidden)
	require.NoError(t, svc.DeleteResource(ctx, operator, res.ID))
	_, err = store.ResourceRepository().GetByID(ctx, res.ID)
	assert.ErrorIs(t, err, domain.ErrResourceNotFound)
	assert.ErrorIs(t, svc.DeleteResource(ctx, operator, res.ID), domain.ErrResourceNotFound)
}

func TestResourceService_FindNear(t *testing.T) {
	ctx := context.Background()
	svc, _ := newResourceService()
	near, err := svc.CreateResource(ctx, operator, draft("", 3))
	require.NoError(t, err)
	far := draft("", 3)
	far.Location.Point = domain.Point{Longitude: 77.6, Latitude: 13.0}
	_, err = svc.CreateResource(ctx, operator, far)
	require.NoError(t, err)

	center := domain.Point{Longitude: 77.6, Latitude: 12.91}

	got, err := svc.FindNear(ctx, domain.ProximityQuery{Center: &center})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, near.ID, got[0].ID)

	got, err = svc.FindNear(ctx, domain.ProximityQuery{Center: &center, RadiusKm: 20})
	require.NoError(t, err)
	assert.Len(t, got, 2)

	got, err = svc.FindNear(ctx, domain.ProximityQuery{})
	require.NoError(t, err)
	assert.Len(t, got, 2)

	_, err = svc.FindNear(ctx, domain.ProximityQuery{Center: &center, RadiusKm: -1})
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestResourceService_OwnerAnalytics(t *testing.T) {
	f := newBookingFixture(t)
	ctx := context.Background()
	busy := f.listLot(t, 5, 500)
	quiet := f.listLot(t, 5, 500)

	done := f.request(t, driver, busy.ID, 2)
	f.request(t, stranger, busy.ID, 1)
	f.request(t, driver, quiet.ID, 1)
	_, err := f.bookings.SetStatus(ctx, operator, done.ID, domain.ReservationStatusApproved, nil)
	require.NoError(t, err)
	_, err = f.bookings.CompleteElapsed(ctx, done.EndTime.Add(time.Second), 0)
	require.NoError(t, err)

	stats, err := f.resources.OwnerAnalytics(ctx, operator)
	require.NoError(t, err)
	assert.Equal(t, 2, stats.TotalResources)
	assert.Equal(t, 3, stats.TotalBookings)
	assert.Equal(t, int64(1000), stats.TotalRevenueCents)
	require.NotNil(t, stats.MostBooked)
	assert.Equal(t, busy.ID, stats.MostBooked.ResourceID)
	assert.Equal(t, 2, stats.MostBooked.Bookings)

	_, err = f.resources.OwnerAnalytics(ctx, driver)
	assert.ErrorIs(t, err, domain.ErrForbidden)
}
