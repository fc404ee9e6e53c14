package http

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	json "github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"parkease-backend/internal/domain"
	"parkease-backend/internal/repository/memory"
	"parkease-backend/internal/security"
	"parkease-backend/internal/service"
)

const (
	operatorToken = "tok-operator"
	driverToken   = "tok-driver"
	homeToken     = "tok-home"
)

type apiFixture struct {
	t        *testing.T
	router   http.Handler
	notifier service.NotificationService
}

func newAPIFixture(t *testing.T) *apiFixture {
	t.Helper()
	store := memory.NewStore()
	notifications := service.NewNotificationService(
		store.ResourceRepository(), store.ReservationRepository(), store.ContactRepository(),
		service.NewLogNotifier(), time.Second,
	)
	resources := service.NewResourceService(store.ResourceRepository(), store.ReservationRepository())
	bookings := service.NewBookingService(store.ResourceRepository(), store.ReservationRepository(), notifications)
	identities := security.NewStaticIdentityProvider(map[string]domain.Identity{
		operatorToken: {UserID: "operator-1", Role: domain.RoleOperator},
		driverToken:   {UserID: "driver-1", Role: domain.RoleDriver},
		homeToken:     {UserID: "home-1", Role: domain.RoleResidential},
	})
	f := &apiFixture{
		t:        t,
		router:   NewRouter(NewHandler(resources, bookings, store), identities),
		notifier: notifications,
	}
	t.Cleanup(notifications.Wait)
	return f
}

func (f *apiFixture) do(method, path, credential string, body any) *httptest.ResponseRecorder {
	f.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if s, ok := body.(string); ok {
			buf.WriteString(s)
		} else {
			require.NoError(f.t, json.NewEncoder(&buf).Encode(body))
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if credential != "" {
		req.Header.Set("Authorization", "Bearer "+credential)
	}
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)
	return rec
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

func (f *apiFixture) createLot(spots int) parkingResponse {
	f.t.Helper()
	rec := f.do(http.MethodPost, "/api/v1/parkings", operatorToken, map[string]any{
		"name":         "Central Lot",
		"location":     map[string]any{"latitude": 12.9716, "longitude": 77.5946, "address": "MG Road"},
		"totalSpots":   spots,
		"pricePerHour": 5.00,
		"features":     []string{"covered", "security"},
	})
	require.Equal(f.t, http.StatusCreated, rec.Code, rec.Body.String())
	return decodeBody[parkingResponse](f.t, rec)
}

func bookingBody(parkingID string) map[string]any {
	return map[string]any{
		"resourceId": parkingID,
		"startTime":  "2026-03-01T09:00:00Z",
		"endTime":    "2026-03-01T12:00:00Z",
		"vehicle":    map[string]any{"plateNumber": "KA01AB1234", "vehicleType": "car"},
	}
}

func TestBookingLifecycleOverHTTP(t *testing.T) {
	f := newAPIFixture(t)

	lot := f.createLot(2)
	assert.Equal(t, "private", lot.Kind)
	assert.Equal(t, 2, lot.AvailableSpots)
	assert.Equal(t, int64(500), lot.PricePerHourCents)
	assert.Equal(t, []string{"covered", "secured"}, lot.Features)

	rec := f.do(http.MethodPost, "/api/v1/bookings", driverToken, bookingBody(lot.ID))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	booking := decodeBody[bookingResponse](t, rec)
	assert.Equal(t, "pending", booking.Status)
	assert.Equal(t, 3, booking.Duration)
	assert.Equal(t, 15.0, booking.TotalPrice)
	assert.Equal(t, "driver-1", booking.UserID)

	// Drivers cannot approve.
	rec = f.do(http.MethodPatch, "/api/v1/bookings/"+booking.ID+"/status", driverToken, map[string]any{"status": "approved"})
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = f.do(http.MethodPatch, "/api/v1/bookings/"+booking.ID+"/status", operatorToken, map[string]any{"status": "approved", "comment": "see you"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	approved := decodeBody[bookingResponse](t, rec)
	assert.Equal(t, "approved", approved.Status)
	assert.Equal(t, "see you", approved.Comment)

	rec = f.do(http.MethodGet, "/api/v1/parkings/"+lot.ID, "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, decodeBody[parkingResponse](t, rec).AvailableSpots)

	rec = f.do(http.MethodPatch, "/api/v1/bookings/"+booking.ID+"/cancel", driverToken, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "cancelled", decodeBody[bookingResponse](t, rec).Status)

	rec = f.do(http.MethodGet, "/api/v1/parkings/"+lot.ID, "", nil)
	assert.Equal(t, 2, decodeBody[parkingResponse](t, rec).AvailableSpots)

	// Terminal state.
	rec = f.do(http.MethodPatch, "/api/v1/bookings/"+booking.ID+"/status", operatorToken, map[string]any{"status": "approved"})
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = f.do(http.MethodGet, "/api/v1/bookings/mine", driverToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decodeBody[[]bookingResponse](t, rec), 1)

	rec = f.do(http.MethodGet, "/api/v1/bookings/owner?status=cancelled", operatorToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decodeBody[[]bookingResponse](t, rec), 1)
}

func TestCreateBooking_LegacyShape(t *testing.T) {
	f := newAPIFixture(t)
	lot := f.createLot(1)

	rec := f.do(http.MethodPost, "/api/v1/bookings", driverToken, map[string]any{
		"parking":       lot.ID,
		"startTime":     "2026-03-01T09:00:00+05:30",
		"endTime":       "2026-03-01T10:30:00+05:30",
		"vehicleNumber": "TN09",
		"vehicleType":   "ev",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	b := decodeBody[bookingResponse](t, rec)
	assert.Equal(t, lot.ID, b.ResourceID)
	assert.Equal(t, vehicleDTO{PlateNumber: "TN09", VehicleType: "ev"}, b.Vehicle)
	assert.Equal(t, 2, b.Duration)
	assert.Equal(t, time.Date(2026, 3, 1, 3, 30, 0, 0, time.UTC), b.StartTime.UTC())

	rec = f.do(http.MethodPost, "/api/v1/bookings", driverToken, map[string]any{
		"parking":        lot.ID,
		"startTime":      "2026-03-02T09:00:00Z",
		"endTime":        "2026-03-02T10:00:00Z",
		"vehicleDetails": map[string]any{"number": "MH12", "type": "truck"},
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Equal(t, vehicleDTO{PlateNumber: "MH12", VehicleType: "truck"}, decodeBody[bookingResponse](t, rec).Vehicle)

	rec = f.do(http.MethodPost, "/api/v1/bookings", driverToken, map[string]any{
		"resourceId": lot.ID,
		"startTime":  "2026-03-03T09:00:00Z",
		"endTime":    "2026-03-03T10:00:00Z",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Equal(t, vehicleDTO{PlateNumber: domain.UnknownPlateNumber, VehicleType: "car"}, decodeBody[bookingResponse](t, rec).Vehicle)
}

func TestCreateBooking_Errors(t *testing.T) {
	f := newAPIFixture(t)
	lot := f.createLot(1)

	t.Run("no credential", func(t *testing.T) {
		rec := f.do(http.MethodPost, "/api/v1/bookings", "", bookingBody(lot.ID))
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("unknown credential", func(t *testing.T) {
		rec := f.do(http.MethodPost, "/api/v1/bookings", "forged", bookingBody(lot.ID))
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("missing start time", func(t *testing.T) {
		body := bookingBody(lot.ID)
		delete(body, "startTime")
		rec := f.do(http.MethodPost, "/api/v1/bookings", driverToken, body)
		require.Equal(t, http.StatusBadRequest, rec.Code)
		resp := decodeBody[errorResponse](t, rec)
		assert.Contains(t, resp.Fields, "startTime")
	})

	t.Run("malformed timestamp", func(t *testing.T) {
		body := bookingBody(lot.ID)
		body["startTime"] = "tomorrow at nine"
		rec := f.do(http.MethodPost, "/api/v1/bookings", driverToken, body)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("end before start", func(t *testing.T) {
		body := bookingBody(lot.ID)
		body["endTime"] = "2026-03-01T08:00:00Z"
		rec := f.do(http.MethodPost, "/api/v1/bookings", driverToken, body)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("unknown vehicle type", func(t *testing.T) {
		body := bookingBody(lot.ID)
		body["vehicle"] = map[string]any{"vehicleType": "bicycle"}
		rec := f.do(http.MethodPost, "/api/v1/bookings", driverToken, body)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("malformed body", func(t *testing.T) {
		rec := f.do(http.MethodPost, "/api/v1/bookings", driverToken, "{not json")
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("unknown parking", func(t *testing.T) {
		rec := f.do(http.MethodPost, "/api/v1/bookings", driverToken, bookingBody("missing"))
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("no availability", func(t *testing.T) {
		rec := f.do(http.MethodPatch, "/api/v1/parkings/"+lot.ID+"/availability", operatorToken, map[string]any{"availableSpots": 0})
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		rec = f.do(http.MethodPost, "/api/v1/bookings", driverToken, bookingBody(lot.ID))
		assert.Equal(t, http.StatusConflict, rec.Code)
	})
}

func TestSetBookingStatus_InvalidStatus(t *testing.T) {
	f := newAPIFixture(t)
	lot := f.createLot(1)
	rec := f.do(http.MethodPost, "/api/v1/bookings", driverToken, bookingBody(lot.ID))
	require.Equal(t, http.StatusCreated, rec.Code)
	b := decodeBody[bookingResponse](t, rec)

	rec = f.do(http.MethodPatch, "/api/v1/bookings/"+b.ID+"/status", operatorToken, map[string]any{"status": "confirmed"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = f.do(http.MethodPatch, "/api/v1/bookings/"+b.ID+"/status", operatorToken, map[string]any{"status": "completed"})
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = f.do(http.MethodGet, "/api/v1/bookings/unknown", driverToken, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = f.do(http.MethodGet, "/api/v1/bookings/mine?status=bogus", driverToken, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestFindParkings(t *testing.T) {
	f := newAPIFixture(t)
	lot := f.createLot(3)

	rec := f.do(http.MethodGet, "/api/v1/parkings?lat=12.9716&lng=77.5946&distanceKm=2&features=covered", "", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	found := decodeBody[[]parkingResponse](t, rec)
	require.Len(t, found, 1)
	assert.Equal(t, lot.ID, found[0].ID)
	require.NotNil(t, found[0].DistanceKm)
	assert.InDelta(t, 0, *found[0].DistanceKm, 1e-6)

	// About 11 km north is outside the default 5 km radius.
	rec = f.do(http.MethodGet, "/api/v1/parkings?lat=13.0716&lng=77.5946", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, decodeBody[[]parkingResponse](t, rec))

	rec = f.do(http.MethodGet, "/api/v1/parkings?features=charging", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, decodeBody[[]parkingResponse](t, rec))

	for _, q := range []string{"lat=12.9", "lat=abc&lng=1", "lat=1&lng=1&distanceKm=-3", "vehicleType=bicycle", "lat=95&lng=0"} {
		rec = f.do(http.MethodGet, "/api/v1/parkings?"+q, "", nil)
		assert.Equal(t, http.StatusBadRequest, rec.Code, q)
	}
}

func TestParkingManagement(t *testing.T) {
	f := newAPIFixture(t)
	lot := f.createLot(4)

	t.Run("mine is not an id", func(t *testing.T) {
		rec := f.do(http.MethodGet, "/api/v1/parkings/mine", operatorToken, nil)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Len(t, decodeBody[[]parkingResponse](t, rec), 1)
	})

	t.Run("drivers cannot list parking", func(t *testing.T) {
		rec := f.do(http.MethodPost, "/api/v1/parkings", driverToken, map[string]any{
			"name":         "Nope",
			"location":     map[string]any{"latitude": 1.0, "longitude": 1.0, "address": "x"},
			"totalSpots":   1,
			"pricePerHour": 1.0,
		})
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("residential over cap", func(t *testing.T) {
		rec := f.do(http.MethodPost, "/api/v1/parkings", homeToken, map[string]any{
			"name":         "Driveway",
			"location":     map[string]any{"latitude": 1.0, "longitude": 1.0, "address": "x"},
			"totalSpots":   4,
			"pricePerHour": 1.0,
		})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("missing coordinates", func(t *testing.T) {
		rec := f.do(http.MethodPost, "/api/v1/parkings", operatorToken, map[string]any{
			"name":         "Nowhere",
			"location":     map[string]any{"address": "x"},
			"totalSpots":   1,
			"pricePerHour": 1.0,
		})
		require.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Contains(t, decodeBody[errorResponse](t, rec).Fields, "latitude")
	})

	t.Run("update shifts availability", func(t *testing.T) {
		rec := f.do(http.MethodPatch, "/api/v1/parkings/"+lot.ID, operatorToken, map[string]any{"totalSpots": 6, "pricePerHour": 7.5})
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		updated := decodeBody[parkingResponse](t, rec)
		assert.Equal(t, 6, updated.TotalSpots)
		assert.Equal(t, 6, updated.AvailableSpots)
		assert.Equal(t, int64(750), updated.PricePerHourCents)
	})

	t.Run("other owners are forbidden", func(t *testing.T) {
		rec := f.do(http.MethodPatch, "/api/v1/parkings/"+lot.ID+"/availability", homeToken, map[string]any{"availableSpots": 1})
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("availability above total", func(t *testing.T) {
		rec := f.do(http.MethodPatch, "/api/v1/parkings/"+lot.ID+"/availability", operatorToken, map[string]any{"availableSpots": 99})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("analytics", func(t *testing.T) {
		rec := f.do(http.MethodGet, "/api/v1/owner/analytics", operatorToken, nil)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, 1, decodeBody[analyticsResponse](t, rec).TotalParkings)

		rec = f.do(http.MethodGet, "/api/v1/owner/analytics", driverToken, nil)
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("delete", func(t *testing.T) {
		rec := f.do(http.MethodDelete, "/api/v1/parkings/"+lot.ID, operatorToken, nil)
		assert.Equal(t, http.StatusNoContent, rec.Code)
		rec = f.do(http.MethodGet, "/api/v1/parkings/"+lot.ID, "", nil)
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func TestHealthAndRouting(t *testing.T) {
	f := newAPIFixture(t)

	rec := f.do(http.MethodGet, "/healthz", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, rec.Header().Get(requestIDHeader))

	rec = f.do(http.MethodGet, "/api/v1/nothing", "", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err  error
		code int
	}{
		{domain.ErrReservationNotFound, http.StatusNotFound},
		{domain.ErrForbidden, http.StatusForbidden},
		{domain.ErrUnauthenticated, http.StatusUnauthorized},
		{domain.ErrInvalidWindow, http.StatusBadRequest},
		{domain.ErrInvalidStatus, http.StatusBadRequest},
		{domain.ErrNoAvailability, http.StatusConflict},
		{domain.ErrInvalidTransition, http.StatusConflict},
		{domain.ErrResourceInactive, http.StatusConflict},
		{assert.AnError, http.StatusInternalServerError},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.code, statusFor(tt.err), tt.err.Error())
	}
}
