package http

import (
	"context"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/gorilla/mux"

	"parkease-backend/internal/config"
	"parkease-backend/internal/security"
	"parkease-backend/internal/service"
)

// HealthChecker is satisfied by the repository store.
type HealthChecker interface {
	Ping(ctx context.Context) error
}

// Handler serves the ParkEase REST API.
type Handler struct {
	resources service.ResourceService
	bookings  service.BookingService
	health    HealthChecker
	validate  *validator.Validate
}

func NewHandler(resources service.ResourceService, bookings service.BookingService, health HealthChecker) *Handler {
	return &Handler{
		resources: resources,
		bookings:  bookings,
		health:    health,
		validate:  newValidator(),
	}
}

// NewRouter registers every route under /api/v1 plus /healthz. Route names
// key the endpoint security table.
func NewRouter(h *Handler, identities security.IdentityProvider) *mux.Router {
	router := mux.NewRouter()
	router.Use(requestIDMiddleware, accessLogMiddleware, authMiddleware(identities))
	router.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusNotFound, errorResponse{Detail: "route not found"})
	})
	router.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusMethodNotAllowed, errorResponse{Detail: "method not allowed"})
	})

	router.HandleFunc("/healthz", h.Health).Methods(http.MethodGet).Name(config.RouteHealth)

	api := router.PathPrefix("/api/v1").Subrouter()

	// Parkings. "/parkings/mine" must be registered before "/parkings/{id}".
	api.HandleFunc("/parkings", h.FindParkings).Methods(http.MethodGet).Name(config.RouteFindParkings)
	api.HandleFunc("/parkings", h.CreateParking).Methods(http.MethodPost).Name(config.RouteCreateParking)
	api.HandleFunc("/parkings/mine", h.ListMyParkings).Methods(http.MethodGet).Name(config.RouteMyParkings)
	api.HandleFunc("/parkings/{id}", h.GetParking).Methods(http.MethodGet).Name(config.RouteGetParking)
	api.HandleFunc("/parkings/{id}", h.UpdateParking).Methods(http.MethodPatch).Name(config.RouteUpdateParking)
	api.HandleFunc("/parkings/{id}", h.DeleteParking).Methods(http.MethodDelete).Name(config.RouteDeleteParking)
	api.HandleFunc("/parkings/{id}/availability", h.SetAvailability).Methods(http.MethodPatch).Name(config.RouteSetAvailability)
	api.HandleFunc("/owner/analytics", h.OwnerAnalytics).Methods(http.MethodGet).Name(config.RouteOwnerAnalytics)

	// Bookings
	api.HandleFunc("/bookings", h.CreateBooking).Methods(http.MethodPost).Name(config.RouteCreateBooking)
	api.HandleFunc("/bookings/mine", h.ListMyBookings).Methods(http.MethodGet).Name(config.RouteMyBookings)
	api.HandleFunc("/bookings/owner", h.ListOwnerBookings).Methods(http.MethodGet).Name(config.RouteOwnerBookings)
	api.HandleFunc("/bookings/{id}", h.GetBooking).Methods(http.MethodGet).Name(config.RouteGetBooking)
	api.HandleFunc("/bookings/{id}/status", h.SetBookingStatus).Methods(http.MethodPatch).Name(config.RouteSetBookingStatus)
	api.HandleFunc("/bookings/{id}/cancel", h.CancelBooking).Methods(http.MethodPatch).Name(config.RouteCancelBooking)

	return router
}

func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	if err := h.health.Ping(r.Context()); err != nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
