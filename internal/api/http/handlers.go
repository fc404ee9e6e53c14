package http

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	json "github.com/goccy/go-json"
	"github.com/gorilla/mux"

	"parkease-backend/internal/domain"
	"parkease-backend/internal/geo"
)

const maxBodyBytes = 1 << 20

// decode reads a JSON body into dst and runs struct validation. It writes
// the 400 response itself and reports whether the handler may continue.
func (h *Handler) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	body := http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(body).Decode(dst); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Detail: "malformed JSON body"})
		return false
	}
	if err := h.validate.Struct(dst); err != nil {
		writeValidationError(w, err)
		return false
	}
	return true
}

// FindParkings handles GET /parkings?lat=&lng=&distanceKm=&vehicleType=&features=
func (h *Handler) FindParkings(w http.ResponseWriter, r *http.Request) {
	query, err := parseProximityQuery(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	resources, err := h.resources.FindNear(r.Context(), query)
	if err != nil {
		writeError(w, r, err)
		return
	}
	out := make([]parkingResponse, len(resources))
	for i, res := range resources {
		out[i] = toParkingResponse(res)
		if query.Center != nil {
			d := geo.PointDistanceKm(*query.Center, res.Location.Point)
			out[i].DistanceKm = &d
		}
	}
	writeJSON(w, http.StatusOK, out)
}

func parseProximityQuery(r *http.Request) (domain.ProximityQuery, error) {
	q := r.URL.Query()
	var query domain.ProximityQuery

	lat, lng := q.Get("lat"), q.Get("lng")
	if (lat == "") != (lng == "") {
		return query, fmt.Errorf("%w: lat and lng must be given together", domain.ErrValidation)
	}
	if lat != "" {
		latV, err := parseFloat("lat", lat)
		if err != nil {
			return query, err
		}
		lngV, err := parseFloat("lng", lng)
		if err != nil {
			return query, err
		}
		query.Center = &domain.Point{Latitude: latV, Longitude: lngV}
	}

	distance := q.Get("distanceKm")
	if distance == "" {
		distance = q.Get("distance")
	}
	if distance != "" {
		d, err := parseFloat("distanceKm", distance)
		if err != nil {
			return query, err
		}
		if d <= 0 {
			return query, fmt.Errorf("%w: distanceKm must be positive", domain.ErrValidation)
		}
		query.RadiusKm = d
	}

	if vt := q.Get("vehicleType"); vt != "" {
		parsed, err := domain.ParseVehicleType(vt)
		if err != nil {
			return query, err
		}
		query.Filter.VehicleType = parsed
	}
	if fs := q.Get("features"); fs != "" {
		features, err := domain.ParseFeatures(strings.Split(fs, ","))
		if err != nil {
			return query, err
		}
		query.Filter.Features = features
	}
	return query, nil
}

func parseFloat(field, s string) (float64, error) {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %s must be a number", domain.ErrValidation, field)
	}
	return v, nil
}

func (h *Handler) GetParking(w http.ResponseWriter, r *http.Request) {
	res, err := h.resources.GetResource(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toParkingResponse(*res))
}

func (h *Handler) CreateParking(w http.ResponseWriter, r *http.Request) {
	caller, err := callerFrom(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	var req createParkingRequest
	if !h.decode(w, r, &req) {
		return
	}
	draft, err := req.toDomain()
	if err != nil {
		writeError(w, r, err)
		return
	}
	res, err := h.resources.CreateResource(r.Context(), caller, draft)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toParkingResponse(*res))
}

func (h *Handler) ListMyParkings(w http.ResponseWriter, r *http.Request) {
	caller, err := callerFrom(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	resources, err := h.resources.ListMyResources(r.Context(), caller)
	if err != nil {
		writeError(w, r, err)
		return
	}
	out := make([]parkingResponse, len(resources))
	for i, res := range resources {
		out[i] = toParkingResponse(res)
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *Handler) UpdateParking(w http.ResponseWriter, r *http.Request) {
	caller, err := callerFrom(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	var req updateParkingRequest
	if !h.decode(w, r, &req) {
		return
	}
	patch, err := req.toDomain()
	if err != nil {
		writeError(w, r, err)
		return
	}
	res, err := h.resources.UpdateResource(r.Context(), caller, mux.Vars(r)["id"], patch)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toParkingResponse(*res))
}

func (h *Handler) SetAvailability(w http.ResponseWriter, r *http.Request) {
	caller, err := callerFrom(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	var req availabilityRequest
	if !h.decode(w, r, &req) {
		return
	}
	res, err := h.resources.SetAvailableSpots(r.Context(), caller, mux.Vars(r)["id"], *req.AvailableSpots)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toParkingResponse(*res))
}

func (h *Handler) DeleteParking(w http.ResponseWriter, r *http.Request) {
	caller, err := callerFrom(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := h.resources.DeleteResource(r.Context(), caller, mux.Vars(r)["id"]); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) OwnerAnalytics(w http.ResponseWriter, r *http.Request) {
	caller, err := callerFrom(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	a, err := h.resources.OwnerAnalytics(r.Context(), caller)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toAnalyticsResponse(*a))
}

func (h *Handler) CreateBooking(w http.ResponseWriter, r *http.Request) {
	caller, err := callerFrom(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	var req createBookingRequest
	if !h.decode(w, r, &req) {
		return
	}
	booking, err := req.toDomain()
	if err != nil {
		writeError(w, r, err)
		return
	}
	rsv, err := h.bookings.CreateReservation(r.Context(), caller, booking)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toBookingResponse(*rsv))
}

func (h *Handler) ListMyBookings(w http.ResponseWriter, r *http.Request) {
	caller, err := callerFrom(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	status := domain.ReservationStatus(r.URL.Query().Get("status"))
	list, err := h.bookings.ListMine(r.Context(), caller, status)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toBookingResponses(list))
}

func (h *Handler) ListOwnerBookings(w http.ResponseWriter, r *http.Request) {
	caller, err := callerFrom(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	status := domain.ReservationStatus(r.URL.Query().Get("status"))
	list, err := h.bookings.ListForOwner(r.Context(), caller, status)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toBookingResponses(list))
}

func (h *Handler) GetBooking(w http.ResponseWriter, r *http.Request) {
	caller, err := callerFrom(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	rsv, err := h.bookings.GetReservation(r.Context(), caller, mux.Vars(r)["id"])
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toBookingResponse(*rsv))
}

func (h *Handler) SetBookingStatus(w http.ResponseWriter, r *http.Request) {
	caller, err := callerFrom(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	var req statusRequest
	if !h.decode(w, r, &req) {
		return
	}
	rsv, err := h.bookings.SetStatus(r.Context(), caller, mux.Vars(r)["id"], domain.ReservationStatus(req.Status), req.Comment)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toBookingResponse(*rsv))
}

func (h *Handler) CancelBooking(w http.ResponseWriter, r *http.Request) {
	caller, err := callerFrom(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	rsv, err := h.bookings.Cancel(r.Context(), caller, mux.Vars(r)["id"])
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toBookingResponse(*rsv))
}
