package http

import (
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"parkease-backend/internal/domain"
	"parkease-backend/internal/utils"
)

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return f.Name
		}
		return name
	})
	return v
}

type locationDTO struct {
	Latitude  *float64 `json:"latitude" validate:"required,gte=-90,lte=90"`
	Longitude *float64 `json:"longitude" validate:"required,gte=-180,lte=180"`
	Address   string   `json:"address" validate:"required,max=300"`
}

func (l locationDTO) toDomain() domain.Location {
	return domain.Location{
		Point:   domain.Point{Latitude: *l.Latitude, Longitude: *l.Longitude},
		Address: strings.TrimSpace(l.Address),
	}
}

type operatingHoursDTO struct {
	Open  string `json:"open"`
	Close string `json:"close"`
}

type createParkingRequest struct {
	Name           string             `json:"name" validate:"required,max=120"`
	Kind           string             `json:"type" validate:"omitempty,oneof=government private residential"`
	Location       locationDTO        `json:"location"`
	TotalSpots     int                `json:"totalSpots" validate:"required,gte=1"`
	PricePerHour   float64            `json:"pricePerHour" validate:"gt=0"`
	Features       []string           `json:"features" validate:"max=10"`
	VehicleTypes   []string           `json:"vehicleTypes" validate:"max=4"`
	OperatingHours *operatingHoursDTO `json:"operatingHours"`
}

func (req createParkingRequest) toDomain() (domain.ResourceDraft, error) {
	features, err := domain.ParseFeatures(req.Features)
	if err != nil {
		return domain.ResourceDraft{}, err
	}
	vehicleTypes, err := domain.ParseVehicleTypes(req.VehicleTypes)
	if err != nil {
		return domain.ResourceDraft{}, err
	}
	price, err := utils.CentsFromAmount(req.PricePerHour)
	if err != nil {
		return domain.ResourceDraft{}, err
	}
	draft := domain.ResourceDraft{
		Name:              strings.TrimSpace(req.Name),
		Kind:              domain.ResourceKind(req.Kind),
		Location:          req.Location.toDomain(),
		TotalSpots:        req.TotalSpots,
		PricePerHourCents: price,
		Features:          features,
		VehicleTypes:      vehicleTypes,
	}
	if req.OperatingHours != nil {
		draft.OperatingHours = domain.OperatingHours{Open: req.OperatingHours.Open, Close: req.OperatingHours.Close}
	}
	return draft, nil
}

type updateParkingRequest struct {
	Name           *string            `json:"name" validate:"omitempty,min=1,max=120"`
	Kind           *string            `json:"type" validate:"omitempty,oneof=government private residential"`
	Location       *locationDTO       `json:"location"`
	TotalSpots     *int               `json:"totalSpots" validate:"omitempty,gte=1"`
	PricePerHour   *float64           `json:"pricePerHour" validate:"omitempty,gt=0"`
	Features       []string           `json:"features" validate:"omitempty,max=10"`
	VehicleTypes   []string           `json:"vehicleTypes" validate:"omitempty,max=4"`
	OperatingHours *operatingHoursDTO `json:"operatingHours"`
	State          *string            `json:"status" validate:"omitempty,oneof=active inactive maintenance"`
}

func (req updateParkingRequest) toDomain() (domain.ResourcePatch, error) {
	var patch domain.ResourcePatch
	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		patch.Name = &name
	}
	if req.Kind != nil {
		kind := domain.ResourceKind(*req.Kind)
		patch.Kind = &kind
	}
	if req.Location != nil {
		loc := req.Location.toDomain()
		patch.Location = &loc
	}
	patch.TotalSpots = req.TotalSpots
	if req.PricePerHour != nil {
		cents, err := utils.CentsFromAmount(*req.PricePerHour)
		if err != nil {
			return patch, err
		}
		patch.PricePerHourCents = &cents
	}
	if req.Features != nil {
		features, err := domain.ParseFeatures(req.Features)
		if err != nil {
			return patch, err
		}
		patch.Features = features
	}
	if req.VehicleTypes != nil {
		vts, err := domain.ParseVehicleTypes(req.VehicleTypes)
		if err != nil {
			return patch, err
		}
		patch.VehicleTypes = vts
	}
	if req.OperatingHours != nil {
		patch.OperatingHours = &domain.OperatingHours{Open: req.OperatingHours.Open, Close: req.OperatingHours.Close}
	}
	if req.State != nil {
		st := domain.LifecycleState(*req.State)
		patch.State = &st
	}
	return patch, nil
}

type availabilityRequest struct {
	AvailableSpots *int `json:"availableSpots" validate:"required,gte=0"`
}

// createBookingRequest accepts the current body shape as well as the
// legacy ones: "parking" for the resource id, "vehicleDetails" for the
// vehicle, and flattened vehicleNumber/vehicleType fields.
type createBookingRequest struct {
	ResourceID     string         `json:"resourceId" validate:"required_without=Parking"`
	Parking        string         `json:"parking" validate:"required_without=ResourceID"`
	StartTime      string         `json:"startTime" validate:"required"`
	EndTime        string         `json:"endTime" validate:"required"`
	Vehicle        map[string]any `json:"vehicle"`
	VehicleDetails map[string]any `json:"vehicleDetails"`
	VehicleNumber  string         `json:"vehicleNumber"`
	VehicleType    string         `json:"vehicleType"`
}

func (req createBookingRequest) toDomain() (domain.ReservationRequest, error) {
	start, err := parseTimestamp("startTime", req.StartTime)
	if err != nil {
		return domain.ReservationRequest{}, err
	}
	end, err := parseTimestamp("endTime", req.EndTime)
	if err != nil {
		return domain.ReservationRequest{}, err
	}

	raw := map[string]any{}
	src := req.Vehicle
	if src == nil {
		src = req.VehicleDetails
	}
	for k, v := range src {
		raw[k] = v
	}
	if _, ok := raw["vehicleNumber"]; !ok && req.VehicleNumber != "" {
		raw["vehicleNumber"] = req.VehicleNumber
	}
	if _, ok := raw["vehicleType"]; !ok && req.VehicleType != "" {
		raw["vehicleType"] = req.VehicleType
	}
	vehicle, err := domain.NormalizeVehicle(raw)
	if err != nil {
		return domain.ReservationRequest{}, err
	}

	resourceID := req.ResourceID
	if resourceID == "" {
		resourceID = req.Parking
	}
	return domain.ReservationRequest{
		ResourceID: resourceID,
		StartTime:  start,
		EndTime:    end,
		Vehicle:    vehicle,
	}, nil
}

type statusRequest struct {
	Status  string  `json:"status" validate:"required"`
	Comment *string `json:"comment" validate:"omitempty,max=500"`
}

// parseTimestamp reads an ISO-8601 instant with an explicit offset.
func parseTimestamp(field, s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339, strings.TrimSpace(s))
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %s must be an ISO-8601 timestamp", domain.ErrValidation, field)
	}
	return t.UTC(), nil
}

type pointDTO struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Address   string  `json:"address"`
}

type parkingResponse struct {
	ID                string            `json:"id"`
	Name              string            `json:"name"`
	Kind              string            `json:"type"`
	OwnerID           string            `json:"operator"`
	Location          pointDTO          `json:"location"`
	TotalSpots        int               `json:"totalSpots"`
	AvailableSpots    int               `json:"availableSpots"`
	PricePerHour      float64           `json:"pricePerHour"`
	PricePerHourCents int64             `json:"pricePerHourCents"`
	Features          []string          `json:"features"`
	VehicleTypes      []string          `json:"vehicleTypes"`
	OperatingHours    operatingHoursDTO `json:"operatingHours"`
	State             string            `json:"status"`
	DistanceKm        *float64          `json:"distanceKm,omitempty"`
	CreatedAt         time.Time         `json:"createdAt"`
	UpdatedAt         time.Time         `json:"updatedAt"`
}

func toParkingResponse(r domain.Resource) parkingResponse {
	features := make([]string, len(r.Features))
	for i, f := range r.Features {
		features[i] = string(f)
	}
	vts := make([]string, len(r.VehicleTypes))
	for i, vt := range r.VehicleTypes {
		vts[i] = string(vt)
	}
	return parkingResponse{
		ID:      r.ID,
		Name:    r.Name,
		Kind:    string(r.Kind),
		OwnerID: r.OwnerID,
		Location: pointDTO{
			Latitude:  r.Location.Latitude,
			Longitude: r.Location.Longitude,
			Address:   r.Location.Address,
		},
		TotalSpots:        r.TotalSpots,
		AvailableSpots:    r.AvailableSpots,
		PricePerHour:      utils.AmountFromCents(r.PricePerHourCents),
		PricePerHourCents: r.PricePerHourCents,
		Features:          features,
		VehicleTypes:      vts,
		OperatingHours:    operatingHoursDTO{Open: r.OperatingHours.Open, Close: r.OperatingHours.Close},
		State:             string(r.State),
		CreatedAt:         r.CreatedOn,
		UpdatedAt:         r.UpdatedOn,
	}
}

type vehicleDTO struct {
	PlateNumber string `json:"plateNumber"`
	VehicleType string `json:"vehicleType"`
}

type bookingResponse struct {
	ID              string     `json:"id"`
	UserID          string     `json:"user"`
	ResourceID      string     `json:"parking"`
	StartTime       time.Time  `json:"startTime"`
	EndTime         time.Time  `json:"endTime"`
	Duration        int        `json:"duration"`
	TotalPrice      float64    `json:"totalPrice"`
	TotalPriceCents int64      `json:"totalPriceCents"`
	Vehicle         vehicleDTO `json:"vehicleDetails"`
	Status          string     `json:"status"`
	Comment         string     `json:"comment"`
	Notified        bool       `json:"notificationSent"`
	CreatedAt       time.Time  `json:"createdAt"`
	UpdatedAt       time.Time  `json:"updatedAt"`
}

func toBookingResponse(r domain.Reservation) bookingResponse {
	return bookingResponse{
		ID:              r.ID,
		UserID:          r.SubjectID,
		ResourceID:      r.ResourceID,
		StartTime:       r.StartTime,
		EndTime:         r.EndTime,
		Duration:        r.DurationHours,
		TotalPrice:      utils.AmountFromCents(r.TotalPriceCents),
		TotalPriceCents: r.TotalPriceCents,
		Vehicle:         vehicleDTO{PlateNumber: r.Vehicle.PlateNumber, VehicleType: string(r.Vehicle.VehicleType)},
		Status:          string(r.Status),
		Comment:         r.Comment,
		Notified:        r.Notified,
		CreatedAt:       r.CreatedOn,
		UpdatedAt:       r.UpdatedOn,
	}
}

func toBookingResponses(rs []domain.Reservation) []bookingResponse {
	out := make([]bookingResponse, len(rs))
	for i, r := range rs {
		out[i] = toBookingResponse(r)
	}
	return out
}

type analyticsResponse struct {
	TotalParkings int            `json:"totalParkings"`
	TotalBookings int            `json:"totalBookings"`
	TotalRevenue  float64        `json:"totalRevenue"`
	MostBooked    *mostBookedDTO `json:"mostBookedParking,omitempty"`
}

type mostBookedDTO struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Bookings int    `json:"bookings"`
}

func toAnalyticsResponse(a domain.OwnerAnalytics) analyticsResponse {
	out := analyticsResponse{
		TotalParkings: a.TotalResources,
		TotalBookings: a.TotalBookings,
		TotalRevenue:  utils.AmountFromCents(a.TotalRevenueCents),
	}
	if a.MostBooked != nil {
		out.MostBooked = &mostBookedDTO{ID: a.MostBooked.ResourceID, Name: a.MostBooked.Name, Bookings: a.MostBooked.Bookings}
	}
	return out
}
