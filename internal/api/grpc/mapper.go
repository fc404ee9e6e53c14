package grpc

import (
	"fmt"
	"strings"
	"time"

	"google.golang.org/protobuf/types/known/structpb"

	"parkease-backend/internal/domain"
)

func requiredString(s *structpb.Struct, field string) (string, error) {
	v := strings.TrimSpace(s.GetFields()[field].GetStringValue())
	if v == "" {
		return "", fmt.Errorf("%w: %s is required", domain.ErrValidation, field)
	}
	return v, nil
}

func timestampField(s *structpb.Struct, field string) (time.Time, error) {
	raw, err := requiredString(s, field)
	if err != nil {
		return time.Time{}, err
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %s must be an ISO-8601 timestamp", domain.ErrValidation, field)
	}
	return t.UTC(), nil
}

func reservationRequestFromStruct(s *structpb.Struct) (domain.ReservationRequest, error) {
	var req domain.ReservationRequest
	resourceID, err := requiredString(s, "resourceId")
	if err != nil {
		return req, err
	}
	start, err := timestampField(s, "startTime")
	if err != nil {
		return req, err
	}
	end, err := timestampField(s, "endTime")
	if err != nil {
		return req, err
	}
	vehicle, err := domain.NormalizeVehicle(s.GetFields()["vehicle"].GetStructValue().AsMap())
	if err != nil {
		return req, err
	}
	return domain.ReservationRequest{
		ResourceID: resourceID,
		StartTime:  start,
		EndTime:    end,
		Vehicle:    vehicle,
	}, nil
}

func proximityQueryFromStruct(s *structpb.Struct) (domain.ProximityQuery, error) {
	var query domain.ProximityQuery
	fields := s.GetFields()

	lat, hasLat := fields["latitude"]
	lng, hasLng := fields["longitude"]
	if hasLat != hasLng {
		return query, fmt.Errorf("%w: latitude and longitude must be given together", domain.ErrValidation)
	}
	if hasLat {
		query.Center = &domain.Point{Latitude: lat.GetNumberValue(), Longitude: lng.GetNumberValue()}
	}
	if d, ok := fields["distanceKm"]; ok {
		if d.GetNumberValue() <= 0 {
			return query, fmt.Errorf("%w: distanceKm must be positive", domain.ErrValidation)
		}
		query.RadiusKm = d.GetNumberValue()
	}
	if vt := fields["vehicleType"].GetStringValue(); vt != "" {
		parsed, err := domain.ParseVehicleType(vt)
		if err != nil {
			return query, err
		}
		query.Filter.VehicleType = parsed
	}
	if list := fields["features"].GetListValue(); list != nil {
		raw := make([]string, 0, len(list.GetValues()))
		for _, v := range list.GetValues() {
			raw = append(raw, v.GetStringValue())
		}
		features, err := domain.ParseFeatures(raw)
		if err != nil {
			return query, err
		}
		query.Filter.Features = features
	}
	return query, nil
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

func reservationToStruct(r domain.Reservation) (*structpb.Struct, error) {
	s, err := structpb.NewStruct(map[string]any{
		"id":              r.ID,
		"userId":          r.SubjectID,
		"resourceId":      r.ResourceID,
		"startTime":       formatTime(r.StartTime),
		"endTime":         formatTime(r.EndTime),
		"durationHours":   r.DurationHours,
		"totalPriceCents": r.TotalPriceCents,
		"vehicle": map[string]any{
			"plateNumber": r.Vehicle.PlateNumber,
			"vehicleType": string(r.Vehicle.VehicleType),
		},
		"status":    string(r.Status),
		"comment":   r.Comment,
		"notified":  r.Notified,
		"createdAt": formatTime(r.CreatedOn),
		"updatedAt": formatTime(r.UpdatedOn),
	})
	if err != nil {
		return nil, toStatus(err)
	}
	return s, nil
}

func resourceToMap(r domain.Resource) map[string]any {
	features := make([]any, len(r.Features))
	for i, f := range r.Features {
		features[i] = string(f)
	}
	vts := make([]any, len(r.VehicleTypes))
	for i, vt := range r.VehicleTypes {
		vts[i] = string(vt)
	}
	return map[string]any{
		"id":      r.ID,
		"name":    r.Name,
		"type":    string(r.Kind),
		"ownerId": r.OwnerID,
		"location": map[string]any{
			"latitude":  r.Location.Latitude,
			"longitude": r.Location.Longitude,
			"address":   r.Location.Address,
		},
		"totalSpots":        r.TotalSpots,
		"availableSpots":    r.AvailableSpots,
		"pricePerHourCents": r.PricePerHourCents,
		"features":          features,
		"vehicleTypes":      vts,
		"operatingHours": map[string]any{
			"open":  r.OperatingHours.Open,
			"close": r.OperatingHours.Close,
		},
		"status": string(r.State),
	}
}
