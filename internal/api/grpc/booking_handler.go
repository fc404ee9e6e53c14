package grpc

import (
	"context"

	"google.golang.org/protobuf/types/known/structpb"

	"parkease-backend/internal/domain"
	"parkease-backend/internal/geo"
	"parkease-backend/internal/logger"
	"parkease-backend/internal/service"
)

type BookingHandler struct {
	resources service.ResourceService
	bookings  service.BookingService
}

func NewBookingHandler(resources service.ResourceService, bookings service.BookingService) *BookingHandler {
	return &BookingHandler{resources: resources, bookings: bookings}
}

func (h *BookingHandler) CreateReservation(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	caller, err := callerFromContext(ctx)
	if err != nil {
		return nil, err
	}
	booking, err := reservationRequestFromStruct(req)
	if err != nil {
		return nil, toStatus(err)
	}
	rsv, err := h.bookings.CreateReservation(ctx, caller, booking)
	if err != nil {
		return nil, toStatus(err)
	}
	return reservationToStruct(*rsv)
}

func (h *BookingHandler) SetReservationStatus(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	caller, err := callerFromContext(ctx)
	if err != nil {
		return nil, err
	}
	id, err := requiredString(req, "id")
	if err != nil {
		return nil, toStatus(err)
	}
	target, err := requiredString(req, "status")
	if err != nil {
		return nil, toStatus(err)
	}
	var comment *string
	if v, ok := req.GetFields()["comment"]; ok {
		c := v.GetStringValue()
		comment = &c
	}
	rsv, err := h.bookings.SetStatus(ctx, caller, id, domain.ReservationStatus(target), comment)
	if err != nil {
		return nil, toStatus(err)
	}
	return reservationToStruct(*rsv)
}

func (h *BookingHandler) CancelReservation(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	caller, err := callerFromContext(ctx)
	if err != nil {
		return nil, err
	}
	id, err := requiredString(req, "id")
	if err != nil {
		return nil, toStatus(err)
	}
	rsv, err := h.bookings.Cancel(ctx, caller, id)
	if err != nil {
		return nil, toStatus(err)
	}
	return reservationToStruct(*rsv)
}

func (h *BookingHandler) GetReservation(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	caller, err := callerFromContext(ctx)
	if err != nil {
		return nil, err
	}
	id, err := requiredString(req, "id")
	if err != nil {
		return nil, toStatus(err)
	}
	rsv, err := h.bookings.GetReservation(ctx, caller, id)
	if err != nil {
		return nil, toStatus(err)
	}
	return reservationToStruct(*rsv)
}

func (h *BookingHandler) FindNearbyParkings(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	query, err := proximityQueryFromStruct(req)
	if err != nil {
		return nil, toStatus(err)
	}
	resources, err := h.resources.FindNear(ctx, query)
	if err != nil {
		return nil, toStatus(err)
	}
	items := make([]any, len(resources))
	for i, res := range resources {
		m := resourceToMap(res)
		if query.Center != nil {
			m["distanceKm"] = geo.PointDistanceKm(*query.Center, res.Location.Point)
		}
		items[i] = m
	}
	out, err := structpb.NewStruct(map[string]any{"parkings": items})
	if err != nil {
		logger.ErrorContext(ctx, "Failed to build FindNearbyParkings response", "error", err)
		return nil, toStatus(err)
	}
	return out, nil
}
