package grpc

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"

	"parkease-backend/internal/config"
)

// BookingServiceServer is the parkease.v1.BookingService contract. Messages
// are google.protobuf.Struct documents with the same field names as the
// REST API.
type BookingServiceServer interface {
	CreateReservation(context.Context, *structpb.Struct) (*structpb.Struct, error)
	SetReservationStatus(context.Context, *structpb.Struct) (*structpb.Struct, error)
	CancelReservation(context.Context, *structpb.Struct) (*structpb.Struct, error)
	GetReservation(context.Context, *structpb.Struct) (*structpb.Struct, error)
	FindNearbyParkings(context.Context, *structpb.Struct) (*structpb.Struct, error)
}

type methodCall func(BookingServiceServer, context.Context, *structpb.Struct) (*structpb.Struct, error)

func unaryHandler(fullMethod string, call methodCall) grpc.MethodHandler {
	return func(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
		in := new(structpb.Struct)
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv.(BookingServiceServer), ctx, in)
		}
		info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
		handler := func(ctx context.Context, req interface{}) (interface{}, error) {
			return call(srv.(BookingServiceServer), ctx, req.(*structpb.Struct))
		}
		return interceptor(ctx, in, info, handler)
	}
}

// BookingServiceDesc registers BookingServiceServer on a grpc.Server.
var BookingServiceDesc = grpc.ServiceDesc{
	ServiceName: "parkease.v1.BookingService",
	HandlerType: (*BookingServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{
			MethodName: "CreateReservation",
			Handler:    unaryHandler(config.MethodCreateReservation, BookingServiceServer.CreateReservation),
		},
		{
			MethodName: "SetReservationStatus",
			Handler:    unaryHandler(config.MethodSetReservationStatus, BookingServiceServer.SetReservationStatus),
		},
		{
			MethodName: "CancelReservation",
			Handler:    unaryHandler(config.MethodCancelReservation, BookingServiceServer.CancelReservation),
		},
		{
			MethodName: "GetReservation",
			Handler:    unaryHandler(config.MethodGetReservation, BookingServiceServer.GetReservation),
		},
		{
			MethodName: "FindNearbyParkings",
			Handler:    unaryHandler(config.MethodFindNearbyParkings, BookingServiceServer.FindNearbyParkings),
		},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "parkease/v1/booking.proto",
}

// BookingServiceClient is the client side of BookingServiceDesc.
type BookingServiceClient struct {
	cc grpc.ClientConnInterface
}

func NewBookingServiceClient(cc grpc.ClientConnInterface) *BookingServiceClient {
	return &BookingServiceClient{cc: cc}
}

func (c *BookingServiceClient) invoke(ctx context.Context, method string, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, method, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *BookingServiceClient) CreateReservation(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, config.MethodCreateReservation, in, opts...)
}

func (c *BookingServiceClient) SetReservationStatus(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, config.MethodSetReservationStatus, in, opts...)
}

func (c *BookingServiceClient) CancelReservation(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, config.MethodCancelReservation, in, opts...)
}

func (c *BookingServiceClient) GetReservation(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, config.MethodGetReservation, in, opts...)
}

func (c *BookingServiceClient) FindNearbyParkings(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, config.MethodFindNearbyParkings, in, opts...)
}
