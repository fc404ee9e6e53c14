// config/security_config.go
package config

type SecurityLevel int

const (
	SecurityPublic SecurityLevel = iota // No credential required
	SecurityAccess                      // Access credential required
)

// gRPC full method names.
const (
	MethodCreateReservation    = "/parkease.v1.BookingService/CreateReservation"
	MethodSetReservationStatus = "/parkease.v1.BookingService/SetReservationStatus"
	MethodCancelReservation    = "/parkease.v1.BookingService/CancelReservation"
	MethodGetReservation       = "/parkease.v1.BookingService/GetReservation"
	MethodFindNearbyParkings   = "/parkease.v1.BookingService/FindNearbyParkings"
)

// REST route names, as registered on the router.
const (
	RouteHealth           = "healthz"
	RouteFindParkings     = "parkings.find"
	RouteGetParking       = "parkings.get"
	RouteCreateParking    = "parkings.create"
	RouteMyParkings       = "parkings.mine"
	RouteUpdateParking    = "parkings.update"
	RouteSetAvailability  = "parkings.availability"
	RouteDeleteParking    = "parkings.delete"
	RouteOwnerAnalytics   = "owner.analytics"
	RouteCreateBooking    = "bookings.create"
	RouteMyBookings       = "bookings.mine"
	RouteOwnerBookings    = "bookings.owner"
	RouteGetBooking       = "bookings.get"
	RouteSetBookingStatus = "bookings.status"
	RouteCancelBooking    = "bookings.cancel"
)

// EndpointSecurityConfig maps gRPC methods and REST routes to their
// required security level
var EndpointSecurityConfig = map[string]SecurityLevel{
	// BookingService
	MethodFindNearbyParkings:   SecurityPublic,
	MethodCreateReservation:    SecurityAccess,
	MethodSetReservationStatus: SecurityAccess,
	MethodCancelReservation:    SecurityAccess,
	MethodGetReservation:       SecurityAccess,

	// Health and reflection
	"/grpc.health.v1.Health/Check":                                   SecurityPublic,
	"/grpc.health.v1.Health/Watch":                                   SecurityPublic,
	"/grpc.health.v1.Health/List":                                    SecurityPublic,
	"/grpc.reflection.v1.ServerReflection/ServerReflectionInfo":      SecurityPublic,
	"/grpc.reflection.v1alpha.ServerReflection/ServerReflectionInfo": SecurityPublic,

	// REST - Public
	RouteHealth:       SecurityPublic,
	RouteFindParkings: SecurityPublic,
	RouteGetParking:   SecurityPublic,

	// REST - Access Protected
	RouteCreateParking:    SecurityAccess,
	RouteMyParkings:       SecurityAccess,
	RouteUpdateParking:    SecurityAccess,
	RouteSetAvailability:  SecurityAccess,
	RouteDeleteParking:    SecurityAccess,
	RouteOwnerAnalytics:   SecurityAccess,
	RouteCreateBooking:    SecurityAccess,
	RouteMyBookings:       SecurityAccess,
	RouteOwnerBookings:    SecurityAccess,
	RouteGetBooking:       SecurityAccess,
	RouteSetBookingStatus: SecurityAccess,
	RouteCancelBooking:    SecurityAccess,
}

// GetSecurityLevel returns the security level for a given method or route
func GetSecurityLevel(method string) SecurityLevel {
	if level, exists := EndpointSecurityConfig[method]; exists {
		return level
	}
	// Default to highest security for unknown endpoints
	return SecurityAccess
}
