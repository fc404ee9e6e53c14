package domain

import (
	"fmt"
	"strings"
	"time"
)

type ResourceKind string

const (
	ResourceKindGovernment  ResourceKind = "government"
	ResourceKindPrivate     ResourceKind = "private"
	ResourceKindResidential ResourceKind = "residential"
)

// MaxResidentialSpots caps a residential listing: it models a driveway or
// garage, not a lot.
const MaxResidentialSpots = 3

type LifecycleState string

const (
	LifecycleActive      LifecycleState = "active"
	LifecycleInactive    LifecycleState = "inactive"
	LifecycleMaintenance LifecycleState = "maintenance"
)

type Feature string

const (
	FeatureCovered    Feature = "covered"
	FeatureSecured    Feature = "secured"
	FeatureEVCharging Feature = "ev-charging"
	FeatureAccessible Feature = "accessible"
	Feature24x7       Feature = "24x7"
)

// legacyFeatures maps the spellings older clients still send.
var legacyFeatures = map[string]Feature{
	"security": FeatureSecured,
	"charging": FeatureEVCharging,
	"disabled": FeatureAccessible,
	"24/7":     Feature24x7,
}

// ParseFeature accepts both the current tag names and their legacy spellings.
func ParseFeature(s string) (Feature, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	switch f := Feature(s); f {
	case FeatureCovered, FeatureSecured, FeatureEVCharging, FeatureAccessible, Feature24x7:
		return f, nil
	}
	if f, ok := legacyFeatures[s]; ok {
		return f, nil
	}
	return "", fmt.Errorf("%w: unknown feature %q", ErrValidation, s)
}

// ParseFeatures parses and de-duplicates a list of feature tags.
func ParseFeatures(values []string) ([]Feature, error) {
	out := make([]Feature, 0, len(values))
	seen := make(map[Feature]bool, len(values))
	for _, v := range values {
		if strings.TrimSpace(v) == "" {
			continue
		}
		f, err := ParseFeature(v)
		if err != nil {
			return nil, err
		}
		if !seen[f] {
			seen[f] = true
			out = append(out, f)
		}
	}
	return out, nil
}

func ParseResourceKind(s string) (ResourceKind, error) {
	switch k := ResourceKind(strings.ToLower(s)); k {
	case ResourceKindGovernment, ResourceKindPrivate, ResourceKindResidential:
		return k, nil
	}
	return "", fmt.Errorf("%w: unknown resource kind %q", ErrValidation, s)
}

func ParseLifecycleState(s string) (LifecycleState, error) {
	switch st := LifecycleState(strings.ToLower(s)); st {
	case LifecycleActive, LifecycleInactive, LifecycleMaintenance:
		return st, nil
	}
	return "", fmt.Errorf("%w: unknown lifecycle state %q", ErrValidation, s)
}

// Point is a WGS84 position in degrees.
type Point struct {
	Longitude float64 `json:"longitude"`
	Latitude  float64 `json:"latitude"`
}

func (p Point) Validate() error {
	if p.Latitude < -90 || p.Latitude > 90 {
		return fmt.Errorf("%w: latitude %v out of range", ErrValidation, p.Latitude)
	}
	if p.Longitude < -180 || p.Longitude > 180 {
		return fmt.Errorf("%w: longitude %v out of range", ErrValidation, p.Longitude)
	}
	return nil
}

type Location struct {
	Point
	Address string `json:"address"`
}

type OperatingHours struct {
	Open  string `json:"open"`
	Close string `json:"close"`
}

// Resource is a bookable parking unit: a commercial lot or a residential space.
// AvailableSpots stays within [0, TotalSpots]; only the store mutates it.
type Resource struct {
	ID                string         `json:"id"`
	Name              string         `json:"name"`
	Kind              ResourceKind   `json:"kind"`
	OwnerID           string         `json:"owner_id"`
	Location          Location       `json:"location"`
	TotalSpots        int            `json:"total_spots"`
	AvailableSpots    int            `json:"available_spots"`
	PricePerHourCents int64          `json:"price_per_hour_cents"`
	Features          []Feature      `json:"features"`
	VehicleTypes      []VehicleType  `json:"vehicle_types"`
	OperatingHours    OperatingHours `json:"operating_hours"`
	State             LifecycleState `json:"state"`
	CreatedOn         time.Time      `json:"created_on"`
	UpdatedOn         time.Time      `json:"updated_on"`
}

func (r *Resource) HasFeatures(want []Feature) bool {
	for _, w := range want {
		found := false
		for _, f := range r.Features {
			if f == w {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

// AcceptsVehicle reports whether the resource takes the given vehicle type.
// An empty VehicleTypes list accepts everything.
func (r *Resource) AcceptsVehicle(vt VehicleType) bool {
	if vt == "" || len(r.VehicleTypes) == 0 {
		return true
	}
	for _, t := range r.VehicleTypes {
		if t == vt {
			return true
		}
	}
	return false
}

// Matches applies a ResourceFilter, ignoring location.
func (r *Resource) Matches(f ResourceFilter) bool {
	return r.AcceptsVehicle(f.VehicleType) && r.HasFeatures(f.Features)
}

// ResourceDraft is the owner-supplied part of a new resource. Kind may be
// empty; the creation rules for the owner's role decide it.
type ResourceDraft struct {
	Name              string
	Kind              ResourceKind
	Location          Location
	TotalSpots        int
	PricePerHourCents int64
	Features          []Feature
	VehicleTypes      []VehicleType
	OperatingHours    OperatingHours
}

// ResourcePatch carries optional updates; nil fields are left unchanged.
type ResourcePatch struct {
	Name              *string
	Kind              *ResourceKind
	Location          *Location
	TotalSpots        *int
	PricePerHourCents *int64
	Features          []Feature
	VehicleTypes      []VehicleType
	OperatingHours    *OperatingHours
	State             *LifecycleState
}

// ResourceFilter is the conjunction applied by discovery queries.
type ResourceFilter struct {
	VehicleType VehicleType
	Features    []Feature
}

// ProximityQuery asks for resources within RadiusKm of Center. A nil Center
// lists everything.
type ProximityQuery struct {
	Center   *Point
	RadiusKm float64
	Filter   ResourceFilter
}

// DefaultSearchRadiusKm is used when a discovery query names no distance.
const DefaultSearchRadiusKm = 5.0

// OwnerAnalytics summarizes an owner's listings and bookings.
type OwnerAnalytics struct {
	TotalResources    int            `json:"total_resources"`
	TotalBookings     int            `json:"total_bookings"`
	TotalRevenueCents int64          `json:"total_revenue_cents"`
	MostBooked        *ResourceUsage `json:"most_booked,omitempty"`
}

type ResourceUsage struct {
	ResourceID string `json:"resource_id"`
	Name       string `json:"name"`
	Bookings   int    `json:"bookings"`
}
