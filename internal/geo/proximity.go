// Package geo answers "is this parking resource within R km of P" on a
// sphere. Distances are angular: a radius in kilometres is divided by the
// Earth radius to get the cap's opening angle, so results hold at regional
// scale where a flat Euclidean test drifts.
package geo

import (
	"fmt"
	"math"
	"sort"

	"github.com/golang/geo/s1"
	"github.com/golang/geo/s2"

	"parkease-backend/internal/domain"
)

// EarthRadiusKm is the sphere radius used to turn kilometres into radians.
const EarthRadiusKm = 6378.1

// SearchArea is a spherical cap around a center point.
type SearchArea struct {
	center   s2.Point
	cap      s2.Cap
	radiusKm float64
}

// NewSearchArea builds the cap of radiusKm around center. A point exactly on
// the rim is inside.
func NewSearchArea(center domain.Point, radiusKm float64) (*SearchArea, error) {
	if err := center.Validate(); err != nil {
		return nil, err
	}
	if radiusKm <= 0 || math.IsNaN(radiusKm) || math.IsInf(radiusKm, 0) {
		return nil, fmt.Errorf("%w: distance must be a positive number of km", domain.ErrValidation)
	}
	c := toS2(center)
	return &SearchArea{
		center:   c,
		cap:      s2.CapFromCenterAngle(c, AngularRadius(radiusKm)),
		radiusKm: radiusKm,
	}, nil
}

// AngularRadius converts a surface distance to the angle it subtends.
func AngularRadius(km float64) s1.Angle {
	return s1.Angle(km / EarthRadiusKm)
}

func (a *SearchArea) RadiusKm() float64 { return a.radiusKm }

// Contains reports whether p lies inside the cap.
func (a *SearchArea) Contains(p domain.Point) bool {
	return a.cap.ContainsPoint(toS2(p))
}

// DistanceKm is the great-circle distance from the center to p.
func (a *SearchArea) DistanceKm(p domain.Point) float64 {
	return DistanceKm(a.center, toS2(p))
}

// Bounds is a lat/lng rectangle in degrees enclosing the cap. It lets a SQL
// store narrow candidates with plain range predicates before the exact test.
// When the cap crosses the antimeridian or covers a pole, LngBounded is
// false and only the latitude range applies.
type Bounds struct {
	MinLat, MaxLat float64
	MinLng, MaxLng float64
	LngBounded     bool
}

func (a *SearchArea) Bounds() Bounds {
	rect := a.cap.RectBound()
	b := Bounds{
		MinLat: s1.Angle(rect.Lat.Lo).Degrees(),
		MaxLat: s1.Angle(rect.Lat.Hi).Degrees(),
	}
	if !rect.Lng.IsFull() && !rect.Lng.IsInverted() {
		b.LngBounded = true
		b.MinLng = s1.Angle(rect.Lng.Lo).Degrees()
		b.MaxLng = s1.Angle(rect.Lng.Hi).Degrees()
	}
	return b
}

// DistanceKm is the great-circle distance between two S2 points.
func DistanceKm(a, b s2.Point) float64 {
	return a.Distance(b).Radians() * EarthRadiusKm
}

// PointDistanceKm is DistanceKm for domain points.
func PointDistanceKm(a, b domain.Point) float64 {
	return DistanceKm(toS2(a), toS2(b))
}

func toS2(p domain.Point) s2.Point {
	return s2.PointFromLatLng(s2.LatLngFromDegrees(p.Latitude, p.Longitude))
}

// Select keeps the resources inside area that match filter. With a nil
// area every matching resource is kept in input order; otherwise the result
// is ordered nearest first.
func Select(area *SearchArea, resources []domain.Resource, filter domain.ResourceFilter) []domain.Resource {
	out := make([]domain.Resource, 0, len(resources))
	for _, r := range resources {
		if !r.Matches(filter) {
			continue
		}
		if area != nil && !area.Contains(r.Location.Point) {
			continue
		}
		out = append(out, r)
	}
	if area != nil {
		sort.SliceStable(out, func(i, j int) bool {
			return area.DistanceKm(out[i].Location.Point) < area.DistanceKm(out[j].Location.Point)
		})
	}
	return out
}
