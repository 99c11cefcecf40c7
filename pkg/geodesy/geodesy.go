// Package geodesy provides the distance and altitude arithmetic used to score
// reported fixes against surveyed coordinates.
//
// Horizontal distance uses the haversine formula on a spherical Earth. The
// spherical model is an accepted error source of up to ~0.5% against the
// WGS84 ellipsoid, which is far below indoor positioning error.
package geodesy

import (
	"math"

	"github.com/golang/geo/s2"
)

const (
	EarthRadiusMeters  = 6371000.0 // mean radius
	MetersPerDegreeLat = 111000.0
)

// HorizontalDistanceMeters calculates the great-circle distance between two
// lat/lon points in meters. The result is identical for swapped arguments.
func HorizontalDistanceMeters(lat1, lon1, lat2, lon2 float64) float64 {
	// s2 is not bit-symmetric, so always measure from the smaller point
	if lat2 < lat1 || (lat2 == lat1 && lon2 < lon1) {
		lat1, lon1, lat2, lon2 = lat2, lon2, lat1, lon1
	}
	p1 := s2.LatLngFromDegrees(lat1, lon1)
	p2 := s2.LatLngFromDegrees(lat2, lon2)
	return p1.Distance(p2).Radians() * EarthRadiusMeters
}

// MetersPerDegreeLon returns the east-west length of one degree of longitude
// at the given latitude
func MetersPerDegreeLon(lat float64) float64 {
	return MetersPerDegreeLat * math.Cos(lat*math.Pi/180.0)
}

// VerticalInput carries the altitude values a reported fix may supply
type VerticalInput struct {
	Altitude    float64 // altitude column as reported
	HAE         *float64
	Geoid       *float64
	Precomputed *float64 // vertical error computed upstream
}

// Method names the rule VerticalError applied
type Method int

const (
	MethodNaive Method = iota
	MethodReconciled
	MethodPrecomputed
)

func (m Method) String() string {
	switch m {
	case MethodPrecomputed:
		return "precomputed"
	case MethodReconciled:
		return "reconciled"
	default:
		return "naive"
	}
}

// GeoidSeparation returns HAE - geoid altitude when both are present
func GeoidSeparation(in VerticalInput) (float64, bool) {
	if in.HAE == nil || in.Geoid == nil {
		return 0, false
	}
	return *in.HAE - *in.Geoid, true
}

// VerticalDelta returns the signed reported-minus-truth altitude difference
// derived from the reported altitudes; truthHAE is height above ellipsoid.
// With both HAE and geoid altitude, the geoid altitude is lifted onto the
// ellipsoid using their separation. Otherwise the reported altitude (HAE when
// supplied) is compared directly and any datum mismatch stays in the delta.
// A precomputed vertical error is unsigned and never used here.
func VerticalDelta(in VerticalInput, truthHAE float64) (float64, Method) {
	if sep, ok := GeoidSeparation(in); ok {
		return (*in.Geoid + sep) - truthHAE, MethodReconciled
	}
	reported := in.Altitude
	if in.HAE != nil {
		reported = *in.HAE
	}
	return reported - truthHAE, MethodNaive
}

// VerticalError returns the absolute vertical error in meters and the rule
// that produced it. A precomputed error is trusted first, then the altitude
// rules of VerticalDelta.
func VerticalError(in VerticalInput, truthHAE float64) (float64, Method) {
	if in.Precomputed != nil {
		return math.Abs(*in.Precomputed), MethodPrecomputed
	}
	delta, method := VerticalDelta(in, truthHAE)
	return math.Abs(delta), method
}

// VerticalErrorMeters returns the absolute vertical error in meters
func VerticalErrorMeters(in VerticalInput, truthHAE float64) float64 {
	v, _ := VerticalError(in, truthHAE)
	return v
}

// DisplayAltitudes returns truth and reported altitudes on the geoid datum
// where the separation is known, for map renderers that expect sea-level
// heights. Without a separation both sides stay as supplied.
func DisplayAltitudes(in VerticalInput, truthHAE float64) (truth, reported float64) {
	reportedHAE := in.Altitude
	if in.HAE != nil {
		reportedHAE = *in.HAE
	}
	sep, ok := GeoidSeparation(in)
	if !ok {
		if in.Geoid != nil {
			return truthHAE, *in.Geoid
		}
		return truthHAE, reportedHAE
	}
	return truthHAE - sep, *in.Geoid
}
