// Package geo provides great-circle distance computation for ranking
// events by proximity to a query point.
package geo

import "math"

// EarthRadiusKm is the mean Earth radius in kilometers.
const EarthRadiusKm = 6371.0

// DistanceKm computes the great-circle distance in kilometers between
// two WGS84 points given in degrees, using the spherical law of
// cosines with the acos argument clamped to [-1, 1].
//
// The clamp matters: when both points coincide, floating-point
// rounding can push the argument slightly above 1, and acos would
// return NaN instead of 0.
func DistanceKm(lat1, lon1, lat2, lon2 float64) float64 {
	rlat1 := radians(lat1)
	rlat2 := radians(lat2)
	dlon := radians(lon2) - radians(lon1)

	arg := math.Cos(rlat1)*math.Cos(rlat2)*math.Cos(dlon) +
		math.Sin(rlat1)*math.Sin(rlat2)
	arg = clamp(arg, -1, 1)

	return EarthRadiusKm * math.Acos(arg)
}

// ValidLatitude reports whether lat is a usable latitude in degrees.
func ValidLatitude(lat float64) bool {
	return !math.IsNaN(lat) && lat >= -90 && lat <= 90
}

// ValidLongitude reports whether lon is a usable longitude in degrees.
func ValidLongitude(lon float64) bool {
	return !math.IsNaN(lon) && lon >= -180 && lon <= 180
}

func radians(deg float64) float64 {
	return deg * math.Pi / 180
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
