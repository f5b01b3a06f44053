// Package geo provides the distance and region primitives used by the
// feature stages.
package geo

import "math"

// EarthRadiusKm is the mean Earth radius used by Haversine.
const EarthRadiusKm = 6371.0

// Haversine returns the great-circle distance in kilometers between
// (lon1, lat1) and (lon2, lat2), given in degrees. Coordinates are not
// validated.
func Haversine(lon1, lat1, lon2, lat2 float64) float64 {
	phi1 := radians(lat1)
	phi2 := radians(lat2)
	dPhi := radians(lat2 - lat1)
	dLambda := radians(lon2 - lon1)

	a := math.Pow(math.Sin(dPhi/2), 2) +
		math.Cos(phi1)*math.Cos(phi2)*math.Pow(math.Sin(dLambda/2), 2)
	return 2 * EarthRadiusKm * math.Asin(math.Sqrt(a))
}

func radians(deg float64) float64 {
	return deg * math.Pi / 180
}

// BoundingBox is a longitude/latitude rectangle, bounds inclusive.
type BoundingBox struct {
	MinLongitude float64 `yaml:"min_longitude"`
	MaxLongitude float64 `yaml:"max_longitude"`
	MinLatitude  float64 `yaml:"min_latitude"`
	MaxLatitude  float64 `yaml:"max_latitude"`
}

// NYC returns the New York City box used to discard implausible trips.
func NYC() BoundingBox {
	return BoundingBox{
		MinLongitude: -74.2589,
		MaxLongitude: -73.7004,
		MinLatitude:  40.4774,
		MaxLatitude:  40.9176,
	}
}

// Contains reports whether the point lies inside the box.
func (b BoundingBox) Contains(lon, lat float64) bool {
	return lon >= b.MinLongitude && lon <= b.MaxLongitude &&
		lat >= b.MinLatitude && lat <= b.MaxLatitude
}

// Valid reports whether the box has non-empty extent.
func (b BoundingBox) Valid() bool {
	return b.MinLongitude <= b.MaxLongitude && b.MinLatitude <= b.MaxLatitude
}
