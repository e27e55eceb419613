package core

import "math"

// EarthRadiusKm is the Earth radius used for great-circle distances
// (kilometres). It matches the value the speed figures are calibrated against.
const EarthRadiusKm = 6367.0

// LatLon is a geographic coordinate pair in degrees.
type LatLon struct {
	Latitude  float64
	Longitude float64
}

// Distance returns the great-circle distance between a and b in kilometres
// using EarthRadiusKm.
func Distance(a, b LatLon) float64 {
	return DistanceWithRadius(a, b, EarthRadiusKm)
}

// DistanceWithRadius returns the haversine great-circle distance between a
// and b on a sphere of radius r. The result is in the units of r.
func DistanceWithRadius(a, b LatLon, r float64) float64 {
	lat1, lon1 := radians(a.Latitude), radians(a.Longitude)
	lat2, lon2 := radians(b.Latitude), radians(b.Longitude)
	dLat, dLon := lat2-lat1, lon2-lon1

	sLat, sLon := math.Sin(dLat/2), math.Sin(dLon/2)
	h := sLat*sLat + math.Cos(lat1)*math.Cos(lat2)*sLon*sLon

	// Rounding can push sqrt(h) just past 1 for antipodal points, which is
	// outside asin's domain.
	return 2 * r * math.Asin(math.Min(1, math.Sqrt(h)))
}

func radians(deg float64) float64 {
	return deg * math.Pi / 180
}

func degrees(rad float64) float64 {
	return rad * 180 / math.Pi
}
