package util

import (
	"math"
)

const earthRadiusKm = 6371.0

// CalculateDistance calculates the distance between two geographic points using the Haversine formula
// Parameters: lat1, lon1, lat2, lon2 in degrees
// Returns: distance in kilometers
func CalculateDistance(lat1, lon1, lat2, lon2 float64) float64 {
	lat1Rad := degToRad(lat1)
	lat2Rad := degToRad(lat2)
	dLat := lat2Rad - lat1Rad
	dLon := degToRad(lon2 - lon1)

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1Rad)*math.Cos(lat2Rad)*
			math.Sin(dLon/2)*math.Sin(dLon/2)

	return earthRadiusKm * 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
}

// BoundingBox returns the lat/lng rectangle enclosing a circle of radiusKm around
// the point. It is a cheap SQL prefilter; callers still check CalculateDistance.
func BoundingBox(lat, lng, radiusKm float64) (minLat, maxLat, minLng, maxLng float64) {
	dLat := radToDeg(radiusKm / earthRadiusKm)

	cosLat := math.Cos(degToRad(lat))
	dLng := 180.0
	if cosLat > 1e-9 {
		dLng = math.Min(180, radToDeg(radiusKm/(earthRadiusKm*cosLat)))
	}

	return lat - dLat, lat + dLat, lng - dLng, lng + dLng
}

func degToRad(deg float64) float64 {
	return deg * (math.Pi / 180.0)
}

func radToDeg(rad float64) float64 {
	return rad * (180.0 / math.Pi)
}
