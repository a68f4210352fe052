// Package geo holds coordinate helpers shared by the commute criterion and the cache.
package geo

import (
	"fmt"
	"math"
)

const earthRadiusKm = 6371.0

// ZoneSize is the grid cell size in degrees used to group nearby coordinates (~1.1km of latitude).
const ZoneSize = 0.01

// Point is a WGS84 coordinate.
type Point struct {
	Lat float64 `json:"lat" validate:"latitude"`
	Lon float64 `json:"lon" validate:"longitude"`
}

// Haversine returns the great-circle distance between a and b in kilometres.
func Haversine(a, b Point) float64 {
	lat1 := toRadians(a.Lat)
	lat2 := toRadians(b.Lat)
	dLat := lat2 - lat1
	dLon := toRadians(b.Lon - a.Lon)

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLon/2)*math.Sin(dLon/2)

	return 2 * earthRadiusKm * math.Asin(math.Min(1, math.Sqrt(h)))
}

// Zone returns the grid cell identifier containing p.
func Zone(p Point) string {
	return fmt.Sprintf("%d:%d", int(math.Floor(p.Lat/ZoneSize)), int(math.Floor(p.Lon/ZoneSize)))
}

func (p Point) String() string {
	return fmt.Sprintf("%.6f,%.6f", p.Lat, p.Lon)
}

func toRadians(deg float64) float64 {
	return deg * math.Pi / 180
}
