package geo

import (
	"fmt"
	"math"

	"github.com/golang/geo/s2"
)

// EarthRadiusKm is the radius of the sphere used to approximate the Earth.
const EarthRadiusKm = 6373.0

// GreatCircleDistance returns the haversine distance in kilometres between
// two points given in degrees.
func GreatCircleDistance(lon1, lat1, lon2, lat2 float64) float64 {
	p1 := s2.LatLngFromDegrees(lat1, lon1)
	p2 := s2.LatLngFromDegrees(lat2, lon2)

	dlat := p2.Lat.Radians() - p1.Lat.Radians()
	dlon := p2.Lng.Radians() - p1.Lng.Radians()

	sinLat := math.Sin(dlat / 2)
	sinLon := math.Sin(dlon / 2)
	a := sinLat*sinLat + math.Cos(p1.Lat.Radians())*math.Cos(p2.Lat.Radians())*sinLon*sinLon
	// Rounding can push a slightly outside [0, 1] for (near) antipodal points.
	a = math.Max(0, math.Min(1, a))
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
	return EarthRadiusKm * c
}

// Accumulator sums great-circle distances over a stream of points, one
// consecutive pair at a time. The zero value is ready to use.
type Accumulator struct {
	lon, lat float64
	n        int
	dist     float64
}

// Add appends a point to the stream.
func (a *Accumulator) Add(lon, lat float64) {
	if a.n > 0 {
		a.dist += GreatCircleDistance(a.lon, a.lat, lon, lat)
	}
	a.lon, a.lat = lon, lat
	a.n++
}

// Points returns the number of points added so far.
func (a *Accumulator) Points() int {
	return a.n
}

// Distance returns the total distance in kilometres travelled so far.
func (a *Accumulator) Distance() float64 {
	return a.dist
}

// TotalTrackDistance returns the distance in kilometres travelled along the
// points (lons[i], lats[i]) visited in order.
func TotalTrackDistance(lons, lats []float64) (float64, error) {
	if len(lons) != len(lats) {
		return 0, fmt.Errorf("length mismatch: %d lons, %d lats: %w", len(lons), len(lats), ErrInvalidArgument)
	}
	var acc Accumulator
	for i := range lons {
		acc.Add(lons[i], lats[i])
	}
	return acc.Distance(), nil
}
