// Package geo computes great-circle distances between pickup points.
//
// Points use the go-geom XY layout with X as longitude and Y as latitude, both
// in degrees.
package geo

import (
	"fmt"
	"math"

	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/encoding/wkt"
)

// EarthRadiusKm is the mean earth radius used by the spherical law of cosines.
const EarthRadiusKm = 6371.0

// NewPoint builds a point from latitude and longitude in degrees.
func NewPoint(lat, lon float64) *geom.Point {
	return geom.NewPointFlat(geom.XY, []float64{lon, lat})
}

// Valid reports whether lat/lon are finite and inside the degree ranges.
func Valid(lat, lon float64) bool {
	if math.IsNaN(lat) || math.IsNaN(lon) || math.IsInf(lat, 0) || math.IsInf(lon, 0) {
		return false
	}
	return lat >= -90 && lat <= 90 && lon >= -180 && lon <= 180
}

// DistanceKm returns the great-circle distance between a and b in kilometers.
func DistanceKm(a, b *geom.Point) float64 {
	return distanceKm(a.Y(), a.X(), b.Y(), b.X())
}

func distanceKm(lat1, lon1, lat2, lon2 float64) float64 {
	phi1 := radians(lat1)
	phi2 := radians(lat2)
	dLambda := radians(lon2) - radians(lon1)

	cosine := math.Sin(phi1)*math.Sin(phi2) + math.Cos(phi1)*math.Cos(phi2)*math.Cos(dLambda)
	// rounding can push the cosine just outside [-1, 1] for identical or antipodal points
	cosine = math.Max(-1, math.Min(1, cosine))

	return EarthRadiusKm * math.Acos(cosine)
}

func radians(deg float64) float64 { return deg * math.Pi / 180 }

// WKT renders p for log lines, falling back to a plain lat/lon pair.
func WKT(p *geom.Point) string {
	s, err := wkt.Marshal(p)
	if err != nil {
		return fmt.Sprintf("(%f, %f)", p.Y(), p.X())
	}
	return s
}
