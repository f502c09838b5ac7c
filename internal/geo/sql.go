package geo

import "fmt"

// DistanceSQL returns a SQL expression computing the same clamped law-of-cosines
// distance as DistanceKm against the given latitude/longitude columns. It takes
// three bind parameters in order: reference latitude, reference latitude,
// reference longitude.
func DistanceSQL(latColumn, lonColumn string) string {
	return fmt.Sprintf(
		"(%[3]g * ACOS(LEAST(1.0, GREATEST(-1.0, "+
			"SIN(RADIANS(?)) * SIN(RADIANS(%[1]s)) + "+
			"COS(RADIANS(?)) * COS(RADIANS(%[1]s)) * COS(RADIANS(%[2]s) - RADIANS(?))))))",
		latColumn, lonColumn, EarthRadiusKm,
	)
}

// DistanceArgs returns the bind parameters for DistanceSQL.
func DistanceArgs(lat, lon float64) []any {
	return []any{lat, lat, lon}
}
