// Package matching holds the pure compatibility rules: the reciprocal
// age window and great-circle distance. Both are plain functions so the
// finder can check the window in both directions explicitly instead of
// trusting a one-directional query filter.
package matching

import "math"

// earthRadiusKm for the haversine formula.
const earthRadiusKm = 6371

// AgeWindow returns the acceptable partner age range for a user of the
// given age: [age/2+7, (age-7)*2], clamped to [minAge, maxAge]. When the
// clamped window inverts (young users), it falls back to
// [minAge, age+5].
//
// The window is reciprocal but not symmetric: B being inside A's window
// does not imply A is inside B's. Callers must check both directions.
func AgeWindow(age, minAge, maxAge int) (lo, hi int) {
	lo = age/2 + 7
	hi = (age - 7) * 2

	if lo < minAge {
		lo = minAge
	}
	if hi > maxAge {
		hi = maxAge
	}

	if lo > hi {
		lo = minAge
		hi = age + 5
	}

	return lo, hi
}

// InWindow reports whether partnerAge is acceptable for a user of age.
func InWindow(age, partnerAge, minAge, maxAge int) bool {
	lo, hi := AgeWindow(age, minAge, maxAge)
	return partnerAge >= lo && partnerAge <= hi
}

// Reciprocal reports whether two ages are each inside the other's
// window.
func Reciprocal(ageA, ageB, minAge, maxAge int) bool {
	return InWindow(ageA, ageB, minAge, maxAge) && InWindow(ageB, ageA, minAge, maxAge)
}

// Distance returns the great-circle distance in kilometers between two
// coordinates, using the haversine formula.
func Distance(lat1, lon1, lat2, lon2 float64) float64 {
	rLat1 := lat1 * math.Pi / 180
	rLat2 := lat2 * math.Pi / 180
	dLat := (lat2 - lat1) * math.Pi / 180
	dLon := (lon2 - lon1) * math.Pi / 180

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(rLat1)*math.Cos(rLat2)*math.Sin(dLon/2)*math.Sin(dLon/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return earthRadiusKm * c
}
