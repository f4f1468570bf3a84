// Package geo ranks libraries by great-circle distance from a user.
package geo

import (
	"math"
	"seogaeum/backend/internal/config"
	"seogaeum/backend/internal/models"
	"sort"
)

// Ranked is a library with its distance from the user. DistanceKm is 0 when
// the distance is unknown; Known tells the two cases apart.
type Ranked struct {
	Library    models.LibraryRecord
	DistanceKm float64
	Known      bool
}

// Distance returns the Haversine distance in kilometres between two points,
// rounded to two decimal places.
func Distance(lat1, lon1, lat2, lon2 float64) float64 {
	phi1 := lat1 * math.Pi / 180
	phi2 := lat2 * math.Pi / 180
	dPhi := (lat2 - lat1) * math.Pi / 180
	dLambda := (lon2 - lon1) * math.Pi / 180

	a := math.Sin(dPhi/2)*math.Sin(dPhi/2) +
		math.Cos(phi1)*math.Cos(phi2)*math.Sin(dLambda/2)*math.Sin(dLambda/2)
	// Rounding can push a just past 1 for antipodal points.
	a = math.Min(math.Max(a, 0), 1)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return round2(config.EarthRadiusKm * c)
}

// Measure computes the distance from the user to one library.
func Measure(userLat, userLon *float64, lib models.LibraryRecord) Ranked {
	r := Ranked{Library: lib}
	if userLat == nil || userLon == nil || !lib.HasCoordinates() {
		return r
	}
	r.DistanceKm = Distance(*userLat, *userLon, *lib.Latitude, *lib.Longitude)
	r.Known = true
	return r
}

// Rank orders libraries nearest first. Libraries with an unknown distance
// sort after every known one and keep their input order.
func Rank(userLat, userLon *float64, libs []models.LibraryRecord) []Ranked {
	out := make([]Ranked, len(libs))
	for i, lib := range libs {
		out[i] = Measure(userLat, userLon, lib)
	}

	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.Known != b.Known {
			return a.Known
		}
		return a.Known && a.DistanceKm < b.DistanceKm
	})
	return out
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
