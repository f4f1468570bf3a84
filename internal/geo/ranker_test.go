package geo_test

import (
	"math"
	"seogaeum/backend/internal/geo"
	"seogaeum/backend/internal/models"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ptr(v float64) *float64 { return &v }

func lib(code string, lat, lon *float64) models.LibraryRecord {
	return models.LibraryRecord{Code: code, Name: code, Latitude: lat, Longitude: lon}
}

func TestDistance_SamePointIsZero(t *testing.T) {
	assert.Equal(t, 0.0, geo.Distance(37.5665, 126.9780, 37.5665, 126.9780))
	assert.Equal(t, 0.0, geo.Distance(-33.8688, 151.2093, -33.8688, 151.2093))
}

func TestDistance_Symmetric(t *testing.T) {
	points := [][2]float64{
		{37.5665, 126.9780},  // Seoul
		{35.1796, 129.0756},  // Busan
		{-33.8688, 151.2093}, // Sydney
		{51.5074, -0.1278},   // London
		{0, 0},
	}
	for _, a := range points {
		for _, b := range points {
			assert.Equal(t, geo.Distance(a[0], a[1], b[0], b[1]), geo.Distance(b[0], b[1], a[0], a[1]))
		}
	}
}

func TestDistance_KnownValue(t *testing.T) {
	// Seoul City Hall to Busan City Hall is roughly 325 km.
	d := geo.Distance(37.5665, 126.9780, 35.1796, 129.0756)
	assert.InDelta(t, 325, d, 5)

	// Rounded to two decimals.
	assert.Equal(t, d, float64(int64(d*100+0.5))/100)
}

func TestRank_NearestFirst(t *testing.T) {
	userLat, userLon := ptr(37.50), ptr(127.00)
	libs := []models.LibraryRecord{
		lib("far", ptr(37.60), ptr(127.10)),
		lib("near", ptr(37.501), ptr(127.001)),
		lib("mid", ptr(37.52), ptr(127.02)),
	}

	ranked := geo.Rank(userLat, userLon, libs)

	require.Len(t, ranked, 3)
	assert.Equal(t, "near", ranked[0].Library.Code)
	assert.Equal(t, "mid", ranked[1].Library.Code)
	assert.Equal(t, "far", ranked[2].Library.Code)
	for _, r := range ranked {
		assert.True(t, r.Known)
	}
}

// A library without coordinates reports 0 km but must never outrank a real distance.
func TestRank_MissingCoordinatesSortLast(t *testing.T) {
	userLat, userLon := ptr(37.50), ptr(127.00)
	libs := []models.LibraryRecord{
		lib("unknown-1", nil, nil),
		lib("far", ptr(38.50), ptr(128.00)),
		lib("unknown-2", ptr(37.50), nil),
		lib("here", ptr(37.50), ptr(127.00)),
	}

	ranked := geo.Rank(userLat, userLon, libs)

	require.Len(t, ranked, 4)
	assert.Equal(t, "here", ranked[0].Library.Code)
	assert.Equal(t, 0.0, ranked[0].DistanceKm)
	assert.True(t, ranked[0].Known)
	assert.Equal(t, "far", ranked[1].Library.Code)
	assert.Equal(t, "unknown-1", ranked[2].Library.Code)
	assert.Equal(t, "unknown-2", ranked[3].Library.Code)
	assert.Equal(t, 0.0, ranked[2].DistanceKm)
	assert.False(t, ranked[2].Known)
}

func TestRank_UnknownUserKeepsInputOrder(t *testing.T) {
	libs := []models.LibraryRecord{
		lib("b", ptr(37.6), ptr(127.1)),
		lib("a", ptr(37.5), ptr(127.0)),
	}

	ranked := geo.Rank(nil, nil, libs)

	require.Len(t, ranked, 2)
	assert.Equal(t, "b", ranked[0].Library.Code)
	assert.Equal(t, "a", ranked[1].Library.Code)
}

func TestRank_Deterministic(t *testing.T) {
	userLat, userLon := ptr(37.50), ptr(127.00)
	libs := []models.LibraryRecord{
		lib("x", ptr(37.51), ptr(127.01)),
		lib("y", ptr(37.51), ptr(127.01)),
		lib("z", nil, nil),
	}

	first := geo.Rank(userLat, userLon, libs)
	second := geo.Rank(userLat, userLon, libs)

	assert.Equal(t, first, second)
	assert.Equal(t, "x", first[0].Library.Code, "ties keep input order")
	assert.Equal(t, "x", libs[0].Code, "input slice is not reordered")
}

func TestRank_Empty(t *testing.T) {
	assert.Empty(t, geo.Rank(ptr(1), ptr(1), nil))
}

func TestDistance_AntipodalIsHalfCircumference(t *testing.T) {
	for _, p := range [][4]float64{
		{10, 20, -10, -160},
		{0, 0, 0, 180},
		{90, 0, -90, 0},
		{37.5665, 126.9780, -37.5665, -53.022},
	} {
		d := geo.Distance(p[0], p[1], p[2], p[3])
		require.False(t, math.IsNaN(d), "distance for %v must be a number", p)
		assert.InDelta(t, 20015.09, d, 0.01, "points %v", p)
	}
}
