package rides

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ride_dispatch/internal/apperr"
	"ride_dispatch/internal/models"
)

func TestPlanDefaultsToPickupTime(t *testing.T) {
	spec, err := Plan(ListRequest{}, Window{}, DefaultPageLimits)
	require.NoError(t, err)

	assert.False(t, spec.HasReference())
	assert.Equal(t, []OrderKey{{Field: FieldPickupTime}, {Field: FieldID}}, spec.Ordering)
	assert.Equal(t, PageRequest{Number: 1, Size: 10}, spec.Page)
}

func TestPlanWithReferenceOrdersByDistanceFirst(t *testing.T) {
	spec, err := Plan(ListRequest{Latitude: "40.7", Longitude: "-74.0"}, Window{}, DefaultPageLimits)
	require.NoError(t, err)

	require.True(t, spec.HasReference())
	assert.InDelta(t, 40.7, spec.Reference.Y(), 1e-12)
	assert.InDelta(t, -74.0, spec.Reference.X(), 1e-12)
	assert.Equal(t, []OrderKey{{Field: FieldDistance}, {Field: FieldPickupTime}, {Field: FieldID}}, spec.Ordering)
}

func TestPlanRejectsBadCoordinates(t *testing.T) {
	cases := []ListRequest{
		{Latitude: "abc", Longitude: "10"},
		{Latitude: "10", Longitude: "east"},
		{Latitude: "10"},
		{Longitude: "10"},
		{Latitude: "NaN", Longitude: "10"},
		{Latitude: "91", Longitude: "10"},
		{Latitude: "10", Longitude: "-181"},
	}
	for _, req := range cases {
		_, err := Plan(req, Window{}, DefaultPageLimits)
		assert.Equal(t, apperr.KindValidation, apperr.KindOf(err), "%+v", req)
	}
}

func TestBuildOrdering(t *testing.T) {
	keys, err := BuildOrdering("-pickup_time", false)
	require.NoError(t, err)
	assert.Equal(t, []OrderKey{{Field: FieldPickupTime, Desc: true}, {Field: FieldID}}, keys)

	keys, err = BuildOrdering("pickup_time, -distance, pickup_time", true)
	require.NoError(t, err)
	assert.Equal(t, []OrderKey{
		{Field: FieldPickupTime},
		{Field: FieldDistance, Desc: true},
		{Field: FieldID},
	}, keys)

	keys, err = BuildOrdering(" , ", true)
	require.NoError(t, err)
	assert.Equal(t, FieldDistance, keys[0].Field)
}

func TestBuildOrderingRejects(t *testing.T) {
	_, err := BuildOrdering("distance", false)
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))

	_, err = BuildOrdering("status", true)
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))
	assert.Contains(t, apperr.Message(err), "allowed: pickup_time, distance")

	_, err = BuildOrdering("-", false)
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))
}

func TestBuildOrderingReturnsFreshSlices(t *testing.T) {
	a, _ := BuildOrdering("", true)
	b, _ := BuildOrdering("", true)
	a[0].Desc = true
	assert.False(t, b[0].Desc)
}

func TestFiltersMatch(t *testing.T) {
	rider := &models.User{Email: "ALICE@example.com"}
	ride := &models.Ride{Status: models.RideStatusCompleted, Rider: rider}

	assert.True(t, Filters{}.Match(ride))
	assert.True(t, Filters{Status: "COMPLETED"}.Match(ride))
	assert.False(t, Filters{Status: "complete"}.Match(ride))
	assert.True(t, Filters{RiderEmail: "alice"}.Match(ride))
	assert.True(t, Filters{Status: "completed", RiderEmail: "@EXAMPLE"}.Match(ride))
	assert.False(t, Filters{RiderEmail: "bob"}.Match(ride))
	assert.False(t, Filters{RiderEmail: "alice"}.Match(&models.Ride{}))
}

func TestCompareRides(t *testing.T) {
	t0 := time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC)
	near, far := 1.0, 2.0
	a := models.Ride{ID: 1, PickupTime: t0.Add(time.Hour), Distance: &near}
	b := models.Ride{ID: 2, PickupTime: t0, Distance: &far}
	c := models.Ride{ID: 3, PickupTime: t0}

	byDistance := []OrderKey{{Field: FieldDistance}, {Field: FieldPickupTime}, {Field: FieldID}}
	assert.Negative(t, CompareRides(&a, &b, byDistance))
	assert.Negative(t, CompareRides(&b, &c, byDistance), "missing distance sorts last")

	byTime := []OrderKey{{Field: FieldPickupTime}, {Field: FieldID}}
	assert.Positive(t, CompareRides(&a, &b, byTime))
	assert.Negative(t, CompareRides(&b, &c, byTime), "id breaks pickup_time ties")
}

func TestProjectDistance(t *testing.T) {
	rides := []models.Ride{{PickupLatitude: 40.7128, PickupLongitude: -74.0060}}

	ProjectDistance(rides, nil)
	assert.Nil(t, rides[0].Distance)

	ref, err := ParseReference("40.7128", "-74.0060")
	require.NoError(t, err)
	ProjectDistance(rides, ref)
	require.NotNil(t, rides[0].Distance)
	assert.InDelta(t, 0, *rides[0].Distance, 1e-3)
}
