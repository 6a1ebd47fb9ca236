package feature_test

import (
	"testing"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/moxalise/aidmap/internal/domain"
	"github.com/moxalise/aidmap/internal/feature"
	"github.com/moxalise/aidmap/internal/geometry"
)

func TestBuildSkipsUnmappableRecords(t *testing.T) {
	records := []domain.Record{
		{ID: "a", Lat: 41.7, Lon: 44.8, Status: domain.StatusPending},
		{ID: "b", Status: domain.StatusPending}, // no coordinates
		{ID: "c", Lat: 42.1, Lon: 43.5, Status: domain.StatusCompleted},
	}

	fc := feature.Build(records)

	require.Len(t, fc.Features, 2)
	assert.Equal(t, "a", fc.Features[0].ID)
	assert.Equal(t, "c", fc.Features[1].ID)
}

func TestBuildFeatureGeometryAndColors(t *testing.T) {
	rec := domain.Record{
		ID:       "r-1",
		Lat:      41.7151,
		Lon:      44.8271,
		Status:   domain.StatusPending,
		Priority: "urgent",
		District: "Gori",
		Village:  "Dirbi",
		Fields: []domain.Field{
			{Key: "Name", Value: "N. K."},
			{Key: "Needs", Value: "water"},
		},
	}

	fc := feature.Build([]domain.Record{rec})
	require.Len(t, fc.Features, 1)
	f := fc.Features[0]

	poly, ok := f.Geometry.(orb.Polygon)
	require.True(t, ok, "expected polygon geometry")
	require.Len(t, poly, 1)
	ring := poly[0]
	require.Len(t, ring, 7, "hexagon rings close with a repeated vertex")
	assert.Equal(t, ring[0], ring[len(ring)-1])

	// The vertex-mean centroid counts the closing vertex, so it sits a hair
	// off the true center; close enough to pin the ring to the record.
	center := geometry.Centroid(ring)
	assert.InDelta(t, rec.Lon, center[0], 0.01)
	assert.InDelta(t, rec.Lat, center[1], 0.01)

	// Priority overrides the pending color; stroke matches fill.
	assert.Equal(t, domain.ColorUrgent, f.Properties["fillColor"])
	assert.Equal(t, f.Properties["fillColor"], f.Properties["strokeColor"])

	assert.Equal(t, "r-1", f.Properties["id"])
	fields, ok := f.Properties["fields"].([]map[string]string)
	require.True(t, ok)
	require.Len(t, fields, 2)
	assert.Equal(t, "Name", fields[0]["key"])
	assert.Equal(t, "water", fields[1]["value"])
}

func TestBuildIsRecallableWithFreshIdentity(t *testing.T) {
	records := []domain.Record{{ID: "a", Lat: 41.7, Lon: 44.8, Status: domain.StatusPending}}

	first := feature.Build(records)
	second := feature.Build(records)

	require.NotSame(t, first, second)
	assert.Equal(t, len(first.Features), len(second.Features))
}
