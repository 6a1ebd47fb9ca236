package mapview_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/moxalise/aidmap/internal/domain"
	"github.com/moxalise/aidmap/internal/mapview"
)

func TestBuildPinsFansOutColocatedRecords(t *testing.T) {
	records := []domain.Record{
		{ID: "a", Lat: 41.71512, Lon: 44.82713, Status: domain.StatusPending},
		{ID: "b", Lat: 41.71508, Lon: 44.82709, Status: domain.StatusCompleted}, // same 4-decimal cell as a
		{ID: "c", Lat: 42.2679, Lon: 42.6946, Status: domain.StatusPending},
	}

	set := mapview.BuildPins(records)
	pins := set.Pins()
	require.Len(t, pins, 3)

	a, b, c := pins[0], pins[1], pins[2]

	assert.Equal(t, 2, a.GroupSize)
	assert.Equal(t, 2, b.GroupSize)
	assert.Equal(t, 1, c.GroupSize)

	offA := math.Hypot(a.Lon-records[0].Lon, a.Lat-records[0].Lat)
	offB := math.Hypot(b.Lon-records[1].Lon, b.Lat-records[1].Lat)
	offC := math.Hypot(c.Lon-records[2].Lon, c.Lat-records[2].Lat)

	assert.Greater(t, offA, 0.0, "grouped pins are offset")
	assert.Greater(t, offB, 0.0)
	assert.Zero(t, offC, "solo pins stay put")

	angleA := math.Atan2(a.Lat-records[0].Lat, a.Lon-records[0].Lon)
	angleB := math.Atan2(b.Lat-records[1].Lat, b.Lon-records[1].Lon)
	assert.NotEqual(t, angleA, angleB, "group members fan out at distinct angles")
}

func TestBuildPinsSkipsUnmappableAndKeepsOrder(t *testing.T) {
	records := []domain.Record{
		{ID: "a", Lat: 41.7, Lon: 44.8, Status: domain.StatusPending},
		{ID: "no-coords", Status: domain.StatusPending},
		{ID: "b", Lat: 42.0, Lon: 43.0, Status: domain.StatusEnRoute},
	}

	pins := mapview.BuildPins(records).Pins()

	require.Len(t, pins, 2)
	assert.Equal(t, "a", pins[0].RecordID)
	assert.Equal(t, "b", pins[1].RecordID)
	assert.Equal(t, domain.ColorEnRoute, pins[1].Color)
}

func TestPinSetHighlightIsExclusive(t *testing.T) {
	records := []domain.Record{
		{ID: "a", Lat: 41.7, Lon: 44.8, Status: domain.StatusPending},
		{ID: "b", Lat: 42.0, Lon: 43.0, Status: domain.StatusPending},
	}
	set := mapview.BuildPins(records)

	set.ApplyHighlight("a")
	assert.Equal(t, "a", set.Highlighted())

	set.ApplyHighlight("b")
	assert.Equal(t, "b", set.Highlighted())
	a, ok := set.Get("a")
	require.True(t, ok)
	assert.False(t, a.Highlighted)

	set.ApplyHighlight("")
	assert.Empty(t, set.Highlighted())
}
