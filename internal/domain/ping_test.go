package domain_test

import (
	"testing"
	"time"

	"github.com/moxalise/aidmap/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var pingNow = time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

func TestParsePing_JSONFieldNames(t *testing.T) {
	p, ok := domain.ParsePing(map[string]any{
		"latitude":     41.72,
		"longitude":    44.78,
		"accuracy":     12.5,
		"heading":      90.0,
		"speed":        1.4,
		"phone_number": "555123456",
		"message":      "on my way",
		"created_at":   "2026-03-10T11:30:00Z",
	}, pingNow)

	require.True(t, ok)
	assert.Equal(t, 41.72, p.Lat)
	assert.Equal(t, 44.78, p.Lon)
	assert.Equal(t, 12.5, p.Accuracy)
	assert.Equal(t, 90.0, p.Heading)
	assert.Equal(t, "555123456", p.PhoneNumber)
	assert.Equal(t, 30*time.Minute, p.Age(pingNow))
}

func TestParsePing_CSVStringValues(t *testing.T) {
	p, ok := domain.ParsePing(map[string]any{
		"lat":         "41.72",
		"lon":         "44.78",
		"speed":       "2.5",
		"phoneNumber": "555000111",
		"timestamp":   "2026-03-10 11:00:00",
	}, pingNow)

	require.True(t, ok)
	assert.Equal(t, 41.72, p.Lat)
	assert.Equal(t, 2.5, p.Speed)
	assert.Equal(t, "555000111", p.PhoneNumber)
	assert.Equal(t, time.Hour, p.Age(pingNow))
}

func TestParsePing_Discarded(t *testing.T) {
	for _, tc := range []struct {
		name string
		row  map[string]any
	}{
		{"zero lat", map[string]any{"lat": 0.0, "lon": 44.78}},
		{"zero lon", map[string]any{"lat": 41.72, "lon": "0"}},
		{"non-numeric lon", map[string]any{"lat": 41.72, "lon": "east"}},
		{"missing both", map[string]any{"message": "hi"}},
	} {
		t.Run(tc.name, func(t *testing.T) {
			_, ok := domain.ParsePing(tc.row, pingNow)
			assert.False(t, ok)
		})
	}
}

func TestParsePing_UnparseableTimestampDefaultsToNow(t *testing.T) {
	p, ok := domain.ParsePing(map[string]any{"lat": 1.0, "lon": 2.0, "timestamp": "yesterday-ish"}, pingNow)
	require.True(t, ok)
	assert.Equal(t, pingNow, p.Timestamp)
}

func TestFilterFresh_BoundaryIsStrict(t *testing.T) {
	pings := []domain.Ping{
		{Lat: 1, Lon: 1, Timestamp: pingNow.Add(-domain.MaxPingAge + time.Second)}, // just inside
		{Lat: 1, Lon: 1, Timestamp: pingNow.Add(-domain.MaxPingAge)},               // exactly at the boundary
		{Lat: 1, Lon: 1, Timestamp: pingNow.Add(-domain.MaxPingAge - time.Hour)},   // stale
		{Lat: 1, Lon: 1, Timestamp: pingNow},                                       // brand new
	}

	fresh := domain.FilterFresh(pings, pingNow)
	require.Len(t, fresh, 2)
	assert.Equal(t, pings[0].Timestamp, fresh[0].Timestamp)
	assert.Equal(t, pingNow, fresh[1].Timestamp)
}
