package volunteer_test

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/moxalise/aidmap/internal/domain"
	"github.com/moxalise/aidmap/internal/observability"
	"github.com/moxalise/aidmap/internal/volunteer"
)

type stubSource struct {
	pings []domain.Ping
	err   error
	calls int
}

func (s *stubSource) FetchPings(context.Context) ([]domain.Ping, error) {
	s.calls++
	return s.pings, s.err
}

func pingAt(age time.Duration, now time.Time) domain.Ping {
	return domain.Ping{
		Timestamp:   now.Add(-age),
		Lat:         41.7,
		Lon:         44.8,
		PhoneNumber: "555123456",
	}
}

func TestRefreshReplacesMarkersWholesale(t *testing.T) {
	clock := clockwork.NewFakeClock()
	now := clock.Now()
	src := &stubSource{pings: []domain.Ping{
		pingAt(5*time.Minute, now),
		pingAt(2*time.Hour, now),
		pingAt(7*time.Hour, now), // past the 6h maximum
	}}
	metrics := observability.NewMetricsForTesting()
	lc := volunteer.NewLifecycle(src, clock, slog.Default(), metrics)

	lc.Refresh(context.Background())

	markers := lc.Markers()
	require.Len(t, markers, 2, "stale ping filtered out")
	assert.InDelta(t, 5, markers[0].AgeMinutes, 0.01)
	assert.True(t, markers[0].Pulse)
	assert.False(t, markers[1].Pulse)
	assert.Equal(t, 2.0, testutil.ToFloat64(metrics.VolunteerMarkers))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.VolunteerPingsDiscarded))
}

func TestRefreshKeepsHeldDataOnFetchFailure(t *testing.T) {
	clock := clockwork.NewFakeClock()
	now := clock.Now()
	src := &stubSource{pings: []domain.Ping{pingAt(10*time.Minute, now)}}
	metrics := observability.NewMetricsForTesting()
	lc := volunteer.NewLifecycle(src, clock, slog.Default(), metrics)

	lc.Refresh(context.Background())
	require.Len(t, lc.Markers(), 1)

	src.err = errors.New("all transports exhausted")
	clock.Advance(10 * time.Minute)
	lc.Refresh(context.Background())

	markers := lc.Markers()
	require.Len(t, markers, 1, "held data re-rendered after fetch failure")
	assert.InDelta(t, 20, markers[0].AgeMinutes, 0.01, "age recomputed against the held ping")
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.VolunteerRefreshes.WithLabelValues("fetch_error")))
}

func TestRefreshAgesHeldPingsOut(t *testing.T) {
	clock := clockwork.NewFakeClock()
	now := clock.Now()
	src := &stubSource{pings: []domain.Ping{pingAt(5*time.Hour+50*time.Minute, now)}}
	lc := volunteer.NewLifecycle(src, clock, slog.Default(), observability.NewMetricsForTesting())

	lc.Refresh(context.Background())
	require.Len(t, lc.Markers(), 1)

	src.err = errors.New("down")
	clock.Advance(30 * time.Minute)
	lc.Refresh(context.Background())

	assert.Empty(t, lc.Markers(), "held ping crossed the age limit between cycles")
}

func TestMarkerStyleBands(t *testing.T) {
	tests := []struct {
		name      string
		age       float64
		wantColor string
		wantPulse bool
	}{
		{"fresh pulses", 0, "#4285F4", true},
		{"just under pulse cutoff", 14.99, "#4285F4", true},
		{"steady blue", 15, "#4285F4", false},
		{"last steady minute", 59.9, "#4285F4", false},
		{"start of blue drain", 60, "rgb(66, 192, 244)", false},
		{"mid blue drain", 120, "rgb(66, 129, 244)", false},
		{"end of blue drain", 179.9, "rgb(66, 66, 244)", false},
		{"start of gray drift", 180, "rgb(98, 120, 255)", false},
		{"mid gray drift", 270, "rgb(128, 150, 191)", false},
		{"end of gray drift", 359.9, "rgb(157, 179, 128)", false},
		{"defensive fallback", 360, "#9E9E9E", false},
		{"well past maximum", 1000, "#9E9E9E", false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			color, pulse := volunteer.MarkerStyle(tc.age)
			assert.Equal(t, tc.wantColor, color)
			assert.Equal(t, tc.wantPulse, pulse)
		})
	}
}
