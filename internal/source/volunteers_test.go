package source_test

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/moxalise/aidmap/internal/observability"
	"github.com/moxalise/aidmap/internal/source"
)

func volunteerClock(t *testing.T) clockwork.Clock {
	t.Helper()
	at, err := time.Parse(time.RFC3339, "2026-02-03T10:30:00Z")
	require.NoError(t, err)
	return clockwork.NewFakeClockAt(at)
}

func TestFetchPingsFromJSONAPI(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "application/json", r.Header.Get("Accept"))
		json.NewEncoder(w).Encode([]map[string]any{
			{"latitude": 41.7151, "longitude": 44.8271, "created_at": "2026-02-03T10:00:00Z", "phoneNumber": "555123456"},
			{"lat": 0, "lon": 44.8, "timestamp": "2026-02-03T10:00:00Z"}, // discarded
		})
	}))
	defer srv.Close()

	vs := source.NewVolunteers(srv.URL, "http://127.0.0.1:0/unused", "testdata/volunteers.csv",
		volunteerClock(t), slog.Default(), observability.NewMetricsForTesting())

	pings, err := vs.FetchPings(context.Background())
	require.NoError(t, err)
	require.Len(t, pings, 1)
	assert.Equal(t, 41.7151, pings[0].Lat)
	assert.Equal(t, "555123456", pings[0].PhoneNumber)
}

func TestFetchPingsFallsBackToCSV(t *testing.T) {
	api := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "api down", http.StatusServiceUnavailable)
	}))
	defer api.Close()
	csvSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte("lat,lon,timestamp,phone_number\n42.1,43.2,2026-02-03 10:15:00,555999888\n"))
	}))
	defer csvSrv.Close()

	metrics := observability.NewMetricsForTesting()
	vs := source.NewVolunteers(api.URL, csvSrv.URL, "testdata/volunteers.csv",
		volunteerClock(t), slog.Default(), metrics)

	pings, err := vs.FetchPings(context.Background())
	require.NoError(t, err)
	require.Len(t, pings, 1)
	assert.Equal(t, "555999888", pings[0].PhoneNumber)
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.SourceFallbacks.WithLabelValues("volunteers", "csv")))
}

func TestFetchPingsFallsBackToLocalSnapshot(t *testing.T) {
	down := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "down", http.StatusInternalServerError)
	}))
	defer down.Close()

	metrics := observability.NewMetricsForTesting()
	vs := source.NewVolunteers(down.URL, down.URL, "testdata/volunteers.csv",
		volunteerClock(t), slog.Default(), metrics)

	pings, err := vs.FetchPings(context.Background())
	require.NoError(t, err)
	require.Len(t, pings, 2, "zero-coordinate row dropped")
	assert.Equal(t, "555123456", pings[0].PhoneNumber)
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.SourceFallbacks.WithLabelValues("volunteers", "local")))
}

func TestFetchPingsExhaustedChainYieldsEmptySet(t *testing.T) {
	down := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "down", http.StatusInternalServerError)
	}))
	defer down.Close()

	metrics := observability.NewMetricsForTesting()
	vs := source.NewVolunteers(down.URL, down.URL, "testdata/missing.csv",
		volunteerClock(t), slog.Default(), metrics)

	pings, err := vs.FetchPings(context.Background())
	require.NoError(t, err, "an exhausted chain is an empty result, not an error")
	assert.Empty(t, pings)
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.SourceFallbacks.WithLabelValues("volunteers", "empty")))
}

func TestFetchPingsHonorsCancellation(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte("[]"))
	}))
	defer srv.Close()

	vs := source.NewVolunteers(srv.URL, srv.URL, "testdata/volunteers.csv",
		volunteerClock(t), slog.Default(), observability.NewMetricsForTesting())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := vs.FetchPings(ctx)
	require.Error(t, err)
}
