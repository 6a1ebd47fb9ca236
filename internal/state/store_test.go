package state_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/moxalise/aidmap/internal/push"
	"github.com/moxalise/aidmap/internal/state"
)

func TestOpenCreatesStoreWithSessionID(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")

	s, err := state.Open(path)
	require.NoError(t, err)

	_, err = uuid.Parse(s.SessionID())
	assert.NoError(t, err, "session id is a uuid")

	_, statErr := os.Stat(path)
	assert.NoError(t, statErr, "file created eagerly")
}

func TestStateRoundTripsAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")

	s, err := state.Open(path)
	require.NoError(t, err)
	session := s.SessionID()

	require.NoError(t, s.SetPhoneNumber("555123456"))
	sent := time.Date(2026, 2, 3, 10, 0, 0, 0, time.UTC)
	require.NoError(t, s.RecordLocation(push.LocationPayload{Latitude: 41.7, Longitude: 44.8}, sent))
	_, err = s.IncrementPinClicks()
	require.NoError(t, err)

	reopened, err := state.Open(path)
	require.NoError(t, err)

	assert.Equal(t, session, reopened.SessionID(), "session survives reopen")
	assert.Equal(t, "555123456", reopened.PhoneNumber())
	assert.Equal(t, 1, reopened.PinClicks())

	payload, at, ok := reopened.LastLocation()
	require.True(t, ok)
	assert.Equal(t, 41.7, payload.Latitude)
	assert.True(t, at.Equal(sent))
}

func TestLastLocationAbsentByDefault(t *testing.T) {
	s, err := state.Open(filepath.Join(t.TempDir(), "state.json"))
	require.NoError(t, err)

	_, _, ok := s.LastLocation()
	assert.False(t, ok)
}

func TestOpenRejectsCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))

	_, err := state.Open(path)
	require.Error(t, err)
}

func TestIncrementPinClicksCounts(t *testing.T) {
	s, err := state.Open(filepath.Join(t.TempDir(), "state.json"))
	require.NoError(t, err)

	for want := 1; want <= 3; want++ {
		got, err := s.IncrementPinClicks()
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
}
