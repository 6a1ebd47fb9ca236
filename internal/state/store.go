// Package state persists the small client-side dashboard state between
// runs: the last-used phone number, the last sent location and its
// timestamp, the pin-click counter behind the periodic reminder, and a
// per-install session id. One JSON file, rewritten atomically on every
// mutation.
package state

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/moxalise/aidmap/internal/push"
)

type persisted struct {
	SessionID          string                `json:"session_id"`
	PhoneNumber        string                `json:"phone_number,omitempty"`
	LastLocation       *push.LocationPayload `json:"last_location,omitempty"`
	LastLocationUpdate time.Time             `json:"last_location_update,omitzero"`
	PinClicks          int                   `json:"pin_clicks"`
}

// Store is a file-backed key-value store.
type Store struct {
	path string

	mu   sync.Mutex
	data persisted
}

// Open loads the store at path, creating it with a fresh session id when
// missing. A corrupt file is an error; deleting it is the operator's call,
// not ours.
func Open(path string) (*Store, error) {
	s := &Store{path: path}
	raw, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		s.data.SessionID = uuid.NewString()
		if err := s.flushLocked(); err != nil {
			return nil, err
		}
		return s, nil
	case err != nil:
		return nil, fmt.Errorf("read state: %w", err)
	}
	if err := json.Unmarshal(raw, &s.data); err != nil {
		return nil, fmt.Errorf("parse state %s: %w", path, err)
	}
	if s.data.SessionID == "" {
		s.data.SessionID = uuid.NewString()
		if err := s.flushLocked(); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// SessionID is stable for the lifetime of the state file.
func (s *Store) SessionID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.data.SessionID
}

func (s *Store) PhoneNumber() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.data.PhoneNumber
}

func (s *Store) SetPhoneNumber(phone string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data.PhoneNumber = phone
	return s.flushLocked()
}

// RecordLocation stores the payload that was just sent and when.
func (s *Store) RecordLocation(payload push.LocationPayload, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p := payload
	s.data.LastLocation = &p
	s.data.LastLocationUpdate = at
	return s.flushLocked()
}

// LastLocation returns the most recently sent payload and its timestamp;
// ok is false when no location was ever sent.
func (s *Store) LastLocation() (payload push.LocationPayload, at time.Time, ok bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.data.LastLocation == nil {
		return push.LocationPayload{}, time.Time{}, false
	}
	return *s.data.LastLocation, s.data.LastLocationUpdate, true
}

// IncrementPinClicks bumps the reminder counter and returns the new total.
func (s *Store) IncrementPinClicks() (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data.PinClicks++
	return s.data.PinClicks, s.flushLocked()
}

// PinClicks reads the counter without bumping it.
func (s *Store) PinClicks() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.data.PinClicks
}

// flushLocked writes via a temp file and rename so readers never observe a
// torn write. Callers hold s.mu.
func (s *Store) flushLocked() error {
	raw, err := json.MarshalIndent(s.data, "", "  ")
	if err != nil {
		return fmt.Errorf("encode state: %w", err)
	}
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create state dir: %w", err)
	}
	tmp, err := os.CreateTemp(dir, ".state-*")
	if err != nil {
		return fmt.Errorf("create temp state: %w", err)
	}
	if _, err := tmp.Write(raw); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("write state: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("close state: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("replace state: %w", err)
	}
	return nil
}
