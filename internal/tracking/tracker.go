// Package tracking runs the volunteer's own location sharing: a watch on a
// position provider, a minimum interval between server updates, and
// delivery through the push client's fallback chain.
package tracking

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/moxalise/aidmap/internal/push"
	"github.com/moxalise/aidmap/internal/state"
)

// MinUpdateInterval is the floor between consecutive server updates. The
// first update after a start bypasses it so a returning volunteer shows up
// immediately.
const MinUpdateInterval = 5 * time.Minute

// locationMessage is the fixed message attached to every location payload.
const locationMessage = "Location update"

// ipHashPlaceholder stands in for a hash we cannot compute client-side.
const ipHashPlaceholder = "anonymous"

// Provider failure modes. Permission denial is final; timeout and
// unavailability are surfaced and wait for the user to restart the watch,
// never auto-retried.
var (
	ErrPermissionDenied = errors.New("location permission denied")
	ErrTimeout          = errors.New("location request timed out")
	ErrUnavailable      = errors.New("location unavailable")
)

// ErrInvalidPhone rejects phone numbers outside the local mobile format.
var ErrInvalidPhone = errors.New("invalid phone number")

var phonePattern = regexp.MustCompile(`^5\d{8}$`)

// ValidPhone reports whether phone is a local mobile number: a 5 followed
// by eight digits.
func ValidPhone(phone string) bool {
	return phonePattern.MatchString(phone)
}

// Position is one provider fix.
type Position struct {
	Lat              float64
	Lon              float64
	Accuracy         float64
	Altitude         float64
	AltitudeAccuracy float64
	Heading          float64
	Speed            float64
}

// Update is one provider event: a fix or a terminal error.
type Update struct {
	Position Position
	Err      error
}

// Provider watches device position. Watch returns immediately with a
// channel that delivers updates until the context ends; a nil error from
// Watch does not guarantee permission, which may arrive later as an Update
// carrying ErrPermissionDenied.
type Provider interface {
	Watch(ctx context.Context) (<-chan Update, error)
}

// Sender delivers location payloads; *push.Client satisfies it.
type Sender interface {
	SendLocation(ctx context.Context, payload push.LocationPayload) error
}

// Tracker owns one watch at a time. Start and Stop are idempotent.
type Tracker struct {
	provider  Provider
	sender    Sender
	store     *state.Store
	clock     clockwork.Clock
	log       *slog.Logger
	userAgent string

	mu          sync.Mutex
	cancel      context.CancelFunc
	done        chan struct{}
	phone       string
	firstUpdate bool
	lastErr     error
}

func NewTracker(provider Provider, sender Sender, store *state.Store, clock clockwork.Clock, log *slog.Logger, userAgent string) *Tracker {
	return &Tracker{
		provider:  provider,
		sender:    sender,
		store:     store,
		clock:     clock,
		log:       log,
		userAgent: userAgent,
	}
}

// Start validates the phone number, remembers it, and begins watching.
// Starting an already-running tracker is a no-op.
func (t *Tracker) Start(ctx context.Context, phone string) error {
	if !ValidPhone(phone) {
		return fmt.Errorf("%w: %q", ErrInvalidPhone, phone)
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	if t.cancel != nil {
		return nil
	}
	if err := t.store.SetPhoneNumber(phone); err != nil {
		return fmt.Errorf("persist phone number: %w", err)
	}

	watchCtx, cancel := context.WithCancel(ctx)
	updates, err := t.provider.Watch(watchCtx)
	if err != nil {
		cancel()
		return fmt.Errorf("start watch: %w", err)
	}

	t.cancel = cancel
	t.done = make(chan struct{})
	t.phone = phone
	t.firstUpdate = true
	t.lastErr = nil

	go t.run(watchCtx, updates, t.done)
	t.log.Info("location sharing started", "phone", phone)
	return nil
}

// Stop tears the watch down; stopping a stopped tracker is a no-op.
func (t *Tracker) Stop() {
	t.mu.Lock()
	cancel, done := t.cancel, t.done
	t.cancel, t.done = nil, nil
	t.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
	t.log.Info("location sharing stopped")
}

// Running reports whether a watch is active.
func (t *Tracker) Running() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.cancel != nil
}

// Err returns the terminal provider error from the last watch, if any.
func (t *Tracker) Err() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.lastErr
}

func (t *Tracker) run(ctx context.Context, updates <-chan Update, done chan struct{}) {
	defer close(done)
	for {
		select {
		case <-ctx.Done():
			return
		case u, ok := <-updates:
			if !ok {
				return
			}
			if u.Err != nil {
				t.mu.Lock()
				t.lastErr = u.Err
				t.mu.Unlock()
				t.log.Warn("position watch failed", "error", u.Err)
				return
			}
			t.handlePosition(ctx, u.Position)
		}
	}
}

// handlePosition applies the interval floor, persists the payload, and
// delivers it. A delivery failure is logged and does not stop the watch.
func (t *Tracker) handlePosition(ctx context.Context, pos Position) {
	now := t.clock.Now()

	t.mu.Lock()
	first := t.firstUpdate
	phone := t.phone
	t.mu.Unlock()

	if !first {
		if _, last, ok := t.store.LastLocation(); ok && now.Sub(last) < MinUpdateInterval {
			t.log.Debug("skipping location update inside minimum interval",
				"elapsed", now.Sub(last), "minimum", MinUpdateInterval)
			return
		}
	}

	t.mu.Lock()
	t.firstUpdate = false
	t.mu.Unlock()

	payload := push.LocationPayload{
		Latitude:         pos.Lat,
		Longitude:        pos.Lon,
		Accuracy:         pos.Accuracy,
		Altitude:         pos.Altitude,
		AltitudeAccuracy: pos.AltitudeAccuracy,
		Heading:          pos.Heading,
		Speed:            pos.Speed,
		PhoneNumber:      phone,
		Message:          locationMessage,
		UserAgent:        t.userAgent,
		IPHash:           ipHashPlaceholder,
	}

	if err := t.store.RecordLocation(payload, now); err != nil {
		t.log.Warn("persisting location failed", "error", err)
	}
	if err := t.sender.SendLocation(ctx, payload); err != nil {
		t.log.Warn("location delivery failed on every transport", "error", err)
	}
}
