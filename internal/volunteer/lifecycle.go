// Package volunteer runs the periodic refresh cycle for live volunteer
// markers: fetch, parse, drop stale pings, and map the remaining ages onto
// a continuous color/pulse scale.
package volunteer

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"sync"

	"github.com/jonboulle/clockwork"

	"github.com/moxalise/aidmap/internal/domain"
	"github.com/moxalise/aidmap/internal/observability"
)

// Age bands for marker styling, in minutes.
const (
	pulseAgeMinutes = 15
	freshAgeMinutes = 60
)

const (
	colorRecent = "#4285F4"
	colorStale  = "#9E9E9E"
)

// Source produces the current raw ping set. Implementations carry their own
// fallback chains; a returned error means every transport was exhausted.
type Source interface {
	FetchPings(ctx context.Context) ([]domain.Ping, error)
}

// Marker is one rendered volunteer position.
type Marker struct {
	Ping       domain.Ping `json:"ping"`
	AgeMinutes float64     `json:"ageMinutes"`
	Color      string      `json:"color"`
	Pulse      bool        `json:"pulse"`
}

// Lifecycle holds the working ping set between refreshes. The rendered
// markers are replaced wholesale each cycle; a failed fetch re-renders from
// the previously held pings instead of breaking the cycle.
type Lifecycle struct {
	src     Source
	clock   clockwork.Clock
	log     *slog.Logger
	metrics *observability.Metrics

	mu      sync.Mutex
	pings   []domain.Ping
	markers []Marker
}

func NewLifecycle(src Source, clock clockwork.Clock, log *slog.Logger, metrics *observability.Metrics) *Lifecycle {
	return &Lifecycle{
		src:     src,
		clock:   clock,
		log:     log,
		metrics: metrics,
	}
}

// Refresh runs one fetch-filter-render cycle. Stale pings (age at or past
// the 6-hour maximum) and pings without usable coordinates never reach the
// rendered set.
func (l *Lifecycle) Refresh(ctx context.Context) {
	started := l.clock.Now()
	pings, err := l.src.FetchPings(ctx)

	l.mu.Lock()
	defer l.mu.Unlock()

	if err != nil {
		l.metrics.VolunteerRefreshes.WithLabelValues("fetch_error").Inc()
		l.log.Warn("volunteer fetch failed, re-rendering held data", "error", err)
	} else {
		l.metrics.VolunteerRefreshes.WithLabelValues("ok").Inc()
		l.pings = pings
	}

	now := l.clock.Now()
	fresh := domain.FilterFresh(l.pings, now)
	if dropped := len(l.pings) - len(fresh); dropped > 0 {
		l.metrics.VolunteerPingsDiscarded.Add(float64(dropped))
	}

	markers := make([]Marker, 0, len(fresh))
	for _, ping := range fresh {
		age := ping.Age(now).Minutes()
		color, pulse := MarkerStyle(age)
		markers = append(markers, Marker{
			Ping:       ping,
			AgeMinutes: age,
			Color:      color,
			Pulse:      pulse,
		})
	}
	l.markers = markers
	l.metrics.VolunteerMarkers.Set(float64(len(markers)))
	l.metrics.RefreshDuration.Observe(l.clock.Since(started).Seconds())

	l.log.Debug("volunteer markers refreshed", "markers", len(markers), "held_pings", len(l.pings))
}

// Markers returns the current rendered set.
func (l *Lifecycle) Markers() []Marker {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]Marker{}, l.markers...)
}

// MarkerStyle maps a ping age in minutes to the marker color and whether it
// pulses. Under 15 minutes is pulsing blue, under an hour steady blue, then
// the blue channel drains toward light blue until half the maximum age, and
// from there all channels drift to gray. The final band is unreachable
// behind the freshness filter and kept as a fallback.
func MarkerStyle(ageMinutes float64) (color string, pulse bool) {
	maxMinutes := domain.MaxPingAge.Minutes()
	halfMinutes := maxMinutes / 2

	switch {
	case ageMinutes < pulseAgeMinutes:
		return colorRecent, true
	case ageMinutes < freshAgeMinutes:
		return colorRecent, false
	case ageMinutes < halfMinutes:
		blue := math.Max(66, math.Floor(66+(1-ageMinutes/halfMinutes)*189))
		return fmt.Sprintf("rgb(66, %d, 244)", int(blue)), false
	case ageMinutes < maxMinutes:
		relative := (ageMinutes - halfMinutes) / halfMinutes
		red := math.Min(158, math.Floor(98+relative*60))
		green := math.Min(180, math.Floor(120+relative*60))
		blue := math.Max(128, math.Floor(128+(1-relative)*127))
		return fmt.Sprintf("rgb(%d, %d, %d)", int(red), int(green), int(blue)), false
	default:
		return colorStale, false
	}
}
