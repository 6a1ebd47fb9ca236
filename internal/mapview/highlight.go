package mapview

import (
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"

	"github.com/moxalise/aidmap/internal/geometry"
	"github.com/moxalise/aidmap/internal/observability"
)

// ClearID is the sentinel that clears every highlight. The legacy "-1"
// spelling from deep links and older clients normalizes to it.
const ClearID = ""

// InflationFactor is the transient scale applied to the highlighted
// feature's ring. Restore always regenerates from the seed rather than
// scaling back down.
const InflationFactor = 3.0

// Ladder delays, measured from the initial not-ready attempt.
const (
	firstRetryDelay  = 200 * time.Millisecond
	secondRetryDelay = 500 * time.Millisecond
	forcedDelay      = 1000 * time.Millisecond
)

// View is the non-engine side of a highlight: pin and card visual state.
// Implementations must be cheap and must not fail; this half of the update
// is applied synchronously before the engine is ever consulted, so the user
// sees feedback even when the map half ultimately cannot be applied.
type View interface {
	ApplyHighlight(id string)
}

// NormalizeID maps the legacy clear sentinel onto ClearID.
func NormalizeID(id string) string {
	if id == "-1" {
		return ClearID
	}
	return id
}

// Synchronizer keeps the pin/card view state, the layer paint expressions,
// and the source geometry agreed on which record is highlighted.
//
// The engine loads styles asynchronously and may be mid-transition when a
// highlight arrives, so engine-side work runs behind a readiness gate with
// an escalating retry ladder: retry at 200ms, then ensure-layers plus a
// paint-only fallback, retry at 500ms, and a final forced attempt at 1000ms
// that swallows failures instead of propagating them. Each Highlight call
// takes a fresh token; a scheduled retry whose token is no longer current is
// dropped, so a stale ladder can never clobber a newer request.
type Synchronizer struct {
	eng     Engine
	view    View
	seed    func() *geojson.FeatureCollection
	clock   clockwork.Clock
	log     *slog.Logger
	metrics *observability.Metrics

	token atomic.Uint64

	mu          sync.Mutex // serializes engine-side application
	lastApplied string
}

// NewSynchronizer wires a synchronizer over the engine and view. seed must
// return a freshly built rest-size feature collection on every call.
func NewSynchronizer(eng Engine, view View, seed func() *geojson.FeatureCollection, clock clockwork.Clock, log *slog.Logger, metrics *observability.Metrics) *Synchronizer {
	return &Synchronizer{
		eng:     eng,
		view:    view,
		seed:    seed,
		clock:   clock,
		log:     log,
		metrics: metrics,
	}
}

// Highlight makes id the sole highlighted record, or clears all highlights
// when id is ClearID (or "-1"). The view half applies synchronously; the
// engine half applies synchronously when the map is ready and otherwise
// rides the retry ladder in the background.
func (s *Synchronizer) Highlight(id string) {
	id = NormalizeID(id)
	tok := s.token.Add(1)

	s.view.ApplyHighlight(id)

	if id == ClearID && s.LastApplied() == ClearID {
		// Nothing engine-side to undo.
		return
	}

	if IsReady(s.eng) {
		s.apply(id, "full", false)
		return
	}
	go s.ladder(id, tok)
}

// Clear is Highlight(ClearID).
func (s *Synchronizer) Clear() {
	s.Highlight(ClearID)
}

// LastApplied reports the record id of the most recent successful
// engine-side application, or ClearID.
func (s *Synchronizer) LastApplied() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastApplied
}

func (s *Synchronizer) ladder(id string, tok uint64) {
	if !s.waitRung(firstRetryDelay, tok) {
		return
	}
	if IsReady(s.eng) {
		s.apply(id, "full", false)
		return
	}
	if EnsureLayers(s.eng, s.seed) {
		// Degraded but visible: paint expressions without the geometry
		// inflation. The ladder continues so a later rung can upgrade it.
		s.apply(id, "paint_only", false)
	}

	if !s.waitRung(secondRetryDelay-firstRetryDelay, tok) {
		return
	}
	if IsReady(s.eng) {
		s.apply(id, "full", false)
		return
	}

	if !s.waitRung(forcedDelay-secondRetryDelay, tok) {
		return
	}
	s.apply(id, "forced", true)
}

// waitRung sleeps the given delay on the injected clock, then reports
// whether this ladder is still the current request.
func (s *Synchronizer) waitRung(d time.Duration, tok uint64) bool {
	<-s.clock.After(d)
	if s.token.Load() != tok {
		s.metrics.StaleRetriesDropped.Inc()
		s.log.Debug("dropping stale highlight retry", "id_token", tok)
		return false
	}
	s.metrics.HighlightRetries.Inc()
	return true
}

// apply performs the engine half of a highlight. Failures are logged and
// counted, never propagated; a forced attempt additionally re-ensures the
// layers before applying.
func (s *Synchronizer) apply(id, strategy string, force bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	defer func() {
		if r := recover(); r != nil {
			s.metrics.HighlightAttempts.WithLabelValues(strategy, "error").Inc()
			s.log.Error("highlight application panicked", "strategy", strategy, "record_id", id, "panic", fmt.Sprint(r))
		}
	}()

	if force {
		EnsureLayers(s.eng, s.seed)
	}

	var err error
	if strategy == "paint_only" {
		err = s.applyPaint(id)
	} else {
		err = s.applyGeometry(id)
		if err == nil {
			err = s.applyPaint(id)
		}
	}
	if err != nil {
		s.metrics.HighlightAttempts.WithLabelValues(strategy, "error").Inc()
		s.log.Warn("highlight application failed", "strategy", strategy, "record_id", id, "error", err)
		return
	}

	s.lastApplied = id
	s.metrics.HighlightAttempts.WithLabelValues(strategy, "ok").Inc()
	s.log.Debug("highlight applied", "strategy", strategy, "record_id", id)
}

// applyGeometry replaces the source data with a fresh rest-size collection,
// inflating only the requested feature. Restore-all-then-inflate-one keeps
// the single-inflated-feature invariant without tracking what was inflated
// before.
func (s *Synchronizer) applyGeometry(id string) error {
	src, ok := s.eng.GetSource(SourceID)
	if !ok {
		return fmt.Errorf("source %q missing", SourceID)
	}
	fc := s.seed()
	if id != ClearID {
		for _, f := range fc.Features {
			if f.Properties.MustString("id", "") != id {
				continue
			}
			poly, ok := f.Geometry.(orb.Polygon)
			if !ok || len(poly) == 0 {
				break
			}
			poly[0] = geometry.InflateRing(poly[0], InflationFactor)
			break
		}
	}
	src.SetData(fc)
	return nil
}

func (s *Synchronizer) applyPaint(id string) error {
	fillOpacity, lineColor, lineWidth := RestFillOpacity(), RestLineColor(), RestLineWidth()
	if id != ClearID {
		fillOpacity = HighlightFillOpacity(id)
		lineColor = HighlightLineColor(id)
		lineWidth = HighlightLineWidth(id)
	}
	if err := s.eng.SetPaintProperty(FillLayerID, "fill-opacity", fillOpacity); err != nil {
		return err
	}
	if err := s.eng.SetPaintProperty(OutlineLayerID, "line-color", lineColor); err != nil {
		return err
	}
	return s.eng.SetPaintProperty(OutlineLayerID, "line-width", lineWidth)
}
