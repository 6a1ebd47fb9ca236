// Package app is the dashboard's coordination layer: it loads the record
// set, keeps the sidebar cards, the map pins, and the polygon source
// converged, and routes user events (card/pin clicks, zoom settles, style
// switches, deep links) into the highlight synchronizer.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"sync"

	"github.com/jonboulle/clockwork"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"

	"github.com/moxalise/aidmap/internal/domain"
	"github.com/moxalise/aidmap/internal/feature"
	"github.com/moxalise/aidmap/internal/mapview"
	"github.com/moxalise/aidmap/internal/observability"
	"github.com/moxalise/aidmap/internal/state"
)

// flyToZoom is the target zoom when jumping to a record, capped by the
// engine's maximum.
const flyToZoom = 12

// reminderClickInterval throttles the assistance reminder to once per this
// many pin clicks, starting with the first.
const reminderClickInterval = 20

const reminderMessage = "If you are heading out to help, send a notification from the record card so others know."

// StyleEngine is a map engine whose style can be switched at runtime.
type StyleEngine interface {
	mapview.Engine
	SetStyle(name string)
	OnStyleLoad(fn func())
}

// RecordSource loads the record sheet and the village lookup.
type RecordSource interface {
	FetchRecords(ctx context.Context) ([]domain.Record, error)
	FetchVillages(ctx context.Context) []domain.Village
}

// Notifier shows transient user-facing messages.
type Notifier interface {
	ShowReminder(message string)
}

// Controller owns the record set and the view-state collections derived
// from it. All mutation happens behind one mutex; the map source itself is
// only ever replaced wholesale, never patched.
type Controller struct {
	eng      StyleEngine
	src      RecordSource
	sync     *mapview.Synchronizer
	store    *state.Store
	notifier Notifier
	clock    clockwork.Clock
	log      *slog.Logger
	metrics  *observability.Metrics

	mu         sync.Mutex
	records    []domain.Record
	cards      *CardList
	pins       *mapview.PinSet
	dataLoaded bool
	pendingID  string
}

func NewController(eng StyleEngine, src RecordSource, store *state.Store, notifier Notifier, clock clockwork.Clock, log *slog.Logger, metrics *observability.Metrics) *Controller {
	c := &Controller{
		eng:      eng,
		src:      src,
		store:    store,
		notifier: notifier,
		clock:    clock,
		log:      log,
		metrics:  metrics,
		cards:    NewCardList(nil),
		pins:     mapview.BuildPins(nil),
	}
	c.sync = mapview.NewSynchronizer(eng, c, c.buildFeatures, clock, log, metrics)
	eng.OnStyleLoad(c.handleStyleLoaded)
	return c
}

// buildFeatures seeds the map source from the current record set.
func (c *Controller) buildFeatures() *geojson.FeatureCollection {
	return feature.Build(c.Records())
}

// ApplyHighlight fans the view half of a highlight out to pins and cards.
func (c *Controller) ApplyHighlight(id string) {
	c.mu.Lock()
	pins, cards := c.pins, c.cards
	c.mu.Unlock()
	pins.ApplyHighlight(id)
	cards.ApplyHighlight(id)
}

// LoadData performs the full load: records, village backfill, card and pin
// rebuild, and map source seeding. A records failure propagates; a villages
// failure just skips the backfill.
func (c *Controller) LoadData(ctx context.Context) error {
	records, err := c.src.FetchRecords(ctx)
	if err != nil {
		return fmt.Errorf("load data: %w", err)
	}
	villages := c.src.FetchVillages(ctx)
	backfilled := domain.BackfillCoordinates(records, villages)
	records = domain.FilterReportable(records)

	mappable := 0
	for _, rec := range records {
		if rec.Mappable() {
			mappable++
		}
	}

	c.mu.Lock()
	c.records = records
	c.cards = NewCardList(records)
	c.pins = mapview.BuildPins(records)
	c.dataLoaded = true
	c.mu.Unlock()

	c.metrics.MappableRecords.Set(float64(mappable))
	c.metrics.FeatureRebuilds.Inc()
	c.log.Info("data loaded",
		"records", len(records), "mappable", mappable, "backfilled", backfilled)

	if mapview.EnsureLayers(c.eng, c.buildFeatures) {
		c.refreshSourceData()
	}
	c.runPendingDeepLink()
	return nil
}

// CheckReadiness returns nil once the initial data load has completed and
// the map engine is ready for paint, or an error describing what is missing.
func (c *Controller) CheckReadiness(_ context.Context) error {
	c.mu.Lock()
	loaded := c.dataLoaded
	c.mu.Unlock()
	if !loaded {
		return errors.New("initial data load has not completed")
	}
	if !mapview.IsReady(c.eng) {
		return errors.New("map engine is not ready")
	}
	return nil
}

// Records returns the current record set.
func (c *Controller) Records() []domain.Record {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]domain.Record{}, c.records...)
}

// Record looks a record up by id.
func (c *Controller) Record(id string) (domain.Record, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, rec := range c.records {
		if rec.ID == id {
			return rec, true
		}
	}
	return domain.Record{}, false
}

// Cards returns the sidebar view state.
func (c *Controller) Cards() []Card {
	c.mu.Lock()
	cards := c.cards
	c.mu.Unlock()
	return cards.Cards()
}

// Pins returns the marker view state.
func (c *Controller) Pins() []mapview.Pin {
	c.mu.Lock()
	pins := c.pins
	c.mu.Unlock()
	return pins.Pins()
}

// HandleZoomEnd regenerates the feature collection wholesale so hexagons
// keep approximating constant ground area at the settled zoom.
func (c *Controller) HandleZoomEnd() {
	c.refreshSourceData()
}

func (c *Controller) refreshSourceData() {
	src, ok := c.eng.GetSource(mapview.SourceID)
	if !ok {
		return
	}
	src.SetData(c.buildFeatures())
	c.metrics.FeatureRebuilds.Inc()
}

// HandleCardClick highlights the record and flies the map to it. Records
// without coordinates only get the view-side highlight.
func (c *Controller) HandleCardClick(id string) {
	rec, ok := c.Record(id)
	if !ok {
		c.log.Debug("card click for unknown record", "record_id", id)
		return
	}
	if !rec.Mappable() {
		c.ApplyHighlight(id)
		return
	}
	c.eng.FlyTo(orb.Point{rec.Lon, rec.Lat}, math.Min(flyToZoom, mapview.MaxZoom))
	c.sync.Highlight(id)
}

// HandlePinClick highlights the record and counts toward the periodic
// assistance reminder.
func (c *Controller) HandlePinClick(id string) {
	c.sync.Highlight(id)

	clicks, err := c.store.IncrementPinClicks()
	if err != nil {
		c.log.Warn("persisting click counter failed", "error", err)
		return
	}
	if clicks%reminderClickInterval == 1 {
		c.notifier.ShowReminder(reminderMessage)
	}
}

// HandleBackgroundClick clears every highlight.
func (c *Controller) HandleBackgroundClick() {
	c.sync.Clear()
}

// HandleStyleToggle switches the base style. The engine drops all sources
// and layers during the switch; handleStyleLoaded rebuilds them when the
// new style finishes loading.
func (c *Controller) HandleStyleToggle(style string) {
	c.log.Info("switching map style", "style", style)
	c.eng.SetStyle(style)
}

// handleStyleLoaded restores the source, layers, and any active highlight
// after a style switch completes.
func (c *Controller) handleStyleLoaded() {
	if !mapview.EnsureLayers(c.eng, c.buildFeatures) {
		c.log.Warn("layer restore after style load failed")
		return
	}
	c.metrics.FeatureRebuilds.Inc()
	if id := c.sync.LastApplied(); id != mapview.ClearID {
		c.sync.Highlight(id)
	}
	c.runPendingDeepLink()
}

// HandleDeepLink requests the highlight/fly-to flow for a record id carried
// in the page URL. If data is not loaded yet the request parks until
// LoadData completes.
func (c *Controller) HandleDeepLink(id string) {
	id = mapview.NormalizeID(id)
	if id == mapview.ClearID {
		return
	}

	c.mu.Lock()
	loaded := c.dataLoaded
	if !loaded {
		c.pendingID = id
	}
	c.mu.Unlock()

	if loaded {
		c.HandleCardClick(id)
		return
	}
	c.log.Debug("deep link parked until data loads", "record_id", id)
}

func (c *Controller) runPendingDeepLink() {
	c.mu.Lock()
	id := c.pendingID
	c.pendingID = ""
	c.mu.Unlock()
	if id == "" {
		return
	}
	c.HandleCardClick(id)
}
