// Package mapview holds the map-engine surface the dashboard drives: the
// readiness gate, the paint expressions, the highlight synchronizer with its
// retry ladder, and the clustered pin set. The engine itself is an external
// collaborator consumed through a narrow interface; everything here must
// tolerate an engine that is mid-style-transition.
package mapview

import (
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
)

const (
	// SourceID names the single GeoJSON source holding record polygons.
	SourceID = "locations"

	// FillLayerID and OutlineLayerID are the two layers rendered from it.
	FillLayerID    = "location-polygons"
	OutlineLayerID = "location-polygons-outline"

	// MaxZoom caps every programmatic zoom target.
	MaxZoom = 17.3
)

// Expression is a JSON-shaped style expression tree, e.g.
// []any{"get", "fillColor"}. The engine evaluates these per feature.
type Expression = any

// Layer describes a style layer bound to a source.
type Layer struct {
	ID     string
	Type   string // "fill" or "line"
	Source string
	Paint  map[string]Expression
}

// Source is a mutable GeoJSON source. Data is replaced wholesale via
// SetData, never patched, which is what keeps concurrent rebuild flows from
// observing half-written collections.
type Source interface {
	Data() *geojson.FeatureCollection
	SetData(fc *geojson.FeatureCollection)
}

// Engine is the narrow rendering surface the dashboard needs. Styles load
// asynchronously: between SetStyle and the load completing, any call other
// than StyleLoaded may fail or panic, and callers go through the readiness
// gate rather than assuming success.
type Engine interface {
	StyleLoaded() bool
	GetSource(id string) (Source, bool)
	AddSource(id string, fc *geojson.FeatureCollection) error
	HasLayer(id string) bool
	AddLayer(layer Layer) error
	SetPaintProperty(layerID, name string, value Expression) error
	FlyTo(center orb.Point, zoom float64)
	Zoom() float64
}
