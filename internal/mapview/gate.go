package mapview

import "github.com/paulmach/orb/geojson"

// IsReady reports whether the engine has a loaded style, the locations
// source with data, and both polygon layers. An engine mid-style-transition
// may panic on any of these probes; that counts as not ready, never as an
// error.
func IsReady(eng Engine) (ready bool) {
	defer func() {
		if recover() != nil {
			ready = false
		}
	}()
	if eng == nil || !eng.StyleLoaded() {
		return false
	}
	src, ok := eng.GetSource(SourceID)
	if !ok || src.Data() == nil {
		return false
	}
	return eng.HasLayer(FillLayerID) && eng.HasLayer(OutlineLayerID)
}

// EnsureLayers idempotently (re)creates the locations source and both
// layers, seeding the source from seed. It reports whether the engine
// satisfies IsReady afterwards; any panic or error along the way reports
// false rather than propagating.
func EnsureLayers(eng Engine, seed func() *geojson.FeatureCollection) (ready bool) {
	defer func() {
		if recover() != nil {
			ready = false
		}
	}()
	if eng == nil {
		return false
	}
	if _, ok := eng.GetSource(SourceID); !ok {
		if err := eng.AddSource(SourceID, seed()); err != nil {
			return false
		}
	}
	if !eng.HasLayer(FillLayerID) {
		err := eng.AddLayer(Layer{
			ID:     FillLayerID,
			Type:   "fill",
			Source: SourceID,
			Paint: map[string]Expression{
				"fill-color":   []any{"get", "fillColor"},
				"fill-opacity": RestFillOpacity(),
			},
		})
		if err != nil {
			return false
		}
	}
	if !eng.HasLayer(OutlineLayerID) {
		err := eng.AddLayer(Layer{
			ID:     OutlineLayerID,
			Type:   "line",
			Source: SourceID,
			Paint: map[string]Expression{
				"line-color": RestLineColor(),
				"line-width": RestLineWidth(),
			},
		})
		if err != nil {
			return false
		}
	}
	return IsReady(eng)
}
