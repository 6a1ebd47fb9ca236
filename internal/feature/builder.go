// Package feature converts the in-memory record set into the GeoJSON
// feature collection the map renders. Building is a pure function of the
// records: it is re-run wholesale on every zoom settle and style switch,
// always yielding rest-size geometry. Highlight inflation is applied to
// the installed collection afterwards, never baked in here.
package feature

import (
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"

	"github.com/moxalise/aidmap/internal/domain"
	"github.com/moxalise/aidmap/internal/geometry"
)

// Build produces one hexagon feature per mappable record. Records without
// usable coordinates are skipped. The outline color matches the fill so the
// highlight expressions only have to elevate width, not recolor.
func Build(records []domain.Record) *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()
	for _, rec := range records {
		if !rec.Mappable() {
			continue
		}
		fc.Append(newFeature(rec))
	}
	return fc
}

func newFeature(rec domain.Record) *geojson.Feature {
	ring := geometry.HexagonRing(rec.Lon, rec.Lat)
	f := geojson.NewFeature(orb.Polygon{ring})
	f.ID = rec.ID

	color := domain.ResolveColor(rec.Status, rec.Priority)
	f.Properties = geojson.Properties{
		"id":          rec.ID,
		"lat":         rec.Lat,
		"lon":         rec.Lon,
		"status":      rec.Status,
		"priority":    rec.Priority,
		"district":    rec.District,
		"village":     rec.Village,
		"fillColor":   color,
		"strokeColor": color,
		"fields":      fieldMapsOf(rec),
	}
	return f
}

// fieldMapsOf preserves the source column order so popups can show the raw
// row verbatim.
func fieldMapsOf(rec domain.Record) []map[string]string {
	out := make([]map[string]string, 0, len(rec.Fields))
	for _, fld := range rec.Fields {
		out = append(out, map[string]string{"key": fld.Key, "value": fld.Value})
	}
	return out
}
