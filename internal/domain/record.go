package domain

import (
	"strconv"
	"strings"

	"github.com/google/uuid"
)

// Well-known spreadsheet column names. Matching is case-insensitive; every
// other column is carried through as a display field.
const (
	ColumnID       = "id"
	ColumnLat      = "lat"
	ColumnLon      = "lon"
	ColumnStatus   = "status"
	ColumnPriority = "priority"
	ColumnDistrict = "district"
	ColumnVillage  = "village"
)

// Recognized status values. Status is free text in the source sheet, so
// anything outside this set renders gray rather than failing.
const (
	StatusPending   = "pending"
	StatusCompleted = "completed"
	StatusEnRoute   = "volunteer-en-route"
	StatusVisited   = "volunteer-visited"
)

// Field is one free-text spreadsheet column, preserved verbatim and in
// sheet order so display never depends on a fixed schema.
type Field struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// Record is one need report. Lat/Lon of zero means "no usable coordinate":
// the record stays in the card list but is excluded from the map.
type Record struct {
	ID       string  `json:"id"`
	Lat      float64 `json:"lat,omitempty"`
	Lon      float64 `json:"lon,omitempty"`
	Status   string  `json:"status"`
	Priority string  `json:"priority,omitempty"`
	District string  `json:"district"`
	Village  string  `json:"village"`
	Fields   []Field `json:"fields,omitempty"`
}

// Village is one row of the fallback coordinate lookup.
type Village struct {
	Name string
	Lat  float64
	Lon  float64
}

// Mappable reports whether the record can carry a pin and a polygon.
func (r Record) Mappable() bool {
	return r.Lat != 0 && r.Lon != 0
}

// Reportable reports whether the record identifies a real place. Rows with
// no district or village (or the "-" placeholder the sheet uses) are noise
// left behind by partially filled forms.
func (r Record) Reportable() bool {
	return r.District != "" && r.District != "-" && r.Village != "" && r.Village != "-"
}

// Get returns the display field with the given key, or "".
func (r Record) Get(key string) string {
	for _, f := range r.Fields {
		if f.Key == key {
			return f.Value
		}
	}
	return ""
}

// NewRecord builds a Record from one CSV row. All values are trimmed,
// coordinates are numeric-coerced (failures read as absent), and columns
// that are not one of the well-known ones are kept as ordered Fields. Rows
// without an id column get a generated one so the cross-view join key is
// always present.
func NewRecord(headers, values []string) Record {
	var r Record
	for i, h := range headers {
		if i >= len(values) {
			break
		}
		v := strings.TrimSpace(values[i])
		switch strings.ToLower(strings.TrimSpace(h)) {
		case ColumnID:
			r.ID = v
		case ColumnLat:
			r.Lat = parseCoordinate(v)
		case ColumnLon:
			r.Lon = parseCoordinate(v)
		case ColumnStatus:
			r.Status = v
		case ColumnPriority:
			r.Priority = v
		case ColumnDistrict:
			r.District = v
		case ColumnVillage:
			r.Village = v
		default:
			r.Fields = append(r.Fields, Field{Key: strings.TrimSpace(h), Value: v})
		}
	}
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	return r
}

// parseCoordinate parses a decimal-degree string, returning 0 for anything
// unusable. Zero doubles as the "absent" sentinel throughout.
func parseCoordinate(s string) float64 {
	if s == "" {
		return 0
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return v
}

// FilterReportable drops rows that do not identify a real place.
func FilterReportable(records []Record) []Record {
	out := make([]Record, 0, len(records))
	for _, r := range records {
		if r.Reportable() {
			out = append(out, r)
		}
	}
	return out
}

// BackfillCoordinates fills missing coordinates in place: first from a
// sibling record sharing (district, village) that has coordinates, then from
// the villages lookup by name alone. Returns how many records were filled.
func BackfillCoordinates(records []Record, villages []Village) int {
	siblings := make(map[string]Record)
	for _, r := range records {
		key := r.District + "_" + r.Village
		if r.Mappable() {
			if _, ok := siblings[key]; !ok {
				siblings[key] = r
			}
		}
	}

	filled := 0
	for i := range records {
		if records[i].Mappable() {
			continue
		}
		if s, ok := siblings[records[i].District+"_"+records[i].Village]; ok {
			records[i].Lat = s.Lat
			records[i].Lon = s.Lon
			filled++
		}
	}

	byName := make(map[string]Village, len(villages))
	for _, v := range villages {
		byName[v.Name] = v
	}
	for i := range records {
		if records[i].Mappable() {
			continue
		}
		if v, ok := byName[records[i].Village]; ok && v.Lat != 0 && v.Lon != 0 {
			records[i].Lat = v.Lat
			records[i].Lon = v.Lon
			filled++
		}
	}
	return filled
}
