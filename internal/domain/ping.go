package domain

import (
	"strconv"
	"time"
)

// MaxPingAge is how long a volunteer ping stays in the working set.
const MaxPingAge = 6 * time.Hour

// Ping is one volunteer live-location sample.
type Ping struct {
	Timestamp   time.Time `json:"timestamp"`
	Lat         float64   `json:"lat"`
	Lon         float64   `json:"lon"`
	Accuracy    float64   `json:"accuracy,omitempty"`
	Altitude    float64   `json:"altitude,omitempty"`
	Heading     float64   `json:"heading,omitempty"`
	Speed       float64   `json:"speed,omitempty"`
	PhoneNumber string    `json:"phone_number,omitempty"`
	Message     string    `json:"message,omitempty"`
}

// Age returns how old the ping is at the given instant.
func (p Ping) Age(now time.Time) time.Duration {
	return now.Sub(p.Timestamp)
}

// ParsePing builds a Ping from one API object or CSV row. Field spellings
// vary between the JSON API and the CSV fallbacks, so each field is looked
// up under every name it has been seen under. Returns ok=false when the
// coordinates are missing, non-numeric, or zero — such pings are discarded,
// not errors. A ping without any parseable timestamp is stamped with now,
// mirroring how the feed treats rows written before timestamps were added.
func ParsePing(row map[string]any, now time.Time) (Ping, bool) {
	p := Ping{
		Lat:         pickFloat(row, "lat", "latitude"),
		Lon:         pickFloat(row, "lon", "longitude"),
		Accuracy:    pickFloat(row, "accuracy"),
		Altitude:    pickFloat(row, "altitude"),
		Heading:     pickFloat(row, "heading"),
		Speed:       pickFloat(row, "speed"),
		PhoneNumber: pickString(row, "phone_number", "phoneNumber"),
		Message:     pickString(row, "message"),
	}
	if p.Lat == 0 || p.Lon == 0 {
		return Ping{}, false
	}

	p.Timestamp = now
	if s := pickString(row, "timestamp", "created_at"); s != "" {
		if ts, err := parseTimestamp(s); err == nil {
			p.Timestamp = ts
		}
	}
	return p, true
}

// FilterFresh keeps pings strictly younger than MaxPingAge. A ping aged
// exactly MaxPingAge is excluded.
func FilterFresh(pings []Ping, now time.Time) []Ping {
	out := make([]Ping, 0, len(pings))
	for _, p := range pings {
		if p.Age(now) < MaxPingAge {
			out = append(out, p)
		}
	}
	return out
}

func parseTimestamp(s string) (time.Time, error) {
	for _, layout := range []string{time.RFC3339Nano, time.RFC3339, "2006-01-02 15:04:05", "2006-01-02T15:04:05"} {
		if ts, err := time.Parse(layout, s); err == nil {
			return ts, nil
		}
	}
	return time.Time{}, strconv.ErrSyntax
}

// pickFloat returns the first present key coerced to float64. JSON gives
// float64, the CSV path gives strings; both are handled, everything else
// reads as 0.
func pickFloat(row map[string]any, keys ...string) float64 {
	for _, k := range keys {
		v, ok := row[k]
		if !ok || v == nil {
			continue
		}
		switch t := v.(type) {
		case float64:
			return t
		case int:
			return float64(t)
		case string:
			if f, err := strconv.ParseFloat(t, 64); err == nil {
				return f
			}
		}
	}
	return 0
}

func pickString(row map[string]any, keys ...string) string {
	for _, k := range keys {
		if v, ok := row[k]; ok {
			if s, ok := v.(string); ok && s != "" {
				return s
			}
		}
	}
	return ""
}
