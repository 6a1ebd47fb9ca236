package mapview

import (
	"fmt"
	"sync"

	"github.com/moxalise/aidmap/internal/domain"
	"github.com/moxalise/aidmap/internal/geometry"
)

// baseClusterRadius feeds the cluster offset; sized slightly larger than a
// rendered pin so fanned-out members stay distinguishable.
const baseClusterRadius = 0.0006

// Pin is the rendered marker for one mappable record. Lat and Lon carry the
// cluster offset already applied; the raw record coordinate stays on the
// record itself.
type Pin struct {
	RecordID    string  `json:"recordId"`
	Lat         float64 `json:"lat"`
	Lon         float64 `json:"lon"`
	Color       string  `json:"color"`
	GroupSize   int     `json:"groupSize"`
	GroupIndex  int     `json:"groupIndex"`
	Highlighted bool    `json:"highlighted"`
}

// PinSet is the full marker collection, rebuilt from scratch on every
// setup pass. Group membership is recomputed each build, never persisted.
type PinSet struct {
	mu    sync.Mutex
	pins  []Pin
	index map[string]int
}

// BuildPins derives one pin per mappable record, in record order. Records
// whose coordinates round to the same 4-decimal cell form a group, and every
// member of a multi-record group is fanned out on a small circle so pins do
// not fully overlap.
func BuildPins(records []domain.Record) *PinSet {
	groupSizes := map[string]int{}
	for _, rec := range records {
		if !rec.Mappable() {
			continue
		}
		groupSizes[groupKey(rec.Lat, rec.Lon)]++
	}

	set := &PinSet{index: map[string]int{}}
	groupSeen := map[string]int{}
	for _, rec := range records {
		if !rec.Mappable() {
			continue
		}
		key := groupKey(rec.Lat, rec.Lon)
		idx := groupSeen[key]
		groupSeen[key]++

		pin := Pin{
			RecordID:   rec.ID,
			Lat:        rec.Lat,
			Lon:        rec.Lon,
			Color:      domain.ResolveColor(rec.Status, rec.Priority),
			GroupSize:  groupSizes[key],
			GroupIndex: idx,
		}
		if pin.GroupSize > 1 {
			dx, dy := geometry.ClusterOffset(idx, baseClusterRadius)
			pin.Lon += dx
			pin.Lat += dy
		}
		set.index[rec.ID] = len(set.pins)
		set.pins = append(set.pins, pin)
	}
	return set
}

func groupKey(lat, lon float64) string {
	return fmt.Sprintf("%.4f,%.4f", lat, lon)
}

// ApplyHighlight marks the pin matching id and clears the rest. The empty
// id clears all.
func (s *PinSet) ApplyHighlight(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.pins {
		s.pins[i].Highlighted = id != "" && s.pins[i].RecordID == id
	}
}

// Pins returns a copy of the current pins in record order.
func (s *PinSet) Pins() []Pin {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Pin{}, s.pins...)
}

// Get looks a pin up by record id.
func (s *PinSet) Get(id string) (Pin, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i, ok := s.index[id]
	if !ok {
		return Pin{}, false
	}
	return s.pins[i], true
}

// Highlighted reports the currently highlighted record id, or "".
func (s *PinSet) Highlighted() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range s.pins {
		if p.Highlighted {
			return p.RecordID
		}
	}
	return ""
}
