package mapview

import (
	"fmt"
	"sort"
	"sync"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
)

// Memory is an in-process Engine. It reproduces the asynchronous style
// lifecycle of a real renderer: SetStyle drops every source and layer and
// marks the style as loading; nothing is usable again until
// CompleteStyleLoad fires, which also runs any registered load handlers.
type Memory struct {
	mu          sync.Mutex
	styleName   string
	styleLoaded bool
	sources     map[string]*memorySource
	layers      map[string]Layer
	paint       map[string]map[string]Expression
	zoom        float64
	center      orb.Point
	onLoad      []func()
	flights     []Flight
}

// Flight records one FlyTo call for assertions.
type Flight struct {
	Center orb.Point
	Zoom   float64
}

type memorySource struct {
	mu   sync.Mutex
	data *geojson.FeatureCollection
}

func (s *memorySource) Data() *geojson.FeatureCollection {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.data
}

func (s *memorySource) SetData(fc *geojson.FeatureCollection) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data = fc
}

// NewMemory returns an engine with no style loaded. Call SetStyle followed
// by CompleteStyleLoad to bring it up.
func NewMemory() *Memory {
	return &Memory{
		sources: map[string]*memorySource{},
		layers:  map[string]Layer{},
		paint:   map[string]map[string]Expression{},
	}
}

// SetStyle starts an asynchronous style switch: all sources, layers, and
// paint overrides are discarded and the engine reports not-loaded until
// CompleteStyleLoad.
func (m *Memory) SetStyle(name string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.styleName = name
	m.styleLoaded = false
	m.sources = map[string]*memorySource{}
	m.layers = map[string]Layer{}
	m.paint = map[string]map[string]Expression{}
}

// CompleteStyleLoad marks the pending style as loaded and fires load
// handlers in registration order.
func (m *Memory) CompleteStyleLoad() {
	m.mu.Lock()
	m.styleLoaded = true
	handlers := append([]func(){}, m.onLoad...)
	m.mu.Unlock()
	for _, fn := range handlers {
		fn()
	}
}

// OnStyleLoad registers a handler run after every style load completes.
func (m *Memory) OnStyleLoad(fn func()) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onLoad = append(m.onLoad, fn)
}

// StyleName reports the most recently requested style.
func (m *Memory) StyleName() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.styleName
}

func (m *Memory) StyleLoaded() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.styleLoaded
}

func (m *Memory) GetSource(id string) (Source, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	src, ok := m.sources[id]
	if !ok {
		return nil, false
	}
	return src, true
}

func (m *Memory) AddSource(id string, fc *geojson.FeatureCollection) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.styleLoaded {
		return fmt.Errorf("add source %q: style not loaded", id)
	}
	if _, ok := m.sources[id]; ok {
		return fmt.Errorf("add source %q: already exists", id)
	}
	m.sources[id] = &memorySource{data: fc}
	return nil
}

func (m *Memory) HasLayer(id string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.layers[id]
	return ok
}

func (m *Memory) AddLayer(layer Layer) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.styleLoaded {
		return fmt.Errorf("add layer %q: style not loaded", layer.ID)
	}
	if _, ok := m.layers[layer.ID]; ok {
		return fmt.Errorf("add layer %q: already exists", layer.ID)
	}
	if _, ok := m.sources[layer.Source]; !ok {
		return fmt.Errorf("add layer %q: unknown source %q", layer.ID, layer.Source)
	}
	m.layers[layer.ID] = layer
	for name, value := range layer.Paint {
		m.setPaintLocked(layer.ID, name, value)
	}
	return nil
}

func (m *Memory) SetPaintProperty(layerID, name string, value Expression) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.layers[layerID]; !ok {
		return fmt.Errorf("set paint %q on %q: no such layer", name, layerID)
	}
	m.setPaintLocked(layerID, name, value)
	return nil
}

func (m *Memory) setPaintLocked(layerID, name string, value Expression) {
	props, ok := m.paint[layerID]
	if !ok {
		props = map[string]Expression{}
		m.paint[layerID] = props
	}
	props[name] = value
}

// PaintProperty returns the current value of a paint property, or nil.
func (m *Memory) PaintProperty(layerID, name string) Expression {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.paint[layerID][name]
}

// LayerIDs lists layer ids in lexical order.
func (m *Memory) LayerIDs() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	ids := make([]string, 0, len(m.layers))
	for id := range m.layers {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

func (m *Memory) FlyTo(center orb.Point, zoom float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if zoom > MaxZoom {
		zoom = MaxZoom
	}
	m.center = center
	m.zoom = zoom
	m.flights = append(m.flights, Flight{Center: center, Zoom: zoom})
}

func (m *Memory) Zoom() float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.zoom
}

// SetZoom clamps to MaxZoom, matching the navigation control behavior.
func (m *Memory) SetZoom(zoom float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if zoom > MaxZoom {
		zoom = MaxZoom
	}
	m.zoom = zoom
}

// Center reports the last flown-to center.
func (m *Memory) Center() orb.Point {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.center
}

// Flights returns every FlyTo recorded since construction.
func (m *Memory) Flights() []Flight {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Flight{}, m.flights...)
}
