// Package mapview holds the marker layer and viewport handed to the browser map.
package mapview

import (
	"sync"

	"github.com/paulmach/orb"
)

// Marker is a pin with a tooltip. Position is [longitude, latitude] as in orb.
type Marker struct {
	Position    orb.Point
	Tooltip     string
	TooltipOpen bool
}

// View is the map viewport.
type View struct {
	Center orb.Point
	Zoom   int
}

// Map is the rendering surface the pipeline draws on.
type Map interface {
	SetView(center orb.Point, zoom int)
	ClearMarkers()
	AddMarker(m Marker)
}

// Flusher is implemented by maps that publish their state once a render pass completes.
type Flusher interface {
	Flush()
}

// Snapshot is a copy of a layer's committed state. ViewVersion grows each
// time a flushed pass moved the viewport.
type Snapshot struct {
	View        *View
	ViewVersion int
	Markers     []Marker
}

// Layer is an in-memory Map. Drawing calls stage a pass; Flush commits it and
// hands the committed snapshot to subscribers. Readers only ever see
// committed passes.
type Layer struct {
	mu          sync.RWMutex
	pending     layerState
	committed   layerState
	subscribers []func(Snapshot)
}

type layerState struct {
	view        *View
	viewVersion int
	markers     []Marker
}

func NewLayer() *Layer {
	return &Layer{}
}

func (l *Layer) SetView(center orb.Point, zoom int) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.pending.view = &View{Center: center, Zoom: zoom}
	l.pending.viewVersion++
}

func (l *Layer) ClearMarkers() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.pending.markers = nil
}

func (l *Layer) AddMarker(m Marker) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.pending.markers = append(l.pending.markers, m)
}

// Subscribe registers fn to be called with the layer state after each Flush.
func (l *Layer) Subscribe(fn func(Snapshot)) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.subscribers = append(l.subscribers, fn)
}

// Flush commits the staged pass.
func (l *Layer) Flush() {
	l.mu.Lock()
	l.committed = layerState{
		view:        l.pending.view,
		viewVersion: l.pending.viewVersion,
		markers:     append([]Marker{}, l.pending.markers...),
	}
	snapshot := l.committed.snapshot()
	subscribers := append([]func(Snapshot){}, l.subscribers...)
	l.mu.Unlock()

	for _, fn := range subscribers {
		fn(snapshot)
	}
}

func (l *Layer) Snapshot() Snapshot {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.committed.snapshot()
}

func (s layerState) snapshot() Snapshot {
	snapshot := Snapshot{ViewVersion: s.viewVersion}
	if s.view != nil {
		view := *s.view
		snapshot.View = &view
	}
	snapshot.Markers = append([]Marker{}, s.markers...)
	return snapshot
}
