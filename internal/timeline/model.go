// Package timeline provides a minimal editable timeline model and the binder
// that swaps clip sources for their proxies. The model tracks just enough
// structure for asset bookkeeping: layers of clips, each clip referencing a
// source asset by identifier.
package timeline

import (
	"sync"
	"time"
)

// Clip is one placed media reference. AssetID names the source asset the clip
// was extracted from; the binder rewrites it when proxies are in force.
type Clip struct {
	Name    string
	AssetID string
	Start   time.Duration
	Length  time.Duration
}

// Layer is an ordered collection of clips at one priority.
type Layer struct {
	Priority int
	Clips    []*Clip
}

// Timeline is a stack of layers with commit tracking. Mutations are staged
// until Commit is called, mirroring how rendering pipelines pick up changes.
type Timeline struct {
	mu      sync.Mutex
	layers  []*Layer
	commits int
}

// New constructs an empty timeline.
func New() *Timeline { return &Timeline{} }

// AppendLayer adds a layer below all existing layers and returns it.
func (t *Timeline) AppendLayer() *Layer {
	t.mu.Lock()
	defer t.mu.Unlock()
	layer := &Layer{Priority: len(t.layers)}
	t.layers = append(t.layers, layer)
	return layer
}

// Layers returns the layer stack in priority order.
func (t *Timeline) Layers() []*Layer {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]*Layer, len(t.layers))
	copy(out, t.layers)
	return out
}

// AddClip places a clip referencing the given asset on the layer.
func (l *Layer) AddClip(name, assetID string, start, length time.Duration) *Clip {
	clip := &Clip{Name: name, AssetID: assetID, Start: start, Length: length}
	l.Clips = append(l.Clips, clip)
	return clip
}

// Commit flushes staged changes and bumps the commit counter.
func (t *Timeline) Commit() {
	t.mu.Lock()
	t.commits++
	t.mu.Unlock()
}

// CommitCount returns how many times the timeline has been committed.
func (t *Timeline) CommitCount() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.commits
}
