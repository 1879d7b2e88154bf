package asset

import (
	"sort"
	"sync"
)

// LoadState describes where an identifier sits in the resolution lifecycle.
type LoadState int

const (
	// StateUnknown means the identifier was never requested.
	StateUnknown LoadState = iota
	StateLoading
	StateLoaded
	StateFailed
)

func (s LoadState) String() string {
	switch s {
	case StateLoading:
		return "loading"
	case StateLoaded:
		return "loaded"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Registry owns the authoritative identifier maps for one project. An
// identifier is a member of at most one of the loading, loaded, and failed
// sets at any time.
type Registry struct {
	mu      sync.RWMutex
	loaded  map[string]*Handle
	loading map[string]*Handle
	failed  map[string]error
}

// NewRegistry constructs an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		loaded:  make(map[string]*Handle),
		loading: make(map[string]*Handle),
		failed:  make(map[string]error),
	}
}

// BeginLoading inserts a placeholder for an identifier about to resolve. It
// returns false when the identifier is already loading, loaded, or failed,
// which enforces the single-flight guarantee for resolutions.
func (r *Registry) BeginLoading(h *Handle) bool {
	if h == nil || h.ID() == "" {
		return false
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	id := h.ID()
	if _, ok := r.loaded[id]; ok {
		return false
	}
	if _, ok := r.loading[id]; ok {
		return false
	}
	if _, ok := r.failed[id]; ok {
		return false
	}
	r.loading[id] = h
	return true
}

// Add inserts a resolved handle into the loaded map, clearing any loading
// placeholder. It returns false when the identifier is already loaded.
func (r *Registry) Add(h *Handle) bool {
	if h == nil || h.ID() == "" {
		return false
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	id := h.ID()
	if _, ok := r.loaded[id]; ok {
		return false
	}
	r.loaded[id] = h
	delete(r.loading, id)
	delete(r.failed, id)
	return true
}

// Remove deletes a handle from the loaded map, reporting whether it was
// present. Callers emit the removal event regardless of the return value.
func (r *Registry) Remove(h *Handle) bool {
	if h == nil {
		return false
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.loaded[h.ID()]; !ok {
		return false
	}
	delete(r.loaded, h.ID())
	return true
}

// Get returns the loaded handle for id when its kind matches the requested
// filter. Absence is an expected outcome, not an error.
func (r *Registry) Get(id string, filter Kind) *Handle {
	r.mu.RLock()
	defer r.mu.RUnlock()
	h, ok := r.loaded[id]
	if !ok || !h.Kind().Matches(filter) {
		return nil
	}
	return h
}

// List returns every loaded handle whose kind matches the filter, ordered by
// identifier for deterministic iteration.
func (r *Registry) List(filter Kind) []*Handle {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*Handle, 0, len(r.loaded))
	for _, h := range r.loaded {
		if h.Kind().Matches(filter) {
			out = append(out, h)
		}
	}
	sortHandles(out)
	return out
}

// Loading returns the placeholder handles currently resolving.
func (r *Registry) Loading() []*Handle {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*Handle, 0, len(r.loading))
	for _, h := range r.loading {
		out = append(out, h)
	}
	sortHandles(out)
	return out
}

// LoadingCount returns the number of in-flight resolutions.
func (r *Registry) LoadingCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.loading)
}

// ClearLoading removes an identifier from the loading set without marking it
// failed, returning the placeholder that was resolving. The relocation path
// uses this when a replacement identifier takes over from the original.
func (r *Registry) ClearLoading(id string) *Handle {
	r.mu.Lock()
	defer r.mu.Unlock()
	h := r.loading[id]
	delete(r.loading, id)
	return h
}

// MarkFailed records a terminal resolution failure for id, clearing any
// loading placeholder.
func (r *Registry) MarkFailed(id string, cause error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.loaded[id]; ok {
		return
	}
	delete(r.loading, id)
	r.failed[id] = cause
}

// FailureCause returns the recorded error for a failed identifier.
func (r *Registry) FailureCause(id string) (error, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	err, ok := r.failed[id]
	return err, ok
}

// State reports which lifecycle set currently holds id.
func (r *Registry) State(id string) LoadState {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if _, ok := r.loaded[id]; ok {
		return StateLoaded
	}
	if _, ok := r.loading[id]; ok {
		return StateLoading
	}
	if _, ok := r.failed[id]; ok {
		return StateFailed
	}
	return StateUnknown
}

// Counts returns the sizes of the loading, loaded, and failed sets.
func (r *Registry) Counts() (loading, loaded, failed int) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.loading), len(r.loaded), len(r.failed)
}

func sortHandles(handles []*Handle) {
	sort.Slice(handles, func(i, j int) bool { return handles[i].ID() < handles[j].ID() })
}
