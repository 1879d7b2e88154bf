package asset

import (
	"strings"
	"sync"
)

// Handle is a resolved asset: an identifier bound to an extractable kind.
// Handles are shared between the registry and any holder they were handed
// to; mutable fields are guarded so holders can inspect them concurrently.
type Handle struct {
	id   string
	kind Kind

	mu      sync.RWMutex
	proxyID string
	local   string
}

// New constructs a handle for the given identifier and kind.
func New(id string, kind Kind) *Handle {
	return &Handle{id: strings.TrimSpace(id), kind: kind}
}

// ID returns the asset's identifier.
func (h *Handle) ID() string { return h.id }

// Kind returns the asset's extractable kind.
func (h *Handle) Kind() Kind { return h.kind }

// SetLocal records the resolved filesystem location for URI-backed assets.
func (h *Handle) SetLocal(path string) {
	h.mu.Lock()
	h.local = strings.TrimSpace(path)
	h.mu.Unlock()
}

// Local returns the resolved filesystem location, if known.
func (h *Handle) Local() string {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.local
}

// SetProxyID marks this asset as standing proxy for a replacement
// identifier, the outcome of a successful relocation. It fails when the
// replacement is empty or refers to the asset itself.
func (h *Handle) SetProxyID(id string) bool {
	trimmed := strings.TrimSpace(id)
	if trimmed == "" || trimmed == h.id {
		return false
	}
	h.mu.Lock()
	h.proxyID = trimmed
	h.mu.Unlock()
	return true
}

// ProxyID returns the replacement identifier this asset is aliased to, or ""
// when the asset was never relocated.
func (h *Handle) ProxyID() string {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.proxyID
}
