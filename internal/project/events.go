package project

import (
	"montage/internal/asset"
)

// FailureCause classifies why an asset error event fired.
type FailureCause int

const (
	// CauseResolution means the identifier could not be resolved.
	CauseResolution FailureCause = iota
	// CauseRelocation means resolution failed and every relocation avenue
	// was exhausted or declined.
	CauseRelocation
	// CauseTranscode means a proxy encode for an already-loaded asset failed.
	CauseTranscode
)

func (c FailureCause) String() string {
	switch c {
	case CauseRelocation:
		return "relocation"
	case CauseTranscode:
		return "transcode"
	default:
		return "resolution"
	}
}

// AssetError describes a terminal asset failure delivered through events.
type AssetError struct {
	ID    string
	Kind  asset.Kind
	Cause FailureCause
	Err   error
}

// Events receive project notifications. Callbacks run outside the project's
// locks and may call back into the project; nil callbacks are skipped.
type Events struct {
	// AssetLoading fires when a resolution request is accepted.
	AssetLoading func(*asset.Handle)
	// AssetAdded fires when an asset becomes usable.
	AssetAdded func(*asset.Handle)
	// AssetRemoved fires on every removal request, whether or not the
	// asset was present.
	AssetRemoved func(*asset.Handle)
	// ErrorLoadingAsset fires on terminal failures.
	ErrorLoadingAsset func(AssetError)
	// Loaded fires once the project's content is fully loaded.
	Loaded func()

	// Proxy queue lifecycle.
	ProxyStarted   func()
	ProxyPaused    func()
	ProxyCancelled func()
	ProxyCompleted func()
	// ProxyReady fires when a proxy has been generated, resolved, and
	// recorded for a source.
	ProxyReady func(sourceID, proxyID string)
	// ProxyFailed fires when a proxy job fails and no relocation rescues it.
	ProxyFailed func(sourceID string, err error)
}

// MissingURIHandler proposes a replacement identifier for one that failed to
// resolve. Returning "" passes the decision to the next handler.
type MissingURIHandler func(id string, kind asset.Kind, cause error) string

func (e Events) emitLoading(h *asset.Handle) {
	if e.AssetLoading != nil {
		e.AssetLoading(h)
	}
}

func (e Events) emitAdded(h *asset.Handle) {
	if e.AssetAdded != nil {
		e.AssetAdded(h)
	}
}

func (e Events) emitRemoved(h *asset.Handle) {
	if e.AssetRemoved != nil {
		e.AssetRemoved(h)
	}
}

func (e Events) emitError(ae AssetError) {
	if e.ErrorLoadingAsset != nil {
		e.ErrorLoadingAsset(ae)
	}
}

func (e Events) emitLoaded() {
	if e.Loaded != nil {
		e.Loaded()
	}
}

func (e Events) emit(fn func()) {
	if fn != nil {
		fn()
	}
}
