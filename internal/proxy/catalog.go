package proxy

import (
	"sort"
	"sync"

	"montage/internal/logging"
	"montage/internal/transcode"
)

// Entry records one completed proxy.
type Entry struct {
	SourceID string
	ProxyID  string
	Profile  string
}

// Catalog tracks the project's encoding profiles and the proxies already
// generated. Proxies are looked up by either endpoint: the source that was
// encoded or the proxy that came out.
type Catalog struct {
	logger *logging.Logger

	mu         sync.RWMutex
	defaultSet bool
	defaultP   transcode.Profile
	perAsset   map[string]transcode.Profile
	renderList []transcode.Profile
	bySource   map[string]Entry
	byProxy    map[string]Entry
}

// NewCatalog constructs an empty catalog.
func NewCatalog(logger *logging.Logger) *Catalog {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Catalog{
		logger:   logger,
		perAsset: make(map[string]transcode.Profile),
		bySource: make(map[string]Entry),
		byProxy:  make(map[string]Entry),
	}
}

// SetDefaultProfile installs the project-wide proxy profile. Replacing an
// existing default is allowed but logged, since queued jobs keep the profile
// they were built with.
func (c *Catalog) SetDefaultProfile(p transcode.Profile) bool {
	if !p.Valid() {
		return false
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.defaultSet && !c.defaultP.Equal(p) {
		c.logger.Warn("replacing default proxy profile",
			logging.String(logging.FieldProfile, c.defaultP.Name),
			logging.String("replacement", p.Name))
	}
	c.defaultSet = true
	c.defaultP = p
	return true
}

// DefaultProfile returns the project-wide proxy profile, if one is set.
func (c *Catalog) DefaultProfile() (transcode.Profile, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.defaultP, c.defaultSet
}

// SetAssetProfile installs a per-asset override.
func (c *Catalog) SetAssetProfile(assetID string, p transcode.Profile) bool {
	if assetID == "" || !p.Valid() {
		return false
	}
	c.mu.Lock()
	c.perAsset[assetID] = p
	c.mu.Unlock()
	return true
}

// ProfileFor returns the profile governing assetID: the per-asset override
// when present, the project default otherwise.
func (c *Catalog) ProfileFor(assetID string) (transcode.Profile, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if p, ok := c.perAsset[assetID]; ok {
		return p, true
	}
	return c.defaultP, c.defaultSet
}

// AddRenderProfile records a named render configuration, newest first. A
// profile with the same name replaces the old one in place.
func (c *Catalog) AddRenderProfile(p transcode.Profile) bool {
	if !p.Valid() {
		return false
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	for i, existing := range c.renderList {
		if existing.Name == p.Name {
			c.renderList[i] = p
			return true
		}
	}
	c.renderList = append([]transcode.Profile{p}, c.renderList...)
	return true
}

// RenderProfiles returns the render configurations, newest first.
func (c *Catalog) RenderProfiles() []transcode.Profile {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]transcode.Profile, len(c.renderList))
	copy(out, c.renderList)
	return out
}

// AddProxy records a completed proxy. It is idempotent: a mapping already
// present under either the source or the proxy identifier leaves the catalog
// unchanged and returns false.
func (c *Catalog) AddProxy(sourceID, proxyID, profileName string) bool {
	if sourceID == "" || proxyID == "" || sourceID == proxyID {
		return false
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.bySource[sourceID]; ok {
		return false
	}
	if _, ok := c.byProxy[proxyID]; ok {
		return false
	}
	entry := Entry{SourceID: sourceID, ProxyID: proxyID, Profile: profileName}
	c.bySource[sourceID] = entry
	c.byProxy[proxyID] = entry
	return true
}

// RemoveProxy drops the mapping for a source, reporting whether one existed.
func (c *Catalog) RemoveProxy(sourceID string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	entry, ok := c.bySource[sourceID]
	if !ok {
		return false
	}
	delete(c.bySource, sourceID)
	delete(c.byProxy, entry.ProxyID)
	return true
}

// ProxyFor returns the proxy entry generated for a source.
func (c *Catalog) ProxyFor(sourceID string) (Entry, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	entry, ok := c.bySource[sourceID]
	return entry, ok
}

// SourceOf returns the entry whose proxy is proxyID.
func (c *Catalog) SourceOf(proxyID string) (Entry, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	entry, ok := c.byProxy[proxyID]
	return entry, ok
}

// Entries returns all recorded proxies ordered by source identifier.
func (c *Catalog) Entries() []Entry {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]Entry, 0, len(c.bySource))
	for _, entry := range c.bySource {
		out = append(out, entry)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SourceID < out[j].SourceID })
	return out
}
