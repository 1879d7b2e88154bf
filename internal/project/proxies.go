package project

import (
	"context"
	"time"

	"montage/internal/asset"
	"montage/internal/faults"
	"montage/internal/fileutil"
	"montage/internal/ledger"
	"montage/internal/logging"
	"montage/internal/provider"
	"montage/internal/proxy"
	"montage/internal/timeline"
	"montage/internal/transcode"
)

// SetProxyProfile installs the project-wide proxy encoding profile.
func (p *Project) SetProxyProfile(profile transcode.Profile) bool {
	return p.catalog.SetDefaultProfile(profile)
}

// SetAssetProxyProfile overrides the proxy profile for one asset.
func (p *Project) SetAssetProxyProfile(id string, profile transcode.Profile) bool {
	return p.catalog.SetAssetProfile(id, profile)
}

// ProxyProfileFor returns the profile that would govern a proxy encode for
// id: the per-asset override when present, the project default otherwise.
func (p *Project) ProxyProfileFor(id string) (transcode.Profile, bool) {
	return p.catalog.ProfileFor(id)
}

// AddRenderProfile appends a named render configuration to the project.
func (p *Project) AddRenderProfile(profile transcode.Profile) bool {
	return p.catalog.AddRenderProfile(profile)
}

// RenderProfiles lists the project's render configurations.
func (p *Project) RenderProfiles() []transcode.Profile {
	return p.catalog.RenderProfiles()
}

// SetProxiesLocation overrides the directory proxy files are written to.
// Jobs already queued keep the output location they were built with.
func (p *Project) SetProxiesLocation(dir string) {
	p.mu.Lock()
	p.proxiesLocation = dir
	p.mu.Unlock()
}

// ProxiesLocation returns the configured proxy output directory, if any.
func (p *Project) ProxiesLocation() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.proxiesLocation
}

// Proxies lists the proxies recorded for this project's assets.
func (p *Project) Proxies() []proxy.Entry {
	return p.catalog.Entries()
}

// ProxyFor returns the proxy recorded for a source asset.
func (p *Project) ProxyFor(sourceID string) (proxy.Entry, bool) {
	return p.catalog.ProxyFor(sourceID)
}

// ProxyState returns the queue's lifecycle state.
func (p *Project) ProxyState() proxy.State {
	return p.queue.State()
}

// ProxyJobs returns a snapshot of the queue's job list.
func (p *Project) ProxyJobs() []proxy.Job {
	return p.queue.Jobs()
}

// StartProxyCreation queues a proxy job for every clip source that lacks one
// and starts the queue. It is refused while assets are still resolving or
// when no profile applies. Starting a paused queue resumes it.
func (p *Project) StartProxyCreation(ctx context.Context) error {
	if n := p.registry.LoadingCount(); n > 0 {
		return faults.Wrap(faults.ErrState, "project", "start-proxies",
			"assets are still resolving", nil)
	}
	if p.queue.State() == proxy.StatePaused {
		return p.queue.Start(ctx, nil)
	}
	p.seedFromLedger(ctx)

	jobs := make([]*proxy.Job, 0)
	for _, h := range p.registry.List(asset.KindClipSource) {
		job, ok := p.buildJob(h.ID())
		if !ok {
			continue
		}
		jobs = append(jobs, job)
	}
	if len(jobs) == 0 {
		if _, ok := p.catalog.DefaultProfile(); !ok {
			return faults.Wrap(faults.ErrState, "project", "start-proxies", "no proxy profile configured", nil)
		}
	}
	return p.queue.Start(ctx, jobs)
}

// StartAssetProxy generates a proxy for a single loaded clip source. When
// the queue is already working the job joins it; otherwise a fresh run
// starts.
func (p *Project) StartAssetProxy(ctx context.Context, id string) error {
	if h := p.registry.Get(id, asset.KindClipSource); h == nil {
		return faults.Wrap(faults.ErrNotFound, "project", "start-asset-proxy", id, nil)
	}
	p.seedFromLedger(ctx)
	job, ok := p.buildJob(id)
	if !ok {
		return faults.Wrap(faults.ErrState, "project", "start-asset-proxy",
			"asset already has a proxy or no profile applies", nil)
	}
	switch p.queue.State() {
	case proxy.StateRunning, proxy.StatePaused:
		return p.queue.Append(job)
	default:
		return p.queue.Start(ctx, []*proxy.Job{job})
	}
}

// PauseProxyCreation suspends the active encode.
func (p *Project) PauseProxyCreation() error {
	return p.queue.Pause()
}

// CancelProxyCreation tears the queue down, discarding partial output.
func (p *Project) CancelProxyCreation() error {
	return p.queue.Cancel()
}

// UseProxiesForTimeline opts a timeline into proxy substitution and applies
// every proxy already recorded. It reports false when the timeline was
// already opted in.
func (p *Project) UseProxiesForTimeline(tl *timeline.Timeline) bool {
	if !p.binder.Bind(tl) {
		return false
	}
	for _, entry := range p.catalog.Entries() {
		p.binder.Apply(entry.SourceID, entry.ProxyID)
	}
	return true
}

// StopUsingProxiesForTimeline opts a timeline out of substitution, restoring
// original source references. It reports false when the timeline was not
// opted in.
func (p *Project) StopUsingProxiesForTimeline(tl *timeline.Timeline) bool {
	if !p.binder.Unbind(tl) {
		return false
	}
	for _, entry := range p.catalog.Entries() {
		if n := revertTimeline(tl, entry); n > 0 {
			tl.Commit()
		}
	}
	return true
}

func revertTimeline(tl *timeline.Timeline, entry proxy.Entry) int {
	n := 0
	for _, layer := range tl.Layers() {
		for _, clip := range layer.Clips {
			if clip.AssetID == entry.ProxyID {
				clip.AssetID = entry.SourceID
				n++
			}
		}
	}
	return n
}

// seedFromLedger replays previously recorded proxies into the catalog, so a
// reopened project skips sources whose proxy output still exists. Records
// whose output file is gone are left alone and the source re-encodes.
func (p *Project) seedFromLedger(ctx context.Context) {
	if p.ledger == nil {
		return
	}
	p.mu.Lock()
	seeded := p.ledgerSeeded
	p.ledgerSeeded = true
	p.mu.Unlock()
	if seeded {
		return
	}

	records, err := p.ledger.List(ctx)
	if err != nil {
		p.logger.Warn("could not read proxy ledger", logging.Error(err))
		return
	}
	for _, rec := range records {
		path, err := fileutil.PathFromURI(rec.ProxyID)
		if err != nil || !fileutil.Exists(path) {
			continue
		}
		if p.catalog.AddProxy(rec.SourceID, rec.ProxyID, rec.Profile) {
			p.logger.Debug("reusing recorded proxy",
				logging.String(logging.FieldAssetID, rec.SourceID),
				logging.String(logging.FieldProfile, rec.Profile))
		}
	}
}

// buildJob constructs a proxy job for a source, or reports false when the
// source already has a proxy, is itself a proxy, or no profile applies.
func (p *Project) buildJob(sourceID string) (*proxy.Job, bool) {
	if _, ok := p.catalog.ProxyFor(sourceID); ok {
		return nil, false
	}
	if _, ok := p.catalog.SourceOf(sourceID); ok {
		return nil, false
	}
	profile, ok := p.catalog.ProfileFor(sourceID)
	if !ok {
		return nil, false
	}
	outputID := proxy.OutputID(sourceID, p.ProxiesLocation())
	return proxy.NewJob(sourceID, outputID, profile), true
}

// onProxyJobDone runs on the queue worker after an encode's output has been
// published. The proxy resolves as a project asset before being recorded,
// so a broken output surfaces as a failure instead of a silent bad proxy.
func (p *Project) onProxyJobDone(job *proxy.Job) {
	ctx := context.Background()
	handle, err := p.createAndWait(ctx, job.OutputID, asset.KindClipSource)
	if err != nil {
		p.metrics.JobFailed()
		p.logger.Error("generated proxy failed to resolve",
			logging.String(logging.FieldAssetID, job.SourceID),
			logging.Error(err))
		p.emitProxyFailed(job.SourceID, err)
		return
	}

	if !p.catalog.AddProxy(job.SourceID, job.OutputID, job.Profile.Name) {
		// Already recorded, e.g. the job was queued twice across runs.
		p.metrics.JobDone()
		return
	}
	if source := p.registry.Get(job.SourceID, asset.KindAny); source != nil {
		source.SetProxyID(handle.ID())
	}
	if p.useProxies {
		p.binder.Apply(job.SourceID, job.OutputID)
	}
	if p.ledger != nil {
		rec := ledger.Record{
			SourceID:  job.SourceID,
			ProxyID:   job.OutputID,
			Profile:   job.Profile.Name,
			CreatedAt: time.Now().UTC(),
		}
		if err := p.ledger.Put(ctx, rec); err != nil {
			p.logger.Warn("could not persist proxy record", logging.Error(err))
		}
	}
	p.metrics.JobDone()
	if p.events.ProxyReady != nil {
		p.events.ProxyReady(job.SourceID, job.OutputID)
	}
}

// onProxyJobFailed reroutes a failed encode through the relocation protocol:
// the provider gets first refusal, then the missing-URI handlers run in
// order. Without a replacement the source stays loaded and the failure is
// reported as a transcode error.
func (p *Project) onProxyJobFailed(job *proxy.Job, jobErr error) {
	p.metrics.JobFailed()

	if replacement, ok := p.proposeTranscodeRelocation(job.SourceID, jobErr); ok {
		p.rerouteFailedSource(context.Background(), job.SourceID, replacement)
		return
	}

	p.logger.Error("proxy generation failed",
		logging.String(logging.FieldAssetID, job.SourceID),
		logging.Error(jobErr))
	p.events.emitError(AssetError{
		ID:    job.SourceID,
		Kind:  asset.KindClipSource,
		Cause: CauseTranscode,
		Err:   jobErr,
	})
	p.emitProxyFailed(job.SourceID, jobErr)
}

// proposeTranscodeRelocation runs the same provider-then-handler sequence
// used for resolution failures, adapted for a source that is already loaded.
// A provider decline ends the search without consulting the handlers.
func (p *Project) proposeTranscodeRelocation(sourceID string, cause error) (string, bool) {
	if relocator, ok := p.provider.(provider.Relocator); ok {
		replacement, err := relocator.RequestRelocation(
			context.Background(), sourceID, asset.KindClipSource, cause)
		if err != nil {
			p.logger.Warn("relocation declined",
				logging.String(logging.FieldAssetID, sourceID),
				logging.Error(err))
			return "", false
		}
		if replacement != "" && replacement != sourceID {
			return replacement, true
		}
	}

	p.mu.Lock()
	handlers := make([]MissingURIHandler, len(p.missingHandlers))
	copy(handlers, p.missingHandlers)
	p.mu.Unlock()

	for _, handler := range handlers {
		proposal := handler(sourceID, asset.KindClipSource, cause)
		if proposal == "" || proposal == sourceID {
			continue
		}
		if !fileutil.IsURI(proposal) {
			p.logger.Warn("ignoring relocation proposal that is not a URI",
				logging.String(logging.FieldAssetID, sourceID),
				logging.String("proposal", proposal))
			continue
		}
		return proposal, true
	}
	return "", false
}

// rerouteFailedSource swaps a loaded source whose encode failed for a
// provider-proposed replacement. The original leaves the registry with an
// alias to the replacement, and the replacement resolves as a new asset.
func (p *Project) rerouteFailedSource(ctx context.Context, sourceID, replacement string) {
	p.metrics.RelocationAccepted()
	p.logger.Info("replacing source after failed encode",
		logging.String(logging.FieldAssetID, sourceID),
		logging.String("replacement", replacement))

	if original := p.registry.Get(sourceID, asset.KindAny); original != nil {
		original.SetProxyID(replacement)
		p.registry.Remove(original)
		p.updateAssetMetrics()
		p.events.emitRemoved(original)
	}
	if err := p.CreateAsset(ctx, replacement, asset.KindClipSource); err != nil {
		p.logger.Warn("replacement source refused", logging.Error(err))
	}
}

func (p *Project) emitProxyFailed(sourceID string, err error) {
	if p.events.ProxyFailed != nil {
		p.events.ProxyFailed(sourceID, err)
	}
}
