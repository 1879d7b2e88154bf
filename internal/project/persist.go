package project

import (
	"context"

	"montage/internal/faults"
	"montage/internal/fileutil"
	"montage/internal/logging"
	"montage/internal/timeline"
)

// Formatter serializes project content to and from a URI.
type Formatter interface {
	Load(ctx context.Context, uri string, tl *timeline.Timeline) error
	Save(ctx context.Context, tl *timeline.Timeline, uri string, overwrite bool) error
}

// Load reads project content from uri into tl. The project adopts the URI as
// its own and marks itself loaded on success. A project that already has a
// URI refuses to load from a different one.
func (p *Project) Load(ctx context.Context, formatter Formatter, uri string, tl *timeline.Timeline) error {
	if formatter == nil {
		return faults.Wrap(faults.ErrConfiguration, "project", "load", "no formatter", nil)
	}
	if !fileutil.IsURI(uri) {
		return faults.Wrap(faults.ErrConfiguration, "project", "load", "location is not a URI", nil)
	}

	p.mu.Lock()
	if p.uri != "" && p.uri != uri {
		current := p.uri
		p.mu.Unlock()
		return faults.Wrap(faults.ErrState, "project", "load",
			"project is already bound to "+current, nil)
	}
	p.uri = uri
	p.mu.Unlock()

	if err := formatter.Load(ctx, uri, tl); err != nil {
		return faults.Wrap(faults.ErrResolution, "project", "load", uri, err)
	}
	p.logger.Info("project content loaded", logging.String("uri", uri))
	p.SetLoaded(tl)
	return nil
}

// Save writes tl to uri. A timeline the project does not own is refused. An
// empty uri saves to the project's own URI; the first successful save adopts
// the target URI when the project has none.
func (p *Project) Save(ctx context.Context, formatter Formatter, tl *timeline.Timeline, uri string, overwrite bool) error {
	if formatter == nil {
		return faults.Wrap(faults.ErrConfiguration, "project", "save", "no formatter", nil)
	}
	if !p.ownsTimeline(tl) {
		return faults.Wrap(faults.ErrState, "project", "save",
			"timeline does not belong to this project", nil)
	}

	p.mu.Lock()
	target := uri
	if target == "" {
		target = p.uri
	}
	p.mu.Unlock()
	if target == "" {
		return faults.Wrap(faults.ErrConfiguration, "project", "save", "no save location", nil)
	}
	if !fileutil.IsURI(target) {
		return faults.Wrap(faults.ErrConfiguration, "project", "save", "location is not a URI", nil)
	}

	if err := formatter.Save(ctx, tl, target, overwrite); err != nil {
		return faults.Wrap(faults.ErrState, "project", "save", target, err)
	}

	p.mu.Lock()
	if p.uri == "" {
		p.uri = target
	}
	p.mu.Unlock()
	p.logger.Info("project saved", logging.String("uri", target))
	return nil
}

// NewTimeline creates a timeline owned by this project.
func (p *Project) NewTimeline() *timeline.Timeline {
	tl := timeline.New()
	p.adoptTimeline(tl)
	return tl
}
