package project

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"montage/internal/fileutil"
	"montage/internal/timeline"
)

// JSONFormatter persists timelines as a JSON document on the filesystem.
type JSONFormatter struct{}

type timelineDoc struct {
	Layers []layerDoc `json:"layers"`
}

type layerDoc struct {
	Priority int       `json:"priority"`
	Clips    []clipDoc `json:"clips"`
}

type clipDoc struct {
	Name    string `json:"name"`
	AssetID string `json:"asset_id"`
	StartMS int64  `json:"start_ms"`
	LenMS   int64  `json:"length_ms"`
}

// Load implements Formatter.
func (JSONFormatter) Load(ctx context.Context, uri string, tl *timeline.Timeline) error {
	path, err := fileutil.PathFromURI(uri)
	if err != nil {
		return err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read project file: %w", err)
	}
	var doc timelineDoc
	if err := json.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("parse project file: %w", err)
	}
	for _, layer := range doc.Layers {
		target := tl.AppendLayer()
		for _, clip := range layer.Clips {
			target.AddClip(clip.Name, clip.AssetID,
				time.Duration(clip.StartMS)*time.Millisecond,
				time.Duration(clip.LenMS)*time.Millisecond)
		}
	}
	return nil
}

// Save implements Formatter. Without overwrite an existing file is refused.
func (JSONFormatter) Save(ctx context.Context, tl *timeline.Timeline, uri string, overwrite bool) error {
	path, err := fileutil.PathFromURI(uri)
	if err != nil {
		return err
	}
	if !overwrite && fileutil.Exists(path) {
		return fmt.Errorf("%s already exists", path)
	}

	doc := timelineDoc{}
	for _, layer := range tl.Layers() {
		out := layerDoc{Priority: layer.Priority, Clips: make([]clipDoc, 0, len(layer.Clips))}
		for _, clip := range layer.Clips {
			out.Clips = append(out.Clips, clipDoc{
				Name:    clip.Name,
				AssetID: clip.AssetID,
				StartMS: clip.Start.Milliseconds(),
				LenMS:   clip.Length.Milliseconds(),
			})
		}
		doc.Layers = append(doc.Layers, out)
	}

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("encode project: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create project directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write project file: %w", err)
	}
	return nil
}

var _ Formatter = JSONFormatter{}
