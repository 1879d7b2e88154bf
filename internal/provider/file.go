package provider

import (
	"context"
	"fmt"
	"os"

	"montage/internal/asset"
	"montage/internal/faults"
	"montage/internal/fileutil"
)

// File resolves file-backed identifiers by probing the filesystem. It is the
// default provider for clip sources.
type File struct{}

// NewFile constructs a filesystem provider.
func NewFile() *File { return &File{} }

// Request resolves id by checking the underlying file exists and is regular.
func (f *File) Request(ctx context.Context, id string, kind asset.Kind) <-chan Result {
	out := make(chan Result, 1)
	go func() {
		defer close(out)
		select {
		case <-ctx.Done():
			out <- Result{Err: ctx.Err()}
			return
		default:
		}
		path, err := fileutil.PathFromURI(id)
		if err != nil {
			out <- Result{Err: faults.Wrap(faults.ErrResolution, "provider", "request", "invalid identifier", err)}
			return
		}
		info, err := os.Stat(path)
		if err != nil {
			out <- Result{Err: faults.Wrap(faults.ErrResolution, "provider", "request", "probe source", err)}
			return
		}
		if info.IsDir() {
			out <- Result{Err: faults.Wrap(faults.ErrResolution, "provider", "request",
				fmt.Sprintf("%s is a directory", path), nil)}
			return
		}
		h := asset.New(id, kind)
		h.SetLocal(path)
		out <- Result{Handle: h}
	}()
	return out
}

var _ Provider = (*File)(nil)
