package proxy

import (
	"path/filepath"

	"montage/internal/fileutil"
)

// proxySuffix distinguishes proxy outputs from their sources.
const proxySuffix = ".proxy"

// partSuffix marks an in-progress output file.
const partSuffix = ".part"

// OutputID derives the proxy identifier for a source. With no location
// override the proxy sits next to its source; otherwise it keeps the source's
// basename but lives under the override directory.
func OutputID(sourceID, location string) string {
	if location == "" {
		return sourceID + proxySuffix
	}
	path, err := fileutil.PathFromURI(sourceID)
	if err != nil {
		return sourceID + proxySuffix
	}
	return fileutil.URIFromPath(filepath.Join(location, filepath.Base(path)+proxySuffix))
}

// WorkingPath returns the filesystem path the engine writes to before the
// final rename.
func WorkingPath(outputID string) (string, error) {
	path, err := fileutil.PathFromURI(outputID)
	if err != nil {
		return "", err
	}
	return path + partSuffix, nil
}

// SourceID recovers the source identifier a default-named proxy was derived
// from. It returns "" when the identifier does not carry the proxy suffix.
func SourceID(proxyID string) string {
	if len(proxyID) <= len(proxySuffix) || proxyID[len(proxyID)-len(proxySuffix):] != proxySuffix {
		return ""
	}
	return proxyID[:len(proxyID)-len(proxySuffix)]
}
