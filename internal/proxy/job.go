package proxy

import (
	"github.com/google/uuid"

	"montage/internal/transcode"
)

// Job is one pending or running proxy encode.
type Job struct {
	ID       string
	SourceID string
	OutputID string
	Profile  transcode.Profile

	// Percent is updated by the queue worker; read it through Queue.Jobs.
	Percent float64
}

// NewJob builds a job for a source with a derived output identifier.
func NewJob(sourceID, outputID string, profile transcode.Profile) *Job {
	return &Job{
		ID:       uuid.NewString(),
		SourceID: sourceID,
		OutputID: outputID,
		Profile:  profile,
	}
}
