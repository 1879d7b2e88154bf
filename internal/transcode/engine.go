package transcode

import "context"

// EventType discriminates engine events.
type EventType int

const (
	// EventProgress carries a completion percentage.
	EventProgress EventType = iota
	// EventEOS signals the encode finished and the output is complete.
	EventEOS
	// EventError signals the encode failed; Err carries the cause.
	EventError
)

func (t EventType) String() string {
	switch t {
	case EventProgress:
		return "progress"
	case EventEOS:
		return "eos"
	case EventError:
		return "error"
	default:
		return "unknown"
	}
}

// Event is one notification from a running encode.
type Event struct {
	Type    EventType
	Percent float64
	Message string
	Err     error
}

// Handle controls one running encode. Close releases resources and is safe
// after the event channel has drained.
type Handle interface {
	// Events yields progress, then exactly one of EventEOS or EventError,
	// then closes.
	Events() <-chan Event
	// Pause suspends the encode without discarding partial output.
	Pause() error
	// Resume continues a paused encode.
	Resume() error
	// Close tears the encode down. Partial output is left on disk for the
	// caller to discard.
	Close() error
}

// Engine starts encodes. sourceID and outputID are identifiers in the
// project's namespace; file-backed engines convert them to paths.
type Engine interface {
	Start(ctx context.Context, sourceID, outputID string, profile Profile) (Handle, error)
}
