package logging

const (
	// FieldComponent is the standardized structured logging key for component names.
	FieldComponent = "component"
	// FieldAssetID is the standardized structured logging key for asset identifiers.
	FieldAssetID = "asset_id"
	// FieldAssetKind is the standardized structured logging key for asset kinds.
	FieldAssetKind = "asset_kind"
	// FieldJobID is the standardized structured logging key for proxy job identifiers.
	FieldJobID = "job_id"
	// FieldQueueState is the standardized structured logging key for the proxy queue state.
	FieldQueueState = "queue_state"
	// FieldProfile is the standardized structured logging key for encoding profile names.
	FieldProfile = "profile"
	// FieldProjectID is the standardized structured logging key for project identifiers.
	FieldProjectID = "project_id"
	// FieldEventType is the standardized structured logging key for event classification.
	FieldEventType = "event_type"
	// FieldErrorHint is the standardized structured logging key for operator guidance.
	FieldErrorHint = "error_hint"
)
