// Package asset defines resolved asset handles and the registry that tracks
// every identifier a project references.
//
// The registry partitions identifiers into three mutually exclusive states:
// loading (a resolution is in flight), loaded (a usable handle exists), and
// failed (resolution and relocation were exhausted). At most one resolution
// is ever in flight per identifier; duplicate requests are refused while the
// first is pending.
package asset
