// Package proxy manages proxy generation for a project's clip sources: the
// catalog of encoding profiles and completed proxies, the deterministic
// output naming scheme, and the sequential job queue that drives the
// transcode engine.
//
// Proxies are written to a working file with a ".part" suffix and renamed to
// their final name only when the encode completes, so an interrupted run
// never leaves a final-named file with partial content.
package proxy
