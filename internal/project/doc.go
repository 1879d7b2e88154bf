// Package project ties the asset registry, proxy machinery, and timeline
// binding together into one editing project.
//
// Asset resolution is asynchronous: CreateAsset returns once the request is
// accepted and the outcome arrives through events. When a resolution fails
// the project runs the relocation protocol, consulting the provider and the
// registered missing-URI handlers for a replacement identifier before
// declaring the failure terminal. Proxy generation runs through a sequential
// job queue whose completions feed back into the registry, the catalog, the
// ledger, and any bound timelines.
package project
