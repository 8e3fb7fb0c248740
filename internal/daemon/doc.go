// Package daemon wires the folder registry, change queue, permission gate,
// watcher, and monitoring coordinator into one long-running process guarded
// by a lock file, and exposes them over a localhost HTTP API.
//
// Structural mutations always travel through the change queue; the HTTP
// handlers enqueue a request and wait for its outcome, so validation errors
// surface synchronously to the caller while application stays serialized.
package daemon
