// Package watcher coalesces raw filesystem events into per-root debounced
// notifications. Each watched root runs an independent state machine: the
// first raw event arms a timer, further events reset it, and when the quiet
// period elapses one notification carrying the union of changed subpaths is
// emitted. Reconfiguration applies the symmetric difference against the
// current root set and never disturbs the in-flight debounce state of roots
// present in both the old and new sets.
package watcher
