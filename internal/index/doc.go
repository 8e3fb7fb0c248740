// Package index persists derived content records keyed by file path and
// provides the prefix cleanup used when paths leave the monitored surface.
// What the records contain is decided downstream; this package only
// guarantees that rows under a removed path can be purged idempotently.
package index
