// Package logs reads the daemon log file with bounded memory usage.
//
// A negative offset means "the last N lines"; a non-negative offset reads
// forward from that byte position, which lets the CLI poll for new lines in
// follow mode without re-reading the whole file. Callers supply context
// deadlines so polling stops cleanly when the CLI exits.
package logs
