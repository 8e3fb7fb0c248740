// Package api defines wire-format types and converters for the HTTP API
// layer. It translates internal registry models into transport-friendly DTOs
// that the CLI and the host application can render without coupling to
// internal types.
//
// DTOs use camelCase JSON tags for JavaScript/TypeScript consumers. Internal
// enums (folders.AuthStatus, changes.Kind) are exposed as lowercase strings
// and timestamps use RFC3339 with milliseconds.
package api
