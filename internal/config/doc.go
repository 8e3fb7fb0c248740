// Package config loads, normalizes, and validates scout's TOML
// configuration. Paths support ~ expansion and are resolved to absolute
// form before any other package sees them.
package config
