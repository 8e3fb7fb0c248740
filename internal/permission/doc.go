// Package permission caches the OS blanket access grant and runs the
// bounded post-request poll that detects a grant after the consent flow.
// When the gate reports granted, every registered directory is implicitly
// authorized regardless of its individual status.
package permission
