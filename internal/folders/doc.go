// Package folders persists the hierarchical whitelist/blacklist directory
// registry backed by SQLite. Whitelist entries are monitoring roots;
// blacklist entries are subpaths excluded from their parent root. Common
// folders are pre-seeded and protected from hard deletion.
//
// The store performs no filesystem or watcher work. All mutations are
// expected to arrive through the change queue's single consumer.
package folders
