package folders

import "time"

// AuthStatus tracks per-directory OS authorization state.
type AuthStatus string

const (
	AuthPending      AuthStatus = "pending"
	AuthAuthorized   AuthStatus = "authorized"
	AuthUnauthorized AuthStatus = "unauthorized"
)

// Directory is one persisted registry entry.
type Directory struct {
	ID             string
	Path           string
	Alias          string
	AuthStatus     AuthStatus
	IsBlacklist    bool
	ParentID       string
	IsCommonFolder bool
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// HierarchyEntry pairs a top-level directory with its direct blacklist
// children, both in creation order.
type HierarchyEntry struct {
	Folder    *Directory
	Blacklist []*Directory
}

// Hierarchy is the read-only projection of the registry. It is recomputed on
// demand and never stored.
type Hierarchy struct {
	Entries []HierarchyEntry
}
