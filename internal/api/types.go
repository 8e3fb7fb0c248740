package api

// dateTimeFormat is used for RFC3339 timestamps in API payloads.
const dateTimeFormat = "2006-01-02T15:04:05.000Z07:00"

// Folder describes a registered directory in a transport-friendly format.
type Folder struct {
	ID             string `json:"id"`
	Path           string `json:"path"`
	Alias          string `json:"alias,omitempty"`
	AuthStatus     string `json:"authStatus"`
	IsBlacklist    bool   `json:"isBlacklist"`
	ParentID       string `json:"parentId,omitempty"`
	IsCommonFolder bool   `json:"isCommonFolder"`
	CreatedAt      string `json:"createdAt,omitempty"`
	UpdatedAt      string `json:"updatedAt,omitempty"`
}

// FolderGroup pairs a top-level folder with its blacklist children.
type FolderGroup struct {
	Folder    Folder   `json:"folder"`
	Blacklist []Folder `json:"blacklist,omitempty"`
}

// HierarchyResponse wraps the two-level registry view.
type HierarchyResponse struct {
	Folders []FolderGroup `json:"folders"`
}

// FolderResponse wraps a single folder.
type FolderResponse struct {
	Folder Folder `json:"folder"`
}

// MutationResponse reports the outcome of an applied config change.
type MutationResponse struct {
	Folder  *Folder  `json:"folder,omitempty"`
	Removed []Folder `json:"removed,omitempty"`
}

// AddFolderRequest registers a new whitelist root.
type AddFolderRequest struct {
	Path  string `json:"path"`
	Alias string `json:"alias,omitempty"`
}

// AddBlacklistRequest registers a blacklist entry under an existing root.
type AddBlacklistRequest struct {
	Path  string `json:"path"`
	Alias string `json:"alias,omitempty"`
}

// ToggleRequest flips a top-level folder between whitelist and blacklist.
type ToggleRequest struct {
	Blacklist bool `json:"blacklist"`
}

// CleanupRequest asks for removal of indexed content under a path prefix.
type CleanupRequest struct {
	Path string `json:"path"`
}

// CleanupResponse reports how many index records a cleanup removed.
type CleanupResponse struct {
	Deleted int64 `json:"deleted"`
}

// QueueStatus summarizes the config change queue.
type QueueStatus struct {
	QueueLength int    `json:"queueLength"`
	Processing  bool   `json:"processing"`
	LastError   string `json:"lastError,omitempty"`
}

// PermissionStatus reports the cached blanket permission state.
type PermissionStatus struct {
	Granted bool `json:"granted"`
}

// MonitoringStatus describes the live watcher state.
type MonitoringStatus struct {
	WatchedRoots  []string          `json:"watchedRoots"`
	DegradedRoots map[string]string `json:"degradedRoots,omitempty"`
}

// DatabaseHealth mirrors registry database diagnostics.
type DatabaseHealth struct {
	Healthy bool   `json:"healthy"`
	Detail  string `json:"detail,omitempty"`
}

// DaemonStatus aggregates daemon runtime information for API consumers.
type DaemonStatus struct {
	Running        bool             `json:"running"`
	PID            int              `json:"pid"`
	RegistryDBPath string           `json:"registryDbPath"`
	IndexDBPath    string           `json:"indexDbPath"`
	LockFilePath   string           `json:"lockFilePath"`
	Permission     PermissionStatus `json:"permission"`
	Monitoring     MonitoringStatus `json:"monitoring"`
	Queue          QueueStatus      `json:"queue"`
	Database       DatabaseHealth   `json:"database"`
}

// NotifyTestResponse reports the outcome of a test notification.
type NotifyTestResponse struct {
	Sent    bool   `json:"sent"`
	Message string `json:"message,omitempty"`
}

// LogsResponse carries a chunk of the daemon log plus the offset to resume
// from on the next request.
type LogsResponse struct {
	Lines  []string `json:"lines"`
	Offset int64    `json:"offset"`
}

// ErrorResponse is the uniform error payload.
type ErrorResponse struct {
	Error string `json:"error"`
}
