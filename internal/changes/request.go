package changes

import "scout/internal/folders"

// Kind tags the six structural mutation variants.
type Kind string

const (
	KindAddWhitelist      Kind = "add-whitelist"
	KindDeleteWhitelist   Kind = "delete-whitelist"
	KindAddBlacklist      Kind = "add-blacklist"
	KindDeleteBlacklist   Kind = "delete-blacklist"
	KindCommonToBlacklist Kind = "common-to-blacklist"
	KindCommonToWhitelist Kind = "common-to-whitelist"
)

// surfaceRemoving lists the kinds that take a path out of the trusted or
// watched surface and therefore trigger an index cleanup for that path.
var surfaceRemoving = map[Kind]struct{}{
	KindCommonToBlacklist: {},
	KindDeleteWhitelist:   {},
	KindAddBlacklist:      {},
	KindDeleteBlacklist:   {},
}

// Request is one pending structural mutation. Each carries only the fields
// its kind needs. A request is applied exactly once and then discarded,
// whether it succeeds or fails validation; failed requests are never
// retried automatically.
type Request struct {
	Kind        Kind
	Path        string
	Alias       string
	DirectoryID string
	ParentID    string

	reply chan Result
}

// Result is the application outcome delivered on the reply channel.
type Result struct {
	Directory *folders.Directory
	Removed   []*folders.Directory
	Err       error
}

// Status summarizes queue state for the boundary.
type Status struct {
	QueueLength int    `json:"queue_length"`
	Processing  bool   `json:"processing"`
	LastError   string `json:"last_error,omitempty"`
}
