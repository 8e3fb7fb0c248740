package folders

import "errors"

// Validation errors surfaced to the submitter of a config change request.
// None of these are retried automatically; the caller must resubmit a
// corrected request.
var (
	ErrDuplicatePath      = errors.New("path already registered or conflicts with an existing root")
	ErrInvalidParent      = errors.New("parent directory not found or not a whitelist root")
	ErrNotSubpath         = errors.New("path is not under the parent directory")
	ErrAlreadyBlacklisted = errors.New("path is already covered by a blacklist entry")
	ErrProtectedFolder    = errors.New("common folders cannot be deleted")
	ErrNotFound           = errors.New("directory not found")
)
