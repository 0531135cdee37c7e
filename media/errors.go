package media

import "errors"

// Sentinel errors returned by the store. Operations wrap these so callers
// can classify failures with errors.Is without parsing messages.
var (
	// ErrInvalidArgument marks malformed caller input: empty IDs, missing
	// origins, empty payloads, nonexistent source paths.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrNotFound marks an unknown media ID.
	ErrNotFound = errors.New("media not found")

	// ErrUnavailable marks content that cannot be produced right now, such
	// as a failed download or a source file that has disappeared. The entry
	// itself survives and a later attempt may succeed.
	ErrUnavailable = errors.New("media content unavailable")

	// ErrCorruptState marks on-disk metadata that can no longer be trusted.
	ErrCorruptState = errors.New("corrupt media state")
)
