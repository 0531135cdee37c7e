package events

import "time"

// EventType identifies the type of event emitted by the media store.
type EventType string

const (
	// EventMediaRegistered marks a new media entry entering the store.
	EventMediaRegistered EventType = "media.registered"
	// EventMediaMaterialized marks managed file content becoming available on disk.
	EventMediaMaterialized EventType = "media.materialized"
	// EventMediaMaterializeFailed marks a failed attempt to produce managed file content.
	EventMediaMaterializeFailed EventType = "media.materialize_failed"
	// EventMediaDeleted marks removal of a media entry and its managed files.
	EventMediaDeleted EventType = "media.deleted"
	// EventMediaMetadataUpdated marks a mutation of descriptive metadata.
	EventMediaMetadataUpdated EventType = "media.metadata.updated"

	// EventReferenceAdded marks an owner being attached to a media entry.
	EventReferenceAdded EventType = "media.reference.added"
	// EventReferenceRemoved marks an owner being detached from a media entry.
	EventReferenceRemoved EventType = "media.reference.removed"

	// EventCleanupCompleted marks the end of an unreferenced-media sweep.
	EventCleanupCompleted EventType = "media.cleanup.completed"
)

// Reasons recorded on media.deleted events.
const (
	// DeleteReasonUnreferenced means the last reference was removed and the
	// entry was deleted immediately.
	DeleteReasonUnreferenced = "unreferenced"
	// DeleteReasonSweep means a cleanup pass found the entry unreferenced.
	DeleteReasonSweep = "sweep"
	// DeleteReasonExplicit means a caller deleted the entry directly.
	DeleteReasonExplicit = "explicit"
)

// EventData is a marker interface for event payloads.
type EventData interface {
	eventData()
}

// Event represents a media lifecycle event delivered to listeners.
type Event struct {
	Type      EventType
	Timestamp time.Time
	MediaID   string
	Data      EventData
}

// baseEventData provides a shared marker implementation for all event payloads.
type baseEventData struct{}

func (baseEventData) eventData() {}

// MediaRegisteredData contains data for media registration events.
type MediaRegisteredData struct {
	baseEventData
	Origin   string // "url", "path" or "bytes"
	Category string // empty until sniffed
	Format   string // empty until sniffed
	Size     int64  // 0 until known
}

// MediaMaterializedData contains data for successful materialization events.
type MediaMaterializedData struct {
	baseEventData
	Origin   string
	Category string
	Format   string
	Size     int64
	Duration time.Duration
}

// MediaMaterializeFailedData contains data for failed materialization events.
type MediaMaterializeFailedData struct {
	baseEventData
	Origin   string
	Error    error
	Duration time.Duration
}

// MediaDeletedData contains data for media deletion events.
type MediaDeletedData struct {
	baseEventData
	Category string
	Format   string
	Size     int64
	Reason   string // one of the DeleteReason constants
}

// MediaMetadataUpdatedData contains data for metadata mutation events.
type MediaMetadataUpdatedData struct {
	baseEventData
	Fields []string // names of the updated fields, e.g. "description", "tags"
}

// ReferenceEventData is the unified payload for reference lifecycle events
// (added, removed). Count is the reference count after the change.
type ReferenceEventData struct {
	baseEventData
	ReferenceID string
	Count       int
}

// CleanupCompletedData contains data for sweep completion events.
type CleanupCompletedData struct {
	baseEventData
	Removed  int
	Duration time.Duration
}
