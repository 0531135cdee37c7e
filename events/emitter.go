package events

import "time"

// Emitter provides helpers for publishing media lifecycle events.
// A nil Emitter (or one without a bus) silently drops every event, so the
// store can emit unconditionally.
type Emitter struct {
	bus *EventBus
}

// NewEmitter creates a new event emitter.
func NewEmitter(bus *EventBus) *Emitter {
	return &Emitter{bus: bus}
}

// emit publishes an event stamped with the current time.
func (e *Emitter) emit(eventType EventType, mediaID string, data EventData) {
	if e == nil || e.bus == nil {
		return
	}

	e.bus.Publish(&Event{
		Type:      eventType,
		Timestamp: time.Now(),
		MediaID:   mediaID,
		Data:      data,
	})
}

// Registered emits the media.registered event.
func (e *Emitter) Registered(mediaID, origin, category, format string, size int64) {
	e.emit(EventMediaRegistered, mediaID, MediaRegisteredData{
		Origin:   origin,
		Category: category,
		Format:   format,
		Size:     size,
	})
}

// Materialized emits the media.materialized event.
func (e *Emitter) Materialized(mediaID, origin, category, format string, size int64, duration time.Duration) {
	e.emit(EventMediaMaterialized, mediaID, MediaMaterializedData{
		Origin:   origin,
		Category: category,
		Format:   format,
		Size:     size,
		Duration: duration,
	})
}

// MaterializeFailed emits the media.materialize_failed event.
func (e *Emitter) MaterializeFailed(mediaID, origin string, err error, duration time.Duration) {
	e.emit(EventMediaMaterializeFailed, mediaID, MediaMaterializeFailedData{
		Origin:   origin,
		Error:    err,
		Duration: duration,
	})
}

// Deleted emits the media.deleted event.
func (e *Emitter) Deleted(mediaID, category, format string, size int64, reason string) {
	e.emit(EventMediaDeleted, mediaID, MediaDeletedData{
		Category: category,
		Format:   format,
		Size:     size,
		Reason:   reason,
	})
}

// MetadataUpdated emits the media.metadata.updated event.
func (e *Emitter) MetadataUpdated(mediaID string, fields ...string) {
	e.emit(EventMediaMetadataUpdated, mediaID, MediaMetadataUpdatedData{
		Fields: fields,
	})
}

// ReferenceAdded emits the media.reference.added event.
func (e *Emitter) ReferenceAdded(mediaID, referenceID string, count int) {
	e.emit(EventReferenceAdded, mediaID, ReferenceEventData{
		ReferenceID: referenceID,
		Count:       count,
	})
}

// ReferenceRemoved emits the media.reference.removed event.
func (e *Emitter) ReferenceRemoved(mediaID, referenceID string, count int) {
	e.emit(EventReferenceRemoved, mediaID, ReferenceEventData{
		ReferenceID: referenceID,
		Count:       count,
	})
}

// CleanupCompleted emits the media.cleanup.completed event.
func (e *Emitter) CleanupCompleted(removed int, duration time.Duration) {
	e.emit(EventCleanupCompleted, "", CleanupCompletedData{
		Removed:  removed,
		Duration: duration,
	})
}
