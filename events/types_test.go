package events

import (
	"testing"
	"time"
)

func TestBaseEventData_EventData(t *testing.T) {
	// Test that baseEventData satisfies EventData interface
	var _ EventData = baseEventData{}

	// Test that it has the marker method
	bed := baseEventData{}
	bed.eventData() // Should not panic
}

func TestEventDataStructs(t *testing.T) {
	// Test that all event data structs satisfy EventData interface
	var _ EventData = &MediaRegisteredData{}
	var _ EventData = &MediaMaterializedData{}
	var _ EventData = &MediaMaterializeFailedData{}
	var _ EventData = &MediaDeletedData{}
	var _ EventData = &MediaMetadataUpdatedData{}
	var _ EventData = &ReferenceEventData{}
	var _ EventData = &CleanupCompletedData{}
}

func TestEvent_Creation(t *testing.T) {
	now := time.Now()
	event := &Event{
		Type:      EventMediaRegistered,
		Timestamp: now,
		MediaID:   "test-media",
		Data: &MediaRegisteredData{
			Origin: "path",
			Size:   42,
		},
	}

	if event.Type != EventMediaRegistered {
		t.Errorf("Event.Type = %v, want %v", event.Type, EventMediaRegistered)
	}
	if event.Timestamp != now {
		t.Errorf("Event.Timestamp = %v, want %v", event.Timestamp, now)
	}
	if event.MediaID != "test-media" {
		t.Errorf("Event.MediaID = %v, want test-media", event.MediaID)
	}

	data, ok := event.Data.(*MediaRegisteredData)
	if !ok {
		t.Fatalf("Event.Data type assertion failed")
	}
	if data.Size != 42 {
		t.Errorf("MediaRegisteredData.Size = %v, want 42", data.Size)
	}
}

func TestEventTypes_Constants(t *testing.T) {
	// Test that event type constants have expected values
	tests := []struct {
		eventType EventType
		expected  string
	}{
		{EventMediaRegistered, "media.registered"},
		{EventMediaMaterialized, "media.materialized"},
		{EventMediaMaterializeFailed, "media.materialize_failed"},
		{EventMediaDeleted, "media.deleted"},
		{EventMediaMetadataUpdated, "media.metadata.updated"},
		{EventReferenceAdded, "media.reference.added"},
		{EventReferenceRemoved, "media.reference.removed"},
		{EventCleanupCompleted, "media.cleanup.completed"},
	}

	for _, tt := range tests {
		t.Run(string(tt.eventType), func(t *testing.T) {
			if string(tt.eventType) != tt.expected {
				t.Errorf("EventType = %v, want %v", tt.eventType, tt.expected)
			}
		})
	}
}
