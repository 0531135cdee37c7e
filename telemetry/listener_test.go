package telemetry

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/AltairaLabs/MediaKit/events"
)

// newTestListener returns a listener, in-memory exporter, and TracerProvider for tests.
func newTestListener(t *testing.T) (*OTelEventListener, *tracetest.InMemoryExporter, *sdktrace.TracerProvider) {
	t.Helper()
	exp := tracetest.NewInMemoryExporter()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exp))
	tracer := tp.Tracer(InstrumentationName)
	listener := NewOTelEventListener(tracer)
	return listener, exp, tp
}

// flushAndGetSpans forces span export and returns spans.
// ForceFlush ensures all ended spans are exported; we read them before Shutdown
// because InMemoryExporter.Shutdown resets the buffer.
func flushAndGetSpans(t *testing.T, tp *sdktrace.TracerProvider, exp *tracetest.InMemoryExporter) tracetest.SpanStubs {
	t.Helper()
	if err := tp.ForceFlush(context.Background()); err != nil {
		t.Fatalf("flush: %v", err)
	}
	spans := exp.GetSpans()
	if err := tp.Shutdown(context.Background()); err != nil {
		t.Fatalf("shutdown: %v", err)
	}
	return spans
}

// findSpan finds a span by name in the stubs or fails.
func findSpan(t *testing.T, spans tracetest.SpanStubs, name string) tracetest.SpanStub {
	t.Helper()
	for _, s := range spans {
		if s.Name == name {
			return s
		}
	}
	t.Fatalf("span %q not found in %d spans", name, len(spans))
	return tracetest.SpanStub{}
}

// hasAttr checks if a span has an attribute with the given key and string value.
func hasAttr(span tracetest.SpanStub, key, want string) bool {
	for _, a := range span.Attributes {
		if string(a.Key) == key && a.Value.AsString() == want {
			return true
		}
	}
	return false
}

// hasIntAttr checks if a span has an attribute with the given key and int value.
func hasIntAttr(span tracetest.SpanStub, key string, want int64) bool {
	for _, a := range span.Attributes {
		if string(a.Key) == key && a.Value.AsInt64() == want {
			return true
		}
	}
	return false
}

func TestOTelEventListener_RegisteredSpan(t *testing.T) {
	listener, exp, tp := newTestListener(t)

	listener.OnEvent(&events.Event{
		Type: events.EventMediaRegistered, Timestamp: time.Now(),
		MediaID: "media-1",
		Data:    events.MediaRegisteredData{Origin: "bytes", Category: "image", Format: "png", Size: 512},
	})

	spans := flushAndGetSpans(t, tp, exp)
	s := findSpan(t, spans, "mediakit.register")
	if s.Status.Code != codes.Ok {
		t.Errorf("expected Ok status, got %v", s.Status.Code)
	}
	if !hasAttr(s, "media.id", "media-1") {
		t.Error("expected media.id attribute")
	}
	if !hasAttr(s, "media.origin", "bytes") {
		t.Error("expected media.origin attribute")
	}
	if !hasIntAttr(s, "media.size_bytes", 512) {
		t.Error("expected media.size_bytes attribute")
	}
}

func TestOTelEventListener_MaterializeSpanBackdated(t *testing.T) {
	listener, exp, tp := newTestListener(t)
	now := time.Now()

	listener.OnEvent(&events.Event{
		Type: events.EventMediaMaterialized, Timestamp: now,
		MediaID: "media-1",
		Data: events.MediaMaterializedData{
			Origin: "url", Category: "image", Format: "jpg",
			Size: 2048, Duration: 2 * time.Second,
		},
	})

	spans := flushAndGetSpans(t, tp, exp)
	s := findSpan(t, spans, "mediakit.materialize")
	if s.Status.Code != codes.Ok {
		t.Errorf("expected Ok status, got %v", s.Status.Code)
	}
	if got := s.EndTime.Sub(s.StartTime); got != 2*time.Second {
		t.Errorf("span length = %v, want 2s", got)
	}
	if !s.EndTime.Equal(now) {
		t.Errorf("span end = %v, want event timestamp %v", s.EndTime, now)
	}
}

func TestOTelEventListener_MaterializeFailedSpan(t *testing.T) {
	listener, exp, tp := newTestListener(t)

	listener.OnEvent(&events.Event{
		Type: events.EventMediaMaterializeFailed, Timestamp: time.Now(),
		MediaID: "media-1",
		Data: events.MediaMaterializeFailedData{
			Origin: "url", Error: errors.New("connection refused"), Duration: time.Second,
		},
	})

	spans := flushAndGetSpans(t, tp, exp)
	s := findSpan(t, spans, "mediakit.materialize")
	if s.Status.Code != codes.Error {
		t.Errorf("expected Error status, got %v", s.Status.Code)
	}
	if s.Status.Description != "connection refused" {
		t.Errorf("status description = %q", s.Status.Description)
	}
}

func TestOTelEventListener_DeletedSpan(t *testing.T) {
	listener, exp, tp := newTestListener(t)

	listener.OnEvent(&events.Event{
		Type: events.EventMediaDeleted, Timestamp: time.Now(),
		MediaID: "media-1",
		Data: events.MediaDeletedData{
			Category: "image", Format: "png", Size: 512, Reason: events.DeleteReasonSweep,
		},
	})

	spans := flushAndGetSpans(t, tp, exp)
	s := findSpan(t, spans, "mediakit.delete")
	if !hasAttr(s, "media.delete.reason", events.DeleteReasonSweep) {
		t.Error("expected media.delete.reason attribute")
	}
}

func TestOTelEventListener_ReferenceSpans(t *testing.T) {
	listener, exp, tp := newTestListener(t)

	listener.OnEvent(&events.Event{
		Type: events.EventReferenceAdded, Timestamp: time.Now(),
		MediaID: "media-1",
		Data:    events.ReferenceEventData{ReferenceID: "msg-1", Count: 1},
	})
	listener.OnEvent(&events.Event{
		Type: events.EventReferenceRemoved, Timestamp: time.Now(),
		MediaID: "media-1",
		Data:    events.ReferenceEventData{ReferenceID: "msg-1", Count: 0},
	})

	spans := flushAndGetSpans(t, tp, exp)
	added := findSpan(t, spans, "mediakit.reference.add")
	if !hasAttr(added, "media.reference.id", "msg-1") {
		t.Error("expected media.reference.id attribute")
	}
	if !hasIntAttr(added, "media.reference.count", 1) {
		t.Error("expected media.reference.count 1")
	}
	removed := findSpan(t, spans, "mediakit.reference.remove")
	if !hasIntAttr(removed, "media.reference.count", 0) {
		t.Error("expected media.reference.count 0")
	}
}

func TestOTelEventListener_MetadataUpdatedSpan(t *testing.T) {
	listener, exp, tp := newTestListener(t)

	listener.OnEvent(&events.Event{
		Type: events.EventMediaMetadataUpdated, Timestamp: time.Now(),
		MediaID: "media-1",
		Data:    events.MediaMetadataUpdatedData{Fields: []string{"description", "tags"}},
	})

	spans := flushAndGetSpans(t, tp, exp)
	s := findSpan(t, spans, "mediakit.metadata_update")
	found := false
	for _, a := range s.Attributes {
		if string(a.Key) == "media.updated_fields" {
			found = true
		}
	}
	if !found {
		t.Error("expected media.updated_fields attribute")
	}
}

func TestOTelEventListener_CleanupSpanBackdated(t *testing.T) {
	listener, exp, tp := newTestListener(t)
	now := time.Now()

	listener.OnEvent(&events.Event{
		Type: events.EventCleanupCompleted, Timestamp: now,
		Data: events.CleanupCompletedData{Removed: 3, Duration: 500 * time.Millisecond},
	})

	spans := flushAndGetSpans(t, tp, exp)
	s := findSpan(t, spans, "mediakit.cleanup")
	if !hasIntAttr(s, "media.cleanup.removed", 3) {
		t.Error("expected media.cleanup.removed attribute")
	}
	if got := s.EndTime.Sub(s.StartTime); got != 500*time.Millisecond {
		t.Errorf("span length = %v, want 500ms", got)
	}
	// Sweeps are store-wide; no media.id attribute should be present.
	for _, a := range s.Attributes {
		if string(a.Key) == "media.id" {
			t.Error("unexpected media.id attribute on cleanup span")
		}
	}
}

func TestOTelEventListener_PointerPayload(t *testing.T) {
	listener, exp, tp := newTestListener(t)

	listener.OnEvent(&events.Event{
		Type: events.EventMediaRegistered, Timestamp: time.Now(),
		MediaID: "media-1",
		Data:    &events.MediaRegisteredData{Origin: "path"},
	})

	spans := flushAndGetSpans(t, tp, exp)
	s := findSpan(t, spans, "mediakit.register")
	if !hasAttr(s, "media.origin", "path") {
		t.Error("expected media.origin attribute from pointer payload")
	}
}

func TestOTelEventListener_NilDataProducesNoSpan(t *testing.T) {
	listener, exp, tp := newTestListener(t)

	listener.OnEvent(&events.Event{
		Type: events.EventMediaMaterialized, Timestamp: time.Now(),
		MediaID: "media-1",
	})

	spans := flushAndGetSpans(t, tp, exp)
	if len(spans) != 0 {
		t.Errorf("expected no spans for nil payload, got %d", len(spans))
	}
}

func TestOTelEventListener_ZeroTimestamp(t *testing.T) {
	listener, exp, tp := newTestListener(t)

	listener.OnEvent(&events.Event{
		Type:    events.EventMediaDeleted,
		MediaID: "media-1",
		Data:    events.MediaDeletedData{Reason: events.DeleteReasonExplicit},
	})

	spans := flushAndGetSpans(t, tp, exp)
	s := findSpan(t, spans, "mediakit.delete")
	if s.StartTime.IsZero() || s.EndTime.IsZero() {
		t.Error("expected wall-clock times for events without a timestamp")
	}
}
