package telemetry

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/AltairaLabs/MediaKit/events"
)

// OTelEventListener converts media lifecycle events into OTel spans in real
// time. Every event is a completed fact by the time it reaches the bus, so
// each one becomes a finished span: events that carry a duration (downloads,
// sweeps) are backdated so the span covers the real interval, while the rest
// become zero-length marks at the event timestamp.
// It is safe for concurrent use and can be passed to EventBus.SubscribeAll.
type OTelEventListener struct {
	tracer trace.Tracer
}

// NewOTelEventListener creates a listener that creates OTel spans from media events.
func NewOTelEventListener(tracer trace.Tracer) *OTelEventListener {
	return &OTelEventListener{tracer: tracer}
}

// OnEvent handles a single media event and records the corresponding span.
func (l *OTelEventListener) OnEvent(evt *events.Event) {
	switch evt.Type {
	case events.EventMediaRegistered:
		l.handleRegistered(evt)
	case events.EventMediaMaterialized:
		l.handleMaterialized(evt)
	case events.EventMediaMaterializeFailed:
		l.handleMaterializeFailed(evt)
	case events.EventMediaDeleted:
		l.handleDeleted(evt)
	case events.EventMediaMetadataUpdated:
		l.handleMetadataUpdated(evt)
	case events.EventReferenceAdded:
		l.handleReference(evt, "mediakit.reference.add")
	case events.EventReferenceRemoved:
		l.handleReference(evt, "mediakit.reference.remove")
	case events.EventCleanupCompleted:
		l.handleCleanup(evt)
	}
}

// emitSpan records a finished span for a lifecycle fact. The span ends at the
// event timestamp and starts d earlier, so replayed durations keep their true
// extent. A non-empty errMsg marks the span as failed.
func (l *OTelEventListener) emitSpan(
	evt *events.Event, name string, d time.Duration, errMsg string, attrs ...attribute.KeyValue,
) {
	end := evt.Timestamp
	if end.IsZero() {
		end = time.Now()
	}
	if evt.MediaID != "" {
		attrs = append(attrs, attribute.String("media.id", evt.MediaID))
	}
	_, span := l.tracer.Start(context.Background(), name,
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithTimestamp(end.Add(-d)),
		trace.WithAttributes(attrs...),
	)
	if errMsg != "" {
		span.SetStatus(codes.Error, errMsg)
	} else {
		span.SetStatus(codes.Ok, "")
	}
	span.End(trace.WithTimestamp(end))
}

// asPtr extracts event data as a pointer, handling both value and pointer types.
// The emitter may pass either T or *T depending on the event.
func asPtr[T any](data any) (*T, bool) {
	if p, ok := data.(*T); ok {
		return p, true
	}
	if v, ok := data.(T); ok {
		return &v, true
	}
	return nil, false
}

func (l *OTelEventListener) handleRegistered(evt *events.Event) {
	data, ok := asPtr[events.MediaRegisteredData](evt.Data)
	if !ok {
		return
	}
	l.emitSpan(evt, "mediakit.register", 0, "",
		attribute.String("media.origin", data.Origin),
		attribute.String("media.category", data.Category),
		attribute.String("media.format", data.Format),
		attribute.Int64("media.size_bytes", data.Size),
	)
}

func (l *OTelEventListener) handleMaterialized(evt *events.Event) {
	data, ok := asPtr[events.MediaMaterializedData](evt.Data)
	if !ok {
		return
	}
	l.emitSpan(evt, "mediakit.materialize", data.Duration, "",
		attribute.String("media.origin", data.Origin),
		attribute.String("media.category", data.Category),
		attribute.String("media.format", data.Format),
		attribute.Int64("media.size_bytes", data.Size),
	)
}

func (l *OTelEventListener) handleMaterializeFailed(evt *events.Event) {
	data, ok := asPtr[events.MediaMaterializeFailedData](evt.Data)
	if !ok {
		return
	}
	errMsg := "materialize failed"
	if data.Error != nil {
		errMsg = data.Error.Error()
	}
	l.emitSpan(evt, "mediakit.materialize", data.Duration, errMsg,
		attribute.String("media.origin", data.Origin),
	)
}

func (l *OTelEventListener) handleDeleted(evt *events.Event) {
	data, ok := asPtr[events.MediaDeletedData](evt.Data)
	if !ok {
		return
	}
	l.emitSpan(evt, "mediakit.delete", 0, "",
		attribute.String("media.category", data.Category),
		attribute.String("media.format", data.Format),
		attribute.Int64("media.size_bytes", data.Size),
		attribute.String("media.delete.reason", data.Reason),
	)
}

func (l *OTelEventListener) handleMetadataUpdated(evt *events.Event) {
	data, ok := asPtr[events.MediaMetadataUpdatedData](evt.Data)
	if !ok {
		return
	}
	l.emitSpan(evt, "mediakit.metadata_update", 0, "",
		attribute.StringSlice("media.updated_fields", data.Fields),
	)
}

func (l *OTelEventListener) handleReference(evt *events.Event, name string) {
	data, ok := asPtr[events.ReferenceEventData](evt.Data)
	if !ok {
		return
	}
	l.emitSpan(evt, name, 0, "",
		attribute.String("media.reference.id", data.ReferenceID),
		attribute.Int("media.reference.count", data.Count),
	)
}

func (l *OTelEventListener) handleCleanup(evt *events.Event) {
	data, ok := asPtr[events.CleanupCompletedData](evt.Data)
	if !ok {
		return
	}
	l.emitSpan(evt, "mediakit.cleanup", data.Duration, "",
		attribute.Int("media.cleanup.removed", data.Removed),
	)
}
