package prometheus

import (
	"github.com/AltairaLabs/MediaKit/events"
)

// Status and operation constants for metric labels.
const (
	statusSuccess = "success"
	statusError   = "error"

	opAdd    = "add"
	opRemove = "remove"
)

// MetricsListener records media lifecycle events as Prometheus metrics.
// It implements the events.Listener signature and should be registered
// with an EventBus using SubscribeAll.
type MetricsListener struct{}

// NewMetricsListener creates a new MetricsListener.
func NewMetricsListener() *MetricsListener {
	return &MetricsListener{}
}

// Handle processes an event and records relevant metrics.
// This method is designed to be used with EventBus.SubscribeAll.
func (l *MetricsListener) Handle(event *events.Event) {
	switch event.Type {
	case events.EventMediaRegistered:
		l.handleRegistered(event)
	case events.EventMediaMaterialized:
		l.handleMaterialized(event)
	case events.EventMediaMaterializeFailed:
		l.handleMaterializeFailed(event)
	case events.EventMediaDeleted:
		l.handleDeleted(event)
	case events.EventReferenceAdded:
		RecordReferenceChange(opAdd)
	case events.EventReferenceRemoved:
		RecordReferenceChange(opRemove)
	case events.EventCleanupCompleted:
		l.handleCleanupCompleted(event)
	default:
		// Metadata updates carry no metrics.
	}
}

func (l *MetricsListener) handleRegistered(event *events.Event) {
	if data, ok := event.Data.(events.MediaRegisteredData); ok {
		RecordRegistration(data.Origin)
	}
}

func (l *MetricsListener) handleMaterialized(event *events.Event) {
	if data, ok := event.Data.(events.MediaMaterializedData); ok {
		RecordMaterialization(data.Origin, statusSuccess, data.Size, data.Duration.Seconds())
	}
}

func (l *MetricsListener) handleMaterializeFailed(event *events.Event) {
	if data, ok := event.Data.(events.MediaMaterializeFailedData); ok {
		RecordMaterialization(data.Origin, statusError, 0, data.Duration.Seconds())
	}
}

func (l *MetricsListener) handleDeleted(event *events.Event) {
	if data, ok := event.Data.(events.MediaDeletedData); ok {
		RecordDeletion(data.Reason)
	}
}

func (l *MetricsListener) handleCleanupCompleted(event *events.Event) {
	if data, ok := event.Data.(events.CleanupCompletedData); ok {
		RecordSweep(data.Removed, data.Duration.Seconds())
	}
}

// Listener returns an events.Listener function that can be registered with
// an EventBus.
func (l *MetricsListener) Listener() events.Listener {
	return l.Handle
}
