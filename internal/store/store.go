package store

import (
	"time"

	"github.com/jpalmerr/feedbackwidget/internal/widget"
)

// Event is one submission attempt as published on the diagnostic feed.
//
// Event is the storage representation of a widget.Attempt, shaped for JSON
// (REST API and SSE).
type Event struct {
	// ID is the correlation ID of the attempt.
	ID string `json:"id"`

	// WidgetID is the instance that submitted.
	WidgetID string `json:"widget_id"`

	// ProjectID is the host-supplied project, empty when none was given.
	ProjectID string `json:"project_id"`

	// Outcome is "submitted", "rejected" or "failed".
	Outcome string `json:"outcome"`

	// StatusCode is the collector's HTTP status, 0 on transport failure.
	StatusCode int `json:"status_code"`

	// LatencyMs is the request latency in milliseconds.
	LatencyMs int64 `json:"latency_ms"`

	// Error holds the failure message; nil on success.
	Error *string `json:"error"`

	// At is when the attempt started.
	At time.Time `json:"at"`
}

// Store keeps mounted widgets and the diagnostic feed.
//
// Implementations must be safe for concurrent access.
type Store interface {
	// Put registers a widget under its ID.
	Put(w *widget.Widget)

	// Get returns the widget with the given ID.
	Get(id string) (*widget.Widget, bool)

	// Delete removes a widget. Unknown IDs are ignored.
	Delete(id string)

	// Len returns the number of registered widgets.
	Len() int

	// Publish records an event and fans it out to subscribers.
	Publish(ev Event)

	// Recent returns the retained events, oldest first.
	Recent() []Event

	// Subscribe returns a channel that receives new events.
	// Slow consumers may miss events. Caller must call Unsubscribe when done.
	Subscribe() <-chan Event

	// Unsubscribe removes a subscription and closes the channel.
	// Safe to call with a channel that was already unsubscribed.
	Unsubscribe(ch <-chan Event)
}

// EventFromAttempt converts a widget submission attempt to its feed form.
func EventFromAttempt(a widget.Attempt) Event {
	ev := Event{
		ID:         a.CorrelationID,
		WidgetID:   a.WidgetID,
		ProjectID:  a.ProjectID,
		Outcome:    string(a.Outcome),
		StatusCode: a.StatusCode,
		LatencyMs:  a.Latency.Milliseconds(),
		At:         a.At,
	}
	if a.Error != nil {
		msg := a.Error.Error()
		ev.Error = &msg
	}
	return ev
}
