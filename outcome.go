package feedbackwidget

import "time"

// Outcome classifies a submission that reached the network.
type Outcome string

const (
	// OutcomeSubmitted indicates the collector answered with a 2xx status.
	OutcomeSubmitted Outcome = "submitted"

	// OutcomeRejected indicates the collector answered with a non-2xx status.
	OutcomeRejected Outcome = "rejected"

	// OutcomeFailed indicates the request never got a response.
	OutcomeFailed Outcome = "failed"
)

// String returns the string representation of the outcome.
func (o Outcome) String() string {
	return string(o)
}

// SubmitResult describes one submission attempt.
//
// SubmitResult is passed to callbacks registered with [WithSubmitCallback]
// and returned by [Service.SendFeedback]. Attempts blocked by validation
// never produce one.
type SubmitResult struct {
	// CorrelationID identifies the attempt in logs and the diagnostic feed.
	CorrelationID string

	// WidgetID is the instance that submitted.
	WidgetID string

	// ProjectID is the project-id attribute of the host element, if any.
	ProjectID string

	// Outcome is the classification of the attempt.
	Outcome Outcome

	// StatusCode is the collector's HTTP status code.
	// Zero if the request failed before receiving a response.
	StatusCode int

	// Latency is the time taken by the request.
	Latency time.Duration

	// At is when the attempt started.
	At time.Time

	// Error is nil for OutcomeSubmitted, otherwise the failure.
	Error error
}
