package widget

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/jpalmerr/feedbackwidget/internal/submit"
)

// State is the position of a widget in its per-mount lifecycle.
type State int

const (
	// StateClosed: trigger visible, popover not open.
	StateClosed State = iota
	// StateEditing: popover open, form accepting input.
	StateEditing
	// StateSubmitting: a submission is in flight.
	StateSubmitting
	// StateSubmitted: terminal thank-you display.
	StateSubmitted
)

func (s State) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateEditing:
		return "editing"
	case StateSubmitting:
		return "submitting"
	case StateSubmitted:
		return "submitted"
	default:
		return "state(" + strconv.Itoa(int(s)) + ")"
	}
}

var (
	// ErrInvalid is returned by Submit when at least one field fails validation.
	ErrInvalid = errors.New("feedback form has invalid fields")

	// ErrSubmitInFlight is returned by Submit while an earlier submission is
	// still pending and the duplicate guard is on.
	ErrSubmitInFlight = errors.New("feedback submission already in flight")

	// ErrAlreadySubmitted is returned for any edit or submit after the
	// widget reached its terminal state.
	ErrAlreadySubmitted = errors.New("feedback already submitted")

	// ErrUnknownField is returned by SetField for names outside [Fields].
	ErrUnknownField = errors.New("unknown form field")

	// ErrStarOutOfRange is returned by SelectStar for indexes outside 0..4.
	ErrStarOutOfRange = errors.New("star index out of range")
)

// Sender delivers a payload to the feedback collector.
type Sender interface {
	Send(ctx context.Context, p submit.Payload) submit.Response
}

// Outcome classifies a submission attempt that reached the network.
type Outcome string

const (
	OutcomeSubmitted Outcome = "submitted"
	OutcomeRejected  Outcome = "rejected"
	OutcomeFailed    Outcome = "failed"
)

// Attempt describes one submission that reached the network.
type Attempt struct {
	CorrelationID string
	WidgetID      string
	ProjectID     string
	Outcome       Outcome
	StatusCode    int
	Latency       time.Duration
	Error         error
	At            time.Time
}

// Settings are shared by every widget a service mounts.
type Settings struct {
	Sender   Sender
	Renderer *Renderer
	Logger   *slog.Logger

	// DuplicateGuard rejects Submit while another submission is in flight.
	DuplicateGuard bool

	// OnAttempt is called after every submission that reached the network,
	// outside the widget lock. May be nil.
	OnAttempt func(Attempt)
}

// Widget is the per-mount feedback form: trigger, popover, form state and
// submission.
//
// Each Widget owns its state exclusively. All methods are safe for
// concurrent use; mutations are serialized, but the network call of Submit
// runs without holding the lock.
type Widget struct {
	id        string
	projectID string
	mountedAt time.Time
	settings  Settings
	logger    *slog.Logger

	mu            sync.Mutex
	state         State
	values        Values
	errors        FieldErrors
	inFlight      int
	submittedName string
}

// New mounts a widget for the given host configuration. Only the projectId
// key is read; every other key is ignored.
func New(props map[string]string, s Settings) *Widget {
	logger := s.Logger
	if logger == nil {
		logger = slog.Default()
	}
	id := uuid.NewString()
	return &Widget{
		id:        id,
		projectID: props["projectId"],
		mountedAt: time.Now(),
		settings:  s,
		logger:    logger.With("widget_id", id),
		values:    DefaultValues(),
		errors:    FieldErrors{},
	}
}

// ID returns the instance identifier assigned at mount.
func (w *Widget) ID() string {
	return w.id
}

// ProjectID returns the projectId taken from the host configuration.
func (w *Widget) ProjectID() string {
	return w.projectID
}

// MountedAt returns when the widget was created.
func (w *Widget) MountedAt() time.Time {
	return w.mountedAt
}

// Snapshot is a point-in-time copy of the widget's form state.
type Snapshot struct {
	ID            string
	State         State
	Values        Values
	Errors        FieldErrors
	SubmittedName string
}

// Snapshot returns a copy of the current state.
func (w *Widget) Snapshot() Snapshot {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.snapshotLocked()
}

func (w *Widget) snapshotLocked() Snapshot {
	errs := make(FieldErrors, len(w.errors))
	for k, v := range w.errors {
		errs[k] = v
	}
	return Snapshot{
		ID:            w.id,
		State:         w.state,
		Values:        w.values,
		Errors:        errs,
		SubmittedName: w.submittedName,
	}
}

// Open records that the popover was opened. Closed moves to Editing; any
// other state is kept.
func (w *Widget) Open() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.state == StateClosed {
		w.state = StateEditing
	}
}

// Close records that the popover was dismissed. Entered values are retained.
func (w *Widget) Close() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.state == StateEditing {
		w.state = StateClosed
	}
}

// SetField applies one edit and re-validates only that field.
//
// Feedback is truncated to [MaxCharacters] the way the input control caps
// typing. Rating accepts a decimal integer.
func (w *Widget) SetField(field, value string) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.state == StateSubmitted {
		return ErrAlreadySubmitted
	}

	switch field {
	case FieldName:
		w.values.Name = value
	case FieldEmail:
		w.values.Email = value
	case FieldFeedback:
		w.values.Feedback = capLength(value, MaxCharacters)
	case FieldRating:
		n, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("rating %q: %w", value, err)
		}
		w.values.Rating = n
	default:
		return fmt.Errorf("%w: %q", ErrUnknownField, field)
	}

	w.revalidateLocked(field)
	return nil
}

// SelectStar handles a click on the rating icon at index i (0-based),
// setting the rating to i+1.
func (w *Widget) SelectStar(i int) error {
	if i < 0 || i >= StarCount {
		return fmt.Errorf("%w: %d", ErrStarOutOfRange, i)
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	if w.state == StateSubmitted {
		return ErrAlreadySubmitted
	}
	w.values.Rating = i + 1
	w.revalidateLocked(FieldRating)
	return nil
}

func (w *Widget) revalidateLocked(field string) {
	errs := ValidateField(w.values, field)
	if msg, ok := errs[field]; ok {
		w.errors[field] = msg
	} else {
		delete(w.errors, field)
	}
}

// FieldView is the live state of one field after an edit.
type FieldView struct {
	Field   string `json:"field"`
	Error   string `json:"error"`
	Counter string `json:"counter,omitempty"`
}

// FieldState returns the current error and, for feedback, the counter text.
func (w *Widget) FieldState(field string) FieldView {
	w.mu.Lock()
	defer w.mu.Unlock()

	fv := FieldView{Field: field, Error: w.errors[field]}
	if field == FieldFeedback {
		fv.Counter = CounterText(utf8.RuneCountInString(w.values.Feedback))
	}
	return fv
}

// Submit validates all fields and, when they pass, posts the feedback.
//
// Validation failures return [ErrInvalid] with errors attached to the form
// and no request made. A network failure or non-2xx response puts the
// widget back into Editing with values intact; it is reported to the
// diagnostic channel and returned wrapped, but nothing is attached to the
// form.
func (w *Widget) Submit(ctx context.Context) error {
	w.mu.Lock()
	switch {
	case w.state == StateSubmitted:
		w.mu.Unlock()
		return ErrAlreadySubmitted
	case w.state == StateSubmitting && w.settings.DuplicateGuard:
		w.mu.Unlock()
		return ErrSubmitInFlight
	}

	w.errors = Validate(w.values)
	if len(w.errors) > 0 {
		if w.state == StateClosed {
			w.state = StateEditing
		}
		w.mu.Unlock()
		return ErrInvalid
	}

	w.state = StateSubmitting
	w.inFlight++
	payload := submit.Payload{
		ProjectID: w.projectID,
		UserName:  w.values.Name,
		UserEmail: w.values.Email,
		Message:   w.values.Feedback,
		Rating:    w.values.Rating,
	}
	w.mu.Unlock()

	attempt := Attempt{
		CorrelationID: uuid.NewString(),
		WidgetID:      w.id,
		ProjectID:     w.projectID,
		At:            time.Now(),
	}
	resp := w.send(ctx, payload)
	if !resp.OK() && resp.Error == nil {
		resp.Error = &submit.StatusError{Code: resp.StatusCode}
	}
	attempt.StatusCode = resp.StatusCode
	attempt.Latency = resp.Latency
	attempt.Error = resp.Error

	w.mu.Lock()
	w.inFlight--
	switch {
	case resp.OK():
		w.state = StateSubmitted
		w.submittedName = payload.UserName
		attempt.Outcome = OutcomeSubmitted
	case resp.Rejected():
		attempt.Outcome = OutcomeRejected
	default:
		attempt.Outcome = OutcomeFailed
	}
	if attempt.Outcome != OutcomeSubmitted && w.state == StateSubmitting && w.inFlight == 0 {
		w.state = StateEditing
	}
	w.mu.Unlock()

	w.report(attempt)

	if attempt.Outcome == OutcomeSubmitted {
		return nil
	}
	return fmt.Errorf("submit feedback: %w", resp.Error)
}

func (w *Widget) send(ctx context.Context, p submit.Payload) submit.Response {
	if w.settings.Sender == nil {
		return submit.Response{Error: errors.New("no sender configured")}
	}
	return w.settings.Sender.Send(ctx, p)
}

// report writes the attempt to the diagnostic channel.
func (w *Widget) report(a Attempt) {
	attrs := []any{
		"correlation_id", a.CorrelationID,
		"project_id", a.ProjectID,
		"outcome", string(a.Outcome),
		"status_code", a.StatusCode,
		"latency_ms", a.Latency.Milliseconds(),
	}
	switch a.Outcome {
	case OutcomeSubmitted:
		w.logger.Debug("feedback submitted", attrs...)
	case OutcomeRejected:
		w.logger.Warn("error submitting feedback", append(attrs, "error", a.Error.Error())...)
	default:
		w.logger.Error("network error submitting feedback", append(attrs, "error", a.Error.Error())...)
	}

	if w.settings.OnAttempt != nil {
		w.settings.OnAttempt(a)
	}
}
