// Package feedbackwidget provides an embeddable feedback widget served from
// Go.
//
// A host page drops a custom element anywhere in its markup:
//
//	<script src="/widget.js" defer></script>
//	<feedback-widget project-id="abc123"></feedback-widget>
//
// The service renders each element into an isolated declarative shadow root:
// a floating trigger button opening a popover with a validated form (name,
// email, feedback, star rating). Submissions are posted as JSON to a
// collector endpoint.
//
// # Quick Start
//
//	svc, _ := feedbackwidget.New(
//	    feedbackwidget.WithEndpoint("https://collector.example.com/feedback/addFeedback"),
//	)
//
//	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
//	defer stop()
//
//	svc.Start(ctx) // blocks until context is cancelled
//
// Pages served elsewhere can be pre-rendered with [Service.RenderPage], and
// the routes mounted into an existing server with [Service.Handler].
//
// # Host attributes
//
// Element attributes are normalized from kebab-case to camelCase and passed
// to the widget as strings. Only projectId is read; it is forwarded in every
// submission. Other attributes are accepted and ignored.
//
// # Failures
//
// Validation errors are shown beside each field and block submission. A
// collector that is down or answers non-2xx leaves the form as it was; the
// failure is logged and reported to [WithSubmitCallback] callbacks, never
// shown to the user.
//
// # Architecture
//
//   - bridge: host markup to mounted widgets
//   - internal/widget: per-mount form state machine, validation and rendering
//   - internal/submit: HTTP client posting to the collector
//   - internal/store: mounted instances and the diagnostic feed
//   - internal/server: HTTP routes, Server-Sent Events
//   - web: embedded script, stylesheet and demo page
package feedbackwidget
