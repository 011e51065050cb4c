package feedbackwidget

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sort"
	"strconv"
	"strings"

	"github.com/jpalmerr/feedbackwidget/bridge"
	"github.com/jpalmerr/feedbackwidget/internal/server"
	"github.com/jpalmerr/feedbackwidget/internal/store"
	"github.com/jpalmerr/feedbackwidget/internal/submit"
	"github.com/jpalmerr/feedbackwidget/internal/widget"
	"github.com/jpalmerr/feedbackwidget/web"
)

const (
	defaultPort = 8080

	// DefaultEndpoint is the collector URL used when none is configured.
	DefaultEndpoint = submit.DefaultEndpoint

	// DefaultTagName is the custom element name widgets mount into.
	DefaultTagName = bridge.DefaultTagName
)

// Service serves embeddable feedback widgets and submits what users enter.
//
// Service is created using [New] with functional options. It can run its own
// HTTP server via [Service.Start], or be mounted into an existing one via
// [Service.Handler].
//
// The typical lifecycle is:
//
//	svc, err := feedbackwidget.New(feedbackwidget.WithEndpoint("https://collector.example.com/feedback"))
//	if err != nil {
//	    slog.Error("failed to create feedback widget service", "error", err)
//	    os.Exit(1)
//	}
//
//	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
//	defer cancel()
//
//	svc.Start(ctx) // blocks until context cancelled
type Service struct {
	title           string
	port            int
	endpoint        string
	headers         map[string]string
	tagName         string
	logger          *slog.Logger
	submitCallbacks []func(SubmitResult)

	client   *submit.Client
	store    *store.MemoryStore
	bridge   *bridge.Bridge
	server   *server.Server
	settings widget.Settings
}

// New creates a new [Service] with the given options.
//
// Every option has a default:
//   - Endpoint: http://localhost:4000/feedback/addFeedback
//   - Port: 8080
//   - Tag name: feedback-widget
//   - Max instances: 10000
//   - Duplicate-submit guard: on
//
// Returns an error if any option is invalid.
func New(opts ...Option) (*Service, error) {
	cfg := &svcConfig{
		port:           defaultPort,
		endpoint:       DefaultEndpoint,
		headers:        make(map[string]string),
		tagName:        DefaultTagName,
		maxInstances:   store.DefaultCapacity,
		duplicateGuard: true,
	}

	for _, opt := range opts {
		if err := opt(cfg); err != nil {
			return nil, err
		}
	}

	if cfg.port < 1 || cfg.port > 65535 {
		return nil, fmt.Errorf("port must be between 1 and 65535, got %d", cfg.port)
	}

	logger := cfg.logger
	if logger == nil {
		logger = slog.Default()
	}

	renderer, err := widget.NewRenderer(widget.RendererConfig{
		Stylesheet:   web.Stylesheet,
		TriggerLabel: cfg.triggerLabel,
		TriggerIcon:  cfg.triggerIcon,
		BasePath:     cfg.basePath,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create widget renderer: %w", err)
	}

	s := &Service{
		title:           cfg.title,
		port:            cfg.port,
		endpoint:        cfg.endpoint,
		headers:         copyMap(cfg.headers),
		tagName:         cfg.tagName,
		logger:          logger,
		submitCallbacks: cfg.submitCallbacks,
		client:          submit.NewClient(cfg.endpoint, cfg.headers),
		store:           store.NewMemoryStore(cfg.maxInstances),
	}
	s.settings = widget.Settings{
		Sender:         s.client,
		Renderer:       renderer,
		Logger:         logger,
		DuplicateGuard: cfg.duplicateGuard,
		OnAttempt:      s.recordAttempt,
	}

	s.bridge, err = bridge.New(s.mountWidget,
		bridge.WithTagName(cfg.tagName),
		bridge.WithStylesheet(web.Stylesheet),
		bridge.WithLogger(logger),
	)
	if err != nil {
		return nil, err
	}

	s.server = server.NewServer(s.store, s.bridge, s.port, web.Assets, s.title, logger)
	return s, nil
}

// Start serves the widget routes until the context is cancelled.
//
// Start is a blocking call. The demo page is available at
// http://localhost:<port>, the widget script at /widget.js.
//
// Returns nil on graceful shutdown. Returns an error if the HTTP server fails
// to start.
func (s *Service) Start(ctx context.Context) error {
	s.logger.Info("feedback widget starting", "endpoint", s.endpoint, "tag", s.tagName)
	s.logger.Info("widget available", "url", fmt.Sprintf("http://localhost:%d", s.port))

	if ctx.Err() != nil {
		return nil
	}

	if err := s.server.Start(ctx); err != nil {
		return fmt.Errorf("failed to start HTTP server: %w", err)
	}

	<-ctx.Done()
	s.client.Close()
	s.logger.Info("feedback widget stopped")
	return nil
}

// Handler returns the widget routes for mounting into an existing server.
//
//	mux.Handle("/", svc.Handler())
func (s *Service) Handler() http.Handler {
	return s.server.Handler()
}

// RenderPage reads a host page from r, mounts a widget into every element
// with the configured tag name, and writes the result to w. It returns the
// number of widgets mounted.
//
// Widgets mounted this way are registered with the service, so their events
// are routed once the page is served through [Service.Handler].
func (s *Service) RenderPage(r io.Reader, w io.Writer) (int, error) {
	return s.bridge.Rewrite(r, w)
}

// RenderWidget writes the isolated subtree content for one widget configured
// with attributes, as produced for a dynamically inserted element.
func (s *Service) RenderWidget(w io.Writer, attributes map[string]string) error {
	attrs := make([]bridge.Attribute, 0, len(attributes))
	for name, value := range attributes {
		attrs = append(attrs, bridge.Attribute{Name: name, Value: value})
	}
	sort.Slice(attrs, func(i, j int) bool { return attrs[i].Name < attrs[j].Name })

	content, err := s.bridge.ShadowContent(bridge.ConfigFromAttributes(attrs))
	if err != nil {
		return err
	}
	_, err = io.WriteString(w, content)
	return err
}

// Feedback is one submission entered outside the browser.
type Feedback struct {
	Name    string
	Email   string
	Message string
	Rating  int
}

// ValidationError reports the fields of a [Feedback] that failed validation.
type ValidationError struct {
	// Fields maps field names (name, email, feedback, rating) to messages.
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	names := make([]string, 0, len(e.Fields))
	for name := range e.Fields {
		names = append(names, name)
	}
	sort.Strings(names)

	parts := make([]string, len(names))
	for i, name := range names {
		parts[i] = name + ": " + e.Fields[name]
	}
	return "invalid feedback: " + strings.Join(parts, "; ")
}

// SendFeedback validates f with the same rules as the browser form and, when
// it passes, posts it to the collector.
//
// Returns a *[ValidationError] without making a request when a field is
// invalid. A request that fails or is rejected returns the result together
// with a non-nil error.
func (s *Service) SendFeedback(ctx context.Context, projectID string, f Feedback) (SubmitResult, error) {
	var result SubmitResult

	// checked up front: the form caps feedback length instead of rejecting it
	values := widget.Values{Name: f.Name, Email: f.Email, Feedback: f.Message, Rating: f.Rating}
	if errs := widget.Validate(values); len(errs) > 0 {
		return result, &ValidationError{Fields: errs}
	}

	settings := s.settings
	settings.OnAttempt = func(a widget.Attempt) {
		result = attemptToResult(a)
		s.recordAttempt(a)
	}

	props := map[string]string{}
	if projectID != "" {
		props["projectId"] = projectID
	}
	wd := widget.New(props, settings)

	fields := []struct{ name, value string }{
		{widget.FieldName, f.Name},
		{widget.FieldEmail, f.Email},
		{widget.FieldFeedback, f.Message},
		{widget.FieldRating, strconv.Itoa(f.Rating)},
	}
	for _, fv := range fields {
		if err := wd.SetField(fv.name, fv.value); err != nil {
			return result, err
		}
	}

	err := wd.Submit(ctx)
	if errors.Is(err, widget.ErrInvalid) {
		return result, &ValidationError{Fields: wd.Snapshot().Errors}
	}
	return result, err
}

// mountWidget creates and registers a widget for one host element.
func (s *Service) mountWidget(w io.Writer, cfg bridge.Config) error {
	wd := widget.New(cfg, s.settings)
	s.store.Put(wd)
	s.logger.Debug("widget mounted", "widget_id", wd.ID(), "project_id", wd.ProjectID())
	return wd.Render(w)
}

// recordAttempt publishes a submission attempt and fans it out to callbacks.
func (s *Service) recordAttempt(a widget.Attempt) {
	s.store.Publish(store.EventFromAttempt(a))

	if len(s.submitCallbacks) == 0 {
		return
	}
	result := attemptToResult(a)
	for _, cb := range s.submitCallbacks {
		invokeCallbackSafe(cb, result, s.logger)
	}
}

// Port returns the configured HTTP port.
func (s *Service) Port() int {
	return s.port
}

// Endpoint returns the collector URL feedback is posted to.
func (s *Service) Endpoint() string {
	return s.endpoint
}

// TagName returns the custom element name widgets mount into.
func (s *Service) TagName() string {
	return s.tagName
}

// Instances returns the number of widgets currently registered.
func (s *Service) Instances() int {
	return s.store.Len()
}

func attemptToResult(a widget.Attempt) SubmitResult {
	return SubmitResult{
		CorrelationID: a.CorrelationID,
		WidgetID:      a.WidgetID,
		ProjectID:     a.ProjectID,
		Outcome:       Outcome(a.Outcome),
		StatusCode:    a.StatusCode,
		Latency:       a.Latency,
		At:            a.At,
		Error:         a.Error,
	}
}

// invokeCallbackSafe calls a submit callback with panic recovery.
// Panics are logged but do not propagate.
func invokeCallbackSafe(cb func(SubmitResult), result SubmitResult, logger *slog.Logger) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("submit callback panicked",
				"panic", r,
				"correlation_id", result.CorrelationID,
			)
		}
	}()
	cb(result)
}

// copyMap returns a copy of m, or an empty map if m is nil.
func copyMap(m map[string]string) map[string]string {
	out := make(map[string]string, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
