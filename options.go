package feedbackwidget

import (
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"regexp"
	"strings"
)

// svcConfig holds mutable state during Service construction.
type svcConfig struct {
	title           string
	port            int
	endpoint        string
	headers         map[string]string
	tagName         string
	basePath        string
	triggerLabel    string
	triggerIcon     string
	maxInstances    int
	duplicateGuard  bool
	logger          *slog.Logger
	submitCallbacks []func(SubmitResult)
}

// Option is a function that configures a [Service] during construction.
//
// Option implements the functional options pattern. Options return an error
// if validation fails.
type Option func(*svcConfig) error

var tagNamePattern = regexp.MustCompile(`^[a-z][a-z0-9._]*-[a-z0-9._-]*$`)

// WithEndpoint sets the collector URL feedback is posted to.
//
// Defaults to http://localhost:4000/feedback/addFeedback.
//
// Returns an error if the URL is not absolute http or https.
func WithEndpoint(rawURL string) Option {
	return func(cfg *svcConfig) error {
		u, err := url.Parse(rawURL)
		if err != nil {
			return errors.New("invalid endpoint URL: " + err.Error())
		}
		if u.Scheme != "http" && u.Scheme != "https" {
			return errors.New("endpoint URL must have a scheme (http:// or https://)")
		}
		if u.Host == "" {
			return errors.New("endpoint URL must have a host")
		}
		cfg.endpoint = rawURL
		return nil
	}
}

// WithHeaders adds HTTP headers sent with every submission.
//
// Arguments are key-value pairs: WithHeaders("X-Api-Key", "secret").
// Can be called multiple times; later values win.
func WithHeaders(keyValues ...string) Option {
	return func(cfg *svcConfig) error {
		if len(keyValues)%2 != 0 {
			return errors.New("WithHeaders requires an even number of arguments (key-value pairs)")
		}
		for i := 0; i < len(keyValues); i += 2 {
			if strings.TrimSpace(keyValues[i]) == "" {
				return errors.New("header name cannot be empty")
			}
			cfg.headers[keyValues[i]] = keyValues[i+1]
		}
		return nil
	}
}

// WithPort sets the HTTP port used by [Service.Start].
//
// Defaults to 8080. Returns an error if the port is outside 1-65535.
func WithPort(port int) Option {
	return func(cfg *svcConfig) error {
		if port < 1 || port > 65535 {
			return errors.New("port must be between 1 and 65535")
		}
		cfg.port = port
		return nil
	}
}

// WithLogger sets a custom [slog.Logger] for the Service.
//
// If not specified, [slog.Default] is used. Returns an error if the logger
// is nil.
func WithLogger(logger *slog.Logger) Option {
	return func(cfg *svcConfig) error {
		if logger == nil {
			return errors.New("logger cannot be nil")
		}
		cfg.logger = logger
		return nil
	}
}

// WithTitle sets the title of the demo host page.
//
// If not specified, defaults to "Feedback Widget".
func WithTitle(title string) Option {
	return func(cfg *svcConfig) error {
		cfg.title = title
		return nil
	}
}

// WithTagName sets the custom element name widgets mount into.
//
// Defaults to "feedback-widget". Returns an error unless the name is a
// valid custom element name: lowercase, starting with a letter, containing
// a hyphen.
func WithTagName(name string) Option {
	return func(cfg *svcConfig) error {
		if !tagNamePattern.MatchString(name) {
			return fmt.Errorf("invalid tag name %q: must be lowercase and contain a hyphen", name)
		}
		cfg.tagName = name
		return nil
	}
}

// WithBasePath sets the path prefix under which [Service.Handler] is
// mounted, so widgets post their events to the right place.
//
//	mux.Handle("/feedback/", http.StripPrefix("/feedback", svc.Handler()))
//
// Returns an error if the path does not start with "/".
func WithBasePath(path string) Option {
	return func(cfg *svcConfig) error {
		if path != "" && !strings.HasPrefix(path, "/") {
			return errors.New("base path must start with /")
		}
		cfg.basePath = strings.TrimRight(path, "/")
		return nil
	}
}

// WithTriggerLabel sets the text on the trigger button.
//
// Defaults to "Feedback".
func WithTriggerLabel(label string) Option {
	return func(cfg *svcConfig) error {
		cfg.triggerLabel = label
		return nil
	}
}

// WithTriggerIcon replaces the trigger button icon with custom SVG markup.
//
// The markup is sanitized to an SVG allow-list. [New] fails if nothing
// survives sanitizing.
func WithTriggerIcon(svg string) Option {
	return func(cfg *svcConfig) error {
		cfg.triggerIcon = svg
		return nil
	}
}

// WithMaxInstances bounds how many mounted widgets are kept. Once reached,
// the oldest widget is forgotten and its further events answer 404.
//
// Defaults to 10000. Returns an error if n is zero or negative.
func WithMaxInstances(n int) Option {
	return func(cfg *svcConfig) error {
		if n <= 0 {
			return errors.New("max instances must be positive")
		}
		cfg.maxInstances = n
		return nil
	}
}

// WithDuplicateSubmitGuard controls whether a widget rejects a submit while
// its previous one is still in flight. When on, the submit button is also
// disabled during the request.
//
// Defaults to true.
func WithDuplicateSubmitGuard(enabled bool) Option {
	return func(cfg *svcConfig) error {
		cfg.duplicateGuard = enabled
		return nil
	}
}

// WithSubmitCallback registers a function called after every submission
// that reached the network, successful or not.
//
// Multiple callbacks run in registration order. Callbacks run on the
// request goroutine and must not block. Panics are recovered and logged.
//
// Example:
//
//	svc, err := feedbackwidget.New(
//	    feedbackwidget.WithSubmitCallback(func(r feedbackwidget.SubmitResult) {
//	        if r.Outcome != feedbackwidget.OutcomeSubmitted {
//	            log.Printf("feedback lost for project %s: %v", r.ProjectID, r.Error)
//	        }
//	    }),
//	)
//
// Nil callbacks are silently ignored.
func WithSubmitCallback(cb func(SubmitResult)) Option {
	return func(cfg *svcConfig) error {
		if cb == nil {
			return nil
		}
		cfg.submitCallbacks = append(cfg.submitCallbacks, cb)
		return nil
	}
}
