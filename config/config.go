// Package config provides YAML configuration parsing for the feedback
// widget service.
//
// This package enables running the service as a standalone binary with a
// configuration file, as an alternative to the programmatic SDK approach.
//
// Example configuration:
//
//	port: 8080
//	tag_name: feedback-widget
//
//	collector:
//	  url: ${COLLECTOR_URL:-http://localhost:4000/feedback/addFeedback}
//	  headers:
//	    X-Api-Key: ${COLLECTOR_KEY}
//	  send_timeout: 10s
//
//	trigger:
//	  label: Feedback
//
//	pages:
//	  - input: site/index.html
//	    output: dist/index.html
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"regexp"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	defaultPort        = 8080
	defaultSendTimeout = 10 * time.Second
	maxSendTimeout     = 5 * time.Minute
)

var tagNamePattern = regexp.MustCompile(`^[a-z][a-z0-9._]*-[a-z0-9._-]*$`)

// Config is the root configuration structure.
//
// It maps directly to the YAML configuration file structure.
// Use [Load] or [Parse] to create a Config from YAML.
type Config struct {
	// Title is the demo page title. Defaults to "Feedback Widget" if not set.
	Title string `yaml:"title,omitempty"`

	// Port is the HTTP server port. Defaults to 8080.
	Port int `yaml:"port"`

	// TagName is the custom element widgets mount into.
	// Defaults to "feedback-widget".
	TagName string `yaml:"tag_name,omitempty"`

	// BasePath is the prefix the routes are mounted under, if any.
	BasePath string `yaml:"base_path,omitempty"`

	// LogLevel is one of debug, info, warn, error. Defaults to info.
	LogLevel string `yaml:"log_level,omitempty"`

	// MaxInstances bounds the mounted widgets kept in memory.
	// Zero keeps the service default.
	MaxInstances int `yaml:"max_instances,omitempty"`

	// DuplicateGuard disables the submit button while a submission is in
	// flight. Defaults to true when omitted.
	DuplicateGuard *bool `yaml:"duplicate_guard,omitempty"`

	// Collector is where feedback is posted.
	Collector CollectorConfig `yaml:"collector,omitempty"`

	// Trigger customizes the floating button.
	Trigger TriggerConfig `yaml:"trigger,omitempty"`

	// Pages lists host pages pre-rendered by the render command.
	Pages []PageConfig `yaml:"pages,omitempty"`
}

// CollectorConfig defines the feedback collector endpoint.
type CollectorConfig struct {
	// URL is the collector endpoint.
	// Supports environment variable substitution: ${VAR} or ${VAR:-default}
	URL string `yaml:"url,omitempty"`

	// Headers are extra HTTP headers sent with each submission.
	// Values support environment variable substitution.
	Headers map[string]string `yaml:"headers,omitempty"`

	// SendTimeout bounds a submission made from the terminal with the send
	// command. Browser submissions are not affected. Defaults to 10s.
	SendTimeout Duration `yaml:"send_timeout,omitempty"`
}

// TriggerConfig customizes the trigger button.
type TriggerConfig struct {
	// Label is the button text. Defaults to "Feedback".
	Label string `yaml:"label,omitempty"`

	// Icon is inline SVG markup replacing the default icon.
	Icon string `yaml:"icon,omitempty"`
}

// PageConfig names a host page to pre-render.
type PageConfig struct {
	// Input is the path of the host page.
	Input string `yaml:"input"`

	// Output is where the rendered page is written.
	Output string `yaml:"output"`
}

// Duration wraps time.Duration for YAML unmarshalling.
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler for Duration.
func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	var s string
	if err := node.Decode(&s); err != nil {
		return err
	}

	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}

	*d = Duration(parsed)
	return nil
}

// MarshalYAML implements yaml.Marshaler for Duration.
func (d Duration) MarshalYAML() (interface{}, error) {
	return time.Duration(d).String(), nil
}

// Duration returns the underlying time.Duration value.
func (d Duration) Duration() time.Duration {
	return time.Duration(d)
}

// GuardEnabled reports whether the duplicate-submit guard is on.
func (c *Config) GuardEnabled() bool {
	return c.DuplicateGuard == nil || *c.DuplicateGuard
}

// Level returns the slog level named by LogLevel.
func (c *Config) Level() slog.Level {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// envVarPattern matches ${VAR} and ${VAR:-default} patterns.
// Group 1: variable name
// Group 2: the ":-default" part, present only when a default was given
// Group 3: the default value (may be empty for ${VAR:-})
var envVarPattern = regexp.MustCompile(`\$\{([^}:]+)(:-([^}]*))?\}`)

// expandEnvVars replaces ${VAR} and ${VAR:-default} patterns with environment values.
func expandEnvVars(s string) (string, error) {
	var firstErr error

	result := envVarPattern.ReplaceAllStringFunc(s, func(match string) string {
		if firstErr != nil {
			return match
		}

		sub := envVarPattern.FindStringSubmatch(match)
		varName := sub[1]
		hasDefault := sub[2] != ""

		value, exists := os.LookupEnv(varName)
		if !exists {
			if hasDefault {
				return sub[3]
			}
			firstErr = fmt.Errorf("environment variable %q is not set", varName)
			return match
		}
		return value
	})

	if firstErr != nil {
		return "", firstErr
	}
	return result, nil
}

// Load reads and parses a YAML configuration file.
//
// Environment variables in the file are expanded before parsing.
// Returns an error if the file cannot be read or parsed.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	return Parse(data)
}

// Parse parses YAML configuration data.
//
// Environment variables are expanded in the collector URL, header values and
// page paths. Defaults are applied for Port (8080) and SendTimeout (10s).
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if cfg.Port == 0 {
		cfg.Port = defaultPort
	}
	if cfg.Collector.SendTimeout == 0 {
		cfg.Collector.SendTimeout = Duration(defaultSendTimeout)
	}

	if err := cfg.expandAndValidate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// expandAndValidate expands environment variables and validates the config.
func (c *Config) expandAndValidate() error {
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("port must be between 1 and 65535, got %d", c.Port)
	}

	if c.TagName != "" && !tagNamePattern.MatchString(c.TagName) {
		return fmt.Errorf("tag_name %q must be lowercase, start with a letter and contain a hyphen", c.TagName)
	}

	if c.BasePath != "" && !strings.HasPrefix(c.BasePath, "/") {
		return fmt.Errorf("base_path must start with /, got %q", c.BasePath)
	}

	switch strings.ToLower(c.LogLevel) {
	case "", "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("log_level must be debug, info, warn, or error, got %q", c.LogLevel)
	}

	if c.MaxInstances < 0 {
		return fmt.Errorf("max_instances cannot be negative, got %d", c.MaxInstances)
	}

	if err := c.Collector.expandAndValidate(); err != nil {
		return err
	}

	if strings.TrimSpace(c.Trigger.Icon) != "" && !strings.Contains(strings.ToLower(c.Trigger.Icon), "<svg") {
		return errors.New("trigger.icon must be inline SVG markup")
	}

	seen := make(map[string]int, len(c.Pages))
	for i := range c.Pages {
		p := &c.Pages[i]

		if p.Input == "" {
			return fmt.Errorf("pages[%d]: input is required", i)
		}
		expanded, err := expandEnvVars(p.Input)
		if err != nil {
			return fmt.Errorf("pages[%d]: input: %w", i, err)
		}
		p.Input = expanded

		if p.Output == "" {
			return fmt.Errorf("pages[%d] (%s): output is required", i, p.Input)
		}
		expanded, err = expandEnvVars(p.Output)
		if err != nil {
			return fmt.Errorf("pages[%d] (%s): output: %w", i, p.Input, err)
		}
		p.Output = expanded

		if p.Output == p.Input {
			return fmt.Errorf("pages[%d] (%s): output must differ from input", i, p.Input)
		}
		if j, dup := seen[p.Output]; dup {
			return fmt.Errorf("pages[%d] (%s): output %q already written by pages[%d]", i, p.Input, p.Output, j)
		}
		seen[p.Output] = i
	}

	return nil
}

func (cc *CollectorConfig) expandAndValidate() error {
	if cc.URL != "" {
		expanded, err := expandEnvVars(cc.URL)
		if err != nil {
			return fmt.Errorf("collector.url: %w", err)
		}
		cc.URL = expanded

		parsedURL, err := url.Parse(cc.URL)
		if err != nil {
			return fmt.Errorf("collector.url: invalid url: %w", err)
		}
		if parsedURL.Scheme == "" {
			return errors.New("collector.url: url must have a scheme (http:// or https://)")
		}
		if parsedURL.Scheme != "http" && parsedURL.Scheme != "https" {
			return fmt.Errorf("collector.url: url scheme must be http or https, got %q", parsedURL.Scheme)
		}
		if parsedURL.Host == "" {
			return errors.New("collector.url: url must have a host")
		}
	}

	for k, v := range cc.Headers {
		if strings.TrimSpace(k) == "" {
			return errors.New("collector.headers: header name cannot be empty")
		}
		expanded, err := expandEnvVars(v)
		if err != nil {
			return fmt.Errorf("collector.headers[%s]: %w", k, err)
		}
		cc.Headers[k] = expanded
	}

	if d := cc.SendTimeout.Duration(); d < time.Second || d > maxSendTimeout {
		return fmt.Errorf("collector.send_timeout must be between 1s and %s, got %s", maxSendTimeout, d)
	}

	return nil
}
