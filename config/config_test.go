package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

func TestParse_MinimalConfig(t *testing.T) {
	cfg, err := Parse([]byte(``))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	if cfg.Port != 8080 {
		t.Errorf("Port = %d, want 8080", cfg.Port)
	}
	if cfg.Collector.SendTimeout.Duration() != 10*time.Second {
		t.Errorf("SendTimeout = %v, want 10s", cfg.Collector.SendTimeout.Duration())
	}
	if !cfg.GuardEnabled() {
		t.Error("GuardEnabled() = false, want true when omitted")
	}
	if cfg.Level() != slog.LevelInfo {
		t.Errorf("Level() = %v, want info", cfg.Level())
	}
}

func TestParse_FullConfig(t *testing.T) {
	yaml := `
title: Acme Feedback
port: 9090
tag_name: acme-feedback
base_path: /feedback
log_level: debug
max_instances: 500
duplicate_guard: false

collector:
  url: https://collector.example.com/feedback/addFeedback
  headers:
    X-Api-Key: secret
  send_timeout: 30s

trigger:
  label: Tell us
  icon: '<svg viewBox="0 0 24 24"><path d="M0 0h24v24H0z"/></svg>'

pages:
  - input: site/index.html
    output: dist/index.html
`
	cfg, err := Parse([]byte(yaml))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	guard := false
	want := &Config{
		Title:          "Acme Feedback",
		Port:           9090,
		TagName:        "acme-feedback",
		BasePath:       "/feedback",
		LogLevel:       "debug",
		MaxInstances:   500,
		DuplicateGuard: &guard,
		Collector: CollectorConfig{
			URL:         "https://collector.example.com/feedback/addFeedback",
			Headers:     map[string]string{"X-Api-Key": "secret"},
			SendTimeout: Duration(30 * time.Second),
		},
		Trigger: TriggerConfig{
			Label: "Tell us",
			Icon:  `<svg viewBox="0 0 24 24"><path d="M0 0h24v24H0z"/></svg>`,
		},
		Pages: []PageConfig{{Input: "site/index.html", Output: "dist/index.html"}},
	}
	if diff := cmp.Diff(want, cfg); diff != "" {
		t.Errorf("config mismatch (-want +got):\n%s", diff)
	}
	if cfg.GuardEnabled() {
		t.Error("GuardEnabled() = true, want false")
	}
	if cfg.Level() != slog.LevelDebug {
		t.Errorf("Level() = %v, want debug", cfg.Level())
	}
}

func TestParse_EnvVarSubstitution(t *testing.T) {
	t.Setenv("TEST_COLLECTOR_HOST", "collector.test.com")
	t.Setenv("TEST_COLLECTOR_KEY", "secret123")
	t.Setenv("TEST_OUT_DIR", "/tmp/out")

	yaml := `
collector:
  url: https://${TEST_COLLECTOR_HOST}/feedback
  headers:
    Authorization: "Bearer ${TEST_COLLECTOR_KEY}"
pages:
  - input: index.html
    output: ${TEST_OUT_DIR}/index.html
`
	cfg, err := Parse([]byte(yaml))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	if cfg.Collector.URL != "https://collector.test.com/feedback" {
		t.Errorf("URL = %q, want https://collector.test.com/feedback", cfg.Collector.URL)
	}
	if got := cfg.Collector.Headers["Authorization"]; got != "Bearer secret123" {
		t.Errorf("Headers[Authorization] = %q, want 'Bearer secret123'", got)
	}
	if cfg.Pages[0].Output != "/tmp/out/index.html" {
		t.Errorf("Pages[0].Output = %q", cfg.Pages[0].Output)
	}
}

func TestParse_EnvVarDefault(t *testing.T) {
	yaml := `
collector:
  url: ${UNSET_COLLECTOR_URL:-http://localhost:4000/feedback/addFeedback}
`
	cfg, err := Parse([]byte(yaml))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	if cfg.Collector.URL != "http://localhost:4000/feedback/addFeedback" {
		t.Errorf("URL = %q", cfg.Collector.URL)
	}
}

func TestParse_EnvVarMissing(t *testing.T) {
	yaml := `
collector:
  headers:
    X-Api-Key: ${MISSING_COLLECTOR_KEY}
`
	_, err := Parse([]byte(yaml))
	if err == nil {
		t.Fatal("Parse() expected error for missing env var, got nil")
	}
	if !strings.Contains(err.Error(), "MISSING_COLLECTOR_KEY") {
		t.Errorf("error should mention MISSING_COLLECTOR_KEY: %v", err)
	}
	if !strings.Contains(err.Error(), "collector.headers[X-Api-Key]") {
		t.Errorf("error should name the header: %v", err)
	}
}

func TestParse_ValidationErrors(t *testing.T) {
	tests := []struct {
		name    string
		yaml    string
		wantErr string
	}{
		{
			name:    "port out of range",
			yaml:    "port: 70000",
			wantErr: "port must be between 1 and 65535",
		},
		{
			name:    "negative port",
			yaml:    "port: -1",
			wantErr: "port must be between 1 and 65535",
		},
		{
			name:    "tag name without hyphen",
			yaml:    "tag_name: feedback",
			wantErr: "tag_name",
		},
		{
			name:    "tag name uppercase",
			yaml:    "tag_name: Feedback-Widget",
			wantErr: "tag_name",
		},
		{
			name:    "relative base path",
			yaml:    "base_path: feedback",
			wantErr: "base_path must start with /",
		},
		{
			name:    "unknown log level",
			yaml:    "log_level: verbose",
			wantErr: "log_level must be",
		},
		{
			name:    "negative max instances",
			yaml:    "max_instances: -5",
			wantErr: "max_instances cannot be negative",
		},
		{
			name:    "collector url without scheme",
			yaml:    "collector:\n  url: collector.example.com/feedback",
			wantErr: "must have a scheme",
		},
		{
			name:    "collector url ftp",
			yaml:    "collector:\n  url: ftp://collector.example.com",
			wantErr: "scheme must be http or https",
		},
		{
			name:    "collector url without host",
			yaml:    "collector:\n  url: http:///feedback",
			wantErr: "must have a host",
		},
		{
			name:    "send timeout too short",
			yaml:    "collector:\n  send_timeout: 100ms",
			wantErr: "send_timeout must be between",
		},
		{
			name:    "send timeout too long",
			yaml:    "collector:\n  send_timeout: 1h",
			wantErr: "send_timeout must be between",
		},
		{
			name:    "trigger icon not svg",
			yaml:    "trigger:\n  icon: '<img src=x>'",
			wantErr: "trigger.icon must be inline SVG",
		},
		{
			name:    "page without input",
			yaml:    "pages:\n  - output: out.html",
			wantErr: "pages[0]: input is required",
		},
		{
			name:    "page without output",
			yaml:    "pages:\n  - input: in.html",
			wantErr: "pages[0] (in.html): output is required",
		},
		{
			name:    "page overwrites itself",
			yaml:    "pages:\n  - input: in.html\n    output: in.html",
			wantErr: "output must differ from input",
		},
		{
			name: "duplicate page output",
			yaml: `
pages:
  - input: a.html
    output: out.html
  - input: b.html
    output: out.html
`,
			wantErr: "pages[1] (b.html): output \"out.html\" already written by pages[0]",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.yaml))
			if err == nil {
				t.Fatalf("Parse() expected error containing %q, got nil", tt.wantErr)
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Parse() error = %q, want containing %q", err.Error(), tt.wantErr)
			}
		})
	}
}

func TestParse_InvalidYAML(t *testing.T) {
	_, err := Parse([]byte("port: [unclosed"))
	if err == nil {
		t.Fatal("Parse() expected error for invalid YAML, got nil")
	}
	if !strings.Contains(err.Error(), "failed to parse YAML") {
		t.Errorf("error = %v", err)
	}
}

func TestParse_InvalidDuration(t *testing.T) {
	_, err := Parse([]byte("collector:\n  send_timeout: soon"))
	if err == nil {
		t.Fatal("Parse() expected error for invalid duration, got nil")
	}
	if !strings.Contains(err.Error(), "invalid duration") {
		t.Errorf("error = %v", err)
	}
}

func TestLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"", slog.LevelInfo},
		{"debug", slog.LevelDebug},
		{"DEBUG", slog.LevelDebug},
		{"info", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"error", slog.LevelError},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			cfg := &Config{LogLevel: tt.in}
			if got := cfg.Level(); got != tt.want {
				t.Errorf("Level() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "feedbackwidget.yaml")
	if err := os.WriteFile(path, []byte("port: 9191\ntitle: Loaded\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Port != 9191 || cfg.Title != "Loaded" {
		t.Errorf("Load() = %+v", cfg)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load("/nonexistent/feedbackwidget.yaml")
	if err == nil || !strings.Contains(err.Error(), "failed to read config file") {
		t.Errorf("Load() error = %v", err)
	}
}

func TestExpandEnvVars(t *testing.T) {
	t.Setenv("TEST_VAR", "value")
	t.Setenv("EMPTY_VAR", "")

	tests := []struct {
		name    string
		input   string
		want    string
		wantErr bool
	}{
		{"no vars", "plain text", "plain text", false},
		{"simple var", "${TEST_VAR}", "value", false},
		{"var in text", "prefix ${TEST_VAR} suffix", "prefix value suffix", false},
		{"multiple vars", "${TEST_VAR}-${TEST_VAR}", "value-value", false},
		{"with default (var set)", "${TEST_VAR:-default}", "value", false},
		{"with default (var unset)", "${UNSET:-default}", "default", false},
		{"missing required", "${MISSING}", "", true},
		{"empty default (var unset)", "${UNSET:-}", "", false},
		{"set but empty var", "${EMPTY_VAR}", "", false},
		{"set but empty with default", "${EMPTY_VAR:-fallback}", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := expandEnvVars(tt.input)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expandEnvVars() expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("expandEnvVars() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("expandEnvVars() = %q, want %q", got, tt.want)
			}
		})
	}
}
