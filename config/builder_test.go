package config

import (
	"bytes"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	feedbackwidget "github.com/jpalmerr/feedbackwidget"
)

func newService(t *testing.T, cfg *Config) *feedbackwidget.Service {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	opts := append(BuildOptions(cfg), feedbackwidget.WithLogger(logger))
	svc, err := feedbackwidget.New(opts...)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return svc
}

func TestBuildOptions_Defaults(t *testing.T) {
	cfg, err := Parse(nil)
	if err != nil {
		t.Fatal(err)
	}

	svc := newService(t, cfg)
	if svc.Port() != 8080 {
		t.Errorf("Port() = %d, want 8080", svc.Port())
	}
	if svc.Endpoint() != feedbackwidget.DefaultEndpoint {
		t.Errorf("Endpoint() = %q, want default", svc.Endpoint())
	}
	if svc.TagName() != feedbackwidget.DefaultTagName {
		t.Errorf("TagName() = %q, want default", svc.TagName())
	}
}

func TestBuildOptions_AllFields(t *testing.T) {
	guard := false
	cfg := &Config{
		Title:          "Acme",
		Port:           9090,
		TagName:        "acme-feedback",
		BasePath:       "/feedback",
		MaxInstances:   10,
		DuplicateGuard: &guard,
		Collector: CollectorConfig{
			URL:     "https://collector.example.com/feedback",
			Headers: map[string]string{"X-Api-Key": "k"},
		},
		Trigger: TriggerConfig{Label: "Tell us"},
	}

	svc := newService(t, cfg)
	if svc.Port() != 9090 {
		t.Errorf("Port() = %d, want 9090", svc.Port())
	}
	if svc.Endpoint() != "https://collector.example.com/feedback" {
		t.Errorf("Endpoint() = %q", svc.Endpoint())
	}
	if svc.TagName() != "acme-feedback" {
		t.Errorf("TagName() = %q", svc.TagName())
	}

	var buf bytes.Buffer
	if err := svc.RenderWidget(&buf, map[string]string{"project-id": "p1"}); err != nil {
		t.Fatalf("RenderWidget() error = %v", err)
	}
	html := buf.String()
	for _, want := range []string{"<span>Tell us</span>", `data-fw-base="/feedback"`} {
		if !strings.Contains(html, want) {
			t.Errorf("rendered widget missing %q", want)
		}
	}
	if strings.Contains(html, "data-fw-guard") {
		t.Error("guard disabled in config but form carries data-fw-guard")
	}
}

func TestBuildOptions_InvalidIconFailsNew(t *testing.T) {
	cfg := &Config{Port: 8080, Trigger: TriggerConfig{Icon: "<img src=x onerror=alert(1)>"}}
	_, err := feedbackwidget.New(BuildOptions(cfg)...)
	if err == nil {
		t.Fatal("New() expected error for icon with nothing left after sanitizing")
	}
}

func TestMapToKeyValuePairs(t *testing.T) {
	got := mapToKeyValuePairs(map[string]string{"b": "2", "a": "1", "c": "3"})
	want := []string{"a", "1", "b", "2", "c", "3"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("mapToKeyValuePairs() mismatch (-want +got):\n%s", diff)
	}
}
