package widget

import (
	"bytes"
	"errors"
	"html/template"
	"strings"
	"testing"
)

func renderRoot(t *testing.T, w *Widget) string {
	t.Helper()
	var buf bytes.Buffer
	if err := w.Render(&buf); err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	return buf.String()
}

func TestRender_Root(t *testing.T) {
	w := newTestWidget(t, nil, &fakeSender{}, true)
	out := renderRoot(t, w)

	checks := []string{
		`class="widget fw-root"`,
		`data-fw-id="` + w.ID() + `"`,
		`popovertarget="fw-popover-` + w.ID() + `"`,
		`id="fw-popover-` + w.ID() + `" popover`,
		`<style>.widget{color:red}</style>`,
		"<span>Feedback</span>",
		"Send us your feedback",
		"Feedback (no more than 400 words)",
		`placeholder="Type your feedback here..."`,
		`maxlength="400"`,
		`<svg`,
	}
	for _, want := range checks {
		if !strings.Contains(out, want) {
			t.Errorf("root markup missing %q", want)
		}
	}
	if strings.Contains(out, "disabled") {
		t.Error("submit button must be enabled while editing")
	}
}

func TestRender_DefaultRatingFillsThreeStars(t *testing.T) {
	w := newTestWidget(t, nil, &fakeSender{}, true)
	out := renderRoot(t, w)

	if got := strings.Count(out, "is-filled"); got != DefaultRating {
		t.Errorf("filled stars = %d, want %d", got, DefaultRating)
	}
	if got := strings.Count(out, "data-fw-star="); got != StarCount {
		t.Errorf("star buttons = %d, want %d", got, StarCount)
	}
	if !strings.Contains(out, `name="rating" value="3"`) {
		t.Error("hidden rating input should carry the default value")
	}
}

func TestRender_EscapesValues(t *testing.T) {
	w := newTestWidget(t, nil, &fakeSender{}, true)
	if err := w.SetField(FieldName, `<script>alert(1)</script>`); err != nil {
		t.Fatal(err)
	}
	out := renderRoot(t, w)
	if strings.Contains(out, "<script>alert") {
		t.Error("field value rendered unescaped")
	}
}

func TestRender_ErrorsAndCounter(t *testing.T) {
	w := newTestWidget(t, nil, &fakeSender{}, true)
	if err := w.SetField(FieldName, "A"); err != nil {
		t.Fatal(err)
	}
	if err := w.SetField(FieldFeedback, strings.Repeat("a", 380)); err != nil {
		t.Fatal(err)
	}

	var buf bytes.Buffer
	if err := w.RenderBody(&buf); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	if !strings.Contains(out, "Name must be at least 2 characters") {
		t.Error("name error not rendered")
	}
	if !strings.Contains(out, "20 / 400 characters left") {
		t.Error("counter not rendered")
	}
}

func TestRender_CustomTrigger(t *testing.T) {
	r, err := NewRenderer(RendererConfig{
		TriggerLabel: "Tell us",
		TriggerIcon:  `<svg viewBox="0 0 10 10"><circle cx="5" cy="5" r="4"/><script>x()</script></svg>`,
		BasePath:     "/fw/",
	})
	if err != nil {
		t.Fatalf("NewRenderer() error = %v", err)
	}
	w := New(nil, Settings{Renderer: r, Logger: testLogger()})
	out := renderRoot(t, w)

	if !strings.Contains(out, "<span>Tell us</span>") {
		t.Error("custom label not rendered")
	}
	if !strings.Contains(out, "<circle") {
		t.Error("custom icon not rendered")
	}
	if strings.Contains(out, "<script>") {
		t.Error("icon sanitizer let a script through")
	}
	if !strings.Contains(out, `action="/fw/w/`+w.ID()+`/submit"`) {
		t.Error("base path not applied to form action")
	}
}

func TestNewRenderer_RejectsNonSVGIcon(t *testing.T) {
	tests := []struct {
		name string
		icon string
	}{
		{"script only", `<script>alert(1)</script>`},
		{"text survives", `<b>not svg</b>`},
		{"plain text", `feedback`},
		{"unknown element", `<svgx></svgx>`},
		{"image", `<img src=x onerror=alert(1)>`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := NewRenderer(RendererConfig{TriggerIcon: tt.icon}); err == nil {
				t.Errorf("NewRenderer(%q) expected error", tt.icon)
			}
		})
	}
}

func TestSanitizeIcon(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want template.HTML
	}{
		{"empty", "  ", ""},
		{"text only", "<b>not svg</b>", ""},
		{"keeps svg", `<svg width="4"><rect x="0" y="0"></rect></svg>`, `<svg width="4"><rect x="0" y="0"></rect></svg>`},
		{"drops handler", `<svg onload="x()"><path d="M0 0"></path></svg>`, `<svg><path d="M0 0"></path></svg>`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := SanitizeIcon(tt.raw); got != tt.want {
				t.Errorf("SanitizeIcon(%q) = %q, want %q", tt.raw, got, tt.want)
			}
		})
	}
}

func TestStarIcons(t *testing.T) {
	if !strings.Contains(string(starIcon(true)), `fill="currentColor"`) {
		t.Errorf("filled star = %s", starIcon(true))
	}
	if !strings.Contains(string(starIcon(false)), `fill="none"`) {
		t.Errorf("empty star = %s", starIcon(false))
	}
}

func TestRender_NoRenderer(t *testing.T) {
	w := New(nil, Settings{Logger: testLogger()})
	var buf bytes.Buffer
	if err := w.Render(&buf); !errors.Is(err, errNoRenderer) {
		t.Errorf("Render() error = %v, want errNoRenderer", err)
	}
}
