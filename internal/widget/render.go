package widget

import (
	"embed"
	"errors"
	"fmt"
	"html/template"
	"io"
	"strconv"
	"strings"
	"unicode/utf8"
)

//go:embed templates/*.tmpl
var templateFS embed.FS

// DefaultTriggerLabel is the text on the trigger button.
const DefaultTriggerLabel = "Feedback"

// RendererConfig configures the markup shared by every widget.
type RendererConfig struct {
	// Stylesheet is injected verbatim inside the popover content.
	Stylesheet string

	// TriggerLabel defaults to "Feedback".
	TriggerLabel string

	// TriggerIcon is raw SVG markup; it is sanitized before use.
	// Empty selects [DefaultTriggerIcon].
	TriggerIcon string

	// BasePath prefixes the event routes the client script calls.
	BasePath string
}

// Renderer turns widget state into HTML.
type Renderer struct {
	tmpl         *template.Template
	stylesheet   template.CSS
	triggerLabel string
	triggerIcon  template.HTML
	basePath     string
}

// NewRenderer parses the embedded templates.
func NewRenderer(cfg RendererConfig) (*Renderer, error) {
	tmpl, err := template.New("widget").ParseFS(templateFS, "templates/*.tmpl")
	if err != nil {
		return nil, fmt.Errorf("parse widget templates: %w", err)
	}

	label := strings.TrimSpace(cfg.TriggerLabel)
	if label == "" {
		label = DefaultTriggerLabel
	}

	rawIcon := cfg.TriggerIcon
	if strings.TrimSpace(rawIcon) == "" {
		rawIcon = DefaultTriggerIcon
	}
	icon := SanitizeIcon(rawIcon)
	if icon == "" {
		return nil, errors.New("trigger icon contains no allowed svg markup")
	}

	return &Renderer{
		tmpl:         tmpl,
		stylesheet:   template.CSS(cfg.Stylesheet),
		triggerLabel: label,
		triggerIcon:  icon,
		basePath:     strings.TrimRight(cfg.BasePath, "/"),
	}, nil
}

type starView struct {
	Index  int
	Filled bool
	Label  string
	Icon   template.HTML
}

type view struct {
	ID            string
	BasePath      string
	TriggerLabel  string
	TriggerIcon   template.HTML
	Stylesheet    template.CSS
	MaxCharacters int

	Submitted     bool
	SubmittedName string
	Guard         bool
	Disabled      bool
	Values        Values
	Errors        FieldErrors
	Counter       string
	Stars         []starView
}

func (r *Renderer) viewOf(s Snapshot, guard bool) view {
	states := StarStates(s.Values.Rating)
	stars := make([]starView, StarCount)
	for i, filled := range states {
		stars[i] = starView{
			Index:  i,
			Filled: filled,
			Label:  "Rate " + strconv.Itoa(i+1) + " of " + strconv.Itoa(StarCount),
			Icon:   starIcon(filled),
		}
	}
	return view{
		ID:            s.ID,
		BasePath:      r.basePath,
		TriggerLabel:  r.triggerLabel,
		TriggerIcon:   r.triggerIcon,
		Stylesheet:    r.stylesheet,
		MaxCharacters: MaxCharacters,
		Submitted:     s.State == StateSubmitted,
		SubmittedName: s.SubmittedName,
		Guard:         guard,
		Disabled:      guard && s.State == StateSubmitting,
		Values:        s.Values,
		Errors:        s.Errors,
		Counter:       CounterText(utf8.RuneCountInString(s.Values.Feedback)),
		Stars:         stars,
	}
}

var errNoRenderer = errors.New("widget has no renderer")

func (w *Widget) render(out io.Writer, name string) error {
	r := w.settings.Renderer
	if r == nil {
		return errNoRenderer
	}
	v := r.viewOf(w.Snapshot(), w.settings.DuplicateGuard)
	if err := r.tmpl.ExecuteTemplate(out, name, v); err != nil {
		return fmt.Errorf("render %s: %w", name, err)
	}
	return nil
}

// Render writes the widget root: trigger button plus popover.
func (w *Widget) Render(out io.Writer) error {
	return w.render(out, "root")
}

// RenderBody writes the popover body: the form, or the thank-you block once
// submitted.
func (w *Widget) RenderBody(out io.Writer) error {
	return w.render(out, "body")
}

// RenderStars writes the rating control alone.
func (w *Widget) RenderStars(out io.Writer) error {
	return w.render(out, "stars")
}
