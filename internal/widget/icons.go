package widget

import (
	"html/template"
	"strings"
	"sync"

	"github.com/microcosm-cc/bluemonday"
)

const starPath = `<path d="M11.525 2.295a.53.53 0 0 1 .95 0l2.31 4.679a2.123 2.123 0 0 0 1.595 1.16l5.166.756a.53.53 0 0 1 .294.904l-3.736 3.638a2.123 2.123 0 0 0-.611 1.878l.882 5.14a.53.53 0 0 1-.771.56l-4.618-2.428a2.122 2.122 0 0 0-1.973 0L6.396 21.01a.53.53 0 0 1-.77-.56l.881-5.139a2.122 2.122 0 0 0-.611-1.879L2.16 9.795a.53.53 0 0 1 .294-.906l5.165-.755a2.122 2.122 0 0 0 1.597-1.16z"/>`

const starAttrs = `xmlns="http://www.w3.org/2000/svg" width="24" height="24" viewBox="0 0 24 24" stroke="currentColor" stroke-width="2" stroke-linecap="round" stroke-linejoin="round" class="fw-star-icon" aria-hidden="true"`

// DefaultTriggerIcon is the speech-bubble icon shown on the trigger button.
const DefaultTriggerIcon = `<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 22 22" width="22" height="22" fill="none" stroke="currentColor" stroke-width="2" stroke-linecap="round" stroke-linejoin="round" aria-hidden="true"><path d="M21 15a2 2 0 0 1-2 2H7l-4 4V5a2 2 0 0 1 2-2h14a2 2 0 0 1 2 2z"/></svg>`

const (
	starEmpty  template.HTML = `<svg ` + starAttrs + ` fill="none">` + starPath + `</svg>`
	starFilled template.HTML = `<svg ` + starAttrs + ` fill="currentColor">` + starPath + `</svg>`
)

var (
	iconPolicyOnce sync.Once
	iconPolicy     *bluemonday.Policy
)

// SanitizeIcon reduces raw SVG markup to the allow-listed icon subset.
// It returns an empty string unless the result is an svg element.
func SanitizeIcon(raw string) template.HTML {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return ""
	}
	cleaned := strings.TrimSpace(iconSanitizer().Sanitize(trimmed))
	if !strings.HasPrefix(cleaned, "<svg") || !strings.HasSuffix(cleaned, "</svg>") {
		return ""
	}
	return template.HTML(cleaned)
}

func starIcon(filled bool) template.HTML {
	if filled {
		return starFilled
	}
	return starEmpty
}

func iconSanitizer() *bluemonday.Policy {
	iconPolicyOnce.Do(func() {
		policy := bluemonday.StrictPolicy()
		policy.AllowElements("svg", "g", "path", "circle", "rect", "line", "polyline", "polygon", "title")

		policy.AllowAttrs(
			"xmlns", "viewBox", "width", "height", "fill", "stroke",
			"stroke-width", "stroke-linecap", "stroke-linejoin", "aria-hidden",
			"class",
		).OnElements("svg")

		for _, el := range []string{"path", "circle", "rect", "line", "polyline", "polygon"} {
			policy.AllowAttrs(
				"d", "cx", "cy", "r", "x", "y", "x1", "y1", "x2", "y2",
				"points", "rx", "ry", "fill", "stroke", "stroke-width",
				"stroke-linecap", "stroke-linejoin",
			).OnElements(el)
		}

		iconPolicy = policy
	})
	return iconPolicy
}
