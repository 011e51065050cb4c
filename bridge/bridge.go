package bridge

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"regexp"
	"strings"

	"golang.org/x/net/html"
)

// DefaultTagName is the custom element name the bridge mounts into.
const DefaultTagName = "feedback-widget"

var (
	dashLetter = regexp.MustCompile(`-([a-z])`)

	// Valid custom element names: lowercase, start with a letter, contain a hyphen.
	tagNamePattern = regexp.MustCompile(`^[a-z][a-z0-9._]*-[a-z0-9._-]*$`)
)

// NormalizeAttribute converts a kebab-case attribute name to camelCase.
// Every "-" immediately followed by a lowercase ASCII letter is removed and
// the letter upper-cased, in a single left-to-right pass: "project-id"
// becomes "projectId", "a--b" becomes "a-B".
func NormalizeAttribute(name string) string {
	return dashLetter.ReplaceAllStringFunc(name, func(m string) string {
		return strings.ToUpper(m[1:])
	})
}

// Attribute is one host element attribute as written in the markup.
type Attribute struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// Config is the host configuration passed to a widget: normalized attribute
// names mapped to their raw string values. It is built once at mount and
// never updated.
type Config map[string]string

// ConfigFromAttributes builds a Config in attribute order; when two names
// normalize to the same key the later one wins.
func ConfigFromAttributes(attrs []Attribute) Config {
	cfg := make(Config, len(attrs))
	for _, a := range attrs {
		cfg[NormalizeAttribute(a.Name)] = a.Value
	}
	return cfg
}

func attributesOf(n *html.Node) []Attribute {
	attrs := make([]Attribute, 0, len(n.Attr))
	for _, a := range n.Attr {
		name := a.Key
		if a.Namespace != "" {
			name = a.Namespace + ":" + a.Key
		}
		attrs = append(attrs, Attribute{Name: name, Value: a.Val})
	}
	return attrs
}

// RenderFunc renders the widget for one host configuration.
type RenderFunc func(w io.Writer, cfg Config) error

// Option configures a Bridge.
type Option func(*Bridge) error

// WithTagName sets the custom element name to mount into.
func WithTagName(name string) Option {
	return func(b *Bridge) error {
		if !tagNamePattern.MatchString(name) {
			return fmt.Errorf("invalid custom element name %q: must be lowercase and contain a hyphen", name)
		}
		b.tagName = name
		return nil
	}
}

// WithStylesheet sets the CSS injected at the top of each isolated subtree.
func WithStylesheet(css string) Option {
	return func(b *Bridge) error {
		b.stylesheet = css
		return nil
	}
}

// WithLogger sets the logger used for mount failures.
func WithLogger(logger *slog.Logger) Option {
	return func(b *Bridge) error {
		if logger == nil {
			return errors.New("logger cannot be nil")
		}
		b.logger = logger
		return nil
	}
}

// Bridge mounts widgets into host elements.
type Bridge struct {
	tagName    string
	stylesheet string
	render     RenderFunc
	logger     *slog.Logger
}

// New creates a Bridge that renders widgets with render.
func New(render RenderFunc, opts ...Option) (*Bridge, error) {
	if render == nil {
		return nil, errors.New("render function cannot be nil")
	}
	b := &Bridge{
		tagName: DefaultTagName,
		render:  render,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		if err := opt(b); err != nil {
			return nil, err
		}
	}
	return b, nil
}

// TagName returns the custom element name the bridge mounts into.
func (b *Bridge) TagName() string {
	return b.tagName
}

// ShadowContent renders the isolated subtree content for cfg: the inline
// stylesheet followed by the widget markup.
func (b *Bridge) ShadowContent(cfg Config) (string, error) {
	var buf bytes.Buffer
	buf.WriteString("<style>")
	buf.WriteString(b.stylesheet)
	buf.WriteString("</style>")
	if err := b.render(&buf, cfg); err != nil {
		return "", fmt.Errorf("render widget: %w", err)
	}
	return buf.String(), nil
}

// hasShadowRoot reports whether n already carries a declarative shadow root.
func hasShadowRoot(n *html.Node) bool {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type != html.ElementNode || c.Data != "template" {
			continue
		}
		for _, a := range c.Attr {
			if a.Key == "shadowrootmode" || a.Key == "shadowroot" {
				return true
			}
		}
	}
	return false
}

// Mount attaches an open declarative shadow root to n and renders a widget
// into it, configured from n's attributes.
//
// When n already has a shadow root nothing is rendered and Mount returns
// false with a nil error. On a render error n is left unchanged.
func (b *Bridge) Mount(n *html.Node) (bool, error) {
	if n == nil || n.Type != html.ElementNode {
		return false, errors.New("mount target is not an element")
	}
	if hasShadowRoot(n) {
		b.logger.Debug("element already has a shadow root, skipping", "tag", n.Data)
		return false, nil
	}

	content, err := b.ShadowContent(ConfigFromAttributes(attributesOf(n)))
	if err != nil {
		return false, err
	}

	tmpl := &html.Node{
		Type: html.ElementNode,
		Data: "template",
		Attr: []html.Attribute{{Key: "shadowrootmode", Val: "open"}},
	}
	tmpl.AppendChild(&html.Node{Type: html.RawNode, Data: content})

	if n.FirstChild != nil {
		n.InsertBefore(tmpl, n.FirstChild)
	} else {
		n.AppendChild(tmpl)
	}
	return true, nil
}

// Rewrite parses a host page from r, mounts a widget into every element
// with the bridge's tag name and writes the page to w. It returns the
// number of widgets mounted. Elements that fail to mount are logged and
// left as they were.
func (b *Bridge) Rewrite(r io.Reader, w io.Writer) (int, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return 0, fmt.Errorf("parse host page: %w", err)
	}

	var targets []*html.Node
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && n.Data == b.tagName {
			targets = append(targets, n)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)

	mounted := 0
	for _, n := range targets {
		ok, err := b.Mount(n)
		if err != nil {
			b.logger.Error("failed to mount widget", "tag", b.tagName, "error", err)
			continue
		}
		if ok {
			mounted++
		}
	}

	if err := html.Render(w, doc); err != nil {
		return mounted, fmt.Errorf("render host page: %w", err)
	}
	return mounted, nil
}
