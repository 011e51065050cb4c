// Package bridge turns host page markup into mounted feedback widgets.
//
// Each matching custom element gets an open declarative shadow root
// (<template shadowrootmode="open">) holding an inline copy of the widget
// stylesheet followed by the rendered widget. The element's attributes are
// normalized from kebab-case to camelCase and handed to the widget as a
// plain string map:
//
//	<feedback-widget project-id="abc123"></feedback-widget>
//
// yields Config{"projectId": "abc123"}.
package bridge
