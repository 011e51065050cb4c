// Package web provides the embedded browser assets for the feedback widget.
//
// The assets are compiled into the binary and served by the server package,
// so a deployment is a single file.
package web

import "embed"

// Assets is an embedded filesystem containing the widget web assets.
//
// The filesystem structure is:
//
//	assets/
//	  index.html  - Demo host page with a feedback-widget element
//	  widget.js   - Custom element forwarding user events to the server
//	  widget.css  - Widget stylesheet, also injected inline into each widget
//
//go:embed assets/*
var Assets embed.FS

// Stylesheet is the widget stylesheet injected into every mounted widget.
//
//go:embed assets/widget.css
var Stylesheet string
