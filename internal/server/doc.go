// Package server provides the HTTP surface of the feedback widget.
//
// It handles:
//
//   - Assets: the demo host page at "/", plus "/widget.js" and "/widget.css"
//   - Mounting: "/mount" renders shadow root content for a set of attributes
//   - Widget events: "/w/{id}/open", "close", "field", "rating" and "submit"
//   - Diagnostics: "/api/diagnostics" (JSON) and "/api/sse" (Server-Sent Events)
//
// The server supports graceful shutdown via context cancellation, with a
// 5-second timeout for in-flight requests.
package server
