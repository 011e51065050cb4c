// Package widget implements the feedback form shown inside each mounted
// element.
//
// A [Widget] is created per mount from the host configuration. It moves
// through four states:
//
//	closed -> editing -> submitting -> submitted
//	             ^            |
//	             +------------+  (network failure or non-2xx)
//
// Field edits re-validate only the edited field; Submit validates all of
// them with the schema on [Values] and posts one payload through a
// [Sender]. Failures of the post are logged and never attached to the form.
//
// [Renderer] produces the markup: trigger button, popover, form, star
// control and thank-you block.
package widget
