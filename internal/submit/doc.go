// Package submit posts validated feedback to the collector endpoint.
//
// This package is internal to feedbackwidget. The main components are:
//
//   - [Payload]: the JSON body sent for one submission
//   - [Client]: HTTP client wrapper with connection pooling
//   - [Response]: status code, latency and error of one submission
//
// Exactly one request is made per call to [Client.Send]. There is no retry
// and no timeout beyond the transport defaults.
package submit
