package submit

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

// DefaultEndpoint is the feedback collector the widget posts to unless
// configured otherwise.
const DefaultEndpoint = "http://localhost:4000/feedback/addFeedback"

// maxDrainSize bounds how much of a response body is read (and discarded)
// so the connection can go back to the pool.
const maxDrainSize = 1 << 20 // 1MB

// connection pooling limits; widgets on one host all post to the same collector
const (
	defaultMaxIdleConns        = 100
	defaultMaxIdleConnsPerHost = 10
	defaultIdleConnTimeout     = 60 * time.Second
)

// Payload is the JSON body posted to the feedback collector.
//
// ProjectID is omitted when the host element carried no project-id attribute.
type Payload struct {
	ProjectID string `json:"projectId,omitempty"`
	UserName  string `json:"userName"`
	UserEmail string `json:"userEmail"`
	Message   string `json:"message"`
	Rating    int    `json:"rating"`
}

// StatusError reports a response outside the 2xx range.
type StatusError struct {
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("collector responded with status %d", e.Code)
}

// Response holds the result of a single submission made by [Client].
type Response struct {
	// StatusCode is the HTTP status code. Zero if the request failed before
	// receiving a response.
	StatusCode int

	// Latency is the total time taken for the request.
	Latency time.Duration

	// Error is set when the request could not be completed, or when the
	// collector answered with a non-2xx status (as a *StatusError).
	Error error
}

// OK reports whether the collector accepted the submission.
func (r Response) OK() bool {
	return r.Error == nil && r.StatusCode >= 200 && r.StatusCode < 300
}

// Rejected reports whether the collector answered with a non-2xx status.
func (r Response) Rejected() bool {
	var se *StatusError
	return errors.As(r.Error, &se)
}

// Client posts feedback payloads to a fixed collector endpoint.
//
// No client timeout is configured: a submission waits as long as the
// transport allows. There is no retry.
type Client struct {
	httpClient *http.Client
	endpoint   string
	headers    map[string]string
}

// NewClient creates a [Client] posting to endpoint. An empty endpoint means
// [DefaultEndpoint]. Headers are added to every request after Content-Type.
func NewClient(endpoint string, headers map[string]string) *Client {
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}
	hdrs := make(map[string]string, len(headers))
	for k, v := range headers {
		hdrs[k] = v
	}
	return &Client{
		httpClient: &http.Client{
			Transport: &http.Transport{
				Proxy:               http.ProxyFromEnvironment,
				MaxIdleConns:        defaultMaxIdleConns,
				MaxIdleConnsPerHost: defaultMaxIdleConnsPerHost,
				IdleConnTimeout:     defaultIdleConnTimeout,
			},
		},
		endpoint: endpoint,
		headers:  hdrs,
	}
}

// Endpoint returns the collector URL.
func (c *Client) Endpoint() string {
	return c.endpoint
}

// Send posts p as JSON and returns a structured [Response].
//
// Send always returns a Response; errors are captured in the Error field.
// The response body is drained but never interpreted.
func (c *Client) Send(ctx context.Context, p Payload) Response {
	start := time.Now()

	body, err := json.Marshal(p)
	if err != nil {
		return Response{
			Latency: time.Since(start),
			Error:   fmt.Errorf("failed to encode payload: %w", err),
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return Response{
			Latency: time.Since(start),
			Error:   fmt.Errorf("failed to create request: %w", err),
		}
	}
	req.Header.Set("Content-Type", "application/json")
	for key, value := range c.headers {
		req.Header.Set(key, value)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return Response{
			Latency: time.Since(start),
			Error:   fmt.Errorf("request failed: %w", err),
		}
	}
	defer func() { _ = resp.Body.Close() }()

	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxDrainSize))

	out := Response{
		StatusCode: resp.StatusCode,
		Latency:    time.Since(start),
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		out.Error = &StatusError{Code: resp.StatusCode}
	}
	return out
}

// Close closes all idle connections in the client's connection pool.
//
// Safe to call multiple times. After Close, the client remains usable but
// new connections will be established as needed.
func (c *Client) Close() {
	if c == nil || c.httpClient == nil {
		return
	}
	if transport, ok := c.httpClient.Transport.(*http.Transport); ok {
		transport.CloseIdleConnections()
	}
}
