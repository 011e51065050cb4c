package submit

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/http/httptrace"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestClient_SendPostsJSON(t *testing.T) {
	var (
		gotMethod string
		gotType   string
		gotKey    string
		gotBody   map[string]any
	)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		gotType = r.Header.Get("Content-Type")
		gotKey = r.Header.Get("X-Api-Key")
		_ = json.NewDecoder(r.Body).Decode(&gotBody)
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"ignored":true}`))
	}))
	defer server.Close()

	client := NewClient(server.URL+"/feedback/addFeedback", map[string]string{"X-Api-Key": "k1"})
	resp := client.Send(context.Background(), Payload{
		ProjectID: "abc123",
		UserName:  "Jo",
		UserEmail: "jo@x.com",
		Message:   "Great!",
		Rating:    4,
	})

	if !resp.OK() {
		t.Fatalf("expected OK response, got %+v", resp)
	}
	if resp.StatusCode != http.StatusCreated {
		t.Errorf("StatusCode = %d, want 201", resp.StatusCode)
	}
	if gotMethod != http.MethodPost {
		t.Errorf("method = %q, want POST", gotMethod)
	}
	if gotType != "application/json" {
		t.Errorf("Content-Type = %q, want application/json", gotType)
	}
	if gotKey != "k1" {
		t.Errorf("X-Api-Key = %q, want k1", gotKey)
	}

	want := map[string]any{
		"projectId": "abc123",
		"userName":  "Jo",
		"userEmail": "jo@x.com",
		"message":   "Great!",
		"rating":    float64(4),
	}
	if diff := cmp.Diff(want, gotBody); diff != "" {
		t.Errorf("posted body mismatch (-want +got):\n%s", diff)
	}
}

func TestClient_SendOmitsEmptyProjectID(t *testing.T) {
	var raw string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b, _ := io.ReadAll(r.Body)
		raw = string(b)
	}))
	defer server.Close()

	resp := NewClient(server.URL, nil).Send(context.Background(), Payload{UserName: "Jo", Rating: 3})
	if !resp.OK() {
		t.Fatalf("expected OK, got %+v", resp)
	}
	if strings.Contains(raw, "projectId") {
		t.Errorf("body should omit projectId, got %s", raw)
	}
}

func TestClient_SendNonSuccessStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer server.Close()

	resp := NewClient(server.URL, nil).Send(context.Background(), Payload{})
	if resp.OK() {
		t.Fatal("400 response should not be OK")
	}
	if !resp.Rejected() {
		t.Errorf("400 response should be Rejected, got error %v", resp.Error)
	}

	var se *StatusError
	if !errors.As(resp.Error, &se) || se.Code != http.StatusBadRequest {
		t.Errorf("expected *StatusError with code 400, got %v", resp.Error)
	}
}

func TestClient_SendTransportFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := server.URL
	server.Close()

	resp := NewClient(url, nil).Send(context.Background(), Payload{})
	if resp.Error == nil {
		t.Fatal("expected transport error")
	}
	if resp.Rejected() {
		t.Error("transport failure must not be reported as Rejected")
	}
	if resp.StatusCode != 0 {
		t.Errorf("StatusCode = %d, want 0", resp.StatusCode)
	}
	if !strings.Contains(resp.Error.Error(), "request failed") {
		t.Errorf("error should mention 'request failed', got %v", resp.Error)
	}
}

func TestClient_SendExactlyOnce(t *testing.T) {
	var hits atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	_ = NewClient(server.URL, nil).Send(context.Background(), Payload{})
	if got := hits.Load(); got != 1 {
		t.Errorf("collector hit %d times, want exactly 1 (no retry)", got)
	}
}

func TestClient_DefaultEndpoint(t *testing.T) {
	c := NewClient("", nil)
	if c.Endpoint() != DefaultEndpoint {
		t.Errorf("Endpoint() = %q, want %q", c.Endpoint(), DefaultEndpoint)
	}
}

// TestClient_ConnectionReuse verifies that draining the body lets sequential
// submissions reuse the pooled connection.
func TestClient_ConnectionReuse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("ok"))
	}))
	defer server.Close()

	client := NewClient(server.URL, nil)

	var reusedCount int
	trace := &httptrace.ClientTrace{
		GotConn: func(info httptrace.GotConnInfo) {
			if info.Reused {
				reusedCount++
			}
		},
	}

	const numRequests = 5
	for i := 0; i < numRequests; i++ {
		ctx := httptrace.WithClientTrace(context.Background(), trace)
		if resp := client.Send(ctx, Payload{}); resp.Error != nil {
			t.Fatalf("request %d failed: %v", i, resp.Error)
		}
	}

	if expectedMinReuse := numRequests - 2; reusedCount < expectedMinReuse {
		t.Errorf("expected at least %d reused connections, got %d", expectedMinReuse, reusedCount)
	}
}

func TestClient_Close(t *testing.T) {
	client := NewClient("", nil)
	client.Close()
	client.Close()

	var nilClient *Client
	nilClient.Close()
}
