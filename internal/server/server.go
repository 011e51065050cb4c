package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"html"
	"io/fs"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/jpalmerr/feedbackwidget/bridge"
	"github.com/jpalmerr/feedbackwidget/internal/store"
	"github.com/jpalmerr/feedbackwidget/internal/widget"
)

const (
	// sseWriteTimeout is the maximum time allowed for a single SSE write operation.
	// Must be <= shutdown timeout to ensure clean shutdown.
	sseWriteTimeout = 5 * time.Second

	// shutdownTimeout bounds graceful shutdown of in-flight requests.
	shutdownTimeout = 5 * time.Second

	// maxBodyBytes caps event and mount request bodies.
	maxBodyBytes = 64 * 1024

	// defaultTitle is used when no custom title is configured.
	defaultTitle = "Feedback Widget"

	// titlePlaceholder is the marker in the demo page replaced with the title.
	titlePlaceholder = "{{.Title}}"
)

// Server handles HTTP requests for widget assets, widget events and the
// diagnostic feed.
//
// The server is designed for graceful shutdown via context cancellation.
type Server struct {
	store      store.Store
	bridge     *bridge.Bridge
	port       int
	httpServer *http.Server
	assets     fs.FS
	title      string
	logger     *slog.Logger
}

// NewServer creates a new HTTP [Server].
//
// Parameters:
//   - st: Store holding mounted widgets and diagnostic events
//   - br: Bridge used to mount widgets into pages and /mount requests
//   - port: TCP port to listen on
//   - assets: Embedded filesystem with assets/{index.html,widget.js,widget.css} (may be nil)
//   - title: Demo page title (defaults to "Feedback Widget" if empty)
//   - logger: Logger for server events
//
// The server is not started until [Server.Start] is called.
func NewServer(st store.Store, br *bridge.Bridge, port int, assets fs.FS, title string, logger *slog.Logger) *Server {
	return &Server{
		store:  st,
		bridge: br,
		port:   port,
		assets: assets,
		title:  title,
		logger: logger,
	}
}

// Handler returns the router serving every widget route.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	if s.assets != nil {
		r.Get("/", s.handleIndex)
		r.Get("/widget.js", s.handleAsset("assets/widget.js", "application/javascript; charset=utf-8"))
		r.Get("/widget.css", s.handleAsset("assets/widget.css", "text/css; charset=utf-8"))
	}

	r.Post("/mount", s.handleMount)

	r.Route("/w/{id}", func(r chi.Router) {
		r.Post("/open", s.withWidget(s.handleOpen))
		r.Post("/close", s.withWidget(s.handleClose))
		r.Post("/field", s.withWidget(s.handleField))
		r.Post("/rating", s.withWidget(s.handleRating))
		r.Post("/submit", s.withWidget(s.handleSubmit))
	})

	r.Get("/api/diagnostics", s.handleDiagnostics)
	r.Get("/api/sse", s.handleSSE)

	return r
}

// Start begins serving HTTP requests in a background goroutine.
//
// Start is non-blocking and returns immediately after confirming the server
// is listening. The server will continue running until the context is
// cancelled, at which point it initiates a graceful shutdown with a 5-second
// timeout.
//
// Returns an error if the server fails to bind to the configured port.
func (s *Server) Start(ctx context.Context) error {
	addr := fmt.Sprintf(":%d", s.port)
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to bind to port %d: %w", s.port, err)
	}

	s.httpServer = &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		// request contexts derive from ctx so SSE handlers end on shutdown
		BaseContext: func(_ net.Listener) context.Context {
			return ctx
		},
	}

	go func() {
		if err := s.httpServer.Serve(ln); err != nil && err != http.ErrServerClosed {
			s.logger.Error("http server error", "error", err)
		}
	}()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
			s.logger.Error("http server shutdown error", "error", err)
		}
	}()

	return nil
}

// handleIndex serves the demo host page with every widget element mounted.
func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	content, err := fs.ReadFile(s.assets, "assets/index.html")
	if err != nil {
		http.Error(w, "Page not found", http.StatusInternalServerError)
		return
	}

	title := s.title
	if title == "" {
		title = defaultTitle
	}
	page := strings.ReplaceAll(string(content), titlePlaceholder, html.EscapeString(title))

	var buf bytes.Buffer
	n, err := s.bridge.Rewrite(strings.NewReader(page), &buf)
	if err != nil {
		s.logger.Error("failed to render host page", "error", err)
		http.Error(w, "Page not available", http.StatusInternalServerError)
		return
	}
	s.logger.Debug("host page rendered", "widgets", n)

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if _, err := w.Write(buf.Bytes()); err != nil {
		s.logger.Error("failed to write page response", "error", err)
	}
}

func (s *Server) handleAsset(name, contentType string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		content, err := fs.ReadFile(s.assets, name)
		if err != nil {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", contentType)
		w.Header().Set("Cache-Control", "public, max-age=3600")
		if _, err := w.Write(content); err != nil {
			s.logger.Error("failed to write asset", "asset", name, "error", err)
		}
	}
}

type mountRequest struct {
	Attributes []bridge.Attribute `json:"attributes"`
}

// handleMount renders shadow root content for an element inserted into a
// page after load.
func (s *Server) handleMount(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)

	var req mountRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		jsonErr(w, "invalid request body", http.StatusBadRequest)
		return
	}

	content, err := s.bridge.ShadowContent(bridge.ConfigFromAttributes(req.Attributes))
	if err != nil {
		s.logger.Error("failed to mount widget", "error", err)
		jsonErr(w, "internal error", http.StatusInternalServerError)
		return
	}
	writeHTML(w, http.StatusOK, []byte(content), s.logger)
}

type widgetHandler func(w http.ResponseWriter, r *http.Request, wd *widget.Widget)

// withWidget resolves the {id} path parameter to a mounted widget.
func (s *Server) withWidget(h widgetHandler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		wd, ok := s.store.Get(chi.URLParam(r, "id"))
		if !ok {
			jsonErr(w, "unknown widget", http.StatusNotFound)
			return
		}
		r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
		h(w, r, wd)
	}
}

func (s *Server) handleOpen(w http.ResponseWriter, _ *http.Request, wd *widget.Widget) {
	wd.Open()
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleClose(w http.ResponseWriter, _ *http.Request, wd *widget.Widget) {
	wd.Close()
	w.WriteHeader(http.StatusNoContent)
}

// handleField applies one field edit and returns the field's live state.
func (s *Server) handleField(w http.ResponseWriter, r *http.Request, wd *widget.Widget) {
	if err := r.ParseForm(); err != nil {
		jsonErr(w, "invalid form body", http.StatusBadRequest)
		return
	}
	field := r.PostForm.Get("field")
	if err := wd.SetField(field, r.PostForm.Get("value")); err != nil {
		if errors.Is(err, widget.ErrAlreadySubmitted) {
			jsonErr(w, err.Error(), http.StatusConflict)
			return
		}
		jsonErr(w, err.Error(), http.StatusBadRequest)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(wd.FieldState(field)); err != nil {
		s.logger.Error("failed to encode field response", "error", err)
	}
}

// handleRating selects a star and returns the re-rendered star control.
func (s *Server) handleRating(w http.ResponseWriter, r *http.Request, wd *widget.Widget) {
	if err := r.ParseForm(); err != nil {
		jsonErr(w, "invalid form body", http.StatusBadRequest)
		return
	}
	star, err := strconv.Atoi(r.PostForm.Get("star"))
	if err != nil {
		jsonErr(w, "star must be an integer", http.StatusBadRequest)
		return
	}
	if err := wd.SelectStar(star); err != nil {
		if errors.Is(err, widget.ErrAlreadySubmitted) {
			jsonErr(w, err.Error(), http.StatusConflict)
			return
		}
		jsonErr(w, err.Error(), http.StatusBadRequest)
		return
	}

	var buf bytes.Buffer
	if err := wd.RenderStars(&buf); err != nil {
		s.logger.Error("failed to render stars", "widget_id", wd.ID(), "error", err)
		jsonErr(w, "internal error", http.StatusInternalServerError)
		return
	}
	writeHTML(w, http.StatusOK, buf.Bytes(), s.logger)
}

// handleSubmit syncs any posted field values, submits, and returns the
// popover body. A failed post still answers 200 with the unchanged form.
func (s *Server) handleSubmit(w http.ResponseWriter, r *http.Request, wd *widget.Widget) {
	if err := r.ParseForm(); err != nil {
		jsonErr(w, "invalid form body", http.StatusBadRequest)
		return
	}
	for _, field := range widget.Fields {
		if _, ok := r.PostForm[field]; !ok {
			continue
		}
		if err := wd.SetField(field, r.PostForm.Get(field)); err != nil && !errors.Is(err, widget.ErrAlreadySubmitted) {
			jsonErr(w, err.Error(), http.StatusBadRequest)
			return
		}
	}

	// The post outlives the browser request: leaving the page does not abort it.
	status := http.StatusOK
	err := wd.Submit(context.WithoutCancel(r.Context()))
	switch {
	case err == nil, errors.Is(err, widget.ErrAlreadySubmitted):
	case errors.Is(err, widget.ErrInvalid):
		status = http.StatusUnprocessableEntity
	case errors.Is(err, widget.ErrSubmitInFlight):
		status = http.StatusConflict
	default:
		// already reported on the diagnostic channel
	}

	var buf bytes.Buffer
	if err := wd.RenderBody(&buf); err != nil {
		s.logger.Error("failed to render widget body", "widget_id", wd.ID(), "error", err)
		jsonErr(w, "internal error", http.StatusInternalServerError)
		return
	}
	writeHTML(w, status, buf.Bytes(), s.logger)
}

// handleDiagnostics returns recent submission attempts as JSON.
func (s *Server) handleDiagnostics(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-cache")

	if err := json.NewEncoder(w).Encode(s.store.Recent()); err != nil {
		s.logger.Error("failed to encode diagnostics response", "error", err)
	}
}

// handleSSE streams submission attempts via Server-Sent Events.
//
// Writes carry a deadline so a slow or vanished client cannot pin the
// handler past shutdown.
func (s *Server) handleSSE(w http.ResponseWriter, r *http.Request) {
	if _, ok := w.(http.Flusher); !ok {
		http.Error(w, "SSE not supported", http.StatusInternalServerError)
		return
	}

	rc := http.NewResponseController(w)
	deadlinesSupported := true

	writeAndFlush := func(data []byte) error {
		if deadlinesSupported {
			if err := rc.SetWriteDeadline(time.Now().Add(sseWriteTimeout)); err != nil {
				s.logger.Warn("sse write deadlines not supported", "error", err)
				deadlinesSupported = false
			}
		}

		if _, err := fmt.Fprintf(w, "data: %s\n\n", data); err != nil {
			return err
		}
		return rc.Flush()
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	ch := s.store.Subscribe()
	defer s.store.Unsubscribe(ch)

	for _, ev := range s.store.Recent() {
		data, err := json.Marshal(ev)
		if err != nil {
			continue
		}
		if err := writeAndFlush(data); err != nil {
			return
		}
	}

	for {
		select {
		case ev, ok := <-ch:
			if !ok {
				return
			}
			data, err := json.Marshal(ev)
			if err != nil {
				continue
			}
			if err := writeAndFlush(data); err != nil {
				return
			}

		case <-r.Context().Done():
			// fires on client disconnect and on server shutdown
			return
		}
	}
}

func writeHTML(w http.ResponseWriter, status int, body []byte, logger *slog.Logger) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if _, err := w.Write(body); err != nil {
		logger.Error("failed to write html response", "error", err)
	}
}

func jsonErr(w http.ResponseWriter, msg string, code int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
