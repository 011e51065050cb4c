package main

import (
	"encoding/json"
	"log/slog"
	"math/rand"
	"net/http"
	"time"
)

// feedback is the body the widget posts.
type feedback struct {
	ProjectID string `json:"projectId"`
	UserName  string `json:"userName"`
	UserEmail string `json:"userEmail"`
	Message   string `json:"message"`
	Rating    int    `json:"rating"`
}

// StartMockCollector runs a feedback collector that accepts most submissions
// and answers 503 to roughly one in five, so both outcomes show up on the
// diagnostics feed. Call this in a goroutine before starting the widget.
func StartMockCollector(addr string) {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /feedback/addFeedback", func(w http.ResponseWriter, r *http.Request) {
		// simulate small latency variance
		time.Sleep(time.Duration(50+rand.Intn(250)) * time.Millisecond)

		var fb feedback
		if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 64<<10)).Decode(&fb); err != nil {
			http.Error(w, "invalid JSON", http.StatusBadRequest)
			return
		}

		if rand.Intn(5) == 0 {
			slog.Warn("collector refusing feedback", "project_id", fb.ProjectID, "user", fb.UserName)
			http.Error(w, "try again later", http.StatusServiceUnavailable)
			return
		}

		slog.Info("feedback received",
			"project_id", fb.ProjectID,
			"user", fb.UserName,
			"email", fb.UserEmail,
			"rating", fb.Rating,
			"message", fb.Message,
		)
		w.WriteHeader(http.StatusCreated)
	})

	if err := http.ListenAndServe(addr, mux); err != nil {
		slog.Error("mock collector error", "error", err)
	}
}
