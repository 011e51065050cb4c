// Standalone mock feedback collector for trying the CLI.
//
// Usage:
//
//	go run ./example/cmd/mockcollector
//
// Then in another terminal:
//
//	go run ./cmd/feedbackwidget serve -c example/config.yaml
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"sync/atomic"
)

func main() {
	addr := flag.String("addr", ":4000", "listen address")
	status := flag.Int("status", http.StatusCreated, "status code answered to every submission")
	flag.Parse()

	fmt.Printf("Mock collector listening on %s, answering %d\n", *addr, *status)
	fmt.Println("Press Ctrl+C to stop")
	fmt.Println()

	var count atomic.Int64
	http.HandleFunc("POST /feedback/addFeedback", func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 64<<10)).Decode(&body); err != nil {
			http.Error(w, "invalid JSON", http.StatusBadRequest)
			return
		}
		slog.Info("feedback received",
			"n", count.Add(1),
			"api_key", r.Header.Get("X-Api-Key"),
			"body", body,
		)
		w.WriteHeader(*status)
	})

	if err := http.ListenAndServe(*addr, nil); err != nil {
		slog.Error("server error", "error", err)
		os.Exit(1)
	}
}
