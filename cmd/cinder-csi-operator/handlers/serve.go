package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/openstackops/cinder-csi-operator/internal/lifecycle"
)

var serveEvents = map[string]lifecycle.Event{
	"install":             lifecycle.EventInstall,
	"upgrade":             lifecycle.EventUpgrade,
	"config-changed":      lifecycle.EventConfigChanged,
	"credentials-changed": lifecycle.EventCredentialsChanged,
	"stop":                lifecycle.EventStop,
}

// Serve runs the long-lived HTTP endpoint. Lifecycle events arrive as
// POST /hooks/{event}; /healthz and /metrics serve probes and Prometheus.
// The server shuts down when ctx is cancelled.
func Serve(ctx context.Context, configPath, listenAddr string) error {
	s, err := newSession(configPath, true)
	if err != nil {
		return err
	}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /hooks/{event}", func(w http.ResponseWriter, r *http.Request) {
		event, ok := serveEvents[r.PathValue("event")]
		if !ok {
			http.Error(w, fmt.Sprintf("unknown event %q (valid: %s)", r.PathValue("event"), validEvents()), http.StatusBadRequest)
			return
		}

		if err := s.manager.Dispatch(r.Context(), event); err != nil {
			s.log.Error(err, "Event dispatch failed", "event", event)
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}

		state, reason := s.manager.State()
		fmt.Fprintf(w, "%s\n%s\n", state, reason)
	})
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprintln(w, "ok")
	})
	mux.Handle("GET /metrics", promhttp.Handler())
	mux.HandleFunc("GET /status", func(w http.ResponseWriter, _ *http.Request) {
		state, reason := s.manager.State()
		fmt.Fprintf(w, "%s\n%s\n", state, reason)
	})

	server := &http.Server{
		Addr:              listenAddr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.ListenAndServe()
	}()
	s.log.Info("Serving lifecycle events", "addr", listenAddr)

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("failed to shut down server: %w", err)
		}
		return nil
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	}
}

// validEvents lists the accepted hook names for error messages.
func validEvents() string {
	names := make([]string, 0, len(serveEvents))
	for name := range serveEvents {
		names = append(names, name)
	}
	sort.Strings(names)
	return strings.Join(names, ", ")
}
