// Package httpx exposes the optional observer endpoint: prometheus
// metrics, a health probe reflecting the last reconciliation pass, and a
// live SSE feed of pass results. It never touches the output directory.
package httpx

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"time"

	"log/slog"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/santosh0705/proxngin/internal/domain"
	"github.com/santosh0705/proxngin/internal/ws"
)

const heartbeatInterval = 30 * time.Second

// Observer collects pass and event activity and serves it over HTTP.
type Observer struct {
	mux    *http.ServeMux
	logger *slog.Logger
	hub    *ws.Hub

	mu       sync.Mutex
	lastPass *domain.PassResult

	metricsOnce        sync.Once
	metricsInitialized bool
	passesTotal        *prometheus.CounterVec
	passDuration       prometheus.Histogram
	eventsTotal        *prometheus.CounterVec
	streamRetries      prometheus.Counter
}

// NewObserver creates and registers handlers.
func NewObserver(logger *slog.Logger, hub *ws.Hub) *Observer {
	o := &Observer{
		mux:    http.NewServeMux(),
		logger: logger.With("component", "observer"),
		hub:    hub,
	}
	o.initMetrics()
	o.routes()
	return o
}

// ServeHTTP satisfies http.Handler.
func (o *Observer) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	o.mux.ServeHTTP(w, req)
}

func (o *Observer) routes() {
	o.mux.HandleFunc("/metrics", promhttp.Handler().ServeHTTP)
	o.mux.HandleFunc("/healthz", o.handleHealth)
	o.mux.HandleFunc("/events", o.handleEvents)
}

// PassCompleted records one pass result and pushes it to SSE observers.
func (o *Observer) PassCompleted(result domain.PassResult) {
	o.mu.Lock()
	o.lastPass = &result
	o.mu.Unlock()
	o.recordPass(result)
	if o.hub != nil {
		if payload, err := json.Marshal(result); err == nil {
			o.hub.Broadcast(payload)
		}
	}
}

// EventReceived counts one container lifecycle event.
func (o *Observer) EventReceived(action string) {
	o.recordEvent(action)
}

// StreamRetry counts one event-stream reconnect.
func (o *Observer) StreamRetry() {
	o.recordRetry()
}

func (o *Observer) handleHealth(w http.ResponseWriter, req *http.Request) {
	if req.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	o.mu.Lock()
	last := o.lastPass
	o.mu.Unlock()

	status := "ok"
	component := map[string]any{"status": "waiting"}
	code := http.StatusOK
	if last != nil {
		component = map[string]any{
			"status":       "up",
			"completed_at": last.CompletedAt.Format(time.RFC3339Nano),
			"matched":      last.Matched,
		}
		if !last.OK() {
			status = "degraded"
			component["status"] = "down"
			component["error"] = last.Error
			code = http.StatusServiceUnavailable
		}
	}
	payload := map[string]any{
		"status": status,
		"components": map[string]any{
			"reconciler": component,
		},
		"timestamp": time.Now().UTC().Format(time.RFC3339Nano),
	}
	o.writeJSON(w, code, payload)
}

func (o *Observer) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		o.logger.Error("failed to encode response", "error", err)
	}
}

func (o *Observer) handleEvents(w http.ResponseWriter, req *http.Request) {
	if req.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	flusher, ok := w.(http.Flusher)
	if !ok || o.hub == nil {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	flusher.Flush()

	client := ws.NewSSEClient(w, flusher, o.logger)
	o.hub.Register(client)
	defer func() {
		o.hub.Unregister(client)
		client.Close()
	}()

	ticker := time.NewTicker(heartbeatInterval)
	defer ticker.Stop()
	for {
		select {
		case <-req.Context().Done():
			return
		case <-ticker.C:
			if err := client.Heartbeat(); err != nil {
				return
			}
		}
	}
}

// Serve runs the observer server until ctx is cancelled.
func (o *Observer) Serve(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           o,
		ReadHeaderTimeout: 5 * time.Second,
	}
	errorCh := make(chan error, 1)
	go func() {
		o.logger.Info("observer listening", "addr", addr)
		errorCh <- srv.ListenAndServe()
	}()
	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errorCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}
}
