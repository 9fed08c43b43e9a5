package httpx

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/santosh0705/proxngin/internal/domain"
	"github.com/santosh0705/proxngin/internal/ws"
)

func testObserver() *Observer {
	logger := slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{}))
	return NewObserver(logger, ws.NewHub())
}

func getHealth(t *testing.T, o *Observer) (int, map[string]any) {
	t.Helper()
	rec := httptest.NewRecorder()
	o.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	var payload map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decode health payload: %v", err)
	}
	return rec.Code, payload
}

func TestHealthWaitingBeforeFirstPass(t *testing.T) {
	o := testObserver()
	code, payload := getHealth(t, o)
	if code != http.StatusOK {
		t.Fatalf("expected 200, got %d", code)
	}
	if payload["status"] != "ok" {
		t.Fatalf("expected ok status, got %v", payload["status"])
	}
}

func TestHealthReflectsLastPass(t *testing.T) {
	o := testObserver()

	o.PassCompleted(domain.PassResult{PassID: "p1", Matched: 2, CompletedAt: time.Now().UTC()})
	code, payload := getHealth(t, o)
	if code != http.StatusOK || payload["status"] != "ok" {
		t.Fatalf("expected healthy after a good pass, got %d %v", code, payload)
	}

	o.PassCompleted(domain.PassResult{PassID: "p2", Error: "list running containers: daemon unreachable", CompletedAt: time.Now().UTC()})
	code, payload = getHealth(t, o)
	if code != http.StatusServiceUnavailable || payload["status"] != "degraded" {
		t.Fatalf("expected degraded after a failed pass, got %d %v", code, payload)
	}
}

func TestMetricsEndpointServes(t *testing.T) {
	o := testObserver()
	o.PassCompleted(domain.PassResult{PassID: "p1"})
	o.EventReceived("start")
	o.StreamRetry()

	rec := httptest.NewRecorder()
	o.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 from /metrics, got %d", rec.Code)
	}
	if rec.Body.Len() == 0 {
		t.Fatal("expected metric exposition output")
	}
}

// sseRecorder is a flusher-capable response writer safe to read while the
// events handler keeps writing from its own goroutine.
type sseRecorder struct {
	mu     sync.Mutex
	header http.Header
	buf    bytes.Buffer
}

func newSSERecorder() *sseRecorder {
	return &sseRecorder{header: make(http.Header)}
}

func (r *sseRecorder) Header() http.Header { return r.header }

func (r *sseRecorder) Write(p []byte) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.buf.Write(p)
}

func (r *sseRecorder) WriteHeader(int) {}

func (r *sseRecorder) Flush() {}

func (r *sseRecorder) body() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.buf.String()
}

func TestEventsStreamDeliversPassResults(t *testing.T) {
	o := testObserver()
	rec := newSSERecorder()
	req := httptest.NewRequest(http.MethodGet, "/events", nil)
	ctx, cancel := context.WithCancel(req.Context())
	defer cancel()
	req = req.WithContext(ctx)

	done := make(chan struct{})
	go func() {
		o.ServeHTTP(rec, req)
		close(done)
	}()

	// Registration happens on the handler goroutine; keep publishing the
	// same pass until its frame shows up.
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		o.PassCompleted(domain.PassResult{PassID: "p1", Matched: 1})
		if strings.Contains(rec.body(), `"pass_id":"p1"`) {
			break
		}
		time.Sleep(5 * time.Millisecond)
	}

	body := rec.body()
	if !strings.Contains(body, "data: ") || !strings.Contains(body, `"pass_id":"p1"`) {
		t.Fatalf("expected an SSE data frame carrying the pass result, got %q", body)
	}
	if got := rec.Header().Get("Content-Type"); got != "text/event-stream" {
		t.Fatalf("Content-Type = %q, want text/event-stream", got)
	}

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("events handler did not return after the client went away")
	}
}

func TestEventsRejectsNonGet(t *testing.T) {
	o := testObserver()
	rec := httptest.NewRecorder()
	o.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/events", nil))
	if rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected 405, got %d", rec.Code)
	}
}

type failingWriter struct {
	header http.Header
}

func (w *failingWriter) Header() http.Header {
	if w.header == nil {
		w.header = make(http.Header)
	}
	return w.header
}

func (w *failingWriter) Write([]byte) (int, error) { return 0, io.ErrClosedPipe }

func (w *failingWriter) WriteHeader(int) {}

func TestWriteJSONLogsEncodeFailure(t *testing.T) {
	var logs bytes.Buffer
	o := NewObserver(slog.New(slog.NewTextHandler(&logs, &slog.HandlerOptions{})), ws.NewHub())

	o.writeJSON(&failingWriter{}, http.StatusOK, map[string]any{"status": "ok"})

	if !strings.Contains(logs.String(), "failed to encode response") {
		t.Fatalf("expected encode failure to be logged, got %q", logs.String())
	}
}

func TestHealthRejectsNonGet(t *testing.T) {
	o := testObserver()
	rec := httptest.NewRecorder()
	o.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/healthz", nil))
	if rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected 405, got %d", rec.Code)
	}
}
