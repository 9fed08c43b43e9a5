package dockerd

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/url"

	"github.com/santosh0705/proxngin/internal/domain"
	"github.com/santosh0705/proxngin/internal/transport"
)

// eventFilter selects the lifecycle transitions that change the set of
// routable containers, server side.
const eventFilter = `{"event":["start","die","stop"]}`

// Watcher opens long-lived event streams against the daemon socket.
type Watcher struct {
	socketPath string
	logger     *slog.Logger
}

// NewWatcher returns an event watcher for the daemon socket.
func NewWatcher(socketPath string, logger *slog.Logger) *Watcher {
	if logger != nil {
		logger = logger.With("component", "dockerd")
	}
	return &Watcher{socketPath: socketPath, logger: logger}
}

// Stream is one held-open event subscription. It is good for a single
// connection lifetime: once Next fails the stream must be abandoned and a
// fresh one opened.
type Stream struct {
	client *transport.Client
	resp   *transport.Response
}

// OpenStream issues the long-lived GET against the event endpoint with an
// unbounded read timeout. A non-2xx initial response fails with StatusError.
func (w *Watcher) OpenStream(ctx context.Context) (*Stream, error) {
	client, err := transport.Dial(ctx, w.socketPath, 0)
	if err != nil {
		return nil, err
	}
	path := "/events?filters=" + url.QueryEscape(eventFilter)
	if err := client.Request(path); err != nil {
		client.Close()
		return nil, err
	}
	resp, err := client.ReadStatusAndHeaders()
	if err != nil {
		client.Close()
		return nil, err
	}
	if !resp.OK() {
		client.Close()
		return nil, &StatusError{Op: "watch events", Code: resp.Code}
	}
	if w.logger != nil {
		w.logger.Debug("event stream opened", "path", path)
	}
	return &Stream{client: client, resp: resp}, nil
}

// Next blocks until one complete event payload arrives, applying the body
// framing rule per logical message. It never signals end-of-stream under
// normal operation; an error means the connection dropped and the stream
// is finished.
func (s *Stream) Next() (domain.Event, error) {
	payload, err := s.client.ReadBody(s.resp)
	if err != nil {
		return domain.Event{}, err
	}
	var event domain.Event
	if err := json.Unmarshal(payload, &event); err != nil {
		return domain.Event{}, fmt.Errorf("decode event: %w", err)
	}
	return event, nil
}

// Close releases the underlying connection.
func (s *Stream) Close() error {
	return s.client.Close()
}
