// Package dockerd speaks to the Docker daemon's control-plane API over its
// unix socket using the raw transport client: container listing and
// inspection for reconciliation, and the long-lived lifecycle event stream.
package dockerd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/santosh0705/proxngin/internal/domain"
	"github.com/santosh0705/proxngin/internal/transport"
)

// runningFilter selects only containers in the running state, server side.
const runningFilter = `{"status":["running"]}`

// summaryPayload mirrors the daemon's container listing entries.
type summaryPayload struct {
	ID     string   `json:"Id"`
	Names  []string `json:"Names"`
	Status string   `json:"Status"`
}

// inspectPayload mirrors the subset of the daemon's inspect document the
// render context needs.
type inspectPayload struct {
	ID     string `json:"Id"`
	Name   string `json:"Name"`
	Config struct {
		Hostname   string `json:"Hostname"`
		Domainname string `json:"Domainname"`
	} `json:"Config"`
	NetworkSettings struct {
		IPAddress string `json:"IPAddress"`
	} `json:"NetworkSettings"`
}

// Query issues short-lived control-plane requests, one connection each.
type Query struct {
	socketPath string
	timeout    time.Duration
	logger     *slog.Logger
}

// NewQuery returns a control-plane query client for the daemon socket.
func NewQuery(socketPath string, timeout time.Duration, logger *slog.Logger) *Query {
	if logger != nil {
		logger = logger.With("component", "dockerd")
	}
	return &Query{socketPath: socketPath, timeout: timeout, logger: logger}
}

// ListRunning fetches the running-container set. A non-2xx status fails the
// whole call with a StatusError carrying the code.
func (q *Query) ListRunning(ctx context.Context) ([]domain.ContainerSummary, error) {
	path := "/containers/json?filters=" + url.QueryEscape(runningFilter)
	body, err := q.get(ctx, path, "list containers")
	if err != nil {
		return nil, err
	}

	var payload []summaryPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("decode container list: %w", err)
	}
	summaries := make([]domain.ContainerSummary, 0, len(payload))
	for _, p := range payload {
		summaries = append(summaries, domain.ContainerSummary{
			ID:     p.ID,
			Names:  p.Names,
			Status: p.Status,
		})
	}
	return summaries, nil
}

// Inspect fetches one container's detail snapshot. A non-2xx status is
// reported as ErrContainerGone, the skip signal for reconciliation.
func (q *Query) Inspect(ctx context.Context, containerID string) (*domain.ContainerDetail, error) {
	body, err := q.get(ctx, "/containers/"+containerID+"/json", "inspect container")
	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		if q.logger != nil {
			q.logger.Debug("container detail unavailable", "container_id", containerID, "status", statusErr.Code)
		}
		return nil, fmt.Errorf("%w: %s", ErrContainerGone, containerID)
	}
	if err != nil {
		return nil, err
	}

	var payload inspectPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("decode container detail: %w", err)
	}
	return &domain.ContainerDetail{
		ID:         payload.ID,
		Name:       strings.TrimPrefix(payload.Name, "/"),
		IPAddress:  payload.NetworkSettings.IPAddress,
		Hostname:   payload.Config.Hostname,
		Domainname: payload.Config.Domainname,
	}, nil
}

// get runs one full request/response cycle on a fresh connection.
func (q *Query) get(ctx context.Context, path, op string) ([]byte, error) {
	client, err := transport.Dial(ctx, q.socketPath, q.timeout)
	if err != nil {
		return nil, err
	}
	defer client.Close()

	if err := client.Request(path); err != nil {
		return nil, err
	}
	resp, err := client.ReadStatusAndHeaders()
	if err != nil {
		return nil, err
	}
	if !resp.OK() {
		return nil, &StatusError{Op: op, Code: resp.Code}
	}
	return client.ReadBody(resp)
}
