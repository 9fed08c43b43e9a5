// Package watch drives the proxngin lifecycle: one warm-up rebuild, then a
// blocking event loop against the daemon socket with reconnect and backoff.
package watch

import (
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/santosh0705/proxngin/internal/domain"
	"github.com/santosh0705/proxngin/pkg/config"
)

// Rebuilder runs one reconciliation pass.
type Rebuilder interface {
	Rebuild(ctx context.Context) error
}

// EventSource is one held-open event stream instance.
type EventSource interface {
	Next() (domain.Event, error)
	Close() error
}

// StreamOpener opens fresh event streams; a stream is never resumed after
// a failure, only replaced.
type StreamOpener interface {
	OpenStream(ctx context.Context) (EventSource, error)
}

// Monitor observes watch-loop activity.
type Monitor interface {
	EventReceived(action string)
	StreamRetry()
}

// Supervisor is the single reconciliation authority: every pass runs on
// this goroutine, strictly serialized by the blocking event read that
// triggers it. Only context cancellation ends the loop.
type Supervisor struct {
	engine     Rebuilder
	streams    StreamOpener
	monitor    Monitor
	socketPath string
	warmup     time.Duration
	poll       time.Duration
	backoff    time.Duration
	logger     *slog.Logger
}

// New constructs a supervisor from explicit configuration.
func New(engine Rebuilder, streams StreamOpener, monitor Monitor, cfg config.Config, logger *slog.Logger) *Supervisor {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Supervisor{
		engine:     engine,
		streams:    streams,
		monitor:    monitor,
		socketPath: cfg.SocketPath,
		warmup:     cfg.WarmupDelay,
		poll:       cfg.SocketPollInterval,
		backoff:    cfg.StreamRetryDelay,
		logger:     logger.With("component", "watch"),
	}
}

// Run blocks until ctx is cancelled. Startup runs one rebuild after the
// warm-up delay; a failure there is logged and swallowed, the watch loop
// starts regardless.
func (s *Supervisor) Run(ctx context.Context) {
	if !sleepCtx(ctx, s.warmup) {
		return
	}
	if err := s.engine.Rebuild(ctx); err != nil && ctx.Err() == nil {
		s.logger.Error("initial rebuild failed", "error", err)
	}

	for ctx.Err() == nil {
		if _, err := os.Stat(s.socketPath); err != nil {
			s.logger.Warn("daemon socket not available", "path", s.socketPath, "error", err)
			if !sleepCtx(ctx, s.poll) {
				return
			}
			continue
		}
		if err := s.watch(ctx); err != nil && ctx.Err() == nil {
			s.logger.Warn("event stream interrupted", "error", err)
			if s.monitor != nil {
				s.monitor.StreamRetry()
			}
			if !sleepCtx(ctx, s.backoff) {
				return
			}
		}
	}
}

// watch consumes one stream instance until it fails. A rebuild failure is
// an error like any other: the stream is abandoned and reopened after the
// backoff, which also forces a fresh pass on the next event.
func (s *Supervisor) watch(ctx context.Context) error {
	stream, err := s.streams.OpenStream(ctx)
	if err != nil {
		return err
	}
	defer stream.Close()
	s.logger.Info("watching container events", "socket", s.socketPath)

	for {
		event, err := stream.Next()
		if err != nil {
			return err
		}
		if s.monitor != nil {
			s.monitor.EventReceived(event.Kind())
		}
		s.logger.Info("container event", "action", event.Kind(), "container_id", event.ContainerID(), "name", event.ContainerName())
		if err := s.engine.Rebuild(ctx); err != nil {
			return err
		}
	}
}

// sleepCtx waits for d, returning false when ctx was cancelled first.
func sleepCtx(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
