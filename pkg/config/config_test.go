package config

import (
	"testing"
	"time"
)

func TestGetDuration(t *testing.T) {
	if got := GetDuration("PROXNGIN_TEST_UNSET", 30*time.Second); got != 30*time.Second {
		t.Fatalf("expected fallback for unset key, got %s", got)
	}

	t.Setenv("PROXNGIN_TEST_DURATION", "45s")
	if got := GetDuration("PROXNGIN_TEST_DURATION", 30*time.Second); got != 45*time.Second {
		t.Fatalf("expected parsed duration, got %s", got)
	}

	t.Setenv("PROXNGIN_TEST_DURATION", "not-a-duration")
	if got := GetDuration("PROXNGIN_TEST_DURATION", 30*time.Second); got != 30*time.Second {
		t.Fatalf("expected fallback for malformed value, got %s", got)
	}
}

func TestLoadUsesDurationVariables(t *testing.T) {
	t.Setenv("WARMUP_DELAY", "1s")
	t.Setenv("SOCKET_POLL_INTERVAL", "10s")
	t.Setenv("STREAM_RETRY_DELAY", "2s")
	t.Setenv("DOCKER_REQUEST_TIMEOUT", "15s")

	cfg := Load()
	if cfg.WarmupDelay != time.Second {
		t.Fatalf("WarmupDelay = %s, want 1s", cfg.WarmupDelay)
	}
	if cfg.SocketPollInterval != 10*time.Second {
		t.Fatalf("SocketPollInterval = %s, want 10s", cfg.SocketPollInterval)
	}
	if cfg.StreamRetryDelay != 2*time.Second {
		t.Fatalf("StreamRetryDelay = %s, want 2s", cfg.StreamRetryDelay)
	}
	if cfg.RequestTimeout != 15*time.Second {
		t.Fatalf("RequestTimeout = %s, want 15s", cfg.RequestTimeout)
	}
}
