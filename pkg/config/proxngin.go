package config

import "time"

// Config holds runtime configuration for the proxngin daemon.
//
// The template root and output directory are deliberately absent: they are
// required command-line arguments, validated before anything else starts.
type Config struct {
	Environment        string
	SocketPath         string
	RequestTimeout     time.Duration
	WarmupDelay        time.Duration
	SocketPollInterval time.Duration
	StreamRetryDelay   time.Duration
	NginxReloadCommand string
	NginxContainerName string
	ObserverAddr       string
	LogLevel           string
}

// Load constructs a Config from environment variables.
func Load() Config {
	return Config{
		Environment:        GetString("APP_ENV", "production"),
		SocketPath:         GetString("DOCKER_SOCKET", "/var/run/docker.sock"),
		RequestTimeout:     GetDuration("DOCKER_REQUEST_TIMEOUT", 30*time.Second),
		WarmupDelay:        GetDuration("WARMUP_DELAY", 5*time.Second),
		SocketPollInterval: GetDuration("SOCKET_POLL_INTERVAL", 30*time.Second),
		StreamRetryDelay:   GetDuration("STREAM_RETRY_DELAY", 5*time.Second),
		NginxReloadCommand: GetString("NGINX_RELOAD_COMMAND", "nginx -s reload"),
		NginxContainerName: GetString("NGINX_CONTAINER_NAME", ""),
		ObserverAddr:       GetString("OBSERVER_ADDR", ""),
		LogLevel:           GetString("LOG_LEVEL", "info"),
	}
}
