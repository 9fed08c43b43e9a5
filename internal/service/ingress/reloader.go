// Package ingress triggers nginx configuration reloads after a
// reconciliation pass has rewritten the output directory.
package ingress

import (
	"context"
	"fmt"
	"log/slog"
	"os/exec"
	"strings"

	"github.com/santosh0705/proxngin/pkg/config"
)

// Reloader asks nginx to pick up the regenerated configuration. The pass
// that triggered it does not inspect the outcome; failures are logged and
// the next pass retries anyway.
type Reloader interface {
	Reload(ctx context.Context) error
	Close() error
}

// New selects the reload mechanism: signalling the nginx container via the
// Docker API when a container name is configured, otherwise running the
// reload command in this process's environment.
func New(cfg config.Config, logger *slog.Logger) (Reloader, error) {
	if name := strings.TrimSpace(cfg.NginxContainerName); name != "" {
		return newDockerReloader(name)
	}
	return newCommandReloader(cfg.NginxReloadCommand, logger)
}

// commandReloader shells out to a fixed executable with fixed arguments.
type commandReloader struct {
	argv   []string
	logger *slog.Logger
}

func newCommandReloader(command string, logger *slog.Logger) (*commandReloader, error) {
	argv := strings.Fields(command)
	if len(argv) == 0 {
		return nil, fmt.Errorf("reload command required")
	}
	return &commandReloader{argv: argv, logger: logger}, nil
}

// Reload runs the command synchronously. The exit status is logged but not
// propagated: the reload is fire-and-forget by design.
func (r *commandReloader) Reload(ctx context.Context) error {
	cmd := exec.CommandContext(ctx, r.argv[0], r.argv[1:]...)
	out, err := cmd.CombinedOutput()
	if err != nil && r.logger != nil {
		r.logger.Warn("reload command failed", "command", strings.Join(r.argv, " "), "error", err, "output", strings.TrimSpace(string(out)))
	}
	return nil
}

func (r *commandReloader) Close() error {
	return nil
}
