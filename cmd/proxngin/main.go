package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/santosh0705/proxngin/internal/dockerd"
	httpx "github.com/santosh0705/proxngin/internal/http"
	"github.com/santosh0705/proxngin/internal/service/generator"
	"github.com/santosh0705/proxngin/internal/service/ingress"
	"github.com/santosh0705/proxngin/internal/service/watch"
	"github.com/santosh0705/proxngin/internal/ws"
	"github.com/santosh0705/proxngin/pkg/config"
	"github.com/santosh0705/proxngin/pkg/logger"
)

var buildVersion = "dev"

func main() {
	if len(os.Args) != 3 {
		printUsage()
		os.Exit(1)
	}
	templateRoot, err := requireDirectory(os.Args[1])
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: template directory: %v\n", err)
		os.Exit(1)
	}
	outputDir, err := requireDirectory(os.Args[2])
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: output directory: %v\n", err)
		os.Exit(1)
	}

	cfg := config.Load()
	log := logger.New("proxngin", logger.ParseLevel(cfg.LogLevel))
	log.Info("proxngin starting", "version", buildVersion, "template_root", templateRoot, "output_dir", outputDir, "socket", cfg.SocketPath)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	reloader, err := ingress.New(cfg, log)
	if err != nil {
		log.Error("failed to configure reloader", "error", err)
		os.Exit(1)
	}
	defer reloader.Close()

	hub := ws.NewHub()
	observer := httpx.NewObserver(log, hub)
	if cfg.ObserverAddr != "" {
		go func() {
			if err := observer.Serve(ctx, cfg.ObserverAddr); err != nil {
				log.Error("observer server failed", "error", err)
			}
		}()
	}

	query := dockerd.NewQuery(cfg.SocketPath, cfg.RequestTimeout, log)
	engine := generator.New(templateRoot, outputDir, query, reloader, observer, log)
	watcher := dockerd.NewWatcher(cfg.SocketPath, log)

	supervisor := watch.New(engine, streamOpener{watcher}, observer, cfg, log)
	supervisor.Run(ctx)

	log.Info("proxngin stopped")
}

// streamOpener adapts the dockerd watcher to the supervisor's interface.
type streamOpener struct {
	watcher *dockerd.Watcher
}

func (o streamOpener) OpenStream(ctx context.Context) (watch.EventSource, error) {
	return o.watcher.OpenStream(ctx)
}

// requireDirectory enforces the CLI contract: both paths must be absolute
// and name existing directories before the core ever runs.
func requireDirectory(path string) (string, error) {
	if !filepath.IsAbs(path) {
		return "", fmt.Errorf("%s is not an absolute path", path)
	}
	info, err := os.Stat(path)
	if err != nil {
		return "", err
	}
	if !info.IsDir() {
		return "", fmt.Errorf("%s is not a directory", path)
	}
	return filepath.Clean(path), nil
}

func printUsage() {
	fmt.Fprintf(os.Stderr, "proxngin %s: nginx configuration generator driven by Docker events\n", buildVersion)
	fmt.Fprintln(os.Stderr, "usage: proxngin <template-dir> <output-dir>")
	fmt.Fprintln(os.Stderr, "  <template-dir>  absolute path holding one subdirectory per container name")
	fmt.Fprintln(os.Stderr, "  <output-dir>    absolute path proxngin owns and rewrites on every pass")
}
