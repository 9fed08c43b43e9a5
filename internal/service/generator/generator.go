// Package generator rebuilds the nginx output directory from the set of
// running containers and the per-container template tree, then triggers a
// reload.
package generator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/santosh0705/proxngin/internal/dockerd"
	"github.com/santosh0705/proxngin/internal/domain"
	"github.com/santosh0705/proxngin/internal/template"
)

// ControlPlane provides the container snapshot a pass works from.
type ControlPlane interface {
	ListRunning(ctx context.Context) ([]domain.ContainerSummary, error)
	Inspect(ctx context.Context, containerID string) (*domain.ContainerDetail, error)
}

// Reloader is invoked once at the end of a successful pass.
type Reloader interface {
	Reload(ctx context.Context) error
}

// Publisher receives the result of every completed pass.
type Publisher interface {
	PassCompleted(result domain.PassResult)
}

// Engine owns the output directory exclusively and rebuilds it from
// scratch on every pass. Passes are serialized by the caller; the engine
// itself holds no cross-pass state.
type Engine struct {
	templateRoot string
	outputDir    string
	control      ControlPlane
	reloader     Reloader
	publisher    Publisher
	logger       *slog.Logger

	now func() time.Time
}

// New constructs a reconciliation engine.
func New(templateRoot, outputDir string, control ControlPlane, reloader Reloader, publisher Publisher, logger *slog.Logger) *Engine {
	if logger != nil {
		logger = logger.With("component", "generator")
	}
	return &Engine{
		templateRoot: templateRoot,
		outputDir:    outputDir,
		control:      control,
		reloader:     reloader,
		publisher:    publisher,
		logger:       logger,
		now:          time.Now,
	}
}

// Rebuild runs one full reconciliation pass: enumerate candidates, clear
// the output directory, regenerate from the live container set, reload.
// A failed running-container listing aborts the pass after the directory
// has already been cleared; the caller must treat that as a failed pass.
func (e *Engine) Rebuild(ctx context.Context) error {
	passID := uuid.NewString()
	log := e.logger
	if log != nil {
		log = log.With("pass_id", passID)
	}
	start := e.now()

	candidates, err := e.listCandidates()
	if err != nil {
		return e.finish(log, passID, start, domain.PassResult{}, err)
	}
	if err := clearDir(e.outputDir); err != nil {
		return e.finish(log, passID, start, domain.PassResult{}, err)
	}

	summaries, err := e.control.ListRunning(ctx)
	if err != nil {
		return e.finish(log, passID, start, domain.PassResult{}, fmt.Errorf("list running containers: %w", err))
	}

	var result domain.PassResult
	for _, summary := range summaries {
		name, ok := matchCandidate(summary, candidates)
		if !ok {
			continue
		}
		detail, err := e.control.Inspect(ctx, summary.ID)
		if errors.Is(err, dockerd.ErrContainerGone) {
			if log != nil {
				log.Warn("container disappeared during pass", "container_id", summary.ID, "name", name)
			}
			result.Skipped++
			continue
		}
		if err != nil {
			return e.finish(log, passID, start, result, fmt.Errorf("inspect %s: %w", summary.ID, err))
		}
		rendered, copied, err := e.generate(name, detail)
		if err != nil {
			return e.finish(log, passID, start, result, err)
		}
		result.Matched++
		result.Rendered += rendered
		result.Copied += copied
		if log != nil {
			log.Info("container configured", "name", detail.Name, "ip", detail.IPAddress, "rendered", rendered, "copied", copied)
		}
	}

	if err := e.reloader.Reload(ctx); err != nil && log != nil {
		// The reload outcome never fails the pass.
		log.Warn("reload trigger failed", "error", err)
	}
	return e.finish(log, passID, start, result, nil)
}

// listCandidates enumerates immediate subdirectories of the template root.
// Each name is a candidate container name.
func (e *Engine) listCandidates() ([]string, error) {
	entries, err := os.ReadDir(e.templateRoot)
	if err != nil {
		return nil, fmt.Errorf("read template root: %w", err)
	}
	var candidates []string
	for _, entry := range entries {
		if entry.IsDir() {
			candidates = append(candidates, entry.Name())
		}
	}
	return candidates, nil
}

// matchCandidate finds the candidate whose separator-prefixed form appears
// in the summary's name labels. Matching is name based, never ID based.
func matchCandidate(summary domain.ContainerSummary, candidates []string) (string, bool) {
	for _, candidate := range candidates {
		if summary.HasName("/" + candidate) {
			return candidate, true
		}
	}
	return "", false
}

// generate processes every entry directly under the container's template
// subdirectory: template files are rendered with the suffix stripped,
// everything else is copied verbatim, directories recursively.
func (e *Engine) generate(candidate string, detail *domain.ContainerDetail) (rendered, copied int, err error) {
	templateDir := filepath.Join(e.templateRoot, candidate)
	entries, err := os.ReadDir(templateDir)
	if err != nil {
		return 0, 0, fmt.Errorf("read template directory: %w", err)
	}
	context := detail.RenderContext()

	for _, entry := range entries {
		srcPath := filepath.Join(templateDir, entry.Name())
		if entry.IsDir() {
			n, err := copyTree(srcPath, filepath.Join(e.outputDir, entry.Name()))
			if err != nil {
				return rendered, copied, err
			}
			copied += n
			continue
		}
		if strings.HasSuffix(entry.Name(), template.Suffix) {
			content, err := os.ReadFile(srcPath)
			if err != nil {
				return rendered, copied, fmt.Errorf("read template %s: %w", srcPath, err)
			}
			target := filepath.Join(e.outputDir, strings.TrimSuffix(entry.Name(), template.Suffix))
			if err := os.WriteFile(target, []byte(template.Render(string(content), context)), 0o644); err != nil {
				return rendered, copied, fmt.Errorf("write %s: %w", target, err)
			}
			rendered++
			continue
		}
		if err := copyFile(srcPath, filepath.Join(e.outputDir, entry.Name())); err != nil {
			return rendered, copied, err
		}
		copied++
	}
	return rendered, copied, nil
}

// finish stamps the result, publishes it and logs the pass outcome.
func (e *Engine) finish(log *slog.Logger, passID string, start time.Time, result domain.PassResult, err error) error {
	result.PassID = passID
	result.Duration = e.now().Sub(start)
	result.CompletedAt = e.now().UTC()
	if err != nil {
		result.Error = err.Error()
	}
	if e.publisher != nil {
		e.publisher.PassCompleted(result)
	}
	if log != nil {
		if err != nil {
			log.Error("reconciliation pass failed", "error", err, "duration", result.Duration)
		} else {
			log.Info("reconciliation pass complete", "matched", result.Matched, "rendered", result.Rendered, "copied", result.Copied, "skipped", result.Skipped, "duration", result.Duration)
		}
	}
	return err
}
