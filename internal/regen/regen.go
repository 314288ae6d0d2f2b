// Package regen implements the end-to-end rebuild of an overlay
// artifact from the current content of an annotation record: load the
// record, resolve its source image, render the overlay, and persist the
// result at a path derived deterministically from the image name.
//
// It is invoked both by the watcher's debounce fire action and directly
// for one-shot regeneration. Every failure is a typed error; nothing
// here panics into the watch loop.
package regen

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/hupe1980/annowatch/internal/annotation"
	"github.com/hupe1980/annowatch/internal/artifact"
	"github.com/hupe1980/annowatch/internal/render"
)

// ArtifactSuffix is appended to the source image's base name to form
// the overlay filename.
const ArtifactSuffix = "_boxed.png"

// labeledDir is the subdirectory of the output root holding overlays.
const labeledDir = "labeled"

// Orchestrator rebuilds overlay artifacts from annotation records.
type Orchestrator struct {
	outputDir string
	renderer  render.Renderer
	logger    *slog.Logger
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithLogger sets the orchestrator's logger.
func WithLogger(logger *slog.Logger) Option {
	return func(o *Orchestrator) {
		o.logger = logger
	}
}

// NewOrchestrator creates an orchestrator writing artifacts below
// outputDir and rendering with r.
func NewOrchestrator(outputDir string, r render.Renderer, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		outputDir: outputDir,
		renderer:  r,
		logger:    slog.Default(),
	}

	for _, opt := range opts {
		opt(o)
	}

	return o
}

// OutputPath returns the artifact path for rec. The path depends only
// on the source image's base name, so regenerating the same record
// always overwrites the same location instead of accumulating files.
func (o *Orchestrator) OutputPath(rec *annotation.Record) string {
	return filepath.Join(o.outputDir, labeledDir, rec.BaseName()+ArtifactSuffix)
}

// Regenerate rebuilds the artifact for the record at recordPath and
// returns the artifact path.
//
// Failures keep their kind: a missing record or source image wraps
// [annotation.ErrNotFound], malformed content is an
// [*annotation.ParseError], drawing failures an [*render.Error], and
// persistence failures an [*artifact.WriteError]. A failed regeneration
// leaves the previously written artifact untouched.
func (o *Orchestrator) Regenerate(ctx context.Context, recordPath string) (string, error) {
	rec, err := annotation.Load(recordPath)
	if err != nil {
		return "", err
	}

	if _, err := os.Stat(rec.ImagePath); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", fmt.Errorf("source image %s: %w", rec.ImagePath, annotation.ErrNotFound)
		}

		return "", fmt.Errorf("resolving source image %s: %w", rec.ImagePath, err)
	}

	o.logger.Debug("regenerating overlay",
		slog.String("record", recordPath),
		slog.Int("detections", len(rec.Detections)),
	)

	data, err := o.renderer.Render(ctx, rec)
	if err != nil {
		return "", err
	}

	outputPath := o.OutputPath(rec)

	fw := artifact.NewFileWriter(outputPath, artifact.WithLogger(o.logger))
	if err := fw.Write(data); err != nil {
		return "", err
	}

	o.logger.Info("overlay regenerated",
		slog.String("record", recordPath),
		slog.String("artifact", outputPath),
	)

	return outputPath, nil
}
