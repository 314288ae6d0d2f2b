package cli

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/hupe1980/annowatch/internal/annotation"
	"github.com/hupe1980/annowatch/internal/config"
	"github.com/hupe1980/annowatch/internal/logging"
	"github.com/hupe1980/annowatch/internal/regen"
	"github.com/hupe1980/annowatch/internal/vision"
)

// recordFormatVersion is stamped into records created by the process
// commands.
const recordFormatVersion = "1.0.0"

func newProcessCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "process <image>",
		Short: "Detect anomalies in an image and generate its overlay",
		Long: `Process runs the local detector on a single image, saves the
resulting annotation record, and renders the labeled overlay.

The record is written to <output-dir>/json following the record filename
convention, so a subsequent "annowatch watch" picks up later edits to it.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runProcess(cmd.Context(), cmd, args[0])
		},
	}

	return cmd
}

func newProcessAllCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "process-all",
		Short: "Process every image in the input directory",
		Long: `Process-all runs the detector on every image found directly in the
input directory. Images that fail to process are reported and skipped;
the command fails if any image failed.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runProcessAll(cmd.Context(), cmd)
		},
	}

	return cmd
}

func runProcess(ctx context.Context, cmd *cobra.Command, imagePath string) error {
	cfg := config.FromContext(ctx)

	outputPath, err := processImage(ctx, cfg, imagePath)
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "%s → %s\n", filepath.Base(imagePath), outputPath)

	return nil
}

func runProcessAll(ctx context.Context, cmd *cobra.Command) error {
	cfg := config.FromContext(ctx)
	logger := logging.FromContext(ctx)

	images, err := listImages(cfg.InputDir)
	if err != nil {
		return err
	}

	if len(images) == 0 {
		fmt.Fprintf(cmd.OutOrStdout(), "no images found in %s\n", cfg.InputDir)
		return nil
	}

	var failed int

	for _, imagePath := range images {
		outputPath, procErr := processImage(ctx, cfg, imagePath)
		if procErr != nil {
			failed++

			logger.Error("processing failed",
				slog.String("image", imagePath), slog.String("error", procErr.Error()))
			fmt.Fprintf(cmd.OutOrStdout(), "%s → ERROR: %v\n", filepath.Base(imagePath), procErr)

			continue
		}

		fmt.Fprintf(cmd.OutOrStdout(), "%s → %s\n", filepath.Base(imagePath), outputPath)
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d image(s) failed", failed, len(images))
	}

	return nil
}

// processImage runs detection on one image, persists the record, and
// regenerates the overlay. It returns the overlay path.
func processImage(ctx context.Context, cfg *config.Config, imagePath string) (string, error) {
	if _, err := os.Stat(imagePath); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", fmt.Errorf("image %s: %w", imagePath, annotation.ErrNotFound)
		}

		return "", fmt.Errorf("resolving image %s: %w", imagePath, err)
	}

	detector := vision.NewCVDetector()

	result, err := detector.Detect(ctx, imagePath)
	if err != nil {
		return "", fmt.Errorf("detecting in %s: %w", imagePath, err)
	}

	absPath, err := filepath.Abs(imagePath)
	if err != nil {
		return "", fmt.Errorf("resolving image path: %w", err)
	}

	rec := &annotation.Record{
		FormatVersion:  recordFormatVersion,
		ImageFilename:  filepath.Base(imagePath),
		ImagePath:      absPath,
		ProcessedAt:    time.Now().Format(time.RFC3339),
		Classification: result.Classification,
		Detections:     result.Detections,
	}

	recordPath := annotation.RecordPath(recordDir(cfg), rec.ImageFilename)
	if err := annotation.Save(rec, recordPath); err != nil {
		return "", err
	}

	orch := newOrchestrator(ctx, cfg)

	outputPath, err := orch.Regenerate(ctx, recordPath)
	if err != nil {
		return "", err
	}

	// Record the artifact location for downstream consumers.
	rec.OutputFiles.LabeledImage = outputPath
	if err := annotation.Save(rec, recordPath); err != nil {
		return "", err
	}

	return outputPath, nil
}

// listImages returns the image files directly inside dir.
func listImages(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading input directory %q: %w", dir, err)
	}

	var images []string

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}

		switch strings.ToLower(filepath.Ext(entry.Name())) {
		case ".png", ".jpg", ".jpeg", ".gif", ".bmp", ".tif", ".tiff":
			images = append(images, filepath.Join(dir, entry.Name()))
		}
	}

	return images, nil
}

// newOrchestrator builds the regeneration orchestrator for cfg. The
// renderer backend follows the build tag, like the vision detector.
func newOrchestrator(ctx context.Context, cfg *config.Config) *regen.Orchestrator {
	return regen.NewOrchestrator(cfg.OutputDir, newRenderer(),
		regen.WithLogger(logging.FromContext(ctx)))
}
