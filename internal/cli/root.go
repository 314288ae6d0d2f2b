// Package cli implements the cobra command tree for annowatch.
package cli

import (
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/hupe1980/annowatch/internal/config"
	"github.com/hupe1980/annowatch/internal/logging"
)

// ExitError wraps an error with a specific process exit code.
type ExitError struct {
	Code int
	Err  error
}

func (e *ExitError) Error() string {
	if e.Err != nil {
		return e.Err.Error()
	}

	return fmt.Sprintf("exit code %d", e.Code)
}

func (e *ExitError) Unwrap() error { return e.Err }

// Execute builds the command tree, runs it, and returns the exit code.
func Execute() int {
	cmd := NewRootCommand()

	if err := cmd.Execute(); err != nil {
		var exitErr *ExitError
		if errors.As(err, &exitErr) {
			return exitErr.Code
		}

		return 1
	}

	return 0
}

// NewRootCommand constructs the top-level cobra.Command with all
// subcommands attached.
func NewRootCommand() *cobra.Command {
	var cfgFile string

	cmd := &cobra.Command{
		Use:   "annowatch",
		Short: "Watch annotation records and regenerate image overlays",
		Long: `annowatch keeps rendered image overlays in sync with their JSON
annotation records.

It runs a local detector to produce the initial record for an image,
draws the detections onto the source image as a labeled overlay, and in
watch mode monitors the record directory so that every edit to a record
regenerates its overlay — with rapid bursts of edits coalesced into a
single regeneration.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(cmd, cfgFile)
			if err != nil {
				return &ExitError{Code: 2, Err: err}
			}

			logger := logging.Setup(cfg)

			ctx := cmd.Context()
			ctx = config.NewContext(ctx, cfg)
			ctx = logging.NewContext(ctx, logger)
			cmd.SetContext(ctx)

			logger.Debug("configuration loaded",
				slog.String("inputDir", cfg.InputDir),
				slog.String("outputDir", cfg.OutputDir),
				slog.Duration("debounce", cfg.Debounce),
			)

			return nil
		},
	}

	// Global persistent flags.
	pf := cmd.PersistentFlags()
	pf.StringVar(&cfgFile, "config", "", "config file (default: .annowatch.yaml)")
	pf.String("input-dir", "test_image", "directory holding source images")
	pf.String("output-dir", "output_image", "root directory for generated artifacts")
	pf.Duration("debounce", 500*time.Millisecond, "quiet period before a changed record is reprocessed")
	pf.String("log-level", "info", "log level: debug, info, warn, error")
	pf.String("log-format", "text", "log format: text, json")
	pf.Bool("no-color", false, "disable colored output")
	pf.BoolP("quiet", "q", false, "suppress non-essential output")

	// Flag parsing errors return exit code 2.
	cmd.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return &ExitError{Code: 2, Err: err}
	})

	// Register subcommands.
	cmd.AddCommand(
		newVersionCommand(),
		newProcessCommand(),
		newProcessAllCommand(),
		newRegenCommand(),
		newWatchCommand(),
		newCompletionCommand(),
	)

	return cmd
}

// recordDir returns the directory holding annotation records for cfg.
func recordDir(cfg *config.Config) string {
	return filepath.Join(cfg.OutputDir, "json")
}
