package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/hupe1980/annowatch/internal/config"
	"github.com/hupe1980/annowatch/internal/logging"
	"github.com/hupe1980/annowatch/internal/watch"
)

func newWatchCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watch [record-dir]",
		Short: "Watch annotation records and regenerate overlays on change",
		Long: `Watch monitors the record directory and regenerates the overlay of
every record that is created or modified. Rapid successive edits to the
same record are debounced into a single regeneration reflecting the last
saved content; different records regenerate independently.

Without an argument the watched directory is <output-dir>/json. The
watcher runs until interrupted (Ctrl-C) or terminated.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := ""
			if len(args) == 1 {
				dir = args[0]
			}

			return runWatch(cmd.Context(), cmd, dir)
		},
	}

	return cmd
}

func runWatch(ctx context.Context, cmd *cobra.Command, dir string) error {
	cfg := config.FromContext(ctx)

	if dir == "" {
		dir = recordDir(cfg)
	}

	// The default record directory may not exist before the first
	// process run; create it so watching an empty project works.
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return fmt.Errorf("creating record directory %q: %w", dir, err)
	}

	orch := newOrchestrator(ctx, cfg)

	opts := watch.Options{
		Dir:      dir,
		Debounce: cfg.Debounce,
		Logger:   logging.FromContext(ctx),
		Out:      cmd.ErrOrStderr(),
	}

	manager := watch.NewManager()
	if err := manager.Start(ctx, opts, orch.Regenerate); err != nil {
		return err
	}
	defer manager.Stop()

	return manager.Wait()
}
