package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/hupe1980/annowatch/internal/annotation"
	"github.com/hupe1980/annowatch/internal/config"
)

func newRegenCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "regen <record>",
		Short: "Regenerate the overlay for one annotation record",
		Long: `Regen performs a single regeneration from the given record file:
load the record, render the detection overlay onto the source image, and
write the artifact to its deterministic location under the output
directory.

A failed regeneration leaves any previously written artifact untouched.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRegen(cmd.Context(), cmd, args[0])
		},
	}

	return cmd
}

func runRegen(ctx context.Context, cmd *cobra.Command, recordPath string) error {
	if !annotation.IsRecordPath(recordPath) {
		return &ExitError{Code: 2, Err: fmt.Errorf(
			"%s is not a record file (want *%s)", recordPath, annotation.RecordSuffix)}
	}

	orch := newOrchestrator(ctx, config.FromContext(ctx))

	outputPath, err := orch.Regenerate(ctx, recordPath)
	if err != nil {
		return err
	}

	fmt.Fprintln(cmd.OutOrStdout(), outputPath)

	return nil
}
