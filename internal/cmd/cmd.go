// Package cmd wires the entityref command line.
package cmd

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	slogcontext "github.com/veqryn/slog-context"

	"ocm.software/open-component-model/presentation/internal/cmd/resolve"
	"ocm.software/open-component-model/presentation/internal/log"
)

// Execute runs the root command. This is called by main.main().
func Execute() {
	err := New().Execute()
	if err != nil {
		os.Exit(1)
	}
}

func New() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "entityref [sub-command]",
		Short: "Resolve catalog entity references into display snapshots",
		Long: `entityref turns entity references of the form [kind:][namespace/]name into
  human-readable titles, subtitles and icons, batching and caching catalog lookups
  along the way.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
		PersistentPreRunE: setupLogging,
		DisableAutoGenTag: true,
		SilenceUsage:      true,
	}

	log.RegisterLoggingFlags(cmd.PersistentFlags())
	cmd.AddCommand(resolve.New())
	return cmd
}

func setupLogging(cmd *cobra.Command, _ []string) error {
	logger, err := log.GetBaseLogger(cmd.Flags(), cmd.ErrOrStderr())
	if err != nil {
		return fmt.Errorf("could not retrieve logger: %w", err)
	}
	slog.SetDefault(logger)
	cmd.SetContext(slogcontext.NewCtx(cmd.Context(), logger))
	return nil
}
