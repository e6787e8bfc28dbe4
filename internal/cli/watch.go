package cli

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/forPelevin/clipcut/internal/logging"
	"github.com/forPelevin/clipcut/internal/pipeline"
	"github.com/forPelevin/clipcut/internal/watch"
)

func newWatchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "watch <dir>",
		Short: "Process every media file dropped into a directory, one at a time",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			runner, err := pipeline.New(cfg, log)
			if err != nil {
				return err
			}

			logf := logging.Logf(log, "pipeline")
			w, err := watch.New(args[0], func(ctx context.Context, path string) error {
				_, err := runner.Run(ctx, pipeline.Request{
					InputPath:    path,
					BurnCaptions: cfg.BurnCaptions,
					Logf:         logf,
				})
				return err
			}, log)
			if err != nil {
				return err
			}
			defer w.Close()

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			if err := w.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
				return err
			}
			return nil
		},
	}
}
