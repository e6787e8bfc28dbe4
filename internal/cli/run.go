package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/forPelevin/clipcut/internal/pipeline"
	"github.com/forPelevin/clipcut/internal/types"
)

func newRunCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "run <input>",
		Short: "Process a single media file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, args[0])
		},
	}
}

func run(cmd *cobra.Command, input string) error {
	cfg, log, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	absIn, err := filepath.Abs(input)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithTimeout(ctx, 3*time.Hour)
	defer cancel()

	runner, err := pipeline.New(cfg, log)
	if err != nil {
		return err
	}

	w := cmd.OutOrStdout()
	out, err := runner.Run(ctx, pipeline.Request{
		InputPath:    absIn,
		BurnCaptions: cfg.BurnCaptions,
		Logf:         progress(w),
	})
	printSummary(w, out)
	return err
}

func progress(w io.Writer) func(format string, args ...any) {
	return func(format string, args ...any) {
		fmt.Fprintf(w, "› "+format+"\n", args...)
	}
}

func printSummary(w io.Writer, out pipeline.Output) {
	res := out.Result
	if res.ID == "" {
		return
	}
	for _, warn := range res.Warnings {
		fmt.Fprintf(w, "warning: %s\n", warn)
	}
	for _, c := range res.Clips {
		switch {
		case c.Error != "":
			fmt.Fprintf(w, "%2d. [%s] %s: failed: %s\n", c.Index, c.Descriptor.Timestamp, c.Descriptor.Title, c.Error)
		case c.File != "":
			fmt.Fprintf(w, "%2d. [%s] %s -> %s\n", c.Index, c.Descriptor.Timestamp, c.Descriptor.Title, filepath.Join(out.RunDir, c.File))
		default:
			fmt.Fprintf(w, "%2d. [%s] %s\n    %s\n", c.Index, c.Descriptor.Timestamp, c.Descriptor.Title, c.Excerpt)
		}
	}
	if res.State == types.StateError && res.Remediation != "" {
		fmt.Fprintf(w, "hint: %s\n", res.Remediation)
	}
	if out.ManifestPath != "" {
		fmt.Fprintf(w, "manifest: %s\n", out.ManifestPath)
	}
}
