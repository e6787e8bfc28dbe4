package cli

import (
	"context"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/forPelevin/clipcut/internal/api"
	"github.com/forPelevin/clipcut/internal/config"
	"github.com/forPelevin/clipcut/internal/pipeline"
)

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the batch API over HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, log, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			runner, err := pipeline.New(cfg, log)
			if err != nil {
				return err
			}

			srv := api.NewServer(api.ServerConfig{
				Addr:      cfg.Server.Addr,
				UploadDir: filepath.Join(".cache", "uploads"),
				Runner:    runner,
				Logger:    log.With().Str("component", "api").Logger(),
				StartTime: time.Now(),
			})

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			errc := make(chan error, 1)
			go func() { errc <- srv.Start() }()

			select {
			case err := <-errc:
				return err
			case <-ctx.Done():
			}
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	}
	cmd.Flags().String("addr", config.Default().Server.Addr, "Listen address")
	return cmd
}
