package cli

import (
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/forPelevin/clipcut/internal/config"
	"github.com/forPelevin/clipcut/internal/logging"
)

func Main() {
	root := newRootCmd()
	root.SetOut(os.Stdout)
	root.SetErr(os.Stderr)

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "clipcut",
		Short:         "Find the best moments in a recording and cut them into clips",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	def := config.Default()
	f := root.PersistentFlags()
	f.String("config", "", "YAML config file")
	f.String("out", def.OutDir, "Output directory")
	f.String("provider", def.Provider, "Transcription and analysis provider (assemblyai|local)")
	f.String("variant", def.Variant, "Content type (podcast|tutorial)")
	f.Int("clips", def.Clips, "Number of clips (1-5)")
	f.Int("duration", def.ClipDuration, "Clip duration in seconds (30-120)")
	f.Bool("burn-captions", false, "Burn word-level captions into the clips")
	f.String("log-level", def.Log.Level, "Log level (debug|info|warn|error)")

	root.AddCommand(newRunCmd(), newWatchCmd(), newServeCmd())
	return root
}

// loadConfig layers the command's flags over the file and environment
// configuration. Only flags set explicitly take effect.
func loadConfig(cmd *cobra.Command) (config.Config, zerolog.Logger, error) {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(path)
	if err != nil {
		return cfg, zerolog.Nop(), err
	}
	applyFlags(cmd, &cfg)
	if err := cfg.Validate(); err != nil {
		return cfg, zerolog.Nop(), fmt.Errorf("config: %w", err)
	}
	return cfg, logging.New(cfg.Log, cmd.ErrOrStderr()), nil
}

func applyFlags(cmd *cobra.Command, cfg *config.Config) {
	f := cmd.Flags()
	if f.Changed("out") {
		cfg.OutDir, _ = f.GetString("out")
	}
	if f.Changed("provider") {
		cfg.Provider, _ = f.GetString("provider")
	}
	if f.Changed("variant") {
		cfg.Variant, _ = f.GetString("variant")
	}
	if f.Changed("clips") {
		cfg.Clips, _ = f.GetInt("clips")
	}
	if f.Changed("duration") {
		cfg.ClipDuration, _ = f.GetInt("duration")
	}
	if f.Changed("burn-captions") {
		cfg.BurnCaptions, _ = f.GetBool("burn-captions")
	}
	if f.Changed("log-level") {
		cfg.Log.Level, _ = f.GetString("log-level")
	}
	if f.Changed("addr") {
		cfg.Server.Addr, _ = f.GetString("addr")
	}
}
