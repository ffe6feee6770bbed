package cli

import (
	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/YoshitsuguKoike/moldtrack/internal/app/config"
	infraConfig "github.com/YoshitsuguKoike/moldtrack/internal/infra/config"
	"github.com/YoshitsuguKoike/moldtrack/internal/interface/cli/version"
)

// globalConfig holds the loaded configuration for all commands
var globalConfig *config.Config

// appFS is the filesystem every command works on; tests swap in a MemMapFs
var appFS afero.Fs = afero.NewOsFs()

// rootFlags override configuration values for one invocation
type rootFlags struct {
	configPath string
	outputDir  string
	logLevel   string
	logFormat  string
}

func NewRoot() *cobra.Command {
	var flags rootFlags

	cmd := &cobra.Command{
		Use:           "moldtrack",
		Short:         "Track machine layout and mold-machine pairing changes",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			// Priority: flags > MOLDTRACK_* env > moldtrack.yaml > defaults
			cfg, err := infraConfig.Load(flags.configPath)
			if err != nil {
				return err
			}
			if flags.outputDir != "" {
				cfg.OutputDir = flags.outputDir
			}
			if flags.logLevel != "" {
				cfg.Log.Level = flags.logLevel
			}
			if flags.logFormat != "" {
				cfg.Log.Format = flags.logFormat
			}
			if err := infraConfig.Validate(cfg); err != nil {
				return err
			}

			InitGlobalLogger(cfg.Log.Level, cfg.Log.Format)
			InitializeLoggers(GetLogger())
			GetLogger().Debug("configuration loaded from %s %s", cfg.Source, cfg.SettingPath)

			globalConfig = cfg
			return nil
		},
		RunE: func(c *cobra.Command, _ []string) error { return c.Help() },
	}

	pf := cmd.PersistentFlags()
	pf.StringVar(&flags.configPath, "config", "", "Path to moldtrack.yaml (default: ./moldtrack.yaml if present)")
	pf.StringVar(&flags.outputDir, "output", "", "Output root directory (overrides output_dir)")
	pf.StringVar(&flags.logLevel, "log-level", "", "Log level: debug, info, warn, error")
	pf.StringVar(&flags.logFormat, "log-format", "", "Log format: console, json")

	cmd.AddCommand(newTrackCmd())
	cmd.AddCommand(newHistoryCmd())
	cmd.AddCommand(newLockCmd())
	cmd.AddCommand(newConfigCmd())
	cmd.AddCommand(version.NewCommand())
	return cmd
}
