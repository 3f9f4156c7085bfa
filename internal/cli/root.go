// Package cli implements the alarmhound command line.
package cli

import (
	"github.com/spf13/cobra"

	"github.com/soyeahso/alarmhound/internal/config"
	"github.com/soyeahso/alarmhound/internal/logging"
)

var (
	cfgFile  string
	logLevel string

	// loaded at init time
	paths config.Paths
	cfg   config.Config
	log   *logging.Logger
)

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "alarmhound",
		Short: "alarmhound investigates CloudWatch alarms",
		Long: "alarmhound receives CloudWatch alarm state changes, lets a model drive read-only\n" +
			"diagnostics against the affected resources, and delivers a root cause report.",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			var err error
			paths, err = config.ResolvePaths()
			if err != nil {
				return err
			}
			if cfgFile != "" {
				paths.Config = cfgFile
			}
			cfg, err = config.Load(paths.Config)
			if err != nil {
				return err
			}
			level := cfg.Logging.Level
			if logLevel != "" {
				level = logLevel
			}
			log = logging.NewFromOptions(logging.Options{
				Level:        level,
				ConsoleStyle: cfg.Logging.ConsoleStyle,
				File:         cfg.Logging.File,
				MaxSizeMB:    cfg.Logging.MaxSizeMB,
				MaxBackups:   cfg.Logging.MaxBackups,
				MaxAgeDays:   cfg.Logging.MaxAgeDays,
				Compress:     cfg.Logging.Compress,
			})
			return nil
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default ~/.alarmhound/config.yaml)")
	cmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (trace, debug, info, warn, error, fatal, silent)")

	cmd.AddCommand(newVersionCmd())
	cmd.AddCommand(newInvestigateCmd())
	cmd.AddCommand(newServeCmd())
	cmd.AddCommand(newLambdaCmd())
	cmd.AddCommand(newToolsCmd())
	cmd.AddCommand(newReportsCmd())
	cmd.AddCommand(newConfigCmd())
	cmd.AddCommand(newStatusCmd())
	cmd.AddCommand(newMCPCmd())

	return cmd
}

// Execute runs the root command.
func Execute() error {
	return newRootCmd().Execute()
}
