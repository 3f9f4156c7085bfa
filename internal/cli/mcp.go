package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/soyeahso/alarmhound/internal/app"
	"github.com/soyeahso/alarmhound/internal/mcpserver"
)

func newMCPCmd() *cobra.Command {
	var region string

	cmd := &cobra.Command{
		Use:   "mcp",
		Short: "Serve the diagnostic capabilities as an MCP server on stdin/stdout",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			if region != "" {
				cfg.AWS.Region = region
			}
			awsCfg, err := app.LoadAWSConfig(ctx, cfg.AWS)
			if err != nil {
				return err
			}
			catalog, err := app.AWSCatalogs(awsCfg, cfg.Capabilities)(ctx, awsCfg.Region)
			if err != nil {
				return err
			}
			return mcpserver.New(catalog, cmd.OutOrStdout(), log).Run(ctx, os.Stdin)
		},
	}

	cmd.Flags().StringVar(&region, "region", "", "AWS region the diagnostics query")
	return cmd
}
