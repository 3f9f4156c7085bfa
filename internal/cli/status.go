package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/soyeahso/alarmhound/internal/config"
	"github.com/soyeahso/alarmhound/internal/version"
)

func newStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show alarmhound status and configuration summary",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "alarmhound %s (commit %s)\n\n", version.Version, version.Commit)

			fmt.Fprintf(out, "Config:   %s\n", paths.Config)
			fmt.Fprintf(out, "Data:     %s\n", paths.Data)
			fmt.Fprintf(out, "Logs:     %s\n", paths.Logs)
			fmt.Fprintln(out)

			model := cfg.Model.Provider + "/" + cfg.Model.ID
			if len(cfg.Model.Fallbacks) > 0 {
				model += " (fallbacks: " + strings.Join(cfg.Model.Fallbacks, ", ") + ")"
			}
			fmt.Fprintf(out, "Model:    %s\n", model)
			fmt.Fprintf(out, "Loop:     maxIterations=%d parallelism=%d\n",
				cfg.Investigator.MaxIterations, cfg.Investigator.Parallelism)
			fmt.Fprintf(out, "Tools:    %s\n", strings.Join(configuredCatalog().Names(), ", "))
			fmt.Fprintf(out, "Gateway:  port=%d bind=%s auth=%t\n",
				cfg.Gateway.Port, cfg.Gateway.Bind, cfg.Gateway.Auth.Token != "")
			fmt.Fprintf(out, "Notify:   %s\n", notifierSummary(cfg.Notify))

			if cfg.Store.Disabled {
				fmt.Fprintln(out, "Reports:  store disabled")
				return nil
			}
			db, reports, err := openReports()
			if err != nil {
				fmt.Fprintf(out, "Reports:  error: %v\n", err)
				return nil
			}
			defer db.Close()
			n, err := reports.Count(context.Background())
			if err != nil {
				fmt.Fprintf(out, "Reports:  error: %v\n", err)
				return nil
			}
			fmt.Fprintf(out, "Reports:  %d stored\n", n)

			if issues := config.Validate(&cfg); len(issues) > 0 {
				fmt.Fprintf(out, "\n%d config issue(s); run 'alarmhound config validate'\n", len(issues))
			}
			return nil
		},
	}
}

func notifierSummary(n config.NotifyConfig) string {
	var names []string
	if n.SNS != nil {
		names = append(names, "sns")
	}
	if n.Gmail != nil {
		names = append(names, "gmail")
	}
	if n.IRC != nil {
		names = append(names, "irc")
	}
	if len(names) == 0 {
		return "(none)"
	}
	return strings.Join(names, ", ")
}
