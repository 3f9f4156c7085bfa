package cli

import (
	"encoding/json"
	"fmt"
	"text/tabwriter"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/spf13/cobra"

	"github.com/soyeahso/alarmhound/internal/capability"
	"github.com/soyeahso/alarmhound/internal/diagnostics"
)

func newToolsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tools",
		Short: "Inspect the diagnostic capabilities offered to the model",
	}
	cmd.AddCommand(newToolsListCmd())
	return cmd
}

func newToolsListCmd() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List enabled capabilities",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cat := configuredCatalog()
			out := cmd.OutOrStdout()

			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(cat.Advertisement())
			}

			tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "NAME\tDESCRIPTION")
			for _, d := range cat.Descriptors() {
				fmt.Fprintf(tw, "%s\t%s\n", d.Name, d.Description)
			}
			return tw.Flush()
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "print the tool specifications sent to the model")
	return cmd
}

// configuredCatalog builds the catalog from config without resolving
// credentials; descriptors do not touch the network.
func configuredCatalog() *capability.Catalog {
	clients := diagnostics.NewAWSClients(aws.Config{Region: cfg.AWS.Region}, cfg.Capabilities.DigitalOceanToken)
	return diagnostics.NewCatalog(clients, cfg.Capabilities.Enabled)
}
