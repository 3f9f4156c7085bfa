package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/soyeahso/alarmhound/internal/app"
	"github.com/soyeahso/alarmhound/internal/report"
)

func newInvestigateCmd() *cobra.Command {
	var (
		eventPath string
		format    string
		notify    bool
		noStore   bool
	)

	cmd := &cobra.Command{
		Use:   "investigate",
		Short: "Investigate one EventBridge alarm event and print the report",
		Example: `  alarmhound investigate --event event.json
  aws events ... | alarmhound investigate --event - --format markdown`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := checkFormat(format); err != nil {
				return err
			}
			raw, err := readEvent(eventPath, cmd.InOrStdin())
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			svc, err := app.Build(ctx, cfg, log, app.Options{NoStore: noStore, NoNotify: !notify})
			if err != nil {
				return err
			}
			defer svc.Close()

			r, err := svc.Handle(ctx, raw)
			if err != nil {
				return err
			}
			return writeReport(cmd.OutOrStdout(), *r, format)
		},
	}

	cmd.Flags().StringVar(&eventPath, "event", "", "EventBridge event JSON file, or - for stdin")
	cmd.Flags().StringVar(&format, "format", "json", "output format (json, markdown, email)")
	cmd.Flags().BoolVar(&notify, "notify", false, "deliver the report through the configured notifiers")
	cmd.Flags().BoolVar(&noStore, "no-store", false, "do not persist the report")
	cmd.MarkFlagRequired("event")

	return cmd
}

func readEvent(path string, stdin io.Reader) ([]byte, error) {
	if path == "-" {
		return io.ReadAll(stdin)
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading event: %w", err)
	}
	return b, nil
}

func checkFormat(format string) error {
	switch format {
	case "json", "markdown", "email":
		return nil
	}
	return fmt.Errorf("unknown format %q (want json, markdown or email)", format)
}

// writeReport renders r in the requested format.
func writeReport(w io.Writer, r report.Report, format string) error {
	switch format {
	case "markdown":
		md, err := report.RenderMarkdown(r)
		if err != nil {
			return err
		}
		_, err = io.WriteString(w, md)
		return err
	case "email":
		e, err := report.RenderEmail(r)
		if err != nil {
			return err
		}
		_, err = fmt.Fprintf(w, "Subject: %s\nContent-Type: %s\n\n%s", e.Subject, e.ContentType, e.Body)
		return err
	default:
		b, err := report.RenderJSON(r)
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(w, string(b))
		return err
	}
}
