package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/soyeahso/alarmhound/internal/store"
)

func newReportsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "reports",
		Short: "Browse stored investigation reports",
	}
	cmd.AddCommand(newReportsListCmd())
	cmd.AddCommand(newReportsShowCmd())
	return cmd
}

func openReports() (*store.DB, *store.ReportStore, error) {
	path := cfg.Store.Path
	if path == "" {
		path = paths.ReportsDB
	}
	db, err := store.Open(path, log)
	if err != nil {
		return nil, nil, fmt.Errorf("opening database: %w", err)
	}
	return db, store.NewReportStore(db), nil
}

func newReportsListCmd() *cobra.Command {
	var (
		q      store.ReportQuery
		asJSON bool
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List recent reports, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			db, reports, err := openReports()
			if err != nil {
				return err
			}
			defer db.Close()

			list, err := reports.ListReports(context.Background(), q)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(list)
			}
			if len(list) == 0 {
				fmt.Fprintln(out, "No reports.")
				return nil
			}
			tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tTIME\tALARM\tSTATE\tOUTCOME\tTOOLS")
			for _, r := range list {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%d\n",
					r.ID, r.Timestamp.UTC().Format(time.DateTime), r.AlarmName, r.State, r.Outcome, r.ToolCalls)
			}
			return tw.Flush()
		},
	}

	cmd.Flags().StringVar(&q.AlarmName, "alarm", "", "only reports for this alarm")
	cmd.Flags().StringVar(&q.State, "state", "", "only reports in this state (OK, ALARM, INSUFFICIENT_DATA)")
	cmd.Flags().IntVar(&q.Limit, "limit", 20, "maximum number of reports")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON")
	return cmd
}

func newReportsShowCmd() *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "show <id>",
		Short: "Print one report",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := checkFormat(format); err != nil {
				return err
			}
			db, reports, err := openReports()
			if err != nil {
				return err
			}
			defer db.Close()

			r, err := reports.GetReport(context.Background(), args[0])
			if err != nil {
				return err
			}
			return writeReport(cmd.OutOrStdout(), *r, format)
		},
	}

	cmd.Flags().StringVar(&format, "format", "markdown", "output format (json, markdown, email)")
	return cmd
}
