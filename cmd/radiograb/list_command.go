package main

import (
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"radiograb/internal/textutil"
)

func newListCommand(ctx *commandContext) *cobra.Command {
	var from, to string
	var noCache bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "Show the catalog for a date range without matching rules",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := ctx.logger("")
			if err != nil {
				return fmt.Errorf("init logger: %w", err)
			}
			session, err := openCatalogSession(cmd.Context(), cfg, logger, noCache)
			if err != nil {
				return err
			}
			defer session.close(cmd.Context())

			start, end, err := resolveRange(from, to, cfg.Catalog.LookbackDays, session.fetcher.Location(), time.Now())
			if err != nil {
				return err
			}
			records, err := session.fetcher.Collect(cmd.Context(), start, end)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if len(records) == 0 {
				fmt.Fprintln(out, "No broadcasts found.")
				return nil
			}
			rows := make([][]string, 0, len(records))
			for i, rec := range records {
				rows = append(rows, []string{
					strconv.Itoa(i + 1),
					rec.ScheduledAt.Format("2006-01-02 15:04"),
					rec.ID,
					rec.Title,
					textutil.TruncateRunes(rec.InfoOneLine(), 60),
				})
			}
			fmt.Fprintln(out, renderTable(out,
				[]string{"#", "Scheduled", "ID", "Title", "Info"},
				rows,
				[]columnAlignment{alignRight, alignLeft, alignRight, alignLeft, alignLeft},
			))
			fmt.Fprintf(out, "%d items.\n", len(records))
			return nil
		},
	}

	cmd.Flags().StringVar(&from, "from", "", "First catalog day (YYYY-MM-DD)")
	cmd.Flags().StringVar(&to, "to", "", "Last catalog day (YYYY-MM-DD)")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "Ignore cached catalog pages")
	return cmd
}
