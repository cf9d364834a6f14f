package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"radiograb/internal/logging"
)

func newRulesCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "rules",
		Short: "Show the compiled subscription rules",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			ruleSet, err := compileRules(cfg, logging.NewNop())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(ruleSet) == 0 {
				fmt.Fprintln(out, "No rules configured.")
				return nil
			}

			rows := make([][]string, 0, len(ruleSet))
			for _, r := range ruleSet {
				rows = append(rows, []string{
					r.Name,
					r.Window.String(),
					r.Days(),
					r.TitlePattern.String(),
					r.InfoPattern.String(),
					strconv.Itoa(r.Quality),
					yesNo(r.KeepOriginal),
					r.TargetDir + "/" + r.TargetName,
				})
			}
			fmt.Fprintln(out, renderTable(out,
				[]string{"Rule", "Window", "Days", "Title", "Info", "Quality", "Keep", "Target"},
				rows,
				[]columnAlignment{alignLeft, alignLeft, alignLeft, alignLeft, alignLeft, alignRight, alignLeft, alignLeft},
			))
			for _, r := range ruleSet {
				for _, warning := range r.Warnings() {
					fmt.Fprintf(out, "warning: rule %q: %s\n", r.Name, warning)
				}
			}
			return nil
		},
	}
}
