package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"radiograb/internal/preflight"
)

func newCheckCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Verify directories, catalog reachability, and ffmpeg",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if err := cfg.EnsureDirectories(); err != nil {
				return err
			}

			results := preflight.RunAll(cmd.Context(), cfg)
			statuses := preflight.CheckSystemDeps(cmd.Context(), cfg)

			rows := make([][]string, 0, len(results)+len(statuses))
			failed := false
			for _, r := range results {
				rows = append(rows, []string{r.Name, passLabel(r.Passed, !r.Fatal), r.Detail})
				if !r.Passed && r.Fatal {
					failed = true
				}
			}
			for _, s := range statuses {
				detail := s.Detail
				if detail == "" {
					detail = s.Command
				}
				rows = append(rows, []string{s.Name, passLabel(s.Available, s.Optional), detail})
				if !s.Available && !s.Optional {
					failed = true
				}
			}

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, renderTable(out, []string{"Check", "Status", "Detail"}, rows, nil))
			if failed {
				return errors.New("one or more required checks failed")
			}
			fmt.Fprintln(out, "All required checks passed")
			return nil
		},
	}
}

func passLabel(passed, optional bool) string {
	switch {
	case passed:
		return "ok"
	case optional:
		return "warn"
	default:
		return "FAIL"
	}
}
