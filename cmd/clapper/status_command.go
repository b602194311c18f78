package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"clapper/internal/preflight"
)

func newStatusCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Check host readiness for recording",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			results := preflight.RunAll(cmd.Context(), cfg)
			rows := make([][]string, 0, len(results))
			for _, result := range results {
				state := "fail"
				switch {
				case result.Passed:
					state = "ok"
				case result.Optional:
					state = "missing (optional)"
				}
				rows = append(rows, []string{result.Name, state, result.Detail})
			}

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, renderTable(
				[]tableColumn{{header: "CHECK"}, {header: "STATUS"}, {header: "DETAIL"}},
				rows,
			))

			if failed := preflight.Failed(results); len(failed) > 0 {
				return fmt.Errorf("%d required check(s) failed", len(failed))
			}
			fmt.Fprintln(out, "Ready to record")
			return nil
		},
	}
}
