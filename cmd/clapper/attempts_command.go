package main

import (
	"fmt"
	"path/filepath"
	"strconv"

	"github.com/spf13/cobra"

	"clapper/internal/journal"
)

func newAttemptsCommand(ctx *commandContext) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "attempts",
		Short: "Show journaled recording attempts, including aborted ones",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			store, err := journal.Open(filepath.Join(cfg.Paths.LogDir, "journal.db"))
			if err != nil {
				return err
			}
			defer store.Close()

			attempts, err := store.List(cmd.Context(), limit)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if len(attempts) == 0 {
				fmt.Fprintln(out, "No recorded attempts")
				return nil
			}

			rows := make([][]string, 0, len(attempts))
			for _, attempt := range attempts {
				rows = append(rows, []string{
					strconv.FormatInt(attempt.ID, 10),
					strconv.Itoa(attempt.EpisodeIndex),
					string(attempt.Status),
					strconv.Itoa(attempt.Frames),
					attempt.Task,
					attempt.UpdatedAt.Local().Format("2006-01-02 15:04:05"),
					attempt.ErrorMessage,
				})
			}
			fmt.Fprintln(out, renderTable(
				[]tableColumn{
					{header: "ID", right: true},
					{header: "EPISODE", right: true},
					{header: "STATUS"},
					{header: "FRAMES", right: true},
					{header: "TASK"},
					{header: "UPDATED"},
					{header: "ERROR"},
				},
				rows,
			))
			return nil
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 20, "Show at most N attempts (0 for all)")
	return cmd
}
