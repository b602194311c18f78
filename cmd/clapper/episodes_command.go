package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"clapper/internal/config"
	"clapper/internal/dataset"
)

func newEpisodesCommand(ctx *commandContext) *cobra.Command {
	var root string
	var limit int

	cmd := &cobra.Command{
		Use:   "episodes",
		Short: "Show the committed episodes of a dataset",
		RunE: func(cmd *cobra.Command, args []string) error {
			if root == "" {
				cfg, err := ctx.ensureConfig()
				if err != nil {
					return err
				}
				root = cfg.Paths.DatasetDir
			} else {
				expanded, err := config.ExpandPath(root)
				if err != nil {
					return fmt.Errorf("resolve dataset path: %w", err)
				}
				root = expanded
			}

			layout := dataset.Layout{Root: root}
			episodes, err := dataset.ReadEpisodes(layout.EpisodesPath())
			if err != nil {
				return err
			}
			tasks, err := dataset.ReadTasks(layout.TasksPath())
			if err != nil {
				return err
			}
			taskText := make(map[int]string, len(tasks))
			for _, task := range tasks {
				taskText[task.TaskIndex] = task.Task
			}

			out := cmd.OutOrStdout()
			if len(episodes) == 0 {
				fmt.Fprintf(out, "No episodes in %s\n", root)
				return nil
			}

			start := 0
			if limit > 0 && len(episodes) > limit {
				start = len(episodes) - limit
			}
			rows := make([][]string, 0, len(episodes)-start)
			totalFrames := 0
			for _, episode := range episodes {
				totalFrames += episode.Length
			}
			for _, episode := range episodes[start:] {
				rows = append(rows, []string{
					dataset.EpisodeName(episode.EpisodeIndex),
					strconv.Itoa(episode.Length),
					taskText[episode.TaskIndex],
					dataset.ChunkName(episode.Chunk),
				})
			}
			fmt.Fprintln(out, renderTable(
				[]tableColumn{{header: "EPISODE"}, {header: "FRAMES", right: true}, {header: "TASK"}, {header: "CHUNK"}},
				rows,
			))
			fmt.Fprintf(out, "%d episode(s), %d frame(s), %d task(s)\n",
				len(episodes), totalFrames, len(tasks))
			return nil
		},
	}

	cmd.Flags().StringVar(&root, "root", "", "Dataset root (defaults to the configured dataset directory)")
	cmd.Flags().IntVar(&limit, "limit", 0, "Show only the most recent N episodes")
	return cmd
}
