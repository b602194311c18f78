package main

import (
	"errors"
	"fmt"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"clapper/internal/config"
	"clapper/internal/run"
)

func newRecordCommand(ctx *commandContext) *cobra.Command {
	var (
		out       string
		episodes  int
		duration  float64
		fps       int
		width     int
		height    int
		cameras   []string
		task      string
		chunkSize int
		minFrames int
		simulate  bool
		verify    bool
	)

	cmd := &cobra.Command{
		Use:   "record",
		Short: "Record synchronized multi-camera episodes into a dataset",
		Long: `Record runs the episode loop: every configured camera is opened, frames
are aligned to a shared clock at the target rate, and each completed episode
is committed to the dataset as one video per camera plus a table of
tick-aligned rows. Aborted episodes leave the dataset untouched.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			flags := cmd.Flags()
			if flags.Changed("out") {
				expanded, err := config.ExpandPath(out)
				if err != nil {
					return fmt.Errorf("resolve output path: %w", err)
				}
				cfg.Paths.DatasetDir = expanded
			}
			if flags.Changed("episodes") {
				cfg.Capture.Episodes = episodes
			}
			if flags.Changed("duration") {
				cfg.Capture.DurationSeconds = duration
			}
			if flags.Changed("fps") {
				cfg.Capture.FPS = fps
			}
			if flags.Changed("width") {
				cfg.Capture.Width = width
			}
			if flags.Changed("height") {
				cfg.Capture.Height = height
			}
			if flags.Changed("task") {
				cfg.Dataset.Task = task
			}
			if flags.Changed("chunk-size") {
				cfg.Dataset.ChunkSize = chunkSize
			}
			if flags.Changed("min-frames") {
				cfg.Capture.MinFrames = minFrames
			}
			if flags.Changed("verify") {
				cfg.FFmpeg.VerifyOutputs = verify
			}
			if flags.Changed("camera") {
				parsed, err := parseCameraFlags(cameras)
				if err != nil {
					return err
				}
				cfg.Cameras = parsed
			}
			if err := cfg.Validate(); err != nil {
				return err
			}

			logger, err := ctx.ensureLogger()
			if err != nil {
				return err
			}

			runCtx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			runner := run.New(cfg, run.Options{Simulate: simulate}, logger)
			summary, err := runner.Run(runCtx)
			printSummary(cmd, summary)
			if err != nil {
				if errors.Is(err, runCtx.Err()) {
					return fmt.Errorf("run interrupted after %d committed episode(s)", summary.Committed)
				}
				return err
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&out, "out", "o", "", "Dataset root directory")
	cmd.Flags().IntVarP(&episodes, "episodes", "n", 0, "Number of episodes to record")
	cmd.Flags().Float64VarP(&duration, "duration", "d", 0, "Episode duration in seconds")
	cmd.Flags().IntVar(&fps, "fps", 0, "Target frames per second")
	cmd.Flags().IntVar(&width, "width", 0, "Capture width in pixels")
	cmd.Flags().IntVar(&height, "height", 0, "Capture height in pixels")
	cmd.Flags().StringArrayVar(&cameras, "camera", nil, "Camera as name=device (repeatable)")
	cmd.Flags().StringVarP(&task, "task", "t", "", "Task description stored with each episode")
	cmd.Flags().IntVar(&chunkSize, "chunk-size", 0, "Episodes per storage chunk")
	cmd.Flags().IntVar(&minFrames, "min-frames", 0, "End each episode once this many frames were captured")
	cmd.Flags().BoolVar(&simulate, "simulate", false, "Replace cameras with synthetic sources")
	cmd.Flags().BoolVar(&verify, "verify", false, "Re-count frames in finished videos with ffprobe")

	return cmd
}

// parseCameraFlags converts repeated name=device values into camera entries.
func parseCameraFlags(values []string) ([]config.Camera, error) {
	cameras := make([]config.Camera, 0, len(values))
	for _, value := range values {
		name, device, ok := strings.Cut(value, "=")
		name = strings.TrimSpace(name)
		device = strings.TrimSpace(device)
		if !ok || name == "" || device == "" {
			return nil, fmt.Errorf("invalid --camera value %q, expected name=device", value)
		}
		cameras = append(cameras, config.Camera{Name: name, Device: device})
	}
	return cameras, nil
}

func printSummary(cmd *cobra.Command, summary run.Summary) {
	if len(summary.Outcomes) == 0 {
		return
	}

	rows := make([][]string, 0, len(summary.Outcomes))
	for _, outcome := range summary.Outcomes {
		result := "committed"
		detail := ""
		if !outcome.Committed {
			result = "aborted"
			if outcome.Err != nil {
				detail = outcome.Err.Error()
			}
		}
		rows = append(rows, []string{
			strconv.Itoa(outcome.EpisodeIndex),
			result,
			strconv.Itoa(outcome.Length),
			detail,
		})
	}

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, renderTable(
		[]tableColumn{{header: "EPISODE", right: true}, {header: "RESULT"}, {header: "FRAMES", right: true}, {header: "DETAIL"}},
		rows,
	))
	fmt.Fprintf(out, "Run %s: %d committed, %d aborted\n",
		summary.RunID, summary.Committed, summary.Aborted)
}
