package preflight

import (
	"context"
	"fmt"

	"clapper/internal/config"
	"clapper/internal/deps"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name     string
	Passed   bool
	Optional bool
	Detail   string
}

// RunAll executes every preflight check implied by the configuration:
// external binaries, dataset and log directory access, free space for the
// configured run, and the presence of each camera's device node.
func RunAll(ctx context.Context, cfg *config.Config) []Result {
	if cfg == nil {
		return nil
	}

	var results []Result

	for _, status := range deps.CheckBinaries(deps.For(cfg)) {
		result := Result{Name: status.Name, Passed: status.Available, Optional: status.Optional, Detail: status.Detail}
		if status.Available {
			result.Detail = status.Command
		}
		results = append(results, result)
	}

	results = append(results, CheckDirectoryAccess("Dataset directory", cfg.Paths.DatasetDir))
	results = append(results, CheckDirectoryAccess("Log directory", cfg.Paths.LogDir))
	results = append(results, CheckFreeSpace(cfg.Paths.DatasetDir, estimateRunBytes(cfg)))

	for _, camera := range cfg.Cameras {
		results = append(results, CheckCaptureDevice(camera.Name, camera.Device))
	}

	return results
}

// Failed returns the names of required checks that did not pass.
func Failed(results []Result) []string {
	var failed []string
	for _, result := range results {
		if !result.Passed && !result.Optional {
			failed = append(failed, fmt.Sprintf("%s: %s", result.Name, result.Detail))
		}
	}
	return failed
}

// estimateRunBytes sizes the raw frame volume of one configured run, an
// upper bound on what the encoded artifacts can occupy.
func estimateRunBytes(cfg *config.Config) uint64 {
	frame := uint64(cfg.Capture.Width) * uint64(cfg.Capture.Height) * 3
	ticks := uint64(cfg.TargetTicks())
	cameras := uint64(len(cfg.Cameras))
	episodes := uint64(cfg.Capture.Episodes)
	return frame * ticks * cameras * episodes
}
