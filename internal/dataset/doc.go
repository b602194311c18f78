// Package dataset persists committed episodes into the chunked on-disk
// layout the downstream loader consumes.
//
// The Writer owns the dataset's run-wide counters: the next episode index
// is derived from the episode catalog length, and task texts are
// deduplicated against the task catalog. Commit writes the parquet episode
// table first and only then touches metadata, so a video or table artifact
// is never referenced by meta/ unless it was fully written. The Layout type
// derives every chunked artifact path.
package dataset
