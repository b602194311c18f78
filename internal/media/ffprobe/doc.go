// Package ffprobe shells out to ffprobe to inspect finished video artifacts.
// The recorder uses it to verify that an episode's container holds exactly
// as many frames as the episode table has rows before the episode commits.
package ffprobe
