// Package config loads, normalizes, and validates clapper configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and merges CLI overrides. The Config type
// centralizes every knob the recorder needs: dataset location, camera
// definitions, capture timing, chunking, ffmpeg binaries, and logging.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical values, and clear validation errors.
package config
