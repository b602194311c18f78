package logging

// Standardized attribute keys shared by all components.
const (
	FieldComponent    = "component"
	FieldError        = "error"
	FieldRunID        = "run_id"
	FieldEpisodeIndex = "episode_index"
	FieldCamera       = "camera"
	FieldDevice       = "device"
	FieldTick         = "tick"
	FieldChunk        = "chunk"
	FieldTask         = "task"
	FieldFrames       = "frames"
	FieldPath         = "path"
	FieldState        = "state"
)
