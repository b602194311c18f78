package journal

import "time"

// Status describes an attempt's lifecycle position.
type Status string

const (
	StatusRecording Status = "recording"
	StatusCommitted Status = "committed"
	StatusAborted   Status = "aborted"
)

// Terminal reports whether no further transitions are possible.
func (s Status) Terminal() bool {
	return s == StatusCommitted || s == StatusAborted
}

// Attempt is one journaled episode recording attempt.
type Attempt struct {
	ID           int64
	RunID        string
	EpisodeIndex int
	Task         string
	Status       Status
	Frames       int
	ErrorMessage string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
