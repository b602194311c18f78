package recorder

// State is the recorder's position in an episode's lifecycle.
type State string

const (
	StateIdle       State = "idle"
	StateRecording  State = "recording"
	StateFinalizing State = "finalizing"
	StateCommitted  State = "committed"
	StateAborted    State = "aborted"
)

// validTransitions enumerates the legal state changes. Aborted is reachable
// from every active state so cleanup cannot be skipped on any exit path;
// terminal states only lead back to Idle for the next episode.
var validTransitions = map[State][]State{
	StateIdle:       {StateRecording},
	StateRecording:  {StateFinalizing, StateAborted},
	StateFinalizing: {StateCommitted, StateAborted},
	StateCommitted:  {StateIdle},
	StateAborted:    {StateIdle},
}

func (s State) canTransition(to State) bool {
	for _, next := range validTransitions[s] {
		if next == to {
			return true
		}
	}
	return false
}

// Terminal reports whether the episode has reached a final state.
func (s State) Terminal() bool {
	return s == StateCommitted || s == StateAborted
}
