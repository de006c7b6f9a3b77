package player

// State represents the host player's playback state.
type State int

const (
	StateStopped State = iota // No track loaded
	StatePlaying              // A track is playing
	StatePaused               // Playback is paused
	StateError                // Playback failed
)

// String returns a human-readable representation of the State.
func (s State) String() string {
	switch s {
	case StateStopped:
		return "stopped"
	case StatePlaying:
		return "playing"
	case StatePaused:
		return "paused"
	case StateError:
		return "error"
	default:
		return "unknown"
	}
}
