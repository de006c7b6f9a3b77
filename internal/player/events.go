package player

// Event is the closed set of host notifications delivered to subscribers.
//
// Subscribers receive every published event and type-switch on the variants
// they care about; an unexpected variant at a subscription boundary is a
// host/plugin contract mismatch and should be logged and ignored, never
// propagated back to the bus.
type Event interface {
	isEvent()
}

// StateChanged is published when the playback state or current track changes.
// CurrentTrack is nil when nothing is loaded.
type StateChanged struct {
	State        State
	CurrentTrack *Track
}

// TracksAdded is published after tracks are appended to the play queue.
type TracksAdded struct {
	Tracks []Track
}

// TracksRemoved is published after queue entries are removed. Indices refer
// to positions in the queue as it was before the removal.
type TracksRemoved struct {
	Indices []int
}

// RequestMoreTracks is published when the queue runs low and the host wants
// one more track from whichever plugin can supply it.
type RequestMoreTracks struct{}

func (StateChanged) isEvent()      {}
func (TracksAdded) isEvent()       {}
func (TracksRemoved) isEvent()     {}
func (RequestMoreTracks) isEvent() {}
