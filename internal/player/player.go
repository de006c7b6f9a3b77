// package player defines the host media player contract the plugin is driven
// by: the track data model, playback states, event variants, the event bus,
// and the play queue surface.
//
// The host owns playback and the queue; the plugin only observes events and
// pushes track references back through [PlayQueue].
package player

import "fmt"

// TrackID identifies a track within a provider namespace.
//
// Source is the provider tag ("qobuz", "local", ...); ID is the raw provider
// identifier, kept as a string because formats differ between providers.
type TrackID struct {
	ID     string
	Source string
}

// String renders the id as "source:id" for logs.
func (t TrackID) String() string {
	return fmt.Sprintf("%s:%s", t.Source, t.ID)
}

// Track represents a queue entry as the host models it.
//
// ArtistID, GenreID and LabelID are provider-side entity ids carried through
// for recommendation requests; they are empty for tracks from providers that
// do not expose them.
type Track struct {
	ID       TrackID
	Title    string
	Artist   string
	Album    string
	Duration int // seconds
	ArtistID string
	GenreID  string
	LabelID  string
}

// PlayQueue is the host play queue surface exposed to plugins.
type PlayQueue interface {
	// Add appends track references to the end of the host play queue.
	Add(tracks ...Track)
}
