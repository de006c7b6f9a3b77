// Qobuz API response types based on the api.json/0.2 endpoints the plugin
// consumes: user/login, track/getFileUrl, track/get(List), catalog/search,
// favorite/getUserFavorites, playlist/getUserPlaylists, dynamic/suggest.
package qobuz

import (
	"strconv"

	"github.com/desertthunder/qbz/internal/player"
)

// Source is the provider tag this plugin stamps on host track ids.
const Source = "qobuz"

// Entity is a named catalog entity reference (performer, genre, label).
type Entity struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// Album represents album metadata as embedded in track responses.
type Album struct {
	ID     string  `json:"id"`
	Title  string  `json:"title"`
	Artist *Entity `json:"artist"`
	Genre  *Entity `json:"genre"`
	Label  *Entity `json:"label"`
}

// Track represents a catalog track.
type Track struct {
	ID        int64   `json:"id"`
	Title     string  `json:"title"`
	Duration  int     `json:"duration"`
	Performer *Entity `json:"performer"`
	Album     *Album  `json:"album"`
}

// Ref converts the catalog track into the host's track model, tagged with
// the provider source so downstream subscribers can recognize it.
func (t Track) Ref() player.Track {
	ref := player.Track{
		ID:       player.TrackID{ID: strconv.FormatInt(t.ID, 10), Source: Source},
		Title:    t.Title,
		Duration: t.Duration,
	}

	if t.Performer != nil {
		ref.Artist = t.Performer.Name
		ref.ArtistID = strconv.FormatInt(t.Performer.ID, 10)
	}
	if t.Album != nil {
		ref.Album = t.Album.Title
		if t.Album.Genre != nil {
			ref.GenreID = strconv.FormatInt(t.Album.Genre.ID, 10)
		}
		if t.Album.Label != nil {
			ref.LabelID = strconv.FormatInt(t.Album.Label.ID, 10)
		}
	}

	return ref
}

// StreamURL is the track/getFileUrl response. The reporter later reads
// FormatID and Duration from the cached copy when building reports.
type StreamURL struct {
	TrackID      int64   `json:"track_id"`
	FormatID     int     `json:"format_id"`
	Duration     int     `json:"duration"`
	URL          string  `json:"url"`
	MimeType     string  `json:"mime_type"`
	SamplingRate float64 `json:"sampling_rate"`
	BitDepth     int     `json:"bit_depth"`
}

// Playlist represents a user playlist summary.
type Playlist struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	TracksCount int    `json:"tracks_count"`
	IsPublic    bool   `json:"is_public"`
}

// trackList is the paginated track container most endpoints share.
type trackList struct {
	Items []Track `json:"items"`
	Total int     `json:"total"`
}

type loginResponse struct {
	UserAuthToken string `json:"user_auth_token"`
	User          struct {
		ID         int64 `json:"id"`
		Credential struct {
			ID         int64 `json:"id"`
			Parameters *struct {
				ShortLabel string `json:"short_label"`
			} `json:"parameters"`
		} `json:"credential"`
	} `json:"user"`
}

type searchResponse struct {
	Tracks trackList `json:"tracks"`
}

type favoritesResponse struct {
	Tracks trackList `json:"tracks"`
}

type playlistsResponse struct {
	Playlists struct {
		Items []Playlist `json:"items"`
		Total int        `json:"total"`
	} `json:"playlists"`
}

type playlistResponse struct {
	Playlist
	Tracks trackList `json:"tracks"`
}

type tracksResponse struct {
	Tracks trackList `json:"tracks"`
}

// SeedTrack is one entry of the "tracks to analyze" feature set sent with a
// recommendation request. Missing entity ids are serialized as null.
type SeedTrack struct {
	ArtistID *int64 `json:"artist_id"`
	GenreID  *int64 `json:"genre_id"`
	LabelID  *int64 `json:"label_id"`
	TrackID  *int64 `json:"track_id"`
}

type suggestRequest struct {
	Limit             int         `json:"limit"`
	ListenedTracksIDs []int64     `json:"listened_tracks_ids"`
	TracksToAnalyse   []SeedTrack `json:"track_to_analysed"`
}

type suggestResponse struct {
	Tracks struct {
		Items []struct {
			ID int64 `json:"id"`
		} `json:"items"`
	} `json:"tracks"`
	Algorithm string `json:"algorithm"`
}

// Suggestions is the outcome of a dynamic/suggest request.
type Suggestions struct {
	TrackIDs  []int64
	Algorithm string
}
