package qobuz

import (
	"context"
	"fmt"
	"net/url"
	"strconv"

	"github.com/desertthunder/qbz/internal/player"
)

// Track retrieves metadata for a single track.
func (c *Client) Track(ctx context.Context, trackID string) (*Track, error) {
	params := url.Values{}
	params.Set("track_id", trackID)

	var track Track
	if err := c.doGet(ctx, "track/get", params, &track); err != nil {
		return nil, err
	}
	return &track, nil
}

// Tracks retrieves metadata for a batch of tracks via track/getList.
func (c *Client) Tracks(ctx context.Context, trackIDs []int64) ([]Track, error) {
	if len(trackIDs) == 0 {
		return nil, nil
	}

	body := map[string][]int64{"tracks_id": trackIDs}
	var resp tracksResponse
	if err := c.doPost(ctx, "track/getList", body, &resp); err != nil {
		return nil, err
	}
	return resp.Tracks.Items, nil
}

// TrackReferences resolves a batch of track ids into host track references.
func (c *Client) TrackReferences(ctx context.Context, trackIDs []int64) ([]player.Track, error) {
	tracks, err := c.Tracks(ctx, trackIDs)
	if err != nil {
		return nil, err
	}

	refs := make([]player.Track, 0, len(tracks))
	for _, t := range tracks {
		refs = append(refs, t.Ref())
	}
	return refs, nil
}

// Search queries the catalog for tracks matching the query string.
func (c *Client) Search(ctx context.Context, query string, limit int) ([]Track, error) {
	if limit <= 0 {
		limit = 20
	}
	if limit > 50 {
		limit = 50
	}

	params := url.Values{}
	params.Set("query", query)
	params.Set("limit", strconv.Itoa(limit))

	var resp searchResponse
	if err := c.doGet(ctx, "catalog/search", params, &resp); err != nil {
		return nil, err
	}
	return resp.Tracks.Items, nil
}

// FavoriteTracks retrieves the user's favorite tracks with pagination.
func (c *Client) FavoriteTracks(ctx context.Context, offset, limit int) ([]Track, error) {
	if limit <= 0 {
		limit = 50
	}

	params := url.Values{}
	params.Set("type", "tracks")
	params.Set("offset", strconv.Itoa(offset))
	params.Set("limit", strconv.Itoa(limit))

	var resp favoritesResponse
	if err := c.doGet(ctx, "favorite/getUserFavorites", params, &resp); err != nil {
		return nil, err
	}
	return resp.Tracks.Items, nil
}

// UserPlaylists retrieves the user's playlists with pagination.
func (c *Client) UserPlaylists(ctx context.Context, offset, limit int) ([]Playlist, error) {
	if limit <= 0 {
		limit = 50
	}

	params := url.Values{}
	params.Set("offset", strconv.Itoa(offset))
	params.Set("limit", strconv.Itoa(limit))

	var resp playlistsResponse
	if err := c.doGet(ctx, "playlist/getUserPlaylists", params, &resp); err != nil {
		return nil, err
	}
	return resp.Playlists.Items, nil
}

// PlaylistTracks retrieves a playlist's tracks.
func (c *Client) PlaylistTracks(ctx context.Context, playlistID int64) ([]Track, error) {
	params := url.Values{}
	params.Set("playlist_id", fmt.Sprint(playlistID))
	params.Set("extra", "tracks")

	var resp playlistResponse
	if err := c.doGet(ctx, "playlist/get", params, &resp); err != nil {
		return nil, err
	}
	return resp.Tracks.Items, nil
}
