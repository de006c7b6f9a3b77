package qobuz

import (
	"context"
)

// Suggestions requests a batch of recommended track ids from the provider.
//
// listened carries the ids of provider tracks already in the listening
// context; seeds carries the feature set of the tracks to analyze. The
// returned algorithm label is informational only.
func (c *Client) Suggestions(ctx context.Context, listened []int64, seeds []SeedTrack, limit int) (*Suggestions, error) {
	body := suggestRequest{
		Limit:             limit,
		ListenedTracksIDs: listened,
		TracksToAnalyse:   seeds,
	}
	if body.ListenedTracksIDs == nil {
		body.ListenedTracksIDs = []int64{}
	}
	if body.TracksToAnalyse == nil {
		body.TracksToAnalyse = []SeedTrack{}
	}

	var resp suggestResponse
	if err := c.doPost(ctx, "dynamic/suggest", body, &resp); err != nil {
		return nil, err
	}

	ids := make([]int64, 0, len(resp.Tracks.Items))
	for _, item := range resp.Tracks.Items {
		ids = append(ids, item.ID)
	}

	return &Suggestions{TrackIDs: ids, Algorithm: resp.Algorithm}, nil
}
