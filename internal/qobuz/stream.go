package qobuz

import (
	"context"
	"crypto/md5"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"github.com/desertthunder/qbz/internal/shared"
)

// validFormatIDs are the streaming qualities the provider accepts for signed
// stream-URL requests.
var validFormatIDs = map[int]bool{5: true, 6: true, 7: true, 27: true}

// TrackURL fetches a signed streaming URL for the track at the configured
// format id. The full response is kept in the stream cache so the reporter
// can read format id and total duration when building reports.
func (c *Client) TrackURL(ctx context.Context, trackID string) (*StreamURL, error) {
	return c.TrackURLFormat(ctx, trackID, c.formatID)
}

// TrackURLFormat fetches a signed streaming URL at an explicit format id.
func (c *Client) TrackURLFormat(ctx context.Context, trackID string, formatID int) (*StreamURL, error) {
	if c.secret == "" {
		return nil, fmt.Errorf("%w: call SelectSecret first", shared.ErrNotAuthenticated)
	}
	return c.streamURL(ctx, trackID, formatID, c.secret)
}

func (c *Client) streamURL(ctx context.Context, trackID string, formatID int, secret string) (*StreamURL, error) {
	if !validFormatIDs[formatID] {
		return nil, fmt.Errorf("%w: %d (choose 5, 6, 7 or 27)", shared.ErrInvalidQuality, formatID)
	}

	ts := time.Now().Unix()
	params := url.Values{}
	params.Set("request_ts", strconv.FormatInt(ts, 10))
	params.Set("request_sig", streamSignature(formatID, trackID, ts, secret))
	params.Set("track_id", trackID)
	params.Set("format_id", strconv.Itoa(formatID))
	params.Set("intent", "stream")

	var stream StreamURL
	if err := c.doGet(ctx, "track/getFileUrl", params, &stream); err != nil {
		return nil, err
	}

	c.streamCache.Add(trackID, stream)
	return &stream, nil
}

// CachedStream returns the most recent stream-URL response for the track, if
// one is still in the cache.
func (c *Client) CachedStream(trackID string) (StreamURL, bool) {
	return c.streamCache.Get(trackID)
}

// streamSignature computes the MD5 request signature for track/getFileUrl.
func streamSignature(formatID int, trackID string, ts int64, secret string) string {
	payload := fmt.Sprintf("trackgetFileUrlformat_id%dintentstreamtrack_id%s%d%s", formatID, trackID, ts, secret)
	return fmt.Sprintf("%x", md5.Sum([]byte(payload)))
}
