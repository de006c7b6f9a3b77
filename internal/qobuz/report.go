package qobuz

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/desertthunder/qbz/internal/shared"
)

// Report endpoints for playback telemetry.
const (
	EndpointStreamingStart = "track/reportStreamingStart"
	EndpointStreamingEnd   = "track/reportStreamingEnd"
)

// ReportEvents posts playback telemetry to the given report endpoint.
//
// The provider expects the JSON-encoded events array in the "events" query
// parameter of an otherwise empty POST, one element per delivery.
func (c *Client) ReportEvents(ctx context.Context, endpoint string, events any) error {
	payload, err := json.Marshal(events)
	if err != nil {
		return fmt.Errorf("failed to marshal events: %w", err)
	}

	params := url.Values{}
	params.Set("events", string(payload))

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+endpoint+"?"+params.Encode(), nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	c.setHeaders(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("%w: %s returned status %d: %s", shared.ErrAPIRequest, endpoint, resp.StatusCode, strings.TrimSpace(string(body)))
	}

	return nil
}
