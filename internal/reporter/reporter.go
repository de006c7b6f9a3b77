// package reporter implements the asynchronous playback telemetry pipeline.
//
// The reporter turns host player state changes into streaming start/end
// reports, queues them on an unbounded FIFO, and drains the queue from a
// single background goroutine at a fixed rate. Delivery is best-effort and
// at-most-once: failed sends are logged and discarded, never retried, and a
// reporting failure is never allowed to disturb playback.
package reporter

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/time/rate"

	"github.com/desertthunder/qbz/internal/player"
	"github.com/desertthunder/qbz/internal/qobuz"
	"github.com/desertthunder/qbz/internal/shared"
)

// defaultInterval spaces out report deliveries. The provider rate limits
// report submissions; one event per three seconds is known to pass.
const defaultInterval = 3 * time.Second

// Catalog is the slice of the provider client the reporter depends on:
// account identifiers, the stream-URL cache, and report delivery.
type Catalog interface {
	UserID() int64
	CredentialID() int64
	CachedStream(trackID string) (qobuz.StreamURL, bool)
	ReportEvents(ctx context.Context, endpoint string, events any) error
}

// Report is the wire payload for both streaming report endpoints.
// TotalTrackDuration is only present on start reports.
type Report struct {
	UserID             int64  `json:"user_id"`
	CredentialID       int64  `json:"credential_id"`
	Date               int64  `json:"date"`
	TrackID            int64  `json:"track_id"`
	FormatID           int    `json:"format_id"`
	Duration           int    `json:"duration"`
	Online             bool   `json:"online"`
	Intent             string `json:"intent"`
	Local              bool   `json:"local"`
	Purchase           bool   `json:"purchase"`
	Sample             bool   `json:"sample"`
	Seek               int    `json:"seek"`
	TotalTrackDuration *int   `json:"totalTrackDuration,omitempty"`
}

// Reporter tracks the currently playing provider track and reports streaming
// sessions. One sender goroutine per Reporter, started at construction and
// joined by Shutdown.
type Reporter struct {
	catalog Catalog
	queue   *messageQueue
	limiter *rate.Limiter
	logger  *log.Logger

	// mu guards the tracking state; the host may deliver state changes
	// from more than one goroutine.
	mu             sync.Mutex
	currentTrackID string
	lastReport     time.Time

	done chan struct{}
}

// Opts contains optional overrides for creating a Reporter.
type Opts struct {
	Interval time.Duration // delivery spacing, defaults to 3s
	Logger   *log.Logger
}

// New creates a Reporter and starts its sender goroutine.
func New(catalog Catalog, opts Opts) *Reporter {
	if opts.Interval <= 0 {
		opts.Interval = defaultInterval
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}

	r := &Reporter{
		catalog:    catalog,
		queue:      newMessageQueue(),
		limiter:    rate.NewLimiter(rate.Every(opts.Interval), 1),
		logger:     shared.WithLogger(opts.Logger, "component", "reporter"),
		lastReport: time.Now(),
		done:       make(chan struct{}),
	}

	go r.senderWorker()
	return r
}

// HandleStateChanged processes a host state-change notification.
//
// Only tracks tagged with the provider source are tracked. A transition to a
// track from another provider, to no track, or out of the playing state ends
// the current streaming session.
func (r *Reporter) HandleStateChanged(event player.Event) {
	sc, ok := event.(player.StateChanged)
	if !ok {
		r.logger.Warn("unexpected event variant", "event", fmt.Sprintf("%T", event))
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	switch sc.State {
	case player.StatePlaying:
		track := sc.CurrentTrack
		if track != nil && track.ID.Source == qobuz.Source {
			id := track.ID.ID
			if id != r.currentTrackID {
				if r.currentTrackID != "" {
					r.enqueueEnd(r.currentTrackID, r.elapsed())
				}
				r.currentTrackID = id
				r.enqueueStart(id)
				r.lastReport = time.Now()
			} else if r.currentTrackID != "" {
				// Same track notified again while tracking: report the
				// segment played so far (seek/search re-report) and keep
				// tracking.
				r.enqueueEnd(r.currentTrackID, r.elapsed())
			}
			return
		}

		// Track from another provider, or nothing playing.
		if r.currentTrackID != "" {
			r.enqueueEnd(r.currentTrackID, r.elapsed())
			r.currentTrackID = ""
		}
	case player.StateStopped, player.StatePaused, player.StateError:
		if r.currentTrackID != "" {
			r.enqueueEnd(r.currentTrackID, r.elapsed())
			r.currentTrackID = ""
		}
	}
}

// CurrentTrackID returns the id of the provider track currently being
// tracked, or the empty string when idle.
func (r *Reporter) CurrentTrackID() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.currentTrackID
}

// Pending returns the number of undelivered reports.
func (r *Reporter) Pending() int {
	return r.queue.len()
}

// Shutdown stops accepting new reports and blocks until the sender goroutine
// has drained the queue and exited. Safe to call more than once.
func (r *Reporter) Shutdown() {
	r.queue.close()
	<-r.done
}

// elapsed returns whole seconds played since the last reset and resets the
// clock. Measured on the monotonic clock; a negative delta is clamped to
// zero and logged, never rejected.
func (r *Reporter) elapsed() int {
	now := time.Now()
	secs := int(now.Sub(r.lastReport).Seconds())
	r.lastReport = now

	if secs < 0 {
		r.logger.Warn("negative elapsed duration clamped to zero", "seconds", secs)
		secs = 0
	}
	return secs
}

func (r *Reporter) enqueueStart(trackID string) {
	report, err := r.startReport(trackID)
	if err != nil {
		r.logger.Warn("dropping start report", "track", trackID, "err", err)
		return
	}
	r.enqueue(qobuz.EndpointStreamingStart, report)
}

func (r *Reporter) enqueueEnd(trackID string, elapsed int) {
	report, err := r.endReport(trackID, elapsed)
	if err != nil {
		r.logger.Warn("dropping end report", "track", trackID, "err", err)
		return
	}
	r.enqueue(qobuz.EndpointStreamingEnd, report)
}

func (r *Reporter) enqueue(endpoint string, report Report) {
	if !r.queue.push(message{endpoint: endpoint, report: report}) {
		r.logger.Warn("reporter stopped, dropping report", "endpoint", endpoint, "track", report.TrackID)
	}
}

// startReport builds a streaming-start payload from the cached stream-URL
// response. A cache miss fails only this report, not the reporter.
func (r *Reporter) startReport(trackID string) (Report, error) {
	report, stream, err := r.baseReport(trackID)
	if err != nil {
		return Report{}, err
	}

	total := stream.Duration
	report.Duration = 0
	report.TotalTrackDuration = &total
	return report, nil
}

// endReport builds a streaming-end payload carrying the observed elapsed
// seconds. End reports do not include the total track duration.
func (r *Reporter) endReport(trackID string, elapsed int) (Report, error) {
	report, _, err := r.baseReport(trackID)
	if err != nil {
		return Report{}, err
	}

	report.Duration = elapsed
	return report, nil
}

func (r *Reporter) baseReport(trackID string) (Report, qobuz.StreamURL, error) {
	id, err := strconv.ParseInt(trackID, 10, 64)
	if err != nil {
		return Report{}, qobuz.StreamURL{}, fmt.Errorf("%w: track id %q is not numeric", shared.ErrInvalidInput, trackID)
	}

	stream, ok := r.catalog.CachedStream(trackID)
	if !ok {
		return Report{}, qobuz.StreamURL{}, fmt.Errorf("%w: %s", shared.ErrTrackNotCached, trackID)
	}

	return Report{
		UserID:       r.catalog.UserID(),
		CredentialID: r.catalog.CredentialID(),
		Date:         time.Now().Unix(),
		TrackID:      id,
		FormatID:     stream.FormatID,
		Online:       true,
		Intent:       "streaming",
		Local:        false,
		Purchase:     false,
		Sample:       false,
		Seek:         0,
	}, stream, nil
}

// senderWorker drains the queue one message at a time, spacing deliveries by
// the configured interval. Failed deliveries are logged and discarded. The
// worker exits once the queue is closed and drained; no forced cancellation,
// a send in flight always completes or fails on its own.
func (r *Reporter) senderWorker() {
	defer close(r.done)
	ctx := context.Background()

	for {
		msg, ok := r.queue.pop()
		if !ok {
			return
		}

		if err := r.limiter.Wait(ctx); err != nil {
			return
		}

		if err := r.catalog.ReportEvents(ctx, msg.endpoint, []Report{msg.report}); err != nil {
			r.logger.Warn("failed to send report", "endpoint", msg.endpoint, "err", err)
			continue
		}

		r.logger.Info("sent report", "endpoint", msg.endpoint, "track", msg.report.TrackID, "duration", msg.report.Duration)
	}
}
