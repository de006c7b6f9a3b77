// package autoplay keeps the host play queue from running dry. It mirrors
// queue membership through host events and, when the host asks for more
// material, feeds it provider recommendations seeded from what the listener
// queued most recently.
package autoplay

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"sync"

	"github.com/charmbracelet/log"

	"github.com/desertthunder/qbz/internal/player"
	"github.com/desertthunder/qbz/internal/qobuz"
	"github.com/desertthunder/qbz/internal/shared"
)

const (
	// defaultBatchSize is how many recommendations one provider request asks
	// for. A batch outlives many host refill requests.
	defaultBatchSize = 50

	// maxSeedTracks caps the feature set sent with a recommendation request
	// to the newest queued provider tracks.
	maxSeedTracks = 5
)

// Recommender is the slice of the provider client the engine depends on.
type Recommender interface {
	Suggestions(ctx context.Context, listened []int64, seeds []qobuz.SeedTrack, limit int) (*qobuz.Suggestions, error)
	TrackReferences(ctx context.Context, trackIDs []int64) ([]player.Track, error)
}

// Engine holds recommendation state between host events. All state is
// guarded by mu; the host may deliver events from more than one goroutine.
type Engine struct {
	recommender Recommender
	queue       player.PlayQueue
	logger      *log.Logger
	limit       int

	mu            sync.Mutex
	mirror        []player.Track
	remaining     []int64
	suggested     map[int64]struct{}
	canRequestNew bool
}

// Opts contains optional overrides for creating an Engine.
type Opts struct {
	BatchSize int // recommendations per provider request, defaults to 50
	Logger    *log.Logger
}

// New creates an autoplay engine feeding the given play queue.
func New(recommender Recommender, queue player.PlayQueue, opts Opts) *Engine {
	if opts.BatchSize <= 0 {
		opts.BatchSize = defaultBatchSize
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}

	return &Engine{
		recommender:   recommender,
		queue:         queue,
		logger:        shared.WithLogger(opts.Logger, "component", "autoplay"),
		limit:         opts.BatchSize,
		suggested:     map[int64]struct{}{},
		canRequestNew: true,
	}
}

// HandleTracksAdded appends the new tracks to the queue mirror. Any addition
// re-arms recommendation fetching, since the queue composition changed.
func (e *Engine) HandleTracksAdded(event player.Event) {
	ta, ok := event.(player.TracksAdded)
	if !ok {
		e.logger.Warn("unexpected event variant", "event", fmt.Sprintf("%T", event))
		return
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	e.mirror = append(e.mirror, ta.Tracks...)
	e.canRequestNew = true
}

// HandleTracksRemoved drops the given queue positions from the mirror.
// Indices are applied highest-first so earlier removals do not shift later
// ones; an index outside the mirror is logged and skipped.
//
// When the last provider track leaves the queue the recommendation state is
// reset: a listener who cleared the queue should get a fresh batch, not the
// tail of the old one.
func (e *Engine) HandleTracksRemoved(event player.Event) {
	tr, ok := event.(player.TracksRemoved)
	if !ok {
		e.logger.Warn("unexpected event variant", "event", fmt.Sprintf("%T", event))
		return
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	indices := make([]int, len(tr.Indices))
	copy(indices, tr.Indices)
	sort.Sort(sort.Reverse(sort.IntSlice(indices)))

	for _, i := range indices {
		if i < 0 || i >= len(e.mirror) {
			e.logger.Warn("removal index out of range", "index", i, "size", len(e.mirror))
			continue
		}
		e.mirror = append(e.mirror[:i], e.mirror[i+1:]...)
	}

	if !e.hasProviderTracks() {
		e.remaining = nil
		e.suggested = map[int64]struct{}{}
		e.canRequestNew = true
	}
}

// HandleRequestMoreTracks feeds one recommended track to the host queue,
// fetching a fresh batch from the provider first when the current one is
// exhausted. Without any provider track in the mirror there is nothing to
// seed a request with, so the engine stays quiet. Every failure degrades to
// adding nothing; the host falls back to whatever it does without autoplay.
func (e *Engine) HandleRequestMoreTracks(event player.Event) {
	if _, ok := event.(player.RequestMoreTracks); !ok {
		e.logger.Warn("unexpected event variant", "event", fmt.Sprintf("%T", event))
		return
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if len(e.remaining) == 0 {
		if !e.canRequestNew || !e.hasProviderTracks() {
			e.logger.Info("no tracks to recommend")
			return
		}
		if !e.refill() {
			return
		}
	}

	id := e.remaining[0]
	e.remaining = e.remaining[1:]
	e.suggested[id] = struct{}{}

	refs, err := e.recommender.TrackReferences(context.Background(), []int64{id})
	if err != nil {
		e.logger.Warn("failed to resolve suggested track", "track", id, "err", err)
		return
	}

	e.queue.Add(refs...)
	e.logger.Info("added suggested track", "track", id, "remaining", len(e.remaining))
}

// refill requests a new recommendation batch. The newest queued provider
// tracks not previously suggested form the feature set; the rest of the
// provider mirror is reported as listened. Returns whether a non-empty batch
// arrived; on failure the engine stays armed for the next request.
func (e *Engine) refill() bool {
	var seeds []qobuz.SeedTrack
	seeded := map[int64]struct{}{}
	for i := len(e.mirror) - 1; i >= 0 && len(seeds) < maxSeedTracks; i-- {
		track := e.mirror[i]
		if track.ID.Source != qobuz.Source {
			continue
		}
		id, err := strconv.ParseInt(track.ID.ID, 10, 64)
		if err != nil {
			e.logger.Warn("skipping track with non-numeric id", "track", track.ID)
			continue
		}
		if _, done := e.suggested[id]; done {
			continue
		}
		seeds = append(seeds, seedTrack(track, id))
		seeded[id] = struct{}{}
	}

	var listened []int64
	for _, track := range e.mirror {
		if track.ID.Source != qobuz.Source {
			continue
		}
		id, err := strconv.ParseInt(track.ID.ID, 10, 64)
		if err != nil {
			continue
		}
		if _, isSeed := seeded[id]; isSeed {
			continue
		}
		listened = append(listened, id)
	}

	result, err := e.recommender.Suggestions(context.Background(), listened, seeds, e.limit)
	if err != nil {
		e.logger.Warn("failed to fetch suggestions", "err", err)
		return false
	}

	e.remaining = result.TrackIDs
	e.canRequestNew = false
	e.logger.Info("fetched suggestion batch", "count", len(result.TrackIDs), "algorithm", result.Algorithm)
	return len(e.remaining) > 0
}

// hasProviderTracks reports whether any mirrored track belongs to the
// provider. Called with mu held.
func (e *Engine) hasProviderTracks() bool {
	for _, track := range e.mirror {
		if track.ID.Source == qobuz.Source {
			return true
		}
	}
	return false
}

func seedTrack(track player.Track, id int64) qobuz.SeedTrack {
	return qobuz.SeedTrack{
		ArtistID: entityID(track.ArtistID),
		GenreID:  entityID(track.GenreID),
		LabelID:  entityID(track.LabelID),
		TrackID:  &id,
	}
}

func entityID(raw string) *int64 {
	if raw == "" {
		return nil
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return nil
	}
	return &id
}
