package autoplay

import (
	"bytes"
	"context"
	"errors"
	"strconv"
	"strings"
	"testing"

	"github.com/desertthunder/qbz/internal/player"
	"github.com/desertthunder/qbz/internal/qobuz"
	"github.com/desertthunder/qbz/internal/shared"
)

type suggestCall struct {
	listened []int64
	seeds    []qobuz.SeedTrack
	limit    int
}

type stubRecommender struct {
	batches    [][]int64
	calls      []suggestCall
	suggestErr error
	refErr     error
}

func (s *stubRecommender) Suggestions(_ context.Context, listened []int64, seeds []qobuz.SeedTrack, limit int) (*qobuz.Suggestions, error) {
	s.calls = append(s.calls, suggestCall{listened: listened, seeds: seeds, limit: limit})
	if s.suggestErr != nil {
		return nil, s.suggestErr
	}
	var batch []int64
	if len(s.batches) > 0 {
		batch = s.batches[0]
		s.batches = s.batches[1:]
	}
	return &qobuz.Suggestions{TrackIDs: batch, Algorithm: "mix"}, nil
}

func (s *stubRecommender) TrackReferences(_ context.Context, trackIDs []int64) ([]player.Track, error) {
	if s.refErr != nil {
		return nil, s.refErr
	}
	out := make([]player.Track, len(trackIDs))
	for i, id := range trackIDs {
		out[i] = providerTrack(id)
	}
	return out, nil
}

type stubQueue struct {
	added []player.Track
}

func (q *stubQueue) Add(tracks ...player.Track) {
	q.added = append(q.added, tracks...)
}

func providerTrack(id int64) player.Track {
	return player.Track{ID: player.TrackID{ID: strconv.FormatInt(id, 10), Source: qobuz.Source}}
}

func localTrack(id string) player.Track {
	return player.Track{ID: player.TrackID{ID: id, Source: "local"}}
}

func added(tracks ...player.Track) player.Event {
	return player.TracksAdded{Tracks: tracks}
}

func seedIDs(seeds []qobuz.SeedTrack) []int64 {
	out := make([]int64, len(seeds))
	for i, s := range seeds {
		if s.TrackID != nil {
			out[i] = *s.TrackID
		}
	}
	return out
}

func equalIDs(got, want []int64) bool {
	if len(got) != len(want) {
		return false
	}
	for i := range got {
		if got[i] != want[i] {
			return false
		}
	}
	return true
}

func TestEngine(t *testing.T) {
	t.Run("Request Fetches Batch And Adds One Track", func(t *testing.T) {
		rec := &stubRecommender{batches: [][]int64{{500, 501, 502}}}
		queue := &stubQueue{}
		e := New(rec, queue, Opts{})

		e.HandleTracksAdded(added(providerTrack(1), providerTrack(2), providerTrack(3)))
		e.HandleRequestMoreTracks(player.RequestMoreTracks{})

		if len(rec.calls) != 1 {
			t.Fatalf("expected one suggestion request, got %d", len(rec.calls))
		}
		if got := seedIDs(rec.calls[0].seeds); !equalIDs(got, []int64{3, 2, 1}) {
			t.Errorf("expected newest-first seeds [3 2 1], got %v", got)
		}
		if len(rec.calls[0].listened) != 0 {
			t.Errorf("expected no listened tracks, got %v", rec.calls[0].listened)
		}
		if rec.calls[0].limit != defaultBatchSize {
			t.Errorf("expected limit %d, got %d", defaultBatchSize, rec.calls[0].limit)
		}
		if len(queue.added) != 1 || queue.added[0].ID.ID != "500" {
			t.Errorf("expected track 500 queued, got %v", queue.added)
		}
	})

	t.Run("Batch Outlives Requests", func(t *testing.T) {
		rec := &stubRecommender{batches: [][]int64{{500, 501}}}
		queue := &stubQueue{}
		e := New(rec, queue, Opts{})

		e.HandleTracksAdded(added(providerTrack(1)))
		e.HandleRequestMoreTracks(player.RequestMoreTracks{})
		e.HandleRequestMoreTracks(player.RequestMoreTracks{})

		if len(rec.calls) != 1 {
			t.Errorf("expected a single suggestion request, got %d", len(rec.calls))
		}
		if len(queue.added) != 2 || queue.added[1].ID.ID != "501" {
			t.Errorf("expected tracks 500 and 501 queued, got %v", queue.added)
		}
	})

	t.Run("Exhausted Batch Does Not Refetch Until Queue Changes", func(t *testing.T) {
		rec := &stubRecommender{batches: [][]int64{{500}, {600}}}
		queue := &stubQueue{}
		e := New(rec, queue, Opts{})

		e.HandleTracksAdded(added(providerTrack(1)))
		e.HandleRequestMoreTracks(player.RequestMoreTracks{})
		e.HandleRequestMoreTracks(player.RequestMoreTracks{})

		if len(rec.calls) != 1 {
			t.Fatalf("expected no refetch on a drained batch, got %d requests", len(rec.calls))
		}
		if len(queue.added) != 1 {
			t.Fatalf("expected one queued track, got %d", len(queue.added))
		}

		e.HandleTracksAdded(added(providerTrack(2)))
		e.HandleRequestMoreTracks(player.RequestMoreTracks{})

		if len(rec.calls) != 2 {
			t.Errorf("expected queue change to re-arm fetching, got %d requests", len(rec.calls))
		}
		if len(queue.added) != 2 || queue.added[1].ID.ID != "600" {
			t.Errorf("expected track 600 queued, got %v", queue.added)
		}
	})

	t.Run("Suggested Tracks Excluded From Seeds And Reported As Listened", func(t *testing.T) {
		rec := &stubRecommender{batches: [][]int64{{1}, {600}}}
		queue := &stubQueue{}
		e := New(rec, queue, Opts{})

		e.HandleTracksAdded(added(providerTrack(1), providerTrack(2)))
		e.HandleRequestMoreTracks(player.RequestMoreTracks{})

		// Track 1 was suggested and, as the host plays it, re-enters the
		// queue mirror.
		e.HandleTracksAdded(added(providerTrack(1)))
		e.HandleRequestMoreTracks(player.RequestMoreTracks{})

		if len(rec.calls) != 2 {
			t.Fatalf("expected two suggestion requests, got %d", len(rec.calls))
		}
		for _, id := range seedIDs(rec.calls[1].seeds) {
			if id == 1 {
				t.Error("previously suggested track 1 must not be used as a seed")
			}
		}
		found := false
		for _, id := range rec.calls[1].listened {
			if id == 1 {
				found = true
			}
		}
		if !found {
			t.Errorf("expected track 1 among listened tracks, got %v", rec.calls[1].listened)
		}
	})

	t.Run("Seeds Capped At Newest Five", func(t *testing.T) {
		rec := &stubRecommender{batches: [][]int64{{500}}}
		queue := &stubQueue{}
		e := New(rec, queue, Opts{})

		tracks := make([]player.Track, 0, 8)
		for id := int64(1); id <= 8; id++ {
			tracks = append(tracks, providerTrack(id))
		}
		e.HandleTracksAdded(added(tracks...))
		e.HandleRequestMoreTracks(player.RequestMoreTracks{})

		if got := seedIDs(rec.calls[0].seeds); !equalIDs(got, []int64{8, 7, 6, 5, 4}) {
			t.Errorf("expected seeds [8 7 6 5 4], got %v", got)
		}
		if got := rec.calls[0].listened; !equalIDs(got, []int64{1, 2, 3}) {
			t.Errorf("expected listened [1 2 3], got %v", got)
		}
	})

	t.Run("Foreign Tracks Ignored For Recommendations", func(t *testing.T) {
		rec := &stubRecommender{batches: [][]int64{{500}}}
		queue := &stubQueue{}
		e := New(rec, queue, Opts{})

		e.HandleTracksAdded(added(localTrack("a"), providerTrack(1), localTrack("b")))
		e.HandleRequestMoreTracks(player.RequestMoreTracks{})

		if got := seedIDs(rec.calls[0].seeds); !equalIDs(got, []int64{1}) {
			t.Errorf("expected seeds [1], got %v", got)
		}
		if len(rec.calls[0].listened) != 0 {
			t.Errorf("expected no listened tracks, got %v", rec.calls[0].listened)
		}
	})

	t.Run("No Provider Tracks Means No Request", func(t *testing.T) {
		var logs bytes.Buffer
		rec := &stubRecommender{batches: [][]int64{{500}}}
		queue := &stubQueue{}
		e := New(rec, queue, Opts{Logger: shared.NewLogger(&logs)})

		e.HandleRequestMoreTracks(player.RequestMoreTracks{})
		e.HandleTracksAdded(added(localTrack("a"), localTrack("b")))
		e.HandleRequestMoreTracks(player.RequestMoreTracks{})

		if len(rec.calls) != 0 {
			t.Errorf("expected no suggestion requests, got %d", len(rec.calls))
		}
		if len(queue.added) != 0 {
			t.Errorf("expected no queued tracks, got %d", len(queue.added))
		}
		if !strings.Contains(logs.String(), "no tracks to recommend") {
			t.Errorf("expected empty path logged, got %q", logs.String())
		}
	})

	t.Run("Drained And Disarmed Engine Logs Empty Path", func(t *testing.T) {
		var logs bytes.Buffer
		rec := &stubRecommender{batches: [][]int64{{500}}}
		queue := &stubQueue{}
		e := New(rec, queue, Opts{Logger: shared.NewLogger(&logs)})

		e.HandleTracksAdded(added(providerTrack(1)))
		e.HandleRequestMoreTracks(player.RequestMoreTracks{})
		e.HandleRequestMoreTracks(player.RequestMoreTracks{})

		if len(queue.added) != 1 {
			t.Fatalf("expected one queued track, got %d", len(queue.added))
		}
		if !strings.Contains(logs.String(), "no tracks to recommend") {
			t.Errorf("expected empty path logged, got %q", logs.String())
		}
	})

	t.Run("Removing All Provider Tracks Resets State", func(t *testing.T) {
		rec := &stubRecommender{batches: [][]int64{{500, 501}, {600}}}
		queue := &stubQueue{}
		e := New(rec, queue, Opts{})

		e.HandleTracksAdded(added(localTrack("a"), providerTrack(1)))
		e.HandleRequestMoreTracks(player.RequestMoreTracks{})

		e.HandleTracksRemoved(player.TracksRemoved{Indices: []int{1}})

		if e.remaining != nil {
			t.Errorf("expected remaining batch dropped, got %v", e.remaining)
		}
		if len(e.suggested) != 0 {
			t.Errorf("expected suggested set cleared, got %v", e.suggested)
		}

		e.HandleTracksAdded(added(providerTrack(2)))
		e.HandleRequestMoreTracks(player.RequestMoreTracks{})

		if len(rec.calls) != 2 {
			t.Fatalf("expected a fresh batch after reset, got %d requests", len(rec.calls))
		}
		if got := seedIDs(rec.calls[1].seeds); !equalIDs(got, []int64{2}) {
			t.Errorf("expected seeds [2] after reset, got %v", got)
		}
	})

	t.Run("Removal Applies Indices Highest First", func(t *testing.T) {
		rec := &stubRecommender{}
		e := New(rec, &stubQueue{}, Opts{})

		e.HandleTracksAdded(added(providerTrack(1), providerTrack(2), providerTrack(3)))
		e.HandleTracksRemoved(player.TracksRemoved{Indices: []int{0, 1}})

		if len(e.mirror) != 1 || e.mirror[0].ID.ID != "3" {
			t.Errorf("expected only track 3 left, got %v", e.mirror)
		}
	})

	t.Run("Out Of Range Removal Index Skipped", func(t *testing.T) {
		rec := &stubRecommender{}
		e := New(rec, &stubQueue{}, Opts{})

		e.HandleTracksAdded(added(providerTrack(1), providerTrack(2)))
		e.HandleTracksRemoved(player.TracksRemoved{Indices: []int{5, 0, -1}})

		if len(e.mirror) != 1 || e.mirror[0].ID.ID != "2" {
			t.Errorf("expected only track 2 left, got %v", e.mirror)
		}
	})

	t.Run("Suggestion Failure Adds Nothing And Stays Armed", func(t *testing.T) {
		rec := &stubRecommender{suggestErr: errors.New("service unavailable"), batches: [][]int64{{500}, {500}}}
		queue := &stubQueue{}
		e := New(rec, queue, Opts{})

		e.HandleTracksAdded(added(providerTrack(1)))
		e.HandleRequestMoreTracks(player.RequestMoreTracks{})

		if len(queue.added) != 0 {
			t.Errorf("expected nothing queued on failure, got %v", queue.added)
		}

		rec.suggestErr = nil
		e.HandleRequestMoreTracks(player.RequestMoreTracks{})

		if len(queue.added) != 1 {
			t.Errorf("expected retry on the next request to succeed, got %v", queue.added)
		}
	})

	t.Run("Empty Batch Adds Nothing", func(t *testing.T) {
		rec := &stubRecommender{batches: [][]int64{{}}}
		queue := &stubQueue{}
		e := New(rec, queue, Opts{})

		e.HandleTracksAdded(added(providerTrack(1)))
		e.HandleRequestMoreTracks(player.RequestMoreTracks{})

		if len(queue.added) != 0 {
			t.Errorf("expected nothing queued, got %v", queue.added)
		}
	})

	t.Run("Track Resolution Failure Drops Only That Track", func(t *testing.T) {
		rec := &stubRecommender{batches: [][]int64{{500, 501}}, refErr: errors.New("not found")}
		queue := &stubQueue{}
		e := New(rec, queue, Opts{})

		e.HandleTracksAdded(added(providerTrack(1)))
		e.HandleRequestMoreTracks(player.RequestMoreTracks{})

		if len(queue.added) != 0 {
			t.Errorf("expected nothing queued, got %v", queue.added)
		}

		rec.refErr = nil
		e.HandleRequestMoreTracks(player.RequestMoreTracks{})

		if len(queue.added) != 1 || queue.added[0].ID.ID != "501" {
			t.Errorf("expected track 501 queued next, got %v", queue.added)
		}
	})

	t.Run("Custom Batch Size", func(t *testing.T) {
		rec := &stubRecommender{batches: [][]int64{{500}}}
		e := New(rec, &stubQueue{}, Opts{BatchSize: 10})

		e.HandleTracksAdded(added(providerTrack(1)))
		e.HandleRequestMoreTracks(player.RequestMoreTracks{})

		if rec.calls[0].limit != 10 {
			t.Errorf("expected limit 10, got %d", rec.calls[0].limit)
		}
	})

	t.Run("Unexpected Event Variant Ignored", func(t *testing.T) {
		rec := &stubRecommender{}
		e := New(rec, &stubQueue{}, Opts{})

		e.HandleTracksAdded(player.RequestMoreTracks{})
		e.HandleTracksRemoved(player.RequestMoreTracks{})
		e.HandleRequestMoreTracks(player.TracksAdded{})

		if len(e.mirror) != 0 || len(rec.calls) != 0 {
			t.Error("expected mismatched variants to be ignored")
		}
	})
}
