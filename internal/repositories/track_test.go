package repositories

import (
	"database/sql"
	"testing"

	"github.com/desertthunder/qbz/internal/qobuz"
	"github.com/desertthunder/qbz/internal/shared"
)

func testDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := shared.NewDatabase(":memory:")
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if err := shared.RunMigrations(db); err != nil {
		t.Fatalf("failed to run migrations: %v", err)
	}
	return db
}

func sampleTrack(id int64) qobuz.Track {
	return qobuz.Track{
		ID:        id,
		Title:     "Roygbiv",
		Duration:  149,
		Performer: &qobuz.Entity{ID: 909, Name: "Boards of Canada"},
		Album: &qobuz.Album{
			Title: "Music Has the Right to Children",
			Genre: &qobuz.Entity{ID: 80},
			Label: &qobuz.Entity{ID: 70},
		},
	}
}

func TestTrackRepository(t *testing.T) {
	t.Run("Upsert And Get", func(t *testing.T) {
		repo := NewTrackRepository(testDB(t))

		if err := repo.Upsert(sampleTrack(100)); err != nil {
			t.Fatalf("upsert failed: %v", err)
		}

		track, err := repo.Get(100)
		if err != nil {
			t.Fatalf("get failed: %v", err)
		}
		if track.Title != "Roygbiv" || track.Duration != 149 {
			t.Errorf("unexpected track: %+v", track)
		}
		if track.Performer == nil || track.Performer.ID != 909 {
			t.Errorf("unexpected performer: %+v", track.Performer)
		}
		if track.Album == nil || track.Album.Genre == nil || track.Album.Genre.ID != 80 {
			t.Errorf("unexpected album entities: %+v", track.Album)
		}
	})

	t.Run("Upsert Refreshes Existing Rows", func(t *testing.T) {
		repo := NewTrackRepository(testDB(t))

		if err := repo.Upsert(sampleTrack(100)); err != nil {
			t.Fatalf("first upsert failed: %v", err)
		}

		updated := sampleTrack(100)
		updated.Title = "Roygbiv (Remaster)"
		if err := repo.Upsert(updated); err != nil {
			t.Fatalf("second upsert failed: %v", err)
		}

		track, err := repo.Get(100)
		if err != nil {
			t.Fatalf("get failed: %v", err)
		}
		if track.Title != "Roygbiv (Remaster)" {
			t.Errorf("expected refreshed title, got %q", track.Title)
		}

		count, err := repo.Count()
		if err != nil {
			t.Fatalf("count failed: %v", err)
		}
		if count != 1 {
			t.Errorf("expected a single row, got %d", count)
		}
	})

	t.Run("Get Missing Track", func(t *testing.T) {
		repo := NewTrackRepository(testDB(t))

		if _, err := repo.Get(404); err == nil {
			t.Error("expected an error for a missing track")
		}
	})

	t.Run("Batch Upsert And Recent Ordering", func(t *testing.T) {
		repo := NewTrackRepository(testDB(t))

		batch := []qobuz.Track{sampleTrack(1), sampleTrack(2), sampleTrack(3)}
		if err := repo.UpsertAll(batch); err != nil {
			t.Fatalf("batch upsert failed: %v", err)
		}

		tracks, err := repo.Recent(2)
		if err != nil {
			t.Fatalf("recent failed: %v", err)
		}
		if len(tracks) != 2 {
			t.Fatalf("expected 2 tracks, got %d", len(tracks))
		}
		// Same fetch timestamp, so id breaks the tie newest-first.
		if tracks[0].ID != 3 || tracks[1].ID != 2 {
			t.Errorf("expected ids [3 2], got [%d %d]", tracks[0].ID, tracks[1].ID)
		}
	})

	t.Run("Empty Batch Is A No-Op", func(t *testing.T) {
		repo := NewTrackRepository(testDB(t))
		if err := repo.UpsertAll(nil); err != nil {
			t.Errorf("expected no-op, got %v", err)
		}
	})

	t.Run("Track Without Entities", func(t *testing.T) {
		repo := NewTrackRepository(testDB(t))

		if err := repo.Upsert(qobuz.Track{ID: 5, Title: "Untitled", Duration: 60}); err != nil {
			t.Fatalf("upsert failed: %v", err)
		}

		track, err := repo.Get(5)
		if err != nil {
			t.Fatalf("get failed: %v", err)
		}
		if track.Performer != nil || track.Album != nil {
			t.Errorf("expected bare track, got %+v", track)
		}
	})
}
