// Package repositories implements SQLite persistence for fetched catalog data.
//
// The track cache is write-through: every catalog fetch upserts its rows so
// CLI listings and exports can be rendered without refetching. Rows carry the
// provider entity ids used as recommendation features, so cached tracks can
// be turned back into seed material offline.
package repositories

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/desertthunder/qbz/internal/qobuz"
)

// TrackRepository caches provider track metadata in the local database.
type TrackRepository struct {
	db *sql.DB
}

// NewTrackRepository creates a new TrackRepository with the given database connection
func NewTrackRepository(db *sql.DB) *TrackRepository {
	return &TrackRepository{db: db}
}

// Upsert inserts or refreshes a single cached track.
func (r *TrackRepository) Upsert(track qobuz.Track) error {
	return r.exec(r.db, track, time.Now())
}

// UpsertAll inserts or refreshes a batch of tracks in one transaction.
func (r *TrackRepository) UpsertAll(tracks []qobuz.Track) error {
	if len(tracks) == 0 {
		return nil
	}

	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	now := time.Now()
	for _, track := range tracks {
		if err := r.exec(tx, track, now); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit track batch: %w", err)
	}
	return nil
}

// execer covers *sql.DB and *sql.Tx.
type execer interface {
	Exec(query string, args ...any) (sql.Result, error)
}

func (r *TrackRepository) exec(e execer, track qobuz.Track, fetchedAt time.Time) error {
	query := `
		INSERT INTO tracks (id, title, artist, album, duration, artist_id, genre_id, label_id, fetched_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			title = excluded.title,
			artist = excluded.artist,
			album = excluded.album,
			duration = excluded.duration,
			artist_id = excluded.artist_id,
			genre_id = excluded.genre_id,
			label_id = excluded.label_id,
			fetched_at = excluded.fetched_at
	`

	var (
		artist             string
		album              string
		artistID, genreID  sql.NullInt64
		labelID            sql.NullInt64
	)
	if track.Performer != nil {
		artist = track.Performer.Name
		artistID = sql.NullInt64{Int64: track.Performer.ID, Valid: true}
	}
	if track.Album != nil {
		album = track.Album.Title
		if track.Album.Genre != nil {
			genreID = sql.NullInt64{Int64: track.Album.Genre.ID, Valid: true}
		}
		if track.Album.Label != nil {
			labelID = sql.NullInt64{Int64: track.Album.Label.ID, Valid: true}
		}
	}

	if _, err := e.Exec(query, track.ID, track.Title, artist, album, track.Duration, artistID, genreID, labelID, fetchedAt); err != nil {
		return fmt.Errorf("failed to upsert track %d: %w", track.ID, err)
	}
	return nil
}

// Get retrieves a cached track by provider id.
func (r *TrackRepository) Get(id int64) (*qobuz.Track, error) {
	query := `
		SELECT id, title, artist, album, duration, artist_id, genre_id, label_id
		FROM tracks
		WHERE id = ?
	`
	track, err := scanTrack(r.db.QueryRow(query, id))
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("track %d not cached", id)
	}
	if err != nil {
		return nil, err
	}
	return track, nil
}

// Recent retrieves the most recently fetched tracks, newest first.
func (r *TrackRepository) Recent(limit int) ([]qobuz.Track, error) {
	if limit <= 0 {
		limit = 50
	}

	query := `
		SELECT id, title, artist, album, duration, artist_id, genre_id, label_id
		FROM tracks
		ORDER BY fetched_at DESC, id DESC
		LIMIT ?
	`

	rows, err := r.db.Query(query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query tracks: %w", err)
	}
	defer rows.Close()

	var tracks []qobuz.Track
	for rows.Next() {
		track, err := scanTrack(rows)
		if err != nil {
			return nil, err
		}
		tracks = append(tracks, *track)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}
	return tracks, nil
}

// Count returns the number of cached tracks.
func (r *TrackRepository) Count() (int, error) {
	var count int
	if err := r.db.QueryRow("SELECT COUNT(*) FROM tracks").Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count tracks: %w", err)
	}
	return count, nil
}

// scanner covers *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanTrack(row scanner) (*qobuz.Track, error) {
	var (
		id                        int64
		title, artist, album      string
		duration                  int
		artistID, genreID, labelID sql.NullInt64
	)

	if err := row.Scan(&id, &title, &artist, &album, &duration, &artistID, &genreID, &labelID); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan track: %w", err)
	}

	track := &qobuz.Track{ID: id, Title: title, Duration: duration}
	if artist != "" || artistID.Valid {
		track.Performer = &qobuz.Entity{ID: artistID.Int64, Name: artist}
	}
	if album != "" || genreID.Valid || labelID.Valid {
		track.Album = &qobuz.Album{Title: album}
		if genreID.Valid {
			track.Album.Genre = &qobuz.Entity{ID: genreID.Int64}
		}
		if labelID.Valid {
			track.Album.Label = &qobuz.Entity{ID: labelID.Int64}
		}
	}
	return track, nil
}
