// package formatter provides functions to export track listings to various formats (CSV, Markdown, plain text)
package formatter

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"os"
	"strconv"

	"github.com/desertthunder/qbz/internal/qobuz"
	"github.com/desertthunder/qbz/internal/shared"
)

// Listing is a named collection of tracks prepared for export, e.g. a page
// of favorites, a playlist or search results.
type Listing struct {
	Title  string
	Tracks []qobuz.Track
}

// ExportToCSV converts a Listing to CSV format with columns: ID, Title, Artist, Album, Duration
func ExportToCSV(listing *Listing) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	headers := []string{"ID", "Title", "Artist", "Album", "Duration"}
	if err := writer.Write(headers); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	for _, track := range listing.Tracks {
		record := []string{
			strconv.FormatInt(track.ID, 10),
			track.Title,
			artistName(track),
			albumTitle(track),
			strconv.Itoa(track.Duration),
		}
		if err := writer.Write(record); err != nil {
			return nil, fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}

	return buf.Bytes(), nil
}

// ExportToMarkdown converts a Listing to Markdown format
func ExportToMarkdown(listing *Listing) ([]byte, error) {
	var buf bytes.Buffer

	buf.WriteString(fmt.Sprintf("# %s\n\n", listing.Title))
	buf.WriteString(fmt.Sprintf("**Tracks**: %d\n\n", len(listing.Tracks)))

	buf.WriteString("## Tracks\n\n")
	for i, track := range listing.Tracks {
		duration := shared.FormatDuration(track.Duration)
		albumPart := ""
		if album := albumTitle(track); album != "" {
			albumPart = fmt.Sprintf(" (%s)", album)
		}
		buf.WriteString(fmt.Sprintf("%d. %s - %s%s [%s]\n", i+1, artistName(track), track.Title, albumPart, duration))
	}

	return buf.Bytes(), nil
}

// ExportToText converts a Listing to plain text format
func ExportToText(listing *Listing) ([]byte, error) {
	var buf bytes.Buffer

	buf.WriteString(fmt.Sprintf("Listing: %s\n", listing.Title))
	buf.WriteString(fmt.Sprintf("Tracks: %d\n\n", len(listing.Tracks)))

	for i, track := range listing.Tracks {
		buf.WriteString(fmt.Sprintf("%d. %s - %s\n", i+1, artistName(track), track.Title))
	}

	return buf.Bytes(), nil
}

// Export renders the listing in the given format: "csv", "markdown" or "text".
func Export(listing *Listing, format string) ([]byte, error) {
	switch format {
	case "csv":
		return ExportToCSV(listing)
	case "markdown", "md":
		return ExportToMarkdown(listing)
	case "text", "txt":
		return ExportToText(listing)
	default:
		return nil, fmt.Errorf("unsupported export format: %s", format)
	}
}

// WriteExport renders the listing and writes it to path.
func WriteExport(listing *Listing, format, path string) error {
	data, err := Export(listing, format)
	if err != nil {
		return err
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write export file: %w", err)
	}
	return nil
}

func artistName(track qobuz.Track) string {
	if track.Performer == nil {
		return ""
	}
	return track.Performer.Name
}

func albumTitle(track qobuz.Track) string {
	if track.Album == nil {
		return ""
	}
	return track.Album.Title
}
