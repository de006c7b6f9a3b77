package formatter

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/desertthunder/qbz/internal/qobuz"
	tu "github.com/desertthunder/qbz/internal/testing"
)

func sampleListing() *Listing {
	return &Listing{
		Title: "Favorites",
		Tracks: []qobuz.Track{
			{
				ID:        100,
				Title:     "Roygbiv",
				Duration:  149,
				Performer: &qobuz.Entity{ID: 909, Name: "Boards of Canada"},
				Album:     &qobuz.Album{Title: "Music Has the Right to Children"},
			},
			{ID: 200, Title: "Untitled", Duration: 61},
		},
	}
}

func TestExportToCSV(t *testing.T) {
	data, err := ExportToCSV(sampleListing())
	if err != nil {
		t.Fatalf("export failed: %v", err)
	}

	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if len(lines) != 3 {
		t.Fatalf("expected header and two records, got %d lines", len(lines))
	}
	if lines[0] != "ID,Title,Artist,Album,Duration" {
		t.Errorf("unexpected header: %s", lines[0])
	}
	if !strings.HasPrefix(lines[1], "100,Roygbiv,Boards of Canada") {
		t.Errorf("unexpected first record: %s", lines[1])
	}
	if !strings.HasPrefix(lines[2], "200,Untitled,,") {
		t.Errorf("expected empty artist and album fields, got: %s", lines[2])
	}
}

func TestExportToMarkdown(t *testing.T) {
	data, err := ExportToMarkdown(sampleListing())
	if err != nil {
		t.Fatalf("export failed: %v", err)
	}

	out := string(data)
	if !strings.HasPrefix(out, "# Favorites\n") {
		t.Errorf("expected listing title heading, got: %s", out)
	}
	if !strings.Contains(out, "**Tracks**: 2") {
		t.Error("expected track count line")
	}
	if !strings.Contains(out, "1. Boards of Canada - Roygbiv (Music Has the Right to Children) [2:29]") {
		t.Errorf("unexpected track line, got: %s", out)
	}
	if !strings.Contains(out, "2.  - Untitled [1:01]") {
		t.Errorf("expected bare track line, got: %s", out)
	}
}

func TestExportToText(t *testing.T) {
	data, err := ExportToText(sampleListing())
	if err != nil {
		t.Fatalf("export failed: %v", err)
	}

	out := string(data)
	if !strings.Contains(out, "Listing: Favorites") {
		t.Error("expected listing title")
	}
	if !strings.Contains(out, "1. Boards of Canada - Roygbiv") {
		t.Errorf("unexpected track line, got: %s", out)
	}
}

func TestExport(t *testing.T) {
	t.Run("Format Aliases", func(t *testing.T) {
		for _, format := range []string{"csv", "markdown", "md", "text", "txt"} {
			if _, err := Export(sampleListing(), format); err != nil {
				t.Errorf("format %q failed: %v", format, err)
			}
		}
	})

	t.Run("Unsupported Format", func(t *testing.T) {
		if _, err := Export(sampleListing(), "xml"); err == nil {
			t.Error("expected an error for an unsupported format")
		}
	})
}

func TestWriteExport(t *testing.T) {
	t.Run("Writes The Rendered File", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "favorites.csv")

		if err := WriteExport(sampleListing(), "csv", path); err != nil {
			t.Fatalf("write failed: %v", err)
		}

		tu.AssertFileExists(t, path)
		if content := tu.MustReadFile(t, path); !strings.Contains(content, "Roygbiv") {
			t.Errorf("unexpected file content: %s", content)
		}
	})

	t.Run("Bad Format Writes Nothing", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "favorites.xml")

		if err := WriteExport(sampleListing(), "xml", path); err == nil {
			t.Fatal("expected an error")
		}
	})
}
