// package testing contains shared testing utilities
package testing

import (
	"crypto/md5"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"strconv"
	"sync"
	"testing"

	"github.com/desertthunder/qbz/internal/player"
)

// MemoryQueue is a test double for [player.PlayQueue] recording additions.
type MemoryQueue struct {
	mu     sync.Mutex
	tracks []player.Track
}

func (q *MemoryQueue) Add(tracks ...player.Track) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.tracks = append(q.tracks, tracks...)
}

// Tracks returns a copy of everything added so far.
func (q *MemoryQueue) Tracks() []player.Track {
	q.mu.Lock()
	defer q.mu.Unlock()
	out := make([]player.Track, len(q.tracks))
	copy(out, q.tracks)
	return out
}

// ReportedBatch is one telemetry delivery captured by [APIServer].
type ReportedBatch struct {
	Endpoint string
	Events   json.RawMessage
}

// APIServer is a scripted double for the Qobuz JSON API backed by httptest.
// Zero-configured it accepts any login and any app secret, serves a small
// fixed catalog, and records telemetry and suggestion requests.
type APIServer struct {
	Server *httptest.Server

	// LoginStatus overrides the user/login response code when non-zero.
	LoginStatus int
	// Ineligible serves a login response without credential parameters.
	Ineligible bool
	// ValidSecret rejects getFileUrl requests made with any other secret
	// when set. Signatures are not verified, only recorded.
	ValidSecret string
	// SuggestedIDs is the batch served by dynamic/suggest.
	SuggestedIDs []int64

	mu       sync.Mutex
	secrets  []string
	reports  []ReportedBatch
	suggests []json.RawMessage
}

// NewAPIServer starts the double. The caller owns shutdown via Close.
func NewAPIServer() *APIServer {
	s := &APIServer{}
	mux := http.NewServeMux()
	mux.HandleFunc("/user/login", s.handleLogin)
	mux.HandleFunc("/track/getFileUrl", s.handleFileURL)
	mux.HandleFunc("/track/get", s.handleTrack)
	mux.HandleFunc("/track/getList", s.handleTracks)
	mux.HandleFunc("/catalog/search", s.handleSearch)
	mux.HandleFunc("/favorite/getUserFavorites", s.handleSearch)
	mux.HandleFunc("/dynamic/suggest", s.handleSuggest)
	mux.HandleFunc("/track/reportStreamingStart", s.handleReport)
	mux.HandleFunc("/track/reportStreamingEnd", s.handleReport)
	s.Server = httptest.NewServer(mux)
	return s
}

// BaseURL returns the server address with the trailing slash clients expect.
func (s *APIServer) BaseURL() string {
	return s.Server.URL + "/"
}

func (s *APIServer) Close() {
	s.Server.Close()
}

// Reports returns all captured telemetry deliveries in arrival order.
func (s *APIServer) Reports() []ReportedBatch {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]ReportedBatch, len(s.reports))
	copy(out, s.reports)
	return out
}

// SuggestRequests returns the raw bodies of captured suggestion requests.
func (s *APIServer) SuggestRequests() []json.RawMessage {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]json.RawMessage, len(s.suggests))
	copy(out, s.suggests)
	return out
}

func (s *APIServer) handleLogin(w http.ResponseWriter, r *http.Request) {
	if s.LoginStatus != 0 && s.LoginStatus != http.StatusOK {
		w.WriteHeader(s.LoginStatus)
		return
	}

	credential := map[string]any{"id": 7}
	if !s.Ineligible {
		credential["parameters"] = map[string]any{"short_label": "Studio"}
	}
	writeJSON(w, map[string]any{
		"user_auth_token": "token-" + r.URL.Query().Get("email"),
		"user": map[string]any{
			"id":         42,
			"credential": credential,
		},
	})
}

func (s *APIServer) handleFileURL(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	if s.ValidSecret != "" && !s.signedWith(q, s.ValidSecret) {
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	trackID, _ := strconv.ParseInt(q.Get("track_id"), 10, 64)
	formatID, _ := strconv.Atoi(q.Get("format_id"))
	writeJSON(w, map[string]any{
		"track_id":      trackID,
		"format_id":     formatID,
		"duration":      240,
		"url":           fmt.Sprintf("https://streaming.example.com/%d", trackID),
		"mime_type":     "audio/flac",
		"sampling_rate": 44.1,
		"bit_depth":     16,
	})
}

// signedWith checks that the request carries the signature the client
// computes for the given secret, using the timestamp the client sent.
func (s *APIServer) signedWith(q url.Values, secret string) bool {
	payload := fmt.Sprintf("trackgetFileUrlformat_id%sintentstreamtrack_id%s%s%s",
		q.Get("format_id"), q.Get("track_id"), q.Get("request_ts"), secret)
	return q.Get("request_sig") == md5Hex(payload)
}

func (s *APIServer) handleTrack(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.URL.Query().Get("track_id"), 10, 64)
	if err != nil {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	writeJSON(w, trackFixture(id))
}

func (s *APIServer) handleTracks(w http.ResponseWriter, r *http.Request) {
	var body struct {
		TracksID []int64 `json:"tracks_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	items := make([]map[string]any, len(body.TracksID))
	for i, id := range body.TracksID {
		items[i] = trackFixture(id)
	}
	writeJSON(w, map[string]any{"tracks": map[string]any{"items": items, "total": len(items)}})
}

func (s *APIServer) handleSearch(w http.ResponseWriter, r *http.Request) {
	items := []map[string]any{trackFixture(1), trackFixture(2)}
	writeJSON(w, map[string]any{"tracks": map[string]any{"items": items, "total": len(items)}})
}

func (s *APIServer) handleSuggest(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	s.mu.Lock()
	s.suggests = append(s.suggests, json.RawMessage(body))
	ids := s.SuggestedIDs
	s.mu.Unlock()

	items := make([]map[string]any, len(ids))
	for i, id := range ids {
		items[i] = map[string]any{"id": id}
	}
	writeJSON(w, map[string]any{
		"tracks":    map[string]any{"items": items},
		"algorithm": "mix",
	})
}

func (s *APIServer) handleReport(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	s.reports = append(s.reports, ReportedBatch{
		Endpoint: r.URL.Path,
		Events:   json.RawMessage(r.URL.Query().Get("events")),
	})
	s.mu.Unlock()
	writeJSON(w, map[string]any{"status": "success"})
}

func trackFixture(id int64) map[string]any {
	return map[string]any{
		"id":        id,
		"title":     fmt.Sprintf("Track %d", id),
		"duration":  200 + id,
		"performer": map[string]any{"id": 900 + id, "name": fmt.Sprintf("Artist %d", id)},
		"album": map[string]any{
			"id":    fmt.Sprintf("album-%d", id),
			"title": fmt.Sprintf("Album %d", id),
			"genre": map[string]any{"id": 80, "name": "Electro"},
			"label": map[string]any{"id": 70, "name": "Label"},
		},
	}
}

func md5Hex(payload string) string {
	return fmt.Sprintf("%x", md5.Sum([]byte(payload)))
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}

// FWriter always returns an error on Write
type FWriter struct{}

func (f *FWriter) Write(p []byte) (n int, err error) {
	return 0, errors.New("write failed")
}

// LimitedWriter fails after a certain number of writes
type LimitedWriter struct {
	maxWrites int
	written   int
	target    io.Writer
}

func (l *LimitedWriter) Write(p []byte) (n int, err error) {
	if l.written >= l.maxWrites {
		return 0, errors.New("write limit exceeded")
	}
	l.written++
	return l.target.Write(p)
}

func NewLimitedWriter(maxWrites, written int, target io.Writer) LimitedWriter {
	return LimitedWriter{maxWrites: maxWrites, written: written, target: target}
}

// MockRoundTripper allows custom HTTP responses for testing
type MockRoundTripper struct {
	response *http.Response
	err      error
}

func NewMockRoundTripper(r *http.Response, e error) *MockRoundTripper {
	return &MockRoundTripper{response: r, err: e}
}

func (m *MockRoundTripper) RoundTrip(*http.Request) (*http.Response, error) {
	return m.response, m.err
}

func AssertFileExists(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Errorf("File does not exist: %s", path)
	}
}

func MustReadFile(t *testing.T, path string) string {
	t.Helper()
	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read file %s: %v", path, err)
	}
	return string(content)
}
