package daemon

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"dailycast/internal/config"
	"dailycast/internal/feed"
	"dailycast/internal/logging"
	"dailycast/internal/store"
)

type fixedProber struct{}

func (fixedProber) DurationSeconds(context.Context, string) (float64, error) {
	return 60, nil
}

func seedItem(t *testing.T, st *store.Store, locale, id string) {
	t.Helper()
	item := &store.Item{
		ID:     id,
		Title:  "Title " + id,
		Author: "Author",
		Chapters: []store.Chapter{
			{ID: "c1", Title: "Only Chapter"},
		},
	}
	if err := st.SaveChapterAudio(id, "c1", []byte("chapter")); err != nil {
		t.Fatalf("seed chapter: %v", err)
	}
	if err := st.SaveCover(id, []byte("jpeg-bytes")); err != nil {
		t.Fatalf("seed cover: %v", err)
	}
	if err := os.WriteFile(st.FinalAudioPath(id), []byte("audio-bytes"), 0o644); err != nil {
		t.Fatalf("seed final: %v", err)
	}
	if err := st.SaveRecord(item); err != nil {
		t.Fatalf("seed record: %v", err)
	}
	if _, err := st.ReadOrBuildMetadata(context.Background(), item, fixedProber{}); err != nil {
		t.Fatalf("seed metadata: %v", err)
	}
	if err := st.AppendToIndex(locale, id); err != nil {
		t.Fatalf("seed index: %v", err)
	}
}

func newTestRouter(t *testing.T) (http.Handler, *store.Store) {
	t.Helper()
	cfg := config.Default()
	cfg.Locales = []string{"en"}
	st := store.New(t.TempDir(), logging.NewNop())
	assembler := feed.NewAssembler(st, fixedProber{}, feed.ChannelInfo{Title: "Daily Digest"}, 10, logging.NewNop())
	server := newServer(&cfg, st, assembler, nil, logging.NewNop())
	return server.Handler, st
}

func TestFeedEndpoint(t *testing.T) {
	router, st := newTestRouter(t)
	seedItem(t, st, "en", "item-1")

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/feed/en", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("unexpected status: %d (%s)", rec.Code, rec.Body.String())
	}
	if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "application/rss+xml") {
		t.Fatalf("unexpected content type: %s", ct)
	}
	body := rec.Body.String()
	if !strings.Contains(body, "Title item-1") {
		t.Fatalf("episode missing from feed:\n%s", body)
	}
	if !strings.Contains(body, "http://example.com/book/item-1/audio") {
		t.Fatalf("enclosure must use the request host:\n%s", body)
	}
}

func TestFeedEndpointRejectsUnknownLocale(t *testing.T) {
	router, _ := newTestRouter(t)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/feed/xx", nil))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestFeedEndpointRejectsBadPage(t *testing.T) {
	router, _ := newTestRouter(t)
	for _, page := range []string{"0", "-1", "abc"} {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/feed/en?page="+page, nil))
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("page %q: expected 400, got %d", page, rec.Code)
		}
	}
}

func TestAudioEndpoint(t *testing.T) {
	router, st := newTestRouter(t)
	seedItem(t, st, "en", "item-1")

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/book/item-1/audio", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("unexpected status: %d", rec.Code)
	}
	body, _ := io.ReadAll(rec.Body)
	if string(body) != "audio-bytes" {
		t.Fatalf("unexpected body: %q", body)
	}
}

func TestCoverEndpoint(t *testing.T) {
	router, st := newTestRouter(t)
	seedItem(t, st, "en", "item-1")

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/book/item-1/cover", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("unexpected status: %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "image/jpeg") {
		t.Fatalf("unexpected content type: %s", ct)
	}
}

func TestArtifactEndpointsRejectBadIDs(t *testing.T) {
	router, _ := newTestRouter(t)
	for _, path := range []string{
		"/book/unknown-item/audio",
		"/book/..%2f..%2fetc/audio",
		"/book/unknown-item/cover",
	} {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("%s: expected 400, got %d", path, rec.Code)
		}
	}
}

func TestStatusEndpoint(t *testing.T) {
	router, st := newTestRouter(t)
	seedItem(t, st, "en", "item-1")

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/status", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("unexpected status: %d", rec.Code)
	}
	var resp statusResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode status: %v", err)
	}
	if len(resp.Locales) != 1 || resp.Locales[0].Locale != "en" || resp.Locales[0].Items != 1 {
		t.Fatalf("unexpected status payload: %+v", resp)
	}
}

func TestHealthEndpoint(t *testing.T) {
	router, _ := newTestRouter(t)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("unexpected status: %d", rec.Code)
	}
}
