package feed

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"dailycast/internal/logging"
	"dailycast/internal/store"
	"dailycast/internal/testsupport"
)

type fixedProber struct{}

func (fixedProber) DurationSeconds(_ context.Context, path string) (float64, error) {
	if strings.HasSuffix(path, "final.m4a") {
		return 90, nil
	}
	return 45, nil
}

func seedItem(t *testing.T, st *store.Store, locale, id string) {
	t.Helper()
	item := &store.Item{
		ID:       id,
		Title:    "Title " + id,
		Subtitle: "Subtitle",
		Author:   "Author",
		Synopsis: "What the item is about.",
		Chapters: []store.Chapter{
			{ID: "c1", Title: "Opening"},
			{ID: "c2", Title: "Closing"},
		},
	}
	if err := st.SaveChapterAudio(id, "c1", []byte("a")); err != nil {
		t.Fatalf("seed chapter: %v", err)
	}
	if err := st.SaveChapterAudio(id, "c2", []byte("b")); err != nil {
		t.Fatalf("seed chapter: %v", err)
	}
	if err := st.SaveCover(id, []byte("jpeg")); err != nil {
		t.Fatalf("seed cover: %v", err)
	}
	if err := st.SaveRecord(item); err != nil {
		t.Fatalf("seed record: %v", err)
	}
	testsupport.WriteFile(t, st.FinalAudioPath(id), 2048)
	if _, err := st.ReadOrBuildMetadata(context.Background(), item, fixedProber{}); err != nil {
		t.Fatalf("seed metadata: %v", err)
	}
	if err := st.AppendToIndex(locale, id); err != nil {
		t.Fatalf("seed index: %v", err)
	}
}

func newTestAssembler(t *testing.T, pageSize int) (*Assembler, *store.Store) {
	t.Helper()
	st := store.New(t.TempDir(), logging.NewNop())
	info := ChannelInfo{Title: "Daily Digest", Description: "One summary a day", Author: "dailycast"}
	return NewAssembler(st, fixedProber{}, info, pageSize, logging.NewNop()), st
}

func TestRenderEpisodeFields(t *testing.T) {
	assembler, st := newTestAssembler(t, 10)
	seedItem(t, st, "en", "item-1")

	data, err := assembler.Render(context.Background(), "en", 1, "https://cast.example/")
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	xml := string(data)

	for _, want := range []string{
		`<rss version="2.0"`,
		"<title>Daily Digest</title>",
		"<language>en</language>",
		"<title>Title item-1</title>",
		"<itunes:duration>90</itunes:duration>",
		`<enclosure url="https://cast.example/book/item-1/audio"`,
		`type="audio/mp4"`,
		`<itunes:image href="https://cast.example/book/item-1/cover">`,
		"What the item is about.",
		"00:00 Opening",
		"00:45 Closing",
		`<guid isPermaLink="false">item-1</guid>`,
	} {
		if !strings.Contains(xml, want) {
			t.Fatalf("rendered feed missing %q:\n%s", want, xml)
		}
	}
}

func TestRenderPagination(t *testing.T) {
	assembler, st := newTestAssembler(t, 2)
	for i := 1; i <= 5; i++ {
		seedItem(t, st, "en", fmt.Sprintf("item-%d", i))
	}

	first, err := assembler.Render(context.Background(), "en", 1, "https://cast.example")
	if err != nil {
		t.Fatalf("render page 1: %v", err)
	}
	page1 := string(first)
	if !strings.Contains(page1, "Title item-5") || !strings.Contains(page1, "Title item-4") {
		t.Fatalf("page 1 must hold the two newest items:\n%s", page1)
	}
	if strings.Contains(page1, "Title item-3") {
		t.Fatal("page 1 leaked a third item")
	}
	if !strings.Contains(page1, `href="https://cast.example/feed/en?page=2" rel="next"`) {
		t.Fatalf("page 1 missing next link:\n%s", page1)
	}
	if strings.Contains(page1, `rel="previous"`) {
		t.Fatal("page 1 must not carry a previous link")
	}

	third, err := assembler.Render(context.Background(), "en", 3, "https://cast.example")
	if err != nil {
		t.Fatalf("render page 3: %v", err)
	}
	page3 := string(third)
	if !strings.Contains(page3, "Title item-1") {
		t.Fatalf("page 3 must hold the oldest item:\n%s", page3)
	}
	if strings.Contains(page3, `rel="next"`) {
		t.Fatal("last page must not carry a next link")
	}
	if !strings.Contains(page3, `href="https://cast.example/feed/en?page=2" rel="previous"`) {
		t.Fatalf("page 3 missing previous link:\n%s", page3)
	}
}

func TestRenderWithoutPageReturnsWholeArchive(t *testing.T) {
	assembler, st := newTestAssembler(t, 2)
	for i := 1; i <= 5; i++ {
		seedItem(t, st, "en", fmt.Sprintf("item-%d", i))
	}

	data, err := assembler.Render(context.Background(), "en", 0, "https://cast.example")
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	full := string(data)
	for i := 1; i <= 5; i++ {
		if !strings.Contains(full, fmt.Sprintf("Title item-%d", i)) {
			t.Fatalf("unpaginated feed missing item-%d:\n%s", i, full)
		}
	}
	if strings.Contains(full, `rel="next"`) || strings.Contains(full, `rel="previous"`) {
		t.Fatal("unpaginated feed must not carry pagination links")
	}
	if !strings.Contains(full, `href="https://cast.example/feed/en" rel="self"`) {
		t.Fatalf("unpaginated feed missing self link:\n%s", full)
	}
}

func TestRenderSkipsBrokenIndexEntries(t *testing.T) {
	assembler, st := newTestAssembler(t, 10)
	seedItem(t, st, "en", "item-1")
	if err := st.AppendToIndex("en", "ghost"); err != nil {
		t.Fatalf("seed ghost: %v", err)
	}

	data, err := assembler.Render(context.Background(), "en", 1, "https://cast.example")
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	xml := string(data)
	if strings.Contains(xml, "ghost") {
		t.Fatal("broken entry leaked into the feed")
	}
	if !strings.Contains(xml, "Title item-1") {
		t.Fatal("healthy entry missing from the feed")
	}
}

func TestRenderEmptyLocale(t *testing.T) {
	assembler, _ := newTestAssembler(t, 10)
	data, err := assembler.Render(context.Background(), "de", 1, "https://cast.example")
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if !strings.Contains(string(data), "<language>de</language>") {
		t.Fatalf("empty feed not rendered:\n%s", data)
	}
}
