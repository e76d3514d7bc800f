package store

import (
	"errors"
	"testing"

	"dailycast/internal/logging"
	"dailycast/internal/services"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	return New(t.TempDir(), logging.NewNop())
}

func testItem(id string) *Item {
	return &Item{
		ID:       id,
		Title:    "A Daily Item",
		Subtitle: "subtitle",
		Author:   "Author Name",
		Synopsis: "what the item is about",
		Chapters: []Chapter{
			{ID: "ch1", Title: "Intro"},
			{ID: "ch2", Title: "Middle"},
			{ID: "ch3", Title: "Outro"},
		},
	}
}

func TestExistsOnlyAfterRecordSaved(t *testing.T) {
	s := newTestStore(t)
	item := testItem("item-1")

	if s.Exists(item.ID) {
		t.Fatal("item should not exist before record is saved")
	}
	if err := s.SaveChapterAudio(item.ID, "ch1", []byte("audio")); err != nil {
		t.Fatalf("save chapter audio: %v", err)
	}
	if s.Exists(item.ID) {
		t.Fatal("chapter audio alone must not satisfy the idempotency gate")
	}
	if err := s.SaveRecord(item); err != nil {
		t.Fatalf("save record: %v", err)
	}
	if !s.Exists(item.ID) {
		t.Fatal("item should exist after record is saved")
	}
}

func TestReadRecordRoundTrip(t *testing.T) {
	s := newTestStore(t)
	item := testItem("item-2")
	if err := s.SaveRecord(item); err != nil {
		t.Fatalf("save record: %v", err)
	}

	loaded, err := s.ReadRecord(item.ID)
	if err != nil {
		t.Fatalf("read record: %v", err)
	}
	if loaded.Title != item.Title || len(loaded.Chapters) != 3 {
		t.Fatalf("unexpected record: %+v", loaded)
	}
	if loaded.Chapters[1].Title != "Middle" {
		t.Fatalf("chapter order not preserved: %+v", loaded.Chapters)
	}
}

func TestReadRecordMissingIsNotFound(t *testing.T) {
	s := newTestStore(t)
	if _, err := s.ReadRecord("nope"); !errors.Is(err, services.ErrNotFound) {
		t.Fatalf("expected not-found, got %v", err)
	}
	if _, err := s.ReadCover("nope"); !errors.Is(err, services.ErrNotFound) {
		t.Fatalf("expected not-found cover, got %v", err)
	}
	if _, err := s.ReadFinalAudio("nope"); !errors.Is(err, services.ErrNotFound) {
		t.Fatalf("expected not-found audio, got %v", err)
	}
}

func TestDeleteTempArtifactsRemovesChapterAndRawTracks(t *testing.T) {
	s := newTestStore(t)
	item := testItem("item-3")

	for _, ch := range item.Chapters {
		if err := s.SaveChapterAudio(item.ID, ch.ID, []byte("chunk")); err != nil {
			t.Fatalf("save chapter: %v", err)
		}
	}
	if err := s.writeArtifact(item.ID, s.RawAudioPath(item.ID), []byte("raw")); err != nil {
		t.Fatalf("write raw: %v", err)
	}
	if err := s.writeArtifact(item.ID, s.FinalAudioPath(item.ID), []byte("final")); err != nil {
		t.Fatalf("write final: %v", err)
	}

	if err := s.DeleteTempArtifacts(item); err != nil {
		t.Fatalf("delete temp artifacts: %v", err)
	}

	for _, ch := range item.Chapters {
		if _, err := s.readArtifact(item.ID, s.ChapterAudioPath(item.ID, ch.ID), "read"); !errors.Is(err, services.ErrNotFound) {
			t.Fatalf("chapter %s should be gone, got %v", ch.ID, err)
		}
	}
	if _, err := s.ReadFinalAudio(item.ID); err != nil {
		t.Fatalf("final audio must survive cleanup: %v", err)
	}
}

func TestDeleteTempArtifactsToleratesAbsentFiles(t *testing.T) {
	s := newTestStore(t)
	if err := s.DeleteTempArtifacts(testItem("never-written")); err != nil {
		t.Fatalf("cleanup of absent files should be a no-op, got %v", err)
	}
}

func TestDeleteItemRemovesEverything(t *testing.T) {
	s := newTestStore(t)
	item := testItem("item-4")
	if err := s.SaveRecord(item); err != nil {
		t.Fatalf("save record: %v", err)
	}
	if err := s.SaveCover(item.ID, []byte("jpg")); err != nil {
		t.Fatalf("save cover: %v", err)
	}
	if err := s.DeleteItem(item.ID); err != nil {
		t.Fatalf("delete item: %v", err)
	}
	if s.Exists(item.ID) {
		t.Fatal("item should be gone")
	}
}
