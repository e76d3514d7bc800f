package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"dailycast/internal/logging"
	"dailycast/internal/services"
)

const (
	recordFile     = "record.json"
	coverFile      = "cover.jpg"
	rawAudioFile   = "raw.m4a"
	finalAudioFile = "final.m4a"
	metadataFile   = "metadata.json"
)

// Store is the file-backed content store rooted at a single data directory.
type Store struct {
	root   string
	logger *slog.Logger
}

// New creates a store rooted at root. The root directory is created lazily
// by the first write.
func New(root string, logger *slog.Logger) *Store {
	return &Store{
		root:   root,
		logger: logging.NewComponentLogger(logger, "store"),
	}
}

// Root returns the data root directory.
func (s *Store) Root() string { return s.root }

func (s *Store) itemDir(id string) string { return filepath.Join(s.root, id) }

func (s *Store) recordPath(id string) string { return filepath.Join(s.itemDir(id), recordFile) }

func (s *Store) metadataPath(id string) string { return filepath.Join(s.itemDir(id), metadataFile) }

// CoverPath returns the on-disk location of the item's cover image.
func (s *Store) CoverPath(id string) string { return filepath.Join(s.itemDir(id), coverFile) }

// RawAudioPath returns the location of the concatenated-but-unenriched track.
func (s *Store) RawAudioPath(id string) string { return filepath.Join(s.itemDir(id), rawAudioFile) }

// FinalAudioPath returns the location of the enriched, publishable track.
func (s *Store) FinalAudioPath(id string) string {
	return filepath.Join(s.itemDir(id), finalAudioFile)
}

// ChapterAudioPath returns the location of one transient per-chapter track.
func (s *Store) ChapterAudioPath(itemID, chapterID string) string {
	return filepath.Join(s.itemDir(itemID), chapterID+".m4a")
}

// Exists reports whether the item's record file is present. This is the
// idempotency gate for the whole pipeline.
func (s *Store) Exists(id string) bool {
	_, err := os.Stat(s.recordPath(id))
	return err == nil
}

// SaveChapterAudio persists one chapter's downloaded audio.
func (s *Store) SaveChapterAudio(itemID, chapterID string, data []byte) error {
	return s.writeArtifact(itemID, s.ChapterAudioPath(itemID, chapterID), data)
}

// SaveCover persists the item's cover image.
func (s *Store) SaveCover(id string, data []byte) error {
	return s.writeArtifact(id, s.CoverPath(id), data)
}

// SaveRecord persists the item record as JSON. Callers must not mutate the
// item afterwards; the record is written exactly once per item.
func (s *Store) SaveRecord(item *Item) error {
	data, err := json.MarshalIndent(item, "", "    ")
	if err != nil {
		return services.Wrap(services.ErrFilesystem, "store", "save record", item.ID, err)
	}
	return s.writeArtifact(item.ID, s.recordPath(item.ID), data)
}

// ReadRecord loads a persisted item record.
func (s *Store) ReadRecord(id string) (*Item, error) {
	data, err := os.ReadFile(s.recordPath(id))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, services.Wrap(services.ErrNotFound, "store", "read record", id, nil)
		}
		return nil, services.Wrap(services.ErrFilesystem, "store", "read record", id, err)
	}
	var item Item
	if err := json.Unmarshal(data, &item); err != nil {
		return nil, services.Wrap(services.ErrMalformed, "store", "decode record", id, err)
	}
	return &item, nil
}

// ReadCover returns the stored cover bytes.
func (s *Store) ReadCover(id string) ([]byte, error) {
	return s.readArtifact(id, s.CoverPath(id), "read cover")
}

// ReadFinalAudio returns the enriched track bytes.
func (s *Store) ReadFinalAudio(id string) ([]byte, error) {
	return s.readArtifact(id, s.FinalAudioPath(id), "read final audio")
}

// RecordModTime returns the record file's modification time, which doubles
// as the item's publish date.
func (s *Store) RecordModTime(id string) (time.Time, error) {
	info, err := os.Stat(s.recordPath(id))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return time.Time{}, services.Wrap(services.ErrNotFound, "store", "stat record", id, nil)
		}
		return time.Time{}, services.Wrap(services.ErrFilesystem, "store", "stat record", id, err)
	}
	return info.ModTime(), nil
}

// DeleteTempArtifacts removes the per-chapter tracks and the raw
// concatenated track. Cleanup is best-effort: a failed unlink does not roll
// back earlier deletions, and already-absent files are not errors.
func (s *Store) DeleteTempArtifacts(item *Item) error {
	paths := make([]string, 0, len(item.Chapters)+1)
	for _, chapter := range item.Chapters {
		paths = append(paths, s.ChapterAudioPath(item.ID, chapter.ID))
	}
	paths = append(paths, s.RawAudioPath(item.ID))

	var firstErr error
	for _, path := range paths {
		if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
			s.logger.Warn("failed to remove temp artifact",
				logging.String("path", path),
				logging.Error(err),
				logging.String(logging.FieldEventType, "temp_cleanup_failed"))
			if firstErr == nil {
				firstErr = services.Wrap(services.ErrFilesystem, "store", "delete temp artifacts", path, err)
			}
		}
	}
	return firstErr
}

// DeleteItem removes the item's directory wholesale. The core never calls
// this; it exists as the primitive for external pruning.
func (s *Store) DeleteItem(id string) error {
	if err := os.RemoveAll(s.itemDir(id)); err != nil {
		return services.Wrap(services.ErrFilesystem, "store", "delete item", id, err)
	}
	return nil
}

func (s *Store) writeArtifact(itemID, path string, data []byte) error {
	if err := os.MkdirAll(s.itemDir(itemID), 0o755); err != nil {
		return services.Wrap(services.ErrFilesystem, "store", "ensure item dir", itemID, err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return services.Wrap(services.ErrFilesystem, "store", "write artifact", path, err)
	}
	return nil
}

func (s *Store) readArtifact(id, path, operation string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, services.Wrap(services.ErrNotFound, "store", operation, id, nil)
		}
		return nil, services.Wrap(services.ErrFilesystem, "store", operation, id, err)
	}
	return data, nil
}

func (s *Store) ensureRoot() error {
	if err := os.MkdirAll(s.root, 0o755); err != nil {
		return fmt.Errorf("ensure data root: %w", err)
	}
	return nil
}
