package store

import (
	"context"
	"encoding/json"
	"errors"
	"io/fs"
	"os"

	"dailycast/internal/logging"
	"dailycast/internal/services"
)

// DurationProber measures the playable length of an audio file in seconds.
type DurationProber interface {
	DurationSeconds(ctx context.Context, path string) (float64, error)
}

// ReadOrBuildMetadata returns the item's persisted metadata cache, building
// and persisting it first if absent. Built once, the cache is never
// recomputed: the enriched track is immutable, so it cannot go stale.
//
// Building probes the per-chapter raw tracks, so the pipeline must call this
// strictly before DeleteTempArtifacts.
func (s *Store) ReadOrBuildMetadata(ctx context.Context, item *Item, prober DurationProber) (Metadata, error) {
	if cached, err := s.readMetadata(item.ID); err == nil {
		return cached, nil
	} else if !errors.Is(err, services.ErrNotFound) {
		return Metadata{}, err
	}

	duration, err := prober.DurationSeconds(ctx, s.FinalAudioPath(item.ID))
	if err != nil {
		return Metadata{}, services.Wrap(services.ErrTransient, "store", "probe final audio", item.ID, err)
	}

	publishedAt, err := s.RecordModTime(item.ID)
	if err != nil {
		return Metadata{}, err
	}

	lengths := make([]float64, 0, len(item.Chapters))
	for _, chapter := range item.Chapters {
		length, err := prober.DurationSeconds(ctx, s.ChapterAudioPath(item.ID, chapter.ID))
		if err != nil {
			return Metadata{}, services.Wrap(services.ErrTransient, "store", "probe chapter audio", chapter.ID, err)
		}
		lengths = append(lengths, length)
	}

	meta := Metadata{
		Duration:       duration,
		PublishedAt:    publishedAt,
		ChapterLengths: lengths,
	}
	if err := s.writeMetadata(item.ID, meta); err != nil {
		return Metadata{}, err
	}
	s.logger.Debug("built metadata cache",
		logging.String(logging.FieldItemID, item.ID),
		logging.Float64("duration", duration))
	return meta, nil
}

func (s *Store) readMetadata(id string) (Metadata, error) {
	data, err := os.ReadFile(s.metadataPath(id))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return Metadata{}, services.Wrap(services.ErrNotFound, "store", "read metadata", id, nil)
		}
		return Metadata{}, services.Wrap(services.ErrFilesystem, "store", "read metadata", id, err)
	}
	var meta Metadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return Metadata{}, services.Wrap(services.ErrMalformed, "store", "decode metadata", id, err)
	}
	return meta, nil
}

func (s *Store) writeMetadata(id string, meta Metadata) error {
	data, err := json.MarshalIndent(meta, "", "    ")
	if err != nil {
		return services.Wrap(services.ErrFilesystem, "store", "encode metadata", id, err)
	}
	return s.writeArtifact(id, s.metadataPath(id), data)
}
