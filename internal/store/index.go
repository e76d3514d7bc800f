package store

import (
	"bufio"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"dailycast/internal/services"
)

func (s *Store) indexPath(locale string) string {
	return filepath.Join(s.root, "list_"+locale+".txt")
}

// AppendToIndex prepends the id as the new first line of the locale's index,
// keeping the file newest-first. The index is append-only from the caller's
// perspective; nothing in the core ever removes a line.
func (s *Store) AppendToIndex(locale, id string) error {
	if err := s.ensureRoot(); err != nil {
		return services.Wrap(services.ErrFilesystem, "store", "append index", locale, err)
	}

	path := s.indexPath(locale)
	existing, err := os.ReadFile(path)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return services.Wrap(services.ErrFilesystem, "store", "append index", locale, err)
	}

	content := append([]byte(id+"\n"), existing...)
	if err := os.WriteFile(path, content, 0o644); err != nil {
		return services.Wrap(services.ErrFilesystem, "store", "append index", locale, err)
	}
	return nil
}

// ReadIndexPage streams the locale index, skips offset lines, and collects
// up to limit non-empty ids. HasMore is true iff at least one further line
// exists beyond the collected page. A limit <= 0 returns the entire
// remaining index with HasMore false. A missing index file yields an empty
// page.
func (s *Store) ReadIndexPage(locale string, offset, limit int) (Page, error) {
	file, err := os.Open(s.indexPath(locale))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return Page{}, nil
		}
		return Page{}, services.Wrap(services.ErrFilesystem, "store", "read index", locale, err)
	}
	defer file.Close()

	var page Page
	scanner := bufio.NewScanner(file)
	seen := 0
	for scanner.Scan() {
		// Blank lines never count toward offset or limit, so a
		// hand-edited index cannot shift page boundaries.
		id := strings.TrimSpace(scanner.Text())
		if id == "" {
			continue
		}
		seen++
		if seen <= offset {
			continue
		}
		if limit > 0 && len(page.IDs) >= limit {
			page.HasMore = true
			break
		}
		page.IDs = append(page.IDs, id)
	}
	if err := scanner.Err(); err != nil {
		return Page{}, services.Wrap(services.ErrFilesystem, "store", "read index", locale, err)
	}
	return page, nil
}

// ReadIndex returns every id in the locale index, newest first.
func (s *Store) ReadIndex(locale string) ([]string, error) {
	page, err := s.ReadIndexPage(locale, 0, 0)
	if err != nil {
		return nil, err
	}
	return page.IDs, nil
}

// IndexLastModified returns the index file's modification time, which is the
// feed-level publish date for the locale.
func (s *Store) IndexLastModified(locale string) (time.Time, error) {
	info, err := os.Stat(s.indexPath(locale))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return time.Time{}, services.Wrap(services.ErrNotFound, "store", "stat index", locale, nil)
		}
		return time.Time{}, services.Wrap(services.ErrFilesystem, "store", "stat index", locale, err)
	}
	return info.ModTime(), nil
}
