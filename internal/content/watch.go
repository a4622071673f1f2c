package content

import (
	"context"
	"fmt"
	"path/filepath"
	"sync/atomic"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"
)

// Store holds the current index snapshot. Readers always see a complete
// index; reloads swap the whole snapshot.
type Store struct {
	path    string
	current atomic.Pointer[Index]
	logger  zerolog.Logger
}

// OpenStore loads the index at path.
func OpenStore(path string, logger zerolog.Logger) (*Store, error) {
	s := &Store{path: path, logger: logger}
	if err := s.Reload(); err != nil {
		return nil, err
	}
	return s, nil
}

// NewStaticStore wraps an already built index; Reload is a no-op for it.
func NewStaticStore(idx *Index) *Store {
	s := &Store{logger: zerolog.Nop()}
	s.current.Store(idx)
	return s
}

// Index returns the current snapshot.
func (s *Store) Index() *Index {
	return s.current.Load()
}

// Reload re-reads the index file. On failure the previous snapshot stays.
func (s *Store) Reload() error {
	if s.path == "" {
		return nil
	}
	idx, err := LoadIndexFile(s.path)
	if err != nil {
		return err
	}
	s.current.Store(idx)
	s.logger.Info().Str("path", s.path).Int("tags", len(idx.Tags())).Int("entries", idx.Len()).Msg("Content index loaded")
	return nil
}

// Watch reloads the index whenever its file changes, until ctx is done.
// The parent directory is watched so editors that replace the file are seen.
func (s *Store) Watch(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create index watcher: %w", err)
	}
	if err := watcher.Add(filepath.Dir(s.path)); err != nil {
		watcher.Close()
		return fmt.Errorf("failed to watch %s: %w", s.path, err)
	}

	go func() {
		defer watcher.Close()
		target := filepath.Clean(s.path)
		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-watcher.Events:
				if !ok {
					return
				}
				if filepath.Clean(ev.Name) != target || !ev.Has(fsnotify.Write|fsnotify.Create) {
					continue
				}
				if err := s.Reload(); err != nil {
					s.logger.Error().Err(err).Msg("Failed to reload content index, keeping previous snapshot")
				}
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				s.logger.Warn().Err(err).Msg("Content index watcher error")
			}
		}
	}()
	return nil
}
