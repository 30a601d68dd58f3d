package config

import (
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"
)

// AdminTokenSource serves the bearer token that gates the admin scheduler
// surface, optionally hot-reloaded from a file so rotating it doesn't
// require a process restart. Grounded on the fsnotify watch-loop shape
// used for runtime config reload elsewhere in the examples corpus:
// NewWatcher, Add one path, select over Events/Errors, swap state under a
// lock on a Write.
type AdminTokenSource struct {
	mu      sync.RWMutex
	current string
	watcher *fsnotify.Watcher
}

// NewAdminTokenSource seeds the source with the static ADMIN_TOKEN value.
func NewAdminTokenSource(initial string) *AdminTokenSource {
	return &AdminTokenSource{current: initial}
}

// Current returns the token as of the last reload.
func (s *AdminTokenSource) Current() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

// Watch starts watching path for writes, re-reading it and replacing
// Current on each one. A blank path is a no-op: the source stays pinned
// to its initial value and no watcher goroutine is started.
func (s *AdminTokenSource) Watch(path string, log zerolog.Logger) error {
	if path == "" {
		return nil
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("admin token watcher: %w", err)
	}
	if err := w.Add(path); err != nil {
		_ = w.Close()
		return fmt.Errorf("watch admin token file %s: %w", path, err)
	}
	s.watcher = w

	go func() {
		for {
			select {
			case event, ok := <-w.Events:
				if !ok {
					return
				}
				if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
					continue
				}
				if err := s.reload(path); err != nil {
					log.Warn().Err(err).Str("path", path).Msg("admin token reload failed")
					continue
				}
				log.Info().Str("path", path).Msg("admin token reloaded")
			case err, ok := <-w.Errors:
				if !ok {
					return
				}
				log.Warn().Err(err).Msg("admin token watcher error")
			}
		}
	}()
	return nil
}

func (s *AdminTokenSource) reload(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	token := strings.TrimSpace(string(data))
	s.mu.Lock()
	s.current = token
	s.mu.Unlock()
	return nil
}

// Close stops the watcher goroutine, if one was started.
func (s *AdminTokenSource) Close() error {
	if s.watcher == nil {
		return nil
	}
	return s.watcher.Close()
}
