package cache

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"image-audit/internal/grouping"
	"image-audit/internal/logging"
	"image-audit/internal/mediatypes"
	"image-audit/internal/metrics"

	"github.com/spf13/afero"
)

// IOError reports a failure to read or write the cache file. Callers treat it
// as non-fatal.
type IOError struct {
	Op   string
	Path string
	Err  error
}

func (e *IOError) Error() string {
	return fmt.Sprintf("cache %s %s: %v", e.Op, e.Path, e.Err)
}

func (e *IOError) Unwrap() error {
	return e.Err
}

// Store is the in-memory view of the cache file, keyed by absolute path.
// It is safe for concurrent use.
type Store struct {
	fs      afero.Fs
	path    string
	loadErr error

	mu      sync.RWMutex
	entries map[string]mediatypes.ImageInfo
	dirty   bool
}

// Load reads the cache file at path. A missing, unreadable or malformed file
// yields an empty store, and entries that fail validation are dropped; the
// reason for anything other than a missing file is available from LoadErr.
func Load(fs afero.Fs, path string) *Store {
	s := &Store{fs: fs, path: path, entries: make(map[string]mediatypes.ImageInfo)}

	data, err := afero.ReadFile(fs, path)
	if err != nil {
		if !os.IsNotExist(err) {
			s.loadErr = &IOError{Op: "read", Path: path, Err: err}
			logging.Warn("Ignoring unreadable metadata cache: %v", s.loadErr)
		}
		return s
	}

	if len(data) == 0 {
		return s
	}

	var entries map[string]mediatypes.ImageInfo
	if err := json.Unmarshal(data, &entries); err != nil {
		s.loadErr = &IOError{Op: "parse", Path: path, Err: err}
		logging.Warn("Ignoring malformed metadata cache: %v", s.loadErr)
		return s
	}
	dropped := 0
	for k, v := range entries {
		if reason := invalidEntry(v); reason != "" {
			logging.Warn("Dropping cache entry for %s: %s", k, reason)
			dropped++
			continue
		}
		// The key is authoritative; a record naming another file must not
		// be returned for this one.
		v.Path = k
		v.Name = filepath.Base(k)
		s.entries[k] = v
	}
	if dropped > 0 {
		s.loadErr = &IOError{Op: "validate", Path: path, Err: fmt.Errorf("dropped %d invalid entries", dropped)}
	}

	logging.Debug("Loaded %d cache entries from %s", len(s.entries), path)
	metrics.CacheEntries.Set(float64(len(s.entries)))
	return s
}

// invalidEntry returns why a loaded record cannot be trusted, or "".
func invalidEntry(v mediatypes.ImageInfo) string {
	switch {
	case v.Bytes < 0 || v.MTime < 0:
		return "negative size or modification time"
	case (v.Width != nil && *v.Width < 0) || (v.Height != nil && *v.Height < 0):
		return "negative dimensions"
	case v.PHash != nil && !grouping.ValidHash(*v.PHash):
		return fmt.Sprintf("perceptual hash %q is not lowercase hex", *v.PHash)
	}
	return ""
}

// Disabled returns a store that never hits and never saves.
func Disabled() *Store {
	return &Store{entries: make(map[string]mediatypes.ImageInfo)}
}

// LoadErr returns why the cache file was ignored, or nil.
func (s *Store) LoadErr() error {
	return s.loadErr
}

// Path returns the cache file location.
func (s *Store) Path() string {
	return s.path
}

// Get returns the entry for path when it was recorded for exactly this size
// and modification time.
func (s *Store) Get(path string, size, mtime int64) (mediatypes.ImageInfo, bool) {
	s.mu.RLock()
	entry, ok := s.entries[path]
	s.mu.RUnlock()

	if !ok || entry.Bytes != size || entry.MTime != mtime {
		metrics.CacheLookupsTotal.WithLabelValues("miss").Inc()
		return mediatypes.ImageInfo{}, false
	}
	metrics.CacheLookupsTotal.WithLabelValues("hit").Inc()
	return entry, true
}

// Put replaces the entry for info.Path.
func (s *Store) Put(info mediatypes.ImageInfo) {
	s.mu.Lock()
	s.entries[info.Path] = info
	s.dirty = true
	s.mu.Unlock()
}

// Save writes the whole mapping back when anything changed. The file is
// written to a temporary name and renamed into place.
func (s *Store) Save() error {
	if s.fs == nil {
		return nil
	}

	s.mu.RLock()
	if !s.dirty {
		s.mu.RUnlock()
		return nil
	}
	data, err := json.Marshal(s.entries)
	count := len(s.entries)
	s.mu.RUnlock()
	if err != nil {
		return &IOError{Op: "encode", Path: s.path, Err: err}
	}

	if err := s.fs.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return &IOError{Op: "mkdir", Path: s.path, Err: err}
	}

	tmp := s.path + ".tmp"
	if err := afero.WriteFile(s.fs, tmp, data, 0o644); err != nil {
		return &IOError{Op: "write", Path: tmp, Err: err}
	}
	if err := s.fs.Rename(tmp, s.path); err != nil {
		_ = s.fs.Remove(tmp)
		return &IOError{Op: "rename", Path: s.path, Err: err}
	}

	s.mu.Lock()
	s.dirty = false
	s.mu.Unlock()

	logging.Debug("Saved %d cache entries to %s", count, s.path)
	metrics.CacheEntries.Set(float64(count))
	return nil
}
