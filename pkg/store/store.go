// Package store persists the set of tweet IDs that have already been
// inspected, so a post is never forwarded (or even re-examined) twice.
// The backing file is line oriented, one ID per line, order irrelevant.
package store

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"tweetrelay/pkg/logger"
)

// Store reads and writes the processed-ID set. All access happens inside
// the relay's execution lock, so the store itself needs no locking.
type Store struct {
	path   string
	logger logger.Logger
}

// New creates a store backed by the file at path
func New(path string, log logger.Logger) *Store {
	if log == nil {
		log = logger.GetLogger()
	}
	return &Store{path: path, logger: log}
}

// Path returns the backing file path
func (s *Store) Path() string {
	return s.path
}

// Load returns all previously recorded IDs. A missing or unreadable
// backing file is not fatal: it is logged and an empty set is returned,
// which only causes re-delivery, never loss.
func (s *Store) Load() map[string]struct{} {
	ids := make(map[string]struct{})

	file, err := os.Open(s.path)
	if err != nil {
		if !os.IsNotExist(err) {
			s.logger.WithError(err).WithField("path", s.path).Warn("failed to open processed-ID file, starting empty")
		}
		return ids
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		id := strings.TrimSpace(scanner.Text())
		if id == "" {
			continue
		}
		ids[id] = struct{}{}
	}

	if err := scanner.Err(); err != nil {
		s.logger.WithError(err).WithField("path", s.path).Warn("failed to read processed-ID file")
	}

	return ids
}

// Save overwrites the backing file with the given ID set. The write goes
// through a temp file, fsync and rename so a crash mid-write loses at
// most this cycle's additions.
func (s *Store) Save(ids map[string]struct{}) error {
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create data directory: %w", err)
	}

	tempPath := s.path + ".tmp"
	file, err := os.Create(tempPath)
	if err != nil {
		return fmt.Errorf("failed to create temporary file: %w", err)
	}

	writer := bufio.NewWriter(file)
	for id := range ids {
		if _, err := fmt.Fprintln(writer, id); err != nil {
			file.Close()
			os.Remove(tempPath)
			return fmt.Errorf("failed to write processed IDs: %w", err)
		}
	}

	if err := writer.Flush(); err != nil {
		file.Close()
		os.Remove(tempPath)
		return fmt.Errorf("failed to flush processed IDs: %w", err)
	}

	if err := file.Sync(); err != nil {
		file.Close()
		os.Remove(tempPath)
		return fmt.Errorf("failed to sync processed IDs: %w", err)
	}

	if err := file.Close(); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("failed to close processed-ID file: %w", err)
	}

	if err := os.Rename(tempPath, s.path); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("failed to replace processed-ID file: %w", err)
	}

	s.logger.DebugWithFields("processed-ID set saved", map[string]interface{}{
		"path":  s.path,
		"count": len(ids),
	})

	return nil
}

// MaxID returns the largest ID in the set under snowflake ordering, or ""
// for an empty set. It is the since_id watermark for the next fetch.
func MaxID(ids map[string]struct{}) string {
	max := ""
	for id := range ids {
		if max == "" || IDLess(max, id) {
			max = id
		}
	}
	return max
}

// IDLess reports whether a < b as numeric tweet IDs. IDs are decimal
// strings without leading zeros, so shorter means smaller and equal
// lengths compare lexicographically.
func IDLess(a, b string) bool {
	if len(a) != len(b) {
		return len(a) < len(b)
	}
	return a < b
}
