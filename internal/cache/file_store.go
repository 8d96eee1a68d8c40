// Package cache provides the non-SQLite backends of the provider response
// cache: a best-effort directory of JSON files and Redis.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/aristath/factorlens/internal/clientdata"
)

// dirName is the directory created under the system temp dir.
const dirName = "factorlens-cache"

var unsafeKeyChars = regexp.MustCompile(`[^A-Za-z0-9._-]`)

// CandidateDirs lists where the file cache may live, in order of preference:
// an explicit directory, the temp dir on serverless hosts (the working
// directory is read-only there), ./.cache, then the temp dir.
func CandidateDirs(explicit string, serverless bool) []string {
	tmp := filepath.Join(os.TempDir(), dirName)
	candidates := make([]string, 0, 4)
	if explicit != "" {
		candidates = append(candidates, explicit)
	}
	if serverless {
		candidates = append(candidates, tmp)
	}
	if wd, err := os.Getwd(); err == nil {
		candidates = append(candidates, filepath.Join(wd, ".cache"))
	}
	candidates = append(candidates, tmp)

	seen := make(map[string]bool, len(candidates))
	out := candidates[:0]
	for _, c := range candidates {
		if !seen[c] {
			seen[c] = true
			out = append(out, c)
		}
	}
	return out
}

// FileStore keeps one JSON file per entry. A file's modification time is set
// to its expiry, so freshness is a single stat. Every failure degrades to a
// cache miss: the cache must never break a request.
type FileStore struct {
	candidates []string
	log        zerolog.Logger

	once sync.Once
	dir  string // empty once resolution failed: cache disabled
}

// NewFileStore creates a file store over the candidate directories. The
// first directory that can be created wins, lazily on first use.
func NewFileStore(candidates []string, log zerolog.Logger) *FileStore {
	return &FileStore{
		candidates: candidates,
		log:        log.With().Str("component", "file_cache").Logger(),
	}
}

// Dir returns the resolved cache directory, or "" when the cache is disabled.
func (s *FileStore) Dir() string {
	s.once.Do(func() {
		for _, dir := range s.candidates {
			if err := os.MkdirAll(dir, 0755); err != nil {
				s.log.Debug().Err(err).Str("dir", dir).Msg("Cache directory unusable, trying next")
				continue
			}
			s.dir = dir
			s.log.Info().Str("dir", dir).Msg("File cache enabled")
			return
		}
		s.log.Warn().Strs("candidates", s.candidates).Msg("No writable cache directory, file cache disabled")
	})
	return s.dir
}

func (s *FileStore) path(table, key string) (string, error) {
	if err := clientdata.ValidateTable(table); err != nil {
		return "", err
	}
	dir := s.Dir()
	if dir == "" {
		return "", nil
	}
	name := table + "_" + unsafeKeyChars.ReplaceAllString(key, "_") + ".json"
	return filepath.Join(dir, name), nil
}

// Store writes the entry and stamps its expiry as the file's mtime.
// Write failures are logged and swallowed.
func (s *FileStore) Store(_ context.Context, table, key string, data interface{}, ttl time.Duration) error {
	path, err := s.path(table, key)
	if err != nil || path == "" {
		return err
	}

	payload, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("failed to marshal data: %w", err)
	}

	// Write to a temp file first so readers never see a torn entry.
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, payload, 0644); err != nil {
		s.log.Debug().Err(err).Str("file", path).Msg("Cache write failed")
		return nil
	}
	expiresAt := time.Now().Add(ttl)
	if err := os.Chtimes(tmp, expiresAt, expiresAt); err != nil {
		_ = os.Remove(tmp)
		s.log.Debug().Err(err).Str("file", path).Msg("Cache write failed")
		return nil
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		s.log.Debug().Err(err).Str("file", path).Msg("Cache write failed")
	}
	return nil
}

// GetIfFresh returns the entry when its expiry is still in the future.
func (s *FileStore) GetIfFresh(ctx context.Context, table, key string) (json.RawMessage, error) {
	return s.read(table, key, true)
}

// Get returns the entry regardless of expiry.
func (s *FileStore) Get(ctx context.Context, table, key string) (json.RawMessage, error) {
	return s.read(table, key, false)
}

func (s *FileStore) read(table, key string, freshOnly bool) (json.RawMessage, error) {
	path, err := s.path(table, key)
	if err != nil || path == "" {
		return nil, err
	}

	info, err := os.Stat(path)
	if err != nil {
		return nil, nil
	}
	if freshOnly && !info.ModTime().After(time.Now()) {
		return nil, nil
	}

	data, err := os.ReadFile(path)
	if err != nil || !json.Valid(data) {
		return nil, nil
	}
	return json.RawMessage(data), nil
}

// DeleteAllExpired removes files whose expiry has passed.
func (s *FileStore) DeleteAllExpired(ctx context.Context) (map[string]int64, error) {
	results := make(map[string]int64, len(clientdata.AllTables))
	for _, table := range clientdata.AllTables {
		results[table] = 0
	}

	dir := s.Dir()
	if dir == "" {
		return results, nil
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return results, fmt.Errorf("failed to list cache directory: %w", err)
	}

	now := time.Now()
	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			return results, err
		}
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		table := tableOf(entry.Name())
		if table == "" {
			continue
		}
		info, err := entry.Info()
		if err != nil || info.ModTime().After(now) {
			continue
		}
		if err := os.Remove(filepath.Join(dir, entry.Name())); err == nil {
			results[table]++
		}
	}
	return results, nil
}

// tableOf recovers the table from a cache file name.
func tableOf(name string) string {
	for _, table := range clientdata.AllTables {
		if strings.HasPrefix(name, table+"_") {
			return table
		}
	}
	return ""
}
