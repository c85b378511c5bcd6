package state

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/gofrs/flock"
)

// FileStore keeps the seen set in a JSON file: a sorted array of URLs.
// Save merges into whatever is on disk under an advisory lock, so an
// overlapping run (a cron job that started late) cannot erase the other
// run's URLs, and writes via temp file + rename so a crash never leaves
// a truncated state file.
type FileStore struct {
	path string
	lock *flock.Flock
}

// NewFileStore creates a store backed by the JSON file at path. The file
// does not need to exist yet.
func NewFileStore(path string) *FileStore {
	return &FileStore{
		path: path,
		lock: flock.New(path + ".lock"),
	}
}

// Load reads the current seen set. A missing file is an empty set.
func (s *FileStore) Load() (map[string]struct{}, error) {
	if err := s.ensureDir(); err != nil {
		return nil, err
	}
	if err := s.lock.RLock(); err != nil {
		return nil, fmt.Errorf("locking state file %s: %w", s.path, err)
	}
	defer s.lock.Unlock()

	return s.read()
}

// Save merges urls into the persisted set. The union happens under an
// exclusive lock so concurrent commits cannot lose each other's URLs.
func (s *FileStore) Save(urls map[string]struct{}) error {
	if err := s.ensureDir(); err != nil {
		return err
	}
	if err := s.lock.Lock(); err != nil {
		return fmt.Errorf("locking state file %s: %w", s.path, err)
	}
	defer s.lock.Unlock()

	existing, err := s.read()
	if err != nil {
		return err
	}

	return s.write(Union(existing, urls))
}

// ensureDir creates the parent directory so the lock file can be taken
// before the first commit ever runs.
func (s *FileStore) ensureDir() error {
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating state dir %s: %w", dir, err)
	}
	return nil
}

func (s *FileStore) read() (map[string]struct{}, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return map[string]struct{}{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading state file %s: %w", s.path, err)
	}

	var urls []string
	if err := json.Unmarshal(data, &urls); err != nil {
		return nil, fmt.Errorf("parsing state file %s: %w", s.path, err)
	}

	seen := make(map[string]struct{}, len(urls))
	for _, u := range urls {
		seen[u] = struct{}{}
	}
	return seen, nil
}

func (s *FileStore) write(seen map[string]struct{}) error {
	urls := make([]string, 0, len(seen))
	for u := range seen {
		urls = append(urls, u)
	}
	sort.Strings(urls)

	data, err := json.MarshalIndent(urls, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding state: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(s.path), filepath.Base(s.path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("creating temp state file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("writing temp state file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("closing temp state file: %w", err)
	}

	if err := os.Rename(tmpName, s.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("replacing state file %s: %w", s.path, err)
	}
	return nil
}
