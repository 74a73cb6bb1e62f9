package member

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
)

// FileStore keeps members in memory and mirrors every mutation to a JSON
// snapshot file: a single array of {"name", "email"} objects, rewritten in
// full on each change. The snapshot write happens before the lock is
// released, and a failed write rolls the in-memory change back, so callers
// never observe a state the file does not also hold.
type FileStore struct {
	mu      sync.Mutex
	path    string
	records []Record
}

// NewFileStore loads the snapshot at path, or starts empty when the file
// does not exist yet.
func NewFileStore(path string) (*FileStore, error) {
	s := &FileStore{path: path}

	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return s, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read member snapshot: %w", err)
	}

	if err := json.Unmarshal(data, &s.records); err != nil {
		return nil, fmt.Errorf("decode member snapshot %s: %w", path, err)
	}

	return s, nil
}

// Exists reports whether any confirmed record holds the given email hash.
func (s *FileStore) Exists(_ context.Context, emailHash string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.indexOfHash(emailHash) >= 0, nil
}

// Append adds a record after re-checking hash uniqueness under the lock.
// On ErrEmailTaken or a failed snapshot write the store is left unchanged.
func (s *FileStore) Append(_ context.Context, rec Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.indexOfHash(rec.EmailHash) >= 0 {
		return ErrEmailTaken
	}

	s.records = append(s.records, rec)
	if err := s.persist(); err != nil {
		s.records = s.records[:len(s.records)-1]
		return err
	}
	return nil
}

// Remove deletes the first record matching name and reports whether a
// removal occurred.
func (s *FileStore) Remove(_ context.Context, name string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, rec := range s.records {
		if rec.Name == name {
			removed := rec
			s.records = append(s.records[:i], s.records[i+1:]...)
			if err := s.persist(); err != nil {
				s.records = append(s.records[:i], append([]Record{removed}, s.records[i:]...)...)
				return false, err
			}
			return true, nil
		}
	}
	return false, nil
}

// All returns a copy of the confirmed records.
func (s *FileStore) All(_ context.Context) ([]Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]Record, len(s.records))
	copy(out, s.records)
	return out, nil
}

func (s *FileStore) indexOfHash(emailHash string) int {
	for i, rec := range s.records {
		if rec.EmailHash == emailHash {
			return i
		}
	}
	return -1
}

// persist writes the full snapshot through a temp file and rename so a crash
// mid-write never truncates the previous snapshot. Must be called with the
// lock held.
func (s *FileStore) persist() error {
	data := []byte("[]")
	if len(s.records) > 0 {
		var err error
		data, err = json.Marshal(s.records)
		if err != nil {
			return fmt.Errorf("encode member snapshot: %w", err)
		}
	}

	dir := filepath.Dir(s.path)
	tmp, err := os.CreateTemp(dir, ".members-*.json")
	if err != nil {
		return fmt.Errorf("create snapshot temp file: %w", err)
	}

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("write member snapshot: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("sync member snapshot: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("close member snapshot: %w", err)
	}

	if err := os.Rename(tmp.Name(), s.path); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("replace member snapshot: %w", err)
	}
	return nil
}
