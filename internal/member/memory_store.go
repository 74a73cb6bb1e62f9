package member

import (
	"context"
	"sync"
)

type memoryStore struct {
	mu      sync.Mutex
	records []Record
}

// NewMemoryStore builds an in-memory member store for testing. It honors the
// same locked uniqueness check as the durable backends but persists nothing.
func NewMemoryStore() Store {
	return &memoryStore{}
}

func (s *memoryStore) Exists(_ context.Context, emailHash string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, rec := range s.records {
		if rec.EmailHash == emailHash {
			return true, nil
		}
	}
	return false, nil
}

func (s *memoryStore) Append(_ context.Context, rec Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.records {
		if existing.EmailHash == rec.EmailHash {
			return ErrEmailTaken
		}
	}
	s.records = append(s.records, rec)
	return nil
}

func (s *memoryStore) Remove(_ context.Context, name string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, rec := range s.records {
		if rec.Name == name {
			s.records = append(s.records[:i], s.records[i+1:]...)
			return true, nil
		}
	}
	return false, nil
}

func (s *memoryStore) All(_ context.Context) ([]Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Record, len(s.records))
	copy(out, s.records)
	return out, nil
}
