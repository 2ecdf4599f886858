package cache

import (
	"context"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryStore is an in-process Store. Contents are lost when the process
// exits; it exists for tests and for runs with persistence disabled.
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[string][]Entry
	seq     int64
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{entries: make(map[string][]Entry)}
}

func (s *MemoryStore) Lookup(_ context.Context, fingerprint string) (Entry, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	history := s.entries[fingerprint]
	if len(history) == 0 {
		return Entry{}, false, nil
	}
	return history[len(history)-1], true, nil
}

func (s *MemoryStore) Put(_ context.Context, entry Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if entry.ID == "" {
		entry.ID = uuid.New().String()
	}
	if entry.CreatedAt.IsZero() {
		s.seq++
		entry.CreatedAt = time.Unix(0, s.seq)
	}
	entry.Payload = append([]byte(nil), entry.Payload...)
	s.entries[entry.Fingerprint] = append(s.entries[entry.Fingerprint], entry)
	return nil
}

func (s *MemoryStore) List(_ context.Context, tool string) ([]Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []Entry
	for _, history := range s.entries {
		for _, e := range history {
			if tool == "" || e.ToolPath == tool || filepath.Base(e.ToolPath) == tool {
				out = append(out, e)
			}
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

// Len returns the total number of stored entries, history included.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	n := 0
	for _, history := range s.entries {
		n += len(history)
	}
	return n
}

func (s *MemoryStore) Close() error {
	return nil
}

// Verify MemoryStore implements Store
var _ Store = (*MemoryStore)(nil)
