package session

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/hupe1980/loanmesh/core"
)

// InMemoryStore is a volatile RecordStore keeping records in a process local
// map. It is safe for concurrent access. Records are cloned on the way in and
// out so callers never share state with the store.
type InMemoryStore struct {
	mu      sync.RWMutex
	records map[string]*core.Record
}

var _ core.RecordStore = (*InMemoryStore)(nil)

// NewInMemoryStore constructs an empty in-memory record store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{records: make(map[string]*core.Record)}
}

// Create stores a new record. It fails with core.ErrRecordExists when the id
// is taken.
func (s *InMemoryStore) Create(_ context.Context, rec *core.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.records[rec.SessionID]; ok {
		return fmt.Errorf("%w: %s", core.ErrRecordExists, rec.SessionID)
	}
	s.records[rec.SessionID] = rec.Clone()
	return nil
}

// Get returns a clone of the stored record.
func (s *InMemoryStore) Get(_ context.Context, sessionID string) (*core.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.records[sessionID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", core.ErrRecordNotFound, sessionID)
	}
	return rec.Clone(), nil
}

// Put replaces an existing record.
func (s *InMemoryStore) Put(_ context.Context, rec *core.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.records[rec.SessionID]; !ok {
		return fmt.Errorf("%w: %s", core.ErrRecordNotFound, rec.SessionID)
	}
	s.records[rec.SessionID] = rec.Clone()
	return nil
}

// Delete removes a record.
func (s *InMemoryStore) Delete(_ context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.records[sessionID]; !ok {
		return fmt.Errorf("%w: %s", core.ErrRecordNotFound, sessionID)
	}
	delete(s.records, sessionID)
	return nil
}

// IDs returns the stored session ids in sorted order.
func (s *InMemoryStore) IDs() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := make([]string, 0, len(s.records))
	for id := range s.records {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
