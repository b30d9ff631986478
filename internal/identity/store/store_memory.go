package store

import (
	"context"
	"sort"
	"sync"

	"travelproof/internal/identity/models"
)

type entry struct {
	record models.IdentityRecord
	seq    uint64
}

// InMemoryStore keeps records in process memory. Suitable for a single
// instance and for tests.
type InMemoryStore struct {
	mu      sync.RWMutex
	records map[string]entry
	seq     uint64
}

// NewInMemoryStore creates an empty store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{records: make(map[string]entry)}
}

func (s *InMemoryStore) Put(_ context.Context, key string, record models.IdentityRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seq++
	s.records[key] = entry{record: cloneRecord(record), seq: s.seq}
	return nil
}

func (s *InMemoryStore) FindByKey(_ context.Context, key string) (*models.IdentityRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if e, ok := s.records[key]; ok {
		rec := cloneRecord(e.record)
		return &rec, nil
	}
	return nil, ErrNotFound
}

func (s *InMemoryStore) FindLatestBySubject(_ context.Context, subjectID string) (*models.IdentityRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var matches []entry
	for _, e := range s.records {
		if e.record.SubjectID == subjectID {
			matches = append(matches, e)
		}
	}
	if len(matches) == 0 {
		return nil, ErrNotFound
	}
	// Map iteration is random; order by insertion before picking so ties are stable.
	sort.Slice(matches, func(i, j int) bool { return matches[i].seq < matches[j].seq })
	ordered := make([]models.IdentityRecord, 0, len(matches))
	for _, e := range matches {
		ordered = append(ordered, e.record)
	}
	rec := cloneRecord(*latest(ordered))
	return &rec, nil
}

func (s *InMemoryStore) Keys(_ context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return sortedKeys(s.records), nil
}

func cloneRecord(r models.IdentityRecord) models.IdentityRecord {
	if r.DisclosedAttributes != nil {
		attrs := make(map[string]any, len(r.DisclosedAttributes))
		for k, v := range r.DisclosedAttributes {
			attrs[k] = v
		}
		r.DisclosedAttributes = attrs
	}
	return r
}
