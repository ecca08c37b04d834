package store

import (
	"context"
	"sync"

	"github.com/Bijush/Avoter/models"
)

// MemoryStore keeps records in a mutex-guarded map. It backs local
// development runs and the handler tests; semantics match the persistent
// stores, including last-write-wins on concurrent updates.
type MemoryStore struct {
	mu      sync.RWMutex
	records map[string]models.Record
}

// NewMemoryStore returns an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{records: make(map[string]models.Record)}
}

func (s *MemoryStore) Name() string { return "memory" }

func (s *MemoryStore) List(ctx context.Context) ([]models.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	recs := make([]models.Record, 0, len(s.records))
	for _, rec := range s.records {
		recs = append(recs, cloneRecord(rec))
	}
	return recs, nil
}

func (s *MemoryStore) Get(ctx context.Context, id string) (models.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.records[id]
	if !ok {
		return models.Record{}, ErrNotFound
	}
	return cloneRecord(rec), nil
}

func (s *MemoryStore) Create(ctx context.Context, rec models.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[rec.ID] = cloneRecord(rec)
	return nil
}

func (s *MemoryStore) Update(ctx context.Context, rec models.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[rec.ID] = cloneRecord(rec)
	return nil
}

func (s *MemoryStore) UpdateRemark(ctx context.Context, id, remark string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.records[id]
	if !ok {
		return nil
	}
	rec.Remark = remark
	s.records[id] = rec
	return nil
}

func (s *MemoryStore) SetAttachments(ctx context.Context, id string, addrs []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.records[id]
	if !ok {
		return nil
	}
	rec.Attachments = models.NormalizeAttachments(addrs)
	s.records[id] = rec
	return nil
}

func (s *MemoryStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.records, id)
	return nil
}

func (s *MemoryStore) Ping(ctx context.Context) error { return nil }

func cloneRecord(rec models.Record) models.Record {
	out := rec
	if rec.Attachments != nil {
		out.Attachments = make([]string, len(rec.Attachments))
		copy(out.Attachments, rec.Attachments)
	}
	return out
}
