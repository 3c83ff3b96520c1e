package server

import (
	"sync"
	"time"

	"github.com/go-faster/errors"
	"github.com/riordanpawley/routedialog/internal/domain"
)

// Store is an in-memory record store safe for concurrent use.
type Store struct {
	mu      sync.RWMutex
	records map[string]domain.Record
	now     func() time.Time
}

// NewStore creates a store holding the given records.
func NewStore(records ...domain.Record) *Store {
	s := &Store{
		records: make(map[string]domain.Record, len(records)),
		now:     time.Now,
	}
	for _, r := range records {
		s.records[r.ID] = r
	}
	return s
}

// SeedRecords returns the records served by `routedialog serve`.
func SeedRecords() []domain.Record {
	at := time.Date(2024, time.January, 2, 15, 4, 5, 0, time.UTC)
	return []domain.Record{
		{ID: "1", Name: "Ada Lovelace", Email: "ada@example.com", Notes: "first programmer", UpdatedAt: at},
		{ID: "2", Name: "Grace Hopper", Email: "grace@example.com", UpdatedAt: at},
		{ID: "3", Name: "Edsger Dijkstra", Notes: "goto considered harmful", UpdatedAt: at},
		{ID: "42", Name: "Alice", UpdatedAt: at},
	}
}

// List returns all records ordered by ID.
func (s *Store) List() []domain.Record {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.Record, 0, len(s.records))
	for _, r := range s.records {
		out = append(out, r)
	}
	return domain.Query{}.Apply(out)
}

// Get returns the record with id or domain.ErrNotFound.
func (s *Store) Get(id string) (domain.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	r, ok := s.records[id]
	if !ok {
		return domain.Record{}, errors.Wrapf(domain.ErrNotFound, "record %q", id)
	}
	return r, nil
}

// Update applies in to the record with id and returns the stored result.
func (s *Store) Update(id string, in domain.RecordInput) (domain.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.records[id]
	if !ok {
		return domain.Record{}, errors.Wrapf(domain.ErrNotFound, "record %q", id)
	}
	r.Name = in.Name
	r.Email = in.Email
	r.Notes = in.Notes
	r.UpdatedAt = s.now().UTC()
	s.records[id] = r
	return r, nil
}
