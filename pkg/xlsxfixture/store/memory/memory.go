// Package memory is an in-memory record store. It backs dry runs and tests.
package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/pkg/errors"
	"github.com/ukaji3/xlsxfixture-go/pkg/xlsxfixture/codec"
	"github.com/ukaji3/xlsxfixture-go/pkg/xlsxfixture/models"
)

type table struct {
	order   []string
	records map[string]*models.Record
	nextID  int64
}

// Store keeps records per model in insertion order.
type Store struct {
	mu     sync.RWMutex
	tables map[string]*table
}

// New creates an empty store.
func New() *Store {
	return &Store{tables: make(map[string]*table)}
}

func pkKey(pk any) string {
	return fmt.Sprint(pk)
}

func (s *Store) table(m *models.Model) *table {
	t, ok := s.tables[m.Label()]
	if !ok {
		t = &table{records: make(map[string]*models.Record), nextID: 1}
		s.tables[m.Label()] = t
	}
	return t
}

// Build creates an unsaved record, coercing values to the field kinds.
func (s *Store) Build(m *models.Model, values models.Values) (*models.Record, error) {
	return codec.BuildRecord(m, values)
}

// Save stores rec, replacing any record with the same primary key. A missing
// integer primary key is assigned.
func (s *Store) Save(_ context.Context, rec *models.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	t := s.table(rec.Meta)
	pk := rec.PK()
	if pk == nil {
		pk = t.nextID
		rec.SetPK(pk)
	}
	if id, ok := pk.(int64); ok && id >= t.nextID {
		t.nextID = id + 1
	}

	k := pkKey(pk)
	if _, exists := t.records[k]; !exists {
		t.order = append(t.order, k)
	}
	t.records[k] = rec
	return nil
}

// Get returns the record of model m with primary key pk.
func (s *Store) Get(_ context.Context, m *models.Model, pk any) (*models.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if t, ok := s.tables[m.Label()]; ok {
		if rec, ok := t.records[pkKey(pk)]; ok {
			return rec, nil
		}
	}
	return nil, errors.Wrapf(models.ErrRecordNotFound, "%s pk=%v", m.Label(), pk)
}

// Records returns the records of model m in insertion order.
func (s *Store) Records(m *models.Model) []*models.Record {
	s.mu.RLock()
	defer s.mu.RUnlock()

	t, ok := s.tables[m.Label()]
	if !ok {
		return nil
	}
	out := make([]*models.Record, 0, len(t.order))
	for _, k := range t.order {
		out = append(out, t.records[k])
	}
	return out
}

// Count returns the number of records of model m.
func (s *Store) Count(m *models.Model) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if t, ok := s.tables[m.Label()]; ok {
		return len(t.records)
	}
	return 0
}
