package memory

import (
	"context"
	"sync"

	"spendwise/internal/core"
	"spendwise/internal/sheets"
)

var _ sheets.ExpenseMirror = (*Store)(nil)

// Store is an in-process mirror used when no spreadsheet is configured.
type Store struct {
	mu    sync.Mutex
	items []core.Expense
}

func New() *Store {
	return &Store{}
}

// Append adds e unless its id is already mirrored.
func (s *Store) Append(_ context.Context, e core.Expense) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.indexOf(e.ID) >= 0 {
		return nil
	}
	s.items = append(s.items, e)
	return nil
}

// Remove drops the row with id, if any.
func (s *Store) Remove(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if i := s.indexOf(id); i >= 0 {
		s.items = append(s.items[:i], s.items[i+1:]...)
	}
	return nil
}

func (s *Store) Replace(_ context.Context, items []core.Expense) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items = sheets.SortByID(items)
	return nil
}

// Items returns a copy of the mirrored rows in insertion order.
func (s *Store) Items() []core.Expense {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]core.Expense(nil), s.items...)
}

// ListMirrored lets reconciliation compare the mirror with the database.
func (s *Store) ListMirrored(_ context.Context) ([]core.Expense, error) {
	return s.Items(), nil
}

func (s *Store) indexOf(id int64) int {
	for i, e := range s.items {
		if e.ID == id {
			return i
		}
	}
	return -1
}
