// Package memory is a process-local ExpenseStore used by the memory backend and tests.
package memory

import (
	"context"
	"strings"
	"sync"
	"time"

	"spendlog/internal/core"
	"spendlog/internal/storage"
)

type Store struct {
	mu     sync.Mutex
	nextID int64
	items  []core.Expense
	loc    *time.Location
	closed bool
}

// New returns an empty store. Dates are returned in loc; nil means time.Local.
func New(loc *time.Location) *Store {
	if loc == nil {
		loc = time.Local
	}
	return &Store{nextID: 1, loc: loc}
}

var _ storage.ExpenseStore = (*Store)(nil)

func (s *Store) InsertExpense(_ context.Context, date time.Time, name string, cost float64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return false, core.ErrStorage
	}
	s.items = append(s.items, core.Expense{
		ID:   s.nextID,
		Date: date.UTC().Truncate(time.Second),
		Name: name,
		Cost: cost,
	})
	s.nextID++
	return true, nil
}

func (s *Store) SelectAll(_ context.Context, limit int) ([]core.Expense, error) {
	return s.filter(limit, func(core.Expense) bool { return true })
}

func (s *Store) SelectForDateRange(_ context.Context, from, to time.Time, limit int) ([]core.Expense, error) {
	return s.filter(limit, inRange(from, to))
}

func (s *Store) SearchByText(_ context.Context, text string, from, to *time.Time) ([]core.Expense, error) {
	bounded, err := core.HasBounds(from, to)
	if err != nil {
		return nil, err
	}
	var within func(core.Expense) bool
	if bounded {
		within = inRange(*from, *to)
	}
	return s.filter(storage.DefaultLimit, func(e core.Expense) bool {
		if !strings.Contains(e.Name, text) {
			return false
		}
		return within == nil || within(e)
	})
}

func (s *Store) DeleteMostRecent(_ context.Context) (core.Expense, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return core.Expense{}, false, core.ErrStorage
	}
	if len(s.items) == 0 {
		return core.Expense{}, false, nil
	}
	// ids only grow, so the last element carries the highest id
	last := s.items[len(s.items)-1]
	s.items = s.items[:len(s.items)-1]
	last.Date = last.Date.In(s.loc)
	return last, true, nil
}

func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

func (s *Store) filter(limit int, keep func(core.Expense) bool) ([]core.Expense, error) {
	if limit <= 0 || limit > storage.DefaultLimit {
		limit = storage.DefaultLimit
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, core.ErrStorage
	}
	out := make([]core.Expense, 0)
	for _, e := range s.items {
		if len(out) == limit {
			break
		}
		if keep(e) {
			e.Date = e.Date.In(s.loc)
			out = append(out, e)
		}
	}
	return out, nil
}

// inRange compares at second precision, matching the persisted text form.
func inRange(from, to time.Time) func(core.Expense) bool {
	from = from.UTC().Truncate(time.Second)
	to = to.UTC().Truncate(time.Second)
	return func(e core.Expense) bool {
		return !e.Date.Before(from) && !e.Date.After(to)
	}
}
