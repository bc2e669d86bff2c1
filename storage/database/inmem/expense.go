package inmemdb

import (
	"context"
	"sort"

	"github.com/lunedance/lune/core"
	"github.com/lunedance/lune/core/expense"
)

func (s *Store) CreateExpense(_ context.Context, e expense.Expense) (expense.Expense, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if e.ID == "" {
		e.ID = core.NewID()
	}
	s.db.expenses[e.ID] = e
	return e, nil
}

func (s *Store) GetExpense(_ context.Context, id string) (expense.Expense, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if e, ok := s.db.expenses[id]; ok {
		return e, nil
	}
	return expense.Expense{}, expense.ErrNotFound
}

func (s *Store) ListExpenses(_ context.Context, filter expense.Filter) ([]expense.Expense, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	expenses := s.filterExpenses(filter)
	sort.SliceStable(expenses, func(i, j int) bool {
		if expenses[i].DueDay != expenses[j].DueDay {
			return expenses[i].DueDay < expenses[j].DueDay
		}
		return expenses[i].Name < expenses[j].Name
	})
	return expenses, nil
}

func (s *Store) CountExpenses(_ context.Context, filter expense.Filter) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.filterExpenses(filter)), nil
}

func (s *Store) filterExpenses(filter expense.Filter) []expense.Expense {
	return values(s.db.expenses, func(e expense.Expense) bool {
		return in(filter.Statuses, e.Status) &&
			(filter.CreatedBefore.IsZero() || !e.CreatedAt.After(filter.CreatedBefore))
	})
}

func (s *Store) UpdateExpense(_ context.Context, e expense.Expense) (expense.Expense, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.db.expenses[e.ID]; !ok {
		return expense.Expense{}, expense.ErrNotFound
	}
	s.db.expenses[e.ID] = e
	return e, nil
}

func (s *Store) DeleteExpense(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.db.expenses[id]; !ok {
		return expense.ErrNotFound
	}
	delete(s.db.expenses, id)
	return nil
}
