package inmemdb

import (
	"context"
	"sort"

	"github.com/lunedance/lune/core"
	"github.com/lunedance/lune/core/workedhour"
)

func (s *Store) CreateWorkedHours(_ context.Context, whs ...workedhour.WorkedHour) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, wh := range whs {
		if wh.ID == "" {
			wh.ID = core.NewID()
		}
		s.db.workedHours[wh.ID] = wh
	}
	return nil
}

func (s *Store) GetWorkedHour(_ context.Context, id string) (workedhour.WorkedHour, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if wh, ok := s.db.workedHours[id]; ok {
		return wh, nil
	}
	return workedhour.WorkedHour{}, workedhour.ErrNotFound
}

func (s *Store) ListWorkedHours(_ context.Context, filter workedhour.Filter) ([]workedhour.WorkedHour, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	whs := s.filterWorkedHours(filter)
	sort.SliceStable(whs, func(i, j int) bool {
		if !whs[i].WorkedAt.Equal(whs[j].WorkedAt) {
			return whs[i].WorkedAt.After(whs[j].WorkedAt)
		}
		return whs[i].StartedAt.After(whs[j].StartedAt)
	})
	return whs, nil
}

func (s *Store) CountWorkedHours(_ context.Context, filter workedhour.Filter) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.filterWorkedHours(filter)), nil
}

func (s *Store) filterWorkedHours(filter workedhour.Filter) []workedhour.WorkedHour {
	return values(s.db.workedHours, func(wh workedhour.WorkedHour) bool {
		return in(filter.IDs, wh.ID) &&
			in(filter.TeacherIDs, wh.TeacherID) &&
			in(filter.Statuses, wh.Status) &&
			within(wh.WorkedAt, filter.From, filter.To)
	})
}

func (s *Store) UpdateWorkedHour(_ context.Context, wh workedhour.WorkedHour) (workedhour.WorkedHour, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.db.workedHours[wh.ID]; !ok {
		return workedhour.WorkedHour{}, workedhour.ErrNotFound
	}
	s.db.workedHours[wh.ID] = wh
	return wh, nil
}

func (s *Store) DeleteWorkedHour(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.db.workedHours[id]; !ok {
		return workedhour.ErrNotFound
	}
	delete(s.db.workedHours, id)
	return nil
}
