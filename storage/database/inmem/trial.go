package inmemdb

import (
	"context"
	"sort"
	"time"

	"github.com/lunedance/lune/core"
	"github.com/lunedance/lune/core/trial"
)

func (s *Store) CreateTrial(_ context.Context, t trial.Trial) (trial.Trial, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if t.ID == "" {
		t.ID = core.NewID()
	}
	s.db.trials[t.ID] = t
	return t, nil
}

func (s *Store) GetTrial(_ context.Context, id string) (trial.Trial, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if t, ok := s.db.trials[id]; ok {
		return t, nil
	}
	return trial.Trial{}, trial.ErrNotFound
}

func (s *Store) ListTrials(_ context.Context, filter trial.Filter) ([]trial.Trial, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	trials := s.filterTrials(filter)
	sort.SliceStable(trials, func(i, j int) bool { return trials[i].Date.Before(trials[j].Date) })
	return trials, nil
}

func (s *Store) CountTrials(_ context.Context, filter trial.Filter) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.filterTrials(filter)), nil
}

func (s *Store) filterTrials(filter trial.Filter) []trial.Trial {
	return values(s.db.trials, func(t trial.Trial) bool {
		return in(filter.IDs, t.ID) &&
			in(filter.GridItemIDs, t.GridItemID) &&
			in(filter.Statuses, t.Status) &&
			notIn(filter.ExcludeStatuses, t.Status) &&
			within(t.Date, filter.From, filter.To)
	})
}

func (s *Store) UpdateTrial(_ context.Context, t trial.Trial) (trial.Trial, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.db.trials[t.ID]; !ok {
		return trial.Trial{}, trial.ErrNotFound
	}
	s.db.trials[t.ID] = t
	return t, nil
}

func (s *Store) SetTrialStatus(_ context.Context, filter trial.Filter, status trial.Status, at time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	matched := s.filterTrials(filter)
	for _, t := range matched {
		t.Status = status
		t.UpdatedAt = at
		s.db.trials[t.ID] = t
	}
	return len(matched), nil
}

func (s *Store) DeleteTrial(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.db.trials[id]; !ok {
		return trial.ErrNotFound
	}
	delete(s.db.trials, id)
	return nil
}
