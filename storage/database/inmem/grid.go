package inmemdb

import (
	"context"
	"sort"
	"time"

	"github.com/lunedance/lune/core"
	"github.com/lunedance/lune/core/enrollment"
	"github.com/lunedance/lune/core/grid"
	"github.com/lunedance/lune/core/trial"
)

// LockGrid is a no-op: transactions of the memory store are already serialized.
func (s *Store) LockGrid(_ context.Context) error {
	return nil
}

func (s *Store) CreateGridItem(_ context.Context, it grid.Item) (grid.Item, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if it.ID == "" {
		it.ID = core.NewID()
	}
	s.db.gridItems[it.ID] = it
	return it, nil
}

func (s *Store) GetGridItem(_ context.Context, id string) (grid.Item, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if it, ok := s.db.gridItems[id]; ok {
		return it, nil
	}
	return grid.Item{}, grid.ErrNotFound
}

func (s *Store) ListGridItems(_ context.Context, filter grid.Filter) ([]grid.Item, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	items := values(s.db.gridItems, func(it grid.Item) bool {
		return in(filter.IDs, it.ID) && in(filter.ClassIDs, it.ClassID) && in(filter.Days, it.DayOfWeek)
	})
	sort.SliceStable(items, func(i, j int) bool {
		if items[i].StartTime != items[j].StartTime {
			return items[i].StartTime < items[j].StartTime
		}
		return items[i].DayOfWeek.Index() < items[j].DayOfWeek.Index()
	})
	return items, nil
}

func (s *Store) UpdateGridItem(_ context.Context, it grid.Item) (grid.Item, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.db.gridItems[it.ID]; !ok {
		return grid.Item{}, grid.ErrNotFound
	}
	s.db.gridItems[it.ID] = it
	return it, nil
}

// DeleteGridItems removes slots with the trials booked on them.
func (s *Store) DeleteGridItems(_ context.Context, ids ...string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, id := range ids {
		s.deleteGridItem(id)
	}
	return nil
}

// deleteGridItemsWhere must be called with the write lock held.
func (s *Store) deleteGridItemsWhere(byClass func(classID string) bool) {
	for id, it := range s.db.gridItems {
		if byClass(it.ClassID) {
			s.deleteGridItem(id)
		}
	}
}

func (s *Store) deleteGridItem(id string) {
	for tID, t := range s.db.trials {
		if t.GridItemID == id {
			delete(s.db.trials, tID)
		}
	}
	delete(s.db.gridItems, id)
}

func (s *Store) CountEnrollmentsByClass(_ context.Context) (map[string]int, error) {
	return s.countEnrollmentsByClass(nil), nil
}

func (s *Store) ListClassAttendees(_ context.Context) (map[string][]grid.Attendee, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	attendees := make(map[string][]grid.Attendee)
	for _, e := range s.db.enrollments {
		if e.ClassID == nil || e.Status != enrollment.StatusActive {
			continue
		}
		st, ok := s.db.students[e.StudentID]
		if !ok {
			continue
		}
		attendees[*e.ClassID] = append(attendees[*e.ClassID], grid.Attendee{ID: st.ID, Name: st.FullName(), PlanID: e.PlanID})
	}
	for _, list := range attendees {
		sortAttendees(list)
	}
	return attendees, nil
}

// ListSlotTrials leaves out cancelled trials.
func (s *Store) ListSlotTrials(_ context.Context, from, to time.Time) (map[string][]grid.Attendee, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	attendees := make(map[string][]grid.Attendee)
	for _, t := range s.db.trials {
		if t.Status == trial.StatusCancelled || !within(t.Date, from, to) {
			continue
		}
		l, ok := s.db.leads[t.LeadID]
		if !ok {
			continue
		}
		attendees[t.GridItemID] = append(attendees[t.GridItemID], grid.Attendee{ID: l.ID, Name: l.FullName()})
	}
	for _, list := range attendees {
		sortAttendees(list)
	}
	return attendees, nil
}

func sortAttendees(list []grid.Attendee) {
	sort.SliceStable(list, func(i, j int) bool { return list[i].Name < list[j].Name })
}
