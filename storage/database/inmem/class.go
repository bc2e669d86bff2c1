package inmemdb

import (
	"context"
	"sort"

	"github.com/lunedance/lune/core"
	"github.com/lunedance/lune/core/class"
	"github.com/lunedance/lune/core/enrollment"
)

// Modalities

func (s *Store) CreateModality(_ context.Context, m class.Modality) (class.Modality, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if m.ID == "" {
		m.ID = core.NewID()
	}
	s.db.modalities[m.ID] = m
	return m, nil
}

func (s *Store) GetModality(_ context.Context, id string) (class.Modality, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if m, ok := s.db.modalities[id]; ok {
		return m, nil
	}
	return class.Modality{}, class.ErrModalityNotFound
}

func (s *Store) ListModalities(_ context.Context, filter class.NameFilter) ([]class.Modality, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	mods := values(s.db.modalities, func(m class.Modality) bool {
		return in(filter.IDs, m.ID) && matches(filter.Name, m.Name)
	})
	sort.SliceStable(mods, func(i, j int) bool { return mods[i].Name < mods[j].Name })
	return mods, nil
}

func (s *Store) UpdateModality(_ context.Context, m class.Modality) (class.Modality, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.db.modalities[m.ID]; !ok {
		return class.Modality{}, class.ErrModalityNotFound
	}
	s.db.modalities[m.ID] = m
	return m, nil
}

func (s *Store) DeleteModality(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.db.modalities[id]; !ok {
		return class.ErrModalityNotFound
	}
	for _, c := range s.db.classes {
		if c.ModalityID == id {
			return core.NewIntegrityError("modality still has classes", c.Name)
		}
	}
	delete(s.db.modalities, id)
	return nil
}

// Class levels

func (s *Store) CreateClassLevel(_ context.Context, l class.ClassLevel) (class.ClassLevel, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if l.ID == "" {
		l.ID = core.NewID()
	}
	s.db.levels[l.ID] = l
	return l, nil
}

func (s *Store) GetClassLevel(_ context.Context, id string) (class.ClassLevel, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if l, ok := s.db.levels[id]; ok {
		return l, nil
	}
	return class.ClassLevel{}, class.ErrClassLevelNotFound
}

func (s *Store) ListClassLevels(_ context.Context, filter class.NameFilter) ([]class.ClassLevel, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	levels := values(s.db.levels, func(l class.ClassLevel) bool {
		return in(filter.IDs, l.ID) && matches(filter.Name, l.Name)
	})
	sort.SliceStable(levels, func(i, j int) bool { return levels[i].Name < levels[j].Name })
	return levels, nil
}

func (s *Store) UpdateClassLevel(_ context.Context, l class.ClassLevel) (class.ClassLevel, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.db.levels[l.ID]; !ok {
		return class.ClassLevel{}, class.ErrClassLevelNotFound
	}
	s.db.levels[l.ID] = l
	return l, nil
}

func (s *Store) DeleteClassLevel(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.db.levels[id]; !ok {
		return class.ErrClassLevelNotFound
	}
	for _, c := range s.db.classes {
		if c.ClassLevelID == id {
			return core.NewIntegrityError("class level still has classes", c.Name)
		}
	}
	delete(s.db.levels, id)
	return nil
}

// Classes

func (s *Store) CreateClass(_ context.Context, c class.Class) (class.Class, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if c.ID == "" {
		c.ID = core.NewID()
	}
	s.db.classes[c.ID] = c
	return c, nil
}

func (s *Store) GetClass(_ context.Context, id string) (class.Class, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if c, ok := s.db.classes[id]; ok {
		return c, nil
	}
	return class.Class{}, class.ErrNotFound
}

func (s *Store) ListClasses(_ context.Context, filter class.Filter) ([]class.Class, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	classes := values(s.db.classes, func(c class.Class) bool {
		return in(filter.IDs, c.ID) &&
			matches(filter.Name, c.Name, s.db.modalities[c.ModalityID].Name) &&
			(filter.Description == "" || c.Description == filter.Description) &&
			(filter.TeacherID == "" || (c.HasTeacher() && *c.TeacherID == filter.TeacherID)) &&
			(filter.ModalityID == "" || c.ModalityID == filter.ModalityID) &&
			(filter.ClassLevelID == "" || c.ClassLevelID == filter.ClassLevelID)
	})
	sort.SliceStable(classes, func(i, j int) bool { return classes[i].Name < classes[j].Name })
	return classes, nil
}

func (s *Store) UpdateClass(_ context.Context, c class.Class) (class.Class, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.db.classes[c.ID]; !ok {
		return class.Class{}, class.ErrNotFound
	}
	s.db.classes[c.ID] = c
	return c, nil
}

// DeleteClasses removes classes with their slots, trials and worked hours.
// Enrollments of a removed class lose their class.
func (s *Store) DeleteClasses(_ context.Context, ids ...string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, id := range ids {
		s.deleteGridItemsWhere(func(classID string) bool { return classID == id })
		for whID, wh := range s.db.workedHours {
			if wh.ClassID == id {
				delete(s.db.workedHours, whID)
			}
		}
		for eID, e := range s.db.enrollments {
			if e.ClassID != nil && *e.ClassID == id {
				e.ClassID = nil
				s.db.enrollments[eID] = e
			}
		}
		delete(s.db.classes, id)
	}
	return nil
}

func (s *Store) DeleteGridItemsByClass(_ context.Context, classIDs ...string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.deleteGridItemsWhere(func(classID string) bool { return in(classIDs, classID) })
	return nil
}

func (s *Store) CountGridItemsByClass(_ context.Context) (map[string]int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	counts := make(map[string]int)
	for _, it := range s.db.gridItems {
		counts[it.ClassID]++
	}
	return counts, nil
}

func (s *Store) CountActiveEnrollmentsByClass(_ context.Context) (map[string]int, error) {
	return s.countEnrollmentsByClass([]enrollment.Status{enrollment.StatusActive}), nil
}

func (s *Store) countEnrollmentsByClass(statuses []enrollment.Status) map[string]int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	counts := make(map[string]int)
	for _, e := range s.db.enrollments {
		if e.ClassID != nil && in(statuses, e.Status) {
			counts[*e.ClassID]++
		}
	}
	return counts
}
