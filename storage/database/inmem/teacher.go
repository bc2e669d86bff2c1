package inmemdb

import (
	"context"
	"sort"

	"github.com/lunedance/lune/core"
	"github.com/lunedance/lune/core/teacher"
)

func (s *Store) CreateTeacher(_ context.Context, t teacher.Teacher) (teacher.Teacher, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if t.ID == "" {
		t.ID = core.NewID()
	}
	s.db.teachers[t.ID] = t
	return t, nil
}

func (s *Store) GetTeacher(_ context.Context, id string) (teacher.Teacher, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if t, ok := s.db.teachers[id]; ok {
		return t, nil
	}
	return teacher.Teacher{}, teacher.ErrNotFound
}

func (s *Store) GetTeacherByCPF(_ context.Context, cpf string) (teacher.Teacher, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, t := range s.db.teachers {
		if t.CPF == cpf {
			return t, nil
		}
	}
	return teacher.Teacher{}, teacher.ErrNotFound
}

func (s *Store) ListTeachers(_ context.Context, filter teacher.Filter, orderings ...core.DBOrdering) ([]teacher.Teacher, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	teachers := values(s.db.teachers, func(t teacher.Teacher) bool {
		return in(filter.IDs, t.ID) &&
			matches(filter.Name, t.FirstName, t.LastName) &&
			(filter.IsActive == nil || t.IsActive == *filter.IsActive)
	})

	less := func(i, j int) bool { return teachers[i].FullName() < teachers[j].FullName() }
	if len(orderings) > 0 {
		ord := orderings[0]
		cmp := func(a, b teacher.Teacher) int {
			switch ord.Field {
			case "price_hour":
				return a.PriceHour.Cmp(b.PriceHour)
			case "created_at":
				return compareTime(a.CreatedAt, b.CreatedAt)
			case "last_name":
				return compareString(a.LastName, b.LastName)
			default:
				return compareString(a.FirstName, b.FirstName)
			}
		}
		less = func(i, j int) bool {
			if ord.Ascending {
				return cmp(teachers[i], teachers[j]) < 0
			}
			return cmp(teachers[i], teachers[j]) > 0
		}
	}
	sort.SliceStable(teachers, less)
	return teachers, nil
}

func (s *Store) UpdateTeacher(_ context.Context, t teacher.Teacher) (teacher.Teacher, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.db.teachers[t.ID]; !ok {
		return teacher.Teacher{}, teacher.ErrNotFound
	}
	s.db.teachers[t.ID] = t
	return t, nil
}

// DeleteTeacher removes a teacher with their worked hours.
func (s *Store) DeleteTeacher(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.db.teachers[id]; !ok {
		return teacher.ErrNotFound
	}
	for whID, wh := range s.db.workedHours {
		if wh.TeacherID == id {
			delete(s.db.workedHours, whID)
		}
	}
	delete(s.db.teachers, id)
	return nil
}

func (s *Store) CountClassesByTeacher(_ context.Context) (map[string]int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	counts := make(map[string]int)
	for _, c := range s.db.classes {
		if c.HasTeacher() {
			counts[*c.TeacherID]++
		}
	}
	return counts, nil
}
