package inmemdb

import (
	"context"
	"sort"

	"github.com/lunedance/lune/core"
	"github.com/lunedance/lune/core/student"
)

func (s *Store) CreateStudent(_ context.Context, st student.Student) (student.Student, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if st.ID == "" {
		st.ID = core.NewID()
	}
	s.db.students[st.ID] = st
	return st, nil
}

func (s *Store) GetStudent(_ context.Context, id string) (student.Student, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if st, ok := s.db.students[id]; ok {
		return st, nil
	}
	return student.Student{}, student.ErrNotFound
}

func (s *Store) ListStudents(_ context.Context, filter student.Filter) ([]student.Student, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	students := values(s.db.students, func(st student.Student) bool {
		return in(filter.IDs, st.ID) && matches(filter.Name, st.FirstName, st.LastName)
	})
	sort.SliceStable(students, func(i, j int) bool { return students[i].FullName() < students[j].FullName() })
	return students, nil
}

func (s *Store) UpdateStudent(_ context.Context, st student.Student) (student.Student, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.db.students[st.ID]; !ok {
		return student.Student{}, student.ErrNotFound
	}
	s.db.students[st.ID] = st
	return st, nil
}

func (s *Store) DeleteStudent(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.db.students[id]; !ok {
		return student.ErrNotFound
	}
	for cID, c := range s.db.contacts {
		if c.StudentID == id {
			delete(s.db.contacts, cID)
		}
	}
	for aID, a := range s.db.addresses {
		if a.StudentID == id {
			delete(s.db.addresses, aID)
		}
	}
	for eID, e := range s.db.enrollments {
		if e.StudentID == id {
			s.deleteEnrollment(eID)
		}
	}
	delete(s.db.students, id)
	return nil
}

// Emergency contacts

func (s *Store) CreateEmergencyContact(_ context.Context, c student.EmergencyContact) (student.EmergencyContact, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if c.ID == "" {
		c.ID = core.NewID()
	}
	s.db.contacts[c.ID] = c
	return c, nil
}

func (s *Store) ListEmergencyContacts(_ context.Context, studentID string) ([]student.EmergencyContact, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	contacts := values(s.db.contacts, func(c student.EmergencyContact) bool { return c.StudentID == studentID })
	sort.SliceStable(contacts, func(i, j int) bool { return contacts[i].CreatedAt.Before(contacts[j].CreatedAt) })
	return contacts, nil
}

func (s *Store) UpdateEmergencyContact(_ context.Context, c student.EmergencyContact) (student.EmergencyContact, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.db.contacts[c.ID]; !ok {
		return student.EmergencyContact{}, core.NewNotFoundError("emergency contact")
	}
	s.db.contacts[c.ID] = c
	return c, nil
}

// Addresses

func (s *Store) CreateAddress(_ context.Context, a student.Address) (student.Address, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if a.ID == "" {
		a.ID = core.NewID()
	}
	s.db.addresses[a.ID] = a
	return a, nil
}

func (s *Store) GetStudentAddress(_ context.Context, studentID string) (student.Address, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, a := range s.db.addresses {
		if a.StudentID == studentID {
			return a, nil
		}
	}
	return student.Address{}, student.ErrAddressNotFound
}

func (s *Store) UpdateAddress(_ context.Context, a student.Address) (student.Address, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.db.addresses[a.ID]; !ok {
		return student.Address{}, student.ErrAddressNotFound
	}
	s.db.addresses[a.ID] = a
	return a, nil
}
