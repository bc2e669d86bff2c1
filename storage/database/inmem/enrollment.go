package inmemdb

import (
	"context"
	"sort"
	"time"

	"github.com/lunedance/lune/core"
	"github.com/lunedance/lune/core/enrollment"
	"github.com/lunedance/lune/core/payment"
)

func (s *Store) CreateEnrollment(_ context.Context, e enrollment.Enrollment) (enrollment.Enrollment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if e.ID == "" {
		e.ID = core.NewID()
	}
	s.db.enrollments[e.ID] = e
	return e, nil
}

func (s *Store) GetEnrollment(_ context.Context, id string) (enrollment.Enrollment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if e, ok := s.db.enrollments[id]; ok {
		return e, nil
	}
	return enrollment.Enrollment{}, enrollment.ErrNotFound
}

func (s *Store) ListEnrollments(_ context.Context, filter enrollment.Filter) ([]enrollment.Enrollment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	enrollments := values(s.db.enrollments, func(e enrollment.Enrollment) bool {
		classID := ""
		if e.ClassID != nil {
			classID = *e.ClassID
		}
		return in(filter.IDs, e.ID) &&
			in(filter.StudentIDs, e.StudentID) &&
			in(filter.ClassIDs, classID) &&
			in(filter.Statuses, e.Status)
	})
	sort.SliceStable(enrollments, func(i, j int) bool {
		return enrollments[i].StartDate.After(enrollments[j].StartDate)
	})
	return enrollments, nil
}

func (s *Store) UpdateEnrollment(_ context.Context, e enrollment.Enrollment) (enrollment.Enrollment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.db.enrollments[e.ID]; !ok {
		return enrollment.Enrollment{}, enrollment.ErrNotFound
	}
	s.db.enrollments[e.ID] = e
	return e, nil
}

func (s *Store) DeleteEnrollment(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.db.enrollments[id]; !ok {
		return enrollment.ErrNotFound
	}
	s.deleteEnrollment(id)
	return nil
}

// deleteEnrollment must be called with the write lock held.
func (s *Store) deleteEnrollment(id string) {
	for pID, p := range s.db.payments {
		if p.EnrollmentID == id {
			delete(s.db.payments, pID)
		}
	}
	delete(s.db.tokens, id)
	delete(s.db.enrollments, id)
}

func (s *Store) CancelPendingPayments(_ context.Context, enrollmentID string, at time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var n int
	for id, p := range s.db.payments {
		if p.EnrollmentID == enrollmentID && p.Status == payment.StatusPending {
			p.Status = payment.StatusCanceled
			p.UpdatedAt = at
			s.db.payments[id] = p
			n++
		}
	}
	return n, nil
}
