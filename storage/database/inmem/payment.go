package inmemdb

import (
	"context"
	"sort"

	"github.com/lunedance/lune/core"
	"github.com/lunedance/lune/core/payment"
)

func (s *Store) CreatePayments(_ context.Context, payments []payment.Payment) ([]payment.Payment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	created := make([]payment.Payment, 0, len(payments))
	for _, p := range payments {
		if p.ID == "" {
			p.ID = core.NewID()
		}
		s.db.payments[p.ID] = p
		created = append(created, p)
	}
	return created, nil
}

func (s *Store) GetPayment(_ context.Context, id string) (payment.Payment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if p, ok := s.db.payments[id]; ok {
		return p, nil
	}
	return payment.Payment{}, payment.ErrNotFound
}

func (s *Store) ListPayments(_ context.Context, filter payment.Filter) ([]payment.Payment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.listPayments(filter), nil
}

func (s *Store) listPayments(filter payment.Filter) []payment.Payment {
	payments := values(s.db.payments, func(p payment.Payment) bool {
		paidInRange := true
		if !filter.PaidFrom.IsZero() || !filter.PaidTo.IsZero() {
			paidInRange = p.PaidAt != nil && within(*p.PaidAt, filter.PaidFrom, filter.PaidTo)
		}
		return in(filter.IDs, p.ID) &&
			in(filter.EnrollmentIDs, p.EnrollmentID) &&
			in(filter.Statuses, p.Status) &&
			notIn(filter.ExcludeStatuses, p.Status) &&
			within(p.DueDate, filter.DueFrom, filter.DueTo) &&
			paidInRange
	})
	sort.SliceStable(payments, func(i, j int) bool { return payments[i].DueDate.Before(payments[j].DueDate) })
	return payments
}

func (s *Store) ListPaymentDetails(_ context.Context, filter payment.Filter) ([]payment.Detail, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	payments := s.listPayments(filter)
	details := make([]payment.Detail, 0, len(payments))
	for _, p := range payments {
		d := payment.Detail{Payment: p}
		if e, ok := s.db.enrollments[p.EnrollmentID]; ok {
			if st, ok := s.db.students[e.StudentID]; ok {
				d.StudentID = st.ID
				d.StudentName = st.FullName()
				d.StudentPhone = st.Phone
			}
			if pl, ok := s.db.plans[e.PlanID]; ok {
				d.PlanName = pl.Name
				d.DurationInDays = pl.DurationInDays
			}
			if e.ClassID != nil {
				if c, ok := s.db.classes[*e.ClassID]; ok {
					d.ClassID = c.ID
					d.ClassName = c.Name
					d.ModalityName = s.db.modalities[c.ModalityID].Name
				}
			}
		}
		details = append(details, d)
	}
	return details, nil
}

func (s *Store) UpdatePayment(_ context.Context, p payment.Payment) (payment.Payment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.db.payments[p.ID]; !ok {
		return payment.Payment{}, payment.ErrNotFound
	}
	s.db.payments[p.ID] = p
	return p, nil
}

func (s *Store) DeletePayment(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.db.payments[id]; !ok {
		return payment.ErrNotFound
	}
	delete(s.db.payments, id)
	return nil
}
