package inmemdb

import (
	"context"
	"sort"

	"github.com/lunedance/lune/core"
	"github.com/lunedance/lune/core/lead"
)

func (s *Store) CreateLead(_ context.Context, l lead.Lead) (lead.Lead, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if l.ID == "" {
		l.ID = core.NewID()
	}
	s.db.leads[l.ID] = l
	return l, nil
}

func (s *Store) GetLead(_ context.Context, id string) (lead.Lead, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if l, ok := s.db.leads[id]; ok {
		return l, nil
	}
	return lead.Lead{}, lead.ErrNotFound
}

// ListLeads matches Name against first name, last name and phone. Other text fields must be equal.
func (s *Store) ListLeads(_ context.Context, filter lead.Filter, orderings ...core.DBOrdering) ([]lead.Lead, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	leads := values(s.db.leads, func(l lead.Lead) bool {
		return in(filter.IDs, l.ID) &&
			matches(filter.Name, l.FirstName, l.LastName, l.Phone) &&
			matches(filter.Phone, l.Phone) &&
			(filter.FindUsBy == "" || l.FindUsBy == filter.FindUsBy) &&
			(filter.Age == nil || l.Age == *filter.Age) &&
			(filter.Score == nil || l.Score == *filter.Score) &&
			(filter.Status == nil || l.Status == *filter.Status) &&
			(filter.Modality == "" || l.ModalityOfInterest == filter.Modality) &&
			(filter.PreferencePeriod == "" || l.PreferencePeriod == filter.PreferencePeriod)
	})

	ord := core.DBOrdering{Field: "updated_at"}
	if len(orderings) > 0 {
		ord = orderings[0]
	}
	cmp := func(a, b lead.Lead) int {
		switch ord.Field {
		case "first_name":
			return compareString(a.FirstName, b.FirstName)
		case "last_name":
			return compareString(a.LastName, b.LastName)
		case "age":
			return a.Age - b.Age
		case "score":
			return int(a.Score - b.Score)
		case "status":
			return int(a.Status - b.Status)
		case "created_at":
			return compareTime(a.CreatedAt, b.CreatedAt)
		default:
			return compareTime(a.UpdatedAt, b.UpdatedAt)
		}
	}
	sort.SliceStable(leads, func(i, j int) bool {
		if ord.Ascending {
			return cmp(leads[i], leads[j]) < 0
		}
		return cmp(leads[i], leads[j]) > 0
	})
	return leads, nil
}

func (s *Store) UpdateLead(_ context.Context, l lead.Lead) (lead.Lead, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.db.leads[l.ID]; !ok {
		return lead.Lead{}, lead.ErrNotFound
	}
	s.db.leads[l.ID] = l
	return l, nil
}

// DeleteLead removes a lead with their trial classes.
func (s *Store) DeleteLead(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.db.leads[id]; !ok {
		return lead.ErrNotFound
	}
	for tID, t := range s.db.trials {
		if t.LeadID == id {
			delete(s.db.trials, tID)
		}
	}
	delete(s.db.leads, id)
	return nil
}
