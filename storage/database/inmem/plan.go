package inmemdb

import (
	"context"
	"sort"

	"github.com/lunedance/lune/core"
	"github.com/lunedance/lune/core/plan"
)

func (s *Store) CreatePlan(_ context.Context, p plan.Plan) (plan.Plan, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if p.ID == "" {
		p.ID = core.NewID()
	}
	s.db.plans[p.ID] = p
	return p, nil
}

func (s *Store) GetPlan(_ context.Context, id string) (plan.Plan, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if p, ok := s.db.plans[id]; ok {
		return p, nil
	}
	return plan.Plan{}, plan.ErrNotFound
}

func (s *Store) ListPlans(_ context.Context, filter plan.Filter) ([]plan.Plan, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	plans := values(s.db.plans, func(p plan.Plan) bool {
		return matches(filter.Name, p.Name) && (filter.IsActive == nil || p.IsActive == *filter.IsActive)
	})
	sort.SliceStable(plans, func(i, j int) bool { return plans[i].Name < plans[j].Name })
	return plans, nil
}

func (s *Store) UpdatePlan(_ context.Context, p plan.Plan) (plan.Plan, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.db.plans[p.ID]; !ok {
		return plan.Plan{}, plan.ErrNotFound
	}
	s.db.plans[p.ID] = p
	return p, nil
}

func (s *Store) DeletePlan(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.db.plans[id]
	if !ok {
		return plan.ErrNotFound
	}
	for _, e := range s.db.enrollments {
		if e.PlanID == id {
			return core.NewIntegrityError("plan still has enrollments", p.Name)
		}
	}
	delete(s.db.plans, id)
	return nil
}

func (s *Store) CountEnrollmentsByPlan(_ context.Context) (map[string]int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	counts := make(map[string]int)
	for _, e := range s.db.enrollments {
		counts[e.PlanID]++
	}
	return counts, nil
}
