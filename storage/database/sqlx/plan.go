package sqlxdb

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"

	"github.com/lunedance/lune/core"
	"github.com/lunedance/lune/core/plan"
)

var planColumns = []string{
	"id", "name", "weekly_classes", "description", "price", "duration_in_days", "is_active", "created_at", "updated_at",
}

type planRow struct {
	ID             string          `db:"id"`
	Name           string          `db:"name"`
	WeeklyClasses  int             `db:"weekly_classes"`
	Description    string          `db:"description"`
	Price          decimal.Decimal `db:"price"`
	DurationInDays int             `db:"duration_in_days"`
	IsActive       bool            `db:"is_active"`
	CreatedAt      time.Time       `db:"created_at"`
	UpdatedAt      time.Time       `db:"updated_at"`
}

func (s *Store) CreatePlan(ctx context.Context, p plan.Plan) (plan.Plan, error) {
	if p.ID == "" {
		p.ID = core.NewID()
	}
	if err := s.insert(ctx, "plans", planColumns, planRow(p)); err != nil {
		return plan.Plan{}, errors.Wrap(err, "inserting plan")
	}
	return p, nil
}

func (s *Store) GetPlan(ctx context.Context, id string) (plan.Plan, error) {
	if !validID(id) {
		return plan.Plan{}, plan.ErrNotFound
	}
	var row planRow
	if err := s.get(ctx, &row, selectList(planColumns, "plans")+" WHERE id = ?", id); err != nil {
		return plan.Plan{}, trapNoRows(err, plan.ErrNotFound, "selecting plan")
	}
	return plan.Plan(row), nil
}

func (s *Store) ListPlans(ctx context.Context, filter plan.Filter) ([]plan.Plan, error) {
	var w where
	w.contains(filter.Name, "name")
	if filter.IsActive != nil {
		w.eq("is_active", *filter.IsActive)
	}
	var rows []planRow
	if err := s.selectAll(ctx, &rows, selectList(planColumns, "plans")+w.String()+" ORDER BY name", w.args...); err != nil {
		return nil, errors.Wrap(err, "selecting plans")
	}
	plans := make([]plan.Plan, 0, len(rows))
	for _, r := range rows {
		plans = append(plans, plan.Plan(r))
	}
	return plans, nil
}

func (s *Store) UpdatePlan(ctx context.Context, p plan.Plan) (plan.Plan, error) {
	if !validID(p.ID) {
		return plan.Plan{}, plan.ErrNotFound
	}
	if err := s.update(ctx, "plans", planColumns, planRow(p), plan.ErrNotFound); err != nil {
		return plan.Plan{}, err
	}
	return p, nil
}

func (s *Store) DeletePlan(ctx context.Context, id string) error {
	return s.WithTx(ctx, func(ctx context.Context) error {
		p, err := s.GetPlan(ctx, id)
		if err != nil {
			return err
		}
		var n int
		if err := s.get(ctx, &n, "SELECT COUNT(*) FROM enrollments WHERE plan_id = ?", id); err != nil {
			return errors.Wrap(err, "counting plan enrollments")
		}
		if n > 0 {
			return core.NewIntegrityError("plan still has enrollments", p.Name)
		}
		return s.deleteByID(ctx, "plans", id, plan.ErrNotFound)
	})
}

func (s *Store) CountEnrollmentsByPlan(ctx context.Context) (map[string]int, error) {
	counts, err := s.countBy(ctx, "SELECT plan_id::text AS key, COUNT(*) AS count FROM enrollments GROUP BY plan_id")
	return counts, errors.Wrap(err, "counting enrollments by plan")
}
