package plan

import (
	"context"
	"fmt"
	"strings"

	"github.com/pkg/errors"
	"github.com/samber/lo"

	"github.com/lunedance/lune/core"
	"github.com/lunedance/lune/core/calendar"
)

var ErrNotFound = core.NewNotFoundError("plan")

type (
	Repository interface {
		CreatePlan(ctx context.Context, p Plan) (Plan, error)
		GetPlan(ctx context.Context, id string) (Plan, error)
		ListPlans(ctx context.Context, filter Filter) ([]Plan, error)
		UpdatePlan(ctx context.Context, p Plan) (Plan, error)
		DeletePlan(ctx context.Context, id string) error
		// CountEnrollmentsByPlan returns {planID: number of enrollments}, whatever their status.
		CountEnrollmentsByPlan(ctx context.Context) (map[string]int, error)
	}

	Service struct {
		repo Repository
		now  calendar.Clock
	}
)

func NewService(repo Repository, now calendar.Clock) *Service {
	return &Service{repo: repo, now: now}
}

func (svc *Service) Create(ctx context.Context, np NewPlan) (Plan, error) {
	now := svc.now()
	p := Plan{
		ID:             core.NewID(),
		Name:           np.Name,
		WeeklyClasses:  np.WeeklyClasses,
		Description:    np.Description,
		Price:          np.Price,
		DurationInDays: np.DurationInDays,
		IsActive:       np.IsActive == nil || *np.IsActive,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if _, err := p.Cycle(); err != nil {
		return Plan{}, core.NewValidationError(err, core.FieldError{Field: "duration_in_days", Error: err.Error()})
	}
	return svc.repo.CreatePlan(ctx, p)
}

func (svc *Service) List(ctx context.Context, filter Filter) ([]WithEnrollments, error) {
	filter.Name = core.CleanString(filter.Name)
	plans, err := svc.repo.ListPlans(ctx, filter)
	if err != nil {
		return nil, errors.Wrap(err, "listing plans")
	}
	counts, err := svc.repo.CountEnrollmentsByPlan(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "counting enrollments")
	}
	return lo.Map(plans, func(p Plan, _ int) WithEnrollments {
		return WithEnrollments{Plan: p, EnrollmentsQuantity: counts[p.ID]}
	}), nil
}

func (svc *Service) Get(ctx context.Context, id string) (Plan, error) {
	return svc.repo.GetPlan(ctx, id)
}

func (svc *Service) Update(ctx context.Context, id string, up UpdatePlan) (Plan, error) {
	p, err := svc.repo.GetPlan(ctx, id)
	if err != nil {
		return Plan{}, err
	}
	if up.Name != nil {
		p.Name = *up.Name
	}
	if up.WeeklyClasses != nil {
		p.WeeklyClasses = *up.WeeklyClasses
	}
	if up.Description != nil {
		p.Description = strings.TrimSpace(*up.Description)
	}
	if up.Price != nil {
		p.Price = *up.Price
	}
	if up.DurationInDays != nil {
		p.DurationInDays = *up.DurationInDays
	}
	if up.IsActive != nil {
		p.IsActive = *up.IsActive
	}
	p.UpdatedAt = svc.now()
	return svc.repo.UpdatePlan(ctx, p)
}

// Delete removes a plan no enrollment refers to.
func (svc *Service) Delete(ctx context.Context, id string) error {
	if _, err := svc.repo.GetPlan(ctx, id); err != nil {
		return err
	}
	counts, err := svc.repo.CountEnrollmentsByPlan(ctx)
	if err != nil {
		return errors.Wrap(err, "counting enrollments")
	}
	if n := counts[id]; n > 0 {
		return core.NewIntegrityError("plan has enrollments", fmt.Sprintf("%d enrollment(s)", n))
	}
	return svc.repo.DeletePlan(ctx, id)
}
