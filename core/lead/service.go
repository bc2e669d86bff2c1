package lead

import (
	"context"
	"sort"
	"strconv"

	"github.com/pkg/errors"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"

	"github.com/lunedance/lune/core"
	"github.com/lunedance/lune/core/calendar"
)

var ErrNotFound = core.NewNotFoundError("lead")

type (
	Repository interface {
		CreateLead(ctx context.Context, l Lead) (Lead, error)
		GetLead(ctx context.Context, id string) (Lead, error)
		ListLeads(ctx context.Context, filter Filter, orderings ...core.DBOrdering) ([]Lead, error)
		UpdateLead(ctx context.Context, l Lead) (Lead, error)
		DeleteLead(ctx context.Context, id string) error
	}

	Service struct {
		repo Repository
		now  calendar.Clock
	}
)

func NewService(repo Repository, now calendar.Clock) *Service {
	return &Service{repo: repo, now: now}
}

// Create stores a validated NewLead.
func (svc *Service) Create(ctx context.Context, nl NewLead) (Lead, error) {
	now := svc.now()
	return svc.repo.CreateLead(ctx, Lead{
		ID:                 core.NewID(),
		FirstName:          nl.FirstName,
		LastName:           nl.LastName,
		Phone:              nl.Phone,
		Email:              nl.Email,
		FindUsBy:           nl.FindUsBy,
		Obs:                nl.Obs,
		ModalityOfInterest: nl.ModalityOfInterest,
		PreferencePeriod:   nl.PreferencePeriod,
		Age:                nl.Age,
		City:               nl.City,
		Score:              nl.Score,
		Status:             nl.Status,
		CreatedAt:          now,
		UpdatedAt:          now,
	})
}

// List returns the leads matching q along with the dashboard of all leads.
func (svc *Service) List(ctx context.Context, q Query) (Listing, error) {
	leads, err := svc.repo.ListLeads(ctx, q.Filter(), q.Ordering())
	if err != nil {
		return Listing{}, err
	}
	dash, err := svc.Dashboard(ctx)
	if err != nil {
		return Listing{}, err
	}
	return Listing{Value: leads, Dashboard: dash}, nil
}

func (svc *Service) Get(ctx context.Context, id string) (Lead, error) {
	return svc.repo.GetLead(ctx, id)
}

func (svc *Service) Update(ctx context.Context, id string, ul UpdateLead) (Lead, error) {
	l, err := svc.repo.GetLead(ctx, id)
	if err != nil {
		return Lead{}, err
	}
	ul.Apply(&l)
	l.UpdatedAt = svc.now()
	return svc.repo.UpdateLead(ctx, l)
}

func (svc *Service) Remove(ctx context.Context, id string) error {
	if _, err := svc.repo.GetLead(ctx, id); err != nil {
		return err
	}
	return svc.repo.DeleteLead(ctx, id)
}

func (svc *Service) Dashboard(ctx context.Context) (Dashboard, error) {
	leads, err := svc.repo.ListLeads(ctx, Filter{})
	if err != nil {
		return Dashboard{}, errors.Wrap(err, "listing leads")
	}

	since := svc.now().AddDate(0, 0, -7)
	dash := Dashboard{
		TotalLeads: len(leads),
		LeadsByStatus: counts(leads, func(l Lead) string {
			return strconv.Itoa(int(l.Status))
		}),
		LeadsByModality:   counts(leads, func(l Lead) string { return l.ModalityOfInterest }),
		LeadsByFindUsBy:   counts(leads, func(l Lead) string { return l.FindUsBy }),
		AverageScore:      decimal.Zero,
		NewLeadsLast7Days: lo.CountBy(leads, func(l Lead) bool { return !l.CreatedAt.Before(since) }),
	}
	if len(leads) > 0 {
		total := lo.SumBy(leads, func(l Lead) int { return int(l.Score) })
		dash.AverageScore = decimal.NewFromInt(int64(total)).Div(decimal.NewFromInt(int64(len(leads)))).Round(2)
	}
	return dash, nil
}

func counts(leads []Lead, key func(Lead) string) []Count {
	byKey := lo.CountValuesBy(leads, key)
	result := lo.MapToSlice(byKey, func(k string, n int) Count { return Count{Key: k, Count: n} })
	sort.Slice(result, func(i, j int) bool {
		if result[i].Count != result[j].Count {
			return result[i].Count > result[j].Count
		}
		return result[i].Key < result[j].Key
	})
	return result
}
