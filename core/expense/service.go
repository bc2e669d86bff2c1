package expense

import (
	"context"

	"github.com/pkg/errors"
	"github.com/samber/lo"

	"github.com/lunedance/lune/core"
	"github.com/lunedance/lune/core/calendar"
)

var ErrNotFound = core.NewNotFoundError("expense")

type (
	Repository interface {
		core.Transactor

		CreateExpense(ctx context.Context, e Expense) (Expense, error)
		GetExpense(ctx context.Context, id string) (Expense, error)
		// ListExpenses returns the expenses matching filter by due day.
		ListExpenses(ctx context.Context, filter Filter) ([]Expense, error)
		CountExpenses(ctx context.Context, filter Filter) (int, error)
		UpdateExpense(ctx context.Context, e Expense) (Expense, error)
		DeleteExpense(ctx context.Context, id string) error
	}

	Service struct {
		repo Repository
		now  calendar.Clock
	}
)

func NewService(repo Repository, now calendar.Clock) *Service {
	return &Service{repo: repo, now: now}
}

func (svc *Service) Create(ctx context.Context, ne NewExpense) (Expense, error) {
	now := svc.now()
	return svc.repo.CreateExpense(ctx, Expense{
		ID:          core.NewID(),
		Name:        ne.Name,
		Description: ne.Description,
		Category:    ne.Category,
		Amount:      ne.Amount,
		DueDay:      ne.DueDay,
		Status:      lo.Ternary(ne.Status == "", StatusPending, ne.Status),
		CreatedAt:   now,
		UpdatedAt:   now,
	})
}

func (svc *Service) List(ctx context.Context) ([]Expense, error) {
	return svc.repo.ListExpenses(ctx, Filter{})
}

func (svc *Service) Get(ctx context.Context, id string) (Expense, error) {
	return svc.repo.GetExpense(ctx, id)
}

func (svc *Service) Update(ctx context.Context, id string, ue UpdateExpense) (Expense, error) {
	e, err := svc.repo.GetExpense(ctx, id)
	if err != nil {
		return Expense{}, err
	}
	if ue.Name != nil {
		e.Name = core.CleanString(*ue.Name)
	}
	if ue.Description != nil {
		e.Description = *ue.Description
	}
	if ue.Category != nil {
		e.Category = core.CleanString(*ue.Category)
	}
	if ue.Amount != nil {
		e.Amount = *ue.Amount
	}
	if ue.DueDay != nil {
		e.DueDay = *ue.DueDay
	}
	if ue.Status != nil {
		e.Status = *ue.Status
	}
	e.UpdatedAt = svc.now()
	return svc.repo.UpdateExpense(ctx, e)
}

func (svc *Service) setStatus(ctx context.Context, id string, status Status) (Expense, error) {
	e, err := svc.repo.GetExpense(ctx, id)
	if err != nil {
		return Expense{}, err
	}
	e.Status = status
	e.UpdatedAt = svc.now()
	return svc.repo.UpdateExpense(ctx, e)
}

func (svc *Service) Pay(ctx context.Context, id string) (Expense, error) {
	return svc.setStatus(ctx, id, StatusPaid)
}

func (svc *Service) Unpay(ctx context.Context, id string) (Expense, error) {
	return svc.setStatus(ctx, id, StatusPending)
}

func (svc *Service) Remove(ctx context.Context, id string) error {
	if _, err := svc.repo.GetExpense(ctx, id); err != nil {
		return err
	}
	return svc.repo.DeleteExpense(ctx, id)
}

// PendingCount counts the expenses still to pay, overdue or not.
func (svc *Service) PendingCount(ctx context.Context) (int, error) {
	return svc.repo.CountExpenses(ctx, Filter{Statuses: []Status{StatusPending, StatusOverdue}})
}

// MarkOverdue moves PENDING expenses to OVERDUE once today's day of month is past their due day.
func (svc *Service) MarkOverdue(ctx context.Context) (int, error) {
	now := svc.now()
	day := calendar.Local(now).Day()
	var updated int
	err := svc.repo.WithTx(ctx, func(ctx context.Context) error {
		pending, err := svc.repo.ListExpenses(ctx, Filter{Statuses: []Status{StatusPending}})
		if err != nil {
			return errors.Wrap(err, "listing pending expenses")
		}
		for _, e := range pending {
			if day <= e.DueDay {
				continue
			}
			e.Status, e.UpdatedAt = StatusOverdue, now
			if _, err = svc.repo.UpdateExpense(ctx, e); err != nil {
				return errors.Wrapf(err, "updating expense %s", e.ID)
			}
			updated++
		}
		return nil
	})
	return updated, err
}

// ResetMonthly moves PAID expenses back to PENDING. It only acts on the first day of a month.
func (svc *Service) ResetMonthly(ctx context.Context) (int, error) {
	now := svc.now()
	if calendar.Local(now).Day() != 1 {
		return 0, nil
	}
	var updated int
	err := svc.repo.WithTx(ctx, func(ctx context.Context) error {
		paid, err := svc.repo.ListExpenses(ctx, Filter{Statuses: []Status{StatusPaid}})
		if err != nil {
			return errors.Wrap(err, "listing paid expenses")
		}
		for _, e := range paid {
			e.Status, e.UpdatedAt = StatusPending, now
			if _, err = svc.repo.UpdateExpense(ctx, e); err != nil {
				return errors.Wrapf(err, "updating expense %s", e.ID)
			}
		}
		updated = len(paid)
		return nil
	})
	return updated, err
}
