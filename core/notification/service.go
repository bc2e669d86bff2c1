// Package notification counts what waits for staff action.
package notification

import (
	"context"

	"github.com/pkg/errors"
	"github.com/sourcegraph/conc/pool"
)

// Counter counts pending items of one kind.
type Counter interface {
	PendingCount(ctx context.Context) (int, error)
}

type Pending struct {
	TrialStudents int `json:"trial_students"`
	WorkedHours   int `json:"worked_hours"`
	Expenses      int `json:"expenses"`
	Total         int `json:"total"`
}

type Service struct {
	trials   Counter
	hours    Counter
	expenses Counter
}

func NewService(trials, hours, expenses Counter) *Service {
	return &Service{trials: trials, hours: hours, expenses: expenses}
}

// Pending counts trial classes waiting for a status, pending worked hours and unpaid expenses.
func (svc *Service) Pending(ctx context.Context) (Pending, error) {
	var res Pending
	p := pool.New().WithErrors().WithContext(ctx)
	count := func(c Counter, dst *int, what string) {
		p.Go(func(ctx context.Context) (err error) {
			*dst, err = c.PendingCount(ctx)
			return errors.Wrapf(err, "counting pending %s", what)
		})
	}
	count(svc.trials, &res.TrialStudents, "trial students")
	count(svc.hours, &res.WorkedHours, "worked hours")
	count(svc.expenses, &res.Expenses, "expenses")
	if err := p.Wait(); err != nil {
		return Pending{}, err
	}
	res.Total = res.TrialStudents + res.WorkedHours + res.Expenses
	return res, nil
}
