package payment

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/samber/lo"

	"github.com/lunedance/lune/core"
	"github.com/lunedance/lune/core/calendar"
)

var ErrNotFound = core.NewNotFoundError("payment")

type (
	Repository interface {
		CreatePayments(ctx context.Context, payments []Payment) ([]Payment, error)
		GetPayment(ctx context.Context, id string) (Payment, error)
		ListPayments(ctx context.Context, filter Filter) ([]Payment, error)
		ListPaymentDetails(ctx context.Context, filter Filter) ([]Detail, error)
		UpdatePayment(ctx context.Context, p Payment) (Payment, error)
		DeletePayment(ctx context.Context, id string) error
	}

	Service struct {
		repo Repository
		now  calendar.Clock
	}

	// View is a Detail shown with its effective status.
	View struct {
		Detail
		DisplayStatus Status `json:"display_status"`
	}
)

func NewService(repo Repository, now calendar.Clock) *Service {
	return &Service{repo: repo, now: now}
}

// List returns the payments due in the filtered month (current month by default),
// most urgent first.
func (svc *Service) List(ctx context.Context, qf QueryFilter) ([]View, error) {
	now := svc.now()
	year, month := now.Year(), now.Month()
	if qf.Year != 0 {
		year = qf.Year
	}
	if qf.Month != 0 {
		month = time.Month(qf.Month)
	}
	from, to := calendar.MonthRange(year, month)

	details, err := svc.repo.ListPaymentDetails(ctx, Filter{DueFrom: from, DueTo: to})
	if err != nil {
		return nil, errors.Wrap(err, "listing payments")
	}

	search := strings.ToLower(core.CleanString(qf.Search))
	views := make([]View, 0, len(details))
	for _, d := range details {
		v := View{Detail: d, DisplayStatus: EffectiveStatus(d.Payment, now)}
		if qf.Status != "" && v.DisplayStatus != qf.Status {
			continue
		}
		if search != "" && !strings.Contains(strings.ToLower(d.StudentName), search) {
			continue
		}
		views = append(views, v)
	}
	SortViews(views)
	return views, nil
}

// SortViews orders views by display status priority, then latest paid first, then earliest due first.
func SortViews(views []View) {
	sort.SliceStable(views, func(i, j int) bool {
		a, b := views[i], views[j]
		if pa, pb := Priority(a.DisplayStatus), Priority(b.DisplayStatus); pa != pb {
			return pa < pb
		}
		if a.PaidAt != nil && b.PaidAt != nil && !a.PaidAt.Equal(*b.PaidAt) {
			return a.PaidAt.After(*b.PaidAt)
		}
		return a.DueDate.Before(b.DueDate)
	})
}

// Toggle flips a payment between PAID and PENDING. Canceled payments cannot be toggled.
func (svc *Service) Toggle(ctx context.Context, id string) (Payment, error) {
	p, err := svc.repo.GetPayment(ctx, id)
	if err != nil {
		return Payment{}, err
	}
	now := svc.now()
	switch p.Status {
	case StatusPaid:
		p.Status = StatusPending
		p.PaidAt = nil
	case StatusPending:
		p.Status = StatusPaid
		p.PaidAt = &now
	default:
		return Payment{}, core.NewConflictError("a %s payment cannot be toggled", strings.ToLower(string(p.Status)))
	}
	p.UpdatedAt = now
	return svc.repo.UpdatePayment(ctx, p)
}

func (svc *Service) Update(ctx context.Context, id string, up UpdatePayment) (Payment, error) {
	p, err := svc.repo.GetPayment(ctx, id)
	if err != nil {
		return Payment{}, err
	}
	now := svc.now()
	if up.Amount != nil {
		p.Amount = *up.Amount
	}
	if up.DueDate != nil {
		p.DueDate = calendar.StartOfDay(*up.DueDate)
	}
	if up.Status != nil && *up.Status != p.Status {
		p.Status = *up.Status
		p.PaidAt = lo.Ternary(p.Status == StatusPaid, &now, nil)
	}
	p.UpdatedAt = now
	return svc.repo.UpdatePayment(ctx, p)
}

func (svc *Service) Delete(ctx context.Context, id string) error {
	if _, err := svc.repo.GetPayment(ctx, id); err != nil {
		return err
	}
	return svc.repo.DeletePayment(ctx, id)
}
