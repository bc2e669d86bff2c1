package payment

import (
	"time"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"

	"github.com/lunedance/lune/core"
	"github.com/lunedance/lune/core/calendar"
	"github.com/lunedance/lune/core/plan"
)

var ErrInvalidPaymentDay = errors.New("payment day must be between 1 and 31")

type (
	// ScheduleInput is the part of an enrollment a payment schedule derives from.
	ScheduleInput struct {
		EnrollmentID string
		StartDate    time.Time
		PaymentDay   int
	}

	// Terms is the part of a plan a payment schedule derives from.
	Terms struct {
		DurationInDays int
		Price          decimal.Decimal
	}
)

// Generate builds the payment schedule of an enrollment: one PENDING installment of the plan
// price per month of the plan's cycle, due on PaymentDay (clamped to short months).
//
// The first installment is due in the start month, unless that day already passed at
// StartDate or the start month is the current one; it then moves to the following month.
// A non-zero tax is charged upfront as a PAID entry dated today, listed first.
func Generate(in ScheduleInput, terms Terms, tax decimal.Decimal, now time.Time) ([]Payment, error) {
	cycle, err := plan.ParseCycle(terms.DurationInDays)
	if err != nil {
		return nil, err
	}
	if in.PaymentDay < 1 || in.PaymentDay > 31 {
		return nil, ErrInvalidPaymentDay
	}

	start := calendar.StartOfDay(in.StartDate)
	first := calendar.ClampedDate(start.Year(), start.Month(), 0, in.PaymentDay)
	offset := 0
	if first.Before(start) || calendar.SameMonth(first, now) {
		offset = 1
	}

	months := cycle.Months()
	payments := make([]Payment, 0, months+1)
	if tax.IsPositive() {
		paidAt := now
		payments = append(payments, Payment{
			ID:           core.NewID(),
			EnrollmentID: in.EnrollmentID,
			Amount:       tax,
			DueDate:      calendar.StartOfDay(now),
			Status:       StatusPaid,
			PaidAt:       &paidAt,
			CreatedAt:    now,
			UpdatedAt:    now,
		})
	}
	for i := 0; i < months; i++ {
		payments = append(payments, Payment{
			ID:           core.NewID(),
			EnrollmentID: in.EnrollmentID,
			Amount:       terms.Price,
			DueDate:      calendar.ClampedDate(start.Year(), start.Month(), offset+i, in.PaymentDay),
			Status:       StatusPending,
			CreatedAt:    now,
			UpdatedAt:    now,
		})
	}
	return payments, nil
}
