package payment

import (
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lunedance/lune/core/calendar"
	"github.com/lunedance/lune/core/plan"
)

func day(y int, m time.Month, d int) time.Time { return calendar.Date(y, m, d) }

func TestGenerate(t *testing.T) {
	price := decimal.NewFromInt(150)
	tests := []struct {
		name     string
		in       ScheduleInput
		duration int
		tax      decimal.Decimal
		now      time.Time
		wantDue  []time.Time
	}{
		{
			name:     "monthly, day already passed",
			in:       ScheduleInput{StartDate: day(2024, time.January, 15), PaymentDay: 10},
			duration: 30,
			now:      day(2024, time.January, 15),
			wantDue:  []time.Time{day(2024, time.February, 10)},
		},
		{
			name:     "quarterly, clamped to month ends",
			in:       ScheduleInput{StartDate: day(2024, time.January, 31), PaymentDay: 31},
			duration: 90,
			now:      day(2024, time.January, 31),
			wantDue:  []time.Time{day(2024, time.February, 29), day(2024, time.March, 31), day(2024, time.April, 30)},
		},
		{
			name:     "future start month keeps the first due date",
			in:       ScheduleInput{StartDate: day(2024, time.March, 1), PaymentDay: 5},
			duration: 30,
			now:      day(2024, time.February, 20),
			wantDue:  []time.Time{day(2024, time.March, 5)},
		},
		{
			name:     "current month is skipped even when the day is ahead",
			in:       ScheduleInput{StartDate: day(2024, time.March, 1), PaymentDay: 20},
			duration: 30,
			now:      day(2024, time.March, 1),
			wantDue:  []time.Time{day(2024, time.April, 20)},
		},
		{
			name:     "semiannual across the year",
			in:       ScheduleInput{StartDate: day(2024, time.October, 1), PaymentDay: 15},
			duration: 180,
			now:      day(2024, time.September, 25),
			wantDue: []time.Time{
				day(2024, time.October, 15), day(2024, time.November, 15), day(2024, time.December, 15),
				day(2025, time.January, 15), day(2025, time.February, 15), day(2025, time.March, 15),
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Generate(tt.in, Terms{DurationInDays: tt.duration, Price: price}, decimal.Zero, tt.now)
			require.NoError(t, err)
			require.Len(t, got, len(tt.wantDue))
			for i, p := range got {
				assert.True(t, tt.wantDue[i].Equal(p.DueDate), "due[%d] = %v, want %v", i, p.DueDate, tt.wantDue[i])
				assert.Equal(t, StatusPending, p.Status)
				assert.True(t, price.Equal(p.Amount))
				assert.NotEmpty(t, p.ID)
			}
		})
	}
}

func TestGenerateWithTax(t *testing.T) {
	now := time.Date(2024, time.March, 10, 14, 30, 0, 0, calendar.Location)
	in := ScheduleInput{EnrollmentID: "enr", StartDate: now, PaymentDay: 10}
	got, err := Generate(in, Terms{DurationInDays: 90, Price: decimal.NewFromInt(200)}, decimal.NewFromInt(100), now)
	require.NoError(t, err)
	require.Len(t, got, 4)

	tax := got[0]
	assert.Equal(t, StatusPaid, tax.Status)
	assert.True(t, decimal.NewFromInt(100).Equal(tax.Amount))
	assert.True(t, day(2024, time.March, 10).Equal(tax.DueDate))
	require.NotNil(t, tax.PaidAt)

	for _, p := range got[1:] {
		assert.Equal(t, StatusPending, p.Status)
		assert.Equal(t, "enr", p.EnrollmentID)
	}
	assert.True(t, day(2024, time.April, 10).Equal(got[1].DueDate))
}

func TestGenerateRejects(t *testing.T) {
	now := day(2024, time.March, 10)
	in := ScheduleInput{StartDate: now, PaymentDay: 10}

	_, err := Generate(in, Terms{DurationInDays: 45}, decimal.Zero, now)
	assert.Equal(t, plan.ErrUnknownDuration, errors.Cause(err))

	_, err = Generate(in, Terms{DurationInDays: 0}, decimal.Zero, now)
	assert.Equal(t, plan.ErrUnknownDuration, errors.Cause(err))

	in.PaymentDay = 0
	_, err = Generate(in, Terms{DurationInDays: 30}, decimal.Zero, now)
	assert.Equal(t, ErrInvalidPaymentDay, err)
}
