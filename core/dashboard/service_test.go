package dashboard_test

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lunedance/lune/core/calendar"
	"github.com/lunedance/lune/core/dashboard"
	"github.com/lunedance/lune/core/expense"
	"github.com/lunedance/lune/core/lead"
	"github.com/lunedance/lune/core/payment"
	"github.com/lunedance/lune/core/trial"
	testutil "github.com/lunedance/lune/tests"
)

var march5 = calendar.Date(2024, time.March, 5).Add(10 * time.Hour)

// setup builds a March with two enrollments on the same class, one expense,
// one trial class that took place and one still to come.
func setup(t *testing.T) *testutil.App {
	app := testutil.NewApp(march5)
	ctx := context.Background()

	c, items := testutil.CreateClass(t, app, "Ballet", nil, testutil.Slot(calendar.Monday, "18:00", "19:00"))
	testutil.CreateClass(t, app, "Jazz", nil, testutil.Slot(calendar.Tuesday, "18:00", "19:00"))
	p := testutil.CreatePlan(t, app, "Mensal", 30, 150)
	testutil.Enroll(t, app, "Maria", c.ID, p.ID, march5, 10)
	testutil.Enroll(t, app, "Joana", c.ID, p.ID, march5, 10)

	_, err := app.Expenses.Create(ctx, expense.NewExpense{Name: "Aluguel", Amount: decimal.NewFromInt(500), DueDay: 5})
	require.NoError(t, err)

	book := func(name string, date time.Time) trial.Detail {
		d, err := app.Trials.Create(ctx, trial.NewTrial{
			Lead:       lead.NewLead{FirstName: name, Phone: "11912345678"},
			GridItemID: items[0].ID,
			Date:       date,
		})
		require.NoError(t, err)
		return d
	}
	done := book("Ana", calendar.Date(2024, time.March, 11))
	status := trial.StatusCompleted
	_, err = app.Trials.Update(ctx, done.ID, trial.UpdateTrial{Status: &status})
	require.NoError(t, err)
	book("Bia", calendar.Date(2024, time.March, 25))

	app.Clock.Set(calendar.Date(2024, time.March, 20).Add(10 * time.Hour))
	return app
}

func TestService_Financial(t *testing.T) {
	app := setup(t)
	ctx := context.Background()

	fin, err := app.Dashboard.Financial(ctx, dashboard.Query{})
	require.NoError(t, err)
	assert.Equal(t, "março de 2024", fin.Month)

	cards := fin.Cards
	// two enrollment taxes paid plus one trial class
	assert.Equal(t, "240", cards.TotalRevenue.Value.String())
	assert.Equal(t, "200", cards.TotalRevenue.FromEnrollments.String())
	assert.Equal(t, "40", cards.TotalRevenue.FromTrialClasses.String())

	assert.Equal(t, "-260", cards.Profit.Value.String())
	assert.Equal(t, "500", cards.Profit.ExpensesCosts.String())
	assert.True(t, cards.Profit.TeacherCosts.IsZero())

	assert.Equal(t, "40", cards.TotalToReceive.Value.String())
	assert.True(t, cards.TotalToReceive.FromEnrollments.IsZero())

	assert.Equal(t, 2, cards.EnrollmentsToClasses.Enrollments)
	assert.Equal(t, 1, cards.EnrollmentsToClasses.Classes)
	assert.Equal(t, "2", cards.EnrollmentsToClasses.Value.String())

	assert.Equal(t, 2, cards.TrialClasses.Value)
	assert.Equal(t, 1, cards.TrialClasses.Scheduled)
	assert.Equal(t, 1, cards.TrialClasses.Completed)

	require.Len(t, fin.Payments, 2)
	for _, v := range fin.Payments {
		assert.Equal(t, payment.StatusPaid, v.DisplayStatus)
	}

	require.Len(t, fin.Chart, 4)
	assert.Equal(t, "2023-12", fin.Chart[0].Date)
	assert.Equal(t, "2024-03", fin.Chart[3].Date)
	assert.Equal(t, "240", fin.Chart[3].Revenue.String())
	assert.True(t, fin.Chart[2].Revenue.IsZero())

	stats := make(map[string]dashboard.ModalityStats)
	for _, ms := range fin.Modalities {
		stats[ms.Name] = ms
	}
	require.Len(t, stats, 2)
	ballet := stats["Ballet"]
	assert.Equal(t, 1, ballet.Classes)
	assert.Equal(t, 2, ballet.Enrollments)
	assert.Equal(t, 2, ballet.TrialClasses)
	assert.Equal(t, 4, ballet.TotalStudents)
	assert.Equal(t, "4", ballet.AvgStudentsPerClass.String())
	assert.Zero(t, stats["Jazz"].TotalStudents)
	assert.True(t, stats["Jazz"].AvgStudentsPerClass.IsZero())
}

func TestService_FinancialOtherMonth(t *testing.T) {
	app := setup(t)
	ctx := context.Background()

	q := dashboard.Query{Month: 4, Year: 2024}
	require.NoError(t, q.Validate(app.Validate))
	fin, err := app.Dashboard.Financial(ctx, q)
	require.NoError(t, err)
	assert.Equal(t, "abril de 2024", fin.Month)

	cards := fin.Cards
	assert.True(t, cards.TotalRevenue.Value.IsZero())
	assert.Equal(t, "300", cards.TotalToReceive.FromEnrollments.String(), "both monthly payments are due in April")
	assert.Equal(t, "-500", cards.Profit.Value.String())
	assert.Zero(t, cards.TrialClasses.Value)
	require.Len(t, fin.Payments, 2)
	for _, v := range fin.Payments {
		assert.Equal(t, payment.StatusPending, v.DisplayStatus)
	}

	bad := dashboard.Query{Month: 13}
	assert.Error(t, bad.Validate(app.Validate))
}
