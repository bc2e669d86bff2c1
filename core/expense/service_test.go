package expense_test

import (
	"context"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lunedance/lune/core/calendar"
	"github.com/lunedance/lune/core/expense"
	testutil "github.com/lunedance/lune/tests"
)

func create(t *testing.T, app *testutil.App, name string, dueDay int, status expense.Status) expense.Expense {
	t.Helper()
	ne := expense.NewExpense{Name: name, Amount: decimal.NewFromInt(100), DueDay: dueDay, Status: status}
	require.NoError(t, ne.Validate(app.Validate))
	e, err := app.Expenses.Create(context.Background(), ne)
	require.NoError(t, err)
	return e
}

func TestNewExpense_Validate(t *testing.T) {
	validate, _ := testutil.NewValidator()

	tests := []struct {
		name      string
		ne        expense.NewExpense
		wantField string
	}{
		{name: "valid", ne: expense.NewExpense{Name: "Aluguel", Amount: decimal.NewFromInt(2500), DueDay: 5}},
		{name: "no name", ne: expense.NewExpense{Name: "  ", Amount: decimal.NewFromInt(1), DueDay: 5}, wantField: "name"},
		{name: "zero amount", ne: expense.NewExpense{Name: "Luz", DueDay: 5}, wantField: "amount"},
		{name: "due day too late", ne: expense.NewExpense{Name: "Luz", Amount: decimal.NewFromInt(1), DueDay: 32}, wantField: "due_day"},
		{name: "unknown status", ne: expense.NewExpense{Name: "Luz", Amount: decimal.NewFromInt(1), DueDay: 1, Status: "LATE"}, wantField: "status"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.ne.Validate(validate)
			if tt.wantField == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantField)
		})
	}
}

func TestService_CRUD(t *testing.T) {
	app := testutil.NewApp(calendar.Date(2024, time.March, 10))
	ctx := context.Background()

	e := create(t, app, "Aluguel", 5, "")
	assert.Equal(t, expense.StatusPending, e.Status, "new expenses are pending")

	paid, err := app.Expenses.Pay(ctx, e.ID)
	require.NoError(t, err)
	assert.Equal(t, expense.StatusPaid, paid.Status)

	unpaid, err := app.Expenses.Unpay(ctx, e.ID)
	require.NoError(t, err)
	assert.Equal(t, expense.StatusPending, unpaid.Status)

	amount, name := decimal.RequireFromString("2750.50"), " Aluguel sala 2 "
	got, err := app.Expenses.Update(ctx, e.ID, expense.UpdateExpense{Name: &name, Amount: &amount})
	require.NoError(t, err)
	assert.Equal(t, "Aluguel sala 2", got.Name)
	assert.Equal(t, "2750.5", got.Amount.String())
	assert.Equal(t, 5, got.DueDay)

	require.NoError(t, app.Expenses.Remove(ctx, e.ID))
	_, err = app.Expenses.Get(ctx, e.ID)
	assert.Equal(t, expense.ErrNotFound, errors.Cause(err))
	_, err = app.Expenses.Pay(ctx, e.ID)
	assert.Equal(t, expense.ErrNotFound, errors.Cause(err))
}

func TestService_MonthlyCycle(t *testing.T) {
	app := testutil.NewApp(calendar.Date(2024, time.March, 10).Add(9 * time.Hour))
	ctx := context.Background()

	create(t, app, "Aluguel", 5, "")
	create(t, app, "Internet", 10, "")
	create(t, app, "Luz", 20, "")
	create(t, app, "Contador", 1, expense.StatusPaid)

	pending, err := app.Expenses.PendingCount(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, pending)

	t.Run("past due day turns overdue", func(t *testing.T) {
		n, err := app.Expenses.MarkOverdue(ctx)
		require.NoError(t, err)
		assert.Equal(t, 1, n, "only Aluguel is past its due day")

		pending, err := app.Expenses.PendingCount(ctx)
		require.NoError(t, err)
		assert.Equal(t, 3, pending, "overdue expenses are still pending payment")
	})

	t.Run("reset only on the first day", func(t *testing.T) {
		n, err := app.Expenses.ResetMonthly(ctx)
		require.NoError(t, err)
		assert.Zero(t, n)

		app.Clock.Set(calendar.Date(2024, time.April, 1).Add(time.Minute))
		n, err = app.Expenses.ResetMonthly(ctx)
		require.NoError(t, err)
		assert.Equal(t, 1, n)

		expenses, err := app.Expenses.List(ctx)
		require.NoError(t, err)
		statuses := make(map[string]expense.Status)
		for _, e := range expenses {
			statuses[e.Name] = e.Status
		}
		assert.Equal(t, map[string]expense.Status{
			"Aluguel":  expense.StatusOverdue,
			"Internet": expense.StatusPending,
			"Luz":      expense.StatusPending,
			"Contador": expense.StatusPending,
		}, statuses)
	})
}
