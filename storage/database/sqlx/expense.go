package sqlxdb

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"

	"github.com/lunedance/lune/core"
	"github.com/lunedance/lune/core/expense"
)

var expenseColumns = []string{"id", "name", "description", "category", "amount", "due_day", "status", "created_at", "updated_at"}

type expenseRow struct {
	ID          string          `db:"id"`
	Name        string          `db:"name"`
	Description string          `db:"description"`
	Category    string          `db:"category"`
	Amount      decimal.Decimal `db:"amount"`
	DueDay      int             `db:"due_day"`
	Status      expense.Status  `db:"status"`
	CreatedAt   time.Time       `db:"created_at"`
	UpdatedAt   time.Time       `db:"updated_at"`
}

func expenseWhere(filter expense.Filter) *where {
	w := &where{}
	w.strs("status", toStrings(filter.Statuses))
	if !filter.CreatedBefore.IsZero() {
		w.add("created_at <= ?", filter.CreatedBefore.UTC())
	}
	return w
}

func (s *Store) CreateExpense(ctx context.Context, e expense.Expense) (expense.Expense, error) {
	if e.ID == "" {
		e.ID = core.NewID()
	}
	if err := s.insert(ctx, "expenses", expenseColumns, expenseRow(e)); err != nil {
		return expense.Expense{}, errors.Wrap(err, "inserting expense")
	}
	return e, nil
}

func (s *Store) GetExpense(ctx context.Context, id string) (expense.Expense, error) {
	if !validID(id) {
		return expense.Expense{}, expense.ErrNotFound
	}
	var row expenseRow
	if err := s.get(ctx, &row, selectList(expenseColumns, "expenses")+" WHERE id = ?", id); err != nil {
		return expense.Expense{}, trapNoRows(err, expense.ErrNotFound, "selecting expense")
	}
	return expense.Expense(row), nil
}

func (s *Store) ListExpenses(ctx context.Context, filter expense.Filter) ([]expense.Expense, error) {
	w := expenseWhere(filter)
	var rows []expenseRow
	q := selectList(expenseColumns, "expenses") + w.String() + " ORDER BY due_day, name"
	if err := s.selectAll(ctx, &rows, q, w.args...); err != nil {
		return nil, errors.Wrap(err, "selecting expenses")
	}
	expenses := make([]expense.Expense, 0, len(rows))
	for _, r := range rows {
		expenses = append(expenses, expense.Expense(r))
	}
	return expenses, nil
}

func (s *Store) CountExpenses(ctx context.Context, filter expense.Filter) (int, error) {
	w := expenseWhere(filter)
	var n int
	err := s.get(ctx, &n, "SELECT COUNT(*) FROM expenses"+w.String(), w.args...)
	return n, errors.Wrap(err, "counting expenses")
}

func (s *Store) UpdateExpense(ctx context.Context, e expense.Expense) (expense.Expense, error) {
	if !validID(e.ID) {
		return expense.Expense{}, expense.ErrNotFound
	}
	if err := s.update(ctx, "expenses", expenseColumns, expenseRow(e), expense.ErrNotFound); err != nil {
		return expense.Expense{}, err
	}
	return e, nil
}

func (s *Store) DeleteExpense(ctx context.Context, id string) error {
	return s.deleteByID(ctx, "expenses", id, expense.ErrNotFound)
}
