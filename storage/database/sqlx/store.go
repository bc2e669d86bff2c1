// Package sqlxdb implements every core repository on postgres.
package sqlxdb

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/pkg/errors"

	"github.com/lunedance/lune/core"
	"github.com/lunedance/lune/core/class"
	"github.com/lunedance/lune/core/contract"
	"github.com/lunedance/lune/core/enrollment"
	"github.com/lunedance/lune/core/expense"
	"github.com/lunedance/lune/core/grid"
	"github.com/lunedance/lune/core/lead"
	"github.com/lunedance/lune/core/payment"
	"github.com/lunedance/lune/core/plan"
	"github.com/lunedance/lune/core/settings"
	"github.com/lunedance/lune/core/student"
	"github.com/lunedance/lune/core/teacher"
	"github.com/lunedance/lune/core/trial"
	"github.com/lunedance/lune/core/user"
	"github.com/lunedance/lune/core/workedhour"
)

const foreignKeyViolation = "23503"

// gridLockKey identifies the advisory lock taken by grid writers.
const gridLockKey = 7_340_201

type txKey struct{}

// Store runs every query on db, or on the transaction carried by the context.
type Store struct {
	db *sqlx.DB
}

var (
	_ class.Repository      = (*Store)(nil)
	_ contract.Repository   = (*Store)(nil)
	_ enrollment.Repository = (*Store)(nil)
	_ expense.Repository    = (*Store)(nil)
	_ grid.Repository       = (*Store)(nil)
	_ lead.Repository       = (*Store)(nil)
	_ payment.Repository    = (*Store)(nil)
	_ plan.Repository       = (*Store)(nil)
	_ settings.Repository   = (*Store)(nil)
	_ student.Repository    = (*Store)(nil)
	_ teacher.Repository    = (*Store)(nil)
	_ trial.Repository      = (*Store)(nil)
	_ user.Repository       = (*Store)(nil)
	_ workedhour.Repository = (*Store)(nil)
)

func NewStore(db *sqlx.DB) *Store {
	return &Store{db: db}
}

// WithTx runs fn in a transaction. Calls made with a ctx already inside a transaction join it.
func (s *Store) WithTx(ctx context.Context, fn func(ctx context.Context) error) (err error) {
	if _, ok := ctx.Value(txKey{}).(*sqlx.Tx); ok {
		return fn(ctx)
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "beginning transaction")
	}
	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
	}()

	if err = fn(context.WithValue(ctx, txKey{}, tx)); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return errors.Wrapf(err, "rolling back: %v", rbErr)
		}
		return err
	}
	return errors.Wrap(tx.Commit(), "committing transaction")
}

func (s *Store) ext(ctx context.Context) sqlx.ExtContext {
	if tx, ok := ctx.Value(txKey{}).(*sqlx.Tx); ok {
		return tx
	}
	return s.db
}

func (s *Store) get(ctx context.Context, dest interface{}, query string, args ...interface{}) error {
	return sqlx.GetContext(ctx, s.ext(ctx), dest, s.db.Rebind(query), args...)
}

func (s *Store) selectAll(ctx context.Context, dest interface{}, query string, args ...interface{}) error {
	return sqlx.SelectContext(ctx, s.ext(ctx), dest, s.db.Rebind(query), args...)
}

func (s *Store) exec(ctx context.Context, query string, args ...interface{}) (sql.Result, error) {
	return s.ext(ctx).ExecContext(ctx, s.db.Rebind(query), args...)
}

func (s *Store) namedExec(ctx context.Context, query string, arg interface{}) (sql.Result, error) {
	return sqlx.NamedExecContext(ctx, s.ext(ctx), query, arg)
}

// insert stores row in table, row's db tags naming the columns.
func (s *Store) insert(ctx context.Context, table string, columns []string, row interface{}) error {
	q := fmt.Sprintf("INSERT INTO %s (%s) VALUES (:%s)",
		table, strings.Join(columns, ", "), strings.Join(columns, ", :"))
	_, err := s.namedExec(ctx, q, row)
	return err
}

// update overwrites the row of table having row's id, reporting notFound when there is none.
func (s *Store) update(ctx context.Context, table string, columns []string, row interface{}, notFound error) error {
	sets := make([]string, 0, len(columns))
	for _, col := range columns {
		if col == "id" || col == "created_at" {
			continue
		}
		sets = append(sets, col+" = :"+col)
	}
	q := fmt.Sprintf("UPDATE %s SET %s WHERE id = :id", table, strings.Join(sets, ", "))
	res, err := s.namedExec(ctx, q, row)
	if err != nil {
		return err
	}
	return checkAffected(res, notFound)
}

// deleteByID removes the row of table having id, reporting notFound when there is none.
func (s *Store) deleteByID(ctx context.Context, table, id string, notFound error) error {
	if !validID(id) {
		return notFound
	}
	res, err := s.exec(ctx, "DELETE FROM "+table+" WHERE id = ?", id)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == foreignKeyViolation {
			return core.NewIntegrityError(table + " row is still referenced by " + pqErr.Table)
		}
		return errors.Wrapf(err, "deleting from %s", table)
	}
	return checkAffected(res, notFound)
}

// countBy runs a "SELECT key, COUNT(*)" query into a map.
func (s *Store) countBy(ctx context.Context, query string, args ...interface{}) (map[string]int, error) {
	var rows []struct {
		Key   string `db:"key"`
		Count int    `db:"count"`
	}
	if err := s.selectAll(ctx, &rows, query, args...); err != nil {
		return nil, err
	}
	counts := make(map[string]int, len(rows))
	for _, r := range rows {
		counts[r.Key] = r.Count
	}
	return counts, nil
}

func checkAffected(res sql.Result, notFound error) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return notFound
	}
	return nil
}

// trapNoRows maps "no rows" to notFound.
func trapNoRows(err error, notFound error, msg string) error {
	if err == sql.ErrNoRows {
		return notFound
	}
	return errors.Wrap(err, msg)
}

func selectList(columns []string, table string) string {
	return "SELECT " + strings.Join(columns, ", ") + " FROM " + table
}
