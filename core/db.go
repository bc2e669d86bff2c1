package core

import (
	"context"
	"strings"
)

type (
	// Transactor runs units of work atomically.
	// Repositories called with the ctx passed to fn take part in the same transaction;
	// nested WithTx calls join the outer transaction.
	Transactor interface {
		WithTx(ctx context.Context, fn func(ctx context.Context) error) error
	}

	DBOrdering struct {
		Field     string
		Ascending bool
	}
)

func (ord DBOrdering) String() string {
	direction := "DESC"
	if ord.Ascending {
		direction = "ASC"
	}
	return ord.Field + " " + direction
}

// OrderBy renders orderings as an SQL ORDER BY list, keeping only the fields found in `columns`
// ({api field: column}). It falls back to `fallback` when nothing is left.
func OrderBy(orderings []DBOrdering, columns map[string]string, fallback string) string {
	parts := make([]string, 0, len(orderings))
	for _, ord := range orderings {
		col, ok := columns[ord.Field]
		if !ok {
			continue
		}
		parts = append(parts, DBOrdering{Field: col, Ascending: ord.Ascending}.String())
	}
	if len(parts) == 0 {
		return fallback
	}
	return strings.Join(parts, ", ")
}
