package sqlxdb

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

// where accumulates AND-ed conditions written with "?" placeholders.
type where struct {
	conds []string
	args  []interface{}
}

func (w *where) add(cond string, args ...interface{}) {
	w.conds = append(w.conds, cond)
	w.args = append(w.args, args...)
}

// ids filters col on a list of IDs. A nil list is ignored, an empty one matches nothing.
func (w *where) ids(col string, ids []string) {
	if ids == nil {
		return
	}
	valid := make([]string, 0, len(ids))
	for _, id := range ids {
		if validID(id) {
			valid = append(valid, id)
		}
	}
	w.add(col+" = ANY(?::uuid[])", pq.Array(valid))
}

// strs filters col on a list of values. A nil list is ignored, an empty one matches nothing.
func (w *where) strs(col string, values []string) {
	if values == nil {
		return
	}
	w.add(col+" = ANY(?)", pq.Array(values))
}

func (w *where) notStrs(col string, values []string) {
	if len(values) == 0 {
		return
	}
	w.add("NOT ("+col+" = ANY(?))", pq.Array(values))
}

// contains matches any of cols against term, ignoring case.
func (w *where) contains(term string, cols ...string) {
	if term == "" {
		return
	}
	parts := make([]string, 0, len(cols))
	args := make([]interface{}, 0, len(cols))
	for _, col := range cols {
		parts = append(parts, col+" ILIKE ?")
		args = append(args, "%"+escapeLike(term)+"%")
	}
	w.add("("+strings.Join(parts, " OR ")+")", args...)
}

func (w *where) eq(col string, v interface{}) {
	w.add(col+" = ?", v)
}

// between bounds col to [from, to]. Zero bounds are open.
func (w *where) between(col string, from, to time.Time) {
	if !from.IsZero() {
		w.add(col+" >= ?", from.UTC())
	}
	if !to.IsZero() {
		w.add(col+" <= ?", to.UTC())
	}
}

func (w *where) String() string {
	if len(w.conds) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(w.conds, " AND ")
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}

func validID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}

func toStrings[T ~string](values []T) []string {
	if values == nil {
		return nil
	}
	out := make([]string, len(values))
	for i, v := range values {
		out[i] = string(v)
	}
	return out
}
