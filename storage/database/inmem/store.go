// Package inmemdb is a memory-backed implementation of every core repository,
// used by tests and by the "memory" database engine.
package inmemdb

import (
	"context"
	"strings"
	"sync"
	"time"

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

type txKey struct{}

type (
	tables struct {
		users       map[string]user.User
		teachers    map[string]teacher.Teacher
		modalities  map[string]class.Modality
		levels      map[string]class.ClassLevel
		classes     map[string]class.Class
		gridItems   map[string]grid.Item
		plans       map[string]plan.Plan
		students    map[string]student.Student
		contacts    map[string]student.EmergencyContact
		addresses   map[string]student.Address
		enrollments map[string]enrollment.Enrollment
		payments    map[string]payment.Payment
		leads       map[string]lead.Lead
		trials      map[string]trial.Trial
		workedHours map[string]workedhour.WorkedHour
		expenses    map[string]expense.Expense
		tokens      map[string]contract.Token // by enrollment ID
		settings    *settings.Settings
	}

	// Store keeps every table in memory.
	// Transactions are serialized and roll back by restoring a snapshot of the tables.
	Store struct {
		mu   sync.RWMutex
		txMu sync.Mutex
		db   tables
	}
)

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

func Open() *Store {
	return &Store{db: newTables()}
}

func newTables() tables {
	return tables{
		users:       make(map[string]user.User),
		teachers:    make(map[string]teacher.Teacher),
		modalities:  make(map[string]class.Modality),
		levels:      make(map[string]class.ClassLevel),
		classes:     make(map[string]class.Class),
		gridItems:   make(map[string]grid.Item),
		plans:       make(map[string]plan.Plan),
		students:    make(map[string]student.Student),
		contacts:    make(map[string]student.EmergencyContact),
		addresses:   make(map[string]student.Address),
		enrollments: make(map[string]enrollment.Enrollment),
		payments:    make(map[string]payment.Payment),
		leads:       make(map[string]lead.Lead),
		trials:      make(map[string]trial.Trial),
		workedHours: make(map[string]workedhour.WorkedHour),
		expenses:    make(map[string]expense.Expense),
		tokens:      make(map[string]contract.Token),
	}
}

func copyMap[K comparable, V any](m map[K]V) map[K]V {
	cp := make(map[K]V, len(m))
	for k, v := range m {
		cp[k] = v
	}
	return cp
}

func (t tables) snapshot() tables {
	cp := tables{
		users:       copyMap(t.users),
		teachers:    copyMap(t.teachers),
		modalities:  copyMap(t.modalities),
		levels:      copyMap(t.levels),
		classes:     copyMap(t.classes),
		gridItems:   copyMap(t.gridItems),
		plans:       copyMap(t.plans),
		students:    copyMap(t.students),
		contacts:    copyMap(t.contacts),
		addresses:   copyMap(t.addresses),
		enrollments: copyMap(t.enrollments),
		payments:    copyMap(t.payments),
		leads:       copyMap(t.leads),
		trials:      copyMap(t.trials),
		workedHours: copyMap(t.workedHours),
		expenses:    copyMap(t.expenses),
		tokens:      copyMap(t.tokens),
	}
	if t.settings != nil {
		s := *t.settings
		cp.settings = &s
	}
	return cp
}

// WithTx runs fn atomically. Calls made with a ctx already inside a transaction join it.
func (s *Store) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if ctx.Value(txKey{}) != nil {
		return fn(ctx)
	}

	s.txMu.Lock()
	defer s.txMu.Unlock()

	s.mu.RLock()
	saved := s.db.snapshot()
	s.mu.RUnlock()

	if err := fn(context.WithValue(ctx, txKey{}, true)); err != nil {
		s.mu.Lock()
		s.db = saved
		s.mu.Unlock()
		return err
	}
	return nil
}

// Reset drops every row.
func (s *Store) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.db = newTables()
}

// matches reports whether value contains the search term, ignoring case. An empty term matches everything.
func matches(term string, values ...string) bool {
	if term == "" {
		return true
	}
	term = strings.ToLower(term)
	for _, v := range values {
		if strings.Contains(strings.ToLower(v), term) {
			return true
		}
	}
	return false
}

// in reports whether v is in list. A nil list matches everything, an empty one nothing.
func in[T comparable](list []T, v T) bool {
	if list == nil {
		return true
	}
	for _, item := range list {
		if item == v {
			return true
		}
	}
	return false
}

// notIn reports whether v is absent from list.
func notIn[T comparable](list []T, v T) bool {
	for _, item := range list {
		if item == v {
			return false
		}
	}
	return true
}

// within reports whether t is inside [from, to]. Zero bounds are open.
func within(t, from, to time.Time) bool {
	return (from.IsZero() || !t.Before(from)) && (to.IsZero() || !t.After(to))
}

func values[K comparable, V any](m map[K]V, keep func(V) bool) []V {
	out := make([]V, 0, len(m))
	for _, v := range m {
		if keep == nil || keep(v) {
			out = append(out, v)
		}
	}
	return out
}

func compareString(a, b string) int {
	return strings.Compare(a, b)
}

func compareTime(a, b time.Time) int {
	switch {
	case a.Before(b):
		return -1
	case a.After(b):
		return 1
	}
	return 0
}
