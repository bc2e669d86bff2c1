package notification

import (
	"context"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type counterFunc func(ctx context.Context) (int, error)

func (f counterFunc) PendingCount(ctx context.Context) (int, error) { return f(ctx) }

func fixed(n int) Counter {
	return counterFunc(func(context.Context) (int, error) { return n, nil })
}

func TestPending(t *testing.T) {
	svc := NewService(fixed(2), fixed(3), fixed(4))
	got, err := svc.Pending(context.Background())
	require.NoError(t, err)
	assert.Equal(t, Pending{TrialStudents: 2, WorkedHours: 3, Expenses: 4, Total: 9}, got)
}

func TestPendingError(t *testing.T) {
	failing := counterFunc(func(context.Context) (int, error) { return 0, errors.New("boom") })
	svc := NewService(fixed(1), failing, fixed(1))
	_, err := svc.Pending(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "worked hours")
}
