package plan

import (
	"fmt"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCycle(t *testing.T) {
	tests := []struct {
		days       int
		want       Cycle
		wantMonths int
		wantName   string
		wantErr    bool
	}{
		{days: 30, want: Monthly, wantMonths: 1, wantName: "Mensal"},
		{days: 90, want: Quarterly, wantMonths: 3, wantName: "Trimestral"},
		{days: 180, want: Semiannual, wantMonths: 6, wantName: "Semestral"},
		{days: 0, wantErr: true},
		{days: 45, wantErr: true},
		{days: 365, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprintf("%d days", tt.days), func(t *testing.T) {
			got, err := ParseCycle(tt.days)
			if tt.wantErr {
				assert.Equal(t, ErrUnknownDuration, errors.Cause(err))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.wantMonths, got.Months())
			assert.Equal(t, tt.wantName, got.Name())
		})
	}
}

func TestDateRange(t *testing.T) {
	start := time.Date(2024, time.January, 15, 0, 0, 0, 0, time.UTC)
	tests := []struct {
		cycle Cycle
		want  time.Time
	}{
		{cycle: Monthly, want: time.Date(2024, time.February, 15, 0, 0, 0, 0, time.UTC)},
		{cycle: Quarterly, want: time.Date(2024, time.April, 15, 0, 0, 0, 0, time.UTC)},
		{cycle: Semiannual, want: time.Date(2024, time.July, 15, 0, 0, 0, 0, time.UTC)},
	}
	for _, tt := range tests {
		t.Run(tt.cycle.Name(), func(t *testing.T) {
			gotStart, gotEnd := DateRange(start, tt.cycle)
			assert.Equal(t, start, gotStart)
			assert.Equal(t, tt.want, gotEnd)
		})
	}
}

func TestMonthlyPrice(t *testing.T) {
	p := Plan{Price: decimal.NewFromInt(300), DurationInDays: 90}
	assert.True(t, decimal.NewFromInt(100).Equal(p.MonthlyPrice()))

	p.DurationInDays = 12
	assert.True(t, p.Price.Equal(p.MonthlyPrice()), "unknown durations fall back to the full price")
}
