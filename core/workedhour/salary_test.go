package workedhour

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestTeacherSalary(t *testing.T) {
	tests := []struct {
		name           string
		minutes        int
		price          int64
		newEnrollments int
		commission     int64
		wantHours      string
		wantCommission string
		wantTotal      string
	}{
		{name: "hours and commissions", minutes: 120, price: 50, newEnrollments: 2, commission: 20,
			wantHours: "100", wantCommission: "40", wantTotal: "140"},
		{name: "hours only", minutes: 45, price: 50, wantHours: "37.5", wantCommission: "0", wantTotal: "37.5"},
		{name: "rounded to cents", minutes: 50, price: 55, wantHours: "45.83", wantCommission: "0", wantTotal: "45.83"},
		{name: "nothing", wantHours: "0", wantCommission: "0", wantTotal: "0"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := TeacherSalary(tt.minutes, decimal.NewFromInt(tt.price), tt.newEnrollments, decimal.NewFromInt(tt.commission))
			assert.Equal(t, tt.wantHours, got.FromHours.String())
			assert.Equal(t, tt.wantCommission, got.FromCommissions.String())
			assert.Equal(t, tt.wantTotal, got.Total.String())
		})
	}
}

func TestSumSalaries(t *testing.T) {
	commission := decimal.NewFromInt(20)
	record := WorkedHour{Duration: 120, PriceSnapshot: decimal.NewFromInt(50), NewEnrollments: 2}
	single := Of(record, commission)

	for _, n := range []int{0, 1, 3, 10} {
		records := make([]WorkedHour, n)
		for i := range records {
			records[i] = record
		}
		got := SumSalaries(records, commission)
		nd := decimal.NewFromInt(int64(n))
		assert.True(t, single.Total.Mul(nd).Equal(got.Total), "n=%d total %s", n, got.Total)
		assert.True(t, single.FromHours.Mul(nd).Equal(got.FromHours), "n=%d hours %s", n, got.FromHours)
		assert.True(t, single.FromCommissions.Mul(nd).Equal(got.FromCommissions), "n=%d commissions %s", n, got.FromCommissions)
	}
}

func TestSumSalariesRoundsOnlyTheTotal(t *testing.T) {
	record := WorkedHour{Duration: 50, PriceSnapshot: decimal.NewFromInt(55)}
	assert.Equal(t, "45.83", Of(record, decimal.Zero).Total.String())

	got := SumSalaries([]WorkedHour{record, record, record}, decimal.Zero)
	assert.Equal(t, "137.5", got.FromHours.String(), "not 3 x 45.83")
	assert.Equal(t, "137.5", got.Total.String())
}

func TestSumSalariesUsesPriceSnapshot(t *testing.T) {
	records := []WorkedHour{
		{Duration: 60, PriceSnapshot: decimal.NewFromInt(40)},
		{Duration: 60, PriceSnapshot: decimal.NewFromInt(60), NewEnrollments: 1},
	}
	got := SumSalaries(records, decimal.NewFromInt(20))
	assert.Equal(t, "100", got.FromHours.String())
	assert.Equal(t, "20", got.FromCommissions.String())
	assert.Equal(t, "120", got.Total.String())
}
