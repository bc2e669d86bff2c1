package calendar

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClampedDate(t *testing.T) {
	tests := []struct {
		name   string
		year   int
		month  time.Month
		months int
		day    int
		want   time.Time
	}{
		{name: "same month", year: 2024, month: time.March, day: 10, want: Date(2024, time.March, 10)},
		{name: "leap february", year: 2024, month: time.January, months: 1, day: 31, want: Date(2024, time.February, 29)},
		{name: "common february", year: 2023, month: time.January, months: 1, day: 31, want: Date(2023, time.February, 28)},
		{name: "thirty days month", year: 2024, month: time.March, months: 1, day: 31, want: Date(2024, time.April, 30)},
		{name: "year rollover", year: 2024, month: time.November, months: 3, day: 15, want: Date(2025, time.February, 15)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ClampedDate(tt.year, tt.month, tt.months, tt.day)
			assert.True(t, tt.want.Equal(got), "got %v, want %v", got, tt.want)
		})
	}
}

func TestParseClock(t *testing.T) {
	tests := []struct {
		in      string
		want    int
		wantErr bool
	}{
		{in: "00:00", want: 0},
		{in: "09:30", want: 570},
		{in: "23:59", want: 1439},
		{in: "24:00", wantErr: true},
		{in: "12:60", wantErr: true},
		{in: "1200", wantErr: true},
		{in: "ab:cd", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseClock(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.in, FormatClock(got))
		})
	}
}

func TestTimePeriod(t *testing.T) {
	tests := map[string]string{
		"04:59": "Noite",
		"05:00": "Manhã",
		"11:59": "Manhã",
		"12:00": "Tarde",
		"17:59": "Tarde",
		"18:00": "Noite",
		"bad":   "",
	}
	for in, want := range tests {
		t.Run(in, func(t *testing.T) {
			assert.Equal(t, want, TimePeriod(in))
		})
	}
}

func TestDurationMinutes(t *testing.T) {
	got, err := DurationMinutes("19:00", "20:30")
	require.NoError(t, err)
	assert.Equal(t, 90, got)

	got, err = DurationMinutes("23:00", "00:30")
	require.NoError(t, err)
	assert.Equal(t, 90, got, "end before start rolls to the next day")

	got, err = DurationMinutes("10:00", "10:00")
	require.NoError(t, err)
	assert.Equal(t, 24*60, got)

	_, err = DurationMinutes("10:00", "nope")
	assert.Error(t, err)
}

func TestWeekdayOf(t *testing.T) {
	// 02:00 UTC on a Sunday is still Saturday evening in São Paulo
	utc := time.Date(2024, time.March, 10, 2, 0, 0, 0, time.UTC)
	assert.Equal(t, Saturday, WeekdayOf(utc))
	assert.Equal(t, Sunday, WeekdayOf(Date(2024, time.March, 10)))

	wd, err := ParseWeekday(" Monday ")
	require.NoError(t, err)
	assert.Equal(t, Monday, wd)
	assert.Equal(t, 1, wd.Index())
	assert.Equal(t, "segunda-feira", wd.Label())

	_, err = ParseWeekday("funday")
	assert.Error(t, err)
}

func TestLabels(t *testing.T) {
	now := time.Date(2024, time.March, 10, 12, 0, 0, 0, Location)

	assert.Equal(t, "Hoje", DayLabel(now.Add(5*time.Hour), now))
	assert.Equal(t, "segunda-feira", DayLabel(now.AddDate(0, 0, 1), now))
	assert.Equal(t, "05/03/2024", FormatDate(Date(2024, time.March, 5)))
	assert.Equal(t, "março de 2024", MonthLabel(now))
}

func TestTimeUntil(t *testing.T) {
	now := time.Date(2024, time.March, 10, 12, 0, 0, 0, Location)
	tests := []struct {
		days int
		want string
	}{
		{days: 1, want: "1 dia"},
		{days: 3, want: "3 dias"},
		{days: 10, want: "1 semana"},
		{days: 20, want: "2 semanas"},
		{days: 30, want: "1 mês"},
		{days: 65, want: "2 meses"},
	}
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, TimeUntil(now.AddDate(0, 0, tt.days), now))
		})
	}
}

func TestTimeToExpire(t *testing.T) {
	now := time.Date(2024, time.March, 10, 15, 0, 0, 0, Location)
	tests := []struct {
		name string
		end  time.Time
		want string
	}{
		{name: "past", end: Date(2024, time.March, 9), want: "Expirado"},
		{name: "today", end: Date(2024, time.March, 10), want: "Expira hoje"},
		{name: "days", end: Date(2024, time.March, 12), want: "2 dias"},
		{name: "exact month", end: Date(2024, time.April, 10), want: "1 mês"},
		{name: "months and days", end: Date(2024, time.June, 15), want: "3 meses e 5 dias"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, TimeToExpire(tt.end, now))
		})
	}
}

func TestMonthBounds(t *testing.T) {
	start, end := MonthRange(2024, time.February)
	assert.True(t, Date(2024, time.February, 1).Equal(start))
	assert.Equal(t, 29, Local(end).Day())
	assert.Equal(t, 29, DaysIn(2024, time.February))
	assert.True(t, SameMonth(start, end))
	assert.Equal(t, 3, DaysBetween(Date(2024, time.February, 27), Date(2024, time.March, 1)))
}
