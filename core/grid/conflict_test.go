package grid

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lunedance/lune/core/calendar"
)

func TestOverlaps(t *testing.T) {
	tests := []struct {
		name                       string
		aStart, aEnd, bStart, bEnd int
		want                       bool
	}{
		{name: "touching", aStart: 600, aEnd: 660, bStart: 660, bEnd: 720},
		{name: "touching before", aStart: 660, aEnd: 720, bStart: 600, bEnd: 660},
		{name: "partial", aStart: 600, aEnd: 660, bStart: 630, bEnd: 700, want: true},
		{name: "contained", aStart: 600, aEnd: 720, bStart: 630, bEnd: 660, want: true},
		{name: "identical", aStart: 600, aEnd: 660, bStart: 600, bEnd: 660, want: true},
		{name: "disjoint", aStart: 600, aEnd: 660, bStart: 700, bEnd: 760},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Overlaps(tt.aStart, tt.aEnd, tt.bStart, tt.bEnd))
			assert.Equal(t, tt.want, Overlaps(tt.bStart, tt.bEnd, tt.aStart, tt.aEnd), "overlap is symmetric")
		})
	}
}

func TestHasConflict(t *testing.T) {
	existing := []Item{
		{ID: "a", DayOfWeek: calendar.Monday, StartTime: "10:00", EndTime: "11:00"},
		{ID: "b", DayOfWeek: calendar.Tuesday, StartTime: "10:30", EndTime: "11:30"},
	}
	tests := []struct {
		name      string
		candidate Slot
		excludeID string
		want      bool
		wantErr   error
	}{
		{name: "back to back", candidate: Slot{DayOfWeek: calendar.Monday, StartTime: "11:00", EndTime: "12:00"}},
		{name: "overlapping", candidate: Slot{DayOfWeek: calendar.Monday, StartTime: "10:30", EndTime: "11:30"}, want: true},
		{name: "other day", candidate: Slot{DayOfWeek: calendar.Wednesday, StartTime: "10:30", EndTime: "11:30"}},
		{name: "excluded self", candidate: Slot{DayOfWeek: calendar.Monday, StartTime: "10:15", EndTime: "10:45"}, excludeID: "a"},
		{name: "inverted", candidate: Slot{DayOfWeek: calendar.Monday, StartTime: "12:00", EndTime: "11:00"}, wantErr: ErrInvalidInterval},
		{name: "empty", candidate: Slot{DayOfWeek: calendar.Monday, StartTime: "12:00", EndTime: "12:00"}, wantErr: ErrInvalidInterval},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := HasConflict(tt.candidate, existing, tt.excludeID)
			if tt.wantErr != nil {
				assert.Equal(t, tt.wantErr, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSlotKey(t *testing.T) {
	s := Slot{DayOfWeek: calendar.Friday, StartTime: "18:00", EndTime: "19:00"}
	assert.Equal(t, "friday-18:00-19:00", s.Key())
	assert.Equal(t, s.Key(), Item{DayOfWeek: calendar.Friday, StartTime: "18:00", EndTime: "19:00"}.Slot().Key())
}
