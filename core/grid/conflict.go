package grid

import (
	"github.com/pkg/errors"

	"github.com/lunedance/lune/core/calendar"
)

var ErrInvalidInterval = errors.New("start time must be before end time")

// Overlaps reports whether the half-open intervals [aStart, aEnd) and [bStart, bEnd) intersect.
// Touching intervals (one ends when the other starts) do not overlap.
func Overlaps(aStart, aEnd, bStart, bEnd int) bool {
	return aStart < bEnd && aEnd > bStart
}

// Minutes returns the slot bounds in minutes since midnight.
func (s Slot) Minutes() (int, int, error) {
	start, err := calendar.ParseClock(s.StartTime)
	if err != nil {
		return 0, 0, err
	}
	end, err := calendar.ParseClock(s.EndTime)
	if err != nil {
		return 0, 0, err
	}
	if start >= end {
		return 0, 0, ErrInvalidInterval
	}
	return start, end, nil
}

// FindConflict returns the first item of existing that shares candidate's day and overlaps it.
// Items for which skip returns true are ignored.
func FindConflict(candidate Slot, existing []Item, skip func(Item) bool) (Item, bool, error) {
	cStart, cEnd, err := candidate.Minutes()
	if err != nil {
		return Item{}, false, err
	}
	for _, it := range existing {
		if it.DayOfWeek != candidate.DayOfWeek || (skip != nil && skip(it)) {
			continue
		}
		start, end, err := it.Slot().Minutes()
		if err != nil {
			return Item{}, false, errors.Wrapf(err, "grid item %s", it.ID)
		}
		if Overlaps(cStart, cEnd, start, end) {
			return it, true, nil
		}
	}
	return Item{}, false, nil
}

// HasConflict reports whether candidate overlaps an item of existing other than excludeID.
func HasConflict(candidate Slot, existing []Item, excludeID string) (bool, error) {
	_, found, err := FindConflict(candidate, existing, func(it Item) bool {
		return excludeID != "" && it.ID == excludeID
	})
	return found, err
}
