package plan

import (
	"time"

	"github.com/pkg/errors"
)

// ErrUnknownDuration is returned for plan durations that do not map to a billing cycle.
var ErrUnknownDuration = errors.New("unknown plan duration")

// Cycle is the billing period of a plan.
type Cycle int

const (
	Monthly Cycle = iota + 1
	Quarterly
	Semiannual
)

var cycles = map[Cycle]struct {
	days   int
	months int
	name   string
}{
	Monthly:    {days: 30, months: 1, name: "Mensal"},
	Quarterly:  {days: 90, months: 3, name: "Trimestral"},
	Semiannual: {days: 180, months: 6, name: "Semestral"},
}

// ParseCycle maps a plan's durationInDays to its cycle. Zero and unmapped durations are rejected.
func ParseCycle(durationInDays int) (Cycle, error) {
	switch durationInDays {
	case 30:
		return Monthly, nil
	case 90:
		return Quarterly, nil
	case 180:
		return Semiannual, nil
	}
	return 0, errors.Wrapf(ErrUnknownDuration, "%d days", durationInDays)
}

// Months is the number of monthly installments of the cycle.
func (c Cycle) Months() int { return cycles[c].months }

func (c Cycle) Days() int { return cycles[c].days }

// Name is the pt-BR label of the cycle.
func (c Cycle) Name() string { return cycles[c].name }

func (c Cycle) String() string { return c.Name() }

// DateRange returns the enrollment period of a cycle starting at start.
func DateRange(start time.Time, c Cycle) (time.Time, time.Time) {
	return start, start.AddDate(0, c.Months(), 0)
}
