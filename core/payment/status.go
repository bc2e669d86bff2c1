package payment

import (
	"time"

	"github.com/lunedance/lune/core/calendar"
)

// StudentStatus summarizes the payments of all the enrollments of a student.
type StudentStatus string

const (
	StudentCanceled StudentStatus = "CANCELED"
	StudentOverdue  StudentStatus = "OVERDUE"
	StudentPending  StudentStatus = "PENDING"
	StudentRenew    StudentStatus = "RENEW"
	StudentPaid     StudentStatus = "PAID"
)

// IsOverdue reports whether p is still PENDING a full day after its local due date.
func IsOverdue(p Payment, now time.Time) bool {
	if p.Status != StatusPending {
		return false
	}
	return calendar.StartOfDay(p.DueDate).AddDate(0, 0, 1).Before(now)
}

// EffectiveStatus is the status shown to staff: OVERDUE replaces PENDING once due.
func EffectiveStatus(p Payment, now time.Time) Status {
	if IsOverdue(p, now) {
		return StatusOverdue
	}
	return p.Status
}

// AggregateStatus classifies a student from the payments of each of their enrollments.
// Rules apply in order:
//   - CANCELED when every payment is canceled
//   - OVERDUE when any payment is overdue
//   - PENDING when a pending payment is due in the current month
//   - RENEW when every payment is paid
//   - PAID otherwise, including when there is no payment at all
func AggregateStatus(enrollments [][]Payment, now time.Time) StudentStatus {
	var total, canceled, paid int
	var overdue, pendingThisMonth bool
	for _, payments := range enrollments {
		for _, p := range payments {
			total++
			switch p.Status {
			case StatusCanceled:
				canceled++
			case StatusPaid:
				paid++
			case StatusPending:
				if IsOverdue(p, now) {
					overdue = true
				} else if calendar.SameMonth(p.DueDate, now) {
					pendingThisMonth = true
				}
			}
		}
	}

	switch {
	case total == 0:
		return StudentPaid
	case canceled == total:
		return StudentCanceled
	case overdue:
		return StudentOverdue
	case pendingThisMonth:
		return StudentPending
	case paid == total:
		return StudentRenew
	default:
		return StudentPaid
	}
}

var priorities = map[Status]int{
	StatusOverdue:  0,
	StatusPending:  1,
	StatusPaid:     2,
	StatusCanceled: 3,
}

// Priority orders display statuses for the payments dashboard: OVERDUE first, CANCELED last.
func Priority(s Status) int {
	if p, ok := priorities[s]; ok {
		return p
	}
	return len(priorities)
}
