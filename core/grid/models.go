package grid

import (
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"github.com/lunedance/lune/core/calendar"
	"github.com/lunedance/lune/core/class"
)

type (
	// Item is a weekly time slot of a class.
	Item struct {
		ID        string           `json:"id"`
		ClassID   string           `json:"class_id"`
		DayOfWeek calendar.Weekday `json:"day_of_week"`
		StartTime string           `json:"start_time"` // HH:MM
		EndTime   string           `json:"end_time"`   // HH:MM
		CreatedAt time.Time        `json:"created_at"`
		UpdatedAt time.Time        `json:"updated_at"`
	}

	Slot struct {
		DayOfWeek calendar.Weekday `json:"day_of_week" validate:"required,weekday"`
		StartTime string           `json:"start_time" validate:"required,hhmm"`
		EndTime   string           `json:"end_time" validate:"required,hhmm"`
	}

	// Attendee is a student (or trial lead) expected in a class.
	Attendee struct {
		ID     string `json:"id"`
		Name   string `json:"name"`
		PlanID string `json:"-"`
	}

	Filter struct {
		IDs      []string
		ClassIDs []string
		Days     []calendar.Weekday
	}

	ScheduleFilter struct {
		TeacherID    string `query:"teacher_id"`
		ModalityID   string `query:"modality_id"`
		ClassLevelID string `query:"class_level_id"`
	}
)

func (it Item) Slot() Slot {
	return Slot{DayOfWeek: it.DayOfWeek, StartTime: it.StartTime, EndTime: it.EndTime}
}

// Key identifies a slot within a class: "day-start-end".
func (s Slot) Key() string {
	return fmt.Sprintf("%s-%s-%s", s.DayOfWeek, s.StartTime, s.EndTime)
}

type NewSchedule struct {
	Class class.NewClass `json:"class"`
	Items []Slot         `json:"items" validate:"required,min=1,dive"`
}

func (ns *NewSchedule) Validate(validate *validator.Validate) error {
	if err := ns.Class.Validate(validate); err != nil {
		return err
	}
	return validate.Struct(ns)
}

type UpdateSchedule struct {
	Class class.UpdateClass `json:"class"`
	Items []Slot            `json:"items" validate:"required,min=1,dive"`
}

func (us *UpdateSchedule) Validate(validate *validator.Validate) error {
	if err := us.Class.Validate(validate); err != nil {
		return err
	}
	return validate.Struct(us)
}

func (s *Slot) Validate(validate *validator.Validate) error {
	return validate.Struct(s)
}

type (
	// Cell is a slot as shown on the weekly schedule.
	Cell struct {
		ItemID         string     `json:"item_id"`
		ClassID        string     `json:"class_id"`
		ClassName      string     `json:"class_name"`
		ModalityName   string     `json:"modality_name"`
		ClassLevelName string     `json:"class_level_name"`
		Description    string     `json:"description"`
		TeacherID      string     `json:"teacher_id"`
		TeacherName    string     `json:"teacher_name"`
		DayOfWeek      string     `json:"day_of_week"`
		StartTime      string     `json:"start_time"`
		EndTime        string     `json:"end_time"`
		MaxStudents    int        `json:"max_students"`
		Students       []Attendee `json:"students"`
		TrialStudents  []Attendee `json:"trial_students"`
	}

	// Block is a row of the weekly schedule: every slot starting at StartTime, per weekday.
	Block struct {
		StartTime string                      `json:"start_time"`
		Days      map[calendar.Weekday][]Cell `json:"days"`
	}

	Dashboard struct {
		TotalClasses   int             `json:"total_classes"`
		TotalSlots     int             `json:"total_slots"`
		TotalStudents  int             `json:"total_students"`
		WeeklyRevenue  decimal.Decimal `json:"weekly_revenue"`
		WeeklyCost     decimal.Decimal `json:"weekly_cost"`
		WeeklyProfit   decimal.Decimal `json:"weekly_profit"`
		MonthlyRevenue decimal.Decimal `json:"monthly_revenue"`
		MonthlyCost    decimal.Decimal `json:"monthly_cost"`
		MonthlyProfit  decimal.Decimal `json:"monthly_profit"`
	}

	Schedule struct {
		Blocks    []Block   `json:"blocks"`
		Dashboard Dashboard `json:"dashboard"`
	}

	// AgendaStatus tells a teacher where a class of the day stands.
	AgendaStatus string

	AgendaEntry struct {
		Cell
		Status   AgendaStatus `json:"status"`
		DayLabel string       `json:"day_label"`
		StartsAt time.Time    `json:"starts_at"`
	}
)

const (
	AgendaDone    AgendaStatus = "done"
	AgendaNow     AgendaStatus = "now"
	AgendaPending AgendaStatus = "pending"
	AgendaNext    AgendaStatus = "next"
)
