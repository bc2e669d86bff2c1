package trial

import (
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/lunedance/lune/core"
	"github.com/lunedance/lune/core/calendar"
	"github.com/lunedance/lune/core/grid"
	"github.com/lunedance/lune/core/lead"
)

type Status string

const (
	StatusScheduled Status = "SCHEDULED"
	// StatusPendingStatus marks past bookings waiting for staff to tell what happened.
	StatusPendingStatus Status = "PENDING_STATUS"
	StatusCompleted     Status = "COMPLETED"
	StatusEnrolled      Status = "ENROLLED"
	StatusNoShow        Status = "NO_SHOW"
	StatusCancelled     Status = "CANCELLED"
)

// Trial is a lead booked for a trial class in a grid slot.
type Trial struct {
	ID         string    `json:"id"`
	LeadID     string    `json:"lead_id"`
	GridItemID string    `json:"grid_item_id"`
	Date       time.Time `json:"date"`
	Status     Status    `json:"status"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

type Filter struct {
	IDs         []string
	GridItemIDs []string
	Statuses    []Status
	// ExcludeStatuses drops the trials in any of these statuses.
	ExcludeStatuses []Status
	From            time.Time
	To              time.Time
}

type NewTrial struct {
	Lead       lead.NewLead `json:"lead"`
	GridItemID string       `json:"grid_item_id" validate:"required"`
	Date       time.Time    `json:"date" validate:"required"`
}

func (nt *NewTrial) Validate(validate *validator.Validate) error {
	if err := nt.Lead.Validate(validate); err != nil {
		return err
	}
	nt.GridItemID = core.CleanString(nt.GridItemID)
	return validate.Struct(nt)
}

type UpdateTrial struct {
	Lead       *lead.UpdateLead `json:"lead"`
	GridItemID *string          `json:"grid_item_id" validate:"omitempty,min=1"`
	Date       *time.Time       `json:"date"`
	Status     *Status          `json:"status" validate:"omitempty,oneof=SCHEDULED PENDING_STATUS COMPLETED ENROLLED NO_SHOW CANCELLED"`
}

func (ut *UpdateTrial) Validate(validate *validator.Validate) error {
	if ut.Lead != nil {
		if err := ut.Lead.Validate(validate); err != nil {
			return err
		}
	}
	return validate.Struct(ut)
}

type (
	// Detail is a Trial with its lead and the class it is booked in.
	Detail struct {
		Trial
		Lead             lead.Lead `json:"lead"`
		Slot             grid.Item `json:"grid_item"`
		ClassName        string    `json:"class_name"`
		ClassDescription string    `json:"class_description"`
		ModalityName     string    `json:"modality_name"`
		ClassLevelName   string    `json:"class_level_name"`
		TeacherName      string    `json:"teacher_name"`
	}

	ClassGroup struct {
		Modality      string   `json:"modality"`
		ClassLevel    string   `json:"class_level"`
		StartTime     string   `json:"start_time"`
		EndTime       string   `json:"end_time"`
		TrialStudents []Detail `json:"trial_students"`
	}

	Nearest struct {
		Date               string       `json:"date"`
		TotalTrialStudents int          `json:"total_trial_students"`
		TrialClasses       []ClassGroup `json:"trial_classes"`
	}

	Listing struct {
		NearestTrialClasses *Nearest                                 `json:"nearest_trial_classes"`
		List                []Detail                                 `json:"list"`
		WeekResume          map[calendar.Weekday]map[string][]Detail `json:"week_resume"`
	}
)
