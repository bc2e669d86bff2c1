package workedhour

import (
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"github.com/lunedance/lune/core"
	"github.com/lunedance/lune/core/grid"
	"github.com/lunedance/lune/core/stats"
)

type Status string

const (
	StatusPending  Status = "PENDING"
	StatusDone     Status = "DONE"
	StatusApproved Status = "APPROVED"
	StatusRejected Status = "REJECTED"
	StatusCanceled Status = "CANCELED"
)

// Snapshot copies what a worked hour refers to at creation time, so that payroll history
// does not change when teachers or classes are edited later.
type Snapshot struct {
	TeacherName      string `json:"teacher_name"`
	ModalityName     string `json:"modality_name"`
	ClassLevel       string `json:"class_level"`
	ClassDescription string `json:"class_description"`
	EnrolledStudents int    `json:"enrolled_students_count"`
	TrialStudents    int    `json:"trial_students_count"`
	TotalStudents    int    `json:"total_students_count"`
}

// WorkedHour is a class session delivered by a teacher.
type WorkedHour struct {
	ID             string          `json:"id"`
	TeacherID      string          `json:"teacher_id"`
	ClassID        string          `json:"class_id"`
	WorkedAt       time.Time       `json:"worked_at"`
	StartedAt      time.Time       `json:"started_at"`
	EndedAt        time.Time       `json:"ended_at"`
	Duration       int             `json:"duration"` // minutes
	PriceSnapshot  decimal.Decimal `json:"price_snapshot"`
	Status         Status          `json:"status"`
	NewEnrollments int             `json:"new_enrollments_count"`
	Snapshot       Snapshot        `json:"snapshot"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
}

type Filter struct {
	IDs        []string
	TeacherIDs []string
	Statuses   []Status
	From       time.Time
	To         time.Time
}

type NewWorkedHour struct {
	TeacherID      string    `json:"teacher_id" validate:"required"`
	ClassID        string    `json:"class_id" validate:"required"`
	WorkedAt       time.Time `json:"worked_at" validate:"required"`
	Status         Status    `json:"status" validate:"omitempty,oneof=PENDING DONE APPROVED REJECTED CANCELED"`
	NewEnrollments int       `json:"new_enrollments_count" validate:"gte=0"`
}

func (nw *NewWorkedHour) Validate(validate *validator.Validate) error {
	nw.TeacherID = core.CleanString(nw.TeacherID)
	nw.ClassID = core.CleanString(nw.ClassID)
	return validate.Struct(nw)
}

type UpdateWorkedHour struct {
	TeacherID      *string          `json:"teacher_id" validate:"omitempty,min=1"`
	ClassID        *string          `json:"class_id" validate:"omitempty,min=1"`
	WorkedAt       *time.Time       `json:"worked_at"`
	NewEnrollments *int             `json:"new_enrollments_count" validate:"omitempty,gte=0"`
	Status         *Status          `json:"status" validate:"omitempty,oneof=PENDING DONE APPROVED REJECTED CANCELED"`
	PriceSnapshot  *decimal.Decimal `json:"price_snapshot" validate:"omitempty,gte=0"`
}

func (uw *UpdateWorkedHour) Validate(validate *validator.Validate) error {
	return validate.Struct(uw)
}

type UpdateStatus struct {
	Status Status `json:"status" validate:"required,oneof=PENDING DONE APPROVED REJECTED CANCELED"`
}

func (us *UpdateStatus) Validate(validate *validator.Validate) error {
	return validate.Struct(us)
}

type UpdateTeacher struct {
	TeacherID string `json:"teacher_id" validate:"required"`
}

func (ut *UpdateTeacher) Validate(validate *validator.Validate) error {
	return validate.Struct(ut)
}

type (
	// Entry is a worked hour as listed in the monthly report.
	Entry struct {
		WorkedHour
		Students []grid.Attendee `json:"students"`
	}

	TeacherStats struct {
		TeacherID      string          `json:"teacher_id"`
		TeacherName    string          `json:"teacher_name"`
		TotalCost      decimal.Decimal `json:"total_cost"`
		TotalClasses   int             `json:"total_classes"`
		TotalStudents  int             `json:"total_students"`
		NewEnrollments int             `json:"new_enrollments"`
	}

	PayrollCard struct {
		Value           decimal.Decimal `json:"value"`
		FromHours       decimal.Decimal `json:"from_hours"`
		FromEnrollments decimal.Decimal `json:"from_enrollments"`
		Trend           stats.Trend     `json:"trend"`
	}

	EnrollmentsCard struct {
		Value int         `json:"value"`
		Trend stats.Trend `json:"trend"`
	}

	Cards struct {
		TotalToPay     PayrollCard     `json:"total_to_pay"`
		NewEnrollments EnrollmentsCard `json:"new_enrollments"`
		BestTeacher    TeacherStats    `json:"best_teacher"`
	}

	Report struct {
		Cards        Cards                   `json:"cards"`
		TeacherStats map[string]TeacherStats `json:"teacher_stats"`
		WorkedHours  []Entry                 `json:"worked_hours"`
	}

	// TeacherPayroll is what a teacher is owed for a month.
	TeacherPayroll struct {
		TeacherID      string          `json:"teacher_id"`
		TeacherName    string          `json:"teacher_name"`
		TotalClasses   int             `json:"total_classes"`
		TotalHours     decimal.Decimal `json:"total_hours"`
		NewEnrollments int             `json:"new_enrollments"`
		PriceHour      decimal.Decimal `json:"price_hour"`
		TotalToPay     decimal.Decimal `json:"total_to_pay"`
		Modalities     []string        `json:"modalities"`
		PixKey         string          `json:"pix_key"`
	}

	TeacherMonth struct {
		TeacherID     string          `json:"teacher_id"`
		TeacherName   string          `json:"teacher_name"`
		TotalHours    decimal.Decimal `json:"total_hours"`
		WorkedDetails []WorkedHour    `json:"worked_details"`
	}
)

type MonthQuery struct {
	Month int `query:"month" validate:"omitempty,min=1,max=12"`
	Year  int `query:"year" validate:"omitempty,min=2000,max=2100"`
}

func (mq *MonthQuery) Validate(validate *validator.Validate) error {
	return validate.Struct(mq)
}
