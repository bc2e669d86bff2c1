package enrollment

import (
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"

	"github.com/lunedance/lune/core"
	"github.com/lunedance/lune/core/payment"
	"github.com/lunedance/lune/core/student"
)

type Status string

const (
	StatusActive   Status = "active"
	StatusPending  Status = "pending"
	StatusCanceled Status = "canceled"
	StatusArchived Status = "archived"
)

type Enrollment struct {
	ID         string     `json:"id"`
	StudentID  string     `json:"student_id"`
	PlanID     string     `json:"plan_id"`
	ClassID    *string    `json:"class_id"`
	StartDate  time.Time  `json:"start_date"`
	EndDate    time.Time  `json:"end_date"`
	PaymentDay int        `json:"payment_day"`
	Status     Status     `json:"status"`
	Signature  string     `json:"signature,omitempty"` // data URI of the signature image
	SignedAt   *time.Time `json:"signed_at"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
}

func (e Enrollment) IsSigned() bool { return e.Signature != "" }

type Filter struct {
	IDs        []string
	StudentIDs []string
	ClassIDs   []string
	Statuses   []Status
}

var errStudentChoice = errors.New("provide either student_id or student")

// NewEnrollment enrolls either an existing student (StudentID) or a new one (Student,
// with optional emergency contact and address).
type NewEnrollment struct {
	StudentID        string                       `json:"student_id"`
	Student          *student.NewStudent          `json:"student"`
	EmergencyContact *student.NewEmergencyContact `json:"emergency_contact"`
	Address          *student.NewAddress          `json:"address"`
	PlanID           string                       `json:"plan_id" validate:"required"`
	ClassID          string                       `json:"class_id" validate:"required"`
	StartDate        time.Time                    `json:"start_date" validate:"required"`
	PaymentDay       int                          `json:"payment_day" validate:"min=1,max=31"`
}

// checkStudentChoice requires exactly one of an existing student or a new one.
func (ne NewEnrollment) checkStudentChoice() error {
	if (ne.StudentID == "") == (ne.Student == nil) {
		return core.NewValidationError(errStudentChoice,
			core.FieldError{Field: "student_id", Error: errStudentChoice.Error()})
	}
	return nil
}

func (ne *NewEnrollment) Validate(validate *validator.Validate) error {
	ne.StudentID = core.CleanString(ne.StudentID)
	if err := ne.checkStudentChoice(); err != nil {
		return err
	}
	if ne.Student != nil {
		if err := ne.Student.Validate(validate); err != nil {
			return err
		}
		if ne.EmergencyContact != nil {
			if err := ne.EmergencyContact.Validate(validate); err != nil {
				return err
			}
		}
		if ne.Address != nil {
			if err := ne.Address.Validate(validate); err != nil {
				return err
			}
		}
	}
	return validate.Struct(ne)
}

type UpdateEnrollment struct {
	ClassID string `json:"class_id" validate:"required"`
}

func (ue *UpdateEnrollment) Validate(validate *validator.Validate) error {
	return validate.Struct(ue)
}

type Renewal struct {
	PlanID string `json:"plan_id" validate:"required"`
}

func (r *Renewal) Validate(validate *validator.Validate) error {
	return validate.Struct(r)
}

type (
	PaymentView struct {
		payment.Payment
		DisplayStatus payment.Status `json:"display_status"`
	}

	// Detail is an Enrollment with the names it refers to and its payments.
	Detail struct {
		Enrollment
		StudentName  string        `json:"student_name"`
		ClassName    string        `json:"class_name"`
		ModalityName string        `json:"modality_name"`
		PlanName     string        `json:"plan_name"`
		CycleName    string        `json:"cycle_name"`
		Payments     []PaymentView `json:"payments"`
	}

	Summary struct {
		ID           string       `json:"id"`
		Status       Status       `json:"status"`
		ClassName    string       `json:"class_name"`
		ModalityName string       `json:"modality_name"`
		PlanName     string       `json:"plan_name"`
		StartDate    time.Time    `json:"start_date"`
		EndDate      time.Time    `json:"end_date"`
		TimeToExpire string       `json:"time_to_expire"`
		NextPayment  *PaymentView `json:"next_payment"`
	}

	// RosterEntry is a student as listed on the students page.
	RosterEntry struct {
		student.Student
		Status       payment.StudentStatus `json:"status"`
		DaysToExpire string                `json:"days_to_expire"`
		Plans        []string              `json:"plans"`
		Modalities   []string              `json:"modalities"`
		Enrollments  []Summary             `json:"enrollments"`
	}

	RosterFilter struct {
		Name   string                `query:"name"`
		Status payment.StudentStatus `query:"status"`
	}
)
