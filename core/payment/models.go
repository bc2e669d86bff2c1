package payment

import (
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

// Status is the lifecycle of a payment. StatusOverdue is derived at read time and never persisted.
type Status string

const (
	StatusPending  Status = "PENDING"
	StatusPaid     Status = "PAID"
	StatusCanceled Status = "CANCELED"
	StatusOverdue  Status = "OVERDUE"
)

type Payment struct {
	ID           string          `json:"id"`
	EnrollmentID string          `json:"enrollment_id"`
	Amount       decimal.Decimal `json:"amount"`
	DueDate      time.Time       `json:"due_date"`
	Status       Status          `json:"status"`
	PaidAt       *time.Time      `json:"paid_at"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
}

// Detail is a Payment along with who owes it and for what.
type Detail struct {
	Payment
	StudentID      string `json:"student_id"`
	StudentName    string `json:"student_name"`
	StudentPhone   string `json:"student_phone"`
	ClassID        string `json:"class_id"`
	ClassName      string `json:"class_name"`
	ModalityName   string `json:"modality_name"`
	PlanName       string `json:"plan_name"`
	DurationInDays int    `json:"duration_in_days"`
}

type Filter struct {
	IDs             []string
	EnrollmentIDs   []string
	Statuses        []Status
	ExcludeStatuses []Status
	DueFrom         time.Time
	DueTo           time.Time
	PaidFrom        time.Time
	PaidTo          time.Time
}

// QueryFilter is what the payments listing can be narrowed by.
type QueryFilter struct {
	Month  int    `query:"month" validate:"omitempty,min=1,max=12"`
	Year   int    `query:"year" validate:"omitempty,min=2000,max=2100"`
	Status Status `query:"status" validate:"omitempty,oneof=PENDING PAID CANCELED OVERDUE"`
	Search string `query:"search"`
}

func (qf *QueryFilter) Validate(validate *validator.Validate) error {
	return validate.Struct(qf)
}

type UpdatePayment struct {
	Amount  *decimal.Decimal `json:"amount" validate:"omitempty,gte=0"`
	DueDate *time.Time       `json:"due_date"`
	Status  *Status          `json:"status" validate:"omitempty,oneof=PENDING PAID CANCELED"`
}

func (up *UpdatePayment) Validate(validate *validator.Validate) error {
	return validate.Struct(up)
}
