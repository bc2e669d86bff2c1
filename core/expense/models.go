package expense

import (
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"github.com/lunedance/lune/core"
)

type Status string

const (
	StatusPending Status = "PENDING"
	StatusPaid    Status = "PAID"
	StatusOverdue Status = "OVERDUE"
)

// Expense is a monthly recurring cost of the school, due on DueDay.
type Expense struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Category    string          `json:"category"`
	Amount      decimal.Decimal `json:"amount"`
	DueDay      int             `json:"due_day"`
	Status      Status          `json:"status"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

type Filter struct {
	Statuses []Status
	// CreatedBefore keeps the expenses created up to this instant.
	CreatedBefore time.Time
}

type NewExpense struct {
	Name        string          `json:"name" validate:"required"`
	Description string          `json:"description"`
	Category    string          `json:"category"`
	Amount      decimal.Decimal `json:"amount" validate:"gt=0"`
	DueDay      int             `json:"due_day" validate:"min=1,max=31"`
	Status      Status          `json:"status" validate:"omitempty,oneof=PENDING PAID OVERDUE"`
}

func (ne *NewExpense) Validate(validate *validator.Validate) error {
	ne.Name = core.CleanString(ne.Name)
	ne.Category = core.CleanString(ne.Category)
	return validate.Struct(ne)
}

type UpdateExpense struct {
	Name        *string          `json:"name" validate:"omitempty,min=1"`
	Description *string          `json:"description"`
	Category    *string          `json:"category"`
	Amount      *decimal.Decimal `json:"amount" validate:"omitempty,gt=0"`
	DueDay      *int             `json:"due_day" validate:"omitempty,min=1,max=31"`
	Status      *Status          `json:"status" validate:"omitempty,oneof=PENDING PAID OVERDUE"`
}

func (ue *UpdateExpense) Validate(validate *validator.Validate) error {
	return validate.Struct(ue)
}
