package settings

import (
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

// Settings is the school-wide singleton of prices used by salaries and revenue.
type Settings struct {
	ID                             string          `json:"id"`
	TrialClassPrice                decimal.Decimal `json:"trial_class_price"`
	TeacherCommissionPerEnrollment decimal.Decimal `json:"teacher_commission_per_enrollment"`
	TeacherCommissionPerTrialClass decimal.Decimal `json:"teacher_commission_per_trial_class"`
	CreatedAt                      time.Time       `json:"created_at"`
	UpdatedAt                      time.Time       `json:"updated_at"`
}

func defaults() Settings {
	return Settings{
		TrialClassPrice:                decimal.NewFromInt(40),
		TeacherCommissionPerEnrollment: decimal.NewFromInt(20),
		TeacherCommissionPerTrialClass: decimal.Zero,
	}
}

type UpdateSettings struct {
	TrialClassPrice                *decimal.Decimal `json:"trial_class_price" validate:"omitempty,gte=0"`
	TeacherCommissionPerEnrollment *decimal.Decimal `json:"teacher_commission_per_enrollment" validate:"omitempty,gte=0"`
	TeacherCommissionPerTrialClass *decimal.Decimal `json:"teacher_commission_per_trial_class" validate:"omitempty,gte=0"`
}

func (us *UpdateSettings) Validate(validate *validator.Validate) error {
	return validate.Struct(us)
}
