package plan

import (
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"github.com/lunedance/lune/core"
)

type Plan struct {
	ID             string          `json:"id"`
	Name           string          `json:"name"`
	WeeklyClasses  int             `json:"weekly_classes"`
	Description    string          `json:"description"`
	Price          decimal.Decimal `json:"price"`
	DurationInDays int             `json:"duration_in_days"`
	IsActive       bool            `json:"is_active"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
}

func (p Plan) Cycle() (Cycle, error) {
	return ParseCycle(p.DurationInDays)
}

// MonthlyPrice spreads the plan price over its months.
func (p Plan) MonthlyPrice() decimal.Decimal {
	c, err := p.Cycle()
	if err != nil {
		return p.Price
	}
	return p.Price.Div(decimal.NewFromInt(int64(c.Months()))).Round(2)
}

// WithEnrollments is a Plan listed along with how many enrollments use it.
type WithEnrollments struct {
	Plan
	EnrollmentsQuantity int `json:"enrollments_quantity"`
}

type NewPlan struct {
	Name           string          `json:"name" validate:"required"`
	WeeklyClasses  int             `json:"weekly_classes" validate:"min=1,max=7"`
	Description    string          `json:"description"`
	Price          decimal.Decimal `json:"price" validate:"gte=0"`
	DurationInDays int             `json:"duration_in_days" validate:"oneof=30 90 180"`
	IsActive       *bool           `json:"is_active"`
}

func (np *NewPlan) Validate(validate *validator.Validate) error {
	np.Name = core.CleanString(np.Name)
	np.Description = core.CleanString(np.Description)
	return validate.Struct(np)
}

type UpdatePlan struct {
	Name           *string          `json:"name" validate:"omitempty,min=1"`
	WeeklyClasses  *int             `json:"weekly_classes" validate:"omitempty,min=1,max=7"`
	Description    *string          `json:"description"`
	Price          *decimal.Decimal `json:"price" validate:"omitempty,gte=0"`
	DurationInDays *int             `json:"duration_in_days" validate:"omitempty,oneof=30 90 180"`
	IsActive       *bool            `json:"is_active"`
}

func (up *UpdatePlan) Validate(validate *validator.Validate) error {
	if up.Name != nil {
		name := core.CleanString(*up.Name)
		up.Name = &name
	}
	return validate.Struct(up)
}

type Filter struct {
	Name     string `query:"name"`
	IsActive *bool  `query:"is_active"`
}
