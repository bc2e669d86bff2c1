package dashboard

import (
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"github.com/lunedance/lune/core/payment"
	"github.com/lunedance/lune/core/stats"
)

type Query struct {
	Month int `query:"month" validate:"omitempty,min=1,max=12"`
	Year  int `query:"year" validate:"omitempty,min=2000,max=2100"`
}

func (q *Query) Validate(validate *validator.Validate) error {
	return validate.Struct(q)
}

type (
	RevenueCard struct {
		Value            decimal.Decimal `json:"value"`
		FromEnrollments  decimal.Decimal `json:"from_enrollments"`
		FromTrialClasses decimal.Decimal `json:"from_trial_classes"`
		Trend            stats.Trend     `json:"trend"`
	}

	ProfitCard struct {
		Value         decimal.Decimal `json:"value"`
		TeacherCosts  decimal.Decimal `json:"teacher_costs"`
		ExpensesCosts decimal.Decimal `json:"expenses_costs"`
		Trend         stats.Trend     `json:"trend"`
	}

	EnrollmentsToClassesCard struct {
		Value       decimal.Decimal `json:"value"`
		Enrollments int             `json:"enrollments"`
		Classes     int             `json:"classes"`
		Trend       stats.Trend     `json:"trend"`
	}

	TrialClassesCard struct {
		Value     int         `json:"value"`
		Scheduled int         `json:"scheduled"`
		Completed int         `json:"completed"`
		Trend     stats.Trend `json:"trend"`
	}

	Cards struct {
		TotalRevenue         RevenueCard              `json:"total_revenue"`
		Profit               ProfitCard               `json:"profit"`
		TotalToReceive       RevenueCard              `json:"total_to_receive"`
		EnrollmentsToClasses EnrollmentsToClassesCard `json:"enrollments_to_classes"`
		TrialClasses         TrialClassesCard         `json:"trial_classes"`
	}

	ChartPoint struct {
		Date    string          `json:"date"` // YYYY-MM
		Revenue decimal.Decimal `json:"revenue"`
	}

	ModalityStats struct {
		ID                  string          `json:"id"`
		Name                string          `json:"name"`
		Classes             int             `json:"classes"`
		Enrollments         int             `json:"enrollments"`
		TrialClasses        int             `json:"trial_classes"`
		TotalStudents       int             `json:"total_students"`
		AvgStudentsPerClass decimal.Decimal `json:"avg_students_per_class"`
	}

	// Financial is the financial dashboard of a month.
	Financial struct {
		Cards      Cards           `json:"cards"`
		Chart      []ChartPoint    `json:"chart"`
		Payments   []payment.View  `json:"payments"`
		Modalities []ModalityStats `json:"modalities"`
		Month      string          `json:"month"`
	}
)
