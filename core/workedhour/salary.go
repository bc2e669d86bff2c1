package workedhour

import "github.com/shopspring/decimal"

var sixty = decimal.NewFromInt(60)

// Salary is what a teacher earns, split by source.
type Salary struct {
	Total           decimal.Decimal `json:"total"`
	FromHours       decimal.Decimal `json:"from_hours"`
	FromCommissions decimal.Decimal `json:"from_commissions"`
}

func (s Salary) Add(o Salary) Salary {
	return Salary{
		Total:           s.Total.Add(o.Total),
		FromHours:       s.FromHours.Add(o.FromHours),
		FromCommissions: s.FromCommissions.Add(o.FromCommissions),
	}
}

// Round rounds every part to cents.
func (s Salary) Round() Salary {
	return Salary{
		Total:           s.Total.Round(2),
		FromHours:       s.FromHours.Round(2),
		FromCommissions: s.FromCommissions.Round(2),
	}
}

// TeacherSalary pays minutes at pricePerHour plus commission for each new enrollment,
// rounded to cents.
func TeacherSalary(minutes int, pricePerHour decimal.Decimal, newEnrollments int, commission decimal.Decimal) Salary {
	return salary(minutes, pricePerHour, newEnrollments, commission).Round()
}

func salary(minutes int, pricePerHour decimal.Decimal, newEnrollments int, commission decimal.Decimal) Salary {
	fromHours := decimal.NewFromInt(int64(minutes)).Mul(pricePerHour).Div(sixty)
	fromCommissions := decimal.NewFromInt(int64(newEnrollments)).Mul(commission)
	return Salary{
		Total:           fromHours.Add(fromCommissions),
		FromHours:       fromHours,
		FromCommissions: fromCommissions,
	}
}

// earned is the unrounded salary of a single worked hour, at its price snapshot.
func earned(wh WorkedHour, commission decimal.Decimal) Salary {
	return salary(wh.Duration, wh.PriceSnapshot, wh.NewEnrollments, commission)
}

// Of returns the salary earned for a single worked hour, at its price snapshot.
func Of(wh WorkedHour, commission decimal.Decimal) Salary {
	return earned(wh, commission).Round()
}

// SumSalaries totals the salaries of records. Each record is paid at its own PriceSnapshot,
// never at the teacher's current rate. Only the total is rounded.
func SumSalaries(records []WorkedHour, commission decimal.Decimal) Salary {
	sum := Salary{Total: decimal.Zero, FromHours: decimal.Zero, FromCommissions: decimal.Zero}
	for _, wh := range records {
		sum = sum.Add(earned(wh, commission))
	}
	return sum.Round()
}
