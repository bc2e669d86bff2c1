// Package dashboard computes the financial dashboard from reads issued concurrently.
package dashboard

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"
	"github.com/sourcegraph/conc/pool"

	"github.com/lunedance/lune/core/calendar"
	"github.com/lunedance/lune/core/class"
	"github.com/lunedance/lune/core/enrollment"
	"github.com/lunedance/lune/core/expense"
	"github.com/lunedance/lune/core/grid"
	"github.com/lunedance/lune/core/payment"
	"github.com/lunedance/lune/core/settings"
	"github.com/lunedance/lune/core/stats"
	"github.com/lunedance/lune/core/trial"
	"github.com/lunedance/lune/core/workedhour"
)

const chartMonths = 4

type (
	Repository interface {
		ListPayments(ctx context.Context, filter payment.Filter) ([]payment.Payment, error)
		ListPaymentDetails(ctx context.Context, filter payment.Filter) ([]payment.Detail, error)
		ListTrials(ctx context.Context, filter trial.Filter) ([]trial.Trial, error)
		ListExpenses(ctx context.Context, filter expense.Filter) ([]expense.Expense, error)
		ListEnrollments(ctx context.Context, filter enrollment.Filter) ([]enrollment.Enrollment, error)
		ListModalities(ctx context.Context, filter class.NameFilter) ([]class.Modality, error)
		ListClasses(ctx context.Context, filter class.Filter) ([]class.Class, error)
		ListGridItems(ctx context.Context, filter grid.Filter) ([]grid.Item, error)
	}

	Service struct {
		repo     Repository
		settings *settings.Service
		hours    *workedhour.Service
		now      calendar.Clock
	}
)

func NewService(repo Repository, settings *settings.Service, hours *workedhour.Service, now calendar.Clock) *Service {
	return &Service{repo: repo, settings: settings, hours: hours, now: now}
}

// figures are the numbers of a month the cards are made of.
type figures struct {
	payments        []payment.Detail
	received        decimal.Decimal
	pending         decimal.Decimal
	trialRevenue    decimal.Decimal
	trialExpected   decimal.Decimal
	teacherCosts    decimal.Decimal
	expenses        decimal.Decimal
	scheduledTrials int
	completedTrials int
	trials          int
	enrollments     int
	classes         int
}

func (f figures) revenue() decimal.Decimal   { return f.received.Add(f.trialRevenue) }
func (f figures) toReceive() decimal.Decimal { return f.pending.Add(f.trialExpected) }
func (f figures) costs() decimal.Decimal     { return f.teacherCosts.Add(f.expenses) }
func (f figures) profit() decimal.Decimal    { return f.revenue().Sub(f.costs()) }

func (f figures) studentsPerClass() decimal.Decimal {
	if f.classes == 0 {
		return decimal.Zero
	}
	return decimal.NewFromInt(int64(f.enrollments)).Div(decimal.NewFromInt(int64(f.classes))).Round(2)
}

// completed tells whether a trial took place: neither still scheduled nor cancelled.
func completed(t trial.Trial) bool {
	return t.Status != trial.StatusScheduled && t.Status != trial.StatusCancelled
}

func sumAmounts(payments []payment.Detail, keep func(payment.Detail) bool) decimal.Decimal {
	sum := decimal.Zero
	for _, p := range payments {
		if keep(p) {
			sum = sum.Add(p.Amount)
		}
	}
	return sum
}

func (svc *Service) monthFigures(ctx context.Context, s settings.Settings, from, to time.Time) (figures, error) {
	var (
		f         figures
		trials    []trial.Trial
		hours     []workedhour.WorkedHour
		expenses  []expense.Expense
		enrolled  []enrollment.Enrollment
		trialCost = s.TrialClassPrice
	)
	p := pool.New().WithErrors().WithContext(ctx)
	p.Go(func(ctx context.Context) (err error) {
		f.payments, err = svc.repo.ListPaymentDetails(ctx, payment.Filter{
			DueFrom:         from,
			DueTo:           to,
			ExcludeStatuses: []payment.Status{payment.StatusCanceled},
		})
		return errors.Wrap(err, "listing payments")
	})
	p.Go(func(ctx context.Context) (err error) {
		trials, err = svc.repo.ListTrials(ctx, trial.Filter{From: from, To: to})
		return errors.Wrap(err, "listing trials")
	})
	p.Go(func(ctx context.Context) (err error) {
		hours, err = svc.hours.ListDone(ctx, from, to)
		return errors.Wrap(err, "listing worked hours")
	})
	p.Go(func(ctx context.Context) (err error) {
		expenses, err = svc.repo.ListExpenses(ctx, expense.Filter{CreatedBefore: to})
		return errors.Wrap(err, "listing expenses")
	})
	p.Go(func(ctx context.Context) (err error) {
		enrolled, err = svc.repo.ListEnrollments(ctx, enrollment.Filter{
			Statuses: []enrollment.Status{enrollment.StatusActive},
		})
		return errors.Wrap(err, "listing enrollments")
	})
	if err := p.Wait(); err != nil {
		return figures{}, err
	}

	f.received = sumAmounts(f.payments, func(p payment.Detail) bool { return p.Status == payment.StatusPaid })
	f.pending = sumAmounts(f.payments, func(p payment.Detail) bool { return p.Status != payment.StatusPaid })

	f.scheduledTrials = lo.CountBy(trials, func(t trial.Trial) bool { return t.Status == trial.StatusScheduled })
	f.completedTrials = lo.CountBy(trials, completed)
	f.trials = lo.CountBy(trials, func(t trial.Trial) bool { return t.Status != trial.StatusCancelled })
	f.trialRevenue = trialCost.Mul(decimal.NewFromInt(int64(f.completedTrials)))
	f.trialExpected = trialCost.Mul(decimal.NewFromInt(int64(f.scheduledTrials)))

	f.teacherCosts = workedhour.SumSalaries(hours, s.TeacherCommissionPerEnrollment).Total
	f.expenses = decimal.Zero
	for _, e := range expenses {
		f.expenses = f.expenses.Add(e.Amount)
	}

	active := lo.Filter(enrolled, func(e enrollment.Enrollment, _ int) bool { return !e.UpdatedAt.After(to) })
	f.enrollments = len(active)
	f.classes = len(lo.Uniq(lo.FilterMap(active, func(e enrollment.Enrollment, _ int) (string, bool) {
		return lo.FromPtr(e.ClassID), e.ClassID != nil
	})))
	return f, nil
}

// Financial returns the dashboard of a month, the current one by default.
func (svc *Service) Financial(ctx context.Context, q Query) (Financial, error) {
	now := calendar.Local(svc.now())
	year, month := q.Year, time.Month(q.Month)
	if year == 0 {
		year = now.Year()
	}
	if month == 0 {
		month = now.Month()
	}
	from, to := calendar.MonthRange(year, month)
	prevFrom, prevTo := calendar.MonthRange(year, month-1)

	s, err := svc.settings.Get(ctx)
	if err != nil {
		return Financial{}, errors.Wrap(err, "getting settings")
	}

	var (
		current, previous figures
		chart             []ChartPoint
		modalities        []ModalityStats
	)
	p := pool.New().WithErrors().WithContext(ctx)
	p.Go(func(ctx context.Context) (err error) {
		current, err = svc.monthFigures(ctx, s, from, to)
		return err
	})
	p.Go(func(ctx context.Context) (err error) {
		previous, err = svc.monthFigures(ctx, s, prevFrom, prevTo)
		return err
	})
	p.Go(func(ctx context.Context) (err error) {
		chart, err = svc.chart(ctx, s, year, month)
		return err
	})
	p.Go(func(ctx context.Context) (err error) {
		modalities, err = svc.modalityStats(ctx, from, to)
		return err
	})
	if err = p.Wait(); err != nil {
		return Financial{}, err
	}

	views := lo.Map(current.payments, func(d payment.Detail, _ int) payment.View {
		return payment.View{Detail: d, DisplayStatus: payment.EffectiveStatus(d.Payment, svc.now())}
	})
	payment.SortViews(views)

	return Financial{
		Cards: Cards{
			TotalRevenue: RevenueCard{
				Value:            current.revenue(),
				FromEnrollments:  current.received,
				FromTrialClasses: current.trialRevenue,
				Trend:            stats.CalcTrend(current.revenue(), previous.revenue()),
			},
			Profit: ProfitCard{
				Value:         current.profit(),
				TeacherCosts:  current.teacherCosts,
				ExpensesCosts: current.expenses,
				Trend:         stats.CalcTrend(current.profit(), previous.profit()),
			},
			TotalToReceive: RevenueCard{
				Value:            current.toReceive(),
				FromEnrollments:  current.pending,
				FromTrialClasses: current.trialExpected,
				Trend:            stats.CalcTrend(current.toReceive(), previous.toReceive()),
			},
			EnrollmentsToClasses: EnrollmentsToClassesCard{
				Value:       current.studentsPerClass(),
				Enrollments: current.enrollments,
				Classes:     current.classes,
				Trend:       stats.CalcTrend(current.studentsPerClass(), previous.studentsPerClass()),
			},
			TrialClasses: TrialClassesCard{
				Value:     current.trials,
				Scheduled: current.scheduledTrials,
				Completed: current.completedTrials,
				Trend: stats.CalcTrend(
					decimal.NewFromInt(int64(current.trials)),
					decimal.NewFromInt(int64(previous.trials)),
				),
			},
		},
		Chart:      chart,
		Payments:   views,
		Modalities: modalities,
		Month:      calendar.MonthLabel(from),
	}, nil
}

// chart returns the revenue of the last months up to (year, month), oldest first:
// payments received plus trial classes that took place.
func (svc *Service) chart(ctx context.Context, s settings.Settings, year int, month time.Month) ([]ChartPoint, error) {
	points := make([]ChartPoint, chartMonths)
	p := pool.New().WithErrors().WithContext(ctx)
	for i := 0; i < chartMonths; i++ {
		i := i
		from, to := calendar.MonthRange(year, month-time.Month(chartMonths-1-i))
		p.Go(func(ctx context.Context) error {
			paid, err := svc.repo.ListPayments(ctx, payment.Filter{
				Statuses: []payment.Status{payment.StatusPaid},
				DueFrom:  from,
				DueTo:    to,
			})
			if err != nil {
				return errors.Wrap(err, "listing paid payments")
			}
			trials, err := svc.repo.ListTrials(ctx, trial.Filter{From: from, To: to})
			if err != nil {
				return errors.Wrap(err, "listing trials")
			}
			revenue := s.TrialClassPrice.Mul(decimal.NewFromInt(int64(lo.CountBy(trials, completed))))
			for _, pm := range paid {
				revenue = revenue.Add(pm.Amount)
			}
			points[i] = ChartPoint{Date: from.Format("2006-01"), Revenue: revenue}
			return nil
		})
	}
	if err := p.Wait(); err != nil {
		return nil, err
	}
	return points, nil
}

// modalityStats reports, per modality, the classes with active enrollments and the students
// they reach, counting the month's trial classes.
func (svc *Service) modalityStats(ctx context.Context, from, to time.Time) ([]ModalityStats, error) {
	mods, err := svc.repo.ListModalities(ctx, class.NameFilter{})
	if err != nil {
		return nil, errors.Wrap(err, "listing modalities")
	}
	classes, err := svc.repo.ListClasses(ctx, class.Filter{})
	if err != nil {
		return nil, errors.Wrap(err, "listing classes")
	}
	items, err := svc.repo.ListGridItems(ctx, grid.Filter{})
	if err != nil {
		return nil, errors.Wrap(err, "listing grid items")
	}
	enrolled, err := svc.repo.ListEnrollments(ctx, enrollment.Filter{
		Statuses: []enrollment.Status{enrollment.StatusActive},
	})
	if err != nil {
		return nil, errors.Wrap(err, "listing enrollments")
	}
	trials, err := svc.repo.ListTrials(ctx, trial.Filter{
		From:            from,
		To:              to,
		ExcludeStatuses: []trial.Status{trial.StatusCancelled},
	})
	if err != nil {
		return nil, errors.Wrap(err, "listing trials")
	}

	enrollmentsByClass := lo.CountValuesBy(enrolled, func(e enrollment.Enrollment) string { return lo.FromPtr(e.ClassID) })
	trialsByItem := lo.CountValuesBy(trials, func(t trial.Trial) string { return t.GridItemID })
	trialsByClass := make(map[string]int)
	for _, it := range items {
		trialsByClass[it.ClassID] += trialsByItem[it.ID]
	}
	classesByModality := lo.GroupBy(classes, func(c class.Class) string { return c.ModalityID })

	return lo.Map(mods, func(m class.Modality, _ int) ModalityStats {
		ms := ModalityStats{ID: m.ID, Name: m.Name, AvgStudentsPerClass: decimal.Zero}
		for _, c := range classesByModality[m.ID] {
			if n := enrollmentsByClass[c.ID]; n > 0 {
				ms.Classes++
				ms.Enrollments += n
			}
			ms.TrialClasses += trialsByClass[c.ID]
		}
		ms.TotalStudents = ms.Enrollments + ms.TrialClasses
		if ms.Classes > 0 {
			ms.AvgStudentsPerClass = decimal.NewFromInt(int64(ms.TotalStudents)).
				Div(decimal.NewFromInt(int64(ms.Classes))).Round(2)
		}
		return ms
	}), nil
}
