package enrollment

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"

	"github.com/lunedance/lune/core"
	"github.com/lunedance/lune/core/calendar"
	"github.com/lunedance/lune/core/class"
	"github.com/lunedance/lune/core/payment"
	"github.com/lunedance/lune/core/plan"
	"github.com/lunedance/lune/core/student"
)

var (
	ErrNotFound       = core.NewNotFoundError("enrollment")
	ErrActiveNotFound = core.NewNotFoundError("active enrollment")
)

type (
	Repository interface {
		core.Transactor

		CreateEnrollment(ctx context.Context, e Enrollment) (Enrollment, error)
		GetEnrollment(ctx context.Context, id string) (Enrollment, error)
		ListEnrollments(ctx context.Context, filter Filter) ([]Enrollment, error)
		UpdateEnrollment(ctx context.Context, e Enrollment) (Enrollment, error)
		// DeleteEnrollment removes an enrollment with its payments.
		DeleteEnrollment(ctx context.Context, id string) error

		CreatePayments(ctx context.Context, payments []payment.Payment) ([]payment.Payment, error)
		ListPayments(ctx context.Context, filter payment.Filter) ([]payment.Payment, error)
		// CancelPendingPayments moves the PENDING payments of an enrollment to CANCELED.
		CancelPendingPayments(ctx context.Context, enrollmentID string, at time.Time) (int, error)

		GetStudent(ctx context.Context, id string) (student.Student, error)
		ListStudents(ctx context.Context, filter student.Filter) ([]student.Student, error)
		GetPlan(ctx context.Context, id string) (plan.Plan, error)
		ListPlans(ctx context.Context, filter plan.Filter) ([]plan.Plan, error)
		GetClass(ctx context.Context, id string) (class.Class, error)
		ListClasses(ctx context.Context, filter class.Filter) ([]class.Class, error)
		ListModalities(ctx context.Context, filter class.NameFilter) ([]class.Modality, error)
	}

	Service struct {
		repo     Repository
		students *student.Service
		now      calendar.Clock
		tax      decimal.Decimal
	}
)

// NewService returns the enrollment orchestrator. tax is charged upfront to brand-new students.
func NewService(repo Repository, students *student.Service, now calendar.Clock, conf *core.Config) *Service {
	return &Service{
		repo:     repo,
		students: students,
		now:      now,
		tax:      decimal.NewFromFloat(conf.EnrollmentTax),
	}
}

// Create enrolls a student in a class under a plan and generates the payment schedule.
// A new student is created along with their emergency contact and address.
func (svc *Service) Create(ctx context.Context, ne NewEnrollment) (Detail, error) {
	if err := ne.checkStudentChoice(); err != nil {
		return Detail{}, err
	}

	var enrollmentID string
	err := svc.repo.WithTx(ctx, func(ctx context.Context) error {
		if _, err := svc.repo.GetClass(ctx, ne.ClassID); err != nil {
			return err
		}
		p, err := svc.repo.GetPlan(ctx, ne.PlanID)
		if err != nil {
			return err
		}

		studentID, tax := ne.StudentID, decimal.Zero
		if studentID != "" {
			if _, err = svc.repo.GetStudent(ctx, studentID); err != nil {
				return err
			}
		} else {
			s, err := svc.newStudent(ctx, ne)
			if err != nil {
				return err
			}
			studentID, tax = s.ID, svc.tax
		}

		enr, err := svc.enroll(ctx, enrollTerms{
			studentID:  studentID,
			classID:    ne.ClassID,
			paymentDay: ne.PaymentDay,
			start:      ne.StartDate,
			plan:       p,
			tax:        tax,
		})
		if err != nil {
			return err
		}
		enrollmentID = enr.ID
		return nil
	})
	if err != nil {
		return Detail{}, err
	}
	return svc.Get(ctx, enrollmentID)
}

func (svc *Service) newStudent(ctx context.Context, ne NewEnrollment) (student.Student, error) {
	s, err := svc.students.Create(ctx, *ne.Student)
	if err != nil {
		return student.Student{}, errors.Wrap(err, "creating student")
	}
	if ne.EmergencyContact != nil {
		if _, err = svc.students.AddEmergencyContact(ctx, s.ID, *ne.EmergencyContact); err != nil {
			return student.Student{}, errors.Wrap(err, "creating emergency contact")
		}
	}
	if ne.Address != nil {
		if _, err = svc.students.SaveAddress(ctx, s.ID, *ne.Address); err != nil {
			return student.Student{}, errors.Wrap(err, "creating address")
		}
	}
	return s, nil
}

type enrollTerms struct {
	studentID  string
	classID    string
	paymentDay int
	start      time.Time
	plan       plan.Plan
	tax        decimal.Decimal
}

// enroll stores an active enrollment with its payments. It must run inside a transaction.
func (svc *Service) enroll(ctx context.Context, t enrollTerms) (Enrollment, error) {
	cycle, err := t.plan.Cycle()
	if err != nil {
		return Enrollment{}, core.NewValidationError(err,
			core.FieldError{Field: "plan_id", Error: err.Error()})
	}

	now := svc.now()
	start, end := plan.DateRange(t.start, cycle)
	classID := t.classID
	enr, err := svc.repo.CreateEnrollment(ctx, Enrollment{
		ID:         core.NewID(),
		StudentID:  t.studentID,
		PlanID:     t.plan.ID,
		ClassID:    &classID,
		StartDate:  start,
		EndDate:    end,
		PaymentDay: t.paymentDay,
		Status:     StatusActive,
		CreatedAt:  now,
		UpdatedAt:  now,
	})
	if err != nil {
		return Enrollment{}, errors.Wrap(err, "creating enrollment")
	}

	payments, err := payment.Generate(
		payment.ScheduleInput{EnrollmentID: enr.ID, StartDate: start, PaymentDay: t.paymentDay},
		payment.Terms{DurationInDays: t.plan.DurationInDays, Price: t.plan.Price},
		t.tax,
		now,
	)
	if err != nil {
		return Enrollment{}, core.NewValidationError(err,
			core.FieldError{Field: "payment_day", Error: err.Error()})
	}
	if _, err = svc.repo.CreatePayments(ctx, payments); err != nil {
		return Enrollment{}, errors.Wrap(err, "creating payments")
	}
	return enr, nil
}

// Renew archives an active enrollment and replaces it with a new one under the given plan,
// starting today. It is refused while a payment of the enrollment is past due.
func (svc *Service) Renew(ctx context.Context, id string, r Renewal) (Detail, error) {
	var renewedID string
	err := svc.repo.WithTx(ctx, func(ctx context.Context) error {
		old, err := svc.getActive(ctx, id)
		if err != nil {
			return err
		}

		now := svc.now()
		payments, err := svc.repo.ListPayments(ctx, payment.Filter{EnrollmentIDs: []string{id}})
		if err != nil {
			return errors.Wrap(err, "listing payments")
		}
		if _, late := lo.Find(payments, func(p payment.Payment) bool {
			return p.Status != payment.StatusPaid && p.DueDate.Before(now)
		}); late {
			return core.NewConflictError("enrollment has overdue payments")
		}

		p, err := svc.repo.GetPlan(ctx, r.PlanID)
		if err != nil {
			return err
		}
		enr, err := svc.enroll(ctx, enrollTerms{
			studentID:  old.StudentID,
			classID:    lo.FromPtr(old.ClassID),
			paymentDay: old.PaymentDay,
			start:      now,
			plan:       p,
			tax:        decimal.Zero,
		})
		if err != nil {
			return err
		}

		old.Status = StatusArchived
		old.UpdatedAt = now
		if _, err = svc.repo.UpdateEnrollment(ctx, old); err != nil {
			return errors.Wrap(err, "archiving enrollment")
		}
		renewedID = enr.ID
		return nil
	})
	if err != nil {
		return Detail{}, err
	}
	return svc.Get(ctx, renewedID)
}

// Cancel cancels an active enrollment together with its pending payments. Paid ones are kept.
func (svc *Service) Cancel(ctx context.Context, id string) (Enrollment, error) {
	var enr Enrollment
	err := svc.repo.WithTx(ctx, func(ctx context.Context) error {
		var err error
		if enr, err = svc.getActive(ctx, id); err != nil {
			return err
		}
		now := svc.now()
		enr.Status = StatusCanceled
		enr.UpdatedAt = now
		if enr, err = svc.repo.UpdateEnrollment(ctx, enr); err != nil {
			return errors.Wrap(err, "canceling enrollment")
		}
		if _, err = svc.repo.CancelPendingPayments(ctx, id, now); err != nil {
			return errors.Wrap(err, "canceling payments")
		}
		return nil
	})
	return enr, err
}

func (svc *Service) getActive(ctx context.Context, id string) (Enrollment, error) {
	enr, err := svc.repo.GetEnrollment(ctx, id)
	if errors.Cause(err) == ErrNotFound || (err == nil && enr.Status != StatusActive) {
		return Enrollment{}, ErrActiveNotFound
	}
	return enr, err
}

// Update moves an enrollment to another class.
func (svc *Service) Update(ctx context.Context, id string, ue UpdateEnrollment) (Detail, error) {
	enr, err := svc.repo.GetEnrollment(ctx, id)
	if err != nil {
		return Detail{}, err
	}
	if _, err = svc.repo.GetClass(ctx, ue.ClassID); err != nil {
		return Detail{}, err
	}
	enr.ClassID = &ue.ClassID
	enr.UpdatedAt = svc.now()
	if _, err = svc.repo.UpdateEnrollment(ctx, enr); err != nil {
		return Detail{}, err
	}
	return svc.Get(ctx, id)
}

// Get returns an enrollment with its names and its payments in effective status, by due date.
func (svc *Service) Get(ctx context.Context, id string) (Detail, error) {
	enr, err := svc.repo.GetEnrollment(ctx, id)
	if err != nil {
		return Detail{}, err
	}
	d := Detail{Enrollment: enr}

	s, err := svc.repo.GetStudent(ctx, enr.StudentID)
	if err != nil {
		return Detail{}, errors.Wrap(err, "getting student")
	}
	d.StudentName = s.FullName()

	p, err := svc.repo.GetPlan(ctx, enr.PlanID)
	if err != nil {
		return Detail{}, errors.Wrap(err, "getting plan")
	}
	d.PlanName = p.Name
	if cycle, err := p.Cycle(); err == nil {
		d.CycleName = cycle.Name()
	}

	if enr.ClassID != nil {
		switch c, err := svc.repo.GetClass(ctx, *enr.ClassID); {
		case err == nil:
			d.ClassName = c.Name
			mods, err := svc.repo.ListModalities(ctx, class.NameFilter{IDs: []string{c.ModalityID}})
			if err != nil {
				return Detail{}, errors.Wrap(err, "listing modalities")
			}
			if len(mods) > 0 {
				d.ModalityName = mods[0].Name
			}
		case errors.Cause(err) != class.ErrNotFound:
			return Detail{}, errors.Wrap(err, "getting class")
		}
	}

	payments, err := svc.repo.ListPayments(ctx, payment.Filter{EnrollmentIDs: []string{id}})
	if err != nil {
		return Detail{}, errors.Wrap(err, "listing payments")
	}
	d.Payments = paymentViews(payments, svc.now())
	return d, nil
}

func paymentViews(payments []payment.Payment, now time.Time) []PaymentView {
	sort.SliceStable(payments, func(i, j int) bool {
		return payments[i].DueDate.Before(payments[j].DueDate)
	})
	return lo.Map(payments, func(p payment.Payment, _ int) PaymentView {
		return PaymentView{Payment: p, DisplayStatus: payment.EffectiveStatus(p, now)}
	})
}

func (svc *Service) Remove(ctx context.Context, id string) error {
	if _, err := svc.repo.GetEnrollment(ctx, id); err != nil {
		return err
	}
	return svc.repo.DeleteEnrollment(ctx, id)
}

// Roster lists students with the status of their payments, sorted by name, CANCELED last.
func (svc *Service) Roster(ctx context.Context, rf RosterFilter) ([]RosterEntry, error) {
	students, err := svc.repo.ListStudents(ctx, student.Filter{Name: core.CleanString(rf.Name)})
	if err != nil {
		return nil, errors.Wrap(err, "listing students")
	}
	if len(students) == 0 {
		return []RosterEntry{}, nil
	}

	enrollments, err := svc.repo.ListEnrollments(ctx, Filter{
		StudentIDs: lo.Map(students, func(s student.Student, _ int) string { return s.ID }),
	})
	if err != nil {
		return nil, errors.Wrap(err, "listing enrollments")
	}
	payments, err := svc.repo.ListPayments(ctx, payment.Filter{
		EnrollmentIDs: lo.Map(enrollments, func(e Enrollment, _ int) string { return e.ID }),
	})
	if err != nil {
		return nil, errors.Wrap(err, "listing payments")
	}
	names, err := svc.lookupNames(ctx)
	if err != nil {
		return nil, err
	}

	now := svc.now()
	byStudent := lo.GroupBy(enrollments, func(e Enrollment) string { return e.StudentID })
	byEnrollment := lo.GroupBy(payments, func(p payment.Payment) string { return p.EnrollmentID })

	roster := make([]RosterEntry, 0, len(students))
	for _, s := range students {
		entry := RosterEntry{Student: s, Plans: []string{}, Modalities: []string{}, Enrollments: []Summary{}}
		var schedules [][]payment.Payment
		var lastEnd time.Time
		for _, e := range byStudent[s.ID] {
			schedules = append(schedules, byEnrollment[e.ID])
			sum := names.summarize(e, byEnrollment[e.ID], now)
			entry.Enrollments = append(entry.Enrollments, sum)
			if e.Status != StatusActive {
				continue
			}
			entry.Plans = append(entry.Plans, sum.PlanName)
			if sum.ModalityName != "" {
				entry.Modalities = append(entry.Modalities, sum.ModalityName)
			}
			if e.EndDate.After(lastEnd) {
				lastEnd = e.EndDate
			}
		}
		entry.Plans = lo.Uniq(entry.Plans)
		entry.Modalities = lo.Uniq(entry.Modalities)
		entry.Status = payment.AggregateStatus(schedules, now)
		if !lastEnd.IsZero() {
			entry.DaysToExpire = calendar.TimeToExpire(lastEnd, now)
		}
		if rf.Status == "" || rf.Status == entry.Status {
			roster = append(roster, entry)
		}
	}

	sort.SliceStable(roster, func(i, j int) bool {
		ci, cj := roster[i].Status == payment.StudentCanceled, roster[j].Status == payment.StudentCanceled
		if ci != cj {
			return cj
		}
		return strings.ToLower(roster[i].FullName()) < strings.ToLower(roster[j].FullName())
	})
	return roster, nil
}

type lookup struct {
	classes    map[string]class.Class
	modalities map[string]string
	plans      map[string]string
}

func (svc *Service) lookupNames(ctx context.Context) (lookup, error) {
	classes, err := svc.repo.ListClasses(ctx, class.Filter{})
	if err != nil {
		return lookup{}, errors.Wrap(err, "listing classes")
	}
	mods, err := svc.repo.ListModalities(ctx, class.NameFilter{})
	if err != nil {
		return lookup{}, errors.Wrap(err, "listing modalities")
	}
	plans, err := svc.repo.ListPlans(ctx, plan.Filter{})
	if err != nil {
		return lookup{}, errors.Wrap(err, "listing plans")
	}
	return lookup{
		classes: lo.KeyBy(classes, func(c class.Class) string { return c.ID }),
		modalities: lo.SliceToMap(mods, func(m class.Modality) (string, string) {
			return m.ID, m.Name
		}),
		plans: lo.SliceToMap(plans, func(p plan.Plan) (string, string) {
			return p.ID, p.Name
		}),
	}, nil
}

func (l lookup) summarize(e Enrollment, payments []payment.Payment, now time.Time) Summary {
	sum := Summary{
		ID:           e.ID,
		Status:       e.Status,
		PlanName:     l.plans[e.PlanID],
		StartDate:    e.StartDate,
		EndDate:      e.EndDate,
		TimeToExpire: calendar.TimeToExpire(e.EndDate, now),
	}
	if c, ok := l.classes[lo.FromPtr(e.ClassID)]; ok {
		sum.ClassName = c.Name
		sum.ModalityName = l.modalities[c.ModalityID]
	}
	for _, v := range paymentViews(payments, now) {
		if v.Status == payment.StatusPending {
			v := v
			sum.NextPayment = &v
			break
		}
	}
	return sum
}
