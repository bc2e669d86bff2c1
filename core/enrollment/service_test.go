package enrollment_test

import (
	"context"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lunedance/lune/core"
	"github.com/lunedance/lune/core/calendar"
	"github.com/lunedance/lune/core/class"
	"github.com/lunedance/lune/core/enrollment"
	"github.com/lunedance/lune/core/payment"
	"github.com/lunedance/lune/core/plan"
	"github.com/lunedance/lune/core/student"
	testutil "github.com/lunedance/lune/tests"
)

var march5 = calendar.Date(2024, time.March, 5).Add(10 * time.Hour)

type fixture struct {
	app       *testutil.App
	class     class.Class
	monthly   plan.Plan
	quarterly plan.Plan
}

func setup(t *testing.T) fixture {
	app := testutil.NewApp(march5)
	c, _ := testutil.CreateClass(t, app, "Ballet", nil, testutil.Slot(calendar.Monday, "18:00", "19:00"))
	return fixture{
		app:       app,
		class:     c,
		monthly:   testutil.CreatePlan(t, app, "Mensal 2x", 30, 150),
		quarterly: testutil.CreatePlan(t, app, "Trimestral 2x", 90, 400),
	}
}

func dueDates(d enrollment.Detail) []string {
	dates := make([]string, 0, len(d.Payments))
	for _, p := range d.Payments {
		dates = append(dates, calendar.Local(p.DueDate).Format("2006-01-02"))
	}
	return dates
}

func TestService_Create(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	t.Run("new student pays the enrollment tax", func(t *testing.T) {
		d := testutil.Enroll(t, f.app, "Maria", f.class.ID, f.monthly.ID, march5, 10)

		assert.Equal(t, enrollment.StatusActive, d.Status)
		assert.Equal(t, "Maria Souza", d.StudentName)
		assert.Equal(t, f.class.Name, d.ClassName)
		assert.Equal(t, "Ballet", d.ModalityName)
		assert.Equal(t, "Mensal 2x", d.PlanName)
		assert.Equal(t, "Mensal", d.CycleName)
		assert.True(t, d.EndDate.Equal(march5.AddDate(0, 1, 0)))

		require.Len(t, d.Payments, 2)
		assert.Equal(t, payment.StatusPaid, d.Payments[0].Status)
		assert.Equal(t, "100", d.Payments[0].Amount.String())
		assert.Equal(t, payment.StatusPending, d.Payments[1].Status)
		assert.Equal(t, "150", d.Payments[1].Amount.String())
		// the due day of the current month is skipped
		assert.Equal(t, []string{"2024-03-05", "2024-04-10"}, dueDates(d))
	})

	t.Run("existing student does not pay the tax", func(t *testing.T) {
		s, err := f.app.Students.Create(ctx, student.NewStudent{FirstName: "Joana"})
		require.NoError(t, err)

		d, err := f.app.Enrollments.Create(ctx, enrollment.NewEnrollment{
			StudentID:  s.ID,
			PlanID:     f.quarterly.ID,
			ClassID:    f.class.ID,
			StartDate:  calendar.Date(2024, time.April, 1),
			PaymentDay: 31,
		})
		require.NoError(t, err)
		assert.Equal(t, "Trimestral", d.CycleName)
		assert.Equal(t, []string{"2024-04-30", "2024-05-31", "2024-06-30"}, dueDates(d))
		for _, p := range d.Payments {
			assert.Equal(t, payment.StatusPending, p.Status)
		}
	})

	tests := []struct {
		name    string
		ne      enrollment.NewEnrollment
		wantErr error
	}{
		{
			name:    "unknown class",
			ne:      enrollment.NewEnrollment{Student: &student.NewStudent{FirstName: "Ana"}, ClassID: "nope", PlanID: f.monthly.ID, StartDate: march5, PaymentDay: 5},
			wantErr: class.ErrNotFound,
		},
		{
			name:    "unknown plan",
			ne:      enrollment.NewEnrollment{Student: &student.NewStudent{FirstName: "Ana"}, ClassID: f.class.ID, PlanID: "nope", StartDate: march5, PaymentDay: 5},
			wantErr: plan.ErrNotFound,
		},
		{
			name:    "unknown student",
			ne:      enrollment.NewEnrollment{StudentID: "nope", ClassID: f.class.ID, PlanID: f.monthly.ID, StartDate: march5, PaymentDay: 5},
			wantErr: student.ErrNotFound,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.app.Enrollments.Create(ctx, tt.ne)
			assert.Equal(t, tt.wantErr, errors.Cause(err))
		})
	}

	t.Run("no student", func(t *testing.T) {
		_, err := f.app.Enrollments.Create(ctx, enrollment.NewEnrollment{
			ClassID: f.class.ID, PlanID: f.monthly.ID, StartDate: march5, PaymentDay: 5,
		})
		var vErr *core.ValidationError
		require.True(t, errors.As(err, &vErr), "got %v", err)
		assert.Equal(t, "student_id", vErr.Fields[0].Field)
	})

	t.Run("failure after the student insert rolls it back", func(t *testing.T) {
		students := countStudents(t, f.app)
		enrollments, payments := countRows(t, f.app)

		_, err := f.app.Enrollments.Create(ctx, enrollment.NewEnrollment{
			Student:    &student.NewStudent{FirstName: "Clara", LastName: "Lima"},
			ClassID:    f.class.ID,
			PlanID:     f.monthly.ID,
			StartDate:  march5,
			PaymentDay: 0,
		})
		var vErr *core.ValidationError
		require.True(t, errors.As(err, &vErr), "got %v", err)
		assert.Equal(t, payment.ErrInvalidPaymentDay, vErr.Err)

		assert.Equal(t, students, countStudents(t, f.app))
		e, p := countRows(t, f.app)
		assert.Equal(t, enrollments, e)
		assert.Equal(t, payments, p)
	})
}

func countStudents(t *testing.T, app *testutil.App) int {
	t.Helper()
	students, err := app.Store.ListStudents(context.Background(), student.Filter{})
	require.NoError(t, err)
	return len(students)
}

func countRows(t *testing.T, app *testutil.App) (enrollments, payments int) {
	t.Helper()
	ctx := context.Background()
	es, err := app.Store.ListEnrollments(ctx, enrollment.Filter{})
	require.NoError(t, err)
	ps, err := app.Store.ListPayments(ctx, payment.Filter{})
	require.NoError(t, err)
	return len(es), len(ps)
}

func TestNewEnrollment_Validate(t *testing.T) {
	validate, _ := testutil.NewValidator()
	ok := enrollment.NewEnrollment{PlanID: "p", ClassID: "c", StartDate: march5, PaymentDay: 10}

	tests := []struct {
		name    string
		mutate  func(ne *enrollment.NewEnrollment)
		wantErr bool
	}{
		{name: "existing student", mutate: func(ne *enrollment.NewEnrollment) { ne.StudentID = "s" }},
		{name: "new student", mutate: func(ne *enrollment.NewEnrollment) { ne.Student = &student.NewStudent{FirstName: "Ana"} }},
		{name: "no student", mutate: func(ne *enrollment.NewEnrollment) {}, wantErr: true},
		{
			name: "both students",
			mutate: func(ne *enrollment.NewEnrollment) {
				ne.StudentID = "s"
				ne.Student = &student.NewStudent{FirstName: "Ana"}
			},
			wantErr: true,
		},
		{
			name: "payment day out of range",
			mutate: func(ne *enrollment.NewEnrollment) {
				ne.StudentID = "s"
				ne.PaymentDay = 0
			},
			wantErr: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ne := ok
			tt.mutate(&ne)
			err := ne.Validate(validate)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestService_Renew(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	old := testutil.Enroll(t, f.app, "Maria", f.class.ID, f.monthly.ID, march5, 10)

	renewed, err := f.app.Enrollments.Renew(ctx, old.ID, enrollment.Renewal{PlanID: f.quarterly.ID})
	require.NoError(t, err)
	assert.NotEqual(t, old.ID, renewed.ID)
	assert.Equal(t, old.StudentID, renewed.StudentID)
	assert.Equal(t, f.class.ID, *renewed.ClassID)
	assert.Len(t, renewed.Payments, 3, "no tax on renewals")

	archived, err := f.app.Enrollments.Get(ctx, old.ID)
	require.NoError(t, err)
	assert.Equal(t, enrollment.StatusArchived, archived.Status)

	_, err = f.app.Enrollments.Renew(ctx, old.ID, enrollment.Renewal{PlanID: f.monthly.ID})
	assert.Equal(t, enrollment.ErrActiveNotFound, errors.Cause(err))

	t.Run("refused with overdue payments", func(t *testing.T) {
		d := testutil.Enroll(t, f.app, "Joana", f.class.ID, f.monthly.ID, march5, 10)
		f.app.Clock.Set(calendar.Date(2024, time.April, 20))
		enrollments, payments := countRows(t, f.app)

		_, err := f.app.Enrollments.Renew(ctx, d.ID, enrollment.Renewal{PlanID: f.monthly.ID})
		var conflict *core.ConflictError
		assert.True(t, errors.As(err, &conflict))

		e, p := countRows(t, f.app)
		assert.Equal(t, enrollments, e, "no enrollment created")
		assert.Equal(t, payments, p, "no payment created")

		kept, err := f.app.Enrollments.Get(ctx, d.ID)
		require.NoError(t, err)
		assert.Equal(t, enrollment.StatusActive, kept.Status)
	})
}

func TestService_Cancel(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	d := testutil.Enroll(t, f.app, "Maria", f.class.ID, f.quarterly.ID, march5, 10)

	enr, err := f.app.Enrollments.Cancel(ctx, d.ID)
	require.NoError(t, err)
	assert.Equal(t, enrollment.StatusCanceled, enr.Status)

	d, err = f.app.Enrollments.Get(ctx, d.ID)
	require.NoError(t, err)
	require.Len(t, d.Payments, 4)
	assert.Equal(t, payment.StatusPaid, d.Payments[0].Status, "paid payments are kept")
	for _, p := range d.Payments[1:] {
		assert.Equal(t, payment.StatusCanceled, p.Status)
	}

	_, err = f.app.Enrollments.Cancel(ctx, d.ID)
	assert.Equal(t, enrollment.ErrActiveNotFound, errors.Cause(err))

	_, err = f.app.Enrollments.Cancel(ctx, "nope")
	assert.Equal(t, enrollment.ErrActiveNotFound, errors.Cause(err))
}

func TestService_Update(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	d := testutil.Enroll(t, f.app, "Maria", f.class.ID, f.monthly.ID, march5, 10)
	jazz, _ := testutil.CreateClass(t, f.app, "Jazz", nil, testutil.Slot(calendar.Tuesday, "18:00", "19:00"))

	d, err := f.app.Enrollments.Update(ctx, d.ID, enrollment.UpdateEnrollment{ClassID: jazz.ID})
	require.NoError(t, err)
	assert.Equal(t, "Jazz", d.ModalityName)

	_, err = f.app.Enrollments.Update(ctx, d.ID, enrollment.UpdateEnrollment{ClassID: "nope"})
	assert.Equal(t, class.ErrNotFound, errors.Cause(err))

	require.NoError(t, f.app.Enrollments.Remove(ctx, d.ID))
	_, err = f.app.Enrollments.Get(ctx, d.ID)
	assert.Equal(t, enrollment.ErrNotFound, errors.Cause(err))
}

func TestService_Roster(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	testutil.Enroll(t, f.app, "Maria", f.class.ID, f.monthly.ID, march5, 10)

	// an existing student pays no tax, so canceling leaves every payment canceled
	s, err := f.app.Students.Create(ctx, student.NewStudent{FirstName: "Ana", LastName: "Costa"})
	require.NoError(t, err)
	d, err := f.app.Enrollments.Create(ctx, enrollment.NewEnrollment{
		StudentID: s.ID, PlanID: f.monthly.ID, ClassID: f.class.ID, StartDate: march5, PaymentDay: 10,
	})
	require.NoError(t, err)
	_, err = f.app.Enrollments.Cancel(ctx, d.ID)
	require.NoError(t, err)

	names := func(roster []enrollment.RosterEntry) []string {
		var ns []string
		for _, e := range roster {
			ns = append(ns, e.FullName()+":"+string(e.Status))
		}
		return ns
	}

	tests := []struct {
		name string
		now  time.Time
		rf   enrollment.RosterFilter
		want []string
	}{
		{name: "canceled last", now: march5, want: []string{"Maria Souza:PAID", "Ana Costa:CANCELED"}},
		{name: "due this month", now: calendar.Date(2024, time.April, 2), want: []string{"Maria Souza:PENDING", "Ana Costa:CANCELED"}},
		{name: "overdue", now: calendar.Date(2024, time.April, 15), want: []string{"Maria Souza:OVERDUE", "Ana Costa:CANCELED"}},
		{name: "by status", now: calendar.Date(2024, time.April, 15), rf: enrollment.RosterFilter{Status: payment.StudentCanceled}, want: []string{"Ana Costa:CANCELED"}},
		{name: "by name", now: march5, rf: enrollment.RosterFilter{Name: "mar"}, want: []string{"Maria Souza:PAID"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f.app.Clock.Set(tt.now)
			roster, err := f.app.Enrollments.Roster(ctx, tt.rf)
			require.NoError(t, err)
			assert.Equal(t, tt.want, names(roster))
		})
	}

	t.Run("active plans and modalities", func(t *testing.T) {
		f.app.Clock.Set(march5)
		roster, err := f.app.Enrollments.Roster(ctx, enrollment.RosterFilter{Name: "maria"})
		require.NoError(t, err)
		require.Len(t, roster, 1)
		assert.Equal(t, []string{"Mensal 2x"}, roster[0].Plans)
		assert.Equal(t, []string{"Ballet"}, roster[0].Modalities)
		require.Len(t, roster[0].Enrollments, 1)
		require.NotNil(t, roster[0].Enrollments[0].NextPayment)
		assert.Equal(t, "150", roster[0].Enrollments[0].NextPayment.Amount.String())
	})
}
