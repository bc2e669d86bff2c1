package echoapi

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lunedance/lune/core/calendar"
	"github.com/lunedance/lune/core/enrollment"
	"github.com/lunedance/lune/core/payment"
	"github.com/lunedance/lune/core/student"
	testutil "github.com/lunedance/lune/tests"
)

func TestEnrollmentAPI(t *testing.T) {
	env := newTestEnv(t)
	usr := testutil.CreateUser(t, env.app, "Ana", "ana@lune.test", true)
	token := env.staffToken(t, usr)

	monthly := testutil.CreatePlan(t, env.app, "Mensal", 30, 150)
	quarterly := testutil.CreatePlan(t, env.app, "Trimestral", 90, 130)
	c, _ := testutil.CreateClass(t, env.app, "Jazz", nil, testutil.Slot(calendar.Thursday, "19:00", "20:00"))

	today := calendar.StartOfDay(env.app.Clock.Now())
	newEnrollment := func(paymentDay int) enrollment.NewEnrollment {
		return enrollment.NewEnrollment{
			Student:          &student.NewStudent{FirstName: "Maria", LastName: "Souza", Phone: "11987654321"},
			EmergencyContact: &student.NewEmergencyContact{Name: "José", Phone: "11912345678", Relationship: "pai"},
			PlanID:           monthly.ID,
			ClassID:          c.ID,
			StartDate:        today,
			PaymentDay:       paymentDay,
		}
	}

	env.run(t, []httpTest{
		{
			name:     "no student",
			method:   http.MethodPost,
			path:     "/v1/enrollment",
			body:     enrollment.NewEnrollment{PlanID: monthly.ID, ClassID: c.ID, StartDate: today, PaymentDay: 10},
			token:    token,
			wantCode: http.StatusBadRequest,
		},
		{
			name:     "payment day out of range",
			method:   http.MethodPost,
			path:     "/v1/enrollment",
			body:     newEnrollment(32),
			token:    token,
			wantCode: http.StatusBadRequest,
		},
		{
			name:     "unknown enrollment",
			method:   http.MethodGet,
			path:     "/v1/enrollment/00000000-0000-0000-0000-000000000000",
			token:    token,
			wantCode: http.StatusNotFound,
			wantData: httpErr{Error: "enrollment not found"},
		},
	})

	rec := env.do(t, http.MethodPost, "/v1/enrollment", token, newEnrollment(10))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var created enrollment.Detail
	decode(t, rec, &created)

	t.Run("create", func(t *testing.T) {
		assert.Equal(t, enrollment.StatusActive, created.Status)
		assert.Equal(t, "Maria Souza", created.StudentName)
		assert.Equal(t, "Jazz", created.ModalityName)
		require.Len(t, created.Payments, 2)
		// the enrollment tax of a brand-new student comes first, already paid
		assert.Equal(t, payment.StatusPaid, created.Payments[0].Status)
		assert.Equal(t, "100", created.Payments[0].Amount.String())
		assert.Equal(t, payment.StatusPending, created.Payments[1].Status)
		assert.Equal(t, 10, calendar.Local(created.Payments[1].DueDate).Day())
	})

	var renewed enrollment.Detail
	t.Run("renew", func(t *testing.T) {
		rec := env.do(t, http.MethodPost, "/v1/enrollment/renew/"+created.ID, token, enrollment.Renewal{PlanID: quarterly.ID})
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
		decode(t, rec, &renewed)
		assert.NotEqual(t, created.ID, renewed.ID)
		assert.Equal(t, created.StudentID, renewed.StudentID)
		assert.Len(t, renewed.Payments, 3, "no tax on renewals")

		old, err := env.app.Enrollments.Get(context.Background(), created.ID)
		require.NoError(t, err)
		assert.Equal(t, enrollment.StatusArchived, old.Status)
	})

	env.run(t, []httpTest{
		{
			name:     "renew an archived enrollment",
			method:   http.MethodPost,
			path:     "/v1/enrollment/renew/" + created.ID,
			body:     enrollment.Renewal{PlanID: monthly.ID},
			token:    token,
			wantCode: http.StatusNotFound,
			wantData: httpErr{Error: "active enrollment not found"},
		},
		{
			name:     "cancel",
			method:   http.MethodPost,
			path:     "/v1/enrollment/cancel/" + renewed.ID,
			token:    token,
			wantCode: http.StatusOK,
		},
		{
			name:     "cancel twice",
			method:   http.MethodPost,
			path:     "/v1/enrollment/cancel/" + renewed.ID,
			token:    token,
			wantCode: http.StatusNotFound,
		},
	})

	t.Run("canceling drops pending payments", func(t *testing.T) {
		d, err := env.app.Enrollments.Get(context.Background(), renewed.ID)
		require.NoError(t, err)
		assert.Equal(t, enrollment.StatusCanceled, d.Status)
		for _, p := range d.Payments {
			assert.Equal(t, payment.StatusCanceled, p.Status)
		}
	})

	t.Run("roster", func(t *testing.T) {
		rec := env.do(t, http.MethodGet, "/v1/students?name=maria", token, nil)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		var roster []enrollment.RosterEntry
		decode(t, rec, &roster)
		require.Len(t, roster, 1)
		assert.Len(t, roster[0].Enrollments, 2)
	})
}
