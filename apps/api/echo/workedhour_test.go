package echoapi

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lunedance/lune/core/calendar"
	"github.com/lunedance/lune/core/workedhour"
	testutil "github.com/lunedance/lune/tests"
)

func TestWorkedHourAPI_status(t *testing.T) {
	env := newTestEnv(t)
	usr := testutil.CreateUser(t, env.app, "Ana", "ana@lune.test", true)
	carla := testutil.CreateTeacher(t, env.app, "carla", "12345678901", 60)
	dora := testutil.CreateTeacher(t, env.app, "dora", "10987654321", 60)
	c, _ := testutil.CreateClass(t, env.app, "Ballet", &carla.ID, testutil.Slot(calendar.Monday, "18:00", "19:30"))

	wh, err := env.app.WorkedHours.Create(context.Background(), workedhour.NewWorkedHour{
		TeacherID: carla.ID,
		ClassID:   c.ID,
		WorkedAt:  env.app.Clock.Now(),
		Status:    workedhour.StatusPending,
	})
	require.NoError(t, err)
	assert.Equal(t, 90, wh.Duration)

	path := "/v1/worked-hours/" + wh.ID + "/status"
	env.run(t, []httpTest{
		{
			name:     "pending count",
			method:   http.MethodGet,
			path:     "/v1/worked-hours/pending-count",
			token:    env.staffToken(t, usr),
			wantCode: http.StatusOK,
			wantData: CountResponse{Count: 1},
		},
		{
			name:     "unknown status",
			method:   http.MethodPatch,
			path:     path,
			body:     workedhour.UpdateStatus{Status: "LATE"},
			token:    env.teacherToken(t, carla),
			wantCode: http.StatusBadRequest,
		},
		{
			name:     "another teacher",
			method:   http.MethodPatch,
			path:     path,
			body:     workedhour.UpdateStatus{Status: workedhour.StatusDone},
			token:    env.teacherToken(t, dora),
			wantCode: http.StatusForbidden,
			wantData: httpErr{Error: "not authorized to update this worked hour"},
		},
		{
			name:     "own worked hour",
			method:   http.MethodPatch,
			path:     path,
			body:     workedhour.UpdateStatus{Status: workedhour.StatusDone},
			token:    env.teacherToken(t, carla),
			wantCode: http.StatusOK,
		},
		{
			name:     "staff",
			method:   http.MethodPatch,
			path:     path,
			body:     workedhour.UpdateStatus{Status: workedhour.StatusApproved},
			token:    env.staffToken(t, usr),
			wantCode: http.StatusOK,
		},
		{
			name:     "teachers cannot edit worked hours",
			method:   http.MethodPatch,
			path:     "/v1/worked-hours/" + wh.ID,
			body:     map[string]int{"new_enrollments_count": 3},
			token:    env.teacherToken(t, carla),
			wantCode: http.StatusForbidden,
		},
		{
			name:     "nothing left pending",
			method:   http.MethodGet,
			path:     "/v1/worked-hours/pending-count",
			token:    env.staffToken(t, usr),
			wantCode: http.StatusOK,
			wantData: CountResponse{Count: 0},
		},
	})

	got, err := env.app.WorkedHours.Get(context.Background(), wh.ID)
	require.NoError(t, err)
	assert.Equal(t, workedhour.StatusApproved, got.Status)
}

func TestSettingsAPI_notifications(t *testing.T) {
	env := newTestEnv(t)
	usr := testutil.CreateUser(t, env.app, "Ana", "ana@lune.test", true)
	token := env.staffToken(t, usr)

	env.run(t, []httpTest{
		{
			name:     "default settings",
			method:   http.MethodGet,
			path:     "/v1/settings",
			token:    token,
			wantCode: http.StatusOK,
		},
		{
			name:     "negative price",
			method:   http.MethodPatch,
			path:     "/v1/settings",
			body:     `{"trial_class_price": "-1"}`,
			token:    token,
			wantCode: http.StatusBadRequest,
		},
		{
			name:     "expense",
			method:   http.MethodPost,
			path:     "/v1/expenses",
			body:     `{"name": "Aluguel", "amount": "2500", "due_day": 10}`,
			token:    token,
			wantCode: http.StatusCreated,
		},
		{
			name:     "notifications",
			method:   http.MethodGet,
			path:     "/v1/notifications",
			token:    token,
			wantCode: http.StatusOK,
			wantData: map[string]int{"trial_students": 0, "worked_hours": 0, "expenses": 1, "total": 1},
		},
	})
}
