package echoapi

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lunedance/lune/core/calendar"
	"github.com/lunedance/lune/core/class"
	"github.com/lunedance/lune/core/grid"
	testutil "github.com/lunedance/lune/tests"
)

func TestGridAPI(t *testing.T) {
	env := newTestEnv(t)
	usr := testutil.CreateUser(t, env.app, "Ana", "ana@lune.test", true)
	token := env.staffToken(t, usr)

	existing, items := testutil.CreateClass(t, env.app, "Ballet", nil,
		testutil.Slot(calendar.Monday, "10:00", "11:00"))
	require.Len(t, items, 1)

	schedule := func(slots ...grid.Slot) grid.NewSchedule {
		return grid.NewSchedule{
			Class: class.NewClass{
				Description:  "Kids",
				MaxStudents:  8,
				ModalityID:   existing.ModalityID,
				ClassLevelID: existing.ClassLevelID,
			},
			Items: slots,
		}
	}

	env.run(t, []httpTest{
		{
			name:     "overlapping slot",
			method:   http.MethodPost,
			path:     "/v1/grid-items",
			body:     schedule(testutil.Slot(calendar.Monday, "10:30", "11:30")),
			token:    token,
			wantCode: http.StatusConflict,
		},
		{
			name:     "start after end",
			method:   http.MethodPost,
			path:     "/v1/grid-items",
			body:     schedule(testutil.Slot(calendar.Tuesday, "12:00", "11:00")),
			token:    token,
			wantCode: http.StatusBadRequest,
		},
		{
			name:     "bad weekday",
			method:   http.MethodPost,
			path:     "/v1/grid-items",
			body:     schedule(testutil.Slot("someday", "10:00", "11:00")),
			token:    token,
			wantCode: http.StatusBadRequest,
		},
		{
			name:     "no slots",
			method:   http.MethodPost,
			path:     "/v1/grid-items",
			body:     schedule(),
			token:    token,
			wantCode: http.StatusBadRequest,
		},
		{
			name:     "unknown item",
			method:   http.MethodGet,
			path:     "/v1/grid-items/00000000-0000-0000-0000-000000000000",
			token:    token,
			wantCode: http.StatusNotFound,
			wantData: httpErr{Error: "grid item not found"},
		},
	})

	t.Run("touching slot", func(t *testing.T) {
		rec := env.do(t, http.MethodPost, "/v1/grid-items", token,
			schedule(testutil.Slot(calendar.Monday, "11:00", "12:00"), testutil.Slot(calendar.Wednesday, "11:00", "12:00")))
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

		var resp ScheduleResponse
		decode(t, rec, &resp)
		assert.Len(t, resp.Items, 2)
		assert.Equal(t, "Ballet Kids - Iniciante Ballet", resp.Class.Name)
	})

	t.Run("failed creation leaves no class behind", func(t *testing.T) {
		classes, err := env.app.Classes.List(context.Background(), class.Filter{})
		require.NoError(t, err)
		assert.Len(t, classes, 2)
	})

	t.Run("moving a slot onto another", func(t *testing.T) {
		body := testutil.Slot(calendar.Monday, "11:30", "12:30")
		rec := env.do(t, http.MethodPatch, "/v1/grid-items/item/"+items[0].ID, token, body)
		assert.Equal(t, http.StatusConflict, rec.Code, rec.Body.String())

		body = testutil.Slot(calendar.Monday, "09:00", "10:30")
		rec = env.do(t, http.MethodPatch, "/v1/grid-items/item/"+items[0].ID, token, body)
		assert.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	})

	t.Run("weekly schedule", func(t *testing.T) {
		rec := env.do(t, http.MethodGet, "/v1/grid-items", token, nil)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		var s grid.Schedule
		decode(t, rec, &s)
		assert.Equal(t, 2, s.Dashboard.TotalClasses)
		assert.Equal(t, 3, s.Dashboard.TotalSlots)
	})
}
