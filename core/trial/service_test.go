package trial_test

import (
	"context"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lunedance/lune/core/calendar"
	"github.com/lunedance/lune/core/grid"
	"github.com/lunedance/lune/core/lead"
	"github.com/lunedance/lune/core/trial"
	testutil "github.com/lunedance/lune/tests"
)

var monday = calendar.Date(2024, time.March, 4).Add(10 * time.Hour)

type fixture struct {
	app      *testutil.App
	balletMo grid.Item
	balletWe grid.Item
	jazzMo   grid.Item
}

func setup(t *testing.T) fixture {
	app := testutil.NewApp(monday)
	_, ballet := testutil.CreateClass(t, app, "Ballet", nil,
		testutil.Slot(calendar.Monday, "18:00", "19:00"),
		testutil.Slot(calendar.Wednesday, "08:00", "09:00"),
	)
	_, jazz := testutil.CreateClass(t, app, "Jazz", nil, testutil.Slot(calendar.Monday, "19:00", "20:00"))

	f := fixture{app: app, jazzMo: jazz[0]}
	for _, it := range ballet {
		if it.DayOfWeek == calendar.Monday {
			f.balletMo = it
		} else {
			f.balletWe = it
		}
	}
	return f
}

func (f fixture) book(t *testing.T, name string, it grid.Item, date time.Time) trial.Detail {
	t.Helper()
	nt := trial.NewTrial{
		Lead:       lead.NewLead{FirstName: name, Phone: "(11) 91234-5678"},
		GridItemID: it.ID,
		Date:       date.Add(15 * time.Hour),
	}
	require.NoError(t, nt.Validate(f.app.Validate))
	d, err := f.app.Trials.Create(context.Background(), nt)
	require.NoError(t, err)
	return d
}

func TestService_Create(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	t.Run("evening slot", func(t *testing.T) {
		d := f.book(t, "Ana", f.balletMo, calendar.Date(2024, time.March, 11))
		assert.Equal(t, trial.StatusScheduled, d.Status)
		assert.True(t, calendar.Date(2024, time.March, 11).Equal(d.Date))
		assert.Equal(t, "Ballet", d.ModalityName)
		assert.Equal(t, "Iniciante Ballet", d.ClassLevelName)
		assert.Equal(t, "Adulto", d.ClassDescription)

		assert.Equal(t, "Ballet", d.Lead.ModalityOfInterest)
		assert.Equal(t, "Noite", d.Lead.PreferencePeriod)
		assert.Equal(t, lead.ScoreTrialClass, d.Lead.Score)
		assert.Equal(t, lead.StatusNewLead, d.Lead.Status)
		assert.Equal(t, "11912345678", d.Lead.Phone)
	})

	t.Run("morning slot", func(t *testing.T) {
		d := f.book(t, "Bia", f.balletWe, calendar.Date(2024, time.March, 6))
		assert.Equal(t, "Manhã", d.Lead.PreferencePeriod)
	})

	t.Run("unknown slot creates no lead", func(t *testing.T) {
		before, err := f.app.Leads.Dashboard(ctx)
		require.NoError(t, err)

		_, err = f.app.Trials.Create(ctx, trial.NewTrial{
			Lead:       lead.NewLead{FirstName: "Caio", Phone: "11912345678"},
			GridItemID: "nope",
			Date:       monday,
		})
		assert.Equal(t, grid.ErrNotFound, errors.Cause(err))

		after, err := f.app.Leads.Dashboard(ctx)
		require.NoError(t, err)
		assert.Equal(t, before.TotalLeads, after.TotalLeads)
	})
}

func TestService_Update(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	d := f.book(t, "Ana", f.balletMo, calendar.Date(2024, time.March, 11))

	obs := "prefere aulas curtas"
	status := trial.StatusCompleted
	got, err := f.app.Trials.Update(ctx, d.ID, trial.UpdateTrial{
		Lead:       &lead.UpdateLead{Obs: &obs},
		GridItemID: &f.jazzMo.ID,
		Status:     &status,
	})
	require.NoError(t, err)
	assert.Equal(t, trial.StatusCompleted, got.Status)
	assert.Equal(t, "Jazz", got.ModalityName)
	assert.Equal(t, obs, got.Lead.Obs)
	assert.Equal(t, d.Date, got.Date)

	t.Run("unknown slot rolls the lead back", func(t *testing.T) {
		other := "não vai voltar"
		bad := "nope"
		_, err := f.app.Trials.Update(ctx, d.ID, trial.UpdateTrial{
			Lead:       &lead.UpdateLead{Obs: &other},
			GridItemID: &bad,
		})
		require.Error(t, err)

		got, err := f.app.Trials.Get(ctx, d.ID)
		require.NoError(t, err)
		assert.Equal(t, obs, got.Lead.Obs)
		assert.Equal(t, f.jazzMo.ID, got.GridItemID)
	})

	t.Run("remove", func(t *testing.T) {
		require.NoError(t, f.app.Trials.Remove(ctx, d.ID))
		_, err := f.app.Trials.Get(ctx, d.ID)
		assert.Equal(t, trial.ErrNotFound, errors.Cause(err))
		assert.Equal(t, trial.ErrNotFound, errors.Cause(f.app.Trials.Remove(ctx, d.ID)))
	})
}

func TestService_PromotePastDue(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	f.book(t, "Dani", f.balletMo, calendar.Date(2024, time.March, 1))
	f.book(t, "Eva", f.balletMo, calendar.Date(2024, time.March, 4))
	f.book(t, "Fabi", f.jazzMo, calendar.Date(2024, time.March, 11))

	moved, err := f.app.Trials.PromotePastDue(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, moved, "today's trial is still scheduled")

	moved, err = f.app.Trials.PromotePastDue(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, moved)

	f.app.Clock.Set(calendar.Date(2024, time.March, 5))
	moved, err = f.app.Trials.PromotePastDue(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, moved)

	pending, err := f.app.Trials.PendingCount(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, pending)
}

func TestService_List(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	listing, err := f.app.Trials.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, listing.List)
	assert.Nil(t, listing.NearestTrialClasses)

	f.book(t, "Dani", f.balletMo, calendar.Date(2024, time.March, 1))
	f.book(t, "Carla", f.balletWe, calendar.Date(2024, time.March, 13))
	f.book(t, "Bia", f.jazzMo, calendar.Date(2024, time.March, 11))
	f.book(t, "Ana", f.balletMo, calendar.Date(2024, time.March, 11))

	listing, err = f.app.Trials.List(ctx)
	require.NoError(t, err)
	require.Len(t, listing.List, 4)
	assert.Equal(t, "Dani", listing.List[0].Lead.FirstName, "sorted by date")

	nearest := listing.NearestTrialClasses
	require.NotNil(t, nearest)
	assert.Equal(t, "Segunda-feira, 11 de março", nearest.Date)
	assert.Equal(t, 2, nearest.TotalTrialStudents)
	require.Len(t, nearest.TrialClasses, 2)
	assert.Equal(t, "Ballet", nearest.TrialClasses[0].Modality)
	assert.Equal(t, "18:00", nearest.TrialClasses[0].StartTime)
	assert.Equal(t, "Jazz", nearest.TrialClasses[1].Modality)

	mondays := listing.WeekResume[calendar.Monday]
	assert.Len(t, mondays["Ballet@Iniciante Ballet Adulto | 18:00 - 19:00"], 2)
	assert.Len(t, mondays["Jazz@Iniciante Jazz Adulto | 19:00 - 20:00"], 1)
	assert.Len(t, listing.WeekResume[calendar.Wednesday], 1)
	assert.Empty(t, listing.WeekResume[calendar.Friday])

	f.app.Clock.Set(calendar.Date(2024, time.March, 12))
	listing, err = f.app.Trials.List(ctx)
	require.NoError(t, err)
	require.NotNil(t, listing.NearestTrialClasses)
	assert.Equal(t, "Quarta-feira, 13 de março", listing.NearestTrialClasses.Date)
}
