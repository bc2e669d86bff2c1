package grid_test

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
	"github.com/lunedance/lune/core/grid"
	testutil "github.com/lunedance/lune/tests"
)

// monday is a Monday morning.
var monday = calendar.Date(2024, time.March, 4).Add(10 * time.Hour)

func slot(day calendar.Weekday, start, end string) grid.Slot {
	return testutil.Slot(day, start, end)
}

func isConflict(err error) bool {
	var conflict *core.ConflictError
	return errors.As(err, &conflict)
}

func newSchedule(t *testing.T, app *testutil.App, modality string, slots ...grid.Slot) grid.NewSchedule {
	t.Helper()
	ctx := context.Background()
	mod, err := app.Classes.CreateModality(ctx, class.NewName{Name: modality})
	require.NoError(t, err)
	lvl, err := app.Classes.CreateClassLevel(ctx, class.NewName{Name: "Livre " + modality})
	require.NoError(t, err)
	return grid.NewSchedule{
		Class: class.NewClass{Description: "Teens", ModalityID: mod.ID, ClassLevelID: lvl.ID},
		Items: slots,
	}
}

func TestService_Create(t *testing.T) {
	app := testutil.NewApp(monday)
	ctx := context.Background()

	testutil.CreateClass(t, app, "Ballet", nil, slot(calendar.Monday, "18:00", "19:00"))

	tests := []struct {
		name      string
		slots     []grid.Slot
		wantCheck func(err error) bool
	}{
		{name: "overlap", slots: []grid.Slot{slot(calendar.Monday, "18:30", "19:30")}, wantCheck: isConflict},
		{name: "contained", slots: []grid.Slot{slot(calendar.Monday, "18:15", "18:45")}, wantCheck: isConflict},
		{
			name:  "start after end",
			slots: []grid.Slot{slot(calendar.Tuesday, "19:00", "18:00")},
			wantCheck: func(err error) bool {
				var vErr *core.ValidationError
				return errors.As(err, &vErr)
			},
		},
		{
			name:      "second slot conflicts",
			slots:     []grid.Slot{slot(calendar.Tuesday, "18:00", "19:00"), slot(calendar.Monday, "17:00", "18:30")},
			wantCheck: isConflict,
		},
	}
	for i, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ns := newSchedule(t, app, "Jazz "+string(rune('A'+i)), tt.slots...)
			_, _, err := app.Grid.Create(ctx, ns)
			assert.True(t, tt.wantCheck(err), "got %v", err)
		})
	}

	// failed creations leave neither class nor slot behind
	classes, err := app.Classes.List(ctx, class.Filter{})
	require.NoError(t, err)
	assert.Len(t, classes, 1)
	items, err := app.Grid.ListItems(ctx)
	require.NoError(t, err)
	assert.Len(t, items, 1)

	t.Run("touching slots", func(t *testing.T) {
		c, items := testutil.CreateClass(t, app, "Contemporâneo", nil,
			slot(calendar.Monday, "19:00", "20:00"), slot(calendar.Monday, "17:00", "18:00"))
		assert.Equal(t, "Contemporâneo Adulto - Iniciante Contemporâneo", c.Name)
		require.Len(t, items, 2)
		for _, it := range items {
			assert.Equal(t, c.ID, it.ClassID)
		}
	})
}

func TestService_Update(t *testing.T) {
	app := testutil.NewApp(monday)
	ctx := context.Background()

	c, items := testutil.CreateClass(t, app, "Ballet", nil,
		slot(calendar.Monday, "18:00", "19:00"), slot(calendar.Wednesday, "18:00", "19:00"))
	testutil.CreateClass(t, app, "Jazz", nil, slot(calendar.Friday, "18:00", "19:00"))

	tests := []struct {
		name  string
		slots []grid.Slot
	}{
		{name: "overlaps another class", slots: []grid.Slot{slot(calendar.Friday, "18:30", "19:30")}},
		{name: "overlapping within the batch", slots: []grid.Slot{slot(calendar.Tuesday, "18:00", "19:00"), slot(calendar.Tuesday, "18:30", "19:30")}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := app.Grid.Update(ctx, c.ID, grid.UpdateSchedule{Items: tt.slots})
			assert.True(t, isConflict(err), "got %v", err)
		})
	}

	maxStudents := 12
	updated, got, err := app.Grid.Update(ctx, c.ID, grid.UpdateSchedule{
		Class: class.UpdateClass{MaxStudents: &maxStudents},
		Items: []grid.Slot{
			slot(calendar.Monday, "18:00", "19:00"),   // kept
			slot(calendar.Wednesday, "18:30", "19:30"), // overlaps the slot it replaces
			slot(calendar.Wednesday, "18:30", "19:30"), // duplicate
		},
	})
	require.NoError(t, err)
	assert.Equal(t, 12, updated.MaxStudents)
	require.Len(t, got, 2)
	assert.Equal(t, items[0].ID, got[0].ID, "identical slots keep their id")
	assert.NotEqual(t, items[1].ID, got[1].ID)

	_, err = app.Grid.Get(ctx, items[1].ID)
	assert.Equal(t, grid.ErrNotFound, errors.Cause(err))
}

func TestService_UpdateItem(t *testing.T) {
	app := testutil.NewApp(monday)
	ctx := context.Background()

	_, items := testutil.CreateClass(t, app, "Ballet", nil, slot(calendar.Monday, "18:00", "19:00"))
	testutil.CreateClass(t, app, "Jazz", nil, slot(calendar.Monday, "20:00", "21:00"))

	_, err := app.Grid.UpdateItem(ctx, items[0].ID, slot(calendar.Monday, "19:30", "20:30"))
	assert.True(t, isConflict(err))

	it, err := app.Grid.UpdateItem(ctx, items[0].ID, slot(calendar.Monday, "18:30", "20:00"))
	require.NoError(t, err, "an item does not conflict with itself")
	assert.Equal(t, "18:30", it.StartTime)
	assert.Equal(t, "20:00", it.EndTime)

	_, err = app.Grid.UpdateItem(ctx, "nope", slot(calendar.Sunday, "08:00", "09:00"))
	assert.Equal(t, grid.ErrNotFound, errors.Cause(err))
}

func TestService_Remove(t *testing.T) {
	app := testutil.NewApp(monday)
	ctx := context.Background()

	ballet, balletItems := testutil.CreateClass(t, app, "Ballet", nil, slot(calendar.Monday, "18:00", "19:00"))
	_, jazzItems := testutil.CreateClass(t, app, "Jazz", nil, slot(calendar.Monday, "20:00", "21:00"))
	p := testutil.CreatePlan(t, app, "Mensal", 30, 150)
	testutil.Enroll(t, app, "Maria", ballet.ID, p.ID, monday, 10)

	err := app.Grid.Remove(ctx, balletItems[0].ID)
	var integrity *core.IntegrityError
	require.True(t, errors.As(err, &integrity), "got %v", err)
	assert.Equal(t, []string{ballet.Name}, integrity.Blockers)

	require.NoError(t, app.Grid.Remove(ctx, jazzItems[0].ID))
	assert.Equal(t, grid.ErrNotFound, errors.Cause(app.Grid.Remove(ctx, jazzItems[0].ID)))
}

func TestService_Schedule(t *testing.T) {
	app := testutil.NewApp(monday)
	ctx := context.Background()

	tchr := testutil.CreateTeacher(t, app, "Clara", "52998224725", 60)
	ballet, _ := testutil.CreateClass(t, app, "Ballet", &tchr.ID,
		slot(calendar.Monday, "18:00", "19:00"), slot(calendar.Wednesday, "18:00", "19:30"))
	testutil.CreateClass(t, app, "Jazz", nil, slot(calendar.Monday, "08:00", "09:00"))
	p := testutil.CreatePlan(t, app, "Mensal", 30, 200)
	testutil.Enroll(t, app, "Maria", ballet.ID, p.ID, monday, 10)

	sched, err := app.Grid.Schedule(ctx, grid.ScheduleFilter{})
	require.NoError(t, err)
	require.Len(t, sched.Blocks, 2)
	assert.Equal(t, "08:00", sched.Blocks[0].StartTime)
	assert.Equal(t, "18:00", sched.Blocks[1].StartTime)
	assert.Len(t, sched.Blocks[1].Days, 7)

	cells := sched.Blocks[1].Days[calendar.Monday]
	require.Len(t, cells, 1)
	assert.Equal(t, "Clara Silva", cells[0].TeacherName)
	assert.Equal(t, "Ballet", cells[0].ModalityName)
	require.Len(t, cells[0].Students, 1)
	assert.Equal(t, "Maria Souza", cells[0].Students[0].Name)
	assert.Empty(t, sched.Blocks[0].Days[calendar.Monday][0].Students)

	dash := sched.Dashboard
	assert.Equal(t, 2, dash.TotalClasses)
	assert.Equal(t, 3, dash.TotalSlots)
	assert.Equal(t, 1, dash.TotalStudents)
	assert.Equal(t, "200", dash.MonthlyRevenue.String())
	assert.Equal(t, "50", dash.WeeklyRevenue.String())
	// 2.5 hours a week at 60 an hour; the class without students costs nothing
	assert.Equal(t, "150", dash.WeeklyCost.String())
	assert.Equal(t, "600", dash.MonthlyCost.String())
	assert.Equal(t, "-400", dash.MonthlyProfit.String())

	t.Run("by teacher", func(t *testing.T) {
		sched, err := app.Grid.Schedule(ctx, grid.ScheduleFilter{TeacherID: tchr.ID})
		require.NoError(t, err)
		require.Len(t, sched.Blocks, 1)
		assert.Equal(t, 1, sched.Dashboard.TotalClasses)
		assert.Equal(t, 2, sched.Dashboard.TotalSlots)
	})
}

func TestService_TeacherAgenda(t *testing.T) {
	app := testutil.NewApp(monday)
	ctx := context.Background()

	tchr := testutil.CreateTeacher(t, app, "Clara", "52998224725", 60)
	testutil.CreateClass(t, app, "Ballet", &tchr.ID,
		slot(calendar.Monday, "18:00", "19:00"), slot(calendar.Wednesday, "10:00", "11:00"))
	testutil.CreateClass(t, app, "Jazz", &tchr.ID,
		slot(calendar.Monday, "08:00", "09:00"), slot(calendar.Monday, "20:00", "21:00"))
	testutil.CreateClass(t, app, "Forró", nil, slot(calendar.Tuesday, "18:00", "19:00"))

	statuses := func(entries []grid.AgendaEntry) []grid.AgendaStatus {
		var ss []grid.AgendaStatus
		for _, e := range entries {
			ss = append(ss, e.Status)
		}
		return ss
	}

	tests := []struct {
		name      string
		now       time.Time
		wantDay   calendar.Weekday
		wantState []grid.AgendaStatus
	}{
		{
			name:      "during a class",
			now:       monday.Add(8*time.Hour + 30*time.Minute), // 18:30
			wantDay:   calendar.Monday,
			wantState: []grid.AgendaStatus{grid.AgendaDone, grid.AgendaNow, grid.AgendaNext},
		},
		{
			name:      "between classes",
			now:       monday.Add(2 * time.Hour), // 12:00
			wantDay:   calendar.Monday,
			wantState: []grid.AgendaStatus{grid.AgendaDone, grid.AgendaNext, grid.AgendaPending},
		},
		{
			name:      "no class today",
			now:       monday.AddDate(0, 0, 1), // Tuesday
			wantDay:   calendar.Wednesday,
			wantState: []grid.AgendaStatus{grid.AgendaNext},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app.Clock.Set(tt.now)
			entries, err := app.Grid.TeacherAgenda(ctx, tchr.ID)
			require.NoError(t, err)
			require.NotEmpty(t, entries)
			assert.Equal(t, string(tt.wantDay), entries[0].DayOfWeek)
			assert.Equal(t, tt.wantState, statuses(entries))
		})
	}

	entries, err := app.Grid.TeacherAgenda(ctx, "nobody")
	require.NoError(t, err)
	assert.Empty(t, entries)
}
