package testutil

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/lunedance/lune/core/calendar"
	"github.com/lunedance/lune/core/class"
	"github.com/lunedance/lune/core/enrollment"
	"github.com/lunedance/lune/core/grid"
	"github.com/lunedance/lune/core/plan"
	"github.com/lunedance/lune/core/student"
	"github.com/lunedance/lune/core/teacher"
	"github.com/lunedance/lune/core/user"
)

const DefaultPassword = "Lune-pass-2024"

func CreateUser(t *testing.T, app *App, name, email string, isActive bool) user.User {
	t.Helper()
	ctx := context.Background()
	usr, err := app.Users.Create(ctx, user.NewUser{
		Name:            name,
		Email:           email,
		Password:        DefaultPassword,
		PasswordConfirm: DefaultPassword,
	})
	require.NoError(t, err, "creating user")
	if !isActive {
		usr, err = app.Users.Update(ctx, usr.ID, user.UpdateUser{IsActive: &isActive})
		require.NoError(t, err, "deactivating user")
	}
	return usr
}

func CreateTeacher(t *testing.T, app *App, firstName, cpf string, priceHour int64) teacher.Teacher {
	t.Helper()
	tchr, err := app.Teachers.Create(context.Background(), teacher.NewTeacher{
		FirstName: firstName,
		LastName:  "Silva",
		Email:     firstName + "@lune.test",
		CPF:       cpf,
		PriceHour: decimal.NewFromInt(priceHour),
		Password:  DefaultPassword,
	})
	require.NoError(t, err, "creating teacher")
	return tchr
}

func CreatePlan(t *testing.T, app *App, name string, durationInDays int, price int64) plan.Plan {
	t.Helper()
	p, err := app.Plans.Create(context.Background(), plan.NewPlan{
		Name:           name,
		WeeklyClasses:  2,
		Price:          decimal.NewFromInt(price),
		DurationInDays: durationInDays,
	})
	require.NoError(t, err, "creating plan")
	return p
}

func Slot(day calendar.Weekday, start, end string) grid.Slot {
	return grid.Slot{DayOfWeek: day, StartTime: start, EndTime: end}
}

// CreateClass stores a class of a new modality and level along with its grid slots.
func CreateClass(t *testing.T, app *App, modality string, teacherID *string, slots ...grid.Slot) (class.Class, []grid.Item) {
	t.Helper()
	ctx := context.Background()
	mod, err := app.Classes.CreateModality(ctx, class.NewName{Name: modality})
	require.NoError(t, err, "creating modality")
	lvl, err := app.Classes.CreateClassLevel(ctx, class.NewName{Name: "Iniciante " + modality})
	require.NoError(t, err, "creating class level")

	c, items, err := app.Grid.Create(ctx, grid.NewSchedule{
		Class: class.NewClass{
			Description:  "Adulto",
			MaxStudents:  10,
			ModalityID:   mod.ID,
			ClassLevelID: lvl.ID,
			TeacherID:    teacherID,
		},
		Items: slots,
	})
	require.NoError(t, err, "creating class")
	return c, items
}

// Enroll enrolls a brand new student named firstName.
func Enroll(t *testing.T, app *App, firstName, classID, planID string, start time.Time, paymentDay int) enrollment.Detail {
	t.Helper()
	d, err := app.Enrollments.Create(context.Background(), enrollment.NewEnrollment{
		Student:    &student.NewStudent{FirstName: firstName, LastName: "Souza", Email: strings.ToLower(firstName) + "@aluno.test"},
		PlanID:     planID,
		ClassID:    classID,
		StartDate:  start,
		PaymentDay: paymentDay,
	})
	require.NoError(t, err, "enrolling student")
	return d
}
