package student_test

import (
	"context"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lunedance/lune/core/calendar"
	"github.com/lunedance/lune/core/student"
	testutil "github.com/lunedance/lune/tests"
)

func TestStudent_Age(t *testing.T) {
	birth := calendar.Date(2000, time.June, 15)
	s := student.Student{BirthDate: &birth}

	tests := []struct {
		at   time.Time
		want int
	}{
		{calendar.Date(2024, time.June, 14), 23},
		{calendar.Date(2024, time.June, 16), 24},
		{calendar.Date(2024, time.December, 1), 24},
	}
	for _, tt := range tests {
		t.Run(tt.at.Format("2006-01-02"), func(t *testing.T) {
			assert.Equal(t, tt.want, s.Age(tt.at))
		})
	}
	assert.Equal(t, -1, student.Student{}.Age(time.Now()))
}

func TestNewStudent_Validate(t *testing.T) {
	validate, _ := testutil.NewValidator()

	ns := student.NewStudent{
		FirstName: "  Maria ",
		CPF:       "529.982.247-25",
		Phone:     "(11) 98765-4321",
		Email:     " Maria@Aluno.Test",
		Instagram: "@maria.danca",
	}
	require.NoError(t, ns.Validate(validate))
	assert.Equal(t, "Maria", ns.FirstName)
	assert.Equal(t, "52998224725", ns.CPF)
	assert.Equal(t, "11987654321", ns.Phone)
	assert.Equal(t, "maria@aluno.test", ns.Email)
	assert.Equal(t, "maria.danca", ns.Instagram)

	bad := student.NewStudent{FirstName: "Maria", Phone: "98765"}
	assert.Error(t, bad.Validate(validate))

	nc := student.NewEmergencyContact{Name: "Joana"}
	assert.Error(t, nc.Validate(validate), "a named contact needs a phone")
	nc = student.NewEmergencyContact{}
	assert.NoError(t, nc.Validate(validate))

	na := student.NewAddress{ZipCode: "01310-100", State: "sp"}
	require.NoError(t, na.Validate(validate))
	assert.Equal(t, "01310100", na.ZipCode)
	assert.Equal(t, "SP", na.State)
}

func TestService(t *testing.T) {
	app := testutil.NewApp(time.Now())
	ctx := context.Background()

	maria, err := app.Students.Create(ctx, student.NewStudent{FirstName: "Maria", LastName: "Souza"})
	require.NoError(t, err)
	_, err = app.Students.Create(ctx, student.NewStudent{FirstName: "Joana", LastName: "Lima"})
	require.NoError(t, err)

	t.Run("profile", func(t *testing.T) {
		p, err := app.Students.Get(ctx, maria.ID)
		require.NoError(t, err)
		assert.Empty(t, p.EmergencyContacts)
		assert.Nil(t, p.Address)

		c, err := app.Students.AddEmergencyContact(ctx, maria.ID, student.NewEmergencyContact{})
		require.NoError(t, err)
		assert.Nil(t, c, "nameless contacts are skipped")

		c, err = app.Students.SaveEmergencyContact(ctx, maria.ID, student.NewEmergencyContact{Name: "Ana", Phone: "11911112222"})
		require.NoError(t, err)
		require.NotNil(t, c)
		updated, err := app.Students.SaveEmergencyContact(ctx, maria.ID, student.NewEmergencyContact{Name: "Rosa", Phone: "11933334444", Relationship: "mãe"})
		require.NoError(t, err)
		assert.Equal(t, c.ID, updated.ID, "the first contact is replaced")

		_, err = app.Students.SaveAddress(ctx, maria.ID, student.NewAddress{City: "São Paulo", State: "SP"})
		require.NoError(t, err)
		addr, err := app.Students.SaveAddress(ctx, maria.ID, student.NewAddress{City: "Campinas", State: "SP"})
		require.NoError(t, err)

		p, err = app.Students.Get(ctx, maria.ID)
		require.NoError(t, err)
		require.Len(t, p.EmergencyContacts, 1)
		assert.Equal(t, "Rosa", p.EmergencyContacts[0].Name)
		require.NotNil(t, p.Address)
		assert.Equal(t, addr.ID, p.Address.ID)
		assert.Equal(t, "Campinas", p.Address.City)

		_, err = app.Students.SaveAddress(ctx, "nope", student.NewAddress{})
		assert.Equal(t, student.ErrNotFound, errors.Cause(err))
	})

	t.Run("search", func(t *testing.T) {
		found, err := app.Students.Search(ctx, " souza")
		require.NoError(t, err)
		require.Len(t, found, 1)
		assert.Equal(t, maria.ID, found[0].ID)

		found, err = app.Students.Search(ctx, "")
		require.NoError(t, err)
		assert.Len(t, found, 2)
	})

	t.Run("update", func(t *testing.T) {
		obs := "  alergia a poeira "
		birth := calendar.Date(1995, time.May, 2)
		got, err := app.Students.Update(ctx, maria.ID, student.UpdateStudent{Obs: &obs, BirthDate: &birth})
		require.NoError(t, err)
		assert.Equal(t, "alergia a poeira", got.Obs)
		require.NotNil(t, got.BirthDate)
		assert.Equal(t, "Souza", got.LastName)
	})

	t.Run("remove", func(t *testing.T) {
		require.NoError(t, app.Students.Remove(ctx, maria.ID))
		_, err := app.Students.Get(ctx, maria.ID)
		assert.Equal(t, student.ErrNotFound, errors.Cause(err))
		assert.Equal(t, student.ErrNotFound, errors.Cause(app.Students.Remove(ctx, maria.ID)))
	})
}
