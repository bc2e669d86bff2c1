package teacher_test

import (
	"context"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lunedance/lune/core"
	"github.com/lunedance/lune/core/teacher"
	testutil "github.com/lunedance/lune/tests"
)

func TestNewTeacher_Validate(t *testing.T) {
	validate, _ := testutil.NewValidator()

	nt := teacher.NewTeacher{
		FirstName: " Clara ",
		Email:     "Clara@Lune.Test",
		Phone:     "(11) 98765-4321",
		CPF:       "529.982.247-25",
		PriceHour: decimal.NewFromInt(60),
		Password:  "segredo",
	}
	require.NoError(t, nt.Validate(validate))
	assert.Equal(t, "Clara", nt.FirstName)
	assert.Equal(t, "clara@lune.test", nt.Email)
	assert.Equal(t, "52998224725", nt.CPF)
	assert.Equal(t, "11987654321", nt.Phone)

	bad := nt
	bad.CPF = "1234"
	assert.Error(t, bad.Validate(validate))

	bad = nt
	bad.PriceHour = decimal.NewFromInt(-1)
	assert.Error(t, bad.Validate(validate))

	bad = nt
	bad.Password = "123"
	assert.Error(t, bad.Validate(validate))
}

func TestService(t *testing.T) {
	app := testutil.NewApp(time.Now())
	ctx := context.Background()

	clara := testutil.CreateTeacher(t, app, "Clara", "52998224725", 60)
	dora := testutil.CreateTeacher(t, app, "Dora", "11144477735", 80)
	assert.True(t, clara.IsActive)

	t.Run("cpf is unique", func(t *testing.T) {
		_, err := app.Teachers.Create(ctx, teacher.NewTeacher{FirstName: "Eva", CPF: clara.CPF, Password: "segredo"})
		var vErr *core.ValidationError
		require.True(t, errors.As(err, &vErr))
		assert.Equal(t, teacher.ErrCPFExists, vErr.Err)

		_, err = app.Teachers.Update(ctx, dora.ID, teacher.UpdateTeacher{CPF: &clara.CPF})
		assert.True(t, errors.As(err, &vErr))
	})

	t.Run("authenticate", func(t *testing.T) {
		got, err := app.Teachers.Authenticate(ctx, "529.982.247-25", testutil.DefaultPassword)
		require.NoError(t, err)
		assert.Equal(t, clara.ID, got.ID)

		_, err = app.Teachers.Authenticate(ctx, clara.CPF, "wrong")
		assert.Equal(t, teacher.ErrNotFound, errors.Cause(err))
		_, err = app.Teachers.Authenticate(ctx, "00000000000", testutil.DefaultPassword)
		assert.Equal(t, teacher.ErrNotFound, errors.Cause(err))
	})

	t.Run("update", func(t *testing.T) {
		price, inactive := decimal.NewFromInt(75), false
		got, err := app.Teachers.Update(ctx, dora.ID, teacher.UpdateTeacher{
			PriceHour: &price,
			IsActive:  &inactive,
			Password:  "nova-senha",
		})
		require.NoError(t, err)
		assert.Equal(t, "75", got.PriceHour.String())
		assert.False(t, got.IsActive)

		_, err = app.Teachers.Authenticate(ctx, dora.CPF, "nova-senha")
		assert.NoError(t, err)
	})

	t.Run("list", func(t *testing.T) {
		teachers, err := app.Teachers.List(ctx, teacher.Filter{Name: " dor "})
		require.NoError(t, err)
		require.Len(t, teachers, 1)
		assert.Equal(t, dora.ID, teachers[0].ID)

		active := true
		teachers, err = app.Teachers.List(ctx, teacher.Filter{IsActive: &active})
		require.NoError(t, err)
		require.Len(t, teachers, 1)
		assert.Equal(t, clara.ID, teachers[0].ID)

		teachers, err = app.Teachers.List(ctx, teacher.Filter{}, core.DBOrdering{Field: "price_hour", Ascending: true})
		require.NoError(t, err)
		require.Len(t, teachers, 2)
		assert.Equal(t, clara.ID, teachers[0].ID)
	})

	t.Run("delete", func(t *testing.T) {
		testutil.CreateClass(t, app, "Ballet", &clara.ID)

		err := app.Teachers.Delete(ctx, clara.ID)
		var iErr *core.IntegrityError
		require.True(t, errors.As(err, &iErr))
		assert.Equal(t, []string{"Clara Silva"}, iErr.Blockers)

		require.NoError(t, app.Teachers.Delete(ctx, dora.ID))
		_, err = app.Teachers.Get(ctx, dora.ID)
		assert.Equal(t, teacher.ErrNotFound, errors.Cause(err))
	})
}
