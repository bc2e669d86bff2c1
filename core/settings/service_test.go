package settings_test

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lunedance/lune/core/settings"
	testutil "github.com/lunedance/lune/tests"
)

func TestService_Get(t *testing.T) {
	app := testutil.NewApp(time.Now())
	ctx := context.Background()

	s, err := app.Settings.Get(ctx)
	require.NoError(t, err)
	assert.NotEmpty(t, s.ID)
	assert.Equal(t, "40", s.TrialClassPrice.String())
	assert.Equal(t, "20", s.TeacherCommissionPerEnrollment.String())
	assert.True(t, s.TeacherCommissionPerTrialClass.IsZero())

	again, err := app.Settings.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, s.ID, again.ID, "the defaults are created once")

	t.Run("served from cache", func(t *testing.T) {
		changed := s
		changed.TrialClassPrice = decimal.NewFromInt(99)
		_, err := app.Store.UpdateSettings(ctx, changed)
		require.NoError(t, err)

		cached, err := app.Settings.Get(ctx)
		require.NoError(t, err)
		assert.Equal(t, "40", cached.TrialClassPrice.String())
	})
}

func TestService_Update(t *testing.T) {
	app := testutil.NewApp(time.Now())
	ctx := context.Background()

	_, err := app.Settings.Get(ctx)
	require.NoError(t, err)

	price := decimal.RequireFromString("45.5")
	us := settings.UpdateSettings{TrialClassPrice: &price}
	require.NoError(t, us.Validate(app.Validate))
	s, err := app.Settings.Update(ctx, us)
	require.NoError(t, err)
	assert.Equal(t, "45.5", s.TrialClassPrice.String())
	assert.Equal(t, "20", s.TeacherCommissionPerEnrollment.String(), "unset fields are kept")

	got, err := app.Settings.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, "45.5", got.TrialClassPrice.String(), "updates invalidate the cache")

	negative := decimal.NewFromInt(-1)
	bad := settings.UpdateSettings{TeacherCommissionPerTrialClass: &negative}
	assert.Error(t, bad.Validate(app.Validate))
}
