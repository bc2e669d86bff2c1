package user_test

import (
	"context"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lunedance/lune/core"
	"github.com/lunedance/lune/core/user"
	testutil "github.com/lunedance/lune/tests"
)

var now = time.Date(2024, time.March, 10, 12, 0, 0, 0, time.UTC)

func TestNewUser_Validate(t *testing.T) {
	validate, _ := testutil.NewValidator()

	tests := []struct {
		name    string
		pwd     string
		wantTag string
	}{
		{name: "strong", pwd: "Lune-pass-2024"},
		{name: "too short", pwd: "Ab1!", wantTag: "pwdminlen"},
		{name: "whitespace", pwd: "Lune pass 2024!", wantTag: "pwdnospace"},
		{name: "all numeric", pwd: "20242025", wantTag: "pwdnotallnum"},
		{name: "not complex", pwd: "lunepass2024", wantTag: "pwdcplx"},
		{name: "like the name", pwd: "Ana.Maria-1", wantTag: "pwdtoosim"},
		{name: "common", pwd: "Admin2024!", wantTag: "pwdnocommon"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			nu := user.NewUser{Name: "Ana Maria", Email: " Ana@Lune.Test ", Password: tt.pwd, PasswordConfirm: tt.pwd}
			err := nu.Validate(validate)
			assert.Equal(t, "ana@lune.test", nu.Email)
			if tt.wantTag == "" {
				assert.NoError(t, err)
				return
			}
			var vErrs validator.ValidationErrors
			require.True(t, errors.As(err, &vErrs), "got %v", err)
			require.Len(t, vErrs, 1)
			assert.Equal(t, tt.wantTag, vErrs[0].Tag())
		})
	}

	t.Run("confirmation mismatch", func(t *testing.T) {
		nu := user.NewUser{Name: "Ana", Email: "ana@lune.test", Password: "Lune-pass-2024", PasswordConfirm: "Lune-pass-2025"}
		err := nu.Validate(validate)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "password_confirm")
	})
}

func TestService_Create(t *testing.T) {
	app := testutil.NewApp(now)
	ctx := context.Background()

	usr := testutil.CreateUser(t, app, "Ana", "ana@lune.test", true)
	assert.True(t, usr.IsActive)
	assert.NotEqual(t, []byte(testutil.DefaultPassword), usr.PasswordHash, "passwords are hashed")

	_, err := app.Users.Create(ctx, user.NewUser{Name: "Other", Email: "ana@lune.test", Password: testutil.DefaultPassword})
	var vErr *core.ValidationError
	require.True(t, errors.As(err, &vErr))
	assert.Equal(t, user.ErrEmailExists, vErr.Err)

	bia := testutil.CreateUser(t, app, "Bia", "bia@lune.test", true)
	_, err = app.Users.Update(ctx, bia.ID, user.UpdateUser{Email: "ana@lune.test"})
	assert.True(t, errors.As(err, &vErr), "email taken by another user")

	t.Run("list", func(t *testing.T) {
		users, err := app.Users.List(ctx, user.QueryFilter{Search: " BIA "})
		require.NoError(t, err)
		require.Len(t, users, 1)
		assert.Equal(t, bia.ID, users[0].ID)

		inactive := false
		users, err = app.Users.List(ctx, user.QueryFilter{IsActive: &inactive})
		require.NoError(t, err)
		assert.Empty(t, users)
	})

	t.Run("delete", func(t *testing.T) {
		require.NoError(t, app.Users.Delete(ctx, bia.ID))
		_, err := app.Users.Get(ctx, bia.ID)
		assert.Equal(t, user.ErrNotFound, errors.Cause(err))
	})
}

func TestService_Authenticate(t *testing.T) {
	app := testutil.NewApp(now)
	ctx := context.Background()

	ana := testutil.CreateUser(t, app, "Ana", "ana@lune.test", true)
	testutil.CreateUser(t, app, "Caio", "caio@lune.test", false)

	tests := []struct {
		name    string
		email   string
		pwd     string
		wantErr error
	}{
		{name: "valid", email: " ANA@lune.test", pwd: testutil.DefaultPassword},
		{name: "wrong password", email: "ana@lune.test", pwd: "Lune-pass-2025", wantErr: user.ErrNotFound},
		{name: "unknown email", email: "zoe@lune.test", pwd: testutil.DefaultPassword, wantErr: user.ErrNotFound},
		{name: "inactive", email: "caio@lune.test", pwd: testutil.DefaultPassword, wantErr: user.ErrInactive},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			usr, err := app.Users.Authenticate(ctx, tt.email, tt.pwd)
			if tt.wantErr != nil {
				assert.Equal(t, tt.wantErr, errors.Cause(err))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, ana.ID, usr.ID)
			assert.True(t, now.Equal(usr.LastLogin))
		})
	}
}

// resetParams extracts the uid and token of the reset link in the last email sent.
func resetParams(t *testing.T, app *testutil.App) (string, string) {
	t.Helper()
	sent := app.Mailer.SentMessages()
	require.NotEmpty(t, sent)
	msg := sent[len(sent)-1]
	for _, line := range strings.Split(msg.TextContent, "\n") {
		if strings.Contains(line, "/redefinir-senha?") {
			u, err := url.Parse(strings.TrimSpace(line))
			require.NoError(t, err)
			return u.Query().Get("uid"), u.Query().Get("token")
		}
	}
	t.Fatal("no reset link in email")
	return "", ""
}

func TestService_PasswordReset(t *testing.T) {
	app := testutil.NewApp(now)
	ctx := context.Background()

	testutil.CreateUser(t, app, "Ana", "ana@lune.test", true)
	testutil.CreateUser(t, app, "Caio", "caio@lune.test", false)

	assert.Equal(t, user.ErrNotFound, errors.Cause(app.Users.RequestPasswordReset(ctx, "zoe@lune.test")))
	assert.Equal(t, user.ErrInactive, errors.Cause(app.Users.RequestPasswordReset(ctx, "caio@lune.test")))
	assert.Empty(t, app.Mailer.SentMessages())

	require.NoError(t, app.Users.RequestPasswordReset(ctx, "ana@lune.test"))
	uid, token := resetParams(t, app)
	require.NotEmpty(t, uid)
	require.NotEmpty(t, token)

	const newPwd = "Nova-senha-2025"
	reset := func(uid, token string) error {
		data := user.ResetUserPassword{UID: uid, Token: token, Password: newPwd, PasswordConfirm: newPwd}
		require.NoError(t, data.Validate(app.Validate))
		return app.Users.ResetPassword(ctx, data)
	}

	var vErr *core.ValidationError
	assert.True(t, errors.As(reset(uid, "bad-token"), &vErr))
	assert.True(t, errors.As(reset("bad-uid", token), &vErr))

	require.NoError(t, reset(uid, token))
	_, err := app.Users.Authenticate(ctx, "ana@lune.test", newPwd)
	assert.NoError(t, err)

	err = reset(uid, token)
	require.True(t, errors.As(err, &vErr), "tokens die with the password they were issued for")
	assert.Equal(t, core.ErrInvalidOrExpiredToken, vErr.Err)
}
