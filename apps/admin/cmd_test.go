package main

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lunedance/lune/core/user"
	testutil "github.com/lunedance/lune/tests"
)

const newPassword = "Nova-senha-2025"

func setup(t *testing.T) (*commandLine, *testutil.App) {
	app := testutil.NewApp(time.Now())
	return &commandLine{users: app.Users, validate: app.Validate}, app
}

type cliTest struct {
	name       string
	args       []string // without program name
	pwd        string
	wantErr    error
	wantErrStr string
}

func runCLI(t *testing.T, cli *commandLine, tt cliTest) error {
	t.Helper()
	readPasswordFunc = func(fd int) ([]byte, error) {
		return []byte(tt.pwd), nil
	}
	return cli.run(append([]string{"admin"}, tt.args...))
}

func checkErr(t *testing.T, err error, tt cliTest) {
	t.Helper()
	switch {
	case tt.wantErr != nil:
		assert.Equal(t, tt.wantErr, errors.Cause(err))
	case tt.wantErrStr != "":
		require.Error(t, err)
		assert.Equal(t, tt.wantErrStr, err.Error())
	default:
		assert.NoError(t, err)
	}
}

func Test_commandLine_migrate(t *testing.T) {
	cli, _ := setup(t)

	gooseRunFunc = func(db *sql.DB, command string, args ...string) error {
		switch command {
		case "up", "up-by-one", "down", "fix", "redo", "reset", "status", "version": // pass
		case "up-to", "down-to":
			if len(args) == 0 {
				return fmt.Errorf("%s must be of form: goose [OPTIONS] DRIVER DBSTRING %s VERSION", command, command)
			}
			if _, err := strconv.ParseInt(args[0], 10, 64); err != nil {
				return fmt.Errorf("version must be a number (got '%s')", args[0])
			}
		case "create":
			if len(args) == 0 {
				return fmt.Errorf("create must be of form: goose [OPTIONS] DRIVER DBSTRING create NAME [go|sql]")
			}
		default:
			return fmt.Errorf("%q: no such command", command)
		}
		return nil
	}

	tests := []cliTest{
		{name: "no subcommand", args: []string{"migrate"}, wantErr: errHelp},
		{name: "unknown subcommand", args: []string{"migrate", "lol"}, wantErrStr: "\"lol\": no such command"},
		{name: "up-to: no args", args: []string{"migrate", "up-to"}, wantErrStr: "up-to must be of form: goose [OPTIONS] DRIVER DBSTRING up-to VERSION"},
		{name: "up-to: non-int arg", args: []string{"migrate", "up-to", "lol"}, wantErrStr: "version must be a number (got 'lol')"},
		{name: "create: no args", args: []string{"migrate", "create"}, wantErrStr: "create must be of form: goose [OPTIONS] DRIVER DBSTRING create NAME [go|sql]"},
		{name: "down-to: no args", args: []string{"migrate", "down-to"}, wantErrStr: "down-to must be of form: goose [OPTIONS] DRIVER DBSTRING down-to VERSION"},
		{name: "up", args: []string{"migrate", "up"}},
		{name: "up-to", args: []string{"migrate", "up-to", "2"}},
		{name: "down", args: []string{"migrate", "down"}},
		{name: "down-to", args: []string{"migrate", "down-to", "1"}},
		{name: "redo", args: []string{"migrate", "redo"}},
		{name: "status", args: []string{"migrate", "status"}},
		{name: "create", args: []string{"migrate", "create", "add_rooms", "sql"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			checkErr(t, runCLI(t, cli, tt), tt)
		})
	}
}

func Test_commandLine_addUser(t *testing.T) {
	cli, app := setup(t)
	ctx := context.Background()

	existing := testutil.CreateUser(t, app, "Ana Lima", "ana@lune.test", false)

	tests := []cliTest{
		{name: "no command", wantErr: errHelp},
		{name: "unknown command", args: []string{"lol"}, wantErr: errHelp},
		{name: "no args", args: []string{"adduser"}, wantErr: errHelp},
		{name: "no name", args: []string{"adduser", "-email", "bia@lune.test"}, pwd: newPassword, wantErr: errHelp},
		{name: "no password", args: []string{"adduser", "-email", "bia@lune.test", "-name", "Bia"}, wantErr: errHelp},
		{name: "create", args: []string{"adduser", "-email", "Bia@Lune.test", "-name", "Bia Costa"}, pwd: newPassword},
		{name: "reactivate", args: []string{"adduser", "-email", existing.Email, "-name", "Ana Lima"}, pwd: newPassword},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			checkErr(t, runCLI(t, cli, tt), tt)
		})
	}

	t.Run("weak password", func(t *testing.T) {
		err := runCLI(t, cli, cliTest{args: []string{"adduser", "-email", "caio@lune.test", "-name", "Caio"}, pwd: "12345678"})
		var vErrs validator.ValidationErrors
		assert.True(t, errors.As(err, &vErrs))
	})

	for _, email := range []string{"bia@lune.test", existing.Email} {
		usr, err := app.Users.Authenticate(ctx, email, newPassword)
		require.NoError(t, err, email)
		assert.True(t, usr.IsActive)
	}
}

func Test_commandLine_resetPassword(t *testing.T) {
	cli, app := setup(t)
	ctx := context.Background()

	usr := testutil.CreateUser(t, app, "Ana Lima", "ana@lune.test", true)

	tests := []cliTest{
		{name: "no args", args: []string{"resetpassword"}, wantErr: errHelp},
		{name: "email but no password", args: []string{"resetpassword", "-email", usr.Email}, wantErr: errHelp},
		{name: "user not found", args: []string{"resetpassword", "-email", "lol@lune.test"}, pwd: newPassword, wantErr: user.ErrNotFound},
		{name: "reset", args: []string{"resetpassword", "-email", usr.Email}, pwd: newPassword},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			checkErr(t, runCLI(t, cli, tt), tt)
		})
	}

	_, err := app.Users.Authenticate(ctx, usr.Email, testutil.DefaultPassword)
	assert.Equal(t, user.ErrNotFound, errors.Cause(err))
	_, err = app.Users.Authenticate(ctx, usr.Email, newPassword)
	assert.NoError(t, err)
}
