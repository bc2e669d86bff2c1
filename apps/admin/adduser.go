package main

import (
	"context"

	"github.com/pkg/errors"

	"github.com/lunedance/lune/core/user"
)

// addUser creates an active staff user, or reactivates the existing one with a new password.
func (cli *commandLine) addUser(name, email, pwd string) error {
	ctx := context.Background()

	usr, err := cli.users.GetByEmail(ctx, email)
	switch {
	case errors.Cause(err) == user.ErrNotFound:
		nu := user.NewUser{Name: name, Email: email, Password: pwd, PasswordConfirm: pwd}
		if err := nu.Validate(cli.validate); err != nil {
			return err
		}
		_, err = cli.users.Create(ctx, nu)
		return err
	case err != nil:
		return err
	}

	active := true
	uu := user.UpdateUser{Name: name, IsActive: &active, Password: pwd, PasswordConfirm: pwd}
	if err := uu.Validate(usr, cli.validate); err != nil {
		return err
	}
	_, err = cli.users.Update(ctx, usr.ID, uu)
	return err
}
