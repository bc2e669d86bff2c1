package main

import (
	"context"

	"github.com/lunedance/lune/core/user"
)

func (cli *commandLine) resetPassword(email, pwd string) error {
	ctx := context.Background()
	usr, err := cli.users.GetByEmail(ctx, email)
	if err != nil {
		return err
	}
	uu := user.UpdateUser{Password: pwd, PasswordConfirm: pwd}
	if err := uu.Validate(usr, cli.validate); err != nil {
		return err
	}
	if _, err := cli.users.Update(ctx, usr.ID, uu); err != nil {
		return err
	}
	return nil
}
