package main

import (
	"context"

	"github.com/trezcool/kalvi/core/account"
)

func (cli *commandLine) resetPassword(uname, pwd, confirm string) error {
	rp := account.ResetPassword{Username: uname, Password: pwd, PasswordConfirm: confirm}
	if err := rp.Validate(cli.validate); err != nil {
		return cli.validationErr(err)
	}
	if err := cli.accSvc.ResetPassword(context.Background(), rp); err != nil {
		return err
	}
	cli.success("password of %q updated", rp.Username)
	return nil
}
