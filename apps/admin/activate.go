package main

import (
	"context"
	"errors"
)

var errLastSuperAdmin = errors.New("cannot deactivate the last active super admin")

// setActive activates or deactivates the account identified by uname.
// The last active super admin is never deactivated.
func (cli *commandLine) setActive(uname string, active bool) error {
	ctx := context.Background()
	acc, err := cli.accSvc.GetByUsername(ctx, uname)
	if err != nil {
		return err
	}

	if !active && acc.IsActive && acc.IsSuperAdmin() {
		accounts, err := cli.accSvc.Query(ctx)
		if err != nil {
			return err
		}
		others := 0
		for i := range accounts {
			if accounts[i].ID != acc.ID && accounts[i].IsActive && accounts[i].IsSuperAdmin() {
				others++
			}
		}
		if others == 0 {
			return errLastSuperAdmin
		}
	}

	if acc, err = cli.accSvc.SetActive(ctx, acc, active); err != nil {
		return err
	}
	state := "deactivated"
	if acc.IsActive {
		state = "activated"
	}
	cli.success("account %q %s", acc.Username, state)
	return nil
}
