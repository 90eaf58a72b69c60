package main

import (
	"context"
	"strconv"

	"github.com/olekukonko/tablewriter"

	"github.com/trezcool/kalvi/core/access"
	"github.com/trezcool/kalvi/core/account"
)

// addUser creates an account.Account
func (cli *commandLine) addUser(uname, role string, branchID int64, pwd, confirm string) error {
	na := account.NewAccount{
		Username:        uname,
		Role:            access.Role(role),
		Password:        pwd,
		PasswordConfirm: confirm,
	}
	if branchID != 0 {
		na.BranchID = &branchID
	}
	if err := na.Validate(cli.validate, cli.accSvc); err != nil {
		return cli.validationErr(err)
	}

	acc, err := cli.accSvc.Create(context.Background(), na)
	if err != nil {
		return cli.validationErr(err)
	}
	cli.success("account %q created (id %d)", acc.Username, acc.ID)
	return nil
}

func (cli *commandLine) listUsers() error {
	accounts, err := cli.accSvc.Query(context.Background())
	if err != nil {
		return err
	}

	table := tablewriter.NewWriter(cli.out)
	table.SetHeader([]string{"ID", "Username", "Role", "Branch", "Active", "Last login"})
	for _, acc := range accounts {
		lastLogin := "never"
		if !acc.LastLogin.IsZero() {
			lastLogin = acc.LastLogin.Format("2006-01-02 15:04")
		}
		table.Append([]string{
			strconv.FormatInt(acc.ID, 10),
			acc.Username,
			string(acc.Role),
			acc.BranchCity,
			strconv.FormatBool(acc.IsActive),
			lastLogin,
		})
	}
	table.Render()
	return nil
}
