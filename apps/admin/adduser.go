package main

import (
	"context"
	"fmt"

	"github.com/volatiletech/null/v8"

	"github.com/coastwrpt/wrpt/core/user"
)

// addUser creates a staff user or a user bound to `schoolID`.
func (cli *commandLine) addUser(uname, pwd string, isStaff bool, schoolID string, hidePwdLink bool) error {
	nu := user.NewUser{
		Username:               uname,
		IsStaff:                isStaff,
		HideChangePasswordLink: hidePwdLink,
		Password:               pwd,
		PasswordConfirm:        pwd,
	}
	if schoolID != "" {
		nu.SchoolID = null.StringFrom(schoolID)
	}

	usr, err := cli.usrSvc.Create(context.Background(), nu)
	if err != nil {
		return err
	}
	fmt.Fprintf(cli.out, "user %q created (id=%s)\n", usr.Username, usr.ID)
	return nil
}
