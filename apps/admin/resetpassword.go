package main

import (
	"context"
	"fmt"
)

func (cli *commandLine) resetPassword(uname, pwd string) error {
	usr, err := cli.usrSvc.ResetPassword(context.Background(), uname, pwd)
	if err != nil {
		return err
	}
	fmt.Fprintf(cli.out, "password of %q reset\n", usr.Username)
	return nil
}
