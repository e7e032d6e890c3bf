package main

import (
	"github.com/pkg/errors"
)

// resetPassword sets the password of a user without going through the password policy.
func (cli *commandLine) resetPassword(uname, pwd string) error {
	usr, err := cli.usrSvc.GetByUsernameOrEmail(uname)
	if err != nil {
		return err
	}
	if _, err := cli.usrSvc.SetPassword(usr, pwd); err != nil {
		return errors.Wrap(err, "setting password")
	}
	return nil
}
