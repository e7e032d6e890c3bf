package main

import (
	"context"
	"fmt"

	"github.com/pkg/errors"

	"github.com/schoolerp/erp/core"
	"github.com/schoolerp/erp/core/user"
)

// addUser updates or creates a user.User
func (cli *commandLine) addUser(nu user.NewUser) error {
	nu.Name = core.CleanString(nu.Name)
	nu.Username = core.CleanString(nu.Username, true /* lower */)
	nu.Email = core.CleanString(nu.Email, true /* lower */)

	if nu.SchoolID != "" {
		if _, err := cli.rcSvc.GetSchool(context.Background(), nu.SchoolID); err != nil {
			return errors.Wrap(err, "getting school")
		}
	}
	if err := cli.validate.Struct(nu); err != nil {
		return cli.validationError(err)
	}

	usr, err := cli.usrSvc.UpdateOrCreate(nu)
	if err != nil {
		return errors.Wrap(err, "saving user")
	}
	fmt.Fprintf(cli.out, "user %s (%s) saved\n", usr.Username, usr.ID)
	return nil
}
