package main

import (
	"context"
	"fmt"

	"github.com/olekukonko/tablewriter"
	"github.com/pkg/errors"

	"github.com/schoolerp/erp/core/reportcard"
)

func (cli *commandLine) addSchool(ns reportcard.NewSchool) error {
	if err := ns.Validate(cli.validate); err != nil {
		return cli.validationError(err)
	}
	school, err := cli.rcSvc.CreateSchool(context.Background(), ns)
	if err != nil {
		return errors.Wrap(err, "creating school")
	}
	fmt.Fprintf(cli.out, "school %q created: %s\n", school.Name, school.ID)
	return nil
}

func (cli *commandLine) listSchools() error {
	schools, err := cli.rcSvc.QuerySchools(context.Background())
	if err != nil {
		return errors.Wrap(err, "querying schools")
	}

	table := tablewriter.NewWriter(cli.out)
	table.SetHeader([]string{"ID", "Name", "Code", "District"})
	for _, s := range schools {
		table.Append([]string{s.ID, s.Name, s.SchoolCode, s.District})
	}
	table.Render()
	return nil
}
