package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"golang.org/x/term"

	"github.com/schoolerp/erp/core/reportcard"
	"github.com/schoolerp/erp/core/user"
)

var (
	readPasswordFunc = term.ReadPassword // mockable

	errHelp = errors.New("help provided")
)

type commandLine struct {
	db         *sqlx.DB
	out        io.Writer
	validate   *validator.Validate
	translator ut.Translator
	usrSvc     user.ServiceInterface
	rcSvc      reportcard.ServiceInterface
}

func (cli *commandLine) printUsage() {
	fmt.Fprintln(cli.out, "Usage:")
	fmt.Fprintln(cli.out, "  migrate COMMAND [ARGS]                                - run database migrations (goose commands: up, down, status, ...)")
	fmt.Fprintln(cli.out, "  addschool -name NAME [-code CODE] [-district ...]     - create a school")
	fmt.Fprintln(cli.out, "  schools                                               - list schools")
	fmt.Fprintln(cli.out, "  adduser -username USERNAME -email EMAIL -school ID    - create or update a user; the password is prompted")
	fmt.Fprintln(cli.out, "  resetpassword -username USERNAME|EMAIL                - reset user's password")
	fmt.Fprintln(cli.out, "  render -in INPUT.json -out DIR                        - render report cards offline")
}

func (cli *commandLine) run(args []string) error {
	if len(args) < 2 {
		cli.printUsage()
		return errHelp
	}

	addSchoolCmd := flag.NewFlagSet("addschool", flag.ContinueOnError)
	addSchoolCmd.SetOutput(cli.out)
	addSchoolName := addSchoolCmd.String("name", "", "The school's name.")
	addSchoolCode := addSchoolCmd.String("code", "", "The UDISE school code.")
	addSchoolLogo := addSchoolCmd.String("logo", "", "URL of the school's logo.")
	addSchoolStreet := addSchoolCmd.String("street", "", "Street address.")
	addSchoolCity := addSchoolCmd.String("city", "", "City.")
	addSchoolState := addSchoolCmd.String("state", "Telangana", "State.")
	addSchoolDistrict := addSchoolCmd.String("district", "", "District.")
	addSchoolMandal := addSchoolCmd.String("mandal", "", "Mandal.")
	addSchoolVillage := addSchoolCmd.String("village", "", "Village.")

	addUserCmd := flag.NewFlagSet("adduser", flag.ContinueOnError)
	addUserCmd.SetOutput(cli.out)
	addUserName := addUserCmd.String("name", "", "The user's full name (defaults to the username).")
	addUserUname := addUserCmd.String("username", "", "The user's username.")
	addUserEmail := addUserCmd.String("email", "", "The user's email.")
	addUserSchool := addUserCmd.String("school", "", "ID of the user's school.")
	addUserIsAdmin := addUserCmd.Bool("admin", false, "Make the user a school admin.")
	addUserIsTeacher := addUserCmd.Bool("teacher", false, "Make the user a teacher.")

	resetPasswordCmd := flag.NewFlagSet("resetpassword", flag.ContinueOnError)
	resetPasswordCmd.SetOutput(cli.out)
	resetPasswordUname := resetPasswordCmd.String("username", "", "The user's username or email. The password will be prompted next.")

	renderCmd := flag.NewFlagSet("render", flag.ContinueOnError)
	renderCmd.SetOutput(cli.out)
	renderIn := renderCmd.String("in", "", "JSON file holding one report card input or a list of them.")
	renderOut := renderCmd.String("out", ".", "Directory the HTML files are written to.")

	switch args[1] {
	case "migrate":
		if len(args) < 3 {
			cli.printUsage()
			return errHelp
		}
		return cli.migrate(args[2:])

	case "addschool":
		if err := addSchoolCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *addSchoolName == "" {
			addSchoolCmd.Usage()
			return errHelp
		}
		return cli.addSchool(reportcard.NewSchool{
			Name:    *addSchoolName,
			LogoURL: *addSchoolLogo,
			Address: reportcard.Address{
				Street: *addSchoolStreet,
				City:   *addSchoolCity,
				State:  *addSchoolState,
			},
			District:   *addSchoolDistrict,
			Mandal:     *addSchoolMandal,
			Village:    *addSchoolVillage,
			SchoolCode: *addSchoolCode,
		})

	case "schools":
		return cli.listSchools()

	case "adduser":
		if err := addUserCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *addUserUname == "" && *addUserEmail == "" {
			addUserCmd.Usage()
			return errHelp
		}
		pwd, err := cli.promptPassword()
		if err != nil {
			return err
		}
		if pwd == "" {
			addUserCmd.Usage()
			return errHelp
		}
		var roles []string
		if *addUserIsAdmin {
			roles = append(roles, user.RoleAdmin)
		}
		if *addUserIsTeacher {
			roles = append(roles, user.RoleTeacher)
		}
		name := *addUserName
		if name == "" {
			name = *addUserUname
		}
		return cli.addUser(user.NewUser{
			SchoolID:        *addUserSchool,
			Name:            name,
			Username:        *addUserUname,
			Email:           *addUserEmail,
			Password:        pwd,
			PasswordConfirm: pwd,
			Roles:           roles,
		})

	case "resetpassword":
		if err := resetPasswordCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *resetPasswordUname == "" {
			resetPasswordCmd.Usage()
			return errHelp
		}
		pwd, err := cli.promptPassword()
		if err != nil {
			return err
		}
		if pwd == "" {
			resetPasswordCmd.Usage()
			return errHelp
		}
		return cli.resetPassword(*resetPasswordUname, pwd)

	case "render":
		if err := renderCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *renderIn == "" {
			renderCmd.Usage()
			return errHelp
		}
		return cli.render(*renderIn, *renderOut)

	default:
		cli.printUsage()
		return errHelp
	}
}

func (cli *commandLine) promptPassword() (string, error) {
	fmt.Fprint(cli.out, "Enter password:")
	pwd, err := readPasswordFunc(int(os.Stdin.Fd()))
	fmt.Fprintln(cli.out)
	return string(pwd), err
}

// validationError turns validator errors into a readable message.
func (cli *commandLine) validationError(err error) error {
	var vErrs validator.ValidationErrors
	if !errors.As(err, &vErrs) {
		return err
	}
	msg := "invalid input:"
	for _, vErr := range vErrs {
		msg += fmt.Sprintf("\n  %s: %s", vErr.Namespace(), vErr.Translate(cli.translator))
	}
	return errors.New(msg)
}
