package main

import (
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"io"
	"strings"
	"syscall"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"golang.org/x/term"

	"github.com/trezcool/kalvi/core/academics"
	"github.com/trezcool/kalvi/core/access"
	"github.com/trezcool/kalvi/core/account"
	"github.com/trezcool/kalvi/core/exams"
)

var (
	readPasswordFunc = term.ReadPassword // mockable

	errHelp = errors.New("help provided")
)

type commandLine struct {
	db         *sql.DB
	accSvc     *account.Service
	acadSvc    *academics.Service
	examSvc    *exams.Service
	validate   *validator.Validate
	translator ut.Translator
	out        io.Writer
}

func (cli *commandLine) printUsage() {
	fmt.Fprintln(cli.out, "Usage:")
	fmt.Fprintln(cli.out, "  migrate COMMAND [ARGS...]                                     - run a goose command (up, down, status, ...)")
	fmt.Fprintln(cli.out, "  adduser -username USERNAME -role ROLE [-branch ID]            - create an account, the password is prompted")
	fmt.Fprintln(cli.out, "  resetpassword -username USERNAME                              - reset an account's password")
	fmt.Fprintln(cli.out, "  listusers                                                     - list accounts")
	fmt.Fprintln(cli.out, "  activate -username USERNAME                                   - allow an account to log in again")
	fmt.Fprintln(cli.out, "  deactivate -username USERNAME                                 - block an account")
	fmt.Fprintln(cli.out, "  addbranch -city CITY [-address ADDRESS] [-phone PHONE]        - create a branch")
	fmt.Fprintln(cli.out, "  listbranches                                                  - list branches")
	fmt.Fprintln(cli.out, "  addcourse -name NAME [-description TEXT]                      - create a course")
	fmt.Fprintln(cli.out, "  addbatch -name NAME -year YEAR -branch ID -course ID          - create a batch")
	fmt.Fprintln(cli.out, "  addstudent -batch ID -admission NO -name NAME [...]           - enroll a student")
	fmt.Fprintln(cli.out, "  addexam -batch ID -title TITLE -date YYYY-MM-DD [-max MARKS]  - schedule an exam")
	fmt.Fprintln(cli.out, "  liststudents -batch ID [-all]                                 - list the students of a batch")
}

// roleChoices lists the roles as `VALUE (Name)`.
func roleChoices() string {
	choices := make([]string, 0, len(access.RoleChoices))
	for _, choice := range access.RoleChoices {
		choices = append(choices, fmt.Sprintf("%s (%s)", choice.Value, choice.Name))
	}
	return strings.Join(choices, ", ")
}

func (cli *commandLine) newFlagSet(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(cli.out)
	return fs
}

// readPassword prompts for a password twice.
func (cli *commandLine) readPassword() (pwd, confirm string, err error) {
	fmt.Fprint(cli.out, "Enter password:")
	p, err := readPasswordFunc(syscall.Stdin)
	fmt.Fprintln(cli.out)
	if err != nil {
		return "", "", err
	}
	fmt.Fprint(cli.out, "Confirm password:")
	c, err := readPasswordFunc(syscall.Stdin)
	fmt.Fprintln(cli.out)
	if err != nil {
		return "", "", err
	}
	return string(p), string(c), nil
}

func (cli *commandLine) run(args []string) error {
	if len(args) < 2 {
		cli.printUsage()
		return errHelp
	}

	switch args[1] {
	case "migrate":
		if len(args) < 3 {
			cli.printUsage()
			return errHelp
		}
		return cli.migrate(args[2:])

	case "adduser":
		cmd := cli.newFlagSet("adduser")
		uname := cmd.String("username", "", "The account's username. The password will be prompted next.")
		role := cmd.String("role", "", "One of "+roleChoices()+".")
		branch := cmd.Int64("branch", 0, "The account's home branch ID; required unless SUPER_ADMIN.")
		if err := cmd.Parse(args[2:]); err != nil {
			return err
		}
		if *uname == "" || *role == "" {
			cmd.Usage()
			return errHelp
		}
		pwd, confirm, err := cli.readPassword()
		if err != nil {
			return err
		}
		if pwd == "" {
			cmd.Usage()
			return errHelp
		}
		return cli.addUser(*uname, *role, *branch, pwd, confirm)

	case "resetpassword":
		cmd := cli.newFlagSet("resetpassword")
		uname := cmd.String("username", "", "The account's username. The password will be prompted next.")
		if err := cmd.Parse(args[2:]); err != nil {
			return err
		}
		if *uname == "" {
			cmd.Usage()
			return errHelp
		}
		pwd, confirm, err := cli.readPassword()
		if err != nil {
			return err
		}
		if pwd == "" {
			cmd.Usage()
			return errHelp
		}
		return cli.resetPassword(*uname, pwd, confirm)

	case "listusers":
		return cli.listUsers()

	case "activate", "deactivate":
		cmd := cli.newFlagSet(args[1])
		uname := cmd.String("username", "", "The account's username.")
		if err := cmd.Parse(args[2:]); err != nil {
			return err
		}
		if *uname == "" {
			cmd.Usage()
			return errHelp
		}
		return cli.setActive(*uname, args[1] == "activate")

	case "listbranches":
		return cli.listBranches()

	case "addbranch":
		cmd := cli.newFlagSet("addbranch")
		nb := academics.NewBranch{}
		cmd.StringVar(&nb.CityName, "city", "", "The branch's city.")
		cmd.StringVar(&nb.Address, "address", "", "The branch's address.")
		cmd.StringVar(&nb.Phone, "phone", "", "The branch's phone number.")
		if err := cmd.Parse(args[2:]); err != nil {
			return err
		}
		return cli.addBranch(nb)

	case "addcourse":
		cmd := cli.newFlagSet("addcourse")
		nc := academics.NewCourse{}
		cmd.StringVar(&nc.Name, "name", "", "The course's name.")
		cmd.StringVar(&nc.Description, "description", "", "The course's description.")
		if err := cmd.Parse(args[2:]); err != nil {
			return err
		}
		return cli.addCourse(nc)

	case "addbatch":
		cmd := cli.newFlagSet("addbatch")
		nb := academics.NewBatch{}
		cmd.StringVar(&nb.Name, "name", "", "The batch's name.")
		cmd.IntVar(&nb.Year, "year", 0, "The batch's academic year.")
		cmd.Int64Var(&nb.BranchID, "branch", 0, "The batch's branch ID.")
		cmd.Int64Var(&nb.CourseID, "course", 0, "The batch's course ID.")
		if err := cmd.Parse(args[2:]); err != nil {
			return err
		}
		return cli.addBatch(nb)

	case "addstudent":
		cmd := cli.newFlagSet("addstudent")
		ns := academics.NewStudent{}
		cmd.Int64Var(&ns.BatchID, "batch", 0, "The student's batch ID.")
		cmd.Int64Var(&ns.BranchID, "branch", 0, "The student's branch ID; defaults to and must match the batch's.")
		cmd.StringVar(&ns.AdmissionNo, "admission", "", "The student's admission number, unique per branch.")
		cmd.StringVar(&ns.FullName, "name", "", "The student's full name.")
		cmd.StringVar(&ns.VernacularName, "vernacular", "", "The student's name in the vernacular script.")
		cmd.StringVar(&ns.GuardianName, "guardian", "", "The guardian's name.")
		cmd.StringVar(&ns.GuardianPhone, "phone", "", "The guardian's phone number.")
		if err := cmd.Parse(args[2:]); err != nil {
			return err
		}
		return cli.addStudent(ns)

	case "addexam":
		cmd := cli.newFlagSet("addexam")
		ne := exams.NewExam{}
		cmd.Int64Var(&ne.BatchID, "batch", 0, "The exam's batch ID.")
		cmd.StringVar(&ne.Title, "title", "", "The exam's title.")
		cmd.StringVar(&ne.ExamDate, "date", "", "The exam's date, YYYY-MM-DD.")
		cmd.IntVar(&ne.MaxMarks, "max", exams.DefaultMaxMarks, "The exam's maximum marks.")
		if err := cmd.Parse(args[2:]); err != nil {
			return err
		}
		return cli.addExam(ne)

	case "liststudents":
		cmd := cli.newFlagSet("liststudents")
		batch := cmd.Int64("batch", 0, "The batch ID.")
		all := cmd.Bool("all", false, "Include inactive students.")
		if err := cmd.Parse(args[2:]); err != nil {
			return err
		}
		if *batch == 0 {
			cmd.Usage()
			return errHelp
		}
		return cli.listStudents(*batch, !*all)

	default:
		cli.printUsage()
		return errHelp
	}
}
