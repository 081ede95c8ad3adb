package main

import (
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"io"
	"syscall"
	"time"

	"golang.org/x/term"

	"github.com/coastwrpt/wrpt/core/count"
	"github.com/coastwrpt/wrpt/core/program"
	"github.com/coastwrpt/wrpt/core/user"
)

var (
	readPasswordFunc = term.ReadPassword // mockable

	errHelp = errors.New("help provided")
)

type commandLine struct {
	db        *sql.DB
	usrSvc    *user.Service
	progSvc   *program.Service
	countRepo count.Repository
	out       io.Writer
	today     func() time.Time
}

func (cli *commandLine) printUsage() {
	fmt.Fprintln(cli.out, "Usage:")
	fmt.Fprintln(cli.out, "  migrate COMMAND [ARGS] - run a goose migration command (up, down, status, ...)")
	fmt.Fprintln(cli.out, "  adduser -username USERNAME [-staff | -school SCHOOL_ID [-hidepwdlink]] - create a user")
	fmt.Fprintln(cli.out, "  resetpassword -username USERNAME - reset user's password")
	fmt.Fprintln(cli.out, "  addschool -name NAME - create a school")
	fmt.Fprintln(cli.out, "  addschedule -name NAME -dates YYYY-MM-DD,... - create a schedule with its event dates")
	fmt.Fprintln(cli.out, "  addprogram -school SCHOOL_ID -schedule SCHEDULE_ID [-year YYYY-YYYY] [-split] [-goal PCT] - create a program")
	fmt.Fprintln(cli.out, "  updateprogram -program PROGRAM_ID [-schedule SCHEDULE_ID] [-year YYYY-YYYY] [-split=BOOL] [-goal PCT] - update a program")
	fmt.Fprintln(cli.out, "  addclassroom -program PROGRAM_ID -name NAME -enrollment N - add a classroom to a program")
	fmt.Fprintln(cli.out, "  dumpcounts - write every count as CSV to stdout")
}

func (cli *commandLine) run(args []string) error {
	if len(args) < 2 {
		cli.printUsage()
		return errHelp
	}

	addUserCmd := flag.NewFlagSet("adduser", flag.ContinueOnError)
	addUserUname := addUserCmd.String("username", "", "The user's username. The password will be prompted next.")
	addUserStaff := addUserCmd.Bool("staff", false, "Whether the user is a staff member.")
	addUserSchool := addUserCmd.String("school", "", "The ID of the user's school.")
	addUserHideLink := addUserCmd.Bool("hidepwdlink", false, "Hide the change password link for the user.")

	resetPasswordCmd := flag.NewFlagSet("resetpassword", flag.ContinueOnError)
	resetPasswordUname := resetPasswordCmd.String("username", "", "The user's username. The password will be prompted next.")

	addSchoolCmd := flag.NewFlagSet("addschool", flag.ContinueOnError)
	addSchoolName := addSchoolCmd.String("name", "", "The school's name.")

	addScheduleCmd := flag.NewFlagSet("addschedule", flag.ContinueOnError)
	addScheduleName := addScheduleCmd.String("name", "", "The schedule's name.")
	addScheduleDates := addScheduleCmd.String("dates", "", "Comma separated event dates (YYYY-MM-DD).")

	addProgramCmd := flag.NewFlagSet("addprogram", flag.ContinueOnError)
	addProgramSchool := addProgramCmd.String("school", "", "The school ID.")
	addProgramSchedule := addProgramCmd.String("schedule", "", "The schedule ID.")
	addProgramYear := addProgramCmd.String("year", "", "The school year. Defaults to the current one.")
	addProgramSplit := addProgramCmd.Bool("split", false, "Record active and inactive participants separately.")
	addProgramGoal := addProgramCmd.Int("goal", -1, "The participation goal, in percent.")

	// unset flags keep the program's current values
	updateProgramCmd := flag.NewFlagSet("updateprogram", flag.ContinueOnError)
	updateProgramID := updateProgramCmd.String("program", "", "The program ID.")
	updateProgramSchedule := updateProgramCmd.String("schedule", "", "The new schedule ID.")
	updateProgramYear := updateProgramCmd.String("year", "", "The new school year.")
	updateProgramSplit := updateProgramCmd.Bool("split", false, "Record active and inactive participants separately.")
	updateProgramGoal := updateProgramCmd.Int("goal", -1, "The new participation goal, in percent.")

	addClassroomCmd := flag.NewFlagSet("addclassroom", flag.ContinueOnError)
	addClassroomProgram := addClassroomCmd.String("program", "", "The program ID.")
	addClassroomName := addClassroomCmd.String("name", "", "The classroom's name.")
	addClassroomEnrollment := addClassroomCmd.Int("enrollment", 0, "The classroom's enrollment.")

	for _, fs := range []*flag.FlagSet{addUserCmd, resetPasswordCmd, addSchoolCmd, addScheduleCmd, addProgramCmd, updateProgramCmd, addClassroomCmd} {
		fs.SetOutput(cli.out)
	}

	switch args[1] {
	case "migrate":
		if len(args) < 3 {
			cli.printUsage()
			return errHelp
		}
		return cli.migrate(args[2:])

	case "adduser":
		if err := addUserCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *addUserUname == "" {
			addUserCmd.Usage()
			return errHelp
		}
		pwd, err := cli.readPassword()
		if err != nil {
			return err
		}
		if pwd == "" {
			addUserCmd.Usage()
			return errHelp
		}
		return cli.addUser(*addUserUname, pwd, *addUserStaff, *addUserSchool, *addUserHideLink)

	case "resetpassword":
		if err := resetPasswordCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *resetPasswordUname == "" {
			resetPasswordCmd.Usage()
			return errHelp
		}
		pwd, err := cli.readPassword()
		if err != nil {
			return err
		}
		if pwd == "" {
			resetPasswordCmd.Usage()
			return errHelp
		}
		return cli.resetPassword(*resetPasswordUname, pwd)

	case "addschool":
		if err := addSchoolCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *addSchoolName == "" {
			addSchoolCmd.Usage()
			return errHelp
		}
		return cli.addSchool(*addSchoolName)

	case "addschedule":
		if err := addScheduleCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *addScheduleName == "" {
			addScheduleCmd.Usage()
			return errHelp
		}
		return cli.addSchedule(*addScheduleName, *addScheduleDates)

	case "addprogram":
		if err := addProgramCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *addProgramSchool == "" || *addProgramSchedule == "" {
			addProgramCmd.Usage()
			return errHelp
		}
		return cli.addProgram(*addProgramSchool, *addProgramSchedule, *addProgramYear, *addProgramSplit, *addProgramGoal)

	case "updateprogram":
		if err := updateProgramCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *updateProgramID == "" {
			updateProgramCmd.Usage()
			return errHelp
		}
		var ch programChanges
		updateProgramCmd.Visit(func(f *flag.Flag) {
			switch f.Name {
			case "schedule":
				ch.scheduleID = updateProgramSchedule
			case "year":
				ch.year = updateProgramYear
			case "split":
				ch.split = updateProgramSplit
			case "goal":
				ch.goal = updateProgramGoal
			}
		})
		return cli.updateProgram(*updateProgramID, ch)

	case "addclassroom":
		if err := addClassroomCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *addClassroomProgram == "" || *addClassroomName == "" {
			addClassroomCmd.Usage()
			return errHelp
		}
		return cli.addClassroom(*addClassroomProgram, *addClassroomName, *addClassroomEnrollment)

	case "dumpcounts":
		return cli.dumpCounts()

	default:
		cli.printUsage()
		return errHelp
	}
}

func (cli *commandLine) readPassword() (string, error) {
	fmt.Fprint(cli.out, "Enter password:")
	pwd, err := readPasswordFunc(int(syscall.Stdin))
	fmt.Fprintln(cli.out)
	if err != nil {
		return "", err
	}
	return string(pwd), nil
}
