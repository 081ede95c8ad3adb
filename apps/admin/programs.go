package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/coastwrpt/wrpt/core"
	"github.com/coastwrpt/wrpt/core/program"
)

func (cli *commandLine) addSchool(name string) error {
	school, err := cli.progSvc.CreateSchool(context.Background(), program.NewSchool{Name: name})
	if err != nil {
		return err
	}
	fmt.Fprintf(cli.out, "school %q created (id=%s)\n", school.Name, school.ID)
	return nil
}

// addSchedule creates a schedule and adds every date of the comma separated `dates` to it.
func (cli *commandLine) addSchedule(name, dates string) error {
	var days []time.Time
	for _, s := range strings.Split(dates, ",") {
		if s = strings.TrimSpace(s); s == "" {
			continue
		}
		d, err := time.Parse(core.DateLayout, s)
		if err != nil {
			return errors.Wrapf(err, "parsing event date %q", s)
		}
		days = append(days, d)
	}

	ctx := context.Background()
	sched, err := cli.progSvc.CreateSchedule(ctx, program.NewSchedule{Name: name})
	if err != nil {
		return err
	}
	for _, d := range days {
		if _, err = cli.progSvc.AddEventDate(ctx, program.NewEventDate{ScheduleID: sched.ID, Date: d}); err != nil {
			return errors.Wrapf(err, "adding event date %s", d.Format(core.DateLayout))
		}
	}
	fmt.Fprintf(cli.out, "schedule %q created with %d event dates (id=%s)\n", sched.Name, len(days), sched.ID)
	return nil
}

// addProgram creates a program. A negative `goal` leaves the participation goal unset.
func (cli *commandLine) addProgram(schoolID, scheduleID, year string, split bool, goal int) error {
	np := program.NewProgram{
		SchoolID:    schoolID,
		ScheduleID:  scheduleID,
		SchoolYear:  year,
		SplitCounts: split,
	}
	if goal >= 0 {
		np.ParticipationGoal = null.IntFrom(goal)
	}

	prog, err := cli.progSvc.CreateProgram(context.Background(), np, cli.today())
	if err != nil {
		return err
	}
	fmt.Fprintf(cli.out, "program %q created (id=%s)\n", prog.String(), prog.ID)
	return nil
}

// programChanges holds the program fields given on the command line. Nil fields are left as they are.
type programChanges struct {
	scheduleID *string
	year       *string
	split      *bool
	goal       *int // negative unsets the goal
}

func (cli *commandLine) updateProgram(id string, ch programChanges) error {
	ctx := context.Background()
	prog, err := cli.progSvc.GetProgram(ctx, id)
	if err != nil {
		return err
	}

	up := program.UpdateProgram{
		ScheduleID:        prog.ScheduleID,
		SchoolYear:        prog.SchoolYear,
		SplitCounts:       prog.SplitCounts,
		ParticipationGoal: prog.ParticipationGoal,
	}
	if ch.scheduleID != nil {
		up.ScheduleID = *ch.scheduleID
	}
	if ch.year != nil {
		up.SchoolYear = *ch.year
	}
	if ch.split != nil {
		up.SplitCounts = *ch.split
	}
	if ch.goal != nil {
		up.ParticipationGoal = null.Int{}
		if *ch.goal >= 0 {
			up.ParticipationGoal = null.IntFrom(*ch.goal)
		}
	}

	if prog, err = cli.progSvc.UpdateProgram(ctx, id, up); err != nil {
		return err
	}
	fmt.Fprintf(cli.out, "program %q updated (id=%s)\n", prog.String(), prog.ID)
	return nil
}

func (cli *commandLine) addClassroom(programID, name string, enrollment int) error {
	room, err := cli.progSvc.CreateClassroom(context.Background(), program.NewClassroom{
		ProgramID:  programID,
		Name:       name,
		Enrollment: enrollment,
	})
	if err != nil {
		return err
	}
	fmt.Fprintf(cli.out, "classroom %q created (id=%s)\n", room.Name, room.ID)
	return nil
}
