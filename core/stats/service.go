package stats

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/coastwrpt/wrpt/core"
	"github.com/coastwrpt/wrpt/core/count"
	"github.com/coastwrpt/wrpt/core/program"
)

type (
	// ProgramSource reads the program entities the aggregators work on.
	ProgramSource interface {
		GetProgram(ctx context.Context, id string) (program.Program, error)
		GetClassroom(ctx context.Context, id string) (program.Classroom, error)
		QueryClassrooms(ctx context.Context, programID string) ([]program.Classroom, error)
		QueryEventDates(ctx context.Context, scheduleID string) ([]program.EventDate, error)
	}

	// CountSource reads the counts the aggregators work on.
	CountSource interface {
		QueryProgramCounts(ctx context.Context, programID string) ([]count.Count, error)
		QueryClassroomCounts(ctx context.Context, classroomID string) ([]count.Count, error)
	}

	// ClassroomView is what the classroom page shows: the classroom statistics
	// plus what the submission form needs.
	ClassroomView struct {
		Program           program.Program     `json:"program"`
		Stats             ClassroomStats      `json:"stats"`
		EventDates        []program.EventDate `json:"event_dates"`
		InitialEnrollment int                 `json:"initial_enrollment"`
		// Label is "School" for single "entire school" programs.
		Label string `json:"label"`
	}

	Service struct {
		progs  ProgramSource
		counts CountSource
	}
)

func NewService(progs ProgramSource, counts CountSource) *Service {
	return &Service{progs: progs, counts: counts}
}

// Program loads the program `id` with its classrooms, dates and counts and aggregates them.
// A program without classrooms is not found.
func (svc *Service) Program(ctx context.Context, id string, c Category, today time.Time) (ProgramStats, error) {
	prog, err := svc.progs.GetProgram(ctx, id)
	if err != nil {
		return ProgramStats{}, errors.Wrap(err, "finding program")
	}
	rooms, err := svc.progs.QueryClassrooms(ctx, prog.ID)
	if err != nil {
		return ProgramStats{}, errors.Wrap(err, "querying classrooms")
	}
	if len(rooms) == 0 {
		return ProgramStats{}, core.ErrNotFound
	}
	dates, err := svc.progs.QueryEventDates(ctx, prog.ScheduleID)
	if err != nil {
		return ProgramStats{}, errors.Wrap(err, "querying event dates")
	}
	counts, err := svc.counts.QueryProgramCounts(ctx, prog.ID)
	if err != nil {
		return ProgramStats{}, errors.Wrap(err, "querying counts")
	}

	return AggregateProgram(ProgramInput{
		Program:    prog,
		Classrooms: rooms,
		Dates:      dates,
		Counts:     counts,
		Today:      today,
		Category:   c,
	}), nil
}

// Classroom loads the classroom `id` with its program dates and counts and aggregates them.
func (svc *Service) Classroom(ctx context.Context, id string, today time.Time) (ClassroomView, error) {
	room, err := svc.progs.GetClassroom(ctx, id)
	if err != nil {
		return ClassroomView{}, errors.Wrap(err, "finding classroom")
	}
	prog, err := svc.progs.GetProgram(ctx, room.ProgramID)
	if err != nil {
		return ClassroomView{}, errors.Wrap(err, "finding program")
	}
	dates, err := svc.progs.QueryEventDates(ctx, prog.ScheduleID)
	if err != nil {
		return ClassroomView{}, errors.Wrap(err, "querying event dates")
	}
	counts, err := svc.counts.QueryClassroomCounts(ctx, room.ID)
	if err != nil {
		return ClassroomView{}, errors.Wrap(err, "querying counts")
	}

	label := "Classroom"
	if prog.NumClassrooms == 1 && room.IsEntireSchool() {
		label = "School"
	}
	return ClassroomView{
		Program:           prog,
		Stats:             AggregateClassroom(room, dates, counts, today),
		EventDates:        dates,
		InitialEnrollment: count.InitialEnrollment(room, dates, counts),
		Label:             label,
	}, nil
}
