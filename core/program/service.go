package program

import (
	"context"
	"sort"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/coastwrpt/wrpt/core"
)

var (
	// errors
	ErrSchoolExists    = errors.New("school with this name already exists")
	ErrScheduleExists  = errors.New("schedule with this name already exists")
	ErrEventDateExists = errors.New("event date with this schedule and date already exists")
	ErrProgramExists   = errors.New("program with this school and school year already exists")
	ErrClassroomExists = errors.New("classroom with this program and name already exists")
	ErrProgramFrozen   = errors.New("can't be changed once the program has counts")
)

type (
	// Repository persists the program entities.
	// Create methods return core.ErrConflict on a uniqueness violation, Get methods core.ErrNotFound.
	Repository interface {
		CreateSchool(ctx context.Context, school School) (School, error)
		GetSchool(ctx context.Context, id string) (School, error)
		QuerySchools(ctx context.Context) ([]School, error)

		CreateSchedule(ctx context.Context, sched Schedule) (Schedule, error)
		GetSchedule(ctx context.Context, id string) (Schedule, error)

		CreateEventDate(ctx context.Context, ed EventDate) (EventDate, error)
		GetEventDate(ctx context.Context, id string) (EventDate, error)
		// QueryEventDates returns a schedule's dates in ascending order.
		QueryEventDates(ctx context.Context, scheduleID string) ([]EventDate, error)

		CreateProgram(ctx context.Context, prog Program) (Program, error)
		UpdateProgram(ctx context.Context, prog Program) (Program, error)
		GetProgram(ctx context.Context, id string) (Program, error)
		QueryPrograms(ctx context.Context) ([]Program, error)
		ProgramHasCounts(ctx context.Context, id string) (bool, error)

		CreateClassroom(ctx context.Context, room Classroom) (Classroom, error)
		GetClassroom(ctx context.Context, id string) (Classroom, error)
		// QueryClassrooms returns a program's classrooms ordered by name.
		QueryClassrooms(ctx context.Context, programID string) ([]Classroom, error)
	}

	Service struct {
		repo     Repository
		validate *validator.Validate
	}
)

func NewService(repo Repository, validate *validator.Validate) *Service {
	return &Service{repo: repo, validate: validate}
}

// conflictAsFieldErr turns a core.ErrConflict into a validation error on `field`.
func conflictAsFieldErr(err error, field string, fieldErr error) error {
	if errors.Cause(err) == core.ErrConflict {
		return core.NewValidationError(fieldErr, core.FieldError{Field: field, Error: fieldErr.Error()})
	}
	return err
}

func (svc *Service) CreateSchool(ctx context.Context, ns NewSchool) (School, error) {
	if err := ns.Validate(svc.validate); err != nil {
		return School{}, err
	}
	school, err := svc.repo.CreateSchool(ctx, School{ID: uuid.New().String(), Name: ns.Name})
	return school, conflictAsFieldErr(err, "name", ErrSchoolExists)
}

func (svc *Service) QuerySchools(ctx context.Context) ([]School, error) {
	return svc.repo.QuerySchools(ctx)
}

func (svc *Service) CreateSchedule(ctx context.Context, ns NewSchedule) (Schedule, error) {
	if err := ns.Validate(svc.validate); err != nil {
		return Schedule{}, err
	}
	sched, err := svc.repo.CreateSchedule(ctx, Schedule{ID: uuid.New().String(), Name: ns.Name})
	return sched, conflictAsFieldErr(err, "name", ErrScheduleExists)
}

func (svc *Service) AddEventDate(ctx context.Context, ne NewEventDate) (EventDate, error) {
	if err := ne.Validate(svc.validate); err != nil {
		return EventDate{}, err
	}
	if _, err := svc.repo.GetSchedule(ctx, ne.ScheduleID); err != nil {
		return EventDate{}, errors.Wrap(err, "finding schedule")
	}
	ed, err := svc.repo.CreateEventDate(ctx, EventDate{
		ID:         uuid.New().String(),
		ScheduleID: ne.ScheduleID,
		Date:       ne.Date,
	})
	return ed, conflictAsFieldErr(err, "date", ErrEventDateExists)
}

func (svc *Service) GetEventDate(ctx context.Context, id string) (EventDate, error) {
	return svc.repo.GetEventDate(ctx, id)
}

func (svc *Service) QueryEventDates(ctx context.Context, scheduleID string) ([]EventDate, error) {
	return svc.repo.QueryEventDates(ctx, scheduleID)
}

func (svc *Service) CreateProgram(ctx context.Context, np NewProgram, today time.Time) (Program, error) {
	if err := np.Validate(svc.validate, today); err != nil {
		return Program{}, err
	}
	school, err := svc.repo.GetSchool(ctx, np.SchoolID)
	if err != nil {
		return Program{}, errors.Wrap(err, "finding school")
	}
	if _, err = svc.repo.GetSchedule(ctx, np.ScheduleID); err != nil {
		return Program{}, errors.Wrap(err, "finding schedule")
	}
	prog, err := svc.repo.CreateProgram(ctx, Program{
		ID:                uuid.New().String(),
		SchoolID:          school.ID,
		SchoolName:        school.Name,
		ScheduleID:        np.ScheduleID,
		SchoolYear:        np.SchoolYear,
		SplitCounts:       np.SplitCounts,
		ParticipationGoal: np.ParticipationGoal,
	})
	return prog, conflictAsFieldErr(err, "school_year", ErrProgramExists)
}

// UpdateProgram applies `up` to the program `id`.
// The schedule and the split mode can not change once any count references the program.
func (svc *Service) UpdateProgram(ctx context.Context, id string, up UpdateProgram) (Program, error) {
	if err := up.Validate(svc.validate); err != nil {
		return Program{}, err
	}
	prog, err := svc.repo.GetProgram(ctx, id)
	if err != nil {
		return Program{}, errors.Wrap(err, "finding program")
	}

	if prog.ScheduleID != up.ScheduleID || prog.SplitCounts != up.SplitCounts {
		hasCounts, err := svc.repo.ProgramHasCounts(ctx, id)
		if err != nil {
			return Program{}, errors.Wrap(err, "checking program counts")
		}
		if hasCounts {
			var flds []core.FieldError
			if prog.ScheduleID != up.ScheduleID {
				flds = append(flds, core.FieldError{Field: "schedule_id", Error: ErrProgramFrozen.Error()})
			}
			if prog.SplitCounts != up.SplitCounts {
				flds = append(flds, core.FieldError{Field: "split_counts", Error: ErrProgramFrozen.Error()})
			}
			return Program{}, core.NewValidationError(ErrProgramFrozen, flds...)
		}
		if _, err = svc.repo.GetSchedule(ctx, up.ScheduleID); err != nil {
			return Program{}, errors.Wrap(err, "finding schedule")
		}
	}

	prog.ScheduleID = up.ScheduleID
	prog.SchoolYear = up.SchoolYear
	prog.SplitCounts = up.SplitCounts
	prog.ParticipationGoal = up.ParticipationGoal
	prog, err = svc.repo.UpdateProgram(ctx, prog)
	return prog, conflictAsFieldErr(err, "school_year", ErrProgramExists)
}

func (svc *Service) GetProgram(ctx context.Context, id string) (Program, error) {
	return svc.repo.GetProgram(ctx, id)
}

// ListPrograms returns the viable programs, split into current and past ones,
// each ordered by school name then most recent school year first.
func (svc *Service) ListPrograms(ctx context.Context, today time.Time) (Listing, error) {
	progs, err := svc.repo.QueryPrograms(ctx)
	if err != nil {
		return Listing{}, errors.Wrap(err, "querying programs")
	}
	sort.SliceStable(progs, func(i, j int) bool {
		if progs[i].SchoolName != progs[j].SchoolName {
			return progs[i].SchoolName < progs[j].SchoolName
		}
		return progs[i].SchoolYear > progs[j].SchoolYear
	})

	listing := Listing{Current: []Program{}, Past: []Program{}}
	for _, p := range progs {
		if !p.IsViable() {
			continue
		}
		if p.IsCurrent(today) {
			listing.Current = append(listing.Current, p)
		} else {
			listing.Past = append(listing.Past, p)
		}
	}
	return listing, nil
}

func (svc *Service) CreateClassroom(ctx context.Context, nc NewClassroom) (Classroom, error) {
	if err := nc.Validate(svc.validate); err != nil {
		return Classroom{}, err
	}
	if _, err := svc.repo.GetProgram(ctx, nc.ProgramID); err != nil {
		return Classroom{}, errors.Wrap(err, "finding program")
	}
	room, err := svc.repo.CreateClassroom(ctx, Classroom{
		ID:         uuid.New().String(),
		ProgramID:  nc.ProgramID,
		Name:       nc.Name,
		Enrollment: nc.Enrollment,
	})
	return room, conflictAsFieldErr(err, "name", ErrClassroomExists)
}

func (svc *Service) GetClassroom(ctx context.Context, id string) (Classroom, error) {
	return svc.repo.GetClassroom(ctx, id)
}

func (svc *Service) QueryClassrooms(ctx context.Context, programID string) ([]Classroom, error) {
	return svc.repo.QueryClassrooms(ctx, programID)
}
