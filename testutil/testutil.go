package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/volatiletech/null/v8"

	"github.com/coastwrpt/wrpt/core"
	"github.com/coastwrpt/wrpt/core/count"
	"github.com/coastwrpt/wrpt/core/program"
	"github.com/coastwrpt/wrpt/core/user"
)

// NewValidator returns a validator with every app validator registered.
func NewValidator() (*validator.Validate, ut.Translator) {
	_en := en.New()
	translator, _ := ut.New(_en, _en).GetTranslator("en")
	validate := validator.New()
	core.InitValidators(validate, translator)
	user.InitValidators(validate, translator)
	count.InitValidators(validate)
	return validate, translator
}

func Date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func CreateSchool(t *testing.T, repo program.Repository, name string) program.School {
	school, err := repo.CreateSchool(context.Background(), program.School{ID: uuid.New().String(), Name: name})
	if err != nil {
		t.Fatalf("CreateSchool() failed: %v", err)
	}
	return school
}

func CreateSchedule(t *testing.T, repo program.Repository, name string, dates ...time.Time) (program.Schedule, []program.EventDate) {
	ctx := context.Background()
	sched, err := repo.CreateSchedule(ctx, program.Schedule{ID: uuid.New().String(), Name: name})
	if err != nil {
		t.Fatalf("CreateSchedule() failed: %v", err)
	}
	eds := make([]program.EventDate, 0, len(dates))
	for _, d := range dates {
		ed, err := repo.CreateEventDate(ctx, program.EventDate{ID: uuid.New().String(), ScheduleID: sched.ID, Date: d})
		if err != nil {
			t.Fatalf("CreateEventDate() failed: %v", err)
		}
		eds = append(eds, ed)
	}
	return sched, eds
}

func CreateProgram(t *testing.T, repo program.Repository, school program.School, sched program.Schedule, schoolYear string, split bool) program.Program {
	prog, err := repo.CreateProgram(context.Background(), program.Program{
		ID:          uuid.New().String(),
		SchoolID:    school.ID,
		SchoolName:  school.Name,
		ScheduleID:  sched.ID,
		SchoolYear:  schoolYear,
		SplitCounts: split,
	})
	if err != nil {
		t.Fatalf("CreateProgram() failed: %v", err)
	}
	return prog
}

func CreateClassroom(t *testing.T, repo program.Repository, prog program.Program, name string, enrollment int) program.Classroom {
	room, err := repo.CreateClassroom(context.Background(), program.Classroom{
		ID:         uuid.New().String(),
		ProgramID:  prog.ID,
		Name:       name,
		Enrollment: enrollment,
	})
	if err != nil {
		t.Fatalf("CreateClassroom() failed: %v", err)
	}
	return room
}

// CreateUser creates a staff user when `schoolID` is empty, else a user bound to that school.
func CreateUser(t *testing.T, repo user.Repository, uname, pwd, schoolID string, isActive bool) user.User {
	tstamp := time.Now().UTC()
	usr := user.User{
		ID:        uuid.New().String(),
		Username:  uname,
		IsActive:  isActive,
		IsStaff:   schoolID == "",
		CreatedAt: tstamp,
		UpdatedAt: tstamp,
	}
	if schoolID != "" {
		usr.SchoolID = null.StringFrom(schoolID)
	}
	if pwd != "" {
		if err := usr.SetPassword(pwd); err != nil {
			t.Fatalf("CreateUser() failed: %v", err)
		}
	}
	usr, err := repo.CreateUser(context.Background(), usr)
	if err != nil {
		t.Fatalf("CreateUser() failed: %v", err)
	}
	return usr
}

// CreateCount stores a combined count of `value` participants.
func CreateCount(t *testing.T, repo count.Repository, room program.Classroom, ed program.EventDate, enrollment, value, absentees int) count.Count {
	cnt, err := repo.CreateCount(context.Background(), count.Count{
		ID:          uuid.New().String(),
		ProgramID:   room.ProgramID,
		EventDateID: ed.ID,
		ClassroomID: room.ID,
		Enrollment:  enrollment,
		Value:       null.IntFrom(value),
		Absentees:   absentees,
	})
	if err != nil {
		t.Fatalf("CreateCount() failed: %v", err)
	}
	return cnt
}

// NopLogger discards everything.
type NopLogger struct{}

func (NopLogger) Debug(string, ...interface{}) {}
func (NopLogger) Info(string, ...interface{})  {}
func (NopLogger) Warn(string, ...interface{})  {}
func (NopLogger) Error(string, ...interface{}) {}
func (NopLogger) Fatal(string, ...interface{}) {}
