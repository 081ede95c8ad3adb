package program

import (
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/volatiletech/null/v8"

	"github.com/coastwrpt/wrpt/core"
)

// EntireSchool is the name of the single classroom of programs that do not tally per classroom.
const EntireSchool = "entire school"

type School struct {
	ID   string `json:"id" db:"id"`
	Name string `json:"name" db:"name"`
}

type Schedule struct {
	ID   string `json:"id" db:"id"`
	Name string `json:"name" db:"name"`
}

type EventDate struct {
	ID         string    `json:"id" db:"id"`
	ScheduleID string    `json:"schedule_id" db:"schedule_id"`
	Date       time.Time `json:"date" db:"date"`
}

// Label renders the date the way it is shown on charts, e.g. "Jan 5".
func (ed EventDate) Label() string {
	return ed.Date.Format("Jan 2")
}

// IsPast reports whether the event happened on or before `today`.
func (ed EventDate) IsPast(today time.Time) bool {
	return !core.DateOf(ed.Date).After(core.DateOf(today))
}

type Program struct {
	ID                string   `json:"id" db:"id"`
	SchoolID          string   `json:"school_id" db:"school_id"`
	SchoolName        string   `json:"school_name" db:"school_name"`
	ScheduleID        string   `json:"schedule_id" db:"schedule_id"`
	SchoolYear        string   `json:"school_year" db:"school_year"`
	SplitCounts       bool     `json:"split_counts" db:"split_counts"`
	ParticipationGoal null.Int `json:"participation_goal" db:"participation_goal"`
	NumClassrooms     int      `json:"num_classrooms" db:"num_classrooms"`
}

func (p Program) String() string {
	return p.SchoolYear + " " + p.SchoolName
}

// IsViable reports whether the program has at least one classroom.
func (p Program) IsViable() bool {
	return p.NumClassrooms > 0
}

// IsCurrent reports whether `today` is before July of the program's end year.
func (p Program) IsCurrent(today time.Time) bool {
	start, ok := core.ParseSchoolYear(p.SchoolYear)
	if !ok {
		return false
	}
	year, month := today.Year(), today.Month()
	return (month <= time.June && start >= year-1) || (month > time.June && start >= year)
}

// DefaultSchoolYear returns the school year a program created on `today` is most likely for:
// after March, programs are set up for the coming school year.
func DefaultSchoolYear(today time.Time) string {
	y := today.Year()
	if today.Month() <= time.March {
		y--
	}
	return fmt.Sprintf("%d-%d", y, y+1)
}

type Classroom struct {
	ID         string `json:"id" db:"id"`
	ProgramID  string `json:"program_id" db:"program_id"`
	Name       string `json:"name" db:"name"`
	Enrollment int    `json:"enrollment" db:"enrollment"`
}

// IsEntireSchool reports whether the classroom stands for the whole school.
func (c Classroom) IsEntireSchool() bool {
	return c.Name == EntireSchool
}

// Listing splits viable programs into current and past ones.
type Listing struct {
	Current []Program `json:"current"`
	Past    []Program `json:"past"`
}

type NewSchool struct {
	Name string `json:"name" validate:"notblank,max=100"`
}

func (ns *NewSchool) Validate(validate *validator.Validate) error {
	ns.Name = core.CleanString(ns.Name)
	return validate.Struct(ns)
}

type NewSchedule struct {
	Name string `json:"name" validate:"notblank,max=100"`
}

func (ns *NewSchedule) Validate(validate *validator.Validate) error {
	ns.Name = core.CleanString(ns.Name)
	return validate.Struct(ns)
}

type NewEventDate struct {
	ScheduleID string    `json:"schedule_id" validate:"required"`
	Date       time.Time `json:"date" validate:"required"`
}

func (ne *NewEventDate) Validate(validate *validator.Validate) error {
	ne.Date = core.DateOf(ne.Date)
	return validate.Struct(ne)
}

type NewProgram struct {
	SchoolID          string   `json:"school_id" validate:"required"`
	ScheduleID        string   `json:"schedule_id" validate:"required"`
	SchoolYear        string   `json:"school_year" validate:"schoolyear"`
	SplitCounts       bool     `json:"split_counts"`
	ParticipationGoal null.Int `json:"participation_goal"`
}

func (np *NewProgram) Validate(validate *validator.Validate, today time.Time) error {
	np.SchoolYear = core.CleanString(np.SchoolYear)
	if np.SchoolYear == "" {
		np.SchoolYear = DefaultSchoolYear(today)
	}
	if err := validate.Struct(np); err != nil {
		return err
	}
	return validateGoal(np.ParticipationGoal)
}

// UpdateProgram defines what may be changed on an existing Program.
// Schedule and SplitCounts are frozen once the program has counts.
type UpdateProgram struct {
	ScheduleID        string   `json:"schedule_id" validate:"required"`
	SchoolYear        string   `json:"school_year" validate:"schoolyear"`
	SplitCounts       bool     `json:"split_counts"`
	ParticipationGoal null.Int `json:"participation_goal"`
}

func (up *UpdateProgram) Validate(validate *validator.Validate) error {
	up.SchoolYear = core.CleanString(up.SchoolYear)
	if err := validate.Struct(up); err != nil {
		return err
	}
	return validateGoal(up.ParticipationGoal)
}

func validateGoal(goal null.Int) error {
	if goal.Valid && (goal.Int < 0 || goal.Int > 100) {
		return core.NewValidationError(nil, core.FieldError{
			Field: "participation_goal",
			Error: "participation goal must be between 0 and 100",
		})
	}
	return nil
}

type NewClassroom struct {
	ProgramID  string `json:"program_id" validate:"required"`
	Name       string `json:"name" validate:"notblank,max=100"`
	Enrollment int    `json:"enrollment" validate:"min=1"`
}

func (nc *NewClassroom) Validate(validate *validator.Validate) error {
	nc.Name = core.CleanString(nc.Name)
	return validate.Struct(nc)
}
