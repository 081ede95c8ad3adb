package count

import (
	"time"

	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/coastwrpt/wrpt/core"
	"github.com/coastwrpt/wrpt/core/program"
)

// Path selects the rule set applied to a count.
type Path int

const (
	// Participant submissions are refused once the program has concluded.
	Participant Path = iota
	// Admin corrections may touch counts of concluded programs.
	Admin
)

// Decision is the outcome of checking a count.
type Decision int

const (
	Accept Decision = iota
	Delete
)

var (
	// field & form errors
	errRequired          = errors.New("this field is required")
	errMustBeEmpty       = errors.New("this field must be left empty")
	errNotInSchedule     = errors.New("event date is not in program's schedule")
	errNotInProgram      = errors.New("classroom is not in program")
	errExceedsEnrollment = errors.New("participants plus absentees exceeds classroom enrollment")
	errConcluded         = errors.New("the program has concluded")
)

// Candidate is a count to check, with its resolved program, event date and classroom.
type Candidate struct {
	Program   program.Program
	EventDate program.EventDate
	Classroom program.Classroom
	Values    Values
}

// Check applies the count rules to `c` and decides whether to store or delete the count.
// On Accept the returned Values are normalized: split programs get Value derived from
// the active & inactive values. Rejections are *core.ValidationError.
func Check(c Candidate, path Path, today time.Time) (Decision, Values, error) {
	vals := c.Values

	if c.EventDate.ScheduleID != c.Program.ScheduleID {
		return Accept, Values{}, fieldErr("event_date_id", errNotInSchedule)
	}
	if c.Classroom.ProgramID != c.Program.ID {
		return Accept, Values{}, fieldErr("classroom_id", errNotInProgram)
	}
	if path == Participant && !c.Program.IsCurrent(today) {
		return Accept, Values{}, core.NewValidationError(errConcluded)
	}
	if vals.IsBlank() {
		return Delete, Values{}, nil
	}

	var flds []core.FieldError
	if c.Program.SplitCounts {
		if !vals.ActiveValue.Valid {
			flds = append(flds, core.FieldError{Field: "active_value", Error: errRequired.Error()})
		}
		if !vals.InactiveValue.Valid {
			flds = append(flds, core.FieldError{Field: "inactive_value", Error: errRequired.Error()})
		}
		if vals.Value.Valid {
			flds = append(flds, core.FieldError{Field: "value", Error: errMustBeEmpty.Error()})
		}
		if len(flds) == 0 {
			vals.Value = null.IntFrom(vals.ActiveValue.Int + vals.InactiveValue.Int)
		}
	} else {
		if !vals.Value.Valid {
			flds = append(flds, core.FieldError{Field: "value", Error: errRequired.Error()})
		}
		if vals.ActiveValue.Valid {
			flds = append(flds, core.FieldError{Field: "active_value", Error: errMustBeEmpty.Error()})
		}
		if vals.InactiveValue.Valid {
			flds = append(flds, core.FieldError{Field: "inactive_value", Error: errMustBeEmpty.Error()})
		}
	}
	if len(flds) > 0 {
		return Accept, Values{}, core.NewValidationError(nil, flds...)
	}

	if vals.Value.Int+vals.Absentees > vals.Enrollment {
		return Accept, Values{}, core.NewValidationError(errExceedsEnrollment)
	}
	return Accept, vals, nil
}

func fieldErr(field string, err error) error {
	return core.NewValidationError(err, core.FieldError{Field: field, Error: err.Error()})
}
