package count

import (
	"database/sql/driver"
	"fmt"
	"reflect"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/volatiletech/null/v8"

	"github.com/coastwrpt/wrpt/core"
)

// Count is the participation recorded for one classroom on one event date.
type Count struct {
	ID            string   `json:"id" db:"id"`
	ProgramID     string   `json:"program_id" db:"program_id"`
	EventDateID   string   `json:"event_date_id" db:"event_date_id"`
	ClassroomID   string   `json:"classroom_id" db:"classroom_id"`
	Enrollment    int      `json:"enrollment" db:"enrollment"`
	Value         null.Int `json:"value" db:"value"`
	ActiveValue   null.Int `json:"active_value" db:"active_value"`
	InactiveValue null.Int `json:"inactive_value" db:"inactive_value"`
	Absentees     int      `json:"absentees" db:"absentees"`
	Comments      string   `json:"comments" db:"comments"`
}

// LogFormat renders the count for the audit log.
func (c Count) LogFormat() string {
	f := func(v null.Int) string {
		if !v.Valid {
			return ""
		}
		return strconv.Itoa(v.Int)
	}
	return fmt.Sprintf(
		"Count(id=%s,program=%s,eventDate=%s,classroom=%s,enrollment=%d,value=%s,activeValue=%s,inactiveValue=%s,absentees=%d,comments=%s)",
		c.ID, c.ProgramID, c.EventDateID, c.ClassroomID, c.Enrollment,
		f(c.Value), f(c.ActiveValue), f(c.InactiveValue), c.Absentees, strconv.Quote(c.Comments),
	)
}

// Values are the participation figures of a count, as submitted.
type Values struct {
	Enrollment    int      `json:"enrollment" validate:"min=1"`
	Value         null.Int `json:"value" validate:"omitempty,min=0"`
	ActiveValue   null.Int `json:"active_value" validate:"omitempty,min=0"`
	InactiveValue null.Int `json:"inactive_value" validate:"omitempty,min=0"`
	Absentees     int      `json:"absentees" validate:"min=0"`
	Comments      string   `json:"comments" validate:"max=1000"`
}

// IsBlank reports whether no participation value was supplied.
func (v Values) IsBlank() bool {
	return !v.Value.Valid && !v.ActiveValue.Valid && !v.InactiveValue.Valid
}

// Submission is a participant's count for one event date of their classroom.
type Submission struct {
	EventDateID string `json:"event_date_id" validate:"required"`
	Values
}

func (s *Submission) Validate(validate *validator.Validate) error {
	s.EventDateID = core.CleanString(s.EventDateID)
	s.Comments = core.CleanString(s.Comments)
	return validate.Struct(s)
}

// Correction is a staff edit of an existing count. The program can not change.
type Correction struct {
	EventDateID string `json:"event_date_id" validate:"required"`
	ClassroomID string `json:"classroom_id" validate:"required"`
	Values
}

func (c *Correction) Validate(validate *validator.Validate) error {
	c.EventDateID = core.CleanString(c.EventDateID)
	c.ClassroomID = core.CleanString(c.ClassroomID)
	c.Comments = core.CleanString(c.Comments)
	return validate.Struct(c)
}

// ExportRow is a count joined with the identifying fields of its program, event date and classroom.
type ExportRow struct {
	ID                  string    `db:"id"`
	SchoolYear          string    `db:"school_year"`
	SchoolName          string    `db:"school_name"`
	EventDate           time.Time `db:"event_date"`
	ClassroomName       string    `db:"classroom_name"`
	ClassroomEnrollment int       `db:"classroom_enrollment"`
	Value               null.Int  `db:"value"`
	ActiveValue         null.Int  `db:"active_value"`
	InactiveValue       null.Int  `db:"inactive_value"`
	Absentees           int       `db:"absentees"`
	Comments            string    `db:"comments"`
}

// InitValidators registers the count validators.
func InitValidators(validate *validator.Validate) {
	// lets `min`, `omitempty` & co. see through null.Int
	validate.RegisterCustomTypeFunc(nullIntValuer, null.Int{})
}

func nullIntValuer(field reflect.Value) interface{} {
	if valuer, ok := field.Interface().(driver.Valuer); ok {
		if val, err := valuer.Value(); err == nil && val != nil {
			return val
		}
	}
	return nil
}
