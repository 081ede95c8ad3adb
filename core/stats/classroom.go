package stats

import (
	"time"

	"github.com/coastwrpt/wrpt/core/count"
	"github.com/coastwrpt/wrpt/core/program"
)

// Record is a classroom's participation on one past or present event date,
// along with the running sums up to and including that date.
type Record struct {
	CountFound bool `json:"count_found"`
	Enrollment int  `json:"enrollment"`
	Absentees  int  `json:"absentees"`
	Present    int  `json:"present"`
	Value      int  `json:"value"`
	Active     int  `json:"active"`
	Inactive   int  `json:"inactive"`
	// Event is nil when no count was recorded for the date.
	Event *Percentages `json:"event,omitempty"`

	PresentSum  int         `json:"present_sum"`
	ActiveSum   int         `json:"active_sum"`
	InactiveSum int         `json:"inactive_sum"`
	Cumulative  Percentages `json:"cumulative"`
}

// DateStats pairs an event date with its Record. Record is nil for future dates.
type DateStats struct {
	EventDate program.EventDate `json:"event_date"`
	Label     string            `json:"label"`
	Record    *Record           `json:"record,omitempty"`
}

type ClassroomStats struct {
	Classroom program.Classroom `json:"classroom"`
	Dates     []DateStats       `json:"dates"`
	// HasData is true as soon as one count exists for the classroom, future dates included.
	HasData bool `json:"has_data"`
	// LastIndex is the index of the last past or present date, -1 if there is none.
	LastIndex int `json:"last_index"`
}

// Last returns the record of the last past or present date, or nil.
func (cs ClassroomStats) Last() *Record {
	if cs.LastIndex < 0 {
		return nil
	}
	return cs.Dates[cs.LastIndex].Record
}

// Score is the classroom's cumulative figure in category `c`, 0 without any past date.
func (cs ClassroomStats) Score(c Category) int {
	if rec := cs.Last(); rec != nil {
		return c.Of(rec.Cumulative)
	}
	return 0
}

// AggregateClassroom computes the per-date statistics of `room`.
// `dates` must be in ascending order; `counts` are the classroom's counts, in any order.
// A past date without a count is taken as zero participation at the last known enrollment.
func AggregateClassroom(room program.Classroom, dates []program.EventDate, counts []count.Count, today time.Time) ClassroomStats {
	byDate := make(map[string]count.Count, len(counts))
	for _, c := range counts {
		byDate[c.EventDateID] = c
	}

	cs := ClassroomStats{
		Classroom: room,
		Dates:     make([]DateStats, len(dates)),
		HasData:   len(counts) > 0,
		LastIndex: -1,
	}

	lastKnownEnrollment := room.Enrollment
	var presentSum, activeSum, inactiveSum int
	for i, ed := range dates {
		cs.Dates[i] = DateStats{EventDate: ed, Label: ed.Label()}
		if !ed.IsPast(today) {
			continue
		}
		cs.LastIndex = i

		rec := Record{Enrollment: lastKnownEnrollment}
		if c, ok := byDate[ed.ID]; ok {
			active, inactive := splitValues(c)
			lastKnownEnrollment = c.Enrollment
			rec = Record{
				CountFound: true,
				Enrollment: c.Enrollment,
				Absentees:  c.Absentees,
				Value:      active + inactive,
				Active:     active,
				Inactive:   inactive,
			}
		}
		rec.Present = rec.Enrollment - rec.Absentees
		if rec.CountFound {
			event := percentagesOf(rec.Active, rec.Inactive, rec.Present)
			rec.Event = &event
		}

		presentSum += rec.Present
		activeSum += rec.Active
		inactiveSum += rec.Inactive
		rec.PresentSum = presentSum
		rec.ActiveSum = activeSum
		rec.InactiveSum = inactiveSum
		rec.Cumulative = percentagesOf(activeSum, inactiveSum, presentSum)

		cs.Dates[i].Record = &rec
	}
	return cs
}

// splitValues reads a count as active & inactive participants.
// Counts of combined programs have no split: all participants count as active.
func splitValues(c count.Count) (active, inactive int) {
	if !c.ActiveValue.Valid {
		return c.Value.Int, 0
	}
	return c.ActiveValue.Int, c.InactiveValue.Int
}
