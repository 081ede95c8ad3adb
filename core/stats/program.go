package stats

import (
	"sort"
	"time"

	"github.com/coastwrpt/wrpt/core/count"
	"github.com/coastwrpt/wrpt/core/program"
)

// MaxRanked is the number of classrooms shown on the leaderboard.
const MaxRanked = 6

// SchoolRecord is the school-wide participation on one past or present event date.
type SchoolRecord struct {
	// CountFound is true when at least one classroom has a count for the date.
	CountFound  bool `json:"count_found"`
	PresentSum  int  `json:"present_sum"`
	ActiveSum   int  `json:"active_sum"`
	InactiveSum int  `json:"inactive_sum"`
	// Event is nil when no classroom has a count for the date.
	Event *Percentages `json:"event,omitempty"`

	PresentCumSum  int         `json:"present_cum_sum"`
	ActiveCumSum   int         `json:"active_cum_sum"`
	InactiveCumSum int         `json:"inactive_cum_sum"`
	Cumulative     Percentages `json:"cumulative"`
}

// SchoolDateStats pairs an event date with the school's record. Record is nil for future dates.
type SchoolDateStats struct {
	EventDate program.EventDate `json:"event_date"`
	Label     string            `json:"label"`
	Record    *SchoolRecord     `json:"record,omitempty"`
}

type Rank struct {
	Classroom  program.Classroom `json:"classroom"`
	Percentage int               `json:"percentage"`
}

type ProgramStats struct {
	Program    program.Program   `json:"program"`
	Category   Category          `json:"category"`
	Classrooms []ClassroomStats  `json:"classrooms"`
	School     []SchoolDateStats `json:"school"`
	HasData    bool              `json:"has_data"`
	LastIndex  int               `json:"last_index"`
	Ranking    []Rank            `json:"ranking"`
	Standings  *Standings        `json:"standings,omitempty"`
}

// ProgramInput is what the program aggregator works on.
type ProgramInput struct {
	Program program.Program
	// Classrooms ordered by name.
	Classrooms []program.Classroom
	// Dates of the program's schedule in ascending order.
	Dates []program.EventDate
	// Counts of the program, any order.
	Counts   []count.Count
	Today    time.Time
	Category Category
}

// AggregateProgram computes the school-wide statistics of a program and ranks its classrooms.
func AggregateProgram(in ProgramInput) ProgramStats {
	byRoom := make(map[string][]count.Count, len(in.Classrooms))
	for _, c := range in.Counts {
		byRoom[c.ClassroomID] = append(byRoom[c.ClassroomID], c)
	}

	ps := ProgramStats{
		Program:    in.Program,
		Category:   in.Category,
		Classrooms: make([]ClassroomStats, 0, len(in.Classrooms)),
		School:     make([]SchoolDateStats, len(in.Dates)),
		LastIndex:  -1,
		Ranking:    []Rank{},
	}
	for _, room := range in.Classrooms {
		cs := AggregateClassroom(room, in.Dates, byRoom[room.ID], in.Today)
		ps.HasData = ps.HasData || cs.HasData
		ps.LastIndex = cs.LastIndex // same dates, same today: same for all
		ps.Classrooms = append(ps.Classrooms, cs)
	}
	if len(in.Classrooms) == 0 {
		for i, ed := range in.Dates {
			if ed.IsPast(in.Today) {
				ps.LastIndex = i
			}
		}
	}

	for i, ed := range in.Dates {
		ps.School[i] = SchoolDateStats{EventDate: ed, Label: ed.Label()}
		if i > ps.LastIndex {
			continue
		}

		var rec SchoolRecord
		for _, cs := range ps.Classrooms {
			r := cs.Dates[i].Record
			rec.CountFound = rec.CountFound || r.CountFound
			rec.PresentSum += r.Present
			rec.ActiveSum += r.Active
			rec.InactiveSum += r.Inactive
			rec.PresentCumSum += r.PresentSum
			rec.ActiveCumSum += r.ActiveSum
			rec.InactiveCumSum += r.InactiveSum
		}
		if rec.CountFound {
			event := percentagesOf(rec.ActiveSum, rec.InactiveSum, rec.PresentSum)
			rec.Event = &event
		}
		rec.Cumulative = percentagesOf(rec.ActiveCumSum, rec.InactiveCumSum, rec.PresentCumSum)
		ps.School[i].Record = &rec
	}

	ps.Ranking = Ranking(ps.Classrooms, in.Category)
	ps.Standings = NewStandings(ps.Ranking, in.Category, ps.LastIndex+1)
	return ps
}

// Ranking returns the classrooms with a positive cumulative score in category `c`,
// best first, at most MaxRanked of them. Equal scores keep the order of `rooms`.
func Ranking(rooms []ClassroomStats, c Category) []Rank {
	ranks := make([]Rank, 0, len(rooms))
	for _, cs := range rooms {
		if score := cs.Score(c); score > 0 {
			ranks = append(ranks, Rank{Classroom: cs.Classroom, Percentage: score})
		}
	}
	sort.SliceStable(ranks, func(i, j int) bool { return ranks[i].Percentage > ranks[j].Percentage })
	if len(ranks) > MaxRanked {
		ranks = ranks[:MaxRanked]
	}
	return ranks
}
