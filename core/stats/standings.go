package stats

import (
	"fmt"
	"strings"
)

// Standings names the classroom(s) leading the ranking.
type Standings struct {
	Category      Category `json:"category"`
	Leaders       []string `json:"leaders"`
	Percentage    int      `json:"percentage"`
	EventsElapsed int      `json:"events_elapsed"`
	Sentence      string   `json:"sentence"`
}

// NewStandings returns the standings of `ranking`, nil when nobody ranks.
func NewStandings(ranking []Rank, c Category, eventsElapsed int) *Standings {
	if len(ranking) == 0 {
		return nil
	}
	top := ranking[0].Percentage
	s := &Standings{
		Category:      c,
		Percentage:    top,
		EventsElapsed: eventsElapsed,
	}
	for _, r := range ranking {
		if r.Percentage != top {
			break
		}
		s.Leaders = append(s.Leaders, r.Classroom.Name)
	}
	s.Sentence = s.sentence()
	return s
}

// sentence renders e.g. `classrooms “A” and “B” are tied for the lead with 50% participation after 2 events`.
func (s Standings) sentence() string {
	quoted := make([]string, len(s.Leaders))
	for i, name := range s.Leaders {
		quoted[i] = "“" + name + "”"
	}

	var who string
	switch len(quoted) {
	case 1:
		who = "classroom " + quoted[0] + " leads"
	case 2:
		who = "classrooms " + quoted[0] + " and " + quoted[1] + " are tied for the lead"
	default:
		last := len(quoted) - 1
		who = "classrooms " + strings.Join(quoted[:last], ", ") + " and " + quoted[last] + " are tied for the lead"
	}

	events := "events"
	if s.EventsElapsed == 1 {
		events = "event"
	}
	return fmt.Sprintf("%s with %d%% %s after %d %s", who, s.Percentage, s.Category.Noun(), s.EventsElapsed, events)
}
