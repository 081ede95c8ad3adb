package program

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestProgram_IsCurrent(t *testing.T) {
	tests := []struct {
		name       string
		schoolYear string
		today      time.Time
		want       bool
	}{
		{name: "fall of the school year", schoolYear: "2023-2024", today: day(2023, 10, 1), want: true},
		{name: "spring of the school year", schoolYear: "2023-2024", today: day(2024, 6, 30), want: true},
		{name: "summer after", schoolYear: "2023-2024", today: day(2024, 7, 1), want: false},
		{name: "next school year set up early", schoolYear: "2024-2025", today: day(2024, 4, 1), want: true},
		{name: "long gone", schoolYear: "2019-2020", today: day(2024, 1, 1), want: false},
		{name: "malformed", schoolYear: "2023", today: day(2023, 10, 1), want: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := Program{SchoolYear: tt.schoolYear}
			if got := p.IsCurrent(tt.today); got != tt.want {
				t.Errorf("IsCurrent() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestDefaultSchoolYear(t *testing.T) {
	tests := []struct {
		today time.Time
		want  string
	}{
		{today: day(2024, 1, 15), want: "2023-2024"},
		{today: day(2024, 3, 31), want: "2023-2024"},
		{today: day(2024, 4, 1), want: "2024-2025"},
		{today: day(2024, 12, 1), want: "2024-2025"},
	}
	for _, tt := range tests {
		t.Run(tt.today.Format("2006-01-02"), func(t *testing.T) {
			assert.Equal(t, tt.want, DefaultSchoolYear(tt.today))
		})
	}
}

func TestEventDate(t *testing.T) {
	ed := EventDate{Date: day(2024, 1, 5)}
	assert.Equal(t, "Jan 5", ed.Label())
	assert.True(t, ed.IsPast(time.Date(2024, 1, 5, 23, 0, 0, 0, time.UTC)))
	assert.False(t, ed.IsPast(day(2024, 1, 4)))
}
