package program_test

import (
	"context"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/volatiletech/null/v8"

	"github.com/coastwrpt/wrpt/core"
	"github.com/coastwrpt/wrpt/core/program"
	"github.com/coastwrpt/wrpt/storage/database/inmem"
	"github.com/coastwrpt/wrpt/testutil"
)

func setup() (*program.Service, *inmemdb.DB) {
	db := inmemdb.Open()
	validate, _ := testutil.NewValidator()
	return program.NewService(inmemdb.NewProgramRepository(db), validate), db
}

func nullInt(i int) null.Int { return null.IntFrom(i) }

func fieldsOf(t *testing.T, err error) []string {
	vErr, ok := errors.Cause(err).(*core.ValidationError)
	require.True(t, ok, "got %v", err)
	fields := make([]string, 0, len(vErr.Fields))
	for _, f := range vErr.Fields {
		fields = append(fields, f.Field)
	}
	return fields
}

func TestService_create(t *testing.T) {
	svc, _ := setup()
	ctx := context.Background()
	today := testutil.Date(2024, 5, 1)

	school, err := svc.CreateSchool(ctx, program.NewSchool{Name: "  Lincoln  "})
	require.NoError(t, err)
	assert.Equal(t, "Lincoln", school.Name)

	_, err = svc.CreateSchool(ctx, program.NewSchool{Name: "Lincoln"})
	assert.Equal(t, []string{"name"}, fieldsOf(t, err))

	_, err = svc.CreateSchool(ctx, program.NewSchool{Name: "   "})
	assert.Error(t, err)

	sched, err := svc.CreateSchedule(ctx, program.NewSchedule{Name: "Monthly"})
	require.NoError(t, err)

	_, err = svc.AddEventDate(ctx, program.NewEventDate{ScheduleID: sched.ID, Date: testutil.Date(2024, 10, 2)})
	require.NoError(t, err)
	_, err = svc.AddEventDate(ctx, program.NewEventDate{ScheduleID: sched.ID, Date: testutil.Date(2024, 9, 4)})
	require.NoError(t, err)
	_, err = svc.AddEventDate(ctx, program.NewEventDate{ScheduleID: sched.ID, Date: testutil.Date(2024, 9, 4)})
	assert.Equal(t, []string{"date"}, fieldsOf(t, err))

	dates, err := svc.QueryEventDates(ctx, sched.ID)
	require.NoError(t, err)
	require.Len(t, dates, 2)
	assert.True(t, dates[0].Date.Before(dates[1].Date))

	prog, err := svc.CreateProgram(ctx, program.NewProgram{SchoolID: school.ID, ScheduleID: sched.ID}, today)
	require.NoError(t, err)
	assert.Equal(t, "2024-2025", prog.SchoolYear)
	assert.Equal(t, "2024-2025 Lincoln", prog.String())

	_, err = svc.CreateProgram(ctx, program.NewProgram{SchoolID: school.ID, ScheduleID: sched.ID, SchoolYear: "2024-2025"}, today)
	assert.Equal(t, []string{"school_year"}, fieldsOf(t, err))

	_, err = svc.CreateProgram(ctx, program.NewProgram{SchoolID: "lol", ScheduleID: sched.ID, SchoolYear: "2022-2023"}, today)
	assert.Equal(t, core.ErrNotFound, errors.Cause(err))

	room, err := svc.CreateClassroom(ctx, program.NewClassroom{ProgramID: prog.ID, Name: " Room 4 ", Enrollment: 24})
	require.NoError(t, err)
	assert.Equal(t, "Room 4", room.Name)

	_, err = svc.CreateClassroom(ctx, program.NewClassroom{ProgramID: prog.ID, Name: "Room 4", Enrollment: 20})
	assert.Equal(t, []string{"name"}, fieldsOf(t, err))

	_, err = svc.CreateClassroom(ctx, program.NewClassroom{ProgramID: prog.ID, Name: "Room 5", Enrollment: 0})
	assert.Error(t, err)
}

func TestService_UpdateProgram(t *testing.T) {
	svc, db := setup()
	ctx := context.Background()
	progRepo := inmemdb.NewProgramRepository(db)

	school := testutil.CreateSchool(t, progRepo, "Lincoln")
	sched, dates := testutil.CreateSchedule(t, progRepo, "Monthly", testutil.Date(2024, 1, 10))
	other, _ := testutil.CreateSchedule(t, progRepo, "Weekly")
	prog := testutil.CreateProgram(t, progRepo, school, sched, "2023-2024", false)
	room := testutil.CreateClassroom(t, progRepo, prog, "Room 4", 24)

	// no counts yet: anything goes
	updated, err := svc.UpdateProgram(ctx, prog.ID, program.UpdateProgram{ScheduleID: other.ID, SchoolYear: "2023-2024", SplitCounts: true})
	require.NoError(t, err)
	assert.True(t, updated.SplitCounts)
	_, err = svc.UpdateProgram(ctx, prog.ID, program.UpdateProgram{ScheduleID: sched.ID, SchoolYear: "2023-2024"})
	require.NoError(t, err)

	testutil.CreateCount(t, inmemdb.NewCountRepository(db), room, dates[0], 24, 10, 0)

	tests := []struct {
		name       string
		up         program.UpdateProgram
		wantFields []string
	}{
		{name: "schedule frozen", up: program.UpdateProgram{ScheduleID: other.ID, SchoolYear: "2023-2024"}, wantFields: []string{"schedule_id"}},
		{name: "split frozen", up: program.UpdateProgram{ScheduleID: sched.ID, SchoolYear: "2023-2024", SplitCounts: true}, wantFields: []string{"split_counts"}},
		{name: "goal out of range", up: program.UpdateProgram{ScheduleID: sched.ID, SchoolYear: "2023-2024", ParticipationGoal: nullInt(120)}, wantFields: []string{"participation_goal"}},
		{name: "goal & year can change", up: program.UpdateProgram{ScheduleID: sched.ID, SchoolYear: "2024-2025", ParticipationGoal: nullInt(60)}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.UpdateProgram(ctx, prog.ID, tt.up)
			if tt.wantFields == nil {
				assert.NoError(t, err)
				return
			}
			assert.Equal(t, tt.wantFields, fieldsOf(t, err))
		})
	}
}

func TestService_ListPrograms(t *testing.T) {
	svc, db := setup()
	ctx := context.Background()
	progRepo := inmemdb.NewProgramRepository(db)

	adams := testutil.CreateSchool(t, progRepo, "Adams")
	lincoln := testutil.CreateSchool(t, progRepo, "Lincoln")
	sched, _ := testutil.CreateSchedule(t, progRepo, "Monthly")

	lincolnNow := testutil.CreateProgram(t, progRepo, lincoln, sched, "2023-2024", false)
	lincolnOld := testutil.CreateProgram(t, progRepo, lincoln, sched, "2021-2022", false)
	lincolnOlder := testutil.CreateProgram(t, progRepo, lincoln, sched, "2020-2021", false)
	adamsNow := testutil.CreateProgram(t, progRepo, adams, sched, "2023-2024", false)
	testutil.CreateProgram(t, progRepo, adams, sched, "2022-2023", false) // not viable

	for _, p := range []program.Program{lincolnNow, lincolnOld, lincolnOlder, adamsNow} {
		testutil.CreateClassroom(t, progRepo, p, program.EntireSchool, 100)
	}

	listing, err := svc.ListPrograms(ctx, testutil.Date(2024, 3, 1))
	require.NoError(t, err)

	ids := func(progs []program.Program) []string {
		out := make([]string, 0, len(progs))
		for _, p := range progs {
			out = append(out, p.ID)
		}
		return out
	}
	assert.Equal(t, []string{adamsNow.ID, lincolnNow.ID}, ids(listing.Current))
	assert.Equal(t, []string{lincolnOld.ID, lincolnOlder.ID}, ids(listing.Past))
}
