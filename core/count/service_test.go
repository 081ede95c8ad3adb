package count_test

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/volatiletech/null/v8"

	"github.com/coastwrpt/wrpt/core"
	"github.com/coastwrpt/wrpt/core/count"
	"github.com/coastwrpt/wrpt/core/program"
	"github.com/coastwrpt/wrpt/core/user"
	"github.com/coastwrpt/wrpt/storage/database/inmem"
	"github.com/coastwrpt/wrpt/testutil"
)

type fixture struct {
	svc       *count.Service
	countRepo interface {
		count.Repository
		AuditLog() []count.AuditEntry
	}
	prog     program.Program
	split    program.Program
	room     program.Classroom
	splitRm  program.Classroom
	dates    []program.EventDate
	teacher  user.User
	outsider user.User
	staff    user.User
}

func setup(t *testing.T) fixture {
	db := inmemdb.Open()
	progRepo := inmemdb.NewProgramRepository(db)
	countRepo := inmemdb.NewCountRepository(db)
	usrRepo := inmemdb.NewUserRepository(db)
	validate, _ := testutil.NewValidator()

	today := func() time.Time { return testutil.Date(2024, 2, 15) }

	lincoln := testutil.CreateSchool(t, progRepo, "Lincoln")
	other := testutil.CreateSchool(t, progRepo, "Other")
	sched, dates := testutil.CreateSchedule(t, progRepo, "Monthly",
		testutil.Date(2024, 1, 10), testutil.Date(2024, 2, 10), testutil.Date(2024, 3, 10))
	prog := testutil.CreateProgram(t, progRepo, lincoln, sched, "2023-2024", false)
	split := testutil.CreateProgram(t, progRepo, other, sched, "2023-2024", true)

	return fixture{
		svc:       count.NewService(countRepo, progRepo, countRepo, testutil.NopLogger{}, validate, today),
		countRepo: countRepo,
		prog:      prog,
		split:     split,
		room:      testutil.CreateClassroom(t, progRepo, prog, "Room 4", 30),
		splitRm:   testutil.CreateClassroom(t, progRepo, split, "Room 9", 20),
		dates:     dates,
		teacher:   testutil.CreateUser(t, usrRepo, "teacher", "", lincoln.ID, true),
		outsider:  testutil.CreateUser(t, usrRepo, "outsider", "", other.ID, true),
		staff:     testutil.CreateUser(t, usrRepo, "staff", "", "", true),
	}
}

func TestService_Submit(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	n := null.IntFrom

	sub := func(ed program.EventDate, vals count.Values) count.Submission {
		return count.Submission{EventDateID: ed.ID, Values: vals}
	}

	tests := []struct {
		name       string
		usr        user.User
		room       program.Classroom
		sub        count.Submission
		wantAction count.Action
		wantMsg    string
		wantErr    error
		wantVErr   bool
	}{
		{
			name: "wrong school", usr: f.outsider, room: f.room,
			sub:     sub(f.dates[0], count.Values{Enrollment: 30, Value: n(20)}),
			wantErr: core.ErrPermissionDenied,
		},
		{
			name: "blank without count", usr: f.teacher, room: f.room,
			sub:        sub(f.dates[0], count.Values{Enrollment: 30}),
			wantAction: count.NoAction, wantMsg: count.MsgNoAction,
		},
		{
			name: "create", usr: f.teacher, room: f.room,
			sub:        sub(f.dates[0], count.Values{Enrollment: 29, Value: n(20), Absentees: 1}),
			wantAction: count.Created, wantMsg: count.MsgSaved,
		},
		{
			name: "update", usr: f.teacher, room: f.room,
			sub:        sub(f.dates[0], count.Values{Enrollment: 29, Value: n(22), Absentees: 1}),
			wantAction: count.Updated, wantMsg: count.MsgUpdated,
		},
		{
			name: "enrollment exceeded", usr: f.teacher, room: f.room,
			sub:      sub(f.dates[1], count.Values{Enrollment: 30, Value: n(25), Absentees: 6}),
			wantVErr: true,
		},
		{
			name: "negative value", usr: f.teacher, room: f.room,
			sub:      sub(f.dates[1], count.Values{Enrollment: 30, Value: n(-1)}),
			wantVErr: true,
		},
		{
			name: "unknown event date", usr: f.teacher, room: f.room,
			sub:      count.Submission{EventDateID: "lol", Values: count.Values{Enrollment: 30, Value: n(1)}},
			wantVErr: true,
		},
		{
			name: "delete", usr: f.teacher, room: f.room,
			sub:        sub(f.dates[0], count.Values{Enrollment: 29}),
			wantAction: count.Deleted, wantMsg: count.MsgDeleted,
		},
		{
			name: "delete again", usr: f.teacher, room: f.room,
			sub:        sub(f.dates[0], count.Values{Enrollment: 29}),
			wantAction: count.NoAction, wantMsg: count.MsgNoAction,
		},
		{
			name: "staff submits split count", usr: f.staff, room: f.splitRm,
			sub:        sub(f.dates[1], count.Values{Enrollment: 20, ActiveValue: n(5), InactiveValue: n(3)}),
			wantAction: count.Created, wantMsg: count.MsgSaved,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := f.svc.Submit(ctx, tt.usr, tt.room.ID, tt.sub)
			switch {
			case tt.wantErr != nil:
				assert.Equal(t, tt.wantErr, errors.Cause(err))
			case tt.wantVErr:
				require.Error(t, err)
				_, isVErr := errors.Cause(err).(*core.ValidationError)
				_, isFldErr := errors.Cause(err).(validator.ValidationErrors)
				assert.True(t, isVErr || isFldErr, "got %v", err)
			default:
				require.NoError(t, err)
				assert.Equal(t, tt.wantAction, res.Action)
				assert.Equal(t, tt.wantMsg, res.Message)
			}
		})
	}

	splitCounts, err := f.svc.QueryClassroomCounts(ctx, f.splitRm.ID)
	require.NoError(t, err)
	require.Len(t, splitCounts, 1)
	assert.Equal(t, n(8), splitCounts[0].Value)

	actions := make([]string, 0)
	for _, e := range f.countRepo.AuditLog() {
		actions = append(actions, e.Action)
	}
	assert.Equal(t, []string{count.AuditCreate, count.AuditUpdate, count.AuditDelete, count.AuditCreate}, actions)
}

func TestService_Correct(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	n := null.IntFrom

	first, err := f.svc.Submit(ctx, f.teacher, f.room.ID, count.Submission{
		EventDateID: f.dates[0].ID, Values: count.Values{Enrollment: 30, Value: n(10)},
	})
	require.NoError(t, err)
	second, err := f.svc.Submit(ctx, f.teacher, f.room.ID, count.Submission{
		EventDateID: f.dates[1].ID, Values: count.Values{Enrollment: 30, Value: n(12)},
	})
	require.NoError(t, err)

	corr := func(ed program.EventDate, vals count.Values) count.Correction {
		return count.Correction{EventDateID: ed.ID, ClassroomID: f.room.ID, Values: vals}
	}

	t.Run("staff only", func(t *testing.T) {
		_, err := f.svc.Correct(ctx, f.teacher, first.Count.ID, corr(f.dates[0], count.Values{Enrollment: 30, Value: n(9)}))
		assert.Equal(t, core.ErrPermissionDenied, errors.Cause(err))
	})

	t.Run("key taken", func(t *testing.T) {
		_, err := f.svc.Correct(ctx, f.staff, first.Count.ID, corr(f.dates[1], count.Values{Enrollment: 30, Value: n(9)}))
		vErr, ok := errors.Cause(err).(*core.ValidationError)
		require.True(t, ok, "got %v", err)
		require.Len(t, vErr.Fields, 1)
		assert.Equal(t, "event_date_id", vErr.Fields[0].Field)
		assert.Equal(t, count.ErrCountExists.Error(), vErr.Fields[0].Error)
	})

	t.Run("move to free date", func(t *testing.T) {
		res, err := f.svc.Correct(ctx, f.staff, first.Count.ID, corr(f.dates[2], count.Values{Enrollment: 30, Value: n(9)}))
		require.NoError(t, err)
		assert.Equal(t, count.Updated, res.Action)
		assert.Equal(t, f.dates[2].ID, res.Count.EventDateID)
		assert.Equal(t, n(9), res.Count.Value)
	})

	t.Run("classroom of another program", func(t *testing.T) {
		c := corr(f.dates[1], count.Values{Enrollment: 20, Value: n(9)})
		c.ClassroomID = f.splitRm.ID
		_, err := f.svc.Correct(ctx, f.staff, second.Count.ID, c)
		_, ok := errors.Cause(err).(*core.ValidationError)
		assert.True(t, ok, "got %v", err)
	})

	t.Run("delete", func(t *testing.T) {
		res, err := f.svc.Delete(ctx, f.staff, second.Count.ID)
		require.NoError(t, err)
		assert.Equal(t, count.Deleted, res.Action)

		_, err = f.svc.GetCount(ctx, second.Count.ID)
		assert.Equal(t, core.ErrNotFound, errors.Cause(err))
	})
}

func TestInitialEnrollment(t *testing.T) {
	room := program.Classroom{ID: "c", Enrollment: 30}
	dates := []program.EventDate{{ID: "e1"}, {ID: "e2"}, {ID: "e3"}}

	assert.Equal(t, 30, count.InitialEnrollment(room, dates, nil))
	assert.Equal(t, 27, count.InitialEnrollment(room, dates, []count.Count{
		{EventDateID: "e2", Enrollment: 27},
		{EventDateID: "e1", Enrollment: 28},
	}))
}

func TestExport(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, err := f.svc.Submit(ctx, f.teacher, f.room.ID, count.Submission{
			EventDateID: f.dates[i%2].ID,
			Values:      count.Values{Enrollment: 30, Value: null.IntFrom(10 + i), Comments: " windy, cold "},
		})
		require.NoError(t, err)
	}

	var buf bytes.Buffer
	n, err := count.Export(ctx, f.countRepo, &buf)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "program,eventDate,classroom,enrollment,value,activeValue,inactiveValue,absentees,comments", lines[0])
	assert.Contains(t, lines[1:], `2023-2024 Lincoln,2024-02-10,Room 4,30,11,,,0,"windy, cold"`)
	assert.Contains(t, lines[1:], `2023-2024 Lincoln,2024-01-10,Room 4,30,12,,,0,"windy, cold"`)
}

// staleFindRepo misses the first lookup, as if another request inserted the row right after it.
type staleFindRepo struct {
	count.Repository
	missed bool
}

func (r *staleFindRepo) FindCount(ctx context.Context, programID, eventDateID, classroomID string) (count.Count, error) {
	if !r.missed {
		r.missed = true
		return count.Count{}, core.ErrNotFound
	}
	return r.Repository.FindCount(ctx, programID, eventDateID, classroomID)
}

type failingAudit struct{}

func (failingAudit) RecordAudit(context.Context, count.AuditEntry) error {
	return errors.New("audit log unavailable")
}

type logLine struct {
	level string
	msg   string
	args  []interface{}
}

type recordingLogger struct {
	testutil.NopLogger
	lines []logLine
}

func (l *recordingLogger) Info(msg string, args ...interface{}) {
	l.lines = append(l.lines, logLine{level: "info", msg: msg, args: args})
}

func (l *recordingLogger) Error(msg string, args ...interface{}) {
	l.lines = append(l.lines, logLine{level: "error", msg: msg, args: args})
}

func TestService_Submit_lostInsertRace(t *testing.T) {
	db := inmemdb.Open()
	progRepo := inmemdb.NewProgramRepository(db)
	countRepo := inmemdb.NewCountRepository(db)
	usrRepo := inmemdb.NewUserRepository(db)
	validate, _ := testutil.NewValidator()
	ctx := context.Background()

	school := testutil.CreateSchool(t, progRepo, "Lincoln")
	sched, dates := testutil.CreateSchedule(t, progRepo, "Monthly", testutil.Date(2024, 2, 10))
	prog := testutil.CreateProgram(t, progRepo, school, sched, "2023-2024", false)
	room := testutil.CreateClassroom(t, progRepo, prog, "Room 4", 30)
	teacher := testutil.CreateUser(t, usrRepo, "teacher", "", school.ID, true)
	winner := testutil.CreateCount(t, countRepo, room, dates[0], 30, 12, 0)

	logger := new(recordingLogger)
	svc := count.NewService(&staleFindRepo{Repository: countRepo}, progRepo, failingAudit{}, logger, validate,
		func() time.Time { return testutil.Date(2024, 2, 15) })

	res, err := svc.Submit(ctx, teacher, room.ID, count.Submission{
		EventDateID: dates[0].ID,
		Values:      count.Values{Enrollment: 30, Value: null.IntFrom(17)},
	})
	require.NoError(t, err)
	assert.Equal(t, count.Updated, res.Action)
	assert.Equal(t, count.MsgUpdated, res.Message)
	require.NotNil(t, res.Count)
	assert.Equal(t, winner.ID, res.Count.ID)

	counts, err := countRepo.QueryClassroomCounts(ctx, room.ID)
	require.NoError(t, err)
	require.Len(t, counts, 1)
	assert.Equal(t, null.IntFrom(17), counts[0].Value)
	assert.Empty(t, countRepo.AuditLog())

	require.Len(t, logger.lines, 1)
	line := logger.lines[0]
	assert.Equal(t, "error", line.level)
	assert.Equal(t, "recording count audit entry: update: "+winner.LogFormat()+" -> "+counts[0].LogFormat(), line.msg)
	require.Len(t, line.args, 3)
	assert.EqualError(t, line.args[0].(error), "recording audit: audit log unavailable")
	assert.Equal(t, teacher.ID, line.args[1].(user.User).ID)
	assert.Equal(t, counts[0], line.args[2])
}

func TestService_auditLogging(t *testing.T) {
	db := inmemdb.Open()
	progRepo := inmemdb.NewProgramRepository(db)
	countRepo := inmemdb.NewCountRepository(db)
	usrRepo := inmemdb.NewUserRepository(db)
	validate, _ := testutil.NewValidator()
	ctx := context.Background()

	school := testutil.CreateSchool(t, progRepo, "Lincoln")
	sched, dates := testutil.CreateSchedule(t, progRepo, "Monthly", testutil.Date(2024, 2, 10))
	prog := testutil.CreateProgram(t, progRepo, school, sched, "2023-2024", false)
	room := testutil.CreateClassroom(t, progRepo, prog, "Room 4", 30)
	teacher := testutil.CreateUser(t, usrRepo, "teacher", "", school.ID, true)

	logger := new(recordingLogger)
	svc := count.NewService(countRepo, progRepo, countRepo, logger, validate,
		func() time.Time { return testutil.Date(2024, 2, 15) })

	res, err := svc.Submit(ctx, teacher, room.ID, count.Submission{
		EventDateID: dates[0].ID,
		Values:      count.Values{Enrollment: 30, Value: null.IntFrom(9)},
	})
	require.NoError(t, err)
	require.Equal(t, count.Created, res.Action)

	require.Len(t, logger.lines, 1)
	line := logger.lines[0]
	assert.Equal(t, "info", line.level)
	assert.Equal(t, count.AuditCreate+": "+res.Count.LogFormat(), line.msg)
	require.Len(t, line.args, 2)
	assert.Equal(t, teacher.ID, line.args[0].(user.User).ID)
	assert.Equal(t, *res.Count, line.args[1])

	entries := countRepo.AuditLog()
	require.Len(t, entries, 1)
	assert.Equal(t, res.Count.ID, entries[0].CountID)
}
