package echoapi

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"reflect"
	"testing"
	"time"

	"github.com/coastwrpt/wrpt/core"
	"github.com/coastwrpt/wrpt/core/count"
	"github.com/coastwrpt/wrpt/core/program"
	"github.com/coastwrpt/wrpt/core/stats"
	"github.com/coastwrpt/wrpt/core/user"
	"github.com/coastwrpt/wrpt/storage/database/inmem"
	"github.com/coastwrpt/wrpt/testutil"
)

var errMissingToken = httpErr{Error: "missing or malformed jwt"}

type fixture struct {
	app      *Server
	db       *inmemdb.DB
	lincoln  program.Program
	adams    program.Program
	roomA    program.Classroom
	roomB    program.Classroom
	entire   program.Classroom
	dates    []program.EventDate
	teacher  user.User
	outsider user.User
	staff    user.User
	inactive user.User
}

const testPassword = "walk2school1"

func setup(t *testing.T) fixture {
	db := inmemdb.Open()
	progRepo := inmemdb.NewProgramRepository(db)
	countRepo := inmemdb.NewCountRepository(db)
	usrRepo := inmemdb.NewUserRepository(db)
	validate, translator := testutil.NewValidator()
	today := func() time.Time { return testutil.Date(2024, 2, 15) }

	f := fixture{db: db}

	lincoln := testutil.CreateSchool(t, progRepo, "Lincoln")
	adams := testutil.CreateSchool(t, progRepo, "Adams")
	sched, dates := testutil.CreateSchedule(t, progRepo, "Monthly",
		testutil.Date(2024, 1, 10), testutil.Date(2024, 2, 10), testutil.Date(2024, 3, 10))
	f.dates = dates
	f.lincoln = testutil.CreateProgram(t, progRepo, lincoln, sched, "2023-2024", false)
	f.adams = testutil.CreateProgram(t, progRepo, adams, sched, "2023-2024", false)
	f.roomA = testutil.CreateClassroom(t, progRepo, f.lincoln, "A", 20)
	f.roomB = testutil.CreateClassroom(t, progRepo, f.lincoln, "B", 20)
	f.entire = testutil.CreateClassroom(t, progRepo, f.adams, program.EntireSchool, 300)

	f.teacher = testutil.CreateUser(t, usrRepo, "teacher", testPassword, lincoln.ID, true)
	f.outsider = testutil.CreateUser(t, usrRepo, "outsider", testPassword, adams.ID, true)
	f.staff = testutil.CreateUser(t, usrRepo, "staff", testPassword, "", true)
	f.inactive = testutil.CreateUser(t, usrRepo, "inactive", testPassword, lincoln.ID, false)

	// re-read programs for their classroom counts
	f.lincoln, _ = progRepo.GetProgram(context.Background(), f.lincoln.ID)
	f.adams, _ = progRepo.GetProgram(context.Background(), f.adams.ID)

	f.app = NewServer(ServerDeps{
		Conf:       core.NewTestConfig(),
		Logger:     testutil.NopLogger{},
		ProgramSvc: program.NewService(progRepo, validate),
		CountSvc:   count.NewService(countRepo, progRepo, countRepo, testutil.NopLogger{}, validate, today),
		StatsSvc:   stats.NewService(progRepo, countRepo),
		UserSvc:    user.NewService(usrRepo, validate),
		Validate:   validate,
		Translator: translator,
		Today:      today,
	})
	return f
}

type httpErr struct {
	Error string `json:"error"`
}

type httpTest struct {
	name     string
	method   string
	path     string
	body     []byte
	token    string
	wantCode int
	wantData []byte
}

func newAuthRequest(method, path, token string, data ...[]byte) (*http.Request, *httptest.ResponseRecorder) {
	var body bytes.Buffer
	if len(data) > 0 {
		body.Write(data[0])
	}
	req := httptest.NewRequest(method, path, &body)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	return req, rec
}

func newRequest(method, path string, data ...[]byte) (*http.Request, *httptest.ResponseRecorder) {
	return newAuthRequest(method, path, "", data...)
}

func (f fixture) token(t *testing.T, usr user.User) string {
	token, err := f.app.auth.token(f.app.auth.claims(usr))
	if err != nil {
		t.Fatalf("token() failed: %v", err)
	}
	return token
}

func (f fixture) run(t *testing.T, tests []httpTest) {
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			method := tt.method
			if method == "" {
				method = http.MethodGet
			}
			req, rec := newAuthRequest(method, tt.path, tt.token, tt.body)
			f.app.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)
		})
	}
}

func marchallObj(t *testing.T, obj interface{}) []byte {
	data, err := json.Marshal(obj)
	if err != nil {
		t.Fatalf("marchallObj() failed: %v", err)
	}
	return data
}

func jsonBytesEqual(b1, b2 []byte) (bool, error) {
	var j1, j2 interface{}
	if err := json.Unmarshal(b1, &j1); err != nil {
		return false, err
	}
	if err := json.Unmarshal(b2, &j2); err != nil {
		return false, err
	}
	return reflect.DeepEqual(j1, j2), nil
}

// checkCodeAndData compares the response with the expected one. A nil wantData skips the body check.
func checkCodeAndData(t *testing.T, tt httpTest, rec *httptest.ResponseRecorder) {
	if rec.Code != tt.wantCode {
		t.Errorf("failed! code = %v; wantCode %v; body %s", rec.Code, tt.wantCode, rec.Body.String())
	}
	if tt.wantData == nil {
		return
	}
	ok, err := jsonBytesEqual(rec.Body.Bytes(), tt.wantData)
	if err != nil {
		t.Errorf("jsonBytesEqual() failed to compare; err %v", err)
	}
	if !ok {
		t.Errorf("failed! data = %v; wantData %v", rec.Body.String(), string(tt.wantData))
	}
}

func inmemCountRepo(f fixture) count.Repository {
	return inmemdb.NewCountRepository(f.db)
}
