package echoapi

import (
	"compress/gzip"
	"context"
	"encoding/json"
	"io/ioutil"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/volatiletech/null/v8"

	"github.com/coastwrpt/wrpt/core/count"
	"github.com/coastwrpt/wrpt/testutil"
)

func Test_countApi_submit(t *testing.T) {
	f := setup(t)
	path := "/v1/classrooms/" + f.roomA.ID + "/counts"
	teacherToken := f.token(t, f.teacher)

	body := func(edID string, enrollment int, value null.Int, absentees int) []byte {
		return marchallObj(t, count.Submission{
			EventDateID: edID,
			Values:      count.Values{Enrollment: enrollment, Value: value, Absentees: absentees},
		})
	}
	msg := func(m string) []byte { return marchallObj(t, map[string]string{"message": m}) }

	tests := []struct {
		httpTest
		wantMsg []byte
	}{
		{httpTest: httpTest{
			name: "auth required", body: body(f.dates[0].ID, 20, null.IntFrom(5), 0),
			wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken),
		}},
		{httpTest: httpTest{
			name: "other school", body: body(f.dates[0].ID, 20, null.IntFrom(5), 0), token: f.token(t, f.outsider),
			wantCode: http.StatusForbidden, wantData: marchallObj(t, httpErr{Error: "permission denied"}),
		}},
		{httpTest: httpTest{
			name: "blank without count", body: body(f.dates[0].ID, 20, null.Int{}, 0), token: teacherToken,
			wantCode: http.StatusOK, wantData: msg(count.MsgNoAction),
		}},
		{httpTest: httpTest{
			name: "create", body: body(f.dates[0].ID, 20, null.IntFrom(5), 1), token: teacherToken,
			wantCode: http.StatusCreated,
		}, wantMsg: []byte(count.MsgSaved)},
		{httpTest: httpTest{
			name: "update", body: body(f.dates[0].ID, 20, null.IntFrom(6), 1), token: teacherToken,
			wantCode: http.StatusOK,
		}, wantMsg: []byte(count.MsgUpdated)},
		{httpTest: httpTest{
			name: "exceeds enrollment", body: body(f.dates[1].ID, 20, null.IntFrom(18), 3), token: teacherToken,
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, httpErr{Error: "participants plus absentees exceeds classroom enrollment"}),
		}},
		{httpTest: httpTest{
			name: "missing event date", body: body("", 20, null.IntFrom(5), 0), token: teacherToken,
			wantCode: http.StatusBadRequest,
		}},
		{httpTest: httpTest{
			name: "delete", body: body(f.dates[0].ID, 20, null.Int{}, 0), token: teacherToken,
			wantCode: http.StatusOK,
		}, wantMsg: []byte(count.MsgDeleted)},
		{httpTest: httpTest{
			name: "unknown classroom", path: "/v1/classrooms/lol/counts", body: body(f.dates[0].ID, 20, null.IntFrom(5), 0),
			token: teacherToken, wantCode: http.StatusNotFound,
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := tt.path
			if p == "" {
				p = path
			}
			req, rec := newAuthRequest(http.MethodPost, p, tt.token, tt.body)
			f.app.ServeHTTP(rec, req)
			checkCodeAndData(t, tt.httpTest, rec)

			if tt.wantMsg != nil {
				var res struct {
					Message string `json:"message"`
				}
				require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
				assert.Equal(t, string(tt.wantMsg), res.Message)
			}
		})
	}
}

func Test_countApi_staff(t *testing.T) {
	f := setup(t)
	cnt := testutil.CreateCount(t, inmemCountRepo(f), f.roomA, f.dates[0], 20, 10, 0)
	other := testutil.CreateCount(t, inmemCountRepo(f), f.roomA, f.dates[1], 20, 8, 0)
	staffToken := f.token(t, f.staff)

	correction := func(edID string, value int) []byte {
		return marchallObj(t, count.Correction{
			EventDateID: edID,
			ClassroomID: f.roomA.ID,
			Values:      count.Values{Enrollment: 20, Value: null.IntFrom(value)},
		})
	}

	f.run(t, []httpTest{
		{
			name: "auth required", method: http.MethodPut, path: "/v1/counts/" + cnt.ID, body: correction(f.dates[0].ID, 9),
			wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken),
		},
		{
			name: "staff required", method: http.MethodPut, path: "/v1/counts/" + cnt.ID, body: correction(f.dates[0].ID, 9),
			token: f.token(t, f.teacher), wantCode: http.StatusForbidden, wantData: marchallObj(t, httpErr{Error: "permission denied"}),
		},
		{
			name: "key taken", method: http.MethodPut, path: "/v1/counts/" + cnt.ID, body: correction(f.dates[1].ID, 9),
			token: staffToken, wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{"event_date_id": count.ErrCountExists.Error()}),
		},
		{
			name: "correct", method: http.MethodPut, path: "/v1/counts/" + cnt.ID, body: correction(f.dates[2].ID, 9),
			token: staffToken, wantCode: http.StatusOK,
		},
		{
			name: "unknown count", method: http.MethodPut, path: "/v1/counts/lol", body: correction(f.dates[0].ID, 9),
			token: staffToken, wantCode: http.StatusNotFound,
		},
		{name: "delete", method: http.MethodDelete, path: "/v1/counts/" + other.ID, token: staffToken, wantCode: http.StatusNoContent},
		{name: "delete again", method: http.MethodDelete, path: "/v1/counts/" + other.ID, token: staffToken, wantCode: http.StatusNotFound},
	})

	moved, err := inmemCountRepo(f).GetCount(context.Background(), cnt.ID)
	require.NoError(t, err)
	assert.Equal(t, f.dates[2].ID, moved.EventDateID)
	assert.Equal(t, null.IntFrom(9), moved.Value)
}

func Test_countApi_dump(t *testing.T) {
	f := setup(t)
	testutil.CreateCount(t, inmemCountRepo(f), f.roomA, f.dates[0], 20, 10, 1)

	t.Run("staff required", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodGet, "/v1/counts/dump", f.token(t, f.teacher))
		f.app.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("gzipped csv", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodGet, "/v1/counts/dump", f.token(t, f.staff))
		req.Header.Set("Accept-Encoding", "gzip")
		f.app.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "gzip", rec.Header().Get("Content-Encoding"))
		assert.True(t, strings.HasPrefix(rec.Header().Get("Content-Type"), "text/csv"))

		zr, err := gzip.NewReader(rec.Body)
		require.NoError(t, err)
		data, err := ioutil.ReadAll(zr)
		require.NoError(t, err)
		assert.Equal(t,
			"program,eventDate,classroom,enrollment,value,activeValue,inactiveValue,absentees,comments\n"+
				"2023-2024 Lincoln,2024-01-10,A,20,10,,,1,\n",
			string(data))
	})
}
