package echoapi

import (
	"context"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/trezcool/kalvi/core"
	"github.com/trezcool/kalvi/core/academics"
	"github.com/trezcool/kalvi/core/attendance"
	"github.com/trezcool/kalvi/tests"
)

const attendanceDate = "2024-06-03"

func attendancePath(batch academics.Batch, date string) string {
	return "/api/attendance/batch/" + itoa(batch.ID) + "/date/" + date
}

func rosterRow(std academics.Student, status attendance.Status, note string) attendance.RosterRow {
	row := attendance.RosterRow{StudentID: std.ID, StudentName: std.FullName, Note: note}
	if status != "" {
		row.Status = &status
	}
	return row
}

func TestAttendanceAPI_Roster(t *testing.T) {
	s := newSchool(t)
	testutil.UpsertAttendance(t, s.attRepo, s.batchA, s.arun, attendanceDate, attendance.StatusLate, "bus")
	testutil.UpsertAttendance(t, s.attRepo, s.batchA, s.bala, "2024-06-04", attendance.StatusAbsent, "")

	s.run(t, []httpTest{
		{
			name:  "stored statuses for the date only",
			path:  attendancePath(s.batchA, attendanceDate),
			token: s.token(t, s.chennaiBA),
			wantData: marchallObj(t, RosterResponse{
				BatchID: s.batchA.ID,
				Date:    attendanceDate,
				Students: []attendance.RosterRow{
					rosterRow(s.arun, attendance.StatusLate, "bus"),
					rosterRow(s.bala, "", ""),
				},
				StatusChoices: attendance.StatusChoices,
			}),
		},
		{
			name:     "invalid date",
			path:     attendancePath(s.batchA, "2024-13-01"),
			token:    s.token(t, s.superAdm),
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{"date": "date must be in YYYY-MM-DD format"}),
		},
		{
			name:     "unknown batch",
			path:     "/api/attendance/batch/999/date/" + attendanceDate,
			token:    s.token(t, s.superAdm),
			wantCode: http.StatusNotFound,
			wantData: marchallObj(t, httpErr{Error: "batch not found"}),
		},
		{
			name:     "non-integer batch",
			path:     "/api/attendance/batch/first/date/" + attendanceDate,
			token:    s.token(t, s.superAdm),
			wantCode: http.StatusNotFound,
		},
		{
			name:     "batch of another branch",
			path:     attendancePath(s.batchA, attendanceDate),
			token:    s.token(t, s.maduraiT),
			wantCode: http.StatusForbidden,
			wantData: marchallObj(t, httpErr{Error: "permission denied"}),
		},
		{
			name:     "empty batch",
			path:     attendancePath(s.batchB, attendanceDate),
			token:    s.token(t, s.chennaiBA),
			wantData: []byte(`{"batch_id": ` + itoa(s.batchB.ID) + `, "date": "` + attendanceDate + `", "students": [], "status_choices": [{"key": "P", "label": "Present"}, {"key": "A", "label": "Absent"}, {"key": "L", "label": "Late"}]}`),
		},
	})
}

func TestAttendanceAPI_Submit(t *testing.T) {
	s := newSchool(t)
	path := attendancePath(s.batchA, attendanceDate) + "/submit"
	longNote := strings.Repeat("x", 256)

	s.run(t, []httpTest{
		{
			name:     "records must be a list",
			method:   http.MethodPost,
			path:     path,
			body:     []byte(`{"records": {"student_id": 1}}`),
			token:    s.token(t, s.chennaiBA),
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{"records": "records must be a list"}),
		},
		{
			name:     "forbidden before validation",
			method:   http.MethodPost,
			path:     path,
			body:     []byte(`{"records": "nope"}`),
			token:    s.token(t, s.maduraiT),
			wantCode: http.StatusForbidden,
			wantData: marchallObj(t, httpErr{Error: "permission denied"}),
		},
		{
			name:     "no records",
			method:   http.MethodPost,
			path:     path,
			body:     []byte(`{}`),
			token:    s.token(t, s.chennaiBA),
			wantData: marchallObj(t, SubmitResponse{Saved: 0}),
		},
		{
			name:   "invalid records are skipped",
			method: http.MethodPost,
			path:   path,
			body: []byte(`{"records": [
				{"student_id": ` + itoa(s.arun.ID) + `, "status": "P"},
				{"student_id": ` + itoa(s.bala.ID) + `, "status": "X"},
				{"student_id": ` + itoa(s.devi.ID) + `, "status": "P"},
				{"student_id": ` + itoa(s.chitra.ID) + `, "status": "A", "note": "inactive but enrolled"},
				"garbage",
				{"student_id": "one", "status": "P"},
				{"status": "P"},
				{"student_id": ` + itoa(s.bala.ID) + `, "status": "L", "note": "` + longNote + `"}
			]}`),
			token:    s.token(t, s.chennaiBA),
			wantData: marchallObj(t, SubmitResponse{Saved: 2}),
		},
		{
			name:  "roster reflects the submission",
			path:  attendancePath(s.batchA, attendanceDate),
			token: s.token(t, s.chennaiBA),
			wantData: marchallObj(t, RosterResponse{
				BatchID: s.batchA.ID,
				Date:    attendanceDate,
				Students: []attendance.RosterRow{
					rosterRow(s.arun, attendance.StatusPresent, ""),
					rosterRow(s.bala, "", ""),
				},
				StatusChoices: attendance.StatusChoices,
			}),
		},
		{
			name:     "resubmission overwrites",
			method:   http.MethodPost,
			path:     path,
			body:     []byte(`{"records": [{"student_id": ` + itoa(s.arun.ID) + `, "status": "A", "note": "sick"}]}`),
			token:    s.token(t, s.superAdm),
			wantData: marchallObj(t, SubmitResponse{Saved: 1}),
		},
		{
			name:  "roster after overwrite",
			path:  attendancePath(s.batchA, attendanceDate),
			token: s.token(t, s.superAdm),
			wantData: marchallObj(t, RosterResponse{
				BatchID: s.batchA.ID,
				Date:    attendanceDate,
				Students: []attendance.RosterRow{
					rosterRow(s.arun, attendance.StatusAbsent, "sick"),
					rosterRow(s.bala, "", ""),
				},
				StatusChoices: attendance.StatusChoices,
			}),
		},
		{
			name:  "other dates are untouched",
			path:  attendancePath(s.batchA, "2024-06-04"),
			token: s.token(t, s.superAdm),
			wantData: marchallObj(t, RosterResponse{
				BatchID: s.batchA.ID,
				Date:    "2024-06-04",
				Students: []attendance.RosterRow{
					rosterRow(s.arun, "", ""),
					rosterRow(s.bala, "", ""),
				},
				StatusChoices: attendance.StatusChoices,
			}),
		},
	})
}

func TestAttendanceAPI_SubmitSamePayloadTwice(t *testing.T) {
	s := newSchool(t)
	path := attendancePath(s.batchA, attendanceDate) + "/submit"
	body := []byte(`{"records": [
		{"student_id": ` + itoa(s.arun.ID) + `, "status": "P", "note": "on time"},
		{"student_id": ` + itoa(s.bala.ID) + `, "status": "Z"}
	]}`)
	roster := marchallObj(t, RosterResponse{
		BatchID: s.batchA.ID,
		Date:    attendanceDate,
		Students: []attendance.RosterRow{
			rosterRow(s.arun, attendance.StatusPresent, "on time"),
			rosterRow(s.bala, "", ""),
		},
		StatusChoices: attendance.StatusChoices,
	})

	s.run(t, []httpTest{
		{
			name:     "first submission",
			method:   http.MethodPost,
			path:     path,
			body:     body,
			token:    s.token(t, s.chennaiBA),
			wantData: marchallObj(t, SubmitResponse{Saved: 1}),
		},
		{
			name:     "roster after first submission",
			path:     attendancePath(s.batchA, attendanceDate),
			token:    s.token(t, s.chennaiBA),
			wantData: roster,
		},
		{
			name:     "second submission",
			method:   http.MethodPost,
			path:     path,
			body:     body,
			token:    s.token(t, s.chennaiBA),
			wantData: marchallObj(t, SubmitResponse{Saved: 1}),
		},
		{
			name:     "roster unchanged",
			path:     attendancePath(s.batchA, attendanceDate),
			token:    s.token(t, s.chennaiBA),
			wantData: roster,
		},
		{
			name:     "no branch cannot submit",
			method:   http.MethodPost,
			path:     path,
			body:     body,
			token:    s.token(t, s.orphan),
			wantCode: http.StatusForbidden,
			wantData: marchallObj(t, httpErr{Error: "permission denied"}),
		},
	})

	// still one row per student and date
	day, _ := core.ParseDate(attendanceDate)
	recs, err := s.attRepo.QueryRecords(context.Background(), s.batchA.ID, day)
	assert.NoError(t, err)
	assert.Len(t, recs, 1)
}
