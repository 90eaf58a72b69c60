package echoapi

import (
	"net/http"
	"testing"

	"github.com/trezcool/kalvi/core/academics"
)

func TestAcademicsAPI_Courses(t *testing.T) {
	s := newSchool(t)

	course := func(c academics.Course, count int) CourseResponse {
		return CourseResponse{ID: c.ID, Name: c.Name, Active: true, BatchesCount: count}
	}

	s.run(t, []httpTest{
		{
			name:  "super admin sees every course",
			path:  "/api/courses",
			token: s.token(t, s.superAdm),
			wantData: marchallList(t,
				course(s.maths, 2),
				course(s.science, 0),
				course(s.tamil, 1),
			),
		},
		{
			name:     "branch admin sees courses with batches in their branch",
			path:     "/api/courses",
			token:    s.token(t, s.chennaiBA),
			wantData: marchallList(t, course(s.maths, 1), course(s.tamil, 1)),
		},
		{
			name:     "teacher",
			path:     "/api/courses",
			token:    s.token(t, s.maduraiT),
			wantData: marchallList(t, course(s.maths, 1)),
		},
		{
			name:     "no branch sees nothing",
			path:     "/api/courses",
			token:    s.token(t, s.orphan),
			wantData: marchallList(t),
		},
		{
			name:     "search matches description",
			path:     "/api/courses?q=LITERATURE",
			token:    s.token(t, s.superAdm),
			wantData: marchallList(t, course(s.tamil, 1)),
		},
		{
			name:     "search wildcards are literal",
			path:     "/api/courses?q=%25",
			token:    s.token(t, s.superAdm),
			wantData: marchallList(t),
		},
	})
}

func TestAcademicsAPI_Batches(t *testing.T) {
	s := newSchool(t)

	s.run(t, []httpTest{
		{
			name:     "super admin: newest year first then name",
			path:     "/api/batches",
			token:    s.token(t, s.superAdm),
			wantData: marchallList(t, s.batchA, s.batchC, s.batchB),
		},
		{
			name:     "branch admin",
			path:     "/api/batches/",
			token:    s.token(t, s.chennaiBA),
			wantData: marchallList(t, s.batchA, s.batchB),
		},
		{
			name:     "no branch sees nothing",
			path:     "/api/batches",
			token:    s.token(t, s.orphan),
			wantData: marchallList(t),
		},
	})
}

func TestAcademicsAPI_Students(t *testing.T) {
	s := newSchool(t)

	student := func(std academics.Student) StudentResponse {
		return StudentResponse{
			ID:          std.ID,
			FullName:    std.FullName,
			AdmissionNo: std.AdmissionNo,
			BatchID:     std.BatchID,
			BatchName:   std.BatchName,
			BranchCity:  std.BranchCity,
			Active:      std.Active,
		}
	}

	s.run(t, []httpTest{
		{
			name:     "batch_id is required",
			path:     "/api/students",
			token:    s.token(t, s.superAdm),
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{"batch_id": "batch_id is required"}),
		},
		{
			name:     "batch_id must be an integer",
			path:     "/api/students?batch_id=abc",
			token:    s.token(t, s.superAdm),
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{"batch_id": "batch_id must be an integer"}),
		},
		{
			name:     "unknown batch",
			path:     "/api/students?batch_id=999",
			token:    s.token(t, s.superAdm),
			wantCode: http.StatusNotFound,
			wantData: marchallObj(t, httpErr{Error: "batch not found"}),
		},
		{
			name:     "batch of another branch",
			path:     "/api/students?batch_id=" + itoa(s.batchA.ID),
			token:    s.token(t, s.maduraiT),
			wantCode: http.StatusForbidden,
			wantData: marchallObj(t, httpErr{Error: "permission denied"}),
		},
		{
			name:     "no branch",
			path:     "/api/students?batch_id=" + itoa(s.batchA.ID),
			token:    s.token(t, s.orphan),
			wantCode: http.StatusForbidden,
			wantData: marchallObj(t, httpErr{Error: "permission denied"}),
		},
		{
			name:     "active students only",
			path:     "/api/students?batch_id=" + itoa(s.batchA.ID),
			token:    s.token(t, s.chennaiBA),
			wantData: marchallList(t, student(s.arun), student(s.bala)),
		},
		{
			name:     "search by name",
			path:     "/api/students?batch_id=" + itoa(s.batchA.ID) + "&q=AR",
			token:    s.token(t, s.superAdm),
			wantData: marchallList(t, student(s.arun)),
		},
	})
}
