package echoapi

import (
	"bytes"
	"encoding/json"
	"io/ioutil"
	"log"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/trezcool/kalvi/core/academics"
	"github.com/trezcool/kalvi/core/access"
	"github.com/trezcool/kalvi/core/account"
	"github.com/trezcool/kalvi/core/attendance"
	"github.com/trezcool/kalvi/core/exams"
	logsvc "github.com/trezcool/kalvi/services/logger"
	inmemdb "github.com/trezcool/kalvi/storage/database/inmem"
	"github.com/trezcool/kalvi/tests"
)

const testPassword = "Sup3r-Secret!"

var errMissingToken = httpErr{Error: "missing or malformed jwt"}

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

// school is a server backed by an in-memory store holding two branches:
//
//	Chennai: batchA (Maths, "Grade 5", 2024) with Arun, Bala & inactive Chitra; batchB (Tamil, "Grade 6", 2023)
//	Madurai: batchC (Maths, "Grade 5", 2024) with Devi
//
// and one account per kind of caller.
type school struct {
	srv *Server

	accRepo   account.Repository
	acadRepo  academics.Repository
	attRepo   attendance.Repository
	examRepo  exams.Repository
	chennai   academics.Branch
	madurai   academics.Branch
	maths     academics.Course
	tamil     academics.Course
	science   academics.Course
	batchA    academics.Batch
	batchB    academics.Batch
	batchC    academics.Batch
	arun      academics.Student
	bala      academics.Student
	chitra    academics.Student
	devi      academics.Student
	superAdm  account.Account
	chennaiBA account.Account
	maduraiT  account.Account
	orphan    account.Account
	inactive  account.Account
}

func newSchool(t *testing.T) *school {
	db := inmemdb.Open()
	s := &school{
		accRepo:  inmemdb.NewAccountRepository(db),
		acadRepo: inmemdb.NewAcademicsRepository(db),
		attRepo:  inmemdb.NewAttendanceRepository(db),
		examRepo: inmemdb.NewExamRepository(db),
	}

	conf := testutil.NewConfig()
	logger := logsvc.NewRollbarLogger(log.New(ioutil.Discard, "", 0), conf)
	logger.Enable(false)
	validate, translator := testutil.NewValidator()

	accSvc := account.NewService(s.accRepo)
	acadSvc := academics.NewService(s.acadRepo)
	s.srv = NewServer(ServerDeps{
		Conf:           conf,
		Logger:         logger,
		AccountSvc:     accSvc,
		AcademicsSvc:   acadSvc,
		AttendanceSvc:  attendance.NewService(s.attRepo, acadSvc, validate),
		ExamSvc:        exams.NewService(s.examRepo, acadSvc, validate),
		Validate:       validate,
		Translator:     translator,
		DisableReqLogs: true,
	})
	t.Cleanup(func() { _ = s.srv.Close() })

	s.chennai = testutil.CreateBranch(t, s.acadRepo, "Chennai")
	s.madurai = testutil.CreateBranch(t, s.acadRepo, "Madurai")
	s.maths = testutil.CreateCourse(t, s.acadRepo, "Maths", "Numbers and algebra")
	s.tamil = testutil.CreateCourse(t, s.acadRepo, "Tamil", "Language and literature")
	s.science = testutil.CreateCourse(t, s.acadRepo, "Science", "")
	s.batchA = testutil.CreateBatch(t, s.acadRepo, s.chennai, s.maths, "Grade 5", 2024)
	s.batchB = testutil.CreateBatch(t, s.acadRepo, s.chennai, s.tamil, "Grade 6", 2023)
	s.batchC = testutil.CreateBatch(t, s.acadRepo, s.madurai, s.maths, "Grade 5", 2024)
	s.arun = testutil.CreateStudent(t, s.acadRepo, s.batchA, "A1", "Arun", true)
	s.bala = testutil.CreateStudent(t, s.acadRepo, s.batchA, "A2", "Bala", true)
	s.chitra = testutil.CreateStudent(t, s.acadRepo, s.batchA, "A3", "Chitra", false)
	s.devi = testutil.CreateStudent(t, s.acadRepo, s.batchC, "M1", "Devi", true)

	s.superAdm = testutil.CreateAccount(t, s.accRepo, "root", testPassword, access.RoleSuperAdmin, nil, true)
	s.chennaiBA = testutil.CreateAccount(t, s.accRepo, "priya", testPassword, access.RoleBranchAdmin, &s.chennai.ID, true)
	s.maduraiT = testutil.CreateAccount(t, s.accRepo, "karthik", testPassword, access.RoleTeacher, &s.madurai.ID, true)
	s.orphan = testutil.CreateAccount(t, s.accRepo, "lost", testPassword, access.RoleTeacher, nil, true)
	s.inactive = testutil.CreateAccount(t, s.accRepo, "gone", testPassword, access.RoleTeacher, &s.chennai.ID, false)
	return s
}

func (s *school) token(t *testing.T, acc account.Account) string {
	token, err := s.srv.auth.tokenFor(acc)
	if err != nil {
		t.Fatalf("token(): %v", err)
	}
	return token
}

func (s *school) run(t *testing.T, tests []httpTest) {
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			method := tt.method
			if method == "" {
				method = http.MethodGet
			}
			req, rec := newAuthRequest(method, tt.path, tt.token, tt.body)
			s.srv.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)
		})
	}
}

func itoa(id int64) string {
	return strconv.FormatInt(id, 10)
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

func marchallObj(t *testing.T, obj interface{}) []byte {
	data, err := json.Marshal(obj)
	if err != nil {
		t.Fatalf("marchallObj(): %v", err)
	}
	return data
}

func marchallList(t *testing.T, objs ...interface{}) []byte {
	if objs == nil {
		objs = []interface{}{}
	}
	data, err := json.Marshal(objs)
	if err != nil {
		t.Fatalf("marchallList(): %v", err)
	}
	return data
}

func checkCodeAndData(t *testing.T, tt httpTest, rec *httptest.ResponseRecorder) {
	wantCode := tt.wantCode
	if wantCode == 0 {
		wantCode = http.StatusOK
	}
	assert.Equal(t, wantCode, rec.Code, rec.Body.String())
	if tt.wantData != nil {
		assert.JSONEq(t, string(tt.wantData), rec.Body.String())
	}
}

func containsLine(text, line string) bool {
	for _, l := range strings.Split(text, "\n") {
		if l == line {
			return true
		}
	}
	return false
}
