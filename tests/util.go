package testutil

import (
	"context"
	"os"
	"testing"
	"time"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"

	"github.com/trezcool/kalvi/core"
	"github.com/trezcool/kalvi/core/academics"
	"github.com/trezcool/kalvi/core/access"
	"github.com/trezcool/kalvi/core/account"
	"github.com/trezcool/kalvi/core/attendance"
	"github.com/trezcool/kalvi/core/exams"
	"github.com/trezcool/kalvi/storage/database"
)

// NewConfig returns the configuration used by tests.
func NewConfig() *core.Config {
	return &core.Config{
		AppName:   "Kalvi",
		Build:     "test",
		Env:       "TEST",
		TestMode:  true,
		SecretKey: "secret",
		Server: core.ServerConfig{
			Host:                      "localhost",
			Address:                   ":0",
			ShutdownTimeout:           time.Second,
			JWTExpirationDelta:        10 * time.Minute,
			JWTRefreshExpirationDelta: 4 * time.Hour,
		},
	}
}

// NewValidator returns a validator with every custom validation registered.
func NewValidator() (*validator.Validate, ut.Translator) {
	validate := validator.New()
	translator := core.NewTranslator()
	core.InitValidators(validate, translator)
	account.InitValidators(validate, translator)
	return validate, translator
}

// IntegrationDB opens the database at DATABASE_URL, migrated and emptied.
// The test is skipped unless INTEGRATION_TESTS=1.
func IntegrationDB(t *testing.T) *sqlx.DB {
	t.Helper()
	if os.Getenv("INTEGRATION_TESTS") != "1" {
		t.Skip("set INTEGRATION_TESTS=1 to run integration tests")
	}
	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		t.Fatal("DATABASE_URL is required for integration tests")
	}

	db, err := database.OpenURL(dsn)
	if err != nil {
		t.Fatalf("IntegrationDB() failed: %v", err)
	}
	if err = database.Migrate(db.DB); err != nil {
		t.Fatalf("IntegrationDB() failed: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	ResetDB(t, db)
	return db
}

// ResetDB empties every table.
func ResetDB(t *testing.T, db *sqlx.DB) {
	q := `TRUNCATE exam_results, exams, attendance, accounts, students, batches, courses, branches RESTART IDENTITY CASCADE`
	if _, err := db.Exec(q); err != nil {
		t.Fatalf("ResetDB() failed: %v", err)
	}
}

func CreateBranch(t *testing.T, repo academics.Repository, city string) academics.Branch {
	branch, err := repo.CreateBranch(context.Background(), academics.Branch{CityName: city})
	if err != nil {
		t.Fatalf("CreateBranch() failed: %v", err)
	}
	return branch
}

func CreateCourse(t *testing.T, repo academics.Repository, name, description string) academics.Course {
	course, err := repo.CreateCourse(context.Background(), academics.Course{Name: name, Description: description})
	if err != nil {
		t.Fatalf("CreateCourse() failed: %v", err)
	}
	return course
}

func CreateBatch(t *testing.T, repo academics.Repository, branch academics.Branch, course academics.Course, name string, year int) academics.Batch {
	batch, err := repo.CreateBatch(context.Background(), academics.Batch{
		Name:     name,
		Year:     year,
		BranchID: branch.ID,
		CourseID: course.ID,
	})
	if err != nil {
		t.Fatalf("CreateBatch() failed: %v", err)
	}
	return batch
}

func CreateStudent(t *testing.T, repo academics.Repository, batch academics.Batch, admissionNo, fullName string, active bool) academics.Student {
	std, err := repo.CreateStudent(context.Background(), academics.Student{
		BranchID:    batch.BranchID,
		BatchID:     batch.ID,
		AdmissionNo: admissionNo,
		FullName:    fullName,
		Active:      active,
	})
	if err != nil {
		t.Fatalf("CreateStudent() failed: %v", err)
	}
	return std
}

func CreateExam(t *testing.T, repo exams.Repository, batch academics.Batch, title, date string, maxMarks int) exams.Exam {
	examDate, err := core.ParseDate(date)
	if err != nil {
		t.Fatalf("CreateExam() failed: %v", err)
	}
	exam, err := repo.CreateExam(context.Background(), exams.Exam{
		BatchID:  batch.ID,
		Title:    title,
		ExamDate: examDate,
		MaxMarks: maxMarks,
	})
	if err != nil {
		t.Fatalf("CreateExam() failed: %v", err)
	}
	return exam
}

// CreateAccount creates an account; pwd may be empty for accounts that never log in.
func CreateAccount(
	t *testing.T,
	repo account.Repository,
	uname, pwd string,
	role access.Role,
	branchID *int64,
	isActive bool,
) account.Account {
	now := time.Now().UTC()
	acc := account.Account{
		Username:  uname,
		IsActive:  isActive,
		Role:      role,
		BranchID:  branchID,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if pwd != "" {
		if err := acc.SetPassword(pwd); err != nil {
			t.Fatalf("CreateAccount() failed: %v", err)
		}
	}
	acc, err := repo.CreateAccount(context.Background(), acc)
	if err != nil {
		t.Fatalf("CreateAccount() failed: %v", err)
	}
	return acc
}

func UpsertAttendance(t *testing.T, repo attendance.Repository, batch academics.Batch, std academics.Student, date string, status attendance.Status, note string) {
	day, err := core.ParseDate(date)
	if err != nil {
		t.Fatalf("UpsertAttendance() failed: %v", err)
	}
	rec := attendance.Record{BatchID: batch.ID, StudentID: std.ID, Date: day, Status: status, Note: note}
	if err = repo.UpsertRecord(context.Background(), rec); err != nil {
		t.Fatalf("UpsertAttendance() failed: %v", err)
	}
}
