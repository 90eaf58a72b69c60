package exams

import (
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"github.com/trezcool/kalvi/core"
)

const (
	DefaultMaxMarks = 100
	marksPlaces     = 2
)

// marks are stored as NUMERIC(6,2)
var marksLimit = decimal.New(1, 4)

type Exam struct {
	ID       int64
	BatchID  int64
	BranchID int64 // read-only, branch of the batch
	Title    string
	ExamDate time.Time // UTC midnight
	MaxMarks int
}

type Result struct {
	ID        int64
	ExamID    int64
	StudentID int64
	Marks     decimal.Decimal
	Remarks   string
}

type ResultRow struct {
	StudentID   int64
	StudentName string
	Marks       decimal.NullDecimal
	Remarks     string
}

// ResultSheet is an exam and the results of the active students of its batch.
type ResultSheet struct {
	Exam Exam
	Rows []ResultRow
}

// Entry is one submitted result.
type Entry struct {
	StudentID int64               `json:"student_id" validate:"required"`
	Marks     decimal.NullDecimal `json:"marks" validate:"-"`
	Remarks   string              `json:"remarks" validate:"max=255"`
}

// NewExam contains information needed to schedule an Exam for a Batch.
type NewExam struct {
	BatchID  int64  `json:"batch_id" validate:"required,gt=0"`
	Title    string `json:"title" validate:"required,max=200"`
	ExamDate string `json:"exam_date" validate:"required,date"`
	MaxMarks int    `json:"max_marks" validate:"omitempty,gt=0"`
}

func (ne *NewExam) Validate(validate *validator.Validate) error {
	ne.Title = core.CleanString(ne.Title)
	ne.ExamDate = core.CleanString(ne.ExamDate)
	if ne.MaxMarks == 0 {
		ne.MaxMarks = DefaultMaxMarks
	}
	return validate.Struct(ne)
}

// Skip reasons
const (
	SkipMalformed  = "malformed"
	SkipNoMarks    = "no_marks"
	SkipInvalid    = "invalid"
	SkipNotInBatch = "not_in_batch"
)

type Skip struct {
	Index     int
	StudentID int64
	Reason    string
}

// Outcome is the result of a submission: how many results were saved and why the others were not.
type Outcome struct {
	Saved   int
	Skipped []Skip
}

func (o *Outcome) skip(idx int, studentID int64, reason string) {
	o.Skipped = append(o.Skipped, Skip{Index: idx, StudentID: studentID, Reason: reason})
}
