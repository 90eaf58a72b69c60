package exams

import (
	"context"
	"encoding/json"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"

	"github.com/trezcool/kalvi/core"
	"github.com/trezcool/kalvi/core/academics"
	"github.com/trezcool/kalvi/core/access"
)

var (
	// errors
	ErrExamNotFound = core.NewNotFoundError("exam")
)

type (
	Repository interface {
		// GetExam returns the exam with the branch of its batch.
		GetExam(ctx context.Context, id int64) (Exam, error)
		// QueryExams returns the exams of a batch, newest first.
		QueryExams(ctx context.Context, batchID int64) ([]Exam, error)
		CreateExam(ctx context.Context, exam Exam) (Exam, error)
		QueryResults(ctx context.Context, examID int64) ([]Result, error)
		// UpsertResult creates or overwrites the (exam, student) result.
		UpsertResult(ctx context.Context, res Result) error
	}

	// Batches is the part of academics.Service exams depend on.
	Batches interface {
		GetBatch(ctx context.Context, id int64) (academics.Batch, error)
		AuthorizeBatch(ctx context.Context, scope access.Scope, batchID int64) (academics.Batch, error)
		ActiveRoster(ctx context.Context, batchID int64) ([]academics.Student, error)
		MemberIDs(ctx context.Context, batchID int64) (map[int64]bool, error)
	}

	Service struct {
		repo     Repository
		batches  Batches
		validate *validator.Validate
	}
)

var _ Batches = (*academics.Service)(nil)

func NewService(repo Repository, batches Batches, validate *validator.Validate) *Service {
	return &Service{repo: repo, batches: batches, validate: validate}
}

func (svc *Service) ListForBatch(ctx context.Context, scope access.Scope, batchID int64) ([]Exam, error) {
	batch, err := svc.batches.AuthorizeBatch(ctx, scope, batchID)
	if err != nil {
		return nil, err
	}
	return svc.repo.QueryExams(ctx, batch.ID)
}

// AuthorizeExam loads the exam and checks that its batch belongs to a branch permitted by scope.
func (svc *Service) AuthorizeExam(ctx context.Context, scope access.Scope, examID int64) (Exam, error) {
	exam, err := svc.repo.GetExam(ctx, examID)
	if err != nil {
		return Exam{}, err
	}
	if err = scope.Authorize(exam.BranchID); err != nil {
		return Exam{}, err
	}
	return exam, nil
}

// Results returns the exam with the stored results of the active students of its batch.
func (svc *Service) Results(ctx context.Context, scope access.Scope, examID int64) (ResultSheet, error) {
	exam, err := svc.AuthorizeExam(ctx, scope, examID)
	if err != nil {
		return ResultSheet{}, err
	}

	students, err := svc.batches.ActiveRoster(ctx, exam.BatchID)
	if err != nil {
		return ResultSheet{}, errors.Wrap(err, "querying roster")
	}
	results, err := svc.repo.QueryResults(ctx, exam.ID)
	if err != nil {
		return ResultSheet{}, errors.Wrap(err, "querying results")
	}
	existing := make(map[int64]Result, len(results))
	for _, res := range results {
		existing[res.StudentID] = res
	}

	sheet := ResultSheet{Exam: exam, Rows: make([]ResultRow, len(students))}
	for i, std := range students {
		row := ResultRow{StudentID: std.ID, StudentName: std.FullName}
		if res, ok := existing[std.ID]; ok {
			row.Marks = decimal.NullDecimal{Decimal: res.Marks, Valid: true}
			row.Remarks = res.Remarks
		}
		sheet.Rows[i] = row
	}
	return sheet, nil
}

// Submit upserts the valid results for the given exam.
// Invalid results are skipped; a storage error aborts the submission, earlier results stay written.
func (svc *Service) Submit(ctx context.Context, scope access.Scope, examID int64, results json.RawMessage) (Outcome, error) {
	exam, err := svc.AuthorizeExam(ctx, scope, examID)
	if err != nil {
		return Outcome{}, err
	}

	items, err := core.DecodeList(results, "results")
	if err != nil {
		return Outcome{}, err
	}

	members, err := svc.batches.MemberIDs(ctx, exam.BatchID)
	if err != nil {
		return Outcome{}, errors.Wrap(err, "querying batch members")
	}

	var out Outcome
	for idx, item := range items {
		var entry Entry
		if err := json.Unmarshal(item, &entry); err != nil {
			out.skip(idx, 0, SkipMalformed)
			continue
		}
		if !entry.Marks.Valid {
			out.skip(idx, entry.StudentID, SkipNoMarks)
			continue
		}
		marks := entry.Marks.Decimal.Round(marksPlaces)
		if marks.Abs().GreaterThanOrEqual(marksLimit) {
			out.skip(idx, entry.StudentID, SkipInvalid)
			continue
		}
		if err := svc.validate.Struct(entry); err != nil {
			out.skip(idx, entry.StudentID, SkipInvalid)
			continue
		}
		if !members[entry.StudentID] {
			out.skip(idx, entry.StudentID, SkipNotInBatch)
			continue
		}

		res := Result{
			ExamID:    exam.ID,
			StudentID: entry.StudentID,
			Marks:     marks,
			Remarks:   entry.Remarks,
		}
		if err := svc.repo.UpsertResult(ctx, res); err != nil {
			return out, errors.Wrapf(err, "upserting result of student %d", entry.StudentID)
		}
		out.Saved++
	}
	return out, nil
}

func (svc *Service) CreateExam(ctx context.Context, ne NewExam) (Exam, error) {
	batch, err := svc.batches.GetBatch(ctx, ne.BatchID)
	if err != nil {
		return Exam{}, err
	}
	date, err := core.ParseDate(ne.ExamDate)
	if err != nil {
		return Exam{}, errors.Wrap(err, "parsing exam date")
	}
	return svc.repo.CreateExam(ctx, Exam{
		BatchID:  batch.ID,
		BranchID: batch.BranchID,
		Title:    ne.Title,
		ExamDate: date,
		MaxMarks: ne.MaxMarks,
	})
}
