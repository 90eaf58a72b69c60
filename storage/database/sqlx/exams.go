package sqlxrepos

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"

	"github.com/trezcool/kalvi/core"
	"github.com/trezcool/kalvi/core/academics"
	"github.com/trezcool/kalvi/core/exams"
)

const examSelect = `
	SELECT e.id, e.batch_id, b.branch_id, e.title, e.exam_date, e.max_marks
	FROM exams e
	JOIN batches b ON b.id = e.batch_id`

type examRow struct {
	ID       int64     `db:"id"`
	BatchID  int64     `db:"batch_id"`
	BranchID int64     `db:"branch_id"`
	Title    string    `db:"title"`
	ExamDate time.Time `db:"exam_date"`
	MaxMarks int       `db:"max_marks"`
}

func (row examRow) toExam() exams.Exam {
	return exams.Exam{
		ID:       row.ID,
		BatchID:  row.BatchID,
		BranchID: row.BranchID,
		Title:    row.Title,
		ExamDate: row.ExamDate.UTC(),
		MaxMarks: row.MaxMarks,
	}
}

type resultRow struct {
	ID        int64           `db:"id"`
	ExamID    int64           `db:"exam_id"`
	StudentID int64           `db:"student_id"`
	Marks     decimal.Decimal `db:"marks"`
	Remarks   string          `db:"remarks"`
}

type examRepository struct {
	exec sqlx.ExtContext
}

var _ exams.Repository = (*examRepository)(nil) // interface compliance check

func NewExamRepository(exec sqlx.ExtContext) *examRepository {
	return &examRepository{exec: exec}
}

func (repo examRepository) GetExam(ctx context.Context, id int64) (exams.Exam, error) {
	var row examRow
	if err := sqlx.GetContext(ctx, repo.exec, &row, examSelect+` WHERE e.id = $1`, id); err != nil {
		return exams.Exam{}, trapNoRowsErr(err, exams.ErrExamNotFound, "getting exam")
	}
	return row.toExam(), nil
}

func (repo examRepository) QueryExams(ctx context.Context, batchID int64) ([]exams.Exam, error) {
	var rows []examRow
	q := examSelect + ` WHERE e.batch_id = $1` + orderBy(
		core.DBOrdering{Field: "e.exam_date"},
		core.DBOrdering{Field: "e.id"},
	)
	if err := sqlx.SelectContext(ctx, repo.exec, &rows, q, batchID); err != nil {
		return nil, errors.Wrap(err, "querying exams")
	}

	list := make([]exams.Exam, 0, len(rows))
	for _, row := range rows {
		list = append(list, row.toExam())
	}
	return list, nil
}

func (repo examRepository) CreateExam(ctx context.Context, exam exams.Exam) (exams.Exam, error) {
	q := `INSERT INTO exams (batch_id, title, exam_date, max_marks) VALUES ($1, $2, $3, $4) RETURNING id`
	var id int64
	err := repo.exec.QueryRowxContext(ctx, q, exam.BatchID, exam.Title, core.FormatDate(exam.ExamDate), exam.MaxMarks).Scan(&id)
	if err != nil {
		if _, ok := isViolation(err, pgForeignKeyViolation); ok {
			return exams.Exam{}, academics.ErrBatchNotFound
		}
		return exams.Exam{}, errors.Wrap(err, "inserting exam")
	}
	return repo.GetExam(ctx, id)
}

func (repo examRepository) QueryResults(ctx context.Context, examID int64) ([]exams.Result, error) {
	var rows []resultRow
	q := `SELECT id, exam_id, student_id, marks, remarks FROM exam_results WHERE exam_id = $1`
	if err := sqlx.SelectContext(ctx, repo.exec, &rows, q, examID); err != nil {
		return nil, errors.Wrap(err, "querying exam results")
	}

	results := make([]exams.Result, 0, len(rows))
	for _, row := range rows {
		results = append(results, exams.Result(row))
	}
	return results, nil
}

func (repo examRepository) UpsertResult(ctx context.Context, res exams.Result) error {
	q := `
		INSERT INTO exam_results (exam_id, student_id, marks, remarks)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (exam_id, student_id) DO UPDATE
		SET marks = EXCLUDED.marks, remarks = EXCLUDED.remarks`

	_, err := repo.exec.ExecContext(ctx, q, res.ExamID, res.StudentID, res.Marks, res.Remarks)
	return errors.Wrap(err, "upserting exam result")
}
