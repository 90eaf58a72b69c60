package sqlxrepos

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/trezcool/kalvi/core"
	"github.com/trezcool/kalvi/core/attendance"
)

type attendanceRow struct {
	ID        int64     `db:"id"`
	BatchID   int64     `db:"batch_id"`
	StudentID int64     `db:"student_id"`
	Date      time.Time `db:"date"`
	Status    string    `db:"status"`
	Note      string    `db:"note"`
}

type attendanceRepository struct {
	exec sqlx.ExtContext
}

var _ attendance.Repository = (*attendanceRepository)(nil) // interface compliance check

func NewAttendanceRepository(exec sqlx.ExtContext) *attendanceRepository {
	return &attendanceRepository{exec: exec}
}

func (repo attendanceRepository) QueryRecords(ctx context.Context, batchID int64, date time.Time) ([]attendance.Record, error) {
	q := `
		SELECT id, batch_id, student_id, date, status, note
		FROM attendance
		WHERE batch_id = $1 AND date = $2`

	var rows []attendanceRow
	if err := sqlx.SelectContext(ctx, repo.exec, &rows, q, batchID, core.FormatDate(date)); err != nil {
		return nil, errors.Wrap(err, "querying attendance")
	}

	records := make([]attendance.Record, 0, len(rows))
	for _, row := range rows {
		records = append(records, attendance.Record{
			ID:        row.ID,
			BatchID:   row.BatchID,
			StudentID: row.StudentID,
			Date:      row.Date.UTC(),
			Status:    attendance.Status(row.Status),
			Note:      row.Note,
		})
	}
	return records, nil
}

func (repo attendanceRepository) UpsertRecord(ctx context.Context, rec attendance.Record) error {
	q := `
		INSERT INTO attendance (batch_id, student_id, date, status, note)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (student_id, date) DO UPDATE
		SET batch_id = EXCLUDED.batch_id, status = EXCLUDED.status, note = EXCLUDED.note`

	_, err := repo.exec.ExecContext(
		ctx, q,
		rec.BatchID, rec.StudentID, core.FormatDate(rec.Date), string(rec.Status), rec.Note,
	)
	return errors.Wrap(err, "upserting attendance")
}
