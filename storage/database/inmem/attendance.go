package inmemdb

import (
	"context"
	"sort"
	"time"

	"github.com/trezcool/kalvi/core/attendance"
)

type attendanceRepository struct {
	db *DB
}

var _ attendance.Repository = (*attendanceRepository)(nil) // interface compliance check

func NewAttendanceRepository(db *DB) *attendanceRepository {
	return &attendanceRepository{db: db}
}

func dayKey(studentID int64, date time.Time) attendanceKey {
	y, m, d := date.Date()
	return attendanceKey{studentID: studentID, date: time.Date(y, m, d, 0, 0, 0, 0, time.UTC)}
}

func (repo *attendanceRepository) QueryRecords(_ context.Context, batchID int64, date time.Time) ([]attendance.Record, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	day := dayKey(0, date).date
	records := make([]attendance.Record, 0)
	for _, rec := range repo.db.attendance {
		if rec.BatchID == batchID && rec.Date.Equal(day) {
			records = append(records, *rec)
		}
	}
	sort.Slice(records, func(i, j int) bool { return records[i].ID < records[j].ID })
	return records, nil
}

func (repo *attendanceRepository) UpsertRecord(_ context.Context, rec attendance.Record) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	key := dayKey(rec.StudentID, rec.Date)
	if existing, ok := repo.db.attendance[key]; ok {
		existing.BatchID = rec.BatchID
		existing.Status = rec.Status
		existing.Note = rec.Note
		return nil
	}

	rec.ID = repo.db.nextPK("attendance")
	rec.Date = key.date
	repo.db.attendance[key] = &rec
	return nil
}
