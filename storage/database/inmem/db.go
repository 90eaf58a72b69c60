// Package inmemdb implements the repositories in memory. Used by tests and local demos.
package inmemdb

import (
	"strings"
	"sync"
	"time"

	"github.com/trezcool/kalvi/core/academics"
	"github.com/trezcool/kalvi/core/account"
	"github.com/trezcool/kalvi/core/attendance"
	"github.com/trezcool/kalvi/core/exams"
)

type (
	attendanceKey struct {
		studentID int64
		date      time.Time
	}

	resultKey struct {
		examID    int64
		studentID int64
	}

	// DB holds every table behind a single lock, so that joins see a consistent state.
	DB struct {
		mutex sync.RWMutex
		pks   map[string]int64

		accounts   map[int64]*account.Account
		branches   map[int64]*academics.Branch
		courses    map[int64]*academics.Course
		batches    map[int64]*academics.Batch
		students   map[int64]*academics.Student
		attendance map[attendanceKey]*attendance.Record
		exams      map[int64]*exams.Exam
		results    map[resultKey]*exams.Result
	}
)

func Open() *DB {
	return &DB{
		pks:        make(map[string]int64),
		accounts:   make(map[int64]*account.Account),
		branches:   make(map[int64]*academics.Branch),
		courses:    make(map[int64]*academics.Course),
		batches:    make(map[int64]*academics.Batch),
		students:   make(map[int64]*academics.Student),
		attendance: make(map[attendanceKey]*attendance.Record),
		exams:      make(map[int64]*exams.Exam),
		results:    make(map[resultKey]*exams.Result),
	}
}

// Close is a no-op.
func (db *DB) Close() error {
	return nil
}

// nextPK must be called with the write lock held.
func (db *DB) nextPK(table string) int64 {
	db.pks[table]++
	return db.pks[table]
}

// containsFold reports whether substr is within s, case-insensitively.
func containsFold(s, substr string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}
