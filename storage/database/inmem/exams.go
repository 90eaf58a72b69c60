package inmemdb

import (
	"context"
	"sort"

	"github.com/trezcool/kalvi/core/academics"
	"github.com/trezcool/kalvi/core/exams"
)

type examRepository struct {
	db *DB
}

var _ exams.Repository = (*examRepository)(nil) // interface compliance check

func NewExamRepository(db *DB) *examRepository {
	return &examRepository{db: db}
}

// resolve fills the branch of the exam's batch; must be called with a lock held.
func (repo *examRepository) resolve(exam exams.Exam) exams.Exam {
	if batch, ok := repo.db.batches[exam.BatchID]; ok {
		exam.BranchID = batch.BranchID
	}
	return exam
}

func (repo *examRepository) GetExam(_ context.Context, id int64) (exams.Exam, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	if exam, ok := repo.db.exams[id]; ok {
		return repo.resolve(*exam), nil
	}
	return exams.Exam{}, exams.ErrExamNotFound
}

func (repo *examRepository) QueryExams(_ context.Context, batchID int64) ([]exams.Exam, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	list := make([]exams.Exam, 0)
	for _, exam := range repo.db.exams {
		if exam.BatchID == batchID {
			list = append(list, repo.resolve(*exam))
		}
	}
	sort.Slice(list, func(i, j int) bool {
		if !list[i].ExamDate.Equal(list[j].ExamDate) {
			return list[i].ExamDate.After(list[j].ExamDate)
		}
		return list[i].ID > list[j].ID
	})
	return list, nil
}

func (repo *examRepository) CreateExam(_ context.Context, exam exams.Exam) (exams.Exam, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	if _, ok := repo.db.batches[exam.BatchID]; !ok {
		return exams.Exam{}, academics.ErrBatchNotFound
	}
	exam.ID = repo.db.nextPK("exams")
	repo.db.exams[exam.ID] = &exam
	return repo.resolve(exam), nil
}

func (repo *examRepository) QueryResults(_ context.Context, examID int64) ([]exams.Result, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	results := make([]exams.Result, 0)
	for key, res := range repo.db.results {
		if key.examID == examID {
			results = append(results, *res)
		}
	}
	return results, nil
}

func (repo *examRepository) UpsertResult(_ context.Context, res exams.Result) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	key := resultKey{examID: res.ExamID, studentID: res.StudentID}
	if existing, ok := repo.db.results[key]; ok {
		existing.Marks = res.Marks
		existing.Remarks = res.Remarks
		return nil
	}

	res.ID = repo.db.nextPK("exam_results")
	repo.db.results[key] = &res
	return nil
}
