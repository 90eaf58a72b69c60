package inmemdb

import (
	"context"
	"sort"

	"github.com/trezcool/kalvi/core"
	"github.com/trezcool/kalvi/core/academics"
	"github.com/trezcool/kalvi/core/access"
)

type academicsRepository struct {
	db *DB
}

var _ academics.Repository = (*academicsRepository)(nil) // interface compliance check

func NewAcademicsRepository(db *DB) *academicsRepository {
	return &academicsRepository{db: db}
}

// The resolve* helpers fill read-only joined fields; they must be called with a lock held.

func (repo *academicsRepository) resolveBatch(batch academics.Batch) academics.Batch {
	if branch, ok := repo.db.branches[batch.BranchID]; ok {
		batch.BranchCity = branch.CityName
	}
	if course, ok := repo.db.courses[batch.CourseID]; ok {
		batch.CourseName = course.Name
	}
	return batch
}

func (repo *academicsRepository) resolveStudent(std academics.Student) academics.Student {
	if b, ok := repo.db.batches[std.BatchID]; ok {
		batch := repo.resolveBatch(*b)
		std.BatchName = batch.Name
		std.BranchCity = batch.BranchCity
	}
	return std
}

func (repo *academicsRepository) CreateBranch(_ context.Context, branch academics.Branch) (academics.Branch, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	branch.ID = repo.db.nextPK("branches")
	repo.db.branches[branch.ID] = &branch
	return branch, nil
}

func (repo *academicsRepository) QueryBranches(_ context.Context) ([]academics.Branch, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	branches := make([]academics.Branch, 0, len(repo.db.branches))
	for _, branch := range repo.db.branches {
		branches = append(branches, *branch)
	}
	sort.Slice(branches, func(i, j int) bool {
		if branches[i].CityName != branches[j].CityName {
			return branches[i].CityName < branches[j].CityName
		}
		return branches[i].ID < branches[j].ID
	})
	return branches, nil
}

func (repo *academicsRepository) CreateCourse(_ context.Context, course academics.Course) (academics.Course, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	course.ID = repo.db.nextPK("courses")
	repo.db.courses[course.ID] = &course
	return course, nil
}

func (repo *academicsRepository) CreateBatch(_ context.Context, batch academics.Batch) (academics.Batch, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	if _, ok := repo.db.branches[batch.BranchID]; !ok {
		return academics.Batch{}, academics.ErrBranchNotFound
	}
	if _, ok := repo.db.courses[batch.CourseID]; !ok {
		return academics.Batch{}, academics.ErrCourseNotFound
	}

	batch.ID = repo.db.nextPK("batches")
	batch.BranchCity, batch.CourseName = "", ""
	repo.db.batches[batch.ID] = &batch
	return repo.resolveBatch(batch), nil
}

func (repo *academicsRepository) CreateStudent(_ context.Context, std academics.Student) (academics.Student, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	if _, ok := repo.db.branches[std.BranchID]; !ok {
		return academics.Student{}, academics.ErrBranchNotFound
	}
	if _, ok := repo.db.batches[std.BatchID]; !ok {
		return academics.Student{}, academics.ErrBatchNotFound
	}
	for _, other := range repo.db.students {
		if other.BranchID == std.BranchID && other.AdmissionNo == std.AdmissionNo {
			return academics.Student{}, academics.ErrAdmissionNoExists
		}
	}

	std.ID = repo.db.nextPK("students")
	std.BatchName, std.BranchCity = "", ""
	repo.db.students[std.ID] = &std
	return repo.resolveStudent(std), nil
}

func (repo *academicsRepository) GetBatch(_ context.Context, id int64) (academics.Batch, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	if batch, ok := repo.db.batches[id]; ok {
		return repo.resolveBatch(*batch), nil
	}
	return academics.Batch{}, academics.ErrBatchNotFound
}

func (repo *academicsRepository) QueryBatches(_ context.Context, scope access.Scope) ([]academics.Batch, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	batches := make([]academics.Batch, 0)
	for _, batch := range repo.db.batches {
		if scope.Permits(batch.BranchID) {
			batches = append(batches, repo.resolveBatch(*batch))
		}
	}
	sort.Slice(batches, func(i, j int) bool {
		bi, bj := batches[i], batches[j]
		if bi.Year != bj.Year {
			return bi.Year > bj.Year
		}
		if bi.Name != bj.Name {
			return bi.Name < bj.Name
		}
		return bi.ID < bj.ID
	})
	if len(batches) > core.MaxListSize {
		batches = batches[:core.MaxListSize]
	}
	return batches, nil
}

func (repo *academicsRepository) QueryCourses(_ context.Context, filter academics.CourseFilter, scope access.Scope) ([]academics.CourseSummary, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	counts := make(map[int64]int)
	for _, batch := range repo.db.batches {
		if scope.Permits(batch.BranchID) {
			counts[batch.CourseID]++
		}
	}

	courses := make([]academics.CourseSummary, 0)
	for _, course := range repo.db.courses {
		count := counts[course.ID]
		if !scope.IsUnrestricted() && count == 0 {
			continue
		}
		if filter.Search != "" && !containsFold(course.Name, filter.Search) && !containsFold(course.Description, filter.Search) {
			continue
		}
		courses = append(courses, academics.CourseSummary{Course: *course, BatchesCount: count})
	}
	sort.Slice(courses, func(i, j int) bool {
		if courses[i].Name != courses[j].Name {
			return courses[i].Name < courses[j].Name
		}
		return courses[i].ID < courses[j].ID
	})
	if len(courses) > core.MaxListSize {
		courses = courses[:core.MaxListSize]
	}
	return courses, nil
}

func (repo *academicsRepository) QueryStudents(_ context.Context, filter academics.StudentFilter) ([]academics.Student, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	students := make([]academics.Student, 0)
	for _, std := range repo.db.students {
		if filter.BatchID != 0 && std.BatchID != filter.BatchID {
			continue
		}
		if filter.ActiveOnly && !std.Active {
			continue
		}
		if filter.Search != "" && !containsFold(std.FullName, filter.Search) {
			continue
		}
		students = append(students, repo.resolveStudent(*std))
	}
	sort.Slice(students, func(i, j int) bool {
		if students[i].FullName != students[j].FullName {
			return students[i].FullName < students[j].FullName
		}
		return students[i].ID < students[j].ID
	})
	if filter.Limit > 0 && len(students) > filter.Limit {
		students = students[:filter.Limit]
	}
	return students, nil
}

func (repo *academicsRepository) BatchMemberIDs(_ context.Context, batchID int64) (map[int64]bool, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	members := make(map[int64]bool)
	for _, std := range repo.db.students {
		if std.BatchID == batchID {
			members[std.ID] = true
		}
	}
	return members, nil
}
