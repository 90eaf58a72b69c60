package sqlxrepos

import (
	"context"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/trezcool/kalvi/core"
	"github.com/trezcool/kalvi/core/academics"
	"github.com/trezcool/kalvi/core/access"
)

const (
	batchSelect = `
		SELECT b.id, b.name, b.year, b.branch_id, br.city_name AS branch_city, b.course_id, c.name AS course_name
		FROM batches b
		JOIN branches br ON br.id = b.branch_id
		JOIN courses c ON c.id = b.course_id`

	studentSelect = `
		SELECT s.id, s.branch_id, s.current_batch_id AS batch_id, s.admission_no, s.full_name, s.vernacular_name,
			s.guardian_name, s.guardian_phone, s.active, b.name AS batch_name, br.city_name AS branch_city
		FROM students s
		JOIN batches b ON b.id = s.current_batch_id
		JOIN branches br ON br.id = b.branch_id`
)

var (
	batchOrdering   = []core.DBOrdering{{Field: "b.year"}, {Field: "b.name", Ascending: true}, {Field: "b.id", Ascending: true}}
	courseOrdering  = []core.DBOrdering{{Field: "c.name", Ascending: true}, {Field: "c.id", Ascending: true}}
	studentOrdering = []core.DBOrdering{{Field: "s.full_name", Ascending: true}, {Field: "s.id", Ascending: true}}
)

type branchRow struct {
	ID       int64  `db:"id"`
	CityName string `db:"city_name"`
	Address  string `db:"address"`
	Phone    string `db:"phone"`
}

type courseRow struct {
	ID           int64  `db:"id"`
	Name         string `db:"name"`
	Description  string `db:"description"`
	BatchesCount int    `db:"batches_count"`
}

type batchRow struct {
	ID         int64  `db:"id"`
	Name       string `db:"name"`
	Year       int    `db:"year"`
	BranchID   int64  `db:"branch_id"`
	BranchCity string `db:"branch_city"`
	CourseID   int64  `db:"course_id"`
	CourseName string `db:"course_name"`
}

type studentRow struct {
	ID             int64  `db:"id"`
	BranchID       int64  `db:"branch_id"`
	BatchID        int64  `db:"batch_id"`
	AdmissionNo    string `db:"admission_no"`
	FullName       string `db:"full_name"`
	VernacularName string `db:"vernacular_name"`
	GuardianName   string `db:"guardian_name"`
	GuardianPhone  string `db:"guardian_phone"`
	Active         bool   `db:"active"`
	BatchName      string `db:"batch_name"`
	BranchCity     string `db:"branch_city"`
}

func (row batchRow) toBatch() academics.Batch {
	return academics.Batch(row)
}

func (row studentRow) toStudent() academics.Student {
	return academics.Student(row)
}

type academicsRepository struct {
	exec sqlx.ExtContext
}

var _ academics.Repository = (*academicsRepository)(nil) // interface compliance check

func NewAcademicsRepository(exec sqlx.ExtContext) *academicsRepository {
	return &academicsRepository{exec: exec}
}

func (repo academicsRepository) CreateBranch(ctx context.Context, branch academics.Branch) (academics.Branch, error) {
	q := `INSERT INTO branches (city_name, address, phone) VALUES ($1, $2, $3) RETURNING id`
	if err := repo.exec.QueryRowxContext(ctx, q, branch.CityName, branch.Address, branch.Phone).Scan(&branch.ID); err != nil {
		return academics.Branch{}, errors.Wrap(err, "inserting branch")
	}
	return branch, nil
}

func (repo academicsRepository) QueryBranches(ctx context.Context) ([]academics.Branch, error) {
	var rows []branchRow
	q := `SELECT id, city_name, address, phone FROM branches ORDER BY city_name, id`
	if err := sqlx.SelectContext(ctx, repo.exec, &rows, q); err != nil {
		return nil, errors.Wrap(err, "querying branches")
	}

	branches := make([]academics.Branch, 0, len(rows))
	for _, row := range rows {
		branches = append(branches, academics.Branch(row))
	}
	return branches, nil
}

func (repo academicsRepository) CreateCourse(ctx context.Context, course academics.Course) (academics.Course, error) {
	q := `INSERT INTO courses (name, description) VALUES ($1, $2) RETURNING id`
	if err := repo.exec.QueryRowxContext(ctx, q, course.Name, course.Description).Scan(&course.ID); err != nil {
		return academics.Course{}, errors.Wrap(err, "inserting course")
	}
	return course, nil
}

func (repo academicsRepository) CreateBatch(ctx context.Context, batch academics.Batch) (academics.Batch, error) {
	q := `INSERT INTO batches (branch_id, course_id, name, year) VALUES ($1, $2, $3, $4) RETURNING id`
	var id int64
	if err := repo.exec.QueryRowxContext(ctx, q, batch.BranchID, batch.CourseID, batch.Name, batch.Year).Scan(&id); err != nil {
		if constraint, ok := isViolation(err, pgForeignKeyViolation); ok {
			if strings.Contains(constraint, "branch") {
				return academics.Batch{}, academics.ErrBranchNotFound
			}
			return academics.Batch{}, academics.ErrCourseNotFound
		}
		return academics.Batch{}, errors.Wrap(err, "inserting batch")
	}
	return repo.GetBatch(ctx, id)
}

func (repo academicsRepository) CreateStudent(ctx context.Context, std academics.Student) (academics.Student, error) {
	q := `
		INSERT INTO students (branch_id, current_batch_id, admission_no, full_name, vernacular_name,
			guardian_name, guardian_phone, active)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id`

	var id int64
	err := repo.exec.QueryRowxContext(
		ctx, q,
		std.BranchID, std.BatchID, std.AdmissionNo, std.FullName, std.VernacularName,
		std.GuardianName, std.GuardianPhone, std.Active,
	).Scan(&id)
	if err != nil {
		if _, ok := isViolation(err, pgUniqueViolation); ok {
			return academics.Student{}, academics.ErrAdmissionNoExists
		}
		if constraint, ok := isViolation(err, pgForeignKeyViolation); ok {
			if strings.Contains(constraint, "branch") {
				return academics.Student{}, academics.ErrBranchNotFound
			}
			return academics.Student{}, academics.ErrBatchNotFound
		}
		return academics.Student{}, errors.Wrap(err, "inserting student")
	}

	var row studentRow
	if err = sqlx.GetContext(ctx, repo.exec, &row, studentSelect+` WHERE s.id = $1`, id); err != nil {
		return academics.Student{}, errors.Wrap(err, "getting student")
	}
	return row.toStudent(), nil
}

func (repo academicsRepository) GetBatch(ctx context.Context, id int64) (academics.Batch, error) {
	var row batchRow
	if err := sqlx.GetContext(ctx, repo.exec, &row, batchSelect+` WHERE b.id = $1`, id); err != nil {
		return academics.Batch{}, trapNoRowsErr(err, academics.ErrBatchNotFound, "getting batch")
	}
	return row.toBatch(), nil
}

func (repo academicsRepository) QueryBatches(ctx context.Context, scope access.Scope) ([]academics.Batch, error) {
	cond, args := scopeCondition(scope, "b.branch_id")
	q := batchSelect + ` WHERE ` + cond + orderBy(batchOrdering...) + ` LIMIT ?`
	args = append(args, core.MaxListSize)

	var rows []batchRow
	if err := sqlx.SelectContext(ctx, repo.exec, &rows, repo.exec.Rebind(q), args...); err != nil {
		return nil, errors.Wrap(err, "querying batches")
	}

	batches := make([]academics.Batch, 0, len(rows))
	for _, row := range rows {
		batches = append(batches, row.toBatch())
	}
	return batches, nil
}

// QueryCourses counts distinct batches per course. A restricted scope only joins (and counts) the batches of
// its branch, which also drops the courses that have none.
func (repo academicsRepository) QueryCourses(ctx context.Context, filter academics.CourseFilter, scope access.Scope) ([]academics.CourseSummary, error) {
	var (
		join = `LEFT JOIN batches b ON b.course_id = c.id`
		args []interface{}
	)
	if !scope.IsUnrestricted() {
		cond, condArgs := scopeCondition(scope, "b.branch_id")
		join = `JOIN batches b ON b.course_id = c.id AND ` + cond
		args = append(args, condArgs...)
	}

	q := `SELECT c.id, c.name, c.description, COUNT(DISTINCT b.id) AS batches_count FROM courses c ` + join
	if filter.Search != "" {
		pattern := likePattern(filter.Search)
		q += ` WHERE (c.name ILIKE ? OR c.description ILIKE ?)`
		args = append(args, pattern, pattern)
	}
	q += ` GROUP BY c.id` + orderBy(courseOrdering...) + ` LIMIT ?`
	args = append(args, core.MaxListSize)

	var rows []courseRow
	if err := sqlx.SelectContext(ctx, repo.exec, &rows, repo.exec.Rebind(q), args...); err != nil {
		return nil, errors.Wrap(err, "querying courses")
	}

	courses := make([]academics.CourseSummary, 0, len(rows))
	for _, row := range rows {
		courses = append(courses, academics.CourseSummary{
			Course:       academics.Course{ID: row.ID, Name: row.Name, Description: row.Description},
			BatchesCount: row.BatchesCount,
		})
	}
	return courses, nil
}

func (repo academicsRepository) QueryStudents(ctx context.Context, filter academics.StudentFilter) ([]academics.Student, error) {
	var (
		conds = []string{"TRUE"}
		args  []interface{}
	)
	if filter.BatchID != 0 {
		conds = append(conds, "s.current_batch_id = ?")
		args = append(args, filter.BatchID)
	}
	if filter.ActiveOnly {
		conds = append(conds, "s.active")
	}
	if filter.Search != "" {
		conds = append(conds, "s.full_name ILIKE ?")
		args = append(args, likePattern(filter.Search))
	}
	q := studentSelect + ` WHERE ` + strings.Join(conds, " AND ") + orderBy(studentOrdering...)
	if filter.Limit > 0 {
		q += ` LIMIT ?`
		args = append(args, filter.Limit)
	}

	var rows []studentRow
	if err := sqlx.SelectContext(ctx, repo.exec, &rows, repo.exec.Rebind(q), args...); err != nil {
		return nil, errors.Wrap(err, "querying students")
	}

	students := make([]academics.Student, 0, len(rows))
	for _, row := range rows {
		students = append(students, row.toStudent())
	}
	return students, nil
}

func (repo academicsRepository) BatchMemberIDs(ctx context.Context, batchID int64) (map[int64]bool, error) {
	var ids []int64
	if err := sqlx.SelectContext(ctx, repo.exec, &ids, `SELECT id FROM students WHERE current_batch_id = $1`, batchID); err != nil {
		return nil, errors.Wrap(err, "querying batch members")
	}

	members := make(map[int64]bool, len(ids))
	for _, id := range ids {
		members[id] = true
	}
	return members, nil
}
