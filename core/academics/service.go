package academics

import (
	"context"
	"errors"

	"github.com/trezcool/kalvi/core"
	"github.com/trezcool/kalvi/core/access"
)

var (
	// errors
	ErrBranchNotFound    = core.NewNotFoundError("branch")
	ErrCourseNotFound    = core.NewNotFoundError("course")
	ErrBatchNotFound     = core.NewNotFoundError("batch")
	ErrAdmissionNoExists = errors.New("a student with this admission number already exists in the branch")
	ErrBranchMismatch    = errors.New("branch must be the branch of the batch")
	errBatchIDRequired   = errors.New("batch_id is required")
)

type (
	Repository interface {
		CreateBranch(ctx context.Context, branch Branch) (Branch, error)
		QueryBranches(ctx context.Context) ([]Branch, error)
		CreateCourse(ctx context.Context, course Course) (Course, error)
		CreateBatch(ctx context.Context, batch Batch) (Batch, error)
		CreateStudent(ctx context.Context, student Student) (Student, error)

		GetBatch(ctx context.Context, id int64) (Batch, error)
		QueryBatches(ctx context.Context, scope access.Scope) ([]Batch, error)
		QueryCourses(ctx context.Context, filter CourseFilter, scope access.Scope) ([]CourseSummary, error)
		QueryStudents(ctx context.Context, filter StudentFilter) ([]Student, error)
		// BatchMemberIDs returns the set of students currently assigned to the batch, active or not.
		BatchMemberIDs(ctx context.Context, batchID int64) (map[int64]bool, error)
	}

	Service struct {
		repo Repository
	}
)

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// AuthorizeBatch loads the batch and checks that it belongs to a branch permitted by scope.
func (svc *Service) AuthorizeBatch(ctx context.Context, scope access.Scope, batchID int64) (Batch, error) {
	batch, err := svc.repo.GetBatch(ctx, batchID)
	if err != nil {
		return Batch{}, err
	}
	if err = scope.Authorize(batch.BranchID); err != nil {
		return Batch{}, err
	}
	return batch, nil
}

func (svc *Service) ListCourses(ctx context.Context, scope access.Scope, search string) ([]CourseSummary, error) {
	if scope.DeniesAll() {
		return []CourseSummary{}, nil
	}
	return svc.repo.QueryCourses(ctx, CourseFilter{Search: core.CleanString(search)}, scope)
}

func (svc *Service) ListBatches(ctx context.Context, scope access.Scope) ([]Batch, error) {
	if scope.DeniesAll() {
		return []Batch{}, nil
	}
	return svc.repo.QueryBatches(ctx, scope)
}

// ListStudents returns the active students of a batch the caller owns.
func (svc *Service) ListStudents(ctx context.Context, scope access.Scope, batchID int64, search string) ([]Student, error) {
	if batchID == 0 {
		return nil, core.NewValidationError(
			errBatchIDRequired,
			core.FieldError{Field: "batch_id", Error: errBatchIDRequired.Error()},
		)
	}
	if _, err := svc.AuthorizeBatch(ctx, scope, batchID); err != nil {
		return nil, err
	}
	return svc.repo.QueryStudents(ctx, StudentFilter{
		BatchID:    batchID,
		Search:     core.CleanString(search),
		ActiveOnly: true,
		Limit:      core.MaxListSize,
	})
}

// ActiveRoster returns the active students of a batch sorted by full name. No ownership check is done.
func (svc *Service) ActiveRoster(ctx context.Context, batchID int64) ([]Student, error) {
	return svc.repo.QueryStudents(ctx, StudentFilter{BatchID: batchID, ActiveOnly: true})
}

func (svc *Service) MemberIDs(ctx context.Context, batchID int64) (map[int64]bool, error) {
	return svc.repo.BatchMemberIDs(ctx, batchID)
}

func (svc *Service) GetBatch(ctx context.Context, id int64) (Batch, error) {
	return svc.repo.GetBatch(ctx, id)
}

// QueryStudents lists students without any scope nor limit on activity.
func (svc *Service) QueryStudents(ctx context.Context, filter StudentFilter) ([]Student, error) {
	return svc.repo.QueryStudents(ctx, filter)
}

func (svc *Service) QueryBranches(ctx context.Context) ([]Branch, error) {
	return svc.repo.QueryBranches(ctx)
}

func (svc *Service) CreateBranch(ctx context.Context, nb NewBranch) (Branch, error) {
	return svc.repo.CreateBranch(ctx, Branch{
		CityName: nb.CityName,
		Address:  nb.Address,
		Phone:    nb.Phone,
	})
}

func (svc *Service) CreateCourse(ctx context.Context, nc NewCourse) (Course, error) {
	return svc.repo.CreateCourse(ctx, Course{Name: nc.Name, Description: nc.Description})
}

func (svc *Service) CreateBatch(ctx context.Context, nb NewBatch) (Batch, error) {
	return svc.repo.CreateBatch(ctx, Batch{
		Name:     nb.Name,
		Year:     nb.Year,
		BranchID: nb.BranchID,
		CourseID: nb.CourseID,
	})
}

func (svc *Service) CreateStudent(ctx context.Context, ns NewStudent) (Student, error) {
	batch, err := svc.repo.GetBatch(ctx, ns.BatchID)
	if err != nil {
		return Student{}, err
	}
	if ns.BranchID != 0 && ns.BranchID != batch.BranchID {
		return Student{}, core.NewValidationError(
			ErrBranchMismatch,
			core.FieldError{Field: "branch_id", Error: ErrBranchMismatch.Error()},
		)
	}
	std, err := svc.repo.CreateStudent(ctx, Student{
		BranchID:       batch.BranchID,
		BatchID:        batch.ID,
		AdmissionNo:    ns.AdmissionNo,
		FullName:       ns.FullName,
		VernacularName: ns.VernacularName,
		GuardianName:   ns.GuardianName,
		GuardianPhone:  ns.GuardianPhone,
		Active:         true,
	})
	if err == ErrAdmissionNoExists {
		return Student{}, core.NewValidationError(err, core.FieldError{Field: "admission_no", Error: err.Error()})
	}
	return std, err
}
