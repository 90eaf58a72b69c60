package academics

import (
	"github.com/go-playground/validator/v10"

	"github.com/trezcool/kalvi/core"
)

type Branch struct {
	ID       int64  `json:"id"`
	CityName string `json:"city_name"`
	Address  string `json:"address"`
	Phone    string `json:"phone"`
}

type Course struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

// CourseSummary is a Course with the number of batches visible to the caller.
type CourseSummary struct {
	Course
	BatchesCount int `json:"batches_count"`
}

type Batch struct {
	ID         int64  `json:"id"`
	Name       string `json:"name"`
	Year       int    `json:"year"`
	BranchID   int64  `json:"branch_id"`
	BranchCity string `json:"branch_city"` // read-only
	CourseID   int64  `json:"course_id"`
	CourseName string `json:"course_name"` // read-only
}

type Student struct {
	ID             int64  `json:"id"`
	BranchID       int64  `json:"branch_id"`
	BatchID        int64  `json:"batch_id"`
	AdmissionNo    string `json:"admission_no"`
	FullName       string `json:"full_name"`
	VernacularName string `json:"vernacular_name"`
	GuardianName   string `json:"guardian_name"`
	GuardianPhone  string `json:"guardian_phone"`
	Active         bool   `json:"active"`

	// read-only, resolved through the current batch
	BatchName  string `json:"batch_name"`
	BranchCity string `json:"branch_city"`
}

type CourseFilter struct {
	Search string
}

type StudentFilter struct {
	BatchID    int64
	Search     string
	ActiveOnly bool
	Limit      int // 0: no limit
}

// NewBranch contains information needed to create a new Branch.
type NewBranch struct {
	CityName string `json:"city_name" validate:"required,max=100"`
	Address  string `json:"address"`
	Phone    string `json:"phone" validate:"max=30"`
}

func (nb *NewBranch) Validate(validate *validator.Validate) error {
	nb.CityName = core.CleanString(nb.CityName)
	nb.Address = core.CleanString(nb.Address)
	nb.Phone = core.CleanString(nb.Phone)
	return validate.Struct(nb)
}

type NewCourse struct {
	Name        string `json:"name" validate:"required,max=120"`
	Description string `json:"description"`
}

func (nc *NewCourse) Validate(validate *validator.Validate) error {
	nc.Name = core.CleanString(nc.Name)
	nc.Description = core.CleanString(nc.Description)
	return validate.Struct(nc)
}

type NewBatch struct {
	Name     string `json:"name" validate:"required,max=120"`
	Year     int    `json:"year" validate:"required,gte=1900,lte=9999"`
	BranchID int64  `json:"branch_id" validate:"required,gt=0"`
	CourseID int64  `json:"course_id" validate:"required,gt=0"`
}

func (nb *NewBatch) Validate(validate *validator.Validate) error {
	nb.Name = core.CleanString(nb.Name)
	return validate.Struct(nb)
}

// NewStudent contains information needed to enroll a Student in a Batch.
// BranchID defaults to the branch of the batch and must match it when set.
type NewStudent struct {
	BatchID        int64  `json:"batch_id" validate:"required,gt=0"`
	BranchID       int64  `json:"branch_id" validate:"omitempty,gt=0"`
	AdmissionNo    string `json:"admission_no" validate:"required,max=50"`
	FullName       string `json:"full_name" validate:"required,max=200"`
	VernacularName string `json:"vernacular_name" validate:"max=200"`
	GuardianName   string `json:"guardian_name" validate:"max=200"`
	GuardianPhone  string `json:"guardian_phone" validate:"max=30"`
}

func (ns *NewStudent) Validate(validate *validator.Validate) error {
	ns.AdmissionNo = core.CleanString(ns.AdmissionNo)
	ns.FullName = core.CleanString(ns.FullName)
	ns.VernacularName = core.CleanString(ns.VernacularName)
	ns.GuardianName = core.CleanString(ns.GuardianName)
	ns.GuardianPhone = core.CleanString(ns.GuardianPhone)
	return validate.Struct(ns)
}
