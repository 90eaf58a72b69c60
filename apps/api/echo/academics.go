package echoapi

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/kalvi/core"
	"github.com/trezcool/kalvi/core/academics"
)

var errBatchIDNotInt = errors.New("batch_id must be an integer")

type academicsApi struct {
	svc *academics.Service
}

func registerAcademicsAPI(g *echo.Group, svc *academics.Service) {
	api := academicsApi{svc: svc}

	g.GET("/courses", api.courses)
	g.GET("/batches", api.batches)
	g.GET("/students", api.students)
}

// Handlers

func (api *academicsApi) courses(ctx echo.Context) error {
	scope, err := getContextScope(ctx)
	if err != nil {
		return err
	}

	courses, err := api.svc.ListCourses(ctx.Request().Context(), scope, ctx.QueryParam("q"))
	if err != nil {
		return errors.Wrap(err, "listing courses")
	}

	resp := make([]CourseResponse, 0, len(courses))
	for _, c := range courses {
		resp = append(resp, CourseResponse{ID: c.ID, Name: c.Name, Active: true, BatchesCount: c.BatchesCount})
	}
	return ctx.JSON(http.StatusOK, resp)
}

func (api *academicsApi) batches(ctx echo.Context) error {
	scope, err := getContextScope(ctx)
	if err != nil {
		return err
	}

	batches, err := api.svc.ListBatches(ctx.Request().Context(), scope)
	if err != nil {
		return errors.Wrap(err, "listing batches")
	}
	return ctx.JSON(http.StatusOK, batches)
}

func (api *academicsApi) students(ctx echo.Context) error {
	scope, err := getContextScope(ctx)
	if err != nil {
		return err
	}

	var batchID int64
	if param := core.CleanString(ctx.QueryParam("batch_id")); param != "" {
		if batchID, err = strconv.ParseInt(param, 10, 64); err != nil || batchID <= 0 {
			return core.NewValidationError(
				errBatchIDNotInt,
				core.FieldError{Field: "batch_id", Error: errBatchIDNotInt.Error()},
			)
		}
	}

	students, err := api.svc.ListStudents(ctx.Request().Context(), scope, batchID, ctx.QueryParam("q"))
	if err != nil {
		return errors.Wrap(err, "listing students")
	}

	resp := make([]StudentResponse, 0, len(students))
	for _, s := range students {
		resp = append(resp, StudentResponse{
			ID:          s.ID,
			FullName:    s.FullName,
			AdmissionNo: s.AdmissionNo,
			BatchID:     s.BatchID,
			BatchName:   s.BatchName,
			BranchCity:  s.BranchCity,
			Active:      s.Active,
		})
	}
	return ctx.JSON(http.StatusOK, resp)
}

// pathID parses an integer path parameter; anything else matches no resource.
func pathID(ctx echo.Context, name string) (int64, error) {
	id, err := strconv.ParseInt(ctx.Param(name), 10, 64)
	if err != nil || id <= 0 {
		return 0, errHttpNotFound
	}
	return id, nil
}

// Responses

type (
	CourseResponse struct {
		ID           int64  `json:"id"`
		Name         string `json:"name"`
		Active       bool   `json:"active"`
		BatchesCount int    `json:"batches_count"`
	}

	StudentResponse struct {
		ID          int64  `json:"id"`
		FullName    string `json:"full_name"`
		AdmissionNo string `json:"admission_no"`
		BatchID     int64  `json:"batch_id"`
		BatchName   string `json:"batch_name"`
		BranchCity  string `json:"branch_city"`
		Active      bool   `json:"active"`
	}
)
