package echoapi

import (
	"encoding/json"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/kalvi/core"
	"github.com/trezcool/kalvi/core/exams"
)

const marksPlaces = 2

type examApi struct {
	svc     *exams.Service
	metrics *metrics
}

func registerExamAPI(g *echo.Group, svc *exams.Service, m *metrics) {
	api := examApi{svc: svc, metrics: m}

	eg := g.Group("/exams")
	eg.GET("/batch/:batch_id", api.listForBatch)
	eg.GET("/:exam_id/results", api.results)
	eg.POST("/:exam_id/results/submit", api.submit)
}

// Handlers

func (api *examApi) listForBatch(ctx echo.Context) error {
	scope, err := getContextScope(ctx)
	if err != nil {
		return err
	}
	batchID, err := pathID(ctx, "batch_id")
	if err != nil {
		return err
	}

	list, err := api.svc.ListForBatch(ctx.Request().Context(), scope, batchID)
	if err != nil {
		return errors.Wrap(err, "listing exams")
	}

	resp := make([]ExamResponse, 0, len(list))
	for _, exam := range list {
		resp = append(resp, newExamResponse(exam))
	}
	return ctx.JSON(http.StatusOK, resp)
}

func (api *examApi) results(ctx echo.Context) error {
	scope, err := getContextScope(ctx)
	if err != nil {
		return err
	}
	examID, err := pathID(ctx, "exam_id")
	if err != nil {
		return err
	}

	sheet, err := api.svc.Results(ctx.Request().Context(), scope, examID)
	if err != nil {
		return errors.Wrap(err, "getting exam results")
	}

	resp := ResultSheetResponse{
		Exam:     ExamDetailResponse{ExamResponse: newExamResponse(sheet.Exam), BatchID: sheet.Exam.BatchID},
		Students: make([]ResultRowResponse, 0, len(sheet.Rows)),
	}
	for _, row := range sheet.Rows {
		rr := ResultRowResponse{StudentID: row.StudentID, StudentName: row.StudentName, Remarks: row.Remarks}
		if row.Marks.Valid {
			marks := row.Marks.Decimal.StringFixed(marksPlaces)
			rr.Marks = &marks
		}
		resp.Students = append(resp.Students, rr)
	}
	return ctx.JSON(http.StatusOK, resp)
}

func (api *examApi) submit(ctx echo.Context) error {
	scope, err := getContextScope(ctx)
	if err != nil {
		return err
	}
	examID, err := pathID(ctx, "exam_id")
	if err != nil {
		return err
	}

	var data ResultsSubmitRequest
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to ResultsSubmitRequest")
	}

	out, err := api.svc.Submit(ctx.Request().Context(), scope, examID, data.Results)
	if err != nil {
		return errors.Wrap(err, "submitting exam results")
	}

	reasons := make([]string, 0, len(out.Skipped))
	for _, skip := range out.Skipped {
		reasons = append(reasons, skip.Reason)
	}
	api.metrics.observeSubmission(submissionResults, out.Saved, reasons)

	return ctx.JSON(http.StatusOK, SubmitResponse{Saved: out.Saved})
}

// Requests & Responses

type (
	ResultsSubmitRequest struct {
		Results json.RawMessage `json:"results"`
	}

	ExamResponse struct {
		ID       int64  `json:"id"`
		Title    string `json:"title"`
		ExamDate string `json:"exam_date"`
		MaxMarks int    `json:"max_marks"`
	}

	ExamDetailResponse struct {
		ExamResponse
		BatchID int64 `json:"batch_id"`
	}

	ResultRowResponse struct {
		StudentID   int64   `json:"student_id"`
		StudentName string  `json:"student_name"`
		Marks       *string `json:"marks"`
		Remarks     string  `json:"remarks"`
	}

	ResultSheetResponse struct {
		Exam     ExamDetailResponse  `json:"exam"`
		Students []ResultRowResponse `json:"students"`
	}
)

func newExamResponse(exam exams.Exam) ExamResponse {
	return ExamResponse{
		ID:       exam.ID,
		Title:    exam.Title,
		ExamDate: core.FormatDate(exam.ExamDate),
		MaxMarks: exam.MaxMarks,
	}
}
