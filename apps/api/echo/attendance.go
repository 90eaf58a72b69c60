package echoapi

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/kalvi/core"
	"github.com/trezcool/kalvi/core/attendance"
)

var errInvalidDate = errors.New("date must be in YYYY-MM-DD format")

type attendanceApi struct {
	svc     *attendance.Service
	metrics *metrics
}

func registerAttendanceAPI(g *echo.Group, svc *attendance.Service, m *metrics) {
	api := attendanceApi{svc: svc, metrics: m}

	ag := g.Group("/attendance/batch/:batch_id/date/:date")
	ag.GET("", api.roster)
	ag.POST("/submit", api.submit)
}

// Handlers

func (api *attendanceApi) roster(ctx echo.Context) error {
	scope, err := getContextScope(ctx)
	if err != nil {
		return err
	}
	batchID, err := pathID(ctx, "batch_id")
	if err != nil {
		return err
	}
	date, err := pathDate(ctx)
	if err != nil {
		return err
	}

	roster, err := api.svc.Roster(ctx.Request().Context(), scope, batchID, date)
	if err != nil {
		return errors.Wrap(err, "getting attendance roster")
	}

	return ctx.JSON(http.StatusOK, RosterResponse{
		BatchID:       roster.BatchID,
		Date:          core.FormatDate(roster.Date),
		Students:      roster.Rows,
		StatusChoices: attendance.StatusChoices,
	})
}

func (api *attendanceApi) submit(ctx echo.Context) error {
	scope, err := getContextScope(ctx)
	if err != nil {
		return err
	}
	batchID, err := pathID(ctx, "batch_id")
	if err != nil {
		return err
	}
	date, err := pathDate(ctx)
	if err != nil {
		return err
	}

	var data AttendanceSubmitRequest
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to AttendanceSubmitRequest")
	}

	out, err := api.svc.Submit(ctx.Request().Context(), scope, batchID, date, data.Records)
	if err != nil {
		return errors.Wrap(err, "submitting attendance")
	}

	reasons := make([]string, 0, len(out.Skipped))
	for _, skip := range out.Skipped {
		reasons = append(reasons, skip.Reason)
	}
	api.metrics.observeSubmission(submissionAttendance, out.Saved, reasons)

	return ctx.JSON(http.StatusOK, SubmitResponse{Saved: out.Saved})
}

func pathDate(ctx echo.Context) (date time.Time, err error) {
	date, err = core.ParseDate(ctx.Param("date"))
	if err != nil {
		return date, core.NewValidationError(errInvalidDate, core.FieldError{Field: "date", Error: errInvalidDate.Error()})
	}
	return date, nil
}

// Requests & Responses

type (
	AttendanceSubmitRequest struct {
		Records json.RawMessage `json:"records"`
	}

	RosterResponse struct {
		BatchID       int64                     `json:"batch_id"`
		Date          string                    `json:"date"`
		Students      []attendance.RosterRow    `json:"students"`
		StatusChoices []attendance.StatusChoice `json:"status_choices"`
	}

	SubmitResponse struct {
		Saved int `json:"saved"`
	}
)
