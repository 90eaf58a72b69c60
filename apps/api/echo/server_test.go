package echoapi

import (
	"net/http"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"

	"github.com/trezcool/kalvi/core"
)

func TestServer_Health(t *testing.T) {
	s := newSchool(t)

	s.run(t, []httpTest{
		{
			name:     "health",
			path:     "/health",
			wantData: []byte(`{"status": "ok"}`),
		},
		{
			name:     "unknown route",
			path:     "/nowhere",
			wantCode: http.StatusNotFound,
			wantData: marchallObj(t, httpErr{Error: "Not Found"}),
		},
	})
}

func TestServer_Metrics(t *testing.T) {
	s := newSchool(t)

	req, rec := newRequest(http.MethodGet, "/health")
	s.srv.ServeHTTP(rec, req)
	req, rec = newRequest(http.MethodGet, "/api/me")
	s.srv.ServeHTTP(rec, req)

	req, rec = newRequest(http.MethodGet, "/metrics")
	s.srv.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)

	body := rec.Body.String()
	assert.True(t, containsLine(body, `kalvi_http_requests_total{method="GET",path="/health",status="200"} 1`), body)
	assert.True(t, containsLine(body, `kalvi_http_requests_total{method="GET",path="/api/me",status="401"} 1`), body)
}

func TestServer_ShutdownOnShutdownError(t *testing.T) {
	s := newSchool(t)

	s.srv.app.GET("/boom", func(ctx echo.Context) error {
		return errors.Wrap(core.NewShutdownError("integrity issue"), "serving boom")
	})
	req, rec := newRequest(http.MethodGet, "/boom")
	s.srv.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"error": "Internal Server Error"}`, rec.Body.String())
	select {
	case <-s.srv.ShutdownSignal():
	default:
		t.Error("shutdown was not signaled")
	}
}
