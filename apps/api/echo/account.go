package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/kalvi/core"
	"github.com/trezcool/kalvi/core/access"
)

type accountApi struct {
	auth     *authenticator
	validate *validator.Validate
}

func registerAccountAPI(g *echo.Group, authed *echo.Group, auth *authenticator, validate *validator.Validate) {
	api := accountApi{auth: auth, validate: validate}

	// un-authed endpoints
	g.POST("/auth/login", api.login)

	// authed endpoints
	authed.POST("/auth/token-refresh", api.refreshToken)
	authed.GET("/me", api.me)
}

// Handlers

func (api *accountApi) login(ctx echo.Context) error {
	var data LoginRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to LoginRequest")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	token, err := api.auth.authenticate(ctx, data.Username, data.Password)
	if err != nil {
		return errors.Wrap(err, "authenticating")
	}
	return ctx.JSON(http.StatusOK, TokenResponse{Token: token})
}

func (api *accountApi) refreshToken(ctx echo.Context) error {
	token, err := api.auth.refreshToken(ctx)
	if err != nil {
		return errors.Wrap(err, "refreshing token")
	}
	return ctx.JSON(http.StatusOK, TokenResponse{Token: token})
}

func (api *accountApi) me(ctx echo.Context) error {
	id, err := getContextIdentity(ctx)
	if err != nil {
		return err
	}

	resp := MeResponse{Username: id.Username, Role: id.Role, BranchID: id.BranchID}
	if id.BranchID != nil {
		resp.BranchCity = &id.BranchCity
	}
	return ctx.JSON(http.StatusOK, resp)
}

// Requests & Responses

type (
	LoginRequest struct {
		Username string `json:"username" validate:"required"`
		Password string `json:"password" validate:"required"`
	}

	TokenResponse struct {
		Token string `json:"token"`
	}

	MeResponse struct {
		Username   string      `json:"username"`
		Role       access.Role `json:"role"`
		BranchID   *int64      `json:"branch_id"`
		BranchCity *string     `json:"branch_city"`
	}
)

func (lr *LoginRequest) Validate(validate *validator.Validate) error {
	lr.Username = core.CleanString(lr.Username, true /* lower */)
	return validate.Struct(lr)
}
