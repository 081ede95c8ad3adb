package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/coastwrpt/wrpt/core"
	"github.com/coastwrpt/wrpt/core/user"
)

type userApi struct {
	auth     *authenticator
	svc      *user.Service
	validate *validator.Validate
}

func registerUserAPI(g *echo.Group, auth *authenticator, svc *user.Service, validate *validator.Validate) {
	api := userApi{
		auth:     auth,
		svc:      svc,
		validate: validate,
	}

	ug := g.Group("/users")

	// un-authed endpoints
	ug.POST("/login", api.login)

	// authed endpoints
	ag := ug.Group("", auth.required())
	ag.POST("/token-refresh", api.refreshToken)
	ag.POST("/password", api.changePassword)
}

// Handlers

func (api *userApi) login(ctx echo.Context) error {
	var data LoginRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to LoginRequest")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	token, err := api.auth.authenticate(ctx.Request().Context(), data.Username, data.Password)
	if err != nil {
		return errors.Wrap(err, "authenticating")
	}
	return ctx.JSON(http.StatusOK, TokenResponse{Token: token})
}

func (api *userApi) refreshToken(ctx echo.Context) error {
	token, err := api.auth.refresh(ctx)
	if err != nil {
		return errors.Wrap(err, "refreshing token")
	}
	return ctx.JSON(http.StatusOK, TokenResponse{Token: token})
}

func (api *userApi) changePassword(ctx echo.Context) error {
	usr, err := api.auth.contextUser(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	var data user.ChangePassword
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to ChangePassword")
	}

	if _, err = api.svc.ChangePassword(ctx.Request().Context(), usr, data); err != nil {
		return errors.Wrap(err, "changing password")
	}
	return ctx.JSON(http.StatusOK, SuccessResponse{Success: "Your password was changed."})
}

func (lr *LoginRequest) Validate(validate *validator.Validate) error {
	lr.Username = core.CleanString(lr.Username, true /* lower */)
	return validate.Struct(lr)
}
