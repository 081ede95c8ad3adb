package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"

	"github.com/coastwrpt/wrpt/core/count"
)

type countApi struct {
	auth *authenticator
	svc  *count.Service
}

func registerCountAPI(g *echo.Group, auth *authenticator, svc *count.Service) {
	api := countApi{auth: auth, svc: svc}

	g.POST("/classrooms/:id/counts", api.submit, auth.required())

	cg := g.Group("/counts", auth.required(), auth.staff())
	cg.GET("/dump", api.dump, middleware.Gzip())
	cg.PUT("/:id", api.correct)
	cg.DELETE("/:id", api.destroy)
}

// Handlers

func (api *countApi) submit(ctx echo.Context) error {
	usr, err := api.auth.contextUser(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	var data count.Submission
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to Submission")
	}

	res, err := api.svc.Submit(ctx.Request().Context(), usr, ctx.Param("id"), data)
	if err != nil {
		return errors.Wrap(err, "submitting count")
	}
	return ctx.JSON(resultStatus(res), res)
}

func (api *countApi) correct(ctx echo.Context) error {
	usr, err := api.auth.contextUser(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	var data count.Correction
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to Correction")
	}

	res, err := api.svc.Correct(ctx.Request().Context(), usr, ctx.Param("id"), data)
	if err != nil {
		return errors.Wrap(err, "correcting count")
	}
	return ctx.JSON(http.StatusOK, res)
}

func (api *countApi) destroy(ctx echo.Context) error {
	usr, err := api.auth.contextUser(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	if _, err = api.svc.Delete(ctx.Request().Context(), usr, ctx.Param("id")); err != nil {
		return errors.Wrap(err, "deleting count")
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *countApi) dump(ctx echo.Context) error {
	usr, err := api.auth.contextUser(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	resp := ctx.Response()
	resp.Header().Set(echo.HeaderContentType, "text/csv; charset=utf-8")
	resp.Header().Set(echo.HeaderContentDisposition, `attachment; filename="counts.csv"`)
	resp.WriteHeader(http.StatusOK)

	if _, err = api.svc.Dump(ctx.Request().Context(), usr, resp); err != nil {
		return errors.Wrap(err, "dumping counts")
	}
	return nil
}

func resultStatus(res count.Result) int {
	if res.Action == count.Created {
		return http.StatusCreated
	}
	return http.StatusOK
}
