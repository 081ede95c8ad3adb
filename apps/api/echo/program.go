package echoapi

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/coastwrpt/wrpt/core/program"
	"github.com/coastwrpt/wrpt/core/stats"
)

type programApi struct {
	auth     *authenticator
	svc      *program.Service
	statsSvc *stats.Service
	today    func() time.Time
}

func registerProgramAPI(g *echo.Group, auth *authenticator, svc *program.Service, statsSvc *stats.Service, today func() time.Time) {
	api := programApi{
		auth:     auth,
		svc:      svc,
		statsSvc: statsSvc,
		today:    today,
	}

	g.GET("/programs", api.list)
	g.GET("/programs/:id", api.retrieve)
	g.GET("/classrooms/:id", api.classroom, auth.optional())
}

// Handlers

func (api *programApi) list(ctx echo.Context) error {
	listing, err := api.svc.ListPrograms(ctx.Request().Context(), api.today())
	if err != nil {
		return errors.Wrap(err, "listing programs")
	}
	return ctx.JSON(http.StatusOK, listing)
}

func (api *programApi) retrieve(ctx echo.Context) error {
	category, err := bindCategory(ctx)
	if err != nil {
		return err
	}

	ps, err := api.statsSvc.Program(ctx.Request().Context(), ctx.Param("id"), category, api.today())
	if err != nil {
		return errors.Wrap(err, "aggregating program")
	}

	resp := ProgramResponse{ProgramStats: &ps}
	if len(ps.Classrooms) == 1 && ps.Classrooms[0].Classroom.IsEntireSchool() {
		resp.RedirectClassroomID = ps.Classrooms[0].Classroom.ID
	}
	return ctx.JSON(http.StatusOK, resp)
}

func (api *programApi) classroom(ctx echo.Context) error {
	usr, err := api.auth.contextUser(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	view, err := api.statsSvc.Classroom(ctx.Request().Context(), ctx.Param("id"), api.today())
	if err != nil {
		return errors.Wrap(err, "aggregating classroom")
	}

	return ctx.JSON(http.StatusOK, ClassroomResponse{
		ClassroomView: view,
		CanSubmit:     usr.CanSubmit(view.Program.SchoolID),
	})
}
