package echoapi

import (
	"github.com/labstack/echo/v4"

	"github.com/coastwrpt/wrpt/core/stats"
)

var categoryParam = "category"

// bindCategory reads the ranking category from the query string. Defaults to stats.Combined.
func bindCategory(ctx echo.Context) (stats.Category, error) {
	return stats.ParseCategory(ctx.QueryParam(categoryParam))
}

type (
	LoginRequest struct {
		Username string `json:"username" validate:"required"`
		Password string `json:"password" validate:"required"`
	}

	TokenResponse struct {
		Token string `json:"token"`
	}

	SuccessResponse struct {
		Success string `json:"success"`
	}

	// ProgramResponse is the program page: the statistics, or where to go instead.
	ProgramResponse struct {
		*stats.ProgramStats
		// RedirectClassroomID is set for single "entire school" programs,
		// which are shown with the classroom view.
		RedirectClassroomID string `json:"redirect_classroom_id,omitempty"`
	}

	ClassroomResponse struct {
		stats.ClassroomView
		CanSubmit bool `json:"can_submit"`
	}
)
