package echoapi

import (
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"

	"github.com/coastwrpt/wrpt/core"
)

// required rejects requests without a valid token.
func (a *authenticator) required() echo.MiddlewareFunc {
	return middleware.JWTWithConfig(a.cfg)
}

// optional reads the token when there is one: anonymous requests go through.
func (a *authenticator) optional() echo.MiddlewareFunc {
	cfg := a.cfg
	cfg.Skipper = func(ctx echo.Context) bool {
		return ctx.Request().Header.Get(echo.HeaderAuthorization) == ""
	}
	return middleware.JWTWithConfig(cfg)
}

// staff lets staff members only through. Must come after required().
func (a *authenticator) staff() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			claims, err := getContextClaims(ctx)
			if err != nil {
				return errors.Wrap(err, "getting context claims")
			}
			if !claims.IsStaff {
				return core.ErrPermissionDenied
			}
			return next(ctx)
		}
	}
}
