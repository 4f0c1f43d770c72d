package middleware

import (
	"net/http"

	"danicandles/internal/authz"

	"github.com/labstack/echo/v4"
)

// RequirePermission はLoadProfileの後に置く。
// 未認証は401、権限が無ければ403。

func RequirePermission(perm authz.Permission) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			prof, ok := ProfileFrom(c)
			if !ok {
				return c.JSON(http.StatusUnauthorized, errorJSON("unauthorized"))
			}

			if !authz.Can(prof.Role, perm) {
				return c.JSON(http.StatusForbidden, errorJSON("forbidden"))
			}

			return next(c)
		}
	}
}
