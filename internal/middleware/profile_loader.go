package middleware

import (
	"context"
	"log/slog"
	"net/http"

	"danicandles/internal/domain/model"
	"danicandles/internal/logkey"
	"danicandles/internal/usecase"

	"github.com/labstack/echo/v4"
)

type ProfileResolver interface {
	Resolve(ctx context.Context, p usecase.Principal) (model.Profile, error)
}

// LoadProfile はprincipalに対応するprofileをDBから読み込む。
// roleは毎リクエストDBから取るので、変更は再ログイン無しで効く。
func LoadProfile(resolver ProfileResolver) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			p, ok := PrincipalFrom(c)
			if !ok {
				return c.JSON(http.StatusUnauthorized, errorJSON("unauthorized"))
			}

			ctx := c.Request().Context()
			prof, err := resolver.Resolve(ctx, p)
			if err != nil {
				slog.ErrorContext(ctx, "resolve profile failed",
					slog.String(logkey.UserID, p.UserID),
					slog.String(logkey.ERROR, err.Error()),
				)
				return c.JSON(http.StatusInternalServerError, errorJSON("internal error"))
			}

			c.Set(CtxProfileKey, prof)
			return next(c)
		}
	}
}

func ProfileFrom(c echo.Context) (model.Profile, bool) {
	prof, ok := c.Get(CtxProfileKey).(model.Profile)
	return prof, ok
}
