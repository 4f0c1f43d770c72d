package handler

import (
	"log/slog"
	"net/http"
	"strconv"

	"danicandles/internal/logkey"
	"danicandles/internal/middleware"
	"danicandles/internal/usecase"

	"github.com/labstack/echo/v4"
)

type ErrorResponse struct {
	Error  string               `json:"error"`
	Fields []usecase.FieldError `json:"fields,omitempty"`
}

type SuccessResponse struct {
	Message string `json:"message"`
}

// usecaseのエラーをJSONにする。HTTPError以外は中身を出さずに500。
func writeError(c echo.Context, err error) error {
	if err == nil {
		return nil
	}
	if he, ok := usecase.AsHTTPError(err); ok {
		return c.JSON(he.Status, ErrorResponse{Error: he.Message, Fields: he.Fields})
	}

	//500
	slog.ErrorContext(c.Request().Context(), "unhandled error",
		slog.String(logkey.Path, c.Path()),
		slog.String(logkey.ERROR, err.Error()),
	)
	return c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal error"})
}

func getPrincipal(c echo.Context) (usecase.Principal, bool) {
	return middleware.PrincipalFrom(c)
}

// クエリの整数。無ければdef、数値でなければ ok=false
func queryInt(c echo.Context, name string, def int) (int, bool) {
	v := c.QueryParam(name)
	if v == "" {
		return def, true
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, false
	}
	return n, true
}
