package middleware

import (
	"context"
	"log/slog"

	"danicandles/internal/logkey"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
)

// RequestLogger はechoのリクエストログをslogで出す
func RequestLogger() echo.MiddlewareFunc {
	return echomw.RequestLoggerWithConfig(echomw.RequestLoggerConfig{
		LogStatus:    true,
		LogMethod:    true,
		LogURI:       true,
		LogRoutePath: true,
		LogLatency:   true,
		LogRemoteIP:  true,
		LogRequestID: true,
		LogError:     true,
		HandleError:  true,
		LogValuesFunc: func(c echo.Context, v echomw.RequestLoggerValues) error {
			attrs := []slog.Attr{
				slog.String(logkey.RequestID, v.RequestID),
				slog.String(logkey.Method, v.Method),
				slog.String(logkey.Path, v.URI),
				slog.String(logkey.Route, v.RoutePath),
				slog.Int(logkey.Status, v.Status),
				slog.Int64(logkey.LatencyMS, v.Latency.Milliseconds()),
				slog.String(logkey.RemoteIP, v.RemoteIP),
			}
			level := slog.LevelInfo
			if v.Error != nil {
				attrs = append(attrs, slog.String(logkey.ERROR, v.Error.Error()))
			}
			if v.Status >= 500 {
				level = slog.LevelError
			}
			slog.LogAttrs(context.Background(), level, "request", attrs...)
			return nil
		},
	})
}
