package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"danicandles/internal/config"
	"danicandles/internal/handler"
	"danicandles/internal/metrics"
	"danicandles/internal/middleware"
	"danicandles/internal/usecase"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
)

// HTTP層が使うもの一式
type Deps struct {
	DB          handler.Pinger
	Metrics     *metrics.Metrics
	Products    *usecase.ProductUsecase
	Orders      *usecase.OrderUsecase
	Checkout    *usecase.CheckoutUsecase
	Webhook     *usecase.PaymentWebhookUsecase
	AdminOrders *usecase.AdminOrderUsecase
	Profiles    *usecase.ProfileUsecase
}

func New(cfg config.Config, d Deps) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	//レート制限のキーになるのでX-Forwarded-Forは既定では信用しない
	if cfg.TrustProxy {
		e.IPExtractor = echo.ExtractIPFromXFFHeader()
	} else {
		e.IPExtractor = echo.ExtractIPDirect()
	}

	e.Use(echomw.Recover())
	e.Use(echomw.RequestID())
	e.Use(middleware.RequestLogger())
	e.Use(middleware.Metrics(d.Metrics))

	RegisterRoutes(e, cfg, d)
	return e
}

// Start はctxがキャンセルされたらgracefulに止める
func Start(ctx context.Context, e *echo.Echo, addr string) error {
	errCh := make(chan error, 1)
	go func() {
		slog.Info("http server listening", slog.String("addr", addr))
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	slog.Info("http server shutting down")
	return e.Shutdown(shutdownCtx)
}
