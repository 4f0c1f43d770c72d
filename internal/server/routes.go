package server

import (
	"danicandles/internal/config"
	"danicandles/internal/handler"
	"danicandles/internal/middleware"

	"github.com/labstack/echo/v4"
)

func RegisterRoutes(e *echo.Echo, cfg config.Config, d Deps) {
	auth := middleware.NewJWTAuth(cfg.AuthJWTSecret, cfg.AuthCookieName)

	handler.NewHealthHandler(d.DB).RegisterRoutes(e)
	e.GET("/metrics", echo.WrapHandler(d.Metrics.Handler()))

	handler.NewProductHandler(d.Products).RegisterRoutes(e)
	handler.NewOrderHandler(d.Orders).RegisterRoutes(e, auth)
	handler.NewCheckoutHandler(d.Checkout).RegisterRoutes(e, middleware.CheckoutRateLimiter(cfg.CheckoutRatePerMin, cfg.CheckoutRateBurst))
	handler.NewStripeWebhookHandler(d.Webhook, d.Metrics).RegisterRoutes(e)
	handler.NewMeHandler().RegisterRoutes(e, auth, d.Profiles)
	handler.NewAdminOrderHandler(d.AdminOrders).RegisterRoutes(e, auth, d.Profiles)
}
