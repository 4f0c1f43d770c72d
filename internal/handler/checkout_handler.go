package handler

import (
	"net/http"

	"danicandles/internal/usecase"

	"github.com/labstack/echo/v4"
)

type CheckoutHandler struct {
	uc *usecase.CheckoutUsecase
}

func NewCheckoutHandler(uc *usecase.CheckoutUsecase) *CheckoutHandler {
	return &CheckoutHandler{uc: uc}
}

// limiter はIP単位のレート制限（checkoutだけにかける）
func (h *CheckoutHandler) RegisterRoutes(e *echo.Echo, limiter echo.MiddlewareFunc) {
	e.POST("/api/checkout", h.create, limiter)
}

func (h *CheckoutHandler) create(c echo.Context) error {
	var req usecase.CheckoutInput
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}

	out, err := h.uc.CreateSession(c.Request().Context(), req)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}
