package handler

import (
	"errors"
	"io"
	"log/slog"
	"net/http"

	"danicandles/internal/logkey"
	"danicandles/internal/metrics"
	"danicandles/internal/usecase"

	"github.com/labstack/echo/v4"
)

// Stripeの推奨上限
const maxWebhookBodyBytes = int64(65536)

type StripeWebhookHandler struct {
	uc      *usecase.PaymentWebhookUsecase
	metrics *metrics.Metrics
}

func NewStripeWebhookHandler(uc *usecase.PaymentWebhookUsecase, m *metrics.Metrics) *StripeWebhookHandler {
	return &StripeWebhookHandler{uc: uc, metrics: m}
}

type webhookResponse struct {
	Received  bool `json:"received"`
	Duplicate bool `json:"duplicate,omitempty"`
	Skipped   bool `json:"skipped,omitempty"`
	Ignored   bool `json:"ignored,omitempty"`
}

func (h *StripeWebhookHandler) RegisterRoutes(e *echo.Echo) {
	e.POST("/api/stripe/webhook", h.handle)
}

func (h *StripeWebhookHandler) handle(c echo.Context) error {
	ctx := c.Request().Context()

	//署名検証には生のbodyが要るのでBindしない
	body, err := io.ReadAll(http.MaxBytesReader(c.Response(), c.Request().Body, maxWebhookBodyBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return c.JSON(http.StatusRequestEntityTooLarge, ErrorResponse{Error: "payload too large"})
		}
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}

	res, err := h.uc.Handle(ctx, body, c.Request().Header.Get("Stripe-Signature"))
	if err != nil {
		result := res.Outcome
		if result == "" {
			result = "error"
		}
		h.metrics.ObserveWebhook(res.EventType, result)
		return writeError(c, err)
	}

	h.metrics.ObserveWebhook(res.EventType, res.Outcome)
	slog.InfoContext(ctx, "webhook handled",
		slog.String(logkey.EventID, res.EventID),
		slog.String(logkey.EventType, res.EventType),
		slog.String(logkey.OrderID, res.OrderID),
		slog.String("outcome", res.Outcome),
	)

	resp := webhookResponse{Received: true}
	switch res.Outcome {
	case usecase.WebhookOutcomeDuplicate:
		resp.Duplicate = true
	case usecase.WebhookOutcomeSkipped:
		resp.Skipped = true
	case usecase.WebhookOutcomeIgnored:
		resp.Ignored = true
	}
	return c.JSON(http.StatusOK, resp)
}
