package usecase

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"danicandles/internal/domain/model"
	"danicandles/internal/logkey"
	repo "danicandles/internal/repository"
)

type CheckoutItemInput struct {
	Name       string `json:"name" validate:"required,max=200"`
	Quantity   int64  `json:"quantity" validate:"gte=1,lte=100"`
	PriceCents int64  `json:"priceCents" validate:"gte=0,lte=99999999"`
}

type CheckoutInput struct {
	OrderID      string              `json:"orderId" validate:"required,uuid"`
	Items        []CheckoutItemInput `json:"items" validate:"required,min=1,max=50,dive"`
	CurrencyCode string              `json:"currencyCode" validate:"required,len=3,alpha"`
}

type CheckoutOutput struct {
	URL string `json:"url"`
}

type CheckoutUsecase struct {
	orders    repo.OrderRepository
	gateway   PaymentGateway
	validator RequestValidator
	siteURL   string
}

func NewCheckoutUsecase(orders repo.OrderRepository, gateway PaymentGateway, validator RequestValidator, siteURL string) *CheckoutUsecase {
	return &CheckoutUsecase{
		orders:    orders,
		gateway:   gateway,
		validator: validator,
		siteURL:   strings.TrimRight(siteURL, "/"),
	}
}

// CreateSession は pending の注文に対して決済ページを作り、そのURLを返す。
// 決済側のセッション作成は冪等ではないのでリトライしない。
func (u *CheckoutUsecase) CreateSession(ctx context.Context, in CheckoutInput) (CheckoutOutput, error) {
	if err := u.validator.ValidateCheckout(in); err != nil {
		return CheckoutOutput{}, err
	}

	o, err := u.orders.FindByID(ctx, in.OrderID)
	if errors.Is(err, repo.ErrNotFound) {
		return CheckoutOutput{}, NewHTTPError(http.StatusNotFound, "order not found")
	}
	if err != nil {
		return CheckoutOutput{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	if o.Status != model.OrderStatusPending {
		return CheckoutOutput{}, NewHTTPError(http.StatusConflict, "order is not pending")
	}
	if !strings.EqualFold(o.CurrencyCode, in.CurrencyCode) {
		return CheckoutOutput{}, NewValidationError(FieldError{Field: "currencyCode", Message: "does not match the order currency"})
	}

	lines := make([]CheckoutLine, 0, len(in.Items)+2)
	var sum int64
	for _, it := range in.Items {
		var ok bool
		if sum, ok = model.AddCents(sum, model.LineTotal(it.PriceCents, it.Quantity)); !ok {
			return CheckoutOutput{}, NewValidationError(FieldError{Field: "items", Message: "total is too large"})
		}
		lines = append(lines, CheckoutLine{
			Name:            strings.TrimSpace(it.Name),
			UnitAmountCents: it.PriceCents,
			Quantity:        it.Quantity,
		})
	}
	if sum != o.SubtotalCents {
		return CheckoutOutput{}, NewValidationError(FieldError{Field: "items", Message: "must sum to the order subtotal"})
	}

	//送料・税は別の行にする
	if o.ShippingCents > 0 {
		lines = append(lines, CheckoutLine{Name: "Shipping", UnitAmountCents: o.ShippingCents, Quantity: 1})
	}
	if o.TaxCents > 0 {
		lines = append(lines, CheckoutLine{Name: "Tax", UnitAmountCents: o.TaxCents, Quantity: 1})
	}

	orderID := url.QueryEscape(o.ID)
	session, err := u.gateway.CreateCheckoutSession(ctx, CheckoutSessionParams{
		OrderID:       o.ID,
		CurrencyCode:  strings.ToLower(o.CurrencyCode),
		CustomerEmail: o.CustomerEmail,
		Lines:         lines,
		SuccessURL:    u.siteURL + "/order/confirmation?orderId=" + orderID + "&session_id={CHECKOUT_SESSION_ID}",
		CancelURL:     u.siteURL + "/checkout?orderId=" + orderID + "&canceled=1",
	})
	if err != nil {
		slog.ErrorContext(ctx, "checkout session creation failed",
			slog.String(logkey.OrderID, o.ID), slog.String(logkey.ERROR, err.Error()))
		return CheckoutOutput{}, NewHTTPError(http.StatusBadGateway, "unable to create checkout session")
	}

	// 失敗してもURLは返す
	if err := u.orders.SetCheckoutSession(ctx, o.ID, session.ID); err != nil {
		slog.WarnContext(ctx, "failed to store checkout session id",
			slog.String(logkey.OrderID, o.ID), slog.String(logkey.ERROR, err.Error()))
	}

	return CheckoutOutput{URL: session.URL}, nil
}
