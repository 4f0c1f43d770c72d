package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"danicandles/internal/domain/cart"
	"danicandles/internal/domain/model"
	"danicandles/internal/logkey"
	repo "danicandles/internal/repository"

	"github.com/google/uuid"
)

// usecaseがValidatorInterfaceに依存する約束
type RequestValidator interface {
	ValidateCreateOrder(in CreateOrderInput) error
	ValidateCheckout(in CheckoutInput) error
	ValidateStatusUpdate(in UpdateOrderStatusInput) error
}

type OrderUsecase struct {
	tx        repo.TransactionManager
	validator RequestValidator
	ids       IDGenerator
	clock     Clock
}

func NewOrderUsecase(tx repo.TransactionManager, validator RequestValidator, ids IDGenerator, clock Clock) *OrderUsecase {
	return &OrderUsecase{tx: tx, validator: validator, ids: ids, clock: clock}
}

type ShippingAddressInput struct {
	Name       string `json:"name" validate:"required,max=200"`
	Line1      string `json:"line1" validate:"required,max=200"`
	Line2      string `json:"line2" validate:"max=200"`
	City       string `json:"city" validate:"required,max=100"`
	State      string `json:"state" validate:"required,max=100"`
	PostalCode string `json:"postalCode" validate:"required,max=20"`
	Country    string `json:"country" validate:"required,max=100"`
	Phone      string `json:"phone" validate:"max=40"`
}

type CreateOrderItemInput struct {
	ProductID  string  `json:"productId" validate:"required,uuid"`
	Name       string  `json:"name" validate:"max=200"`
	PriceCents int64   `json:"priceCents" validate:"gte=0,lte=99999999"`
	Quantity   int64   `json:"quantity" validate:"gte=1,lte=100"`
	Fragrance  *string `json:"fragrance" validate:"omitempty,max=100"`
}

type CreateOrderInput struct {
	ShippingAddress ShippingAddressInput   `json:"shippingAddress" validate:"required"`
	Items           []CreateOrderItemInput `json:"items" validate:"required,min=1,max=50,dive"`
	SubtotalCents   int64                  `json:"subtotalCents" validate:"gte=0,lte=99999999"`
	ShippingCents   int64                  `json:"shippingCents" validate:"gte=0,lte=99999999"`
	TaxCents        int64                  `json:"taxCents" validate:"gte=0,lte=99999999"`
	TotalCents      int64                  `json:"totalCents" validate:"gte=0,lte=99999999"`
	CurrencyCode    string                 `json:"currencyCode" validate:"required,len=3,alpha"`
}

type CreateOrderOutput struct {
	OrderID string `json:"orderId"`
}

// 注文＋明細
type OrderOutput struct {
	model.Order
	Items []model.OrderItem `json:"items"`
}

type OrderListOutput struct {
	Items []OrderOutput `json:"items"`
	Total int64         `json:"total"`
	Page  int           `json:"page"`
	Limit int           `json:"limit"`
}

func (u *OrderUsecase) CreateOrder(ctx context.Context, p Principal, in CreateOrderInput) (CreateOrderOutput, error) {
	if p.UserID == "" {
		return CreateOrderOutput{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if err := u.validator.ValidateCreateOrder(in); err != nil {
		return CreateOrderOutput{}, err
	}
	currency := strings.ToUpper(in.CurrencyCode)

	var orderID string

	//ヘッダと明細は同じトランザクション（明細が失敗したらヘッダも残らない）
	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		products, err := r.Products().FindByIDs(ctx, uniqueProductIDs(in.Items))
		if err != nil {
			return fmt.Errorf("load products: %w", err)
		}

		//価格・合計はカタログで再検証する
		lines, err := repriceItems(in, currency, products)
		if err != nil {
			return err
		}

		now := u.clock.Now()
		userID := p.UserID
		orderID = u.ids.NewID()
		if _, err := r.Orders().Create(ctx, model.Order{
			ID:              orderID,
			UserID:          &userID,
			CustomerEmail:   p.Email,
			ShippingAddress: toShippingAddress(in.ShippingAddress),
			SubtotalCents:   in.SubtotalCents,
			ShippingCents:   in.ShippingCents,
			TaxCents:        in.TaxCents,
			TotalCents:      in.TotalCents,
			CurrencyCode:    currency,
			Status:          model.OrderStatusPending,
			PaymentStatus:   model.PaymentStatusPending,
			CreatedAt:       now,
			UpdatedAt:       now,
		}); err != nil {
			return fmt.Errorf("insert order: %w", err)
		}

		for i := range lines {
			lines[i].CreatedAt = now
		}
		if err := r.OrderItems().CreateBulk(ctx, orderID, lines); err != nil {
			return fmt.Errorf("insert order items: %w", err)
		}
		return nil
	})
	if err != nil {
		if _, ok := AsHTTPError(err); ok {
			return CreateOrderOutput{}, err
		}
		slog.ErrorContext(ctx, "failed to create order",
			slog.String(logkey.UserID, p.UserID), slog.String(logkey.ERROR, err.Error()))
		return CreateOrderOutput{}, NewHTTPError(http.StatusInternalServerError, "failed to create order")
	}

	slog.InfoContext(ctx, "order created",
		slog.String(logkey.OrderID, orderID), slog.String(logkey.UserID, p.UserID))
	return CreateOrderOutput{OrderID: orderID}, nil
}

// repriceItems は送られてきた明細をカタログと突き合わせ、保存する明細を作る。
func repriceItems(in CreateOrderInput, currency string, products []model.Product) ([]model.OrderItem, error) {
	byID := make(map[string]model.Product, len(products))
	for _, pr := range products {
		byID[pr.ID] = pr
	}

	var fields []FieldError
	cartItems := make([]cart.Item, 0, len(in.Items))
	lines := make([]model.OrderItem, 0, len(in.Items))

	for i, it := range in.Items {
		pr, ok := byID[it.ProductID]
		switch {
		case !ok || !pr.IsActive:
			fields = append(fields, FieldError{Field: fmt.Sprintf("items[%d].productId", i), Message: "product is not available"})
			continue
		case !strings.EqualFold(pr.CurrencyCode, currency):
			fields = append(fields, FieldError{Field: fmt.Sprintf("items[%d].productId", i), Message: "product currency does not match " + currency})
			continue
		case pr.PriceCents != it.PriceCents:
			fields = append(fields, FieldError{Field: fmt.Sprintf("items[%d].priceCents", i), Message: fmt.Sprintf("does not match catalog price %d", pr.PriceCents)})
			continue
		}

		fragrance := ""
		if it.Fragrance != nil {
			fragrance = strings.TrimSpace(*it.Fragrance)
		}
		cartItems = append(cartItems, cart.Item{
			ProductID:      pr.ID,
			Name:           pr.Name,
			Slug:           pr.Slug,
			ImageURL:       pr.ImageURL,
			UnitPriceCents: pr.PriceCents,
			CurrencyCode:   currency,
			Quantity:       it.Quantity,
			Fragrance:      fragrance,
		})

		line := model.OrderItem{
			ProductID:      pr.ID,
			ProductName:    pr.Name,
			UnitPriceCents: pr.PriceCents,
			Quantity:       it.Quantity,
			TotalCents:     model.LineTotal(pr.PriceCents, it.Quantity),
		}
		if fragrance != "" {
			f := fragrance
			line.Fragrance = &f
		}
		lines = append(lines, line)
	}
	if len(fields) > 0 {
		return nil, NewValidationError(fields...)
	}

	c, err := cart.FromItems(cartItems)
	if err != nil {
		return nil, NewValidationError(FieldError{Field: "items", Message: err.Error()})
	}

	if c.SubtotalCents() != in.SubtotalCents {
		fields = append(fields, FieldError{Field: "subtotalCents", Message: fmt.Sprintf("must equal the sum of line totals (%d)", c.SubtotalCents())})
	}
	totals := model.Order{SubtotalCents: in.SubtotalCents, ShippingCents: in.ShippingCents, TaxCents: in.TaxCents, TotalCents: in.TotalCents}
	switch {
	case !totals.TotalsConsistent():
		fields = append(fields, FieldError{Field: "totalCents", Message: "must equal subtotalCents + shippingCents + taxCents"})
	case in.TotalCents > model.MaxAmountCents:
		fields = append(fields, FieldError{Field: "totalCents", Message: fmt.Sprintf("must be <= %d", model.MaxAmountCents)})
	}
	if len(fields) > 0 {
		return nil, NewValidationError(fields...)
	}
	return lines, nil
}

// GetOrder は注文IDを知っている人なら誰でも読める（IDが推測不能なトークンの扱い）。
func (u *OrderUsecase) GetOrder(ctx context.Context, orderID string) (OrderOutput, error) {
	if _, err := uuid.Parse(orderID); err != nil {
		return OrderOutput{}, NewHTTPError(http.StatusNotFound, "not found")
	}

	var out OrderOutput

	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		o, err := r.Orders().FindByID(ctx, orderID)
		if errors.Is(err, repo.ErrNotFound) {
			return NewHTTPError(http.StatusNotFound, "not found")
		}
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}

		items, err := r.OrderItems().ListByOrderID(ctx, orderID)
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}

		out = toOrderOutput(o, items)
		return nil
	})

	if err != nil {
		return OrderOutput{}, err
	}
	return out, nil
}

func (u *OrderUsecase) ListMyOrders(ctx context.Context, p Principal, page int, limit int) (OrderListOutput, error) {
	if p.UserID == "" {
		return OrderListOutput{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if page < 1 {
		return OrderListOutput{}, NewHTTPError(http.StatusBadRequest, "invalid page")
	}
	if limit < 1 || limit > 100 {
		return OrderListOutput{}, NewHTTPError(http.StatusBadRequest, "invalid limit")
	}

	out := OrderListOutput{Items: []OrderOutput{}, Page: page, Limit: limit}

	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		orders, total, err := r.Orders().ListByUserID(ctx, p.UserID, page, limit)
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}
		out.Total = total

		for _, o := range orders {
			items, err := r.OrderItems().ListByOrderID(ctx, o.ID)
			if err != nil {
				return NewHTTPError(http.StatusInternalServerError, "db error")
			}
			out.Items = append(out.Items, toOrderOutput(o, items))
		}
		return nil
	})

	if err != nil {
		return OrderListOutput{}, err
	}
	return out, nil
}

func toOrderOutput(o model.Order, items []model.OrderItem) OrderOutput {
	if items == nil {
		items = []model.OrderItem{}
	}
	return OrderOutput{Order: o, Items: items}
}

func toShippingAddress(in ShippingAddressInput) model.ShippingAddress {
	return model.ShippingAddress{
		Name:       strings.TrimSpace(in.Name),
		Line1:      strings.TrimSpace(in.Line1),
		Line2:      strings.TrimSpace(in.Line2),
		City:       strings.TrimSpace(in.City),
		State:      strings.TrimSpace(in.State),
		PostalCode: strings.TrimSpace(in.PostalCode),
		Country:    strings.TrimSpace(in.Country),
		Phone:      strings.TrimSpace(in.Phone),
	}
}

func uniqueProductIDs(items []CreateOrderItemInput) []string {
	seen := make(map[string]struct{}, len(items))
	ids := make([]string, 0, len(items))
	for _, it := range items {
		if _, ok := seen[it.ProductID]; ok {
			continue
		}
		seen[it.ProductID] = struct{}{}
		ids = append(ids, it.ProductID)
	}
	return ids
}
