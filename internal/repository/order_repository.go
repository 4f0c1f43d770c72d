package repository

import (
	"context"
	"errors"
	"time"

	"danicandles/internal/domain/model"
)

// 条件付き更新で0件（他の処理が先にステータスを変えた）
var ErrStatusChanged = errors.New("order status changed concurrently")

type AdminOrderListFilter struct {
	Page   int
	Limit  int
	Status string
	UserID *string
	From   *time.Time
	To     *time.Time
}

// 決済完了時に書き込む値
type PaymentUpdate struct {
	PaymentProvider  string
	PaymentReference string
	CustomerEmail    string
	PlacedAt         time.Time
}

type OrderRepository interface {
	FindByID(ctx context.Context, orderID string) (model.Order, error)
	ListByUserID(ctx context.Context, userID string, page int, limit int) ([]model.Order, int64, error)
	Create(ctx context.Context, order model.Order) (string, error)

	//pending の注文だけを paid にする
	MarkPaid(ctx context.Context, orderID string, p PaymentUpdate) error
	//from のときだけ to に更新する
	UpdateStatus(ctx context.Context, orderID string, from model.OrderStatus, to model.OrderStatus) error
	SetCheckoutSession(ctx context.Context, orderID string, sessionID string) error

	//管理者用の注文一覧
	ListAdmin(ctx context.Context, f AdminOrderListFilter) ([]model.Order, int64, error)
}
