package model

import (
	"errors"
	"time"
)

type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "pending"
	OrderStatusPaid      OrderStatus = "paid"
	OrderStatusPreparing OrderStatus = "preparing"
	OrderStatusShipped   OrderStatus = "shipped"
	OrderStatusDelivered OrderStatus = "delivered"
	OrderStatusCanceled  OrderStatus = "canceled"
	OrderStatusRefunded  OrderStatus = "refunded"
)

type PaymentStatus string

const (
	PaymentStatusPending   PaymentStatus = "pending"
	PaymentStatusSucceeded PaymentStatus = "succeeded"
)

const PaymentProviderStripe = "stripe"

// 許可されていない遷移
var ErrIllegalTransition = errors.New("illegal order status transition")

// 配送先（ordersにjsonbで保存）
type ShippingAddress struct {
	Name       string `json:"name"`
	Line1      string `json:"line1"`
	Line2      string `json:"line2,omitempty"`
	City       string `json:"city"`
	State      string `json:"state"`
	PostalCode string `json:"postalCode"`
	Country    string `json:"country"`
	Phone      string `json:"phone,omitempty"`
}

// 金額はすべて最小通貨単位（cents）
type Order struct {
	ID                string          `gorm:"type:uuid;primaryKey" json:"id"`
	UserID            *string         `gorm:"type:uuid;index" json:"userId,omitempty"`
	CustomerEmail     string          `gorm:"type:varchar(320);not null" json:"customerEmail"`
	ShippingAddress   ShippingAddress `gorm:"type:jsonb;serializer:json;not null" json:"shippingAddress"`
	SubtotalCents     int64           `gorm:"not null" json:"subtotalCents"`
	ShippingCents     int64           `gorm:"not null" json:"shippingCents"`
	TaxCents          int64           `gorm:"not null" json:"taxCents"`
	TotalCents        int64           `gorm:"not null" json:"totalCents"`
	CurrencyCode      string          `gorm:"type:char(3);not null" json:"currencyCode"`
	Status            OrderStatus     `gorm:"type:varchar(20);not null;index" json:"status"`
	PaymentStatus     PaymentStatus   `gorm:"type:varchar(20);not null" json:"paymentStatus"`
	PaymentProvider   *string         `gorm:"type:varchar(50)" json:"paymentProvider,omitempty"`
	PaymentReference  *string         `gorm:"type:varchar(255)" json:"paymentReference,omitempty"`
	CheckoutSessionID *string         `gorm:"type:varchar(255)" json:"-"`
	PlacedAt          *time.Time      `json:"placedAt,omitempty"`
	CreatedAt         time.Time       `gorm:"not null" json:"createdAt"`
	UpdatedAt         time.Time       `gorm:"not null" json:"updatedAt"`
}

// 作成時の合計チェック
func (o Order) TotalsConsistent() bool {
	sum, ok := AddCents(o.SubtotalCents, o.ShippingCents, o.TaxCents)
	return ok && sum == o.TotalCents
}
